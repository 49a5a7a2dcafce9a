package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Nhatlinh9898/novelvip/internal/llm"
)

const (
	defaultTimeout     = 120 * time.Second
	defaultMaxTokens   = 2048
	defaultTemperature = 0.7
)

// LocalAdapter implements the Provider interface for local OpenAI-compatible APIs.
// It works with servers like Ollama, LM Studio, vLLM, and other compatible implementations.
type LocalAdapter struct {
	client  *http.Client
	baseURL string
	model   string
	timeout time.Duration
}

// LocalAdapterOption configures a LocalAdapter.
type LocalAdapterOption func(*LocalAdapter)

// WithTimeout sets a custom timeout for requests.
func WithTimeout(timeout time.Duration) LocalAdapterOption {
	return func(a *LocalAdapter) {
		a.timeout = timeout
		a.client.Timeout = timeout
	}
}

// NewLocalAdapter creates a new LocalAdapter for OpenAI-compatible local servers.
// The baseURL should point to the server (e.g., "http://localhost:11434" for Ollama).
// The model should be the model name to use (e.g., "llama3.2", "qwen2.5").
func NewLocalAdapter(baseURL, model string, opts ...LocalAdapterOption) *LocalAdapter {
	// Normalize base URL - remove trailing slash
	baseURL = strings.TrimSuffix(baseURL, "/")

	adapter := &LocalAdapter{
		client: &http.Client{
			Timeout: defaultTimeout,
		},
		baseURL: baseURL,
		model:   model,
		timeout: defaultTimeout,
	}

	for _, opt := range opts {
		opt(adapter)
	}

	return adapter
}

// localChatRequest represents the OpenAI-compatible chat completion request.
type localChatRequest struct {
	Model          string               `json:"model"`
	Messages       []localChatMessage   `json:"messages"`
	MaxTokens      int                  `json:"max_tokens,omitempty"`
	Temperature    float64              `json:"temperature,omitempty"`
	Stream         bool                 `json:"stream"`
	Stop           []string             `json:"stop,omitempty"`
	ResponseFormat *localResponseFormat `json:"response_format,omitempty"`
}

// localResponseFormat asks the server for JSON output.
type localResponseFormat struct {
	Type string `json:"type"`
}

// localChatMessage represents a message in the OpenAI format.
type localChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// localChatResponse represents the OpenAI-compatible chat completion response.
type localChatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Index        int              `json:"index"`
		Message      localChatMessage `json:"message"`
		FinishReason string           `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// localErrorResponse represents an error response from the API.
type localErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

// Chat sends a chat completion request and returns the complete response.
func (a *LocalAdapter) Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	body, err := json.Marshal(a.buildRequest(req))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("request timed out: %w", err)
		}
		if errors.Is(err, context.Canceled) {
			return nil, fmt.Errorf("request canceled: %w", err)
		}
		return nil, fmt.Errorf("%w: request failed: %v", llm.ErrAPIError, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, a.handleErrorResponse(resp)
	}

	var localResp localChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&localResp); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", llm.ErrAPIError, err)
	}

	if len(localResp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices in response", llm.ErrEmptyResponse)
	}

	choice := localResp.Choices[0]
	return &llm.ChatResponse{
		Message: llm.ChatMessage{
			Role:    choice.Message.Role,
			Content: choice.Message.Content,
		},
		Usage: llm.TokenUsage{
			PromptTokens:     localResp.Usage.PromptTokens,
			CompletionTokens: localResp.Usage.CompletionTokens,
			TotalTokens:      localResp.Usage.TotalTokens,
		},
		FinishReason: choice.FinishReason,
		Model:        localResp.Model,
	}, nil
}

// Capabilities returns the provider's capabilities.
func (a *LocalAdapter) Capabilities() llm.Capabilities {
	return llm.Capabilities{
		MaxContextTokens: 8192, // Conservative default; varies by model
		MaxOutputTokens:  2048, // Conservative default; varies by model
		TokenizerType:    "",   // Unknown for local models
		Models:           []string{a.model},
	}
}

// Close releases resources held by the adapter.
func (a *LocalAdapter) Close() error {
	// No persistent resources to clean up
	return nil
}

// buildRequest converts our ChatRequest to the OpenAI-compatible format.
// Local servers only get the generic JSON mode; the schema is checked by
// the caller.
func (a *LocalAdapter) buildRequest(req llm.ChatRequest) localChatRequest {
	messages := make([]localChatMessage, len(req.Messages))
	for i, msg := range req.Messages {
		messages[i] = localChatMessage{
			Role:    msg.Role,
			Content: msg.Content,
		}
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}

	temperature := req.Temperature
	if temperature == 0 {
		temperature = defaultTemperature
	}

	model := a.model
	if req.Model != "" {
		model = req.Model
	}

	out := localChatRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		Stop:        req.Stop,
	}
	if req.ResponseFormat == llm.FormatJSON {
		out.ResponseFormat = &localResponseFormat{Type: "json_object"}
	}
	return out
}

// handleErrorResponse processes error responses from the API.
func (a *LocalAdapter) handleErrorResponse(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return llm.ErrInvalidAPIKey
	case http.StatusNotFound:
		return fmt.Errorf("%w: model %q not found", llm.ErrModelNotFound, a.model)
	case http.StatusTooManyRequests:
		return llm.ErrRateLimited
	}

	var errResp localErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		return fmt.Errorf("%w: %s (code: %s)", llm.ErrAPIError, errResp.Error.Message, errResp.Error.Code)
	}

	if resp.StatusCode == http.StatusBadRequest {
		if bytes.Contains(body, []byte("context")) || bytes.Contains(body, []byte("token")) {
			return llm.ErrContextTooLong
		}
		return fmt.Errorf("%w: bad request - %s", llm.ErrAPIError, string(body))
	}
	return fmt.Errorf("%w: HTTP %d - %s", llm.ErrAPIError, resp.StatusCode, string(body))
}

// ModelName returns the name of the model being used.
func (a *LocalAdapter) ModelName() string {
	return a.model
}

// BaseURL returns the base URL of the server.
func (a *LocalAdapter) BaseURL() string {
	return a.baseURL
}

// Verify LocalAdapter implements Provider interface.
var _ llm.Provider = (*LocalAdapter)(nil)

// Timeout returns the request timeout.
func (a *LocalAdapter) Timeout() time.Duration {
	return a.timeout
}
