package adapters

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	openai "github.com/sashabaranov/go-openai"

	"github.com/Nhatlinh9898/novelvip/internal/llm"
)

// modelCapabilities maps model names to their capabilities.
var modelCapabilities = map[string]llm.Capabilities{
	"gpt-4o": {
		SupportsJSONSchema: true,
		MaxContextTokens:   128000,
		MaxOutputTokens:    16384,
		TokenizerType:      "o200k_base",
	},
	"gpt-4o-mini": {
		SupportsJSONSchema: true,
		MaxContextTokens:   128000,
		MaxOutputTokens:    16384,
		TokenizerType:      "o200k_base",
	},
	"gpt-4.1": {
		SupportsJSONSchema: true,
		MaxContextTokens:   1047576,
		MaxOutputTokens:    32768,
		TokenizerType:      "o200k_base",
	},
	"gpt-4.1-mini": {
		SupportsJSONSchema: true,
		MaxContextTokens:   1047576,
		MaxOutputTokens:    32768,
		TokenizerType:      "o200k_base",
	},
	"gpt-4-turbo": {
		MaxContextTokens: 128000,
		MaxOutputTokens:  4096,
		TokenizerType:    "cl100k_base",
	},
}

// defaultCapabilities is used for unknown models.
var defaultCapabilities = llm.Capabilities{
	MaxContextTokens: 128000,
	MaxOutputTokens:  4096,
	TokenizerType:    "cl100k_base",
}

// OpenAIAdapter implements the Provider interface for OpenAI API.
type OpenAIAdapter struct {
	client *openai.Client
	model  string
	config OpenAIConfig
}

// OpenAIConfig holds configuration for the OpenAI adapter.
type OpenAIConfig struct {
	// APIKey is the OpenAI API key.
	APIKey string

	// Model is the model to use for completions.
	Model string

	// BaseURL overrides the default API URL (for Azure or compatible APIs).
	BaseURL string

	// Organization is the optional OpenAI organization ID.
	Organization string

	// Timeout is the request timeout duration.
	Timeout time.Duration

	// MaxRetries is the number of retries for rate-limited requests.
	MaxRetries int

	// RetryDelay is the initial delay between retries.
	RetryDelay time.Duration
}

// OpenAIOption configures an OpenAIAdapter.
type OpenAIOption func(*OpenAIConfig)

// WithOpenAIBaseURL sets a custom base URL.
func WithOpenAIBaseURL(baseURL string) OpenAIOption {
	return func(c *OpenAIConfig) {
		c.BaseURL = baseURL
	}
}

// WithOpenAIOrganization sets the organization ID.
func WithOpenAIOrganization(org string) OpenAIOption {
	return func(c *OpenAIConfig) {
		c.Organization = org
	}
}

// WithOpenAITimeout sets the request timeout.
func WithOpenAITimeout(timeout time.Duration) OpenAIOption {
	return func(c *OpenAIConfig) {
		c.Timeout = timeout
	}
}

// WithOpenAIRetry sets retry configuration.
func WithOpenAIRetry(maxRetries int, retryDelay time.Duration) OpenAIOption {
	return func(c *OpenAIConfig) {
		c.MaxRetries = maxRetries
		c.RetryDelay = retryDelay
	}
}

// NewOpenAIAdapter creates a new OpenAI adapter.
func NewOpenAIAdapter(apiKey, model string, opts ...OpenAIOption) (*OpenAIAdapter, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: API key is required", llm.ErrInvalidAPIKey)
	}

	if model == "" {
		model = "gpt-4o-mini"
	}

	config := OpenAIConfig{
		APIKey:     apiKey,
		Model:      model,
		Timeout:    120 * time.Second,
		MaxRetries: 3,
		RetryDelay: 1 * time.Second,
	}

	for _, opt := range opts {
		opt(&config)
	}

	clientConfig := openai.DefaultConfig(apiKey)

	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	if config.Organization != "" {
		clientConfig.OrgID = config.Organization
	}

	return &OpenAIAdapter{
		client: openai.NewClientWithConfig(clientConfig),
		model:  model,
		config: config,
	}, nil
}

// Chat sends a chat completion request and returns the complete response.
// Rate limits and server errors are retried with exponential backoff.
func (a *OpenAIAdapter) Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	openAIReq := a.buildRequest(req)

	if a.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.config.Timeout)
		defer cancel()
	}

	var resp openai.ChatCompletionResponse
	err := retry.Do(
		func() error {
			r, err := a.client.CreateChatCompletion(ctx, openAIReq)
			if err != nil {
				return a.handleError(err)
			}
			resp = r
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(uint(a.config.MaxRetries+1)),
		retry.Delay(a.config.RetryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.RetryIf(a.isRetryable),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, err
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices in response", llm.ErrEmptyResponse)
	}

	return a.buildResponse(resp), nil
}

// Capabilities returns the provider's capabilities.
func (a *OpenAIAdapter) Capabilities() llm.Capabilities {
	caps, ok := modelCapabilities[a.model]
	if !ok {
		caps = defaultCapabilities
	}
	caps.Models = a.availableModels()
	return caps
}

// Close releases resources held by the adapter.
func (a *OpenAIAdapter) Close() error {
	// No persistent resources to clean up
	return nil
}

// Model returns the current model name.
func (a *OpenAIAdapter) Model() string {
	return a.model
}

// jsonSchema adapts a schema document to the json.Marshaler the client expects.
type jsonSchema map[string]any

func (s jsonSchema) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any(s))
}

// buildRequest converts our ChatRequest to the OpenAI format.
func (a *OpenAIAdapter) buildRequest(req llm.ChatRequest) openai.ChatCompletionRequest {
	messages := make([]openai.ChatCompletionMessage, len(req.Messages))
	for i, msg := range req.Messages {
		messages[i] = openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		}
	}

	model := a.model
	if req.Model != "" {
		model = req.Model
	}

	openAIReq := openai.ChatCompletionRequest{
		Model:    model,
		Messages: messages,
		Stop:     req.Stop,
	}

	if req.MaxTokens > 0 {
		openAIReq.MaxTokens = req.MaxTokens
	}

	if req.Temperature > 0 {
		openAIReq.Temperature = float32(req.Temperature)
	}

	if req.ResponseFormat == llm.FormatJSON {
		openAIReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
		if req.ResponseSchema != nil && a.Capabilities().SupportsJSONSchema {
			openAIReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
				JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
					Name:   "response",
					Schema: jsonSchema(req.ResponseSchema),
				},
			}
		}
	}

	return openAIReq
}

// buildResponse converts OpenAI response to our ChatResponse.
func (a *OpenAIAdapter) buildResponse(resp openai.ChatCompletionResponse) *llm.ChatResponse {
	choice := resp.Choices[0]

	return &llm.ChatResponse{
		Message: llm.ChatMessage{
			Role:    choice.Message.Role,
			Content: choice.Message.Content,
		},
		Usage: llm.TokenUsage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
		FinishReason: string(choice.FinishReason),
		Model:        resp.Model,
	}
}

// handleError converts OpenAI errors to our error types.
func (a *OpenAIAdapter) handleError(err error) error {
	if err == nil {
		return nil
	}

	// Check for context errors
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("request canceled: %w", err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("request timed out: %w", err)
	}

	// Check for OpenAI API errors
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case 401:
			return fmt.Errorf("%w: %s", llm.ErrInvalidAPIKey, apiErr.Message)
		case 404:
			return fmt.Errorf("%w: %s", llm.ErrModelNotFound, apiErr.Message)
		case 429:
			return fmt.Errorf("%w: %s", llm.ErrRateLimited, apiErr.Message)
		case 400:
			// Check for context length errors
			if apiErr.Code == "context_length_exceeded" {
				return fmt.Errorf("%w: %s", llm.ErrContextTooLong, apiErr.Message)
			}
			return fmt.Errorf("%w: %s", llm.ErrAPIError, apiErr.Message)
		case 500, 502, 503, 504:
			return &serverError{status: apiErr.HTTPStatusCode, msg: apiErr.Message}
		default:
			return fmt.Errorf("%w: HTTP %d - %s", llm.ErrAPIError, apiErr.HTTPStatusCode, apiErr.Message)
		}
	}

	// Check for request errors
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if reqErr.HTTPStatusCode >= 500 {
			return &serverError{status: reqErr.HTTPStatusCode, msg: reqErr.Error()}
		}
		return fmt.Errorf("%w: %s", llm.ErrAPIError, reqErr.Error())
	}

	return fmt.Errorf("%w: %s", llm.ErrAPIError, err.Error())
}

// serverError marks a 5xx response. It unwraps to llm.ErrAPIError.
type serverError struct {
	status int
	msg    string
}

func (e *serverError) Error() string {
	return fmt.Sprintf("%s: server error %d - %s", llm.ErrAPIError, e.status, e.msg)
}

func (e *serverError) Unwrap() error { return llm.ErrAPIError }

// isRetryable returns true if the error is retryable.
func (a *OpenAIAdapter) isRetryable(err error) bool {
	if err == nil {
		return false
	}

	// Rate limit errors are retryable
	if errors.Is(err, llm.ErrRateLimited) {
		return true
	}

	var srvErr *serverError
	return errors.As(err, &srvErr)
}

// availableModels returns the list of available OpenAI models.
func (a *OpenAIAdapter) availableModels() []string {
	return []string{
		"gpt-4o",
		"gpt-4o-mini",
		"gpt-4.1",
		"gpt-4.1-mini",
		"gpt-4-turbo",
	}
}

// Verify OpenAIAdapter implements Provider interface.
var _ llm.Provider = (*OpenAIAdapter)(nil)
