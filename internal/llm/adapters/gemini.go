// Package adapters provides LLM provider implementations.
package adapters

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/Nhatlinh9898/novelvip/internal/llm"
)

// geminiModelCapabilities maps model names to their capabilities.
var geminiModelCapabilities = map[string]llm.Capabilities{
	"gemini-2.0-flash": {
		SupportsJSONSchema: true,
		MaxContextTokens:   1048576,
		MaxOutputTokens:    8192,
		TokenizerType:      "gemini",
		Models:             []string{"gemini-2.0-flash"},
	},
	"gemini-2.5-pro": {
		SupportsJSONSchema: true,
		SupportsThinking:   true,
		MaxContextTokens:   1048576,
		MaxOutputTokens:    65536,
		TokenizerType:      "gemini",
		Models:             []string{"gemini-2.5-pro"},
	},
	"gemini-2.5-flash": {
		SupportsJSONSchema: true,
		SupportsThinking:   true,
		MaxContextTokens:   1048576,
		MaxOutputTokens:    65536,
		TokenizerType:      "gemini",
		Models:             []string{"gemini-2.5-flash"},
	},
	"gemini-3": {
		SupportsJSONSchema: true,
		SupportsThinking:   true,
		MaxContextTokens:   1048576,
		MaxOutputTokens:    65536,
		TokenizerType:      "gemini",
	},
}

// defaultGeminiCapabilities are used when the model is not in the known list.
var defaultGeminiCapabilities = llm.Capabilities{
	SupportsJSONSchema: true,
	MaxContextTokens:   128000,
	MaxOutputTokens:    8192,
	TokenizerType:      "gemini",
}

// GeminiAdapter implements the Provider interface for Google's Gemini API.
type GeminiAdapter struct {
	client *genai.Client
	model  string
	safety []*genai.SafetySetting
}

// GeminiAdapterOption configures a GeminiAdapter.
type GeminiAdapterOption func(*geminiConfig)

type geminiConfig struct {
	blockNone bool
}

// WithGeminiSafetyBlockNone disables the default content filters. Fiction
// routinely trips them on violence in battle scenes.
func WithGeminiSafetyBlockNone(enabled bool) GeminiAdapterOption {
	return func(c *geminiConfig) {
		c.blockNone = enabled
	}
}

// NewGeminiAdapter creates a new GeminiAdapter for Google's Gemini API.
// The apiKey should be a valid Gemini API key.
// The model should be the model name to use (e.g., "gemini-2.5-flash").
func NewGeminiAdapter(ctx context.Context, apiKey, model string, opts ...GeminiAdapterOption) (*GeminiAdapter, error) {
	if apiKey == "" {
		return nil, llm.ErrInvalidAPIKey
	}

	cfg := &geminiConfig{blockNone: true}
	for _, opt := range opts {
		opt(cfg)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	a := &GeminiAdapter{
		client: client,
		model:  model,
	}
	if cfg.blockNone {
		a.safety = []*genai.SafetySetting{
			{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockThresholdBlockNone},
			{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockThresholdBlockNone},
			{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockThresholdBlockNone},
			{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockThresholdBlockNone},
		}
	}
	return a, nil
}

// Chat sends a chat completion request and returns the complete response.
func (a *GeminiAdapter) Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	model := a.modelFor(req)
	contents, systemInstruction := convertGeminiMessages(req.Messages)
	config := a.buildConfig(req, systemInstruction)

	result, err := a.client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return nil, wrapGeminiError(err)
	}

	return convertGeminiResponse(model, result)
}

// Capabilities returns the provider's capabilities.
func (a *GeminiAdapter) Capabilities() llm.Capabilities {
	return geminiCapabilities(a.model)
}

func geminiCapabilities(model string) llm.Capabilities {
	// Check for exact match first
	if caps, ok := geminiModelCapabilities[model]; ok {
		return caps
	}

	// Check for partial matches (e.g., "gemini-2.5-flash-preview" matches "gemini-2.5-flash")
	for modelPrefix, caps := range geminiModelCapabilities {
		if strings.HasPrefix(model, modelPrefix) {
			capsWithModel := caps
			capsWithModel.Models = []string{model}
			return capsWithModel
		}
	}

	// Return default capabilities for unknown models
	caps := defaultGeminiCapabilities
	caps.Models = []string{model}
	return caps
}

// Close releases resources held by the adapter.
func (a *GeminiAdapter) Close() error {
	// The genai client doesn't have a Close method, so nothing to clean up
	return nil
}

func (a *GeminiAdapter) modelFor(req llm.ChatRequest) string {
	if req.Model != "" {
		return req.Model
	}
	return a.model
}

// convertGeminiMessages converts our ChatMessage slice to Gemini's Content
// format. Returns the contents and an optional system instruction.
func convertGeminiMessages(messages []llm.ChatMessage) ([]*genai.Content, *genai.Content) {
	var systemInstruction *genai.Content
	var contents []*genai.Content

	for _, msg := range messages {
		switch msg.Role {
		case llm.RoleSystem:
			// Gemini uses SystemInstruction for system messages
			systemInstruction = &genai.Content{
				Parts: []*genai.Part{{Text: msg.Content}},
			}
		case llm.RoleUser:
			contents = append(contents, &genai.Content{
				Role:  "user",
				Parts: []*genai.Part{{Text: msg.Content}},
			})
		case llm.RoleAssistant:
			contents = append(contents, &genai.Content{
				Role:  "model",
				Parts: []*genai.Part{{Text: msg.Content}},
			})
		}
	}

	return contents, systemInstruction
}

// buildConfig creates the GenerateContentConfig from our ChatRequest.
func (a *GeminiAdapter) buildConfig(req llm.ChatRequest, systemInstruction *genai.Content) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{
		SafetySettings: a.safety,
	}

	if systemInstruction != nil {
		config.SystemInstruction = systemInstruction
	}

	if req.MaxTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxTokens)
	}

	if req.Temperature > 0 {
		config.Temperature = genai.Ptr(float32(req.Temperature))
	}

	if len(req.Stop) > 0 {
		config.StopSequences = req.Stop
	}

	if req.ResponseFormat == llm.FormatJSON {
		config.ResponseMIMEType = "application/json"
		if req.ResponseSchema != nil {
			config.ResponseJsonSchema = req.ResponseSchema
		}
	}

	if req.ThinkingBudget > 0 && geminiCapabilities(a.modelFor(req)).SupportsThinking {
		config.ThinkingConfig = &genai.ThinkingConfig{
			ThinkingBudget: genai.Ptr(int32(req.ThinkingBudget)),
		}
	}

	return config
}

// convertGeminiResponse converts Gemini's response to our ChatResponse format.
func convertGeminiResponse(model string, result *genai.GenerateContentResponse) (*llm.ChatResponse, error) {
	if result == nil || len(result.Candidates) == 0 {
		return nil, fmt.Errorf("%w: no candidates in response", llm.ErrEmptyResponse)
	}

	candidate := result.Candidates[0]
	response := &llm.ChatResponse{
		Model:        model,
		FinishReason: convertGeminiFinishReason(candidate.FinishReason),
	}

	var contentParts []string
	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			// Thought summaries are not part of the answer.
			if part.Text != "" && !part.Thought {
				contentParts = append(contentParts, part.Text)
			}
		}
	}

	response.Message = llm.NewAssistantMessage(strings.Join(contentParts, ""))

	if result.UsageMetadata != nil {
		response.Usage = llm.TokenUsage{
			PromptTokens:     int(result.UsageMetadata.PromptTokenCount),
			CompletionTokens: int(result.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int(result.UsageMetadata.TotalTokenCount),
		}
	}

	return response, nil
}

// convertGeminiFinishReason converts Gemini's finish reason to our format.
func convertGeminiFinishReason(reason genai.FinishReason) string {
	switch reason {
	case genai.FinishReasonStop:
		return llm.FinishReasonStop
	case genai.FinishReasonMaxTokens:
		return llm.FinishReasonLength
	case genai.FinishReasonSafety, genai.FinishReasonRecitation, genai.FinishReasonBlocklist:
		return llm.FinishReasonContentFilter
	default:
		return string(reason)
	}
}

// wrapGeminiError wraps Gemini errors in our error types.
func wrapGeminiError(err error) error {
	if err == nil {
		return nil
	}

	errStr := err.Error()

	// Check for common error patterns
	switch {
	case strings.Contains(errStr, "API key"):
		return fmt.Errorf("%w: %s", llm.ErrInvalidAPIKey, errStr)
	case strings.Contains(errStr, "not found") || strings.Contains(errStr, "404"):
		return fmt.Errorf("%w: %s", llm.ErrModelNotFound, errStr)
	case strings.Contains(errStr, "RESOURCE_EXHAUSTED") || strings.Contains(errStr, "429"):
		return fmt.Errorf("%w: %s", llm.ErrRateLimited, errStr)
	case strings.Contains(errStr, "context") && strings.Contains(errStr, "token"):
		return llm.ErrContextTooLong
	default:
		return fmt.Errorf("%w: %s", llm.ErrAPIError, errStr)
	}
}

// ModelName returns the name of the model being used.
func (a *GeminiAdapter) ModelName() string {
	return a.model
}

// Verify GeminiAdapter implements Provider interface.
var _ llm.Provider = (*GeminiAdapter)(nil)

// SafetyFilters reports whether Gemini's default content filters apply.
func (a *GeminiAdapter) SafetyFilters() bool {
	return a.safety == nil
}
