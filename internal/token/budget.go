package token

import (
	"strings"
)

// ModelContextLimits maps model names to their maximum context window sizes.
// Versioned names such as "gpt-4o-2024-08-06" resolve by longest prefix.
var ModelContextLimits = map[string]int{
	// OpenAI models
	"gpt-4.1":       1047576,
	"gpt-4.1-mini":  1047576,
	"gpt-4o":        128000,
	"gpt-4o-mini":   128000,
	"gpt-4-turbo":   128000,
	"gpt-4":         8192,
	"gpt-3.5-turbo": 16385,

	// Google Gemini models
	"gemini-2.5-pro":        1048576,
	"gemini-2.5-flash":      1048576,
	"gemini-2.5-flash-lite": 1048576,
	"gemini-2.0-flash":      1048576,
	"gemini-1.5-pro":        2097152,
	"gemini-1.5-flash":      1048576,

	// Common local models
	"llama3":  8192,
	"qwen2.5": 32768,
}

// DefaultContextLimit is used when the model is not recognized.
const DefaultContextLimit = 8192

// Ratios split a context window between the prompt instructions, the story
// context and the response.
type Ratios struct {
	Prompt   float64
	Context  float64
	Response float64
}

// DefaultRatios leaves most of the window to story context and the reply.
var DefaultRatios = Ratios{
	Prompt:   0.15,
	Context:  0.55,
	Response: 0.30,
}

// Allocation represents the concrete token allocations for each category.
type Allocation struct {
	Prompt   int
	Context  int
	Response int
	Total    int
}

// Budget manages how a model's context window is spent.
type Budget struct {
	model     string
	maxTokens int
	ratios    Ratios
}

// NewBudget creates a Budget for the model with the default ratios.
func NewBudget(model string) *Budget {
	return &Budget{
		model:     model,
		maxTokens: ContextLimit(model),
		ratios:    DefaultRatios,
	}
}

// ContextLimit returns the context window of a model. Unknown models get
// DefaultContextLimit.
func ContextLimit(model string) int {
	model = strings.ToLower(strings.TrimSpace(model))
	model = strings.TrimPrefix(model, "models/")
	if limit, ok := ModelContextLimits[model]; ok {
		return limit
	}

	best, limit := "", DefaultContextLimit
	for name, l := range ModelContextLimits {
		if strings.HasPrefix(model, name) && len(name) > len(best) {
			best, limit = name, l
		}
	}
	return limit
}

// Allocation returns the token allocations for each category.
func (b *Budget) Allocation() Allocation {
	return Allocation{
		Prompt:   int(float64(b.maxTokens) * b.ratios.Prompt),
		Context:  int(float64(b.maxTokens) * b.ratios.Context),
		Response: int(float64(b.maxTokens) * b.ratios.Response),
		Total:    b.maxTokens,
	}
}

// ContextTokens returns the story context allocation, capped at ceiling
// when ceiling is positive. Huge windows would otherwise send whole
// manuscripts with every request.
func (b *Budget) ContextTokens(ceiling int) int {
	tokens := b.Allocation().Context
	if ceiling > 0 && tokens > ceiling {
		return ceiling
	}
	return tokens
}

// CanFit reports whether a prompt and its context leave room for the
// response allocation.
func (b *Budget) CanFit(promptTokens, contextTokens int) bool {
	available := b.maxTokens - b.Allocation().Response
	return promptTokens+contextTokens <= available
}

// Model returns the model name this budget was configured for.
func (b *Budget) Model() string {
	return b.model
}

// MaxTokens returns the context window size.
func (b *Budget) MaxTokens() int {
	return b.maxTokens
}

// Ratios returns the current budget ratios.
func (b *Budget) Ratios() Ratios {
	return b.ratios
}

// WithRatios returns a new Budget with updated ratios.
func (b *Budget) WithRatios(ratios Ratios) *Budget {
	return &Budget{
		model:     b.model,
		maxTokens: b.maxTokens,
		ratios:    ratios,
	}
}

// WithMaxTokens returns a new Budget with an explicit window size.
func (b *Budget) WithMaxTokens(maxTokens int) *Budget {
	return &Budget{
		model:     b.model,
		maxTokens: maxTokens,
		ratios:    b.ratios,
	}
}

// ValidateRatios checks if the budget ratios sum to approximately 1.0.
func ValidateRatios(ratios Ratios) bool {
	sum := ratios.Prompt + ratios.Context + ratios.Response
	return sum >= 0.99 && sum <= 1.01
}

// NormalizeRatios scales ratios to sum exactly to 1.0. All-zero ratios
// yield DefaultRatios.
func NormalizeRatios(ratios Ratios) Ratios {
	sum := ratios.Prompt + ratios.Context + ratios.Response
	if sum == 0 {
		return DefaultRatios
	}

	return Ratios{
		Prompt:   ratios.Prompt / sum,
		Context:  ratios.Context / sum,
		Response: ratios.Response / sum,
	}
}
