// Package token provides token counting and context budgeting for prompts.
package token

import (
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

// Fitter counts tokens and trims text to a token budget.
type Fitter interface {
	Count(text string) int
	TruncateToFit(text string, maxTokens int, fromEnd bool) string
}

// Counter wraps a tiktoken encoder for token counting operations.
type Counter struct {
	encoder  *tiktoken.Tiktoken
	encoding string
}

// Default encoding for fallback.
const defaultEncoding = "cl100k_base"

// NewCounter creates a new token counter with the specified encoding.
// Supported encodings include:
//   - "cl100k_base" (GPT-4, GPT-4-turbo, GPT-3.5-turbo)
//   - "o200k_base" (GPT-4o)
//
// Falls back to cl100k_base if the specified encoding is not found.
func NewCounter(encoding string) (*Counter, error) {
	if encoding == "" {
		encoding = defaultEncoding
	}

	encoder, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		// Fallback to default encoding
		encoder, err = tiktoken.GetEncoding(defaultEncoding)
		if err != nil {
			return nil, err
		}
		encoding = defaultEncoding
	}

	return &Counter{
		encoder:  encoder,
		encoding: encoding,
	}, nil
}

// NewFitter returns a tiktoken Counter for the encoding, or an Estimator when
// the encoder cannot be loaded (for example when offline). Gemini models
// report a non-tiktoken tokenizer; cl100k_base is a close enough proxy.
func NewFitter(encoding string) Fitter {
	switch encoding {
	case "cl100k_base", "o200k_base":
	default:
		encoding = defaultEncoding
	}
	c, err := NewCounter(encoding)
	if err != nil {
		return Estimator{}
	}
	return c
}

// Encoding returns the current encoding name.
func (c *Counter) Encoding() string {
	return c.encoding
}

// Count returns the number of tokens in the given text.
func (c *Counter) Count(text string) int {
	if text == "" {
		return 0
	}
	tokens := c.encoder.Encode(text, nil, nil)
	return len(tokens)
}

// Truncate truncates the given text to fit within the specified token limit.
// Returns the truncated text. If the text is already within the limit,
// it is returned unchanged.
func (c *Counter) Truncate(text string, maxTokens int) string {
	return c.TruncateToFit(text, maxTokens, false)
}

// TruncateToFit truncates text from the beginning or end to fit within maxTokens.
// If fromEnd is true, keeps the end of the text; otherwise keeps the beginning.
func (c *Counter) TruncateToFit(text string, maxTokens int, fromEnd bool) string {
	if maxTokens <= 0 {
		return ""
	}

	tokens := c.encoder.Encode(text, nil, nil)
	if len(tokens) <= maxTokens {
		return text
	}

	if fromEnd {
		// Keep the last maxTokens
		startIdx := len(tokens) - maxTokens
		return c.encoder.Decode(tokens[startIdx:])
	}

	// Keep the first maxTokens
	return c.encoder.Decode(tokens[:maxTokens])
}

// EstimateTokens provides a quick estimate of token count without encoding.
// This is less accurate but faster, useful for rough estimates.
// Uses a heuristic of approximately 4 characters per token for English text.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	runeCount := utf8.RuneCountInString(text)
	return (runeCount + 3) / 4
}

// Estimator is a Fitter based on EstimateTokens. It never splits a rune.
type Estimator struct{}

// Count estimates the number of tokens in text.
func (Estimator) Count(text string) int {
	return EstimateTokens(text)
}

// TruncateToFit keeps roughly maxTokens*4 runes from the start or end.
func (Estimator) TruncateToFit(text string, maxTokens int, fromEnd bool) string {
	if maxTokens <= 0 {
		return ""
	}
	runes := []rune(text)
	limit := maxTokens * 4
	if len(runes) <= limit {
		return text
	}
	if fromEnd {
		return string(runes[len(runes)-limit:])
	}
	return string(runes[:limit])
}

var (
	_ Fitter = (*Counter)(nil)
	_ Fitter = Estimator{}
)
