package token

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewCounter tests Counter creation with various encodings.
func TestNewCounter(t *testing.T) {
	tests := []struct {
		name         string
		encoding     string
		wantEncoding string
	}{
		{
			name:         "creates counter with default encoding",
			encoding:     "",
			wantEncoding: "cl100k_base",
		},
		{
			name:         "creates counter with o200k_base (GPT-4o)",
			encoding:     "o200k_base",
			wantEncoding: "o200k_base",
		},
		{
			name:         "falls back to default for invalid encoding",
			encoding:     "invalid_encoding",
			wantEncoding: "cl100k_base",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			counter, err := NewCounter(tt.encoding)
			require.NoError(t, err)
			assert.Equal(t, tt.wantEncoding, counter.Encoding())
		})
	}
}

// TestCounter_Count tests token counting with various strings.
func TestCounter_Count(t *testing.T) {
	counter, err := NewCounter("cl100k_base")
	require.NoError(t, err)

	tests := []struct {
		name    string
		text    string
		wantMin int
		wantMax int
	}{
		{"empty string returns zero", "", 0, 0},
		{"single word", "hello", 1, 1},
		{"longer text", "The quick brown fox jumps over the lazy dog.", 8, 12},
		{"vietnamese text", "Tiểu thuyết tiên hiệp", 4, 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			count := counter.Count(tt.text)
			assert.GreaterOrEqual(t, count, tt.wantMin, "token count should be >= min")
			assert.LessOrEqual(t, count, tt.wantMax, "token count should be <= max")
		})
	}
}

// TestCounter_TruncateToFit tests truncation from beginning or end.
func TestCounter_TruncateToFit(t *testing.T) {
	counter, err := NewCounter("cl100k_base")
	require.NoError(t, err)

	text := "Beginning of the text. Middle of the text. End of the text."

	tests := []struct {
		name      string
		maxTokens int
		fromEnd   bool
		checkFunc func(t *testing.T, result string)
	}{
		{
			name:      "returns empty for zero max tokens",
			maxTokens: 0,
			checkFunc: func(t *testing.T, result string) {
				assert.Empty(t, result)
			},
		},
		{
			name:      "keeps beginning when fromEnd is false",
			maxTokens: 5,
			checkFunc: func(t *testing.T, result string) {
				assert.True(t, strings.HasPrefix(result, "Beginning"), "should start with beginning")
				assert.LessOrEqual(t, counter.Count(result), 5)
			},
		},
		{
			name:      "keeps end when fromEnd is true",
			maxTokens: 5,
			fromEnd:   true,
			checkFunc: func(t *testing.T, result string) {
				assert.True(t, strings.HasSuffix(text, result), "should be a suffix")
				assert.Contains(t, result, "text")
			},
		},
		{
			name:      "returns full text if within limit",
			maxTokens: 100,
			checkFunc: func(t *testing.T, result string) {
				assert.Equal(t, text, result)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.checkFunc(t, counter.TruncateToFit(text, tt.maxTokens, tt.fromEnd))
		})
	}

	assert.Equal(t, counter.TruncateToFit(text, 5, false), counter.Truncate(text, 5))
}

// TestEstimateTokens tests the heuristic estimator.
func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, EstimateTokens(""))
	assert.Equal(t, 1, EstimateTokens("hi"))
	assert.Equal(t, 3, EstimateTokens("Chương một"))
}

// TestEstimator tests the offline Fitter.
func TestEstimator(t *testing.T) {
	var f Fitter = Estimator{}
	text := strings.Repeat("ế", 10)

	assert.Equal(t, 3, f.Count(text))
	assert.Equal(t, "", f.TruncateToFit(text, 0, false))
	assert.Equal(t, text, f.TruncateToFit(text, 3, false))

	head := f.TruncateToFit(text+"abcd", 1, false)
	assert.Equal(t, "ếếếế", head)
	assert.True(t, utf8.ValidString(head))

	tail := f.TruncateToFit(text+"abcd", 1, true)
	assert.Equal(t, "abcd", tail)
}

func TestNewFitter(t *testing.T) {
	f := NewFitter("gemini")
	require.NotNil(t, f)
	assert.Equal(t, 0, f.Count(""))
	assert.Greater(t, f.Count("a few words here"), 0)
}

// =============================================================================
// Budget
// =============================================================================

func TestContextLimit(t *testing.T) {
	tests := []struct {
		model string
		want  int
	}{
		{"gpt-4o", 128000},
		{"GPT-4O", 128000},
		{"gpt-4o-2024-08-06", 128000},
		{"gpt-4-turbo-preview", 128000},
		{"gpt-4-0613", 8192},
		{"gpt-4.1-nano", 1047576},
		{"models/gemini-2.5-flash", 1048576},
		{"gemini-2.5-flash-lite", 1048576},
		{"llama3:8b", 8192},
		{"qwen2.5:14b", 32768},
		{"mystery-model", DefaultContextLimit},
		{"", DefaultContextLimit},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			assert.Equal(t, tt.want, ContextLimit(tt.model))
		})
	}
}

func TestBudget_Allocation(t *testing.T) {
	b := NewBudget("gpt-4")

	got := b.Allocation()

	assert.Equal(t, Allocation{Prompt: 1228, Context: 4505, Response: 2457, Total: 8192}, got)
	assert.Equal(t, "gpt-4", b.Model())
	assert.Equal(t, DefaultRatios, b.Ratios())
}

func TestBudget_ContextTokens(t *testing.T) {
	assert.Equal(t, 4505, NewBudget("gpt-4").ContextTokens(6000), "small windows stay under the ceiling")
	assert.Equal(t, 6000, NewBudget("gpt-4o").ContextTokens(6000))
	assert.Equal(t, 70400, NewBudget("gpt-4o").ContextTokens(0), "no ceiling")
}

func TestBudget_CanFit(t *testing.T) {
	b := NewBudget("gpt-4")

	assert.True(t, b.CanFit(1000, 4735))
	assert.False(t, b.CanFit(1000, 4736))
}

func TestBudget_WithIsImmutable(t *testing.T) {
	b := NewBudget("gpt-4")

	wider := b.WithMaxTokens(16000)
	custom := b.WithRatios(Ratios{Prompt: 0.1, Context: 0.1, Response: 0.8})

	assert.Equal(t, 8192, b.MaxTokens())
	assert.Equal(t, 16000, wider.MaxTokens())
	assert.Equal(t, DefaultRatios, b.Ratios())
	assert.Equal(t, 819, custom.Allocation().Context)
}

func TestRatios(t *testing.T) {
	assert.True(t, ValidateRatios(DefaultRatios))
	assert.False(t, ValidateRatios(Ratios{Prompt: 1, Context: 2, Response: 1}))

	n := NormalizeRatios(Ratios{Prompt: 1, Context: 2, Response: 1})
	assert.InDelta(t, 0.25, n.Prompt, 1e-9)
	assert.InDelta(t, 0.5, n.Context, 1e-9)
	assert.InDelta(t, 0.25, n.Response, 1e-9)
	assert.True(t, ValidateRatios(n))

	assert.Equal(t, DefaultRatios, NormalizeRatios(Ratios{}))
}
