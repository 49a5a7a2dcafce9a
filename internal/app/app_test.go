package app

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nhatlinh9898/novelvip/internal/generate"
	"github.com/Nhatlinh9898/novelvip/internal/llm/adapters"
	"github.com/Nhatlinh9898/novelvip/pkg/types"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

// =============================================================================
// TestConfigManager
// =============================================================================

func TestLoadGlobalConfigDefaults(t *testing.T) {
	cm := NewConfigManagerAt(filepath.Join(t.TempDir(), "missing.yaml"))

	cfg, err := cm.LoadGlobalConfig()
	require.NoError(t, err)
	assert.Equal(t, types.DefaultGlobalConfig(), cfg)
}

func TestLoadGlobalConfigMergesDefaults(t *testing.T) {
	path := writeConfig(t, `
defaults:
  provider: openai
novel:
  genre: Kiếm Hiệp
`)

	cfg, err := NewConfigManagerAt(path).LoadGlobalConfig()
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.Defaults.Provider)
	assert.Equal(t, "Kiếm Hiệp", cfg.Novel.Genre)
	assert.Equal(t, "Hùng tráng", cfg.Novel.Tone, "unset fields keep defaults")
	assert.Equal(t, 1.0, cfg.Voice.Rate)
	assert.NotNil(t, cfg.Providers)
}

func TestLoadGlobalConfigExpandsEnv(t *testing.T) {
	t.Setenv("NOVELVIP_TEST_KEY", "sk-test")
	t.Setenv("NOVELVIP_TEST_HOST", "localhost:1234")
	path := writeConfig(t, `
providers:
  openai:
    api_key: ${NOVELVIP_TEST_KEY}
    base_url: http://${NOVELVIP_TEST_HOST}/v1
    default_model: gpt-4o
`)

	cm := NewConfigManagerAt(path)
	provider, err := cm.GetProviderConfig("openai")
	require.NoError(t, err)
	assert.Equal(t, "sk-test", provider.APIKey)
	assert.Equal(t, "http://localhost:1234/v1", provider.BaseURL)

	_, err = cm.GetProviderConfig("gemini")
	assert.ErrorIs(t, err, ErrProviderNotFound)
}

func TestLoadEnvFile(t *testing.T) {
	envPath := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("NOVELVIP_DOTENV_KEY=from-dotenv\n"), 0600))
	t.Setenv("NOVELVIP_DOTENV_KEY", "")
	os.Unsetenv("NOVELVIP_DOTENV_KEY")

	LoadEnv(envPath, filepath.Join(t.TempDir(), "missing.env"))

	assert.Equal(t, "from-dotenv", os.Getenv("NOVELVIP_DOTENV_KEY"))
}

func TestLoadGlobalConfigInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad yaml", "providers: [unterminated"},
		{"unknown provider", "defaults:\n  provider: anthropic\n"},
		{"rate out of range", "voice:\n  rate: 3\n  pitch: 1\n"},
		{"negative rps", "rate_limit:\n  rps: -1\n"},
		{"bad log level", "logging:\n  level: verbose\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewConfigManagerAt(writeConfig(t, tt.content)).LoadGlobalConfig()
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestSaveGlobalConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cm := NewConfigManagerAt(path)

	require.NoError(t, cm.SetProviderConfig("gemini", &types.ProviderConfig{APIKey: "key", DefaultModel: "gemini-2.5-flash"}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	reloaded, err := NewConfigManagerAt(path).GetProviderConfig("gemini")
	require.NoError(t, err)
	assert.Equal(t, "key", reloaded.APIKey)

	require.NoError(t, cm.RemoveProvider("gemini"))
	assert.ErrorIs(t, cm.RemoveProvider("gemini"), ErrProviderNotFound)

	bad := types.DefaultGlobalConfig()
	bad.Voice.Pitch = 0
	assert.ErrorIs(t, cm.SaveGlobalConfig(bad), ErrInvalidConfig)
}

// =============================================================================
// TestLogging
// =============================================================================

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warn"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
}

func TestNewLogger(t *testing.T) {
	t.Run("writes text to fallback", func(t *testing.T) {
		var buf bytes.Buffer
		logger, closer, err := NewLogger(types.LoggingConfig{Level: "warn"}, &buf)
		require.NoError(t, err)
		defer closer.Close()

		logger.Info("hidden")
		logger.Warn("shown", slog.String("node", "n1"))

		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), "msg=shown")
		assert.Contains(t, buf.String(), "node=n1")
	})

	t.Run("appends json to file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "logs", "novelvip.log")
		logger, closer, err := NewLogger(types.LoggingConfig{Level: "debug", File: path}, nil)
		require.NoError(t, err)

		logger.Debug("generation request", slog.String("op", "structure"))
		require.NoError(t, closer.Close())

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		var record map[string]any
		require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &record))
		assert.Equal(t, "generation request", record["msg"])
		assert.Equal(t, "structure", record["op"])
	})
}

// =============================================================================
// TestProviders
// =============================================================================

func TestModelsFor(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		cfg      *types.ProviderConfig
		want     generate.Models
	}{
		{"gemini defaults", "gemini", &types.ProviderConfig{}, generate.Models{Fast: "gemini-2.5-flash", Quality: "gemini-2.5-pro"}},
		{"nil config", "openai", nil, generate.Models{Fast: "gpt-4o-mini", Quality: "gpt-4o"}},
		{"default model serves both tiers", "openai", &types.ProviderConfig{DefaultModel: "gpt-4.1"}, generate.Models{Fast: "gpt-4.1", Quality: "gpt-4.1"}},
		{"quality model", "gemini", &types.ProviderConfig{DefaultModel: "f", QualityModel: "q"}, generate.Models{Fast: "f", Quality: "q"}},
		{"unknown provider", "other", &types.ProviderConfig{}, generate.Models{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ModelsFor(tt.provider, tt.cfg))
		})
	}
}

func TestNewProvider(t *testing.T) {
	ctx := context.Background()

	_, err := NewProvider(ctx, "anthropic", &types.ProviderConfig{})
	assert.ErrorContains(t, err, "unsupported provider")

	_, err = NewProvider(ctx, "openai", &types.ProviderConfig{})
	assert.Error(t, err, "openai needs a key")

	p, err := NewProvider(ctx, "local", &types.ProviderConfig{})
	require.NoError(t, err)
	assert.NoError(t, p.Close())
}

func TestOpenAIOptions(t *testing.T) {
	tests := []struct {
		name string
		cfg  types.ProviderConfig
		want adapters.OpenAIConfig
	}{
		{"empty keeps defaults", types.ProviderConfig{}, adapters.OpenAIConfig{}},
		{
			"all fields",
			types.ProviderConfig{
				BaseURL:      "https://proxy.example/v1",
				Organization: "org-123",
				Timeout:      45 * time.Second,
				MaxRetries:   5,
			},
			adapters.OpenAIConfig{
				BaseURL:      "https://proxy.example/v1",
				Organization: "org-123",
				Timeout:      45 * time.Second,
				MaxRetries:   5,
				RetryDelay:   openAIRetryDelay,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got adapters.OpenAIConfig
			for _, opt := range openAIOptions(&tt.cfg) {
				opt(&got)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewProviderOptions(t *testing.T) {
	ctx := context.Background()

	p, err := NewProvider(ctx, "local", &types.ProviderConfig{Timeout: 30 * time.Second})
	require.NoError(t, err)
	local, ok := p.(*adapters.LocalAdapter)
	require.True(t, ok)
	assert.Equal(t, 30*time.Second, local.Timeout())

	for _, filters := range []bool{false, true} {
		p, err := NewProvider(ctx, "gemini", &types.ProviderConfig{APIKey: "test-key", SafetyFilters: filters})
		require.NoError(t, err)
		gemini, ok := p.(*adapters.GeminiAdapter)
		require.True(t, ok)
		assert.Equal(t, filters, gemini.SafetyFilters())
	}
}

func TestLoadGlobalConfigProviderOptions(t *testing.T) {
	path := writeConfig(t, `
providers:
  openai:
    api_key: sk-test
    organization: org-123
    timeout: 90s
    max_retries: 2
  gemini:
    api_key: g-test
    safety_filters: true
`)

	cfg, err := NewConfigManagerAt(path).LoadGlobalConfig()
	require.NoError(t, err)

	assert.Equal(t, "org-123", cfg.Providers["openai"].Organization)
	assert.Equal(t, 90*time.Second, cfg.Providers["openai"].Timeout)
	assert.Equal(t, 2, cfg.Providers["openai"].MaxRetries)
	assert.True(t, cfg.Providers["gemini"].SafetyFilters)
}

// =============================================================================
// TestApp
// =============================================================================

func TestAppGeneratorWithLocalProvider(t *testing.T) {
	var gotModel string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		gotModel, _ = body["model"].(string)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"model":"m","choices":[{"index":0,"message":{"role":"assistant","content":"{\"options\":[\"Ngày xưa...\"]}"},"finish_reason":"stop"}]}`))
	}))
	defer server.Close()

	path := writeConfig(t, `
defaults:
  provider: local
providers:
  local:
    base_url: `+server.URL+`
    default_model: qwen
`)

	var logs bytes.Buffer
	a, err := New(Options{ConfigPath: path, LogOutput: &logs, EnvFiles: []string{filepath.Join(t.TempDir(), "none.env")}})
	require.NoError(t, err)
	defer a.Close()

	assert.Equal(t, "local", a.ProviderName())

	gen, err := a.Generator(context.Background())
	require.NoError(t, err)

	again, err := a.Generator(context.Background())
	require.NoError(t, err)
	assert.Same(t, gen, again)

	opts, err := gen.IntroOptions(context.Background(), "Hùng tráng")
	require.NoError(t, err)
	assert.Equal(t, []string{"Ngày xưa..."}, opts)
	assert.Equal(t, "qwen", gotModel)
}

func TestAppGeneratorRequiresProviderConfig(t *testing.T) {
	path := writeConfig(t, "defaults:\n  provider: gemini\n")
	a, err := New(Options{ConfigPath: path, EnvFiles: []string{filepath.Join(t.TempDir(), "none.env")}})
	require.NoError(t, err)

	_, err = a.Generator(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProviderNotFound)
	assert.True(t, strings.Contains(err.Error(), "novelvip auth"))
}

func TestAppProviderOverride(t *testing.T) {
	path := writeConfig(t, "defaults:\n  provider: gemini\n")
	a, err := New(Options{ConfigPath: path, Provider: "local", EnvFiles: []string{filepath.Join(t.TempDir(), "none.env")}})
	require.NoError(t, err)
	assert.Equal(t, "local", a.ProviderName())

	// local works without a provider entry.
	_, err = a.Generator(context.Background())
	assert.NoError(t, err)
}

func TestAppSpeechUnavailableWithoutKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	a, err := New(Options{ConfigPath: writeConfig(t, "version: 1\n"), EnvFiles: []string{filepath.Join(t.TempDir(), "none.env")}})
	require.NoError(t, err)

	_, err = a.Synthesizer()
	assert.ErrorIs(t, err, ErrSpeechUnavailable)

	_, err = a.Player(nil)
	assert.ErrorIs(t, err, ErrSpeechUnavailable)
}

func TestAppSynthesizerFromConfig(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	path := writeConfig(t, "providers:\n  openai:\n    api_key: sk-test\n")
	a, err := New(Options{ConfigPath: path, EnvFiles: []string{filepath.Join(t.TempDir(), "none.env")}})
	require.NoError(t, err)

	synth, err := a.Synthesizer()
	require.NoError(t, err)
	voices, err := synth.Voices(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, voices)
}
