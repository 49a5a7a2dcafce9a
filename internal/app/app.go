package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/Nhatlinh9898/novelvip/internal/export"
	"github.com/Nhatlinh9898/novelvip/internal/generate"
	"github.com/Nhatlinh9898/novelvip/internal/llm"
	"github.com/Nhatlinh9898/novelvip/internal/llm/adapters"
	"github.com/Nhatlinh9898/novelvip/internal/speech"
	"github.com/Nhatlinh9898/novelvip/internal/token"
	"github.com/Nhatlinh9898/novelvip/pkg/types"
)

// ErrSpeechUnavailable is returned when speech playback is requested but no
// synthesizer or audio player could be set up.
var ErrSpeechUnavailable = errors.New("speech playback is unavailable")

// openAIRetryDelay is the first backoff step when max_retries is set.
const openAIRetryDelay = time.Second

// maxStoryContextTokens caps continuation context even on huge windows.
const maxStoryContextTokens = 6000

// Default models per provider, fast tier then quality tier.
var defaultModels = map[string]generate.Models{
	"openai": {Fast: "gpt-4o-mini", Quality: "gpt-4o"},
	"gemini": {Fast: "gemini-2.5-flash", Quality: "gemini-2.5-pro"},
	"local":  {Fast: "llama3", Quality: "llama3"},
}

// Options configures New.
type Options struct {
	// ConfigPath overrides the default config file location.
	ConfigPath string
	// Provider overrides defaults.provider.
	Provider string
	// LogOutput receives log records when no log file is configured.
	LogOutput io.Writer
	// EnvFiles are loaded before the config is read. Defaults to ".env".
	EnvFiles []string
}

// App represents the main application instance.
type App struct {
	Config   *ConfigManager
	Global   *types.GlobalConfig
	Logger   *slog.Logger
	Exporter *export.Exporter

	providerName string
	provider     llm.Provider
	generator    *generate.Generator
	player       *speech.Player
	synth        speech.Synthesizer
	logCloser    io.Closer
}

// New loads configuration and sets up logging. The provider is connected
// lazily by Generator.
func New(opts Options) (*App, error) {
	LoadEnv(opts.EnvFiles...)

	var cm *ConfigManager
	if opts.ConfigPath != "" {
		cm = NewConfigManagerAt(opts.ConfigPath)
	} else {
		var err error
		cm, err = NewConfigManager()
		if err != nil {
			return nil, fmt.Errorf("failed to initialize config manager: %w", err)
		}
	}

	global, err := cm.LoadGlobalConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load global config: %w", err)
	}

	logger, closer, err := NewLogger(global.Logging, opts.LogOutput)
	if err != nil {
		return nil, err
	}

	providerName := opts.Provider
	if providerName == "" {
		providerName = global.Defaults.Provider
	}

	return &App{
		Config:       cm,
		Global:       global,
		Logger:       logger,
		Exporter:     export.New(global.ExportDir),
		providerName: providerName,
		logCloser:    closer,
	}, nil
}

// ProviderName returns the name of the provider generation requests use.
func (a *App) ProviderName() string {
	return a.providerName
}

// Generator returns the generation service, connecting to the provider on
// first use.
func (a *App) Generator(ctx context.Context) (*generate.Generator, error) {
	if a.generator != nil {
		return a.generator, nil
	}

	cfg, err := a.Config.GetProviderConfig(a.providerName)
	if err != nil {
		if !errors.Is(err, ErrProviderNotFound) || a.providerName != "local" {
			return nil, fmt.Errorf("%w: run 'novelvip auth' to configure %s", err, a.providerName)
		}
		cfg = &types.ProviderConfig{}
	}

	inner, err := NewProvider(ctx, a.providerName, cfg)
	if err != nil {
		return nil, err
	}
	a.provider = llm.Wrap(inner,
		llm.WithLogging(a.Logger),
		llm.WithRateLimit(a.Global.RateLimit.RPS, a.Global.RateLimit.Burst),
	)

	models := ModelsFor(a.providerName, cfg)
	a.generator = generate.New(a.provider,
		generate.WithModels(models),
		generate.WithLanguage(a.Global.Novel.Language),
		generate.WithLogger(a.Logger),
		generate.WithFitter(token.NewFitter(a.provider.Capabilities().TokenizerType)),
		generate.WithContextBudget(token.NewBudget(models.Quality).ContextTokens(maxStoryContextTokens)),
	)
	return a.generator, nil
}

// ModelsFor resolves the model used for each tier. Configured names win over
// the provider defaults, and a configured default model without a quality
// model serves both tiers.
func ModelsFor(providerName string, cfg *types.ProviderConfig) generate.Models {
	models := defaultModels[providerName]
	if cfg == nil {
		return models
	}
	if cfg.DefaultModel != "" {
		models.Fast = cfg.DefaultModel
		models.Quality = cfg.DefaultModel
	}
	if cfg.QualityModel != "" {
		models.Quality = cfg.QualityModel
	}
	return models
}

// NewProvider connects to the named text generation provider.
func NewProvider(ctx context.Context, providerName string, config *types.ProviderConfig) (llm.Provider, error) {
	models := ModelsFor(providerName, config)

	switch providerName {
	case "openai":
		return adapters.NewOpenAIAdapter(config.APIKey, models.Fast, openAIOptions(config)...)

	case "gemini":
		return adapters.NewGeminiAdapter(ctx, config.APIKey, models.Fast,
			adapters.WithGeminiSafetyBlockNone(!config.SafetyFilters))

	case "local":
		baseURL := config.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434"
		}
		var opts []adapters.LocalAdapterOption
		if config.Timeout > 0 {
			opts = append(opts, adapters.WithTimeout(config.Timeout))
		}
		return adapters.NewLocalAdapter(baseURL, models.Fast, opts...), nil

	default:
		return nil, fmt.Errorf("unsupported provider: %s", providerName)
	}
}

// openAIOptions maps the provider config onto adapter options. Unset
// fields keep the adapter defaults.
func openAIOptions(config *types.ProviderConfig) []adapters.OpenAIOption {
	var opts []adapters.OpenAIOption
	if config.BaseURL != "" {
		opts = append(opts, adapters.WithOpenAIBaseURL(config.BaseURL))
	}
	if config.Organization != "" {
		opts = append(opts, adapters.WithOpenAIOrganization(config.Organization))
	}
	if config.Timeout > 0 {
		opts = append(opts, adapters.WithOpenAITimeout(config.Timeout))
	}
	if config.MaxRetries > 0 {
		opts = append(opts, adapters.WithOpenAIRetry(config.MaxRetries, openAIRetryDelay))
	}
	return opts
}

// Synthesizer returns the speech synthesizer. It needs an OpenAI key, taken
// from the openai provider config or OPENAI_API_KEY.
func (a *App) Synthesizer() (speech.Synthesizer, error) {
	if a.synth != nil {
		return a.synth, nil
	}

	apiKey := os.Getenv("OPENAI_API_KEY")
	var baseURL string
	if cfg, err := a.Config.GetProviderConfig("openai"); err == nil {
		if cfg.APIKey != "" {
			apiKey = cfg.APIKey
		}
		baseURL = cfg.BaseURL
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%w: no OpenAI API key configured", ErrSpeechUnavailable)
	}

	a.synth = speech.NewOpenAISynthesizer(speech.OpenAIConfig{
		APIKey:  apiKey,
		BaseURL: baseURL,
		Logger:  a.Logger,
	})
	return a.synth, nil
}

// Player returns the speech player. onDone is called when playback ends on
// its own.
func (a *App) Player(onDone func(error)) (*speech.Player, error) {
	if a.player != nil {
		return a.player, nil
	}

	synth, err := a.Synthesizer()
	if err != nil {
		return nil, err
	}
	sink, err := speech.DetectSink(a.Global.Voice.Player)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSpeechUnavailable, err)
	}

	a.player = speech.NewPlayer(synth, sink,
		speech.WithPlayerLogger(a.Logger),
		speech.WithVoiceConfig(a.Global.Voice),
		speech.OnDone(onDone),
	)
	return a.player, nil
}

// Close stops playback and releases the provider and log file.
func (a *App) Close() error {
	if a.player != nil {
		a.player.Stop()
	}
	var errs []error
	if a.provider != nil {
		errs = append(errs, a.provider.Close())
	}
	if a.logCloser != nil {
		errs = append(errs, a.logCloser.Close())
	}
	return errors.Join(errs...)
}
