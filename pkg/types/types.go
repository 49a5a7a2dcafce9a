// Package types provides shared data models for novelvip.
package types

import "time"

// NovelConfig is the premise of the novel being outlined.
type NovelConfig struct {
	Genre         string `yaml:"genre" json:"genre"`
	Tone          string `yaml:"tone" json:"tone"`
	POV           string `yaml:"pov" json:"pov"`
	Setting       string `yaml:"setting" json:"setting"`
	MainCharacter string `yaml:"main_character" json:"main_character"`
	PlotIdea      string `yaml:"plot_idea" json:"plot_idea" validate:"required"`
	Language      string `yaml:"language" json:"language"`
}

// VoiceConfig holds text-to-speech playback preferences.
type VoiceConfig struct {
	VoiceID string  `yaml:"voice_id"`
	Rate    float64 `yaml:"rate" validate:"gte=0.5,lte=2"`
	Pitch   float64 `yaml:"pitch" validate:"gte=0.5,lte=2"`
	// Player is the external command used to play synthesized audio.
	Player string `yaml:"player,omitempty"`
}

// GlobalConfig is the user-wide configuration at ~/.config/novelvip/config.yaml.
type GlobalConfig struct {
	Version   int                        `yaml:"version"`
	Providers map[string]*ProviderConfig `yaml:"providers" validate:"dive"`
	Defaults  DefaultsConfig             `yaml:"defaults"`
	Logging   LoggingConfig              `yaml:"logging"`
	RateLimit RateLimitConfig            `yaml:"rate_limit"`
	Voice     VoiceConfig                `yaml:"voice"`
	Novel     NovelConfig                `yaml:"novel" validate:"-"`
	ExportDir string                     `yaml:"export_dir"`
}

// ProviderConfig holds API configuration for an LLM provider.
type ProviderConfig struct {
	APIKey       string `yaml:"api_key"`
	DefaultModel string `yaml:"default_model"`
	QualityModel string `yaml:"quality_model,omitempty"`
	BaseURL      string `yaml:"base_url,omitempty" validate:"omitempty,url"`

	// Organization is the OpenAI organization id.
	Organization string `yaml:"organization,omitempty"`
	// Timeout bounds each request. Zero keeps the adapter default.
	Timeout    time.Duration `yaml:"timeout,omitempty" validate:"gte=0"`
	MaxRetries int           `yaml:"max_retries,omitempty" validate:"gte=0,lte=10"`
	// SafetyFilters keeps Gemini's content filters on. They are off by
	// default since battle scenes trip them.
	SafetyFilters bool `yaml:"safety_filters,omitempty"`
}

// DefaultsConfig specifies default settings.
type DefaultsConfig struct {
	Provider string `yaml:"provider" validate:"omitempty,oneof=openai gemini local"`
}

// LoggingConfig specifies logging settings.
type LoggingConfig struct {
	Level string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	File  string `yaml:"file,omitempty"`
}

// RateLimitConfig throttles requests to the text-generation provider.
// A zero RPS disables the limiter.
type RateLimitConfig struct {
	RPS   float64 `yaml:"rps" validate:"gte=0"`
	Burst int     `yaml:"burst" validate:"gte=0"`
}

// Genres, tones and points of view offered by the setup wizard.
var (
	Genres = []string{
		"Tiên Hiệp", "Kiếm Hiệp", "Ngôn Tình", "Trinh Thám", "Khoa Học Viễn Tưởng",
		"Kinh Dị", "Lịch Sử", "Huyền Huyễn", "Đô Thị",
	}
	Tones = []string{
		"Hùng tráng", "Bi ai", "Hài hước", "Châm biếm", "Nhẹ nhàng", "Kịch tính", "Lạnh lùng",
	}
	POVs = []string{
		"Ngôi thứ nhất (Tôi)", "Ngôi thứ ba (Toàn tri)", "Ngôi thứ ba (Khách quan)",
	}
)

// DefaultNovelConfig returns the premise the setup wizard starts from.
func DefaultNovelConfig() NovelConfig {
	return NovelConfig{
		Genre:    "Tiên Hiệp",
		Tone:     "Hùng tráng",
		POV:      "Ngôi thứ ba (Toàn tri)",
		Setting:  "Thế giới tu tiên giả tưởng",
		Language: "Vietnamese",
	}
}

// DefaultVoiceConfig returns neutral playback settings.
func DefaultVoiceConfig() VoiceConfig {
	return VoiceConfig{
		Rate:  1.0,
		Pitch: 1.0,
	}
}

// DefaultGlobalConfig returns a new GlobalConfig with sensible defaults.
func DefaultGlobalConfig() *GlobalConfig {
	return &GlobalConfig{
		Version:   1,
		Providers: make(map[string]*ProviderConfig),
		Defaults: DefaultsConfig{
			Provider: "gemini",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Voice:     DefaultVoiceConfig(),
		Novel:     DefaultNovelConfig(),
		ExportDir: ".",
	}
}
