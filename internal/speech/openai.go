package speech

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const (
	openAIDefaultModel = openai.SpeechModelTTS1
	openAIDefaultVoice = "alloy"

	// The speech endpoint accepts speeds in this range.
	minSpeed = 0.25
	maxSpeed = 4.0
)

// openAIVoices is the built-in voice list. None of them is tied to a
// language, so they all report an empty tag.
var openAIVoices = []string{
	"alloy", "ash", "ballad", "coral", "echo", "fable", "nova",
	"onyx", "sage", "shimmer", "verse",
}

// OpenAIConfig configures an OpenAISynthesizer.
type OpenAIConfig struct {
	APIKey     string
	Model      string // "tts-1" (default), "tts-1-hd", "gpt-4o-mini-tts"
	BaseURL    string
	MaxRetries int
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// OpenAISynthesizer synthesizes speech with the OpenAI audio API.
type OpenAISynthesizer struct {
	client openai.Client
	model  string
	logger *slog.Logger
}

// NewOpenAISynthesizer creates a synthesizer using the official SDK.
func NewOpenAISynthesizer(cfg OpenAIConfig) *OpenAISynthesizer {
	if cfg.Model == "" {
		cfg.Model = openAIDefaultModel
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 2
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAISynthesizer{
		client: openai.NewClient(opts...),
		model:  cfg.Model,
		logger: cfg.Logger,
	}
}

// Voices returns the built-in voice list.
func (s *OpenAISynthesizer) Voices(_ context.Context) ([]Voice, error) {
	voices := make([]Voice, 0, len(openAIVoices))
	for _, name := range openAIVoices {
		voices = append(voices, Voice{ID: name, Name: name})
	}
	return voices, nil
}

// Synthesize returns MP3 audio for the request.
func (s *OpenAISynthesizer) Synthesize(ctx context.Context, req Request) ([]byte, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, ErrNoText
	}

	voice := strings.TrimSpace(req.VoiceID)
	if voice == "" {
		voice = openAIDefaultVoice
	}
	if req.Pitch != 0 && req.Pitch != 1 {
		s.logger.DebugContext(ctx, "pitch is not supported by openai speech, ignoring", slog.Float64("pitch", req.Pitch))
	}

	params := openai.AudioSpeechNewParams{
		Input:          text,
		Model:          openai.SpeechModel(s.model),
		Voice:          openai.AudioSpeechNewParamsVoice(voice),
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormatMP3,
		Speed:          openai.Float(speedFor(req.Rate)),
	}

	resp, err := s.client.Audio.Speech.New(ctx, params)
	if err != nil {
		return nil, mapOpenAIError(err)
	}
	defer resp.Body.Close()

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed reading speech response: %w", err)
	}
	return audio, nil
}

// speedFor maps a playback rate onto the API's speed range. Zero means
// normal speed.
func speedFor(rate float64) float64 {
	switch {
	case rate == 0:
		return 1.0
	case rate < minSpeed:
		return minSpeed
	case rate > maxSpeed:
		return maxSpeed
	default:
		return rate
	}
}

func mapOpenAIError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		if apiErr.Message != "" {
			return fmt.Errorf("openai speech error (status %d): %s", apiErr.StatusCode, apiErr.Message)
		}
		return fmt.Errorf("openai speech error (status %d)", apiErr.StatusCode)
	}
	return err
}

var _ Synthesizer = (*OpenAISynthesizer)(nil)
