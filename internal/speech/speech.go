// Package speech reads node content aloud. A Synthesizer turns text into
// audio, a Sink plays it, and a Player ties the two together behind a single
// play/stop toggle.
package speech

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrNoText is returned when there is nothing to synthesize.
	ErrNoText = errors.New("no text to speak")

	// ErrNoPlayer is returned when no audio player command is available.
	ErrNoPlayer = errors.New("no audio player found")
)

// Voice is a synthesis voice offered by a Synthesizer.
type Voice struct {
	ID   string
	Name string
	// Lang is a BCP 47 tag such as "vi-VN". Empty means the voice is
	// multilingual.
	Lang string
}

// Request is one synthesis job.
type Request struct {
	Text    string
	VoiceID string
	// Rate is the speaking speed, 1.0 being normal.
	Rate float64
	// Pitch is a hint. Backends that cannot shift pitch ignore it.
	Pitch float64
}

// Synthesizer converts text to audio.
type Synthesizer interface {
	// Voices lists the voices the backend offers. An empty list is not an
	// error.
	Voices(ctx context.Context) ([]Voice, error)

	// Synthesize returns encoded audio for the request.
	Synthesize(ctx context.Context, req Request) ([]byte, error)
}

// PreferredVoices returns the voices whose language tag starts with lang.
// When none match, every voice is returned.
func PreferredVoices(voices []Voice, lang string) []Voice {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if lang == "" {
		return voices
	}

	var out []Voice
	for _, v := range voices {
		if strings.HasPrefix(strings.ToLower(v.Lang), lang) {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return voices
	}
	return out
}

// DefaultVoice picks the voice to use when none is configured: the first
// preferred voice for lang, or "" when there are no voices at all.
func DefaultVoice(voices []Voice, lang string) string {
	preferred := PreferredVoices(voices, lang)
	if len(preferred) == 0 {
		return ""
	}
	return preferred[0].ID
}
