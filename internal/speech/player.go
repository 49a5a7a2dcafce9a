package speech

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/Nhatlinh9898/novelvip/pkg/types"
)

// Player speaks one text at a time. Starting playback while something is
// already playing is not possible: Toggle stops the current playback instead.
type Player struct {
	synth  Synthesizer
	sink   Sink
	logger *slog.Logger

	mu      sync.Mutex
	config  types.VoiceConfig
	cancel  context.CancelFunc
	done    chan struct{}
	lastErr error
	onDone  func(error)
}

// PlayerOption configures a Player.
type PlayerOption func(*Player)

// WithPlayerLogger sets the logger.
func WithPlayerLogger(logger *slog.Logger) PlayerOption {
	return func(p *Player) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithVoiceConfig sets the initial voice, rate and pitch.
func WithVoiceConfig(cfg types.VoiceConfig) PlayerOption {
	return func(p *Player) {
		p.config = cfg
	}
}

// OnDone registers a callback run when playback ends on its own or fails.
// It is not called for playback stopped through Toggle or Stop.
func OnDone(fn func(error)) PlayerOption {
	return func(p *Player) {
		p.onDone = fn
	}
}

// NewPlayer creates a stopped Player.
func NewPlayer(synth Synthesizer, sink Sink, opts ...PlayerOption) *Player {
	p := &Player{
		synth:  synth,
		sink:   sink,
		logger: slog.New(slog.DiscardHandler),
		config: types.DefaultVoiceConfig(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Config returns the current voice settings.
func (p *Player) Config() types.VoiceConfig {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.config
}

// SetConfig changes the voice settings used by the next playback.
func (p *Player) SetConfig(cfg types.VoiceConfig) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.config = cfg
}

// Playing reports whether playback is in progress.
func (p *Player) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancel != nil
}

// Toggle stops playback if something is playing. Otherwise it starts
// speaking text and returns at once. Empty text does nothing. The result
// reports whether the player is now playing.
func (p *Player) Toggle(ctx context.Context, text string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cancel != nil {
		p.stopLocked()
		return false
	}
	if strings.TrimSpace(text) == "" {
		return false
	}

	playCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	p.cancel = cancel
	p.done = done
	p.lastErr = nil

	req := Request{
		Text:    text,
		VoiceID: p.config.VoiceID,
		Rate:    p.config.Rate,
		Pitch:   p.config.Pitch,
	}
	go p.run(playCtx, done, req)
	return true
}

// Stop ends playback if any.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

// Wait blocks until the current playback, if any, has finished and returns
// its error. Playback that was stopped reports nil.
func (p *Player) Wait() error {
	p.mu.Lock()
	done := p.done
	p.mu.Unlock()

	if done != nil {
		<-done
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastErr
}

func (p *Player) stopLocked() {
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}

func (p *Player) run(ctx context.Context, done chan struct{}, req Request) {
	err := p.play(ctx, req)
	if errors.Is(err, context.Canceled) {
		err = nil
	}

	p.mu.Lock()
	// A newer playback may have started after this one was stopped.
	current := p.done == done
	stopped := ctx.Err() != nil
	if current {
		if p.cancel != nil {
			p.cancel()
			p.cancel = nil
		}
		p.lastErr = err
	}
	onDone := p.onDone
	p.mu.Unlock()
	close(done)

	if err != nil {
		p.logger.Warn("speech playback failed", slog.Any("error", err))
	}
	if current && !stopped && onDone != nil {
		onDone(err)
	}
}

func (p *Player) play(ctx context.Context, req Request) error {
	audio, err := p.synth.Synthesize(ctx, req)
	if err != nil {
		return err
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	p.logger.Debug("speech playback started", slog.Int("bytes", len(audio)), slog.String("voice", req.VoiceID))
	return p.sink.Play(ctx, audio)
}
