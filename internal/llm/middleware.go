package llm

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/time/rate"
)

// Middleware decorates a Provider with a cross-cutting concern such as
// logging or rate limiting.
type Middleware func(Provider) Provider

// Wrap applies middlewares in left-to-right order.
// Example: Wrap(inner, A, B) => A(B(inner))
func Wrap(inner Provider, mws ...Middleware) Provider {
	out := inner
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] != nil {
			out = mws[i](out)
		}
	}
	return out
}

// -------- Logging --------

// WithLogging logs one line per Chat call with its duration and token usage.
// A nil logger disables the middleware.
func WithLogging(logger *slog.Logger) Middleware {
	return func(next Provider) Provider {
		if logger == nil {
			return next
		}
		return &logged{next: next, logger: logger}
	}
}

type logged struct {
	next   Provider
	logger *slog.Logger
}

func (l *logged) Capabilities() Capabilities { return l.next.Capabilities() }
func (l *logged) Close() error               { return l.next.Close() }

func (l *logged) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	start := time.Now()
	resp, err := l.next.Chat(ctx, req)
	attrs := []any{
		slog.String("model", req.Model),
		slog.String("format", string(req.ResponseFormat)),
		slog.Int("messages", len(req.Messages)),
		slog.Duration("elapsed", time.Since(start)),
	}
	if err != nil {
		l.logger.ErrorContext(ctx, "llm chat failed", append(attrs, slog.Any("error", err))...)
		return nil, err
	}
	l.logger.DebugContext(ctx, "llm chat",
		append(attrs,
			slog.String("served_by", resp.Model),
			slog.String("finish", resp.FinishReason),
			slog.Int("prompt_tokens", resp.Usage.PromptTokens),
			slog.Int("completion_tokens", resp.Usage.CompletionTokens),
		)...)
	return resp, nil
}

// -------- Rate limiting --------

// WithRateLimit limits Chat calls to rps requests per second with the given
// burst. If rps <= 0 the limiter is disabled.
func WithRateLimit(rps float64, burst int) Middleware {
	return func(next Provider) Provider {
		if rps <= 0 {
			return next
		}
		if burst < 1 {
			burst = 1
		}
		return &rateLimited{next: next, limiter: rate.NewLimiter(rate.Limit(rps), burst)}
	}
}

type rateLimited struct {
	next    Provider
	limiter *rate.Limiter
}

func (r *rateLimited) Capabilities() Capabilities { return r.next.Capabilities() }
func (r *rateLimited) Close() error               { return r.next.Close() }

func (r *rateLimited) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return r.next.Chat(ctx, req)
}
