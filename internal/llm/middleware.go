package llm

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Middleware decorates a ChatClient to inject cross-cutting concerns
// (rate limiting, timeouts, logging).
type Middleware func(ChatClient) ChatClient

// Wrap applies middlewares in left-to-right order.
// Example: Wrap(inner, A, B) => A(B(inner))
func Wrap(inner ChatClient, mws ...Middleware) ChatClient {
	out := inner
	for i := len(mws) - 1; i >= 0; i-- {
		out = mws[i](out)
	}
	return out
}

// RateLimit limits request rate with a token bucket.
// If rps <= 0, the limiter is effectively disabled.
func RateLimit(rps float64, burst int) Middleware {
	return func(next ChatClient) ChatClient {
		return &rateLimited{next: next, rl: newRPSLimiter(rps, burst)}
	}
}

type rateLimited struct {
	next ChatClient
	rl   *rpsLimiter
}

func (c *rateLimited) Name() string { return c.next.Name() }
func (c *rateLimited) Close() error {
	c.rl.Stop()
	return c.next.Close()
}
func (c *rateLimited) Chat(ctx context.Context, messages []Message) (string, error) {
	if err := c.rl.Acquire(ctx); err != nil {
		return "", err
	}
	return c.next.Chat(ctx, messages)
}

// WithTimeout bounds every call. d <= 0 disables it.
func WithTimeout(d time.Duration) Middleware {
	return func(next ChatClient) ChatClient {
		if d <= 0 {
			return next
		}
		return &timeboxed{next: next, d: d}
	}
}

type timeboxed struct {
	next ChatClient
	d    time.Duration
}

func (t *timeboxed) Name() string { return t.next.Name() }
func (t *timeboxed) Close() error { return t.next.Close() }
func (t *timeboxed) Chat(ctx context.Context, messages []Message) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.d)
	defer cancel()
	return t.next.Chat(ctx, messages)
}

// WithLogging logs request size, latency and errors.
func WithLogging(logger *zap.Logger) Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next ChatClient) ChatClient {
		return &logging{next: next, log: logger.Named("llm")}
	}
}

type logging struct {
	next ChatClient
	log  *zap.Logger
}

func (l *logging) Name() string { return l.next.Name() }
func (l *logging) Close() error { return l.next.Close() }
func (l *logging) Chat(ctx context.Context, messages []Message) (string, error) {
	size := 0
	for _, m := range messages {
		size += len(m.Content)
	}
	start := time.Now()
	out, err := l.next.Chat(ctx, messages)
	fields := []zap.Field{
		zap.String("client", l.next.Name()),
		zap.Int("request_bytes", size),
		zap.Duration("elapsed", time.Since(start)),
	}
	if err != nil {
		l.log.Warn("llm request failed", append(fields, zap.Error(err))...)
		return out, err
	}
	l.log.Debug("llm request", append(fields, zap.Int("reply_bytes", len(out)))...)
	return out, nil
}
