package llm

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// Retry retries Chat up to maxAttempts with exponential backoff starting at
// baseDelay. Configuration errors and 4xx replies are not retried. If the
// context is canceled, it stops immediately.
func Retry(maxAttempts int, baseDelay time.Duration) Middleware {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if baseDelay <= 0 {
		baseDelay = 300 * time.Millisecond
	}
	return func(next ChatClient) ChatClient {
		if maxAttempts == 1 {
			return next
		}
		return &retrying{next: next, max: maxAttempts, base: baseDelay}
	}
}

type retrying struct {
	next ChatClient
	max  int
	base time.Duration
}

func (r *retrying) Name() string { return r.next.Name() }
func (r *retrying) Close() error { return r.next.Close() }

func (r *retrying) Chat(ctx context.Context, messages []Message) (string, error) {
	var last error
	for i := 0; i < r.max; i++ {
		out, err := r.next.Chat(ctx, messages)
		if err == nil {
			return out, nil
		}
		if permanent(err) {
			return "", err
		}
		last = err
		if i == r.max-1 {
			break
		}
		t := time.NewTimer(r.base * time.Duration(1<<i))
		select {
		case <-ctx.Done():
			t.Stop()
			return "", ctx.Err()
		case <-t.C:
		}
	}
	return "", last
}

func permanent(err error) bool {
	if errors.Is(err, ErrConfiguration) || errors.Is(err, context.Canceled) {
		return true
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode >= 400 && se.StatusCode < 500 && se.StatusCode != http.StatusTooManyRequests
	}
	return false
}
