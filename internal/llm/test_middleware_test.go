package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type slowClient struct{ delay time.Duration }

func (s *slowClient) Name() string { return "slow" }
func (s *slowClient) Close() error { return nil }
func (s *slowClient) Chat(ctx context.Context, _ []Message) (string, error) {
	select {
	case <-time.After(s.delay):
		return "done", nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func TestRateLimit_SpacesCallsAndStops(t *testing.T) {
	defer goleak.VerifyNone(t)

	cli := Wrap(NewFakeClient(), RateLimit(20, 1))
	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := cli.Chat(context.Background(), []Message{User("x")})
		require.NoError(t, err)
	}
	assert.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)
	require.NoError(t, cli.Close())
	require.NoError(t, cli.Close())
}

func TestRateLimit_DisabledIsPassThrough(t *testing.T) {
	defer goleak.VerifyNone(t)

	cli := Wrap(NewFakeClient(FakeReply{Text: "ok"}), RateLimit(0, 0))
	out, err := cli.Chat(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	require.NoError(t, cli.Close())
}

func TestWithTimeout_CancelsSlowCall(t *testing.T) {
	cli := Wrap(&slowClient{delay: time.Second}, WithTimeout(20*time.Millisecond))
	_, err := cli.Chat(context.Background(), nil)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWithLogging_RecordsFailures(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	boom := errors.New("boom")
	cli := Wrap(NewFakeClient(FakeReply{Err: boom}), WithLogging(zap.New(core)))

	_, err := cli.Chat(context.Background(), []Message{User("abc")})
	require.ErrorIs(t, err, boom)

	entries := logs.FilterMessage("llm request failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(3), entries[0].ContextMap()["request_bytes"])
}

func TestUnconfigured(t *testing.T) {
	_, err := Unconfigured("Router").Chat(context.Background(), nil)
	require.ErrorIs(t, err, ErrConfiguration)
}

func TestFakeClient_ReplaysScript(t *testing.T) {
	f := NewFakeClient(FakeReply{Text: "a"}, FakeReply{Text: "b"})
	for _, want := range []string{"a", "b", "b"} {
		got, err := f.Chat(context.Background(), []Message{User(want)})
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	assert.Len(t, f.Calls(), 3)
}

func TestRetry_RetriesTransientFailures(t *testing.T) {
	f := NewFakeClient(FakeReply{Err: errors.New("reset")}, FakeReply{Err: &StatusError{StatusCode: 503, Status: "503"}}, FakeReply{Text: "ok"})
	cli := Wrap(f, Retry(3, time.Millisecond))

	out, err := cli.Chat(context.Background(), []Message{User("x")})
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Len(t, f.Calls(), 3)
}

func TestRetry_StopsOnPermanentFailures(t *testing.T) {
	for _, perm := range []error{ErrConfiguration, &StatusError{StatusCode: 401, Status: "401"}} {
		f := NewFakeClient(FakeReply{Err: perm})
		_, err := Wrap(f, Retry(3, time.Millisecond)).Chat(context.Background(), nil)
		require.ErrorIs(t, err, perm)
		assert.Len(t, f.Calls(), 1)
	}
}

func TestRetry_GivesUpAfterMaxAttempts(t *testing.T) {
	boom := errors.New("boom")
	f := NewFakeClient(FakeReply{Err: boom})
	_, err := Wrap(f, Retry(2, time.Millisecond)).Chat(context.Background(), nil)
	require.ErrorIs(t, err, boom)
	assert.Len(t, f.Calls(), 2)
}
