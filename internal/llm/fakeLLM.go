package llm

import (
	"context"
	"sync"
)

// FakeDefinitionReply is what FakeClient answers when it has no script.
const FakeDefinitionReply = `{"name":"offline block","description":"generated without a model","type":"statement","color":"#5b67a5","hasInput":false,"code":"console.log(\"offline block\");"}`

// FakeClient replays scripted replies for offline runs and tests. Once the
// script is exhausted the last entry repeats.
type FakeClient struct {
	mu      sync.Mutex
	replies []FakeReply
	calls   [][]Message
}

// FakeReply is one scripted answer.
type FakeReply struct {
	Text string
	Err  error
}

func NewFakeClient(replies ...FakeReply) *FakeClient {
	return &FakeClient{replies: replies}
}

func (f *FakeClient) Name() string { return "FakeLLM" }
func (f *FakeClient) Close() error { return nil }

func (f *FakeClient) Chat(ctx context.Context, messages []Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, append([]Message(nil), messages...))
	if len(f.replies) == 0 {
		return FakeDefinitionReply, nil
	}
	r := f.replies[0]
	if len(f.replies) > 1 {
		f.replies = f.replies[1:]
	}
	return r.Text, r.Err
}

// Calls returns a copy of every message list received so far.
func (f *FakeClient) Calls() [][]Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]Message(nil), f.calls...)
}
