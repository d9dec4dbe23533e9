package llm

import (
	"context"
	"errors"
	"fmt"
)

// Message is one chat turn sent to the model.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func System(content string) Message { return Message{Role: "system", Content: content} }
func User(content string) Message   { return Message{Role: "user", Content: content} }

// ChatClient is a chat-completions provider returning the raw reply text.
type ChatClient interface {
	Name() string
	Chat(ctx context.Context, messages []Message) (string, error)
	Close() error
}

var (
	// ErrConfiguration is returned when the provider credential is missing.
	ErrConfiguration = errors.New("llm: provider credential is not configured")
	ErrEmptyReply    = errors.New("llm: empty reply from model")
)

// StatusError is a non-2xx reply from the inference endpoint. Message holds
// the human-readable upstream error, when there is one.
type StatusError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("llm: unexpected status %s", e.Status)
	}
	return fmt.Sprintf("llm: unexpected status %s: %s", e.Status, e.Message)
}

// Unconfigured returns a client whose every call fails with ErrConfiguration.
// It stands in for a provider whose credential is absent so that callers can
// still take their fallback path.
func Unconfigured(name string) ChatClient {
	return unconfigured{name: name}
}

type unconfigured struct{ name string }

func (u unconfigured) Name() string { return u.name + " (unconfigured)" }
func (u unconfigured) Close() error { return nil }
func (u unconfigured) Chat(context.Context, []Message) (string, error) {
	return "", ErrConfiguration
}
