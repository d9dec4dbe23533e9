package registry

import (
	"context"
	"sync"

	"blockvibe/internal/blocks"
)

type EventType string

const (
	EventCreated  EventType = "created"
	EventRemoved  EventType = "removed"
	EventCleared  EventType = "cleared"
	EventReloaded EventType = "reloaded"
)

// Event describes one change to the registry. Count is the number of
// registered definitions after the change.
type Event struct {
	Type  EventType          `json:"type"`
	Block *blocks.Definition `json:"block,omitempty"`
	ID    string             `json:"id,omitempty"`
	Count int                `json:"count"`
}

type hub struct {
	mu   sync.Mutex
	subs map[chan Event]struct{}
}

func (h *hub) subscribe(ctx context.Context) <-chan Event {
	ch := make(chan Event, 16)
	h.mu.Lock()
	if h.subs == nil {
		h.subs = make(map[chan Event]struct{})
	}
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.mu.Lock()
		delete(h.subs, ch)
		h.mu.Unlock()
		close(ch)
	}()
	return ch
}

// publish never blocks; a subscriber that falls behind misses events.
func (h *hub) publish(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
