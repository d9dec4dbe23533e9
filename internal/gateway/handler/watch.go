package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"blockvibe/internal/gateway/service/registry"
)

// WatchHandler streams registry change events over a websocket.
type WatchHandler struct {
	registry *registry.Service
	logger   *zap.Logger
}

func NewWatchHandler(reg *registry.Service, logger *zap.Logger) *WatchHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WatchHandler{registry: reg, logger: logger}
}

const (
	watchWSWriteWait = 10 * time.Second
	watchWSPongWait  = 60 * time.Second
	watchWSPingEvery = (watchWSPongWait * 9) / 10
)

var watchWSUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

type watchWSInbound struct {
	Type string `json:"type"`
}

type watchWSOutbound struct {
	Type    string          `json:"type"`
	Event   *registry.Event `json:"event,omitempty"`
	Count   int             `json:"count,omitempty"`
	Message string          `json:"message,omitempty"`
}

func (h *WatchHandler) HandleWatch(w http.ResponseWriter, r *http.Request) {
	conn, err := watchWSUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	if err := conn.SetReadDeadline(time.Now().Add(watchWSPongWait)); err != nil {
		h.logger.Debug("watch ws set read deadline failed", zap.Error(err))
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(watchWSPongWait))
	})

	writeCh := make(chan watchWSOutbound, 32)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		ticker := time.NewTicker(watchWSPingEvery)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case out := <-writeCh:
				if err := conn.SetWriteDeadline(time.Now().Add(watchWSWriteWait)); err != nil {
					return
				}
				if err := conn.WriteJSON(out); err != nil {
					return
				}
			case <-ticker.C:
				if err := conn.SetWriteDeadline(time.Now().Add(watchWSWriteWait)); err != nil {
					return
				}
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	events := h.registry.Subscribe(ctx)
	pushWatchWS(writeCh, watchWSOutbound{Type: "subscribed", Count: h.registry.Len()})

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				pushWatchWS(writeCh, watchWSOutbound{Type: "event", Event: &ev})
			}
		}
	}()

	for {
		var in watchWSInbound
		if err := conn.ReadJSON(&in); err != nil {
			cancel()
			<-writerDone
			return
		}
		switch strings.ToLower(strings.TrimSpace(in.Type)) {
		case "ping":
			pushWatchWS(writeCh, watchWSOutbound{Type: "pong"})
		default:
			pushWatchWS(writeCh, watchWSOutbound{Type: "error", Message: "unsupported message type"})
		}
	}
}

// pushWatchWS drops the message when the writer is saturated.
func pushWatchWS(ch chan<- watchWSOutbound, msg watchWSOutbound) {
	select {
	case ch <- msg:
	default:
	}
}
