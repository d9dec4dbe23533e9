package handler

import (
	"net/http"

	"blockvibe/internal/gateway/service/registry"
	"blockvibe/internal/gateway/service/synthesis"
)

type StatusHandler struct {
	registry *registry.Service
	synth    *synthesis.Service
}

func NewStatusHandler(reg *registry.Service, synth *synthesis.Service) *StatusHandler {
	return &StatusHandler{registry: reg, synth: synth}
}

func (h *StatusHandler) HandleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"busy":     h.synth.Busy(),
		"inFlight": h.synth.InFlight(),
		"blocks":   h.registry.Len(),
		"llm":      h.synth.ProviderName(),
	})
}
