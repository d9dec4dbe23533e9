package handler

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"blockvibe/internal/blocks"
	"blockvibe/internal/gateway/service/synthesis"
	"blockvibe/internal/llm"
)

// GenerateHandler serves the stateless generation endpoints: nothing they
// produce is registered.
type GenerateHandler struct {
	synth  *synthesis.Service
	logger *zap.Logger
}

func NewGenerateHandler(synth *synthesis.Service, logger *zap.Logger) *GenerateHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GenerateHandler{synth: synth, logger: logger}
}

type definitionError struct {
	Error string `json:"error"`
	blocks.Definition
}

// HandleGenerateDefinition answers POST /api/generate-code with one block
// definition. A reply that does not parse yields the default definition.
func (h *GenerateHandler) HandleGenerateDefinition(w http.ResponseWriter, r *http.Request) {
	var in synthesis.Request
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(in.Description) == "" {
		writeError(w, http.StatusBadRequest, "description is required")
		return
	}

	def, err := h.synth.Generate(r.Context(), in)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, def)
	case errors.Is(err, blocks.ErrParseFailure):
		writeJSON(w, http.StatusOK, def)
	case errors.Is(err, llm.ErrConfiguration):
		writeError(w, http.StatusInternalServerError, "model credential is not configured")
	default:
		h.logger.Warn("generate definition failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, definitionError{Error: err.Error(), Definition: blocks.DefaultDefinition()})
	}
}

type generateCodeRequest struct {
	BlockType       string `json:"blockType"`
	UserDescription string `json:"userDescription"`
}

// HandleGenerateCode answers POST /api/generate with code for one workspace
// category.
func (h *GenerateHandler) HandleGenerateCode(w http.ResponseWriter, r *http.Request) {
	var in generateCodeRequest
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(in.BlockType) == "" || strings.TrimSpace(in.UserDescription) == "" {
		writeError(w, http.StatusBadRequest, "blockType and userDescription are required")
		return
	}
	code, err := h.synth.GenerateCode(r.Context(), in.BlockType, in.UserDescription)
	if err != nil {
		if errors.Is(err, llm.ErrConfiguration) {
			writeError(w, http.StatusInternalServerError, "model credential is not configured")
			return
		}
		h.logger.Warn("generate code failed", zap.String("block_type", in.BlockType), zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "code": code})
}
