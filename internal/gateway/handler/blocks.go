package handler

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"blockvibe/internal/blocks"
	"blockvibe/internal/gateway/service/export"
	"blockvibe/internal/gateway/service/palette"
	"blockvibe/internal/gateway/service/registry"
	"blockvibe/internal/gateway/service/synthesis"
)

// BlocksHandler serves the custom block catalog and the palette program
// built from it.
type BlocksHandler struct {
	registry *registry.Service
	synth    *synthesis.Service
	palette  *palette.Service
	export   *export.Service
	logger   *zap.Logger
}

func NewBlocksHandler(reg *registry.Service, synth *synthesis.Service, pal *palette.Service, exp *export.Service, logger *zap.Logger) *BlocksHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BlocksHandler{registry: reg, synth: synth, palette: pal, export: exp, logger: logger}
}

func (h *BlocksHandler) HandleList(w http.ResponseWriter, _ *http.Request) {
	list := h.registry.List()
	if list == nil {
		list = []blocks.Definition{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"blocks": list})
}

// HandleCreate synthesizes a block from a description and registers it.
func (h *BlocksHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in synthesis.Request
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := h.synth.Synthesize(r.Context(), in)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *BlocksHandler) HandleClear(w http.ResponseWriter, r *http.Request) {
	if err := h.registry.ClearAll(r.Context()); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *BlocksHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	def, err := h.registry.Get(r.PathValue("id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, def)
}

func (h *BlocksHandler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	if err := h.registry.Remove(r.Context(), r.PathValue("id")); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *BlocksHandler) HandleShape(w http.ResponseWriter, r *http.Request) {
	shape, err := h.palette.Shape(r.PathValue("id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, shape)
}

func (h *BlocksHandler) HandleShapes(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"shapes": h.palette.Shapes()})
}

type instantiateRequest struct {
	Input string `json:"input"`
}

func (h *BlocksHandler) HandleInstantiate(w http.ResponseWriter, r *http.Request) {
	var in instantiateRequest
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	snippet, err := h.palette.Generate(r.PathValue("id"), in.Input)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"code":       snippet.String(),
		"expression": snippet.IsExpression(),
		"statement":  snippet.Statement(),
	})
}

func (h *BlocksHandler) HandleToolbox(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.palette.Toolbox())
}

type programRequest struct {
	Blocks []palette.Placement `json:"blocks"`
}

func (h *BlocksHandler) compose(w http.ResponseWriter, r *http.Request) (string, []palette.Placement, bool) {
	var in programRequest
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return "", nil, false
	}
	code, err := h.palette.Compose(in.Blocks)
	if err != nil {
		writeErr(w, err)
		return "", nil, false
	}
	return code, in.Blocks, true
}

// HandleProgram composes the placed blocks into one program.
func (h *BlocksHandler) HandleProgram(w http.ResponseWriter, r *http.Request) {
	code, _, ok := h.compose(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"code": code})
}

func (h *BlocksHandler) HandleProgramPreview(w http.ResponseWriter, r *http.Request) {
	code, placed, ok := h.compose(w, r)
	if !ok {
		return
	}
	page, err := h.export.Program(code, len(placed))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeHTML(w, page)
}

func (h *BlocksHandler) HandleProgramExport(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	code, placed, ok := h.compose(w, r)
	if !ok {
		return
	}

	seen := map[string]bool{}
	var defs []blocks.Definition
	for _, p := range placed {
		id := strings.TrimSpace(p.ID)
		if seen[id] {
			continue
		}
		seen[id] = true
		if def, err := h.registry.Get(id); err == nil {
			defs = append(defs, def)
		}
	}

	files, err := h.export.ExportProgram(format, code, defs)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeFiles(w, files)
}
