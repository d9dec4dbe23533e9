package handler

import (
	"net/http"

	"blockvibe/internal/blocks"
	"blockvibe/internal/gateway/service/export"
	"blockvibe/internal/gateway/service/workspace"
)

// WorkspaceHandler serves the drag-and-drop workspace.
type WorkspaceHandler struct {
	ws     *workspace.Service
	export *export.Service
}

func NewWorkspaceHandler(ws *workspace.Service, exp *export.Service) *WorkspaceHandler {
	return &WorkspaceHandler{ws: ws, export: exp}
}

func (h *WorkspaceHandler) HandleList(w http.ResponseWriter, _ *http.Request) {
	list := h.ws.List()
	if list == nil {
		list = []workspace.Instance{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"blocks":     list,
		"categories": blocks.Categories(),
	})
}

type addRequest struct {
	Type string `json:"type"`
}

func (h *WorkspaceHandler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	var in addRequest
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	inst, err := h.ws.Add(in.Type)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, inst)
}

func (h *WorkspaceHandler) HandleClear(w http.ResponseWriter, _ *http.Request) {
	h.ws.Clear()
	w.WriteHeader(http.StatusNoContent)
}

type describeRequest struct {
	Description string `json:"description"`
}

func (h *WorkspaceHandler) HandleDescribe(w http.ResponseWriter, r *http.Request) {
	var in describeRequest
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	inst, err := h.ws.Describe(r.PathValue("id"), in.Description)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inst)
}

func (h *WorkspaceHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.ws.Delete(r.PathValue("id")); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *WorkspaceHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	inst, err := h.ws.Generate(r.Context(), r.PathValue("id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inst)
}

type reorderRequest struct {
	Dragged string `json:"dragged"`
	Target  string `json:"target"`
}

func (h *WorkspaceHandler) HandleReorder(w http.ResponseWriter, r *http.Request) {
	var in reorderRequest
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.ws.Reorder(in.Dragged, in.Target); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"blocks": h.ws.List()})
}

func entries(list []workspace.Instance) []export.Entry {
	out := make([]export.Entry, 0, len(list))
	for _, b := range list {
		out = append(out, export.Entry{Type: b.Type, Description: b.Description, Code: b.Code, Generated: b.Generated})
	}
	return out
}

func (h *WorkspaceHandler) HandlePreview(w http.ResponseWriter, _ *http.Request) {
	page, err := h.export.Preview(entries(h.ws.List()))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeHTML(w, page)
}

func (h *WorkspaceHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	files, err := h.export.Export(format, entries(h.ws.List()))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeFiles(w, files)
}
