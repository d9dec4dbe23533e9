package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"blockvibe/internal/gateway/repository/kv"
	"blockvibe/internal/gateway/service/export"
	"blockvibe/internal/gateway/service/palette"
	"blockvibe/internal/gateway/service/registry"
	"blockvibe/internal/gateway/service/synthesis"
	"blockvibe/internal/gateway/service/workspace"
	"blockvibe/internal/llm"
	"blockvibe/internal/util/jsonutil"
)

const maxBodyBytes = 1 << 20

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	raw, err := jsonutil.MarshalNoEscape(v)
	if err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(raw)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// writeErr maps a service error to its HTTP status.
func writeErr(w http.ResponseWriter, err error) {
	writeError(w, statusFor(err), err.Error())
}

func statusFor(err error) int {
	var status *llm.StatusError
	switch {
	case errors.Is(err, registry.ErrNotFound),
		errors.Is(err, workspace.ErrNotFound),
		errors.Is(err, palette.ErrUnknownBlock),
		errors.Is(err, kv.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, registry.ErrDuplicateID):
		return http.StatusConflict
	case errors.Is(err, synthesis.ErrEmptyDescription),
		errors.Is(err, workspace.ErrEmptyDescription),
		errors.Is(err, workspace.ErrUnknownCategory),
		errors.Is(err, export.ErrNothingToExport):
		return http.StatusBadRequest
	case errors.As(err, &status):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads a bounded JSON body into v. An empty body leaves v as is.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	raw, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if strings.TrimSpace(string(raw)) == "" {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("invalid json body: %w", err)
	}
	return nil
}

// writeFiles sends one export document as a download, or several as a JSON
// listing.
func writeFiles(w http.ResponseWriter, files []export.File) {
	if len(files) == 1 {
		f := files[0]
		w.Header().Set("Content-Type", f.ContentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", f.Name))
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, f.Content)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"files": files})
}

func writeHTML(w http.ResponseWriter, page string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, page)
}
