package server

import (
	"net/http"

	"go.uber.org/zap"

	"blockvibe/internal/gateway/handler"
	"blockvibe/internal/gateway/middleware"
)

type Handlers struct {
	Generate  *handler.GenerateHandler
	Blocks    *handler.BlocksHandler
	Workspace *handler.WorkspaceHandler
	Watch     *handler.WatchHandler
	Status    *handler.StatusHandler
}

func NewMux(h Handlers, logger *zap.Logger) http.Handler {
	mux := http.NewServeMux()

	// Stateless generation
	mux.HandleFunc("POST /api/generate-code", h.Generate.HandleGenerateDefinition)
	mux.HandleFunc("POST /api/generate", h.Generate.HandleGenerateCode)

	// Custom block catalog
	mux.HandleFunc("GET /api/blocks", h.Blocks.HandleList)
	mux.HandleFunc("POST /api/blocks", h.Blocks.HandleCreate)
	mux.HandleFunc("DELETE /api/blocks", h.Blocks.HandleClear)
	mux.HandleFunc("GET /api/blocks/{id}", h.Blocks.HandleGet)
	mux.HandleFunc("DELETE /api/blocks/{id}", h.Blocks.HandleRemove)
	mux.HandleFunc("GET /api/blocks/{id}/shape", h.Blocks.HandleShape)
	mux.HandleFunc("POST /api/blocks/{id}/instantiate", h.Blocks.HandleInstantiate)
	mux.HandleFunc("GET /api/shapes", h.Blocks.HandleShapes)
	mux.HandleFunc("GET /api/toolbox", h.Blocks.HandleToolbox)
	mux.HandleFunc("POST /api/program", h.Blocks.HandleProgram)
	mux.HandleFunc("POST /api/program/preview", h.Blocks.HandleProgramPreview)
	mux.HandleFunc("POST /api/program/export", h.Blocks.HandleProgramExport)

	// Drag-and-drop workspace
	mux.HandleFunc("GET /api/workspace/blocks", h.Workspace.HandleList)
	mux.HandleFunc("POST /api/workspace/blocks", h.Workspace.HandleAdd)
	mux.HandleFunc("DELETE /api/workspace/blocks", h.Workspace.HandleClear)
	mux.HandleFunc("PATCH /api/workspace/blocks/{id}", h.Workspace.HandleDescribe)
	mux.HandleFunc("DELETE /api/workspace/blocks/{id}", h.Workspace.HandleDelete)
	mux.HandleFunc("POST /api/workspace/blocks/{id}/generate", h.Workspace.HandleGenerate)
	mux.HandleFunc("POST /api/workspace/reorder", h.Workspace.HandleReorder)
	mux.HandleFunc("GET /api/workspace/preview", h.Workspace.HandlePreview)
	mux.HandleFunc("GET /api/workspace/export", h.Workspace.HandleExport)

	mux.HandleFunc("GET /api/status", h.Status.HandleStatus)
	mux.HandleFunc("GET /api/watch", h.Watch.HandleWatch)

	// Middleware
	return middleware.RequestID(logger)(middleware.CORS(mux))
}
