package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"blockvibe/internal/gateway/config"
	"blockvibe/internal/gateway/handler"
	kvrepo "blockvibe/internal/gateway/repository/kv"
	"blockvibe/internal/gateway/server"
	"blockvibe/internal/gateway/service/export"
	"blockvibe/internal/gateway/service/palette"
	"blockvibe/internal/gateway/service/registry"
	"blockvibe/internal/gateway/service/synthesis"
	"blockvibe/internal/gateway/service/workspace"
	"blockvibe/internal/llm"
)

// App holds the wired services. The CLI uses them directly; Start serves
// them over HTTP.
type App struct {
	Config    *config.Config
	Registry  *registry.Service
	Palette   *palette.Service
	Synthesis *synthesis.Service
	Workspace *workspace.Service
	Export    *export.Service

	logger     *zap.Logger
	client     llm.ChatClient
	handler    http.Handler
	server     *server.Server
	closeStore func() error
}

func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	// Dependencies
	store, closeStore, err := openStore(cfg.Store, logger)
	if err != nil {
		return nil, err
	}
	return build(ctx, cfg, store, closeStore, logger)
}

// NewWithStore wires the services over an existing slot store.
func NewWithStore(ctx context.Context, cfg *config.Config, store kvrepo.Store, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	return build(ctx, cfg, store, func() error { return nil }, logger)
}

func build(ctx context.Context, cfg *config.Config, store kvrepo.Store, closeStore func() error, logger *zap.Logger) (*App, error) {
	client, err := newChatClient(ctx, cfg.LLM, logger)
	if err != nil {
		_ = closeStore()
		return nil, err
	}

	pal := palette.New()
	reg := registry.New(store, pal, cfg.Store.RegistryKey, logger)
	if err := reg.Reload(ctx); err != nil {
		_ = client.Close()
		_ = closeStore()
		return nil, fmt.Errorf("failed to load blocks: %w", err)
	}
	synth := synthesis.New(client, reg, logger)
	ws := workspace.New(synth, logger)
	exp, err := export.New()
	if err != nil {
		_ = client.Close()
		_ = closeStore()
		return nil, err
	}

	// Routing & Server
	mux := server.NewMux(server.Handlers{
		Generate:  handler.NewGenerateHandler(synth, logger),
		Blocks:    handler.NewBlocksHandler(reg, synth, pal, exp, logger),
		Workspace: handler.NewWorkspaceHandler(ws, exp),
		Watch:     handler.NewWatchHandler(reg, logger),
		Status:    handler.NewStatusHandler(reg, synth),
	}, logger)

	return &App{
		Config:     cfg,
		Registry:   reg,
		Palette:    pal,
		Synthesis:  synth,
		Workspace:  ws,
		Export:     exp,
		logger:     logger,
		client:     client,
		handler:    mux,
		server:     server.New(cfg.Port, mux, logger),
		closeStore: closeStore,
	}, nil
}

// Handler returns the routed HTTP handler with its middleware.
func (a *App) Handler() http.Handler { return a.handler }

func (a *App) Start() error {
	return a.server.Start()
}

func (a *App) Shutdown(ctx context.Context) error {
	return a.server.Shutdown(ctx)
}

// Close releases the model client and the store.
func (a *App) Close() error {
	return errors.Join(a.client.Close(), a.closeStore())
}
