package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"blockvibe/internal/gateway/app"
	"blockvibe/internal/gateway/config"
	"blockvibe/internal/logging"
)

var (
	// Global flags
	verbose bool
	port    string
	backend string
	llmName string

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "blockvibe",
	Short: "Block Vibe Coding - natural language to visual blocks",
	Long: `blockvibe turns plain-language descriptions into custom visual
programming blocks, keeps them in a persistent catalog, and serves the
block palette, the drag-and-drop workspace and their exports over HTTP.

Run without arguments to start the server.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("port") {
			cfg.Port = config.NormalizePort(port)
		}
		if cmd.Flags().Changed("store") {
			cfg.Store.Backend = backend
		}
		if cmd.Flags().Changed("llm") {
			cfg.LLM.Provider = llmName
		}
		logger, err = logging.New(cfg.Logging.Level, cfg.Logging.Format, verbose)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the block API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func runServe(parent context.Context) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize app: %w", err)
	}
	defer a.Close()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := a.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return a.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	logger.Info("server exiting")
	return nil
}

// withApp builds the services for a one-shot command.
func withApp(ctx context.Context, fn func(*app.App) error) error {
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&port, "port", "", "Listen port (overrides PORT)")
	rootCmd.PersistentFlags().StringVar(&backend, "store", "", "Catalog store: memory, file, postgres or s3")
	rootCmd.PersistentFlags().StringVar(&llmName, "llm", "", "Model provider: router, gemini or fake")

	rootCmd.AddCommand(serveCmd, synthCmd, listCmd, removeCmd, clearCmd, exportCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
