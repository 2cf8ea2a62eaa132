// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/raido/internal/images"
	"github.com/starford/raido/internal/mcpserver"
	"github.com/starford/raido/internal/reactions"
	"github.com/starford/raido/internal/syncer"
	"github.com/starford/raido/internal/trace"
	"github.com/starford/raido/internal/watch"
)

// RunSync executes the vault-to-site synchronization, once or continuously
// when the watch option is set.
func RunSync(ctx context.Context, opts ...Option) error {
	app, err := buildApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	logger := newLogger(os.Stdout, cfg, app.debug)
	slog.SetDefault(logger)

	paths, err := LoadPaths(os.Getenv)
	if err != nil {
		return err
	}

	logger.Info("Configuration loaded",
		slog.String("vault_root", paths.VaultRoot),
		slog.String("blog_output_dir", cfg.Site.BlogOutputDir),
		slog.Int("image_quality", cfg.Images.Quality),
		slog.Bool("watch", app.watch))

	layout, err := syncer.NewLayout(cfg.Site.BlogOutputDir)
	if err != nil {
		return err
	}
	converter := images.NewWebPConverter(cfg.Images.Quality, cfg.Images.MaxWidth)
	tr := trace.New(logger, "sync", app.debug)
	pipeline := syncer.NewPipeline(layout, converter, logger, tr)

	runOnce := func(ctx context.Context) error {
		report, err := pipeline.Run(paths)
		if err != nil {
			return err
		}
		logReport(logger, report)
		return nil
	}

	if !app.watch {
		return runOnce(ctx)
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return watch.New(watchRoots(paths), logger).Run(ctx, runOnce)
}

// watchRoots covers the whole vault: pebble discovery can pull notes from
// any subtree, not just the blog and log source directories.
func watchRoots(paths syncer.Paths) []string {
	return []string{paths.VaultRoot}
}

// RunServe starts the reactions HTTP server and blocks until shutdown.
func RunServe(ctx context.Context, opts ...Option) error {
	app, err := buildApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	logger := newLogger(os.Stdout, cfg, app.debug)
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.Reactions.HTTP.Address()),
		slog.String("sqlite_path", cfg.Reactions.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	store, err := reactions.Open(cfg.Reactions.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init reactions store: %w", err)
	}
	defer store.Close()

	reactionsRouter := reactions.NewRouter(store, reactions.RouterConfig{
		AllowedOrigins: cfg.Reactions.AllowedOrigins,
		MaxRequests:    cfg.Reactions.RateLimit.MaxRequests,
		Window:         cfg.Reactions.RateLimit.Window,
	}, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Mount("/api/reactions", reactionsRouter)

	httpServer := &http.Server{
		Addr:    cfg.Reactions.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.Reactions.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunMCP serves the synchronization tools over MCP stdio. Logs go to
// stderr; stdout carries the protocol.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := buildApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	logger := newLogger(os.Stderr, cfg, app.debug)

	paths, err := LoadPaths(os.Getenv)
	if err != nil {
		return err
	}
	layout, err := syncer.NewLayout(cfg.Site.BlogOutputDir)
	if err != nil {
		return err
	}
	converter := images.NewWebPConverter(cfg.Images.Quality, cfg.Images.MaxWidth)
	tr := trace.New(logger, "mcp", app.debug)
	pipeline := syncer.NewPipeline(layout, converter, logger, tr)

	logger.Info("MCP server starting on stdio")
	return mcpserver.New(pipeline, layout, paths, logger).ServeStdio()
}

func buildApplication(opts []Option) (*application, error) {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

func newLogger(w *os.File, cfg *Config, debug bool) *slog.Logger {
	level := cfg.App.LogLevel
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

func logReport(logger *slog.Logger, report *syncer.Report) {
	logger.Info("Blog pass finished",
		slog.Int("scanned", report.Blog.ScannedCount),
		slog.Int("published", report.Blog.PublishedCount),
		slog.Int("written", report.Blog.WrittenCount))
	if report.Log == nil {
		logger.Info("Nothing published, run ended after blog pass")
		return
	}
	logger.Info("Log pass finished",
		slog.Int("scanned", report.Log.ScannedCount),
		slog.Int("written", report.Log.WrittenCount))
}
