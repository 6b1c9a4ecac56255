// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/zettelmark/internal/api"
	"github.com/starford/zettelmark/internal/index"
	"github.com/starford/zettelmark/internal/mcpserver"
	"github.com/starford/zettelmark/internal/noteservice"
	"github.com/starford/zettelmark/internal/parser"
	"github.com/starford/zettelmark/internal/render"
	"github.com/starford/zettelmark/internal/revision"
	"github.com/starford/zettelmark/internal/site"
	"github.com/starford/zettelmark/internal/sse"
	"github.com/starford/zettelmark/internal/storage"
)

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{mode: ModeServe, version: "dev", stdout: os.Stdout}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger. MCP owns stdout.
	var logOut io.Writer = os.Stdout
	if app.mode == ModeMCP {
		logOut = os.Stderr
	}
	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("mode", string(app.mode)),
		slog.String("docs_dir", cfg.Site.DocsDir),
		slog.String("output_dir", cfg.Site.OutputDir),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Initialize storage.
	docs, err := storage.NewFS(cfg.Site.DocsDir)
	if err != nil {
		return fmt.Errorf("init docs storage: %w", err)
	}
	out, err := storage.EnsureFS(cfg.Site.OutputDir)
	if err != nil {
		return fmt.Errorf("init output storage: %w", err)
	}

	// Initialize SQLite index.
	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init index: %w", err)
	}
	defer db.Close()

	loc := cfg.Site.Location()
	git := revision.NewGit(cfg.Git.Binary)
	git.Location = loc
	p := parser.New(
		parser.WithRevisionSource(revision.NewSelector(git, revision.ModTime{Location: loc}, cfg.Git.HostMarkers...)),
		parser.WithLocation(loc),
		parser.WithLogger(logger),
	)
	builder := site.NewBuilder(docs, p, render.NewGoldmark(cfg.Site.UnsafeHTML), cfg.Site.BuildConfig(),
		site.WithOutput(out),
		site.WithBuildLogger(logger),
	)

	switch app.mode {
	case ModeBuild:
		svc := noteservice.NewService(builder, db, noteservice.WithLogger(logger))
		return runBuild(ctx, svc, app.stdout)
	case ModeMCP:
		svc := noteservice.NewService(builder, db, noteservice.WithLogger(logger))
		if _, err := svc.Rebuild(ctx); err != nil {
			logger.Warn("initial build failed", slog.String("error", err.Error()))
		}
		logger.Info("Starting MCP server on stdio")
		return mcpserver.New(svc, app.version).ServeStdio()
	case ModeServe:
		return runServe(ctx, cfg, builder, db, logger)
	default:
		return fmt.Errorf("unknown mode %q", app.mode)
	}
}

func runBuild(ctx context.Context, svc *noteservice.Service, stdout io.Writer) error {
	sum, err := svc.Rebuild(ctx)
	if err != nil {
		return err
	}
	invalid, err := svc.Invalid(ctx)
	if err != nil {
		return err
	}
	printSummary(stdout, sum, invalid)
	return nil
}

func runServe(ctx context.Context, cfg *Config, builder *site.Builder, db *index.DB, logger *slog.Logger) error {
	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	svc := noteservice.NewService(builder, db,
		noteservice.WithLogger(logger),
		noteservice.WithPublisher(broker),
	)

	// Run initial build.
	if _, err := svc.Rebuild(ctx); err != nil {
		logger.Warn("initial build failed", slog.String("error", err.Error()))
	}

	apiRouter := api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker, cfg.Site.OutputDir)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		if _, err := db.LastBuild(); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"not built"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	g, gCtx := errgroup.WithContext(ctx)

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

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
