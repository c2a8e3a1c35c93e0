package main

import (
	"context"
	"errors"
	"flag"
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
	"github.com/go-chi/cors"
	"github.com/icco/catalogo/handlers"
	"github.com/icco/catalogo/lib/config"
	"github.com/icco/catalogo/lib/db"
	"github.com/icco/catalogo/lib/gateway"
	"github.com/icco/catalogo/lib/health"
	"github.com/icco/catalogo/lib/lock"
	"github.com/icco/catalogo/lib/tech"
	"gopkg.in/natefinch/lumberjack.v2"
	"gorm.io/gorm"
)

type App struct {
	cfg    *config.Config
	db     *gorm.DB
	router *chi.Mux
	logger *slog.Logger
}

func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	gormDB, err := db.Open(cfg.Database, logger)
	if err != nil {
		return nil, err
	}

	if err := db.RunMigrations(ctx, gormDB, lock.NewFileLock(cfg.Database.LockDir, logger), logger); err != nil {
		_ = db.Close(gormDB)
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	techs, err := tech.Load()
	if err != nil {
		_ = db.Close(gormDB)
		return nil, err
	}

	app := &App{
		cfg:    cfg,
		db:     gormDB,
		router: chi.NewRouter(),
		logger: logger,
	}
	app.setupRoutes(gateway.New(gormDB, logger), techs)
	return app, nil
}

func (a *App) setupRoutes(gw gateway.Gateway, techs *tech.Catalog) {
	a.router.Use(middleware.RequestID)
	a.router.Use(middleware.Logger)
	a.router.Use(middleware.Recoverer)
	a.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: a.cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		MaxAge:         300,
	}))

	a.router.Get("/healthz", health.Check(a.db))

	a.router.Group(func(r chi.Router) {
		r.Use(handlers.RateLimit(a.cfg.RateLimit.RPS, a.cfg.RateLimit.Burst))
		handlers.Mount(r, gw, techs)
	})
}

// Close releases the database pool.
func (a *App) Close() error {
	return db.Close(a.db)
}

func newLogger(cfg config.Log) *slog.Logger {
	var out io.Writer = os.Stdout
	if cfg.File != "" {
		out = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		})
	}
	return slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level: cfg.Level,
	}))
}

func main() {
	port := flag.Int("port", 0, "override PORT from the environment")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}
	if *port != 0 {
		cfg.Port = *port
	}

	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := NewApp(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to start", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("Failed to close database", slog.Any("error", err))
		}
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           app.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting server", slog.Int("port", cfg.Port), slog.String("driver", cfg.Database.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("Server failed", slog.Any("error", err))
		}
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", slog.Any("error", err))
	}
	logger.Info("Shutdown complete")
}
