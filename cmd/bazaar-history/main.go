package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/ahmethakanbesel/bazaar-history/internal/collector"
	"github.com/ahmethakanbesel/bazaar-history/internal/config"
	"github.com/ahmethakanbesel/bazaar-history/internal/feed/bazaar"
	"github.com/ahmethakanbesel/bazaar-history/internal/observation"
	"github.com/ahmethakanbesel/bazaar-history/internal/platform/sqlite"
	obsrepo "github.com/ahmethakanbesel/bazaar-history/internal/repository/observation"
	"github.com/ahmethakanbesel/bazaar-history/internal/server"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "error", err)
	}

	cfg, err := config.Load(getEnv("CONFIG_PATH", "config.yaml"))
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(newLogger(cfg.Log.Level, cfg.Log.Format))

	// Root context: cancelled on SIGINT/SIGTERM so the in-flight cycle and
	// request fetches stop promptly.
	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		slog.Error("failed to open database", "error", err, "path", cfg.Database.Path)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	repo := obsrepo.NewRepository(db.DB)
	source := bazaar.New(
		bazaar.WithEndpoint(cfg.Feed.URL),
		bazaar.WithTimeout(cfg.Feed.Timeout),
	)
	svc := observation.NewService(repo, source)

	task := collector.NewTask(
		collector.New(source, repo, collector.WithTimeout(cfg.Feed.Timeout)),
		cfg.Collector.Interval,
		collector.WithRunOnStart(*cfg.Collector.RunOnStart),
	)
	if err := task.Start(rootCtx); err != nil {
		slog.Error("failed to start collector", "error", err)
		os.Exit(1)
	}

	srv := server.New(rootCtx, cfg.Server.Port, svc,
		server.WithCurrentRateLimit(*cfg.Feed.RateLimit, cfg.Feed.Burst),
	)

	g, gctx := errgroup.WithContext(rootCtx)
	g.Go(func() error {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		// Stop collecting first so no row is appended after the store closes.
		if err := task.Stop(shutdownCtx); err != nil {
			slog.Error("collector stop error", "error", err)
		}
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("server error", "error", err)
		_ = db.Close()
		os.Exit(1) //nolint:gocritic // db closed above
	}
	slog.Info("server stopped")
}

func newLogger(level, format string) *slog.Logger {
	var lvl slog.Level
	_ = lvl.UnmarshalText([]byte(level))

	opts := &slog.HandlerOptions{Level: lvl}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
