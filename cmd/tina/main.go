package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/do"
	"golang.org/x/sync/errgroup"

	"github.com/MikeSquared-Agency/tina/internal/api"
	"github.com/MikeSquared-Agency/tina/internal/config"
	"github.com/MikeSquared-Agency/tina/internal/hermes"
	"github.com/MikeSquared-Agency/tina/internal/logging"
	"github.com/MikeSquared-Agency/tina/internal/outcome"
	"github.com/MikeSquared-Agency/tina/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "error", err)
		os.Exit(1)
	}

	logger, closeLog, err := logging.New(cfg.Log, os.Stdout)
	if err != nil {
		slog.Error("logging init failed", "error", err)
		os.Exit(1)
	}
	defer closeLog()
	slog.SetDefault(logger)

	slog.Info("tina starting", "port", cfg.Port, "oracle", cfg.Oracle.Provider)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	di := do.New()
	do.ProvideValue(di, ctx)
	do.ProvideValue(di, cfg)
	do.ProvideValue(di, logger)

	do.Provide(di, newOracle)
	do.Provide(di, newStore)
	do.Provide(di, newHermes)
	do.Provide(di, newRecorder)
	do.Provide(di, newEngine)
	do.Provide(di, newServer)

	srv, err := do.Invoke[*api.Server](di)
	if err != nil {
		slog.Error("service wiring failed", "error", err)
		os.Exit(1)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	announce(di, cfg)
	slog.Info("tina ready", "port", cfg.Port)

	if err := g.Wait(); err != nil {
		slog.Error("HTTP server error", "error", err)
	}

	// Drain outcome writes before their sinks go away.
	do.MustInvoke[*outcome.Recorder](di).Close()
	if h := do.MustInvoke[*hermes.Client](di); h != nil {
		h.Close()
	}
	if db := do.MustInvoke[*store.Store](di); db != nil {
		db.Close()
	}

	slog.Info("tina stopped")
}

func announce(di *do.Injector, cfg config.Config) {
	h := do.MustInvoke[*hermes.Client](di)
	if h == nil {
		return
	}
	if err := h.Publish(hermes.SubjectStarted, map[string]any{
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"port":      cfg.Port,
		"oracle":    cfg.Oracle.Provider,
	}); err != nil {
		slog.Warn("failed to publish startup", "error", err)
	}
}
