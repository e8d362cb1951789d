package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/samber/do"

	"github.com/MikeSquared-Agency/tina/internal/anthropic"
	"github.com/MikeSquared-Agency/tina/internal/api"
	"github.com/MikeSquared-Agency/tina/internal/config"
	"github.com/MikeSquared-Agency/tina/internal/conversation"
	"github.com/MikeSquared-Agency/tina/internal/extractor"
	"github.com/MikeSquared-Agency/tina/internal/gemini"
	"github.com/MikeSquared-Agency/tina/internal/hermes"
	"github.com/MikeSquared-Agency/tina/internal/openai"
	"github.com/MikeSquared-Agency/tina/internal/optin"
	"github.com/MikeSquared-Agency/tina/internal/oracle"
	"github.com/MikeSquared-Agency/tina/internal/outcome"
	"github.com/MikeSquared-Agency/tina/internal/render"
	"github.com/MikeSquared-Agency/tina/internal/slack"
	"github.com/MikeSquared-Agency/tina/internal/store"
)

func newOracle(i *do.Injector) (oracle.Oracle, error) {
	ctx := do.MustInvoke[context.Context](i)
	cfg := do.MustInvoke[config.Config](i)
	logger := do.MustInvoke[*slog.Logger](i).With("component", "oracle")

	var (
		base oracle.Oracle
		err  error
	)
	switch cfg.Oracle.Provider {
	case config.ProviderAnthropic:
		base = anthropic.NewClient(cfg.Oracle.AnthropicAPIKey, cfg.Oracle.Model)
	case config.ProviderOpenAI:
		base, err = openai.NewClient(cfg.Oracle.OpenAIAPIKey, cfg.Oracle.OpenAIBaseURL, cfg.Oracle.Model, logger)
	case config.ProviderGemini:
		base, err = gemini.NewClient(ctx, cfg.Oracle.GeminiAPIKey, cfg.Oracle.Model, gemini.Options{})
	default:
		err = fmt.Errorf("unknown oracle provider %q", cfg.Oracle.Provider)
	}
	if err != nil {
		return nil, err
	}
	logger.Info("oracle client ready", "provider", cfg.Oracle.Provider, "model", cfg.Oracle.Model)

	backoff := oracle.DefaultBackoff()
	backoff.MaxRetries = cfg.Oracle.MaxRetries
	return oracle.WithRetry(base, backoff, logger), nil
}

// newStore returns nil when no database is configured.
func newStore(i *do.Injector) (*store.Store, error) {
	ctx := do.MustInvoke[context.Context](i)
	cfg := do.MustInvoke[config.Config](i)
	if cfg.DatabaseURL == "" {
		slog.Info("DATABASE_URL not set, outcome ledger disabled")
		return nil, nil
	}

	db, err := store.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := db.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	slog.Info("database connected")
	return db, nil
}

// newHermes returns nil when no NATS server is configured.
func newHermes(i *do.Injector) (*hermes.Client, error) {
	ctx := do.MustInvoke[context.Context](i)
	cfg := do.MustInvoke[config.Config](i)
	logger := do.MustInvoke[*slog.Logger](i)
	if cfg.NatsURL == "" {
		slog.Info("NATS_URL not set, outcome events disabled")
		return nil, nil
	}

	client, err := hermes.NewClient(ctx, cfg.NatsURL, cfg.NatsToken, logger)
	if err != nil {
		return nil, err
	}
	slog.Info("NATS connected", "url", cfg.NatsURL)
	return client, nil
}

func newRecorder(i *do.Injector) (*outcome.Recorder, error) {
	cfg := do.MustInvoke[config.Config](i)
	logger := do.MustInvoke[*slog.Logger](i).With("component", "outcome")

	db, err := do.Invoke[*store.Store](i)
	if err != nil {
		return nil, err
	}
	h, err := do.Invoke[*hermes.Client](i)
	if err != nil {
		return nil, err
	}

	var sinks outcome.Sinks
	if db != nil {
		sinks.Store = db
	}
	if h != nil {
		sinks.Publisher = h
	}
	if cfg.SlackBotToken != "" {
		sinks.Leads = slack.NewPoster(cfg.SlackBotToken, cfg.SlackChannel, logger)
		slog.Info("slack poster ready", "channel", cfg.SlackChannel)
	}
	return outcome.NewRecorder(sinks, logger), nil
}

func newEngine(i *do.Injector) (*conversation.Engine, error) {
	cfg := do.MustInvoke[config.Config](i)
	logger := do.MustInvoke[*slog.Logger](i)

	o, err := do.Invoke[oracle.Oracle](i)
	if err != nil {
		return nil, err
	}

	return conversation.New(
		optin.New(o, logger.With("component", "optin")),
		extractor.New(o, logger.With("component", "extractor")),
		render.New(o, logger.With("component", "render"), render.WithStyling(cfg.StyleRecommendations)),
		o,
		logger.With("component", "conversation"),
	), nil
}

func newServer(i *do.Injector) (*api.Server, error) {
	cfg := do.MustInvoke[config.Config](i)
	logger := do.MustInvoke[*slog.Logger](i)

	engine, err := do.Invoke[*conversation.Engine](i)
	if err != nil {
		return nil, err
	}
	recorder, err := do.Invoke[*outcome.Recorder](i)
	if err != nil {
		return nil, err
	}

	return api.NewServer(cfg.Port, engine, api.Options{
		CORSOrigins: cfg.CORSOrigins,
		Outcomes:    recorder,
		Logger:      logger.With("component", "api"),
	}), nil
}
