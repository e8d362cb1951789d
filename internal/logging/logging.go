// Package logging builds the process logger from config.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/phsym/console-slog"
	slogmulti "github.com/samber/slog-multi"
	"github.com/samber/oops"

	"github.com/MikeSquared-Agency/tina/internal/config"
)

// New returns a logger writing to out in the configured format. When an
// error file is configured, error records are also appended to it as JSON
// and the returned close func releases the file.
func New(cfg config.Log, out io.Writer) (*slog.Logger, func() error, error) {
	lvl := ParseLevel(cfg.Level)

	var primary slog.Handler
	switch cfg.Format {
	case "console":
		primary = console.NewHandler(out, &console.HandlerOptions{Level: lvl})
	default:
		primary = slog.NewJSONHandler(out, &slog.HandlerOptions{Level: lvl})
	}

	if cfg.ErrorFile == "" {
		return slog.New(primary), func() error { return nil }, nil
	}

	f, err := os.OpenFile(cfg.ErrorFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, oops.In("logging").With("path", cfg.ErrorFile).Wrapf(err, "failed to open error log")
	}

	router := slogmulti.Router().
		Add(primary).
		Add(slog.NewJSONHandler(f, &slog.HandlerOptions{Level: slog.LevelError}), errorsOnly)

	return slog.New(router.Handler()), f.Close, nil
}

func errorsOnly(_ context.Context, r slog.Record) bool {
	return r.Level >= slog.LevelError
}

func ParseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
