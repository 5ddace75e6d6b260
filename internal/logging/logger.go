// Package logging builds the CLI logger.
package logging

import (
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"

	"github.com/paasim/fmi-cli/internal/config"
)

// New returns a tinted logger for development and a JSON logger for
// production, writing to stderr so data output stays clean on stdout.
func New(cfg *config.Config) *slog.Logger {
	if cfg.Env != "prod" {
		h := tint.NewHandler(os.Stderr, &tint.Options{
			Level:      cfg.LogLevel,
			TimeFormat: time.Kitchen,
		})
		return slog.New(h)
	}

	h := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	})
	return slog.New(h).With("app", "fmi-cli")
}
