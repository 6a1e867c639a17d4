package config

import (
	"io"
	"log/slog"
)

// NewLogger returns a JSON logger in production and a text logger
// elsewhere.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	if c.IsProduction() {
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
