package app

import (
	"log/slog"
	"os"
)

// NewLogger builds the process-wide logger. Production always ships JSON so
// log collectors get structured lines; elsewhere LOG_FORMAT picks between
// json and the readable text handler, with debug level enabled.
func NewLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{AddSource: true}
	if cfg != nil && !cfg.IsProduction() {
		opts.Level = slog.LevelDebug
	}
	if cfg != nil && (cfg.IsProduction() || cfg.LogFormat == "json") {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
