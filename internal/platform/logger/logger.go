package logger

import (
	"log/slog"
	"os"
	"strings"
)

// New builds the root structured logger from environment settings.
// ORDERCORE_LOG_FORMAT=json switches to JSON output; ORDERCORE_LOG_LEVEL
// accepts debug/info/warn/error.
func New() *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(os.Getenv("ORDERCORE_LOG_LEVEL")) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.EqualFold(os.Getenv("ORDERCORE_LOG_FORMAT"), "json") {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}
