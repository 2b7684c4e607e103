// Package platform provides process-level plumbing: structured logging and
// environment-variable configuration helpers.
package platform

import (
	"log/slog"
	"os"
	"strings"
)

// InitLogger builds the process-wide JSON logger and installs it as the
// slog default. The level comes from UMCLAIMS_LOG_LEVEL (debug, info,
// warn, error); unknown values fall back to info.
func InitLogger() *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLevel(GetEnv("UMCLAIMS_LOG_LEVEL", "info")),
	}))
	slog.SetDefault(logger)
	return logger
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
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

// LogFatal logs the error and exits.
func LogFatal(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, "error", err)
	os.Exit(1)
}
