/*
Package logger builds the structured JSON logger the server and the
ETL share. Level parsing is forgiving: an unrecognized level falls
back to info rather than failing startup.
*/
package logger

import (
	"log/slog"
	"os"
	"strings"
)

// New creates a JSON slog logger at the given level and installs it as
// the process default.
func New(level string) *slog.Logger {
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(level),
	}))
	slog.SetDefault(log)
	return log
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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
