package observability

import (
	"log/slog"
	"os"
	"strings"

	"github.com/mhornych/chmi-station-catalog/internal/config"
)

// NewLogger builds the process logger from LOG_LEVEL and LOG_FORMAT. The
// json handler is the default so scheduled runs produce machine-parseable
// output; text is for running by hand.
func NewLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}

	var handler slog.Handler
	if strings.ToLower(cfg.LogFormat) == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
