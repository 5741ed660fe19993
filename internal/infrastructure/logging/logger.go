package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/bohrium-dev/bohrium-core/internal/infrastructure/config"
)

// serviceName tags every log line so aggregated output from several
// services stays attributable.
const serviceName = "bohrium"

// Logger is slog with the service defaults applied. It embeds
// *slog.Logger, so the usual Debug/Info/Warn/Error methods are
// available directly; packages derive their own child via With.
type Logger struct {
	*slog.Logger
}

// New builds a Logger from the logging section of config.yaml. Format
// defaults to JSON, output to stdout, level to info; every entry
// carries the service name and version.
func New(cfg config.LoggingConfig, version string) *Logger {
	handler := newHandler(cfg).WithAttrs([]slog.Attr{
		slog.String("service", serviceName),
		slog.String("version", version),
	})
	return &Logger{Logger: slog.New(handler)}
}

func newHandler(cfg config.LoggingConfig) slog.Handler {
	var output io.Writer = os.Stdout
	if strings.ToLower(cfg.Output) == "stderr" {
		output = os.Stderr
	}

	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}
	if strings.ToLower(cfg.Format) == "text" {
		return slog.NewTextHandler(output, opts)
	}
	return slog.NewJSONHandler(output, opts)
}

// parseLevel maps a configured level name to slog. Unknown names fall
// back to info rather than failing startup.
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

// With returns a child Logger carrying extra default attributes.
// Packages conventionally tag themselves once:
//
//	log := logger.With("component", "notify")
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

// Default returns a JSON logger at info level for use before the
// configuration file has been read.
func Default() *Logger {
	return New(config.LoggingConfig{Level: "info", Format: "json", Output: "stdout"}, "dev")
}
