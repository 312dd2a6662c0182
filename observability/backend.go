package observability

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
)

// Backend consumes rendered instrumentation lines. Implementations must be
// safe for concurrent use and must not panic; dispatch is fire-and-forget.
//
// name is the identity of the emitting instrumentation point, text the
// fully rendered line, and err the terminal error for error events (nil
// otherwise).
type Backend interface {
	Emit(name string, level Level, text string, err error)
}

// LogFormat represents the output format of the slog back-end.
type LogFormat int

const (
	// JSON format outputs structured JSON logs
	JSON LogFormat = iota
	// Text format outputs human-readable text logs
	Text
)

// Config holds configuration for creating a slog back-end.
type Config struct {
	Level  Level
	Format LogFormat
	Output io.Writer
}

var (
	defaultMu      sync.RWMutex
	defaultBackend Backend = NewBackend(Config{
		Level:  LevelInfo,
		Format: Text,
		Output: os.Stderr,
	})
)

// SetDefault sets the package-level default back-end. Operators resolve
// the default when they are built, so changing it later affects only
// operators built afterwards.
func SetDefault(b Backend) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultBackend = b
}

// Default returns the package-level default back-end.
func Default() Backend {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultBackend
}

// slogBackend dispatches lines through a slog.Logger.
type slogBackend struct {
	logger *slog.Logger
}

// NewBackend creates a slog back-end with the given configuration.
func NewBackend(config Config) Backend {
	if config.Output == nil {
		config.Output = os.Stderr
	}

	opts := &slog.HandlerOptions{
		Level: config.Level.Slog(),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// slog renders the trace slot as "DEBUG-4"; name it.
			if a.Key == slog.LevelKey && len(groups) == 0 {
				if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == levelTraceSlog {
					a.Value = slog.StringValue("TRACE")
				}
			}
			return a
		},
	}

	var handler slog.Handler
	switch config.Format {
	case JSON:
		handler = slog.NewJSONHandler(config.Output, opts)
	default:
		handler = slog.NewTextHandler(config.Output, opts)
	}

	return &slogBackend{logger: slog.New(handler)}
}

// NewSlogBackend wraps an existing slog.Logger as a back-end. The logger's
// handler decides thresholding and output.
func NewSlogBackend(logger *slog.Logger) Backend {
	if logger == nil {
		logger = slog.Default()
	}
	return &slogBackend{logger: logger}
}

// Emit logs the line with the instrumentation identity as a structured
// field, plus the error object for error events.
func (b *slogBackend) Emit(name string, level Level, text string, err error) {
	attrs := make([]slog.Attr, 0, 2)
	attrs = append(attrs, slog.String("logger", name))
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	b.logger.LogAttrs(context.Background(), level.Slog(), text, attrs...)
}
