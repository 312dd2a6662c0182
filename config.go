package tap

import (
	"fmt"
	"strings"

	"github.com/a2y-d5l/go-tap/observability"
	"github.com/a2y-d5l/go-tap/stage"
)

// Defaults for a fresh builder.
const (
	DefaultName                = "tap"
	DefaultCompletedMessage    = "onCompleted"
	DefaultSubscribedMessage   = "onSubscribe"
	DefaultUnsubscribedMessage = "onUnsubscribe"
)

// Config is the frozen instrumentation profile of an operator. Builders
// assemble it; Log freezes it. A frozen config is never mutated, so one
// operator can serve any number of concurrent subscriptions.
type Config[T any] struct {
	name    string
	backend observability.Backend

	logNext  bool
	logError bool

	nextLevel         observability.Level
	errorLevel        observability.Level
	completedLevel    observability.Level
	subscribedLevel   observability.Level
	unsubscribedLevel observability.Level

	nextFormat  string
	errorFormat string

	completedMessage    string
	subscribedMessage   string
	unsubscribedMessage string

	project func(T) any

	chain stage.Chain[T]

	showStack  bool
	showMemory bool
	showSubID  bool

	stackProbe  func() string
	memoryProbe func() observability.MemorySample
}

// Name returns the instrumentation identity lines are attributed to.
func (c Config[T]) Name() string {
	return c.name
}

func defaultConfig[T any]() Config[T] {
	return Config[T]{
		name:                DefaultName,
		logNext:             true,
		logError:            true,
		nextLevel:           observability.LevelInfo,
		errorLevel:          observability.LevelError,
		completedLevel:      observability.LevelInfo,
		subscribedLevel:     observability.LevelDebug,
		unsubscribedLevel:   observability.LevelDebug,
		completedMessage:    DefaultCompletedMessage,
		subscribedMessage:   DefaultSubscribedMessage,
		unsubscribedMessage: DefaultUnsubscribedMessage,
	}
}

// renderValue converts a value into its logged text, applying the
// configured projection first.
func (c *Config[T]) renderValue(v T) string {
	if c.project != nil {
		return fmt.Sprint(c.project(v))
	}
	return fmt.Sprint(v)
}

// renderTemplate substitutes rendered into the format. An empty format
// yields an empty fragment rather than echoing the value, and a format
// without verbs is used verbatim.
func renderTemplate(format, rendered string) string {
	if format == "" {
		return ""
	}
	if !strings.Contains(format, "%") {
		return format
	}
	return fmt.Sprintf(format, rendered)
}

// joinComma appends b to a with a comma separator, omitting the separator
// when either side is empty.
func joinComma(a, b string) string {
	if a == "" {
		return b
	}
	if b == "" {
		return a
	}
	return a + ", " + b
}

// materialize builds a fresh pipeline for one subscription.
func (c *Config[T]) materialize() *stage.Pipeline[T] {
	return c.chain.Materialize()
}
