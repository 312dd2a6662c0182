package tap

// Re-export the core contract types from subpackages so basic use needs
// only the root import.
import (
	"github.com/a2y-d5l/go-tap/event"
	"github.com/a2y-d5l/go-tap/observability"
	"github.com/a2y-d5l/go-tap/source"
	"github.com/a2y-d5l/go-tap/stage"
)

// Stream contract types
type (
	Source[T any]     = source.Source[T]
	Subscriber[T any] = source.Subscriber[T]
	Subscription      = source.Subscription
	Callbacks[T any]  = source.Callbacks[T]
)

// Event model types
type (
	Kind                = event.Kind
	Notification[T any] = event.Notification[T]
	Message[T any]      = event.Message[T]
)

// Notification kinds
const (
	KindNext      = event.KindNext
	KindError     = event.KindError
	KindCompleted = event.KindCompleted
)

// Stage types
type (
	Stage[T any]     = stage.Stage[T]
	Transform[T any] = stage.Transform[T]
)

// Back-end types
type (
	Backend = observability.Backend
	Level   = observability.Level
)

// Severity levels
const (
	LevelTrace = observability.LevelTrace
	LevelDebug = observability.LevelDebug
	LevelInfo  = observability.LevelInfo
	LevelWarn  = observability.LevelWarn
	LevelError = observability.LevelError
)

// Sentinel errors from the source contract
var (
	ErrNilSource     = source.ErrNilSource
	ErrNilSubscriber = source.ErrNilSubscriber
)
