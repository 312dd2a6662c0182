// Package event defines the notification variants observed on a tapped
// stream and the annotated message envelope that flows through a stage
// chain on its way to the logging sink.
package event

// Kind identifies which lifecycle variant a notification carries.
type Kind int

// Notification kinds
const (
	// KindNext is a regular value emission.
	KindNext Kind = iota
	// KindError is a terminal failure carrying an error.
	KindError
	// KindCompleted is a terminal success carrying no payload.
	KindCompleted
)

// String returns the lower-case name of the kind.
func (k Kind) String() string {
	switch k {
	case KindNext:
		return "next"
	case KindError:
		return "error"
	case KindCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether the kind ends a subscription.
func (k Kind) IsTerminal() bool {
	return k == KindError || k == KindCompleted
}

// Notification is an immutable tagged union over the three stream lifecycle
// events: a value, a terminal error, or a terminal completion. Exactly one
// variant is active per notification.
//
// Subscribe and unsubscribe transitions are deliberately not notifications:
// they never flow through a stage chain and are logged directly by the tap
// operator at the moment they occur.
type Notification[T any] struct {
	kind  Kind
	value T
	err   error
}

// Next creates a value notification.
func Next[T any](value T) Notification[T] {
	return Notification[T]{kind: KindNext, value: value}
}

// Error creates a terminal error notification.
func Error[T any](err error) Notification[T] {
	return Notification[T]{kind: KindError, err: err}
}

// Completed creates a terminal completion notification.
func Completed[T any]() Notification[T] {
	return Notification[T]{kind: KindCompleted}
}

// Kind returns the active variant.
func (n Notification[T]) Kind() Kind {
	return n.kind
}

// Value returns the emitted value. It is meaningful only when IsNext
// reports true; otherwise it is the zero value of T.
func (n Notification[T]) Value() T {
	return n.value
}

// Err returns the terminal error, or nil for non-error notifications.
func (n Notification[T]) Err() error {
	return n.err
}

// IsNext reports whether the notification is a value emission.
func (n Notification[T]) IsNext() bool {
	return n.kind == KindNext
}

// IsError reports whether the notification is a terminal error.
func (n Notification[T]) IsError() bool {
	return n.kind == KindError
}

// IsCompleted reports whether the notification is a terminal completion.
func (n Notification[T]) IsCompleted() bool {
	return n.kind == KindCompleted
}
