package event

// Message pairs a notification with the instrumentation state accumulated
// while it traverses a stage chain: a free-form annotation string and the
// source ordinal of the emission it describes.
//
// Message has value semantics. Mutating methods return a copy, so stages
// holding an earlier message are never affected by later transformations.
type Message[T any] struct {
	n          Notification[T]
	annotation string
	seq        int64
}

// NewMessage wraps a notification in a message with no annotation.
func NewMessage[T any](n Notification[T]) Message[T] {
	return Message[T]{n: n}
}

// Notification returns the wrapped notification.
func (m Message[T]) Notification() Notification[T] {
	return m.n
}

// Kind returns the kind of the wrapped notification.
func (m Message[T]) Kind() Kind {
	return m.n.Kind()
}

// Annotation returns the accumulated annotation text.
func (m Message[T]) Annotation() string {
	return m.annotation
}

// Append returns a copy of the message with s comma-joined onto the
// annotation. Appending an empty string returns the message unchanged, and
// the first fragment gains no leading delimiter.
func (m Message[T]) Append(s string) Message[T] {
	if s == "" {
		return m
	}
	if m.annotation == "" {
		m.annotation = s
		return m
	}
	m.annotation = m.annotation + ", " + s
	return m
}

// Seq returns the source ordinal carried by the message: the 1-based index
// of the value emission within its subscription. Terminal messages carry
// the ordinal of the last value emitted before them, or zero when the
// stream terminated without emitting.
func (m Message[T]) Seq() int64 {
	return m.seq
}

// WithSeq returns a copy of the message carrying the given source ordinal.
func (m Message[T]) WithSeq(seq int64) Message[T] {
	m.seq = seq
	return m
}
