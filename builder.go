package tap

import (
	"github.com/a2y-d5l/go-tap/event"
	"github.com/a2y-d5l/go-tap/observability"
	"github.com/a2y-d5l/go-tap/stage"
)

// ----------------------------- Builder API ---------------------------------

// Builder assembles an instrumentation profile with a fluent interface.
//
// Builder is an immutable value: every method returns a new builder and
// leaves the receiver untouched, so partially configured builders can be
// shared and branched freely. Configuration never fails; inputs are taken
// as given and any fault they cause surfaces at render time, where it is
// contained by the operator.
type Builder[T any] struct {
	cfg Config[T]
}

// New creates a builder with the default identity and defaults: values at
// INFO, errors at ERROR, completion at INFO, subscribe and unsubscribe at
// DEBUG, empty value and error formats.
func New[T any]() Builder[T] {
	return Builder[T]{cfg: defaultConfig[T]()}
}

// Log is the quickest way to instrument a stream: a default profile with
// the value shown on every value line.
func Log[T any]() *Operator[T] {
	return New[T]().ShowValue().Log()
}

// Named creates a builder whose lines are attributed to name.
func Named[T any](name string) Builder[T] {
	b := New[T]()
	b.cfg.name = name
	return b
}

// Name sets the instrumentation identity.
func (b Builder[T]) Name(name string) Builder[T] {
	b.cfg.name = name
	return b
}

// Backend routes this operator's lines to the given back-end instead of
// the package default.
func (b Builder[T]) Backend(backend observability.Backend) Builder[T] {
	b.cfg.backend = backend
	return b
}

// ----------------------------- Event selection -----------------------------

// OnNext enables or disables value logging. The call also appends a kind
// filter to the stage chain, so its position relative to counting and
// sampling stages is significant.
func (b Builder[T]) OnNext(enabled bool) Builder[T] {
	b.cfg.logNext = enabled
	b.cfg.chain = b.cfg.chain.Append(stage.FilterKind[T](event.KindNext, enabled))
	return b
}

// OnError enables or disables terminal-error logging. The call also
// appends a kind filter to the stage chain.
func (b Builder[T]) OnError(enabled bool) Builder[T] {
	b.cfg.logError = enabled
	b.cfg.chain = b.cfg.chain.Append(stage.FilterKind[T](event.KindError, enabled))
	return b
}

// ----------------------------- Severity ------------------------------------

// OnNextLevel sets the severity of value lines.
func (b Builder[T]) OnNextLevel(level observability.Level) Builder[T] {
	b.cfg.nextLevel = level
	return b
}

// OnErrorLevel sets the severity of terminal-error lines.
func (b Builder[T]) OnErrorLevel(level observability.Level) Builder[T] {
	b.cfg.errorLevel = level
	return b
}

// OnCompletedLevel sets the severity of completion lines.
func (b Builder[T]) OnCompletedLevel(level observability.Level) Builder[T] {
	b.cfg.completedLevel = level
	return b
}

// SubscribedLevel sets the severity of the subscribe line.
func (b Builder[T]) SubscribedLevel(level observability.Level) Builder[T] {
	b.cfg.subscribedLevel = level
	return b
}

// UnsubscribedLevel sets the severity of the unsubscribe line.
func (b Builder[T]) UnsubscribedLevel(level observability.Level) Builder[T] {
	b.cfg.unsubscribedLevel = level
	return b
}

// ----------------------------- Lifecycle text ------------------------------

// CompletedMessage sets the completion line text. An empty message
// suppresses completion lines entirely.
func (b Builder[T]) CompletedMessage(msg string) Builder[T] {
	b.cfg.completedMessage = msg
	return b
}

// SubscribedMessage sets the subscribe line text. An empty message
// suppresses the line.
func (b Builder[T]) SubscribedMessage(msg string) Builder[T] {
	b.cfg.subscribedMessage = msg
	return b
}

// UnsubscribedMessage sets the unsubscribe line text. An empty message
// suppresses the line.
func (b Builder[T]) UnsubscribedMessage(msg string) Builder[T] {
	b.cfg.unsubscribedMessage = msg
	return b
}

// ----------------------------- Value rendering -----------------------------

// OnNextFormat sets the value template. The rendered value substitutes the
// template's %s verb; an empty template logs value lines with only their
// annotations.
func (b Builder[T]) OnNextFormat(format string) Builder[T] {
	b.cfg.nextFormat = format
	return b
}

// OnNextPrefix renders values as prefix followed by the value text.
func (b Builder[T]) OnNextPrefix(prefix string) Builder[T] {
	b.cfg.nextFormat = prefix + "%s"
	return b
}

// OnErrorFormat sets the terminal-error template, applied to the error's
// text.
func (b Builder[T]) OnErrorFormat(format string) Builder[T] {
	b.cfg.errorFormat = format
	return b
}

// OnErrorPrefix renders errors as prefix followed by the error text.
func (b Builder[T]) OnErrorPrefix(prefix string) Builder[T] {
	b.cfg.errorFormat = prefix + "%s"
	return b
}

// Prefix sets both the value and error prefixes at once.
func (b Builder[T]) Prefix(prefix string) Builder[T] {
	return b.OnNextPrefix(prefix).OnErrorPrefix(prefix)
}

// ShowValue renders the bare value on value lines. It only takes effect
// when no template has been set.
func (b Builder[T]) ShowValue() Builder[T] {
	if b.cfg.nextFormat == "" {
		b.cfg.nextFormat = "%s"
	}
	return b
}

// ExcludeValue clears the value template, logging value lines with only
// their annotations.
func (b Builder[T]) ExcludeValue() Builder[T] {
	b.cfg.nextFormat = ""
	return b
}

// Value sets a projection applied to values before rendering. The
// projection runs only for lines that are actually logged.
func (b Builder[T]) Value(project func(T) any) Builder[T] {
	b.cfg.project = project
	return b
}

// ----------------------------- Stages --------------------------------------

// ShowCount annotates logged messages with a running "count=<n>" of values
// seen, counted per subscription at this point of the chain.
func (b Builder[T]) ShowCount() Builder[T] {
	return b.ShowCountAs("count")
}

// ShowCountAs is ShowCount with a custom label.
func (b Builder[T]) ShowCountAs(label string) Builder[T] {
	b.cfg.chain = b.cfg.chain.Append(stage.Count[T](label))
	return b
}

// Every keeps only every n-th value message, counted at this point of the
// chain. Values of one or less leave the chain unchanged.
func (b Builder[T]) Every(n int) Builder[T] {
	if n <= 1 {
		return b
	}
	b.cfg.chain = b.cfg.chain.Append(stage.Sample[T](n))
	return b
}

// When keeps value messages only while pred reports true for their value.
func (b Builder[T]) When(pred func(T) bool) Builder[T] {
	b.cfg.chain = b.cfg.chain.Append(stage.When(pred))
	return b
}

// Start drops value messages before the k-th source emission of the
// subscription.
func (b Builder[T]) Start(k int64) Builder[T] {
	b.cfg.chain = b.cfg.chain.Append(stage.StartAt[T](k))
	return b
}

// Finish drops value messages after the k-th source emission of the
// subscription.
func (b Builder[T]) Finish(k int64) Builder[T] {
	b.cfg.chain = b.cfg.chain.Append(stage.FinishAt[T](k))
	return b
}

// To replaces the chain assembled so far with f applied to it. It is the
// escape hatch for instrumentation behavior the built-in stages cannot
// express.
func (b Builder[T]) To(f func(stage.Transform[T]) stage.Transform[T]) Builder[T] {
	b.cfg.chain = b.cfg.chain.Append(stage.Inject(f))
	return b
}

// Stage appends a custom stage descriptor to the chain.
func (b Builder[T]) Stage(s stage.Stage[T]) Builder[T] {
	b.cfg.chain = b.cfg.chain.Append(s)
	return b
}

// ----------------------------- Extras --------------------------------------

// ShowStackTrace appends a call-stack dump to every logged line, captured
// at render time.
func (b Builder[T]) ShowStackTrace() Builder[T] {
	b.cfg.showStack = true
	return b
}

// ShowMemory appends a heap usage fragment to every logged line, sampled
// at render time.
func (b Builder[T]) ShowMemory() Builder[T] {
	b.cfg.showMemory = true
	return b
}

// ShowSubscriptionID annotates every line of a subscription, including the
// subscribe and unsubscribe lines, with a short identifier unique to that
// subscription.
func (b Builder[T]) ShowSubscriptionID() Builder[T] {
	b.cfg.showSubID = true
	return b
}

// StackProbe overrides how ShowStackTrace captures the call stack.
func (b Builder[T]) StackProbe(probe func() string) Builder[T] {
	b.cfg.stackProbe = probe
	return b
}

// MemoryProbe overrides how ShowMemory samples memory usage.
func (b Builder[T]) MemoryProbe(probe func() observability.MemorySample) Builder[T] {
	b.cfg.memoryProbe = probe
	return b
}

// ----------------------------- Freezing ------------------------------------

// Log freezes the profile into an operator. The back-end defaults to the
// package default at this moment; later SetDefault calls do not retarget
// operators already built.
func (b Builder[T]) Log() *Operator[T] {
	cfg := b.cfg
	if cfg.backend == nil {
		cfg.backend = observability.Default()
	}
	if cfg.stackProbe == nil {
		cfg.stackProbe = observability.CaptureStack
	}
	if cfg.memoryProbe == nil {
		cfg.memoryProbe = observability.SampleMemory
	}
	return &Operator[T]{cfg: cfg}
}
