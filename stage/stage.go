// Package stage provides the composable transformations an instrumentation
// pipeline applies to messages on their way to the logging sink.
//
// A Stage is an immutable, reusable descriptor. Materializing a stage
// allocates whatever private state its transform needs (counters, gates)
// and returns the transform closed over that state, so every materialized
// pipeline counts and filters independently of its siblings.
package stage

import (
	"fmt"
	"sync/atomic"

	"github.com/a2y-d5l/go-tap/event"
)

// Transform processes one message: it returns the possibly annotated
// message and whether it survives to the next stage.
type Transform[T any] func(event.Message[T]) (event.Message[T], bool)

// Stage describes one step of an instrumentation pipeline.
type Stage[T any] interface {
	// Materialize allocates fresh per-pipeline state and returns the
	// transform closed over it.
	Materialize() Transform[T]
}

// New creates a stage from a factory. The factory runs once per
// materialization, allocating any state the returned transform closes over.
func New[T any](factory func() Transform[T]) Stage[T] {
	return funcStage[T]{factory: factory}
}

type funcStage[T any] struct {
	factory func() Transform[T]
}

func (s funcStage[T]) Materialize() Transform[T] {
	return s.factory()
}

// Passthrough returns a transform that keeps every message unchanged.
func Passthrough[T any]() Transform[T] {
	return func(m event.Message[T]) (event.Message[T], bool) {
		return m, true
	}
}

// FilterKind returns a stage that keeps or drops messages of the given
// kind according to enabled. Messages of every other kind pass untouched.
func FilterKind[T any](kind event.Kind, enabled bool) Stage[T] {
	return New[T](func() Transform[T] {
		return func(m event.Message[T]) (event.Message[T], bool) {
			if m.Kind() == kind {
				return m, enabled
			}
			return m, true
		}
	})
}

// Count returns a stage that counts value messages and annotates every
// surviving message with "<label>=<count>". Terminal messages carry the
// count of values seen before them without advancing it.
func Count[T any](label string) Stage[T] {
	return New[T](func() Transform[T] {
		var count atomic.Int64
		return func(m event.Message[T]) (event.Message[T], bool) {
			n := count.Load()
			if m.Kind() == event.KindNext {
				n = count.Add(1)
			}
			return m.Append(fmt.Sprintf("%s=%d", label, n)), true
		}
	})
}

// Sample returns a stage that keeps every n-th value message as counted at
// this stage (the n-th, 2n-th, and so on) and drops the rest. Terminal
// messages always pass. When n <= 1 the stage is a passthrough.
func Sample[T any](n int) Stage[T] {
	return New[T](func() Transform[T] {
		if n <= 1 {
			return Passthrough[T]()
		}
		var count atomic.Int64
		return func(m event.Message[T]) (event.Message[T], bool) {
			if m.Kind() != event.KindNext {
				return m, true
			}
			return m, count.Add(1)%int64(n) == 0
		}
	})
}

// When returns a stage that keeps a value message only when pred reports
// true for its value. Terminal messages always pass.
func When[T any](pred func(T) bool) Stage[T] {
	return New[T](func() Transform[T] {
		return func(m event.Message[T]) (event.Message[T], bool) {
			if m.Kind() != event.KindNext {
				return m, true
			}
			return m, pred(m.Notification().Value())
		}
	})
}

// StartAt returns a stage that drops value messages until the k-th source
// emission, counted from the start of the subscription. Terminal messages
// always pass.
func StartAt[T any](k int64) Stage[T] {
	return New[T](func() Transform[T] {
		return func(m event.Message[T]) (event.Message[T], bool) {
			if m.Kind() != event.KindNext {
				return m, true
			}
			return m, m.Seq() >= k
		}
	})
}

// FinishAt returns a stage that drops value messages after the k-th source
// emission, counted from the start of the subscription. Terminal messages
// always pass.
func FinishAt[T any](k int64) Stage[T] {
	return New[T](func() Transform[T] {
		return func(m event.Message[T]) (event.Message[T], bool) {
			if m.Kind() != event.KindNext {
				return m, true
			}
			return m, m.Seq() <= k
		}
	})
}

// Annotate returns a stage that applies f to every message and keeps it.
func Annotate[T any](f func(event.Message[T]) event.Message[T]) Stage[T] {
	return New[T](func() Transform[T] {
		return func(m event.Message[T]) (event.Message[T], bool) {
			return f(m), true
		}
	})
}

// Inject returns a stage that replaces the transform composed from every
// preceding stage with f applied to it. It is an escape hatch for
// behavior the built-in stages cannot express; f is not validated.
func Inject[T any](f func(Transform[T]) Transform[T]) Stage[T] {
	return injection[T]{f: f}
}

type injection[T any] struct {
	f func(Transform[T]) Transform[T]
}

func (s injection[T]) Materialize() Transform[T] {
	return s.f(Passthrough[T]())
}
