package stage

import (
	"sync/atomic"

	"github.com/a2y-d5l/go-tap/event"
)

// Chain is an ordered list of stage descriptors. Chains are assembled once
// by a configuration builder and shared by every subscription of an
// operator; each materialization produces an independent pipeline.
type Chain[T any] []Stage[T]

// Append returns a new chain with s added, leaving the receiver unchanged.
func (c Chain[T]) Append(s Stage[T]) Chain[T] {
	next := make(Chain[T], len(c), len(c)+1)
	copy(next, c)
	return append(next, s)
}

// Materialize composes the chain left to right into a pipeline with fresh
// stage state.
func (c Chain[T]) Materialize() *Pipeline[T] {
	t := Passthrough[T]()
	for _, s := range c {
		if inj, ok := s.(injection[T]); ok {
			t = inj.f(t)
			continue
		}
		t = compose(t, s.Materialize())
	}
	return &Pipeline[T]{transform: t}
}

// compose runs a then b, short-circuiting when a drops the message.
func compose[T any](a, b Transform[T]) Transform[T] {
	return func(m event.Message[T]) (event.Message[T], bool) {
		m, ok := a(m)
		if !ok {
			return m, false
		}
		return b(m)
	}
}

// Pipeline is a materialized chain bound to a single subscription. It
// stamps each message with the subscription's source ordinal before
// running the stage transforms.
type Pipeline[T any] struct {
	transform Transform[T]
	seq       atomic.Int64
}

// Process runs one message through the pipeline. Value messages advance
// the source ordinal; terminal messages carry the ordinal of the last
// value seen. The returned bool reports whether the message survived
// every stage.
func (p *Pipeline[T]) Process(m event.Message[T]) (event.Message[T], bool) {
	if m.Kind() == event.KindNext {
		m = m.WithSeq(p.seq.Add(1))
	} else {
		m = m.WithSeq(p.seq.Load())
	}
	return p.transform(m)
}
