package observability

import (
	"context"
	"sync/atomic"
)

// OverflowPolicy selects what Async does with a new line when its queue is
// full.
type OverflowPolicy int

const (
	// OverflowBlock blocks the emitter until the queue has room.
	OverflowBlock OverflowPolicy = iota
	// OverflowDropNewest drops the incoming line.
	OverflowDropNewest
	// OverflowDropOldest evicts the oldest queued line to make room.
	OverflowDropOldest
)

// Async decorates another back-end with a bounded queue and a single
// worker goroutine, so a slow sink never stalls the emitting stream.
// Lines reach the wrapped back-end in emission order.
type Async struct {
	next    Backend
	queue   chan Entry
	policy  OverflowPolicy
	dropped atomic.Int64
	closed  atomic.Bool
	stop    chan struct{}
	done    chan struct{}
}

// NewAsync creates an asynchronous decorator around next and starts its
// worker. A queueSize of zero or less falls back to 1024.
func NewAsync(next Backend, queueSize int, policy OverflowPolicy) *Async {
	if queueSize <= 0 {
		queueSize = 1024
	}
	a := &Async{
		next:   next,
		queue:  make(chan Entry, queueSize),
		policy: policy,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go a.run()
	return a
}

// Emit enqueues the line for the worker, applying the overflow policy when
// the queue is full. Lines emitted after Close are counted as dropped.
func (a *Async) Emit(name string, level Level, text string, err error) {
	if a.closed.Load() {
		a.dropped.Add(1)
		return
	}
	e := Entry{Name: name, Level: level, Text: text, Err: err}
	switch a.policy {
	case OverflowDropNewest:
		select {
		case a.queue <- e:
		default:
			a.dropped.Add(1)
		}
	case OverflowDropOldest:
		select {
		case a.queue <- e:
		default:
			select {
			case <-a.queue:
				a.dropped.Add(1)
			default:
			}
			select {
			case a.queue <- e:
			case <-a.stop:
				a.dropped.Add(1)
			}
		}
	default:
		select {
		case a.queue <- e:
		case <-a.stop:
			a.dropped.Add(1)
		}
	}
}

// Dropped returns how many lines have been discarded so far, whether by
// overflow, by a panicking sink, or by emission after Close.
func (a *Async) Dropped() int64 {
	return a.dropped.Load()
}

// Close stops the worker after draining queued lines. It returns early
// with the context's error if draining outlives the context. Close is
// idempotent.
func (a *Async) Close(ctx context.Context) error {
	if !a.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(a.stop)
	select {
	case <-a.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *Async) run() {
	defer close(a.done)
	for {
		select {
		case e := <-a.queue:
			a.deliver(e)
		case <-a.stop:
			for {
				select {
				case e := <-a.queue:
					a.deliver(e)
				default:
					return
				}
			}
		}
	}
}

// deliver hands one line to the wrapped back-end with panic recovery, so a
// misbehaving sink cannot kill the worker.
func (a *Async) deliver(e Entry) {
	defer func() {
		if r := recover(); r != nil {
			a.dropped.Add(1)
		}
	}()
	a.next.Emit(e.Name, e.Level, e.Text, e.Err)
}
