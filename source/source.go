// Package source defines the push-stream contract that tap operators
// decorate, together with building-block sources for composing and testing
// instrumented streams.
//
// A Source delivers events to each Subscriber sequentially: for one
// subscription, callbacks never overlap. Events may originate from any
// goroutine. After a terminal callback (OnError or OnCompleted) a
// well-behaved source delivers nothing further on that subscription.
package source

import (
	"errors"
	"sync/atomic"
)

// Sentinel errors
var (
	// ErrNilSubscriber is returned by Subscribe when given a nil subscriber.
	ErrNilSubscriber = errors.New("source: nil subscriber")
	// ErrNilSource is returned when an operation requires a source and none
	// was provided.
	ErrNilSource = errors.New("source: nil source")
)

// Subscriber receives the events of one subscription.
type Subscriber[T any] interface {
	// OnNext delivers a value.
	OnNext(value T)
	// OnError delivers a terminal failure. No events follow.
	OnError(err error)
	// OnCompleted signals a terminal success. No events follow.
	OnCompleted()
}

// Subscription controls one active subscription.
type Subscription interface {
	// Unsubscribe detaches the subscriber from the source. It is
	// idempotent; calls after the first return nil without effect.
	Unsubscribe() error
}

// Source is an asynchronous push stream of values of type T.
type Source[T any] interface {
	// Subscribe attaches sub and returns the controlling subscription.
	// Synchronous sources may deliver every event, including the terminal
	// one, before Subscribe returns.
	Subscribe(sub Subscriber[T]) (Subscription, error)
}

// Func adapts a function to the Source interface.
type Func[T any] func(sub Subscriber[T]) (Subscription, error)

// Subscribe calls f.
func (f Func[T]) Subscribe(sub Subscriber[T]) (Subscription, error) {
	return f(sub)
}

// Callbacks adapts plain functions to the Subscriber interface. Nil
// functions are ignored.
type Callbacks[T any] struct {
	Next      func(value T)
	Error     func(err error)
	Completed func()
}

// OnNext calls the Next callback when set.
func (c Callbacks[T]) OnNext(value T) {
	if c.Next != nil {
		c.Next(value)
	}
}

// OnError calls the Error callback when set.
func (c Callbacks[T]) OnError(err error) {
	if c.Error != nil {
		c.Error(err)
	}
}

// OnCompleted calls the Completed callback when set.
func (c Callbacks[T]) OnCompleted() {
	if c.Completed != nil {
		c.Completed()
	}
}

// NewSubscription wraps stop in a Subscription that runs it at most once.
// A nil stop yields a subscription that only tracks its detached state.
func NewSubscription(stop func() error) Subscription {
	return &subscription{stop: stop}
}

// subscription is the CAS-guarded Subscription used by the sources in this
// package.
type subscription struct {
	done atomic.Bool
	stop func() error
}

func (s *subscription) Unsubscribe() error {
	if !s.done.CompareAndSwap(false, true) {
		return nil
	}
	if s.stop == nil {
		return nil
	}
	return s.stop()
}

func (s *subscription) unsubscribed() bool {
	return s.done.Load()
}
