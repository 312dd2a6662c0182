package source

import "sync"

// Emitter is a hot source that multicasts pushed events to its current
// subscribers. It is the programmatic entry point for feeding a stream by
// hand: tests, adapters, and bridges push with Next, Fail, and Complete.
//
// Events are delivered to subscribers in subscription order, and emissions
// are serialized, so each subscriber observes a sequential stream. The
// first terminal latches: later pushes are dropped, and subscribers that
// arrive after the terminal receive it immediately upon subscribing.
//
// Callbacks may unsubscribe their own subscription re-entrantly. Pushing
// new events from inside a callback is not supported.
type Emitter[T any] struct {
	emitMu sync.Mutex // serializes delivery
	mu     sync.Mutex // guards registry and terminal state

	subs   []emitterSub[T]
	nextID int64

	done   bool
	failed bool
	err    error
}

type emitterSub[T any] struct {
	id  int64
	sub Subscriber[T]
}

// NewEmitter creates an emitter with no subscribers.
func NewEmitter[T any]() *Emitter[T] {
	return &Emitter[T]{}
}

// Subscribe attaches sub. If the emitter has already terminated, sub
// receives the terminal event immediately and the returned subscription is
// already spent.
func (e *Emitter[T]) Subscribe(sub Subscriber[T]) (Subscription, error) {
	if sub == nil {
		return nil, ErrNilSubscriber
	}

	e.mu.Lock()
	if e.done {
		failed, err := e.failed, e.err
		e.mu.Unlock()
		if failed {
			sub.OnError(err)
		} else {
			sub.OnCompleted()
		}
		return &subscription{}, nil
	}
	e.nextID++
	id := e.nextID
	e.subs = append(e.subs, emitterSub[T]{id: id, sub: sub})
	e.mu.Unlock()

	return NewSubscription(func() error {
		e.remove(id)
		return nil
	}), nil
}

// Next multicasts a value to the current subscribers. Values pushed after
// a terminal event are dropped.
func (e *Emitter[T]) Next(v T) {
	e.emitMu.Lock()
	defer e.emitMu.Unlock()
	for _, s := range e.snapshot() {
		s.sub.OnNext(v)
	}
}

// Fail terminates the stream with err. Only the first terminal takes
// effect.
func (e *Emitter[T]) Fail(err error) {
	e.emitMu.Lock()
	defer e.emitMu.Unlock()
	for _, s := range e.latch(true, err) {
		s.sub.OnError(err)
	}
}

// Complete terminates the stream successfully. Only the first terminal
// takes effect.
func (e *Emitter[T]) Complete() {
	e.emitMu.Lock()
	defer e.emitMu.Unlock()
	for _, s := range e.latch(false, nil) {
		s.sub.OnCompleted()
	}
}

// SubscriberCount returns the number of active subscribers.
func (e *Emitter[T]) SubscriberCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.subs)
}

// snapshot copies the registry so delivery runs without holding mu and a
// callback can unsubscribe mid-dispatch. A terminated emitter snapshots
// empty.
func (e *Emitter[T]) snapshot() []emitterSub[T] {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.done {
		return nil
	}
	out := make([]emitterSub[T], len(e.subs))
	copy(out, e.subs)
	return out
}

// latch records the terminal state and detaches every subscriber,
// returning those that should receive the terminal event. It returns nil
// when a terminal already latched.
func (e *Emitter[T]) latch(failed bool, err error) []emitterSub[T] {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.done {
		return nil
	}
	e.done = true
	e.failed = failed
	e.err = err
	out := e.subs
	e.subs = nil
	return out
}

func (e *Emitter[T]) remove(id int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, s := range e.subs {
		if s.id == id {
			e.subs = append(e.subs[:i:i], e.subs[i+1:]...)
			return
		}
	}
}
