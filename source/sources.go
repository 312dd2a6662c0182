package source

// From returns a cold source that emits vs in order and then completes.
// Emission happens synchronously during Subscribe, so the terminal event
// has already been delivered by the time Subscribe returns.
func From[T any](vs ...T) Source[T] {
	return Func[T](func(sub Subscriber[T]) (Subscription, error) {
		if sub == nil {
			return nil, ErrNilSubscriber
		}
		s := &subscription{}
		for _, v := range vs {
			if s.unsubscribed() {
				return s, nil
			}
			sub.OnNext(v)
		}
		if !s.unsubscribed() {
			sub.OnCompleted()
		}
		return s, nil
	})
}

// Just returns a cold source that emits a single value and completes.
func Just[T any](v T) Source[T] {
	return From(v)
}

// Empty returns a source that completes immediately without emitting.
func Empty[T any]() Source[T] {
	return From[T]()
}

// Failed returns a source that terminates every subscription immediately
// with err.
func Failed[T any](err error) Source[T] {
	return Func[T](func(sub Subscriber[T]) (Subscription, error) {
		if sub == nil {
			return nil, ErrNilSubscriber
		}
		sub.OnError(err)
		return &subscription{}, nil
	})
}

// FromChannel returns a source that pumps values from ch until the channel
// closes, then completes. Each subscription runs its own pump goroutine,
// so concurrent subscriptions compete for the channel's values rather than
// each receiving all of them; use an Emitter for multicast.
//
// Unsubscribing stops the pump without draining the channel.
func FromChannel[T any](ch <-chan T) Source[T] {
	return Func[T](func(sub Subscriber[T]) (Subscription, error) {
		if sub == nil {
			return nil, ErrNilSubscriber
		}
		stop := make(chan struct{})
		go func() {
			for {
				select {
				case <-stop:
					return
				case v, ok := <-ch:
					if !ok {
						sub.OnCompleted()
						return
					}
					sub.OnNext(v)
				}
			}
		}()
		return NewSubscription(func() error {
			close(stop)
			return nil
		}), nil
	})
}
