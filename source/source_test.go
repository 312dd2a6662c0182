package source

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingSubscriber captures everything delivered to it.
type recordingSubscriber[T any] struct {
	mu        sync.Mutex
	values    []T
	errs      []error
	completed int
}

func (r *recordingSubscriber[T]) OnNext(v T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values = append(r.values, v)
}

func (r *recordingSubscriber[T]) OnError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

func (r *recordingSubscriber[T]) OnCompleted() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completed++
}

func (r *recordingSubscriber[T]) Values() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]T, len(r.values))
	copy(out, r.values)
	return out
}

func (r *recordingSubscriber[T]) Errs() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]error, len(r.errs))
	copy(out, r.errs)
	return out
}

func (r *recordingSubscriber[T]) Completions() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.completed
}

// --------------------- Callbacks Tests ---------------------

func TestCallbacks(t *testing.T) {
	t.Run("nil callbacks are ignored", func(t *testing.T) {
		var c Callbacks[int]

		assert.NotPanics(t, func() {
			c.OnNext(1)
			c.OnError(errors.New("boom"))
			c.OnCompleted()
		})
	})

	t.Run("set callbacks are invoked", func(t *testing.T) {
		var gotValue int
		var gotErr error
		var completed bool

		c := Callbacks[int]{
			Next:      func(v int) { gotValue = v },
			Error:     func(err error) { gotErr = err },
			Completed: func() { completed = true },
		}

		c.OnNext(42)
		c.OnError(errors.New("boom"))
		c.OnCompleted()

		assert.Equal(t, 42, gotValue)
		assert.EqualError(t, gotErr, "boom")
		assert.True(t, completed)
	})
}

// --------------------- Func Tests ---------------------

func TestFunc_Subscribe(t *testing.T) {
	called := false
	src := Func[int](func(sub Subscriber[int]) (Subscription, error) {
		called = true
		sub.OnCompleted()
		return NewSubscription(nil), nil
	})

	rec := &recordingSubscriber[int]{}
	_, err := src.Subscribe(rec)

	require.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, 1, rec.Completions())
}

// --------------------- Subscription Tests ---------------------

func TestNewSubscription(t *testing.T) {
	t.Run("stop runs exactly once", func(t *testing.T) {
		stops := 0
		s := NewSubscription(func() error {
			stops++
			return nil
		})

		require.NoError(t, s.Unsubscribe())
		require.NoError(t, s.Unsubscribe())
		assert.Equal(t, 1, stops)
	})

	t.Run("stop error reaches only the first caller", func(t *testing.T) {
		boom := errors.New("boom")
		s := NewSubscription(func() error { return boom })

		assert.ErrorIs(t, s.Unsubscribe(), boom)
		assert.NoError(t, s.Unsubscribe())
	})

	t.Run("nil stop is safe", func(t *testing.T) {
		s := NewSubscription(nil)
		assert.NoError(t, s.Unsubscribe())
	})

	t.Run("concurrent unsubscribe runs stop once", func(t *testing.T) {
		var mu sync.Mutex
		stops := 0
		s := NewSubscription(func() error {
			mu.Lock()
			defer mu.Unlock()
			stops++
			return nil
		})

		var wg sync.WaitGroup
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_ = s.Unsubscribe()
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, stops)
	})
}
