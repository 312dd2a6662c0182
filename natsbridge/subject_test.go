package natsbridge_test

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tap "github.com/a2y-d5l/go-tap"
	"github.com/a2y-d5l/go-tap/natsbridge"
	"github.com/a2y-d5l/go-tap/observability"
	"github.com/a2y-d5l/go-tap/source"
)

const (
	waitFor = 3 * time.Second
	tick    = 10 * time.Millisecond
)

// --------------------- Test Helpers ---------------------

func startBridge(t *testing.T) *natsbridge.Embedded {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	bridge, err := natsbridge.StartEmbedded(ctx)
	require.NoError(t, err)

	t.Cleanup(func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := bridge.Close(closeCtx); err != nil {
			t.Logf("bridge close: %v", err)
		}
	})
	return bridge
}

// recorder collects stream deliveries across goroutines.
type recorder[T any] struct {
	mu        sync.Mutex
	values    []T
	errs      []error
	completed int
}

func (r *recorder[T]) OnNext(v T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values = append(r.values, v)
}

func (r *recorder[T]) OnError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

func (r *recorder[T]) OnCompleted() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completed++
}

func (r *recorder[T]) Values() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]T, len(r.values))
	copy(out, r.values)
	return out
}

func (r *recorder[T]) Errs() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]error, len(r.errs))
	copy(out, r.errs)
	return out
}

func (r *recorder[T]) Completions() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.completed
}

// --------------------- Delivery Tests ---------------------

func TestSubject_DeliversDecodedValues(t *testing.T) {
	bridge := startBridge(t)
	nc := bridge.Conn()

	down := &recorder[order]{}
	sub, err := natsbridge.Subject[order](nc, "orders.created").Subscribe(down)
	require.NoError(t, err)
	defer func() { _ = sub.Unsubscribe() }()

	want := []order{
		{ID: 1, Symbol: "ACME", Price: 10},
		{ID: 2, Symbol: "GLOBEX", Price: 20},
		{ID: 3, Symbol: "INITECH", Price: 30},
	}
	for _, o := range want {
		require.NoError(t, natsbridge.Publish(nc, "orders.created", o))
	}

	require.Eventually(t, func() bool { return len(down.Values()) == len(want) }, waitFor, tick)
	assert.Equal(t, want, down.Values())
	assert.Empty(t, down.Errs())
	assert.Zero(t, down.Completions())
}

func TestSubject_WithCBOR(t *testing.T) {
	bridge := startBridge(t)
	nc := bridge.Conn()

	down := &recorder[order]{}
	src := natsbridge.Subject[order](nc, "orders.cbor", natsbridge.WithCodec(natsbridge.CBORCodec))
	sub, err := src.Subscribe(down)
	require.NoError(t, err)
	defer func() { _ = sub.Unsubscribe() }()

	want := order{ID: 9, Symbol: "HOOLI", Price: 123.25}
	require.NoError(t, natsbridge.Publish(nc, "orders.cbor", want, natsbridge.WithCodec(natsbridge.CBORCodec)))

	require.Eventually(t, func() bool { return len(down.Values()) == 1 }, waitFor, tick)
	assert.Equal(t, want, down.Values()[0])
}

func TestSubject_WithLimit(t *testing.T) {
	bridge := startBridge(t)
	nc := bridge.Conn()

	down := &recorder[int]{}
	src := natsbridge.Subject[int](nc, "numbers", natsbridge.WithLimit(2))
	_, err := src.Subscribe(down)
	require.NoError(t, err)

	for i := 1; i <= 5; i++ {
		require.NoError(t, natsbridge.Publish(nc, "numbers", i))
	}

	require.Eventually(t, func() bool { return down.Completions() == 1 }, waitFor, tick)
	assert.Equal(t, []int{1, 2}, down.Values())
}

func TestSubject_DecodeFailureTerminates(t *testing.T) {
	bridge := startBridge(t)
	nc := bridge.Conn()

	down := &recorder[order]{}
	_, err := natsbridge.Subject[order](nc, "orders.raw").Subscribe(down)
	require.NoError(t, err)

	require.NoError(t, nc.Publish("orders.raw", []byte("not json")))

	require.Eventually(t, func() bool { return len(down.Errs()) == 1 }, waitFor, tick)
	assert.ErrorContains(t, down.Errs()[0], "decode orders.raw")

	// The stream is over; later messages are not delivered.
	require.NoError(t, natsbridge.Publish(nc, "orders.raw", order{ID: 1}))
	assert.Never(t, func() bool { return len(down.Values()) > 0 }, 300*time.Millisecond, tick)
	assert.Zero(t, down.Completions())
}

func TestSubject_QueueGroupSplitsDelivery(t *testing.T) {
	bridge := startBridge(t)
	nc := bridge.Conn()

	a := &recorder[int]{}
	b := &recorder[int]{}
	srcA := natsbridge.Subject[int](nc, "work", natsbridge.WithQueueGroup("workers"))
	srcB := natsbridge.Subject[int](nc, "work", natsbridge.WithQueueGroup("workers"))

	subA, err := srcA.Subscribe(a)
	require.NoError(t, err)
	defer func() { _ = subA.Unsubscribe() }()
	subB, err := srcB.Subscribe(b)
	require.NoError(t, err)
	defer func() { _ = subB.Unsubscribe() }()

	const n = 20
	for i := 0; i < n; i++ {
		require.NoError(t, natsbridge.Publish(nc, "work", i))
	}

	require.Eventually(t, func() bool { return len(a.Values())+len(b.Values()) == n }, waitFor, tick)

	// Queue-group members split the messages without overlap.
	got := append(a.Values(), b.Values()...)
	sort.Ints(got)
	want := make([]int, n)
	for i := range want {
		want[i] = i
	}
	assert.Equal(t, want, got)
}

func TestSubject_Unsubscribe(t *testing.T) {
	bridge := startBridge(t)
	nc := bridge.Conn()

	down := &recorder[int]{}
	sub, err := natsbridge.Subject[int](nc, "ticks").Subscribe(down)
	require.NoError(t, err)

	require.NoError(t, natsbridge.Publish(nc, "ticks", 1))
	require.Eventually(t, func() bool { return len(down.Values()) == 1 }, waitFor, tick)

	require.NoError(t, sub.Unsubscribe())
	require.NoError(t, natsbridge.Publish(nc, "ticks", 2))
	assert.Never(t, func() bool { return len(down.Values()) > 1 }, 300*time.Millisecond, tick)
}

// --------------------- Validation Tests ---------------------

func TestSubject_InvalidArguments(t *testing.T) {
	bridge := startBridge(t)
	nc := bridge.Conn()

	t.Run("malformed subject", func(t *testing.T) {
		_, err := natsbridge.Subject[int](nc, "orders..created").Subscribe(&recorder[int]{})
		assert.ErrorIs(t, err, natsbridge.ErrInvalidSubject)
	})

	t.Run("nil subscriber", func(t *testing.T) {
		_, err := natsbridge.Subject[int](nc, "orders.created").Subscribe(nil)
		assert.ErrorIs(t, err, source.ErrNilSubscriber)
	})

	t.Run("publish rejects wildcards", func(t *testing.T) {
		err := natsbridge.Publish(nc, "orders.*", 1)
		assert.ErrorIs(t, err, natsbridge.ErrInvalidSubject)
	})

	t.Run("publish rejects unencodable values", func(t *testing.T) {
		err := natsbridge.Publish(nc, "orders.created", func() {})
		assert.ErrorContains(t, err, "encode")
	})
}

// --------------------- End To End Tests ---------------------

func TestSubject_TappedEndToEnd(t *testing.T) {
	bridge := startBridge(t)
	nc := bridge.Conn()

	rec := observability.NewRecorder()
	op := tap.Named[order]("orders").
		ShowValue().
		ShowCount().
		Value(func(o order) any { return o.Symbol }).
		Backend(rec).
		Log()

	down := &recorder[order]{}
	src := natsbridge.Subject[order](nc, "orders.live", natsbridge.WithLimit(2))
	_, err := op.Wrap(src).Subscribe(down)
	require.NoError(t, err)

	require.NoError(t, natsbridge.Publish(nc, "orders.live", order{ID: 1, Symbol: "ACME"}))
	require.NoError(t, natsbridge.Publish(nc, "orders.live", order{ID: 2, Symbol: "GLOBEX"}))

	require.Eventually(t, func() bool { return rec.Len() == 5 }, waitFor, tick)
	require.Len(t, down.Values(), 2)
	assert.Equal(t, 1, down.Completions())

	assert.Equal(t, []string{
		"onSubscribe",
		"ACME, count=1",
		"GLOBEX, count=2",
		"onCompleted, count=2",
		"onUnsubscribe",
	}, textsOf(rec))
}

func textsOf(rec *observability.Recorder) []string {
	entries := rec.Entries()
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Text)
	}
	return out
}
