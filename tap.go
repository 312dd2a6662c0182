package tap

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/a2y-d5l/go-tap/event"
	"github.com/a2y-d5l/go-tap/observability"
	"github.com/a2y-d5l/go-tap/source"
	"github.com/a2y-d5l/go-tap/stage"
)

// ----------------------------- Operator ------------------------------------

// Operator is a frozen instrumentation profile that decorates sources. One
// operator serves any number of sources and subscriptions; every
// subscription gets its own stage state, so counters and gates never leak
// between consumers.
type Operator[T any] struct {
	cfg Config[T]
}

// Config returns the operator's frozen configuration.
func (o *Operator[T]) Config() Config[T] {
	return o.cfg
}

// Wrap returns a source that behaves exactly like src toward its
// subscribers and additionally logs the lifecycle of every subscription.
func (o *Operator[T]) Wrap(src source.Source[T]) source.Source[T] {
	return source.Func[T](func(sub source.Subscriber[T]) (source.Subscription, error) {
		return o.subscribe(src, sub)
	})
}

// Subscribe is shorthand for Wrap(src).Subscribe(sub).
func (o *Operator[T]) Subscribe(src source.Source[T], sub source.Subscriber[T]) (source.Subscription, error) {
	return o.subscribe(src, sub)
}

func (o *Operator[T]) subscribe(src source.Source[T], downstream source.Subscriber[T]) (source.Subscription, error) {
	if src == nil {
		return nil, source.ErrNilSource
	}
	if downstream == nil {
		return nil, source.ErrNilSubscriber
	}

	t := o.newTapped(downstream)

	// The subscribe line precedes every other line of the subscription,
	// even for sources that emit synchronously during Subscribe.
	t.logLifecycle(t.cfg.subscribedMessage, t.cfg.subscribedLevel)

	upstream, err := src.Subscribe(t)
	if err != nil {
		// Keep the lifecycle lines paired.
		_ = t.detach()
		return nil, err
	}
	t.bind(upstream)

	return source.NewSubscription(t.detach), nil
}

func (o *Operator[T]) newTapped(downstream source.Subscriber[T]) *tapped[T] {
	t := &tapped[T]{
		cfg:        &o.cfg,
		downstream: downstream,
		pipe:       o.cfg.materialize(),
	}
	if o.cfg.showSubID {
		t.subID = uuid.NewString()[:8]
	}
	return t
}

// ----------------------------- Tapped subscriber ----------------------------

// tapped is the per-subscription state machine. While attached it forwards
// every event to the real subscriber first and then mirrors it into the
// pipeline and sink. A terminal event or an unsubscribe detaches it; a
// detached tap neither forwards nor logs.
type tapped[T any] struct {
	cfg        *Config[T]
	downstream source.Subscriber[T]
	pipe       *stage.Pipeline[T]
	subID      string

	detached atomic.Bool

	mu            sync.Mutex
	upstream      source.Subscription
	releaseOnBind bool
}

func (t *tapped[T]) OnNext(v T) {
	if t.detached.Load() {
		return
	}
	t.downstream.OnNext(v)
	t.observe(event.Next(v))
}

func (t *tapped[T]) OnError(err error) {
	if t.detached.Load() {
		return
	}
	t.downstream.OnError(err)
	t.observe(event.Error[T](err))
	_ = t.detach()
}

func (t *tapped[T]) OnCompleted() {
	if t.detached.Load() {
		return
	}
	t.downstream.OnCompleted()
	t.observe(event.Completed[T]())
	_ = t.detach()
}

// observe mirrors one notification through the pipeline into the sink.
// Faults in stages, projections, templates, probes, or the back-end are
// contained here; the primary stream has already received the event.
func (t *tapped[T]) observe(n event.Notification[T]) {
	defer func() {
		if r := recover(); r != nil {
			t.reportFault(r)
		}
	}()

	m := event.NewMessage(n)
	if t.subID != "" {
		m = m.Append("sub=" + t.subID)
	}
	m, ok := t.pipe.Process(m)
	if !ok {
		return
	}
	t.cfg.write(m)
}

// detach transitions to the detached state exactly once: it logs the
// unsubscribe line and releases the upstream subscription.
func (t *tapped[T]) detach() error {
	if !t.detached.CompareAndSwap(false, true) {
		return nil
	}
	t.logLifecycle(t.cfg.unsubscribedMessage, t.cfg.unsubscribedLevel)

	t.mu.Lock()
	up := t.upstream
	if up == nil {
		t.releaseOnBind = true
	}
	t.mu.Unlock()

	if up != nil {
		return up.Unsubscribe()
	}
	return nil
}

// bind attaches the upstream subscription once Subscribe returns. A
// synchronous source may have terminated before handing it over; release
// it immediately in that case.
func (t *tapped[T]) bind(up source.Subscription) {
	t.mu.Lock()
	t.upstream = up
	release := t.releaseOnBind
	t.mu.Unlock()

	if release && up != nil {
		_ = up.Unsubscribe()
	}
}

// logLifecycle emits a subscribe or unsubscribe line. An empty message
// suppresses the line.
func (t *tapped[T]) logLifecycle(msg string, level observability.Level) {
	if msg == "" {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			t.reportFault(r)
		}
	}()
	if t.subID != "" {
		msg = msg + ", sub=" + t.subID
	}
	t.cfg.backend.Emit(t.cfg.name, level, msg, nil)
}

// reportFault emits a best-effort line about a broken mirror path. It must
// never panic itself.
func (t *tapped[T]) reportFault(r any) {
	defer func() { _ = recover() }()
	t.cfg.backend.Emit(t.cfg.name, observability.LevelError, fmt.Sprintf("instrumentation failure: %v", r), nil)
}
