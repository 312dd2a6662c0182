package natsbridge

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/a2y-d5l/go-tap/source"
)

const subscribeFlushTimeout = 2 * time.Second

// Option adjusts how a subject source delivers messages.
type Option func(*options)

type options struct {
	codec      Codec
	queueGroup string
	limit      int
}

func defaultOptions() options {
	return options{codec: JSONCodec}
}

// WithCodec selects the wire codec. JSON is the default.
func WithCodec(c Codec) Option { return func(o *options) { o.codec = c } }

// WithQueueGroup joins the named queue group, so concurrent subscriptions
// split the subject's messages instead of each receiving every one.
func WithQueueGroup(name string) Option { return func(o *options) { o.queueGroup = name } }

// WithLimit completes the stream after n delivered values.
func WithLimit(n int) Option { return func(o *options) { o.limit = n } }

// Subject adapts a NATS subject into a push source of decoded values.
// Every subscription holds its own NATS subscription. A message that
// fails to decode terminates the stream with an error and unsubscribes.
func Subject[T any](nc *nats.Conn, subject string, opts ...Option) source.Source[T] {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return subjectSource[T]{nc: nc, subject: subject, opts: o}
}

type subjectSource[T any] struct {
	nc      *nats.Conn
	subject string
	opts    options
}

func (s subjectSource[T]) Subscribe(sub source.Subscriber[T]) (source.Subscription, error) {
	if sub == nil {
		return nil, source.ErrNilSubscriber
	}
	if err := ValidateSubject(s.subject, true); err != nil {
		return nil, err
	}

	st := &subjectState[T]{downstream: sub, codec: s.opts.codec, limit: s.opts.limit}

	var (
		ns  *nats.Subscription
		err error
	)
	if s.opts.queueGroup != "" {
		ns, err = s.nc.QueueSubscribe(s.subject, s.opts.queueGroup, st.handle)
	} else {
		ns, err = s.nc.Subscribe(s.subject, st.handle)
	}
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", s.subject, err)
	}
	// Flush so the server has registered the interest before we return.
	if err := s.nc.FlushTimeout(subscribeFlushTimeout); err != nil {
		_ = ns.Unsubscribe()
		return nil, fmt.Errorf("subscribe flush %s: %w", s.subject, err)
	}
	st.bind(ns)

	return source.NewSubscription(st.stop), nil
}

// subjectState is the per-subscription delivery state. NATS dispatches one
// subscription's callbacks sequentially, so delivery itself needs no
// ordering work; done gates delivery after a terminal event or an
// unsubscribe. A message already dispatched when Unsubscribe is called may
// still be delivered.
type subjectState[T any] struct {
	downstream source.Subscriber[T]
	codec      Codec
	limit      int

	count atomic.Int64
	done  atomic.Bool

	mu            sync.Mutex
	ns            *nats.Subscription
	releaseOnBind bool
}

func (st *subjectState[T]) handle(m *nats.Msg) {
	if st.done.Load() {
		return
	}

	var v T
	if err := st.codec.Decode(m.Data, &v); err != nil {
		if st.done.CompareAndSwap(false, true) {
			st.downstream.OnError(fmt.Errorf("decode %s: %w", m.Subject, err))
			_ = st.unsubscribe()
		}
		return
	}

	st.downstream.OnNext(v)
	if st.limit > 0 && int(st.count.Add(1)) >= st.limit && st.done.CompareAndSwap(false, true) {
		st.downstream.OnCompleted()
		_ = st.unsubscribe()
	}
}

func (st *subjectState[T]) stop() error {
	if !st.done.CompareAndSwap(false, true) {
		return nil
	}
	return st.unsubscribe()
}

// bind attaches the NATS subscription once Subscribe returns. The callback
// may already have terminated the stream by then; release right away in
// that case.
func (st *subjectState[T]) bind(ns *nats.Subscription) {
	st.mu.Lock()
	st.ns = ns
	release := st.releaseOnBind
	st.mu.Unlock()

	if release {
		_ = ns.Unsubscribe()
	}
}

func (st *subjectState[T]) unsubscribe() error {
	st.mu.Lock()
	ns := st.ns
	if ns == nil {
		st.releaseOnBind = true
	}
	st.mu.Unlock()

	if ns == nil || !ns.IsValid() {
		return nil
	}
	if err := ns.Unsubscribe(); err != nil {
		return fmt.Errorf("unsubscribe: %w", err)
	}
	return nil
}

// ValidateSubject reports whether subject is a well-formed NATS subject.
// Wildcards follow NATS rules: "*" matches one token and ">" matches the
// rest of the subject; neither is accepted when wildcards is false.
func ValidateSubject(subject string, wildcards bool) error {
	if subject == "" {
		return fmt.Errorf("%w: empty", ErrInvalidSubject)
	}
	tokens := strings.Split(subject, ".")
	for i, token := range tokens {
		switch {
		case token == "":
			return fmt.Errorf("%w: empty token in %q", ErrInvalidSubject, subject)
		case strings.ContainsAny(token, " \t"):
			return fmt.Errorf("%w: whitespace in %q", ErrInvalidSubject, subject)
		case token == ">":
			if !wildcards {
				return fmt.Errorf("%w: wildcard in %q", ErrInvalidSubject, subject)
			}
			if i != len(tokens)-1 {
				return fmt.Errorf("%w: %q must end the subject", ErrInvalidSubject, ">")
			}
		case strings.Contains(token, ">"):
			return fmt.Errorf("%w: %q must be a whole token", ErrInvalidSubject, ">")
		case token == "*":
			if !wildcards {
				return fmt.Errorf("%w: wildcard in %q", ErrInvalidSubject, subject)
			}
		case strings.Contains(token, "*"):
			return fmt.Errorf("%w: %q must be a whole token", ErrInvalidSubject, "*")
		}
	}
	return nil
}
