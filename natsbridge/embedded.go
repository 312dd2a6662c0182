package natsbridge

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	nserver "github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"

	"github.com/a2y-d5l/go-tap/internal/embeddednats"
	"github.com/a2y-d5l/go-tap/observability"
)

// ServerOption configures an embedded bridge.
type ServerOption func(*serverConfig)

type serverConfig struct {
	host            string
	port            int
	clientName      string
	maxPayload      int
	readyTimeout    time.Duration
	connectTimeout  time.Duration
	reconnectWait   time.Duration
	drainTimeout    time.Duration
	shutdownMaxWait time.Duration
}

func defaultServerConfig() serverConfig {
	return serverConfig{
		host:            "127.0.0.1",
		port:            -1,
		clientName:      "go-tap",
		readyTimeout:    5 * time.Second,
		connectTimeout:  2 * time.Second,
		reconnectWait:   250 * time.Millisecond,
		drainTimeout:    5 * time.Second,
		shutdownMaxWait: 5 * time.Second,
	}
}

// WithHost sets the listen host (default 127.0.0.1).
func WithHost(h string) ServerOption { return func(c *serverConfig) { c.host = h } }

// WithPort sets the listen port. The default picks a free one.
func WithPort(p int) ServerOption { return func(c *serverConfig) { c.port = p } }

// WithClientName names the bridge's client connection.
func WithClientName(name string) ServerOption {
	return func(c *serverConfig) { c.clientName = name }
}

// WithMaxPayload caps the server's message size in bytes.
func WithMaxPayload(bytes int) ServerOption {
	return func(c *serverConfig) { c.maxPayload = bytes }
}

// WithReadyTimeout bounds how long StartEmbedded waits for the server.
func WithReadyTimeout(d time.Duration) ServerOption {
	return func(c *serverConfig) { c.readyTimeout = d }
}

// WithDrainTimeout bounds how long Close waits for the client to drain and
// for the server to stop.
func WithDrainTimeout(d time.Duration) ServerOption {
	return func(c *serverConfig) {
		c.drainTimeout = d
		c.shutdownMaxWait = d
	}
}

// Embedded is an in-process NATS server with a connected client, for
// tapping subjects without external infrastructure.
type Embedded struct {
	srv *embeddednats.Server
	nc  *nats.Conn

	drainTimeout    time.Duration
	shutdownMaxWait time.Duration

	closed atomic.Bool
}

// StartEmbedded boots an embedded server, waits until it accepts
// connections, and connects a client to it. Connection state changes are
// reported through the package default back-end.
func StartEmbedded(ctx context.Context, opts ...ServerOption) (*Embedded, error) {
	cfg := defaultServerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	sopts := &nserver.Options{
		Host:                  cfg.host,
		Port:                  cfg.port,
		NoSigs:                true,
		DisableShortFirstPing: true,
	}
	if cfg.maxPayload > 0 {
		sopts.MaxPayload = int32(cfg.maxPayload)
	}

	srv, err := embeddednats.New(sopts)
	if err != nil {
		return nil, err
	}
	srv.Start()

	readyCtx, cancel := context.WithTimeout(ctx, cfg.readyTimeout)
	defer cancel()
	if err := srv.AwaitReady(readyCtx); err != nil {
		_ = srv.Shutdown(context.Background(), cfg.shutdownMaxWait)
		return nil, fmt.Errorf("nats server not ready: %w", err)
	}

	backend := observability.Default()
	nc, err := nats.Connect(srv.ClientURL(),
		nats.Name(cfg.clientName),
		nats.Timeout(cfg.connectTimeout),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(cfg.reconnectWait),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			backend.Emit("natsbridge", observability.LevelWarn, "nats disconnected", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			backend.Emit("natsbridge", observability.LevelInfo, "nats reconnected to "+nc.ConnectedUrl(), nil)
		}),
	)
	if err != nil {
		_ = srv.Shutdown(context.Background(), cfg.shutdownMaxWait)
		return nil, fmt.Errorf("nats client connect: %w", err)
	}
	if err := nc.FlushTimeout(cfg.connectTimeout); err != nil {
		nc.Close()
		_ = srv.Shutdown(context.Background(), cfg.shutdownMaxWait)
		return nil, fmt.Errorf("initial flush: %w", err)
	}

	return &Embedded{
		srv:             srv,
		nc:              nc,
		drainTimeout:    cfg.drainTimeout,
		shutdownMaxWait: cfg.shutdownMaxWait,
	}, nil
}

// Conn returns the bridge's client connection.
func (e *Embedded) Conn() *nats.Conn { return e.nc }

// ClientURL returns the URL further clients can connect to.
func (e *Embedded) ClientURL() string { return e.srv.ClientURL() }

// Port returns the server's bound port.
func (e *Embedded) Port() int { return e.srv.Port() }

// Healthy reports whether the bridge is open and connected.
func (e *Embedded) Healthy() error {
	switch {
	case e.closed.Load():
		return ErrClosed
	case e.nc.Status() != nats.CONNECTED:
		return fmt.Errorf("natsbridge: client %s", e.nc.Status())
	default:
		return nil
	}
}

// Close drains the client and shuts the server down. Later calls report
// ErrClosed.
func (e *Embedded) Close(ctx context.Context) error {
	if !e.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}

	var merr multiErr

	done := make(chan error, 1)
	go func() { done <- e.nc.Drain() }()
	select {
	case err := <-done:
		if err != nil {
			merr.add(fmt.Errorf("nats drain: %w", err))
		}
	case <-time.After(e.drainTimeout):
		merr.add(fmt.Errorf("nats drain timeout after %s", e.drainTimeout))
		e.nc.Close()
	case <-ctx.Done():
		merr.add(fmt.Errorf("nats drain canceled: %w", ctx.Err()))
		e.nc.Close()
	}

	if err := e.srv.Shutdown(ctx, e.shutdownMaxWait); err != nil {
		merr.add(err)
	}

	if len(merr) > 0 {
		return merr
	}
	return nil
}
