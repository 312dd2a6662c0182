// Package embeddednats wraps an in-process nats-server instance for local
// development and tests.
package embeddednats

import (
	"context"
	"fmt"
	"net"
	"time"

	nserver "github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
)

const probeInterval = 50 * time.Millisecond

// Server is a thin handle on an embedded nats-server.
type Server struct {
	s *nserver.Server
}

// New creates an embedded server from the given options without starting it.
func New(opts *nserver.Options) (*Server, error) {
	ns, err := nserver.NewServer(opts)
	if err != nil {
		return nil, fmt.Errorf("nats server create: %w", err)
	}
	return &Server{s: ns}, nil
}

// Start launches the server in its own goroutine.
func (e *Server) Start() { go e.s.Start() }

// ClientURL returns the nats:// URL clients connect to.
func (e *Server) ClientURL() string { return e.s.ClientURL() }

// AwaitReady blocks until a client connection succeeds or the context
// expires. Probing with a real connection is more reliable than the
// server's own readiness flag.
func (e *Server) AwaitReady(ctx context.Context) error {
	t := time.NewTicker(probeInterval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			if e.probe() {
				return nil
			}
		}
	}
}

func (e *Server) probe() bool {
	nc, err := nats.Connect(e.s.ClientURL(), nats.Timeout(100*time.Millisecond))
	if err != nil {
		return false
	}
	nc.Close()
	return true
}

// Shutdown signals the server to stop and waits up to maxWait for it to
// wind down.
func (e *Server) Shutdown(ctx context.Context, maxWait time.Duration) error {
	e.s.Shutdown()

	done := make(chan struct{})
	go func() {
		e.s.WaitForShutdown()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(maxWait):
		return fmt.Errorf("server shutdown timeout after %s", maxWait)
	case <-ctx.Done():
		return fmt.Errorf("server shutdown canceled: %w", ctx.Err())
	}
}

// Port returns the bound TCP port, or 0 before the listener is up.
func (e *Server) Port() int {
	if a := e.s.Addr(); a != nil {
		if ta, ok := a.(*net.TCPAddr); ok {
			return ta.Port
		}
	}
	return 0
}
