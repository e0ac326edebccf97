// Copyright 2026 The btop4WinResonite Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/DexyThePuppy/btop4WinResonite/lib/clock"
	"github.com/DexyThePuppy/btop4WinResonite/vt"
)

// acceptPollInterval bounds how long the accept loop blocks on Accept
// before rechecking shouldStop, per the 1s cancellation-polling cadence.
const acceptPollInterval = 1 * time.Second

// Server is the WebSocket server core: it owns the listening socket and
// the client collection, and exclusively mutates the shared VT model
// (grid, cursor, current style) from within Broadcast.
type Server struct {
	// ListenAddress is the TCP address to bind, e.g. ":8080".
	ListenAddress string

	// Logger receives structured log output. If nil, slog.Default() is
	// used. Lifecycle events log at Info; per-broadcast detail at
	// Debug; recoverable faults at Warn/Error. Log lines never carry
	// full terminal payloads, only sizes and counts.
	Logger *slog.Logger

	// Clock abstracts time operations for the accept loop's polling
	// cadence. If nil, clock.Real() is used.
	Clock clock.Clock

	listener net.Listener
	cancel   context.CancelFunc
	done     chan struct{}
	tasks    sync.WaitGroup

	shouldStop atomic.Bool
	running    atomic.Bool

	clientsMu sync.Mutex
	clients   []*Client

	// broadcastMu serializes Broadcast calls against the VT model: one
	// mutation-render-fanout cycle completes before the next begins.
	broadcastMu sync.Mutex
	grid        *vt.Grid
}

// NewServer returns a Server with a grid of the given initial size.
func NewServer(listenAddress string, gridWidth, gridHeight int) *Server {
	return &Server{
		ListenAddress: listenAddress,
		grid:          vt.NewGrid(gridWidth, gridHeight),
	}
}

func (s *Server) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

func (s *Server) clk() clock.Clock {
	if s.Clock != nil {
		return s.Clock
	}
	return clock.Real()
}

// Start binds the listening socket and launches the accept loop. It
// returns once the listener is bound, or an error if binding fails.
func (s *Server) Start(ctx context.Context) error {
	if s.running.Load() {
		return nil
	}
	if s.ListenAddress == "" {
		return fmt.Errorf("bridge: ListenAddress is required")
	}

	listener, err := listenDualStack(s.ListenAddress)
	if err != nil {
		return fmt.Errorf("bridge: failed to listen on %s: %w", s.ListenAddress, err)
	}
	s.listener = listener

	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.shouldStop.Store(false)
	s.running.Store(true)

	go func() {
		defer close(s.done)
		defer s.running.Store(false)
		s.acceptLoop(ctx)
	}()

	s.logger().Info("bridge listening", "listen_address", s.listener.Addr().String())
	return nil
}

// Addr returns the listener's bound address, or nil before Start.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop is idempotent and safe to call from any goroutine other than the
// accept loop itself. It sets shouldStop, closes the listening socket
// and every client socket, waits for all tasks to drain, and clears the
// client collection.
func (s *Server) Stop() {
	s.shouldStop.Store(true)
	if s.cancel != nil {
		s.cancel()
	}
	if s.listener != nil {
		s.listener.Close()
	}
	if s.done != nil {
		<-s.done
	}

	s.clientsMu.Lock()
	for _, c := range s.clients {
		c.close()
	}
	s.clients = nil
	s.clientsMu.Unlock()

	s.tasks.Wait()
	s.logger().Info("bridge stopped")
}

// Wait blocks until the accept loop has exited.
func (s *Server) Wait() {
	if s.done != nil {
		<-s.done
	}
}

// acceptLoop accepts connections until shouldStop is set or the
// listener errors. Each accepted connection is handed to a client task
// tracked by s.tasks so Stop can join them.
func (s *Server) acceptLoop(ctx context.Context) {
	for {
		if s.shouldStop.Load() {
			return
		}

		if tcpListener, ok := s.listener.(*net.TCPListener); ok {
			tcpListener.SetDeadline(s.clk().Now().Add(acceptPollInterval))
		}

		connection, err := s.listener.Accept()
		if err != nil {
			if isTimeout(err) {
				s.cleanupClients()
				continue
			}
			select {
			case <-ctx.Done():
				return
			default:
				if s.shouldStop.Load() {
					return
				}
				s.logger().Error("accept failed", "error", err)
				return
			}
		}

		client := newClient(connection)
		s.addClient(client)

		s.tasks.Add(1)
		go func() {
			defer s.tasks.Done()
			s.runClient(client)
		}()

		s.cleanupClients()
	}
}

func isTimeout(err error) bool {
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}

// addClient registers a newly accepted client.
func (s *Server) addClient(c *Client) {
	s.clientsMu.Lock()
	s.clients = append(s.clients, c)
	s.clientsMu.Unlock()
}

// cleanupClients removes disconnected clients (those whose socket has
// been closed) from the collection. A client whose handshake is still
// pending is kept.
func (s *Server) cleanupClients() {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()

	live := s.clients[:0]
	for _, c := range s.clients {
		if !c.closed.Load() {
			live = append(live, c)
		}
	}
	s.clients = live
}

// listenDualStack binds a dual-stack TCP listener on [::]:port (IPv6
// with IPv4-mapped addresses), falling back to 0.0.0.0:port if
// dual-stack binding is unavailable. SO_REUSEADDR is set on the
// underlying socket so a restarted server can rebind immediately.
func listenDualStack(address string) (net.Listener, error) {
	lc := net.ListenConfig{Control: setReuseAddr}

	listener, err := lc.Listen(context.Background(), "tcp", dualStackAddress(address))
	if err == nil {
		return listener, nil
	}
	return lc.Listen(context.Background(), "tcp4", address)
}

// dualStackAddress rewrites a ":port" style address to "[::]:port" so
// net.Listen binds dual-stack rather than IPv4-only.
func dualStackAddress(address string) string {
	if len(address) > 0 && address[0] == ':' {
		return "[::]" + address
	}
	return address
}
