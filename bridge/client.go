// Copyright 2026 The btop4WinResonite Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"bufio"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/DexyThePuppy/btop4WinResonite/lib/netutil"
	"github.com/DexyThePuppy/btop4WinResonite/wsproto"
)

// Client owns a connected socket and the connected flag. Once
// connected is false, no further sends are attempted on its socket.
// Outbound writes are serialized against the server's clients mutex
// by the caller (Server.Broadcast); Client itself only guards its own
// connected flag and socket teardown.
type Client struct {
	ID uuid.UUID

	conn net.Conn

	connected atomic.Bool
	closed    atomic.Bool
	closeOnce sync.Once
}

func newClient(conn net.Conn) *Client {
	c := &Client{ID: uuid.New(), conn: conn}
	c.connected.Store(false) // not yet activated: handshake pending
	return c
}

// Connected reports whether this client has completed its handshake
// and has not since been marked disconnected.
func (c *Client) Connected() bool {
	return c.connected.Load()
}

// Send writes payload to the client as a single unmasked text frame.
// On error, the client is marked disconnected; the caller is
// responsible for closing the socket (see Server.Broadcast).
func (c *Client) Send(payload []byte) error {
	if err := wsproto.WriteText(c.conn, payload); err != nil {
		c.connected.Store(false)
		return err
	}
	return nil
}

// close marks the client disconnected and closes its socket exactly
// once, tolerating being called multiple times or concurrently with
// the client's own read loop.
func (c *Client) close() {
	c.closeOnce.Do(func() {
		c.connected.Store(false)
		c.closed.Store(true)
		c.conn.Close()
	})
}

const clientReadPollInterval = 1 * time.Second

// runClient performs the opening handshake, then loops reading client
// frames (answering pings with pongs, discarding the rest) until the
// connection closes, the client sends a close frame, or an I/O error
// occurs.
func (s *Server) runClient(c *Client) {
	defer c.close()

	reader := bufio.NewReader(c.conn)
	key, err := wsproto.ParseUpgradeRequest(reader)
	if err != nil {
		s.logger().Warn("handshake failed", "client_id", c.ID, "error", err)
		return
	}
	// Marked connected before the response is flushed: once the peer has
	// read the full handshake response it may be observed by a
	// concurrent Broadcast, which must already see this client as a
	// send target.
	c.connected.Store(true)
	if err := wsproto.WriteUpgrade(c.conn, wsproto.AcceptKey(key)); err != nil {
		c.connected.Store(false)
		s.logger().Warn("handshake response failed", "client_id", c.ID, "error", err)
		return
	}

	s.logger().Info("client connected", "client_id", c.ID, "remote_addr", c.conn.RemoteAddr())

	for {
		if tcpConn, ok := c.conn.(*net.TCPConn); ok {
			tcpConn.SetReadDeadline(s.clk().Now().Add(clientReadPollInterval))
		}

		frame, err := wsproto.ReadClientFrame(reader)
		if err != nil {
			if isTimeout(err) {
				continue
			}
			// EOF, I/O error, or a non-FIN fragmented frame: all treated
			// as a disconnect per this module's framing scope. Normal
			// teardown (EOF, reset, broken pipe) is not worth a warning.
			if !netutil.IsExpectedCloseError(err) && err != wsproto.ErrNotFinal {
				s.logger().Warn("client read error", "client_id", c.ID, "error", err)
			}
			break
		}
		if frame.Opcode == wsproto.OpClose {
			break
		}
		if frame.Opcode == wsproto.OpPing {
			if err := writePong(c.conn, frame.Payload); err != nil {
				break
			}
		}
	}

	s.logger().Info("client disconnected", "client_id", c.ID)
}

// writePong replies to a ping control frame with a matching unmasked
// pong carrying the same payload, per RFC 6455 §5.5.2/§5.5.3.
func writePong(w interface{ Write([]byte) (int, error) }, payload []byte) error {
	header := []byte{0x8A, byte(len(payload))} // FIN=1, opcode=pong; pings are always small
	if _, err := w.Write(header); err != nil {
		return err
	}
	if len(payload) == 0 {
		return nil
	}
	_, err := w.Write(payload)
	return err
}
