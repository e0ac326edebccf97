// Copyright 2026 The btop4WinResonite Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/DexyThePuppy/btop4WinResonite/lib/testutil"
	"github.com/DexyThePuppy/btop4WinResonite/wsproto"
)

func startTestServer(t *testing.T, width, height int) *Server {
	t.Helper()
	s := NewServer("127.0.0.1:0", width, height)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(s.Stop)
	return s
}

// dialClient performs the RFC 6455 opening handshake against addr and
// returns the connection plus a buffered reader positioned to read
// server-sent frames.
func dialClient(t *testing.T, addr string) (net.Conn, *bufio.Reader) {
	t.Helper()
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	request := "GET / HTTP/1.1\r\n" +
		"Host: " + addr + "\r\n" +
		"Upgrade: websocket\r\n" +
		"Connection: Upgrade\r\n" +
		"Sec-WebSocket-Key: " + testutil.UniqueID("key") + "==\r\n" +
		"Sec-WebSocket-Version: 13\r\n\r\n"
	if _, err := conn.Write([]byte(request)); err != nil {
		t.Fatalf("writing handshake request: %v", err)
	}

	reader := bufio.NewReader(conn)
	status, err := reader.ReadString('\n')
	if err != nil {
		t.Fatalf("reading status line: %v", err)
	}
	if !strings.Contains(status, "101") {
		t.Fatalf("unexpected status line: %q", status)
	}
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			t.Fatalf("reading header line: %v", err)
		}
		if line == "\r\n" {
			break
		}
	}
	return conn, reader
}

// readServerFrame reads one frame as sent by Server.fanOut.
func readServerFrame(t *testing.T, r *bufio.Reader) wsproto.Frame {
	t.Helper()
	frame, err := wsproto.ReadServerFrame(r)
	if err != nil {
		t.Fatalf("reading server frame: %v", err)
	}
	return frame
}

// TestIsTimeoutUnwrapsWrappedDeadlineError guards against a regression
// where a read-deadline timeout wrapped by wsproto (fmt.Errorf("...: %w",
// err)) was no longer recognized as a timeout, causing every idle
// client to be dropped once its 1s read deadline expired.
func TestIsTimeoutUnwrapsWrappedDeadlineError(t *testing.T) {
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()

	a.SetReadDeadline(time.Now().Add(-time.Second)) // already expired
	_, readErr := a.Read(make([]byte, 1))
	if readErr == nil {
		t.Fatal("expected a deadline-exceeded error")
	}

	wrapped := fmt.Errorf("wsproto: reading frame header: %w", readErr)
	if !isTimeout(wrapped) {
		t.Fatalf("isTimeout(%v) = false, want true", wrapped)
	}

	if isTimeout(fmt.Errorf("wsproto: reading frame header: %w", net.ErrClosed)) {
		t.Fatal("isTimeout should not treat a closed-connection error as a timeout")
	}
}

func TestStartMissingListenAddress(t *testing.T) {
	s := NewServer("", 80, 24)
	if err := s.Start(context.Background()); err == nil {
		t.Fatal("expected error for missing listen address")
	}
}

func TestAddrAfterStart(t *testing.T) {
	s := startTestServer(t, 80, 24)
	addr := s.Addr()
	if addr == nil {
		t.Fatal("Addr() returned nil after Start")
	}
	if !strings.Contains(addr.String(), ":") {
		t.Fatalf("unexpected addr: %s", addr)
	}
}

func TestStopIsIdempotent(t *testing.T) {
	s := NewServer("127.0.0.1:0", 80, 24)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	s.Stop()
	s.Stop() // must not panic or block
}

func TestStartTwiceIsNoop(t *testing.T) {
	s := startTestServer(t, 80, 24)
	first := s.Addr().String()
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("second Start: %v", err)
	}
	if s.Addr().String() != first {
		t.Fatalf("Addr changed across second Start: %s -> %s", first, s.Addr())
	}
}

func TestHandshakeThenBroadcast(t *testing.T) {
	s := startTestServer(t, 2, 1)

	_, reader := dialClient(t, s.Addr().String())

	s.Broadcast([]byte("Hi"), 2, 1)

	frame := readServerFrame(t, reader)
	if frame.Opcode != wsproto.OpText {
		t.Fatalf("opcode = %v, want OpText", frame.Opcode)
	}
	if string(frame.Payload) != "Hi" {
		t.Fatalf("payload = %q, want %q", frame.Payload, "Hi")
	}
}

func TestBroadcastToTwoClients(t *testing.T) {
	s := startTestServer(t, 3, 1)

	_, readerA := dialClient(t, s.Addr().String())
	_, readerB := dialClient(t, s.Addr().String())

	s.Broadcast([]byte("Yo!"), 3, 1)

	frameA := readServerFrame(t, readerA)
	frameB := readServerFrame(t, readerB)
	if string(frameA.Payload) != "Yo!" || string(frameB.Payload) != "Yo!" {
		t.Fatalf("payloads = %q, %q, want both %q", frameA.Payload, frameB.Payload, "Yo!")
	}
}

func TestDisconnectedClientDoesNotBlockBroadcast(t *testing.T) {
	s := startTestServer(t, 1, 1)

	connA, _ := dialClient(t, s.Addr().String())
	_, readerB := dialClient(t, s.Addr().String())

	connA.Close()

	s.Broadcast([]byte("Z"), 1, 1)

	frameB := readServerFrame(t, readerB)
	if string(frameB.Payload) != "Z" {
		t.Fatalf("payload = %q, want %q", frameB.Payload, "Z")
	}
}
