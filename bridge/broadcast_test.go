// Copyright 2026 The btop4WinResonite Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"bufio"
	"net"
	"testing"
)

func TestIsFullRedrawMarkers(t *testing.T) {
	cases := []struct {
		name    string
		payload []byte
		want    bool
	}{
		{"clear screen", []byte("\x1b[2J"), true},
		{"clear to end from origin", []byte("\x1b[0J"), true},
		{"clear to start from origin", []byte("\x1b[1J"), true},
		{"home then write", []byte("\x1b[1;1Hhello"), true},
		{"zero-indexed home", []byte("\x1b[0;0Hhello"), true},
		{"bare semicolon home", []byte("\x1b[;Hhello"), true},
		{"plain text", []byte("hello"), false},
		{"unrelated cursor move", []byte("\x1b[5;5Hhello"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := isFullRedraw(tc.payload); got != tc.want {
				t.Errorf("isFullRedraw(%q) = %v, want %v", tc.payload, got, tc.want)
			}
		})
	}
}

// pipeClient wires a Client to one end of an in-memory net.Pipe,
// letting tests assert on frames written to the other end without a
// real TCP listener.
func pipeClient(t *testing.T) (*Client, *bufio.Reader) {
	t.Helper()
	serverSide, testSide := net.Pipe()
	t.Cleanup(func() {
		serverSide.Close()
		testSide.Close()
	})
	c := newClient(serverSide)
	c.connected.Store(true)
	return c, bufio.NewReader(testSide)
}

func TestBroadcastResizesGridOnDimensionChange(t *testing.T) {
	s := NewServer(":0", 2, 1)
	client, reader := pipeClient(t)
	s.addClient(client)

	done := make(chan struct{})
	go func() {
		s.Broadcast([]byte("ABC"), 3, 1)
		close(done)
	}()

	frame := readServerFrame(t, reader)
	<-done

	if s.grid.Width() != 3 || s.grid.Height() != 1 {
		t.Fatalf("grid dims = %dx%d, want 3x1", s.grid.Width(), s.grid.Height())
	}
	if string(frame.Payload) != "ABC" {
		t.Fatalf("payload = %q, want %q", frame.Payload, "ABC")
	}
}

func TestBroadcastFullRedrawClearsGrid(t *testing.T) {
	s := NewServer(":0", 1, 1)
	client, reader := pipeClient(t)
	s.addClient(client)

	firstDone := make(chan struct{})
	go func() {
		s.Broadcast([]byte("A"), 1, 1)
		close(firstDone)
	}()
	first := readServerFrame(t, reader)
	<-firstDone
	if string(first.Payload) != "A" {
		t.Fatalf("first payload = %q, want %q", first.Payload, "A")
	}

	secondDone := make(chan struct{})
	go func() {
		s.Broadcast([]byte("\x1b[2JB"), 1, 1)
		close(secondDone)
	}()
	second := readServerFrame(t, reader)
	<-secondDone
	if string(second.Payload) != "B" {
		t.Fatalf("second payload = %q, want %q (full redraw should clear prior content)", second.Payload, "B")
	}
}

func TestFanOutMarksFailedSendDisconnected(t *testing.T) {
	s := NewServer(":0", 1, 1)
	serverSide, testSide := net.Pipe()
	testSide.Close() // peer gone before the send is attempted

	client := newClient(serverSide)
	client.connected.Store(true)
	s.addClient(client)

	s.Broadcast([]byte("X"), 1, 1)

	if client.Connected() {
		t.Fatal("client still marked connected after a failed send")
	}
}
