// Copyright 2026 The btop4WinResonite Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"bytes"

	"github.com/DexyThePuppy/btop4WinResonite/markup"
	"github.com/DexyThePuppy/btop4WinResonite/vt"
)

// fullRedrawMarkers are raw-byte substrings whose presence anywhere in
// a broadcast payload marks it as a full redraw rather than an
// incremental update.
var fullRedrawMarkers = [][]byte{
	[]byte("\x1b[2J"),
	[]byte("\x1b[0J"),
	[]byte("\x1b[1J"),
}

// homeCursorPrefixes are raw-byte prefixes that, when the payload
// begins with one of them, also mark a full redraw: producers that
// home the cursor before writing are redrawing the whole screen even
// if they never emit an explicit erase sequence.
var homeCursorPrefixes = [][]byte{
	[]byte("\x1b[1;1"),
	[]byte("\x1b[0;0"),
	[]byte("\x1b[;"),
}

// isFullRedraw reports whether payload should trigger a grid clear
// before parsing, per the full-redraw marker check performed on raw
// bytes ahead of the CSI/SGR parser.
func isFullRedraw(payload []byte) bool {
	for _, marker := range fullRedrawMarkers {
		if bytes.Contains(payload, marker) {
			return true
		}
	}
	for _, prefix := range homeCursorPrefixes {
		if bytes.HasPrefix(payload, prefix) {
			return true
		}
	}
	return false
}

// Broadcast is the producer entry point: it applies ansiBytes to the
// shared VT model, renders the result as styled markup, and fans the
// markup out to every connected client as a text frame. Calls are
// serialized against each other and against model resizes, so the
// model is never mutated, rendered, and fanned out concurrently with
// another Broadcast call.
//
// width and height are the producer's current terminal_size() query
// result; if they differ from the grid's current dimensions, the grid
// is resized (and implicitly cleared) before anything else.
func (s *Server) Broadcast(ansiBytes []byte, width, height int) {
	s.broadcastMu.Lock()
	defer s.broadcastMu.Unlock()

	if width != s.grid.Width() || height != s.grid.Height() {
		s.grid.Resize(width, height)
	}

	if isFullRedraw(ansiBytes) {
		s.grid.Clear()
	}

	vt.Scan(ansiBytes, s.grid.WriteText, s.grid.Apply)

	rendered := markup.Render(s.grid)
	s.logger().Debug("broadcast", "input_bytes", len(ansiBytes), "markup_bytes", len(rendered))
	s.fanOut([]byte(rendered))
}

// fanOut sends payload to every connected client, dropping any client
// whose send fails. A single misbehaving client cannot stall delivery
// to the others beyond the duration of its own send call.
func (s *Server) fanOut(payload []byte) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()

	for _, c := range s.clients {
		if !c.Connected() {
			continue
		}
		if err := c.Send(payload); err != nil {
			s.logger().Warn("send failed, dropping client", "client_id", c.ID, "error", err)
			c.close()
		}
	}
}
