// Copyright 2026 The btop4WinResonite Authors
// SPDX-License-Identifier: Apache-2.0

// Package bridge implements the WebSocket server core: listen, accept,
// per-client I/O tasks, and the broadcast fan-out that turns producer
// ANSI bytes into rendered markup delivered to every connected client.
//
// [Server] owns the listening socket and the client collection, and is
// the sole mutator of the shared VT model (grid, cursor, current
// style) — every mutation happens inside [Server.Broadcast], which
// serializes calls against each other with a single mutex so that one
// mutate-render-fanout cycle always completes before the next begins.
//
// Start binds a dual-stack TCP listener (falling back to IPv4-only)
// and launches the accept loop in a background goroutine; the accept
// loop polls Accept with a 1-second deadline so it can recheck the
// should-stop flag without leaking an unbounded blocking call. Each
// accepted connection becomes a [Client], tracked by a WaitGroup so
// Stop can join every client task before returning. Stop is safe to
// call from any goroutine and idempotent.
package bridge
