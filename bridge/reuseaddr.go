// Copyright 2026 The btop4WinResonite Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// setReuseAddr is a net.ListenConfig.Control callback that sets
// SO_REUSEADDR on the listening socket before bind, so a restarted
// server can rebind to the same port without waiting out TIME_WAIT.
func setReuseAddr(network, address string, c syscall.RawConn) error {
	var sockErr error
	err := c.Control(func(fd uintptr) {
		sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
	})
	if err != nil {
		return err
	}
	return sockErr
}
