// Copyright 2026 The btop4WinResonite Authors
// SPDX-License-Identifier: Apache-2.0

package vt

import "unicode/utf8"

// DecodeRune decodes the UTF-8 sequence starting at b[0] and returns the
// decoded rune along with the number of bytes consumed. Any malformed or
// truncated sequence yields (utf8.RuneError, 1): the decoder always
// advances by exactly one byte on error, so a caller looping over a byte
// stream never stalls on invalid input. b must be non-empty.
func DecodeRune(b []byte) (rune, int) {
	r, size := utf8.DecodeRune(b)
	if r == utf8.RuneError && size <= 1 {
		return utf8.RuneError, 1
	}
	return r, size
}

// EncodeRune appends the standard UTF-8 encoding of r to dst and returns
// the extended slice.
func EncodeRune(dst []byte, r rune) []byte {
	var buf [utf8.UTFMax]byte
	n := utf8.EncodeRune(buf[:], r)
	return append(dst, buf[:n]...)
}
