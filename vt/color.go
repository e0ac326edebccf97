// Copyright 2026 The btop4WinResonite Authors
// SPDX-License-Identifier: Apache-2.0

package vt

import "fmt"

// RGB is a 24-bit color triple.
type RGB struct {
	R, G, B uint8
}

// system16 is the fixed 16-entry ANSI palette, indices 0-15.
var system16 = [16]RGB{
	{0x00, 0x00, 0x00}, {0x80, 0x00, 0x00}, {0x00, 0x80, 0x00}, {0x80, 0x80, 0x00},
	{0x00, 0x00, 0x80}, {0x80, 0x00, 0x80}, {0x00, 0x80, 0x80}, {0xc0, 0xc0, 0xc0},
	{0x80, 0x80, 0x80}, {0xff, 0x00, 0x00}, {0x00, 0xff, 0x00}, {0xff, 0xff, 0x00},
	{0x00, 0x00, 0xff}, {0xff, 0x00, 0xff}, {0x00, 0xff, 0xff}, {0xff, 0xff, 0xff},
}

// ANSI256ToRGB converts an ANSI-256 palette index into its 24-bit RGB
// equivalent, following the standard xterm layout: the 16 system colors,
// a 6x6x6 color cube, then a 24-step grayscale ramp.
func ANSI256ToRGB(n int) RGB {
	switch {
	case n < 0:
		return system16[0]
	case n <= 15:
		return system16[n]
	case n <= 231:
		c := n - 16
		r, g, b := c/36, (c%36)/6, c%6
		return RGB{cubeComponent(r), cubeComponent(g), cubeComponent(b)}
	case n <= 255:
		gray := uint8(8 + 10*(n-232))
		return RGB{gray, gray, gray}
	default:
		return system16[15]
	}
}

// cubeComponent maps a 0-5 color-cube coordinate to its 8-bit channel
// value: 0 stays 0, otherwise 55 + 40*x.
func cubeComponent(x int) uint8 {
	if x == 0 {
		return 0
	}
	return uint8(55 + 40*x)
}

// RGBToHex renders rgb as a lowercase, zero-padded "#rrggbb" string.
func RGBToHex(rgb RGB) string {
	return fmt.Sprintf("#%02x%02x%02x", rgb.R, rgb.G, rgb.B)
}
