// Copyright 2026 The btop4WinResonite Authors
// SPDX-License-Identifier: Apache-2.0

// Package vt implements a fixed-size virtual terminal grid driven by a
// subset of the ECMA-48/ANSI control protocol: cursor motion, erase,
// SGR styling, and UTF-8 text. It has no scrollback, no alternate
// screen, and no character sets — see the package-level Non-goals
// documented alongside Grid.
package vt

// Style holds the style attributes applied to a single grid cell: the
// four boolean flags plus an optional foreground and background color.
// Two Styles compare equal (see Equal) when their flags match and their
// set colors, if any, match — an unset color never compares equal to a
// set one regardless of its zero RGB value.
type Style struct {
	Bold, Italic, Underline, Reverse bool

	FG    RGB
	BG    RGB
	HasFG bool
	HasBG bool
}

// Equal reports whether s and other render identically: same flags, same
// foreground/background set-ness, and same RGB when both are set.
func (s Style) Equal(other Style) bool {
	if s.Bold != other.Bold || s.Italic != other.Italic ||
		s.Underline != other.Underline || s.Reverse != other.Reverse {
		return false
	}
	if s.HasFG != other.HasFG || s.HasBG != other.HasBG {
		return false
	}
	if s.HasFG && s.FG != other.FG {
		return false
	}
	if s.HasBG && s.BG != other.BG {
		return false
	}
	return true
}

// IsPlain reports whether s carries no visible style attribute at all —
// no bold/italic/underline/reverse and no set color.
func (s Style) IsPlain() bool {
	return !s.Bold && !s.Italic && !s.Underline && !s.Reverse && !s.HasFG && !s.HasBG
}

// Cell is a single grid position: a Unicode scalar value plus the style
// register in effect when it was written.
type Cell struct {
	Rune rune
	Style
}

// defaultCell is the blank cell: a space with no style attributes.
var defaultCell = Cell{Rune: ' '}
