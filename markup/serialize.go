// Copyright 2026 The btop4WinResonite Authors
// SPDX-License-Identifier: Apache-2.0

// Package markup serializes a vt.Grid into the styled-markup tag
// dialect consumed by the broadcast clients: <color=>, <mark=>, <b>,
// <i>, <u>, <reverse>, <br>, and </closeall>.
package markup

import (
	"strings"

	"github.com/DexyThePuppy/btop4WinResonite/vt"
)

// hasContent reports whether a cell counts toward the trailing-empty-
// line trim: non-space, or its background color flag is set. A space
// with only a foreground color set does not count.
func hasContent(c vt.Cell) bool {
	return c.Rune != ' ' || c.HasBG
}

// lastContentRow returns the last row index L such that some row r <= L
// contains a cell with content, or -1 if no row has any content.
func lastContentRow(g *vt.Grid) int {
	last := -1
	for y := 0; y < g.Height(); y++ {
		for x := 0; x < g.Width(); x++ {
			if hasContent(g.Cell(x, y)) {
				last = y
			}
		}
	}
	return last
}

// Render walks g and produces the markup string for the current
// contents: trailing blank rows trimmed, runs of identical style on a
// row compressed into a single opening-tag span closed by </closeall>.
// A fully-blank grid has no content row and renders as the empty
// string, with no tags and no <br>.
func Render(g *vt.Grid) string {
	lastRow := lastContentRow(g)
	if lastRow < 0 {
		return ""
	}

	var b strings.Builder
	for y := 0; y <= lastRow; y++ {
		renderRow(&b, g, y)
		if y < lastRow {
			b.WriteString("<br>")
		}
	}
	return b.String()
}

func renderRow(b *strings.Builder, g *vt.Grid, y int) {
	var last vt.Style
	styleOpen := false

	for x := 0; x < g.Width(); x++ {
		cell := g.Cell(x, y)
		changed := x == 0 || !cell.Style.Equal(last)
		if changed {
			if styleOpen {
				b.WriteString("</closeall>")
			}
			if !cell.Style.IsPlain() {
				writeOpenTags(b, cell.Style)
				styleOpen = true
			} else {
				styleOpen = false
			}
			last = cell.Style
		}
		writeGlyph(b, cell.Rune)
	}
	if styleOpen {
		b.WriteString("</closeall>")
	}
}

func writeOpenTags(b *strings.Builder, s vt.Style) {
	if s.HasFG {
		b.WriteString("<color=")
		b.WriteString(vt.RGBToHex(s.FG))
		b.WriteString(">")
	}
	if s.HasBG {
		b.WriteString("<mark=")
		b.WriteString(vt.RGBToHex(s.BG))
		b.WriteString(">")
	}
	if s.Bold {
		b.WriteString("<b>")
	}
	if s.Italic {
		b.WriteString("<i>")
	}
	if s.Underline {
		b.WriteString("<u>")
	}
	if s.Reverse {
		b.WriteString("<reverse>")
	}
}

func writeGlyph(b *strings.Builder, r rune) {
	if r == ' ' {
		b.WriteByte(' ')
		return
	}
	b.WriteRune(r)
}
