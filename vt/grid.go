// Copyright 2026 The btop4WinResonite Authors
// SPDX-License-Identifier: Apache-2.0

package vt

// Grid is a fixed-size character grid with cursor and current-style
// state, driven by CSI/SGR operations (see Op and Grid.Apply) and raw
// text bytes (see Grid.WriteText). It has no scrollback and no alternate
// screen: advancing past the last row clamps rather than scrolls.
type Grid struct {
	width, height int
	cells         []Cell

	CursorX, CursorY int
	Style            Style
}

// NewGrid returns a Grid of the given dimensions, all cells at their
// default value and the cursor homed at (0, 0).
func NewGrid(width, height int) *Grid {
	g := &Grid{}
	g.Resize(width, height)
	return g
}

// Width reports the grid's current column count.
func (g *Grid) Width() int { return g.width }

// Height reports the grid's current row count.
func (g *Grid) Height() int { return g.height }

// Resize reallocates the grid to width x height, resetting every cell to
// its default value and homing the cursor. Preserving old content across
// a resize is not required and this implementation does not attempt it.
func (g *Grid) Resize(width, height int) {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	g.width = width
	g.height = height
	g.cells = make([]Cell, width*height)
	for i := range g.cells {
		g.cells[i] = defaultCell
	}
	g.CursorX, g.CursorY = 0, 0
	g.Style = Style{}
}

// Clear sets every cell to its default value and homes the cursor,
// without changing dimensions or the current style register.
func (g *Grid) Clear() {
	for i := range g.cells {
		g.cells[i] = defaultCell
	}
	g.CursorX, g.CursorY = 0, 0
}

// Cell returns the cell at (x, y). x and y must be in bounds.
func (g *Grid) Cell(x, y int) Cell {
	return g.cells[y*g.width+x]
}

// clampCursor pulls the cursor back into [0, width-1] x [0, height-1].
func (g *Grid) clampCursor() {
	g.CursorX = clamp(g.CursorX, 0, g.width-1)
	g.CursorY = clamp(g.CursorY, 0, g.height-1)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// WriteText applies the text-handling rules of the grid's protocol
// subset to a single decoded codepoint: line feed, carriage return,
// other control bytes (ignored), and printable glyphs (written then
// advanced, wrapping at the right edge without scrolling). At the
// bottom-right cell the cursor stays put, so the next glyph overwrites
// that cell.
func (g *Grid) WriteText(r rune) {
	switch {
	case r == 0x0A: // LF
		g.CursorY++
		g.CursorX = 0
		g.clampCursor()
	case r == 0x0D: // CR
		g.CursorX = 0
	case r < 0x20:
		// other control bytes are ignored
	default:
		g.cells[g.CursorY*g.width+g.CursorX] = Cell{Rune: r, Style: g.Style}
		g.CursorX++
		if g.CursorX == g.width {
			if g.CursorY == g.height-1 {
				g.CursorX = g.width - 1
			} else {
				g.CursorX = 0
				g.CursorY++
			}
		}
		g.clampCursor()
	}
}

// eraseRange clears cells [from, to] inclusive on row y, in column order.
func (g *Grid) eraseRange(y, from, to int) {
	if from < 0 {
		from = 0
	}
	if to > g.width-1 {
		to = g.width - 1
	}
	base := y * g.width
	for x := from; x <= to; x++ {
		g.cells[base+x] = defaultCell
	}
}

// EraseInLine implements CSI K for the row the cursor is on.
func (g *Grid) EraseInLine(mode int) {
	switch mode {
	case 1:
		g.eraseRange(g.CursorY, 0, g.CursorX) // inclusive of cursor
	case 2:
		g.eraseRange(g.CursorY, 0, g.width-1)
	default: // 0
		g.eraseRange(g.CursorY, g.CursorX, g.width-1)
	}
}

// EraseInDisplay implements CSI J.
func (g *Grid) EraseInDisplay(mode int) {
	switch mode {
	case 1:
		for y := 0; y < g.CursorY; y++ {
			g.eraseRange(y, 0, g.width-1)
		}
		g.eraseRange(g.CursorY, 0, g.CursorX) // inclusive of cursor
	case 2:
		g.Clear()
	default: // 0
		g.eraseRange(g.CursorY, g.CursorX, g.width-1)
		for y := g.CursorY + 1; y < g.height; y++ {
			g.eraseRange(y, 0, g.width-1)
		}
	}
}

// Apply executes a single parsed CSI/SGR operation against the grid.
func (g *Grid) Apply(op Op) {
	switch v := op.(type) {
	case CursorTo:
		g.CursorY = v.Row - 1
		g.CursorX = v.Col - 1
		g.clampCursor()
	case CursorDelta:
		switch v.Dir {
		case DirUp:
			g.CursorY -= v.N
		case DirDown:
			g.CursorY += v.N
		case DirForward:
			g.CursorX += v.N
		case DirBack:
			g.CursorX -= v.N
		case DirNextLine:
			g.CursorY += v.N
			g.CursorX = 0
		case DirPrevLine:
			g.CursorY -= v.N
			g.CursorX = 0
		case DirColumn:
			g.CursorX = v.N - 1
		}
		g.clampCursor()
	case EraseDisplay:
		g.EraseInDisplay(v.Mode)
	case EraseLine:
		g.EraseInLine(v.Mode)
	case SGR:
		g.applySGR(v.Params)
	}
}

func (g *Grid) applySGR(params []int) {
	s := &g.Style
	for i := 0; i < len(params); i++ {
		p := params[i]
		switch {
		case p == 0:
			*s = Style{}
		case p == 1:
			s.Bold = true
		case p == 22:
			s.Bold = false
		case p == 3:
			s.Italic = true
		case p == 23:
			s.Italic = false
		case p == 4:
			s.Underline = true
		case p == 24:
			s.Underline = false
		case p == 7:
			s.Reverse = true
		case p == 27:
			s.Reverse = false
		case p == 39:
			s.HasFG = false
		case p == 49:
			s.HasBG = false
		case p == 38 || p == 48:
			n, consumed := applyExtendedColor(s, p == 38, params[i+1:])
			if n < 0 {
				// truncated extended-color run: abandon remaining params
				return
			}
			i += consumed
		case p >= 30 && p <= 37:
			s.FG, s.HasFG = system16[p-30], true
		case p >= 90 && p <= 97:
			s.FG, s.HasFG = system16[8+(p-90)], true
		case p >= 40 && p <= 47:
			s.BG, s.HasBG = system16[p-40], true
		case p >= 100 && p <= 107:
			s.BG, s.HasBG = system16[8+(p-100)], true
		default:
			// ignored
		}
	}
}

// applyExtendedColor parses the ";2;R;G;B" or ";5;N" sub-parameter form
// that follows a 38 or 48 SGR code, setting fg (isFG) or bg on s. It
// returns the number of trailing params consumed and -1 if the
// sub-parameter run is truncated (not enough params remain).
func applyExtendedColor(s *Style, isFG bool, rest []int) (setMode, consumed int) {
	if len(rest) < 1 {
		return -1, 0
	}
	switch rest[0] {
	case 2:
		if len(rest) < 4 {
			return -1, 0
		}
		rgb := RGB{uint8(rest[1]), uint8(rest[2]), uint8(rest[3])}
		if isFG {
			s.FG, s.HasFG = rgb, true
		} else {
			s.BG, s.HasBG = rgb, true
		}
		return 0, 4
	case 5:
		if len(rest) < 2 {
			return -1, 0
		}
		rgb := ANSI256ToRGB(rest[1])
		if isFG {
			s.FG, s.HasFG = rgb, true
		} else {
			s.BG, s.HasBG = rgb, true
		}
		return 0, 2
	default:
		return -1, 0
	}
}
