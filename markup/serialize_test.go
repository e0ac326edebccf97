// Copyright 2026 The btop4WinResonite Authors
// SPDX-License-Identifier: Apache-2.0

package markup

import (
	"testing"

	"github.com/DexyThePuppy/btop4WinResonite/vt"
)

func run(t *testing.T, width, height int, ansi string) string {
	t.Helper()
	g := vt.NewGrid(width, height)
	vt.Scan([]byte(ansi), g.WriteText, g.Apply)
	return Render(g)
}

func TestRenderBlankGridIsEmpty(t *testing.T) {
	g := vt.NewGrid(80, 24)
	if got := Render(g); got != "" {
		t.Fatalf("Render(blank) = %q, want empty string", got)
	}
}

func TestRenderHelloStyled(t *testing.T) {
	// Grid sized to exactly the written content: per the original
	// renderer, unstyled trailing cells within a row are still emitted
	// as literal spaces, so a row wider than the content would carry
	// trailing blanks after </closeall>.
	got := run(t, 3, 1, "\x1b[2J\x1b[1;1H\x1b[31mABC\x1b[0m")
	want := "<color=#800000>ABC</closeall>"
	if got != want {
		t.Fatalf("Render = %q, want %q", got, want)
	}
}

func TestRender256ColorFG(t *testing.T) {
	got := run(t, 1, 1, "\x1b[38;5;196mX")
	want := "<color=#ff0000>X</closeall>"
	if got != want {
		t.Fatalf("Render = %q, want %q", got, want)
	}
}

func TestRender24BitBG(t *testing.T) {
	got := run(t, 1, 1, "\x1b[48;2;10;20;30m ")
	want := "<mark=#0a141e> </closeall>"
	if got != want {
		t.Fatalf("Render = %q, want %q", got, want)
	}
}

func TestRenderTwoConsecutiveCallsIdempotent(t *testing.T) {
	g := vt.NewGrid(80, 24)
	in := []byte("\x1b[2J\x1b[1;1H\x1b[32mhi\x1b[0m")
	vt.Scan(in, g.WriteText, g.Apply)
	first := Render(g)

	g2 := vt.NewGrid(80, 24)
	vt.Scan(in, g2.WriteText, g2.Apply)
	second := Render(g2)

	if first != second {
		t.Fatalf("Render not idempotent across identical input: %q != %q", first, second)
	}
}

func TestRenderMultiRowWithBr(t *testing.T) {
	got := run(t, 3, 2, "AB\r\nCD")
	want := "AB <br>CD "
	if got != want {
		t.Fatalf("Render = %q, want %q", got, want)
	}
}
