// Copyright 2026 The btop4WinResonite Authors
// SPDX-License-Identifier: Apache-2.0

// btop4winresonite-preview is a debug client: it dials the bridge as a
// WebSocket client, decodes the styled-markup dialect the server
// broadcasts, and re-renders it as real terminal escapes so a
// developer can visually confirm the bridge output without a
// Resonite-side consumer.
package main

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/DexyThePuppy/btop4WinResonite/wsproto"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var addr string
	flagSet := pflag.NewFlagSet("btop4winresonite-preview", pflag.ContinueOnError)
	flagSet.StringVar(&addr, "addr", "127.0.0.1:8080", "bridge address to connect to")
	flagSet.BoolP("help", "h", false, "show help")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		fmt.Fprintln(os.Stderr, "Usage: btop4winresonite-preview [--addr host:port]")
		return nil
	}

	if _, _, err := term.GetSize(int(os.Stdout.Fd())); err != nil {
		fmt.Fprintln(os.Stderr, "warning: stdout is not a terminal; output may not render as intended")
	}

	conn, reader, err := dial(addr)
	if err != nil {
		return err
	}
	defer conn.Close()

	renderer := lipgloss.NewRenderer(os.Stdout, termenv.WithProfile(termenv.ANSI256))

	for {
		frame, err := wsproto.ReadServerFrame(reader)
		if err != nil {
			return fmt.Errorf("reading frame: %w", err)
		}
		if frame.Opcode != wsproto.OpText {
			continue
		}
		fmt.Fprint(os.Stdout, "\x1b[H\x1b[2J")
		fmt.Fprintln(os.Stdout, renderMarkup(renderer, string(frame.Payload)))
	}
}

// dial performs the RFC 6455 opening handshake against addr and
// returns the connection with a buffered reader positioned to read
// server frames.
func dial(addr string) (net.Conn, *bufio.Reader, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, nil, fmt.Errorf("dialing %s: %w", addr, err)
	}

	key, err := wsproto.GenerateClientKey()
	if err != nil {
		conn.Close()
		return nil, nil, err
	}
	if err := wsproto.WriteUpgradeRequest(conn, addr, key); err != nil {
		conn.Close()
		return nil, nil, err
	}

	reader := bufio.NewReader(conn)
	if err := wsproto.ReadUpgradeResponse(reader, key); err != nil {
		conn.Close()
		return nil, nil, err
	}
	return conn, reader, nil
}

// renderMarkup translates the bridge's styled-markup dialect back
// into real terminal escapes via renderer, for visual smoke-testing.
// It understands <color=#rrggbb>, <mark=#rrggbb>, <b>, <i>, <u>,
// <reverse>, <br>, and </closeall>; unrecognized tags are dropped.
func renderMarkup(renderer *lipgloss.Renderer, markup string) string {
	var out strings.Builder
	style := renderer.NewStyle()
	var run strings.Builder

	flush := func() {
		if run.Len() == 0 {
			return
		}
		out.WriteString(style.Render(run.String()))
		run.Reset()
	}

	for len(markup) > 0 {
		if markup[0] != '<' {
			end := strings.IndexByte(markup, '<')
			if end == -1 {
				end = len(markup)
			}
			run.WriteString(markup[:end])
			markup = markup[end:]
			continue
		}

		end := strings.IndexByte(markup, '>')
		if end == -1 {
			run.WriteString(markup)
			break
		}
		tag := markup[1:end]
		markup = markup[end+1:]
		flush()

		switch {
		case tag == "br":
			out.WriteString("\n")
		case tag == "/closeall":
			style = renderer.NewStyle()
		case tag == "b":
			style = style.Bold(true)
		case tag == "i":
			style = style.Italic(true)
		case tag == "u":
			style = style.Underline(true)
		case tag == "reverse":
			style = style.Reverse(true)
		case strings.HasPrefix(tag, "color="):
			style = style.Foreground(lipgloss.Color(strings.TrimPrefix(tag, "color=")))
		case strings.HasPrefix(tag, "mark="):
			style = style.Background(lipgloss.Color(strings.TrimPrefix(tag, "mark=")))
		}
	}
	flush()
	return out.String()
}
