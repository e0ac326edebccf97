// Copyright 2026 The btop4WinResonite Authors
// SPDX-License-Identifier: Apache-2.0

// btop4winresonite-server is the bridge's standalone binary: it loads
// configuration, starts the WebSocket server core, spawns the
// terminal UI application under a PTY, and feeds the PTY's output
// into the server's broadcast path until interrupted.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/creack/pty"
	"github.com/spf13/pflag"

	"github.com/DexyThePuppy/btop4WinResonite/bridge"
	"github.com/DexyThePuppy/btop4WinResonite/config"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var configPath string
	var listenAddr string
	var verbose bool

	flagSet := pflag.NewFlagSet("btop4winresonite-server", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to config file (overrides BTOP4WINRESONITE_CONFIG)")
	flagSet.StringVar(&listenAddr, "listen", "", "TCP address to listen on (overrides config)")
	flagSet.BoolVarP(&verbose, "verbose", "v", false, "enable per-broadcast debug logging")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			printUsage(flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		printUsage(flagSet)
		return nil
	}

	command := flagSet.Args()
	if len(command) == 0 {
		return fmt.Errorf("no command given; usage: btop4winresonite-server [flags] -- <command> [args...]")
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if listenAddr != "" {
		cfg.ListenAddress = listenAddr
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logLevel := parseLogLevel(cfg.Log.Level)
	if verbose {
		logLevel = slog.LevelDebug
	}
	handlerOptions := &slog.HandlerOptions{Level: logLevel}
	var handler slog.Handler = slog.NewTextHandler(os.Stderr, handlerOptions)
	if cfg.Log.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, handlerOptions)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)

	server := bridge.NewServer(cfg.ListenAddress, cfg.Grid.Width, cfg.Grid.Height)
	server.Logger = logger

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := server.Start(ctx); err != nil {
		return err
	}
	defer server.Stop()

	return runProducer(server, command, cfg.Grid.Width, cfg.Grid.Height, logger)
}

// loadConfig resolves configuration from --config, then
// BTOP4WINRESONITE_CONFIG, falling back to defaults if neither is set.
func loadConfig(configPath string) (*config.Config, error) {
	if configPath != "" {
		return config.LoadFile(configPath)
	}
	if os.Getenv("BTOP4WINRESONITE_CONFIG") != "" {
		return config.Load()
	}
	return config.Default(), nil
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// runProducer spawns command under a PTY sized to width x height and
// feeds every chunk of its output to server.Broadcast until the child
// exits or a termination signal arrives.
func runProducer(server *bridge.Server, command []string, width, height int, logger *slog.Logger) error {
	cmdPath, err := exec.LookPath(command[0])
	if err != nil {
		return fmt.Errorf("command not found: %s", command[0])
	}

	cmd := exec.Command(cmdPath, command[1:]...)
	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{Rows: uint16(height), Cols: uint16(width)})
	if err != nil {
		return fmt.Errorf("starting %s under pty: %w", command[0], err)
	}
	defer ptmx.Close()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	go pumpBroadcast(server, ptmx, width, height, logger)

	select {
	case <-sigChan:
		logger.Info("shutdown signal received")
		cmd.Process.Signal(syscall.SIGTERM)
		<-done
		return nil
	case err := <-done:
		if exitErr, ok := err.(*exec.ExitError); ok {
			return fmt.Errorf("%s exited with status %d", command[0], exitErr.ExitCode())
		}
		return err
	}
}

// pumpBroadcast reads chunks from the PTY as they arrive and forwards
// each one to server.Broadcast verbatim: the producer interface (spec
// §2) is "broadcast(ansi_bytes)" on whatever chunk boundary the
// producer writes, not a fixed frame size.
func pumpBroadcast(server *bridge.Server, ptmx io.Reader, width, height int, logger *slog.Logger) {
	buf := make([]byte, 64*1024)
	for {
		n, err := ptmx.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			server.Broadcast(chunk, width, height)
		}
		if err != nil {
			if err != io.EOF {
				logger.Warn("pty read error", "error", err)
			}
			return
		}
	}
}

func printUsage(flagSet *pflag.FlagSet) {
	fmt.Fprint(os.Stderr, `btop4winresonite-server - ANSI terminal broadcast bridge

USAGE
    btop4winresonite-server [flags] -- <command> [args...]

Spawns <command> under a PTY and broadcasts its output as styled
markup to every connected WebSocket client.

FLAGS
`)
	flagSet.PrintDefaults()
}
