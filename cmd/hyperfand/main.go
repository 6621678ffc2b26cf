// SPDX-License-Identifier: BSD-3-Clause

// Command hyperfand is the fan-control daemon entrypoint: it wires up
// structured logging, installs signal-driven shutdown, and hands control to
// pkg/supervisor.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hyperfan/hyperfand/pkg/obslog"
	"github.com/hyperfan/hyperfand/pkg/supervisor"
)

func main() {
	var (
		debug        = flag.Bool("debug", false, "log at debug level")
		configDir    = flag.String("config-dir", "", "override automatic configuration directory resolution")
		socketPath   = flag.String("socket", "", "override the IPC socket path")
		allowedGroup = flag.String("group", "", "override the POSIX group permitted to connect over IPC")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := obslog.New(level, os.Stderr)

	var opts []supervisor.Option
	opts = append(opts, supervisor.WithLogger(logger))
	if *configDir != "" {
		opts = append(opts, supervisor.WithConfigDir(*configDir))
	}
	if *socketPath != "" {
		opts = append(opts, supervisor.WithIPCSocketPath(*socketPath))
	}
	if *allowedGroup != "" {
		opts = append(opts, supervisor.WithAllowedGroup(*allowedGroup))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig.String())
		cancel()
	}()

	if err := supervisor.New(opts...).Run(ctx); err != nil && err != context.Canceled {
		logger.Error("daemon exited with error", "error", err)
		os.Exit(1)
	}
}
