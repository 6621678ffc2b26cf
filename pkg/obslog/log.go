// SPDX-License-Identifier: BSD-3-Clause

// Package obslog provides the daemon's structured logging setup: a zerolog
// console writer fanned out through log/slog so every package can log with
// the standard library's structured logging API while still getting
// human-readable console output during interactive operation.
package obslog

import (
	"log/slog"
	"os"

	"github.com/rs/zerolog"
	slogmulti "github.com/samber/slog-multi"
	slogzerolog "github.com/samber/slog-zerolog/v2"
)

// New creates a structured logger at the given level, writing to w.
// A nil w defaults to os.Stderr.
func New(level slog.Level, w *os.File) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}

	zeroLogger := zerolog.
		New(zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05.000"}).
		With().
		Timestamp().
		Logger()

	return slog.New(slogmulti.Fanout(
		slogzerolog.Option{Level: level, Logger: &zeroLogger}.NewZerologHandler(),
	))
}

// NewDefault creates the daemon's default logger, writing to stderr at info
// level. When run with -debug, cmd/hyperfand builds its own debug-level
// logger with New instead.
func NewDefault() *slog.Logger {
	return New(slog.LevelInfo, os.Stderr)
}
