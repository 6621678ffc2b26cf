// SPDX-License-Identifier: BSD-3-Clause

// Package obslog centralizes logger construction for hyperfand. Every
// subsystem logs through *slog.Logger handed down from the supervisor;
// this package is the only place that knows about the underlying zerolog
// console writer.
package obslog
