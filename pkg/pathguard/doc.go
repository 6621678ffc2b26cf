// SPDX-License-Identifier: BSD-3-Clause

// Package pathguard is the daemon's single path-validation chokepoint. Every
// path that reaches a read or write syscall — whether generated internally
// by enumeration or supplied by an IPC client — passes through a Guard
// first: a forbidden-substring check, then an allowlist-prefix check against
// the canonicalized (symlink-resolved) path.
package pathguard
