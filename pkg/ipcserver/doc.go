// SPDX-License-Identifier: BSD-3-Clause

// Package ipcserver is the daemon's untrusted-client-facing Unix socket:
// peer-authenticated, rate-limited, line-delimited JSON request/response
// with a strict validation suite ahead of every mutating command. It is
// unrelated to pkg/bus, the in-process event bus other subsystems use among
// themselves.
package ipcserver
