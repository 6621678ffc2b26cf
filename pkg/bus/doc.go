// SPDX-License-Identifier: BSD-3-Clause

// Package bus is the daemon's internal event bus: an embedded NATS server
// with no listening socket, used only for in-process publish/subscribe
// between subsystems (drift reports and binding-state transitions). It is
// unrelated to pkg/ipcserver, which is the
// untrusted-client-facing Unix socket.
package bus
