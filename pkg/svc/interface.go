// SPDX-License-Identifier: BSD-3-Clause

// Package svc defines the lifecycle contract the supervisor uses to start,
// restart, and stop the daemon's subsystems.
package svc

import (
	"context"

	"github.com/nats-io/nats.go"
)

// Service is a long-running daemon subsystem. A service that returns an
// error is restarted by the supervisor's restart tree; a service that
// returns nil is treated as a completed one-shot.
type Service interface {
	// Name returns the subsystem's unique name, used in logs and in the
	// restart tree.
	Name() string

	// Run starts the service and blocks until ctx is canceled or the
	// service fails. ipcConn provides an in-process connection to the
	// daemon's internal event bus (see pkg/bus); services that don't
	// publish or subscribe to bus events may ignore it.
	Run(ctx context.Context, ipcConn nats.InProcessConnProvider) error
}
