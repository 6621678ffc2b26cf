// SPDX-License-Identifier: BSD-3-Clause

package process

import (
	"context"
	"fmt"

	"cirello.io/oversight/v2"
	"github.com/nats-io/nats.go"

	"github.com/hyperfan/hyperfand/pkg/svc"
)

// New wraps a svc.Service as an oversight.ChildProcess. A panic inside
// Run is recovered and converted to an error naming the service, so the
// supervision tree restarts it rather than crashing the daemon.
func New(s svc.Service, ipcConn nats.InProcessConnProvider) oversight.ChildProcess {
	return func(ctx context.Context) (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("%s %w: %v", s.Name(), ErrServicePanic, r)
			}
		}()

		return s.Run(ctx, ipcConn)
	}
}
