// SPDX-License-Identifier: BSD-3-Clause

package bus

import (
	"fmt"
	"net"
	"time"
)

// ConnProvider implements nats.InProcessConnProvider, bridging other
// subsystems to the bus's embedded NATS server without a TCP listener.
type ConnProvider struct {
	bus *Bus
}

// InProcessConn blocks until the embedded server is ready for connections
// and returns an in-process connection to it.
func (p *ConnProvider) InProcessConn() (net.Conn, error) {
	if p.bus == nil || p.bus.server == nil {
		return nil, ErrConnectionNotAvailable
	}

	if !p.bus.server.ReadyForConnections(time.Minute) {
		return nil, ErrServerTimeout
	}

	conn, err := p.bus.server.InProcessConn()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInProcessConnFailed, err)
	}
	return conn, nil
}
