// SPDX-License-Identifier: BSD-3-Clause

package bus

import "errors"

var (
	ErrServerCreationFailed  = errors.New("failed to create embedded nats server")
	ErrServerTimeout         = errors.New("embedded nats server did not become ready")
	ErrConnectionNotAvailable = errors.New("bus connection not available")
	ErrInProcessConnFailed   = errors.New("failed to create in-process connection")
)
