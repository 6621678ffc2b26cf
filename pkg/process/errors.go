// SPDX-License-Identifier: BSD-3-Clause

package process

import "errors"

var (
	// ErrServicePanic indicates a service panicked during Run.
	ErrServicePanic = errors.New("service panicked during execution")
)
