// SPDX-License-Identifier: BSD-3-Clause

package ecio

import "errors"

var (
	ErrNotAcknowledged = errors.New("ec direct control not acknowledged")
	ErrIOError         = errors.New("ec io error")
	ErrOutOfRange      = errors.New("ec register offset out of range")
)
