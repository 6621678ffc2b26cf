// SPDX-License-Identifier: BSD-3-Clause

package model

import "errors"

var (
	// ErrInvalidCurve indicates a curve definition violates its invariants.
	ErrInvalidCurve = errors.New("invalid curve definition")
	// ErrInvalidAnchor indicates a chip anchor has an unrecognized or empty kind.
	ErrInvalidAnchor = errors.New("invalid chip anchor")
	// ErrInvalidBinding indicates a binding references an incomplete set of channels.
	ErrInvalidBinding = errors.New("invalid binding")
	// ErrDuplicatePWM indicates two bindings target the same PWM path.
	ErrDuplicatePWM = errors.New("duplicate PWM binding")
)
