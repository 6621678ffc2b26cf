// SPDX-License-Identifier: BSD-3-Clause

package prober

import "errors"

var (
	// ErrNoWritablePWM indicates none of the enumerated PWM channels are
	// writable, so active probing can't run at all.
	ErrNoWritablePWM = errors.New("no writable pwm channels")
	// ErrProbeAborted indicates the context was canceled mid-probe; PWM
	// values are restored from the snapshot before returning.
	ErrProbeAborted = errors.New("probe aborted")
)
