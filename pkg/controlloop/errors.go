// SPDX-License-Identifier: BSD-3-Clause

package controlloop

import "errors"

var (
	ErrAlreadyStarted        = errors.New("control loop already started")
	ErrNoPWMPath             = errors.New("binding's pwm channel has no resolved sysfs hint")
	ErrReloadFailed          = errors.New("settings/curve reload failed, previous configuration retained")
	ErrFallbackExhausted     = errors.New("pwm write failed consecutively past the fallback threshold")
	ErrEventBusConnectFailed = errors.New("failed to connect to internal event bus")
)
