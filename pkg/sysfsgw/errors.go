// SPDX-License-Identifier: BSD-3-Clause

package sysfsgw

import "errors"

var (
	// ErrIOError wraps any underlying filesystem I/O failure (FailsWithIoError).
	ErrIOError = errors.New("sysfs io error")
	// ErrInvalidPath indicates the path failed pathguard validation (FailsWithInvalidPath).
	ErrInvalidPath = errors.New("sysfs invalid path")
	// ErrParseError indicates the file contents weren't a parseable value (FailsWithParseError).
	ErrParseError = errors.New("sysfs parse error")
	// ErrInvalidEnableMode indicates a pwm_enable write used a mode outside {0,1,2}.
	ErrInvalidEnableMode = errors.New("invalid pwm_enable mode")
	// ErrOperationTimeout indicates the I/O goroutine didn't return before ctx was canceled.
	ErrOperationTimeout = errors.New("sysfs operation timeout")
)
