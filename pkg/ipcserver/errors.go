// SPDX-License-Identifier: BSD-3-Clause

package ipcserver

import "errors"

var (
	ErrSocketCreateFailed    = errors.New("failed to create ipc socket")
	ErrAlreadyStarted        = errors.New("ipc server already started")
	ErrMessageTooLarge       = errors.New("message exceeds maximum size")
	ErrRateLimited           = errors.New("request rate limit exceeded")
	ErrUnknownCommand        = errors.New("unknown command")
	ErrValidation            = errors.New("request validation failed")
	ErrForbiddenPeer         = errors.New("peer not authorized")
	ErrNotFound              = errors.New("requested resource not found")
	ErrEventBusConnectFailed = errors.New("failed to connect to internal event bus")
)
