// SPDX-License-Identifier: BSD-3-Clause

package persistence

import "errors"

var (
	ErrTemporaryFileCreation = errors.New("failed to create temporary file")
	ErrTemporaryFileWrite    = errors.New("failed to write temporary file")
	ErrTemporaryFileClose    = errors.New("failed to close temporary file")
	ErrTemporaryFileChmod    = errors.New("failed to chmod temporary file")
	ErrAtomicRename          = errors.New("failed to atomically rename file")
	ErrFileTooLarge          = errors.New("config file exceeds size cap")
	ErrMalformedJSON         = errors.New("malformed config json")
	ErrNoConfigUser          = errors.New("could not resolve a config directory owner")
)
