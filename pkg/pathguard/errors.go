// SPDX-License-Identifier: BSD-3-Clause

package pathguard

import "errors"

var (
	// ErrForbiddenSequence indicates a path contains a disallowed substring.
	ErrForbiddenSequence = errors.New("path contains forbidden sequence")
	// ErrNotAbsolute indicates a path was not given in absolute form.
	ErrNotAbsolute = errors.New("path is not absolute")
	// ErrOutsideAllowlist indicates a path, or its canonical form, escapes
	// every configured allowlist prefix.
	ErrOutsideAllowlist = errors.New("path outside allowlist")
	// ErrCanonicalizeFailed indicates the filesystem lookup needed to resolve
	// symlinks failed (the path may not exist, or a component isn't
	// traversable).
	ErrCanonicalizeFailed = errors.New("failed to canonicalize path")
)
