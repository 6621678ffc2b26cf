// SPDX-License-Identifier: BSD-3-Clause

package fingerprint

import "errors"

var (
	// ErrNotFound indicates no enumerated chip cleared the match threshold
	// against a stored fingerprint, and no label-based rebind was possible.
	ErrNotFound = errors.New("fingerprint not found")
	// ErrStale indicates no enumerated chip cleared the match threshold
	// against a stored fingerprint and the fingerprint is older than the
	// staleness window; Revalidate then marks the binding Unsafe without
	// attempting a label-based rebind.
	ErrStale = errors.New("fingerprint stale")
)
