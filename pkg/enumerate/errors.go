// SPDX-License-Identifier: BSD-3-Clause

package enumerate

import "errors"

var (
	// ErrVendorUnavailable indicates a GPU vendor backend could not be
	// probed (missing sysfs node, missing helper binary). Non-fatal: the
	// caller skips that vendor and continues enumerating others.
	ErrVendorUnavailable = errors.New("gpu vendor unavailable")
)
