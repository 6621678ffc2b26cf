// SPDX-License-Identifier: BSD-3-Clause

package curve

import "errors"

// ErrNonFiniteTemperature indicates calculate was called with a NaN or
// infinite temperature. The engine assumes finite input; rejecting
// non-finite temperatures is the control loop's job, but the engine
// double-checks rather than silently producing NaN output.
var ErrNonFiniteTemperature = errors.New("non-finite temperature")
