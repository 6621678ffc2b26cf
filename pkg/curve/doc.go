// SPDX-License-Identifier: BSD-3-Clause

// Package curve implements the control loop's per-binding curve evaluation:
// hysteresis, delay, asymmetric ramping, time-normalized smoothing, and a
// minimum-speed floor, composed in that order on every call to Calculate.
//
// An Engine is stateful — it remembers its last output, pending delayed
// target, and the wall-clock time of its last call — so each bound
// temperature/PWM pair owns its own Engine instance. Reset must be called
// whenever the underlying Curve's points change, to discard state that no
// longer corresponds to the new curve shape.
package curve
