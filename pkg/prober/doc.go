// SPDX-License-Identifier: BSD-3-Clause

// Package prober implements PWM-to-fan autodetection: drive each PWM
// channel through a controlled step and watch every fan tachometer for the
// resulting RPM drop, to learn which PWM controls which fan without any
// prior wiring knowledge.
//
// Detect is destructive to PWM state for its duration — it's only safe to
// run before the control loop starts driving curves, or with the control
// loop's override table holding every PWM it touches. It always restores
// the pre-probe PWM snapshot before returning, success or failure.
package prober
