// SPDX-License-Identifier: BSD-3-Clause

// Package fingerprint identifies hardware durably across reboots and hwmon
// renumbering. It scores every enumerated chip against every stored
// ChipFingerprint using weighted anchor agreement, accepts a match only when
// it clears both an absolute confidence floor and a margin over the
// runner-up, and falls back to label-based rebind when anchor matching
// fails outright.
//
// Binding validity transitions (Ok/Degraded/NeedsRebind/Unsafe) are modeled
// as an explicit state machine (see state.go) so the control loop's "may I
// drive this PWM" check is a single, auditable boolean.
package fingerprint
