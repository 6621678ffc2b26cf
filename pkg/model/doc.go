// SPDX-License-Identifier: BSD-3-Clause

// Package model holds the daemon's core data model: chips, channels,
// bindings, curves, and overrides, and the invariants that relate them.
//
// Chip anchors are modeled as a flat tagged union (AnchorKind + per-kind
// fields) rather than an interface hierarchy, so matching logic in
// pkg/fingerprint can exhaustively switch over AnchorKind without type
// assertions.
package model
