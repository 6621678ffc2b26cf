// SPDX-License-Identifier: BSD-3-Clause

// Package ecio provides direct embedded-controller register access via the
// kernel's ec_sys debugfs interface (/sys/kernel/debug/ec/ec0/io), exposed
// as a raw 256-byte address space. This is read-mostly and gated behind an
// explicit user acknowledgment: direct EC access can wedge fan control or
// battery charging on a misbehaving firmware, and this package never
// flashes or reflashes EC firmware (spec.md §1 non-goals).
package ecio
