// SPDX-License-Identifier: BSD-3-Clause

// Package enumerate walks the live hardware topology — Linux hwmon, BSD
// sysctl trees, and vendor GPU control surfaces — and produces a Snapshot of
// currently-present chips, channels, and their instantaneous values.
//
// Enumeration has no side effects: it only reads. Running it twice in a row
// against unchanged hardware finds the same chips and channels at the same
// paths, though the snapshots differ in their freshly generated IDs and
// instantaneous readings. Failure of one
// GPU vendor backend never aborts the rest of enumeration; whole-platform
// unavailability is reported as an empty Snapshot, not an error.
package enumerate
