// SPDX-License-Identifier: BSD-3-Clause

// Package persistence is the daemon's on-disk state layer: atomic JSON
// read/write for settings, curves, bindings, and fingerprints, all under
// explicit schema versions, plus the config-directory resolution the
// supervisor needs when running as root on behalf of an invoking user.
//
// Writes go through a write-tmp/fsync/rename sequence so a crash or power
// loss mid-write never leaves a half-written config file behind. Reads
// tolerate a missing file (callers get zero-value defaults) but reject a
// present-but-malformed file with a typed error rather than silently
// discarding it.
package persistence
