// SPDX-License-Identifier: BSD-3-Clause

package supervisor

import "errors"

var (
	// ErrConfigDir indicates the operator's config directory could not be
	// resolved or created.
	ErrConfigDir = errors.New("could not resolve configuration directory")
	// ErrHardwareDiscovery indicates the initial hardware enumeration pass
	// failed outright, rather than merely finding nothing.
	ErrHardwareDiscovery = errors.New("initial hardware discovery failed")
	// ErrAddProcess indicates a subsystem could not be added to the
	// supervision tree.
	ErrAddProcess = errors.New("failed to add process to supervision tree")
	// ErrRlimit indicates lowering a resource limit during startup hardening
	// failed.
	ErrRlimit = errors.New("failed to set resource limit")
)
