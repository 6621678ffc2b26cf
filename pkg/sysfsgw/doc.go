// SPDX-License-Identifier: BSD-3-Clause

// Package sysfsgw is the daemon's single gateway to raw sysfs I/O. It
// exposes exactly five primitives — ReadTempMillideg, ReadFanRPM, ReadPWM,
// WritePWM, SetPWMEnable — and revalidates every path against a
// pathguard.Guard on every call, regardless of how trusted the caller
// believes the path to be.
//
// Gateway does no retrying: a failed read or write is returned to the
// caller immediately. Retry policy belongs to the control loop, which knows
// how a transient failure should affect a binding's confidence.
package sysfsgw
