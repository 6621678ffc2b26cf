// SPDX-License-Identifier: BSD-3-Clause

// Package pathguard validates sysfs and virtual GPU paths before they reach
// any I/O call. It is shared by pkg/sysfsgw (trusted, internally-generated
// paths) and pkg/ipcserver (untrusted, client-supplied paths) so both go
// through one allowlist and one set of forbidden-sequence checks.
package pathguard

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// forbiddenSubstrings is the exact list from the wire protocol's path
// validation suite. NUL, newline, and CR are checked separately since they
// can't be written as Go string literals reliably across source encodings.
var forbiddenSubstrings = []string{
	"..", "//", "$(", "`", ";", "|", "&", ">", "<", "\\", "'", "\"",
}

// virtualGPUPattern matches the virtual path forms used for GPU control
// surfaces that have no real sysfs backing: nvidia:N:M, amd:N:M, intel:N:M.
var virtualGPUPattern = regexp.MustCompile(`^(nvidia|amd|intel):[0-9]+:[0-9]+$`)

// Guard validates paths against a fixed set of real filesystem prefixes plus
// the virtual GPU path namespace.
type Guard struct {
	allowedPrefixes []string
}

// New builds a Guard over the given allowlist prefixes, e.g.
// "/sys/class/hwmon/", "/sys/devices/". Prefixes should end in "/" so a
// sibling directory with the same prefix as a string can't slip through.
func New(allowedPrefixes ...string) *Guard {
	return &Guard{allowedPrefixes: append([]string(nil), allowedPrefixes...)}
}

// CheckSyntax rejects a path on forbidden-substring grounds alone, without
// touching the filesystem. This is the fast, cheap check run first against
// every client request (P4).
func CheckSyntax(path string) error {
	if path == "" {
		return ErrNotAbsolute
	}
	if strings.ContainsAny(path, "\x00\n\r") {
		return ErrForbiddenSequence
	}
	for _, bad := range forbiddenSubstrings {
		if strings.Contains(path, bad) {
			return ErrForbiddenSequence
		}
	}
	return nil
}

// Validate performs the full path-validation suite: syntax check, then
// either a virtual-GPU-namespace match or an absolute-path allowlist check
// with symlink-escape prevention via canonicalization.
//
// Validate returns the path that I/O callers should use: the virtual path
// unchanged, or the canonicalized real path.
func (g *Guard) Validate(path string) (string, error) {
	if err := CheckSyntax(path); err != nil {
		return "", err
	}

	if virtualGPUPattern.MatchString(path) {
		return path, nil
	}

	if !filepath.IsAbs(path) {
		return "", ErrNotAbsolute
	}

	cleaned := filepath.Clean(path)
	if !g.hasAllowedPrefix(cleaned) {
		return "", ErrOutsideAllowlist
	}

	canonical, err := filepath.EvalSymlinks(cleaned)
	if err != nil {
		// A sysfs attribute file may legitimately not exist yet the first
		// time it's probed (e.g. optional _crit attribute); callers that
		// need existence should check os.Stat themselves, but resolving the
		// parent directory is still required to defeat a symlinked final
		// component pointing outside the allowlist.
		parentCanonical, parentErr := filepath.EvalSymlinks(filepath.Dir(cleaned))
		if parentErr != nil {
			return "", ErrCanonicalizeFailed
		}
		canonical = filepath.Join(parentCanonical, filepath.Base(cleaned))
	}

	if !g.hasAllowedPrefix(canonical) {
		return "", ErrOutsideAllowlist
	}

	return canonical, nil
}

func (g *Guard) hasAllowedPrefix(path string) bool {
	for _, prefix := range g.allowedPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// DefaultHwmonAllowlist is the standard allowlist for Linux hwmon/devices
// sysfs access.
func DefaultHwmonAllowlist() []string {
	return []string{"/sys/class/hwmon/", "/sys/devices/"}
}

// statExists reports whether path exists, used by callers that need to
// distinguish "doesn't exist" from "blocked by allowlist".
func statExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
