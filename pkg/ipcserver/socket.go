// SPDX-License-Identifier: BSD-3-Clause

package ipcserver

import (
	"fmt"
	"net"
	"os"
)

// bindSocket creates the Unix listener at path with 0600 permissions. Any
// existing path is removed first rather than connected to, so a symlink
// left at that path by another user can't redirect the bind (spec.md
// §4.7's "symlink attack prevention").
func bindSocket(path string) (*net.UnixListener, error) {
	if fi, err := os.Lstat(path); err == nil {
		if fi.Mode()&os.ModeSymlink != 0 {
			return nil, fmt.Errorf("%w: refusing to bind over existing symlink at %s", ErrSocketCreateFailed, path)
		}
		if err := os.Remove(path); err != nil {
			return nil, fmt.Errorf("%w: removing stale socket: %w", ErrSocketCreateFailed, err)
		}
	}

	addr, err := net.ResolveUnixAddr("unix", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSocketCreateFailed, err)
	}

	ln, err := net.ListenUnix("unix", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSocketCreateFailed, err)
	}

	if err := os.Chmod(path, 0o600); err != nil {
		ln.Close()
		return nil, fmt.Errorf("%w: chmod: %w", ErrSocketCreateFailed, err)
	}

	return ln, nil
}
