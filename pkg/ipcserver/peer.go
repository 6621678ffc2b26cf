// SPDX-License-Identifier: BSD-3-Clause

package ipcserver

import (
	"fmt"
	"net"

	"golang.org/x/sys/unix"
)

// peerCredentials is the UID/GID/PID obtained from SO_PEERCRED on an
// accepted connection, logged for audit on every connection (spec.md
// §4.7). On top of the socket's own 0600 root-owned permission, the server
// closes any connection whose peer is neither UID 0 nor in the allowed
// group (see Server.peerAuthorized).
type peerCredentials struct {
	UID uint32
	GID uint32
	PID int32
}

func peerCredentialsOf(conn *net.UnixConn) (peerCredentials, error) {
	raw, err := conn.SyscallConn()
	if err != nil {
		return peerCredentials{}, fmt.Errorf("obtain raw conn: %w", err)
	}

	var cred *unix.Ucred
	var sockErr error
	ctrlErr := raw.Control(func(fd uintptr) {
		cred, sockErr = unix.GetsockoptUcred(int(fd), unix.SOL_SOCKET, unix.SO_PEERCRED)
	})
	if ctrlErr != nil {
		return peerCredentials{}, fmt.Errorf("control raw conn: %w", ctrlErr)
	}
	if sockErr != nil {
		return peerCredentials{}, fmt.Errorf("getsockopt SO_PEERCRED: %w", sockErr)
	}

	return peerCredentials{UID: cred.Uid, GID: cred.Gid, PID: cred.Pid}, nil
}
