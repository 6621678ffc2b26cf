// SPDX-License-Identifier: BSD-3-Clause

//go:build !linux

package persistence

import (
	"fmt"
	"os"
	"path/filepath"
)

// MaxConfigFileSize is the size cap enforced on every on-disk config file.
const MaxConfigFileSize = 1 << 20 // 1 MiB

// AtomicWriteFile replaces filename's contents atomically via write-tmp,
// fsync, rename. BSD targets use a plain os.Rename, which, like the Linux
// path's flagless Renameat2, replaces any existing file; the daemon is the
// sole writer of its own config tree.
func AtomicWriteFile(filename string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("%w: %w", ErrTemporaryFileCreation, err)
	}

	tmpfile, err := os.CreateTemp(dir, fmt.Sprintf(".%s.tmp.*", filepath.Base(filename)))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTemporaryFileCreation, err)
	}
	tmpname := tmpfile.Name()

	succeeded := false
	defer func() {
		if !succeeded {
			_ = os.Remove(tmpname)
		}
	}()

	if _, err := tmpfile.Write(data); err != nil {
		_ = tmpfile.Close()
		return fmt.Errorf("%w: %w", ErrTemporaryFileWrite, err)
	}
	if err := tmpfile.Sync(); err != nil {
		_ = tmpfile.Close()
		return fmt.Errorf("%w: %w", ErrTemporaryFileWrite, err)
	}
	if err := tmpfile.Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrTemporaryFileClose, err)
	}
	if err := os.Chmod(tmpname, perm); err != nil {
		return fmt.Errorf("%w: %w", ErrTemporaryFileChmod, err)
	}

	if err := os.Rename(tmpname, filename); err != nil {
		return fmt.Errorf("%w: %w", ErrAtomicRename, err)
	}
	succeeded = true
	return nil
}

// ReadFileCapped reads filename, tolerating a missing file by returning
// (nil, false, nil), and rejecting anything over MaxConfigFileSize.
func ReadFileCapped(filename string) ([]byte, bool, error) {
	info, err := os.Stat(filename)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if info.Size() > MaxConfigFileSize {
		return nil, false, fmt.Errorf("%w: %s is %d bytes", ErrFileTooLarge, filename, info.Size())
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}
