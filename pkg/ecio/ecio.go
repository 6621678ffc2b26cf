// SPDX-License-Identifier: BSD-3-Clause

package ecio

import (
	"context"
	"fmt"
	"os"
)

// DefaultIOPath is the standard ec_sys debugfs node on Linux once the
// ec_sys module is loaded with write_support=1.
const DefaultIOPath = "/sys/kernel/debug/ec/ec0/io"

// RegisterSpaceSize is the EC's addressable register count on every
// embedded controller this package has been run against.
const RegisterSpaceSize = 256

// Reader performs gated, context-aware reads and writes against an EC's
// raw register space. Every call checks Acknowledged before touching the
// filesystem; there is no bypass.
type Reader struct {
	path         string
	acknowledged func() bool
}

// New builds a Reader over path (DefaultIOPath for the standard case).
// acknowledged is consulted on every call so a live settings toggle takes
// effect immediately, without reconstructing the Reader.
func New(path string, acknowledged func() bool) *Reader {
	return &Reader{path: path, acknowledged: acknowledged}
}

// Path returns the debugfs node this Reader was constructed over.
func (r *Reader) Path() string { return r.path }

// Acknowledged reports whether direct register access is currently
// permitted, per the operator's persisted risk acknowledgment.
func (r *Reader) Acknowledged() bool { return r.acknowledged() }

// ReadRegister reads one byte at offset.
func (r *Reader) ReadRegister(ctx context.Context, offset int) (byte, error) {
	buf, err := r.ReadRange(ctx, offset, 1)
	if err != nil {
		return 0, err
	}
	return buf[0], nil
}

// ReadRange reads count bytes starting at offset. count must be in
// [1,64] (spec.md §4.7's EC register-range count bound); callers validate
// that before calling in, this only bounds against the register space
// itself.
func (r *Reader) ReadRange(ctx context.Context, offset, count int) ([]byte, error) {
	if !r.acknowledged() {
		return nil, ErrNotAcknowledged
	}
	if offset < 0 || count < 1 || offset+count > RegisterSpaceSize {
		return nil, fmt.Errorf("%w: offset %d count %d", ErrOutOfRange, offset, count)
	}

	type result struct {
		data []byte
		err  error
	}
	done := make(chan result, 1)

	go func() {
		f, err := os.OpenFile(r.path, os.O_RDONLY, 0)
		if err != nil {
			done <- result{nil, fmt.Errorf("%w: %w", ErrIOError, err)}
			return
		}
		defer f.Close()

		buf := make([]byte, count)
		if _, err := f.ReadAt(buf, int64(offset)); err != nil {
			done <- result{nil, fmt.Errorf("%w: %w", ErrIOError, err)}
			return
		}
		done <- result{buf, nil}
	}()

	select {
	case r := <-done:
		return r.data, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// WriteRegister writes one byte at offset. The caller is responsible for
// knowing what register it is overwriting; this package performs no
// semantic validation beyond the offset bound.
func (r *Reader) WriteRegister(ctx context.Context, offset int, value byte) error {
	if !r.acknowledged() {
		return ErrNotAcknowledged
	}
	if offset < 0 || offset >= RegisterSpaceSize {
		return fmt.Errorf("%w: offset %d", ErrOutOfRange, offset)
	}

	done := make(chan error, 1)
	go func() {
		f, err := os.OpenFile(r.path, os.O_WRONLY, 0)
		if err != nil {
			done <- fmt.Errorf("%w: %w", ErrIOError, err)
			return
		}
		defer f.Close()

		if _, err := f.WriteAt([]byte{value}, int64(offset)); err != nil {
			done <- fmt.Errorf("%w: %w", ErrIOError, err)
			return
		}
		done <- nil
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
