// SPDX-License-Identifier: BSD-3-Clause

package ecio

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReader_RejectsWithoutAcknowledgment(t *testing.T) {
	r := New(filepath.Join(t.TempDir(), "io"), func() bool { return false })

	_, err := r.ReadRegister(context.Background(), 0)
	assert.ErrorIs(t, err, ErrNotAcknowledged)

	err = r.WriteRegister(context.Background(), 0, 1)
	assert.ErrorIs(t, err, ErrNotAcknowledged)
}

func TestReader_ReadWriteRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "io")
	require.NoError(t, os.WriteFile(path, make([]byte, RegisterSpaceSize), 0o600))

	r := New(path, func() bool { return true })
	ctx := context.Background()

	require.NoError(t, r.WriteRegister(ctx, 10, 0x42))
	v, err := r.ReadRegister(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, byte(0x42), v)

	buf, err := r.ReadRange(ctx, 8, 4)
	require.NoError(t, err)
	assert.Len(t, buf, 4)
	assert.Equal(t, byte(0x42), buf[2])
}

func TestReader_OutOfRangeOffsetRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "io")
	require.NoError(t, os.WriteFile(path, make([]byte, RegisterSpaceSize), 0o600))
	r := New(path, func() bool { return true })
	ctx := context.Background()

	_, err := r.ReadRange(ctx, 250, 10)
	assert.ErrorIs(t, err, ErrOutOfRange)

	err = r.WriteRegister(ctx, 256, 1)
	assert.ErrorIs(t, err, ErrOutOfRange)
}
