// SPDX-License-Identifier: BSD-3-Clause

package sysfsgw

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/hyperfan/hyperfand/pkg/pathguard"
)

// Gateway performs validated reads and writes against sysfs hwmon
// attributes. All five primitives revalidate their path against guard on
// every call.
type Gateway struct {
	guard *pathguard.Guard
}

// New builds a Gateway over the given path guard.
func New(guard *pathguard.Guard) *Gateway {
	return &Gateway{guard: guard}
}

// ReadTempMillideg reads a tempN_input attribute and returns millidegrees
// Celsius as-is (conversion to degrees happens in pkg/model).
func (g *Gateway) ReadTempMillideg(ctx context.Context, path string) (int32, error) {
	v, err := g.readInt(ctx, path)
	if err != nil {
		return 0, err
	}
	return int32(v), nil
}

// ReadFanRPM reads a fanN_input attribute.
func (g *Gateway) ReadFanRPM(ctx context.Context, path string) (uint32, error) {
	v, err := g.readInt(ctx, path)
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, fmt.Errorf("%w: %s: negative fan RPM %d", ErrParseError, path, v)
	}
	return uint32(v), nil
}

// ReadPWM reads a pwmN attribute, a byte in [0,255].
func (g *Gateway) ReadPWM(ctx context.Context, path string) (uint8, error) {
	v, err := g.readInt(ctx, path)
	if err != nil {
		return 0, err
	}
	if v < 0 || v > 255 {
		return 0, fmt.Errorf("%w: %s: pwm value %d out of range", ErrParseError, path, v)
	}
	return uint8(v), nil
}

// WritePWM writes a pwmN attribute's duty cycle.
func (g *Gateway) WritePWM(ctx context.Context, path string, value uint8) error {
	return g.writeInt(ctx, path, int(value))
}

// SetPWMEnable writes a pwmN_enable attribute. mode must be 0 (disabled),
// 1 (manual), or 2 (automatic).
func (g *Gateway) SetPWMEnable(ctx context.Context, path string, mode int) error {
	if mode != 0 && mode != 1 && mode != 2 {
		return fmt.Errorf("%w: %d", ErrInvalidEnableMode, mode)
	}
	return g.writeInt(ctx, path, mode)
}

func (g *Gateway) readInt(ctx context.Context, path string) (int, error) {
	validPath, err := g.guard.Validate(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrInvalidPath, path, err)
	}

	type result struct {
		value int
		err   error
	}
	done := make(chan result, 1)

	go func() {
		data, err := os.ReadFile(validPath)
		if err != nil {
			done <- result{0, fmt.Errorf("%w: %s: %w", ErrIOError, validPath, err)}
			return
		}
		v, err := strconv.Atoi(strings.TrimSpace(string(data)))
		if err != nil {
			done <- result{0, fmt.Errorf("%w: %s: %w", ErrParseError, validPath, err)}
			return
		}
		done <- result{v, nil}
	}()

	select {
	case r := <-done:
		return r.value, r.err
	case <-ctx.Done():
		return 0, fmt.Errorf("%w: %w", ErrOperationTimeout, ctx.Err())
	}
}

func (g *Gateway) writeInt(ctx context.Context, path string, value int) error {
	validPath, err := g.guard.Validate(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidPath, path, err)
	}

	done := make(chan error, 1)

	go func() {
		data := []byte(strconv.Itoa(value))
		if err := os.WriteFile(validPath, data, 0o644); err != nil {
			done <- fmt.Errorf("%w: %s: %w", ErrIOError, validPath, err)
			return
		}
		done <- nil
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", ErrOperationTimeout, ctx.Err())
	}
}
