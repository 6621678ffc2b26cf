// SPDX-License-Identifier: BSD-3-Clause

package enumerate

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hyperfan/hyperfand/pkg/sysfsgw"
)

// PlatformEnumerator is the OS-specific chip enumerator: LinuxEnumerator or
// BSDEnumerator.
type PlatformEnumerator interface {
	Enumerate(ctx context.Context) ([]ChipSnapshot, error)
}

// Gather runs the platform enumerator and every GPU vendor backend,
// combining the results into one Snapshot. A vendor backend's failure is
// logged and treated as "no GPUs from that vendor", never as a fatal error
// for the overall pass (spec.md §4.2).
func Gather(ctx context.Context, platform PlatformEnumerator, gw *sysfsgw.Gateway, logger *slog.Logger) (Snapshot, error) {
	chips, err := platform.Enumerate(ctx)
	if err != nil {
		return Snapshot{}, err
	}

	var gpus []GPUSnapshot
	gpus = append(gpus, gatherVendor(ctx, logger, "amd", func() ([]GPUSnapshot, error) { return EnumerateAMD(ctx, gw) })...)
	gpus = append(gpus, gatherVendor(ctx, logger, "intel", func() ([]GPUSnapshot, error) { return EnumerateIntel(ctx, gw) })...)
	gpus = append(gpus, gatherVendor(ctx, logger, "nvidia", func() ([]GPUSnapshot, error) { return EnumerateNVIDIA(ctx) })...)

	return Snapshot{Chips: chips, GPUs: gpus}, nil
}

func gatherVendor(ctx context.Context, logger *slog.Logger, vendor string, fn func() ([]GPUSnapshot, error)) []GPUSnapshot {
	snaps, err := fn()
	if err != nil && !errors.Is(err, ErrVendorUnavailable) {
		if logger != nil {
			logger.WarnContext(ctx, "gpu vendor enumeration failed", "vendor", vendor, "error", err)
		}
		return nil
	}
	return snaps
}
