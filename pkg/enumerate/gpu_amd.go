// SPDX-License-Identifier: BSD-3-Clause

package enumerate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hyperfan/hyperfand/pkg/model"
	"github.com/hyperfan/hyperfand/pkg/sysfsgw"
)

// amdCardRoot is the sysfs root under which AMD GPU cards expose their
// hwmon directories; overridable in tests.
var amdCardRoot = "/sys/class/drm"

// EnumerateAMD walks /sys/class/drm/card*/device/hwmon/hwmon*/ for AMD GPU
// PWM and temperature nodes. AMD and Intel share the same sysfs shape
// (pwm1/pwm1_enable under the card's hwmon directory); EnumerateAMD only
// claims cards whose vendor ID matches AMD's PCI vendor (0x1002).
func EnumerateAMD(ctx context.Context, gw *sysfsgw.Gateway) ([]GPUSnapshot, error) {
	return enumerateDRMVendor(ctx, gw, GPUVendorAMD, 0x1002)
}

func enumerateDRMVendor(ctx context.Context, gw *sysfsgw.Gateway, vendor GPUVendor, pciVendorID uint64) ([]GPUSnapshot, error) {
	entries, err := os.ReadDir(amdCardRoot)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrVendorUnavailable, amdCardRoot, err)
	}

	var cardNames []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "card") && !strings.Contains(e.Name(), "-") {
			cardNames = append(cardNames, e.Name())
		}
	}
	sort.Strings(cardNames)

	var snaps []GPUSnapshot
	index := 0
	for _, card := range cardNames {
		devDir := filepath.Join(amdCardRoot, card, "device")
		if readHexFile(filepath.Join(devDir, "vendor")) != pciVendorID {
			continue
		}

		hwmonDir, ok := findHwmonChild(filepath.Join(devDir, "hwmon"))
		if !ok {
			continue
		}

		snap := GPUSnapshot{Vendor: vendor, Index: index, Name: card}
		if v, err := gw.ReadTempMillideg(ctx, filepath.Join(hwmonDir, "temp1_input")); err == nil {
			t := model.TemperatureValue{Celsius: float64(v) / 1000.0}
			snap.TempCelsius = &t
		}

		virtualPWM := fmt.Sprintf("%s:%d:0", vendor, index)
		pwm := GPUFan{Index: 0, VirtualPWM: virtualPWM}
		if v, err := gw.ReadPWM(ctx, filepath.Join(hwmonDir, "pwm1")); err == nil {
			pwm.PWM = model.PWMFromRaw(v)
		}
		snap.Fans = []GPUFan{pwm}

		snaps = append(snaps, snap)
		index++
	}
	return snaps, nil
}

func findHwmonChild(hwmonParent string) (string, bool) {
	entries, err := os.ReadDir(hwmonParent)
	if err != nil || len(entries) == 0 {
		return "", false
	}
	return filepath.Join(hwmonParent, entries[0].Name()), true
}

// ResolveDRMVendorPWMPath re-walks the DRM card tree to find the pwm1 sysfs
// path backing a virtual GPU path's index, for the given vendor. Used by
// SetGPUFan/ResetGPUFanAuto handlers to turn "amd:0:0" back into a real
// path; re-walking rather than caching keeps this correct across card
// hot-unplug without a separate invalidation path.
func ResolveDRMVendorPWMPath(vendor GPUVendor, index int, pciVendorID uint64) (string, error) {
	entries, err := os.ReadDir(amdCardRoot)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrVendorUnavailable, amdCardRoot, err)
	}

	var cardNames []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "card") && !strings.Contains(e.Name(), "-") {
			cardNames = append(cardNames, e.Name())
		}
	}
	sort.Strings(cardNames)

	found := 0
	for _, card := range cardNames {
		devDir := filepath.Join(amdCardRoot, card, "device")
		if readHexFile(filepath.Join(devDir, "vendor")) != pciVendorID {
			continue
		}
		hwmonDir, ok := findHwmonChild(filepath.Join(devDir, "hwmon"))
		if !ok {
			continue
		}
		if found == index {
			return filepath.Join(hwmonDir, "pwm1"), nil
		}
		found++
	}
	return "", fmt.Errorf("%w: %s gpu index %d", ErrVendorUnavailable, vendor, index)
}

