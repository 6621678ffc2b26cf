// SPDX-License-Identifier: BSD-3-Clause

package enumerate

import (
	"context"

	"github.com/hyperfan/hyperfand/pkg/sysfsgw"
)

// EnumerateIntel walks /sys/class/drm/card*/device/hwmon/hwmon*/ for Intel
// integrated and discrete GPU PWM and temperature nodes, using the same
// sysfs shape as EnumerateAMD but filtered to Intel's PCI vendor (0x8086).
func EnumerateIntel(ctx context.Context, gw *sysfsgw.Gateway) ([]GPUSnapshot, error) {
	return enumerateDRMVendor(ctx, gw, GPUVendorIntel, 0x8086)
}
