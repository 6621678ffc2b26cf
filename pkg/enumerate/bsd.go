// SPDX-License-Identifier: BSD-3-Clause

//go:build freebsd || openbsd || netbsd || dragonfly

package enumerate

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/lorenzosaino/go-sysctl"
	"github.com/hyperfan/hyperfand/pkg/model"
)

// sysctlTreeReader is the subset of the go-sysctl package API the
// enumerator needs; it is a var so tests can substitute a fixture reader.
var sysctlTreeReader = sysctl.GetTree

// sensorTrees are the sysctl roots the BSD enumerator scans, in the order
// given in the data model: per-CPU temperature, ACPI thermal zones, and the
// generic hardware sensors framework (hw.sensors.* on OpenBSD/NetBSD).
var sensorTrees = []string{
	"dev.cpu",
	"hw.acpi.thermal",
	"hw.sensors",
}

// BSDEnumerator reads BSD sysctl trees. Sensor keys are modeled as an
// opaque path string (the dotted sysctl name) so validation and I/O share
// one code path with the Linux sysfs gateway; the allowlist is the only
// platform-specific variation point.
type BSDEnumerator struct{}

// NewBSDEnumerator builds an enumerator over the live sysctl namespace.
func NewBSDEnumerator() *BSDEnumerator {
	return &BSDEnumerator{}
}

// Enumerate reads every configured sensor tree and groups keys into
// synthetic per-tree chips, since BSD sysctl sensors don't group into
// hwmon-style device directories the way Linux does.
func (e *BSDEnumerator) Enumerate(ctx context.Context) ([]ChipSnapshot, error) {
	var snaps []ChipSnapshot
	for _, tree := range sensorTrees {
		snap, ok := e.enumerateTree(tree)
		if ok {
			snaps = append(snaps, snap)
		}
	}
	return snaps, nil
}

func (e *BSDEnumerator) enumerateTree(tree string) (ChipSnapshot, bool) {
	entries, err := sysctlTreeReader(tree)
	if err != nil || len(entries) == 0 {
		return ChipSnapshot{}, false
	}

	chip := model.Chip{
		ID:        uuid.NewString(),
		Name:      tree,
		SysfsPath: tree,
		Class:     model.ChipClassThermalZone,
		Hardware:  model.Anchor{Kind: model.AnchorKindPlatform, PlatformID: tree},
	}

	var keys []string
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var channels []ChannelValue
	idx := 0
	for _, key := range keys {
		raw := entries[key]
		temp, ok := parseSysctlTempC(raw)
		if !ok {
			continue
		}
		ch := model.Channel{
			ID:        uuid.NewString(),
			ChipID:    chip.ID,
			Type:      model.ChannelTypeTemp,
			Index:     idx,
			Label:     key,
			SysfsPath: key,
			AttributeFingerprint: []string{key},
			Capabilities: model.Capabilities{Readable: true},
		}
		channels = append(channels, ChannelValue{Channel: ch, Temp: model.TemperatureValue{Celsius: temp}})
		idx++
	}

	if len(channels) == 0 {
		return ChipSnapshot{}, false
	}
	return ChipSnapshot{Chip: chip, Channels: channels}, true
}

// parseSysctlTempC parses the handful of value encodings BSD sysctl sensor
// trees use for temperature: a bare float in Celsius (hw.sensors.*), or a
// tenths-of-a-degree integer (dev.cpu.*.temperature, hw.acpi.thermal.*).
func parseSysctlTempC(raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	if strings.HasSuffix(raw, "C") {
		v, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(raw), "C"), 64)
		return v, err == nil
	}
	if v, err := strconv.ParseFloat(raw, 64); err == nil {
		if v > 200 {
			return v / 10.0, true
		}
		return v, true
	}
	return 0, false
}
