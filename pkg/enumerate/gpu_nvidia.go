// SPDX-License-Identifier: BSD-3-Clause

package enumerate

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/hyperfan/hyperfand/pkg/model"
)

// nvidiaSettingsBinary is the helper binary NVIDIA control shells out to;
// overridable in tests.
var nvidiaSettingsBinary = "nvidia-settings"

// EnumerateNVIDIA shells out to nvidia-settings to discover GPUs and their
// controllable fans. Absence of the binary, or a non-zero exit, is treated
// as vendor unavailability: callers skip NVIDIA and continue enumerating
// other backends.
//
// NVIDIA multi-fan control on some Ampere+ cards requires a per-fan query
// rather than assuming every GPU exposes exactly one fan, so each GPU's fan
// count is probed individually via GPUCurrentFanSpeed before committing to
// a fan index.
func EnumerateNVIDIA(ctx context.Context) ([]GPUSnapshot, error) {
	gpuCount, err := queryNVIDIAGPUCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrVendorUnavailable, err)
	}

	var snaps []GPUSnapshot
	for gpu := 0; gpu < gpuCount; gpu++ {
		snap := GPUSnapshot{Vendor: GPUVendorNVIDIA, Index: gpu}

		if tempC, ok := queryNVIDIAQuery(ctx, fmt.Sprintf("[gpu:%d]/GPUCoreTemp", gpu)); ok {
			if v, err := strconv.ParseFloat(tempC, 64); err == nil {
				t := model.TemperatureValue{Celsius: v}
				snap.TempCelsius = &t
			}
		}

		for fan := 0; fan < maxNVIDIAFanProbe; fan++ {
			speedStr, ok := queryNVIDIAQuery(ctx, fmt.Sprintf("[fan:%d]/GPUCurrentFanSpeed", fan))
			if !ok {
				break
			}
			pct, err := strconv.ParseFloat(speedStr, 64)
			if err != nil {
				break
			}
			snap.Fans = append(snap.Fans, GPUFan{
				Index:      fan,
				VirtualPWM: fmt.Sprintf("nvidia:%d:%d", gpu, fan),
				PWM:        model.PWMFromPercent(pct),
			})
		}

		snaps = append(snaps, snap)
	}
	return snaps, nil
}

// maxNVIDIAFanProbe bounds the per-GPU fan probe; no shipping card exposes
// more controllable fans than this.
const maxNVIDIAFanProbe = 8

func queryNVIDIAGPUCount(ctx context.Context) (int, error) {
	out, ok := queryNVIDIAQuery(ctx, "gpus")
	if !ok {
		return 0, fmt.Errorf("nvidia-settings did not report a GPU count")
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	return len(lines), nil
}

// queryNVIDIAQuery runs `nvidia-settings -t -q <attr>` and returns its
// trimmed stdout. ok is false on any error (binary missing, non-zero exit,
// unparseable attribute) — the caller treats that as "not available", never
// as a fatal error.
func queryNVIDIAQuery(ctx context.Context, attr string) (string, bool) {
	cmd := exec.CommandContext(ctx, nvidiaSettingsBinary, "-t", "-q", attr)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		return "", false
	}
	return strings.TrimSpace(stdout.String()), true
}

// SetNVIDIAFan applies a target fan speed percentage via nvidia-settings.
func SetNVIDIAFan(ctx context.Context, gpu, fan int, percent float64) error {
	cmd := exec.CommandContext(ctx, nvidiaSettingsBinary, "-a",
		fmt.Sprintf("[gpu:%d]/GPUFanControlState=1", gpu),
		"-a", fmt.Sprintf("[fan:%d]/GPUTargetFanSpeed=%d", fan, int(percent+0.5)))
	return cmd.Run()
}

// ResetNVIDIAFanAuto hands fan control back to the GPU's firmware.
func ResetNVIDIAFanAuto(ctx context.Context, gpu int) error {
	cmd := exec.CommandContext(ctx, nvidiaSettingsBinary, "-a", fmt.Sprintf("[gpu:%d]/GPUFanControlState=0", gpu))
	return cmd.Run()
}
