// SPDX-License-Identifier: BSD-3-Clause

package enumerate

import "github.com/hyperfan/hyperfand/pkg/model"

// ChannelValue pairs a Channel with its instantaneous reading. Exactly one
// of the typed value fields is populated, matching Channel.Type.
type ChannelValue struct {
	Channel model.Channel
	Temp    model.TemperatureValue
	Fan     model.FanValue
	PWM     model.PWMValue
}

// ChipSnapshot is one enumerated chip together with its channels' current
// values.
type ChipSnapshot struct {
	Chip     model.Chip
	Channels []ChannelValue
}

// GPUVendor identifies which backend produced a GPUSnapshot.
type GPUVendor string

const (
	GPUVendorAMD    GPUVendor = "amd"
	GPUVendorIntel  GPUVendor = "intel"
	GPUVendorNVIDIA GPUVendor = "nvidia"
)

// GPUFan is one controllable fan on a GPU, addressed by the virtual path
// scheme "<vendor>:<gpuIndex>:<fanIndex>".
type GPUFan struct {
	Index      int
	VirtualPWM string // e.g. "amd:0:0", "nvidia:0:1"
	PWM        model.PWMValue
	RPM        *model.FanValue // nil if the vendor surface has no tach readback
}

// GPUSnapshot is one enumerated GPU and its controllable fans.
type GPUSnapshot struct {
	Vendor      GPUVendor
	Index       int
	Name        string
	TempCelsius *model.TemperatureValue // nil if unavailable
	Fans        []GPUFan
}

// Snapshot is the full result of one enumeration pass.
type Snapshot struct {
	Chips []ChipSnapshot
	GPUs  []GPUSnapshot
}
