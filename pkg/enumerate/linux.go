// SPDX-License-Identifier: BSD-3-Clause

package enumerate

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/hyperfan/hyperfand/pkg/model"
	"github.com/hyperfan/hyperfand/pkg/sysfsgw"
)

// DefaultHwmonRoot is the standard Linux hwmon class directory.
const DefaultHwmonRoot = "/sys/class/hwmon"

var (
	tempInputRe = regexp.MustCompile(`^temp([0-9]+)_input$`)
	fanInputRe  = regexp.MustCompile(`^fan([0-9]+)_input$`)
	pwmRe       = regexp.MustCompile(`^pwm([0-9]+)$`)
)

// LinuxEnumerator walks /sys/class/hwmon.
type LinuxEnumerator struct {
	root string
	gw   *sysfsgw.Gateway
}

// NewLinuxEnumerator builds an enumerator rooted at root (DefaultHwmonRoot
// in production, a fixture directory in tests).
func NewLinuxEnumerator(root string, gw *sysfsgw.Gateway) *LinuxEnumerator {
	return &LinuxEnumerator{root: root, gw: gw}
}

// Enumerate walks the hwmon tree and returns one ChipSnapshot per hwmon
// node. A node that can't be read at all is skipped, not fatal.
func (e *LinuxEnumerator) Enumerate(ctx context.Context) ([]ChipSnapshot, error) {
	entries, err := os.ReadDir(e.root)
	if err != nil {
		// Whole-platform unavailability (e.g. no hwmon support compiled in)
		// is an empty snapshot, not an error.
		return nil, nil
	}

	var snaps []ChipSnapshot
	for _, entry := range entries {
		nodePath := filepath.Join(e.root, entry.Name())
		snap, ok := e.enumerateNode(ctx, nodePath)
		if ok {
			snaps = append(snaps, snap)
		}
	}
	return snaps, nil
}

func (e *LinuxEnumerator) enumerateNode(ctx context.Context, nodePath string) (ChipSnapshot, bool) {
	nameBytes, err := os.ReadFile(filepath.Join(nodePath, "name"))
	if err != nil {
		return ChipSnapshot{}, false
	}
	name := strings.TrimSpace(string(nameBytes))

	canonical, err := filepath.EvalSymlinks(nodePath)
	if err != nil {
		canonical = nodePath
	}

	chip := model.Chip{
		ID:        uuid.NewString(),
		Name:      name,
		SysfsPath: canonical,
		Class:     classifyChip(canonical, name),
	}
	chip.Hardware, chip.Firmware, chip.Driver = inspectAnchors(canonical)

	siblings, err := os.ReadDir(nodePath)
	if err != nil {
		return ChipSnapshot{}, false
	}

	var filenames []string
	for _, s := range siblings {
		filenames = append(filenames, s.Name())
	}
	sort.Strings(filenames)

	channels := e.enumerateChannels(ctx, chip.ID, nodePath, filenames)
	if len(channels) == 0 {
		return ChipSnapshot{}, false
	}

	return ChipSnapshot{Chip: chip, Channels: channels}, true
}

func (e *LinuxEnumerator) enumerateChannels(ctx context.Context, chipID, nodePath string, filenames []string) []ChannelValue {
	temps := indicesMatching(filenames, tempInputRe)
	fans := indicesMatching(filenames, fanInputRe)
	pwms := indicesMatching(filenames, pwmRe)

	var out []ChannelValue
	for _, idx := range temps {
		ch := e.buildChannel(chipID, model.ChannelTypeTemp, idx, nodePath, filenames)
		v, err := e.gw.ReadTempMillideg(ctx, filepath.Join(nodePath, "temp"+strconv.Itoa(idx)+"_input"))
		tv := model.TemperatureValue{Fault: err != nil}
		if err == nil {
			tv.Celsius = float64(v) / 1000.0
		}
		out = append(out, ChannelValue{Channel: ch, Temp: tv})
	}
	for _, idx := range fans {
		ch := e.buildChannel(chipID, model.ChannelTypeFanTach, idx, nodePath, filenames)
		v, err := e.gw.ReadFanRPM(ctx, filepath.Join(nodePath, "fan"+strconv.Itoa(idx)+"_input"))
		fv := model.FanValue{Fault: err != nil}
		if err == nil {
			fv.RPM = int(v)
		}
		out = append(out, ChannelValue{Channel: ch, Fan: fv})
	}
	for _, idx := range pwms {
		ch := e.buildChannel(chipID, model.ChannelTypePWMOut, idx, nodePath, filenames)
		v, err := e.gw.ReadPWM(ctx, filepath.Join(nodePath, "pwm"+strconv.Itoa(idx)))
		pv := model.PWMValue{}
		if err == nil {
			pv = model.PWMFromRaw(v)
		}
		out = append(out, ChannelValue{Channel: ch, PWM: pv})
	}
	return out
}

func (e *LinuxEnumerator) buildChannel(chipID string, typ model.ChannelType, idx int, nodePath string, filenames []string) model.Channel {
	prefix := channelPrefix(typ) + strconv.Itoa(idx)

	ch := model.Channel{
		ID:                   uuid.NewString(),
		ChipID:               chipID,
		Type:                 typ,
		Index:                idx,
		SysfsPath:            filepath.Join(nodePath, prefix),
		AttributeFingerprint: siblingAttributes(filenames, prefix),
	}

	if label, err := os.ReadFile(filepath.Join(nodePath, prefix+"_label")); err == nil {
		ch.Label = strings.TrimSpace(string(label))
	}

	if typ == model.ChannelTypePWMOut {
		ch.Capabilities.Writable = true
		if _, err := os.Stat(filepath.Join(nodePath, prefix+"_enable")); err == nil {
			ch.Capabilities.HasEnable = true
			ch.Capabilities.EnableModes = []int{0, 1, 2}
		}
		ch.Authority = model.AuthorityUnknown
		ch.Fallback = model.DefaultSafeFallback()
	} else {
		ch.Capabilities.Readable = true
	}

	return ch
}

func channelPrefix(typ model.ChannelType) string {
	switch typ {
	case model.ChannelTypeTemp:
		return "temp"
	case model.ChannelTypeFanTach:
		return "fan"
	case model.ChannelTypePWMOut:
		return "pwm"
	default:
		return ""
	}
}

// siblingAttributes returns every sibling file sharing prefix (e.g. all of
// temp1_input, temp1_label, temp1_max, temp1_crit, temp1_alarm for prefix
// "temp1"), sorted. This is the channel's attribute fingerprint.
func siblingAttributes(filenames []string, prefix string) []string {
	var out []string
	for _, f := range filenames {
		if f == prefix || strings.HasPrefix(f, prefix+"_") {
			out = append(out, f)
		}
	}
	sort.Strings(out)
	return out
}

func indicesMatching(filenames []string, re *regexp.Regexp) []int {
	seen := map[int]bool{}
	var out []int
	for _, f := range filenames {
		m := re.FindStringSubmatch(f)
		if m == nil {
			continue
		}
		idx, err := strconv.Atoi(m[1])
		if err != nil || seen[idx] {
			continue
		}
		seen[idx] = true
		out = append(out, idx)
	}
	sort.Ints(out)
	return out
}

// classifyChip makes a best-effort guess at a chip's class from its name and
// canonical path. This is a hint for display purposes; fingerprinting
// identity never depends on it.
func classifyChip(canonicalPath, name string) model.ChipClass {
	switch {
	case strings.Contains(canonicalPath, "/gpu") || strings.Contains(name, "amdgpu") || strings.Contains(name, "nvidia"):
		return model.ChipClassGPU
	case strings.Contains(canonicalPath, "thermal_zone"):
		return model.ChipClassThermalZone
	case strings.Contains(canonicalPath, "platform"):
		return model.ChipClassPlatform
	case strings.HasPrefix(name, "nct") || strings.HasPrefix(name, "it87") || strings.HasPrefix(name, "w83") || strings.HasPrefix(name, "f71"):
		return model.ChipClassSuperIO
	case strings.Contains(name, "ec"):
		return model.ChipClassEC
	default:
		return model.ChipClassUnknown
	}
}
