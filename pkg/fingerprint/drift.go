// SPDX-License-Identifier: BSD-3-Clause

package fingerprint

import "github.com/hyperfan/hyperfand/pkg/model"

// DriftEntry records one binding whose resolved sysfs path moved since the
// last time its fingerprint hint was recorded.
type DriftEntry struct {
	ChipID   string
	Kind     string // "chip" or "channel"
	OldHint  string
	NewHint  string
}

// DriftReport is returned by Engine.Revalidate; LogValue flattens it into
// key/value pairs for a structured log line.
type DriftReport struct {
	Entries []DriftEntry
}

// LogValue lets the report attach cleanly to structured log lines.
func (r DriftReport) LogValue() []any {
	attrs := make([]any, 0, len(r.Entries)*2)
	for _, e := range r.Entries {
		attrs = append(attrs, e.Kind+":"+e.ChipID, e.OldHint+" -> "+e.NewHint)
	}
	return attrs
}

func recordChipDrift(report *DriftReport, stored *model.ChipFingerprint, resolvedPath string) {
	if stored.SysfsHint == resolvedPath {
		return
	}
	report.Entries = append(report.Entries, DriftEntry{
		ChipID: stored.ChipID, Kind: "chip", OldHint: stored.SysfsHint, NewHint: resolvedPath,
	})
	stored.SysfsHint = resolvedPath
}

func recordChannelDrift(report *DriftReport, stored *model.ChannelFingerprint, resolvedPath string) {
	if stored.SysfsHint == resolvedPath {
		return
	}
	report.Entries = append(report.Entries, DriftEntry{
		ChipID: stored.ChannelID, Kind: "channel", OldHint: stored.SysfsHint, NewHint: resolvedPath,
	})
	stored.SysfsHint = resolvedPath
}
