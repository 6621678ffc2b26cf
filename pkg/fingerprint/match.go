// SPDX-License-Identifier: BSD-3-Clause

package fingerprint

import (
	"sort"
	"time"

	"github.com/hyperfan/hyperfand/pkg/enumerate"
	"github.com/hyperfan/hyperfand/pkg/model"
)

// StalenessWindow is how old a fingerprint (measured from its FrozenAt) may
// be before a now-missing chip is declared Unsafe outright, with no
// label-based rebind attempted.
const StalenessWindow = 30 * 24 * time.Hour

// MatchResult is the outcome of matching one stored ChipFingerprint against
// a Snapshot.
type MatchResult struct {
	Chip          model.Chip
	Confidence    float64
	State         model.ValidationState
	RebindByLabel bool
}

// MatchChip runs the match algorithm: score stored against every candidate
// chip in the snapshot, accept the argmax if it clears both the absolute
// floor and the margin over the runner-up. Ties are broken by tier-1
// contribution, then lexicographic canonical path.
func MatchChip(stored model.ChipFingerprint, candidates []enumerate.ChipSnapshot, now time.Time) (MatchResult, error) {
	type scored struct {
		chip       model.Chip
		confidence float64
		tier1      float64
	}

	var all []scored
	for _, c := range candidates {
		conf, tier1 := chipConfidence(stored, c.Chip)
		all = append(all, scored{chip: c.Chip, confidence: conf, tier1: tier1})
	}

	sort.Slice(all, func(i, j int) bool {
		if all[i].confidence != all[j].confidence {
			return all[i].confidence > all[j].confidence
		}
		if all[i].tier1 != all[j].tier1 {
			return all[i].tier1 > all[j].tier1
		}
		return all[i].chip.SysfsPath < all[j].chip.SysfsPath
	})

	if len(all) == 0 {
		return staleOrNotFound(stored, now)
	}

	best := all[0]
	if best.confidence <= MatchAcceptFloor {
		return staleOrNotFound(stored, now)
	}
	if len(all) > 1 && best.confidence-all[1].confidence <= MatchAcceptMargin {
		return staleOrNotFound(stored, now)
	}

	return MatchResult{Chip: best.chip, Confidence: best.confidence, State: StateForConfidence(best.confidence)}, nil
}

func staleOrNotFound(stored model.ChipFingerprint, now time.Time) (MatchResult, error) {
	if now.Sub(stored.FrozenAt) > StalenessWindow {
		return MatchResult{State: model.ValidationUnsafe}, ErrStale
	}
	return MatchResult{}, ErrNotFound
}

// MatchChannel runs channel matching within an already-accepted chip.
func MatchChannel(stored model.ChannelFingerprint, candidates []enumerate.ChannelValue, chipConfidence float64) (model.Channel, float64, bool) {
	var best model.Channel
	bestScore := -1.0
	found := false

	for _, cv := range candidates {
		if cv.Channel.Type != stored.Type {
			continue
		}
		score := channelConfidence(stored, cv.Channel, chipConfidence)
		if score > bestScore {
			bestScore = score
			best = cv.Channel
			found = true
		}
	}

	return best, bestScore, found
}

// RebindByLabel implements the label-based rebind fallback: when anchor
// matching fails outright but the chip's driver/DMI anchors still match and
// exactly one channel on it shares the stored channel's firmware label,
// accept the rebind at a capped confidence.
func RebindByLabel(stored model.ChannelFingerprint, storedChip model.ChipFingerprint, chip model.Chip, candidates []enumerate.ChannelValue) (model.Channel, float64, bool) {
	if stored.Label == "" {
		return model.Channel{}, 0, false
	}
	if storedChip.Driver.DriverName != "" && storedChip.Driver.DriverName != chip.Driver.DriverName {
		return model.Channel{}, 0, false
	}
	if storedChip.Firmware.BoardName != "" && storedChip.Firmware.BoardName != chip.Firmware.BoardName {
		return model.Channel{}, 0, false
	}

	var matches []model.Channel
	for _, cv := range candidates {
		if cv.Channel.Type == stored.Type && cv.Channel.Label == stored.Label {
			matches = append(matches, cv.Channel)
		}
	}
	if len(matches) != 1 {
		return model.Channel{}, 0, false
	}
	return matches[0], LabelRebindConfidence, true
}
