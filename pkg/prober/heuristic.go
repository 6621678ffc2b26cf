// SPDX-License-Identifier: BSD-3-Clause

package prober

import (
	"path/filepath"
	"regexp"
)

// Heuristic fallback confidence caps, used when active probing can't run
// (no write permission) or yielded zero mappings.
const (
	HeuristicIndexConfidence      = 0.9
	HeuristicPositionalConfidence = 0.7
	LabelPrefixBonusLong          = 0.15 // label prefix match >= 3 chars
	LabelPrefixBonusShort         = 0.08 // label prefix match >= 2 chars
)

var trailingNumberRe = regexp.MustCompile(`([0-9]+)$`)

// HeuristicFallback pairs PWM and fan channels by trailing numeric index
// within the same chip (pwm1<->fan1), applying label-prefix bonuses and
// clamping to the index-match or positional-fallback confidence cap.
func HeuristicFallback(pwms []PWMChannel, fans []FanChannel) []Mapping {
	fanByIndex := make(map[string]FanChannel)
	for _, f := range fans {
		if idx := trailingIndex(f.Path); idx != "" {
			fanByIndex[filepath.Dir(f.Path)+"|"+idx] = f
		}
	}

	usedFans := make(map[string]bool)
	var result []Mapping

	for _, pwm := range pwms {
		idx := trailingIndex(pwm.Path)
		if idx == "" {
			continue
		}
		fan, ok := fanByIndex[filepath.Dir(pwm.Path)+"|"+idx]
		if !ok || usedFans[fan.ID] {
			continue
		}
		usedFans[fan.ID] = true
		confidence := HeuristicIndexConfidence + labelPrefixBonus(pwm.Label, fan.Label)
		if confidence > 1.0 {
			confidence = 1.0
		}
		result = append(result, Mapping{
			PWMChannelID: pwm.ID,
			FanChannelID: fan.ID,
			Confidence:   confidence,
			Heuristic:    true,
		})
	}

	if len(result) > 0 {
		return result
	}

	// Positional fallback: pair remaining PWMs and fans in declaration order.
	for i := 0; i < len(pwms) && i < len(fans); i++ {
		confidence := HeuristicPositionalConfidence + labelPrefixBonus(pwms[i].Label, fans[i].Label)
		if confidence > HeuristicIndexConfidence {
			confidence = HeuristicIndexConfidence
		}
		result = append(result, Mapping{
			PWMChannelID: pwms[i].ID,
			FanChannelID: fans[i].ID,
			Confidence:   confidence,
			Heuristic:    true,
		})
	}
	return result
}

func trailingIndex(path string) string {
	m := trailingNumberRe.FindStringSubmatch(path)
	if m == nil {
		return ""
	}
	return m[1]
}

// labelPrefixBonus rewards PWM/fan label agreement when an index match
// alone can't distinguish two plausible pairings.
func labelPrefixBonus(pwmLabel, fanLabel string) float64 {
	n := commonPrefixLen(pwmLabel, fanLabel)
	switch {
	case n >= 3:
		return LabelPrefixBonusLong
	case n >= 2:
		return LabelPrefixBonusShort
	default:
		return 0
	}
}

func commonPrefixLen(a, b string) int {
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}
	return n
}
