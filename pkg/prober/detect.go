// SPDX-License-Identifier: BSD-3-Clause

package prober

import (
	"context"
	"sort"
	"time"

	"github.com/hyperfan/hyperfand/pkg/sysfsgw"
)

// PWMChannel is the subset of a writable PWM channel the prober needs.
type PWMChannel struct {
	ID    string
	Path  string
	Label string
}

// FanChannel is the subset of a fan tachometer channel the prober needs.
type FanChannel struct {
	ID    string
	Path  string
	Label string
}

// Mapping is one learned (or heuristically assigned) pwm-to-fan pairing.
type Mapping struct {
	PWMChannelID string
	FanChannelID string
	Confidence   float64
	Drop         int
	Heuristic    bool
}

// Clock abstracts time.Sleep so tests can run the algorithm without the
// multi-second real-time waits it specifies.
type Clock interface {
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RealClock is the production Clock, sleeping in real wall-clock time.
func RealClock() Clock { return realClock{} }

// Prober drives PWM channels through the detection algorithm.
type Prober struct {
	gw    *sysfsgw.Gateway
	clock Clock
}

// New builds a Prober over the given gateway, using RealClock for waits.
func New(gw *sysfsgw.Gateway) *Prober {
	return &Prober{gw: gw, clock: RealClock()}
}

// WithClock overrides the Prober's Clock, used by tests.
func (p *Prober) WithClock(c Clock) *Prober {
	p.clock = c
	return p
}

// Detect runs the six-step autodetection algorithm over pwms and fans,
// restoring every PWM to its pre-probe value before returning regardless of
// outcome.
func (p *Prober) Detect(ctx context.Context, pwms []PWMChannel, fans []FanChannel) ([]Mapping, error) {
	if len(pwms) == 0 {
		return nil, ErrNoWritablePWM
	}

	snapshot := make(map[string]uint8, len(pwms))
	for _, pwm := range pwms {
		v, err := p.gw.ReadPWM(ctx, pwm.Path)
		if err == nil {
			snapshot[pwm.ID] = v
		}
	}
	defer p.restore(pwms, snapshot)

	for _, pwm := range pwms {
		_ = p.gw.SetPWMEnable(ctx, pwm.Path+"_enable", 1)
		_ = p.gw.WritePWM(ctx, pwm.Path, 255)
	}
	if err := p.clock.Sleep(ctx, FanSpinup); err != nil {
		return nil, ErrProbeAborted
	}

	claimedFans := make(map[string]bool)
	var candidates []Mapping

	order := make([]PWMChannel, len(pwms))
	copy(order, pwms)
	sort.Slice(order, func(i, j int) bool { return order[i].ID < order[j].ID })

	for _, pwm := range order {
		baseline := p.sampleAll(ctx, fans)

		_ = p.gw.WritePWM(ctx, pwm.Path, 0)
		if err := p.clock.Sleep(ctx, FanStabilization); err != nil {
			return nil, ErrProbeAborted
		}

		test := p.sampleAll(ctx, fans)

		bestFan := ""
		bestDrop := 0
		bestConfidence := 0.0
		for _, fan := range fans {
			drop := baseline[fan.ID] - test[fan.ID]
			if drop <= 0 {
				continue
			}
			base := baseline[fan.ID]
			if base < 1 {
				base = 1
			}
			percentDrop := float64(drop) / float64(base)

			confidence := confidenceForPercentDrop(percentDrop)
			if drop > AbsoluteDropRPMThreshold && confidence < ConfidenceDropAbsolute {
				confidence = ConfidenceDropAbsolute
			}

			if confidence > bestConfidence || (confidence == bestConfidence && drop > bestDrop) {
				bestFan = fan.ID
				bestDrop = drop
				bestConfidence = confidence
			}
		}

		if bestFan != "" && bestConfidence >= CandidateConfidenceFloor && bestDrop > AbsoluteDropRPMThreshold {
			candidates = append(candidates, Mapping{PWMChannelID: pwm.ID, FanChannelID: bestFan, Confidence: bestConfidence, Drop: bestDrop})
		}

		_ = p.gw.WritePWM(ctx, pwm.Path, 255)
		if err := p.clock.Sleep(ctx, DetectionDelay); err != nil {
			return nil, ErrProbeAborted
		}
	}

	result := resolveCandidateConflicts(candidates, claimedFans)
	if len(result) == 0 {
		return HeuristicFallback(pwms, fans), nil
	}
	return result, nil
}

// resolveCandidateConflicts implements the tie-break rule: among candidates
// competing for the same fan, keep the one with the largest drop, then
// highest confidence.
func resolveCandidateConflicts(candidates []Mapping, claimed map[string]bool) []Mapping {
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Drop != candidates[j].Drop {
			return candidates[i].Drop > candidates[j].Drop
		}
		return candidates[i].Confidence > candidates[j].Confidence
	})

	var result []Mapping
	usedPWM := make(map[string]bool)
	for _, c := range candidates {
		if claimed[c.FanChannelID] || usedPWM[c.PWMChannelID] {
			continue
		}
		claimed[c.FanChannelID] = true
		usedPWM[c.PWMChannelID] = true
		result = append(result, c)
	}
	return result
}

func (p *Prober) sampleAll(ctx context.Context, fans []FanChannel) map[string]int {
	out := make(map[string]int, len(fans))
	for _, fan := range fans {
		v, err := p.gw.ReadFanRPM(ctx, fan.Path+"_input")
		if err == nil {
			out[fan.ID] = int(v)
		}
	}
	return out
}

func (p *Prober) restore(pwms []PWMChannel, snapshot map[string]uint8) {
	ctx := context.Background()
	for _, pwm := range pwms {
		if v, ok := snapshot[pwm.ID]; ok {
			_ = p.gw.WritePWM(ctx, pwm.Path, v)
		}
	}
}
