// SPDX-License-Identifier: BSD-3-Clause

package fingerprint

import (
	"context"
	"errors"
	"time"

	"github.com/qmuntal/stateless"

	"github.com/hyperfan/hyperfand/pkg/enumerate"
	"github.com/hyperfan/hyperfand/pkg/model"
)

// Engine ties together chip/channel matching, label-based rebind, drift
// correction, and per-binding state machines.
type Engine struct {
	store    *model.FingerprintStore
	bindings *model.BindingStore
	machines map[string]*stateless.StateMachine // keyed by binding ID
}

// New builds an Engine over the given persisted stores.
func New(store *model.FingerprintStore, bindings *model.BindingStore) *Engine {
	e := &Engine{store: store, bindings: bindings, machines: make(map[string]*stateless.StateMachine)}
	for _, b := range bindings.Bindings {
		e.machines[b.ID] = NewBindingStateMachine(b.State)
	}
	return e
}

// Revalidate re-runs matching for every stored binding against a fresh
// snapshot, updating each binding's State and Confidence in place and
// returning a drift report. Called by the supervisor on startup and by the
// control loop's periodic revalidation every 60 iterations (about once a
// minute at the default poll interval).
func (e *Engine) Revalidate(ctx context.Context, snapshot enumerate.Snapshot, now time.Time) (DriftReport, error) {
	var report DriftReport

	for i := range e.bindings.Bindings {
		b := &e.bindings.Bindings[i]

		pwmFP, ok := e.store.Channels[b.PWMChannelID]
		if !ok {
			b.State = model.ValidationUnsafe
			continue
		}
		chipFP, ok := e.store.Chips[pwmFP.ChipID]
		if !ok {
			b.State = model.ValidationUnsafe
			continue
		}

		result, err := MatchChip(chipFP, snapshot.Chips, now)
		rebindByLabel := false
		var matchedChip model.Chip
		if err != nil {
			if errors.Is(err, ErrStale) {
				e.transition(b, MatchResult{State: model.ValidationUnsafe})
				continue
			}
			rebound, rok := e.tryLabelRebindChip(chipFP, snapshot)
			if !rok {
				e.transition(b, MatchResult{State: model.ValidationUnsafe})
				continue
			}
			matchedChip = rebound
			rebindByLabel = true
			result = MatchResult{Chip: matchedChip, Confidence: LabelRebindConfidence, State: model.ValidationDegraded, RebindByLabel: true}
		} else {
			matchedChip = result.Chip
		}

		recordChipDrift(&report, &chipFP, matchedChip.SysfsPath)
		e.store.Chips[pwmFP.ChipID] = chipFP

		candidateChannels := channelsForChip(snapshot, matchedChip.ID)
		pwmCandidate, pwmScore, pwmFound := MatchChannel(pwmFP, candidateChannels, result.Confidence)
		if !pwmFound && !rebindByLabel {
			if rebound, _, rok := RebindByLabel(pwmFP, chipFP, matchedChip, candidateChannels); rok {
				pwmCandidate = rebound
				pwmScore = LabelRebindConfidence
				pwmFound = true
				rebindByLabel = true
			}
		}
		if !pwmFound {
			e.transition(b, MatchResult{State: model.ValidationUnsafe})
			continue
		}

		recordChannelDrift(&report, &pwmFP, pwmCandidate.SysfsPath)
		e.store.Channels[b.PWMChannelID] = pwmFP

		finalState := StateForConfidence(pwmScore)
		if rebindByLabel && finalState != model.ValidationUnsafe {
			finalState = model.ValidationDegraded
			pwmScore = LabelRebindConfidence
		}

		e.transition(b, MatchResult{Chip: matchedChip, Confidence: pwmScore, State: finalState, RebindByLabel: rebindByLabel})
	}

	return report, nil
}

// Bindings returns the live binding list. Callers may read State/Confidence
// freely; mutating entries outside Revalidate bypasses the state machine and
// is the caller's responsibility to avoid.
func (e *Engine) Bindings() []model.Binding {
	return e.bindings.Bindings
}

// BindingStore returns the underlying store, for persistence after a
// Revalidate call changes binding state.
func (e *Engine) BindingStore() *model.BindingStore {
	return e.bindings
}

// ChannelHint returns the persisted sysfs path hint for a channel ID.
func (e *Engine) ChannelHint(channelID string) (string, bool) {
	fp, ok := e.store.Channels[channelID]
	if !ok {
		return "", false
	}
	return fp.SysfsHint, true
}

// SetManualBinding inserts or replaces a user-specified binding, bypassing
// fingerprint matching entirely. The binding starts ValidationOk at full
// confidence; the next periodic Revalidate will demote it like any other
// binding if its channels turn out not to resolve.
func (e *Engine) SetManualBinding(b model.Binding) {
	b.State = model.ValidationOk
	b.Confidence = 1.0
	b.LastValidated = time.Now()

	for i := range e.bindings.Bindings {
		if e.bindings.Bindings[i].ID == b.ID {
			e.bindings.Bindings[i] = b
			e.machines[b.ID] = NewBindingStateMachine(b.State)
			return
		}
	}
	e.bindings.Bindings = append(e.bindings.Bindings, b)
	e.machines[b.ID] = NewBindingStateMachine(b.State)
}

// DeleteBinding removes a binding by ID, reporting whether one was found.
func (e *Engine) DeleteBinding(id string) bool {
	for i := range e.bindings.Bindings {
		if e.bindings.Bindings[i].ID == id {
			e.bindings.Bindings = append(e.bindings.Bindings[:i], e.bindings.Bindings[i+1:]...)
			delete(e.machines, id)
			return true
		}
	}
	return false
}

// FingerprintStore returns the underlying chip/channel fingerprint store,
// for persistence after SetChannelHint registers a manually paired channel.
func (e *Engine) FingerprintStore() *model.FingerprintStore {
	return e.store
}

// SetChannelHint registers (or overwrites) a channel's resolved sysfs path
// hint directly, without going through chip/channel matching. Used to back
// manually created pairings (pkg/ipcserver's pairing CRUD) with a channel
// ID the control loop can resolve through the ordinary ChannelHint path.
func (e *Engine) SetChannelHint(channelID, sysfsHint string) {
	fp := e.store.Channels[channelID]
	fp.ChannelID = channelID
	fp.SysfsHint = sysfsHint
	e.store.Channels[channelID] = fp
}

// FindChip looks up a chip by ID across the given snapshot, used by IPC
// handlers that need the live Chip behind a fingerprint.
func FindChip(snapshot enumerate.Snapshot, chipID string) (model.Chip, bool) {
	for _, cs := range snapshot.Chips {
		if cs.Chip.ID == chipID {
			return cs.Chip, true
		}
	}
	return model.Chip{}, false
}

func (e *Engine) tryLabelRebindChip(stored model.ChipFingerprint, snapshot enumerate.Snapshot) (model.Chip, bool) {
	for _, c := range snapshot.Chips {
		if stored.Driver.DriverName != "" && stored.Driver.DriverName == c.Chip.Driver.DriverName {
			return c.Chip, true
		}
	}
	return model.Chip{}, false
}

func (e *Engine) transition(b *model.Binding, result MatchResult) {
	sm, ok := e.machines[b.ID]
	if !ok {
		sm = NewBindingStateMachine(b.State)
		e.machines[b.ID] = sm
	}
	state, err := ApplyMatchResult(context.Background(), sm, result)
	if err != nil {
		b.State = model.ValidationUnsafe
		return
	}
	b.State = state
	b.Confidence = result.Confidence
	b.LastValidated = time.Now()
}

func channelsForChip(snapshot enumerate.Snapshot, chipID string) []enumerate.ChannelValue {
	for _, cs := range snapshot.Chips {
		if cs.Chip.ID == chipID {
			return cs.Channels
		}
	}
	return nil
}
