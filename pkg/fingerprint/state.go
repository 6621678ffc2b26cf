// SPDX-License-Identifier: BSD-3-Clause

package fingerprint

import (
	"context"

	"github.com/qmuntal/stateless"

	"github.com/hyperfan/hyperfand/pkg/model"
)

// Trigger names the events that move a binding between ValidationStates.
type Trigger string

const (
	TriggerRematchOk          Trigger = "rematch_ok"
	TriggerRematchDegraded    Trigger = "rematch_degraded"
	TriggerRematchNeedsRebind Trigger = "rematch_needs_rebind"
	TriggerRematchUnsafe      Trigger = "rematch_unsafe"
	TriggerLabelRebind        Trigger = "label_rebind"
)

// NewBindingStateMachine builds a stateless.StateMachine over
// model.ValidationState, wired so every state can reach every other state
// via the matching rematch trigger — the state mapping in the data model is
// a pure function of confidence, not a constrained workflow, so the
// machine's job is to make transitions auditable, not to forbid any of them.
func NewBindingStateMachine(initial model.ValidationState) *stateless.StateMachine {
	sm := stateless.NewStateMachine(initial)

	allStates := []model.ValidationState{
		model.ValidationOk, model.ValidationDegraded, model.ValidationNeedsRebind, model.ValidationUnsafe,
	}

	for _, s := range allStates {
		cfg := sm.Configure(s)
		permitOrReentry(cfg, s, TriggerRematchOk, model.ValidationOk)
		permitOrReentry(cfg, s, TriggerRematchDegraded, model.ValidationDegraded)
		permitOrReentry(cfg, s, TriggerRematchNeedsRebind, model.ValidationNeedsRebind)
		permitOrReentry(cfg, s, TriggerRematchUnsafe, model.ValidationUnsafe)
		permitOrReentry(cfg, s, TriggerLabelRebind, model.ValidationDegraded)
	}

	return sm
}

// permitOrReentry configures trigger on cfg (whose source state is from),
// using PermitReentry instead of Permit when the destination equals the
// source — stateless.StateConfiguration.Permit panics if destination ==
// source, since that's not a transition at all.
func permitOrReentry(cfg *stateless.StateConfiguration, from model.ValidationState, trigger Trigger, dest model.ValidationState) {
	if from == dest {
		cfg.PermitReentry(trigger)
		return
	}
	cfg.Permit(trigger, dest)
}

// ApplyMatchResult fires the trigger corresponding to a MatchResult's state
// and returns the machine's resulting state.
func ApplyMatchResult(ctx context.Context, sm *stateless.StateMachine, result MatchResult) (model.ValidationState, error) {
	trigger := TriggerRematchUnsafe
	switch result.State {
	case model.ValidationOk:
		trigger = TriggerRematchOk
	case model.ValidationDegraded:
		if result.RebindByLabel {
			trigger = TriggerLabelRebind
		} else {
			trigger = TriggerRematchDegraded
		}
	case model.ValidationNeedsRebind:
		trigger = TriggerRematchNeedsRebind
	}

	if err := sm.FireCtx(ctx, trigger); err != nil {
		return "", err
	}
	state, err := sm.State(ctx)
	if err != nil {
		return "", err
	}
	return state.(model.ValidationState), nil
}
