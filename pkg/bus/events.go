// SPDX-License-Identifier: BSD-3-Clause

package bus

import (
	"time"

	"github.com/hyperfan/hyperfand/pkg/fingerprint"
	"github.com/hyperfan/hyperfand/pkg/model"
)

// Subjects carried over the internal event bus. The Control Loop publishes
// on both; the IPC Server subscribes to SubjectBindingState so it can answer
// pairing queries from a live cache instead of taking the fingerprint
// engine's lock on every request.
const (
	SubjectDrift        = "hyperfand.events.drift"
	SubjectBindingState = "hyperfand.events.binding_state"
)

// DriftEvent is published whenever a startup or periodic revalidation pass
// finds a chip or channel whose resolved sysfs path moved.
type DriftEvent struct {
	DetectedAt time.Time                `json:"detected_at"`
	Entries    []fingerprint.DriftEntry `json:"entries"`
}

// BindingStateEvent is published whenever a binding's validation state
// changes during a control-loop iteration.
type BindingStateEvent struct {
	Binding  model.Binding         `json:"binding"`
	Previous model.ValidationState `json:"previous_state"`
}
