// SPDX-License-Identifier: BSD-3-Clause

package controlloop

import (
	"github.com/hyperfan/hyperfand/pkg/curve"
	"github.com/hyperfan/hyperfand/pkg/model"
)

// bindingRuntime is the control loop's private per-binding state: its curve
// engine instance, consecutive-write-error counter, and last written enable
// mode. Its curve engine is rebound to the current curve whenever
// ReloadConfig swaps in a new curve map; the counters carry over.
type bindingRuntime struct {
	engine         *curve.Engine
	consecutiveErr int
	lastEnableMode int // -1 until first write this run
}

func newBindingRuntime(c model.Curve) *bindingRuntime {
	return &bindingRuntime{engine: curve.New(c), lastEnableMode: -1}
}
