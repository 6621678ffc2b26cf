// SPDX-License-Identifier: BSD-3-Clause

package controlloop

import (
	"sync"
	"time"

	"github.com/hyperfan/hyperfand/pkg/model"
)

// overrideTable holds transient per-PWM-path overrides (spec.md §3 Override,
// §4.6 step 4). Keyed by PWM sysfs path so IPC handlers can set/clear by
// path without knowing which binding, if any, currently owns it.
type overrideTable struct {
	mu      sync.Mutex
	entries map[string]model.Override
}

func newOverrideTable() *overrideTable {
	return &overrideTable{entries: make(map[string]model.Override)}
}

// Set installs or replaces the override for pwmPath.
func (t *overrideTable) Set(o model.Override) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[o.PWMPath] = o
}

// Clear removes any override for pwmPath.
func (t *overrideTable) Clear(pwmPath string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, pwmPath)
}

// Sweep drops expired entries and returns a snapshot of the live ones.
func (t *overrideTable) Sweep(now time.Time) []model.Override {
	t.mu.Lock()
	defer t.mu.Unlock()

	live := make([]model.Override, 0, len(t.entries))
	for path, o := range t.entries {
		if o.Expired(now) {
			delete(t.entries, path)
			continue
		}
		live = append(live, o)
	}
	return live
}

// Active reports whether pwmPath currently carries a non-expired override.
func (t *overrideTable) Active(pwmPath string, now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	o, ok := t.entries[pwmPath]
	return ok && !o.Expired(now)
}
