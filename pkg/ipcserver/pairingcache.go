// SPDX-License-Identifier: BSD-3-Clause

package ipcserver

import (
	"encoding/json"
	"sort"
	"sync"

	"github.com/hyperfan/hyperfand/pkg/bus"
	"github.com/hyperfan/hyperfand/pkg/model"
)

// pairingCache mirrors the fingerprint engine's bindings, kept current by
// subscribing to bus.SubjectBindingState instead of taking the engine's
// lock on every ListPairings request.
type pairingCache struct {
	mu       sync.RWMutex
	bindings map[string]model.Binding
}

func newPairingCache(seed []model.Binding) *pairingCache {
	c := &pairingCache{bindings: make(map[string]model.Binding, len(seed))}
	for _, b := range seed {
		c.bindings[b.ID] = b
	}
	return c
}

func (c *pairingCache) onBindingStateEvent(msg []byte) {
	var evt bus.BindingStateEvent
	if err := json.Unmarshal(msg, &evt); err != nil {
		return
	}
	c.put(evt.Binding)
}

func (c *pairingCache) put(b model.Binding) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bindings[b.ID] = b
}

func (c *pairingCache) remove(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.bindings, id)
}

// list returns a stable-ordered snapshot, sorted by ID since map iteration
// order isn't, so repeated queries with no intervening change compare equal.
func (c *pairingCache) list() []model.Binding {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]model.Binding, 0, len(c.bindings))
	for _, b := range c.bindings {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
