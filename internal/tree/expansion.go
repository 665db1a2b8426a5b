package tree

import (
	"sync"
	"sync/atomic"
)

// ExpansionOracle answers whether a node is expanded and, where it owns
// that answer, changes it.
type ExpansionOracle interface {
	// IsExpanded reports the expansion state of the node with identity id.
	IsExpanded(id any) bool

	// SetExpanded records the state for id, leaving other entries unchanged.
	SetExpanded(id any, expanded bool)

	// Toggle flips the state reported by IsExpanded.
	Toggle(id any)

	// Reset discards all recorded state.
	Reset()
}

// MergeExpanded returns a new map with key set to expanded.
// Pure function: never mutates the input.
func MergeExpanded(state map[string]bool, key string, expanded bool) map[string]bool {
	result := make(map[string]bool, len(state)+1)
	for k, v := range state {
		result[k] = v
	}
	result[key] = expanded
	return result
}

// Internal tracks expansion in a mapping owned by the tree. The mapping
// is replaced on every write, so a reader always sees a whole snapshot.
type Internal struct {
	mu       sync.Mutex // serializes writers
	state    atomic.Pointer[map[string]bool]
	fallback bool
}

// NewInternal creates an internal oracle. initialExpanded is reported for
// identities without an entry.
func NewInternal(initialExpanded bool) *Internal {
	o := &Internal{fallback: initialExpanded}
	o.store(map[string]bool{})
	return o
}

// IsExpanded returns the recorded state or the initial default.
func (o *Internal) IsExpanded(id any) bool {
	if v, ok := o.snapshot()[KeyOf(id)]; ok {
		return v
	}
	return o.fallback
}

// SetExpanded merges one entry into a fresh copy of the mapping.
func (o *Internal) SetExpanded(id any, expanded bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.store(MergeExpanded(o.snapshot(), KeyOf(id), expanded))
}

// Toggle flips the state for id.
func (o *Internal) Toggle(id any) {
	o.mu.Lock()
	defer o.mu.Unlock()
	key := KeyOf(id)
	current, ok := o.snapshot()[key]
	if !ok {
		current = o.fallback
	}
	o.store(MergeExpanded(o.snapshot(), key, !current))
}

// Reset replaces the mapping with an empty one.
func (o *Internal) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.store(map[string]bool{})
}

// Restore replaces the mapping with a copy of state.
func (o *Internal) Restore(state map[string]bool) {
	next := make(map[string]bool, len(state))
	for k, v := range state {
		next[k] = v
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.store(next)
}

// Snapshot returns a copy of the recorded entries.
func (o *Internal) Snapshot() map[string]bool {
	current := o.snapshot()
	result := make(map[string]bool, len(current))
	for k, v := range current {
		result[k] = v
	}
	return result
}

func (o *Internal) snapshot() map[string]bool {
	return *o.state.Load()
}

func (o *Internal) store(m map[string]bool) {
	o.state.Store(&m)
}

// External delegates expansion to a caller predicate. Writes are no-ops:
// the caller owns the truth.
type External struct {
	predicate func(id any) bool
}

// NewExternal creates an oracle backed by predicate.
func NewExternal(predicate func(id any) bool) *External {
	return &External{predicate: predicate}
}

// IsExpanded returns the predicate's current answer.
func (o *External) IsExpanded(id any) bool {
	return o.predicate(id)
}

// SetExpanded does nothing.
func (o *External) SetExpanded(any, bool) {}

// Toggle does nothing.
func (o *External) Toggle(any) {}

// Reset does nothing.
func (o *External) Reset() {}
