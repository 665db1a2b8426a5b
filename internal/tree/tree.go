package tree

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"unsafe"
)

// ErrNoRenderer is returned when a tree is created without a render function.
var ErrNoRenderer = errors.New("tree: render function is required")

// Tree owns the data, configuration and expansion state of one tree view.
type Tree struct {
	mu      sync.RWMutex
	data    []Node
	cfg     Config
	oracle  ExpansionOracle
	pending map[string]bool // identities whose press hook has not resolved
}

// New creates a tree over data, rendering each node with render.
func New(data []Node, render RenderFunc, opts ...Option) (*Tree, error) {
	if render == nil {
		return nil, ErrNoRenderer
	}

	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg.RenderNode = render

	return &Tree{
		data:    data,
		cfg:     cfg,
		oracle:  NewOracle(cfg),
		pending: make(map[string]bool),
	}, nil
}

// Data returns the root nodes.
func (t *Tree) Data() []Node {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.data
}

// Config returns a copy of the configuration.
func (t *Tree) Config() Config {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.cfg
}

// Oracle returns the expansion oracle in use.
func (t *Tree) Oracle() ExpansionOracle {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.oracle
}

// SetData replaces the root nodes. A different slice resets expansion
// state; passing the same slice again keeps it.
func (t *Tree) SetData(data []Node) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if sameSlice(t.data, data) {
		return
	}
	t.data = data
	t.resetLocked("data")
}

// SetIDKey changes the identity field. A different key resets state.
func (t *Tree) SetIDKey(key string) {
	if key == "" {
		key = DefaultIDKey
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cfg.IDKey == key {
		return
	}
	t.cfg.IDKey = key
	t.resetLocked("idKey")
}

// SetChildrenKey changes the children field. A different key resets state.
func (t *Tree) SetChildrenKey(key string) {
	if key == "" {
		key = DefaultChildrenKey
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cfg.ChildrenKey == key {
		return
	}
	t.cfg.ChildrenKey = key
	t.resetLocked("childrenKey")
}

func (t *Tree) resetLocked(reason string) {
	t.oracle.Reset()
	t.pending = make(map[string]bool)
	t.cfg.Logger.Debug("expansion state reset", "reason", reason)
}

// IsExpanded reports the expansion state of id.
func (t *Tree) IsExpanded(id any) bool {
	return t.Oracle().IsExpanded(id)
}

// Expand marks id as expanded.
func (t *Tree) Expand(id any) {
	t.Oracle().SetExpanded(id, true)
}

// Collapse marks id as collapsed.
func (t *Tree) Collapse(id any) {
	t.Oracle().SetExpanded(id, false)
}

// Toggle flips the expansion state of id.
func (t *Tree) Toggle(id any) {
	t.Oracle().Toggle(id)
}

// Snapshot returns the internal expansion entries, or nil when expansion
// is externally controlled.
func (t *Tree) Snapshot() map[string]bool {
	if o, ok := t.Oracle().(*Internal); ok {
		return o.Snapshot()
	}
	return nil
}

// Render renders the whole tree from level 0.
func (t *Tree) Render() []Rendered {
	t.mu.RLock()
	data, cfg, oracle := t.data, t.cfg, t.oracle
	t.mu.RUnlock()
	return Render(data, 0, oracle, cfg)
}

// Press runs the press hook for item and, unless the hook vetoes, toggles
// the node when it has children. It reports whether a toggle happened,
// which is never the case while expansion is externally controlled.
// A press on a node whose previous press is still pending is ignored.
func (t *Tree) Press(ctx context.Context, item Node, level int) (bool, error) {
	t.mu.Lock()
	cfg := t.cfg
	key := KeyOf(Identity(item, cfg.IDKey))
	if t.pending[key] {
		t.mu.Unlock()
		cfg.Logger.Debug("press ignored, previous press pending", "id", key)
		return false, nil
	}
	t.pending[key] = true
	pending := t.pending
	t.mu.Unlock()

	result, err := cfg.OnNodePress(ctx, NodeEvent{Item: item, Level: level})

	t.mu.Lock()
	// A reset while the hook ran replaced the pending set.
	delete(pending, key)
	t.mu.Unlock()

	if err != nil {
		return false, fmt.Errorf("node press hook: %w", err)
	}
	return t.resolvePress(item, result), nil
}

func (t *Tree) resolvePress(item Node, result PressResult) bool {
	t.mu.RLock()
	cfg, oracle := t.cfg, t.oracle
	t.mu.RUnlock()

	if result == PressVeto || !HasChildren(item, cfg.ChildrenKey) {
		return false
	}
	if _, external := oracle.(*External); external {
		return false
	}
	id := Identity(item, cfg.IDKey)
	oracle.Toggle(id)
	cfg.Logger.Debug("node toggled", "id", KeyOf(id), "expanded", oracle.IsExpanded(id))
	return true
}

// LongPress runs the long-press hook. It never changes expansion.
func (t *Tree) LongPress(ctx context.Context, item Node, level int) error {
	cfg := t.Config()
	if err := cfg.OnNodeLongPress(ctx, NodeEvent{Item: item, Level: level}); err != nil {
		return fmt.Errorf("node long press hook: %w", err)
	}
	return nil
}

// Pending reports whether a press on id is waiting for its hook.
func (t *Tree) Pending(id any) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.pending[KeyOf(id)]
}

// sameSlice reports whether a and b share the same backing array and length.
func sameSlice(a, b []Node) bool {
	if len(a) != len(b) || (a == nil) != (b == nil) {
		return false
	}
	if len(a) == 0 {
		return true
	}
	return unsafe.SliceData(a) == unsafe.SliceData(b)
}
