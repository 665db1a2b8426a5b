package tree

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTree(t *testing.T, data []Node, opts ...Option) *Tree {
	t.Helper()
	tr, err := New(data, labelRender, opts...)
	require.NoError(t, err)
	return tr
}

func vetoHook(result PressResult) PressHook {
	return func(context.Context, NodeEvent) (PressResult, error) {
		return result, nil
	}
}

func TestNew_RequiresRenderer(t *testing.T) {
	_, err := New(sampleData(), nil)
	assert.ErrorIs(t, err, ErrNoRenderer)
}

func TestNew_Defaults(t *testing.T) {
	tr := newTestTree(t, sampleData())
	cfg := tr.Config()

	assert.Equal(t, "id", cfg.IDKey)
	assert.Equal(t, "children", cfg.ChildrenKey)
	assert.False(t, cfg.InitialExpanded)
	assert.Equal(t, 20, cfg.CollapsedHeight(CollapsedNode{ID: 1}))
	assert.NotNil(t, cfg.OnNodePress)
	assert.NotNil(t, cfg.OnNodeLongPress)
	assert.Nil(t, cfg.IsNodeExpanded)
}

func TestNew_NilOptionsKeepDefaults(t *testing.T) {
	tr := newTestTree(t, sampleData(),
		WithIDKey(""),
		WithChildrenKey(""),
		WithOnNodePress(nil),
		WithOnNodeLongPress(nil),
		WithCollapsedHeight(nil),
		WithLogger(nil),
	)
	cfg := tr.Config()
	assert.Equal(t, "id", cfg.IDKey)
	assert.Equal(t, "children", cfg.ChildrenKey)
	assert.NotNil(t, cfg.OnNodePress)
	assert.NotNil(t, cfg.CollapsedHeight)
	assert.NotNil(t, cfg.Logger)
}

// Default no-op hook: pressing an expandable node toggles it.
func TestTree_PressTogglesExpandable(t *testing.T) {
	tr := newTestTree(t, sampleData())
	node := tr.Data()[0]

	toggled, err := tr.Press(context.Background(), node, 0)
	require.NoError(t, err)
	assert.True(t, toggled)
	assert.True(t, tr.IsExpanded(1))

	toggled, err = tr.Press(context.Background(), node, 0)
	require.NoError(t, err)
	assert.True(t, toggled)
	assert.False(t, tr.IsExpanded(1))
}

func TestTree_PressVetoSemantics(t *testing.T) {
	tests := []struct {
		name    string
		result  PressResult
		toggles bool
	}{
		{"veto keeps state", PressVeto, false},
		{"allow flips", PressAllow, true},
		{"default flips", PressDefault, true},
		{"unknown value flips", PressResult(42), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := newTestTree(t, sampleData(), WithOnNodePress(vetoHook(tt.result)))

			toggled, err := tr.Press(context.Background(), tr.Data()[0], 0)

			require.NoError(t, err)
			assert.Equal(t, tt.toggles, toggled)
			assert.Equal(t, tt.toggles, tr.IsExpanded(1))
		})
	}
}

func TestTree_PressLeafNeverToggles(t *testing.T) {
	tr := newTestTree(t, sampleData())
	leaf := tr.Data()[1]

	toggled, err := tr.Press(context.Background(), leaf, 0)
	require.NoError(t, err)
	assert.False(t, toggled)
	assert.False(t, tr.IsExpanded(5))

	// Even when the flag is set directly, a leaf never renders a subtree.
	tr.Expand(5)
	out := tr.Render()
	assert.True(t, out[1].Expanded)
	assert.Empty(t, out[1].Children)
}

func TestTree_PressHookReceivesEvent(t *testing.T) {
	var got NodeEvent
	tr := newTestTree(t, sampleData(), WithOnNodePress(func(_ context.Context, ev NodeEvent) (PressResult, error) {
		got = ev
		return PressVeto, nil
	}))

	_, err := tr.Press(context.Background(), tr.Data()[0], 3)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Level)
	assert.Equal(t, 1, got.Item["id"])
}

func TestTree_PressHookErrorSkipsToggle(t *testing.T) {
	boom := errors.New("boom")
	tr := newTestTree(t, sampleData(), WithOnNodePress(func(context.Context, NodeEvent) (PressResult, error) {
		return PressAllow, boom
	}))

	toggled, err := tr.Press(context.Background(), tr.Data()[0], 0)

	assert.ErrorIs(t, err, boom)
	assert.False(t, toggled)
	assert.False(t, tr.IsExpanded(1))
	assert.False(t, tr.Pending(1), "pending cleared after failure")
}

func TestTree_PressIgnoredWhilePending(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	tr := newTestTree(t, sampleData(), WithOnNodePress(func(_ context.Context, ev NodeEvent) (PressResult, error) {
		if ev.Item["id"] == 1 {
			close(started)
			<-release
		}
		return PressDefault, nil
	}))

	var wg sync.WaitGroup
	wg.Add(1)
	var firstToggled bool
	go func() {
		defer wg.Done()
		firstToggled, _ = tr.Press(context.Background(), tr.Data()[0], 0)
	}()

	<-started
	assert.True(t, tr.Pending(1))

	toggled, err := tr.Press(context.Background(), tr.Data()[0], 0)
	require.NoError(t, err)
	assert.False(t, toggled, "second press on pending node is ignored")

	// Other nodes are not blocked.
	other, err := tr.Press(context.Background(), Node{"id": 9, "children": []any{map[string]any{"id": 10}}}, 0)
	require.NoError(t, err)
	assert.True(t, other)

	close(release)
	wg.Wait()

	assert.True(t, firstToggled)
	assert.True(t, tr.IsExpanded(1))
	assert.False(t, tr.Pending(1))
}

func TestTree_LongPressNeverToggles(t *testing.T) {
	var events []NodeEvent
	tr := newTestTree(t, sampleData(), WithOnNodeLongPress(func(_ context.Context, ev NodeEvent) error {
		events = append(events, ev)
		return nil
	}))

	require.NoError(t, tr.LongPress(context.Background(), tr.Data()[0], 0))
	assert.False(t, tr.IsExpanded(1))
	require.Len(t, events, 1)
	assert.Equal(t, 0, events[0].Level)
}

func TestTree_LongPressError(t *testing.T) {
	boom := errors.New("boom")
	tr := newTestTree(t, sampleData(), WithOnNodeLongPress(func(context.Context, NodeEvent) error {
		return boom
	}))

	assert.ErrorIs(t, tr.LongPress(context.Background(), tr.Data()[0], 0), boom)
}

func TestTree_ResetOnDataChange(t *testing.T) {
	d1 := sampleData()
	tr := newTestTree(t, d1)
	tr.Expand(1)
	require.True(t, tr.IsExpanded(1))

	// Same reference keeps state.
	tr.SetData(d1)
	assert.True(t, tr.IsExpanded(1))

	// Same shape, different reference resets.
	tr.SetData(sampleData())
	assert.False(t, tr.IsExpanded(1))
}

func TestTree_ResetRestoresInitialDefault(t *testing.T) {
	tr := newTestTree(t, sampleData(), WithInitialExpanded(true))
	tr.Collapse(1)
	require.False(t, tr.IsExpanded(1))

	tr.SetData([]Node{{"id": 1}})
	assert.True(t, tr.IsExpanded(1))
}

func TestTree_ResetOnKeyChange(t *testing.T) {
	tests := []struct {
		name   string
		change func(*Tree)
		reset  bool
	}{
		{"same id key", func(tr *Tree) { tr.SetIDKey("id") }, false},
		{"new id key", func(tr *Tree) { tr.SetIDKey("key") }, true},
		{"empty id key means default", func(tr *Tree) { tr.SetIDKey("") }, false},
		{"same children key", func(tr *Tree) { tr.SetChildrenKey("children") }, false},
		{"new children key", func(tr *Tree) { tr.SetChildrenKey("items") }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := newTestTree(t, sampleData())
			tr.Expand(1)

			tt.change(tr)

			assert.Equal(t, !tt.reset, tr.IsExpanded(1))
		})
	}
}

func TestTree_ExternalControlPrecedence(t *testing.T) {
	external := map[string]bool{"1": false}
	tr := newTestTree(t, sampleData(), WithExpansionPredicate(func(id any) bool {
		return external[KeyOf(id)]
	}))

	for i := 0; i < 3; i++ {
		toggled, err := tr.Press(context.Background(), tr.Data()[0], 0)
		require.NoError(t, err)
		assert.False(t, toggled)
		assert.False(t, tr.IsExpanded(1))
	}
	tr.Expand(1)
	assert.False(t, tr.IsExpanded(1))

	external["1"] = true
	assert.True(t, tr.IsExpanded(1))
	assert.Len(t, tr.Render()[0].Children, 2)
	assert.Nil(t, tr.Snapshot())
}

func TestTree_Snapshot(t *testing.T) {
	tr := newTestTree(t, sampleData(), WithInitialState(map[string]bool{"3": true}))
	tr.Expand(1)

	assert.Equal(t, map[string]bool{"1": true, "3": true}, tr.Snapshot())
}

func TestTree_LogsReset(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	tr := newTestTree(t, sampleData(), WithLogger(logger))

	tr.SetIDKey("key")

	assert.Contains(t, buf.String(), "expansion state reset")
	assert.Contains(t, buf.String(), "reason=idKey")
}

// data = [{id:1, children:[{id:2}]}]
func TestTree_Scenario(t *testing.T) {
	data := []Node{{"id": 1, "children": []any{map[string]any{"id": 2}}}}
	tr := newTestTree(t, data)

	out := tr.Render()
	require.Len(t, out, 1)
	assert.Equal(t, 20, out[0].Height)
	assert.Empty(t, out[0].Children)

	toggled, err := tr.Press(context.Background(), data[0], 0)
	require.NoError(t, err)
	require.True(t, toggled)

	out = tr.Render()
	assert.Equal(t, AutoHeight, out[0].Height)
	require.Len(t, out[0].Children, 1)
	child := out[0].Children[0]
	assert.Equal(t, 2, child.ID)
	assert.Equal(t, 1, child.Level)
	assert.Equal(t, 20, child.Height)

	toggled, err = tr.Press(context.Background(), child.Item, child.Level)
	require.NoError(t, err)
	assert.False(t, toggled)
	assert.Empty(t, tr.Render()[0].Children[0].Children)
}

func TestTree_PressRespectsContext(t *testing.T) {
	tr := newTestTree(t, sampleData(), WithOnNodePress(func(ctx context.Context, _ NodeEvent) (PressResult, error) {
		select {
		case <-ctx.Done():
			return PressDefault, ctx.Err()
		case <-time.After(time.Second):
			return PressDefault, nil
		}
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	toggled, err := tr.Press(ctx, tr.Data()[0], 0)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, toggled)
}
