package views

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artpar/treeview/internal/tree"
	"github.com/artpar/treeview/internal/tui/components"
)

type stubSource struct {
	batches [][]tree.Node
	err     error
}

func (s *stubSource) Next() ([]tree.Node, error) {
	if len(s.batches) == 0 {
		if s.err != nil {
			return nil, s.err
		}
		return nil, io.EOF
	}
	next := s.batches[0]
	s.batches = s.batches[1:]
	return next, nil
}

func newTestMainView(t *testing.T, treeOpts []tree.Option, opts ...Option) *MainView {
	t.Helper()
	data := []tree.Node{
		{"id": "a", "name": "alpha", "children": []any{map[string]any{"id": "b", "name": "beta"}}},
	}
	treeOpts = append([]tree.Option{
		tree.WithCollapsedHeight(func(tree.CollapsedNode) int { return 1 }),
	}, treeOpts...)
	tr, err := tree.New(data, components.DefaultRenderer("name", "id"), treeOpts...)
	require.NoError(t, err)

	opts = append([]Option{
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithLabelKey("name"),
	}, opts...)
	v := NewMainView(components.NewTreeView("Data", tr), opts...)
	v.Update(tea.WindowSizeMsg{Width: 60, Height: 12})
	return v
}

func TestMainView_FocusesTree(t *testing.T) {
	v := newTestMainView(t, nil)
	assert.True(t, v.TreeView().Focused())
	assert.Equal(t, 60, v.TreeView().Width())
	assert.Equal(t, 10, v.TreeView().Height())
}

func TestMainView_Quit(t *testing.T) {
	v := newTestMainView(t, nil)

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestMainView_PressRoundTrip(t *testing.T) {
	v := newTestMainView(t, nil)

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	v.Update(cmd())

	assert.Len(t, v.TreeView().Rows(), 2)
	assert.Contains(t, v.View(), "beta")
}

func TestMainView_PressErrorNotifies(t *testing.T) {
	v := newTestMainView(t, []tree.Option{
		tree.WithOnNodePress(func(context.Context, tree.NodeEvent) (tree.PressResult, error) {
			return tree.PressDefault, errors.New("denied")
		}),
	})

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	_, notifyCmd := v.Update(cmd())

	assert.NotNil(t, notifyCmd)
	assert.Contains(t, v.Notification(), "alpha")
	assert.Contains(t, v.Notification(), "denied")
	assert.Error(t, v.LastError())
	assert.Len(t, v.TreeView().Rows(), 1)

	v.Update(clearNotificationMsg{})
	assert.Empty(t, v.Notification())
}

func TestMainView_LongPressCopies(t *testing.T) {
	var copied string
	v := newTestMainView(t, nil, WithCopyOnLongPress(true))
	v.copyFn = func(s string) error {
		copied = s
		return nil
	}

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'o'}})
	require.NotNil(t, cmd)
	v.Update(cmd())

	assert.Contains(t, copied, "id: a")
	assert.Contains(t, copied, "name: alpha")
	assert.Equal(t, "✓ Copied alpha", v.Notification())
	assert.Len(t, v.TreeView().Rows(), 1, "long press never toggles")
}

func TestMainView_LongPressCopyFailure(t *testing.T) {
	v := newTestMainView(t, nil, WithCopyOnLongPress(true))
	v.copyFn = func(string) error { return errors.New("no clipboard") }

	v.Update(components.NodeLongPressedMsg{Event: tree.NodeEvent{Item: tree.Node{"id": "a"}}})

	assert.Equal(t, "✗ Copy failed", v.Notification())
}

func TestMainView_DataSource(t *testing.T) {
	src := &stubSource{
		batches: [][]tree.Node{{{"id": "x", "name": "xray"}, {"id": "y", "name": "yankee"}}},
		err:     errors.New("closed"),
	}
	v := newTestMainView(t, nil, WithDataSource(src))
	v.TreeView().Tree().Expand("a")

	cmd := v.Init()
	require.NotNil(t, cmd)
	_, next := v.Update(cmd())

	assert.Len(t, v.TreeView().Rows(), 2)
	assert.False(t, v.TreeView().Tree().IsExpanded("a"), "new dataset resets state")
	assert.Contains(t, v.View(), "xray")
	require.NotNil(t, next)
}

func TestMainView_FeedError(t *testing.T) {
	v := newTestMainView(t, nil)

	v.Update(feedErrorMsg{err: errors.New("closed")})

	assert.Equal(t, "✗ feed: closed", v.Notification())
	assert.EqualError(t, v.LastError(), "closed")
}

func TestMainView_NoSourceNoInitCmd(t *testing.T) {
	v := newTestMainView(t, nil)
	assert.Nil(t, v.Init())
}

func TestMainView_View(t *testing.T) {
	v := newTestMainView(t, nil)

	view := v.View()
	assert.Contains(t, view, "alpha")
	assert.Contains(t, view, "Data")
	assert.Contains(t, view, "1 visible")
	assert.Contains(t, view, "quit")
}

func TestMainView_LongTitleTruncated(t *testing.T) {
	tr, err := tree.New([]tree.Node{{"id": "a"}}, components.DefaultRenderer("name", "id"))
	require.NoError(t, err)
	title := "ws://feeds.example.com/datasets/inventory/warehouse-7"
	v := NewMainView(components.NewTreeView(title, tr))
	v.Update(tea.WindowSizeMsg{Width: 40, Height: 12})

	bar := v.renderStatusBar()
	assert.NotContains(t, bar, title)
	assert.Contains(t, bar, "ws://feeds.exampl...")
	assert.Equal(t, title, v.Title())
}
