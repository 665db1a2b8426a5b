package harness

import (
	"github.com/artpar/treeview/internal/tree"
	"github.com/artpar/treeview/internal/tui/components"
)

// State represents a snapshot of the TUI state for verification.
type State struct {
	Tree         TreeState
	Notification string
	LastError    error
}

// TreeState captures the tree view state.
type TreeState struct {
	// Visible lists the identity keys of visible rows in display order.
	Visible    []string
	Lines      int
	Cursor     int
	SelectedID string
	Levels     map[string]int
	Expanded   map[string]bool
}

// State captures the current session state.
func (s *TUISession) State() *State {
	view := s.model.TreeView()
	rows := view.Rows()

	ts := TreeState{
		Visible:  make([]string, 0, len(rows)),
		Lines:    components.TotalLines(rows),
		Cursor:   view.Cursor(),
		Levels:   make(map[string]int, len(rows)),
		Expanded: make(map[string]bool, len(rows)),
	}
	for _, r := range rows {
		key := tree.KeyOf(r.ID)
		ts.Visible = append(ts.Visible, key)
		ts.Levels[key] = r.Level
		ts.Expanded[key] = r.Expanded
	}
	if sel := view.Selected(); sel != nil {
		ts.SelectedID = tree.KeyOf(sel.ID)
	}

	return &State{
		Tree:         ts,
		Notification: s.model.Notification(),
		LastError:    s.model.LastError(),
	}
}
