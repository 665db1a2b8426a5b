package components

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/artpar/treeview/internal/tree"
	"github.com/artpar/treeview/internal/tui"
)

// NodePressedMsg is sent when a press hook has resolved.
type NodePressedMsg struct {
	Event   tree.NodeEvent
	Toggled bool
	Err     error
}

// NodeLongPressedMsg is sent when a long-press hook has resolved.
type NodeLongPressedMsg struct {
	Event tree.NodeEvent
	Err   error
}

// DataMsg replaces the tree's root nodes.
type DataMsg struct {
	Nodes []tree.Node
}

// TreeView displays a tree.Tree and turns key and mouse input into presses.
type TreeView struct {
	title    string
	focused  bool
	width    int
	height   int
	cursor   int
	offset   int // first visible line
	gPressed bool // for gg sequence

	tree *tree.Tree
	rows []Row
	keys KeyMap
	ctx  context.Context
}

// NewTreeView creates a tree view over t.
func NewTreeView(title string, t *tree.Tree) *TreeView {
	v := &TreeView{
		title: title,
		tree:  t,
		keys:  DefaultKeyMap(),
		ctx:   context.Background(),
	}
	v.rebuildRows()
	return v
}

// SetContext sets the context handed to press hooks.
func (v *TreeView) SetContext(ctx context.Context) {
	v.ctx = ctx
}

// Init initializes the component.
func (v *TreeView) Init() tea.Cmd {
	return nil
}

// Update handles messages.
func (v *TreeView) Update(msg tea.Msg) (tui.Component, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetSize(msg.Width, msg.Height)
		return v, nil

	case tui.FocusMsg:
		v.focused = true
		return v, nil

	case tui.BlurMsg:
		v.focused = false
		return v, nil

	case NodePressedMsg:
		// Expansion may have changed off the event loop; re-render.
		v.refresh()
		return v, nil

	case DataMsg:
		v.tree.SetData(msg.Nodes)
		v.cursor = 0
		v.offset = 0
		v.rebuildRows()
		return v, nil
	}

	if !v.focused {
		return v, nil
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return v.handleKeyMsg(msg)
	case tea.MouseMsg:
		return v.handleMouseMsg(msg)
	}

	return v, nil
}

func (v *TreeView) handleKeyMsg(msg tea.KeyMsg) (tui.Component, tea.Cmd) {
	if key.Matches(msg, v.keys.Top) {
		if v.gPressed {
			v.gPressed = false
			v.cursor = 0
			v.offset = 0
		} else {
			v.gPressed = true
		}
		return v, nil
	}
	v.gPressed = false

	switch {
	case key.Matches(msg, v.keys.Down):
		v.moveCursor(1)
	case key.Matches(msg, v.keys.Up):
		v.moveCursor(-1)
	case key.Matches(msg, v.keys.Bottom):
		v.moveCursor(len(v.rows))
	case key.Matches(msg, v.keys.Expand):
		v.setCurrentExpanded(true)
	case key.Matches(msg, v.keys.Collapse):
		v.setCurrentExpanded(false)
	case key.Matches(msg, v.keys.Press):
		return v, v.pressCmd()
	case key.Matches(msg, v.keys.LongPress):
		return v, v.longPressCmd()
	}
	return v, nil
}

func (v *TreeView) handleMouseMsg(msg tea.MouseMsg) (tui.Component, tea.Cmd) {
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		v.moveCursor(-1)
		return v, nil
	case tea.MouseButtonWheelDown:
		v.moveCursor(1)
		return v, nil
	}

	if msg.Action != tea.MouseActionPress {
		return v, nil
	}
	// Only clicks between the top and bottom borders address rows.
	if msg.Y < 1 || msg.Y > v.contentHeight() {
		return v, nil
	}

	// Account for the top border.
	idx := RowAtLine(v.rows, v.offset+msg.Y-1)
	if idx < 0 {
		return v, nil
	}
	v.cursor = idx
	v.offset = v.adjustOffset()

	switch msg.Button {
	case tea.MouseButtonLeft:
		return v, v.pressCmd()
	case tea.MouseButtonRight:
		return v, v.longPressCmd()
	}
	return v, nil
}

// pressCmd awaits the press hook outside the event loop. The toggle is
// applied when the hook resolves and NodePressedMsg triggers a re-render.
func (v *TreeView) pressCmd() tea.Cmd {
	row, ok := v.current()
	if !ok {
		return nil
	}
	t, ctx := v.tree, v.ctx
	ev := tree.NodeEvent{Item: row.Item, Level: row.Level}
	return func() tea.Msg {
		toggled, err := t.Press(ctx, ev.Item, ev.Level)
		return NodePressedMsg{Event: ev, Toggled: toggled, Err: err}
	}
}

func (v *TreeView) longPressCmd() tea.Cmd {
	row, ok := v.current()
	if !ok {
		return nil
	}
	t, ctx := v.tree, v.ctx
	ev := tree.NodeEvent{Item: row.Item, Level: row.Level}
	return func() tea.Msg {
		return NodeLongPressedMsg{Event: ev, Err: t.LongPress(ctx, ev.Item, ev.Level)}
	}
}

func (v *TreeView) setCurrentExpanded(expanded bool) {
	row, ok := v.current()
	if !ok || !row.HasChildren || row.Expanded == expanded {
		return
	}
	if expanded {
		v.tree.Expand(row.ID)
	} else {
		v.tree.Collapse(row.ID)
	}
	v.refresh()
}

func (v *TreeView) moveCursor(delta int) {
	v.cursor = MoveCursor(v.cursor, delta, len(v.rows))
	v.offset = v.adjustOffset()
}

func (v *TreeView) adjustOffset() int {
	row, ok := v.current()
	if !ok {
		return 0
	}
	return AdjustOffset(row.Start, len(row.Lines), v.offset, v.contentHeight())
}

func (v *TreeView) current() (Row, bool) {
	if v.cursor < 0 || v.cursor >= len(v.rows) {
		return Row{}, false
	}
	return v.rows[v.cursor], true
}

// refresh re-renders and keeps the cursor on the same node when it is
// still visible.
func (v *TreeView) refresh() {
	var id any
	row, hadRow := v.current()
	if hadRow {
		id = row.ID
	}
	v.rebuildRows()
	if hadRow {
		if idx := FindRow(v.rows, id); idx >= 0 {
			v.cursor = idx
		}
	}
	v.cursor = MoveCursor(v.cursor, 0, len(v.rows))
	v.offset = v.adjustOffset()
}

func (v *TreeView) rebuildRows() {
	v.rows = FlattenRows(v.tree.Render())
}

// contentHeight returns the number of lines available inside the border.
func (v *TreeView) contentHeight() int {
	h := v.height - 2
	if h < 1 {
		h = 1
	}
	return h
}

// View renders the component.
func (v *TreeView) View() string {
	if v.width == 0 || v.height == 0 {
		return ""
	}

	innerWidth := v.width - 2
	if innerWidth < 1 {
		innerWidth = 1
	}
	contentHeight := v.contentHeight()

	lines := make([]string, 0, contentHeight)
	if len(v.rows) == 0 {
		emptyStyle := lipgloss.NewStyle().
			Foreground(lipgloss.Color("243")).
			Width(innerWidth).
			Align(lipgloss.Center)
		lines = append(lines, emptyStyle.Render("No nodes"))
	}

	for i, row := range v.rows {
		for j, line := range row.Lines {
			n := row.Start + j
			if n < v.offset {
				continue
			}
			if len(lines) >= contentHeight {
				break
			}
			lines = append(lines, v.renderLine(line, i == v.cursor, innerWidth))
		}
		if len(lines) >= contentHeight {
			break
		}
	}

	// Pad with empty lines if needed
	emptyLine := strings.Repeat(" ", innerWidth)
	for len(lines) < contentHeight {
		lines = append(lines, emptyLine)
	}

	return tui.RenderBorder(strings.Join(lines, "\n"), v.focused)
}

func (v *TreeView) renderLine(line string, selected bool, width int) string {
	line = tui.PadRight(truncateStyled(line, width), width)
	if !selected {
		return line
	}

	style := lipgloss.NewStyle()
	if v.focused {
		style = style.
			Background(lipgloss.Color("62")).
			Foreground(lipgloss.Color("229"))
	} else {
		style = style.
			Background(lipgloss.Color("238")).
			Foreground(lipgloss.Color("252"))
	}
	return style.Render(line)
}

// Title returns the component title.
func (v *TreeView) Title() string {
	return v.title
}

// Focused returns true if focused.
func (v *TreeView) Focused() bool {
	return v.focused
}

// Focus sets the component as focused.
func (v *TreeView) Focus() {
	v.focused = true
}

// Blur removes focus.
func (v *TreeView) Blur() {
	v.focused = false
}

// SetSize sets dimensions.
func (v *TreeView) SetSize(width, height int) {
	v.width = width
	v.height = height
	v.offset = v.adjustOffset()
}

// Width returns the width.
func (v *TreeView) Width() int {
	return v.width
}

// Height returns the height.
func (v *TreeView) Height() int {
	return v.height
}

// --- State accessors ---

// Tree returns the underlying tree.
func (v *TreeView) Tree() *tree.Tree {
	return v.tree
}

// Keys returns the key bindings.
func (v *TreeView) Keys() KeyMap {
	return v.keys
}

// Rows returns the visible rows.
func (v *TreeView) Rows() []Row {
	return v.rows
}

// Cursor returns the current cursor position.
func (v *TreeView) Cursor() int {
	return v.cursor
}

// SetCursor moves the cursor, clamped to the visible rows.
func (v *TreeView) SetCursor(pos int) {
	v.cursor = MoveCursor(pos, 0, len(v.rows))
	v.offset = v.adjustOffset()
}

// Offset returns the first visible line.
func (v *TreeView) Offset() int {
	return v.offset
}

// Selected returns the row under the cursor.
func (v *TreeView) Selected() *Row {
	row, ok := v.current()
	if !ok {
		return nil
	}
	return &row
}

// GPressed returns true if waiting for second 'g' in gg sequence.
func (v *TreeView) GPressed() bool {
	return v.gPressed
}
