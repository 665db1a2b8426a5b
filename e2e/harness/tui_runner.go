package harness

import (
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/artpar/treeview/internal/tree"
	"github.com/artpar/treeview/internal/tui/components"
	"github.com/artpar/treeview/internal/tui/views"
)

// TUIRunner provides TUI testing capabilities.
type TUIRunner struct {
	harness *E2EHarness
}

// TUISession represents an active TUI test session.
type TUISession struct {
	runner *TUIRunner
	model  *views.MainView
	tree   *tree.Tree
	t      *testing.T
	// cmdWait bounds how long a command may take before its message is
	// dropped. Notification timers are dropped this way.
	cmdWait time.Duration
}

// Start starts a session over data with the default renderer and a
// collapsed height of one line.
func (r *TUIRunner) Start(t *testing.T, data []tree.Node, opts ...tree.Option) *TUISession {
	t.Helper()
	return r.StartWithSize(t, 80, 24, data, opts...)
}

// StartWithSize starts a session with custom dimensions.
func (r *TUIRunner) StartWithSize(t *testing.T, width, height int, data []tree.Node, opts ...tree.Option) *TUISession {
	t.Helper()

	opts = append([]tree.Option{
		tree.WithCollapsedHeight(func(tree.CollapsedNode) int { return 1 }),
	}, opts...)
	tr, err := tree.New(data, components.DefaultRenderer("name", tree.DefaultIDKey), opts...)
	if err != nil {
		t.Fatalf("failed to create tree: %v", err)
	}

	return r.StartView(t, width, height, tr,
		views.WithLabelKey("name"),
		views.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
}

// StartView starts a session over an already built tree.
func (r *TUIRunner) StartView(t *testing.T, width, height int, tr *tree.Tree, opts ...views.Option) *TUISession {
	t.Helper()

	model := views.NewMainView(components.NewTreeView("Data", tr), opts...)
	model.SetSize(width, height)

	s := &TUISession{
		runner:  r,
		model:   model,
		tree:    tr,
		t:       t,
		cmdWait: 500 * time.Millisecond,
	}
	s.executeCmd(model.Init())
	return s
}

// SendKey sends a key press.
func (s *TUISession) SendKey(key string) *TUISession {
	return s.Send(parseKeyMsg(key))
}

// SendKeys sends multiple key presses.
func (s *TUISession) SendKeys(keys ...string) *TUISession {
	for _, key := range keys {
		s.SendKey(key)
	}
	return s
}

// Click sends a left click at the given terminal row.
func (s *TUISession) Click(y int) *TUISession {
	return s.Send(tea.MouseMsg{X: 2, Y: y, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
}

// Send delivers msg and runs the resulting commands to completion.
func (s *TUISession) Send(msg tea.Msg) *TUISession {
	updated, cmd := s.model.Update(msg)
	s.model = updated.(*views.MainView)
	s.executeCmd(cmd)
	return s
}

// executeCmd executes a tea.Cmd and processes the resulting message.
func (s *TUISession) executeCmd(cmd tea.Cmd) {
	if cmd == nil {
		return
	}

	// Execute the command to get the message
	msg, ok := s.await(cmd)
	if !ok || msg == nil {
		return
	}

	if batch, ok := msg.(tea.BatchMsg); ok {
		for _, c := range batch {
			s.executeCmd(c)
		}
		return
	}
	if _, ok := msg.(tea.QuitMsg); ok {
		return
	}

	// Feed the message back into Update
	updated, nextCmd := s.model.Update(msg)
	s.model = updated.(*views.MainView)

	// Recursively execute any chained commands
	s.executeCmd(nextCmd)
}

func (s *TUISession) await(cmd tea.Cmd) (tea.Msg, bool) {
	result := make(chan tea.Msg, 1)
	go func() { result <- cmd() }()
	select {
	case msg := <-result:
		return msg, true
	case <-time.After(s.cmdWait):
		return nil, false
	}
}

// WaitForOutput waits for specific text in output.
func (s *TUISession) WaitForOutput(text string) error {
	timeout := s.runner.harness.timeout
	deadline := time.Now().Add(timeout)
	pollInterval := 100 * time.Millisecond

	for time.Now().Before(deadline) {
		output := s.Output()
		if strings.Contains(output, text) {
			return nil
		}
		time.Sleep(pollInterval)
	}

	return &TimeoutError{text: text, timeout: timeout}
}

// Output returns the current TUI output.
func (s *TUISession) Output() string {
	return s.model.View()
}

// Model returns the underlying MainView for direct assertions.
func (s *TUISession) Model() *views.MainView {
	return s.model
}

// Tree returns the tree behind the session.
func (s *TUISession) Tree() *tree.Tree {
	return s.tree
}

// TimeoutError represents a timeout waiting for output.
type TimeoutError struct {
	text    string
	timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return "timeout after " + e.timeout.String() + " waiting for: " + e.text
}

// parseKeyMsg converts key string to tea.KeyMsg.
func parseKeyMsg(key string) tea.KeyMsg {
	switch strings.ToLower(key) {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc", "escape":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "space":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
}
