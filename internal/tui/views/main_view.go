package views

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/artpar/treeview/internal/tree"
	"github.com/artpar/treeview/internal/tui"
	"github.com/artpar/treeview/internal/tui/components"
)

// DataSource delivers replacement datasets, e.g. from a live feed.
type DataSource interface {
	Next() ([]tree.Node, error)
}

// feedErrorMsg reports a failed read from the data source.
type feedErrorMsg struct {
	err error
}

// clearNotificationMsg is sent to clear the notification.
type clearNotificationMsg struct{}

// MainView hosts the tree with a status bar and help line.
type MainView struct {
	width        int
	height       int
	tree         *components.TreeView
	help         help.Model
	source       DataSource
	logger       *slog.Logger
	copyOnLong   bool
	copyFn       func(string) error
	labelKey     string
	notification string
	lastErr      error
}

// Option configures the main view.
type Option func(*MainView)

// WithDataSource streams datasets into the tree.
func WithDataSource(src DataSource) Option {
	return func(v *MainView) {
		v.source = src
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(v *MainView) {
		v.logger = logger
	}
}

// WithCopyOnLongPress copies the long-pressed node to the clipboard.
func WithCopyOnLongPress(enabled bool) Option {
	return func(v *MainView) {
		v.copyOnLong = enabled
	}
}

// WithLabelKey sets the field shown in notifications.
func WithLabelKey(key string) Option {
	return func(v *MainView) {
		v.labelKey = key
	}
}

// NewMainView creates a new main view around the tree view.
func NewMainView(treeView *components.TreeView, opts ...Option) *MainView {
	v := &MainView{
		tree:   treeView,
		help:   help.New(),
		logger: slog.Default(),
		copyFn: clipboard.WriteAll,
	}
	for _, opt := range opts {
		opt(v)
	}
	v.tree.Focus()
	return v
}

// Init initializes the view.
func (v *MainView) Init() tea.Cmd {
	return v.waitForData()
}

// Update handles messages.
func (v *MainView) Update(msg tea.Msg) (tui.Component, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetSize(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		if key.Matches(msg, v.tree.Keys().Quit) {
			return v, tea.Quit
		}

	case components.NodePressedMsg:
		v.tree.Update(msg)
		id := v.nodeName(msg.Event.Item)
		if msg.Err != nil {
			v.lastErr = msg.Err
			v.logger.Error("node press failed", "id", id, "error", msg.Err)
			return v, v.notify(fmt.Sprintf("✗ %s: %v", id, msg.Err))
		}
		v.logger.Debug("node pressed", "id", id, "level", msg.Event.Level, "toggled", msg.Toggled)
		return v, nil

	case components.NodeLongPressedMsg:
		id := v.nodeName(msg.Event.Item)
		if msg.Err != nil {
			v.lastErr = msg.Err
			v.logger.Error("node long press failed", "id", id, "error", msg.Err)
			return v, v.notify(fmt.Sprintf("✗ %s: %v", id, msg.Err))
		}
		if v.copyOnLong {
			return v, v.copyNode(msg.Event.Item)
		}
		return v, nil

	case components.DataMsg:
		v.tree.Update(msg)
		v.logger.Info("dataset replaced", "roots", len(msg.Nodes))
		return v, tea.Batch(v.notify(fmt.Sprintf("↻ %d roots", len(msg.Nodes))), v.waitForData())

	case feedErrorMsg:
		v.lastErr = msg.err
		v.logger.Error("data feed stopped", "error", msg.err)
		return v, v.notify("✗ feed: " + msg.err.Error())

	case clearNotificationMsg:
		v.notification = ""
		return v, nil
	}

	_, cmd := v.tree.Update(msg)
	return v, cmd
}

func (v *MainView) waitForData() tea.Cmd {
	if v.source == nil {
		return nil
	}
	src := v.source
	return func() tea.Msg {
		nodes, err := src.Next()
		if err != nil {
			return feedErrorMsg{err: err}
		}
		return components.DataMsg{Nodes: nodes}
	}
}

func (v *MainView) copyNode(n tree.Node) tea.Cmd {
	content, err := yaml.Marshal(map[string]any(n))
	if err != nil {
		return v.notify("✗ Copy failed")
	}
	if err := v.copyFn(string(content)); err != nil {
		v.logger.Warn("clipboard write failed", "error", err)
		return v.notify("✗ Copy failed")
	}
	return v.notify(fmt.Sprintf("✓ Copied %s", v.nodeName(n)))
}

func (v *MainView) notify(text string) tea.Cmd {
	v.notification = text
	return tea.Tick(2*time.Second, func(time.Time) tea.Msg {
		return clearNotificationMsg{}
	})
}

func (v *MainView) nodeName(n tree.Node) string {
	return components.NodeLabel(n, v.labelKey, v.tree.Tree().Config().IDKey)
}

// View renders the tree, status bar and help line.
func (v *MainView) View() string {
	if v.width == 0 || v.height == 0 {
		return ""
	}
	return strings.Join([]string{
		v.tree.View(),
		v.renderStatusBar(),
		v.help.View(v.tree.Keys()),
	}, "\n")
}

func (v *MainView) renderStatusBar() string {
	var items []string

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Padding(0, 1).
		Background(lipgloss.Color("62")).
		Foreground(lipgloss.Color("229"))
	items = append(items, titleStyle.Render(tui.Truncate(v.tree.Title(), max(v.width/2, 8))))

	countStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("245")).
		Padding(0, 1)
	items = append(items, countStyle.Render(fmt.Sprintf("%d visible", len(v.tree.Rows()))))

	if v.notification != "" {
		notifyStyle := lipgloss.NewStyle().
			Foreground(lipgloss.Color("34")).
			Bold(true).
			Padding(0, 1)
		if strings.HasPrefix(v.notification, "✗") {
			notifyStyle = notifyStyle.Foreground(lipgloss.Color("160"))
		}
		items = append(items, notifyStyle.Render(v.notification))
	}

	barStyle := lipgloss.NewStyle().
		Width(v.width).
		Background(lipgloss.Color("236"))

	return barStyle.Render(strings.Join(items, " "))
}

// Title returns the view title.
func (v *MainView) Title() string {
	return v.tree.Title()
}

// Focused always returns true for the main view.
func (v *MainView) Focused() bool {
	return true
}

// Focus is a no-op for the main view.
func (v *MainView) Focus() {}

// Blur is a no-op for the main view.
func (v *MainView) Blur() {}

// SetSize sets dimensions. The status bar and help line take two lines.
func (v *MainView) SetSize(width, height int) {
	v.width = width
	v.height = height
	v.help.Width = width
	v.tree.SetSize(width, max(height-2, 3))
}

// Width returns the width.
func (v *MainView) Width() int {
	return v.width
}

// Height returns the height.
func (v *MainView) Height() int {
	return v.height
}

// TreeView returns the hosted tree view.
func (v *MainView) TreeView() *components.TreeView {
	return v.tree
}

// Notification returns the current notification text.
func (v *MainView) Notification() string {
	return v.notification
}

// LastError returns the most recent hook or feed error.
func (v *MainView) LastError() error {
	return v.lastErr
}
