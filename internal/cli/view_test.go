package cli

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artpar/treeview/internal/tree"
	"github.com/artpar/treeview/internal/tui/components"
)

// prepare builds a view session from command-line args without running it.
func prepare(t *testing.T, dataDir string, args ...string) (*viewSession, error) {
	t.Helper()
	return prepareWith(t, dataDir, "", io.Discard, args...)
}

func prepareWith(t *testing.T, dataDir, stdin string, stderr io.Writer, args ...string) (*viewSession, error) {
	t.Helper()
	root := &RootOptions{}
	root.Config.DataDir = dataDir
	root.Config.LogLevel = "info"

	opts := &ViewOptions{}
	cmd := &cobra.Command{}
	opts.bind(cmd.Flags())
	cmd.Flags().StringVar(&opts.Feed, "feed", "", "")
	cmd.Flags().BoolVar(&opts.Remember, "remember", false, "")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "")
	require.NoError(t, cmd.ParseFlags(args))
	cmd.SetContext(context.Background())
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetErr(stderr)

	return prepareView(cmd, cmd.Flags().Args(), root, opts)
}

func TestPrepareView(t *testing.T) {
	path := writeFile(t, "data.yaml", sampleYAML)

	s, err := prepare(t, t.TempDir(), path)
	require.NoError(t, err)
	defer s.close()

	assert.Len(t, s.tree.Data(), 2)
	assert.Equal(t, "data.yaml", s.view.TreeView().Title())
	assert.True(t, strings.HasSuffix(s.dataset, "data.yaml#id/children"))
	assert.Nil(t, s.app.Sessions())
}

func TestPrepareView_Errors(t *testing.T) {
	_, err := prepare(t, t.TempDir())
	assert.ErrorContains(t, err, "--feed is required")

	dups := writeFile(t, "dups.yaml", "- id: 1\n- id: 1\n")
	_, err = prepare(t, t.TempDir(), dups, "--strict")
	assert.ErrorIs(t, err, tree.ErrDuplicateIdentity)

	s, err := prepare(t, t.TempDir(), dups)
	require.NoError(t, err, "duplicates are accepted without --strict")
	s.close()
}

func TestPrepareView_RememberRestoresState(t *testing.T) {
	path := writeFile(t, "data.yaml", sampleYAML)
	dataDir := t.TempDir()

	first, err := prepare(t, dataDir, path, "--remember")
	require.NoError(t, err)
	first.tree.Expand(1)
	require.NoError(t, first.save(context.Background()))
	first.close()

	second, err := prepare(t, dataDir, path, "--remember")
	require.NoError(t, err)
	defer second.close()
	assert.True(t, second.tree.IsExpanded(1))
	assert.False(t, second.tree.IsExpanded(3))

	other, err := prepare(t, dataDir, path, "--remember", "--id-key", "name")
	require.NoError(t, err)
	defer other.close()
	assert.False(t, other.tree.IsExpanded("root"), "different keys are a different dataset")
}

func TestPrepareView_RememberOnlyForFiles(t *testing.T) {
	dataDir := t.TempDir()

	var stderr bytes.Buffer
	s, err := prepareWith(t, dataDir, `[{"id": 1, "children": [{"id": 2}]}]`, &stderr, "-", "--remember")
	require.NoError(t, err)
	defer s.close()

	assert.Nil(t, s.app.Sessions())
	assert.Contains(t, stderr.String(), "--remember is ignored")

	s.tree.Expand(1)
	require.NoError(t, s.save(context.Background()))
	_, err = os.Stat(filepath.Join(dataDir, "sessions.db"))
	assert.True(t, os.IsNotExist(err), "nothing is saved for stdin")

	server := newFeedServer(t)
	feed, err := prepare(t, dataDir, "--feed", wsURL(server), "--remember")
	require.NoError(t, err)
	defer feed.close()
	assert.Nil(t, feed.app.Sessions())
}

func TestPrepareView_Feed(t *testing.T) {
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`[{"id": "a"}, {"id": "b"}]`))
		_, _, _ = conn.ReadMessage()
	}))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	s, err := prepare(t, t.TempDir(), "--feed", url)
	require.NoError(t, err)
	defer s.close()

	assert.Empty(t, s.tree.Data())
	assert.Equal(t, url+"#id/children", s.dataset)

	msg := s.view.Init()()
	data, ok := msg.(components.DataMsg)
	require.True(t, ok)
	assert.Len(t, data.Nodes, 2)
}

func TestTUIModel(t *testing.T) {
	path := writeFile(t, "data.yaml", sampleYAML)
	s, err := prepare(t, t.TempDir(), path)
	require.NoError(t, err)
	defer s.close()

	var m tea.Model = tuiModel{view: s.view}
	m, _ = m.Update(tea.WindowSizeMsg{Width: 40, Height: 12})
	assert.Contains(t, m.View(), "root")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

// newFeedServer accepts one WebSocket client and holds it open.
func newFeedServer(t *testing.T) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		_, _, _ = conn.ReadMessage()
	}))
	t.Cleanup(server.Close)
	return server
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}
