package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/artpar/treeview/internal/app"
	"github.com/artpar/treeview/internal/script"
	"github.com/artpar/treeview/internal/session"
	"github.com/artpar/treeview/internal/source"
	"github.com/artpar/treeview/internal/tree"
	"github.com/artpar/treeview/internal/tui/components"
	"github.com/artpar/treeview/internal/tui/views"
)

// ViewOptions holds options for the view command.
type ViewOptions struct {
	TreeOptions
	Feed        string
	FeedHeaders []string
	Remember    bool
	Strict      bool
}

// NewViewCommand creates the view command.
func NewViewCommand(root *RootOptions) *cobra.Command {
	opts := &ViewOptions{}

	cmd := &cobra.Command{
		Use:   "view [FILE]",
		Short: "Browse a dataset interactively",
		Long: "Browse a YAML or JSON node list as a collapsible tree. Use - to read from stdin,\n" +
			"or --feed to receive datasets over a WebSocket. --remember applies to files only.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runView(cmd, args, root, opts)
		},
	}

	opts.bind(cmd.Flags())
	cmd.Flags().StringVar(&opts.Feed, "feed", "", "WebSocket URL streaming replacement datasets")
	cmd.Flags().StringArrayVarP(&opts.FeedHeaders, "header", "H", nil, "Feed handshake headers (format: Key:Value)")
	cmd.Flags().BoolVar(&opts.Remember, "remember", false, "Restore and save expansion state between runs (files only)")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "Reject datasets with duplicate sibling identities")

	return cmd
}

// viewSession is a fully assembled view ready to run.
type viewSession struct {
	app     *app.App
	tree    *tree.Tree
	view    *views.MainView
	dataset string
	feed    *source.Feed
	stdin   bool
	cleanup func()
}

func (s *viewSession) close() {
	if s.feed != nil {
		s.feed.Close()
	}
	s.cleanup()
}

// save stores the current expansion state when sessions are enabled.
func (s *viewSession) save(ctx context.Context) error {
	return s.app.SaveState(ctx, s.dataset, s.tree.Snapshot())
}

func runView(cmd *cobra.Command, args []string, root *RootOptions, opts *ViewOptions) error {
	s, err := prepareView(cmd, args, root, opts)
	if err != nil {
		return err
	}
	defer s.close()

	programOpts := []tea.ProgramOption{
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(cmd.Context()),
	}
	if s.stdin {
		programOpts = append(programOpts, tea.WithInputTTY())
	}

	p := tea.NewProgram(tuiModel{view: s.view}, programOpts...)
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return s.save(context.Background())
}

func prepareView(cmd *cobra.Command, args []string, root *RootOptions, opts *ViewOptions) (*viewSession, error) {
	if len(args) == 0 && opts.Feed == "" {
		return nil, errors.New("a data file or --feed is required")
	}

	// Stdin and feed datasets have no stable identity, so a saved
	// snapshot could land on unrelated nodes.
	remember := opts.Remember && opts.Feed == "" && len(args) == 1 && args[0] != "-"
	application, cleanup, err := root.newApp(remember)
	if err != nil {
		return nil, err
	}
	s := &viewSession{app: application, cleanup: cleanup}
	logger := application.Logger()
	if opts.Remember && !remember {
		fmt.Fprintln(cmd.ErrOrStderr(), "--remember is ignored for stdin and --feed datasets")
		logger.Warn("expansion snapshots disabled", "reason", "dataset has no stable source")
	}
	ctx := cmd.Context()

	var data []tree.Node
	title := opts.Feed
	if len(args) == 1 {
		data, err = loadNodes(args[0], cmd.InOrStdin())
		if err != nil {
			s.close()
			return nil, err
		}
		if opts.Strict {
			if err := tree.Validate(data, opts.IDKey, opts.ChildrenKey); err != nil {
				s.close()
				return nil, err
			}
		}
		s.dataset = datasetName(args[0])
		s.stdin = args[0] == "-"
		title = filepath.Base(args[0])
	}

	var viewOpts []views.Option
	if opts.Feed != "" {
		cfg := source.DefaultFeedConfig()
		cfg.ConnectTimeout = root.Config.FeedTimeout
		cfg.Headers = parseHeaders(opts.FeedHeaders)
		feed, err := source.Dial(ctx, opts.Feed, cfg, logger)
		if err != nil {
			s.close()
			return nil, err
		}
		s.feed = feed
		if s.dataset == "" {
			s.dataset = opts.Feed
		}
		viewOpts = append(viewOpts, views.WithDataSource(feed))
	}
	s.dataset = session.DatasetKey(s.dataset, opts.IDKey, opts.ChildrenKey)

	parts, err := opts.parts(logger)
	if err != nil {
		s.close()
		return nil, err
	}
	if state := application.RestoreState(ctx, s.dataset); state != nil {
		parts.options = append(parts.options, tree.WithInitialState(state))
	}

	s.tree, err = tree.New(data, parts.render, parts.options...)
	if err != nil {
		s.close()
		return nil, err
	}

	treeView := components.NewTreeView(title, s.tree)
	treeView.SetContext(ctx)

	copyOnLong := parts.engine == nil || !parts.engine.Has(script.FuncOnNodeLongPress)
	viewOpts = append(viewOpts,
		views.WithLogger(logger),
		views.WithLabelKey(opts.LabelKey),
		views.WithCopyOnLongPress(copyOnLong),
	)
	s.view = views.NewMainView(treeView, viewOpts...)

	logger.Info("view ready", "dataset", s.dataset, "roots", len(data), "script", opts.Script)
	return s, nil
}

// parseHeaders parses "Key: Value" strings into a header set.
func parseHeaders(raw []string) http.Header {
	if len(raw) == 0 {
		return nil
	}
	headers := make(http.Header)
	for _, h := range raw {
		key, value, ok := strings.Cut(h, ":")
		if !ok {
			continue
		}
		headers.Add(strings.TrimSpace(key), strings.TrimSpace(value))
	}
	return headers
}

// tuiModel wraps the MainView for bubbletea
type tuiModel struct {
	view *views.MainView
}

func (m tuiModel) Init() tea.Cmd {
	return m.view.Init()
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	updated, cmd := m.view.Update(msg)
	m.view = updated.(*views.MainView)
	return m, cmd
}

func (m tuiModel) View() string {
	return m.view.View()
}
