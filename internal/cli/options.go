package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"

	"github.com/artpar/treeview/internal/script"
	"github.com/artpar/treeview/internal/source"
	"github.com/artpar/treeview/internal/tree"
	"github.com/artpar/treeview/internal/tui/components"
)

// TreeOptions holds the flags that shape a tree.
type TreeOptions struct {
	IDKey           string
	ChildrenKey     string
	LabelKey        string
	InitialExpanded bool
	CollapsedHeight int
	Script          string
}

func (o *TreeOptions) bind(flags *pflag.FlagSet) {
	flags.StringVar(&o.IDKey, "id-key", tree.DefaultIDKey, "Field holding the node identity (dotted paths allowed)")
	flags.StringVar(&o.ChildrenKey, "children-key", tree.DefaultChildrenKey, "Field holding the child nodes")
	flags.StringVar(&o.LabelKey, "label-key", "name", "Field shown as the node label")
	flags.BoolVar(&o.InitialExpanded, "initial-expanded", false, "Start with every node expanded")
	flags.IntVar(&o.CollapsedHeight, "collapsed-height", 1, "Lines shown for a collapsed node")
	flags.StringVar(&o.Script, "script", "", "JavaScript file defining tree hooks")
}

// treeParts is what buildTree assembles from TreeOptions.
type treeParts struct {
	render  tree.RenderFunc
	options []tree.Option
	engine  *script.Engine
}

// parts resolves the renderer and tree options, loading the hook script
// when one is configured.
func (o *TreeOptions) parts(logger *slog.Logger) (treeParts, error) {
	height := o.CollapsedHeight
	p := treeParts{
		render: components.DefaultRenderer(o.LabelKey, o.IDKey),
		options: []tree.Option{
			tree.WithIDKey(o.IDKey),
			tree.WithChildrenKey(o.ChildrenKey),
			tree.WithInitialExpanded(o.InitialExpanded),
			tree.WithCollapsedHeight(func(tree.CollapsedNode) int { return height }),
			tree.WithLogger(logger),
		},
	}

	if o.Script == "" {
		return p, nil
	}

	engine := script.NewEngine(logger)
	if err := engine.LoadFile(o.Script); err != nil {
		return treeParts{}, fmt.Errorf("failed to load script: %w", err)
	}
	if render := engine.Renderer(p.render); render != nil {
		p.render = render
	}
	// Script hooks are applied last so they override the flag defaults.
	p.options = append(p.options, engine.Options(o.IDKey)...)
	p.engine = engine
	return p, nil
}

// loadNodes reads a dataset from path, or from stdin when path is "-".
func loadNodes(path string, stdin io.Reader) ([]tree.Node, error) {
	if path != "-" {
		return source.Load(path)
	}
	content, err := io.ReadAll(stdin)
	if err != nil {
		return nil, fmt.Errorf("failed to read stdin: %w", err)
	}
	return source.Decode(content)
}

// datasetName identifies a dataset for saved sessions.
func datasetName(path string) string {
	if path == "-" {
		return path
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

func ensureDir(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	return nil
}
