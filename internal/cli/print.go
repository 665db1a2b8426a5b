package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/artpar/treeview/internal/tree"
	"github.com/artpar/treeview/internal/tui/components"
)

// PrintOptions holds options for the print command.
type PrintOptions struct {
	TreeOptions
	ExpandAll bool
	Width     int
}

// NewPrintCommand creates the print command.
func NewPrintCommand(root *RootOptions) *cobra.Command {
	opts := &PrintOptions{}

	cmd := &cobra.Command{
		Use:   "print FILE",
		Short: "Render a dataset to stdout",
		Long:  "Render a YAML or JSON node list once, without the interactive view. Use - to read from stdin.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPrint(cmd, args[0], root, opts)
		},
	}

	opts.bind(cmd.Flags())
	cmd.Flags().BoolVar(&opts.ExpandAll, "expand-all", false, "Expand every node")
	cmd.Flags().IntVar(&opts.Width, "width", 0, "Cut lines to this width (0 for no limit)")

	return cmd
}

func runPrint(cmd *cobra.Command, path string, root *RootOptions, opts *PrintOptions) error {
	application, cleanup, err := root.newApp(false)
	if err != nil {
		return err
	}
	defer cleanup()

	data, err := loadNodes(path, cmd.InOrStdin())
	if err != nil {
		return err
	}

	parts, err := opts.parts(application.Logger())
	if err != nil {
		return err
	}
	if opts.ExpandAll {
		parts.options = append(parts.options, tree.WithExpansionPredicate(func(any) bool { return true }))
	}

	t, err := tree.New(data, parts.render, parts.options...)
	if err != nil {
		return err
	}

	out := components.RenderStatic(t.Render(), opts.Width)
	if out == "" {
		return nil
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
	return err
}
