package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/artpar/treeview/internal/tree"
)

// ValidateOptions holds options for the validate command.
type ValidateOptions struct {
	IDKey       string
	ChildrenKey string
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(root *RootOptions) *cobra.Command {
	opts := &ValidateOptions{}

	cmd := &cobra.Command{
		Use:   "validate FILE",
		Short: "Check a dataset for duplicate identities",
		Long:  "Report sibling nodes that share an identity. Duplicates share expansion state when viewed.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, args[0], root, opts)
		},
	}

	cmd.Flags().StringVar(&opts.IDKey, "id-key", tree.DefaultIDKey, "Field holding the node identity")
	cmd.Flags().StringVar(&opts.ChildrenKey, "children-key", tree.DefaultChildrenKey, "Field holding the child nodes")

	return cmd
}

func runValidate(cmd *cobra.Command, path string, root *RootOptions, opts *ValidateOptions) error {
	application, cleanup, err := root.newApp(false)
	if err != nil {
		return err
	}
	defer cleanup()

	data, err := loadNodes(path, cmd.InOrStdin())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	dups := tree.FindDuplicates(data, opts.IDKey, opts.ChildrenKey)
	for _, d := range dups {
		fmt.Fprintf(out, "duplicate %q x%d at level %d\n", d.Key, d.Count, d.Level)
	}
	if len(dups) > 0 {
		application.Logger().Warn("dataset has duplicate identities", "path", path, "duplicates", len(dups))
		return fmt.Errorf("%s: %w", path, tree.ErrDuplicateIdentity)
	}

	fmt.Fprintf(out, "ok: %d nodes\n", countNodes(data, opts.ChildrenKey))
	return nil
}

func countNodes(nodes []tree.Node, childrenKey string) int {
	n := len(nodes)
	for _, node := range nodes {
		n += countNodes(tree.Children(node, childrenKey), childrenKey)
	}
	return n
}
