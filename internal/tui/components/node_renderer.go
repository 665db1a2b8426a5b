package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/artpar/treeview/internal/tree"
)

var (
	branchStyle = lipgloss.NewStyle().Bold(true)
	leafStyle   = lipgloss.NewStyle()
	markerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
)

// DefaultRenderer renders a node as an indented label with an expand
// indicator. The label is read at labelKey, falling back to the identity.
func DefaultRenderer(labelKey, idKey string) tree.RenderFunc {
	return func(p tree.NodeProps) string {
		indent := strings.Repeat("  ", p.Level)

		// Expand indicator
		var indicator string
		if p.HasChildrenNodes {
			if p.IsExpanded {
				indicator = "▼ "
			} else {
				indicator = "▶ "
			}
		} else {
			indicator = "  "
		}

		label := NodeLabel(p.Item, labelKey, idKey)
		if p.HasChildrenNodes {
			label = branchStyle.Render(label)
		} else {
			label = leafStyle.Render(label)
		}

		return indent + markerStyle.Render(indicator) + label
	}
}

// NodeLabel returns the display label of a node.
func NodeLabel(n tree.Node, labelKey, idKey string) string {
	if labelKey != "" {
		if v, ok := n.Lookup(labelKey); ok && v != nil {
			return fmt.Sprint(v)
		}
	}
	return tree.KeyOf(tree.Identity(n, idKey))
}

// RenderStatic lays out a rendered tree as plain lines, cut to width
// when width is positive.
func RenderStatic(rendered []tree.Rendered, width int) string {
	var lines []string
	for _, row := range FlattenRows(rendered) {
		for _, line := range row.Lines {
			if width > 0 {
				line = truncateStyled(line, width)
			}
			lines = append(lines, strings.TrimRight(line, " "))
		}
	}
	return strings.Join(lines, "\n")
}

func truncateStyled(s string, width int) string {
	if lipgloss.Width(s) <= width {
		return s
	}
	return lipgloss.NewStyle().MaxWidth(width).Render(s)
}
