package tree

// AutoHeight marks a container that takes the natural height of its content.
const AutoHeight = -1

// Rendered is one node's container: its content plus, when expanded,
// the rendered subtree.
type Rendered struct {
	Item        Node
	ID          any
	Level       int
	Expanded    bool
	HasChildren bool
	// Height is AutoHeight when expanded, otherwise the collapsed height,
	// never negative.
	Height   int
	Content  string
	Children []Rendered
}

// Render walks nodes at the given level and returns their containers.
// Children are rendered only for nodes that have children and are expanded.
func Render(nodes []Node, level int, oracle ExpansionOracle, cfg Config) []Rendered {
	if len(nodes) == 0 {
		return nil
	}

	result := make([]Rendered, 0, len(nodes))
	for _, node := range nodes {
		id := Identity(node, cfg.IDKey)
		expanded := oracle.IsExpanded(id)
		hasChildren := HasChildren(node, cfg.ChildrenKey)

		height := AutoHeight
		if !expanded {
			// Negative heights would read as AutoHeight.
			height = max(cfg.CollapsedHeight(CollapsedNode{ID: id, Level: level}), 0)
		}

		r := Rendered{
			Item:        node,
			ID:          id,
			Level:       level,
			Expanded:    expanded,
			HasChildren: hasChildren,
			Height:      height,
			Content: cfg.RenderNode(NodeProps{
				Item:             node,
				Level:            level,
				IsExpanded:       expanded,
				HasChildrenNodes: hasChildren,
			}),
		}

		if hasChildren && expanded {
			r.Children = Render(Children(node, cfg.ChildrenKey), level+1, oracle, cfg)
		}
		result = append(result, r)
	}
	return result
}

// Walk visits rendered containers depth-first in display order.
// Returning false from fn stops the walk.
func Walk(rendered []Rendered, fn func(r Rendered) bool) bool {
	for _, r := range rendered {
		if !fn(r) {
			return false
		}
		if !Walk(r.Children, fn) {
			return false
		}
	}
	return true
}

// Count returns the number of rendered containers, subtrees included.
func Count(rendered []Rendered) int {
	n := 0
	Walk(rendered, func(Rendered) bool {
		n++
		return true
	})
	return n
}
