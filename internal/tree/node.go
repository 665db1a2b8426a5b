package tree

import (
	"fmt"
	"strings"
)

// Node is one entry of the caller's hierarchical data.
// The tree only reads nodes; it never mutates them.
type Node map[string]any

// Lookup resolves key against the node. A literal key wins; otherwise
// a dotted key is walked as a path through nested maps.
func (n Node) Lookup(key string) (any, bool) {
	if n == nil {
		return nil, false
	}
	if v, ok := n[key]; ok {
		return v, true
	}
	if !strings.Contains(key, ".") {
		return nil, false
	}

	var cur any = map[string]any(n)
	for _, part := range strings.Split(key, ".") {
		m, ok := asMap(cur)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// Identity returns the value stored at idKey, or nil when absent.
func Identity(n Node, idKey string) any {
	v, _ := n.Lookup(idKey)
	return v
}

// Children returns the node's child sequence. Absent or non-sequence
// values yield no children.
func Children(n Node, childrenKey string) []Node {
	v, ok := n.Lookup(childrenKey)
	if !ok || v == nil {
		return nil
	}
	return toNodes(v)
}

// HasChildren reports whether the children field holds a non-empty sequence.
func HasChildren(n Node, childrenKey string) bool {
	return len(Children(n, childrenKey)) > 0
}

// KeyOf returns the string form of an identity used to key expansion state.
func KeyOf(id any) string {
	switch v := id.(type) {
	case string:
		return v
	case nil:
		return "<nil>"
	default:
		return fmt.Sprint(v)
	}
}

// toNodes converts the shapes produced by decoders and callers into nodes.
func toNodes(v any) []Node {
	switch s := v.(type) {
	case []Node:
		return s
	case []map[string]any:
		nodes := make([]Node, len(s))
		for i, m := range s {
			nodes[i] = Node(m)
		}
		return nodes
	case []any:
		nodes := make([]Node, 0, len(s))
		for _, item := range s {
			if m, ok := asMap(item); ok {
				nodes = append(nodes, Node(m))
			} else {
				// Keep position; a non-map entry is an empty node.
				nodes = append(nodes, Node{})
			}
		}
		return nodes
	default:
		return nil
	}
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case Node:
		return m, true
	case map[string]any:
		return m, true
	default:
		return nil, false
	}
}
