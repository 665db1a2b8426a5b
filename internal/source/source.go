// Package source loads tree datasets from files and live feeds.
package source

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/artpar/treeview/internal/tree"
)

// ErrNotSequence is returned when a document holds neither a sequence of
// nodes nor a single node.
var ErrNotSequence = errors.New("dataset must be a sequence of nodes")

// Load reads a YAML or JSON dataset from path.
func Load(path string) ([]tree.Node, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset: %w", err)
	}
	nodes, err := Decode(content)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nodes, nil
}

// Decode parses a YAML or JSON document into root nodes. A document that
// holds a single mapping yields one root; an empty document yields none.
func Decode(content []byte) ([]tree.Node, error) {
	var raw any
	if err := yaml.Unmarshal(content, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse dataset: %w", err)
	}

	switch v := normalize(raw).(type) {
	case nil:
		return nil, nil
	case []any:
		nodes := make([]tree.Node, 0, len(v))
		for i, item := range v {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("node %d: %w", i, ErrNotSequence)
			}
			nodes = append(nodes, tree.Node(m))
		}
		return nodes, nil
	case map[string]any:
		return []tree.Node{v}, nil
	default:
		return nil, ErrNotSequence
	}
}

// normalize turns mappings with non-string keys into map[string]any so
// nested nodes can be read with string keys.
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, item := range t {
			t[k] = normalize(item)
		}
		return t
	case map[any]any:
		m := make(map[string]any, len(t))
		for k, item := range t {
			m[fmt.Sprint(k)] = normalize(item)
		}
		return m
	case []any:
		for i, item := range t {
			t[i] = normalize(item)
		}
		return t
	default:
		return v
	}
}
