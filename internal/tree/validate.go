package tree

import (
	"errors"
	"fmt"
	"strings"
)

// ErrDuplicateIdentity is returned by Validate when siblings share an identity.
var ErrDuplicateIdentity = errors.New("duplicate node identity")

// Duplicate describes an identity shared by several siblings.
type Duplicate struct {
	Key   string
	Level int
	Count int
}

// FindDuplicates returns identities repeated among siblings anywhere in
// nodes. Rendering tolerates duplicates: they share one expansion entry.
func FindDuplicates(nodes []Node, idKey, childrenKey string) []Duplicate {
	var dups []Duplicate
	findDuplicates(nodes, 0, idKey, childrenKey, &dups)
	return dups
}

func findDuplicates(nodes []Node, level int, idKey, childrenKey string, dups *[]Duplicate) {
	counts := make(map[string]int, len(nodes))
	var order []string
	for _, n := range nodes {
		key := KeyOf(Identity(n, idKey))
		if counts[key] == 0 {
			order = append(order, key)
		}
		counts[key]++
	}
	for _, key := range order {
		if counts[key] > 1 {
			*dups = append(*dups, Duplicate{Key: key, Level: level, Count: counts[key]})
		}
	}
	for _, n := range nodes {
		findDuplicates(Children(n, childrenKey), level+1, idKey, childrenKey, dups)
	}
}

// Validate returns an error wrapping ErrDuplicateIdentity when any
// siblings share an identity.
func Validate(nodes []Node, idKey, childrenKey string) error {
	dups := FindDuplicates(nodes, idKey, childrenKey)
	if len(dups) == 0 {
		return nil
	}
	parts := make([]string, len(dups))
	for i, d := range dups {
		parts[i] = fmt.Sprintf("%q x%d at level %d", d.Key, d.Count, d.Level)
	}
	return fmt.Errorf("%w: %s", ErrDuplicateIdentity, strings.Join(parts, ", "))
}
