// Package session persists expansion snapshots between runs.
package session

import (
	"context"
	"errors"
	"time"
)

// Common errors
var (
	ErrNotFound    = errors.New("session not found")
	ErrStoreClosed = errors.New("session store is closed")
)

// Snapshot is the saved expansion state for one dataset.
type Snapshot struct {
	ID        string
	Dataset   string
	State     map[string]bool
	UpdatedAt time.Time
}

// Store defines the interface for snapshot storage.
type Store interface {
	// Load returns the snapshot saved for dataset.
	Load(ctx context.Context, dataset string) (Snapshot, error)

	// Save stores state for dataset, replacing any earlier snapshot.
	Save(ctx context.Context, dataset string, state map[string]bool) error

	// Delete removes the snapshot for dataset.
	Delete(ctx context.Context, dataset string) error

	// Close closes the store and releases resources.
	Close() error
}

// DatasetKey identifies a dataset by where it came from and how its nodes
// are keyed. Changing either key yields a different dataset.
func DatasetKey(source, idKey, childrenKey string) string {
	return source + "#" + idKey + "/" + childrenKey
}
