package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/artpar/treeview/internal/session"
)

// Store implements session.Store using SQLite.
type Store struct {
	mu     sync.RWMutex
	db     *sql.DB
	closed bool
}

// New opens (or creates) the snapshot database at dbPath.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return open(db)
}

// NewInMemory creates a store backed by an in-memory database.
func NewInMemory() (*Store, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %w", err)
	}
	// Each connection to :memory: is its own database.
	db.SetMaxOpenConns(1)
	return open(db)
}

func open(db *sql.DB) (*Store, error) {
	store := &Store{db: db}
	if err := store.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return store, nil
}

func (s *Store) initialize() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			dataset TEXT NOT NULL UNIQUE,
			state TEXT NOT NULL,
			updated_at DATETIME NOT NULL
		);
	`)
	return err
}

// Load returns the snapshot saved for dataset.
func (s *Store) Load(ctx context.Context, dataset string) (session.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return session.Snapshot{}, session.ErrStoreClosed
	}

	var (
		snap  session.Snapshot
		state string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, dataset, state, updated_at FROM sessions WHERE dataset = ?
	`, dataset).Scan(&snap.ID, &snap.Dataset, &state, &snap.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return session.Snapshot{}, session.ErrNotFound
	}
	if err != nil {
		return session.Snapshot{}, fmt.Errorf("failed to load session: %w", err)
	}

	if err := json.Unmarshal([]byte(state), &snap.State); err != nil {
		return session.Snapshot{}, fmt.Errorf("failed to decode session state: %w", err)
	}
	return snap, nil
}

// Save stores state for dataset, replacing any earlier snapshot.
func (s *Store) Save(ctx context.Context, dataset string, state map[string]bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return session.ErrStoreClosed
	}

	if state == nil {
		state = map[string]bool{}
	}
	stateJSON, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode session state: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, dataset, state, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(dataset) DO UPDATE SET state = excluded.state, updated_at = excluded.updated_at
	`, uuid.New().String(), dataset, string(stateJSON), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Delete removes the snapshot for dataset.
func (s *Store) Delete(ctx context.Context, dataset string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return session.ErrStoreClosed
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE dataset = ?`, dataset)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return session.ErrNotFound
	}
	return nil
}

// Close closes the store.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

var _ session.Store = (*Store)(nil)
