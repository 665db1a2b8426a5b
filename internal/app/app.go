package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/artpar/treeview/internal/session"
)

// Config holds application configuration.
type Config struct {
	DataDir     string
	LogFile     string
	LogLevel    string
	FeedTimeout time.Duration
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		DataDir:     "~/.treeview",
		LogLevel:    "info",
		FeedTimeout: 30 * time.Second,
	}
}

// ExpandPath resolves a leading ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// SessionPath returns the snapshot database location inside DataDir.
func (c Config) SessionPath() (string, error) {
	dir, err := ExpandPath(c.DataDir)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "sessions.db"), nil
}

// ParseLevel maps a level name to a slog level.
func ParseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", name)
	}
	return level, nil
}

// NewLogger creates a structured logger writing to cfg.LogFile. With no log
// file configured output is discarded, since stdout belongs to the terminal UI.
func NewLogger(cfg Config) (*slog.Logger, io.Closer, error) {
	level, err := ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	opts := &slog.HandlerOptions{Level: level}

	if cfg.LogFile == "" {
		return slog.New(slog.NewTextHandler(io.Discard, opts)), io.NopCloser(nil), nil
	}

	path, err := ExpandPath(cfg.LogFile)
	if err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return slog.New(slog.NewTextHandler(f, opts)), f, nil
}

// App is the application container with dependency injection.
type App struct {
	config   Config
	logger   *slog.Logger
	sessions session.Store
}

// Option is a function that configures the App.
type Option func(*App)

// New creates a new App with the given options.
func New(opts ...Option) *App {
	app := &App{
		config: DefaultConfig(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(app)
	}

	return app
}

// WithConfig sets the application configuration.
func WithConfig(cfg Config) Option {
	return func(a *App) {
		a.config = cfg
	}
}

// WithLogger sets the application logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *App) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithSessionStore enables expansion snapshots.
func WithSessionStore(store session.Store) Option {
	return func(a *App) {
		a.sessions = store
	}
}

// Config returns the application configuration.
func (a *App) Config() Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *slog.Logger {
	return a.logger
}

// Sessions returns the snapshot store, or nil when snapshots are disabled.
func (a *App) Sessions() session.Store {
	return a.sessions
}

// RestoreState returns the saved expansion state for dataset. It returns nil
// when snapshots are disabled or nothing was saved.
func (a *App) RestoreState(ctx context.Context, dataset string) map[string]bool {
	if a.sessions == nil {
		return nil
	}
	snap, err := a.sessions.Load(ctx, dataset)
	if err != nil {
		if !errors.Is(err, session.ErrNotFound) {
			a.logger.Warn("failed to restore expansion state", "dataset", dataset, "error", err)
		}
		return nil
	}
	a.logger.Debug("restored expansion state", "dataset", dataset, "entries", len(snap.State))
	return snap.State
}

// SaveState stores the expansion state for dataset. A nil state, as reported
// by externally controlled trees, is not saved.
func (a *App) SaveState(ctx context.Context, dataset string, state map[string]bool) error {
	if a.sessions == nil || state == nil {
		return nil
	}
	if err := a.sessions.Save(ctx, dataset, state); err != nil {
		return fmt.Errorf("failed to save expansion state: %w", err)
	}
	a.logger.Debug("saved expansion state", "dataset", dataset, "entries", len(state))
	return nil
}

// Close releases the snapshot store.
func (a *App) Close() error {
	if a.sessions == nil {
		return nil
	}
	return a.sessions.Close()
}
