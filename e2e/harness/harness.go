// Package harness provides E2E testing utilities for treeview.
package harness

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// E2EHarness is the main test orchestrator.
type E2EHarness struct {
	t       *testing.T
	server  *httptest.Server
	tmpDir  string
	timeout time.Duration
}

// Config configures the harness.
type Config struct {
	ServerHandlers map[string]http.HandlerFunc
	Timeout        time.Duration // Default: 5 seconds
}

// New creates a new E2E harness.
func New(t *testing.T, cfg Config) *E2EHarness {
	t.Helper()

	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}

	h := &E2EHarness{
		t:       t,
		timeout: cfg.Timeout,
	}

	// Create temporary directory for test data
	tmpDir, err := os.MkdirTemp("", "treeview-e2e-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	h.tmpDir = tmpDir

	// Start test server if handlers provided
	if len(cfg.ServerHandlers) > 0 {
		mux := http.NewServeMux()
		for pattern, handler := range cfg.ServerHandlers {
			mux.HandleFunc(pattern, handler)
		}
		h.server = httptest.NewServer(mux)
	}

	t.Cleanup(h.cleanup)
	return h
}

func (h *E2EHarness) cleanup() {
	if h.server != nil {
		h.server.Close()
	}
	os.RemoveAll(h.tmpDir)
}

// ServerURL returns the test server URL.
func (h *E2EHarness) ServerURL() string {
	if h.server == nil {
		return ""
	}
	return h.server.URL
}

// WebSocketURL returns the test server URL with a ws scheme.
func (h *E2EHarness) WebSocketURL(path string) string {
	if h.server == nil {
		return ""
	}
	return "ws" + strings.TrimPrefix(h.server.URL, "http") + path
}

// TmpDir returns the temporary directory path.
func (h *E2EHarness) TmpDir() string {
	return h.tmpDir
}

// WriteFile writes content to name inside the temporary directory and
// returns its path.
func (h *E2EHarness) WriteFile(name, content string) string {
	h.t.Helper()
	path := filepath.Join(h.tmpDir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		h.t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

// Timeout returns the configured timeout.
func (h *E2EHarness) Timeout() time.Duration {
	return h.timeout
}

// T returns the testing.T instance.
func (h *E2EHarness) T() *testing.T {
	return h.t
}

// CLI returns a CLI runner for this harness.
func (h *E2EHarness) CLI() *CLIRunner {
	return &CLIRunner{harness: h}
}

// TUI returns a TUI runner for this harness.
func (h *E2EHarness) TUI() *TUIRunner {
	return &TUIRunner{harness: h}
}
