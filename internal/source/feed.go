package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/artpar/treeview/internal/tree"
)

// ErrFeedClosed is returned by Next after Close.
var ErrFeedClosed = errors.New("feed closed")

// FeedConfig holds WebSocket feed configuration.
type FeedConfig struct {
	// ConnectTimeout is the timeout for establishing a connection.
	ConnectTimeout time.Duration

	// MaxMessageSize is the maximum size of a dataset message in bytes.
	MaxMessageSize int64

	// Headers are sent with the handshake.
	Headers http.Header
}

// DefaultFeedConfig returns the default feed configuration.
func DefaultFeedConfig() FeedConfig {
	return FeedConfig{
		ConnectTimeout: 30 * time.Second,
		MaxMessageSize: 10 * 1024 * 1024, // 10 MB
	}
}

// Feed receives whole datasets over a WebSocket. Every message replaces
// the previous dataset.
type Feed struct {
	mu     sync.Mutex
	conn   *websocket.Conn
	url    string
	logger *slog.Logger
	closed bool
}

// Dial connects to a dataset feed.
func Dial(ctx context.Context, url string, cfg FeedConfig, logger *slog.Logger) (*Feed, error) {
	if logger == nil {
		logger = slog.Default()
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: cfg.ConnectTimeout,
	}
	conn, resp, err := dialer.DialContext(ctx, url, cfg.Headers)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("failed to connect to %s: %w (status %d)", url, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("failed to connect to %s: %w", url, err)
	}
	if cfg.MaxMessageSize > 0 {
		conn.SetReadLimit(cfg.MaxMessageSize)
	}

	logger.Info("feed connected", "url", url)
	return &Feed{conn: conn, url: url, logger: logger}, nil
}

// Next blocks until the next dataset arrives. Messages that fail to
// decode are logged and skipped.
func (f *Feed) Next() ([]tree.Node, error) {
	for {
		if f.isClosed() {
			return nil, ErrFeedClosed
		}

		msgType, data, err := f.conn.ReadMessage()
		if err != nil {
			if f.isClosed() || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil, ErrFeedClosed
			}
			return nil, fmt.Errorf("failed to read feed: %w", err)
		}
		if msgType != websocket.TextMessage && msgType != websocket.BinaryMessage {
			continue
		}

		nodes, err := Decode(data)
		if err != nil {
			f.logger.Warn("skipping undecodable dataset", "url", f.url, "error", err)
			continue
		}
		f.logger.Debug("dataset received", "url", f.url, "roots", len(nodes))
		return nodes, nil
	}
}

// URL returns the feed address.
func (f *Feed) URL() string {
	return f.url
}

// Close closes the connection.
func (f *Feed) Close() error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil
	}
	f.closed = true
	f.mu.Unlock()

	_ = f.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	return f.conn.Close()
}

func (f *Feed) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}
