package source

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFeedServer(t *testing.T, messages ...string) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for _, m := range messages {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(m)); err != nil {
				return
			}
		}
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done"))
		// Wait for the client to go away.
		_, _, _ = conn.ReadMessage()
	}))
	t.Cleanup(server.Close)
	return server
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFeed_ReceivesDatasets(t *testing.T) {
	server := newFeedServer(t,
		`[{"id": 1}]`,
		`not: [valid`,
		`[{"id": 2}, {"id": 3}]`,
	)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	feed, err := Dial(ctx, wsURL(server), DefaultFeedConfig(), quietLogger())
	require.NoError(t, err)
	defer feed.Close()

	first, err := feed.Next()
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, 1, first[0]["id"])

	// The malformed message is skipped.
	second, err := feed.Next()
	require.NoError(t, err)
	assert.Len(t, second, 2)

	_, err = feed.Next()
	assert.ErrorIs(t, err, ErrFeedClosed)
}

func TestFeed_NextAfterClose(t *testing.T) {
	server := newFeedServer(t)

	feed, err := Dial(context.Background(), wsURL(server), DefaultFeedConfig(), quietLogger())
	require.NoError(t, err)
	assert.Equal(t, wsURL(server), feed.URL())

	require.NoError(t, feed.Close())
	require.NoError(t, feed.Close(), "close is idempotent")

	_, err = feed.Next()
	assert.ErrorIs(t, err, ErrFeedClosed)
}

func TestDial_Failure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	_, err := Dial(context.Background(), wsURL(server), DefaultFeedConfig(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}
