package websocket

import (
	"encoding/json"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialTestHub(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(hub)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return hub.ClientCount() == n
	}, 2*time.Second, 10*time.Millisecond)
}

func TestHub_BroadcastReachesClient(t *testing.T) {
	hub := NewHub(slog.Default())
	hub.Start()
	defer hub.Stop()

	conn := dialTestHub(t, hub)
	waitForClients(t, hub, 1)

	hub.Broadcast(Message{Type: "ping_test", Data: map[string]string{"k": "v"}})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg Message
	require.NoError(t, json.Unmarshal(payload, &msg))
	assert.Equal(t, "ping_test", msg.Type)
	assert.False(t, msg.Timestamp.IsZero())
}

func TestHub_NotifyDatasetReloaded(t *testing.T) {
	hub := NewHub(slog.Default())
	hub.Start()
	defer hub.Stop()

	conn := dialTestHub(t, hub)
	waitForClients(t, hub, 1)

	hub.NotifyDatasetReloaded("abc123", 42)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg struct {
		Type string              `json:"type"`
		Data DatasetReloadedData `json:"data"`
	}
	require.NoError(t, json.Unmarshal(payload, &msg))
	assert.Equal(t, "dataset_reloaded", msg.Type)
	assert.Equal(t, "abc123", msg.Data.Fingerprint)
	assert.Equal(t, 42, msg.Data.Rows)
}

func TestHub_UnregisterOnDisconnect(t *testing.T) {
	hub := NewHub(slog.Default())
	hub.Start()
	defer hub.Stop()

	conn := dialTestHub(t, hub)
	waitForClients(t, hub, 1)

	conn.Close()
	waitForClients(t, hub, 0)
}

func TestHub_BroadcastWithoutClients(t *testing.T) {
	hub := NewHub(slog.Default())
	hub.Start()
	defer hub.Stop()

	// Must not block or panic with nobody listening.
	hub.Broadcast(Message{Type: "noop"})
}
