package stream

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveStreamURL(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		want    string
		wantErr bool
	}{
		{
			name:    "localhost uses plain scheme",
			baseURL: "http://localhost:3001",
			want:    "ws://localhost:3001/ws/approved-summaries",
		},
		{
			name:    "loopback ip uses plain scheme",
			baseURL: "http://127.0.0.1:3001",
			want:    "ws://127.0.0.1:3001/ws/approved-summaries",
		},
		{
			name:    "remote host is encrypted",
			baseURL: "http://backend:3001",
			want:    "wss://backend:3001/ws/approved-summaries",
		},
		{
			name:    "https remote host is encrypted",
			baseURL: "https://api.example.com",
			want:    "wss://api.example.com/ws/approved-summaries",
		},
		{
			name:    "missing host",
			baseURL: "not-a-url",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := deriveStreamURL(tt.baseURL)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// feedServer is a minimal approved-summaries feed for tests. It records
// every accepted connection and keeps them open until closed explicitly.
type feedServer struct {
	srv      *httptest.Server
	upgrader websocket.Upgrader

	mu    sync.Mutex
	conns []*websocket.Conn
}

func newFeedServer(t *testing.T) *feedServer {
	t.Helper()
	fs := &feedServer{}
	fs.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != StreamPath {
			http.NotFound(w, r)
			return
		}
		conn, err := fs.upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		fs.mu.Lock()
		fs.conns = append(fs.conns, conn)
		fs.mu.Unlock()
		// Drain until the peer goes away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(fs.srv.Close)
	return fs
}

func (fs *feedServer) connCount() int {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return len(fs.conns)
}

func (fs *feedServer) send(t *testing.T, payload string) {
	t.Helper()
	fs.mu.Lock()
	conn := fs.conns[len(fs.conns)-1]
	fs.mu.Unlock()
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(payload)))
}

func (fs *feedServer) dropLast(t *testing.T) {
	t.Helper()
	fs.mu.Lock()
	conn := fs.conns[len(fs.conns)-1]
	fs.mu.Unlock()
	require.NoError(t, conn.Close())
}

func newTestClient(t *testing.T, fs *feedServer) *Client {
	t.Helper()
	cfg := Config{BaseURL: fs.srv.URL, ReconnectWait: 50 * time.Millisecond}
	c, err := NewClient(cfg, NewCache(), nil)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func TestClient_ConnectsOnConstruction(t *testing.T) {
	fs := newFeedServer(t)
	c := newTestClient(t, fs)

	assert.True(t, c.IsLive())
	assert.Equal(t, 1, fs.connCount())
}

func TestClient_CachesApprovedSummaryEvents(t *testing.T) {
	fs := newFeedServer(t)
	c := newTestClient(t, fs)

	fs.send(t, `{"type":"approved_summary","data":{"emailGroupId":"group-1","shipment_data":{"name":"cargo"}}}`)

	require.Eventually(t, func() bool { return c.Len() == 1 }, time.Second, 10*time.Millisecond)

	snap := c.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, "group-1", snap[0].EmailGroupID)
	assert.JSONEq(t, `{"name":"cargo"}`, string(snap[0].ShipmentData))
}

func TestClient_IgnoresOtherEventTypes(t *testing.T) {
	fs := newFeedServer(t)
	c := newTestClient(t, fs)

	fs.send(t, `{"type":"heartbeat"}`)
	fs.send(t, `{"type":"approved_summary","data":{"emailGroupId":"group-1","shipment_data":{}}}`)

	require.Eventually(t, func() bool { return c.Len() == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, c.Len())
}

func TestClient_MalformedFrameDoesNotKillStream(t *testing.T) {
	fs := newFeedServer(t)
	c := newTestClient(t, fs)

	fs.send(t, `{not json at all`)
	fs.send(t, `{"type":"approved_summary","data":{"emailGroupId":"group-1","shipment_data":{}}}`)

	require.Eventually(t, func() bool { return c.Len() == 1 }, time.Second, 10*time.Millisecond)
	assert.True(t, c.IsLive())
	assert.Equal(t, 1, fs.connCount(), "a malformed frame must not trigger a reconnect")
}

func TestClient_ReconnectsAfterDrop(t *testing.T) {
	fs := newFeedServer(t)
	c := newTestClient(t, fs)

	fs.dropLast(t)

	require.Eventually(t, func() bool { return !c.IsLive() }, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return c.IsLive() }, time.Second, 5*time.Millisecond,
		"client must redial within the reconnect interval")
	assert.Equal(t, 2, fs.connCount())

	// The reconnect ticker must stop once connected: no further dials.
	time.Sleep(4 * 50 * time.Millisecond)
	assert.Equal(t, 2, fs.connCount(), "no duplicate connection attempts after reconnect")
}

func TestClient_CacheSurvivesDisconnect(t *testing.T) {
	fs := newFeedServer(t)
	c := newTestClient(t, fs)

	fs.send(t, `{"type":"approved_summary","data":{"emailGroupId":"group-1","shipment_data":{}}}`)
	require.Eventually(t, func() bool { return c.Len() == 1 }, time.Second, 10*time.Millisecond)

	fs.dropLast(t)
	require.Eventually(t, func() bool { return !c.IsLive() }, time.Second, 5*time.Millisecond)

	assert.Equal(t, 1, c.Len(), "snapshot is served independent of connection state")
	assert.Len(t, c.Snapshot(), 1)
}

func TestClient_CloseLeavesClientInert(t *testing.T) {
	fs := newFeedServer(t)
	cfg := Config{BaseURL: fs.srv.URL, ReconnectWait: 50 * time.Millisecond}
	c, err := NewClient(cfg, NewCache(), nil)
	require.NoError(t, err)

	require.True(t, c.IsLive())
	c.Close()

	assert.False(t, c.IsLive())

	// Well past several reconnect intervals nothing must have redialed.
	time.Sleep(4 * 50 * time.Millisecond)
	assert.Equal(t, 1, fs.connCount())

	// Close is idempotent.
	c.Close()
}
