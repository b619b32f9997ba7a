// Package stream maintains the persistent connection to the main API's
// approved-summaries event feed and keeps the shared cache warm.
package stream

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/asc0ltato/summary-api/internal/logging"
	"github.com/asc0ltato/summary-api/internal/metrics"
	"github.com/asc0ltato/summary-api/internal/models"
)

// State is the connection state of the stream client.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

// StreamPath is the fixed feed endpoint on the main API host.
const StreamPath = "/ws/approved-summaries"

// Config holds stream client configuration.
type Config struct {
	// BaseURL is the main API base URL; the feed address is derived from
	// its host.
	BaseURL string

	// ReconnectWait is the period of the reconnect check after a
	// disconnect.
	ReconnectWait time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:       baseURL,
		ReconnectWait: 5 * time.Second,
	}
}

// Client keeps a websocket connection to the approved-summaries feed open
// for the life of the process, reconnecting with a fixed backoff, and
// upserts inbound events into the shared cache.
type Client struct {
	url           string
	cache         *Cache
	logger        *slog.Logger
	dialer        *websocket.Dialer
	reconnectWait time.Duration

	mu        sync.Mutex
	conn      *websocket.Conn
	state     State
	reconnect *time.Ticker
	stopTick  chan struct{}
	closed    bool

	wg sync.WaitGroup
}

// NewClient creates a Client and immediately attempts to open the feed
// connection. A failed first dial is not an error; the reconnect loop
// keeps trying until the feed comes up.
func NewClient(cfg Config, cache *Cache, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	feedURL, err := deriveStreamURL(cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	if cfg.ReconnectWait <= 0 {
		cfg.ReconnectWait = 5 * time.Second
	}

	c := &Client{
		url:           feedURL,
		cache:         cache,
		logger:        logger,
		dialer:        websocket.DefaultDialer,
		reconnectWait: cfg.ReconnectWait,
	}
	c.Connect()
	return c, nil
}

// deriveStreamURL maps the configured base URL onto the feed address.
// Loopback hosts get the unencrypted scheme, everything else is encrypted.
func deriveStreamURL(baseURL string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("base url %q has no host", baseURL)
	}

	scheme := "wss"
	switch u.Hostname() {
	case "localhost", "127.0.0.1", "::1":
		scheme = "ws"
	}

	return fmt.Sprintf("%s://%s%s", scheme, u.Host, StreamPath), nil
}

// Connect dials the feed unless the client is closed, already connected or
// a dial is in flight. On failure the periodic reconnect check takes over.
func (c *Client) Connect() {
	c.mu.Lock()
	if c.closed || c.state != StateDisconnected {
		c.mu.Unlock()
		return
	}
	c.state = StateConnecting
	c.mu.Unlock()

	c.logger.Info("connecting to event stream", slog.String("url", c.url))

	conn, _, err := c.dialer.Dial(c.url, nil)

	c.mu.Lock()
	if err != nil {
		c.state = StateDisconnected
		c.mu.Unlock()
		c.logger.Error("event stream dial failed", logging.Error(err))
		c.scheduleReconnect()
		return
	}
	if c.closed {
		c.state = StateDisconnected
		c.mu.Unlock()
		conn.Close()
		return
	}
	c.conn = conn
	c.state = StateConnected
	c.stopReconnectLocked()
	c.mu.Unlock()

	c.logger.Info("event stream connected")

	c.wg.Add(1)
	go c.readLoop(conn)
}

func (c *Client) readLoop(conn *websocket.Conn) {
	defer c.wg.Done()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		c.handleMessage(data)
	}
	conn.Close()

	c.mu.Lock()
	if c.conn == conn {
		c.conn = nil
		c.state = StateDisconnected
	}
	closed := c.closed
	c.mu.Unlock()

	if !closed {
		c.logger.Warn("event stream connection closed, will reconnect")
		c.scheduleReconnect()
	}
}

// handleMessage upserts a well-formed approved_summary frame into the
// cache. Malformed frames are logged and dropped; they never take the
// stream down.
func (c *Client) handleMessage(data []byte) {
	var event models.StreamEvent
	if err := json.Unmarshal(data, &event); err != nil {
		metrics.StreamParseErrors.Inc()
		c.logger.Error("failed to parse event stream message", logging.Error(err))
		return
	}

	if event.Type != models.EventApprovedSummary || event.Data == nil || event.Data.EmailGroupID == "" {
		return
	}

	c.cache.Put(*event.Data)
	metrics.StreamEventsTotal.Inc()
	c.logger.Info("received approved summary",
		logging.EmailGroupID(event.Data.EmailGroupID),
		logging.CacheSize(c.cache.Len()))
}

// scheduleReconnect starts the single periodic reconnect check. A second
// call while the ticker is running is a no-op.
func (c *Client) scheduleReconnect() {
	c.mu.Lock()
	if c.closed || c.reconnect != nil {
		c.mu.Unlock()
		return
	}
	ticker := time.NewTicker(c.reconnectWait)
	stop := make(chan struct{})
	c.reconnect = ticker
	c.stopTick = stop
	c.mu.Unlock()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if !c.IsLive() {
					c.logger.Info("attempting event stream reconnect")
					metrics.StreamReconnects.Inc()
					c.Connect()
				}
			}
		}
	}()
}

// stopReconnectLocked cancels the reconnect ticker. Caller holds c.mu.
func (c *Client) stopReconnectLocked() {
	if c.reconnect != nil {
		c.reconnect.Stop()
		close(c.stopTick)
		c.reconnect = nil
		c.stopTick = nil
	}
}

// IsLive reports whether an open feed connection currently exists.
func (c *Client) IsLive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil && c.state == StateConnected
}

// Snapshot returns the cached summaries regardless of connection state.
func (c *Client) Snapshot() []models.ApprovedSummary {
	return c.cache.Snapshot()
}

// Merge bulk-upserts summaries fetched through the pull fallback so later
// reads can hit the cache path.
func (c *Client) Merge(summaries []models.ApprovedSummary) {
	c.cache.Merge(summaries)
	c.logger.Info("merged summaries into stream cache",
		slog.Int("merged", len(summaries)),
		logging.CacheSize(c.cache.Len()))
}

// Len returns the number of cached summaries.
func (c *Client) Len() int {
	return c.cache.Len()
}

// Close cancels the reconnect check and closes any open connection,
// leaving the client inert. Safe to call more than once.
func (c *Client) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.stopReconnectLocked()
	conn := c.conn
	c.conn = nil
	c.state = StateDisconnected
	c.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
	c.wg.Wait()
}
