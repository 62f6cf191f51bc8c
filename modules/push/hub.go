// Package push implements the real-time push channel: a liveness-checked
// pool of WebSocket connections keyed by authenticated user.
package push

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
)

// DefaultHeartbeatInterval is how often each connection is probed. A
// connection that does not answer a probe within one interval is
// forcibly closed. Clients are expected to reconnect with capped
// exponential backoff and re-fetch notifications from the durable
// store; push history is not replayed.
const DefaultHeartbeatInterval = 30 * time.Second

const controlWriteTimeout = 10 * time.Second

// Conn is the subset of the WebSocket connection the hub needs.
// *websocket.Conn satisfies it; tests substitute fakes.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	Close() error
}

// Client is one live connection. A user may hold several at once
// (multiple tabs); each is tracked and probed independently.
type Client struct {
	conn   Conn
	userID string

	mu    sync.Mutex // serializes data writes on the connection
	alive bool       // reset before each probe, set again by the pong
}

func (c *Client) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Hub maintains the user -> connections mapping and delivers
// best-effort messages. It is safe for concurrent use: connection
// open/close/heartbeat events arrive on independent handlers.
type Hub struct {
	mu       sync.RWMutex
	users    map[string]map[*Client]struct{}
	interval time.Duration
	done     chan struct{}
}

// NewHub creates a new hub with the default heartbeat interval.
func NewHub() *Hub {
	return NewHubWithInterval(DefaultHeartbeatInterval)
}

// NewHubWithInterval creates a new hub probing at the given interval.
func NewHubWithInterval(interval time.Duration) *Hub {
	return &Hub{
		users:    make(map[string]map[*Client]struct{}),
		interval: interval,
		done:     make(chan struct{}),
	}
}

// Register adds a connection for a user and returns a handle used for
// pong acknowledgement and unregistration.
func (h *Hub) Register(userID string, conn Conn) *Client {
	c := &Client{conn: conn, userID: userID, alive: true}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.users[userID] == nil {
		h.users[userID] = make(map[*Client]struct{})
	}
	h.users[userID][c] = struct{}{}
	log.Printf("[push] Connection registered for user %s (%d open)", userID, len(h.users[userID]))
	return c
}

// Unregister removes a connection. When a user's last connection goes,
// the user's entry is removed entirely so disconnected users do not
// accumulate.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

func (h *Hub) removeLocked(c *Client) {
	conns, ok := h.users[c.userID]
	if !ok {
		return
	}
	if _, ok := conns[c]; !ok {
		return
	}
	delete(conns, c)
	if len(conns) == 0 {
		delete(h.users, c.userID)
	}
	log.Printf("[push] Connection unregistered for user %s", c.userID)
}

// Pong records that a connection answered the latest probe. Wired as
// the connection's pong handler.
func (h *Hub) Pong(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c.alive = true
}

// SendToUser serializes the payload once and writes it to every open
// connection for the user. A user with no connections, or a connection
// that fails the write, is silently skipped: delivery is a hint, the
// durable notification row is the source of truth.
func (h *Hub) SendToUser(userID string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("[push] Failed to marshal payload: %v", err)
		return
	}
	h.sendRaw(userID, data)
}

// SendToUsers applies SendToUser independently per recipient. Partial
// delivery (some users online, some not) is expected and not an error.
func (h *Hub) SendToUsers(userIDs []string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("[push] Failed to marshal payload: %v", err)
		return
	}
	for _, userID := range userIDs {
		h.sendRaw(userID, data)
	}
}

func (h *Hub) sendRaw(userID string, data []byte) {
	h.mu.RLock()
	conns := make([]*Client, 0, len(h.users[userID]))
	for c := range h.users[userID] {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	for _, c := range conns {
		if err := c.write(data); err != nil {
			log.Printf("[push] Dropped write to user %s: %v", userID, err)
		}
	}
}

// Run drives the heartbeat until the context is cancelled, then closes
// every remaining connection.
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("[push] Shutting down...")
			h.closeAll()
			close(h.done)
			return
		case <-ticker.C:
			h.probe()
		}
	}
}

// Wait blocks until the hub has stopped.
func (h *Hub) Wait() {
	<-h.done
}

// probe runs one heartbeat cycle: connections that never answered the
// previous ping are closed and dropped, the rest are pinged again. This
// bounds the staleness of the mapping to one interval.
func (h *Hub) probe() {
	h.mu.Lock()
	var stale []*Client
	var live []*Client
	for _, conns := range h.users {
		for c := range conns {
			if !c.alive {
				stale = append(stale, c)
				continue
			}
			c.alive = false
			live = append(live, c)
		}
	}
	for _, c := range stale {
		h.removeLocked(c)
	}
	h.mu.Unlock()

	for _, c := range stale {
		log.Printf("[push] Closing unresponsive connection for user %s", c.userID)
		_ = c.conn.Close()
	}
	deadline := time.Now().Add(controlWriteTimeout)
	for _, c := range live {
		if err := c.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
			// The read loop will observe the broken connection and unregister it.
			log.Printf("[push] Ping failed for user %s: %v", c.userID, err)
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, conns := range h.users {
		for c := range conns {
			_ = c.conn.Close()
		}
	}
	h.users = make(map[string]map[*Client]struct{})
}

// UserCount returns the number of users with at least one connection.
func (h *Hub) UserCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users)
}

// ConnectionCount returns the total number of open connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, conns := range h.users {
		n += len(conns)
	}
	return n
}
