package push

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/contrib/websocket"
)

// fakeConn records writes; failWrites makes data writes fail.
type fakeConn struct {
	mu         sync.Mutex
	messages   [][]byte
	pings      int
	closed     bool
	failWrites bool
}

func (c *fakeConn) WriteMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failWrites {
		return errors.New("broken pipe")
	}
	if messageType == websocket.TextMessage {
		buf := make([]byte, len(data))
		copy(buf, data)
		c.messages = append(c.messages, buf)
	}
	return nil
}

func (c *fakeConn) WriteControl(messageType int, _ []byte, _ time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if messageType == websocket.PingMessage {
		c.pings++
	}
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) messageCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.messages)
}

func (c *fakeConn) lastMessage() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.messages) == 0 {
		return nil
	}
	return c.messages[len(c.messages)-1]
}

func (c *fakeConn) pingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pings
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func TestHub_RegisterUnregister(t *testing.T) {
	h := NewHub()

	c1 := h.Register("alice", &fakeConn{})
	c2 := h.Register("alice", &fakeConn{})
	c3 := h.Register("bob", &fakeConn{})

	if got := h.UserCount(); got != 2 {
		t.Errorf("UserCount() = %d, want 2", got)
	}
	if got := h.ConnectionCount(); got != 3 {
		t.Errorf("ConnectionCount() = %d, want 3", got)
	}

	h.Unregister(c1)
	if got := h.UserCount(); got != 2 {
		t.Errorf("UserCount() after partial unregister = %d, want 2", got)
	}

	// Removing a user's last connection removes the user entry.
	h.Unregister(c2)
	if got := h.UserCount(); got != 1 {
		t.Errorf("UserCount() after last unregister = %d, want 1", got)
	}

	// Unregistering twice is harmless.
	h.Unregister(c2)
	h.Unregister(c3)
	if got := h.ConnectionCount(); got != 0 {
		t.Errorf("ConnectionCount() = %d, want 0", got)
	}
}

func TestHub_SendToUser(t *testing.T) {
	h := NewHub()

	tab1 := &fakeConn{}
	tab2 := &fakeConn{}
	other := &fakeConn{}
	h.Register("alice", tab1)
	h.Register("alice", tab2)
	h.Register("bob", other)

	h.SendToUser("alice", map[string]string{"type": "test"})

	// Every one of the user's connections gets the message.
	for i, conn := range []*fakeConn{tab1, tab2} {
		if got := conn.messageCount(); got != 1 {
			t.Errorf("tab %d received %d messages, want 1", i+1, got)
		}
	}
	if got := other.messageCount(); got != 0 {
		t.Errorf("other user received %d messages, want 0", got)
	}

	var decoded map[string]string
	if err := json.Unmarshal(tab1.lastMessage(), &decoded); err != nil {
		t.Fatalf("failed to decode message: %v", err)
	}
	if decoded["type"] != "test" {
		t.Errorf("decoded type = %q, want %q", decoded["type"], "test")
	}
}

func TestHub_SendToUser_NoConnections(t *testing.T) {
	h := NewHub()
	// Sending to an unknown user is a no-op, not an error.
	h.SendToUser("ghost", map[string]string{"type": "test"})
}

func TestHub_SendToUser_FailedWriteSkipped(t *testing.T) {
	h := NewHub()

	broken := &fakeConn{failWrites: true}
	healthy := &fakeConn{}
	h.Register("alice", broken)
	h.Register("alice", healthy)

	h.SendToUser("alice", map[string]string{"type": "test"})

	if got := healthy.messageCount(); got != 1 {
		t.Errorf("healthy connection received %d messages, want 1", got)
	}
	// The failing connection stays registered; the heartbeat or the
	// read loop is responsible for reaping it.
	if got := h.ConnectionCount(); got != 2 {
		t.Errorf("ConnectionCount() = %d, want 2", got)
	}
}

func TestHub_SendToUsers_PartialDelivery(t *testing.T) {
	h := NewHub()

	alice := &fakeConn{}
	h.Register("alice", alice)

	h.SendToUsers([]string{"alice", "offline"}, map[string]string{"type": "test"})

	if got := alice.messageCount(); got != 1 {
		t.Errorf("alice received %d messages, want 1", got)
	}
}

func TestHub_Probe(t *testing.T) {
	h := NewHubWithInterval(time.Hour)

	responsive := &fakeConn{}
	silent := &fakeConn{}
	rc := h.Register("alice", responsive)
	h.Register("bob", silent)

	// First cycle marks everyone pending and pings them.
	h.probe()
	if got := responsive.pingCount(); got != 1 {
		t.Errorf("responsive conn got %d pings, want 1", got)
	}
	if got := silent.pingCount(); got != 1 {
		t.Errorf("silent conn got %d pings, want 1", got)
	}

	// Only alice answers.
	h.Pong(rc)

	// Second cycle drops the silent connection and keeps the live one.
	h.probe()
	if !silent.isClosed() {
		t.Error("unresponsive connection was not closed")
	}
	if responsive.isClosed() {
		t.Error("responsive connection was closed")
	}
	if got := h.ConnectionCount(); got != 1 {
		t.Errorf("ConnectionCount() = %d, want 1", got)
	}
	if got := h.UserCount(); got != 1 {
		t.Errorf("UserCount() = %d, want 1", got)
	}
	if got := responsive.pingCount(); got != 2 {
		t.Errorf("responsive conn got %d pings, want 2", got)
	}
}

func TestHub_RunShutdownClosesConnections(t *testing.T) {
	h := NewHubWithInterval(time.Hour)

	conn := &fakeConn{}
	h.Register("alice", conn)

	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)
	cancel()
	h.Wait()

	if !conn.isClosed() {
		t.Error("connection was not closed on shutdown")
	}
	if got := h.ConnectionCount(); got != 0 {
		t.Errorf("ConnectionCount() = %d, want 0", got)
	}
}

func TestHub_ConcurrentSendAndRegister(t *testing.T) {
	h := NewHub()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := h.Register("alice", &fakeConn{})
			h.SendToUser("alice", map[string]string{"type": "test"})
			h.Unregister(c)
		}()
	}
	wg.Wait()

	if got := h.ConnectionCount(); got != 0 {
		t.Errorf("ConnectionCount() = %d, want 0", got)
	}
}
