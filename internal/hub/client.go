// internal/hub/client.go
package hub

import (
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Client represents one accepted connection.
// Only its write pump writes to Conn, so frames queued by concurrent
// broadcasters are written whole and in queue order.
type Client struct {
	ID   string
	Conn net.Conn

	name         string // set by the registry on admission
	send         chan []byte
	done         chan struct{}
	closeOnce    sync.Once
	writeTimeout time.Duration
}

func newClient(conn net.Conn, queueSize int, writeTimeout time.Duration) *Client {
	return &Client{
		ID:           uuid.NewString(),
		Conn:         conn,
		send:         make(chan []byte, queueSize),
		done:         make(chan struct{}),
		writeTimeout: writeTimeout,
	}
}

// Name returns the registered display name, empty before the handshake succeeds.
func (c *Client) Name() string {
	return c.name
}

// Done is closed once the client is closed.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// enqueue blocks until raw is queued or the client is closed.
func (c *Client) enqueue(raw []byte) error {
	select {
	case <-c.done:
		return ErrClientClosed
	default:
	}
	select {
	case c.send <- raw:
		return nil
	case <-c.done:
		return ErrClientClosed
	}
}

// tryEnqueue never blocks; it is used while the registry lock is held.
func (c *Client) tryEnqueue(raw []byte) error {
	select {
	case <-c.done:
		return ErrClientClosed
	default:
	}
	select {
	case c.send <- raw:
		return nil
	default:
		return ErrQueueFull
	}
}

// writePump drains the send queue to the connection until the client is
// closed or a write fails. A failed write closes the client, which in turn
// makes the read side fail and unregister.
func (c *Client) writePump() {
	defer c.Close()
	for {
		select {
		case raw := <-c.send:
			if c.writeTimeout > 0 {
				_ = c.Conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
			}
			if _, err := c.Conn.Write(raw); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

// Close is idempotent.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.Conn.Close()
	})
}
