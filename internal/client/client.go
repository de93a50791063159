// internal/client/client.go
// Chat client: connects to a server, registers a name, then sends and receives units concurrently.
package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/erilali/framechat/internal/frame"
	"github.com/erilali/framechat/internal/logger"
	"github.com/erilali/framechat/internal/transport"
)

const DefaultHandshakeTimeout = 3 * time.Second

var (
	// ErrNameRejected is returned by Handshake when the server did not approve the name.
	ErrNameRejected = errors.New("client: name rejected")
	// ErrNotRegistered is returned by Send before a successful Handshake.
	ErrNotRegistered = errors.New("client: no approved name")
	// ErrConnectionStale is returned once a handshake reply was not read in full;
	// the connection is closed and a new one must be dialled.
	ErrConnectionStale = errors.New("client: connection unusable after failed handshake, dial again")

	errLinesClosed = errors.New("client: input closed")
)

// Option configures a Client.
type Option func(*Client)

// WithHandshakeTimeout bounds the wait for the server's answer to a name proposal.
// Zero waits forever.
func WithHandshakeTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout >= 0 {
			c.handshakeTimeout = timeout
		}
	}
}

// WithLogger sets the client logger.
func WithLogger(log *logger.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.logger = log
		}
	}
}

// Client is one connection to a chat server.
// Send may be called from several goroutines; frames are written whole.
type Client struct {
	conn             net.Conn
	handshakeTimeout time.Duration
	logger           *logger.Logger

	name      string
	stale     bool
	writeMu   sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

// Dial connects to addr. A ws:// or wss:// address is dialled as a WebSocket,
// anything else as host:port over TCP.
func Dial(ctx context.Context, addr string, options ...Option) (*Client, error) {
	var (
		conn net.Conn
		err  error
	)
	if strings.HasPrefix(addr, "ws://") || strings.HasPrefix(addr, "wss://") {
		conn, err = transport.DialWebSocket(ctx, addr)
	} else {
		var dialer net.Dialer
		conn, err = dialer.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return nil, fmt.Errorf("client: dial %s: %w", addr, err)
	}
	return New(conn, options...), nil
}

// New wraps an established connection.
func New(conn net.Conn, options ...Option) *Client {
	c := &Client{
		conn:             conn,
		handshakeTimeout: DefaultHandshakeTimeout,
		logger:           logger.Nop(),
	}
	for _, option := range options {
		option(c)
	}
	return c
}

// Name returns the approved name, empty until Handshake succeeds.
func (c *Client) Name() string {
	return c.name
}

// Handshake proposes name and waits for the server's answer.
// A name the server never answers within the handshake timeout counts as rejected,
// since the server ignores invalid proposals by default. The stream position is
// then unknown, so the connection is closed and every later Handshake fails with
// ErrConnectionStale: the caller has to dial again.
func (c *Client) Handshake(name string) error {
	if c.stale {
		return ErrConnectionStale
	}
	if strings.Contains(name, frame.Separator) {
		return fmt.Errorf("%w: %q contains %q", ErrNameRejected, name, frame.Separator)
	}
	proposal, err := frame.Handshake(name)
	if err != nil {
		return err
	}
	if err := c.write(proposal); err != nil {
		return err
	}

	if c.handshakeTimeout > 0 {
		_ = c.conn.SetReadDeadline(time.Now().Add(c.handshakeTimeout))
	}
	reply, err := frame.Decode(c.conn)
	if err != nil {
		c.stale = true
		c.Close()
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			c.logger.LogEvent("debug", "handshake_rejected", name, "no answer")
			return fmt.Errorf("%w: no answer within %v: %w", ErrNameRejected, c.handshakeTimeout, ErrConnectionStale)
		}
		return fmt.Errorf("client: read handshake reply: %w: %w", err, ErrConnectionStale)
	}
	if c.handshakeTimeout > 0 {
		_ = c.conn.SetReadDeadline(time.Time{})
	}
	if !reply.IsApproval() {
		c.logger.LogEvent("debug", "handshake_rejected", name, reply.Body())
		return fmt.Errorf("%w: server replied %q", ErrNameRejected, reply.Body())
	}
	c.name = name
	c.logger.LogEvent("info", "client_registered", name, "")
	return nil
}

// Send writes body as a unit from the approved name.
func (c *Client) Send(body string) error {
	if c.name == "" {
		return ErrNotRegistered
	}
	u, err := frame.New(c.name, body)
	if err != nil {
		return err
	}
	return c.write(u)
}

// Receive blocks until the next unit arrives.
func (c *Client) Receive() (frame.Unit, error) {
	return frame.Decode(c.conn)
}

func (c *Client) write(u frame.Unit) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return frame.Write(c.conn, u)
}

// Run sends every line from lines and hands every received unit to display,
// both at once, until one side fails, ctx is done or lines is closed.
// Lines too long for a frame are logged and skipped. The connection is closed
// when Run returns. A closed lines channel ends the session without error.
func (c *Client) Run(ctx context.Context, lines <-chan string, display func(frame.Unit)) error {
	group, groupCtx := errgroup.WithContext(ctx)
	stop := context.AfterFunc(groupCtx, func() { c.Close() })
	defer stop()

	group.Go(func() error {
		for {
			select {
			case <-groupCtx.Done():
				return groupCtx.Err()
			case line, ok := <-lines:
				if !ok {
					return errLinesClosed
				}
				err := c.Send(line)
				if errors.Is(err, frame.ErrProtocol) {
					c.logger.Warnf("Message not sent: %v", err)
					continue
				}
				if err != nil {
					return fmt.Errorf("client: send: %w", err)
				}
			}
		}
	})

	group.Go(func() error {
		for {
			u, err := c.Receive()
			if err != nil {
				return fmt.Errorf("client: receive: %w", err)
			}
			display(u)
		}
	})

	err := group.Wait()
	c.Close()
	switch {
	case errors.Is(err, errLinesClosed):
		return nil
	case ctx.Err() != nil:
		return ctx.Err()
	}
	return err
}

// Close is idempotent.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}
