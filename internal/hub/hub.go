// internal/hub/hub.go
// Accepts chat connections, registers their names and fans every received unit out to all registered clients.
package hub

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/erilali/framechat/internal/frame"
	"github.com/erilali/framechat/internal/logger"
)

const (
	defaultSendQueueSize = 64
	defaultWriteTimeout  = 10 * time.Second
	acceptRetryDelay     = 50 * time.Millisecond
)

// Hub represents the chat server core: the registry of named clients and the
// handlers serving their connections.
type Hub struct {
	registry *Registry
	logger   *logger.Logger

	queueSize      int
	writeTimeout   time.Duration
	rejectionReply bool
	relay          Relay

	approval  []byte
	rejection []byte

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu          sync.Mutex
	conns       map[*Client]struct{}
	relayOnce   sync.Once
	relayErr    error
	unsubscribe func() error
}

// New creates a hub ready to serve any number of listeners.
func New(log *logger.Logger, options ...Option) (*Hub, error) {
	if log == nil {
		log = logger.Nop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{
		registry:     NewRegistry(),
		logger:       log,
		queueSize:    defaultSendQueueSize,
		writeTimeout: defaultWriteTimeout,
		ctx:          ctx,
		cancel:       cancel,
		conns:        make(map[*Client]struct{}),
	}
	if err := setup(h, options...); err != nil {
		cancel()
		return nil, err
	}
	var err error
	if h.approval, err = frame.Encode(frame.Approval); err != nil {
		cancel()
		return nil, err
	}
	if h.rejection, err = frame.Encode(frame.Rejection); err != nil {
		cancel()
		return nil, err
	}
	return h, nil
}

// Registry exposes the live name registry, read-only use intended.
func (h *Hub) Registry() *Registry {
	return h.registry
}

// Serve accepts connections from listener until ctx is done, the hub is shut
// down or the listener fails permanently. Each connection is served in its own
// goroutine; a failing connection never stops the loop.
func (h *Hub) Serve(ctx context.Context, listener net.Listener) error {
	if h.ctx.Err() != nil {
		return ErrHubClosed
	}
	if err := h.startRelay(); err != nil {
		return err
	}

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
		case <-h.ctx.Done():
		case <-stop:
			return
		}
		listener.Close()
	}()

	h.logger.Infof("Accepting chat connections on %s", listener.Addr())
	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil || h.ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return fmt.Errorf("hub: listener closed: %w", err)
			}
			h.logger.Warnf("Accept error: %v", err)
			time.Sleep(acceptRetryDelay)
			continue
		}
		go h.ServeConn(ctx, conn)
	}
}

// ServeConn runs the whole lifecycle of one connection: name handshake, then
// the receive loop broadcasting every unit. It returns once the connection is
// gone and its registry entry removed.
func (h *Hub) ServeConn(ctx context.Context, conn net.Conn) {
	c := newClient(conn, h.queueSize, h.writeTimeout)
	if !h.track(c) {
		c.Close()
		return
	}
	defer h.untrack(c)
	defer c.Close()
	stopWatch := context.AfterFunc(ctx, c.Close)
	defer stopWatch()

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		c.writePump()
	}()

	log := h.logger.WithFields(map[string]interface{}{
		"client": c.ID,
		"remote": conn.RemoteAddr().String(),
	})
	log.Debug("Connection accepted")

	name, err := h.handshake(c, log)
	if err != nil {
		log.Debugf("Connection closed before registration: %v", err)
		return
	}
	defer func() {
		if h.registry.Remove(name, c) {
			log.Debugf("Removed %q from registry", name)
		}
	}()

	h.readPump(c, log)
}

// Broadcast sends u to every registered client, including its author, and
// publishes it to the relay when one is configured.
func (h *Hub) Broadcast(u frame.Unit) error {
	raw, err := frame.Encode(u)
	if err != nil {
		return err
	}
	h.fanOut(raw)
	if h.relay != nil {
		if err := h.relay.Publish(raw); err != nil {
			h.logger.LogEvent("error", "relay_error", u.Sender(), err.Error())
			return fmt.Errorf("hub: relay publish: %w", err)
		}
	}
	return nil
}

// fanOut queues raw for every client of the current registry snapshot.
func (h *Hub) fanOut(raw []byte) int {
	delivered := 0
	for _, c := range h.registry.Snapshot() {
		if err := c.enqueue(raw); err != nil {
			continue
		}
		delivered++
	}
	return delivered
}

// deliverRemote handles a frame published by another hub: local fan-out only.
func (h *Hub) deliverRemote(raw []byte) {
	u, err := frame.Decode(bytes.NewReader(raw))
	if err != nil || u.Len() != len(raw) {
		h.logger.LogEvent("warn", "relay_error", "", fmt.Sprintf("malformed relayed frame (%d bytes)", len(raw)))
		return
	}
	h.logger.LogEvent("debug", "unit_broadcast", u.Sender(), u.Body())
	h.fanOut(raw)
}

func (h *Hub) startRelay() error {
	if h.relay == nil {
		return nil
	}
	h.relayOnce.Do(func() {
		unsubscribe, err := h.relay.Subscribe(h.deliverRemote)
		if err != nil {
			h.relayErr = fmt.Errorf("hub: relay subscribe: %w", err)
			return
		}
		h.mu.Lock()
		h.unsubscribe = unsubscribe
		h.mu.Unlock()
	})
	return h.relayErr
}

func (h *Hub) track(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.ctx.Err() != nil {
		return false
	}
	h.conns[c] = struct{}{}
	h.wg.Add(1)
	return true
}

func (h *Hub) untrack(c *Client) {
	h.mu.Lock()
	delete(h.conns, c)
	h.mu.Unlock()
	h.wg.Done()
}

// Shutdown closes every connection, detaches from the relay and waits for the
// handlers to finish, at most timeout. It returns the time spent.
func (h *Hub) Shutdown(timeout time.Duration) time.Duration {
	from := time.Now()
	h.mu.Lock()
	if h.ctx.Err() != nil {
		h.mu.Unlock()
		return 0
	}
	h.cancel()
	conns := make([]*Client, 0, len(h.conns))
	for c := range h.conns {
		conns = append(conns, c)
	}
	unsubscribe := h.unsubscribe
	h.mu.Unlock()

	if unsubscribe != nil {
		if err := unsubscribe(); err != nil {
			h.logger.Warnf("Relay unsubscribe failed: %v", err)
		}
	}
	for _, c := range conns {
		c.Close()
	}

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
		h.logger.Warnf("Shutdown timed out after %v", timeout)
	}
	return time.Since(from)
}
