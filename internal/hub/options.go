// internal/hub/options.go
package hub

import (
	"errors"
	"fmt"
	"time"
)

// Option configures a Hub.
type Option func(h *Hub) error

func setup(h *Hub, options ...Option) error {
	for _, option := range options {
		if option == nil {
			continue
		}
		if err := option(h); err != nil {
			return err
		}
	}
	return nil
}

// WithSendQueueSize overwrites the per-client outbound queue capacity.
func WithSendQueueSize(size int) Option {
	return func(h *Hub) error {
		if size < 1 {
			return fmt.Errorf("hub.WithSendQueueSize: invalid size (%d)", size)
		}
		h.queueSize = size
		return nil
	}
}

// WithWriteTimeout bounds every frame write to a client. Zero disables the deadline.
func WithWriteTimeout(timeout time.Duration) Option {
	return func(h *Hub) error {
		if timeout < 0 {
			return fmt.Errorf("hub.WithWriteTimeout: invalid timeout (%v)", timeout)
		}
		h.writeTimeout = timeout
		return nil
	}
}

// WithRejectionReply makes the hub answer an invalid handshake with frame.Rejection.
// Off by default: plain clients only expect an approval and time out on their own.
func WithRejectionReply(enabled bool) Option {
	return func(h *Hub) error {
		h.rejectionReply = enabled
		return nil
	}
}

// WithRelay shares broadcasts with other hubs through relay.
func WithRelay(relay Relay) Option {
	return func(h *Hub) error {
		if relay == nil {
			return errors.New("hub.WithRelay: relay is nil")
		}
		if h.relay != nil {
			return errors.New("hub.WithRelay: relay already set up")
		}
		h.relay = relay
		return nil
	}
}
