// internal/hub/nats.go
package hub

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/erilali/framechat/internal/logger"
)

const (
	// DefaultRelaySubject is the NATS subject broadcast frames are published on.
	DefaultRelaySubject = "framechat.broadcast"
	relayNodeHeader     = "Framechat-Node"
)

// Relay shares encoded frames between hubs so clients connected to any of
// them see every broadcast. Frames are live traffic only, nothing is retained.
type Relay interface {
	Publish(raw []byte) error
	// Subscribe delivers frames published by other hubs. Frames this hub
	// published itself are never delivered back.
	Subscribe(deliver func(raw []byte)) (unsubscribe func() error, err error)
}

// NATSRelay implements Relay over core NATS publish/subscribe.
type NATSRelay struct {
	conn    *nats.Conn
	subject string
	nodeID  string
	logger  *logger.Logger
}

// ConnectNATS dials url and returns a relay on subject.
func ConnectNATS(url, subject string, log *logger.Logger) (*NATSRelay, error) {
	if log == nil {
		log = logger.Nop()
	}
	nodeID := uuid.NewString()
	nc, err := nats.Connect(url,
		nats.Name("framechat-"+nodeID),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warnf("NATS disconnected: %v", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Infof("NATS reconnected to %s", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("hub: connect NATS at %s: %w", url, err)
	}
	r := NewNATSRelay(nc, subject, log)
	r.nodeID = nodeID
	return r, nil
}

// NewNATSRelay wraps an established connection.
func NewNATSRelay(nc *nats.Conn, subject string, log *logger.Logger) *NATSRelay {
	if subject == "" {
		subject = DefaultRelaySubject
	}
	if log == nil {
		log = logger.Nop()
	}
	return &NATSRelay{
		conn:    nc,
		subject: subject,
		nodeID:  uuid.NewString(),
		logger:  log,
	}
}

func (r *NATSRelay) NodeID() string { return r.nodeID }

func (r *NATSRelay) Subject() string { return r.subject }

func (r *NATSRelay) Publish(raw []byte) error {
	if r.conn == nil {
		return errors.New("hub: NATS relay not connected")
	}
	msg := nats.NewMsg(r.subject)
	msg.Header.Set(relayNodeHeader, r.nodeID)
	msg.Data = raw
	return r.conn.PublishMsg(msg)
}

func (r *NATSRelay) Subscribe(deliver func(raw []byte)) (func() error, error) {
	if r.conn == nil {
		return nil, errors.New("hub: NATS relay not connected")
	}
	sub, err := r.conn.Subscribe(r.subject, r.handler(deliver))
	if err != nil {
		return nil, err
	}
	r.logger.Infof("Relaying broadcasts on NATS subject %s as node %s", r.subject, r.nodeID)
	return sub.Unsubscribe, nil
}

// handler drops frames this node published itself.
func (r *NATSRelay) handler(deliver func(raw []byte)) nats.MsgHandler {
	return func(msg *nats.Msg) {
		if msg.Header.Get(relayNodeHeader) == r.nodeID {
			return
		}
		deliver(msg.Data)
	}
}

// Status reports the connection state for health checks.
func (r *NATSRelay) Status() string {
	if r.conn != nil && r.conn.Status() == nats.CONNECTED {
		return "connected"
	}
	return "disconnected"
}

// Close drains pending messages and closes the connection.
func (r *NATSRelay) Close() error {
	if r.conn == nil {
		return nil
	}
	return r.conn.Drain()
}
