// internal/hub/messaging.go
package hub

import (
	"errors"
	"io"

	"github.com/erilali/framechat/internal/frame"
	"github.com/erilali/framechat/internal/logger"
)

// handshake reads name proposals until one is accepted and returns it.
// Invalid proposals are ignored, or answered with frame.Rejection when the hub
// is configured to; either way the client has to send the next proposal.
func (h *Hub) handshake(c *Client, log *logger.Logger) (string, error) {
	for {
		proposal, err := frame.Decode(c.Conn)
		if err != nil {
			return "", err
		}
		name := proposal.Sender()
		err = h.registry.Register(name, c, func(c *Client) error {
			return c.tryEnqueue(h.approval)
		})
		if err == nil {
			log.LogEvent("info", "client_registered", name, "")
			return name, nil
		}
		if !errors.Is(err, ErrInvalidName) {
			return "", err
		}
		log.LogEvent("debug", "handshake_rejected", name, err.Error())
		if h.rejectionReply {
			if err := c.enqueue(h.rejection); err != nil {
				return "", err
			}
		}
	}
}

// readPump decodes units from a registered client and broadcasts each of them.
// Any read failure is a disconnect.
func (h *Hub) readPump(c *Client, log *logger.Logger) {
	for {
		u, err := frame.Decode(c.Conn)
		if err != nil {
			detail := "left"
			level := "info"
			select {
			case <-c.Done():
			default:
				if !errors.Is(err, io.EOF) {
					detail = "dropped"
					log = log.WithError(err)
					level = "warn"
				}
			}
			log.LogEvent(level, "client_disconnected", c.Name(), detail)
			return
		}
		log.LogEvent("debug", "unit_broadcast", u.Sender(), u.Body())
		if err := h.Broadcast(u); err != nil {
			log.Warnf("Broadcast failed: %v", err)
		}
	}
}
