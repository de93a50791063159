// internal/hub/websocket.go
package hub

import (
	"net/http"

	"github.com/erilali/framechat/internal/transport"
)

// ServeWs upgrades the HTTP connection to a WebSocket and serves it like any
// TCP connection: the same frames travel as binary messages.
func (h *Hub) ServeWs(w http.ResponseWriter, r *http.Request) {
	if h.ctx.Err() != nil {
		http.Error(w, "server is shutting down", http.StatusServiceUnavailable)
		return
	}
	conn, err := transport.Upgrade(w, r)
	if err != nil {
		h.logger.Errorf("WebSocket upgrade error: %v", err)
		return
	}
	h.ServeConn(r.Context(), conn)
}
