// internal/api/api.go
// HTTP admin surface of the chat server: health, registered clients and the WebSocket chat endpoint.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/erilali/framechat/internal/hub"
	"github.com/erilali/framechat/internal/logger"
)

const shutdownTimeout = 5 * time.Second

// StatusReporter describes the relay connection for /health.
type StatusReporter interface {
	Status() string
}

// NewRouter wires the admin endpoints for h. relay may be nil when the server runs standalone.
func NewRouter(h *hub.Hub, relay StatusReporter, version string, log *logger.Logger) http.Handler {
	if log == nil {
		log = logger.Nop()
	}
	mux := http.NewServeMux()

	mux.HandleFunc("/ws", h.ServeWs)

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		relayStatus := "disabled"
		if relay != nil {
			relayStatus = relay.Status()
		}
		writeJSON(w, log, map[string]interface{}{
			"status":  "ok",
			"clients": h.Registry().Len(),
			"relay":   relayStatus,
			"version": version,
		})
	})

	mux.HandleFunc("/api/clients", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		names := h.Registry().Names()
		writeJSON(w, log, map[string]interface{}{
			"clients": names,
			"count":   len(names),
		})
	})

	return mux
}

func writeJSON(w http.ResponseWriter, log *logger.Logger, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf("Error encoding response: %v", err)
	}
}

// StartServer serves handler on addr until ctx is done, then shuts the HTTP server down.
func StartServer(ctx context.Context, addr string, handler http.Handler, log *logger.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errChan := make(chan error, 1)
	go func() {
		log.Infof("Admin server started at %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
		close(errChan)
	}()

	select {
	case err, ok := <-errChan:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
