// internal/hub/registry.go
package hub

import (
	"slices"
	"strings"
	"sync"

	"github.com/samber/lo"

	"github.com/erilali/framechat/internal/frame"
)

// Registry maps approved display names to their clients.
// It is the only state shared between connection handlers.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

func NewRegistry() *Registry {
	return &Registry{
		clients: make(map[string]*Client),
	}
}

// validateName checks the rules that do not depend on registry state.
func validateName(name string) error {
	if strings.Contains(name, frame.Separator) {
		return ErrReservedName
	}
	return nil
}

// Register validates name and inserts c under it in one critical section.
// admitted, when not nil, runs under the same lock before the insert; if it
// fails nothing is inserted. Broadcasters take their snapshot under the lock
// too, so whatever admitted queues reaches c before any broadcast does.
func (r *Registry) Register(name string, c *Client, admitted func(*Client) error) error {
	if err := validateName(name); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.clients[name]; ok {
		return ErrNameTaken
	}
	if admitted != nil {
		if err := admitted(c); err != nil {
			return err
		}
	}
	c.name = name
	r.clients[name] = c
	return nil
}

// Remove deletes name only if it still belongs to c.
func (r *Registry) Remove(name string, c *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.clients[name]; !ok || current != c {
		return false
	}
	delete(r.clients, name)
	return true
}

func (r *Registry) Lookup(name string) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[name]
	return c, ok
}

// Snapshot returns the clients registered at the time of the call.
func (r *Registry) Snapshot() []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lo.Values(r.clients)
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := lo.Keys(r.clients)
	r.mu.RUnlock()
	slices.Sort(names)
	return names
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}
