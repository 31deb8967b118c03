package session

import (
	"sync"

	"github.com/patrickmn/go-cache"
)

// Registry maps connection identities to their clients. It is safe for
// concurrent registration, removal and iteration.
type Registry struct {
	mu      sync.Mutex
	clients *cache.Cache
}

// NewRegistry creates an empty Registry. Entries never expire; a client
// stays registered until its reader removes it.
func NewRegistry() *Registry {
	return &Registry{
		clients: cache.New(cache.NoExpiration, 0),
	}
}

// Register adds a client under its identity.
func (r *Registry) Register(client *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients.Set(client.ID(), client, cache.NoExpiration)
}

// Unregister removes client if it is still the one registered under its
// identity, and reports whether it did.
func (r *Registry) Unregister(client *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	v, ok := r.clients.Get(client.ID())
	if !ok || v.(*Client) != client {
		return false
	}
	r.clients.Delete(client.ID())
	return true
}

// Lookup returns the client registered under id.
func (r *Registry) Lookup(id string) (*Client, bool) {
	v, ok := r.clients.Get(id)
	if !ok {
		return nil, false
	}
	return v.(*Client), true
}

// Snapshot returns the currently registered clients in no particular order.
func (r *Registry) Snapshot() []*Client {
	items := r.clients.Items()
	clients := make([]*Client, 0, len(items))
	for _, item := range items {
		clients = append(clients, item.Object.(*Client))
	}
	return clients
}

// ClientCount returns number of registered clients.
func (r *Registry) ClientCount() int {
	return r.clients.ItemCount()
}
