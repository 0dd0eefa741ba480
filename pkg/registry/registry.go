// Package registry holds the process-wide view of live connections: which
// identifiers exist, which endpoint reaches them and which usernames alias
// them.
package registry

import (
	"errors"
	"sort"
	"sync"
)

var (
	ErrIdentifierTaken = errors.New("identifier already registered")
	ErrNameTaken       = errors.New("name taken")
	ErrUnknownID       = errors.New("unknown identifier")
	ErrNotFound        = errors.New("destination not found")
	ErrEndpointClosed  = errors.New("endpoint closed")
	ErrMailboxFull     = errors.New("endpoint mailbox full")
)

// Registry maps identifiers to endpoints and usernames to identifiers.
//
// Both maps sit behind one RWMutex so every compound operation (claim,
// resolve, remove with its username cascade) is atomic: resolvers run in
// parallel, writers are serialized, and nobody sees a username pointing at a
// removed identifier.
type Registry struct {
	mu         sync.RWMutex
	identities map[string]*Endpoint
	usernames  map[string]string // username -> identifier
	names      map[string]string // identifier -> username
}

// New creates an empty registry
func New() *Registry {
	return &Registry{
		identities: make(map[string]*Endpoint),
		usernames:  make(map[string]string),
		names:      make(map[string]string),
	}
}

// Register inserts ep under id if id is not live. On success ep.ID() returns id.
func (r *Registry) Register(id string, ep *Endpoint) error {
	if ep.Closed() {
		return ErrEndpointClosed
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.identities[id]; exists {
		return ErrIdentifierTaken
	}

	ep.id = id
	r.identities[id] = ep
	return nil
}

// Remove deletes id and any username bound to it. It reports whether id was live.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.identities[id]; !exists {
		return false
	}

	delete(r.identities, id)
	if name, ok := r.names[id]; ok {
		delete(r.usernames, name)
		delete(r.names, id)
	}
	return true
}

// Claim binds username to id.
//
// Claiming the name id already holds succeeds; claiming a new one releases
// the old. Returns ErrUnknownID if id is not live and ErrNameTaken if another
// identifier holds the name.
func (r *Registry) Claim(username, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.identities[id]; !exists {
		return ErrUnknownID
	}

	if owner, taken := r.usernames[username]; taken {
		if owner == id {
			return nil
		}
		return ErrNameTaken
	}

	if old, ok := r.names[id]; ok {
		delete(r.usernames, old)
	}
	r.usernames[username] = id
	r.names[id] = username
	return nil
}

// Resolve finds the endpoint for a username, falling back to treating the
// input as a raw identifier
func (r *Registry) Resolve(usernameOrID string) (*Endpoint, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id := usernameOrID
	if owner, ok := r.usernames[usernameOrID]; ok {
		id = owner
	}

	ep, ok := r.identities[id]
	if !ok {
		return nil, ErrNotFound
	}
	return ep, nil
}

// Lookup returns the endpoint registered under id
func (r *Registry) Lookup(id string) (*Endpoint, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ep, ok := r.identities[id]
	return ep, ok
}

// Username returns the name claimed by id, if any
func (r *Registry) Username(id string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	name, ok := r.names[id]
	return name, ok
}

// Len returns the number of live identifiers
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.identities)
}

// NameCount returns the number of claimed usernames
func (r *Registry) NameCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.usernames)
}

// Identifiers returns the live identifiers in sorted order
func (r *Registry) Identifiers() []string {
	r.mu.RLock()
	ids := make([]string, 0, len(r.identities))
	for id := range r.identities {
		ids = append(ids, id)
	}
	r.mu.RUnlock()

	sort.Strings(ids)
	return ids
}
