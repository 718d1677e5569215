// Package relay is the real-time core: a registry of live WebSocket
// connections, a typed event catalog, and role/tenant-scoped fan-out.
package relay

import (
	"errors"
	"sync"

	"gatesphere.dev/internal/ids"
	"gatesphere.dev/internal/society"
)

// Sender pushes one encoded frame towards a connection. Implementations must
// not block; a slow consumer drops the frame and reports ErrQueueFull.
type Sender interface {
	Send(data []byte) error
}

// ErrQueueFull is reported when a connection's outbound queue is saturated.
var ErrQueueFull = errors.New("send queue full")

// Client is a point-in-time snapshot of one registered connection. Delivery
// code iterates snapshots while the registry keeps mutating underneath.
type Client struct {
	ConnID        string
	UserID        string
	SocietyID     string
	Role          society.Role
	Authenticated bool

	sender Sender
}

// Deliver pushes a frame to the client's connection.
func (c Client) Deliver(data []byte) error {
	if c.sender == nil {
		return errors.New("no sender attached")
	}
	return c.sender.Send(data)
}

type clientState struct {
	userID    string
	societyID string
	role      society.Role
	authed    bool
	sender    Sender
}

// Registry tracks live connections. Connections are born unauthenticated and
// only join user/role/society lookups after Authenticate succeeds.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]*clientState
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]*clientState)}
}

// Register adds a connection and returns its id.
func (r *Registry) Register(sender Sender) string {
	id := ids.New()
	r.mu.Lock()
	r.conns[id] = &clientState{sender: sender}
	r.mu.Unlock()
	return id
}

// Authenticate binds the user's identity to the connection.
func (r *Registry) Authenticate(connID string, user *society.User) error {
	if user == nil {
		return errors.New("user is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conns[connID]
	if !ok {
		return errors.New("unknown connection")
	}
	c.userID = user.ID
	c.societyID = user.SocietyID
	c.role = user.Role
	c.authed = true
	return nil
}

// Unregister removes a connection. Safe to call twice.
func (r *Registry) Unregister(connID string) {
	r.mu.Lock()
	delete(r.conns, connID)
	r.mu.Unlock()
}

// Get returns the snapshot for one connection.
func (r *Registry) Get(connID string) (Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conns[connID]
	if !ok {
		return Client{}, false
	}
	return snapshot(connID, c), true
}

// ByUser returns the user's authenticated connections within a society.
func (r *Registry) ByUser(societyID, userID string) []Client {
	return r.collect(func(id string, c *clientState) bool {
		return c.authed && c.societyID == societyID && c.userID == userID
	})
}

// ByRole returns authenticated connections in a society holding any of the roles.
func (r *Registry) ByRole(societyID string, roles ...society.Role) []Client {
	return r.collect(func(id string, c *clientState) bool {
		if !c.authed || c.societyID != societyID {
			return false
		}
		for _, role := range roles {
			if c.role == role {
				return true
			}
		}
		return false
	})
}

// BySociety returns all authenticated connections in a society, optionally
// excluding one user (the broadcast sender).
func (r *Registry) BySociety(societyID, excludeUserID string) []Client {
	return r.collect(func(id string, c *clientState) bool {
		if !c.authed || c.societyID != societyID {
			return false
		}
		return excludeUserID == "" || c.userID != excludeUserID
	})
}

// Len reports how many connections are registered, authenticated or not.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

func (r *Registry) collect(match func(string, *clientState) bool) []Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Client
	for id, c := range r.conns {
		if match(id, c) {
			out = append(out, snapshot(id, c))
		}
	}
	return out
}

func snapshot(id string, c *clientState) Client {
	return Client{
		ConnID:        id,
		UserID:        c.userID,
		SocietyID:     c.societyID,
		Role:          c.role,
		Authenticated: c.authed,
		sender:        c.sender,
	}
}
