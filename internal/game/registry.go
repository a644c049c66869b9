package game

import (
	"context"
	"errors"
	"sync"

	"example.com/wordgame/internal/protocol"
	"github.com/google/uuid"
)

// ErrPlayerGone is returned when a message is routed to a connection that
// is unknown or already closed.
var ErrPlayerGone = errors.New("player connection gone")

// Registry maps player ids to their connection actors. Actors add
// themselves on accept and remove themselves when their reader exits.
type Registry struct {
	mu    sync.RWMutex
	conns map[uuid.UUID]*Conn
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[uuid.UUID]*Conn)}
}

func (r *Registry) Add(c *Conn) {
	r.mu.Lock()
	r.conns[c.id] = c
	r.mu.Unlock()
}

// Remove deletes c only if it is still the registered actor for its id.
func (r *Registry) Remove(c *Conn) {
	r.mu.Lock()
	if cur, ok := r.conns[c.id]; ok && cur == c {
		delete(r.conns, c.id)
	}
	r.mu.Unlock()
}

func (r *Registry) Lookup(id uuid.UUID) (*Conn, bool) {
	r.mu.RLock()
	c, ok := r.conns[id]
	r.mu.RUnlock()
	return c, ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// IDs lists the registered players in no particular order.
func (r *Registry) IDs() []uuid.UUID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]uuid.UUID, 0, len(r.conns))
	for id := range r.conns {
		out = append(out, id)
	}
	return out
}

// Snapshot returns the currently registered actors in no particular order.
func (r *Registry) Snapshot() []*Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Conn, 0, len(r.conns))
	for _, c := range r.conns {
		out = append(out, c)
	}
	return out
}

// Send queues msg on the player's outbox. It blocks while the outbox is
// full until ctx is done or the connection goes away.
func (r *Registry) Send(ctx context.Context, id uuid.UUID, msg protocol.ServerMessage) error {
	c, ok := r.Lookup(id)
	if !ok {
		return ErrPlayerGone
	}
	return c.enqueue(ctx, msg)
}

// Broadcast queues msg for every registered player until ctx is done. The
// deadline is shared, so stalled players do not add up. It returns the
// players the message could not be queued for.
func (r *Registry) Broadcast(ctx context.Context, msg protocol.ServerMessage) map[uuid.UUID]error {
	failed := make(map[uuid.UUID]error)
	for _, c := range r.Snapshot() {
		if err := c.enqueue(ctx, msg); err != nil {
			failed[c.id] = err
		}
	}
	return failed
}
