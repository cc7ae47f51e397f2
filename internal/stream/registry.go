package stream

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/stockroomhq/stockroom-backend/internal/notifications"
	"github.com/stockroomhq/stockroom-backend/pkg/logger"
)

// Connection is one live event stream for a user. A user with several open
// tabs or devices holds several connections.
type Connection struct {
	id     uuid.UUID
	userID string
	events chan notifications.Event

	closeOnce sync.Once
	done      chan struct{}
}

// Events is the stream the consumer drains.
func (c *Connection) Events() <-chan notifications.Event {
	return c.events
}

// Done closes when the connection has been dropped from the registry.
func (c *Connection) Done() <-chan struct{} {
	return c.done
}

// UserID returns the owning user.
func (c *Connection) UserID() string {
	return c.userID
}

func (c *Connection) close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

// Registry tracks open live connections per user and routes events to them.
// All methods are safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	conns  map[string]map[*Connection]struct{}
	buffer int
	logg   *logger.Logger
}

// NewRegistry builds an empty connection registry. buffer sets the per
// connection event channel capacity.
func NewRegistry(buffer int, logg *logger.Logger) *Registry {
	if buffer <= 0 {
		buffer = 1
	}
	return &Registry{
		conns:  make(map[string]map[*Connection]struct{}),
		buffer: buffer,
		logg:   logg,
	}
}

// Subscribe registers a new connection for the user.
func (r *Registry) Subscribe(userID string) *Connection {
	conn := &Connection{
		id:     uuid.New(),
		userID: userID,
		events: make(chan notifications.Event, r.buffer),
		done:   make(chan struct{}),
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.conns[userID]
	if !ok {
		set = make(map[*Connection]struct{})
		r.conns[userID] = set
	}
	set[conn] = struct{}{}
	return conn
}

// Drop removes a single connection, closing its done signal. The user's
// entry disappears once its last connection is gone.
func (r *Registry) Drop(conn *Connection) {
	if conn == nil {
		return
	}
	r.mu.Lock()
	r.dropLocked(conn)
	r.mu.Unlock()
}

func (r *Registry) dropLocked(conn *Connection) {
	set, ok := r.conns[conn.userID]
	if ok {
		delete(set, conn)
		if len(set) == 0 {
			delete(r.conns, conn.userID)
		}
	}
	conn.close()
}

// Unsubscribe closes every connection the user holds.
func (r *Registry) Unsubscribe(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.conns[userID]
	if !ok {
		return
	}
	delete(r.conns, userID)
	for conn := range set {
		conn.close()
	}
}

// IsOnline reports whether the user has at least one open connection.
func (r *Registry) IsOnline(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns[userID]) > 0
}

// ConnectionCount returns the number of open connections across all users.
func (r *Registry) ConnectionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	total := 0
	for _, set := range r.conns {
		total += len(set)
	}
	return total
}

// Name implements the delivery sink contract.
func (r *Registry) Name() string {
	return "stream"
}

// Deliver routes the event to the receiver's connections, or to every open
// connection for a broadcast. A connection whose buffer is full is dropped
// on the spot; its siblings keep receiving.
func (r *Registry) Deliver(ctx context.Context, event notifications.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if event.Broadcast() {
		for _, set := range r.conns {
			r.sendLocked(ctx, set, event)
		}
		return nil
	}

	set, ok := r.conns[event.Receiver]
	if !ok {
		return nil
	}
	r.sendLocked(ctx, set, event)
	return nil
}

func (r *Registry) sendLocked(ctx context.Context, set map[*Connection]struct{}, event notifications.Event) {
	for conn := range set {
		select {
		case conn.events <- event:
		default:
			if r.logg != nil {
				logCtx := r.logg.WithReceiver(ctx, conn.userID)
				r.logg.Warn(logCtx, "live connection stalled, dropping it")
			}
			r.dropLocked(conn)
		}
	}
}
