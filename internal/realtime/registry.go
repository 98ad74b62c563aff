package realtime

import (
	"servicely/pkg/logger"
	"sync"
)

// Conn is one live client connection. Send must not block.
type Conn interface {
	ID() string
	Send(frame Frame) bool
}

// Registry maps user ids to their live connections. A user with several tabs
// has several connections in the same room; a connection may join several
// rooms. All methods are safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	rooms  map[string]map[string]Conn
	joined map[string]map[string]struct{}
	log    *logger.Logger
}

func NewRegistry(log *logger.Logger) *Registry {
	return &Registry{
		rooms:  make(map[string]map[string]Conn),
		joined: make(map[string]map[string]struct{}),
		log:    log,
	}
}

// Join adds conn to userID's room. Joining twice is a no-op.
func (r *Registry) Join(userID string, conn Conn) {
	if userID == "" || conn == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[userID]
	if !ok {
		room = make(map[string]Conn)
		r.rooms[userID] = room
	}
	room[conn.ID()] = conn

	users, ok := r.joined[conn.ID()]
	if !ok {
		users = make(map[string]struct{})
		r.joined[conn.ID()] = users
	}
	users[userID] = struct{}{}
}

// Leave removes one connection from one room.
func (r *Registry) Leave(userID, connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeLocked(userID, connID)
}

// Drop removes a closed connection from every room it joined.
func (r *Registry) Drop(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for userID := range r.joined[connID] {
		r.removeLocked(userID, connID)
	}
	delete(r.joined, connID)
}

func (r *Registry) removeLocked(userID, connID string) {
	if room, ok := r.rooms[userID]; ok {
		delete(room, connID)
		if len(room) == 0 {
			delete(r.rooms, userID)
		}
	}
	if users, ok := r.joined[connID]; ok {
		delete(users, userID)
		if len(users) == 0 {
			delete(r.joined, connID)
		}
	}
}

// EmitToUser pushes an event to every connection in userID's room and
// returns how many accepted it. An empty room is not an error.
func (r *Registry) EmitToUser(userID, event string, payload any) int {
	r.mu.RLock()
	room := r.rooms[userID]
	targets := make([]Conn, 0, len(room))
	for _, conn := range room {
		targets = append(targets, conn)
	}
	r.mu.RUnlock()

	frame := Frame{Event: event, Payload: payload}
	delivered := 0
	for _, conn := range targets {
		if conn.Send(frame) {
			delivered++
		}
	}

	if delivered == 0 {
		r.log.Debug("Realtime event had no live recipient", "user_id", userID, "event", event)
	}
	return delivered
}

func (r *Registry) Online(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[userID]) > 0
}

func (r *Registry) OnlineUsers() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

// ConnectionCount counts connections that joined at least one room.
func (r *Registry) ConnectionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.joined)
}
