package handlers

import (
	"context"
	"sync"

	"github.com/gorilla/websocket"
)

// ChatEvent is the wire envelope in both directions.
type ChatEvent struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// ChatClient is one live websocket connection. Outbound events go through
// the buffered Send channel so a slow reader never blocks an event handler;
// the write pump drains it.
type ChatClient struct {
	ID     string
	Conn   *websocket.Conn
	Send   chan ChatEvent
	ctx    context.Context
	cancel context.CancelFunc
}

// ChatRegistry tracks which live connection belongs to which chat session
// and which connections subscribe to a session's room. Everything here is
// in-memory and dies with the process; the connections die with it, so
// nothing is lost that could be restored.
//
// A connection holds at most one session binding. Rebinding to a different
// session leaves the old room implicitly.
type ChatRegistry struct {
	mu       sync.RWMutex
	clients  map[string]*ChatClient            // conn id -> client
	bindings map[string]string                 // conn id -> session token
	rooms    map[string]map[string]*ChatClient // session token -> conn id -> client
}

func NewChatRegistry() *ChatRegistry {
	return &ChatRegistry{
		clients:  make(map[string]*ChatClient),
		bindings: make(map[string]string),
		rooms:    make(map[string]map[string]*ChatClient),
	}
}

// Register adds a freshly upgraded connection, not yet bound to a session.
func (r *ChatRegistry) Register(client *ChatClient) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[client.ID] = client
}

// Bind associates a connection with a session, replacing a prior
// association. Returns false when the client was already bound to the same
// session (nothing changed).
func (r *ChatRegistry) Bind(connID, sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	client, ok := r.clients[connID]
	if !ok {
		return false
	}
	if prev, bound := r.bindings[connID]; bound {
		if prev == sessionID {
			return false
		}
		r.leaveRoom(prev, connID)
	}
	r.bindings[connID] = sessionID
	room := r.rooms[sessionID]
	if room == nil {
		room = make(map[string]*ChatClient)
		r.rooms[sessionID] = room
	}
	room[connID] = client
	return true
}

// Unregister drops the connection and its room membership. Returns the
// session token it was bound to, if any.
func (r *ChatRegistry) Unregister(connID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sessionID, bound := r.bindings[connID]
	if bound {
		r.leaveRoom(sessionID, connID)
		delete(r.bindings, connID)
	}
	delete(r.clients, connID)
	return sessionID, bound
}

// SessionFor reports the session a connection is currently bound to.
func (r *ChatRegistry) SessionFor(connID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sessionID, ok := r.bindings[connID]
	return sessionID, ok
}

// RoomClients snapshots the room's subscribers; callers iterate without
// holding the lock.
func (r *ChatRegistry) RoomClients(sessionID string) []*ChatClient {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room := r.rooms[sessionID]
	clients := make([]*ChatClient, 0, len(room))
	for _, client := range room {
		clients = append(clients, client)
	}
	return clients
}

// AllClients snapshots every live connection; the staff dashboard events
// are not room-scoped.
func (r *ChatRegistry) AllClients() []*ChatClient {
	r.mu.RLock()
	defer r.mu.RUnlock()
	clients := make([]*ChatClient, 0, len(r.clients))
	for _, client := range r.clients {
		clients = append(clients, client)
	}
	return clients
}

func (r *ChatRegistry) leaveRoom(sessionID, connID string) {
	room := r.rooms[sessionID]
	if room == nil {
		return
	}
	delete(room, connID)
	if len(room) == 0 {
		delete(r.rooms, sessionID)
	}
}
