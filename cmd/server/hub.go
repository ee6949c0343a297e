package main

import "sync"

// FrameSender is the minimal interface the hub needs from a live connection:
// the ability to push one encoded frame to the client.
type FrameSender interface {
	SendFrame(v any) error
}

// ConnectionHub is the presence registry: it maps user ids to that user's
// live connections so the router can push frames to every currently-connected
// device. A user may hold several connections at once.
//
// All methods are safe under arbitrary concurrent invocation from independent
// connection goroutines. Lookup methods return snapshots; a snapshot stays
// valid even if the registry changes immediately after.
type ConnectionHub struct {
	mu     sync.RWMutex
	conns  map[string]map[int64]FrameSender
	nextID int64
}

// NewConnectionHub creates a new hub instance.
func NewConnectionHub() *ConnectionHub {
	return &ConnectionHub{conns: make(map[string]map[int64]FrameSender)}
}

// Register adds a live connection for the given user and returns a
// connection id used to unregister it when the connection ends.
func (h *ConnectionHub) Register(userID string, s FrameSender) int64 {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.conns[userID]; !ok {
		h.conns[userID] = make(map[int64]FrameSender)
	}

	h.nextID++
	id := h.nextID
	h.conns[userID][id] = s
	return id
}

// Unregister removes a previously-registered connection. The user's entry is
// dropped entirely once its connection set becomes empty.
func (h *ConnectionHub) Unregister(userID string, id int64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if set, ok := h.conns[userID]; ok {
		delete(set, id)
		if len(set) == 0 {
			delete(h.conns, userID)
		}
	}
}

// IsOnline reports whether the user has at least one live connection.
func (h *ConnectionHub) IsOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[userID]) > 0
}

// OnlineUsers returns the ids of every user with a live connection.
func (h *ConnectionHub) OnlineUsers() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	users := make([]string, 0, len(h.conns))
	for userID := range h.conns {
		users = append(users, userID)
	}
	return users
}

// SendersFor returns a snapshot of the user's live connections; empty when
// the user is offline.
func (h *ConnectionHub) SendersFor(userID string) []FrameSender {
	h.mu.RLock()
	defer h.mu.RUnlock()

	set := h.conns[userID]
	out := make([]FrameSender, 0, len(set))
	for _, s := range set {
		out = append(out, s)
	}
	return out
}

// AllSenders returns a snapshot of every live connection system-wide.
func (h *ConnectionHub) AllSenders() []FrameSender {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var out []FrameSender
	for _, set := range h.conns {
		for _, s := range set {
			out = append(out, s)
		}
	}
	return out
}
