package main

import (
	"sync"
	"testing"
)

type recordingSender struct {
	mu     sync.Mutex
	frames []any
	err    error
}

func (r *recordingSender) SendFrame(v any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.frames = append(r.frames, v)
	return nil
}

func (r *recordingSender) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.frames)
}

func TestHubRegisterAndLookup(t *testing.T) {
	hub := NewConnectionHub()

	if hub.IsOnline("alice") {
		t.Fatal("expected alice offline before register")
	}

	phone := &recordingSender{}
	laptop := &recordingSender{}
	hub.Register("alice", phone)
	hub.Register("alice", laptop)

	if !hub.IsOnline("alice") {
		t.Fatal("expected alice online after register")
	}
	if got := len(hub.SendersFor("alice")); got != 2 {
		t.Fatalf("expected 2 senders for alice, got %d", got)
	}
	if got := len(hub.SendersFor("bob")); got != 0 {
		t.Fatalf("expected no senders for bob, got %d", got)
	}
}

func TestHubUnregister(t *testing.T) {
	hub := NewConnectionHub()

	phone := hub.Register("alice", &recordingSender{})
	laptop := hub.Register("alice", &recordingSender{})

	hub.Unregister("alice", phone)
	if !hub.IsOnline("alice") {
		t.Fatal("expected alice still online with one connection left")
	}

	hub.Unregister("alice", laptop)
	if hub.IsOnline("alice") {
		t.Fatal("expected alice offline after last connection removed")
	}
	if got := len(hub.OnlineUsers()); got != 0 {
		t.Fatalf("expected empty online list, got %d entries", got)
	}

	// Unregistering again must not panic.
	hub.Unregister("alice", laptop)
}

func TestHubOnlineUsers(t *testing.T) {
	hub := NewConnectionHub()
	hub.Register("alice", &recordingSender{})
	hub.Register("bob", &recordingSender{})
	hub.Register("bob", &recordingSender{})

	online := hub.OnlineUsers()
	if len(online) != 2 {
		t.Fatalf("expected 2 online users, got %d", len(online))
	}
	seen := map[string]bool{}
	for _, u := range online {
		seen[u] = true
	}
	if !seen["alice"] || !seen["bob"] {
		t.Fatalf("unexpected online set: %v", online)
	}
}

func TestHubConcurrentRegisterUnregister(t *testing.T) {
	hub := NewConnectionHub()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := hub.Register("alice", &recordingSender{})
			hub.SendersFor("alice")
			hub.Unregister("alice", id)
		}()
	}
	wg.Wait()

	if hub.IsOnline("alice") {
		t.Fatal("expected alice offline once all goroutines unregistered")
	}
}
