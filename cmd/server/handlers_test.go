package main

import (
	"net"
	"testing"
	"time"

	"github.com/itsmostafa07/groupspeak/internal/auth"
	"github.com/itsmostafa07/groupspeak/internal/protocol"
)

func TestRemoveParticipantNotifiesRemovedAndRemaining(t *testing.T) {
	hub := NewConnectionHub()
	removed := &recordingSender{}
	remaining := &recordingSender{}
	unrelated := &recordingSender{}
	hub.Register("u-removed", removed)
	hub.Register("u-remaining", remaining)
	hub.Register("u-unrelated", unrelated)

	convs := &fakeConversationStore{participants: map[string][]string{
		"conv-1": {"u-remaining", "u-removed"},
	}}
	srv := newServer(newFakeDirectory(), convs, &fakeMessageStore{},
		auth.NewService(newFakeDirectory(), newFakeSessionStore()), hub)
	srv.writeTimeout = 5 * time.Second

	client, server := net.Pipe()
	defer client.Close()
	sess := &session{
		srv:    srv,
		conn:   server,
		framer: protocol.NewFramer(server),
		remote: "test",
		userID: "u-admin",
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		sess.handleRemoveParticipant(protocol.Message{
			"type":           "remove_participant",
			"conversationId": "conv-1",
			"userId":         "u-removed",
		})
	}()

	f := protocol.NewFramer(client)
	frame, err := f.ReadFrame()
	if err != nil {
		t.Fatalf("read ack: %v", err)
	}
	ack, err := protocol.Parse(frame)
	if err != nil {
		t.Fatalf("parse ack: %v", err)
	}
	if ack.Type() != "remove_participant_response" {
		t.Fatalf("expected remove_participant_response, got %v", ack)
	}
	if ok, _ := ack.Bool("success"); !ok {
		t.Fatalf("expected success, got %v", ack)
	}
	<-done

	if removed.count() != 1 {
		t.Fatalf("expected 1 reload frame for the removed user, got %d", removed.count())
	}
	if remaining.count() != 1 {
		t.Fatalf("expected 1 reload frame for the remaining participant, got %d", remaining.count())
	}
	if unrelated.count() != 0 {
		t.Fatalf("unrelated users must not be notified, got %d frames", unrelated.count())
	}

	event, ok := removed.frames[0].(protocol.ReloadConversationsEvent)
	if !ok {
		t.Fatalf("expected a ReloadConversationsEvent, got %T", removed.frames[0])
	}
	if event.UserID != "u-removed" {
		t.Fatalf("unexpected target in reload frame: %+v", event)
	}
}
