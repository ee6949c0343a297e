package data

import (
	"context"
	"testing"
)

func TestConversationsStoreCreateAndMembership(t *testing.T) {
	client := testClient(t)
	store := NewConversationsStore(client.ConversationsCollection(), client.ParticipantsCollection())
	ctx := context.Background()

	alice := uniqueName("u_alice")
	bob := uniqueName("u_bob")

	conv, err := store.Create(ctx, "alice:bob", false, []string{alice, bob})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if conv.ID == "" {
		t.Fatal("expected a generated conversation id")
	}
	if conv.IsGroup {
		t.Fatal("expected a direct conversation")
	}

	got, err := store.GetByID(ctx, conv.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Name != "alice:bob" {
		t.Fatalf("expected name alice:bob, got %q", got.Name)
	}

	members, err := store.ListParticipants(ctx, conv.ID)
	if err != nil {
		t.Fatalf("ListParticipants failed: %v", err)
	}
	if len(members) != 2 {
		t.Fatalf("expected 2 participants, got %d", len(members))
	}

	forAlice, err := store.ListForUser(ctx, alice)
	if err != nil {
		t.Fatalf("ListForUser failed: %v", err)
	}
	found := false
	for _, c := range forAlice {
		if c.ID == conv.ID {
			found = true
		}
	}
	if !found {
		t.Fatal("expected the conversation in alice's list")
	}
}

func TestConversationsStoreAddParticipantIdempotent(t *testing.T) {
	client := testClient(t)
	store := NewConversationsStore(client.ConversationsCollection(), client.ParticipantsCollection())
	ctx := context.Background()

	alice := uniqueName("u_alice")
	conv, err := store.Create(ctx, "team", true, []string{alice})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	carol := uniqueName("u_carol")
	if err := store.AddParticipant(ctx, conv.ID, carol); err != nil {
		t.Fatalf("AddParticipant failed: %v", err)
	}
	// Adding again must not error or duplicate the edge.
	if err := store.AddParticipant(ctx, conv.ID, carol); err != nil {
		t.Fatalf("second AddParticipant failed: %v", err)
	}

	members, err := store.ListParticipants(ctx, conv.ID)
	if err != nil {
		t.Fatalf("ListParticipants failed: %v", err)
	}
	if len(members) != 2 {
		t.Fatalf("expected 2 participants, got %d", len(members))
	}
}

func TestConversationsStoreRemoveParticipant(t *testing.T) {
	client := testClient(t)
	store := NewConversationsStore(client.ConversationsCollection(), client.ParticipantsCollection())
	ctx := context.Background()

	alice := uniqueName("u_alice")
	bob := uniqueName("u_bob")
	conv, err := store.Create(ctx, "team", true, []string{alice, bob})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	removed, err := store.RemoveParticipant(ctx, conv.ID, bob)
	if err != nil {
		t.Fatalf("RemoveParticipant failed: %v", err)
	}
	if !removed {
		t.Fatal("expected the membership edge removed")
	}

	// Removing someone who is not a member reports false, not an error.
	removed, err = store.RemoveParticipant(ctx, conv.ID, bob)
	if err != nil {
		t.Fatalf("second RemoveParticipant failed: %v", err)
	}
	if removed {
		t.Fatal("expected no edge to remove the second time")
	}

	forBob, err := store.ListForUser(ctx, bob)
	if err != nil {
		t.Fatalf("ListForUser failed: %v", err)
	}
	for _, c := range forBob {
		if c.ID == conv.ID {
			t.Fatal("conversation must not appear in bob's list after removal")
		}
	}
}
