package main

import (
	"context"
	"log"

	"github.com/itsmostafa07/groupspeak/internal/data"
	"github.com/itsmostafa07/groupspeak/internal/protocol"
)

// Router persists chat messages and fans them out to live connections
// through the hub. Persistence always happens before any delivery attempt;
// every push is best-effort per connection, so one broken device never
// blocks the rest.
type Router struct {
	hub   *ConnectionHub
	convs ConversationStore
	msgs  MessageStore
}

// NewRouter returns a Router wired with the hub and stores.
func NewRouter(hub *ConnectionHub, convs ConversationStore, msgs MessageStore) *Router {
	return &Router{hub: hub, convs: convs, msgs: msgs}
}

// SendDirect persists a direct message and pushes it to every live
// connection of the recipient. It reports whether at least one connection
// received the frame; an offline recipient is not an error, the message is
// durable and will surface on their next fetch. A persistence failure aborts
// the send entirely.
func (r *Router) SendDirect(ctx context.Context, conversationID, senderID, content, recipientID string) (bool, error) {
	if _, err := r.msgs.Save(ctx, conversationID, senderID, content); err != nil {
		return false, err
	}

	senders := r.hub.SendersFor(recipientID)
	if len(senders) == 0 {
		log.Printf("router: user %s is offline, message stored for next fetch", recipientID)
		return false, nil
	}

	event := protocol.NewMessageEvent(senderID, content, conversationID)
	delivered := false
	for _, s := range senders {
		if err := s.SendFrame(event); err != nil {
			log.Printf("router: failed to deliver to a connection of %s: %v", recipientID, err)
			continue
		}
		delivered = true
	}
	return delivered, nil
}

// SendGroup persists a group message once and fans it out to every
// conversation participant except the sender, across all of each
// participant's connections. Returns the number of connections that received
// the frame. A persistence failure aborts the send entirely.
func (r *Router) SendGroup(ctx context.Context, conversationID, senderID, content string) (int, error) {
	if _, err := r.msgs.Save(ctx, conversationID, senderID, content); err != nil {
		return 0, err
	}

	participants, err := r.convs.ListParticipants(ctx, conversationID)
	if err != nil {
		// The message is already durable; recipients will see it on their
		// next fetch even though this fan-out failed.
		log.Printf("router: failed to list participants of %s: %v", conversationID, err)
		return 0, nil
	}

	event := protocol.NewMessageEvent(senderID, content, conversationID)
	delivered := 0
	for _, participantID := range participants {
		if participantID == senderID {
			continue
		}
		for _, s := range r.hub.SendersFor(participantID) {
			if err := s.SendFrame(event); err != nil {
				log.Printf("router: failed to deliver to a connection of %s: %v", participantID, err)
				continue
			}
			delivered++
		}
	}
	return delivered, nil
}

// NotifyNewConversation pushes a new_conversation frame to every listed
// participant's connections. Offline participants are silently skipped.
func (r *Router) NotifyNewConversation(conv *data.Conversation, participantIDs []string) {
	event := protocol.NewConversationEvent{
		Type:         "new_conversation",
		ID:           conv.ID,
		Name:         conv.Name,
		IsGroup:      conv.IsGroup,
		Participants: participantIDs,
	}
	for _, participantID := range participantIDs {
		for _, s := range r.hub.SendersFor(participantID) {
			if err := s.SendFrame(event); err != nil {
				log.Printf("router: failed to notify %s of new conversation: %v", participantID, err)
			}
		}
	}
}

// NotifyReloadConversations tells every device of the named user that its
// conversation list is stale. No-op for offline users; nothing is queued.
func (r *Router) NotifyReloadConversations(userID string) {
	event := protocol.ReloadConversationsEvent{Type: "reload_conversations", UserID: userID}
	for _, s := range r.hub.SendersFor(userID) {
		if err := s.SendFrame(event); err != nil {
			log.Printf("router: failed to send reload notification to %s: %v", userID, err)
		}
	}
}

// BroadcastUserStatus pushes a presence change to every registered
// connection system-wide. Only login transitions are broadcast; offline
// transitions deliberately are not.
func (r *Router) BroadcastUserStatus(userID string, isOnline bool) {
	event := protocol.StatusEvent{Type: "status", UserID: userID, IsOnline: isOnline}
	for _, s := range r.hub.AllSenders() {
		if err := s.SendFrame(event); err != nil {
			log.Printf("router: failed to broadcast status of %s: %v", userID, err)
		}
	}
}
