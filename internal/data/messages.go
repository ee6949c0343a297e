package data

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// MessagesStore provides message database operations.
type MessagesStore struct {
	coll *mongo.Collection
}

// NewMessagesStore returns a MessagesStore using the given collection.
func NewMessagesStore(coll *mongo.Collection) *MessagesStore {
	return &MessagesStore{coll: coll}
}

// Save inserts a message document and returns the saved record. Routing must
// call this before any delivery attempt; a failure here means the message was
// never sent.
func (m *MessagesStore) Save(ctx context.Context, conversationID, senderID, content string) (*Message, error) {
	msg := &Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        content,
		CreatedAt:      time.Now().UTC(),
	}
	if _, err := m.coll.InsertOne(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// ListByConversation returns a conversation's messages in chronological
// order (oldest first).
func (m *MessagesStore) ListByConversation(ctx context.Context, conversationID string) ([]*Message, error) {
	opts := options.Find().SetSort(bson.M{"created_at": 1})
	cursor, err := m.coll.Find(ctx, bson.M{"conversation_id": conversationID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var messages []*Message
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}
