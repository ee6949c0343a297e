package data

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// ConversationsStore performs conversation and membership DB operations.
// It owns both the conversations collection and the participants collection
// holding the membership edges.
type ConversationsStore struct {
	convs *mongo.Collection
	parts *mongo.Collection
}

// NewConversationsStore returns a ConversationsStore over the conversations
// and participants collections.
func NewConversationsStore(convs, parts *mongo.Collection) *ConversationsStore {
	return &ConversationsStore{convs: convs, parts: parts}
}

// Create inserts a conversation with its initial participant set.
func (c *ConversationsStore) Create(ctx context.Context, name string, isGroup bool, participantIDs []string) (*Conversation, error) {
	conv := &Conversation{
		ID:        uuid.NewString(),
		Name:      name,
		IsGroup:   isGroup,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := c.convs.InsertOne(ctx, conv); err != nil {
		return nil, err
	}
	// Not transactional: a failed edge insert leaves the conversation row
	// behind with a partial roster. Callers report the error and the orphan
	// is invisible to users who never got an edge.
	for _, userID := range participantIDs {
		if err := c.AddParticipant(ctx, conv.ID, userID); err != nil {
			return nil, err
		}
	}
	return conv, nil
}

// GetByID finds a conversation by id.
func (c *ConversationsStore) GetByID(ctx context.Context, id string) (*Conversation, error) {
	var conv Conversation
	if err := c.convs.FindOne(ctx, bson.M{"_id": id}).Decode(&conv); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &conv, nil
}

// ListForUser returns every conversation the user participates in.
func (c *ConversationsStore) ListForUser(ctx context.Context, userID string) ([]*Conversation, error) {
	cursor, err := c.parts.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var edges []Participant
	if err := cursor.All(ctx, &edges); err != nil {
		return nil, err
	}
	if len(edges) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(edges))
	for _, e := range edges {
		ids = append(ids, e.ConversationID)
	}

	convCursor, err := c.convs.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer convCursor.Close(ctx)

	var convs []*Conversation
	if err := convCursor.All(ctx, &convs); err != nil {
		return nil, err
	}
	return convs, nil
}

// AddParticipant creates a membership edge. Adding an existing participant
// is a no-op.
func (c *ConversationsStore) AddParticipant(ctx context.Context, conversationID, userID string) error {
	_, err := c.parts.InsertOne(ctx, &Participant{ConversationID: conversationID, UserID: userID})
	if err != nil && !mongo.IsDuplicateKeyError(err) {
		return err
	}
	return nil
}

// RemoveParticipant deletes a membership edge and reports whether it existed.
func (c *ConversationsStore) RemoveParticipant(ctx context.Context, conversationID, userID string) (bool, error) {
	res, err := c.parts.DeleteOne(ctx, bson.M{"conversation_id": conversationID, "user_id": userID})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

// ListParticipants returns the user ids of a conversation's members.
func (c *ConversationsStore) ListParticipants(ctx context.Context, conversationID string) ([]string, error) {
	cursor, err := c.parts.Find(ctx, bson.M{"conversation_id": conversationID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var edges []Participant
	if err := cursor.All(ctx, &edges); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(edges))
	for _, e := range edges {
		ids = append(ids, e.UserID)
	}
	return ids, nil
}
