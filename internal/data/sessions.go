package data

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// SessionsStore performs session DB operations. One document per logical
// login; the session token is the document id.
type SessionsStore struct {
	coll *mongo.Collection
}

// NewSessionsStore returns a SessionsStore using the provided collection.
func NewSessionsStore(coll *mongo.Collection) *SessionsStore {
	return &SessionsStore{coll: coll}
}

// Create persists a new session row for a successful login.
func (s *SessionsStore) Create(ctx context.Context, userID, token, device string) (*Session, error) {
	sess := &Session{
		Token:     token,
		UserID:    userID,
		Device:    device,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := s.coll.InsertOne(ctx, sess); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return sess, nil
}

// DeleteByToken removes the session with the given token. Reports whether a
// row was actually removed; deleting a missing session is not an error.
func (s *SessionsStore) DeleteByToken(ctx context.Context, token string) (bool, error) {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": token})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

// DeleteByUser removes every session belonging to the user.
func (s *SessionsStore) DeleteByUser(ctx context.Context, userID string) (bool, error) {
	res, err := s.coll.DeleteMany(ctx, bson.M{"user_id": userID})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

// FindByToken looks up a session by its token.
func (s *SessionsStore) FindByToken(ctx context.Context, token string) (*Session, error) {
	var sess Session
	if err := s.coll.FindOne(ctx, bson.M{"_id": token}).Decode(&sess); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &sess, nil
}
