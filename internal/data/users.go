package data

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/itsmostafa07/groupspeak/internal/normalize"
)

// UsersStore performs user DB operations.
type UsersStore struct {
	coll *mongo.Collection
}

// NewUsersStore returns a UsersStore using the provided collection.
func NewUsersStore(coll *mongo.Collection) *UsersStore {
	return &UsersStore{coll: coll}
}

// CreateUser inserts a new user with a fresh identity and an already-hashed
// password. Returns ErrDuplicate if the username is taken.
func (u *UsersStore) CreateUser(ctx context.Context, username, displayName, email, hashedPassword string) (*User, error) {
	now := time.Now().UTC()
	user := &User{
		ID:          uuid.NewString(),
		Username:    normalize.Username(username),
		DisplayName: displayName,
		Email:       normalize.Email(email),
		Password:    hashedPassword,
		IsOnline:    false,
		CreatedAt:   now,
		UpdatedAt:   now,
		LastSeen:    now,
	}

	if _, err := u.coll.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return user, nil
}

// GetUserByUsername finds a user by username.
func (u *UsersStore) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	var user User
	err := u.coll.FindOne(ctx, bson.M{"username": normalize.Username(username)}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetUserByID finds a user by id.
func (u *UsersStore) GetUserByID(ctx context.Context, id string) (*User, error) {
	var user User
	err := u.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// UserExists checks if a username is taken.
func (u *UsersStore) UserExists(ctx context.Context, username string) (bool, error) {
	count, err := u.coll.CountDocuments(ctx, bson.M{"username": normalize.Username(username)})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListUsers returns every user, ordered by username.
func (u *UsersStore) ListUsers(ctx context.Context) ([]*User, error) {
	cursor, err := u.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.M{"username": 1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var users []*User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// SetOnline flips the persisted online flag and refreshes last_seen.
func (u *UsersStore) SetOnline(ctx context.Context, userID string, online bool) error {
	now := time.Now().UTC()
	update := bson.M{"$set": bson.M{
		"is_online":  online,
		"last_seen":  now,
		"updated_at": now,
	}}
	res, err := u.coll.UpdateOne(ctx, bson.M{"_id": userID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
