// Package data provides DB models and stores.
package data

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a lookup matches no document.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert violates a unique index.
var ErrDuplicate = errors.New("already exists")

// User maps to the users collection (uuid id, unique username, display
// metadata, bcrypt password hash, persisted online flag, timestamps).
type User struct {
	ID          string    `bson:"_id"`
	Username    string    `bson:"username"`
	DisplayName string    `bson:"display_name"`
	Email       string    `bson:"email"`
	Password    string    `bson:"password"`
	IsOnline    bool      `bson:"is_online"`
	CreatedAt   time.Time `bson:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at"`
	LastSeen    time.Time `bson:"last_seen"`
}

// Session maps to the sessions collection. The token is the document id:
// one row per logical login, destroyed on logout or disconnect.
type Session struct {
	Token     string    `bson:"_id"`
	UserID    string    `bson:"user_id"`
	Device    string    `bson:"device,omitempty"`
	CreatedAt time.Time `bson:"created_at"`
}

// Conversation maps to the conversations collection.
type Conversation struct {
	ID        string    `bson:"_id"`
	Name      string    `bson:"name"`
	IsGroup   bool      `bson:"is_group"`
	CreatedAt time.Time `bson:"created_at"`
}

// Participant is one membership edge in the participants collection.
type Participant struct {
	ConversationID string `bson:"conversation_id"`
	UserID         string `bson:"user_id"`
}

// Message maps to the messages collection. Append-only.
type Message struct {
	ID             string    `bson:"_id"`
	ConversationID string    `bson:"conversation_id"`
	SenderID       string    `bson:"sender_id"`
	Content        string    `bson:"content"`
	CreatedAt      time.Time `bson:"created_at"`
}
