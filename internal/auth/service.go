package auth

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/itsmostafa07/groupspeak/internal/data"
)

// ErrUserExists is returned by Register when the username is taken.
var ErrUserExists = errors.New("user already exists")

// ErrInvalidCredentials is returned by Authenticate for an unknown username
// and for a wrong password alike, so callers cannot tell which part of the
// credential failed.
var ErrInvalidCredentials = errors.New("invalid credentials")

// UserStore is the slice of the users store the service needs.
type UserStore interface {
	CreateUser(ctx context.Context, username, displayName, email, hashedPassword string) (*data.User, error)
	GetUserByUsername(ctx context.Context, username string) (*data.User, error)
	SetOnline(ctx context.Context, userID string, online bool) error
}

// SessionStore is the slice of the sessions store the service needs.
type SessionStore interface {
	Create(ctx context.Context, userID, token, device string) (*data.Session, error)
	DeleteByToken(ctx context.Context, token string) (bool, error)
	DeleteByUser(ctx context.Context, userID string) (bool, error)
	FindByToken(ctx context.Context, token string) (*data.Session, error)
}

// Service implements registration, credential verification, and the session
// lifecycle.
type Service struct {
	users    UserStore
	sessions SessionStore
}

// NewService returns a Service wired with its stores.
func NewService(users UserStore, sessions SessionStore) *Service {
	return &Service{users: users, sessions: sessions}
}

// Identity is the outcome of a successful login.
type Identity struct {
	UserID       string
	SessionToken string
	DisplayName  string
	Email        string
}

// Register creates a new user with a hashed password and returns the fresh
// user id. Returns ErrUserExists when the username is taken.
func (s *Service) Register(ctx context.Context, username, password, displayName, email string) (string, error) {
	hashed, err := HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.CreateUser(ctx, username, displayName, email, hashed)
	if err != nil {
		if errors.Is(err, data.ErrDuplicate) {
			return "", ErrUserExists
		}
		return "", fmt.Errorf("create user: %w", err)
	}
	return user.ID, nil
}

// Authenticate verifies credentials, issues a session token, persists the
// session row, and marks the user online. Credential failures are uniform.
func (s *Service) Authenticate(ctx context.Context, username, password, device string) (*Identity, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, data.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("look up user: %w", err)
	}

	if err := CheckPassword(user.Password, password); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := NewSessionToken()
	if err != nil {
		return nil, err
	}
	if _, err := s.sessions.Create(ctx, user.ID, token, device); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	if err := s.users.SetOnline(ctx, user.ID, true); err != nil {
		log.Printf("auth: failed to mark user %s online: %v", user.ID, err)
	}

	return &Identity{
		UserID:       user.ID,
		SessionToken: token,
		DisplayName:  user.DisplayName,
		Email:        user.Email,
	}, nil
}

// EndSessionByToken removes a single session. Idempotent: a missing session
// returns false without error. The owner's online flag is cleared when the
// row existed.
func (s *Service) EndSessionByToken(ctx context.Context, token string) bool {
	sess, err := s.sessions.FindByToken(ctx, token)
	if err != nil {
		if !errors.Is(err, data.ErrNotFound) {
			log.Printf("auth: look up session: %v", err)
		}
		return false
	}

	removed, err := s.sessions.DeleteByToken(ctx, token)
	if err != nil {
		log.Printf("auth: delete session: %v", err)
		return false
	}
	if removed {
		if err := s.users.SetOnline(ctx, sess.UserID, false); err != nil {
			log.Printf("auth: failed to mark user %s offline: %v", sess.UserID, err)
		}
	}
	return removed
}

// EndSessionByUsername removes every session belonging to the named user.
// Idempotent; unknown usernames and users without sessions return false.
func (s *Service) EndSessionByUsername(ctx context.Context, username string) bool {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, data.ErrNotFound) {
			log.Printf("auth: look up user for logout: %v", err)
		}
		return false
	}

	removed, err := s.sessions.DeleteByUser(ctx, user.ID)
	if err != nil {
		log.Printf("auth: delete sessions for %s: %v", user.ID, err)
		return false
	}
	if removed {
		if err := s.users.SetOnline(ctx, user.ID, false); err != nil {
			log.Printf("auth: failed to mark user %s offline: %v", user.ID, err)
		}
	}
	return removed
}
