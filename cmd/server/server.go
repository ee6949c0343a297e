package main

import (
	"context"
	"log"
	"net"
	"time"

	"github.com/itsmostafa07/groupspeak/internal/auth"
	"github.com/itsmostafa07/groupspeak/internal/data"
	"github.com/itsmostafa07/groupspeak/internal/middleware"
)

// UserDirectory is the slice of the users store the handlers need.
type UserDirectory interface {
	GetUserByUsername(ctx context.Context, username string) (*data.User, error)
	ListUsers(ctx context.Context) ([]*data.User, error)
}

// ConversationStore is the slice of the conversations store the handlers and
// router need.
type ConversationStore interface {
	Create(ctx context.Context, name string, isGroup bool, participantIDs []string) (*data.Conversation, error)
	GetByID(ctx context.Context, id string) (*data.Conversation, error)
	ListForUser(ctx context.Context, userID string) ([]*data.Conversation, error)
	AddParticipant(ctx context.Context, conversationID, userID string) error
	RemoveParticipant(ctx context.Context, conversationID, userID string) (bool, error)
	ListParticipants(ctx context.Context, conversationID string) ([]string, error)
}

// MessageStore is the slice of the messages store the handlers and router
// need.
type MessageStore interface {
	Save(ctx context.Context, conversationID, senderID, content string) (*data.Message, error)
	ListByConversation(ctx context.Context, conversationID string) ([]*data.Message, error)
}

// Server owns the shared collaborators and hands each accepted connection to
// its own session goroutine. The hub and router are constructed once here and
// injected into every session; there is no process-global state.
type Server struct {
	users  UserDirectory
	convs  ConversationStore
	msgs   MessageStore
	auth   *auth.Service
	hub    *ConnectionHub
	router *Router

	// limiter guards login/register; nil disables rate limiting.
	limiter *middleware.LimiterStore

	// idleTimeout evicts silent connections when > 0; zero keeps the
	// historical no-eviction behavior.
	idleTimeout  time.Duration
	writeTimeout time.Duration
}

// newServer returns a ready-to-use Server wired with stores and services.
func newServer(users UserDirectory, convs ConversationStore, msgs MessageStore, authSvc *auth.Service, hub *ConnectionHub) *Server {
	return &Server{
		users:        users,
		convs:        convs,
		msgs:         msgs,
		auth:         authSvc,
		hub:          hub,
		router:       NewRouter(hub, convs, msgs),
		writeTimeout: 30 * time.Second,
	}
}

// Serve accepts connections until the listener closes, running one session
// goroutine per connection.
func (s *Server) Serve(lis net.Listener) error {
	for {
		conn, err := lis.Accept()
		if err != nil {
			return err
		}
		go s.handleConn(conn)
	}
}

// limitExceeded applies the login/register limiter keyed by remote host.
func (s *Server) limitExceeded(conn net.Conn) bool {
	if s.limiter == nil {
		return false
	}
	host, _, err := net.SplitHostPort(conn.RemoteAddr().String())
	if err != nil {
		host = conn.RemoteAddr().String()
	}
	if s.limiter.Allow(host) {
		return false
	}
	log.Printf("rate limit exceeded for %s", host)
	return true
}
