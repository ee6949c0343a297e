package main

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/itsmostafa07/groupspeak/internal/auth"
	"github.com/itsmostafa07/groupspeak/internal/data"
	"github.com/itsmostafa07/groupspeak/internal/protocol"
)

func (s *session) handleRegister(msg protocol.Message) {
	username, okU := msg.String("username")
	password, okP := msg.String("password")
	displayName, okD := msg.String("displayName")
	email, _ := msg.String("email")

	if !okU || !okP || !okD {
		s.sendError(protocol.CodeInvalidArgs, "'username', 'password', and 'displayName' required")
		return
	}
	if s.srv.limitExceeded(s.conn) {
		s.sendError(protocol.CodeRateLimited, "Too many attempts, try again later")
		return
	}

	userID, err := s.srv.auth.Register(context.Background(), username, password, displayName, email)
	if err != nil {
		if errors.Is(err, auth.ErrUserExists) {
			s.send(protocol.FailureResponse{Type: "register_response", Message: "User already exists"})
			return
		}
		log.Printf("session %s: register failed: %v", s.remote, err)
		s.sendError(protocol.CodeServerError, "Registration failed")
		return
	}

	s.send(protocol.RegisterResponse{Type: "register_response", Success: true, UserID: userID})
}

func (s *session) handleLogin(msg protocol.Message) {
	username, okU := msg.String("username")
	password, okP := msg.String("password")
	device, _ := msg.String("device")

	if !okU || !okP {
		s.sendError(protocol.CodeInvalidArgs, "'username' and 'password' required")
		return
	}
	if s.srv.limitExceeded(s.conn) {
		s.sendError(protocol.CodeRateLimited, "Too many attempts, try again later")
		return
	}

	id, err := s.srv.auth.Authenticate(context.Background(), username, password, device)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			s.send(protocol.FailureResponse{Type: "login_response", Message: "Invalid credentials"})
			return
		}
		log.Printf("session %s: login failed: %v", s.remote, err)
		s.sendError(protocol.CodeServerError, "Authentication failed")
		return
	}

	// Logging in again on an already-authenticated connection replaces its
	// identity; the previous registration and token must not linger.
	if s.userID != "" {
		s.srv.hub.Unregister(s.userID, s.connID)
		if s.token != "" {
			s.srv.auth.EndSessionByToken(context.Background(), s.token)
		}
	}

	s.userID = id.UserID
	s.username = username
	s.token = id.SessionToken

	// Broadcast before registering so the logging-in connection does not
	// receive its own status push.
	s.srv.router.BroadcastUserStatus(id.UserID, true)
	s.connID = s.srv.hub.Register(id.UserID, s)

	s.send(protocol.LoginResponse{
		Type:         "login_response",
		Success:      true,
		UserID:       id.UserID,
		SessionToken: id.SessionToken,
		DisplayName:  id.DisplayName,
		Email:        id.Email,
	})
}

// handleLogout ends the named user's sessions, or this connection's own
// session when no username is given, then closes the connection.
func (s *session) handleLogout(msg protocol.Message) bool {
	if !s.authenticated() {
		return true
	}

	var ended bool
	if username, ok := msg.String("username"); ok {
		ended = s.srv.auth.EndSessionByUsername(context.Background(), username)
	} else {
		ended = s.srv.auth.EndSessionByToken(context.Background(), s.token)
		s.token = ""
	}

	s.send(protocol.AckResponse{Type: "logout_response", Success: ended})
	return false
}

func (s *session) handleGetUsers(msg protocol.Message) {
	if !s.authenticated() {
		return
	}

	users, err := s.srv.users.ListUsers(context.Background())
	if err != nil {
		log.Printf("session %s: list users failed: %v", s.remote, err)
		s.sendError(protocol.CodeServerError, "Failed to get users")
		return
	}

	infos := make([]protocol.UserInfo, 0, len(users))
	for _, u := range users {
		infos = append(infos, protocol.UserInfo{
			ID:          u.ID,
			Username:    u.Username,
			DisplayName: u.DisplayName,
			IsOnline:    u.IsOnline,
		})
	}
	s.send(protocol.UsersResponse{Type: "users_response", Success: true, Users: infos})
}

func (s *session) handleGetConversations(msg protocol.Message) {
	if !s.authenticated() {
		return
	}

	ctx := context.Background()
	convs, err := s.srv.convs.ListForUser(ctx, s.userID)
	if err != nil {
		log.Printf("session %s: list conversations failed: %v", s.remote, err)
		s.sendError(protocol.CodeServerError, "Failed to get conversations")
		return
	}

	infos := make([]protocol.ConversationInfo, 0, len(convs))
	for _, c := range convs {
		participants, err := s.srv.convs.ListParticipants(ctx, c.ID)
		if err != nil {
			log.Printf("session %s: list participants of %s failed: %v", s.remote, c.ID, err)
			s.sendError(protocol.CodeServerError, "Failed to get conversations")
			return
		}
		infos = append(infos, protocol.ConversationInfo{
			ID:           c.ID,
			Name:         c.Name,
			IsGroup:      c.IsGroup,
			Participants: participants,
		})
	}
	s.send(protocol.ConversationsResponse{Type: "conversations_response", Success: true, Conversations: infos})
}

func (s *session) handleGetMessages(msg protocol.Message) {
	if !s.authenticated() {
		return
	}

	conversationID, ok := msg.String("conversationId")
	if !ok {
		s.sendError(protocol.CodeInvalidArgs, "'conversationId' required")
		return
	}

	messages, err := s.srv.msgs.ListByConversation(context.Background(), conversationID)
	if err != nil {
		log.Printf("session %s: list messages failed: %v", s.remote, err)
		s.sendError(protocol.CodeServerError, "Failed to get messages")
		return
	}

	infos := make([]protocol.MessageInfo, 0, len(messages))
	for _, m := range messages {
		infos = append(infos, protocol.MessageInfo{
			ID:        m.ID,
			SenderID:  m.SenderID,
			Content:   m.Content,
			CreatedAt: m.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	s.send(protocol.MessagesResponse{Type: "messages_response", Success: true, Messages: infos})
}

func (s *session) handleCreateConversation(msg protocol.Message) {
	if !s.authenticated() {
		return
	}

	otherUsername, hasOther := msg.String("otherUsername")
	name, hasName := msg.String("name")
	participantsCSV, hasParticipants := msg.String("participants")

	ctx := context.Background()
	var conv *data.Conversation
	var participantIDs []string
	var err error

	switch {
	case hasOther:
		conv, participantIDs, err = s.createOneOnOne(ctx, otherUsername)
	case hasName && hasParticipants:
		conv, participantIDs, err = s.createGroup(ctx, name, participantsCSV)
	default:
		s.sendError(protocol.CodeInvalidArgs, "Provide 'otherUsername' for 1-on-1 or 'name' and 'participants' for group")
		return
	}
	if err != nil {
		var unknown *unknownUserError
		if errors.As(err, &unknown) {
			s.sendError(protocol.CodeInvalidArgs, "User not found: "+unknown.username)
			return
		}
		log.Printf("session %s: create conversation failed: %v", s.remote, err)
		s.sendError(protocol.CodeServerError, "Failed to create conversation")
		return
	}

	s.srv.router.NotifyNewConversation(conv, participantIDs)
	s.send(protocol.CreateConversationResponse{
		Type:           "create_conversation_response",
		Success:        true,
		ConversationID: conv.ID,
	})
}

func (s *session) handleAddParticipant(msg protocol.Message) {
	if !s.authenticated() {
		return
	}

	conversationID, okC := msg.String("conversationId")
	userID, okU := msg.String("userId")
	if !okC || !okU {
		s.sendError(protocol.CodeInvalidArgs, "'conversationId' and 'userId' required")
		return
	}

	ctx := context.Background()
	if err := s.srv.convs.AddParticipant(ctx, conversationID, userID); err != nil {
		log.Printf("session %s: add participant failed: %v", s.remote, err)
		s.sendError(protocol.CodeServerError, "Failed to add participant")
		return
	}
	s.send(protocol.AckResponse{Type: "add_participant_response", Success: true})

	// Push the updated roster to everyone in the conversation, the new
	// member included.
	conv, err := s.srv.convs.GetByID(ctx, conversationID)
	if err != nil {
		log.Printf("session %s: look up conversation %s failed: %v", s.remote, conversationID, err)
		return
	}
	participants, err := s.srv.convs.ListParticipants(ctx, conversationID)
	if err != nil {
		log.Printf("session %s: list participants of %s failed: %v", s.remote, conversationID, err)
		return
	}
	s.srv.router.NotifyNewConversation(conv, participants)
}

func (s *session) handleRemoveParticipant(msg protocol.Message) {
	if !s.authenticated() {
		return
	}

	conversationID, okC := msg.String("conversationId")
	userID, okU := msg.String("userId")
	if !okC || !okU {
		s.sendError(protocol.CodeInvalidArgs, "'conversationId' and 'userId' required")
		return
	}

	ctx := context.Background()
	if _, err := s.srv.convs.RemoveParticipant(ctx, conversationID, userID); err != nil {
		log.Printf("session %s: remove participant failed: %v", s.remote, err)
		s.sendError(protocol.CodeServerError, "Failed to remove participant")
		return
	}
	s.send(protocol.AckResponse{Type: "remove_participant_response", Success: true})

	// The removed user and every remaining participant refresh their lists;
	// unrelated users hear nothing.
	s.srv.router.NotifyReloadConversations(userID)
	remaining, err := s.srv.convs.ListParticipants(ctx, conversationID)
	if err != nil {
		log.Printf("session %s: list participants of %s failed: %v", s.remote, conversationID, err)
		return
	}
	for _, participantID := range remaining {
		s.srv.router.NotifyReloadConversations(participantID)
	}
}

func (s *session) handleReloadConversations(msg protocol.Message) {
	if !s.authenticated() {
		return
	}

	userID, ok := msg.String("userId")
	if !ok {
		s.sendError(protocol.CodeInvalidArgs, "'userId' required")
		return
	}
	// Side-channel push only; this request has no direct response.
	s.srv.router.NotifyReloadConversations(userID)
}

func (s *session) handleSendDM(msg protocol.Message) {
	if !s.authenticated() {
		return
	}

	conversationID, okC := msg.String("conversationId")
	senderID, okS := msg.String("senderId")
	content, okT := msg.String("content")
	recipientID, okR := msg.String("recipientId")
	if !okC || !okS || !okT || !okR {
		s.sendError(protocol.CodeInvalidArgs, "'conversationId', 'senderId', 'content' and 'recipientId' required")
		return
	}

	if _, err := s.srv.router.SendDirect(context.Background(), conversationID, senderID, content, recipientID); err != nil {
		log.Printf("session %s: send dm failed: %v", s.remote, err)
		s.sendError(protocol.CodeServerError, "Failed to send message")
		return
	}

	// The sender gets the same frame recipients see, delivered or not: the
	// message is durable either way.
	s.send(protocol.NewMessageEvent(senderID, content, conversationID))
}

func (s *session) handleSendGroup(msg protocol.Message) {
	if !s.authenticated() {
		return
	}

	conversationID, okC := msg.String("conversationId")
	senderID, okS := msg.String("senderId")
	content, okT := msg.String("content")
	if !okC || !okS || !okT {
		s.sendError(protocol.CodeInvalidArgs, "'conversationId', 'senderId', and 'content' required")
		return
	}

	if _, err := s.srv.router.SendGroup(context.Background(), conversationID, senderID, content); err != nil {
		log.Printf("session %s: send group failed: %v", s.remote, err)
		s.sendError(protocol.CodeServerError, "Failed to send message")
		return
	}

	s.send(protocol.NewMessageEvent(senderID, content, conversationID))
}

// unknownUserError marks a create_conversation referencing a username that
// does not exist.
type unknownUserError struct {
	username string
}

func (e *unknownUserError) Error() string { return "unknown user " + e.username }

// createOneOnOne builds a direct conversation between this session's user
// and the named other user.
func (s *session) createOneOnOne(ctx context.Context, otherUsername string) (*data.Conversation, []string, error) {
	other, err := s.srv.users.GetUserByUsername(ctx, otherUsername)
	if err != nil {
		if errors.Is(err, data.ErrNotFound) {
			return nil, nil, &unknownUserError{username: otherUsername}
		}
		return nil, nil, err
	}

	participantIDs := []string{s.userID, other.ID}
	conv, err := s.srv.convs.Create(ctx, s.username+":"+otherUsername, false, participantIDs)
	if err != nil {
		return nil, nil, err
	}
	return conv, participantIDs, nil
}

// createGroup builds a group conversation from a CSV of usernames; the
// creator is always the first participant.
func (s *session) createGroup(ctx context.Context, name, participantsCSV string) (*data.Conversation, []string, error) {
	participantIDs := []string{s.userID}
	for _, username := range splitCSV(participantsCSV) {
		u, err := s.srv.users.GetUserByUsername(ctx, username)
		if err != nil {
			if errors.Is(err, data.ErrNotFound) {
				return nil, nil, &unknownUserError{username: username}
			}
			return nil, nil, err
		}
		if u.ID == s.userID {
			continue
		}
		participantIDs = append(participantIDs, u.ID)
	}

	conv, err := s.srv.convs.Create(ctx, name, true, participantIDs)
	if err != nil {
		return nil, nil, err
	}
	return conv, participantIDs, nil
}

// splitCSV splits a comma-separated list, trimming whitespace and dropping
// empty items.
func splitCSV(csv string) []string {
	var out []string
	for _, item := range strings.Split(csv, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}
