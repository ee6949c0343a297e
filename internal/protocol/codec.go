package protocol

import (
	"encoding/json"
	"fmt"
)

// Request type names recognized by the server. Ping deliberately keeps the
// client's historical "7ekey"/"mekey" pair; it is part of the wire contract.
const (
	TypeLogin               = "login"
	TypeLogout              = "logout"
	TypeRegister            = "register"
	TypeGetUsers            = "get_users"
	TypeGetConversations    = "get_conversations"
	TypeGetMessages         = "get_messages"
	TypeCreateConversation  = "create_conversation"
	TypeAddParticipant      = "add_participant"
	TypeRemoveParticipant   = "remove_participant"
	TypeReloadConversations = "reload_conversations"
	TypeSendDM              = "send_dm"
	TypeSendGroup           = "send_group"
	TypePing                = "7ekey"
	TypePong                = "mekey"
	TypeExit                = "exit"
)

// Error codes carried in error frames.
const (
	CodeInvalidProtocol  = "invalid_protocol"
	CodeInvalidArgs      = "invalid_args"
	CodeNotAuthenticated = "not_authenticated"
	CodeUnknownCommand   = "unknown_command"
	CodeServerError      = "server_error"
	CodeRateLimited      = "rate_limited"
)

// Message is one decoded request frame: a flat object keyed by field name.
// Accessors report presence explicitly so a missing field is never confused
// with a zero value.
type Message map[string]any

// Parse decodes a frame's text into a Message. A frame that is not a JSON
// object is a protocol violation.
func Parse(frame string) (Message, error) {
	var m Message
	if err := json.Unmarshal([]byte(frame), &m); err != nil {
		return nil, fmt.Errorf("protocol: malformed frame: %w", err)
	}
	return m, nil
}

// Type returns the frame's "type" field, or "" if absent.
func (m Message) Type() string {
	t, _ := m.String("type")
	return t
}

// String returns the named field as a string and whether it was present.
func (m Message) String(key string) (string, bool) {
	v, ok := m[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Bool returns the named field as a bool and whether it was present.
func (m Message) Bool(key string) (bool, bool) {
	v, ok := m[key]
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

// StringList returns the named field as a list of strings and whether it was
// present as such. Arrays on the wire are JSON arrays of quoted strings.
func (m Message) StringList(key string) ([]string, bool) {
	v, ok := m[key]
	if !ok {
		return nil, false
	}
	raw, ok := v.([]any)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(raw))
	for _, e := range raw {
		s, ok := e.(string)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}

// Encode renders a typed frame as wire text.
func Encode(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("protocol: encode frame: %w", err)
	}
	return string(data), nil
}

// ErrorResponse reports a failed request without closing the connection.
type ErrorResponse struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewError builds an error frame with the given taxonomy code.
func NewError(code, message string) ErrorResponse {
	return ErrorResponse{Type: "error", Code: code, Message: message}
}

// AckResponse is the shared success/failure shape for operations that carry
// no payload beyond the outcome (logout, add/remove participant, exit).
type AckResponse struct {
	Type    string `json:"type"`
	Success bool   `json:"success"`
}

// FailureResponse is the shared failure shape for register and login.
type FailureResponse struct {
	Type    string `json:"type"`
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type RegisterResponse struct {
	Type    string `json:"type"`
	Success bool   `json:"success"`
	UserID  string `json:"userId"`
}

type LoginResponse struct {
	Type         string `json:"type"`
	Success      bool   `json:"success"`
	UserID       string `json:"userId"`
	SessionToken string `json:"sessionToken"`
	DisplayName  string `json:"displayName"`
	Email        string `json:"email"`
}

// UserInfo is one entry of users_response.
type UserInfo struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	IsOnline    bool   `json:"isOnline"`
}

type UsersResponse struct {
	Type    string     `json:"type"`
	Success bool       `json:"success"`
	Users   []UserInfo `json:"users"`
}

// ConversationInfo is one entry of conversations_response.
type ConversationInfo struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	IsGroup      bool     `json:"isGroup"`
	Participants []string `json:"participants"`
}

type ConversationsResponse struct {
	Type          string             `json:"type"`
	Success       bool               `json:"success"`
	Conversations []ConversationInfo `json:"conversations"`
}

// MessageInfo is one entry of messages_response.
type MessageInfo struct {
	ID        string `json:"id"`
	SenderID  string `json:"senderId"`
	Content   string `json:"content"`
	CreatedAt string `json:"createdAt"`
}

type MessagesResponse struct {
	Type     string        `json:"type"`
	Success  bool          `json:"success"`
	Messages []MessageInfo `json:"messages"`
}

type CreateConversationResponse struct {
	Type           string `json:"type"`
	Success        bool   `json:"success"`
	ConversationID string `json:"conversationId"`
}

type Pong struct {
	Type string `json:"type"`
}

// MessageEvent is the routed chat frame pushed to recipients and echoed to
// the sender.
type MessageEvent struct {
	Type           string `json:"type"`
	SenderID       string `json:"senderId"`
	Content        string `json:"content"`
	ConversationID string `json:"conversationId"`
}

// NewMessageEvent builds the "message" frame for a persisted message.
func NewMessageEvent(senderID, content, conversationID string) MessageEvent {
	return MessageEvent{Type: "message", SenderID: senderID, Content: content, ConversationID: conversationID}
}

// StatusEvent announces a presence change.
type StatusEvent struct {
	Type     string `json:"type"`
	UserID   string `json:"userId"`
	IsOnline bool   `json:"isOnline"`
}

// NewConversationEvent announces a created conversation (or an updated
// roster) to its participants.
type NewConversationEvent struct {
	Type         string   `json:"type"`
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	IsGroup      bool     `json:"isGroup"`
	Participants []string `json:"participants"`
}

// ReloadConversationsEvent tells a client its conversation list is stale.
type ReloadConversationsEvent struct {
	Type   string `json:"type"`
	UserID string `json:"userId"`
}
