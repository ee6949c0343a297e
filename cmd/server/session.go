package main

import (
	"context"
	"errors"
	"io"
	"log"
	"net"
	"strings"
	"time"

	"github.com/itsmostafa07/groupspeak/internal/protocol"
)

// session is the per-connection state machine. It owns the socket, reads and
// dispatches frames, and tracks the connection's authentication state:
// unauthenticated until a successful login, closed when the loop exits.
type session struct {
	srv    *Server
	conn   net.Conn
	framer *protocol.Framer
	remote string

	// Set on successful login. userID doubles as the authenticated flag.
	userID   string
	username string
	token    string
	connID   int64
}

// handleConn runs one connection's session loop to completion.
func (s *Server) handleConn(conn net.Conn) {
	sess := &session{
		srv:    s,
		conn:   conn,
		framer: protocol.NewFramer(conn),
		remote: conn.RemoteAddr().String(),
	}

	// A handler panic must not take down other connections or leak the
	// registration; cleanup still runs below.
	defer func() {
		if r := recover(); r != nil {
			log.Printf("session %s: recovered from panic: %v", sess.remote, r)
		}
		sess.cleanup()
	}()

	log.Printf("client connected from %s", sess.remote)
	sess.run()
}

// run reads frames until the stream ends, a fatal error occurs, or a handler
// asks to close (logout/exit). Protocol-level problems produce error frames
// and keep the loop alive.
func (s *session) run() {
	for {
		if s.srv.idleTimeout > 0 {
			s.conn.SetReadDeadline(time.Now().Add(s.srv.idleTimeout))
		}

		frame, err := s.framer.ReadFrame()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				log.Printf("session %s: read error: %v", s.remote, err)
			}
			return
		}
		if strings.TrimSpace(frame) == "" {
			continue
		}

		msg, err := protocol.Parse(frame)
		if err != nil {
			s.sendError(protocol.CodeInvalidProtocol, "Malformed frame")
			continue
		}

		msgType := msg.Type()
		if msgType == "" {
			s.sendError(protocol.CodeInvalidProtocol, "Missing 'type' field")
			continue
		}

		if !s.dispatch(msgType, msg) {
			return
		}
	}
}

// dispatch routes one frame to its handler. Returns false when the
// connection should close.
func (s *session) dispatch(msgType string, msg protocol.Message) bool {
	switch msgType {
	case protocol.TypePing:
		s.send(protocol.Pong{Type: protocol.TypePong})
	case protocol.TypeLogin:
		s.handleLogin(msg)
	case protocol.TypeRegister:
		s.handleRegister(msg)
	case protocol.TypeLogout:
		return s.handleLogout(msg)
	case protocol.TypeExit:
		s.send(protocol.AckResponse{Type: "exit_response", Success: true})
		return false
	case protocol.TypeGetUsers:
		s.handleGetUsers(msg)
	case protocol.TypeGetConversations:
		s.handleGetConversations(msg)
	case protocol.TypeGetMessages:
		s.handleGetMessages(msg)
	case protocol.TypeCreateConversation:
		s.handleCreateConversation(msg)
	case protocol.TypeAddParticipant:
		s.handleAddParticipant(msg)
	case protocol.TypeRemoveParticipant:
		s.handleRemoveParticipant(msg)
	case protocol.TypeReloadConversations:
		s.handleReloadConversations(msg)
	case protocol.TypeSendDM:
		s.handleSendDM(msg)
	case protocol.TypeSendGroup:
		s.handleSendGroup(msg)
	default:
		s.sendError(protocol.CodeUnknownCommand, "Unknown command type: "+msgType)
	}
	return true
}

// authenticated reports whether this connection has logged in, sending the
// standard error frame when it has not.
func (s *session) authenticated() bool {
	if s.userID == "" {
		s.sendError(protocol.CodeNotAuthenticated, "Must be logged in")
		return false
	}
	return true
}

// SendFrame pushes one frame to this connection. Safe for concurrent use by
// the router; the framer serializes writes.
func (s *session) SendFrame(v any) error {
	frame, err := protocol.Encode(v)
	if err != nil {
		return err
	}
	if s.srv.writeTimeout > 0 {
		s.conn.SetWriteDeadline(time.Now().Add(s.srv.writeTimeout))
	}
	return s.framer.WriteFrame(frame)
}

// send writes a response frame, logging rather than propagating failures:
// a dead socket surfaces as a read error on the next loop iteration.
func (s *session) send(v any) {
	if err := s.SendFrame(v); err != nil {
		log.Printf("session %s: write error: %v", s.remote, err)
	}
}

func (s *session) sendError(code, message string) {
	s.send(protocol.NewError(code, message))
}

// cleanup releases everything the session holds. Each step is attempted
// independently of the others' outcomes: end the persisted session if one
// exists, drop the hub registration if authenticated, and close the socket.
func (s *session) cleanup() {
	if s.token != "" {
		s.srv.auth.EndSessionByToken(context.Background(), s.token)
	}
	if s.userID != "" {
		s.srv.hub.Unregister(s.userID, s.connID)
		log.Printf("client %s disconnected from %s", s.userID, s.remote)
	} else {
		log.Printf("client disconnected from %s", s.remote)
	}
	s.conn.Close()
}
