package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"servicely/pkg/auth"
	apperrors "servicely/pkg/errors"
	"servicely/pkg/logger"
	"servicely/pkg/model"
	"strings"
	"time"

	"golang.org/x/net/websocket"
)

const (
	maxDecodeErrorsPerConn = 5
	maxFramesPerSecond     = 20
	sendTimeout            = 10 * time.Second
)

// MessageSender persists and routes a chat message. The chat resolver
// implements it.
type MessageSender interface {
	SendMessage(ctx context.Context, msg *model.Message) (*model.Message, error)
}

type Config struct {
	SendBuffer    int
	MaxFrameBytes int
}

// Server upgrades HTTP requests to websocket sessions bound to the registry.
type Server struct {
	registry *Registry
	messages MessageSender
	verifier *auth.Verifier
	cfg      Config
	log      *logger.Logger
}

// NewServer builds the websocket endpoint. A nil verifier lets any client
// join any room.
func NewServer(registry *Registry, messages MessageSender, verifier *auth.Verifier, cfg Config, log *logger.Logger) *Server {
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = 64
	}
	if cfg.MaxFrameBytes <= 0 {
		cfg.MaxFrameBytes = 64 * 1024
	}
	return &Server{
		registry: registry,
		messages: messages,
		verifier: verifier,
		cfg:      cfg,
		log:      log,
	}
}

type userIDContextKey struct{}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if s.verifier != nil {
		token := strings.TrimSpace(r.URL.Query().Get("token"))
		if token == "" {
			token = auth.BearerToken(r.Header.Get("Authorization"))
		}
		claims, err := s.verifier.Parse(token)
		if err != nil {
			s.log.Warn("Websocket unauthorized", "remote_addr", r.RemoteAddr, "error", err)
			http.Error(w, "authentication required", http.StatusUnauthorized)
			return
		}
		r = r.WithContext(context.WithValue(r.Context(), userIDContextKey{}, claims.Sub))
	}

	ws := websocket.Server{
		Handshake: func(*websocket.Config, *http.Request) error { return nil },
		Handler:   s.handleConn,
	}
	ws.ServeHTTP(w, r)
}

func (s *Server) handleConn(ws *websocket.Conn) {
	ws.MaxPayloadBytes = s.cfg.MaxFrameBytes

	authedUser := ""
	if req := ws.Request(); req != nil {
		authedUser, _ = req.Context().Value(userIDContextKey{}).(string)
	}

	conn := newWSConn(ws, authedUser, s.cfg.SendBuffer, s.log)
	go conn.writeLoop()
	defer func() {
		s.registry.Drop(conn.ID())
		conn.close()
		s.log.Debug("Realtime connection closed")
	}()

	windowStart := time.Now()
	framesInWindow := 0
	decodeErrors := 0

	for {
		var frame inboundFrame
		if err := websocket.JSON.Receive(ws, &frame); err != nil {
			if isClosed(conn) || !isMalformedFrame(err) {
				return
			}
			decodeErrors++
			s.sendError(conn, "", apperrors.CodeInvalidInput, "invalid frame payload")
			if decodeErrors >= maxDecodeErrorsPerConn {
				return
			}
			continue
		}
		decodeErrors = 0

		now := time.Now()
		if now.Sub(windowStart) >= time.Second {
			windowStart = now
			framesInWindow = 0
		}
		framesInWindow++
		if framesInWindow > maxFramesPerSecond {
			s.sendError(conn, frame.RequestID, apperrors.CodeRateLimited, "rate limit exceeded")
			return
		}

		switch frame.Event {
		case EventJoin:
			s.handleJoin(conn, frame)
		case EventLeave:
			s.handleLeave(conn, frame)
		case EventSendMessage:
			s.handleSendMessage(conn, frame)
		default:
			s.sendError(conn, frame.RequestID, apperrors.CodeInvalidInput, "unsupported event")
		}
	}
}

// isMalformedFrame reports whether a receive error left the socket usable.
// Anything else means the peer is gone and the loop must stop.
func isMalformedFrame(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) || errors.As(err, &typeErr) || errors.Is(err, websocket.ErrFrameTooLarge)
}

func isClosed(c *wsConn) bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// decodeUserID accepts either a bare JSON string or {"user_id": "..."}.
func decodeUserID(raw json.RawMessage) string {
	var id string
	if err := json.Unmarshal(raw, &id); err == nil {
		return strings.TrimSpace(id)
	}
	var obj struct {
		UserID string `json:"user_id"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return strings.TrimSpace(obj.UserID)
	}
	return ""
}

func (s *Server) handleJoin(conn *wsConn, frame inboundFrame) {
	userID := decodeUserID(frame.Payload)
	if userID == "" {
		s.sendError(conn, frame.RequestID, apperrors.CodeInvalidInput, "user id is required")
		return
	}
	if conn.userID != "" && conn.userID != userID {
		s.sendError(conn, frame.RequestID, apperrors.CodeForbidden, "cannot join another user's room")
		return
	}

	s.registry.Join(userID, conn)
	s.log.Debug("Realtime connection joined room", "conn_id", conn.ID(), "user_id", userID)
	conn.Send(Frame{Event: EventJoined, RequestID: frame.RequestID, Payload: joinedPayload{UserID: userID}})
}

func (s *Server) handleLeave(conn *wsConn, frame inboundFrame) {
	userID := decodeUserID(frame.Payload)
	if userID == "" {
		s.sendError(conn, frame.RequestID, apperrors.CodeInvalidInput, "user id is required")
		return
	}
	s.registry.Leave(userID, conn.ID())
}

func (s *Server) handleSendMessage(conn *wsConn, frame inboundFrame) {
	if s.messages == nil {
		s.sendError(conn, frame.RequestID, apperrors.CodeUnavailable, "chat is not available")
		return
	}

	var msg model.Message
	if err := json.Unmarshal(frame.Payload, &msg); err != nil {
		s.sendError(conn, frame.RequestID, apperrors.CodeInvalidInput, "invalid message payload")
		return
	}
	if conn.userID != "" && msg.SenderID != conn.userID {
		s.sendError(conn, frame.RequestID, apperrors.CodeForbidden, "sender must be the authenticated user")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	saved, err := s.messages.SendMessage(ctx, &msg)
	if err != nil {
		appErr := apperrors.AsAppError(err)
		message := appErr.Message
		if appErr.Code == apperrors.CodeInternal {
			s.log.Error("Realtime sendMessage failed", "conn_id", conn.ID(), "error", err)
			message = "internal error"
		}
		s.sendError(conn, frame.RequestID, appErr.Code, message)
		return
	}
	conn.Send(Frame{Event: EventMessageSent, RequestID: frame.RequestID, Payload: saved})
}

func (s *Server) sendError(conn *wsConn, requestID, code, message string) {
	conn.Send(Frame{
		Event:     EventError,
		RequestID: requestID,
		Payload:   errorPayload{Code: code, Message: message},
	})
}
