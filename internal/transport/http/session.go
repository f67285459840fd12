package http

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/rs/zerolog"

	"github.com/embassyops/backoffice-server/internal/core"
	"github.com/embassyops/backoffice-server/internal/proto"
	"github.com/embassyops/backoffice-server/internal/service/messages"
	"github.com/embassyops/backoffice-server/internal/store"
)

// session owns the server side of one WebSocket connection. Inbound events
// from the same connection are handled strictly in delivery order. Store
// round-trips (membership checks, message persistence) run here, on the
// connection's goroutine, so they never block the hub or other connections;
// only the resulting state changes are handed to the hub.
type session struct {
	conn *core.Conn
	hub  *core.Hub
	chat *messages.Service
	gate *roomGate
	log  *zerolog.Logger

	// userID is set once register succeeds. Zero means anonymous.
	userID int64
}

func (s *session) handle(ctx context.Context, in proto.Inbound) {
	switch in.Type {
	case proto.InboundTypeRegister:
		s.handleRegister(in.Data)
	case proto.InboundTypeJoinRoom:
		s.handleJoin(ctx, in.Data)
	case proto.InboundTypeLeaveRoom:
		s.handleLeave(in.Data)
	case proto.InboundTypeSendMessage:
		s.handleSendMessage(ctx, in.Data)
	case proto.InboundTypeMarkRead:
		s.handleMarkRead(ctx, in.Data)
	case proto.InboundTypeTyping:
		s.handleTyping(in.Data)
	default:
		s.emitError(core.ErrCodeBadRequest, "unknown message type")
	}
}

func (s *session) handleRegister(data json.RawMessage) {
	var payload proto.RegisterData
	if err := json.Unmarshal(data, &payload); err != nil || payload.UserID <= 0 {
		s.emitError(core.ErrCodeBadRequest, "user_id is required")
		return
	}

	if err := s.hub.Register(s.conn, payload.UserID); err != nil {
		s.emit(core.Event{Kind: core.EventError, Error: err})
		return
	}
	s.userID = payload.UserID
}

func (s *session) handleJoin(ctx context.Context, data json.RawMessage) {
	var payload proto.JoinRoomData
	if err := json.Unmarshal(data, &payload); err != nil || payload.ChatroomID == "" {
		s.emitError(core.ErrCodeBadRequest, "chatroom_id is required")
		return
	}
	if s.userID == 0 {
		s.emit(core.Event{Kind: core.EventError, Error: core.ErrUnregistered()})
		return
	}

	// Durable membership is checked before the subscription commits; the hub
	// re-validates liveness at commit time in case this connection
	// disconnected during the store round-trip.
	room, members, err := s.chat.Chatroom(ctx, payload.ChatroomID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.emit(core.Event{Kind: core.EventError, Error: core.ErrRoomNotFound()})
			return
		}
		s.log.Error().Err(err).Str("room", payload.ChatroomID).Msg("membership lookup failed")
		s.emit(core.Event{Kind: core.EventError, Error: core.ErrPersistence("failed to look up chatroom")})
		return
	}
	if !containsUser(members, s.userID) {
		s.emit(core.Event{Kind: core.EventError, Error: core.ErrNotAMember()})
		return
	}

	s.hub.CommitJoin(s.conn, room.ID, room.Name)
}

func (s *session) handleLeave(data json.RawMessage) {
	var payload proto.LeaveRoomData
	if err := json.Unmarshal(data, &payload); err != nil || payload.ChatroomID == "" {
		s.emitError(core.ErrCodeBadRequest, "chatroom_id is required")
		return
	}
	s.hub.Leave(s.conn, payload.ChatroomID)
}

func (s *session) handleSendMessage(ctx context.Context, data json.RawMessage) {
	var payload proto.SendMessageData
	if err := json.Unmarshal(data, &payload); err != nil || payload.ChatroomID == "" || payload.Content == "" {
		s.emitError(core.ErrCodeBadRequest, "chatroom_id and content are required")
		return
	}
	if s.userID == 0 {
		s.emit(core.Event{Kind: core.EventError, Error: core.ErrUnregistered()})
		return
	}

	// The registered identity is authoritative; the sender_id field in the
	// payload is legacy wire shape and is not trusted.
	//
	// The room gate is held from the store commit until the broadcast op is
	// enqueued. Without it, a sender committing first could be descheduled
	// and enqueue second, and subscribers would see the two messages in the
	// opposite order from the persisted history.
	gate := s.gate.room(payload.ChatroomID)
	gate.Lock()
	msg, room, members, err := s.chat.CreateChatMessage(ctx, messages.ChatMessageDraft{
		ChatroomID:  payload.ChatroomID,
		SenderID:    s.userID,
		Content:     payload.Content,
		Attachments: payload.Attachments,
	})
	if err != nil {
		gate.Unlock()
		if errors.Is(err, store.ErrNotFound) {
			s.emit(core.Event{Kind: core.EventError, Error: core.ErrRoomNotFound()})
			return
		}
		s.log.Error().Err(err).Str("room", payload.ChatroomID).Msg("message persistence failed")
		s.emit(core.Event{Kind: core.EventError, Error: core.ErrPersistence("failed to send message")})
		return
	}

	s.hub.BroadcastMessage(msg, room.Name, members)
	gate.Unlock()
}

func (s *session) handleMarkRead(ctx context.Context, data json.RawMessage) {
	var payload proto.MarkReadData
	if err := json.Unmarshal(data, &payload); err != nil || payload.MessageID == "" || payload.ChatroomID == "" {
		s.emitError(core.ErrCodeBadRequest, "message_id and chatroom_id are required")
		return
	}
	if s.userID == 0 {
		s.emit(core.Event{Kind: core.EventError, Error: core.ErrUnregistered()})
		return
	}

	if err := s.chat.MarkMessageRead(ctx, payload.MessageID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.emitError(core.ErrCodeBadRequest, "message not found")
			return
		}
		s.log.Error().Err(err).Str("message_id", payload.MessageID).Msg("mark read failed")
		s.emit(core.Event{Kind: core.EventError, Error: core.ErrPersistence("failed to mark message read")})
		return
	}

	s.hub.BroadcastRead(payload.ChatroomID, payload.MessageID, s.userID)
}

func (s *session) handleTyping(data json.RawMessage) {
	var payload proto.TypingData
	if err := json.Unmarshal(data, &payload); err != nil || payload.ChatroomID == "" {
		return
	}
	// Typing from an anonymous connection is dropped without an error; the
	// hub also guards this.
	if s.userID == 0 {
		return
	}
	s.hub.Typing(s.conn, payload.ChatroomID, payload.IsTyping)
}

func (s *session) emit(ev core.Event) {
	s.conn.Deliver(ev)
}

func (s *session) emitError(code, msg string) {
	s.emit(core.Event{Kind: core.EventError, Error: &core.CoreError{Code: code, Message: msg}})
}

func containsUser(members []int64, userID int64) bool {
	for _, id := range members {
		if id == userID {
			return true
		}
	}
	return false
}
