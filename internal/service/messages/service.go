package messages

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/embassyops/backoffice-server/internal/store"
)

// ErrInvalidMembers is returned when a chatroom references users that do not exist.
var ErrInvalidMembers = errors.New("invalid member ids")

// Service owns chatroom, message, and notification persistence. The realtime
// layer consumes it as its collaborator store: membership lookups before a
// join, message and notification records before a fan-out.
type Service struct {
	store store.Store
	log   *zerolog.Logger
}

// NewService creates a messages service.
func NewService(st store.Store, logger *zerolog.Logger) *Service {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Service{store: st, log: logger}
}

// ChatroomDraft describes a chatroom to create.
type ChatroomDraft struct {
	Name        string
	Description string
	EmbassyID   string
	CreatedBy   int64
	MemberIDs   []int64
}

// CreateChatroom validates the member list and creates the chatroom with its
// initial members. The creator is always a member.
func (s *Service) CreateChatroom(ctx context.Context, draft ChatroomDraft) (*store.Chatroom, []int64, error) {
	memberIDs := draft.MemberIDs
	found := false
	for _, id := range memberIDs {
		if id == draft.CreatedBy {
			found = true
			break
		}
	}
	if !found {
		memberIDs = append(memberIDs, draft.CreatedBy)
	}

	missing, err := s.store.UsersExist(ctx, memberIDs)
	if err != nil {
		return nil, nil, fmt.Errorf("validate members: %w", err)
	}
	if len(missing) > 0 {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidMembers, missing)
	}

	room, err := s.store.CreateChatroom(ctx, &store.Chatroom{
		Name:        draft.Name,
		Description: draft.Description,
		EmbassyID:   draft.EmbassyID,
		CreatedBy:   draft.CreatedBy,
	}, memberIDs)
	if err != nil {
		return nil, nil, fmt.Errorf("create chatroom: %w", err)
	}

	members, err := s.store.ListMembers(ctx, room.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("list members: %w", err)
	}
	return room, members, nil
}

// Chatroom returns a chatroom and its durable member list.
func (s *Service) Chatroom(ctx context.Context, id string) (*store.Chatroom, []int64, error) {
	room, err := s.store.GetChatroom(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	members, err := s.store.ListMembers(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("list members: %w", err)
	}
	return room, members, nil
}

// ListChatrooms lists chatrooms with optional embassy and membership filters.
func (s *Service) ListChatrooms(ctx context.Context, embassyID string, memberID *int64, page store.Page) ([]*store.Chatroom, int, error) {
	return s.store.ListChatrooms(ctx, embassyID, memberID, page)
}

// AddMember adds a user to a chatroom's durable member list.
func (s *Service) AddMember(ctx context.Context, chatroomID string, userID int64) error {
	if _, err := s.store.GetChatroom(ctx, chatroomID); err != nil {
		return err
	}
	missing, err := s.store.UsersExist(ctx, []int64{userID})
	if err != nil {
		return fmt.Errorf("validate member: %w", err)
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %v", ErrInvalidMembers, missing)
	}
	return s.store.AddMember(ctx, chatroomID, userID)
}

// RemoveMember removes a user from a chatroom's durable member list. A
// subscription the user's connections hold on the room is deliberately left
// alone: they keep receiving room events until they leave or disconnect.
func (s *Service) RemoveMember(ctx context.Context, chatroomID string, userID int64) error {
	if _, err := s.store.GetChatroom(ctx, chatroomID); err != nil {
		return err
	}
	return s.store.RemoveMember(ctx, chatroomID, userID)
}

// ChatMessageDraft describes an inbound chat message to persist.
type ChatMessageDraft struct {
	ChatroomID  string
	SenderID    int64
	Content     string
	Attachments []string
}

// CreateChatMessage persists a chat message and, as a side effect, a
// notification record per room member other than the sender. A failed
// notification write is logged and does not fail the message: live delivery
// and durable notification records are independent concerns.
func (s *Service) CreateChatMessage(ctx context.Context, draft ChatMessageDraft) (*store.ChatMessage, *store.Chatroom, []int64, error) {
	room, members, err := s.Chatroom(ctx, draft.ChatroomID)
	if err != nil {
		return nil, nil, nil, err
	}

	msg, err := s.store.CreateMessage(ctx, &store.ChatMessage{
		ChatroomID:  draft.ChatroomID,
		SenderID:    draft.SenderID,
		Content:     draft.Content,
		Attachments: draft.Attachments,
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("create message: %w", err)
	}

	var notifications []*store.Notification
	for _, memberID := range members {
		if memberID == draft.SenderID {
			continue
		}
		notifications = append(notifications, &store.Notification{
			UserID:  memberID,
			Title:   "New chat message",
			Message: fmt.Sprintf("New message in %s", room.Name),
			Type:    "chat",
			Link:    "/chatrooms/" + room.ID,
		})
	}
	if err := s.store.CreateNotifications(ctx, notifications); err != nil {
		s.log.Warn().Err(err).
			Str("message_id", msg.ID).
			Str("room", room.ID).
			Msg("failed to persist notifications")
	}

	return msg, room, members, nil
}

// ListMessages retrieves a chatroom's messages, oldest first.
func (s *Service) ListMessages(ctx context.Context, chatroomID string, page store.Page) ([]*store.ChatMessage, int, error) {
	if _, err := s.store.GetChatroom(ctx, chatroomID); err != nil {
		return nil, 0, err
	}
	return s.store.ListMessages(ctx, chatroomID, page)
}

// MarkMessageRead sets the read flag on a message.
func (s *Service) MarkMessageRead(ctx context.Context, id string) error {
	return s.store.MarkMessageRead(ctx, id)
}

// DeleteChatMessage removes a chat message.
func (s *Service) DeleteChatMessage(ctx context.Context, id string) error {
	return s.store.DeleteMessage(ctx, id)
}

// ListNotifications lists a user's notifications, newest first.
func (s *Service) ListNotifications(ctx context.Context, userID int64, page store.Page) ([]*store.Notification, int, error) {
	return s.store.ListNotifications(ctx, userID, page)
}

// MarkNotificationRead sets the read flag on a notification.
func (s *Service) MarkNotificationRead(ctx context.Context, id string) error {
	return s.store.MarkNotificationRead(ctx, id)
}
