package http

import (
	"github.com/embassyops/backoffice-server/internal/core"
	"github.com/embassyops/backoffice-server/internal/proto"
	"github.com/embassyops/backoffice-server/internal/store"
)

func messageData(msg *store.ChatMessage) proto.MessageData {
	attachments := msg.Attachments
	if attachments == nil {
		attachments = []string{}
	}
	return proto.MessageData{
		ID:          msg.ID,
		ChatroomID:  msg.ChatroomID,
		SenderID:    msg.SenderID,
		Content:     msg.Content,
		Attachments: attachments,
		IsRead:      msg.IsRead,
		CreatedAt:   msg.CreatedAt.Unix(),
	}
}

func outboundFromEvent(event core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventRegistered:
		return proto.Outbound{
			Type: proto.OutboundTypeRegistered,
			Data: proto.RegisteredData{
				UserID:       event.User,
				ConnectionID: event.ConnID,
			},
		}
	case core.EventJoinedRoom:
		return proto.Outbound{
			Type: proto.OutboundTypeJoinedRoom,
			Data: proto.JoinedRoomData{
				ChatroomID:   event.Room,
				ChatroomName: event.RoomName,
			},
		}
	case core.EventLeftRoom:
		return proto.Outbound{
			Type: proto.OutboundTypeLeftRoom,
			Data: proto.LeftRoomData{ChatroomID: event.Room},
		}
	case core.EventUserJoined:
		return proto.Outbound{
			Type: proto.OutboundTypeUserJoined,
			Data: proto.UserPresenceData{
				ChatroomID:   event.Room,
				UserID:       event.User,
				ConnectionID: event.ConnID,
			},
		}
	case core.EventUserLeft:
		return proto.Outbound{
			Type: proto.OutboundTypeUserLeft,
			Data: proto.UserPresenceData{
				ChatroomID:   event.Room,
				UserID:       event.User,
				ConnectionID: event.ConnID,
			},
		}
	case core.EventNewMessage:
		return proto.Outbound{
			Type: proto.OutboundTypeNewMessage,
			Data: messageData(event.Message),
		}
	case core.EventNewNotification:
		n := event.Notification
		return proto.Outbound{
			Type: proto.OutboundTypeNewNotification,
			Data: proto.NotificationData{
				Type:         n.Type,
				ChatroomID:   n.ChatroomID,
				ChatroomName: n.ChatroomName,
				MessageID:    n.MessageID,
				SenderID:     n.SenderID,
			},
		}
	case core.EventMessageRead:
		return proto.Outbound{
			Type: proto.OutboundTypeMessageRead,
			Data: proto.MessageReadData{
				MessageID: event.MessageID,
				ReadBy:    event.User,
			},
		}
	case core.EventUserTyping:
		return proto.Outbound{
			Type: proto.OutboundTypeUserTyping,
			Data: proto.UserTypingData{
				ChatroomID: event.Room,
				UserID:     event.User,
				IsTyping:   event.IsTyping,
			},
		}
	case core.EventError:
		if event.Error == nil {
			return proto.Outbound{
				Type: proto.OutboundTypeError,
				Data: proto.ErrorData{Message: "unknown error"},
			}
		}
		return proto.Outbound{
			Type: proto.OutboundTypeError,
			Data: proto.ErrorData{
				Code:    event.Error.Code,
				Message: event.Error.Message,
			},
		}
	default:
		return proto.Outbound{Type: proto.OutboundTypeError, Data: proto.ErrorData{Message: "unknown event"}}
	}
}
