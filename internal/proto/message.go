package proto

import "encoding/json"

// Inbound is the envelope for events coming from the client. Each type tag
// has a fixed payload shape; unknown tags and malformed payloads are rejected
// at the transport boundary rather than trusted implicitly.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	InboundTypeRegister    = "register"
	InboundTypeJoinRoom    = "join_chatroom"
	InboundTypeLeaveRoom   = "leave_chatroom"
	InboundTypeSendMessage = "send_message"
	InboundTypeMarkRead    = "mark_message_read"
	InboundTypeTyping      = "typing"

	OutboundTypeRegistered      = "registered"
	OutboundTypeJoinedRoom      = "joined_chatroom"
	OutboundTypeLeftRoom        = "left_chatroom"
	OutboundTypeUserJoined      = "user_joined"
	OutboundTypeUserLeft        = "user_left"
	OutboundTypeNewMessage      = "new_message"
	OutboundTypeNewNotification = "new_notification"
	OutboundTypeMessageRead     = "message_read"
	OutboundTypeUserTyping      = "user_typing"
	OutboundTypeError           = "error"
)

// RegisterData binds an authenticated user identity to the connection.
type RegisterData struct {
	UserID int64 `json:"user_id"`
}

// JoinRoomData requests a subscription to a chatroom's live events.
type JoinRoomData struct {
	ChatroomID string `json:"chatroom_id"`
}

// LeaveRoomData drops a subscription to a chatroom.
type LeaveRoomData struct {
	ChatroomID string `json:"chatroom_id"`
}

// SendMessageData is a chat message from the client.
type SendMessageData struct {
	ChatroomID  string   `json:"chatroom_id"`
	Content     string   `json:"content"`
	Attachments []string `json:"attachments,omitempty"`
	SenderID    int64    `json:"sender_id"`
}

// MarkReadData marks a message as read.
type MarkReadData struct {
	MessageID  string `json:"message_id"`
	ChatroomID string `json:"chatroom_id"`
}

// TypingData is a typing indicator.
type TypingData struct {
	ChatroomID string `json:"chatroom_id"`
	IsTyping   bool   `json:"is_typing"`
}

// Outbound is the envelope for events sent to the client.
type Outbound struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// RegisteredData confirms identity binding.
type RegisteredData struct {
	UserID       int64  `json:"user_id"`
	ConnectionID string `json:"connection_id"`
}

// JoinedRoomData confirms a room subscription.
type JoinedRoomData struct {
	ChatroomID   string `json:"chatroom_id"`
	ChatroomName string `json:"chatroom_name"`
}

// LeftRoomData confirms a dropped subscription.
type LeftRoomData struct {
	ChatroomID string `json:"chatroom_id"`
}

// UserPresenceData notifies room subscribers about a peer joining or leaving.
type UserPresenceData struct {
	ChatroomID   string `json:"chatroom_id"`
	UserID       int64  `json:"user_id"`
	ConnectionID string `json:"connection_id"`
}

// MessageData is a persisted chat message delivered to room subscribers.
type MessageData struct {
	ID          string   `json:"id"`
	ChatroomID  string   `json:"chatroom_id"`
	SenderID    int64    `json:"sender_id"`
	Content     string   `json:"content"`
	Attachments []string `json:"attachments"`
	IsRead      bool     `json:"is_read"`
	CreatedAt   int64    `json:"created_at"`
}

// NotificationData is the live notification signal for a chatroom member.
type NotificationData struct {
	Type         string `json:"type"`
	ChatroomID   string `json:"chatroom_id"`
	ChatroomName string `json:"chatroom_name"`
	MessageID    string `json:"message_id"`
	SenderID     int64  `json:"sender_id"`
}

// MessageReadData notifies room subscribers that a message was read.
type MessageReadData struct {
	MessageID string `json:"message_id"`
	ReadBy    int64  `json:"read_by"`
}

// UserTypingData relays a typing indicator.
type UserTypingData struct {
	ChatroomID string `json:"chatroom_id"`
	UserID     int64  `json:"user_id"`
	IsTyping   bool   `json:"is_typing"`
}

// ErrorData describes an error reported to the originating connection.
type ErrorData struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}
