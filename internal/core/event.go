package core

import "github.com/embassyops/backoffice-server/internal/store"

// EventKind is a notification the realtime layer emits to connections.
type EventKind int

const (
	// EventRegistered confirms an identity was bound to the connection.
	EventRegistered EventKind = iota
	// EventJoinedRoom confirms the connection subscribed to a chatroom.
	EventJoinedRoom
	// EventLeftRoom confirms the connection unsubscribed from a chatroom.
	EventLeftRoom
	// EventUserJoined notifies room subscribers about a peer joining.
	EventUserJoined
	// EventUserLeft notifies room subscribers about a peer leaving or disconnecting.
	EventUserLeft
	// EventNewMessage delivers a persisted chat message to room subscribers.
	EventNewMessage
	// EventNewNotification delivers a notification signal to a member's connections.
	EventNewNotification
	// EventMessageRead notifies room subscribers that a message was read.
	EventMessageRead
	// EventUserTyping relays a typing indicator to other room subscribers.
	EventUserTyping
	// EventError reports a domain error to the originating connection.
	EventError
)

// Notification is the live notification signal raised toward a chatroom
// member's connections. The durable record is the store's concern.
type Notification struct {
	Type         string
	ChatroomID   string
	ChatroomName string
	MessageID    string
	SenderID     int64
}

// Event is sent to connections to describe what happened in the system.
type Event struct {
	Kind         EventKind
	Room         string
	RoomName     string
	User         int64
	ConnID       string
	Message      *store.ChatMessage
	MessageID    string
	IsTyping     bool
	Notification *Notification
	Error        *CoreError
}
