package core

import "github.com/embassyops/backoffice-server/internal/store"

// fanOutMessage runs on the hub goroutine. Two independent deliveries:
//
//   - Room broadcast: the message goes to every connection currently
//     subscribed to the room, including the sender's own other connections,
//     so multi-device senders stay in sync.
//
//   - Notification fan-out: every durable room member other than the sender
//     gets a notification signal on each of their live connections, whether
//     or not those connections are subscribed to the room. Members with no
//     live connections are skipped; the durable notification record was
//     already written by the store.
func (h *Hub) fanOutMessage(msg *store.ChatMessage, roomName string, members []int64) {
	h.rooms.broadcast(msg.ChatroomID, Event{
		Kind:    EventNewMessage,
		Room:    msg.ChatroomID,
		Message: msg,
	}, nil)

	notification := &Notification{
		Type:         "chat",
		ChatroomID:   msg.ChatroomID,
		ChatroomName: roomName,
		MessageID:    msg.ID,
		SenderID:     msg.SenderID,
	}
	for _, memberID := range members {
		if memberID == msg.SenderID {
			continue
		}
		for _, conn := range h.reg.connections(memberID) {
			conn.Deliver(Event{
				Kind:         EventNewNotification,
				User:         memberID,
				Notification: notification,
			})
		}
	}

	h.log.Debug().
		Str("room", msg.ChatroomID).
		Str("message_id", msg.ID).
		Int64("sender_id", msg.SenderID).
		Msg("message fanned out")
}
