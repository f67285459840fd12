package core

// relayTyping runs on the hub goroutine. Typing indicators are presentation
// hints: best-effort, never persisted, never retried, and never echoed back
// to the connection that produced them. Signals from unregistered
// connections are silently dropped.
func (h *Hub) relayTyping(c *Conn, roomID string, isTyping bool) {
	userID, registered := h.reg.userOf(c)
	if !registered {
		return
	}
	h.rooms.broadcast(roomID, Event{
		Kind:     EventUserTyping,
		Room:     roomID,
		User:     userID,
		IsTyping: isTyping,
	}, c)
}
