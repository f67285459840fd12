package http

import "sync"

// roomGate serializes the persist-then-enqueue step of message sends per
// chatroom. Acceptance order is the store commit order; holding the room's
// lock from commit until the hub op is enqueued keeps delivery order equal
// to it even when senders on different connections race. Sends to different
// rooms proceed independently and the hub itself never blocks on the gate.
type roomGate struct {
	mu    sync.Mutex
	rooms map[string]*sync.Mutex
}

func newRoomGate() *roomGate {
	return &roomGate{rooms: make(map[string]*sync.Mutex)}
}

// room returns the lock for roomID, creating it on first use.
func (g *roomGate) room(roomID string) *sync.Mutex {
	g.mu.Lock()
	defer g.mu.Unlock()

	m, ok := g.rooms[roomID]
	if !ok {
		m = &sync.Mutex{}
		g.rooms[roomID] = m
	}
	return m
}
