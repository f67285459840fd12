package core

// roomIndex tracks which connections are currently subscribed to each
// chatroom's live events. Subscriptions are ephemeral: they exist only for
// the lifetime of the connection and are never persisted. The durable member
// list lives in the store and is a separate concern.
type roomIndex struct {
	rooms map[string]map[*Conn]struct{}
}

func newRoomIndex() *roomIndex {
	return &roomIndex{
		rooms: make(map[string]map[*Conn]struct{}),
	}
}

// add subscribes a connection to a room, creating the room set if absent.
func (ri *roomIndex) add(roomID string, c *Conn) {
	subs, ok := ri.rooms[roomID]
	if !ok {
		subs = make(map[*Conn]struct{})
		ri.rooms[roomID] = subs
	}
	subs[c] = struct{}{}
}

// remove unsubscribes a connection from a room. Returns false if the
// connection was not subscribed.
func (ri *roomIndex) remove(roomID string, c *Conn) bool {
	subs, ok := ri.rooms[roomID]
	if !ok {
		return false
	}
	if _, ok := subs[c]; !ok {
		return false
	}
	delete(subs, c)
	if len(subs) == 0 {
		delete(ri.rooms, roomID)
	}
	return true
}

// drop unsubscribes a connection from every room it belonged to and returns
// the IDs of those rooms.
func (ri *roomIndex) drop(c *Conn) []string {
	var left []string
	for roomID, subs := range ri.rooms {
		if _, ok := subs[c]; ok {
			delete(subs, c)
			if len(subs) == 0 {
				delete(ri.rooms, roomID)
			}
			left = append(left, roomID)
		}
	}
	return left
}

// contains reports whether a connection is subscribed to a room.
func (ri *roomIndex) contains(roomID string, c *Conn) bool {
	subs, ok := ri.rooms[roomID]
	if !ok {
		return false
	}
	_, ok = subs[c]
	return ok
}

// broadcast delivers an event to every subscriber of a room, skipping the
// except connection when non-nil.
func (ri *roomIndex) broadcast(roomID string, ev Event, except *Conn) {
	for c := range ri.rooms[roomID] {
		if c == except {
			continue
		}
		c.Deliver(ev)
	}
}
