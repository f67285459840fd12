package core

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/embassyops/backoffice-server/internal/store"
)

// Hub is the presence coordinator. It exclusively owns the connection
// registry and the room subscription index; every mutation and every fan-out
// read runs as one operation on the hub goroutine, so no two operations
// interleave inconsistently. Collaborator store calls never run here: the
// transport layer performs them on the connection's own goroutine and then
// enqueues the resulting state change, so unrelated connections never
// serialize behind each other's persistence round-trips.
type Hub struct {
	ops  chan func()
	done chan struct{}

	// state below is touched only by the Run goroutine
	reg   *registry
	rooms *roomIndex
	live  map[*Conn]struct{}

	log *zerolog.Logger
}

// NewHub creates a hub. Call Run before submitting operations.
func NewHub(logger *zerolog.Logger) *Hub {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Hub{
		ops:   make(chan func(), 64),
		done:  make(chan struct{}),
		reg:   newRegistry(),
		rooms: newRoomIndex(),
		live:  make(map[*Conn]struct{}),
		log:   logger,
	}
}

// Run processes hub operations until the context is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case op := <-h.ops:
			op()
		case <-ctx.Done():
			return
		}
	}
}

// do submits an operation to the hub goroutine. Returns false if the hub has
// stopped, in which case the operation was discarded.
func (h *Hub) do(op func()) bool {
	select {
	case h.ops <- op:
		return true
	case <-h.done:
		return false
	}
}

// Connect marks a connection live. Until Disconnect, the hub may deliver
// events to it.
func (h *Hub) Connect(c *Conn) {
	h.do(func() {
		h.live[c] = struct{}{}
		h.log.Debug().Str("conn_id", c.ID).Msg("connection established")
	})
}

// Disconnect removes the connection from the registry and from every room
// subscription in a single hub operation, broadcasting a user_left event per
// room it was subscribed to. A broadcast in flight sees the connection either
// fully present or fully absent, never partially.
func (h *Hub) Disconnect(c *Conn) {
	h.do(func() {
		delete(h.live, c)
		userID, wasBound := h.reg.unbind(c)

		left := h.rooms.drop(c)
		if wasBound {
			for _, roomID := range left {
				h.rooms.broadcast(roomID, Event{
					Kind:   EventUserLeft,
					Room:   roomID,
					User:   userID,
					ConnID: c.ID,
				}, nil)
			}
		}

		h.log.Debug().
			Str("conn_id", c.ID).
			Int64("user_id", userID).
			Int("rooms_left", len(left)).
			Msg("connection closed")
	})
}

// Register binds a user identity to a connection. Registering the same
// identity again is idempotent; rebinding to a different identity fails with
// already_registered. On success the connection receives a registered event.
func (h *Hub) Register(c *Conn, userID int64) *CoreError {
	reply := make(chan *CoreError, 1)
	ok := h.do(func() {
		if _, live := h.live[c]; !live {
			reply <- coreError(ErrCodeBadRequest, "connection is not live")
			return
		}
		if err := h.reg.bind(c, userID); err != nil {
			reply <- err
			return
		}
		c.Deliver(Event{Kind: EventRegistered, User: userID, ConnID: c.ID})
		h.log.Debug().Int64("user_id", userID).Str("conn_id", c.ID).Msg("user registered")
		reply <- nil
	})
	if !ok {
		return coreError(ErrCodeBadRequest, "hub stopped")
	}
	// The hub may stop with the op still queued; don't wait on a reply
	// that will never come.
	select {
	case err := <-reply:
		return err
	case <-h.done:
		return coreError(ErrCodeBadRequest, "hub stopped")
	}
}

// CommitJoin subscribes a registered connection to a room after the caller
// verified durable membership against the store. Liveness is re-checked here:
// if the connection disconnected while the membership query ran, the
// subscription is discarded instead of resurrecting a dead handle. Returns
// false when the commit was skipped.
func (h *Hub) CommitJoin(c *Conn, roomID, roomName string) bool {
	reply := make(chan bool, 1)
	ok := h.do(func() {
		if _, live := h.live[c]; !live {
			reply <- false
			return
		}
		userID, registered := h.reg.userOf(c)
		if !registered {
			reply <- false
			return
		}

		h.rooms.add(roomID, c)
		c.Deliver(Event{Kind: EventJoinedRoom, Room: roomID, RoomName: roomName})
		h.rooms.broadcast(roomID, Event{
			Kind:   EventUserJoined,
			Room:   roomID,
			User:   userID,
			ConnID: c.ID,
		}, c)

		h.log.Debug().Int64("user_id", userID).Str("room", roomID).Msg("joined chatroom")
		reply <- true
	})
	if !ok {
		return false
	}
	select {
	case committed := <-reply:
		return committed
	case <-h.done:
		return false
	}
}

// Leave unsubscribes a connection from a room. Leaving a room the connection
// never joined is a no-op, not an error; the caller still gets the
// left_chatroom confirmation.
func (h *Hub) Leave(c *Conn, roomID string) {
	h.do(func() {
		removed := h.rooms.remove(roomID, c)
		c.Deliver(Event{Kind: EventLeftRoom, Room: roomID})
		if !removed {
			return
		}

		userID, _ := h.reg.userOf(c)
		h.rooms.broadcast(roomID, Event{
			Kind:   EventUserLeft,
			Room:   roomID,
			User:   userID,
			ConnID: c.ID,
		}, nil)
		h.log.Debug().Int64("user_id", userID).Str("room", roomID).Msg("left chatroom")
	})
}

// BroadcastMessage fans out a freshly persisted chat message: the message
// itself to every current room subscriber, and a notification signal to every
// live connection of every durable room member other than the sender. See
// fanout.go for the delivery rules.
func (h *Hub) BroadcastMessage(msg *store.ChatMessage, roomName string, members []int64) {
	h.do(func() {
		h.fanOutMessage(msg, roomName, members)
	})
}

// BroadcastRead notifies room subscribers that a message was read.
func (h *Hub) BroadcastRead(roomID, messageID string, readBy int64) {
	h.do(func() {
		h.rooms.broadcast(roomID, Event{
			Kind:      EventMessageRead,
			Room:      roomID,
			MessageID: messageID,
			User:      readBy,
		}, nil)
	})
}

// Typing relays a typing indicator to the room's other subscribers. See
// relay.go.
func (h *Hub) Typing(c *Conn, roomID string, isTyping bool) {
	h.do(func() {
		h.relayTyping(c, roomID, isTyping)
	})
}
