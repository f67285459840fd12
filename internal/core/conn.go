package core

// Conn is one live bidirectional transport session as seen by the realtime
// layer. The ID is process-local and never outlives the session. A Conn is
// anonymous until a register command binds a user identity to it in the hub.
type Conn struct {
	ID     string
	Events chan Event
}

// NewConn constructs a connection handle with an initialized event channel.
func NewConn(id string) *Conn {
	return &Conn{
		ID:     id,
		Events: make(chan Event, 16),
	}
}

// Deliver hands an event to the connection without blocking. Events to slow
// consumers are dropped; delivery is at-most-once and durability lives in
// the store.
func (c *Conn) Deliver(ev Event) {
	select {
	case c.Events <- ev:
	default:
	}
}
