package core

// registry is the bidirectional mapping between user identities and the live
// connections they hold. A user may hold several simultaneous connections.
// The two maps are exact inverses at every quiescent point; only the hub
// goroutine touches them.
type registry struct {
	byUser map[int64]map[*Conn]struct{}
	byConn map[*Conn]int64
}

func newRegistry() *registry {
	return &registry{
		byUser: make(map[int64]map[*Conn]struct{}),
		byConn: make(map[*Conn]int64),
	}
}

// bind attaches a user identity to a connection. Binding the same identity
// again is idempotent; rebinding to a different identity is rejected.
func (r *registry) bind(c *Conn, userID int64) *CoreError {
	if bound, ok := r.byConn[c]; ok {
		if bound == userID {
			return nil
		}
		return ErrAlreadyRegistered()
	}

	conns, ok := r.byUser[userID]
	if !ok {
		conns = make(map[*Conn]struct{})
		r.byUser[userID] = conns
	}
	conns[c] = struct{}{}
	r.byConn[c] = userID
	return nil
}

// unbind detaches a connection from its identity, deleting the identity's
// connection set if it became empty. Returns the identity that was bound.
func (r *registry) unbind(c *Conn) (int64, bool) {
	userID, ok := r.byConn[c]
	if !ok {
		return 0, false
	}
	delete(r.byConn, c)

	if conns, ok := r.byUser[userID]; ok {
		delete(conns, c)
		if len(conns) == 0 {
			delete(r.byUser, userID)
		}
	}
	return userID, true
}

// userOf returns the identity bound to a connection, if any.
func (r *registry) userOf(c *Conn) (int64, bool) {
	userID, ok := r.byConn[c]
	return userID, ok
}

// connections returns every live connection held by a user.
func (r *registry) connections(userID int64) []*Conn {
	conns, ok := r.byUser[userID]
	if !ok {
		return nil
	}
	out := make([]*Conn, 0, len(conns))
	for c := range conns {
		out = append(out, c)
	}
	return out
}
