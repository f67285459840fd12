package core

import "testing"

// checkInverse verifies the user->connections and connection->user maps are
// exact inverses of one another.
func checkInverse(t *testing.T, r *registry) {
	t.Helper()

	count := 0
	for userID, conns := range r.byUser {
		if len(conns) == 0 {
			t.Fatalf("empty connection set left behind for user %d", userID)
		}
		for c := range conns {
			count++
			bound, ok := r.byConn[c]
			if !ok {
				t.Fatalf("conn %s in byUser[%d] but missing from byConn", c.ID, userID)
			}
			if bound != userID {
				t.Fatalf("conn %s bound to %d in byConn but listed under %d", c.ID, bound, userID)
			}
		}
	}
	if count != len(r.byConn) {
		t.Fatalf("byUser holds %d conns, byConn holds %d", count, len(r.byConn))
	}
}

func TestRegistryBindUnbindInverse(t *testing.T) {
	r := newRegistry()

	c1 := NewConn("c1")
	c2 := NewConn("c2")
	c3 := NewConn("c3")

	if err := r.bind(c1, 1); err != nil {
		t.Fatalf("bind c1: %v", err)
	}
	if err := r.bind(c2, 1); err != nil {
		t.Fatalf("bind c2: %v", err)
	}
	if err := r.bind(c3, 2); err != nil {
		t.Fatalf("bind c3: %v", err)
	}
	checkInverse(t, r)

	if got := len(r.connections(1)); got != 2 {
		t.Fatalf("expected 2 connections for user 1, got %d", got)
	}

	userID, ok := r.unbind(c1)
	if !ok || userID != 1 {
		t.Fatalf("unbind c1 = (%d, %v)", userID, ok)
	}
	checkInverse(t, r)

	// User 1 still has c2; the registry entry must survive.
	if got := len(r.connections(1)); got != 1 {
		t.Fatalf("expected 1 connection for user 1, got %d", got)
	}

	userID, ok = r.unbind(c2)
	if !ok || userID != 1 {
		t.Fatalf("unbind c2 = (%d, %v)", userID, ok)
	}
	checkInverse(t, r)

	if conns := r.connections(1); conns != nil {
		t.Fatalf("expected no connections for user 1, got %v", conns)
	}

	// Unbinding an unknown connection reports false.
	if _, ok := r.unbind(c1); ok {
		t.Fatal("expected unbind of unbound conn to report false")
	}
}

func TestRegistryRebindRules(t *testing.T) {
	r := newRegistry()
	c := NewConn("c")

	if err := r.bind(c, 7); err != nil {
		t.Fatalf("bind: %v", err)
	}

	// Same identity again is idempotent.
	if err := r.bind(c, 7); err != nil {
		t.Fatalf("idempotent bind: %v", err)
	}
	checkInverse(t, r)

	// A different identity on a bound connection is rejected.
	err := r.bind(c, 8)
	if err == nil || err.Code != ErrCodeAlreadyRegistered {
		t.Fatalf("expected already_registered, got %v", err)
	}
	checkInverse(t, r)

	if userID, _ := r.userOf(c); userID != 7 {
		t.Fatalf("expected conn still bound to 7, got %d", userID)
	}
}
