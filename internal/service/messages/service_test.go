package messages

import (
	"context"
	"errors"
	"testing"

	"github.com/embassyops/backoffice-server/internal/store"
	"github.com/embassyops/backoffice-server/internal/store/sqlite"
)

func newTestService(t *testing.T) (*Service, *sqlite.SQLiteStore) {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	return NewService(st, nil), st
}

func seedUsers(t *testing.T, st *sqlite.SQLiteStore, names ...string) []int64 {
	t.Helper()

	ctx := context.Background()
	ids := make([]int64, 0, len(names))
	for _, name := range names {
		u, err := st.CreateUser(ctx, name, "hash")
		if err != nil {
			t.Fatalf("create user %s: %v", name, err)
		}
		ids = append(ids, u.ID)
	}
	return ids
}

func TestCreateChatroomValidatesMembers(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	ids := seedUsers(t, st, "alice", "bob")

	_, _, err := svc.CreateChatroom(ctx, ChatroomDraft{
		Name:      "general",
		CreatedBy: ids[0],
		MemberIDs: []int64{ids[1], 999},
	})
	if !errors.Is(err, ErrInvalidMembers) {
		t.Fatalf("expected ErrInvalidMembers, got %v", err)
	}

	room, members, err := svc.CreateChatroom(ctx, ChatroomDraft{
		Name:      "general",
		CreatedBy: ids[0],
		MemberIDs: []int64{ids[1]},
	})
	if err != nil {
		t.Fatalf("CreateChatroom failed: %v", err)
	}
	// The creator is always a member.
	if len(members) != 2 {
		t.Fatalf("expected 2 members, got %v", members)
	}
	if room.Name != "general" {
		t.Fatalf("unexpected room: %+v", room)
	}
}

func TestCreateChatMessageWritesNotifications(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	ids := seedUsers(t, st, "alice", "bob", "carol")

	room, _, err := svc.CreateChatroom(ctx, ChatroomDraft{
		Name:      "general",
		CreatedBy: ids[0],
		MemberIDs: ids,
	})
	if err != nil {
		t.Fatalf("CreateChatroom failed: %v", err)
	}

	msg, gotRoom, members, err := svc.CreateChatMessage(ctx, ChatMessageDraft{
		ChatroomID: room.ID,
		SenderID:   ids[0],
		Content:    "hello",
	})
	if err != nil {
		t.Fatalf("CreateChatMessage failed: %v", err)
	}
	if msg.ID == "" || msg.Content != "hello" {
		t.Fatalf("unexpected message: %+v", msg)
	}
	if gotRoom.ID != room.ID || len(members) != 3 {
		t.Fatalf("unexpected room/members: %+v %v", gotRoom, members)
	}

	// One notification per non-sender member, none for the sender.
	for i, want := range []int{0, 1, 1} {
		notifications, total, err := svc.ListNotifications(ctx, ids[i], store.Page{Number: 1, Limit: 10})
		if err != nil {
			t.Fatalf("ListNotifications failed: %v", err)
		}
		if total != want || len(notifications) != want {
			t.Fatalf("user %d: expected %d notifications, got %d", ids[i], want, total)
		}
	}

	// Unknown room surfaces the store's not-found.
	_, _, _, err = svc.CreateChatMessage(ctx, ChatMessageDraft{
		ChatroomID: "no-such-room",
		SenderID:   ids[0],
		Content:    "hello",
	})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMembershipManagement(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	ids := seedUsers(t, st, "alice", "bob")

	room, _, err := svc.CreateChatroom(ctx, ChatroomDraft{
		Name:      "general",
		CreatedBy: ids[0],
	})
	if err != nil {
		t.Fatalf("CreateChatroom failed: %v", err)
	}

	if err := svc.AddMember(ctx, room.ID, 999); !errors.Is(err, ErrInvalidMembers) {
		t.Fatalf("expected ErrInvalidMembers, got %v", err)
	}
	if err := svc.AddMember(ctx, "no-such-room", ids[1]); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := svc.AddMember(ctx, room.ID, ids[1]); err != nil {
		t.Fatalf("AddMember failed: %v", err)
	}
	_, members, err := svc.Chatroom(ctx, room.ID)
	if err != nil {
		t.Fatalf("Chatroom failed: %v", err)
	}
	if len(members) != 2 {
		t.Fatalf("expected 2 members, got %v", members)
	}

	if err := svc.RemoveMember(ctx, room.ID, ids[1]); err != nil {
		t.Fatalf("RemoveMember failed: %v", err)
	}
	_, members, err = svc.Chatroom(ctx, room.ID)
	if err != nil {
		t.Fatalf("Chatroom failed: %v", err)
	}
	if len(members) != 1 {
		t.Fatalf("expected 1 member, got %v", members)
	}
}
