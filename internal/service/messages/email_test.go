package messages

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/embassyops/backoffice-server/internal/store"
)

func TestCreateEmailValidatesRecipients(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	ids := seedUsers(t, st, "alice", "bob")

	_, err := svc.CreateEmail(ctx, EmailDraft{
		SenderID: ids[0],
		Subject:  "no recipients",
		Content:  "x",
	})
	if !errors.Is(err, ErrInvalidMembers) {
		t.Fatalf("expected ErrInvalidMembers, got %v", err)
	}

	_, err = svc.CreateEmail(ctx, EmailDraft{
		SenderID:    ids[0],
		ReceiverIDs: []int64{ids[1], 999},
		Subject:     "unknown recipient",
		Content:     "x",
	})
	if !errors.Is(err, ErrInvalidMembers) {
		t.Fatalf("expected ErrInvalidMembers, got %v", err)
	}
}

func TestCreateEmailNotifiesRecipientsOnlyWhenSent(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	ids := seedUsers(t, st, "alice", "bob", "carol")
	page := store.Page{Number: 1, Limit: 10}

	// A draft stays silent.
	draft, err := svc.CreateEmail(ctx, EmailDraft{
		SenderID:    ids[0],
		ReceiverIDs: []int64{ids[1]},
		Subject:     "wip",
		Content:     "not yet",
	})
	if err != nil {
		t.Fatalf("CreateEmail draft failed: %v", err)
	}
	if draft.Status != store.EmailStatusDraft {
		t.Fatalf("expected draft status, got %q", draft.Status)
	}
	_, total, err := svc.ListNotifications(ctx, ids[1], page)
	if err != nil {
		t.Fatalf("ListNotifications failed: %v", err)
	}
	if total != 0 {
		t.Fatalf("draft must not notify, got %d notifications", total)
	}

	sent, err := svc.CreateEmail(ctx, EmailDraft{
		SenderID:    ids[0],
		ReceiverIDs: []int64{ids[1], ids[2]},
		Subject:     "quarterly report",
		Content:     "attached",
		Status:      store.EmailStatusSent,
	})
	if err != nil {
		t.Fatalf("CreateEmail sent failed: %v", err)
	}

	// One notification per recipient, none for the sender.
	for i, want := range []int{0, 1, 1} {
		notifications, total, err := svc.ListNotifications(ctx, ids[i], page)
		if err != nil {
			t.Fatalf("ListNotifications failed: %v", err)
		}
		if total != want {
			t.Fatalf("user %d: expected %d notifications, got %d", ids[i], want, total)
		}
		if want == 1 {
			n := notifications[0]
			if n.Type != "email" || n.Link != "/emails/"+sent.ID {
				t.Fatalf("unexpected notification: %+v", n)
			}
			if n.Message != "Subject: quarterly report" {
				t.Fatalf("unexpected notification message: %q", n.Message)
			}
		}
	}
}

func TestEmailFolders(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	ids := seedUsers(t, st, "alice", "bob")
	page := store.Page{Number: 1, Limit: 10}

	sent, err := svc.CreateEmail(ctx, EmailDraft{
		SenderID:    ids[0],
		ReceiverIDs: []int64{ids[1]},
		EmbassyID:   "emb-1",
		Subject:     "for bob",
		Content:     "x",
		Status:      store.EmailStatusSent,
	})
	if err != nil {
		t.Fatalf("CreateEmail failed: %v", err)
	}
	draft, err := svc.CreateEmail(ctx, EmailDraft{
		SenderID:    ids[0],
		ReceiverIDs: []int64{ids[1]},
		EmbassyID:   "emb-1",
		Subject:     "unfinished",
		Content:     "x",
	})
	if err != nil {
		t.Fatalf("CreateEmail failed: %v", err)
	}

	inbox, total, err := svc.Inbox(ctx, ids[1], "", page)
	if err != nil {
		t.Fatalf("Inbox failed: %v", err)
	}
	if total != 1 || inbox[0].ID != sent.ID {
		t.Fatalf("bob's inbox should hold the sent email, got total=%d", total)
	}
	if _, total, err = svc.Inbox(ctx, ids[1], "emb-2", page); err != nil || total != 0 {
		t.Fatalf("inbox for wrong embassy: total=%d err=%v", total, err)
	}

	outbox, total, err := svc.SentEmails(ctx, ids[0], "emb-1", page)
	if err != nil {
		t.Fatalf("SentEmails failed: %v", err)
	}
	if total != 1 || outbox[0].ID != sent.ID {
		t.Fatalf("alice's sent folder should hold the sent email, got total=%d", total)
	}

	drafts, total, err := svc.Drafts(ctx, ids[0], "", page)
	if err != nil {
		t.Fatalf("Drafts failed: %v", err)
	}
	if total != 1 || drafts[0].ID != draft.ID {
		t.Fatalf("alice's drafts should hold the draft, got total=%d", total)
	}

	if err := svc.ArchiveEmail(ctx, sent.ID); err != nil {
		t.Fatalf("ArchiveEmail failed: %v", err)
	}
	archived, total, err := svc.ArchivedEmails(ctx, ids[1], "", page)
	if err != nil {
		t.Fatalf("ArchivedEmails failed: %v", err)
	}
	if total != 1 || archived[0].ID != sent.ID {
		t.Fatalf("bob's archived folder should hold the email, got total=%d", total)
	}
	// Archiving removed it from the inbox.
	if _, total, err = svc.Inbox(ctx, ids[1], "", page); err != nil || total != 0 {
		t.Fatalf("inbox after archive: total=%d err=%v", total, err)
	}
}

func TestEmailReadAndLifecycleTransitions(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	ids := seedUsers(t, st, "alice", "bob", "carol")

	email, err := svc.CreateEmail(ctx, EmailDraft{
		SenderID:    ids[0],
		ReceiverIDs: []int64{ids[1], ids[2]},
		Subject:     "read me",
		Content:     "x",
		Status:      store.EmailStatusSent,
	})
	if err != nil {
		t.Fatalf("CreateEmail failed: %v", err)
	}

	if err := svc.MarkEmailRead(ctx, email.ID, ids[1]); err != nil {
		t.Fatalf("MarkEmailRead failed: %v", err)
	}
	got, recipients, err := svc.Email(ctx, email.ID)
	if err != nil {
		t.Fatalf("Email failed: %v", err)
	}
	if got.Status != store.EmailStatusRead {
		t.Fatalf("expected status read, got %q", got.Status)
	}
	for _, r := range recipients {
		if r.UserID == ids[1] && (!r.IsRead || r.ReadAt == nil) {
			t.Fatalf("bob's read state not recorded: %+v", r)
		}
		if r.UserID == ids[2] && r.IsRead {
			t.Fatalf("carol's read state must be untouched: %+v", r)
		}
	}

	if err := svc.MarkEmailDraft(ctx, email.ID); err != nil {
		t.Fatalf("MarkEmailDraft failed: %v", err)
	}
	if err := svc.DeleteEmail(ctx, email.ID); err != nil {
		t.Fatalf("DeleteEmail failed: %v", err)
	}
	// Soft delete keeps the row.
	got, _, err = svc.Email(ctx, email.ID)
	if err != nil {
		t.Fatalf("Email after delete failed: %v", err)
	}
	if got.Status != store.EmailStatusDeleted {
		t.Fatalf("expected status deleted, got %q", got.Status)
	}

	at := time.Date(2026, 11, 2, 8, 30, 0, 0, time.UTC)
	if err := svc.ScheduleEmail(ctx, email.ID, at); err != nil {
		t.Fatalf("ScheduleEmail failed: %v", err)
	}
	got, _, err = svc.Email(ctx, email.ID)
	if err != nil {
		t.Fatalf("Email failed: %v", err)
	}
	if got.Status != store.EmailStatusScheduled || got.ScheduledAt == nil || !got.ScheduledAt.Equal(at) {
		t.Fatalf("schedule not recorded: %+v", got)
	}

	if err := svc.MarkEmailRead(ctx, "missing", ids[1]); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteChatMessage(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	ids := seedUsers(t, st, "alice")
	room, _, err := svc.CreateChatroom(ctx, ChatroomDraft{Name: "general", CreatedBy: ids[0]})
	if err != nil {
		t.Fatalf("CreateChatroom failed: %v", err)
	}

	msg, _, _, err := svc.CreateChatMessage(ctx, ChatMessageDraft{
		ChatroomID: room.ID,
		SenderID:   ids[0],
		Content:    "oops",
	})
	if err != nil {
		t.Fatalf("CreateChatMessage failed: %v", err)
	}

	if err := svc.DeleteChatMessage(ctx, msg.ID); err != nil {
		t.Fatalf("DeleteChatMessage failed: %v", err)
	}
	_, total, err := svc.ListMessages(ctx, room.ID, store.Page{Number: 1, Limit: 10})
	if err != nil {
		t.Fatalf("ListMessages failed: %v", err)
	}
	if total != 0 {
		t.Fatalf("expected empty history after delete, got %d", total)
	}
	if err := svc.DeleteChatMessage(ctx, msg.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
