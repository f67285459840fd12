package messages

import (
	"context"
	"fmt"
	"time"

	"github.com/embassyops/backoffice-server/internal/store"
)

// EmailDraft describes an email to create. Status defaults to draft; a sent
// email notifies every recipient.
type EmailDraft struct {
	SenderID    int64
	ReceiverIDs []int64
	EmbassyID   string
	Subject     string
	Content     string
	Attachments []string
	Status      string
	ScheduledAt *time.Time
}

// CreateEmail validates the recipient list and persists the email. When the
// email is created with status sent, one notification row per recipient is
// written; like chat notifications, a failed write is logged and does not
// fail the email.
func (s *Service) CreateEmail(ctx context.Context, draft EmailDraft) (*store.Email, error) {
	if len(draft.ReceiverIDs) == 0 {
		return nil, fmt.Errorf("%w: no recipients", ErrInvalidMembers)
	}
	missing, err := s.store.UsersExist(ctx, draft.ReceiverIDs)
	if err != nil {
		return nil, fmt.Errorf("validate recipients: %w", err)
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMembers, missing)
	}

	email, err := s.store.CreateEmail(ctx, &store.Email{
		SenderID:    draft.SenderID,
		EmbassyID:   draft.EmbassyID,
		Subject:     draft.Subject,
		Content:     draft.Content,
		Attachments: draft.Attachments,
		Status:      draft.Status,
		ScheduledAt: draft.ScheduledAt,
	}, draft.ReceiverIDs)
	if err != nil {
		return nil, fmt.Errorf("create email: %w", err)
	}

	if email.Status == store.EmailStatusSent {
		notifications := make([]*store.Notification, 0, len(draft.ReceiverIDs))
		for _, receiverID := range draft.ReceiverIDs {
			notifications = append(notifications, &store.Notification{
				UserID:  receiverID,
				Title:   "New email received",
				Message: fmt.Sprintf("Subject: %s", email.Subject),
				Type:    "email",
				Link:    "/emails/" + email.ID,
			})
		}
		if err := s.store.CreateNotifications(ctx, notifications); err != nil {
			s.log.Warn().Err(err).
				Str("email_id", email.ID).
				Msg("failed to persist email notifications")
		}
	}

	return email, nil
}

// Email returns an email and its recipient read states.
func (s *Service) Email(ctx context.Context, id string) (*store.Email, []store.EmailRecipient, error) {
	return s.store.GetEmail(ctx, id)
}

// ListEmails lists emails matching the filter, newest first.
func (s *Service) ListEmails(ctx context.Context, filter store.EmailFilter, page store.Page) ([]*store.Email, int, error) {
	return s.store.ListEmails(ctx, filter, page)
}

// Inbox lists sent emails addressed to the user.
func (s *Service) Inbox(ctx context.Context, userID int64, embassyID string, page store.Page) ([]*store.Email, int, error) {
	return s.store.ListEmails(ctx, store.EmailFilter{
		ReceiverID: &userID,
		EmbassyID:  embassyID,
		Status:     store.EmailStatusSent,
	}, page)
}

// SentEmails lists sent emails authored by the user.
func (s *Service) SentEmails(ctx context.Context, userID int64, embassyID string, page store.Page) ([]*store.Email, int, error) {
	return s.store.ListEmails(ctx, store.EmailFilter{
		SenderID:  &userID,
		EmbassyID: embassyID,
		Status:    store.EmailStatusSent,
	}, page)
}

// Drafts lists the user's draft emails.
func (s *Service) Drafts(ctx context.Context, userID int64, embassyID string, page store.Page) ([]*store.Email, int, error) {
	return s.store.ListEmails(ctx, store.EmailFilter{
		SenderID:  &userID,
		EmbassyID: embassyID,
		Status:    store.EmailStatusDraft,
	}, page)
}

// ArchivedEmails lists archived emails addressed to the user.
func (s *Service) ArchivedEmails(ctx context.Context, userID int64, embassyID string, page store.Page) ([]*store.Email, int, error) {
	return s.store.ListEmails(ctx, store.EmailFilter{
		ReceiverID: &userID,
		EmbassyID:  embassyID,
		Status:     store.EmailStatusArchived,
	}, page)
}

// MarkEmailRead marks the email read for the given recipient.
func (s *Service) MarkEmailRead(ctx context.Context, id string, userID int64) error {
	return s.store.MarkEmailRead(ctx, id, userID)
}

// MarkEmailDraft moves an email back to draft.
func (s *Service) MarkEmailDraft(ctx context.Context, id string) error {
	return s.store.UpdateEmailStatus(ctx, id, store.EmailStatusDraft)
}

// ArchiveEmail archives an email.
func (s *Service) ArchiveEmail(ctx context.Context, id string) error {
	return s.store.UpdateEmailStatus(ctx, id, store.EmailStatusArchived)
}

// DeleteEmail soft-deletes an email by status change. The row survives so a
// recipient's copy does not vanish from their folders unexpectedly.
func (s *Service) DeleteEmail(ctx context.Context, id string) error {
	return s.store.UpdateEmailStatus(ctx, id, store.EmailStatusDeleted)
}

// ScheduleEmail schedules an email to be sent later.
func (s *Service) ScheduleEmail(ctx context.Context, id string, at time.Time) error {
	return s.store.ScheduleEmail(ctx, id, at)
}
