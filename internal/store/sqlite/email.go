package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/embassyops/backoffice-server/internal/store"
)

// ==== EmailStore implementation ====

// CreateEmail persists an email and its recipient rows in one transaction.
// A sent email gets sent_at stamped immediately.
func (s *SQLiteStore) CreateEmail(ctx context.Context, email *store.Email, receiverIDs []int64) (*store.Email, error) {
	id := email.ID
	if id == "" {
		id = uuid.NewString()
	}

	status := email.Status
	if status == "" {
		status = store.EmailStatusDraft
	}

	attachments := email.Attachments
	if attachments == nil {
		attachments = []string{}
	}
	encoded, err := json.Marshal(attachments)
	if err != nil {
		return nil, fmt.Errorf("encode attachments: %w", err)
	}

	var sentAt *time.Time
	if status == store.EmailStatusSent {
		now := time.Now().UTC()
		sentAt = &now
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO emails (id, sender_id, embassy_id, subject, content, attachments, status, sent_at, scheduled_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, email.SenderID, email.EmbassyID, email.Subject, email.Content,
		string(encoded), status, sentAt, email.ScheduledAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert email: %w", err)
	}

	for _, userID := range receiverIDs {
		_, err = tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO email_recipients (email_id, user_id) VALUES (?, ?)`,
			id, userID,
		)
		if err != nil {
			return nil, fmt.Errorf("insert recipient %d: %w", userID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	stored, _, err := s.GetEmail(ctx, id)
	return stored, err
}

// GetEmail retrieves an email and its recipients by ID.
func (s *SQLiteStore) GetEmail(ctx context.Context, id string) (*store.Email, []store.EmailRecipient, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, sender_id, embassy_id, subject, content, attachments, status, sent_at, scheduled_at, created_at, updated_at
		 FROM emails WHERE id = ?`, id,
	)
	email, err := scanEmail(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, store.ErrNotFound
	}
	if err != nil {
		return nil, nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT email_id, user_id, is_read, read_at FROM email_recipients WHERE email_id = ?`, id,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("query recipients: %w", err)
	}
	defer rows.Close()

	var recipients []store.EmailRecipient
	for rows.Next() {
		var r store.EmailRecipient
		if err := rows.Scan(&r.EmailID, &r.UserID, &r.IsRead, &r.ReadAt); err != nil {
			return nil, nil, fmt.Errorf("scan recipient: %w", err)
		}
		recipients = append(recipients, r)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate recipients: %w", err)
	}

	return email, recipients, nil
}

// ListEmails lists emails matching the filter, newest first.
func (s *SQLiteStore) ListEmails(ctx context.Context, filter store.EmailFilter, page store.Page) ([]*store.Email, int, error) {
	where := "WHERE 1=1"
	args := []any{}
	if filter.EmbassyID != "" {
		where += " AND embassy_id = ?"
		args = append(args, filter.EmbassyID)
	}
	if filter.SenderID != nil {
		where += " AND sender_id = ?"
		args = append(args, *filter.SenderID)
	}
	if filter.ReceiverID != nil {
		where += " AND id IN (SELECT email_id FROM email_recipients WHERE user_id = ?)"
		args = append(args, *filter.ReceiverID)
	}
	if filter.Status != "" {
		where += " AND status = ?"
		args = append(args, filter.Status)
	}

	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM emails `+where, args...,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count emails: %w", err)
	}

	query := `SELECT id, sender_id, embassy_id, subject, content, attachments, status, sent_at, scheduled_at, created_at, updated_at
		FROM emails ` + where + ` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	rows, err := s.db.QueryContext(ctx, query, append(args, page.Limit, page.Offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("query emails: %w", err)
	}
	defer rows.Close()

	var emails []*store.Email
	for rows.Next() {
		email, err := scanEmail(rows.Scan)
		if err != nil {
			return nil, 0, err
		}
		emails = append(emails, email)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate emails: %w", err)
	}

	return emails, total, nil
}

// UpdateEmailStatus transitions an email's status. Transitioning to sent
// stamps sent_at if it was never sent before.
func (s *SQLiteStore) UpdateEmailStatus(ctx context.Context, id, status string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE emails SET status = ?,
			sent_at = CASE WHEN ? = 'sent' AND sent_at IS NULL THEN CURRENT_TIMESTAMP ELSE sent_at END,
			updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		status, status, id,
	)
	if err != nil {
		return fmt.Errorf("update email: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// MarkEmailRead marks the recipient's copy read and the email status read.
func (s *SQLiteStore) MarkEmailRead(ctx context.Context, id string, userID int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE emails SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		store.EmailStatusRead, id,
	)
	if err != nil {
		return fmt.Errorf("update email: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return store.ErrNotFound
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE email_recipients SET is_read = 1, read_at = CURRENT_TIMESTAMP
		 WHERE email_id = ? AND user_id = ?`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("update recipient: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// ScheduleEmail stamps a future send time and moves the email to scheduled.
func (s *SQLiteStore) ScheduleEmail(ctx context.Context, id string, at time.Time) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE emails SET status = ?, scheduled_at = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		store.EmailStatusScheduled, at.UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("schedule email: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func scanEmail(scan func(...any) error) (*store.Email, error) {
	var (
		email   store.Email
		encoded string
	)
	err := scan(&email.ID, &email.SenderID, &email.EmbassyID, &email.Subject, &email.Content,
		&encoded, &email.Status, &email.SentAt, &email.ScheduledAt, &email.CreatedAt, &email.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan email: %w", err)
	}
	if err := json.Unmarshal([]byte(encoded), &email.Attachments); err != nil {
		return nil, fmt.Errorf("decode attachments: %w", err)
	}
	return &email, nil
}
