package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/embassyops/backoffice-server/internal/store"
)

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLite store and applies the schema.
// dbPath is the path to the SQLite database file.
func New(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ==== UserStore implementation ====

// CreateUser creates a new user with hashed password.
func (s *SQLiteStore) CreateUser(ctx context.Context, username, passwordHash string) (*store.User, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO users (username, password_hash) VALUES (?, ?)`,
		username, passwordHash,
	)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	return s.GetUserByID(ctx, id)
}

// GetUserByID retrieves a user by ID.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id int64) (*store.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at FROM users WHERE id = ?`, id,
	))
}

// GetUserByUsername retrieves a user by username.
func (s *SQLiteStore) GetUserByUsername(ctx context.Context, username string) (*store.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at FROM users WHERE username = ?`, username,
	))
}

// UsersExist reports which of the given user IDs are missing.
func (s *SQLiteStore) UsersExist(ctx context.Context, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, 0, len(ids))
	for _, id := range ids {
		args = append(args, id)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM users WHERE id IN (`+placeholders+`)`, args...,
	)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	found := make(map[int64]struct{}, len(ids))
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		found[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}

	var missing []int64
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

func (s *SQLiteStore) scanUser(row *sql.Row) (*store.User, error) {
	var u store.User
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}

// ==== ChatroomStore implementation ====

// CreateChatroom creates a chatroom and its initial member list in one transaction.
func (s *SQLiteStore) CreateChatroom(ctx context.Context, room *store.Chatroom, memberIDs []int64) (*store.Chatroom, error) {
	id := room.ID
	if id == "" {
		id = uuid.NewString()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO chatrooms (id, name, description, embassy_id, created_by) VALUES (?, ?, ?, ?, ?)`,
		id, room.Name, room.Description, room.EmbassyID, room.CreatedBy,
	)
	if err != nil {
		return nil, fmt.Errorf("insert chatroom: %w", err)
	}

	for _, userID := range memberIDs {
		_, err = tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO chatroom_members (chatroom_id, user_id) VALUES (?, ?)`,
			id, userID,
		)
		if err != nil {
			return nil, fmt.Errorf("insert member %d: %w", userID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return s.GetChatroom(ctx, id)
}

// GetChatroom retrieves a chatroom by ID.
func (s *SQLiteStore) GetChatroom(ctx context.Context, id string) (*store.Chatroom, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, description, embassy_id, created_by, created_at, updated_at
		 FROM chatrooms WHERE id = ?`, id,
	)

	var c store.Chatroom
	err := row.Scan(&c.ID, &c.Name, &c.Description, &c.EmbassyID, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan chatroom: %w", err)
	}
	return &c, nil
}

// ListChatrooms lists chatrooms filtered by embassy and member, newest-updated first.
func (s *SQLiteStore) ListChatrooms(ctx context.Context, embassyID string, memberID *int64, page store.Page) ([]*store.Chatroom, int, error) {
	where := "WHERE 1=1"
	args := []any{}
	if embassyID != "" {
		where += " AND embassy_id = ?"
		args = append(args, embassyID)
	}
	if memberID != nil {
		where += " AND id IN (SELECT chatroom_id FROM chatroom_members WHERE user_id = ?)"
		args = append(args, *memberID)
	}

	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM chatrooms `+where, args...,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count chatrooms: %w", err)
	}

	query := `SELECT id, name, description, embassy_id, created_by, created_at, updated_at
		FROM chatrooms ` + where + ` ORDER BY updated_at DESC LIMIT ? OFFSET ?`
	rows, err := s.db.QueryContext(ctx, query, append(args, page.Limit, page.Offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("query chatrooms: %w", err)
	}
	defer rows.Close()

	var chatrooms []*store.Chatroom
	for rows.Next() {
		var c store.Chatroom
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.EmbassyID, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan chatroom: %w", err)
		}
		chatrooms = append(chatrooms, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate chatrooms: %w", err)
	}

	return chatrooms, total, nil
}

// AddMember adds a user to a chatroom. Adding an existing member is a no-op.
func (s *SQLiteStore) AddMember(ctx context.Context, chatroomID string, userID int64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO chatroom_members (chatroom_id, user_id) VALUES (?, ?)`,
		chatroomID, userID,
	)
	if err != nil {
		return fmt.Errorf("insert member: %w", err)
	}
	return nil
}

// RemoveMember removes a user from a chatroom.
func (s *SQLiteStore) RemoveMember(ctx context.Context, chatroomID string, userID int64) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM chatroom_members WHERE chatroom_id = ? AND user_id = ?`,
		chatroomID, userID,
	)
	if err != nil {
		return fmt.Errorf("delete member: %w", err)
	}
	return nil
}

// ListMembers lists the user IDs of all members of a chatroom.
func (s *SQLiteStore) ListMembers(ctx context.Context, chatroomID string) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id FROM chatroom_members WHERE chatroom_id = ? ORDER BY joined_at`,
		chatroomID,
	)
	if err != nil {
		return nil, fmt.Errorf("query members: %w", err)
	}
	defer rows.Close()

	var members []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate members: %w", err)
	}
	return members, nil
}

// ==== MessageStore implementation ====

// CreateMessage persists a message and returns the stored record. The
// AUTOINCREMENT rowid becomes the message's acceptance sequence: it is
// monotonic across inserts and never reused, so per-room order within one
// CURRENT_TIMESTAMP second stays durably recorded.
func (s *SQLiteStore) CreateMessage(ctx context.Context, msg *store.ChatMessage) (*store.ChatMessage, error) {
	id := msg.ID
	if id == "" {
		id = uuid.NewString()
	}

	attachments := msg.Attachments
	if attachments == nil {
		attachments = []string{}
	}
	encoded, err := json.Marshal(attachments)
	if err != nil {
		return nil, fmt.Errorf("encode attachments: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO chat_messages (id, chatroom_id, sender_id, content, attachments) VALUES (?, ?, ?, ?, ?)`,
		id, msg.ChatroomID, msg.SenderID, msg.Content, string(encoded),
	)
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}

	return s.GetMessage(ctx, id)
}

// GetMessage retrieves a message by ID.
func (s *SQLiteStore) GetMessage(ctx context.Context, id string) (*store.ChatMessage, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT seq, id, chatroom_id, sender_id, content, attachments, is_read, created_at
		 FROM chat_messages WHERE id = ?`, id,
	)
	msg, err := scanMessage(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	return msg, err
}

// ListMessages retrieves messages from a chatroom in acceptance order.
func (s *SQLiteStore) ListMessages(ctx context.Context, chatroomID string, page store.Page) ([]*store.ChatMessage, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM chat_messages WHERE chatroom_id = ?`, chatroomID,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count messages: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT seq, id, chatroom_id, sender_id, content, attachments, is_read, created_at
		 FROM chat_messages WHERE chatroom_id = ?
		 ORDER BY seq ASC LIMIT ? OFFSET ?`,
		chatroomID, page.Limit, page.Offset(),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var messages []*store.ChatMessage
	for rows.Next() {
		msg, err := scanMessage(rows.Scan)
		if err != nil {
			return nil, 0, err
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate messages: %w", err)
	}

	return messages, total, nil
}

// MarkMessageRead sets the read flag on a message.
func (s *SQLiteStore) MarkMessageRead(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE chat_messages SET is_read = 1 WHERE id = ?`, id,
	)
	if err != nil {
		return fmt.Errorf("update message: %w", err)
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

// DeleteMessage removes a message.
func (s *SQLiteStore) DeleteMessage(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM chat_messages WHERE id = ?`, id,
	)
	if err != nil {
		return fmt.Errorf("delete message: %w", err)
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

func scanMessage(scan func(...any) error) (*store.ChatMessage, error) {
	var (
		msg     store.ChatMessage
		encoded string
	)
	err := scan(&msg.Seq, &msg.ID, &msg.ChatroomID, &msg.SenderID, &msg.Content, &encoded, &msg.IsRead, &msg.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan message: %w", err)
	}
	if err := json.Unmarshal([]byte(encoded), &msg.Attachments); err != nil {
		return nil, fmt.Errorf("decode attachments: %w", err)
	}
	return &msg, nil
}

// ==== NotificationStore implementation ====

// CreateNotifications persists a batch of notifications in one transaction.
func (s *SQLiteStore) CreateNotifications(ctx context.Context, notifications []*store.Notification) error {
	if len(notifications) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, n := range notifications {
		id := n.ID
		if id == "" {
			id = uuid.NewString()
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO notifications (id, user_id, title, message, type, link, is_read) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			id, n.UserID, n.Title, n.Message, n.Type, n.Link, n.IsRead,
		)
		if err != nil {
			return fmt.Errorf("insert notification: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// ListNotifications lists a user's notifications, newest first.
func (s *SQLiteStore) ListNotifications(ctx context.Context, userID int64, page store.Page) ([]*store.Notification, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = ?`, userID,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count notifications: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, title, message, type, link, is_read, created_at
		 FROM notifications WHERE user_id = ?
		 ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		userID, page.Limit, page.Offset(),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("query notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*store.Notification
	for rows.Next() {
		var n store.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.Type, &n.Link, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan notification: %w", err)
		}
		notifications = append(notifications, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate notifications: %w", err)
	}

	return notifications, total, nil
}

// MarkNotificationRead sets the read flag on a notification.
func (s *SQLiteStore) MarkNotificationRead(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = 1 WHERE id = ?`, id,
	)
	if err != nil {
		return fmt.Errorf("update notification: %w", err)
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
