package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")
)

// User represents a back-office user account.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// Chatroom represents a persisted chatroom. EmbassyID is an opaque reference
// to the embassy record owned by an external system.
type Chatroom struct {
	ID          string
	Name        string
	Description string
	EmbassyID   string
	CreatedBy   int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ChatroomMember represents durable chatroom membership. This is the
// authoritative list of users permitted to participate in a chatroom, as
// opposed to the in-memory subscription state held by the realtime layer.
type ChatroomMember struct {
	ChatroomID string
	UserID     int64
	JoinedAt   time.Time
}

// ChatMessage represents a persisted chat message. Seq is the global
// acceptance sequence assigned at insert; within one chatroom it is the
// authoritative delivery and history order.
type ChatMessage struct {
	ID          string
	Seq         int64
	ChatroomID  string
	SenderID    int64
	Content     string
	Attachments []string
	IsRead      bool
	CreatedAt   time.Time
}

// Email statuses. An email moves from draft through sent (or scheduled) and
// is archived or deleted by status change, never by row removal.
const (
	EmailStatusDraft     = "draft"
	EmailStatusSent      = "sent"
	EmailStatusRead      = "read"
	EmailStatusArchived  = "archived"
	EmailStatusDeleted   = "deleted"
	EmailStatusScheduled = "scheduled"
)

// Email represents a persisted direct message with an email-like lifecycle.
type Email struct {
	ID          string
	SenderID    int64
	EmbassyID   string
	Subject     string
	Content     string
	Attachments []string
	Status      string
	SentAt      *time.Time
	ScheduledAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// EmailRecipient tracks per-recipient read state for an email.
type EmailRecipient struct {
	EmailID string
	UserID  int64
	IsRead  bool
	ReadAt  *time.Time
}

// EmailFilter narrows email list queries. Zero values mean no filter.
type EmailFilter struct {
	EmbassyID  string
	SenderID   *int64
	ReceiverID *int64
	Status     string
}

// Notification represents a persisted notification for a user.
type Notification struct {
	ID        string
	UserID    int64
	Title     string
	Message   string
	Type      string
	Link      string
	IsRead    bool
	CreatedAt time.Time
}

// Page describes pagination parameters for list queries.
type Page struct {
	Number int
	Limit  int
}

// Offset returns the number of rows to skip for this page.
func (p Page) Offset() int {
	n := p.Number
	if n < 1 {
		n = 1
	}
	return (n - 1) * p.Limit
}

// UserStore handles user persistence.
type UserStore interface {
	// CreateUser creates a new user with hashed password.
	CreateUser(ctx context.Context, username, passwordHash string) (*User, error)

	// GetUserByID retrieves a user by ID.
	GetUserByID(ctx context.Context, id int64) (*User, error)

	// GetUserByUsername retrieves a user by username.
	GetUserByUsername(ctx context.Context, username string) (*User, error)

	// UsersExist reports whether every given user ID exists, returning the
	// IDs that do not.
	UsersExist(ctx context.Context, ids []int64) (missing []int64, err error)
}

// ChatroomStore handles chatroom and membership persistence.
type ChatroomStore interface {
	// CreateChatroom creates a chatroom and its initial member list.
	CreateChatroom(ctx context.Context, room *Chatroom, memberIDs []int64) (*Chatroom, error)

	// GetChatroom retrieves a chatroom by ID.
	GetChatroom(ctx context.Context, id string) (*Chatroom, error)

	// ListChatrooms lists chatrooms, optionally filtered by embassy and by
	// membership of a given user, newest-updated first.
	ListChatrooms(ctx context.Context, embassyID string, memberID *int64, page Page) ([]*Chatroom, int, error)

	// AddMember adds a user to a chatroom. Adding an existing member is a no-op.
	AddMember(ctx context.Context, chatroomID string, userID int64) error

	// RemoveMember removes a user from a chatroom.
	RemoveMember(ctx context.Context, chatroomID string, userID int64) error

	// ListMembers lists the user IDs of all members of a chatroom.
	ListMembers(ctx context.Context, chatroomID string) ([]int64, error)
}

// MessageStore handles chat message persistence.
type MessageStore interface {
	// CreateMessage persists a message and returns the stored record with
	// its acceptance sequence assigned.
	CreateMessage(ctx context.Context, msg *ChatMessage) (*ChatMessage, error)

	// GetMessage retrieves a message by ID.
	GetMessage(ctx context.Context, id string) (*ChatMessage, error)

	// ListMessages retrieves messages from a chatroom in acceptance order.
	ListMessages(ctx context.Context, chatroomID string, page Page) ([]*ChatMessage, int, error)

	// MarkMessageRead sets the read flag on a message.
	MarkMessageRead(ctx context.Context, id string) error

	// DeleteMessage removes a message.
	DeleteMessage(ctx context.Context, id string) error
}

// EmailStore handles email persistence.
type EmailStore interface {
	// CreateEmail persists an email and its recipient rows.
	CreateEmail(ctx context.Context, email *Email, receiverIDs []int64) (*Email, error)

	// GetEmail retrieves an email and its recipients by ID.
	GetEmail(ctx context.Context, id string) (*Email, []EmailRecipient, error)

	// ListEmails lists emails matching the filter, newest first.
	ListEmails(ctx context.Context, filter EmailFilter, page Page) ([]*Email, int, error)

	// UpdateEmailStatus transitions an email's status. Transitioning to sent
	// stamps sent_at if unset.
	UpdateEmailStatus(ctx context.Context, id, status string) error

	// MarkEmailRead marks the recipient's copy read and the email status read.
	MarkEmailRead(ctx context.Context, id string, userID int64) error

	// ScheduleEmail stamps a future send time and moves the email to scheduled.
	ScheduleEmail(ctx context.Context, id string, at time.Time) error
}

// NotificationStore handles notification persistence.
type NotificationStore interface {
	// CreateNotifications persists a batch of notifications.
	CreateNotifications(ctx context.Context, notifications []*Notification) error

	// ListNotifications lists a user's notifications, newest first.
	ListNotifications(ctx context.Context, userID int64, page Page) ([]*Notification, int, error)

	// MarkNotificationRead sets the read flag on a notification.
	MarkNotificationRead(ctx context.Context, id string) error
}

// Store aggregates all storage interfaces.
type Store interface {
	UserStore
	ChatroomStore
	MessageStore
	EmailStore
	NotificationStore

	// Close closes the underlying database connection.
	Close() error
}
