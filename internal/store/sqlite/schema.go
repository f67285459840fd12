package sqlite

// schema is applied on startup. Statements are idempotent so repeated starts
// against the same database file are safe.
const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	username      TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS chatrooms (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	embassy_id  TEXT NOT NULL DEFAULT '',
	created_by  INTEGER NOT NULL,
	created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS chatroom_members (
	chatroom_id TEXT NOT NULL REFERENCES chatrooms(id) ON DELETE CASCADE,
	user_id     INTEGER NOT NULL,
	joined_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (chatroom_id, user_id)
);

CREATE TABLE IF NOT EXISTS chat_messages (
	seq         INTEGER PRIMARY KEY AUTOINCREMENT,
	id          TEXT NOT NULL UNIQUE,
	chatroom_id TEXT NOT NULL REFERENCES chatrooms(id) ON DELETE CASCADE,
	sender_id   INTEGER NOT NULL,
	content     TEXT NOT NULL,
	attachments TEXT NOT NULL DEFAULT '[]',
	is_read     BOOLEAN NOT NULL DEFAULT 0,
	created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_chat_messages_room_seq
	ON chat_messages(chatroom_id, seq);

CREATE TABLE IF NOT EXISTS notifications (
	id         TEXT PRIMARY KEY,
	user_id    INTEGER NOT NULL,
	title      TEXT NOT NULL,
	message    TEXT NOT NULL,
	type       TEXT NOT NULL,
	link       TEXT NOT NULL DEFAULT '',
	is_read    BOOLEAN NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_notifications_user_created
	ON notifications(user_id, created_at);

CREATE TABLE IF NOT EXISTS emails (
	id           TEXT PRIMARY KEY,
	sender_id    INTEGER NOT NULL,
	embassy_id   TEXT NOT NULL DEFAULT '',
	subject      TEXT NOT NULL,
	content      TEXT NOT NULL,
	attachments  TEXT NOT NULL DEFAULT '[]',
	status       TEXT NOT NULL DEFAULT 'draft',
	sent_at      DATETIME,
	scheduled_at DATETIME,
	created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_emails_sender_status
	ON emails(sender_id, status);

CREATE TABLE IF NOT EXISTS email_recipients (
	email_id TEXT NOT NULL REFERENCES emails(id) ON DELETE CASCADE,
	user_id  INTEGER NOT NULL,
	is_read  BOOLEAN NOT NULL DEFAULT 0,
	read_at  DATETIME,
	PRIMARY KEY (email_id, user_id)
);

CREATE INDEX IF NOT EXISTS idx_email_recipients_user
	ON email_recipients(user_id);
`
