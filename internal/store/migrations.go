package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS messages (
	account_email      TEXT NOT NULL,
	uid                INTEGER NOT NULL,
	subject            TEXT NOT NULL DEFAULT '',
	date               DATETIME NOT NULL,
	sender_email       TEXT NOT NULL,
	sender_display     TEXT NOT NULL DEFAULT '',
	snippet            TEXT NOT NULL DEFAULT '',
	flags              TEXT NOT NULL DEFAULT '[]',
	analysis_summary   TEXT NOT NULL DEFAULT '',
	analysis_sentiment TEXT NOT NULL DEFAULT '',
	fetched_at         DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (account_email, uid)
);

CREATE TABLE IF NOT EXISTS sender_statuses (
	account_email TEXT NOT NULL,
	sender_email  TEXT NOT NULL,
	status        TEXT NOT NULL DEFAULT 'neutral'
		CHECK(status IN ('allowed', 'neutral', 'blocked')),
	updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (account_email, sender_email)
);

CREATE TABLE IF NOT EXISTS profiles (
	id         TEXT PRIMARY KEY,
	email      TEXT NOT NULL UNIQUE,
	provider   TEXT NOT NULL,
	host       TEXT NOT NULL,
	port       TEXT NOT NULL,
	saved_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS sync_state (
	account_email     TEXT PRIMARY KEY,
	last_uid          INTEGER NOT NULL DEFAULT 0,
	last_sync         DATETIME,
	poll_interval_min INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_messages_account_date
	ON messages(account_email, date);
CREATE INDEX IF NOT EXISTS idx_messages_account_sender
	ON messages(account_email, sender_email);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
CREATE INDEX IF NOT EXISTS idx_sender_statuses_status
	ON sender_statuses(account_email, status);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}
