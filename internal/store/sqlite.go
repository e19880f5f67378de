package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/vivasaayi/PersonalMailClient-sub001/internal/model"
)

// SQLiteStore implements the Store interface using a local SQLite database.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// UpsertMessages inserts or replaces a batch of cached message envelopes
// for the account.
func (s *SQLiteStore) UpsertMessages(
	ctx context.Context,
	account string,
	msgs []model.EmailSummary,
) error {
	if len(msgs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	const query = `
		INSERT OR REPLACE INTO messages (
			account_email, uid, subject, date,
			sender_email, sender_display, snippet, flags,
			analysis_summary, analysis_sentiment, fetched_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	stmt, err := tx.PreparexContext(ctx, query)
	if err != nil {
		return fmt.Errorf("preparing upsert statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, m := range msgs {
		flags, err := json.Marshal(m.Flags)
		if err != nil {
			return fmt.Errorf("marshaling flags for uid %d: %w", m.UID, err)
		}

		_, err = stmt.ExecContext(ctx,
			account, m.UID, m.Subject, m.Date.UTC(),
			m.Sender.Email, m.Sender.DisplayName, m.Snippet, string(flags),
			m.AnalysisSummary, m.AnalysisSentiment, now,
		)
		if err != nil {
			return fmt.Errorf("upserting message %d: %w", m.UID, err)
		}
	}

	return tx.Commit()
}

// RecentMessages returns up to limit of the account's most recent cached
// messages, newest first, with each message carrying its sender's
// current standing.
func (s *SQLiteStore) RecentMessages(
	ctx context.Context,
	account string,
	limit int,
) ([]model.EmailSummary, error) {
	query := messageSelect + `
		WHERE m.account_email = ?
		ORDER BY m.date DESC`
	args := []interface{}{account, account}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying recent messages: %w", err)
	}
	defer rows.Close()

	var msgs []model.EmailSummary
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}

	return msgs, rows.Err()
}

// MessageCount returns the total number of cached messages for the account.
func (s *SQLiteStore) MessageCount(ctx context.Context, account string) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count,
		"SELECT COUNT(*) FROM messages WHERE account_email = ?", account,
	)
	if err != nil {
		return 0, fmt.Errorf("counting messages: %w", err)
	}
	return count, nil
}

// DeleteMessage removes a single cached message. Deleting an absent UID
// is a no-op.
func (s *SQLiteStore) DeleteMessage(ctx context.Context, account string, uid uint32) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM messages WHERE account_email = ? AND uid = ?", account, uid,
	)
	if err != nil {
		return fmt.Errorf("deleting message %d: %w", uid, err)
	}
	return nil
}

// SenderGroups aggregates the account's cached messages by sender,
// ordered by each sender's most recent message, newest sender first.
func (s *SQLiteStore) SenderGroups(
	ctx context.Context,
	account string,
) ([]model.SenderGroup, error) {
	query := messageSelect + `
		WHERE m.account_email = ?
		ORDER BY m.date DESC`

	rows, err := s.db.QueryxContext(ctx, query, account, account)
	if err != nil {
		return nil, fmt.Errorf("querying sender groups: %w", err)
	}
	defer rows.Close()

	var groups []model.SenderGroup
	index := make(map[string]int)
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}

		i, ok := index[m.Sender.Email]
		if !ok {
			i = len(groups)
			index[m.Sender.Email] = i
			groups = append(groups, model.SenderGroup{
				SenderEmail:   m.Sender.Email,
				SenderDisplay: senderDisplay(m.Sender),
				Status:        m.Status,
			})
		}
		groups[i].Messages = append(groups[i].Messages, m)
		groups[i].MessageCount++
	}

	return groups, rows.Err()
}

// SetSenderStatus records the standing of a sender for the account.
func (s *SQLiteStore) SetSenderStatus(
	ctx context.Context,
	account, sender string,
	status model.SenderStatus,
) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO sender_statuses
			(account_email, sender_email, status, updated_at)
		VALUES (?, ?, ?, ?)`,
		account, sender, string(status), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("setting sender status for %s: %w", sender, err)
	}
	return nil
}

// MessagesBySenderStatus returns the account's cached messages whose
// sender currently has the given standing, newest first.
func (s *SQLiteStore) MessagesBySenderStatus(
	ctx context.Context,
	account string,
	status model.SenderStatus,
) ([]model.EmailSummary, error) {
	query := messageSelect + `
		WHERE m.account_email = ?
			AND COALESCE(ss.status, 'neutral') = ?
		ORDER BY m.date DESC`

	rows, err := s.db.QueryxContext(ctx, query, account, account, string(status))
	if err != nil {
		return nil, fmt.Errorf("querying messages by sender status: %w", err)
	}
	defer rows.Close()

	var msgs []model.EmailSummary
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}

	return msgs, rows.Err()
}

// SaveProfile inserts or replaces a saved connection profile. If the
// profile has no ID, a new UUID is generated.
func (s *SQLiteStore) SaveProfile(
	ctx context.Context,
	p model.Profile,
) (model.Profile, error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.SavedAt.IsZero() {
		p.SavedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO profiles (id, email, provider, host, port, saved_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.Email, string(p.Provider), p.Host, p.Port, p.SavedAt.UTC(),
	)
	if err != nil {
		return model.Profile{}, fmt.Errorf("saving profile for %s: %w", p.Email, err)
	}

	return p, nil
}

// GetProfile retrieves a single saved profile by ID. Returns nil when
// the profile does not exist.
func (s *SQLiteStore) GetProfile(ctx context.Context, id string) (*model.Profile, error) {
	row := s.db.QueryRowxContext(ctx,
		"SELECT id, email, provider, host, port, saved_at FROM profiles WHERE id = ?", id,
	)

	p, err := scanProfileRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting profile %s: %w", id, err)
	}

	return &p, nil
}

// ListProfiles retrieves all saved connection profiles ordered by email.
func (s *SQLiteStore) ListProfiles(ctx context.Context) ([]model.Profile, error) {
	rows, err := s.db.QueryxContext(ctx,
		"SELECT id, email, provider, host, port, saved_at FROM profiles ORDER BY email",
	)
	if err != nil {
		return nil, fmt.Errorf("querying profiles: %w", err)
	}
	defer rows.Close()

	var profiles []model.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}

	return profiles, rows.Err()
}

// DeleteProfile removes a saved profile by ID.
func (s *SQLiteStore) DeleteProfile(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM profiles WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting profile %s: %w", id, err)
	}
	return nil
}

// GetSyncState retrieves the sync bookkeeping for the account. Returns a
// zero-valued state when none has been recorded.
func (s *SQLiteStore) GetSyncState(ctx context.Context, account string) (*SyncState, error) {
	row := s.db.QueryRowxContext(ctx, `
		SELECT account_email, last_uid, last_sync, poll_interval_min
		FROM sync_state WHERE account_email = ?`, account,
	)

	var (
		st       SyncState
		lastSync sql.NullTime
	)
	err := row.Scan(&st.AccountEmail, &st.LastUID, &lastSync, &st.PollIntervalMin)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &SyncState{AccountEmail: account}, nil
		}
		return nil, fmt.Errorf("getting sync state for %s: %w", account, err)
	}

	if lastSync.Valid {
		st.LastSync = lastSync.Time
	}

	return &st, nil
}

// SetSyncState inserts or replaces the sync bookkeeping for an account.
func (s *SQLiteStore) SetSyncState(ctx context.Context, state SyncState) error {
	var lastSync interface{}
	if !state.LastSync.IsZero() {
		lastSync = state.LastSync.UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO sync_state
			(account_email, last_uid, last_sync, poll_interval_min)
		VALUES (?, ?, ?, ?)`,
		state.AccountEmail, state.LastUID, lastSync, state.PollIntervalMin,
	)
	if err != nil {
		return fmt.Errorf("setting sync state for %s: %w", state.AccountEmail, err)
	}
	return nil
}

// PurgeAccount removes every cached row belonging to the account:
// messages, sender standings, and sync state. Saved profiles survive so
// the user can reconnect later.
func (s *SQLiteStore) PurgeAccount(ctx context.Context, account string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		"DELETE FROM messages WHERE account_email = ?",
		"DELETE FROM sender_statuses WHERE account_email = ?",
		"DELETE FROM sync_state WHERE account_email = ?",
	} {
		if _, err := tx.ExecContext(ctx, stmt, account); err != nil {
			return fmt.Errorf("purging account %s: %w", account, err)
		}
	}

	return tx.Commit()
}

// messageSelect joins messages with sender standings so every scanned
// row carries the sender's current status. The join adds one positional
// account argument before the WHERE clause's own.
const messageSelect = `
	SELECT m.uid, m.subject, m.date,
		m.sender_email, m.sender_display, m.snippet, m.flags,
		m.analysis_summary, m.analysis_sentiment,
		COALESCE(ss.status, 'neutral') AS status
	FROM messages m
	LEFT JOIN sender_statuses ss
		ON ss.account_email = ? AND ss.sender_email = m.sender_email`

// scanMessage scans a message row produced by messageSelect.
func scanMessage(rows *sqlx.Rows) (model.EmailSummary, error) {
	var (
		m      model.EmailSummary
		date   time.Time
		flags  string
		status string
	)

	err := rows.Scan(
		&m.UID, &m.Subject, &date,
		&m.Sender.Email, &m.Sender.DisplayName, &m.Snippet, &flags,
		&m.AnalysisSummary, &m.AnalysisSentiment,
		&status,
	)
	if err != nil {
		return model.EmailSummary{}, fmt.Errorf("scanning message row: %w", err)
	}

	m.Date = date
	m.Status = model.SenderStatus(status)

	if flags != "" {
		if err := json.Unmarshal([]byte(flags), &m.Flags); err != nil {
			return model.EmailSummary{}, fmt.Errorf("unmarshaling flags: %w", err)
		}
	}

	return m, nil
}

// scanProfile scans a profile row from a sqlx.Rows result set.
func scanProfile(rows *sqlx.Rows) (model.Profile, error) {
	var (
		p        model.Profile
		provider string
		savedAt  time.Time
	)

	err := rows.Scan(&p.ID, &p.Email, &provider, &p.Host, &p.Port, &savedAt)
	if err != nil {
		return model.Profile{}, fmt.Errorf("scanning profile row: %w", err)
	}

	p.Provider = model.Provider(provider)
	p.SavedAt = savedAt

	return p, nil
}

// scanProfileRow scans a single profile row from a sqlx.Row.
func scanProfileRow(row *sqlx.Row) (model.Profile, error) {
	var (
		p        model.Profile
		provider string
		savedAt  time.Time
	)

	err := row.Scan(&p.ID, &p.Email, &provider, &p.Host, &p.Port, &savedAt)
	if err != nil {
		return model.Profile{}, err
	}

	p.Provider = model.Provider(provider)
	p.SavedAt = savedAt

	return p, nil
}

// senderDisplay prefers the sender's display name, falling back to the
// address itself.
func senderDisplay(s model.Sender) string {
	if s.DisplayName != "" {
		return s.DisplayName
	}
	return s.Email
}
