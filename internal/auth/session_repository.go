package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SessionRepository is the persistence boundary for the refresh-session
// ledger. It holds no business logic; the Revoker and the refresh flow
// decide what to do with the rows.
type SessionRepository interface {
	Create(ctx context.Context, session *Session) error
	GetByID(ctx context.Context, id string) (*Session, error)
	GetByValue(ctx context.Context, value string) (*Session, error)
	ListActiveByUser(ctx context.Context, userID string) ([]Session, error)
	DisableAllForUser(ctx context.Context, userID string) error
	DeleteExpiredForUser(ctx context.Context, userID string) (int64, error)
	DeleteExpired(ctx context.Context) (int64, error)
}

// SQLiteSessionRepository implements SessionRepository using SQLite.
type SQLiteSessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new SQLite-backed session repository.
func NewSessionRepository(db *sql.DB) *SQLiteSessionRepository {
	return &SQLiteSessionRepository{db: db}
}

// Create inserts a new session row. The ID is generated if empty and the
// kind defaults to refresh — access tokens are stateless and never stored.
func (r *SQLiteSessionRepository) Create(ctx context.Context, session *Session) error {
	if session.ID == "" {
		session.ID = "ses-" + uuid.NewString()[:16]
	}
	if session.Kind == "" {
		session.Kind = TokenRefresh
	}

	now := time.Now().UTC().Format(time.RFC3339)
	session.CreatedAt, _ = time.Parse(time.RFC3339, now) //nolint:errcheck // format is controlled

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (id, type, value, expires_at, disabled, user_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		session.ID, string(session.Kind), session.Value,
		session.ExpiresAt.UTC().Format(time.RFC3339),
		boolToInt(session.Disabled), session.UserID, now,
	)
	if err != nil {
		return fmt.Errorf("creating session: %w", err)
	}

	return nil
}

// GetByID retrieves a session by its ID.
func (r *SQLiteSessionRepository) GetByID(ctx context.Context, id string) (*Session, error) {
	return r.getSession(ctx,
		`SELECT id, type, value, expires_at, disabled, user_id, created_at
		 FROM sessions WHERE id = ?`, id)
}

// GetByValue retrieves a session by its stored token hash. Used during
// refresh and logout when the client presents the raw token.
func (r *SQLiteSessionRepository) GetByValue(ctx context.Context, value string) (*Session, error) {
	return r.getSession(ctx,
		`SELECT id, type, value, expires_at, disabled, user_id, created_at
		 FROM sessions WHERE value = ?`, value)
}

// ListActiveByUser returns all non-disabled, unexpired sessions for a user.
func (r *SQLiteSessionRepository) ListActiveByUser(ctx context.Context, userID string) ([]Session, error) {
	now := time.Now().UTC().Format(time.RFC3339)

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, type, value, expires_at, disabled, user_id, created_at
		 FROM sessions
		 WHERE user_id = ? AND disabled = 0 AND expires_at > ?
		 ORDER BY created_at DESC`, userID, now)
	if err != nil {
		return nil, fmt.Errorf("listing active sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sessions: %w", err)
	}

	if sessions == nil {
		sessions = []Session{}
	}
	return sessions, nil
}

// DisableAllForUser marks every session of a user as disabled. Disabling
// an already-disabled session is a no-op, so the operation is idempotent.
func (r *SQLiteSessionRepository) DisableAllForUser(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE sessions SET disabled = 1 WHERE user_id = ?", userID)
	if err != nil {
		return fmt.Errorf("disabling sessions for user: %w", err)
	}
	return nil
}

// DeleteExpiredForUser removes a user's session rows whose expiry has
// passed, regardless of disabled state. Returns the number of deleted rows.
func (r *SQLiteSessionRepository) DeleteExpiredForUser(ctx context.Context, userID string) (int64, error) {
	now := time.Now().UTC().Format(time.RFC3339)

	result, err := r.db.ExecContext(ctx,
		"DELETE FROM sessions WHERE user_id = ? AND expires_at <= ?", userID, now)
	if err != nil {
		return 0, fmt.Errorf("deleting expired sessions for user: %w", err)
	}

	count, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	return count, nil
}

// DeleteExpired removes all session rows whose expiry has passed.
// Garbage collection only; never on the request hot path.
func (r *SQLiteSessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	now := time.Now().UTC().Format(time.RFC3339)

	result, err := r.db.ExecContext(ctx,
		"DELETE FROM sessions WHERE expires_at <= ?", now)
	if err != nil {
		return 0, fmt.Errorf("deleting expired sessions: %w", err)
	}

	count, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	return count, nil
}

// getSession executes a single-row session query.
func (r *SQLiteSessionRepository) getSession(ctx context.Context, query string, args ...any) (*Session, error) {
	s, err := scanSession(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, err
	}
	return s, nil
}

// scanSession scans a session from a sql.Row or sql.Rows.
func scanSession(s scanner) (*Session, error) {
	var session Session
	var kind string
	var disabled int
	var expiresAt, createdAt string

	err := s.Scan(&session.ID, &kind, &session.Value, &expiresAt,
		&disabled, &session.UserID, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("scanning session: %w", err)
	}

	session.Kind = TokenKind(kind)
	session.Disabled = disabled != 0
	session.ExpiresAt, _ = time.Parse(time.RFC3339, expiresAt) //nolint:errcheck // format is controlled
	session.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // format is controlled

	return &session, nil
}
