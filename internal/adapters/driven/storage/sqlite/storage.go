// Package sqlite persists sessions and pending sign-in states in SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/custodia-labs/graphcal/internal/core/domain"
	"github.com/custodia-labs/graphcal/internal/core/ports/driven"
)

// DriverName is the database/sql driver registered by modernc.org/sqlite.
const DriverName = "sqlite"

// Ensure Store implements the interface.
var _ driven.SessionStore = (*Store)(nil)

// Store is a SessionStore backed by SQLite.
type Store struct {
	db *sqlx.DB
}

// NewStore opens the database at path, creating it and its directory if
// needed, and runs migrations.
func NewStore(ctx context.Context, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("sqlite: create directory: %w", err)
		}
	}

	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	db, err := sqlx.ConnectContext(ctx, DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}
	// A single connection serialises writers.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.RunMigrations(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveSession inserts or replaces a session.
func (s *Store) SaveSession(ctx context.Context, sess *domain.Session) error {
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO sessions (
			id, display_name, email, photo, time_zone, time_format,
			access_token, refresh_token, token_type, token_expiry,
			csrf_token, created_at, expires_at
		) VALUES (
			:id, :display_name, :email, :photo, :time_zone, :time_format,
			:access_token, :refresh_token, :token_type, :token_expiry,
			:csrf_token, :created_at, :expires_at
		)
		ON CONFLICT(id) DO UPDATE SET
			display_name = excluded.display_name,
			email = excluded.email,
			photo = excluded.photo,
			time_zone = excluded.time_zone,
			time_format = excluded.time_format,
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			token_type = excluded.token_type,
			token_expiry = excluded.token_expiry,
			csrf_token = excluded.csrf_token,
			expires_at = excluded.expires_at
	`, newSession(sess))
	if err != nil {
		return fmt.Errorf("sqlite: save session: %w", err)
	}
	return nil
}

// GetSession loads a session by id.
func (s *Store) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	var row session
	err := s.db.GetContext(ctx, &row, `SELECT * FROM sessions WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get session: %w", err)
	}
	return row.Convert(), nil
}

// UpdateToken replaces the OAuth token of a session.
func (s *Store) UpdateToken(ctx context.Context, id string, token *domain.OAuthToken) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE sessions
		SET access_token = ?, refresh_token = ?, token_type = ?, token_expiry = ?
		WHERE id = ?
	`, token.AccessToken, token.RefreshToken, token.TokenType, toUnix(token.Expiry), id)
	if err != nil {
		return fmt.Errorf("sqlite: update token: %w", err)
	}
	return requireAffected(res, domain.ErrSessionNotFound)
}

// DeleteSession removes a session.
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: delete session: %w", err)
	}
	return requireAffected(res, domain.ErrSessionNotFound)
}

// DeleteExpiredSessions removes sessions that expired at or before now.
func (s *Store) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM sessions WHERE expires_at != 0 AND expires_at <= ?
	`, toUnix(now))
	if err != nil {
		return 0, fmt.Errorf("sqlite: delete expired sessions: %w", err)
	}
	return res.RowsAffected()
}

// SaveAuthState records a pending sign-in.
func (s *Store) SaveAuthState(ctx context.Context, state *domain.AuthState) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO auth_states (state, verifier, return_to, created_at) VALUES (?, ?, ?, ?)
	`, state.State, state.Verifier, state.ReturnTo, toUnix(state.CreatedAt))
	if err != nil {
		return fmt.Errorf("sqlite: save sign-in state: %w", err)
	}
	return nil
}

// TakeAuthState returns and removes a pending sign-in in one transaction.
func (s *Store) TakeAuthState(ctx context.Context, state string) (*domain.AuthState, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	var row authState
	err = tx.GetContext(ctx, &row, `SELECT * FROM auth_states WHERE state = ?`, state)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrAuthStateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get sign-in state: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM auth_states WHERE state = ?`, state); err != nil {
		return nil, fmt.Errorf("sqlite: delete sign-in state: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return row.Convert(), nil
}

// DeleteAuthStatesBefore removes pending sign-ins created before cutoff.
func (s *Store) DeleteAuthStatesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM auth_states WHERE created_at < ?`, toUnix(cutoff))
	if err != nil {
		return 0, fmt.Errorf("sqlite: delete sign-in states: %w", err)
	}
	return res.RowsAffected()
}

func requireAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
