package sqlite

import "context"

// RunMigrations creates the schema if it does not exist.
func (s *Store) RunMigrations(ctx context.Context) error {
	for _, m := range migrations {
		if _, err := s.db.ExecContext(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS sessions (
		id VARCHAR NOT NULL PRIMARY KEY,
		display_name TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT '',
		photo TEXT NOT NULL DEFAULT '',
		time_zone TEXT NOT NULL DEFAULT '',
		time_format TEXT NOT NULL DEFAULT '',
		access_token TEXT NOT NULL DEFAULT '',
		refresh_token TEXT NOT NULL DEFAULT '',
		token_type TEXT NOT NULL DEFAULT '',
		token_expiry INTEGER NOT NULL DEFAULT 0,
		csrf_token VARCHAR NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL,
		expires_at INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS sessions_expires_at ON sessions (expires_at)`,
	`CREATE TABLE IF NOT EXISTS auth_states (
		state VARCHAR NOT NULL PRIMARY KEY,
		verifier TEXT NOT NULL,
		return_to TEXT NOT NULL DEFAULT '/',
		created_at INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS auth_states_created_at ON auth_states (created_at)`,
}
