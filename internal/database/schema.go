package database

import (
	"context"
	"fmt"
	"log/slog"
)

// usersSchemaSQL is an idempotent bootstrap, not a migration system. It lets
// the service start against an empty database.
const usersSchemaSQL = `
CREATE TABLE IF NOT EXISTS users (
	id                UUID PRIMARY KEY,
	username          VARCHAR(30) NOT NULL UNIQUE,
	email             VARCHAR(255) NOT NULL UNIQUE,
	password_hash     VARCHAR(255) NOT NULL,
	profile_image_url VARCHAR(2048),
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_users_email ON users (email);
CREATE INDEX IF NOT EXISTS idx_users_username ON users (username);
`

func (db *DB) EnsureSchema(ctx context.Context) error {
	if db == nil || db.Pool == nil {
		return fmt.Errorf("database pool is not initialized")
	}

	if _, err := db.Pool.Exec(ctx, usersSchemaSQL); err != nil {
		return fmt.Errorf("ensure users table: %w", err)
	}

	slog.Info("database schema ensured")
	return nil
}
