package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// candidatesSchema mirrors the column limits of the original resume store
const candidatesSchema = `
	CREATE TABLE IF NOT EXISTS candidates (
		id BIGSERIAL PRIMARY KEY,
		name VARCHAR(256),
		email VARCHAR(256),
		phone VARCHAR(64),
		location VARCHAR(256),
		summary TEXT NOT NULL DEFAULT '',
		education_text TEXT NOT NULL DEFAULT '',
		experience_text TEXT NOT NULL DEFAULT '',
		skills JSONB NOT NULL DEFAULT '{"matched": []}',
		source_filename VARCHAR(512) NOT NULL,
		raw_text TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_candidates_name ON candidates(name);
	CREATE INDEX IF NOT EXISTS idx_candidates_email ON candidates(email);
	CREATE INDEX IF NOT EXISTS idx_candidates_phone ON candidates(phone);
	CREATE INDEX IF NOT EXISTS idx_candidates_created_at ON candidates(created_at DESC);
`

// Migrate creates the candidates table and its indexes. Idempotent.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, candidatesSchema); err != nil {
		return fmt.Errorf("failed to migrate candidates schema: %w", err)
	}
	return nil
}
