package database

import (
	"context"

	"github.com/rotisserie/eris"
)

const thoughtsTable = `
CREATE TABLE IF NOT EXISTS thoughts (
	id UUID PRIMARY KEY,
	raw_text TEXT NOT NULL,
	category VARCHAR(50) NOT NULL,
	legacy_type VARCHAR(20) NOT NULL,
	subcategory VARCHAR(100),
	priority VARCHAR(10) NOT NULL DEFAULT 'medium',
	title VARCHAR(200),
	summary TEXT,
	expanded_text TEXT,
	actions TEXT[] NOT NULL DEFAULT '{}',
	urgency VARCHAR(50),
	sentiment VARCHAR(50),
	source TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
ALTER TABLE thoughts ALTER COLUMN source TYPE TEXT;
CREATE INDEX IF NOT EXISTS idx_thoughts_category ON thoughts(category);
CREATE INDEX IF NOT EXISTS idx_thoughts_created_at ON thoughts(created_at DESC);
`

// CreateTables creates all necessary database tables
func (db *DB) CreateTables(ctx context.Context) error {
	if _, err := db.Pool.Exec(ctx, thoughtsTable); err != nil {
		return eris.Wrap(err, "create thoughts table")
	}
	db.logger.Info("schema ready")
	return nil
}
