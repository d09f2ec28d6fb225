package postgres

import (
	"context"
	"fmt"
)

// schema is applied idempotently by Migrate. seq columns preserve insertion
// order for enumeration.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		seq               BIGSERIAL,
		id                TEXT PRIMARY KEY,
		salutation        TEXT NOT NULL DEFAULT '',
		first_name        TEXT NOT NULL DEFAULT '',
		last_name         TEXT NOT NULL DEFAULT '',
		nickname          TEXT NOT NULL DEFAULT '',
		gender            TEXT NOT NULL DEFAULT '',
		photo_url         TEXT NOT NULL DEFAULT '',
		email             TEXT NOT NULL DEFAULT '',
		whatsapp_id       TEXT NOT NULL DEFAULT '',
		member_type       TEXT NOT NULL DEFAULT 'free',
		skills_owned      JSONB NOT NULL DEFAULT '[]',
		skills_desired    JSONB NOT NULL DEFAULT '[]',
		subscription_date TIMESTAMPTZ,
		created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS users_email_lower_idx ON users (lower(email)) WHERE email <> ''`,
	`CREATE INDEX IF NOT EXISTS users_member_type_idx ON users (member_type)`,
	`CREATE TABLE IF NOT EXISTS matches (
		seq                     BIGSERIAL,
		user_id                 TEXT NOT NULL,
		matched_user_id         TEXT NOT NULL,
		match_score             INT NOT NULL,
		is_contact_info_exposed BOOLEAN NOT NULL DEFAULT FALSE,
		match_date              TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		user_rating             INT CHECK (user_rating BETWEEN 1 AND 5),
		PRIMARY KEY (user_id, matched_user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS statistics (
		id                         TEXT PRIMARY KEY,
		total_free_members         INT NOT NULL DEFAULT 0,
		total_paid_members         INT NOT NULL DEFAULT 0,
		total_product_members      INT NOT NULL DEFAULT 0,
		total_matches              INT NOT NULL DEFAULT 0,
		total_contact_info_exposed INT NOT NULL DEFAULT 0,
		average_rating             DOUBLE PRECISION NOT NULL DEFAULT 0,
		counts_per_star            JSONB NOT NULL DEFAULT '{}',
		total_ratings              INT NOT NULL DEFAULT 0,
		last_updated               TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

// Migrate creates the tables used by the stores when they are missing.
func (db *DB) Migrate(ctx context.Context) error {
	for i, stmt := range schema {
		if _, err := db.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement %d: %w", i, err)
		}
	}
	return nil
}
