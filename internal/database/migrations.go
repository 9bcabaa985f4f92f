package database

import (
	"context"
	"database/sql"
	"fmt"
)

// clicks.seq equals urls.click_count right after the append that wrote the
// row, so ordering by seq is insertion order.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS urls (
	id           BIGSERIAL   PRIMARY KEY,
	short_code   TEXT        NOT NULL UNIQUE,
	original_url TEXT        NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL,
	expires_at   TIMESTAMPTZ NOT NULL,
	click_count  BIGINT      NOT NULL DEFAULT 0,
	CONSTRAINT urls_expiry_after_creation CHECK (expires_at > created_at)
);

CREATE INDEX IF NOT EXISTS idx_urls_created_at ON urls (created_at DESC);

CREATE TABLE IF NOT EXISTS clicks (
	url_id     BIGINT      NOT NULL REFERENCES urls (id),
	seq        BIGINT      NOT NULL,
	clicked_at TIMESTAMPTZ NOT NULL,
	ip_address TEXT        NOT NULL DEFAULT '',
	referrer   TEXT        NOT NULL,
	PRIMARY KEY (url_id, seq)
);
`

// Migrate creates the schema if it does not exist yet.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
