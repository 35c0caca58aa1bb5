package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// EnsurePipelineSchema creates the pipeline tables when missing and adds
// newer columns to existing installations. Safe to call at startup.
func EnsurePipelineSchema(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tables := []string{
		`CREATE TABLE IF NOT EXISTS tracks (
			id BIGSERIAL PRIMARY KEY,
			title TEXT NOT NULL,
			genres TEXT NOT NULL DEFAULT '',
			audio_source_url TEXT NOT NULL,
			image_source_url TEXT NOT NULL,
			audio_path TEXT,
			image_path TEXT,
			video_path TEXT,
			status TEXT NOT NULL DEFAULT 'pending',
			progress INT NOT NULL DEFAULT 0,
			error_message TEXT,
			publishing_enabled BOOLEAN NOT NULL DEFAULT FALSE,
			external_video_id TEXT,
			external_playlist_id TEXT,
			published_at TIMESTAMPTZ,
			view_count BIGINT,
			like_count BIGINT,
			comment_count BIGINT,
			analytics_updated_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS accounts (
			id BIGSERIAL PRIMARY KEY,
			display_name TEXT NOT NULL DEFAULT '',
			channel_id TEXT NOT NULL UNIQUE,
			access_token TEXT NOT NULL DEFAULT '',
			refresh_token TEXT NOT NULL DEFAULT '',
			token_expires_at TIMESTAMPTZ,
			is_active BOOLEAN NOT NULL DEFAULT FALSE,
			last_used_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS webhook_receipts (
			id BIGSERIAL PRIMARY KEY,
			provider TEXT NOT NULL,
			payload TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			error_message TEXT,
			received_at TIMESTAMPTZ NOT NULL,
			processed_at TIMESTAMPTZ
		)`,
		`CREATE TABLE IF NOT EXISTS track_jobs (
			id BIGSERIAL PRIMARY KEY,
			track_id BIGINT NOT NULL,
			kind TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			attempts INT NOT NULL DEFAULT 0,
			last_error TEXT,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_tracks_external_video_id ON tracks (external_video_id) WHERE external_video_id IS NOT NULL`,
		`CREATE INDEX IF NOT EXISTS idx_track_jobs_status ON track_jobs (status, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_webhook_receipts_received_at ON webhook_receipts (received_at)`,
	}
	for _, ddl := range tables {
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("ensuring pipeline schema failed: %w", err)
		}
	}

	// Additive columns for installations created before analytics landed.
	checks := []struct {
		table  string
		column string
		ddl    string
	}{
		{"tracks", "view_count", "ALTER TABLE tracks ADD COLUMN view_count BIGINT"},
		{"tracks", "like_count", "ALTER TABLE tracks ADD COLUMN like_count BIGINT"},
		{"tracks", "comment_count", "ALTER TABLE tracks ADD COLUMN comment_count BIGINT"},
		{"tracks", "analytics_updated_at", "ALTER TABLE tracks ADD COLUMN analytics_updated_at TIMESTAMPTZ"},
	}
	for _, c := range checks {
		exists, err := columnExists(ctx, db, c.table, c.column)
		if err != nil {
			return err
		}
		if !exists {
			if _, err := db.ExecContext(ctx, c.ddl); err != nil {
				return fmt.Errorf("adding column %s.%s failed: %w", c.table, c.column, err)
			}
		}
	}
	return nil
}

func columnExists(ctx context.Context, db *sql.DB, table, column string) (bool, error) {
	row := db.QueryRowContext(ctx, `SELECT 1 FROM information_schema.columns WHERE table_name=$1 AND column_name=$2`, table, column)
	var one int
	if err := row.Scan(&one); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
