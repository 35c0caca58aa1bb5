package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// EnsurePipelineSchemaMSSQL creates the pipeline tables in MSSQL when missing
// and adds newer columns to existing installations.
func EnsurePipelineSchemaMSSQL(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tables := []struct {
		name string
		ddl  string
	}{
		{"tracks", `CREATE TABLE dbo.[tracks] (
id BIGINT IDENTITY(1,1) PRIMARY KEY,
title NVARCHAR(512) NOT NULL,
genres NVARCHAR(512) NOT NULL DEFAULT '',
audio_source_url NVARCHAR(2048) NOT NULL,
image_source_url NVARCHAR(2048) NOT NULL,
audio_path NVARCHAR(1024) NULL,
image_path NVARCHAR(1024) NULL,
video_path NVARCHAR(1024) NULL,
status NVARCHAR(32) NOT NULL DEFAULT 'pending',
progress INT NOT NULL DEFAULT 0,
error_message NVARCHAR(MAX) NULL,
publishing_enabled BIT NOT NULL DEFAULT 0,
external_video_id NVARCHAR(255) NULL,
external_playlist_id NVARCHAR(255) NULL,
published_at DATETIME2 NULL,
view_count BIGINT NULL,
like_count BIGINT NULL,
comment_count BIGINT NULL,
analytics_updated_at DATETIME2 NULL,
created_at DATETIME2 NOT NULL,
updated_at DATETIME2 NOT NULL
)`},
		{"accounts", `CREATE TABLE dbo.[accounts] (
id BIGINT IDENTITY(1,1) PRIMARY KEY,
display_name NVARCHAR(255) NOT NULL DEFAULT '',
channel_id NVARCHAR(255) NOT NULL UNIQUE,
access_token NVARCHAR(MAX) NOT NULL DEFAULT '',
refresh_token NVARCHAR(MAX) NOT NULL DEFAULT '',
token_expires_at DATETIME2 NULL,
is_active BIT NOT NULL DEFAULT 0,
last_used_at DATETIME2 NULL,
created_at DATETIME2 NOT NULL,
updated_at DATETIME2 NOT NULL
)`},
		{"webhook_receipts", `CREATE TABLE dbo.[webhook_receipts] (
id BIGINT IDENTITY(1,1) PRIMARY KEY,
provider NVARCHAR(64) NOT NULL,
payload NVARCHAR(MAX) NOT NULL,
status NVARCHAR(32) NOT NULL DEFAULT 'pending',
error_message NVARCHAR(MAX) NULL,
received_at DATETIME2 NOT NULL,
processed_at DATETIME2 NULL
)`},
		{"track_jobs", `CREATE TABLE dbo.[track_jobs] (
id BIGINT IDENTITY(1,1) PRIMARY KEY,
track_id BIGINT NOT NULL,
kind NVARCHAR(32) NOT NULL,
status NVARCHAR(32) NOT NULL DEFAULT 'pending',
attempts INT NOT NULL DEFAULT 0,
last_error NVARCHAR(MAX) NULL,
created_at DATETIME2 NOT NULL,
updated_at DATETIME2 NOT NULL
)`},
	}
	for _, t := range tables {
		q := fmt.Sprintf(`IF OBJECT_ID('dbo.%s', 'U') IS NULL BEGIN %s END`, t.name, t.ddl)
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure table dbo.%s: %w", t.name, err)
		}
	}

	// Helper to add a column if missing via COL_LENGTH check
	addIfMissing := func(table, column, ddl string) error {
		q := fmt.Sprintf(`IF COL_LENGTH('%s', '%s') IS NULL BEGIN %s END`, table, column, ddl)
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure column %s.%s: %w", table, column, err)
		}
		return nil
	}
	if err := addIfMissing("dbo.tracks", "view_count", "ALTER TABLE dbo.[tracks] ADD view_count BIGINT NULL"); err != nil {
		return err
	}
	if err := addIfMissing("dbo.tracks", "like_count", "ALTER TABLE dbo.[tracks] ADD like_count BIGINT NULL"); err != nil {
		return err
	}
	if err := addIfMissing("dbo.tracks", "comment_count", "ALTER TABLE dbo.[tracks] ADD comment_count BIGINT NULL"); err != nil {
		return err
	}
	if err := addIfMissing("dbo.tracks", "analytics_updated_at", "ALTER TABLE dbo.[tracks] ADD analytics_updated_at DATETIME2 NULL"); err != nil {
		return err
	}
	return nil
}
