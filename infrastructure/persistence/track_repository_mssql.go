package persistence

import (
	"context"
	"database/sql"
	"time"

	"trackpub/domain/model"
	"trackpub/domain/repository"
)

// TrackRepositoryMSSQL implements track persistence for SQL Server/Azure SQL
// using database/sql.
type TrackRepositoryMSSQL struct{ db *sql.DB }

func NewTrackRepositoryMSSQL(db *sql.DB) repository.ITrack { return &TrackRepositoryMSSQL{db: db} }

// DB exposes the underlying *sql.DB
func (r *TrackRepositoryMSSQL) DB() *sql.DB { return r.db }

const trackColumnsMSSQL = `id, title, genres, audio_source_url, image_source_url, audio_path, image_path, video_path,
status, progress, error_message, publishing_enabled, external_video_id, external_playlist_id, published_at,
view_count, like_count, comment_count, analytics_updated_at, created_at, updated_at`

func (r *TrackRepositoryMSSQL) Create(ctx context.Context, track *model.Track) error {
	now := time.Now().UTC()
	if track.Status == "" {
		track.Status = model.TrackStatusPending
	}
	track.CreatedAt = now
	track.UpdatedAt = now
	q := `INSERT INTO dbo.[tracks] (title, genres, audio_source_url, image_source_url, status, progress, publishing_enabled, created_at, updated_at)
OUTPUT INSERTED.id
VALUES (@p1,@p2,@p3,@p4,@p5,@p6,@p7,@p8,@p8)`
	return r.db.QueryRowContext(ctx, q, track.Title, track.Genres, track.AudioSourceURL, track.ImageSourceURL,
		track.Status, track.Progress, track.PublishingEnabled, now).Scan(&track.ID)
}

func (r *TrackRepositoryMSSQL) GetByID(ctx context.Context, id int64) (*model.Track, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+trackColumnsMSSQL+` FROM dbo.[tracks] WHERE id=@p1`, id)
	return scanTrack(row)
}

func (r *TrackRepositoryMSSQL) GetByExternalVideoID(ctx context.Context, videoID string) (*model.Track, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+trackColumnsMSSQL+` FROM dbo.[tracks] WHERE external_video_id=@p1`, videoID)
	return scanTrack(row)
}

func (r *TrackRepositoryMSSQL) List(ctx context.Context, limit, offset int) ([]*model.Track, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+trackColumnsMSSQL+` FROM dbo.[tracks]
ORDER BY created_at DESC OFFSET @p1 ROWS FETCH NEXT @p2 ROWS ONLY`, offset, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*model.Track
	for rows.Next() {
		t, err := scanTrack(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

func (r *TrackRepositoryMSSQL) Update(ctx context.Context, track *model.Track) error {
	_, err := r.db.ExecContext(ctx, `UPDATE dbo.[tracks] SET title=@p1, genres=@p2, publishing_enabled=@p3, updated_at=@p4 WHERE id=@p5`,
		track.Title, track.Genres, track.PublishingEnabled, time.Now().UTC(), track.ID)
	return err
}

func (r *TrackRepositoryMSSQL) SetProgress(ctx context.Context, id int64, progress int, status *string, errMsg *string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE dbo.[tracks] SET progress=@p1, status=COALESCE(@p2, status), error_message=@p3, updated_at=@p4 WHERE id=@p5`,
		progress, status, errMsg, time.Now().UTC(), id)
	return err
}

func (r *TrackRepositoryMSSQL) SetStatus(ctx context.Context, id int64, status string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE dbo.[tracks] SET status=@p1, updated_at=@p2 WHERE id=@p3`, status, time.Now().UTC(), id)
	return err
}

func (r *TrackRepositoryMSSQL) SetArtifactPaths(ctx context.Context, id int64, audioPath, imagePath, videoPath *string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE dbo.[tracks] SET
audio_path=COALESCE(@p1, audio_path),
image_path=COALESCE(@p2, image_path),
video_path=COALESCE(@p3, video_path),
updated_at=@p4 WHERE id=@p5`, audioPath, imagePath, videoPath, time.Now().UTC(), id)
	return err
}

func (r *TrackRepositoryMSSQL) ClaimForPublish(ctx context.Context, id int64, videoID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE dbo.[tracks] SET external_video_id=@p1, updated_at=@p2 WHERE id=@p3 AND external_video_id IS NULL`,
		videoID, time.Now().UTC(), id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *TrackRepositoryMSSQL) SetPublished(ctx context.Context, id int64, playlistID *string) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `UPDATE dbo.[tracks] SET external_playlist_id=COALESCE(@p1, external_playlist_id), published_at=@p2, updated_at=@p2 WHERE id=@p3`,
		playlistID, now, id)
	return err
}

func (r *TrackRepositoryMSSQL) ResetExternalVideo(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE dbo.[tracks] SET external_video_id=NULL, external_playlist_id=NULL, published_at=NULL, updated_at=@p1 WHERE id=@p2`,
		time.Now().UTC(), id)
	return err
}

func (r *TrackRepositoryMSSQL) UpdateAnalytics(ctx context.Context, id int64, views, likes, comments *int64) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `UPDATE dbo.[tracks] SET
view_count=COALESCE(@p1, view_count),
like_count=COALESCE(@p2, like_count),
comment_count=COALESCE(@p3, comment_count),
analytics_updated_at=@p4, updated_at=@p4 WHERE id=@p5`, views, likes, comments, now, id)
	return err
}

func (r *TrackRepositoryMSSQL) ListPublished(ctx context.Context, limit int) ([]*model.Track, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT TOP (@p1) `+trackColumnsMSSQL+` FROM dbo.[tracks]
WHERE external_video_id IS NOT NULL ORDER BY published_at DESC`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*model.Track
	for rows.Next() {
		t, err := scanTrack(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

func (r *TrackRepositoryMSSQL) ListEligibleForPublish(ctx context.Context, limit int) ([]*model.Track, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT TOP (@p1) `+trackColumnsMSSQL+` FROM dbo.[tracks]
WHERE status=@p2 AND publishing_enabled=1 AND external_video_id IS NULL AND video_path IS NOT NULL
ORDER BY created_at ASC`, limit, model.TrackStatusCompleted)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*model.Track
	for rows.Next() {
		t, err := scanTrack(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

// Ensure interface compliance
var _ repository.ITrack = (*TrackRepositoryMSSQL)(nil)
