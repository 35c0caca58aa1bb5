package persistence

import (
	"context"
	"database/sql"
	"time"

	"trackpub/domain/model"
	"trackpub/domain/repository"
)

// TrackRepository implements track persistence for PostgreSQL using native
// sql.DB. Every mutation is a single statement; concurrent jobs coordinate
// through the stored row.
type TrackRepository struct {
	db *sql.DB
}

func NewTrackRepository(db *sql.DB) repository.ITrack { return &TrackRepository{db: db} }

const trackColumns = `id, title, genres, audio_source_url, image_source_url, audio_path, image_path, video_path,
status, progress, error_message, publishing_enabled, external_video_id, external_playlist_id, published_at,
view_count, like_count, comment_count, analytics_updated_at, created_at, updated_at`

func scanTrack(row interface{ Scan(...interface{}) error }) (*model.Track, error) {
	t := &model.Track{}
	var audioPath, imagePath, videoPath, errMsg, extVideo, extPlaylist sql.NullString
	var publishedAt, analyticsAt sql.NullTime
	var views, likes, comments sql.NullInt64
	err := row.Scan(&t.ID, &t.Title, &t.Genres, &t.AudioSourceURL, &t.ImageSourceURL,
		&audioPath, &imagePath, &videoPath,
		&t.Status, &t.Progress, &errMsg, &t.PublishingEnabled, &extVideo, &extPlaylist, &publishedAt,
		&views, &likes, &comments, &analyticsAt, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if audioPath.Valid {
		t.AudioPath = &audioPath.String
	}
	if imagePath.Valid {
		t.ImagePath = &imagePath.String
	}
	if videoPath.Valid {
		t.VideoPath = &videoPath.String
	}
	if errMsg.Valid {
		t.ErrorMessage = &errMsg.String
	}
	if extVideo.Valid {
		t.ExternalVideoID = &extVideo.String
	}
	if extPlaylist.Valid {
		t.ExternalPlaylistID = &extPlaylist.String
	}
	if publishedAt.Valid {
		t.PublishedAt = &publishedAt.Time
	}
	if views.Valid {
		t.ViewCount = &views.Int64
	}
	if likes.Valid {
		t.LikeCount = &likes.Int64
	}
	if comments.Valid {
		t.CommentCount = &comments.Int64
	}
	if analyticsAt.Valid {
		t.AnalyticsUpdatedAt = &analyticsAt.Time
	}
	return t, nil
}

func (r *TrackRepository) Create(ctx context.Context, track *model.Track) error {
	now := time.Now().UTC()
	if track.Status == "" {
		track.Status = model.TrackStatusPending
	}
	track.CreatedAt = now
	track.UpdatedAt = now
	q := `INSERT INTO tracks (title, genres, audio_source_url, image_source_url, status, progress, publishing_enabled, created_at, updated_at)
	      VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$8) RETURNING id`
	return r.db.QueryRowContext(ctx, q, track.Title, track.Genres, track.AudioSourceURL, track.ImageSourceURL,
		track.Status, track.Progress, track.PublishingEnabled, now).Scan(&track.ID)
}

func (r *TrackRepository) GetByID(ctx context.Context, id int64) (*model.Track, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+trackColumns+` FROM tracks WHERE id=$1`, id)
	return scanTrack(row)
}

func (r *TrackRepository) GetByExternalVideoID(ctx context.Context, videoID string) (*model.Track, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+trackColumns+` FROM tracks WHERE external_video_id=$1`, videoID)
	return scanTrack(row)
}

func (r *TrackRepository) List(ctx context.Context, limit, offset int) ([]*model.Track, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+trackColumns+` FROM tracks ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
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

func (r *TrackRepository) Update(ctx context.Context, track *model.Track) error {
	_, err := r.db.ExecContext(ctx, `UPDATE tracks SET title=$1, genres=$2, publishing_enabled=$3, updated_at=$4 WHERE id=$5`,
		track.Title, track.Genres, track.PublishingEnabled, time.Now().UTC(), track.ID)
	return err
}

func (r *TrackRepository) SetProgress(ctx context.Context, id int64, progress int, status *string, errMsg *string) error {
	// Single UPDATE covering progress plus optional status/error so a
	// checkpoint is never half written.
	_, err := r.db.ExecContext(ctx, `UPDATE tracks SET progress=$1, status=COALESCE($2, status), error_message=$3, updated_at=$4 WHERE id=$5`,
		progress, status, errMsg, time.Now().UTC(), id)
	return err
}

func (r *TrackRepository) SetStatus(ctx context.Context, id int64, status string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE tracks SET status=$1, updated_at=$2 WHERE id=$3`, status, time.Now().UTC(), id)
	return err
}

func (r *TrackRepository) SetArtifactPaths(ctx context.Context, id int64, audioPath, imagePath, videoPath *string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE tracks SET
		audio_path=COALESCE($1, audio_path),
		image_path=COALESCE($2, image_path),
		video_path=COALESCE($3, video_path),
		updated_at=$4 WHERE id=$5`, audioPath, imagePath, videoPath, time.Now().UTC(), id)
	return err
}

func (r *TrackRepository) ClaimForPublish(ctx context.Context, id int64, videoID string) (bool, error) {
	// The IS NULL guard makes the claim atomic: at most one publisher can
	// flip the column, everyone else sees zero rows affected.
	res, err := r.db.ExecContext(ctx, `UPDATE tracks SET external_video_id=$1, updated_at=$2 WHERE id=$3 AND external_video_id IS NULL`,
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

func (r *TrackRepository) SetPublished(ctx context.Context, id int64, playlistID *string) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `UPDATE tracks SET external_playlist_id=COALESCE($1, external_playlist_id), published_at=$2, updated_at=$2 WHERE id=$3`,
		playlistID, now, id)
	return err
}

func (r *TrackRepository) ResetExternalVideo(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE tracks SET external_video_id=NULL, external_playlist_id=NULL, published_at=NULL, updated_at=$1 WHERE id=$2`,
		time.Now().UTC(), id)
	return err
}

func (r *TrackRepository) UpdateAnalytics(ctx context.Context, id int64, views, likes, comments *int64) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `UPDATE tracks SET
		view_count=COALESCE($1, view_count),
		like_count=COALESCE($2, like_count),
		comment_count=COALESCE($3, comment_count),
		analytics_updated_at=$4, updated_at=$4 WHERE id=$5`, views, likes, comments, now, id)
	return err
}

func (r *TrackRepository) ListPublished(ctx context.Context, limit int) ([]*model.Track, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+trackColumns+` FROM tracks WHERE external_video_id IS NOT NULL ORDER BY published_at DESC LIMIT $1`, limit)
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

func (r *TrackRepository) ListEligibleForPublish(ctx context.Context, limit int) ([]*model.Track, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+trackColumns+` FROM tracks
		WHERE status=$1 AND publishing_enabled=TRUE AND external_video_id IS NULL AND video_path IS NOT NULL
		ORDER BY created_at ASC LIMIT $2`, model.TrackStatusCompleted, limit)
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

// Ensure interface compliance (compile-time)
var _ repository.ITrack = (*TrackRepository)(nil)
