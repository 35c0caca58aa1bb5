package repository

import (
	"context"

	"trackpub/domain/model"
)

// ITrack defines persistence operations for tracks. Every mutation is a
// single statement so concurrent jobs coordinate purely through the stored
// row, never through shared in-memory state.
type ITrack interface {
	Create(ctx context.Context, track *model.Track) error
	GetByID(ctx context.Context, id int64) (*model.Track, error)
	GetByExternalVideoID(ctx context.Context, videoID string) (*model.Track, error)
	List(ctx context.Context, limit, offset int) ([]*model.Track, error)
	Update(ctx context.Context, track *model.Track) error

	// SetProgress persists a progress checkpoint in one UPDATE. A nil status
	// leaves the status column untouched; errMsg always replaces the stored
	// error, so advancing checkpoints clear stale failure text.
	SetProgress(ctx context.Context, id int64, progress int, status *string, errMsg *string) error

	// SetStatus flips only the status column (used for the cooperative stop
	// flag).
	SetStatus(ctx context.Context, id int64, status string) error

	// SetArtifactPaths records the local artifact locations produced by the
	// pipeline stages.
	SetArtifactPaths(ctx context.Context, id int64, audioPath, imagePath, videoPath *string) error

	// ClaimForPublish atomically writes the external video id, guarded by
	// external_video_id IS NULL. Returns false when another publisher won
	// the race.
	ClaimForPublish(ctx context.Context, id int64, videoID string) (bool, error)

	// SetPublished records the playlist id and publish timestamp after a
	// successful upload.
	SetPublished(ctx context.Context, id int64, playlistID *string) error

	// ResetExternalVideo clears the publish marker (explicit reset only).
	ResetExternalVideo(ctx context.Context, id int64) error

	// UpdateAnalytics writes the analytics counters and stamps
	// analytics_updated_at. Only the webhook reconciler and the scheduled
	// refresh call this. Nil counters leave the column untouched.
	UpdateAnalytics(ctx context.Context, id int64, views, likes, comments *int64) error

	// ListPublished returns tracks holding an external video id, for the
	// scheduled analytics refresh.
	ListPublished(ctx context.Context, limit int) ([]*model.Track, error)

	// ListEligibleForPublish returns completed, publish-enabled tracks with
	// no external video id yet.
	ListEligibleForPublish(ctx context.Context, limit int) ([]*model.Track, error)
}
