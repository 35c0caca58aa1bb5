package model

import (
	"strings"
	"time"
)

// Track statuses. Exactly one writer owns the status column (the processing
// job), except StatusStopped which may be set externally as a cooperative
// cancellation flag.
const (
	TrackStatusPending    = "pending"
	TrackStatusProcessing = "processing"
	TrackStatusCompleted  = "completed"
	TrackStatusFailed     = "failed"
	TrackStatusStopped    = "stopped"
)

// Track is the core media entity moving through the pipeline:
// audio+image in, video out, optionally published to the external platform.
type Track struct {
	ID             int64  `json:"id" gorm:"primaryKey"`
	Title          string `json:"title"`
	Genres         string `json:"genres"` // comma separated genre names
	AudioSourceURL string `json:"audio_source_url"`
	ImageSourceURL string `json:"image_source_url"`

	// Local artifact paths, nil until the corresponding stage produced them.
	AudioPath *string `json:"audio_path,omitempty"`
	ImagePath *string `json:"image_path,omitempty"`
	VideoPath *string `json:"video_path,omitempty"`

	Status       string  `json:"status"`   // pending | processing | completed | failed | stopped
	Progress     int     `json:"progress"` // 0..100
	ErrorMessage *string `json:"error_message,omitempty"`

	PublishingEnabled  bool       `json:"publishing_enabled"`
	ExternalVideoID    *string    `json:"external_video_id,omitempty"`
	ExternalPlaylistID *string    `json:"external_playlist_id,omitempty"`
	PublishedAt        *time.Time `json:"published_at,omitempty"`

	// Analytics counters, written only by the webhook reconciler or the
	// scheduled analytics refresh.
	ViewCount          *int64     `json:"view_count,omitempty"`
	LikeCount          *int64     `json:"like_count,omitempty"`
	CommentCount       *int64     `json:"comment_count,omitempty"`
	AnalyticsUpdatedAt *time.Time `json:"analytics_updated_at,omitempty"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime;index"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime;index"`
}

// GenreList splits the stored genre string into individual names.
func (t *Track) GenreList() []string {
	if t.Genres == "" {
		return nil
	}
	parts := strings.Split(t.Genres, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// IsPublished reports whether the track already has an external video id.
// A published track must never be uploaded again.
func (t *Track) IsPublished() bool {
	return t.ExternalVideoID != nil && *t.ExternalVideoID != ""
}
