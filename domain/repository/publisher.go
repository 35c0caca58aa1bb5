package repository

import (
	"context"

	"trackpub/domain/dto"
)

// IPublisher is the upload contract both strategies fulfil. Upload returns
// the external video id on success.
type IPublisher interface {
	Upload(ctx context.Context, params *dto.UploadParams) (string, error)
	Name() string
}

// IPlaylistPublisher extends IPublisher with playlist placement (only the
// OAuth strategy supports it). EnsurePlaylist creates the playlist when no
// playlist with that title exists.
type IPlaylistPublisher interface {
	IPublisher
	EnsurePlaylist(ctx context.Context, title string) (string, error)
	AddVideoToPlaylist(ctx context.Context, playlistID, videoID string) error
	GetVideoStats(ctx context.Context, videoID string) (viewCount, likeCount, commentCount int64, err error)
}
