package usecase

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"trackpub/domain/model"
	"trackpub/domain/repository"
	"trackpub/infrastructure/assets"
	"trackpub/infrastructure/logger"
	"trackpub/infrastructure/transcoder"
)

// SkipError marks work that must not be retried: the track's state makes the
// job pointless, not broken. The job runner records it as skipped.
type SkipError struct {
	Reason string
}

func (e *SkipError) Error() string { return "skipped: " + e.Reason }

// Progress checkpoints persisted during processing. Each one is a single
// UPDATE so a crash leaves the track at the last completed stage.
const (
	progressStarted      = 10
	progressAudioFetched = 40
	progressImageFetched = 70
	progressDone         = 100
)

type IProcessUsecase interface {
	// Process runs the full fetch+transcode pipeline for one track.
	Process(ctx context.Context, trackID int64) error
}

// AssetFetcher downloads one remote asset and returns its local path.
type AssetFetcher interface {
	Fetch(ctx context.Context, kind, rawURL string) (string, error)
}

// VideoRenderer combines the fetched assets into a video file.
type VideoRenderer interface {
	Render(ctx context.Context, audioPath, imagePath, baseName string) (string, error)
}

var (
	_ AssetFetcher  = (*assets.Fetcher)(nil)
	_ VideoRenderer = (*transcoder.FFmpeg)(nil)
)

type processUsecase struct {
	trackRepo   repository.ITrack
	fetcher     AssetFetcher
	ffmpeg      VideoRenderer
	emitter     repository.IEventEmitter
	broadcaster func(*model.Track)
}

// NewProcessUsecase wires the processing pipeline. broadcaster may be nil
// when no realtime stream is attached.
func NewProcessUsecase(trackRepo repository.ITrack, fetcher AssetFetcher, ffmpeg VideoRenderer, emitter repository.IEventEmitter, broadcaster func(*model.Track)) IProcessUsecase {
	return &processUsecase{trackRepo: trackRepo, fetcher: fetcher, ffmpeg: ffmpeg, emitter: emitter, broadcaster: broadcaster}
}

func (u *processUsecase) Process(ctx context.Context, trackID int64) error {
	lg := logger.GetLogger().WithField("track_id", trackID)

	track, err := u.trackRepo.GetByID(ctx, trackID)
	if err != nil {
		return fmt.Errorf("loading track %d: %w", trackID, err)
	}
	// The stop flag is observed at stage boundaries, cooperative cancellation
	// only: a running encode is never killed mid-flight.
	if track.Status == model.TrackStatusStopped {
		return &SkipError{Reason: "track stopped"}
	}

	if err := u.checkpoint(ctx, track, progressStarted, strPtr(model.TrackStatusProcessing)); err != nil {
		return err
	}

	if err := u.run(ctx, track); err != nil {
		// Terminal bookkeeping happens here; the error still propagates so
		// the job runner can count the attempt.
		msg := err.Error()
		if dbErr := u.trackRepo.SetProgress(ctx, track.ID, 0, strPtr(model.TrackStatusFailed), &msg); dbErr != nil {
			lg.WithField("error", dbErr).Error("Recording processing failure failed")
		}
		track.Status = model.TrackStatusFailed
		track.Progress = 0
		track.ErrorMessage = &msg
		u.broadcast(track)
		return err
	}

	lg.Info("Track processed")
	u.emitter.Emit(ctx, "track.completed", track)
	return nil
}

func (u *processUsecase) run(ctx context.Context, track *model.Track) error {
	if stopped, err := u.stopRequested(ctx, track.ID); err != nil {
		return err
	} else if stopped {
		return &SkipError{Reason: "track stopped"}
	}

	audioPath, err := u.fetcher.Fetch(ctx, "audio", track.AudioSourceURL)
	if err != nil {
		return err
	}
	if err := u.trackRepo.SetArtifactPaths(ctx, track.ID, &audioPath, nil, nil); err != nil {
		return err
	}
	track.AudioPath = &audioPath
	if err := u.checkpoint(ctx, track, progressAudioFetched, nil); err != nil {
		return err
	}

	imagePath, err := u.fetcher.Fetch(ctx, "image", track.ImageSourceURL)
	if err != nil {
		return err
	}
	if err := u.trackRepo.SetArtifactPaths(ctx, track.ID, nil, &imagePath, nil); err != nil {
		return err
	}
	track.ImagePath = &imagePath
	if err := u.checkpoint(ctx, track, progressImageFetched, nil); err != nil {
		return err
	}

	if stopped, err := u.stopRequested(ctx, track.ID); err != nil {
		return err
	} else if stopped {
		return &SkipError{Reason: "track stopped"}
	}

	videoPath, err := u.ffmpeg.Render(ctx, audioPath, imagePath, videoBaseName(track))
	if err != nil {
		return err
	}
	if err := u.trackRepo.SetArtifactPaths(ctx, track.ID, nil, nil, &videoPath); err != nil {
		return err
	}
	track.VideoPath = &videoPath

	return u.checkpoint(ctx, track, progressDone, strPtr(model.TrackStatusCompleted))
}

func (u *processUsecase) checkpoint(ctx context.Context, track *model.Track, progress int, status *string) error {
	if err := u.trackRepo.SetProgress(ctx, track.ID, progress, status, nil); err != nil {
		return fmt.Errorf("persisting progress %d: %w", progress, err)
	}
	track.Progress = progress
	if status != nil {
		track.Status = *status
	}
	track.ErrorMessage = nil
	u.broadcast(track)
	return nil
}

func (u *processUsecase) stopRequested(ctx context.Context, trackID int64) (bool, error) {
	current, err := u.trackRepo.GetByID(ctx, trackID)
	if err != nil {
		return false, err
	}
	return current.Status == model.TrackStatusStopped, nil
}

func (u *processUsecase) broadcast(track *model.Track) {
	if u.broadcaster != nil {
		u.broadcaster(track)
	}
}

func videoBaseName(track *model.Track) string {
	base := strings.ToLower(strings.TrimSpace(track.Title))
	base = strings.ReplaceAll(base, " ", "_")
	if base == "" {
		base = fmt.Sprintf("track_%d", track.ID)
	}
	return filepath.Join("video", base)
}

func strPtr(s string) *string { return &s }
