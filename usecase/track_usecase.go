package usecase

import (
	"context"
	"fmt"
	"strings"

	"trackpub/domain/dto"
	"trackpub/domain/model"
	"trackpub/domain/repository"
	"trackpub/infrastructure/logger"
)

type ITrackUsecase interface {
	Create(ctx context.Context, req *dto.TrackCreateRequest) (*model.Track, error)
	GetByID(ctx context.Context, id int64) (*model.Track, error)
	List(ctx context.Context, limit, offset int) ([]*model.Track, error)
	Update(ctx context.Context, id int64, req *dto.TrackUpdateRequest) (*model.Track, error)

	// RequestProcess queues the fetch+transcode pipeline for the track.
	RequestProcess(ctx context.Context, id int64) (*model.TrackJob, error)
	// RequestPublish queues an upload for the track.
	RequestPublish(ctx context.Context, id int64) (*model.TrackJob, error)
	// Stop raises the cooperative cancellation flag.
	Stop(ctx context.Context, id int64) error
	// ResetPublish clears the external video id so the track can be
	// uploaded again. Explicit operator action only.
	ResetPublish(ctx context.Context, id int64) error
}

type trackUsecase struct {
	trackRepo repository.ITrack
	jobs      IJobUsecase
}

func NewTrackUsecase(trackRepo repository.ITrack, jobs IJobUsecase) ITrackUsecase {
	return &trackUsecase{trackRepo: trackRepo, jobs: jobs}
}

func (u *trackUsecase) Create(ctx context.Context, req *dto.TrackCreateRequest) (*model.Track, error) {
	publishingEnabled := true
	if req.PublishingEnabled != nil {
		publishingEnabled = *req.PublishingEnabled
	}
	track := &model.Track{
		Title:             strings.TrimSpace(req.Title),
		Genres:            strings.Join(req.Genres, ","),
		AudioSourceURL:    req.AudioSourceURL,
		ImageSourceURL:    req.ImageSourceURL,
		Status:            model.TrackStatusPending,
		PublishingEnabled: publishingEnabled,
	}
	if track.Title == "" {
		return nil, fmt.Errorf("title must not be empty")
	}
	if err := u.trackRepo.Create(ctx, track); err != nil {
		return nil, fmt.Errorf("creating track: %w", err)
	}
	logger.GetLogger().WithField("track_id", track.ID).WithField("title", track.Title).Info("Track created")
	return track, nil
}

func (u *trackUsecase) GetByID(ctx context.Context, id int64) (*model.Track, error) {
	return u.trackRepo.GetByID(ctx, id)
}

func (u *trackUsecase) List(ctx context.Context, limit, offset int) ([]*model.Track, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return u.trackRepo.List(ctx, limit, offset)
}

func (u *trackUsecase) Update(ctx context.Context, id int64, req *dto.TrackUpdateRequest) (*model.Track, error) {
	track, err := u.trackRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, fmt.Errorf("title must not be empty")
		}
		track.Title = title
	}
	if req.Genres != nil {
		track.Genres = strings.Join(req.Genres, ",")
	}
	if req.PublishingEnabled != nil {
		track.PublishingEnabled = *req.PublishingEnabled
	}
	if err := u.trackRepo.Update(ctx, track); err != nil {
		return nil, fmt.Errorf("updating track %d: %w", id, err)
	}
	return track, nil
}

func (u *trackUsecase) RequestProcess(ctx context.Context, id int64) (*model.TrackJob, error) {
	track, err := u.trackRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if track.Status == model.TrackStatusProcessing {
		return nil, fmt.Errorf("track %d is already processing", id)
	}
	// A stopped track may be resumed by an explicit re-request.
	if track.Status == model.TrackStatusStopped {
		if err := u.trackRepo.SetStatus(ctx, id, model.TrackStatusPending); err != nil {
			return nil, err
		}
	}
	return u.jobs.Enqueue(ctx, id, model.JobKindProcess)
}

func (u *trackUsecase) RequestPublish(ctx context.Context, id int64) (*model.TrackJob, error) {
	track, err := u.trackRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if result := CheckEligibility(track); result.State == EligibilityFailed {
		return nil, fmt.Errorf("track not publishable: %s", result.Reason)
	}
	// Skips are still enqueued so the decision is recorded on the job row.
	return u.jobs.Enqueue(ctx, id, model.JobKindPublish)
}

func (u *trackUsecase) Stop(ctx context.Context, id int64) error {
	track, err := u.trackRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if track.Status == model.TrackStatusCompleted {
		return fmt.Errorf("track %d already completed", id)
	}
	if err := u.trackRepo.SetStatus(ctx, id, model.TrackStatusStopped); err != nil {
		return fmt.Errorf("stopping track %d: %w", id, err)
	}
	logger.GetLogger().WithField("track_id", id).Info("Track stop requested")
	return nil
}

func (u *trackUsecase) ResetPublish(ctx context.Context, id int64) error {
	if err := u.trackRepo.ResetExternalVideo(ctx, id); err != nil {
		return fmt.Errorf("resetting publish marker for track %d: %w", id, err)
	}
	logger.GetLogger().WithField("track_id", id).Warn("Publish marker reset")
	return nil
}
