package usecase

import (
	"context"
	"fmt"

	"trackpub/domain/repository"
	"trackpub/infrastructure/logger"
	"trackpub/infrastructure/worker"
)

type IAnalyticsUsecase interface {
	// Refresh pulls current statistics for published tracks from the
	// platform API. Complements the webhook path for deployments where the
	// provider pushes nothing.
	Refresh(ctx context.Context, limit int) error
}

type analyticsUsecase struct {
	trackRepo    repository.ITrack
	newPublisher PublisherFactory
}

func NewAnalyticsUsecase(trackRepo repository.ITrack, newPublisher PublisherFactory) IAnalyticsUsecase {
	return &analyticsUsecase{trackRepo: trackRepo, newPublisher: newPublisher}
}

func (u *analyticsUsecase) Refresh(ctx context.Context, limit int) error {
	tracks, err := u.trackRepo.ListPublished(ctx, limit)
	if err != nil {
		return fmt.Errorf("listing published tracks: %w", err)
	}
	if len(tracks) == 0 {
		return nil
	}

	publisher, _, err := u.newPublisher(ctx)
	if err != nil {
		return fmt.Errorf("building publisher: %w", err)
	}
	stats, ok := publisher.(repository.IPlaylistPublisher)
	if !ok {
		// The session strategy exposes no statistics API; analytics then
		// arrive via webhooks only.
		logger.GetLogger().WithField("strategy", publisher.Name()).Debug("Strategy has no statistics API; refresh skipped")
		return nil
	}

	lg := logger.GetLogger()
	tasks := make([]worker.Task, len(tracks))
	for i, track := range tracks {
		t := track
		tasks[i] = func(ctx context.Context) error {
			views, likes, comments, err := stats.GetVideoStats(ctx, *t.ExternalVideoID)
			if err != nil {
				return fmt.Errorf("fetching stats for video %s: %w", *t.ExternalVideoID, err)
			}
			return u.trackRepo.UpdateAnalytics(ctx, t.ID, &views, &likes, &comments)
		}
	}
	failed := 0
	for _, result := range worker.RunPooled(ctx, 4, tasks) {
		if result.Err != nil {
			failed++
		}
	}
	lg.WithField("tracks", len(tracks)).WithField("failed", failed).Info("Analytics refresh finished")
	return nil
}
