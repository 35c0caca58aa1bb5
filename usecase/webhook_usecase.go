package usecase

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"trackpub/domain/dto"
	"trackpub/domain/model"
	"trackpub/domain/repository"
	"trackpub/infrastructure/logger"
)

type IWebhookUsecase interface {
	// Ingest durably stores the raw payload and returns the receipt. It
	// never dispatches; the caller acknowledges the provider first.
	Ingest(ctx context.Context, provider string, payload []byte) (*model.WebhookReceipt, error)

	// Dispatch decodes and applies one stored receipt, then stamps its
	// terminal status. Handler errors are logged and acknowledged; the
	// failed status is reserved for the dispatch run itself dying.
	Dispatch(ctx context.Context, receipt *model.WebhookReceipt)

	ListReceipts(ctx context.Context, limit, offset int) ([]*model.WebhookReceipt, error)

	// CleanupReceipts deletes receipts older than the retention window.
	CleanupReceipts(ctx context.Context, retentionDays int) (int64, error)
}

type webhookUsecase struct {
	receiptRepo repository.IWebhookReceipt
	trackRepo   repository.ITrack
	jobs        IJobUsecase
	broadcaster func(*model.Track)
}

// NewWebhookUsecase wires the reconciler. broadcaster may be nil when no
// realtime stream is attached.
func NewWebhookUsecase(receiptRepo repository.IWebhookReceipt, trackRepo repository.ITrack, jobs IJobUsecase, broadcaster func(*model.Track)) IWebhookUsecase {
	return &webhookUsecase{receiptRepo: receiptRepo, trackRepo: trackRepo, jobs: jobs, broadcaster: broadcaster}
}

func (u *webhookUsecase) Ingest(ctx context.Context, provider string, payload []byte) (*model.WebhookReceipt, error) {
	receipt := &model.WebhookReceipt{
		Provider: provider,
		Payload:  string(payload),
		Status:   model.ReceiptStatusPending,
	}
	if err := u.receiptRepo.Create(ctx, receipt); err != nil {
		return nil, fmt.Errorf("storing webhook receipt: %w", err)
	}
	logger.GetLogger().WithField("receipt_id", receipt.ID).WithField("provider", provider).Info("Webhook received")
	return receipt, nil
}

func (u *webhookUsecase) Dispatch(ctx context.Context, receipt *model.WebhookReceipt) {
	lg := logger.GetLogger().WithField("receipt_id", receipt.ID).WithField("provider", receipt.Provider)

	event := dto.DecodeWebhookEvent(receipt.Provider, []byte(receipt.Payload))
	if err := u.apply(ctx, event); err != nil {
		if ctx.Err() != nil {
			// The dispatch run itself died (timeout or shutdown), so the
			// handlers never got a full pass. Stamp the receipt on a fresh
			// context; the dispatch one is already dead.
			msg := "dispatch aborted: " + err.Error()
			stampCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = u.receiptRepo.MarkProcessed(stampCtx, receipt.ID, model.ReceiptStatusFailed, &msg)
			lg.WithField("event", event.Type).WithField("error", err).Error("Webhook dispatch aborted")
			return
		}
		// A handler failing is that handler's problem, not the receipt's:
		// the event was delivered and routed, so it stays acknowledged.
		lg.WithField("event", event.Type).WithField("error", err).Error("Webhook handler failed; event acknowledged")
	}
	_ = u.receiptRepo.MarkProcessed(ctx, receipt.ID, model.ReceiptStatusProcessed, nil)
	lg.WithField("event", event.Type).Info("Webhook processed")
}

// apply routes one decoded event. Events referencing unknown videos or
// tracks are acknowledged, not failed: the provider may know about entities
// this deployment never published.
func (u *webhookUsecase) apply(ctx context.Context, event dto.WebhookEvent) error {
	lg := logger.GetLogger().WithField("event", event.Type)

	switch event.Type {
	case dto.EventAnalyticsUpdate:
		track, ok, err := u.trackForVideo(ctx, event.VideoID)
		if err != nil || !ok {
			return err
		}
		if err := u.trackRepo.UpdateAnalytics(ctx, track.ID, event.Stats.ViewCount, event.Stats.LikeCount, event.Stats.CommentCount); err != nil {
			return fmt.Errorf("updating analytics for track %d: %w", track.ID, err)
		}
		return nil

	case dto.EventVideoPublished:
		track, ok, err := u.trackForVideo(ctx, event.VideoID)
		if err != nil || !ok {
			return err
		}
		// A crash between the upload claim and the publish record leaves the
		// track with a video id but no publish timestamp. The platform's own
		// confirmation closes that window; an already-stamped track is a
		// no-op.
		if track.PublishedAt == nil {
			if err := u.trackRepo.SetPublished(ctx, track.ID, track.ExternalPlaylistID); err != nil {
				return fmt.Errorf("reconciling publish for track %d: %w", track.ID, err)
			}
			now := time.Now().UTC()
			track.PublishedAt = &now
			lg.WithField("track_id", track.ID).WithField("video_id", event.VideoID).Info("Publish reconciled from platform event")
		} else {
			lg.WithField("track_id", track.ID).WithField("video_id", event.VideoID).Info("Platform publish confirmed")
		}
		if u.broadcaster != nil {
			u.broadcaster(track)
		}
		return nil

	case dto.EventVideoUpdated:
		track, ok, err := u.trackForVideo(ctx, event.VideoID)
		if err != nil || !ok {
			return err
		}
		// Confirmation of state we already hold; log the reconciliation and
		// surface it to stream subscribers.
		lg.WithField("track_id", track.ID).WithField("video_id", event.VideoID).Info("Platform state confirmed")
		if u.broadcaster != nil {
			u.broadcaster(track)
		}
		return nil

	case dto.EventTrackGenerated:
		if event.TrackID == 0 {
			lg.Warn("Generation event without track id; acknowledged")
			return nil
		}
		// A freshly generated track enters the pipeline.
		if _, err := u.jobs.Enqueue(ctx, event.TrackID, model.JobKindProcess); err != nil {
			return err
		}
		return nil

	case dto.EventTrackUpdated:
		if event.TrackID == 0 {
			return nil
		}
		lg.WithField("track_id", event.TrackID).WithField("changes", event.Changes).Info("Track metadata updated upstream")
		return nil

	case dto.EventGenerationFailed:
		if event.TrackID == 0 {
			return nil
		}
		msg := event.Message
		if msg == "" {
			msg = "generation failed upstream"
		}
		if err := u.trackRepo.SetProgress(ctx, event.TrackID, 0, strPtr(model.TrackStatusFailed), &msg); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				lg.WithField("track_id", event.TrackID).Warn("Generation failure for unknown track; acknowledged")
				return nil
			}
			return err
		}
		return nil

	default:
		lg.WithField("provider", event.Provider).Warn("Unknown webhook event; acknowledged")
		return nil
	}
}

// trackForVideo resolves a platform video id to a track. ok=false with a nil
// error means the id is unknown here and the event should be acknowledged.
func (u *webhookUsecase) trackForVideo(ctx context.Context, videoID string) (*model.Track, bool, error) {
	if videoID == "" {
		logger.GetLogger().Warn("Platform event without video id; acknowledged")
		return nil, false, nil
	}
	track, err := u.trackRepo.GetByExternalVideoID(ctx, videoID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			logger.GetLogger().WithField("video_id", videoID).Warn("Event for unknown video; acknowledged")
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("resolving video %s: %w", videoID, err)
	}
	return track, true, nil
}

func (u *webhookUsecase) ListReceipts(ctx context.Context, limit, offset int) ([]*model.WebhookReceipt, error) {
	return u.receiptRepo.List(ctx, limit, offset)
}

func (u *webhookUsecase) CleanupReceipts(ctx context.Context, retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		retentionDays = 30
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays)
	removed, err := u.receiptRepo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("deleting receipts older than %s: %w", cutoff.Format(time.RFC3339), err)
	}
	if removed > 0 {
		logger.GetLogger().WithField("removed", removed).Info("Webhook receipts cleaned up")
	}
	return removed, nil
}
