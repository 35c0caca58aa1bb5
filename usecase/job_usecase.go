package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"trackpub/domain/model"
	"trackpub/domain/repository"
	"trackpub/infrastructure/logger"
)

// JobHandler executes the work behind one job kind.
type JobHandler func(ctx context.Context, trackID int64) error

type IJobUsecase interface {
	// Enqueue queues a background action for a track.
	Enqueue(ctx context.Context, trackID int64, kind string) (*model.TrackJob, error)
	// RunPending claims and executes up to batchSize pending jobs. Called
	// from the poll ticker.
	RunPending(ctx context.Context, batchSize int) error
}

type jobUsecase struct {
	jobRepo   repository.ITrackJob
	trackRepo repository.ITrack
	handlers  map[string]JobHandler
	policies  map[string]model.JobPolicy
}

func NewJobUsecase(jobRepo repository.ITrackJob, trackRepo repository.ITrack, process IProcessUsecase, publish IPublishUsecase, policies map[string]model.JobPolicy) IJobUsecase {
	if policies == nil {
		policies = map[string]model.JobPolicy{
			model.JobKindProcess: model.ProcessJobPolicy,
			model.JobKindPublish: model.PublishJobPolicy,
		}
	}
	return &jobUsecase{
		jobRepo:   jobRepo,
		trackRepo: trackRepo,
		handlers: map[string]JobHandler{
			model.JobKindProcess: process.Process,
			model.JobKindPublish: publish.Publish,
		},
		policies: policies,
	}
}

func (u *jobUsecase) Enqueue(ctx context.Context, trackID int64, kind string) (*model.TrackJob, error) {
	if _, known := u.handlers[kind]; !known {
		return nil, fmt.Errorf("unknown job kind %q", kind)
	}
	job, err := u.jobRepo.Enqueue(ctx, trackID, kind)
	if err != nil {
		return nil, fmt.Errorf("enqueueing %s job for track %d: %w", kind, trackID, err)
	}
	logger.GetLogger().WithField("job_id", job.ID).WithField("track_id", trackID).WithField("kind", kind).Info("Job enqueued")
	return job, nil
}

func (u *jobUsecase) RunPending(ctx context.Context, batchSize int) error {
	jobs, err := u.jobRepo.FetchPending(ctx, batchSize)
	if err != nil {
		return fmt.Errorf("fetching pending jobs: %w", err)
	}
	for _, job := range jobs {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		claimed, err := u.jobRepo.Claim(ctx, job.ID)
		if err != nil {
			logger.GetLogger().WithField("job_id", job.ID).WithField("error", err).Error("Claiming job failed")
			continue
		}
		if !claimed {
			continue
		}
		u.runClaimed(ctx, job)
	}
	return nil
}

// runClaimed drives one claimed job through its retry budget. Every
// re-attempt goes back through Requeue+Claim so the stored attempt counter
// stays accurate and another worker can take over after a crash.
func (u *jobUsecase) runClaimed(ctx context.Context, job *model.TrackJob) {
	lg := logger.GetLogger().WithField("job_id", job.ID).WithField("track_id", job.TrackID).WithField("kind", job.Kind)

	handler, known := u.handlers[job.Kind]
	if !known {
		msg := fmt.Sprintf("unknown job kind %q", job.Kind)
		_ = u.jobRepo.MarkResult(ctx, job.ID, model.JobStatusFailed, &msg)
		lg.Error("Unknown job kind")
		return
	}
	policy, ok := u.policies[job.Kind]
	if !ok {
		policy = model.JobPolicy{MaxAttempts: 1, AttemptTimeout: 10 * time.Minute}
	}

	for attempt := job.Attempts + 1; ; attempt++ {
		err := u.runAttempt(ctx, handler, job.TrackID, policy.AttemptTimeout)
		if err == nil {
			_ = u.jobRepo.MarkResult(ctx, job.ID, model.JobStatusSuccess, nil)
			lg.WithField("attempt", attempt).Info("Job succeeded")
			return
		}

		var skip *SkipError
		if errors.As(err, &skip) {
			// Skips are terminal regardless of remaining attempts.
			_ = u.jobRepo.MarkResult(ctx, job.ID, model.JobStatusSkipped, &skip.Reason)
			lg.WithField("reason", skip.Reason).Info("Job skipped")
			return
		}

		msg := err.Error()
		if ctx.Err() != nil {
			// Shutdown mid-attempt: hand the job back untouched by the
			// attempt budget logic and let the next runner retry it.
			_ = u.jobRepo.Requeue(context.Background(), job.ID, &msg)
			lg.Warn("Job requeued during shutdown")
			return
		}
		if attempt >= policy.MaxAttempts {
			_ = u.jobRepo.MarkResult(ctx, job.ID, model.JobStatusFailed, &msg)
			u.recordTerminalFailure(ctx, job, msg)
			lg.WithField("attempts", attempt).WithField("error", err).Error("Job failed permanently")
			return
		}

		lg.WithField("attempt", attempt).WithField("error", err).Warn("Job attempt failed; backing off")
		_ = u.jobRepo.Requeue(ctx, job.ID, &msg)
		if !sleepCtx(ctx, policy.Backoff) {
			return
		}
		reclaimed, claimErr := u.jobRepo.Claim(ctx, job.ID)
		if claimErr != nil || !reclaimed {
			// Another worker picked the retry up.
			return
		}
	}
}

func (u *jobUsecase) runAttempt(ctx context.Context, handler JobHandler, trackID int64, timeout time.Duration) error {
	if timeout <= 0 {
		return handler(ctx, trackID)
	}
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return handler(attemptCtx, trackID)
}

// recordTerminalFailure writes the exhausted job's error onto the track so
// the failure is visible without digging through the job table. Process
// failures already flipped the track to failed; publish failures keep the
// track's status (the render is still good) and only store the message.
func (u *jobUsecase) recordTerminalFailure(ctx context.Context, job *model.TrackJob, msg string) {
	track, err := u.trackRepo.GetByID(ctx, job.TrackID)
	if err != nil {
		return
	}
	_ = u.trackRepo.SetProgress(ctx, track.ID, track.Progress, nil, &msg)
}

// sleepCtx waits for d unless the context ends first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
