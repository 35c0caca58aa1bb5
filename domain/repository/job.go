package repository

import (
	"context"

	"trackpub/domain/model"
)

// ITrackJob defines the queue backing the background job runner.
type ITrackJob interface {
	Enqueue(ctx context.Context, trackID int64, kind string) (*model.TrackJob, error)
	FetchPending(ctx context.Context, limit int) ([]*model.TrackJob, error)

	// Claim conditionally moves a pending job to running. Returns false when
	// another worker already claimed it.
	Claim(ctx context.Context, jobID int64) (bool, error)

	// MarkResult stores the terminal job status and increments the attempt
	// counter.
	MarkResult(ctx context.Context, jobID int64, status string, errMsg *string) error

	// Requeue moves a failed attempt back to pending for a later retry,
	// keeping the attempt counter.
	Requeue(ctx context.Context, jobID int64, errMsg *string) error

	GetByID(ctx context.Context, jobID int64) (*model.TrackJob, error)
}
