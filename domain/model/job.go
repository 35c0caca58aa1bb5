package model

import "time"

// Job kinds handled by the background processor.
const (
	JobKindProcess = "process"
	JobKindPublish = "publish"
)

// Job statuses.
const (
	JobStatusPending = "pending"
	JobStatusRunning = "running"
	JobStatusSuccess = "success"
	JobStatusFailed  = "failed"
	JobStatusSkipped = "skipped"
)

// TrackJob represents a queued background action for a track. Jobs are
// claimed with a conditional status update so two workers never run the same
// job instance.
type TrackJob struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	TrackID   int64     `json:"track_id"`
	Kind      string    `json:"kind"`   // process | publish
	Status    string    `json:"status"` // pending | running | success | failed | skipped
	Attempts  int       `json:"attempts"`
	LastError *string   `json:"last_error,omitempty"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime;index"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// JobPolicy holds the retry knobs for one job class. The values are passed
// explicitly to the job runner instead of living as scattered per-job
// constants.
type JobPolicy struct {
	MaxAttempts    int           `json:"max_attempts"`
	Backoff        time.Duration `json:"backoff"`
	AttemptTimeout time.Duration `json:"attempt_timeout"`
}

// Default policies per job class. Processing is cheap to retry; publishing
// talks to a rate-limited external API and gets fewer attempts with a longer
// backoff.
var (
	ProcessJobPolicy = JobPolicy{MaxAttempts: 3, Backoff: 10 * time.Second, AttemptTimeout: 10 * time.Minute}
	PublishJobPolicy = JobPolicy{MaxAttempts: 2, Backoff: 30 * time.Second, AttemptTimeout: 15 * time.Minute}
)
