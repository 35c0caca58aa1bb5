package repository

import (
	"context"
	"time"
)

// ITrackLock provides per-track mutual exclusion around the publish step.
// The lease TTL bounds how long a crashed worker can hold a lock.
type ITrackLock interface {
	// Acquire returns a release func when the lock was taken, or ok=false
	// when another worker holds it.
	Acquire(ctx context.Context, trackID int64, ttl time.Duration) (release func(), ok bool, err error)
}
