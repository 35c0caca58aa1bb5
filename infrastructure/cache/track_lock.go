package cache

import (
	"context"
	"fmt"
	"time"

	"trackpub/domain/repository"
	"trackpub/infrastructure/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock key only when the caller still owns it, so
// an expired lease can never release somebody else's lock.
const releaseScript = `if redis.call("get", KEYS[1]) == ARGV[1] then return redis.call("del", KEYS[1]) else return 0 end`

// TrackLock implements per-track publish mutual exclusion on Redis SET NX
// with a lease TTL. A nil client degrades to always-acquired: the conditional
// claim write in the track repository remains the final arbiter.
type TrackLock struct {
	client *redis.Client
}

func NewTrackLock(client *redis.Client) repository.ITrackLock {
	return &TrackLock{client: client}
}

func (l *TrackLock) Acquire(ctx context.Context, trackID int64, ttl time.Duration) (func(), bool, error) {
	if l.client == nil {
		logger.GetLogger().Debug("Redis unavailable; publish lock degraded to database claim only")
		return func() {}, true, nil
	}
	key := fmt.Sprintf("trackpub:publish-lock:%d", trackID)
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	release := func() {
		// Release runs on a fresh context so a cancelled publish still
		// unlocks promptly instead of waiting for the TTL.
		relCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := l.client.Eval(relCtx, releaseScript, []string{key}, token).Err(); err != nil {
			logger.GetLogger().WithField("error", err).WithField("track_id", trackID).Warn("Releasing publish lock failed; lease TTL will expire it")
		}
	}
	return release, true, nil
}

// Ensure interface compliance (compile-time)
var _ repository.ITrackLock = (*TrackLock)(nil)
