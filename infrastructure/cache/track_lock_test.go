package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"trackpub/infrastructure/cache"
)

// Without Redis the lock must degrade to always-acquired; the database claim
// still guards against double publishes.
func TestTrackLock_NilClientDegrades(t *testing.T) {
	lock := cache.NewTrackLock(nil)
	release, ok, err := lock.Acquire(context.Background(), 1, time.Minute)
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.NotNil(t, release)
	release()
}
