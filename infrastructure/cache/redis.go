package cache

import (
	"context"
	"strconv"

	"trackpub/infrastructure/logger"

	"github.com/redis/go-redis/v9"
)

// NewCache connects to Redis. The returned client may be nil when Redis is
// unreachable; callers treat that as "locking degraded to claim-only".
func NewCache(ctx context.Context, addr, username, password, databaseName string) (*redis.Client, error) {
	db := 0
	if databaseName != "" {
		if parsed, err := strconv.Atoi(databaseName); err == nil {
			db = parsed
		}
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Username: username,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		logger.GetLogger().WithField("error", err).Warn("Redis not available")
		_ = client.Close()
		return nil, err
	}
	return client, nil
}
