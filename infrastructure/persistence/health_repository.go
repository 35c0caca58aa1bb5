package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"trackpub/domain/model"
	"trackpub/infrastructure/logger"
	"trackpub/infrastructure/worker"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type IHealthRepository interface {
	Snapshot(ctx context.Context) (*model.HealthSnapshot, error)
	History(ctx context.Context, limit int) ([]*model.HealthSnapshot, error)
}

// HealthRepository probes the pipeline's backing services. Mongo is optional:
// a nil client disables the history features but never fails a snapshot.
type HealthRepository struct {
	mongoDb *mongo.Client
	sqlDb   *sql.DB
}

func NewHealthRepository(mongoDb *mongo.Client, sqlDb *sql.DB) IHealthRepository {
	return &HealthRepository{mongoDb: mongoDb, sqlDb: sqlDb}
}

func (h *HealthRepository) Snapshot(ctx context.Context) (*model.HealthSnapshot, error) {
	now := time.Now().UTC()
	snap := &model.HealthSnapshot{TakenAt: now}
	checks := make([]model.HealthCheck, 2)

	// Probe components concurrently; a slow Mongo must not delay the SQL probe.
	tasks := []worker.Task{
		func(ctx context.Context) error {
			c := model.HealthCheck{Component: "sql", Status: model.HealthStatusUp, CheckedAt: now}
			if h.sqlDb == nil {
				c.Status = model.HealthStatusDisabled
			} else if err := h.sqlDb.PingContext(ctx); err != nil {
				c.Status = model.HealthStatusDown
				c.Detail = err.Error()
			}
			checks[0] = c
			return nil
		},
		func(ctx context.Context) error {
			c := model.HealthCheck{Component: "mongo", Status: model.HealthStatusUp, CheckedAt: now}
			if h.mongoDb == nil {
				c.Status = model.HealthStatusDisabled
			} else if err := h.mongoDb.Ping(ctx, nil); err != nil {
				c.Status = model.HealthStatusDown
				c.Detail = err.Error()
			}
			checks[1] = c
			return nil
		},
	}
	worker.RunPooled(ctx, 2, tasks)
	snap.Checks = checks

	if h.sqlDb != nil && checks[0].Status == model.HealthStatusUp {
		if err := h.countPendingJobs(ctx, snap); err != nil {
			logger.GetLogger().WithField("error", err).Warn("Counting pending jobs failed")
		}
	}

	h.storeSnapshot(ctx, snap)
	return snap, nil
}

func (h *HealthRepository) countPendingJobs(ctx context.Context, snap *model.HealthSnapshot) error {
	row := h.sqlDb.QueryRowContext(ctx, `SELECT COUNT(*) FROM track_jobs WHERE status='pending'`)
	return row.Scan(&snap.PendingJobs)
}

// storeSnapshot keeps an operational history in Mongo, best-effort.
func (h *HealthRepository) storeSnapshot(ctx context.Context, snap *model.HealthSnapshot) {
	if h.mongoDb == nil {
		return
	}
	collection := h.mongoDb.Database("trackpub").Collection("health_snapshots")
	if _, err := collection.InsertOne(ctx, snap); err != nil {
		logger.GetLogger().WithField("error", err).Warn("Storing health snapshot failed")
	}
}

func (h *HealthRepository) History(ctx context.Context, limit int) ([]*model.HealthSnapshot, error) {
	if h.mongoDb == nil {
		return nil, fmt.Errorf("health history requires Mongo")
	}
	if limit <= 0 {
		limit = 20
	}
	collection := h.mongoDb.Database("trackpub").Collection("health_snapshots")
	opts := options.Find().SetSort(bson.D{{Key: "taken_at", Value: -1}}).SetLimit(int64(limit))
	cursor, err := collection.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, err
	}
	defer func(cursor *mongo.Cursor, ctx context.Context) {
		if err := cursor.Close(ctx); err != nil {
			logger.GetLogger().WithField("error", err).Error("Error while closing cursor")
		}
	}(cursor, ctx)

	var snaps []*model.HealthSnapshot
	for cursor.Next(ctx) {
		var snap model.HealthSnapshot
		if err := cursor.Decode(&snap); err != nil {
			logger.GetLogger().WithField("error", err).Error("Error while decoding snapshot")
			continue
		}
		snaps = append(snaps, &snap)
	}
	return snaps, cursor.Err()
}
