package persistence

import (
	"context"
	"database/sql"
	"time"

	"trackpub/domain/model"
	"trackpub/domain/repository"
)

// JobRepository implements the background job queue for PostgreSQL.
type JobRepository struct {
	db *sql.DB
}

func NewJobRepository(db *sql.DB) repository.ITrackJob { return &JobRepository{db: db} }

func scanJob(row interface{ Scan(...interface{}) error }) (*model.TrackJob, error) {
	j := &model.TrackJob{}
	var lastErr sql.NullString
	if err := row.Scan(&j.ID, &j.TrackID, &j.Kind, &j.Status, &j.Attempts, &lastErr, &j.CreatedAt, &j.UpdatedAt); err != nil {
		return nil, err
	}
	if lastErr.Valid {
		j.LastError = &lastErr.String
	}
	return j, nil
}

func (r *JobRepository) Enqueue(ctx context.Context, trackID int64, kind string) (*model.TrackJob, error) {
	now := time.Now().UTC()
	job := &model.TrackJob{TrackID: trackID, Kind: kind, Status: model.JobStatusPending, CreatedAt: now, UpdatedAt: now}
	q := `INSERT INTO track_jobs (track_id, kind, status, attempts, created_at, updated_at) VALUES ($1,$2,$3,0,$4,$4) RETURNING id`
	if err := r.db.QueryRowContext(ctx, q, trackID, kind, model.JobStatusPending, now).Scan(&job.ID); err != nil {
		return nil, err
	}
	return job, nil
}

func (r *JobRepository) FetchPending(ctx context.Context, limit int) ([]*model.TrackJob, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, track_id, kind, status, attempts, last_error, created_at, updated_at
		FROM track_jobs WHERE status='pending' ORDER BY created_at ASC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var jobs []*model.TrackJob
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

func (r *JobRepository) Claim(ctx context.Context, jobID int64) (bool, error) {
	// Conditional status flip; losing claimers see zero rows affected.
	res, err := r.db.ExecContext(ctx, `UPDATE track_jobs SET status='running', updated_at=$1 WHERE id=$2 AND status='pending'`,
		time.Now().UTC(), jobID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *JobRepository) MarkResult(ctx context.Context, jobID int64, status string, errMsg *string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE track_jobs SET status=$1, attempts=attempts+1, last_error=$2, updated_at=$3 WHERE id=$4`,
		status, errMsg, time.Now().UTC(), jobID)
	return err
}

func (r *JobRepository) Requeue(ctx context.Context, jobID int64, errMsg *string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE track_jobs SET status='pending', attempts=attempts+1, last_error=$1, updated_at=$2 WHERE id=$3`,
		errMsg, time.Now().UTC(), jobID)
	return err
}

func (r *JobRepository) GetByID(ctx context.Context, jobID int64) (*model.TrackJob, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, track_id, kind, status, attempts, last_error, created_at, updated_at FROM track_jobs WHERE id=$1`, jobID)
	return scanJob(row)
}

// Ensure interface compliance (compile-time)
var _ repository.ITrackJob = (*JobRepository)(nil)
