package persistence

import (
	"context"
	"database/sql"
	"time"

	"trackpub/domain/model"
	"trackpub/domain/repository"
)

// JobRepositoryMSSQL implements the background job queue for SQL Server/Azure
// SQL using database/sql.
type JobRepositoryMSSQL struct{ db *sql.DB }

func NewJobRepositoryMSSQL(db *sql.DB) repository.ITrackJob { return &JobRepositoryMSSQL{db: db} }

func (r *JobRepositoryMSSQL) Enqueue(ctx context.Context, trackID int64, kind string) (*model.TrackJob, error) {
	now := time.Now().UTC()
	job := &model.TrackJob{TrackID: trackID, Kind: kind, Status: model.JobStatusPending, CreatedAt: now, UpdatedAt: now}
	q := `INSERT INTO dbo.[track_jobs] (track_id, kind, status, attempts, created_at, updated_at)
OUTPUT INSERTED.id
VALUES (@p1,@p2,@p3,0,@p4,@p4)`
	if err := r.db.QueryRowContext(ctx, q, trackID, kind, model.JobStatusPending, now).Scan(&job.ID); err != nil {
		return nil, err
	}
	return job, nil
}

func (r *JobRepositoryMSSQL) FetchPending(ctx context.Context, limit int) ([]*model.TrackJob, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT TOP (@p1) id, track_id, kind, status, attempts, last_error, created_at, updated_at
FROM dbo.[track_jobs] WHERE status='pending' ORDER BY created_at ASC`, limit)
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

func (r *JobRepositoryMSSQL) Claim(ctx context.Context, jobID int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE dbo.[track_jobs] SET status='running', updated_at=@p1 WHERE id=@p2 AND status='pending'`,
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

func (r *JobRepositoryMSSQL) MarkResult(ctx context.Context, jobID int64, status string, errMsg *string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE dbo.[track_jobs] SET status=@p1, attempts=attempts+1, last_error=@p2, updated_at=@p3 WHERE id=@p4`,
		status, errMsg, time.Now().UTC(), jobID)
	return err
}

func (r *JobRepositoryMSSQL) Requeue(ctx context.Context, jobID int64, errMsg *string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE dbo.[track_jobs] SET status='pending', attempts=attempts+1, last_error=@p1, updated_at=@p2 WHERE id=@p3`,
		errMsg, time.Now().UTC(), jobID)
	return err
}

func (r *JobRepositoryMSSQL) GetByID(ctx context.Context, jobID int64) (*model.TrackJob, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, track_id, kind, status, attempts, last_error, created_at, updated_at FROM dbo.[track_jobs] WHERE id=@p1`, jobID)
	return scanJob(row)
}

// Ensure interface compliance
var _ repository.ITrackJob = (*JobRepositoryMSSQL)(nil)
