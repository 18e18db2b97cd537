package repositories

import (
	"context"
	goerrors "errors"

	"github.com/jackc/pgx/v5"

	"github.com/tupiana/lexipipe/internal/domain/job"
	"github.com/tupiana/lexipipe/pkg/errors"
)

// JobRepo persists batch jobs.
type JobRepo struct {
	db querier
}

// NewJobRepo builds the repository.
func NewJobRepo(db querier) *JobRepo {
	return &JobRepo{db: db}
}

// Create implements job.Repository.
func (r *JobRepo) Create(ctx context.Context, j *job.BatchJob) error {
	_, err := r.db.Exec(ctx, `
INSERT INTO batch_jobs
	(id, status, priorities, chunk_size, chunk_index, total_chunks,
	 items_processed, items_classified, failure_reason, started_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		j.ID, string(j.Status), j.Priorities, j.ChunkSize, j.ChunkIndex, j.TotalChunks,
		j.ItemsProcessed, j.ItemsClassified, j.FailureReason, j.StartedAt, j.UpdatedAt)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "job insert failed")
	}
	return nil
}

// Update implements job.Repository.  The chunk_index guard in the WHERE
// clause enforces monotone progress at the storage layer too: a stale writer
// cannot roll a job's committed chunks back.
func (r *JobRepo) Update(ctx context.Context, j *job.BatchJob) error {
	tag, err := r.db.Exec(ctx, `
UPDATE batch_jobs SET
	status = $2, chunk_index = $3, total_chunks = $4,
	items_processed = $5, items_classified = $6,
	failure_reason = $7, updated_at = $8
WHERE id = $1 AND chunk_index <= $3`,
		j.ID, string(j.Status), j.ChunkIndex, j.TotalChunks,
		j.ItemsProcessed, j.ItemsClassified, j.FailureReason, j.UpdatedAt)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "job update failed")
	}
	if tag.RowsAffected() == 0 {
		exists, err := r.exists(ctx, j.ID)
		if err != nil {
			return err
		}
		if !exists {
			return errors.Newf(errors.ErrCodeJobNotFound, "job %s not found", j.ID)
		}
		return errors.Newf(errors.ErrCodeJobChunkRegression,
			"job %s update would regress below the committed chunk index", j.ID)
	}
	return nil
}

const selectJobSQL = `
SELECT id, status, priorities, chunk_size, chunk_index, total_chunks,
       items_processed, items_classified, failure_reason, started_at, updated_at
FROM batch_jobs`

// Get implements job.Repository.
func (r *JobRepo) Get(ctx context.Context, id string) (*job.BatchJob, error) {
	row := r.db.QueryRow(ctx, selectJobSQL+" WHERE id = $1", id)
	j, err := scanJob(row)
	if err != nil {
		if goerrors.Is(err, pgx.ErrNoRows) {
			return nil, errors.Newf(errors.ErrCodeJobNotFound, "job %s not found", id)
		}
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "job lookup failed")
	}
	return j, nil
}

// List implements job.Repository, most recent first.
func (r *JobRepo) List(ctx context.Context, limit int) ([]*job.BatchJob, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.Query(ctx, selectJobSQL+" ORDER BY started_at DESC LIMIT $1", limit)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "job list failed")
	}
	defer rows.Close()

	var out []*job.BatchJob
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "job row scan failed")
		}
		out = append(out, j)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "job rows failed")
	}
	return out, nil
}

func (r *JobRepo) exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM batch_jobs WHERE id = $1)", id).Scan(&exists)
	if err != nil {
		return false, errors.Wrap(err, errors.ErrCodeDatabaseError, "job existence check failed")
	}
	return exists, nil
}

func scanJob(row interface{ Scan(dest ...any) error }) (*job.BatchJob, error) {
	var (
		j      job.BatchJob
		status string
	)
	if err := row.Scan(&j.ID, &status, &j.Priorities, &j.ChunkSize, &j.ChunkIndex,
		&j.TotalChunks, &j.ItemsProcessed, &j.ItemsClassified, &j.FailureReason,
		&j.StartedAt, &j.UpdatedAt); err != nil {
		return nil, err
	}
	j.Status = job.Status(status)
	return &j, nil
}
