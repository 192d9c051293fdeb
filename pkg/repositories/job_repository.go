package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/gradeline-systems/codebook-engine/pkg/database"
	"github.com/gradeline-systems/codebook-engine/pkg/models"
)

// JobRepository provides data access for jobs.
type JobRepository interface {
	Create(ctx context.Context, job *models.Job) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Job, error)
	Update(ctx context.Context, id uuid.UUID, update models.JobUpdate) (*models.Job, error)
}

type jobRepository struct {
	db *database.DB
}

// NewJobRepository creates a new JobRepository.
func NewJobRepository(db *database.DB) JobRepository {
	return &jobRepository{db: db}
}

var _ JobRepository = (*jobRepository)(nil)

func (r *jobRepository) Create(ctx context.Context, job *models.Job) error {
	job.CreatedAt = time.Now()
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	if job.Status == "" {
		job.Status = models.JobStatusPending
	}

	resultJSON, err := marshalJSONB(job.Result)
	if err != nil {
		return fmt.Errorf("failed to marshal job result: %w", err)
	}

	query := `
		INSERT INTO jobs (
			id, client_id, codebook_id, job_type, status, progress, result,
			error, started_at, completed_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err = r.db.Exec(ctx, query,
		job.ID, job.ClientID, job.CodebookID, job.JobType, job.Status,
		job.Progress, resultJSON, nullableString(job.Error),
		job.StartedAt, job.CompletedAt, job.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}

	return nil
}

func (r *jobRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	query := `
		SELECT id, client_id, codebook_id, job_type, status, progress, result,
		       COALESCE(error, ''), started_at, completed_at, created_at
		FROM jobs
		WHERE id = $1`

	row := r.db.QueryRow(ctx, query, id)
	job, err := scanJob(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return job, nil
}

// Update applies a partial update and returns the updated job. Nil fields in
// the update are left untouched.
func (r *jobRepository) Update(ctx context.Context, id uuid.UUID, update models.JobUpdate) (*models.Job, error) {
	var (
		sets []string
		args []any
	)
	args = append(args, id)

	addSet := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if update.Status != nil {
		addSet("status", *update.Status)
	}
	if update.Progress != nil {
		addSet("progress", *update.Progress)
	}
	if update.CodebookID != nil {
		addSet("codebook_id", *update.CodebookID)
	}
	if update.Result != nil {
		resultJSON, err := marshalJSONB(update.Result)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal job result: %w", err)
		}
		addSet("result", resultJSON)
	}
	if update.Error != nil {
		addSet("error", *update.Error)
	}
	if update.StartedAt != nil {
		addSet("started_at", *update.StartedAt)
	}
	if update.CompletedAt != nil {
		addSet("completed_at", *update.CompletedAt)
	}

	if len(sets) == 0 {
		return r.GetByID(ctx, id)
	}

	query := fmt.Sprintf(`
		UPDATE jobs SET %s
		WHERE id = $1
		RETURNING id, client_id, codebook_id, job_type, status, progress, result,
		          COALESCE(error, ''), started_at, completed_at, created_at`,
		strings.Join(sets, ", "))

	row := r.db.QueryRow(ctx, query, args...)
	job, err := scanJob(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update job: %w", err)
	}
	return job, nil
}

func scanJob(row pgx.Row) (*models.Job, error) {
	var (
		job        models.Job
		resultJSON []byte
	)
	err := row.Scan(
		&job.ID, &job.ClientID, &job.CodebookID, &job.JobType, &job.Status,
		&job.Progress, &resultJSON, &job.Error, &job.StartedAt,
		&job.CompletedAt, &job.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(resultJSON) > 0 {
		if err := json.Unmarshal(resultJSON, &job.Result); err != nil {
			return nil, fmt.Errorf("failed to unmarshal job result: %w", err)
		}
	}
	return &job, nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
