package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/gradeline-systems/codebook-engine/pkg/apperrors"
	"github.com/gradeline-systems/codebook-engine/pkg/models"
	"github.com/gradeline-systems/codebook-engine/pkg/repositories"
)

// jobCacheTTL bounds staleness for polled job reads when Redis is available.
const jobCacheTTL = 5 * time.Second

// JobService manages asynchronous job records and enforces the status
// state machine on writes.
type JobService interface {
	Create(ctx context.Context, clientID uuid.UUID, jobType models.JobType) (*models.Job, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Job, error)
	Update(ctx context.Context, id uuid.UUID, update models.JobUpdate) (*models.Job, error)
}

type jobService struct {
	repo   repositories.JobRepository
	cache  *redis.Client
	logger *zap.Logger
}

var _ JobService = (*jobService)(nil)

// NewJobService creates a JobService. cache may be nil, in which case all
// reads go to the repository.
func NewJobService(repo repositories.JobRepository, cache *redis.Client, logger *zap.Logger) JobService {
	return &jobService{
		repo:   repo,
		cache:  cache,
		logger: logger.Named("job-service"),
	}
}

func (s *jobService) Create(ctx context.Context, clientID uuid.UUID, jobType models.JobType) (*models.Job, error) {
	job := &models.Job{
		ID:       uuid.New(),
		ClientID: clientID,
		JobType:  jobType,
		Status:   models.JobStatusPending,
		Progress: 0,
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}

	s.logger.Info("Job created",
		zap.String("job_id", job.ID.String()),
		zap.String("job_type", string(jobType)))
	return job, nil
}

func (s *jobService) Get(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	if cached := s.readCache(ctx, id); cached != nil {
		return cached, nil
	}

	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	if job == nil {
		return nil, fmt.Errorf("job %s: %w", id, apperrors.ErrNotFound)
	}

	s.writeCache(ctx, job)
	return job, nil
}

// Update applies a partial update. When the update carries a status change,
// the transition is validated against the current status, and a move to
// running that has no StartedAt gets one stamped.
func (s *jobService) Update(ctx context.Context, id uuid.UUID, update models.JobUpdate) (*models.Job, error) {
	if update.Status != nil {
		current, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("get job for update: %w", err)
		}
		if current == nil {
			return nil, fmt.Errorf("job %s: %w", id, apperrors.ErrNotFound)
		}
		if current.Status != *update.Status && !current.Status.CanTransitionTo(*update.Status) {
			return nil, fmt.Errorf("job %s cannot transition from %s to %s: %w",
				id, current.Status, *update.Status, apperrors.ErrConflict)
		}
		if *update.Status == models.JobStatusRunning && update.StartedAt == nil && current.StartedAt == nil {
			now := time.Now().UTC()
			update.StartedAt = &now
		}
	}

	job, err := s.repo.Update(ctx, id, update)
	if err != nil {
		return nil, fmt.Errorf("update job: %w", err)
	}

	s.invalidateCache(ctx, id)
	return job, nil
}

func jobCacheKey(id uuid.UUID) string {
	return "job:" + id.String()
}

func (s *jobService) readCache(ctx context.Context, id uuid.UUID) *models.Job {
	if s.cache == nil {
		return nil
	}
	data, err := s.cache.Get(ctx, jobCacheKey(id)).Bytes()
	if err != nil {
		return nil
	}
	var job models.Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil
	}
	return &job
}

func (s *jobService) writeCache(ctx context.Context, job *models.Job) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(job)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, jobCacheKey(job.ID), data, jobCacheTTL).Err(); err != nil {
		s.logger.Debug("Job cache write failed", zap.Error(err))
	}
}

func (s *jobService) invalidateCache(ctx context.Context, id uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, jobCacheKey(id)).Err(); err != nil {
		s.logger.Debug("Job cache invalidation failed", zap.Error(err))
	}
}
