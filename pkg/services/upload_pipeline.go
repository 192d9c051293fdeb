package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gradeline-systems/codebook-engine/pkg/models"
	"github.com/gradeline-systems/codebook-engine/pkg/prompts"
	"github.com/gradeline-systems/codebook-engine/pkg/repositories"
)

// Progress checkpoints for one pipeline run, non-decreasing in step order.
const (
	progressStarted   = 5
	progressCodebook  = 15
	progressVersion   = 25
	progressAnalyzing = 30
	progressAnalyzed  = 70
	progressPersisted = 85
	progressDone      = 100
)

// UploadRequest carries everything the pipeline needs for one upload. Rows
// are already ingested and validated; input-validation failures never reach
// the pipeline.
type UploadRequest struct {
	ClientID     uuid.UUID
	Name         string
	CodebookType models.CodebookType
	Description  string
	Rows         []models.RowRecord
	Rules        map[string]any
}

// UploadService drives the upload-to-analysis pipeline for one job.
type UploadService interface {
	// ProcessUpload runs the full pipeline, recording progress and the
	// terminal state on the job. It never returns an error: any step
	// failure lands on the job record instead, since the uploader already
	// received its acknowledgment.
	ProcessUpload(ctx context.Context, jobID uuid.UUID, req UploadRequest)
}

type uploadService struct {
	codebooks repositories.CodebookRepository
	versions  repositories.VersionRepository
	items     repositories.ItemRepository
	jobs      JobService
	analysis  AnalysisService
	logger    *zap.Logger
}

var _ UploadService = (*uploadService)(nil)

// NewUploadService creates an UploadService.
func NewUploadService(
	codebooks repositories.CodebookRepository,
	versions repositories.VersionRepository,
	items repositories.ItemRepository,
	jobs JobService,
	analysis AnalysisService,
	logger *zap.Logger,
) UploadService {
	return &uploadService{
		codebooks: codebooks,
		versions:  versions,
		items:     items,
		jobs:      jobs,
		analysis:  analysis,
		logger:    logger.Named("upload-pipeline"),
	}
}

func (s *uploadService) ProcessUpload(ctx context.Context, jobID uuid.UUID, req UploadRequest) {
	if err := s.run(ctx, jobID, req); err != nil {
		s.logger.Error("Upload pipeline failed",
			zap.String("job_id", jobID.String()),
			zap.Error(err))
		s.failJob(ctx, jobID, err)
	}
}

// run executes the pipeline steps in order. Steps are not wrapped in a
// transaction: a crash mid-run can leave a codebook or version with no
// items and a job stuck in running.
func (s *uploadService) run(ctx context.Context, jobID uuid.UUID, req UploadRequest) error {
	running := models.JobStatusRunning
	if _, err := s.jobs.Update(ctx, jobID, models.JobUpdate{
		Status:   &running,
		Progress: intPtr(progressStarted),
	}); err != nil {
		return fmt.Errorf("start job: %w", err)
	}

	codebook := &models.Codebook{
		ID:          uuid.New(),
		ClientID:    req.ClientID,
		Name:        req.Name,
		Type:        req.CodebookType,
		Description: req.Description,
	}
	if err := s.codebooks.Create(ctx, codebook); err != nil {
		return fmt.Errorf("create codebook: %w", err)
	}
	if _, err := s.jobs.Update(ctx, jobID, models.JobUpdate{
		Progress:   intPtr(progressCodebook),
		CodebookID: &codebook.ID,
	}); err != nil {
		return fmt.Errorf("attach codebook to job: %w", err)
	}

	version := &models.CodebookVersion{
		ID:            uuid.New(),
		CodebookID:    codebook.ID,
		VersionNumber: 1,
		Label:         "Initial import",
		Notes:         fmt.Sprintf("Imported %d items from uploaded file", len(req.Rows)),
		IsActive:      true,
	}
	if err := s.versions.Create(ctx, version); err != nil {
		return fmt.Errorf("create version: %w", err)
	}
	if err := s.setProgress(ctx, jobID, progressVersion); err != nil {
		return err
	}

	if err := s.setProgress(ctx, jobID, progressAnalyzing); err != nil {
		return err
	}
	analysis, err := s.analysis.Analyze(ctx, req.Rows, req.CodebookType, req.Rules)
	if err != nil {
		return fmt.Errorf("analyze rows: %w", err)
	}
	if err := s.setProgress(ctx, jobID, progressAnalyzed); err != nil {
		return err
	}

	reconciled := ReconcileItems(analysis.Items, req.Rows, version.ID, req.ClientID)
	items := make([]*models.CodebookItem, len(reconciled))
	for i := range reconciled {
		items[i] = &reconciled[i]
	}
	if err := s.items.BulkInsert(ctx, items); err != nil {
		return fmt.Errorf("persist items: %w", err)
	}
	if err := s.setProgress(ctx, jobID, progressPersisted); err != nil {
		return err
	}

	if err := s.versions.AttachAnalysis(ctx, version.ID, analysis.AnalysisSummary, analysis.AnalysisDetails, prompts.AnalysisPromptVersion); err != nil {
		return fmt.Errorf("attach analysis: %w", err)
	}

	completed := models.JobStatusCompleted
	now := time.Now().UTC()
	if _, err := s.jobs.Update(ctx, jobID, models.JobUpdate{
		Status:   &completed,
		Progress: intPtr(progressDone),
		Result: map[string]any{
			"codebook_id":      codebook.ID.String(),
			"version_id":       version.ID.String(),
			"item_count":       len(items),
			"analysis_summary": analysis.AnalysisSummary,
		},
		CompletedAt: &now,
	}); err != nil {
		return fmt.Errorf("complete job: %w", err)
	}

	s.logger.Info("Upload pipeline completed",
		zap.String("job_id", jobID.String()),
		zap.String("codebook_id", codebook.ID.String()),
		zap.Int("item_count", len(items)))
	return nil
}

func (s *uploadService) setProgress(ctx context.Context, jobID uuid.UUID, progress int) error {
	if _, err := s.jobs.Update(ctx, jobID, models.JobUpdate{Progress: intPtr(progress)}); err != nil {
		return fmt.Errorf("set progress %d: %w", progress, err)
	}
	return nil
}

func (s *uploadService) failJob(ctx context.Context, jobID uuid.UUID, cause error) {
	failed := models.JobStatusFailed
	msg := cause.Error()
	now := time.Now().UTC()
	if _, err := s.jobs.Update(ctx, jobID, models.JobUpdate{
		Status:      &failed,
		Error:       &msg,
		CompletedAt: &now,
	}); err != nil {
		s.logger.Error("Failed to mark job failed",
			zap.String("job_id", jobID.String()),
			zap.Error(err))
	}
}

func intPtr(v int) *int {
	return &v
}
