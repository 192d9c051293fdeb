package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/gradeline-systems/codebook-engine/pkg/models"
	"github.com/gradeline-systems/codebook-engine/pkg/repositories"
)

// mockCodebookRepository implements repositories.CodebookRepository with
// function fields.
type mockCodebookRepository struct {
	CreateFunc       func(ctx context.Context, codebook *models.Codebook) error
	GetByIDFunc      func(ctx context.Context, id uuid.UUID) (*models.Codebook, error)
	ListByClientFunc func(ctx context.Context, clientID uuid.UUID, codebookType models.CodebookType, limit int) ([]*models.Codebook, error)
	SoftDeleteFunc   func(ctx context.Context, id uuid.UUID) error

	Created []*models.Codebook
}

var _ repositories.CodebookRepository = (*mockCodebookRepository)(nil)

func (m *mockCodebookRepository) Create(ctx context.Context, codebook *models.Codebook) error {
	m.Created = append(m.Created, codebook)
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, codebook)
	}
	return nil
}

func (m *mockCodebookRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Codebook, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockCodebookRepository) ListByClient(ctx context.Context, clientID uuid.UUID, codebookType models.CodebookType, limit int) ([]*models.Codebook, error) {
	if m.ListByClientFunc != nil {
		return m.ListByClientFunc(ctx, clientID, codebookType, limit)
	}
	return nil, nil
}

func (m *mockCodebookRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	if m.SoftDeleteFunc != nil {
		return m.SoftDeleteFunc(ctx, id)
	}
	return nil
}

// mockVersionRepository implements repositories.VersionRepository.
type mockVersionRepository struct {
	CreateFunc         func(ctx context.Context, version *models.CodebookVersion) error
	GetByIDFunc        func(ctx context.Context, id uuid.UUID) (*models.CodebookVersion, error)
	ListByCodebookFunc func(ctx context.Context, codebookID uuid.UUID, limit int) ([]*models.CodebookVersion, error)
	AttachAnalysisFunc func(ctx context.Context, id uuid.UUID, summary string, details map[string]any, promptVersion string) error
	SetActiveFunc      func(ctx context.Context, codebookID, versionID uuid.UUID) error

	Created          []*models.CodebookVersion
	AttachedSummary  string
	AttachedDetails  map[string]any
	AttachedPromptV  string
	AttachAnalysisID uuid.UUID
}

var _ repositories.VersionRepository = (*mockVersionRepository)(nil)

func (m *mockVersionRepository) Create(ctx context.Context, version *models.CodebookVersion) error {
	m.Created = append(m.Created, version)
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, version)
	}
	return nil
}

func (m *mockVersionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.CodebookVersion, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockVersionRepository) ListByCodebook(ctx context.Context, codebookID uuid.UUID, limit int) ([]*models.CodebookVersion, error) {
	if m.ListByCodebookFunc != nil {
		return m.ListByCodebookFunc(ctx, codebookID, limit)
	}
	return nil, nil
}

func (m *mockVersionRepository) AttachAnalysis(ctx context.Context, id uuid.UUID, summary string, details map[string]any, promptVersion string) error {
	m.AttachAnalysisID = id
	m.AttachedSummary = summary
	m.AttachedDetails = details
	m.AttachedPromptV = promptVersion
	if m.AttachAnalysisFunc != nil {
		return m.AttachAnalysisFunc(ctx, id, summary, details, promptVersion)
	}
	return nil
}

func (m *mockVersionRepository) SetActive(ctx context.Context, codebookID, versionID uuid.UUID) error {
	if m.SetActiveFunc != nil {
		return m.SetActiveFunc(ctx, codebookID, versionID)
	}
	return nil
}

// mockItemRepository implements repositories.ItemRepository.
type mockItemRepository struct {
	BulkInsertFunc     func(ctx context.Context, items []*models.CodebookItem) error
	ListByVersionFunc  func(ctx context.Context, versionID uuid.UUID, filter repositories.ItemFilter) ([]*models.CodebookItem, error)
	CountByVersionFunc func(ctx context.Context, versionID uuid.UUID) (int, error)

	Inserted []*models.CodebookItem
}

var _ repositories.ItemRepository = (*mockItemRepository)(nil)

func (m *mockItemRepository) BulkInsert(ctx context.Context, items []*models.CodebookItem) error {
	m.Inserted = append(m.Inserted, items...)
	if m.BulkInsertFunc != nil {
		return m.BulkInsertFunc(ctx, items)
	}
	return nil
}

func (m *mockItemRepository) ListByVersion(ctx context.Context, versionID uuid.UUID, filter repositories.ItemFilter) ([]*models.CodebookItem, error) {
	if m.ListByVersionFunc != nil {
		return m.ListByVersionFunc(ctx, versionID, filter)
	}
	return nil, nil
}

func (m *mockItemRepository) CountByVersion(ctx context.Context, versionID uuid.UUID) (int, error) {
	if m.CountByVersionFunc != nil {
		return m.CountByVersionFunc(ctx, versionID)
	}
	return len(m.Inserted), nil
}

// fakeJobRepository is an in-memory repositories.JobRepository that records
// the status and progress history of every job it holds.
type fakeJobRepository struct {
	mu       sync.Mutex
	jobs     map[uuid.UUID]*models.Job
	Statuses []models.JobStatus
	Progress []int
}

var _ repositories.JobRepository = (*fakeJobRepository)(nil)

func newFakeJobRepository() *fakeJobRepository {
	return &fakeJobRepository{jobs: make(map[uuid.UUID]*models.Job)}
}

func (f *fakeJobRepository) Create(ctx context.Context, job *models.Job) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *job
	f.jobs[job.ID] = &copied
	f.Statuses = append(f.Statuses, job.Status)
	return nil
}

func (f *fakeJobRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[id]
	if !ok {
		return nil, nil
	}
	copied := *job
	return &copied, nil
}

func (f *fakeJobRepository) Update(ctx context.Context, id uuid.UUID, update models.JobUpdate) (*models.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[id]
	if !ok {
		return nil, fmt.Errorf("job %s not found", id)
	}
	if update.Status != nil {
		job.Status = *update.Status
		f.Statuses = append(f.Statuses, *update.Status)
	}
	if update.Progress != nil {
		job.Progress = *update.Progress
		f.Progress = append(f.Progress, *update.Progress)
	}
	if update.CodebookID != nil {
		job.CodebookID = update.CodebookID
	}
	if update.Result != nil {
		job.Result = update.Result
	}
	if update.Error != nil {
		job.Error = *update.Error
	}
	if update.StartedAt != nil {
		job.StartedAt = update.StartedAt
	}
	if update.CompletedAt != nil {
		job.CompletedAt = update.CompletedAt
	}
	copied := *job
	return &copied, nil
}

// mockAnalysisService implements AnalysisService with a function field.
type mockAnalysisService struct {
	AnalyzeFunc func(ctx context.Context, rows []models.RowRecord, codebookType models.CodebookType, rules map[string]any) (*AnalysisResult, error)
	Calls       int
}

var _ AnalysisService = (*mockAnalysisService)(nil)

func (m *mockAnalysisService) Analyze(ctx context.Context, rows []models.RowRecord, codebookType models.CodebookType, rules map[string]any) (*AnalysisResult, error) {
	m.Calls++
	if m.AnalyzeFunc != nil {
		return m.AnalyzeFunc(ctx, rows, codebookType, rules)
	}
	return &AnalysisResult{Items: []ModelItem{}}, nil
}
