package handlers

import (
	"context"

	"github.com/google/uuid"

	"github.com/gradeline-systems/codebook-engine/pkg/models"
	"github.com/gradeline-systems/codebook-engine/pkg/repositories"
	"github.com/gradeline-systems/codebook-engine/pkg/services"
)

// mockJobService implements services.JobService with function fields.
type mockJobService struct {
	CreateFunc func(ctx context.Context, clientID uuid.UUID, jobType models.JobType) (*models.Job, error)
	GetFunc    func(ctx context.Context, id uuid.UUID) (*models.Job, error)
	UpdateFunc func(ctx context.Context, id uuid.UUID, update models.JobUpdate) (*models.Job, error)
}

var _ services.JobService = (*mockJobService)(nil)

func (m *mockJobService) Create(ctx context.Context, clientID uuid.UUID, jobType models.JobType) (*models.Job, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, clientID, jobType)
	}
	return &models.Job{ID: uuid.New(), ClientID: clientID, JobType: jobType, Status: models.JobStatusPending}, nil
}

func (m *mockJobService) Get(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockJobService) Update(ctx context.Context, id uuid.UUID, update models.JobUpdate) (*models.Job, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, update)
	}
	return nil, nil
}

// mockUploadService records pipeline invocations and signals completion so
// tests can wait on the fire-and-forget goroutine.
type mockUploadService struct {
	ProcessUploadFunc func(ctx context.Context, jobID uuid.UUID, req services.UploadRequest)
	Started           chan services.UploadRequest
}

var _ services.UploadService = (*mockUploadService)(nil)

func newMockUploadService() *mockUploadService {
	return &mockUploadService{Started: make(chan services.UploadRequest, 1)}
}

func (m *mockUploadService) ProcessUpload(ctx context.Context, jobID uuid.UUID, req services.UploadRequest) {
	if m.ProcessUploadFunc != nil {
		m.ProcessUploadFunc(ctx, jobID, req)
	}
	m.Started <- req
}

// mockCodebookService implements services.CodebookService.
type mockCodebookService struct {
	CreateFunc          func(ctx context.Context, clientID uuid.UUID, name string, codebookType models.CodebookType, description string) (*models.Codebook, error)
	GetFunc             func(ctx context.Context, id uuid.UUID) (*models.Codebook, error)
	ListFunc            func(ctx context.Context, clientID uuid.UUID, codebookType models.CodebookType, limit int) ([]*models.Codebook, error)
	ListVersionsFunc    func(ctx context.Context, codebookID uuid.UUID) ([]*models.CodebookVersion, error)
	ListItemsFunc       func(ctx context.Context, versionID uuid.UUID, filter repositories.ItemFilter) ([]*models.CodebookItem, error)
	ActivateVersionFunc func(ctx context.Context, codebookID, versionID uuid.UUID) error
	DeleteFunc          func(ctx context.Context, id uuid.UUID) error
}

var _ services.CodebookService = (*mockCodebookService)(nil)

func (m *mockCodebookService) Create(ctx context.Context, clientID uuid.UUID, name string, codebookType models.CodebookType, description string) (*models.Codebook, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, clientID, name, codebookType, description)
	}
	return nil, nil
}

func (m *mockCodebookService) Get(ctx context.Context, id uuid.UUID) (*models.Codebook, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockCodebookService) List(ctx context.Context, clientID uuid.UUID, codebookType models.CodebookType, limit int) ([]*models.Codebook, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, clientID, codebookType, limit)
	}
	return nil, nil
}

func (m *mockCodebookService) ListVersions(ctx context.Context, codebookID uuid.UUID) ([]*models.CodebookVersion, error) {
	if m.ListVersionsFunc != nil {
		return m.ListVersionsFunc(ctx, codebookID)
	}
	return nil, nil
}

func (m *mockCodebookService) ListItems(ctx context.Context, versionID uuid.UUID, filter repositories.ItemFilter) ([]*models.CodebookItem, error) {
	if m.ListItemsFunc != nil {
		return m.ListItemsFunc(ctx, versionID, filter)
	}
	return nil, nil
}

func (m *mockCodebookService) ActivateVersion(ctx context.Context, codebookID, versionID uuid.UUID) error {
	if m.ActivateVersionFunc != nil {
		return m.ActivateVersionFunc(ctx, codebookID, versionID)
	}
	return nil
}

func (m *mockCodebookService) Delete(ctx context.Context, id uuid.UUID) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}
