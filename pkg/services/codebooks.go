package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gradeline-systems/codebook-engine/pkg/apperrors"
	"github.com/gradeline-systems/codebook-engine/pkg/models"
	"github.com/gradeline-systems/codebook-engine/pkg/repositories"
)

// CodebookService manages codebook entities and their versions.
type CodebookService interface {
	Create(ctx context.Context, clientID uuid.UUID, name string, codebookType models.CodebookType, description string) (*models.Codebook, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Codebook, error)
	List(ctx context.Context, clientID uuid.UUID, codebookType models.CodebookType, limit int) ([]*models.Codebook, error)
	ListVersions(ctx context.Context, codebookID uuid.UUID) ([]*models.CodebookVersion, error)
	ListItems(ctx context.Context, versionID uuid.UUID, filter repositories.ItemFilter) ([]*models.CodebookItem, error)
	ActivateVersion(ctx context.Context, codebookID, versionID uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type codebookService struct {
	codebooks repositories.CodebookRepository
	versions  repositories.VersionRepository
	items     repositories.ItemRepository
	logger    *zap.Logger
}

var _ CodebookService = (*codebookService)(nil)

// NewCodebookService creates a CodebookService.
func NewCodebookService(
	codebooks repositories.CodebookRepository,
	versions repositories.VersionRepository,
	items repositories.ItemRepository,
	logger *zap.Logger,
) CodebookService {
	return &codebookService{
		codebooks: codebooks,
		versions:  versions,
		items:     items,
		logger:    logger.Named("codebook-service"),
	}
}

func (s *codebookService) Create(ctx context.Context, clientID uuid.UUID, name string, codebookType models.CodebookType, description string) (*models.Codebook, error) {
	if !models.IsValidCodebookType(codebookType) {
		return nil, apperrors.ErrInvalidCodebookType
	}
	codebook := &models.Codebook{
		ID:          uuid.New(),
		ClientID:    clientID,
		Name:        name,
		Type:        codebookType,
		Description: description,
	}
	if err := s.codebooks.Create(ctx, codebook); err != nil {
		return nil, fmt.Errorf("create codebook: %w", err)
	}

	s.logger.Info("Codebook created",
		zap.String("codebook_id", codebook.ID.String()),
		zap.String("type", string(codebookType)))
	return codebook, nil
}

func (s *codebookService) Get(ctx context.Context, id uuid.UUID) (*models.Codebook, error) {
	codebook, err := s.codebooks.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get codebook: %w", err)
	}
	if codebook == nil {
		return nil, fmt.Errorf("codebook %s: %w", id, apperrors.ErrNotFound)
	}
	return codebook, nil
}

func (s *codebookService) List(ctx context.Context, clientID uuid.UUID, codebookType models.CodebookType, limit int) ([]*models.Codebook, error) {
	if codebookType != "" && !models.IsValidCodebookType(codebookType) {
		return nil, apperrors.ErrInvalidCodebookType
	}
	codebooks, err := s.codebooks.ListByClient(ctx, clientID, codebookType, limit)
	if err != nil {
		return nil, fmt.Errorf("list codebooks: %w", err)
	}
	return codebooks, nil
}

func (s *codebookService) ListVersions(ctx context.Context, codebookID uuid.UUID) ([]*models.CodebookVersion, error) {
	if _, err := s.Get(ctx, codebookID); err != nil {
		return nil, err
	}
	versions, err := s.versions.ListByCodebook(ctx, codebookID, 0)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	return versions, nil
}

func (s *codebookService) ListItems(ctx context.Context, versionID uuid.UUID, filter repositories.ItemFilter) ([]*models.CodebookItem, error) {
	version, err := s.versions.GetByID(ctx, versionID)
	if err != nil {
		return nil, fmt.Errorf("get version: %w", err)
	}
	if version == nil {
		return nil, fmt.Errorf("version %s: %w", versionID, apperrors.ErrNotFound)
	}
	items, err := s.items.ListByVersion(ctx, versionID, filter)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return items, nil
}

// ActivateVersion makes versionID the single active version of its codebook.
// Deactivate-all and activate-one run as two statements, not atomically.
func (s *codebookService) ActivateVersion(ctx context.Context, codebookID, versionID uuid.UUID) error {
	version, err := s.versions.GetByID(ctx, versionID)
	if err != nil {
		return fmt.Errorf("get version: %w", err)
	}
	if version == nil || version.CodebookID != codebookID {
		return fmt.Errorf("version %s for codebook %s: %w", versionID, codebookID, apperrors.ErrNotFound)
	}
	if err := s.versions.SetActive(ctx, codebookID, versionID); err != nil {
		return fmt.Errorf("activate version: %w", err)
	}

	s.logger.Info("Version activated",
		zap.String("codebook_id", codebookID.String()),
		zap.String("version_id", versionID.String()))
	return nil
}

func (s *codebookService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.codebooks.SoftDelete(ctx, id); err != nil {
		return fmt.Errorf("delete codebook: %w", err)
	}
	s.logger.Info("Codebook deleted", zap.String("codebook_id", id.String()))
	return nil
}
