package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/gradeline-systems/codebook-engine/pkg/database"
	"github.com/gradeline-systems/codebook-engine/pkg/models"
)

// VersionRepository provides data access for codebook versions.
type VersionRepository interface {
	Create(ctx context.Context, version *models.CodebookVersion) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.CodebookVersion, error)
	ListByCodebook(ctx context.Context, codebookID uuid.UUID, limit int) ([]*models.CodebookVersion, error)
	AttachAnalysis(ctx context.Context, id uuid.UUID, summary string, details map[string]any, promptVersion string) error
	SetActive(ctx context.Context, codebookID, versionID uuid.UUID) error
}

type versionRepository struct {
	db *database.DB
}

// NewVersionRepository creates a new VersionRepository.
func NewVersionRepository(db *database.DB) VersionRepository {
	return &versionRepository{db: db}
}

var _ VersionRepository = (*versionRepository)(nil)

func (r *versionRepository) Create(ctx context.Context, version *models.CodebookVersion) error {
	version.CreatedAt = time.Now()
	if version.ID == uuid.Nil {
		version.ID = uuid.New()
	}

	detailsJSON, err := marshalJSONB(version.AnalysisDetails)
	if err != nil {
		return fmt.Errorf("failed to marshal analysis_details: %w", err)
	}

	query := `
		INSERT INTO codebook_versions (
			id, codebook_id, version_number, label, notes, is_active,
			analysis_summary, analysis_details, prompt_version, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err = r.db.Exec(ctx, query,
		version.ID, version.CodebookID, version.VersionNumber, version.Label,
		version.Notes, version.IsActive, version.AnalysisSummary, detailsJSON,
		version.PromptVersion, version.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create version: %w", err)
	}

	return nil
}

func (r *versionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.CodebookVersion, error) {
	query := versionSelect + ` WHERE id = $1`

	row := r.db.QueryRow(ctx, query, id)
	version, err := scanVersion(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get version: %w", err)
	}
	return version, nil
}

func (r *versionRepository) ListByCodebook(ctx context.Context, codebookID uuid.UUID, limit int) ([]*models.CodebookVersion, error) {
	if limit <= 0 {
		limit = 50
	}

	query := versionSelect + `
		WHERE codebook_id = $1
		ORDER BY version_number DESC
		LIMIT $2`

	rows, err := r.db.Query(ctx, query, codebookID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list versions: %w", err)
	}
	defer rows.Close()

	var versions []*models.CodebookVersion
	for rows.Next() {
		version, err := scanVersion(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan version: %w", err)
		}
		versions = append(versions, version)
	}
	return versions, rows.Err()
}

func (r *versionRepository) AttachAnalysis(ctx context.Context, id uuid.UUID, summary string, details map[string]any, promptVersion string) error {
	detailsJSON, err := marshalJSONB(details)
	if err != nil {
		return fmt.Errorf("failed to marshal analysis_details: %w", err)
	}

	query := `
		UPDATE codebook_versions
		SET analysis_summary = $2, analysis_details = $3, prompt_version = $4
		WHERE id = $1`

	_, err = r.db.Exec(ctx, query, id, summary, detailsJSON, promptVersion)
	if err != nil {
		return fmt.Errorf("failed to attach analysis: %w", err)
	}
	return nil
}

// SetActive deactivates every version of the codebook, then activates the
// target. Two separate statements, not a transaction: a crash in between
// leaves no version active until the next activation.
func (r *versionRepository) SetActive(ctx context.Context, codebookID, versionID uuid.UUID) error {
	if _, err := r.db.Exec(ctx,
		`UPDATE codebook_versions SET is_active = false WHERE codebook_id = $1`, codebookID); err != nil {
		return fmt.Errorf("failed to deactivate versions: %w", err)
	}

	if _, err := r.db.Exec(ctx,
		`UPDATE codebook_versions SET is_active = true WHERE id = $1`, versionID); err != nil {
		return fmt.Errorf("failed to activate version: %w", err)
	}

	return nil
}

const versionSelect = `
	SELECT id, codebook_id, version_number, COALESCE(label, ''), COALESCE(notes, ''),
	       is_active, COALESCE(analysis_summary, ''), analysis_details,
	       COALESCE(prompt_version, ''), created_at
	FROM codebook_versions`

func scanVersion(row pgx.Row) (*models.CodebookVersion, error) {
	var (
		version     models.CodebookVersion
		detailsJSON []byte
	)
	err := row.Scan(
		&version.ID, &version.CodebookID, &version.VersionNumber, &version.Label,
		&version.Notes, &version.IsActive, &version.AnalysisSummary, &detailsJSON,
		&version.PromptVersion, &version.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(detailsJSON) > 0 {
		if err := json.Unmarshal(detailsJSON, &version.AnalysisDetails); err != nil {
			return nil, fmt.Errorf("failed to unmarshal analysis_details: %w", err)
		}
	}
	return &version, nil
}

// marshalJSONB marshals a map for a JSONB column, writing NULL for nil maps.
func marshalJSONB(m map[string]any) (any, error) {
	if m == nil {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return b, nil
}
