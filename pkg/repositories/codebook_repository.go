package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/gradeline-systems/codebook-engine/pkg/apperrors"
	"github.com/gradeline-systems/codebook-engine/pkg/database"
	"github.com/gradeline-systems/codebook-engine/pkg/models"
)

// CodebookRepository provides data access for codebooks.
type CodebookRepository interface {
	Create(ctx context.Context, codebook *models.Codebook) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Codebook, error)
	ListByClient(ctx context.Context, clientID uuid.UUID, codebookType models.CodebookType, limit int) ([]*models.Codebook, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

type codebookRepository struct {
	db *database.DB
}

// NewCodebookRepository creates a new CodebookRepository.
func NewCodebookRepository(db *database.DB) CodebookRepository {
	return &codebookRepository{db: db}
}

var _ CodebookRepository = (*codebookRepository)(nil)

func (r *codebookRepository) Create(ctx context.Context, codebook *models.Codebook) error {
	now := time.Now()
	codebook.CreatedAt = now
	codebook.UpdatedAt = now
	if codebook.ID == uuid.Nil {
		codebook.ID = uuid.New()
	}

	query := `
		INSERT INTO codebooks (id, client_id, name, type, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.Exec(ctx, query,
		codebook.ID, codebook.ClientID, codebook.Name, codebook.Type,
		codebook.Description, codebook.CreatedAt, codebook.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create codebook: %w", err)
	}

	return nil
}

func (r *codebookRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Codebook, error) {
	query := `
		SELECT id, client_id, name, type, COALESCE(description, ''), created_at, updated_at, deleted_at
		FROM codebooks
		WHERE id = $1 AND deleted_at IS NULL`

	row := r.db.QueryRow(ctx, query, id)
	codebook, err := scanCodebook(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get codebook: %w", err)
	}
	return codebook, nil
}

func (r *codebookRepository) ListByClient(ctx context.Context, clientID uuid.UUID, codebookType models.CodebookType, limit int) ([]*models.Codebook, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, client_id, name, type, COALESCE(description, ''), created_at, updated_at, deleted_at
		FROM codebooks
		WHERE client_id = $1 AND deleted_at IS NULL
		  AND ($2 = '' OR type = $2)
		ORDER BY created_at DESC
		LIMIT $3`

	rows, err := r.db.Query(ctx, query, clientID, string(codebookType), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list codebooks: %w", err)
	}
	defer rows.Close()

	var codebooks []*models.Codebook
	for rows.Next() {
		codebook, err := scanCodebook(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan codebook: %w", err)
		}
		codebooks = append(codebooks, codebook)
	}
	return codebooks, rows.Err()
}

func (r *codebookRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE codebooks SET deleted_at = now(), updated_at = now() WHERE id = $1 AND deleted_at IS NULL`

	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete codebook: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("codebook %s: %w", id, apperrors.ErrNotFound)
	}
	return nil
}

func scanCodebook(row pgx.Row) (*models.Codebook, error) {
	var codebook models.Codebook
	err := row.Scan(
		&codebook.ID, &codebook.ClientID, &codebook.Name, &codebook.Type,
		&codebook.Description, &codebook.CreatedAt, &codebook.UpdatedAt, &codebook.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &codebook, nil
}
