package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/gradeline-systems/codebook-engine/pkg/database"
	"github.com/gradeline-systems/codebook-engine/pkg/models"
)

// ItemRepository provides data access for codebook items.
type ItemRepository interface {
	BulkInsert(ctx context.Context, items []*models.CodebookItem) error
	ListByVersion(ctx context.Context, versionID uuid.UUID, filter ItemFilter) ([]*models.CodebookItem, error)
	CountByVersion(ctx context.Context, versionID uuid.UUID) (int, error)
}

// ItemFilter narrows item listings. Zero values mean no filtering.
type ItemFilter struct {
	CSIDivision string
	Application string
	Limit       int
}

type itemRepository struct {
	db *database.DB
}

// NewItemRepository creates a new ItemRepository.
func NewItemRepository(db *database.DB) ItemRepository {
	return &itemRepository{db: db}
}

var _ ItemRepository = (*itemRepository)(nil)

// BulkInsert writes all items in one batch. Item order is preserved by
// created_at plus the insertion-ordered batch; IDs are assigned here.
func (r *itemRepository) BulkInsert(ctx context.Context, items []*models.CodebookItem) error {
	if len(items) == 0 {
		return nil
	}

	now := time.Now()
	batch := &pgx.Batch{}

	query := `
		INSERT INTO codebook_items (
			id, version_id, client_id, code, original_label, description,
			csi_division, csi_section, application, metadata, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	for i, item := range items {
		if item.ID == uuid.Nil {
			item.ID = uuid.New()
		}
		// Nudge created_at per row so created_at ordering matches batch order.
		item.CreatedAt = now.Add(time.Duration(i) * time.Microsecond)

		metadataJSON, err := marshalJSONB(item.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal item metadata: %w", err)
		}

		batch.Queue(query,
			item.ID, item.VersionID, item.ClientID, item.Code, item.OriginalLabel,
			item.Description, item.CSIDivision, item.CSISection,
			string(item.Application), metadataJSON, item.CreatedAt,
		)
	}

	results := r.db.SendBatch(ctx, batch)
	defer results.Close()

	for range items {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to insert items: %w", err)
		}
	}

	return nil
}

func (r *itemRepository) ListByVersion(ctx context.Context, versionID uuid.UUID, filter ItemFilter) ([]*models.CodebookItem, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, version_id, client_id, code, original_label, COALESCE(description, ''),
		       COALESCE(csi_division, ''), COALESCE(csi_section, ''), COALESCE(application, ''),
		       metadata, created_at
		FROM codebook_items
		WHERE version_id = $1
		  AND ($2 = '' OR csi_division = $2)
		  AND ($3 = '' OR application = $3)
		ORDER BY created_at
		LIMIT $4`

	rows, err := r.db.Query(ctx, query, versionID, filter.CSIDivision, filter.Application, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	var items []*models.CodebookItem
	for rows.Next() {
		var (
			item         models.CodebookItem
			metadataJSON []byte
		)
		err := rows.Scan(
			&item.ID, &item.VersionID, &item.ClientID, &item.Code, &item.OriginalLabel,
			&item.Description, &item.CSIDivision, &item.CSISection, &item.Application,
			&metadataJSON, &item.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &item.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal item metadata: %w", err)
			}
		}
		items = append(items, &item)
	}
	return items, rows.Err()
}

func (r *itemRepository) CountByVersion(ctx context.Context, versionID uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM codebook_items WHERE version_id = $1`, versionID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count items: %w", err)
	}
	return count, nil
}
