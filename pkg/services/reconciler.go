package services

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/gradeline-systems/codebook-engine/pkg/models"
)

// ReconcileItems merges model output with the original rows and produces the
// item records to persist for a version. Model-provided fields win; anything
// the model omitted is re-attached from the row whose original_label matches
// (case-insensitive, trimmed). Code uniqueness is enforced within this call:
// collisions get a -1, -2, ... suffix, and items with no code at all get a
// synthetic UNCLASSIFIED code. Output order follows model-item order, which
// becomes the persisted order within the version.
func ReconcileItems(modelItems []ModelItem, originalRows []models.RowRecord, versionID, clientID uuid.UUID) []models.CodebookItem {
	rowsByLabel := make(map[string]models.RowRecord, len(originalRows))
	for _, row := range originalRows {
		key := strings.ToLower(strings.TrimSpace(row.OriginalLabel))
		if _, exists := rowsByLabel[key]; !exists {
			rowsByLabel[key] = row
		}
	}

	seenCodes := make(map[string]bool, len(modelItems))
	items := make([]models.CodebookItem, 0, len(modelItems))

	for i, modelItem := range modelItems {
		label := modelItem.OriginalLabel
		if label == "" {
			label = fmt.Sprintf("Item %d", i+1)
		}
		row, matched := rowsByLabel[strings.ToLower(strings.TrimSpace(label))]

		code := strings.TrimSpace(modelItem.Code)
		if code == "" {
			code = fmt.Sprintf("UNCLASSIFIED-%04d", i+1)
		}
		code = uniqueCode(code, seenCodes)
		seenCodes[code] = true

		description := modelItem.Description
		if description == "" && matched {
			description = row.Description
		}

		metadata := modelItem.Metadata
		if len(metadata) == 0 && matched {
			metadata = row.Metadata
		}

		application := models.Application(modelItem.Application)
		if application == "" && matched {
			application = row.Application
		}
		if application != "" && !models.IsValidApplication(application) {
			application = models.ApplicationOther
		}

		items = append(items, models.CodebookItem{
			VersionID:     versionID,
			ClientID:      clientID,
			Code:          code,
			OriginalLabel: label,
			Description:   description,
			CSIDivision:   modelItem.CSIDivision,
			CSISection:    modelItem.CSISection,
			Application:   application,
			Metadata:      metadata,
		})
	}

	return items
}

// uniqueCode returns candidate, or candidate with the smallest numeric
// suffix that has not been emitted yet.
func uniqueCode(candidate string, seen map[string]bool) string {
	if !seen[candidate] {
		return candidate
	}
	for n := 1; ; n++ {
		suffixed := fmt.Sprintf("%s-%d", candidate, n)
		if !seen[suffixed] {
			return suffixed
		}
	}
}
