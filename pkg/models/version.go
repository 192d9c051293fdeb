package models

import (
	"time"

	"github.com/google/uuid"
)

// CodebookVersion is an immutable, numbered snapshot of a codebook's items
// plus the analysis that produced them. Exactly one version per codebook is
// active at a time.
type CodebookVersion struct {
	ID              uuid.UUID      `json:"id"`
	CodebookID      uuid.UUID      `json:"codebook_id"`
	VersionNumber   int            `json:"version_number"`
	Label           string         `json:"label,omitempty"`
	Notes           string         `json:"notes,omitempty"`
	IsActive        bool           `json:"is_active"`
	AnalysisSummary string         `json:"analysis_summary,omitempty"`
	AnalysisDetails map[string]any `json:"analysis_details,omitempty"`
	PromptVersion   string         `json:"prompt_version,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
}
