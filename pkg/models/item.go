package models

import (
	"time"

	"github.com/google/uuid"
)

// CodebookItem is a single coded entry within a codebook version. Items are
// created in bulk when a version is built and never mutated afterwards.
type CodebookItem struct {
	ID            uuid.UUID      `json:"id"`
	VersionID     uuid.UUID      `json:"version_id"`
	ClientID      uuid.UUID      `json:"client_id"`
	Code          string         `json:"code"`
	OriginalLabel string         `json:"original_label"`
	Description   string         `json:"description,omitempty"`
	CSIDivision   string         `json:"csi_division,omitempty"`
	CSISection    string         `json:"csi_section,omitempty"`
	Application   Application    `json:"application,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}
