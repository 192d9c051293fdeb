package models

import (
	"time"

	"github.com/google/uuid"
)

// CodebookType identifies what kind of items a codebook classifies.
type CodebookType string

const (
	CodebookTypeMaterial CodebookType = "material"
	CodebookTypeActivity CodebookType = "activity"
	CodebookTypeBidItem  CodebookType = "bid_item"
)

// ValidCodebookTypes contains all valid codebook type values.
var ValidCodebookTypes = []CodebookType{
	CodebookTypeMaterial,
	CodebookTypeActivity,
	CodebookTypeBidItem,
}

// IsValidCodebookType checks if the given type is valid.
func IsValidCodebookType(t CodebookType) bool {
	for _, v := range ValidCodebookTypes {
		if v == t {
			return true
		}
	}
	return false
}

// Codebook is a named collection of classification items for one client.
type Codebook struct {
	ID          uuid.UUID    `json:"id"`
	ClientID    uuid.UUID    `json:"client_id"`
	Name        string       `json:"name"`
	Type        CodebookType `json:"type"`
	Description string       `json:"description,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	DeletedAt   *time.Time   `json:"deleted_at,omitempty"`
}
