package ingest

import (
	"strings"

	"github.com/gradeline-systems/codebook-engine/pkg/models"
)

// Column-name lookup sets for heuristic detection. Matching is exact against
// the trimmed, lower-cased header.
var (
	labelColumns = map[string]bool{
		"item": true, "name": true, "label": true, "description": true,
		"material": true, "title": true, "item_name": true,
		"item_description": true, "material_name": true, "product": true,
		"item name": true, "item description": true, "material name": true,
	}
	descriptionColumns = map[string]bool{
		"description": true, "desc": true, "details": true, "notes": true,
		"specification": true, "item_description": true,
		"item description": true, "spec": true,
	}
	diameterColumns = map[string]bool{
		"diameter": true, "size": true, "dia": true, "nominal_size": true,
		"nominal size": true, "pipe_size": true, "pipe size": true,
	}
	applicationColumns = map[string]bool{
		"application": true, "app": true, "use": true, "category": true,
		"system": true, "type": true, "application_type": true,
		"application type": true,
	}
)

// DetectColumns maps file columns to semantic roles. Columns are scanned in
// file order; for each column the first unclaimed role whose lookup set
// matches wins, so a column serves at most one role. If no label column
// matches, the first column is forced as label. A column cannot serve as
// both label and description; description is cleared on conflict.
func DetectColumns(headers []string) models.ColumnMapping {
	var mapping models.ColumnMapping

	for _, header := range headers {
		name := strings.ToLower(strings.TrimSpace(header))
		switch {
		case mapping.Label == "" && labelColumns[name]:
			mapping.Label = name
		case mapping.Description == "" && descriptionColumns[name]:
			mapping.Description = name
		case mapping.Diameter == "" && diameterColumns[name]:
			mapping.Diameter = name
		case mapping.Application == "" && applicationColumns[name]:
			mapping.Application = name
		}
	}

	if mapping.Label == "" && len(headers) > 0 {
		mapping.Label = strings.ToLower(strings.TrimSpace(headers[0]))
	}

	if mapping.Label == mapping.Description {
		mapping.Description = ""
	}

	return mapping
}
