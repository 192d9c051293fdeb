package models

// Application is a closed-vocabulary tag describing which utility system an
// item belongs to.
type Application string

const (
	ApplicationSanitarySewer Application = "sanitary_sewer"
	ApplicationStormSewer    Application = "storm_sewer"
	ApplicationWater         Application = "water"
	ApplicationOther         Application = "other"
)

// IsValidApplication checks if the given application is in the closed set.
func IsValidApplication(a Application) bool {
	switch a {
	case ApplicationSanitarySewer, ApplicationStormSewer, ApplicationWater, ApplicationOther:
		return true
	}
	return false
}

// ApplicationSynonyms maps raw cell values (trimmed, lower-cased) to the
// closed application vocabulary. Values with no entry stay unset during
// ingest; coercion to "other" only happens during reconciliation, and only
// for values the model asserts that are outside the closed set.
var ApplicationSynonyms = map[string]Application{
	"sanitary":       ApplicationSanitarySewer,
	"sanitary_sewer": ApplicationSanitarySewer,
	"sanitary sewer": ApplicationSanitarySewer,
	"storm":          ApplicationStormSewer,
	"storm_sewer":    ApplicationStormSewer,
	"storm sewer":    ApplicationStormSewer,
	"water":          ApplicationWater,
	"potable":        ApplicationWater,
	"other":          ApplicationOther,
}

// RowRecord is a normalized row from an uploaded file. It is an intermediate
// shape: produced by ingest, consumed by analysis and reconciliation, never
// persisted on its own.
type RowRecord struct {
	OriginalLabel string         `json:"original_label"`
	Description   string         `json:"description,omitempty"`
	Application   Application    `json:"application,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

// ColumnMapping records which source column serves each semantic role.
// An empty string means the role was not detected.
type ColumnMapping struct {
	Label       string `json:"label"`
	Description string `json:"description"`
	Diameter    string `json:"diameter"`
	Application string `json:"application"`
}
