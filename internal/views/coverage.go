package views

import (
	"github.com/notecloak/notecloak/internal/extract"
	"github.com/notecloak/notecloak/internal/redact"
)

// Coverage reports how many summary fields were populated from a note.
// FieldsFound plus the number of missing fields always equals the
// twelve summary fields.
type Coverage struct {
	FieldsFound     int           `json:"fields_found"`
	FieldsMissing   []string      `json:"fields_missing"`
	ProtectedCounts redact.Counts `json:"protected_counts"`
}

// BuildCoverage derives the coverage report from a summary and the
// redaction counts, which pass through unchanged.
func BuildCoverage(summary *extract.Summary, counts redact.Counts) Coverage {
	found := 0
	missing := []string{}
	for _, field := range summary.Fields() {
		if extract.IsNotFound(field.Items) {
			missing = append(missing, field.Label)
		} else {
			found++
		}
	}

	return Coverage{
		FieldsFound:     found,
		FieldsMissing:   missing,
		ProtectedCounts: counts,
	}
}
