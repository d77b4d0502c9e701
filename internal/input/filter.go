// Package input narrows extracted records before matching.
package input

import (
	"strings"

	"apidiff/internal/models"
)

type Filter struct {
	// Method keeps only records with this HTTP method, case-insensitively.
	Method string

	// Path keeps only records whose path contains this substring.
	Path string

	// Limit caps the number of records kept; 0 means no cap.
	Limit int
}

func (f Filter) IsZero() bool {
	return f.Method == "" && f.Path == "" && f.Limit == 0
}

// Apply filters records preserving their order.
func Apply(records []models.RequestRecord, f Filter) []models.RequestRecord {
	if f.IsZero() {
		return records
	}

	filtered := make([]models.RequestRecord, 0, len(records))

	for _, record := range records {
		if f.Method != "" && !strings.EqualFold(record.Method, f.Method) {
			continue
		}

		if f.Path != "" && !strings.Contains(record.Path, f.Path) {
			continue
		}

		filtered = append(filtered, record)

		if f.Limit > 0 && len(filtered) >= f.Limit {
			break
		}
	}

	return filtered
}
