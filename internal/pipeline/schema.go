// Package pipeline implements the schema-detection and derived-feature
// pipeline: heuristic column mapping, normalization, synthetic event
// generation and per-user feature derivation.
package pipeline

import (
	"strings"

	"gamepulse/internal/config"
	"gamepulse/pkg/contracts/domain"
)

// DetectSchema maps raw column names to canonical fields using the
// configured keyword candidates. Fields are resolved in config order;
// within a field, raw columns are scanned in their original order and
// the first column containing any candidate keyword binds. A field binds
// at most once; a raw column may still serve other unbound fields.
// Detection is deterministic for a given column list and mapping.
func DetectSchema(rawColumns []string, candidates []config.FieldCandidates) domain.SchemaMap {
	normalized := make([]string, len(rawColumns))
	for i, col := range rawColumns {
		normalized[i] = strings.ToLower(strings.TrimSpace(col))
	}

	detected := make(domain.SchemaMap, len(candidates))
	for _, fc := range candidates {
		for i, col := range normalized {
			if containsAny(col, fc.Keywords) {
				detected[fc.Field] = rawColumns[i]
				break
			}
		}
	}
	return detected
}

func containsAny(col string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(col, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
