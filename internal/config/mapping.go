package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"gamepulse/pkg/contracts/domain"
)

//go:embed mapping.yaml
var defaultMappingYAML []byte

// FieldCandidates lists the keyword candidates for one canonical field.
// Declaration order in the mapping document is significant: fields are
// resolved in this order, and within a field keywords are tried in order.
type FieldCandidates struct {
	Field    domain.Field `yaml:"field"`
	Keywords []string     `yaml:"keywords"`
}

// CategoryKeywords lists the keywords that place an event name into a
// category. Declaration order decides ties: the first matching category
// wins.
type CategoryKeywords struct {
	Category domain.Category `yaml:"category"`
	Keywords []string        `yaml:"keywords"`
}

// Mapping is the externally supplied dictionary driving schema detection,
// event categorization, timestamp parsing and tier conversion.
type Mapping struct {
	SchemaMappings    []FieldCandidates  `yaml:"schema_mappings"`
	EventCategories   []CategoryKeywords `yaml:"event_categories"`
	TimestampFormats  []string           `yaml:"timestamp_formats"`
	SubscriptionTiers map[string]float64 `yaml:"subscription_tiers"`
	RankTiers         map[string]float64 `yaml:"rank_tiers"`
}

// Tiers returns the tier table for the given tier field, or nil when the
// field has no tier semantics.
func (m *Mapping) Tiers(f domain.Field) map[string]float64 {
	switch f {
	case domain.FieldSubscriptionTier:
		return m.SubscriptionTiers
	case domain.FieldRankTier:
		return m.RankTiers
	}
	return nil
}

// DefaultMapping returns the mapping dictionary embedded in the binary.
func DefaultMapping() (*Mapping, error) {
	return parseMapping(defaultMappingYAML)
}

// LoadMapping reads a mapping dictionary from path, falling back to the
// embedded default when path is empty.
func LoadMapping(path string) (*Mapping, error) {
	if path == "" {
		return DefaultMapping()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read mapping file: %w", err)
	}
	return parseMapping(data)
}

func parseMapping(data []byte) (*Mapping, error) {
	var m Mapping
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse mapping: %w", err)
	}

	if len(m.SchemaMappings) == 0 {
		return nil, fmt.Errorf("mapping defines no schema_mappings")
	}
	if len(m.TimestampFormats) == 0 {
		return nil, fmt.Errorf("mapping defines no timestamp_formats")
	}
	return &m, nil
}
