package pipeline

import (
	"log/slog"
	"strconv"
	"strings"
	"time"

	"gamepulse/internal/config"
	"gamepulse/internal/dataset"
	"gamepulse/pkg/contracts/domain"
)

// TargetZone is the fixed zone all timestamps are normalized into
// (UTC+5:30). Built with FixedZone so behavior does not depend on the
// host tzdata.
var TargetZone = time.FixedZone("UTC+05:30", 5*3600+30*60)

// Fields coerced to numeric / categorical by CleanTypes.
var (
	numericFields     = []domain.Field{domain.FieldRevenue, domain.FieldCurrencySpent, domain.FieldLevel, domain.FieldAge}
	categoricalFields = []domain.Field{domain.FieldDeviceType, domain.FieldGameMode, domain.FieldCountry, domain.FieldGender}
)

// Normalizer parses timestamps, coerces types and categorizes events
// according to the mapping dictionary. It holds configuration only; all
// per-run data stays in the tables passed through it.
type Normalizer struct {
	mapping *config.Mapping
	logger  *slog.Logger
}

// NewNormalizer creates a Normalizer for the given mapping.
func NewNormalizer(mapping *config.Mapping, logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{
		mapping: mapping,
		logger:  logger.With(slog.String("component", "normalizer")),
	}
}

// NormalizeTimestamps converts the target column to timezone-aware
// time.Time values in the target zone. Each configured layout is tried
// in order; the first one that parses the entire column wins. If none
// does, cells are parsed best-effort individually and unparseable values
// become nil. Values without an explicit zone are treated as UTC.
func (n *Normalizer) NormalizeTimestamps(t *dataset.Table, col string) *dataset.Table {
	out := t.Clone()

	for _, layout := range n.mapping.TimestampFormats {
		if parsed, ok := parseEntireColumn(out, col, layout); ok {
			applyColumn(out, col, parsed)
			return out
		}
	}

	// No single layout covers the column; fall back to per-cell parsing.
	var nulled int
	for _, row := range out.Rows {
		ts, ok := n.parseAny(dataset.String(row[col]))
		if ok {
			row[col] = ts
		} else {
			if dataset.String(row[col]) != "" {
				nulled++
			}
			row[col] = nil
		}
	}
	if nulled > 0 {
		n.logger.Info("unparseable timestamps coerced to null",
			slog.String("column", col), slog.Int("count", nulled))
	}
	return out
}

func parseEntireColumn(t *dataset.Table, col, layout string) ([]any, bool) {
	parsed := make([]any, len(t.Rows))
	for i, row := range t.Rows {
		raw := strings.TrimSpace(dataset.String(row[col]))
		if raw == "" {
			parsed[i] = nil
			continue
		}
		ts, err := parseInZone(raw, layout)
		if err != nil {
			return nil, false
		}
		parsed[i] = ts
	}
	return parsed, true
}

func applyColumn(t *dataset.Table, col string, values []any) {
	for i, row := range t.Rows {
		row[col] = values[i]
	}
}

// parseAny tries every configured layout plus RFC3339 against a single
// cell value.
func (n *Normalizer) parseAny(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	layouts := append(append([]string(nil), n.mapping.TimestampFormats...), time.RFC3339)
	for _, layout := range layouts {
		if ts, err := parseInZone(raw, layout); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

func parseInZone(raw, layout string) (time.Time, error) {
	// Layouts without a zone marker parse as UTC before conversion.
	ts, err := time.ParseInLocation(layout, raw, time.UTC)
	if err != nil {
		return time.Time{}, err
	}
	return ts.In(TargetZone), nil
}

// CategorizeEvent assigns the first configured category whose keywords
// match the event name (case-insensitive substring). Total: every name
// gets exactly one category, defaulting to "other".
func (n *Normalizer) CategorizeEvent(eventName string) domain.Category {
	name := strings.ToLower(eventName)
	for _, ck := range n.mapping.EventCategories {
		for _, kw := range ck.Keywords {
			if strings.Contains(name, strings.ToLower(kw)) {
				return ck.Category
			}
		}
	}
	return domain.CategoryOther
}

// CleanTypes coerces detected numeric columns to float64 (unparseable
// values become nil) and trims/lowercases detected categorical columns.
func (n *Normalizer) CleanTypes(t *dataset.Table, schema domain.SchemaMap) *dataset.Table {
	out := t.Clone()

	for _, f := range numericFields {
		col, ok := schema[f]
		if !ok {
			continue
		}
		for _, row := range out.Rows {
			row[col] = coerceNumeric(row[col])
		}
	}

	for _, f := range categoricalFields {
		col, ok := schema[f]
		if !ok {
			continue
		}
		for _, row := range out.Rows {
			row[col] = strings.ToLower(strings.TrimSpace(dataset.String(row[col])))
		}
	}

	return out
}

// MapTiers adds a <col>_numeric column translating tier names through
// the configured table; unknown tiers map to 0.
func (n *Normalizer) MapTiers(t *dataset.Table, col string, tiers map[string]float64) *dataset.Table {
	out := t.Clone()
	numericCol := col + "_numeric"
	out.Columns = append(out.Columns, numericCol)

	for _, row := range out.Rows {
		key := strings.ToLower(strings.TrimSpace(dataset.String(row[col])))
		row[numericCol] = tiers[key]
	}
	return out
}

// coerceNumeric parses a cell into float64, tolerating currency symbols
// and thousands separators. Already numeric values pass through;
// unparseable values become nil.
func coerceNumeric(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case float64:
		return x
	case int:
		return float64(x)
	}

	raw := strings.TrimSpace(dataset.String(v))
	raw = strings.Trim(raw, "$")
	raw = strings.ReplaceAll(raw, ",", "")
	if raw == "" {
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return f
}

// numericValue reads a float64 from a cell, returning ok=false for nil
// or unparseable cells.
func numericValue(v any) (float64, bool) {
	switch x := coerceNumeric(v).(type) {
	case float64:
		return x, true
	default:
		return 0, false
	}
}

// timeValue reads a time.Time from a cell, returning ok=false otherwise.
func timeValue(v any) (time.Time, bool) {
	ts, ok := v.(time.Time)
	return ts, ok
}
