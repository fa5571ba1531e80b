package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"gamepulse/internal/config"
	"gamepulse/internal/dataset"
	"gamepulse/pkg/contracts/domain"
)

// Processor runs the full ingestion pass: load, schema detection,
// normalization, synthesis, cleaning and feature derivation. It holds
// configuration only; every Process call is request-scoped and returns
// fresh values.
type Processor struct {
	mapping *config.Mapping
	logger  *slog.Logger
}

// Options tunes a single Process run.
type Options struct {
	// Seed pins the random source used for synthetic timestamp
	// placement. Zero means time-seeded.
	Seed int64
}

// Result is the output of one pipeline pass.
type Result struct {
	Events      []domain.EnrichedEvent `json:"events"`
	Schema      domain.SchemaMap       `json:"schema"`
	Synthesized bool                   `json:"synthesized"`
	RowsLoaded  int                    `json:"rows_loaded"`
	Duplicates  int                    `json:"duplicates_dropped"`
	MissingUser int                    `json:"missing_user_dropped"`
}

// NewProcessor creates a Processor for the given mapping dictionary.
func NewProcessor(mapping *config.Mapping, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		mapping: mapping,
		logger:  logger.With(slog.String("component", "processor")),
	}
}

// Process runs the pipeline over the input file. Only an unreadable or
// unsupported source file fails the run; malformed cells degrade to
// nulls along the way.
func (p *Processor) Process(ctx context.Context, path string, opts Options) (*Result, error) {
	table, err := dataset.Load(path)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.logger.InfoContext(ctx, "processing file",
		slog.String("path", path),
		slog.Int("rows", len(table.Rows)),
		slog.Int("columns", len(table.Columns)))

	schema := DetectSchema(table.Columns, p.mapping.SchemaMappings)
	p.logger.InfoContext(ctx, "detected schema mapping", slog.Any("schema", schema))

	normalizer := NewNormalizer(p.mapping, p.logger)

	for _, f := range []domain.Field{domain.FieldSignupDate, domain.FieldLastLogin, domain.FieldTimestamp} {
		if col, ok := schema[f]; ok {
			table = normalizer.NormalizeTimestamps(table, col)
		}
	}

	for _, f := range []domain.Field{domain.FieldSubscriptionTier, domain.FieldRankTier} {
		if col, ok := schema[f]; ok {
			table = normalizer.MapTiers(table, col, p.mapping.Tiers(f))
		}
	}

	table = normalizer.CleanTypes(table, schema)

	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	rowsLoaded := len(table.Rows)

	var events []domain.EventRecord
	var duplicates int
	synthesized := CanSynthesize(schema)
	if synthesized {
		// Duplicate source rows would double a user's synthesized
		// purchases and sessions, so drop them before generation. The
		// generated events themselves are never deduped: identical
		// purchases are legitimate there.
		table, duplicates = dedupeRows(table)
		events = NewSynthesizer(rng, p.logger).Synthesize(table, schema)
	} else {
		events, err = p.eventsFromLog(table, schema, normalizer)
		if err != nil {
			return nil, err
		}
		events, duplicates = dedupe(events)
	}

	events, missingUser := dropMissingUsers(events)
	if missingUser > 0 || duplicates > 0 {
		p.logger.InfoContext(ctx, "dropped invalid rows",
			slog.Int("missing_user_id", missingUser),
			slog.Int("duplicates", duplicates))
	}

	result := &Result{
		Events:      DeriveFeatures(events),
		Schema:      schema,
		Synthesized: synthesized,
		RowsLoaded:  rowsLoaded,
		Duplicates:  duplicates,
		MissingUser: missingUser,
	}

	p.logger.InfoContext(ctx, "processing complete",
		slog.Int("events", len(result.Events)),
		slog.Bool("synthesized", synthesized))

	return result, nil
}

// eventsFromLog maps a raw event log table to canonical events.
func (p *Processor) eventsFromLog(t *dataset.Table, schema domain.SchemaMap, n *Normalizer) ([]domain.EventRecord, error) {
	if !schema.Has(domain.FieldUserID) {
		return nil, fmt.Errorf("no user identifier column detected")
	}

	var events []domain.EventRecord
	for _, row := range t.Rows {
		userID := dataset.String(row[schema[domain.FieldUserID]])

		ts, ok := timeValue(row[schema.Column(domain.FieldTimestamp, "")])
		if !ok {
			// Timestampless rows cannot feed time-bucketed metrics.
			continue
		}

		name := dataset.String(row[schema.Column(domain.FieldEventName, "")])
		revenue, _ := numericValue(row[schema.Column(domain.FieldRevenue, "")])
		if revenue < 0 {
			revenue = 0
		}

		attrs := userAttrs(row, schema)
		ev := newEvent(userID, name, ts, revenue, n.CategorizeEvent(name), attrs)
		events = append(events, ev)
	}
	return events, nil
}

func dropMissingUsers(events []domain.EventRecord) ([]domain.EventRecord, int) {
	kept := events[:0]
	dropped := 0
	for _, ev := range events {
		if ev.UserID == "" {
			dropped++
			continue
		}
		kept = append(kept, ev)
	}
	return kept, dropped
}

func dedupeRows(t *dataset.Table) (*dataset.Table, int) {
	seen := make(map[string]struct{}, len(t.Rows))
	out := &dataset.Table{Columns: t.Columns}
	dropped := 0
	for _, row := range t.Rows {
		key := row.Fingerprint(t.Columns)
		if _, dup := seen[key]; dup {
			dropped++
			continue
		}
		seen[key] = struct{}{}
		out.Rows = append(out.Rows, row)
	}
	return out, dropped
}

func dedupe(events []domain.EventRecord) ([]domain.EventRecord, int) {
	seen := make(map[string]struct{}, len(events))
	kept := events[:0]
	dropped := 0
	for _, ev := range events {
		key := fmt.Sprintf("%s|%s|%d|%g|%s", ev.UserID, ev.EventName, ev.Timestamp.UnixNano(), ev.Revenue, ev.Category)
		if _, dup := seen[key]; dup {
			dropped++
			continue
		}
		seen[key] = struct{}{}
		kept = append(kept, ev)
	}
	return kept, dropped
}
