// Package analytics computes engagement and monetization metrics over
// the normalized event table: activity series, revenue ratios, cohort
// retention, funnel conversion, segmentation and anomaly detection.
package analytics

import (
	"log/slog"
	"math"
	"sort"
	"time"
)

// Engine computes metrics over normalized events. It is stateless with
// respect to analysis results; every method returns request-scoped
// values.
type Engine struct {
	logger *slog.Logger
}

// NewEngine creates a metrics engine.
func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{logger: logger.With(slog.String("component", "analytics"))}
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

// finiteMean averages the finite values in xs, returning 0 when none
// are finite. Non-finite ratios (zero denominators upstream) are
// excluded rather than propagated.
func finiteMean(xs []float64) float64 {
	var sum float64
	var n int
	for _, x := range xs {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			continue
		}
		sum += x
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// Quantile returns the q-th quantile of xs using linear interpolation
// between order statistics, matching the source system's quantile
// semantics. xs need not be sorted; empty input returns 0.
func Quantile(xs []float64, q float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)

	h := float64(len(sorted)-1) * q
	lo := int(math.Floor(h))
	hi := int(math.Ceil(h))
	if lo == hi {
		return sorted[lo]
	}
	return sorted[lo] + (h-float64(lo))*(sorted[hi]-sorted[lo])
}

func parseDate(date string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", date, time.UTC)
}

func sortedKeys(m map[string]map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
