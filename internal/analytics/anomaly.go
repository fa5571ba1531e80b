package analytics

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"gamepulse/pkg/contracts/domain"
)

// DefaultAnomalyThreshold is the z-score magnitude above which a daily
// value is flagged.
const DefaultAnomalyThreshold = 2.0

// anomalyWindow is the trailing rolling-window length in days.
const anomalyWindow = 7

// SeriesPoint is one day of a metric series.
type SeriesPoint struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// Anomaly is a daily value flagged against its trailing window.
type Anomaly struct {
	Date     string  `json:"date"`
	Metric   string  `json:"metric"`
	Value    float64 `json:"value"`
	Expected float64 `json:"expected"`
	ZScore   float64 `json:"z_score"`
	Type     string  `json:"type"` // "spike" or "drop"
}

// DailyRevenueSeries sums event revenue per calendar date, ascending.
func DailyRevenueSeries(events []domain.EventRecord) []SeriesPoint {
	return dailySums(events, func(ev domain.EventRecord) float64 { return ev.Revenue })
}

// DailyEventCountSeries counts events per calendar date, ascending.
func DailyEventCountSeries(events []domain.EventRecord) []SeriesPoint {
	return dailySums(events, func(domain.EventRecord) float64 { return 1 })
}

func dailySums(events []domain.EventRecord, value func(domain.EventRecord) float64) []SeriesPoint {
	sums := make(map[string]float64)
	for _, ev := range events {
		sums[ev.Timestamp.Format("2006-01-02")] += value(ev)
	}

	dates := make([]string, 0, len(sums))
	for d := range sums {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	series := make([]SeriesPoint, len(dates))
	for i, d := range dates {
		series[i] = SeriesPoint{Date: d, Value: sums[d]}
	}
	return series
}

// DetectAnomalies flags points whose z-score against a trailing 7-day
// rolling mean and sample standard deviation exceeds threshold in
// magnitude. Early points use a shrunken window (minimum one
// observation); windows with undefined or zero deviation are never
// anomalous.
func (e *Engine) DetectAnomalies(series []SeriesPoint, metric string, threshold float64) []Anomaly {
	if threshold <= 0 {
		threshold = DefaultAnomalyThreshold
	}

	var anomalies []Anomaly
	for i, point := range series {
		start := i - anomalyWindow + 1
		if start < 0 {
			start = 0
		}
		window := make([]float64, 0, anomalyWindow)
		for _, p := range series[start : i+1] {
			window = append(window, p.Value)
		}

		mean := stat.Mean(window, nil)
		std := stat.StdDev(window, nil)
		if std == 0 || math.IsNaN(std) {
			continue
		}

		z := (point.Value - mean) / std
		if math.Abs(z) <= threshold {
			continue
		}

		kind := "spike"
		if z < 0 {
			kind = "drop"
		}
		anomalies = append(anomalies, Anomaly{
			Date:     point.Date,
			Metric:   metric,
			Value:    point.Value,
			Expected: mean,
			ZScore:   z,
			Type:     kind,
		})
	}
	return anomalies
}
