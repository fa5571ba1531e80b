// Package insight hands a plain-text summary of computed metrics to an
// external text-generation service and returns its prose. The response
// is treated as an opaque string; any failure degrades to a descriptive
// fallback message, never into the metrics pipeline.
package insight

import (
	"fmt"
	"strings"
)

// Summary carries the metric fields available for the data summary.
// Pointer fields distinguish "absent" from zero.
type Summary struct {
	AvgDAU       *float64 `json:"avg_dau,omitempty"`
	TotalRevenue *float64 `json:"total_revenue,omitempty"`
	AvgARPPU     *float64 `json:"avg_arppu,omitempty"`
	Segments     []string `json:"segments,omitempty"`
	ChurnRate    *float64 `json:"churn_rate,omitempty"`
	AnomalyCount int      `json:"anomaly_count,omitempty"`
}

// Text renders the summary as the plain-text block sent to the service.
func (s Summary) Text() string {
	var parts []string

	if s.AvgDAU != nil {
		parts = append(parts, fmt.Sprintf("Average Daily Active Users: %.0f", *s.AvgDAU))
	}
	if s.TotalRevenue != nil {
		parts = append(parts, fmt.Sprintf("Total Revenue: $%.2f", *s.TotalRevenue))
	}
	if s.AvgARPPU != nil {
		parts = append(parts, fmt.Sprintf("Average ARPPU: $%.2f", *s.AvgARPPU))
	}
	if len(s.Segments) > 0 {
		parts = append(parts, fmt.Sprintf("User Segments: %s", strings.Join(s.Segments, ", ")))
	}
	if s.ChurnRate != nil {
		parts = append(parts, fmt.Sprintf("Churn Rate: %.1f%%", *s.ChurnRate*100))
	}
	if s.AnomalyCount > 0 {
		parts = append(parts, fmt.Sprintf("Detected %d anomalies", s.AnomalyCount))
	}

	if len(parts) == 0 {
		return "No specific metrics available"
	}
	return strings.Join(parts, "\n")
}

// Float is a convenience for building optional summary fields.
func Float(v float64) *float64 {
	return &v
}
