package exporter

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gamepulse/internal/analytics"
)

// Report is the metrics dictionary shape consumed by downstream report
// and slide-deck surfaces.
type Report struct {
	GeneratedAt    time.Time                  `json:"generated_at"`
	TotalRevenue   float64                    `json:"total_revenue"`
	AvgARPPU       float64                    `json:"avg_arppu"`
	AvgARPDAU      float64                    `json:"avg_arpdau"`
	ChurnRate      float64                    `json:"churn_rate"`
	SegmentSummary []analytics.SegmentSummary `json:"segment_summary"`
	Anomalies      []analytics.Anomaly        `json:"anomalies"`
	Insights       string                     `json:"insights,omitempty"`
}

// WriteJSON writes the report as indented JSON.
func WriteJSON(path string, report Report) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
