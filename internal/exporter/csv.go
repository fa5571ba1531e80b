// Package exporter writes computed metrics to CSV and JSON report
// files consumed by downstream presentation surfaces.
package exporter

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"gamepulse/internal/analytics"
)

// CSVWriter provides CSV export functionality.
type CSVWriter struct {
	logger *slog.Logger
}

// NewCSVWriter creates a new CSV writer instance.
func NewCSVWriter(logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{logger: logger.With(slog.String("component", "csv_writer"))}
}

// WriteOptions configures CSV writing behavior.
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	BOMPrefix bool // add UTF-8 BOM for Excel compatibility
}

// WriteCSV writes data to a CSV file with the given options.
func (w *CSVWriter) WriteCSV(path string, options WriteOptions) error {
	w.logger.Info("writing CSV file",
		slog.String("path", path),
		slog.Int("record_count", len(options.Records)))

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	if options.BOMPrefix {
		if _, err := file.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if len(options.Headers) > 0 {
		if err := writer.Write(options.Headers); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}
	for _, record := range options.Records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}
	return writer.Error()
}

// ActivityRecords flattens an activity series for CSV export.
func ActivityRecords(series []analytics.DatePoint) ([]string, [][]string) {
	records := make([][]string, len(series))
	for i, p := range series {
		records[i] = []string{p.Bucket, strconv.Itoa(p.Users)}
	}
	return []string{"bucket", "active_users"}, records
}

// RevenueRecords flattens daily revenue metrics for CSV export.
func RevenueRecords(daily []analytics.RevenuePoint) ([]string, [][]string) {
	records := make([][]string, len(daily))
	for i, p := range daily {
		records[i] = []string{
			p.Date,
			strconv.FormatFloat(p.Revenue, 'f', 2, 64),
			strconv.Itoa(p.PayingUsers),
			strconv.Itoa(p.ActiveUsers),
			strconv.FormatFloat(p.ARPPU, 'f', 2, 64),
			strconv.FormatFloat(p.ARPDAU, 'f', 2, 64),
		}
	}
	return []string{"date", "revenue", "paying_users", "active_users", "arppu", "arpdau"}, records
}
