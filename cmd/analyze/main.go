// Command analyze runs one batch analysis pass over a CSV or Excel
// export and writes the metrics report to disk.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gamepulse/internal/config"
	"gamepulse/internal/exporter"
	"gamepulse/internal/infrastructure"
	"gamepulse/internal/insight"
	"gamepulse/internal/services"
)

func main() {
	input := flag.String("input", "", "input CSV or Excel file (required)")
	outDir := flag.String("out", "reports", "output directory for report files")
	seed := flag.Int64("seed", 0, "random seed for synthetic event placement (0 = time-seeded)")
	funnel := flag.String("funnel", "", "comma-separated funnel step labels")
	threshold := flag.Float64("threshold", 0, "anomaly z-score threshold (0 = configured default)")
	withInsights := flag.Bool("insights", false, "request free-text insights from the configured service")
	flag.Parse()

	if *input == "" {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(*input, *outDir, *seed, *funnel, *threshold, *withInsights); err != nil {
		fmt.Fprintf(os.Stderr, "analyze: %v\n", err)
		os.Exit(1)
	}
}

func run(input, outDir string, seed int64, funnel string, threshold float64, withInsights bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return err
	}
	defer infrastructure.CloseLogFile()

	mapping, err := config.LoadMapping(cfg.Analysis.MappingFile)
	if err != nil {
		return err
	}

	opts := services.AnalysisOptions{Seed: seed, AnomalyThreshold: threshold}
	if funnel != "" {
		for _, step := range strings.Split(funnel, ",") {
			if step = strings.TrimSpace(step); step != "" {
				opts.FunnelSteps = append(opts.FunnelSteps, step)
			}
		}
	}

	service := services.NewAnalysisService(mapping, cfg.Analysis, logger)
	result, err := service.Analyze(context.Background(), input, opts)
	if err != nil {
		return err
	}

	report := exporter.Report{
		GeneratedAt:    time.Now(),
		ChurnRate:      result.ChurnRate,
		SegmentSummary: result.Segments.Summary,
		Anomalies:      result.Anomalies,
	}
	if result.Revenue != nil {
		report.TotalRevenue = result.Revenue.TotalRevenue
		report.AvgARPPU = result.Revenue.AvgARPPU
		report.AvgARPDAU = result.Revenue.AvgARPDAU
	}
	if withInsights {
		client := insight.NewClient(cfg.Insight, logger)
		report.Insights = client.GenerateInsights(context.Background(), service.BuildSummary(result))
	}

	if err := exporter.WriteJSON(filepath.Join(outDir, "report.json"), report); err != nil {
		return err
	}

	writer := exporter.NewCSVWriter(logger)
	headers, records := exporter.ActivityRecords(result.Activity.DAU)
	if err := writer.WriteCSV(filepath.Join(outDir, "dau.csv"), exporter.WriteOptions{Headers: headers, Records: records, BOMPrefix: true}); err != nil {
		return err
	}
	if result.Revenue != nil {
		headers, records = exporter.RevenueRecords(result.Revenue.Daily)
		if err := writer.WriteCSV(filepath.Join(outDir, "revenue.csv"), exporter.WriteOptions{Headers: headers, Records: records, BOMPrefix: true}); err != nil {
			return err
		}
	}

	fmt.Printf("analyzed %d events from %d users; report written to %s\n",
		result.EventCount, len(result.Users), outDir)
	return nil
}
