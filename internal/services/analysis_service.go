// Package services ties the pipeline, metrics engine and feature
// preparation into request-scoped analysis runs.
package services

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"gamepulse/internal/analytics"
	"gamepulse/internal/config"
	"gamepulse/internal/features"
	"gamepulse/internal/insight"
	"gamepulse/internal/pipeline"
	"gamepulse/pkg/contracts/domain"
)

// DefaultFunnelSteps is the funnel analyzed when the caller supplies
// none.
var DefaultFunnelSteps = []string{"signup", "session", "purchase"}

// AnalysisOptions tunes one analysis run.
type AnalysisOptions struct {
	Seed             int64    `json:"seed,omitempty"`
	FunnelSteps      []string `json:"funnel_steps,omitempty"`
	AnomalyThreshold float64  `json:"anomaly_threshold,omitempty"`
}

// clusterCount mirrors the four value/engagement labels the cluster
// namer can assign.
const clusterCount = 4

// UserCluster is one user's k-means assignment with its quantile-derived
// name.
type UserCluster struct {
	UserID  string `json:"user_id"`
	Cluster int    `json:"cluster"`
	Label   string `json:"label"`
}

// ChurnPrediction pairs a user's observed churn label with the baseline
// model's prediction.
type ChurnPrediction struct {
	UserID    string `json:"user_id"`
	Churned   bool   `json:"churned"`
	Predicted bool   `json:"predicted"`
}

// AnalysisResult is the full output of one run. It is a value: nothing
// in it is shared with other runs.
type AnalysisResult struct {
	Schema           domain.SchemaMap         `json:"schema"`
	Synthesized      bool                     `json:"synthesized"`
	EventCount       int                      `json:"event_count"`
	Activity         analytics.ActivityReport `json:"activity"`
	Revenue          *analytics.RevenueReport `json:"revenue,omitempty"`
	Cohorts          analytics.CohortReport   `json:"cohorts"`
	Funnel           analytics.FunnelReport   `json:"funnel"`
	Segments         analytics.SegmentReport  `json:"segments"`
	Anomalies        []analytics.Anomaly      `json:"anomalies"`
	ChurnRate        float64                  `json:"churn_rate"`
	Users            []features.UserFeature   `json:"user_features"`
	Clusters         []UserCluster            `json:"clusters,omitempty"`
	ChurnPredictions []ChurnPrediction        `json:"churn_predictions,omitempty"`
}

// AnalysisService runs the full pipeline pass for one uploaded file.
// It holds configuration only; each Analyze call is independent.
type AnalysisService struct {
	processor *pipeline.Processor
	engine    *analytics.Engine
	cfg       config.AnalysisConfig
	logger    *slog.Logger
	now       func() time.Time
}

// NewAnalysisService wires an analysis service.
func NewAnalysisService(mapping *config.Mapping, cfg config.AnalysisConfig, logger *slog.Logger) *AnalysisService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalysisService{
		processor: pipeline.NewProcessor(mapping, logger),
		engine:    analytics.NewEngine(logger),
		cfg:       cfg,
		logger:    logger.With(slog.String("component", "analysis_service")),
		now:       time.Now,
	}
}

// WithClock overrides the clock used for churn recency. Intended for
// tests.
func (s *AnalysisService) WithClock(now func() time.Time) *AnalysisService {
	s.now = now
	return s
}

// Analyze processes the input file and computes every metric family
// over the normalized events.
func (s *AnalysisService) Analyze(ctx context.Context, path string, opts AnalysisOptions) (*AnalysisResult, error) {
	processed, err := s.processor.Process(ctx, path, pipeline.Options{Seed: opts.Seed})
	if err != nil {
		return nil, err
	}

	events := make([]domain.EventRecord, len(processed.Events))
	for i, ev := range processed.Events {
		events[i] = ev.EventRecord
	}

	steps := opts.FunnelSteps
	if len(steps) == 0 {
		steps = DefaultFunnelSteps
	}
	threshold := opts.AnomalyThreshold
	if threshold <= 0 {
		threshold = s.cfg.AnomalyThreshold
	}

	userFeatures := features.BuildUserFeatures(events, s.now())

	result := &AnalysisResult{
		Schema:           processed.Schema,
		Synthesized:      processed.Synthesized,
		EventCount:       len(events),
		Activity:         s.engine.Activity(events),
		Cohorts:          s.engine.CohortRetention(events),
		Funnel:           s.engine.Funnel(events, steps),
		Segments:         s.engine.SegmentUsers(events),
		Anomalies:        s.engine.DetectAnomalies(analytics.DailyRevenueSeries(events), "revenue", threshold),
		ChurnRate:        features.ChurnRate(userFeatures),
		Users:            userFeatures,
		Clusters:         s.clusterUsers(ctx, userFeatures, opts.Seed),
		ChurnPredictions: s.predictChurn(ctx, userFeatures),
	}

	// Revenue metrics only make sense when a revenue-like field was
	// detected; skipping them is the documented fallback.
	if processed.Schema.Has(domain.FieldRevenue) || processed.Schema.Has(domain.FieldTotalRevenue) {
		revenue := s.engine.Revenue(events)
		result.Revenue = &revenue
	}

	s.logger.InfoContext(ctx, "analysis complete",
		slog.Int("events", result.EventCount),
		slog.Int("users", len(userFeatures)),
		slog.Int("anomalies", len(result.Anomalies)))

	return result, nil
}

// clusterUsers scales the clustering features and runs k-means over
// them, naming each cluster by its revenue/activity quantiles. Model
// failures only cost the clusters section, never the run.
func (s *AnalysisService) clusterUsers(ctx context.Context, userFeatures []features.UserFeature, seed int64) []UserCluster {
	if len(userFeatures) < 2 {
		return nil
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	var scaler features.StandardScaler
	scaled, err := scaler.FitTransform(features.ClusterMatrix(userFeatures))
	if err != nil {
		s.logger.WarnContext(ctx, "scaling cluster features failed", slog.String("error", err.Error()))
		return nil
	}

	var clusterer features.Clusterer = features.NewKMeans(clusterCount, rand.New(rand.NewSource(seed)))
	labels, err := clusterer.Fit(scaled)
	if err != nil {
		s.logger.WarnContext(ctx, "clustering failed", slog.String("error", err.Error()))
		return nil
	}

	names := features.LabelClusters(userFeatures, labels)
	out := make([]UserCluster, len(userFeatures))
	for i, f := range userFeatures {
		out[i] = UserCluster{UserID: f.UserID, Cluster: labels[i], Label: names[labels[i]]}
	}
	return out
}

// predictChurn fits the baseline churn classifier on the observed churn
// labels and scores every user with it.
func (s *AnalysisService) predictChurn(ctx context.Context, userFeatures []features.UserFeature) []ChurnPrediction {
	if len(userFeatures) == 0 {
		return nil
	}

	x := features.Matrix(userFeatures)
	y := features.Labels(userFeatures)

	var model features.Classifier = &features.PriorClassifier{}
	if err := model.Fit(x, y); err != nil {
		s.logger.WarnContext(ctx, "fitting churn model failed", slog.String("error", err.Error()))
		return nil
	}
	predicted, err := model.Predict(x)
	if err != nil {
		s.logger.WarnContext(ctx, "churn prediction failed", slog.String("error", err.Error()))
		return nil
	}

	out := make([]ChurnPrediction, len(userFeatures))
	for i, f := range userFeatures {
		out[i] = ChurnPrediction{UserID: f.UserID, Churned: y[i] == 1, Predicted: predicted[i] == 1}
	}
	return out
}

// BuildSummary extracts the fields available for the insight-service
// data summary.
func (s *AnalysisService) BuildSummary(result *AnalysisResult) insight.Summary {
	summary := insight.Summary{
		Segments:     result.Segments.SegmentNames(),
		AnomalyCount: len(result.Anomalies),
		ChurnRate:    insight.Float(result.ChurnRate),
	}
	if len(result.Activity.DAU) > 0 {
		summary.AvgDAU = insight.Float(result.Activity.AvgDAU())
	}
	if result.Revenue != nil {
		summary.TotalRevenue = insight.Float(result.Revenue.TotalRevenue)
		summary.AvgARPPU = insight.Float(result.Revenue.AvgARPPU)
	}
	return summary
}
