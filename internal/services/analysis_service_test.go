package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gamepulse/internal/analytics"
	"gamepulse/internal/config"
	"gamepulse/internal/features"
)

func testService(t *testing.T) *AnalysisService {
	t.Helper()
	mapping, err := config.DefaultMapping()
	require.NoError(t, err)

	cfg := config.AnalysisConfig{AnomalyThreshold: 2.0}
	return NewAnalysisService(mapping, cfg, nil).
		WithClock(func() time.Time { return time.Date(2024, 1, 12, 0, 0, 0, 0, time.UTC) })
}

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "events.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestAnalyzeEventLog(t *testing.T) {
	csv := `user_id,event_name,timestamp,revenue
u1,signup,2024-01-01 10:00:00,0
u2,signup,2024-01-01 11:00:00,0
u3,signup,2024-01-02 09:00:00,0
u1,session_start,2024-01-02 10:00:00,0
u2,session_start,2024-01-02 11:00:00,0
u1,gem_purchase,2024-01-03 10:00:00,9.99
u1,session_start,2024-01-10 10:00:00,0
`
	service := testService(t)
	result, err := service.Analyze(context.Background(), writeCSV(t, csv), AnalysisOptions{Seed: 1})
	require.NoError(t, err)

	assert.False(t, result.Synthesized)
	assert.Equal(t, 7, result.EventCount)
	require.Len(t, result.Users, 3)

	// Default funnel: 3 sign up, 2 have sessions, 1 purchases.
	require.Len(t, result.Funnel.Steps, 3)
	assert.Equal(t, 3, result.Funnel.Steps[0].Users)
	assert.Equal(t, 66.67, result.Funnel.Steps[1].ConversionRate)
	assert.Equal(t, 33.33, result.Funnel.Steps[2].ConversionRate)

	// Only u1 was active within the last 7 days of the pinned clock.
	assert.InDelta(t, 2.0/3.0, result.ChurnRate, 1e-9)

	require.NotNil(t, result.Revenue)
	assert.InDelta(t, 9.99, result.Revenue.TotalRevenue, 1e-9)

	segments := make(map[string]string)
	for _, u := range result.Segments.Users {
		segments[u.UserID] = u.Segment
	}
	assert.Equal(t, analytics.SegmentWhale, segments["u1"])
	assert.Equal(t, analytics.SegmentNonPaying, segments["u2"])
	assert.Equal(t, analytics.SegmentNonPaying, segments["u3"])
}

func TestAnalyzeClustersUsers(t *testing.T) {
	csv := `user_id,event_name,timestamp,revenue
u1,signup,2024-01-01 10:00:00,0
u2,signup,2024-01-01 11:00:00,0
u3,signup,2024-01-02 09:00:00,0
u1,session_start,2024-01-02 10:00:00,0
u2,session_start,2024-01-02 11:00:00,0
u1,gem_purchase,2024-01-03 10:00:00,9.99
u1,session_start,2024-01-10 10:00:00,0
`
	path := writeCSV(t, csv)
	service := testService(t)

	result, err := service.Analyze(context.Background(), path, AnalysisOptions{Seed: 5})
	require.NoError(t, err)

	require.Len(t, result.Clusters, len(result.Users), "one assignment per user")
	known := map[string]bool{
		features.LabelHighValue:      true,
		features.LabelMediumValue:    true,
		features.LabelHighEngagement: true,
		features.LabelLowEngagement:  true,
	}
	for _, c := range result.Clusters {
		assert.NotEmpty(t, c.UserID)
		assert.True(t, known[c.Label], "unexpected cluster label %q", c.Label)
	}

	again, err := service.Analyze(context.Background(), path, AnalysisOptions{Seed: 5})
	require.NoError(t, err)
	assert.Equal(t, result.Clusters, again.Clusters, "same seed pins assignments")
}

func TestAnalyzeChurnPredictions(t *testing.T) {
	csv := `user_id,event_name,timestamp,revenue
u1,signup,2024-01-01 10:00:00,0
u2,signup,2024-01-01 11:00:00,0
u3,signup,2024-01-02 09:00:00,0
u1,session_start,2024-01-10 10:00:00,0
`
	service := testService(t)
	result, err := service.Analyze(context.Background(), writeCSV(t, csv), AnalysisOptions{Seed: 1})
	require.NoError(t, err)

	require.Len(t, result.ChurnPredictions, 3)
	byUser := make(map[string]ChurnPrediction)
	for _, p := range result.ChurnPredictions {
		byUser[p.UserID] = p
	}
	assert.False(t, byUser["u1"].Churned, "active within 7 days of the pinned clock")
	assert.True(t, byUser["u2"].Churned)
	assert.True(t, byUser["u3"].Churned)

	// The baseline predicts the majority class, which is churned here.
	for _, p := range result.ChurnPredictions {
		assert.True(t, p.Predicted)
	}
}

func TestAnalyzeAggregateData(t *testing.T) {
	csv := `User_ID,Signup_Date,Last_Login,Game_Purchases,Total_Revenue_USD,Total_Play_Sessions
u1,2024-01-01,2024-01-10,3,30,5
u2,2024-01-02,2024-01-02,0,0,1
`
	service := testService(t)
	result, err := service.Analyze(context.Background(), writeCSV(t, csv), AnalysisOptions{Seed: 7})
	require.NoError(t, err)

	assert.True(t, result.Synthesized)
	require.NotNil(t, result.Revenue)
	assert.InDelta(t, 30.0, result.Revenue.TotalRevenue, 1e-9)
	require.Len(t, result.Users, 2)
	assert.NotEmpty(t, result.Activity.DAU)
	assert.NotEmpty(t, result.Cohorts.Rows)
}

func TestAnalyzeCustomFunnelSteps(t *testing.T) {
	csv := `user_id,event_name,timestamp,revenue
u1,tutorial_done,2024-01-01 10:00:00,0
u2,tutorial_done,2024-01-01 10:00:00,0
u1,boss_fight,2024-01-02 10:00:00,0
`
	service := testService(t)
	result, err := service.Analyze(context.Background(), writeCSV(t, csv), AnalysisOptions{
		Seed:        1,
		FunnelSteps: []string{"tutorial", "boss"},
	})
	require.NoError(t, err)

	require.Len(t, result.Funnel.Steps, 2)
	assert.Equal(t, "tutorial", result.Funnel.Steps[0].Step)
	assert.Equal(t, 2, result.Funnel.Steps[0].Users)
	assert.Equal(t, 50.0, result.Funnel.Steps[1].ConversionRate)
}

func TestAnalyzeNoRevenueField(t *testing.T) {
	csv := `user_id,event_name,timestamp
u1,signup,2024-01-01 10:00:00
`
	service := testService(t)
	result, err := service.Analyze(context.Background(), writeCSV(t, csv), AnalysisOptions{Seed: 1})
	require.NoError(t, err)

	assert.Nil(t, result.Revenue, "revenue metrics are skipped without a revenue-like column")
}

func TestAnalyzeUnreadableFile(t *testing.T) {
	service := testService(t)
	_, err := service.Analyze(context.Background(), filepath.Join(t.TempDir(), "missing.csv"), AnalysisOptions{})
	assert.Error(t, err)
}

func TestBuildSummary(t *testing.T) {
	service := testService(t)
	revenue := analytics.RevenueReport{TotalRevenue: 100, AvgARPPU: 12.5}
	result := &AnalysisResult{
		Activity: analytics.ActivityReport{DAU: []analytics.DatePoint{{Users: 4}, {Users: 2}}},
		Revenue:  &revenue,
		Segments: analytics.SegmentReport{Summary: []analytics.SegmentSummary{{Segment: "whale"}}},
		Anomalies: []analytics.Anomaly{
			{Date: "2024-01-05", Type: "spike"},
		},
		ChurnRate: 0.5,
	}

	summary := service.BuildSummary(result)

	require.NotNil(t, summary.AvgDAU)
	assert.Equal(t, 3.0, *summary.AvgDAU)
	require.NotNil(t, summary.TotalRevenue)
	assert.Equal(t, 100.0, *summary.TotalRevenue)
	assert.Equal(t, []string{"whale"}, summary.Segments)
	assert.Equal(t, 1, summary.AnomalyCount)
	require.NotNil(t, summary.ChurnRate)
	assert.Equal(t, 0.5, *summary.ChurnRate)
}

func TestBuildSummaryEmptyResult(t *testing.T) {
	service := testService(t)
	summary := service.BuildSummary(&AnalysisResult{})

	assert.Nil(t, summary.AvgDAU)
	assert.Nil(t, summary.TotalRevenue)
	require.NotNil(t, summary.ChurnRate)
}
