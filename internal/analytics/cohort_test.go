package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gamepulse/pkg/contracts/domain"
)

func TestCohortRetention(t *testing.T) {
	e := NewEngine(nil)
	events := []domain.EventRecord{
		// Both users sign up on day 0; only u1 returns in period 1.
		event("u1", "signup", 0, 0),
		event("u2", "signup", 0, 0),
		event("u1", "session_start", 31, 0),
	}

	report := e.CohortRetention(events)

	assert.Equal(t, 2, report.Periods)
	require.Len(t, report.Rows, 1)

	row := report.Rows[0]
	assert.Equal(t, "2024-01-01", row.SignupDate)
	assert.Equal(t, []int{2, 1}, row.Counts)

	require.NotNil(t, row.Retention[0])
	assert.Equal(t, 1.0, *row.Retention[0], "period 0 retention is exactly 1")
	require.NotNil(t, row.Retention[1])
	assert.Equal(t, 0.5, *row.Retention[1])
}

func TestCohortRetentionPeriodBoundary(t *testing.T) {
	e := NewEngine(nil)
	events := []domain.EventRecord{
		event("u1", "signup", 0, 0),
		event("u1", "session_start", 29, 0), // still period 0
		event("u1", "session_start", 30, 0), // first day of period 1
	}

	report := e.CohortRetention(events)

	require.Len(t, report.Rows, 1)
	assert.Equal(t, []int{1, 1}, report.Rows[0].Counts)
}

func TestCohortRetentionUnobservedPeriodIsNil(t *testing.T) {
	e := NewEngine(nil)
	events := []domain.EventRecord{
		event("u1", "signup", 0, 0),
		event("u1", "session_start", 65, 0), // period 2, skipping period 1
	}

	report := e.CohortRetention(events)

	require.Len(t, report.Rows, 1)
	row := report.Rows[0]
	assert.Equal(t, []int{1, 0, 1}, row.Counts)
	assert.Nil(t, row.Retention[1], "a silent period stays undefined, not 0")
	require.NotNil(t, row.Retention[2])
	assert.Equal(t, 1.0, *row.Retention[2])
}

func TestCohortRetentionMultipleCohortsOrdered(t *testing.T) {
	e := NewEngine(nil)
	events := []domain.EventRecord{
		event("u2", "signup", 5, 0),
		event("u1", "signup", 0, 0),
	}

	report := e.CohortRetention(events)

	require.Len(t, report.Rows, 2)
	assert.Equal(t, "2024-01-01", report.Rows[0].SignupDate)
	assert.Equal(t, "2024-01-06", report.Rows[1].SignupDate)
}

func TestCohortRetentionEmpty(t *testing.T) {
	e := NewEngine(nil)
	report := e.CohortRetention(nil)
	assert.Empty(t, report.Rows)
}
