package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gamepulse/pkg/contracts/domain"
)

func TestActivityCountsDistinctUsers(t *testing.T) {
	e := NewEngine(nil)
	events := []domain.EventRecord{
		event("u1", "session_start", 0, 0),
		event("u1", "purchase", 0, 5), // same user, same day: counted once
		event("u2", "session_start", 0, 0),
		event("u1", "session_start", 1, 0),
	}

	report := e.Activity(events)

	require.Len(t, report.DAU, 2)
	assert.Equal(t, DatePoint{Bucket: "2024-01-01", Users: 2}, report.DAU[0])
	assert.Equal(t, DatePoint{Bucket: "2024-01-02", Users: 1}, report.DAU[1])
}

func TestActivityWeeklyBuckets(t *testing.T) {
	e := NewEngine(nil)
	// 2024-01-07 is a Sunday (ISO week 1); 2024-01-08 starts week 2.
	events := []domain.EventRecord{
		event("u1", "session_start", 6, 0),
		event("u2", "session_start", 6, 0),
		event("u1", "session_start", 7, 0),
	}

	report := e.Activity(events)

	require.Len(t, report.WAU, 2)
	assert.Equal(t, DatePoint{Bucket: "2024-W01", Users: 2}, report.WAU[0])
	assert.Equal(t, DatePoint{Bucket: "2024-W02", Users: 1}, report.WAU[1])
}

func TestActivityMonthlyBuckets(t *testing.T) {
	e := NewEngine(nil)
	events := []domain.EventRecord{
		event("u1", "session_start", 0, 0),
		event("u2", "session_start", 30, 0), // 2024-01-31
		event("u1", "session_start", 31, 0), // 2024-02-01
	}

	report := e.Activity(events)

	require.Len(t, report.MAU, 2)
	assert.Equal(t, DatePoint{Bucket: "2024-01", Users: 2}, report.MAU[0])
	assert.Equal(t, DatePoint{Bucket: "2024-02", Users: 1}, report.MAU[1])
}

func TestAvgDAU(t *testing.T) {
	report := ActivityReport{DAU: []DatePoint{{Users: 3}, {Users: 1}}}
	assert.Equal(t, 2.0, report.AvgDAU())

	assert.Equal(t, 0.0, ActivityReport{}.AvgDAU())
}
