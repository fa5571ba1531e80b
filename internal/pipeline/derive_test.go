package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gamepulse/pkg/contracts/domain"
)

func TestDeriveFeaturesDateParts(t *testing.T) {
	// 2024-03-04 is a Monday in ISO week 10.
	ts := time.Date(2024, 3, 4, 18, 30, 0, 0, TargetZone)
	events := []domain.EventRecord{
		{UserID: "u1", EventName: "session_start", Timestamp: ts},
	}

	enriched := DeriveFeatures(events)
	require.Len(t, enriched, 1)

	ev := enriched[0]
	assert.Equal(t, "2024-03-04", ev.Date)
	assert.Equal(t, 18, ev.Hour)
	assert.Equal(t, "Monday", ev.DayOfWeek)
	assert.Equal(t, 10, ev.ISOWeek)
	assert.Equal(t, 3, ev.Month)
}

func TestDeriveFeaturesRollups(t *testing.T) {
	day := func(d int) time.Time {
		return time.Date(2024, 1, 1+d, 12, 0, 0, 0, TargetZone)
	}
	events := []domain.EventRecord{
		{UserID: "u1", EventName: "signup", Timestamp: day(0)},
		{UserID: "u1", EventName: "purchase", Timestamp: day(3), Revenue: 9.99},
		{UserID: "u1", EventName: "purchase", Timestamp: day(9), Revenue: 0.01},
		{UserID: "u2", EventName: "signup", Timestamp: day(5)},
	}

	enriched := DeriveFeatures(events)
	require.Len(t, enriched, 4)

	for _, ev := range enriched {
		switch ev.UserID {
		case "u1":
			assert.Equal(t, 3, ev.EventCount)
			assert.InDelta(t, 10.0, ev.TotalRevenue, 1e-9)
			assert.Equal(t, day(0), ev.FirstSeen)
			assert.Equal(t, day(9), ev.LastSeen)
			assert.Equal(t, 10, ev.DaysActive)
		case "u2":
			assert.Equal(t, 1, ev.EventCount)
			assert.Equal(t, 0.0, ev.TotalRevenue)
			assert.Equal(t, 1, ev.DaysActive, "a single event still counts one active day")
		}
	}

	// All rows for a user carry identical rollup values.
	assert.Equal(t, enriched[0].UserRollup, enriched[1].UserRollup)
	assert.Equal(t, enriched[1].UserRollup, enriched[2].UserRollup)
}

func TestDeriveFeaturesEmpty(t *testing.T) {
	assert.Empty(t, DeriveFeatures(nil))
}
