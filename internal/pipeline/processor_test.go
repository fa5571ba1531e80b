package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gamepulse/internal/config"
	"gamepulse/internal/dataset"
	"gamepulse/pkg/contracts/domain"
)

func writeTempCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func defaultMapping(t *testing.T) *config.Mapping {
	t.Helper()
	m, err := config.DefaultMapping()
	require.NoError(t, err)
	return m
}

func TestProcessAggregateFile(t *testing.T) {
	csv := `User_ID,Signup_Date,Last_Login,Game_Purchases,Total_Revenue_USD,Total_Play_Sessions,Device_Type,Country
u1,2024-01-01,2024-01-11,3,30,5,iOS,US
u2,2024-01-05,2024-01-05,0,0,2,Android,DE
`
	p := NewProcessor(defaultMapping(t), nil)
	result, err := p.Process(context.Background(), writeTempCSV(t, csv), Options{Seed: 1})
	require.NoError(t, err)

	assert.True(t, result.Synthesized)
	assert.Equal(t, 2, result.RowsLoaded)
	assert.Zero(t, result.Duplicates)

	// Total_Revenue_USD serves both the per-event revenue field and the
	// aggregate total; the aggregate reading drives synthesis here.
	assert.True(t, result.Schema.Has(domain.FieldTotalRevenue))

	counts := map[string]int{}
	var revenue float64
	for _, ev := range result.Events {
		counts[ev.UserID+"/"+ev.EventName]++
		revenue += ev.Revenue
	}
	assert.Equal(t, 1, counts["u1/signup"])
	assert.Equal(t, 3, counts["u1/purchase"])
	assert.Equal(t, 5, counts["u1/session_start"])
	assert.Equal(t, 1, counts["u2/signup"])
	assert.Equal(t, 0, counts["u2/purchase"])
	assert.Equal(t, 2, counts["u2/session_start"])
	assert.InDelta(t, 30.0, revenue, 1e-9, "synthesis preserves total revenue")
}

func TestProcessAggregateFileDuplicateRows(t *testing.T) {
	csv := `User_ID,Signup_Date,Last_Login,Game_Purchases,Total_Revenue_USD,Total_Play_Sessions
u1,2024-01-01,2024-01-11,3,30,0
u1,2024-01-01,2024-01-11,3,30,0
`
	p := NewProcessor(defaultMapping(t), nil)
	result, err := p.Process(context.Background(), writeTempCSV(t, csv), Options{Seed: 1})
	require.NoError(t, err)

	assert.True(t, result.Synthesized)
	assert.Equal(t, 2, result.RowsLoaded)
	assert.Equal(t, 1, result.Duplicates, "repeated aggregate row counted once")

	purchases := 0
	var revenue float64
	for _, ev := range result.Events {
		if ev.EventName == "purchase" {
			purchases++
		}
		revenue += ev.Revenue
	}
	assert.Equal(t, 3, purchases, "duplicate row must not double purchases")
	assert.InDelta(t, 30.0, revenue, 1e-9)
}

func TestProcessEventLog(t *testing.T) {
	csv := `user_id,event_name,timestamp,revenue
u1,signup,2024-01-01 10:00:00,0
u1,purchase,2024-01-02 11:00:00,4.99
u1,purchase,2024-01-02 11:00:00,4.99
u2,session_start,2024-01-02 09:00:00,
,signup,2024-01-03 08:00:00,0
u3,level_up,,0
`
	p := NewProcessor(defaultMapping(t), nil)
	result, err := p.Process(context.Background(), writeTempCSV(t, csv), Options{Seed: 1})
	require.NoError(t, err)

	assert.False(t, result.Synthesized)
	assert.Equal(t, 1, result.Duplicates, "identical log rows collapse to one")
	assert.Equal(t, 1, result.MissingUser)
	// 6 rows: one duplicate, one missing user, one timestampless.
	assert.Len(t, result.Events, 3)

	for _, ev := range result.Events {
		assert.NotEmpty(t, ev.UserID)
		if ev.EventName == "purchase" {
			assert.Equal(t, domain.CategoryPurchase, ev.Category)
			assert.Equal(t, 4.99, ev.Revenue)
		}
	}
}

func TestProcessSeedDeterminism(t *testing.T) {
	csv := `User_ID,Signup_Date,Last_Login,Game_Purchases,Total_Revenue_USD
u1,2024-01-01,2024-02-01,4,20
`
	path := writeTempCSV(t, csv)
	p := NewProcessor(defaultMapping(t), nil)

	a, err := p.Process(context.Background(), path, Options{Seed: 99})
	require.NoError(t, err)
	b, err := p.Process(context.Background(), path, Options{Seed: 99})
	require.NoError(t, err)

	require.Equal(t, len(a.Events), len(b.Events))
	for i := range a.Events {
		assert.Equal(t, a.Events[i].Timestamp, b.Events[i].Timestamp)
	}
}

func TestProcessUnsupportedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input.txt")
	require.NoError(t, os.WriteFile(path, []byte("not tabular"), 0o644))

	p := NewProcessor(defaultMapping(t), nil)
	_, err := p.Process(context.Background(), path, Options{})
	assert.True(t, errors.Is(err, dataset.ErrUnsupportedFormat))
}

func TestProcessCancelledContext(t *testing.T) {
	csv := "user_id,event_name,timestamp\nu1,signup,2024-01-01 10:00:00\n"
	path := writeTempCSV(t, csv)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewProcessor(defaultMapping(t), nil)
	_, err := p.Process(ctx, path, Options{})
	assert.ErrorIs(t, err, context.Canceled)
}
