package analytics

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"gamepulse/pkg/contracts/domain"
)

// event builds a minimal test event on the given day offset from
// 2024-01-01.
func event(userID, name string, dayOffset int, revenue float64) domain.EventRecord {
	return domain.EventRecord{
		UserID:    userID,
		EventName: name,
		Timestamp: time.Date(2024, 1, 1+dayOffset, 12, 0, 0, 0, time.UTC),
		Revenue:   revenue,
	}
}

func TestQuantile(t *testing.T) {
	xs := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}

	tests := []struct {
		name string
		q    float64
		want float64
	}{
		{"median interpolates", 0.5, 5.5},
		{"p80 interpolates", 0.8, 8.2},
		{"p0 is min", 0, 1},
		{"p100 is max", 1, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Quantile(xs, tt.q), 1e-9)
		})
	}

	assert.Equal(t, 0.0, Quantile(nil, 0.5))
	assert.Equal(t, 7.0, Quantile([]float64{7}, 0.95))
}

func TestQuantileDoesNotMutateInput(t *testing.T) {
	xs := []float64{3, 1, 2}
	Quantile(xs, 0.5)
	assert.Equal(t, []float64{3, 1, 2}, xs)
}

func TestFiniteMean(t *testing.T) {
	assert.InDelta(t, 2.0, finiteMean([]float64{1, 2, 3}), 1e-9)
	assert.InDelta(t, 2.0, finiteMean([]float64{1, math.NaN(), 3, math.Inf(1)}), 1e-9)
	assert.Equal(t, 0.0, finiteMean(nil))
	assert.Equal(t, 0.0, finiteMean([]float64{math.NaN()}))
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 3.33, round2(10.0/3.0))
	assert.Equal(t, 66.67, round2(200.0/3.0))
	assert.Equal(t, 0.0, round2(0))
}
