// Package features prepares per-user model features (churn label,
// activity and revenue rollups) and defines the capability interfaces
// the feature contract is trained against. Features are rebuilt from
// current events on every run; they are never persisted as source of
// truth.
package features

import (
	"sort"
	"time"

	"gamepulse/pkg/contracts/domain"
)

// churnRecencyDays is the recency beyond which a user counts as
// churned.
const churnRecencyDays = 7

// UserFeature is one user's feature row.
type UserFeature struct {
	UserID         string    `json:"user_id"`
	FirstSeen      time.Time `json:"first_seen"`
	LastSeen       time.Time `json:"last_seen"`
	TotalEvents    int       `json:"total_events"`
	TotalRevenue   float64   `json:"total_revenue"`
	AvgRevenue     float64   `json:"avg_revenue"`
	PurchaseEvents int       `json:"purchase_events"`
	GameplayEvents int       `json:"gameplay_events"`
	TotalSessions  int       `json:"total_sessions"`
	RecencyDays    int       `json:"recency_days"`
	LifetimeDays   int       `json:"lifetime_days"`
	EventsPerDay   float64   `json:"events_per_day"`
	RevenuePerDay  float64   `json:"revenue_per_day"`
	IsPaying       bool      `json:"is_paying"`
	IsChurned      bool      `json:"is_churned"`
}

// Vector returns the training features in a fixed order. Recency is
// excluded: it defines the churn label.
func (f UserFeature) Vector() []float64 {
	paying := 0.0
	if f.IsPaying {
		paying = 1
	}
	return []float64{
		float64(f.TotalEvents),
		f.TotalRevenue,
		f.AvgRevenue,
		float64(f.PurchaseEvents),
		float64(f.GameplayEvents),
		float64(f.TotalSessions),
		float64(f.LifetimeDays),
		f.EventsPerDay,
		f.RevenuePerDay,
		paying,
	}
}

// BuildUserFeatures derives one feature row per distinct user. The
// churn label compares last activity against now: more than 7 days idle
// means churned. now is injected so tests can pin it.
func BuildUserFeatures(events []domain.EventRecord, now time.Time) []UserFeature {
	byUser := make(map[string]*UserFeature)
	for _, ev := range events {
		f, ok := byUser[ev.UserID]
		if !ok {
			f = &UserFeature{UserID: ev.UserID, FirstSeen: ev.Timestamp, LastSeen: ev.Timestamp}
			byUser[ev.UserID] = f
		}
		f.TotalEvents++
		f.TotalRevenue += ev.Revenue
		if ev.Timestamp.Before(f.FirstSeen) {
			f.FirstSeen = ev.Timestamp
		}
		if ev.Timestamp.After(f.LastSeen) {
			f.LastSeen = ev.Timestamp
		}
		switch ev.Category {
		case domain.CategoryPurchase:
			f.PurchaseEvents++
		case domain.CategoryGameplay:
			f.GameplayEvents++
			f.TotalSessions++
		}
	}

	features := make([]UserFeature, 0, len(byUser))
	for _, f := range byUser {
		if f.TotalEvents > 0 {
			f.AvgRevenue = f.TotalRevenue / float64(f.TotalEvents)
		}
		f.RecencyDays = int(now.Sub(f.LastSeen).Hours() / 24)
		f.LifetimeDays = int(f.LastSeen.Sub(f.FirstSeen).Hours()/24) + 1
		f.EventsPerDay = float64(f.TotalEvents) / float64(f.LifetimeDays)
		f.RevenuePerDay = f.TotalRevenue / float64(f.LifetimeDays)
		f.IsPaying = f.TotalRevenue > 0
		f.IsChurned = f.RecencyDays > churnRecencyDays
		features = append(features, *f)
	}

	sort.Slice(features, func(i, j int) bool { return features[i].UserID < features[j].UserID })
	return features
}

// ChurnRate returns the fraction of users labeled churned.
func ChurnRate(features []UserFeature) float64 {
	if len(features) == 0 {
		return 0
	}
	churned := 0
	for _, f := range features {
		if f.IsChurned {
			churned++
		}
	}
	return float64(churned) / float64(len(features))
}

// Matrix converts feature rows to a training matrix in Vector order.
func Matrix(features []UserFeature) [][]float64 {
	x := make([][]float64, len(features))
	for i, f := range features {
		x[i] = f.Vector()
	}
	return x
}

// Labels returns the churn labels aligned with Matrix rows.
func Labels(features []UserFeature) []int {
	y := make([]int, len(features))
	for i, f := range features {
		if f.IsChurned {
			y[i] = 1
		}
	}
	return y
}
