package analytics

import (
	"fmt"

	"gamepulse/pkg/contracts/domain"
)

// DatePoint is one bucket of an activity series.
type DatePoint struct {
	Bucket string `json:"bucket"`
	Users  int    `json:"users"`
}

// ActivityReport holds the three independently bucketed active-user
// series, each ordered by bucket ascending.
type ActivityReport struct {
	DAU []DatePoint `json:"dau"`
	WAU []DatePoint `json:"wau"`
	MAU []DatePoint `json:"mau"`
}

// AvgDAU returns the arithmetic mean of the daily series.
func (r ActivityReport) AvgDAU() float64 {
	if len(r.DAU) == 0 {
		return 0
	}
	var sum int
	for _, p := range r.DAU {
		sum += p.Users
	}
	return float64(sum) / float64(len(r.DAU))
}

// Activity counts distinct users per calendar date, ISO week and
// calendar month.
func (e *Engine) Activity(events []domain.EventRecord) ActivityReport {
	daily := make(map[string]map[string]struct{})
	weekly := make(map[string]map[string]struct{})
	monthly := make(map[string]map[string]struct{})

	for _, ev := range events {
		year, week := ev.Timestamp.ISOWeek()
		addUser(daily, ev.Timestamp.Format("2006-01-02"), ev.UserID)
		addUser(weekly, fmt.Sprintf("%04d-W%02d", year, week), ev.UserID)
		addUser(monthly, ev.Timestamp.Format("2006-01"), ev.UserID)
	}

	return ActivityReport{
		DAU: toSeries(daily),
		WAU: toSeries(weekly),
		MAU: toSeries(monthly),
	}
}

func addUser(buckets map[string]map[string]struct{}, bucket, userID string) {
	users, ok := buckets[bucket]
	if !ok {
		users = make(map[string]struct{})
		buckets[bucket] = users
	}
	users[userID] = struct{}{}
}

func toSeries(buckets map[string]map[string]struct{}) []DatePoint {
	series := make([]DatePoint, 0, len(buckets))
	for _, bucket := range sortedKeys(buckets) {
		series = append(series, DatePoint{Bucket: bucket, Users: len(buckets[bucket])})
	}
	return series
}
