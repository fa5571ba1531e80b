package pipeline

import (
	"gamepulse/pkg/contracts/domain"
)

// DeriveFeatures attaches date parts and per-user rollups to every
// event. Every row for a given user carries identical rollup values;
// by construction every user in the detail rows appears in its own
// rollup.
func DeriveFeatures(events []domain.EventRecord) []domain.EnrichedEvent {
	rollups := make(map[string]domain.UserRollup, len(events))
	for _, ev := range events {
		r, seen := rollups[ev.UserID]
		if !seen {
			r = domain.UserRollup{FirstSeen: ev.Timestamp, LastSeen: ev.Timestamp}
		}
		r.EventCount++
		r.TotalRevenue += ev.Revenue
		if ev.Timestamp.Before(r.FirstSeen) {
			r.FirstSeen = ev.Timestamp
		}
		if ev.Timestamp.After(r.LastSeen) {
			r.LastSeen = ev.Timestamp
		}
		rollups[ev.UserID] = r
	}

	for id, r := range rollups {
		r.DaysActive = int(r.LastSeen.Sub(r.FirstSeen).Hours()/24) + 1
		rollups[id] = r
	}

	enriched := make([]domain.EnrichedEvent, len(events))
	for i, ev := range events {
		ts := ev.Timestamp.In(TargetZone)
		_, week := ts.ISOWeek()
		enriched[i] = domain.EnrichedEvent{
			EventRecord: ev,
			Date:        ts.Format("2006-01-02"),
			Hour:        ts.Hour(),
			DayOfWeek:   ts.Weekday().String(),
			ISOWeek:     week,
			Month:       int(ts.Month()),
			UserRollup:  rollups[ev.UserID],
		}
	}
	return enriched
}
