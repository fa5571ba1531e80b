package analytics

import (
	"sort"

	"gamepulse/pkg/contracts/domain"
)

// Segment names in ascending spend order.
const (
	SegmentNonPaying = "non_paying"
	SegmentCasual    = "casual"
	SegmentMidTier   = "mid_tier"
	SegmentWhale     = "whale"
)

var segmentOrder = []string{SegmentNonPaying, SegmentCasual, SegmentMidTier, SegmentWhale}

// UserSegment is one user's spend profile and assigned segment.
type UserSegment struct {
	UserID     string  `json:"user_id"`
	TotalSpend float64 `json:"total_spend"`
	Frequency  int     `json:"frequency"`
	Segment    string  `json:"segment"`
}

// SegmentSummary aggregates one segment.
type SegmentSummary struct {
	Segment      string  `json:"segment"`
	Users        int     `json:"users"`
	TotalSpend   float64 `json:"total_spend"`
	AvgSpend     float64 `json:"avg_spend"`
	AvgFrequency float64 `json:"avg_frequency"`
}

// SegmentReport holds per-user assignments and per-segment summaries.
type SegmentReport struct {
	Users   []UserSegment    `json:"user_segments"`
	Summary []SegmentSummary `json:"segment_summary"`
}

// SegmentNames returns the segments present in the summary.
func (r SegmentReport) SegmentNames() []string {
	names := make([]string, 0, len(r.Summary))
	for _, s := range r.Summary {
		names = append(names, s.Segment)
	}
	return names
}

// SegmentUsers assigns each user a spending tier. Rules apply in fixed
// order and later rules overwrite earlier ones: non_paying, then casual
// (spend > 0), then mid_tier (spend > 80th percentile), then whale
// (spend > 95th percentile). The thresholds nest, so the highest
// matching tier survives.
func (e *Engine) SegmentUsers(events []domain.EventRecord) SegmentReport {
	spend := make(map[string]float64)
	frequency := make(map[string]int)
	for _, ev := range events {
		spend[ev.UserID] += ev.Revenue
		frequency[ev.UserID]++
	}

	userIDs := make([]string, 0, len(spend))
	spends := make([]float64, 0, len(spend))
	for id, s := range spend {
		userIDs = append(userIDs, id)
		spends = append(spends, s)
	}
	sort.Strings(userIDs)

	p80 := Quantile(spends, 0.80)
	p95 := Quantile(spends, 0.95)

	report := SegmentReport{}
	bySegment := make(map[string][]UserSegment)

	for _, id := range userIDs {
		seg := SegmentNonPaying
		if spend[id] > 0 {
			seg = SegmentCasual
		}
		if spend[id] > p80 {
			seg = SegmentMidTier
		}
		if spend[id] > p95 {
			seg = SegmentWhale
		}

		us := UserSegment{
			UserID:     id,
			TotalSpend: round2(spend[id]),
			Frequency:  frequency[id],
			Segment:    seg,
		}
		report.Users = append(report.Users, us)
		bySegment[seg] = append(bySegment[seg], us)
	}

	for _, seg := range segmentOrder {
		users := bySegment[seg]
		if len(users) == 0 {
			continue
		}
		var spendSum, freqSum float64
		for _, u := range users {
			spendSum += u.TotalSpend
			freqSum += float64(u.Frequency)
		}
		report.Summary = append(report.Summary, SegmentSummary{
			Segment:      seg,
			Users:        len(users),
			TotalSpend:   round2(spendSum),
			AvgSpend:     round2(spendSum / float64(len(users))),
			AvgFrequency: round2(freqSum / float64(len(users))),
		})
	}
	return report
}
