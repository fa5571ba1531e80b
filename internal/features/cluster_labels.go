package features

import "gamepulse/internal/analytics"

// Cluster labels assigned from revenue and activity quantiles.
const (
	LabelHighValue      = "High Value"
	LabelMediumValue    = "Medium Value"
	LabelHighEngagement = "High Engagement"
	LabelLowEngagement  = "Low Engagement"
)

// ClusterVector returns the subset of features used for clustering:
// total revenue, total events, lifetime days, events per day.
func ClusterVector(f UserFeature) []float64 {
	return []float64{f.TotalRevenue, float64(f.TotalEvents), float64(f.LifetimeDays), f.EventsPerDay}
}

// ClusterMatrix builds the clustering matrix from feature rows.
func ClusterMatrix(features []UserFeature) [][]float64 {
	x := make([][]float64, len(features))
	for i, f := range features {
		x[i] = ClusterVector(f)
	}
	return x
}

// LabelClusters names each cluster by its members' average revenue and
// activity relative to population quantiles: above the 80th revenue
// percentile is High Value, above the 50th Medium Value, above the 70th
// activity percentile High Engagement, otherwise Low Engagement.
func LabelClusters(features []UserFeature, labels []int) map[int]string {
	revenues := make([]float64, len(features))
	activity := make([]float64, len(features))
	for i, f := range features {
		revenues[i] = f.TotalRevenue
		activity[i] = float64(f.TotalEvents)
	}
	revP80 := analytics.Quantile(revenues, 0.8)
	revP50 := analytics.Quantile(revenues, 0.5)
	actP70 := analytics.Quantile(activity, 0.7)

	sums := make(map[int]*struct {
		revenue, events float64
		n               int
	})
	for i, c := range labels {
		s, ok := sums[c]
		if !ok {
			s = &struct {
				revenue, events float64
				n               int
			}{}
			sums[c] = s
		}
		s.revenue += features[i].TotalRevenue
		s.events += float64(features[i].TotalEvents)
		s.n++
	}

	names := make(map[int]string, len(sums))
	for c, s := range sums {
		avgRevenue := s.revenue / float64(s.n)
		avgEvents := s.events / float64(s.n)
		switch {
		case avgRevenue > revP80:
			names[c] = LabelHighValue
		case avgRevenue > revP50:
			names[c] = LabelMediumValue
		case avgEvents > actP70:
			names[c] = LabelHighEngagement
		default:
			names[c] = LabelLowEngagement
		}
	}
	return names
}
