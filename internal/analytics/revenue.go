package analytics

import (
	"sort"

	"gamepulse/pkg/contracts/domain"
)

// RevenuePoint is one day of revenue metrics.
type RevenuePoint struct {
	Date        string  `json:"date"`
	Revenue     float64 `json:"revenue"`
	PayingUsers int     `json:"paying_users"`
	ActiveUsers int     `json:"active_users"`
	ARPPU       float64 `json:"arppu"`
	ARPDAU      float64 `json:"arpdau"`
}

// RevenueReport aggregates daily revenue metrics. AvgARPPU and AvgARPDAU
// are arithmetic means of the daily ratios, not revenue-weighted.
type RevenueReport struct {
	Daily        []RevenuePoint `json:"daily_revenue"`
	TotalRevenue float64        `json:"total_revenue"`
	AvgARPPU     float64        `json:"avg_arppu"`
	AvgARPDAU    float64        `json:"avg_arpdau"`
}

// Revenue computes ARPPU and ARPDAU per day. Paying figures restrict to
// rows with revenue > 0; active-user counts cover the full user set for
// that day. Ratios round to 2 decimal places.
func (e *Engine) Revenue(events []domain.EventRecord) RevenueReport {
	dailyRevenue := make(map[string]float64)
	payingUsers := make(map[string]map[string]struct{})
	activeUsers := make(map[string]map[string]struct{})

	var total float64
	for _, ev := range events {
		date := ev.Timestamp.Format("2006-01-02")
		addUser(activeUsers, date, ev.UserID)
		if ev.Revenue > 0 {
			dailyRevenue[date] += ev.Revenue
			addUser(payingUsers, date, ev.UserID)
			total += ev.Revenue
		}
	}

	dates := make([]string, 0, len(dailyRevenue))
	for d := range dailyRevenue {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	report := RevenueReport{TotalRevenue: total}
	arppus := make([]float64, 0, len(dates))
	arpdaus := make([]float64, 0, len(dates))

	for _, date := range dates {
		revenue := dailyRevenue[date]
		paying := len(payingUsers[date])
		active := len(activeUsers[date])

		point := RevenuePoint{
			Date:        date,
			Revenue:     revenue,
			PayingUsers: paying,
			ActiveUsers: active,
		}
		if paying > 0 {
			point.ARPPU = round2(revenue / float64(paying))
			arppus = append(arppus, point.ARPPU)
		}
		if active > 0 {
			point.ARPDAU = round2(revenue / float64(active))
			arpdaus = append(arpdaus, point.ARPDAU)
		}
		report.Daily = append(report.Daily, point)
	}

	report.AvgARPPU = finiteMean(arppus)
	report.AvgARPDAU = finiteMean(arpdaus)
	return report
}
