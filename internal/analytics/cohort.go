package analytics

import (
	"sort"

	"gamepulse/pkg/contracts/domain"
)

// cohortPeriodDays is the fixed bucket length for retention periods.
// Deliberately 30 days, not true calendar months.
const cohortPeriodDays = 30

// CohortRow is one signup cohort tracked across periods. Retention uses
// nil for undefined cells: periods with no observed activity, or every
// period when the cohort has zero period-0 users.
type CohortRow struct {
	SignupDate string     `json:"signup_date"`
	Counts     []int      `json:"counts"`
	Retention  []*float64 `json:"retention"`
}

// CohortReport is the retention matrix, rows ordered by signup date.
type CohortReport struct {
	Periods int         `json:"periods"`
	Rows    []CohortRow `json:"rows"`
}

// CohortRetention buckets each user by earliest observed event date and
// counts distinct users active in each 30-day period since signup. Each
// row divides by its period-0 count to give retention fractions.
func (e *Engine) CohortRetention(events []domain.EventRecord) CohortReport {
	// Earliest observed date per user is the cohort signup date.
	signup := make(map[string]string)
	for _, ev := range events {
		date := ev.Timestamp.Format("2006-01-02")
		if prev, ok := signup[ev.UserID]; !ok || date < prev {
			signup[ev.UserID] = date
		}
	}

	// cohort date -> period -> distinct users
	type cell map[int]map[string]struct{}
	cohorts := make(map[string]cell)
	maxPeriod := 0

	for _, ev := range events {
		signupDate := signup[ev.UserID]
		signupTime, err := parseDate(signupDate)
		if err != nil {
			continue
		}
		eventTime, err := parseDate(ev.Timestamp.Format("2006-01-02"))
		if err != nil {
			continue
		}
		days := int(eventTime.Sub(signupTime).Hours() / 24)
		period := days / cohortPeriodDays
		if period < 0 {
			period = 0
		}
		if period > maxPeriod {
			maxPeriod = period
		}

		c, ok := cohorts[signupDate]
		if !ok {
			c = make(cell)
			cohorts[signupDate] = c
		}
		users, ok := c[period]
		if !ok {
			users = make(map[string]struct{})
			c[period] = users
		}
		users[ev.UserID] = struct{}{}
	}

	dates := make([]string, 0, len(cohorts))
	for d := range cohorts {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	report := CohortReport{Periods: maxPeriod + 1}
	for _, date := range dates {
		row := CohortRow{
			SignupDate: date,
			Counts:     make([]int, maxPeriod+1),
			Retention:  make([]*float64, maxPeriod+1),
		}
		for period, users := range cohorts[date] {
			row.Counts[period] = len(users)
		}
		base := row.Counts[0]
		for period, count := range row.Counts {
			if base == 0 || count == 0 {
				continue // undefined or unobserved cell
			}
			r := float64(count) / float64(base)
			row.Retention[period] = &r
		}
		report.Rows = append(report.Rows, row)
	}
	return report
}
