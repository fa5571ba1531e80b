package analytics

import (
	"strings"

	"gamepulse/pkg/contracts/domain"
)

// FunnelStep is one step of a conversion funnel.
type FunnelStep struct {
	Step           string  `json:"step"`
	Users          int     `json:"users"`
	ConversionRate float64 `json:"conversion_rate"`
	DropOffRate    float64 `json:"drop_off_rate"`
}

// FunnelReport holds the ordered funnel steps.
type FunnelReport struct {
	Steps []FunnelStep `json:"funnel_steps"`
}

// Funnel counts, per ordered step label, the distinct users with any
// event name containing the label (case-insensitive). Step 0 conversion
// is 100% by definition; later conversions are measured against step 0
// and drop-off against the previous step. Because matching is by
// substring, a later step's match set can exceed an earlier one; that
// is a property of the definition, not an error.
func (e *Engine) Funnel(events []domain.EventRecord, steps []string) FunnelReport {
	report := FunnelReport{}

	var baseUsers, prevUsers int
	for i, step := range steps {
		users := usersMatching(events, step)

		fs := FunnelStep{Step: step, Users: users}
		switch {
		case i == 0:
			fs.ConversionRate = 100.0
			fs.DropOffRate = 0.0
			baseUsers = users
		default:
			if baseUsers > 0 {
				fs.ConversionRate = round2(float64(users) / float64(baseUsers) * 100)
			}
			if prevUsers > 0 {
				fs.DropOffRate = round2(float64(prevUsers-users) / float64(prevUsers) * 100)
			}
		}
		prevUsers = users
		report.Steps = append(report.Steps, fs)
	}
	return report
}

func usersMatching(events []domain.EventRecord, step string) int {
	needle := strings.ToLower(step)
	users := make(map[string]struct{})
	for _, ev := range events {
		if strings.Contains(strings.ToLower(ev.EventName), needle) {
			users[ev.UserID] = struct{}{}
		}
	}
	return len(users)
}
