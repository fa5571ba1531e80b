package pipeline

import (
	"log/slog"
	"math/rand"
	"time"

	"gamepulse/internal/dataset"
	"gamepulse/pkg/contracts/domain"
)

// maxSynthSessions caps how many session events are generated per user.
// This is a deliberate performance bound, not a correctness requirement.
const maxSynthSessions = 100

// defaultSynthDate anchors synthesized timestamps when a user record
// lacks signup or last-login dates.
var defaultSynthDate = time.Date(2024, 1, 1, 0, 0, 0, 0, TargetZone)

// Synthesizer turns aggregate per-user records into a plausible event
// stream preserving each user's totals. Timestamp placement draws from
// the injected random source so runs can be made reproducible.
type Synthesizer struct {
	rng    *rand.Rand
	logger *slog.Logger
}

// NewSynthesizer creates a Synthesizer over the given random source.
func NewSynthesizer(rng *rand.Rand, logger *slog.Logger) *Synthesizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Synthesizer{
		rng:    rng,
		logger: logger.With(slog.String("component", "synthesizer")),
	}
}

// CanSynthesize reports whether the detected schema describes aggregate
// user data rather than a raw event log.
func CanSynthesize(schema domain.SchemaMap) bool {
	if schema.Has(domain.FieldEventName) && schema.Has(domain.FieldTimestamp) {
		return false
	}
	return schema.Has(domain.FieldSignupDate) ||
		schema.Has(domain.FieldGamePurchases) ||
		schema.Has(domain.FieldTotalPlaySessions)
}

// Synthesize emits, per user: one signup event at the signup date, one
// purchase event per recorded purchase with evenly split revenue, and up
// to maxSynthSessions session_start events. Purchase and session
// timestamps fall uniformly on whole days between signup and last login,
// pinned to signup when that interval is empty or inverted. Every event
// carries the user's attributes verbatim.
func (s *Synthesizer) Synthesize(t *dataset.Table, schema domain.SchemaMap) []domain.EventRecord {
	var events []domain.EventRecord

	for _, row := range t.Rows {
		userID := dataset.String(row[schema.Column(domain.FieldUserID, "User_ID")])
		if userID == "" {
			continue
		}

		attrs := userAttrs(row, schema)
		signup, hasSignup := timeValue(row[schema.Column(domain.FieldSignupDate, "")])
		lastLogin, hasLogin := timeValue(row[schema.Column(domain.FieldLastLogin, "")])
		if !hasSignup {
			signup = defaultSynthDate
		}
		if !hasLogin {
			lastLogin = signup
		}

		if schema.Has(domain.FieldSignupDate) && hasSignup {
			events = append(events, newEvent(userID, "signup", signup, 0, domain.CategorySystem, attrs))
		}

		if schema.Has(domain.FieldGamePurchases) {
			count, ok := numericValue(row[schema[domain.FieldGamePurchases]])
			total, _ := numericValue(row[schema.Column(domain.FieldTotalRevenue, "Total_Revenue_USD")])
			if ok && count > 0 && total > 0 {
				perPurchase := total / count
				for i := 0; i < int(count); i++ {
					ts := s.placeBetween(signup, lastLogin)
					events = append(events, newEvent(userID, "purchase", ts, perPurchase, domain.CategoryPurchase, attrs))
				}
			}
		}

		if schema.Has(domain.FieldTotalPlaySessions) {
			count, ok := numericValue(row[schema[domain.FieldTotalPlaySessions]])
			if ok && count > 0 {
				n := int(count)
				if n > maxSynthSessions {
					n = maxSynthSessions
				}
				for i := 0; i < n; i++ {
					ts := s.placeBetween(signup, lastLogin)
					events = append(events, newEvent(userID, "session_start", ts, 0, domain.CategoryGameplay, attrs))
				}
			}
		}
	}

	s.logger.Info("synthesized events from aggregate user data",
		slog.Int("users", len(t.Rows)), slog.Int("events", len(events)))

	return events
}

// placeBetween picks a uniform whole-day offset in [from, to]. Empty or
// inverted intervals pin to from.
func (s *Synthesizer) placeBetween(from, to time.Time) time.Time {
	days := int(to.Sub(from).Hours() / 24)
	if days <= 0 {
		return from
	}
	return from.AddDate(0, 0, s.rng.Intn(days+1))
}

// userAttrs captures the attribute columns carried onto every
// synthesized event.
type attrSet struct {
	deviceType, country, gameTitle, gender string
	age                                    *float64
	subTier, rankTier                      string
	subTierNum, rankTierNum                float64
}

func userAttrs(row dataset.Row, schema domain.SchemaMap) attrSet {
	a := attrSet{
		deviceType: stringAttr(row, schema, domain.FieldDeviceType, "unknown"),
		country:    stringAttr(row, schema, domain.FieldCountry, "unknown"),
		gameTitle:  stringAttr(row, schema, domain.FieldGameTitle, "unknown"),
		gender:     stringAttr(row, schema, domain.FieldGender, ""),
	}

	if col, ok := schema[domain.FieldAge]; ok {
		if age, ok := numericValue(row[col]); ok {
			a.age = &age
		}
	}
	if col, ok := schema[domain.FieldSubscriptionTier]; ok {
		a.subTier = dataset.String(row[col])
		a.subTierNum, _ = numericValue(row[col+"_numeric"])
	}
	if col, ok := schema[domain.FieldRankTier]; ok {
		a.rankTier = dataset.String(row[col])
		a.rankTierNum, _ = numericValue(row[col+"_numeric"])
	}
	return a
}

func stringAttr(row dataset.Row, schema domain.SchemaMap, f domain.Field, fallback string) string {
	col, ok := schema[f]
	if !ok {
		return fallback
	}
	if v := dataset.String(row[col]); v != "" {
		return v
	}
	return fallback
}

func newEvent(userID, name string, ts time.Time, revenue float64, cat domain.Category, a attrSet) domain.EventRecord {
	return domain.EventRecord{
		UserID:              userID,
		EventName:           name,
		Timestamp:           ts,
		Revenue:             revenue,
		Category:            cat,
		DeviceType:          a.deviceType,
		Country:             a.country,
		GameTitle:           a.gameTitle,
		Gender:              a.gender,
		Age:                 a.age,
		SubscriptionTier:    a.subTier,
		SubscriptionTierNum: a.subTierNum,
		RankTier:            a.rankTier,
		RankTierNum:         a.rankTierNum,
	}
}
