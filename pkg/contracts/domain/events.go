// Package domain defines the canonical data types shared across the
// analytics pipeline: schema mappings, event records, and derived rows.
package domain

import "time"

// Field is a canonical semantic field that schema detection can bind
// to a source column.
type Field string

// Canonical fields recognized by schema detection.
const (
	FieldUserID            Field = "user_id"
	FieldTimestamp         Field = "timestamp"
	FieldRevenue           Field = "revenue"
	FieldEventName         Field = "event_name"
	FieldDeviceType        Field = "device_type"
	FieldSignupDate        Field = "signup_date"
	FieldLastLogin         Field = "last_login"
	FieldSubscriptionTier  Field = "subscription_tier"
	FieldRankTier          Field = "rank_tier"
	FieldGamePurchases     Field = "game_purchases"
	FieldTotalPlaySessions Field = "total_play_sessions"
	FieldTotalRevenue      Field = "total_revenue"
	FieldCurrencySpent     Field = "currency_spent"
	FieldLevel             Field = "level"
	FieldAge               Field = "age"
	FieldGender            Field = "gender"
	FieldCountry           Field = "country"
	FieldGameMode          Field = "game_mode"
	FieldGameTitle         Field = "game_title"
)

// SchemaMap binds canonical fields to the source column names they were
// detected on. Built once per input file and immutable afterward; fields
// that were not detected are simply absent.
type SchemaMap map[Field]string

// Has reports whether the canonical field was detected.
func (m SchemaMap) Has(f Field) bool {
	_, ok := m[f]
	return ok
}

// Column returns the bound source column for f, or the fallback when the
// field was not detected.
func (m SchemaMap) Column(f Field, fallback string) string {
	if col, ok := m[f]; ok {
		return col
	}
	return fallback
}

// Category classifies an event by its name.
type Category string

const (
	CategoryGameplay Category = "gameplay"
	CategoryPurchase Category = "purchase"
	CategorySystem   Category = "system"
	CategoryOther    Category = "other"
)

// EventRecord is the canonical event representation, either read from a
// raw event log or synthesized from aggregate user data.
type EventRecord struct {
	UserID    string    `json:"user_id"`
	EventName string    `json:"event_name"`
	Timestamp time.Time `json:"timestamp"`
	Revenue   float64   `json:"revenue"`
	Category  Category  `json:"event_category"`

	// User attributes carried verbatim from the source record.
	DeviceType          string   `json:"device_type,omitempty"`
	Country             string   `json:"country,omitempty"`
	GameTitle           string   `json:"game_title,omitempty"`
	Gender              string   `json:"gender,omitempty"`
	Age                 *float64 `json:"age,omitempty"`
	SubscriptionTier    string   `json:"subscription_tier,omitempty"`
	SubscriptionTierNum float64  `json:"subscription_tier_numeric,omitempty"`
	RankTier            string   `json:"rank_tier,omitempty"`
	RankTierNum         float64  `json:"rank_tier_numeric,omitempty"`
}

// UserRollup aggregates one user's events. Attached to every event row
// for that user during feature derivation.
type UserRollup struct {
	EventCount   int       `json:"event_count"`
	FirstSeen    time.Time `json:"first_seen"`
	LastSeen     time.Time `json:"last_seen"`
	TotalRevenue float64   `json:"total_revenue"`
	DaysActive   int       `json:"days_active"`
}

// EnrichedEvent is an EventRecord with date parts and the owning user's
// rollup joined on.
type EnrichedEvent struct {
	EventRecord

	Date      string `json:"date"` // YYYY-MM-DD in the target zone
	Hour      int    `json:"hour"`
	DayOfWeek string `json:"day_of_week"`
	ISOWeek   int    `json:"week"`
	Month     int    `json:"month"`

	UserRollup
}
