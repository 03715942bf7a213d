package entity

import "time"

// DetectionRule identifies which detector rule produced an event.
type DetectionRule string

const (
	RuleIntraday DetectionRule = "intraday"
	RuleMultiDay DetectionRule = "multi_day"
	RuleNews     DetectionRule = "news"
)

// PrimaryEvent is a detected significant move in a tracked instrument.
// It is immutable once created.
type PrimaryEvent struct {
	Ticker               string        `json:"ticker"`
	Description          string        `json:"description"`
	Category             string        `json:"category"`
	Magnitude            float64       `json:"magnitude"` // 1..10
	Return               float64       `json:"return"`    // signed move that triggered detection
	ExpectedDurationDays int           `json:"expected_duration_days"`
	Rule                 DetectionRule `json:"rule"`
	DetectedAt           time.Time     `json:"detected_at"`
}
