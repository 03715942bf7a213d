package dto

// EventClassificationResult is the response of the event-classification
// collaborator for a batch of news items.
type EventClassificationResult struct {
	EventDescription string  `json:"event_description"`
	PrimaryTicker    string  `json:"primary_ticker"`
	Category         string  `json:"category"`
	Magnitude        float64 `json:"magnitude"`
	DurationDays     int     `json:"duration_days"`
}
