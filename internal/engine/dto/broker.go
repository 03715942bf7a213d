package dto

import "time"

// Order intent types published to the execution venue.
const (
	OrderIntentOpen   = "open"
	OrderIntentClose  = "close"
	OrderIntentStop   = "attach_stop"
	OrderIntentTarget = "attach_target"
)

// OrderIntent is the payload published to the execution venue stream. The
// engine only decides intent; order management is the venue's concern.
type OrderIntent struct {
	Type      string    `json:"type"`
	Ticker    string    `json:"ticker"`
	Direction string    `json:"direction,omitempty"`
	Size      float64   `json:"size,omitempty"`
	Level     float64   `json:"level,omitempty"`
	IssuedAt  time.Time `json:"issued_at"`
}
