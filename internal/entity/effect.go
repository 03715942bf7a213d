package entity

// ImpactDirection is the predicted direction of a second-order move.
type ImpactDirection string

const (
	ImpactPositive ImpactDirection = "positive"
	ImpactNegative ImpactDirection = "negative"
)

// AffectedEntity is a predicted second-order effect on a related instrument,
// produced by the effect mapper from a PrimaryEvent.
type AffectedEntity struct {
	Ticker          string               `json:"ticker"`
	Category        RelationshipCategory `json:"relationship"`
	ImpactDirection ImpactDirection      `json:"impact_direction"`
	ImpactMagnitude float64              `json:"impact_magnitude"` // 0..1
	Confidence      float64              `json:"confidence"`       // 0..1
	TimeLagDays     int                  `json:"time_lag_days"`    // 0..30
	Rationale       string               `json:"rationale"`
}

// Score is the ranking product used for de-duplication and sizing.
func (a AffectedEntity) Score() float64 {
	return a.Confidence * a.ImpactMagnitude
}
