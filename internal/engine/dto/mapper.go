package dto

// CausalEffect is one predicted second-order effect as returned by the
// causal-mapping collaborator.
type CausalEffect struct {
	Ticker          string  `json:"ticker"`
	Relationship    string  `json:"relationship"`
	ImpactDirection string  `json:"impact_direction"`
	ImpactMagnitude float64 `json:"impact_magnitude"`
	Confidence      float64 `json:"confidence"`
	TimeLagDays     int     `json:"time_lag_days"`
	Rationale       string  `json:"rationale"`
}

// CausalMapResult groups predicted effects by category name.
type CausalMapResult struct {
	Effects map[string][]CausalEffect `json:"effects"`
}
