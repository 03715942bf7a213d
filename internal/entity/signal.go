package entity

// Action is the trade direction of a signal.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
)

// TradeStrategy classifies how a signal should be expressed.
type TradeStrategy string

const (
	StrategyDirectEquity       TradeStrategy = "DIRECT_EQUITY"
	StrategyOptionsDirectional TradeStrategy = "OPTIONS_DIRECTIONAL"
	StrategyOptionsSpread      TradeStrategy = "OPTIONS_SPREAD"
	StrategyPairsTrade         TradeStrategy = "PAIRS_TRADE"
)

// TradeSignal is an actionable trade derived from an AffectedEntity whose
// confidence cleared the threshold. SizeMultiplier is always
// confidence * impact magnitude.
type TradeSignal struct {
	Ticker          string        `json:"ticker"`
	Action          Action        `json:"action"`
	Strategy        TradeStrategy `json:"strategy"`
	SizeMultiplier  float64       `json:"size_multiplier"`
	TimeHorizonDays int           `json:"time_horizon_days"`
	StopLossPct     float64       `json:"stop_loss_pct"`
	TakeProfitPct   float64       `json:"take_profit_pct"`
	Confidence      float64       `json:"confidence"`
	Rationale       string        `json:"rationale"`
}
