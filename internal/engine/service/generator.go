package service

import (
	"sort"

	"second-order-engine/internal/engine/config"
	"second-order-engine/internal/entity"
	"second-order-engine/pkg/logger"
)

// SignalGenerator filters and ranks predicted effects into a bounded list
// of actionable trade signals.
type SignalGenerator struct {
	cfg    *config.Config
	logger *logger.Logger
}

// NewSignalGenerator creates a new SignalGenerator.
func NewSignalGenerator(cfg *config.Config, log *logger.Logger) *SignalGenerator {
	return &SignalGenerator{cfg: cfg, logger: log}
}

// Generate turns effects into at most MaxSignals trade signals, ranked by
// descending size multiplier. The sort is stable: equal multipliers keep
// category-then-ticker input order. The confidence gate is strictly greater
// than the threshold.
func (g *SignalGenerator) Generate(effects map[entity.RelationshipCategory][]entity.AffectedEntity) []entity.TradeSignal {
	categories := make([]entity.RelationshipCategory, 0, len(effects))
	for category := range effects {
		categories = append(categories, category)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i] < categories[j] })

	var signals []entity.TradeSignal
	for _, category := range categories {
		for _, effect := range effects[category] {
			if effect.Confidence <= g.cfg.Engine.ConfidenceThreshold {
				g.logger.Debug("Signal rejected below confidence threshold",
					logger.StringField("ticker", effect.Ticker),
					logger.Float64Field("confidence", effect.Confidence))
				continue
			}
			signals = append(signals, g.buildSignal(effect))
		}
	}

	sort.SliceStable(signals, func(i, j int) bool {
		return signals[i].SizeMultiplier > signals[j].SizeMultiplier
	})
	if len(signals) > g.cfg.Engine.MaxSignals {
		signals = signals[:g.cfg.Engine.MaxSignals]
	}

	for _, signal := range signals {
		g.logger.Info("Signal generated",
			logger.StringField("ticker", signal.Ticker),
			logger.StringField("action", string(signal.Action)),
			logger.StringField("strategy", string(signal.Strategy)),
			logger.Float64Field("size_multiplier", signal.SizeMultiplier))
	}

	return signals
}

func (g *SignalGenerator) buildSignal(effect entity.AffectedEntity) entity.TradeSignal {
	action := entity.ActionSell
	if effect.ImpactDirection == entity.ImpactPositive {
		action = entity.ActionBuy
	}

	stopLoss := 0.03
	if effect.Confidence > 0.8 {
		stopLoss = 0.05
	}
	takeProfit := 0.07
	if effect.ImpactMagnitude > 0.7 {
		takeProfit = 0.10
	}

	return entity.TradeSignal{
		Ticker:          effect.Ticker,
		Action:          action,
		Strategy:        strategyFor(effect),
		SizeMultiplier:  effect.Confidence * effect.ImpactMagnitude,
		TimeHorizonDays: effect.TimeLagDays,
		StopLossPct:     stopLoss,
		TakeProfitPct:   takeProfit,
		Confidence:      effect.Confidence,
		Rationale:       effect.Rationale,
	}
}

// strategyFor applies the strategy decision table, top to bottom, first
// match wins.
func strategyFor(effect entity.AffectedEntity) entity.TradeStrategy {
	switch {
	case effect.Confidence > 0.8 && effect.TimeLagDays < 5:
		return entity.StrategyDirectEquity
	case effect.Confidence > 0.7 && effect.TimeLagDays < 10:
		return entity.StrategyOptionsDirectional
	case effect.Category == entity.CategoryCompetitor || effect.Category == entity.CategoryInverse:
		return entity.StrategyPairsTrade
	default:
		return entity.StrategyOptionsSpread
	}
}
