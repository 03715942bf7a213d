package service

import (
	"fmt"
	"testing"

	"second-order-engine/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignalGenerator_BuildsSignal(t *testing.T) {
	g := NewSignalGenerator(testConfig(), testLogger(t))

	effects := map[entity.RelationshipCategory][]entity.AffectedEntity{
		entity.CategorySupplier: {
			{Ticker: "TSM", Category: entity.CategorySupplier, ImpactDirection: entity.ImpactPositive,
				ImpactMagnitude: 0.9, Confidence: 0.85, TimeLagDays: 2, Rationale: "wafer orders"},
		},
	}

	signals := g.Generate(effects)
	require.Len(t, signals, 1)

	signal := signals[0]
	assert.Equal(t, "TSM", signal.Ticker)
	assert.Equal(t, entity.ActionBuy, signal.Action)
	assert.Equal(t, entity.StrategyDirectEquity, signal.Strategy)
	assert.InDelta(t, 0.765, signal.SizeMultiplier, 1e-9)
	assert.Equal(t, 2, signal.TimeHorizonDays)
	assert.InDelta(t, 0.05, signal.StopLossPct, 1e-9, "high confidence gets the wider stop")
	assert.InDelta(t, 0.10, signal.TakeProfitPct, 1e-9, "high magnitude gets the wider target")
}

func TestSignalGenerator_ConfidenceGateIsStrict(t *testing.T) {
	g := NewSignalGenerator(testConfig(), testLogger(t))

	effects := map[entity.RelationshipCategory][]entity.AffectedEntity{
		entity.CategorySupplier: {
			{Ticker: "AT", Confidence: 0.6, ImpactMagnitude: 0.9, ImpactDirection: entity.ImpactPositive},
			{Ticker: "ABOVE", Confidence: 0.601, ImpactMagnitude: 0.9, ImpactDirection: entity.ImpactPositive},
		},
	}

	signals := g.Generate(effects)
	require.Len(t, signals, 1)
	assert.Equal(t, "ABOVE", signals[0].Ticker)
}

func TestSignalGenerator_NegativeImpactSells(t *testing.T) {
	g := NewSignalGenerator(testConfig(), testLogger(t))

	effects := map[entity.RelationshipCategory][]entity.AffectedEntity{
		entity.CategoryCompetitor: {
			{Ticker: "AMD", Category: entity.CategoryCompetitor, ImpactDirection: entity.ImpactNegative,
				ImpactMagnitude: 0.5, Confidence: 0.65, TimeLagDays: 12},
		},
	}

	signals := g.Generate(effects)
	require.Len(t, signals, 1)
	assert.Equal(t, entity.ActionSell, signals[0].Action)
	assert.Equal(t, entity.StrategyPairsTrade, signals[0].Strategy,
		"low confidence and long lag fall through to the category rule")
	assert.InDelta(t, 0.03, signals[0].StopLossPct, 1e-9)
	assert.InDelta(t, 0.07, signals[0].TakeProfitPct, 1e-9)
}

func TestSignalGenerator_StrategyTable(t *testing.T) {
	cases := []struct {
		name   string
		effect entity.AffectedEntity
		want   entity.TradeStrategy
	}{
		{"high confidence short lag", entity.AffectedEntity{Confidence: 0.85, TimeLagDays: 2}, entity.StrategyDirectEquity},
		{"high confidence lag at boundary", entity.AffectedEntity{Confidence: 0.85, TimeLagDays: 5}, entity.StrategyOptionsDirectional},
		{"medium confidence medium lag", entity.AffectedEntity{Confidence: 0.75, TimeLagDays: 8}, entity.StrategyOptionsDirectional},
		{"competitor bypasses the confidence rows", entity.AffectedEntity{Confidence: 0.65, TimeLagDays: 1, Category: entity.CategoryCompetitor}, entity.StrategyPairsTrade},
		{"inverse bypasses the confidence rows", entity.AffectedEntity{Confidence: 0.65, TimeLagDays: 1, Category: entity.CategoryInverse}, entity.StrategyPairsTrade},
		{"everything else", entity.AffectedEntity{Confidence: 0.65, TimeLagDays: 20, Category: entity.CategorySupplier}, entity.StrategyOptionsSpread},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, strategyFor(tc.effect))
		})
	}
}

func TestSignalGenerator_RankingAndCap(t *testing.T) {
	g := NewSignalGenerator(testConfig(), testLogger(t))

	var entities []entity.AffectedEntity
	for i := 0; i < 11; i++ {
		entities = append(entities, entity.AffectedEntity{
			Ticker:          fmt.Sprintf("T%02d", i),
			ImpactDirection: entity.ImpactPositive,
			Confidence:      0.65,
			ImpactMagnitude: 0.3 + float64(i)*0.05,
		})
	}
	effects := map[entity.RelationshipCategory][]entity.AffectedEntity{
		entity.CategorySupplier: entities,
	}

	signals := g.Generate(effects)
	require.Len(t, signals, 10, "capped at max signals")

	assert.Equal(t, "T10", signals[0].Ticker, "largest multiplier first")
	for i := 1; i < len(signals); i++ {
		assert.GreaterOrEqual(t, signals[i-1].SizeMultiplier, signals[i].SizeMultiplier)
	}
	assert.NotContains(t, tickersOf(signals), "T00", "weakest candidate dropped")
}

func TestSignalGenerator_StableOrderOnTies(t *testing.T) {
	g := NewSignalGenerator(testConfig(), testLogger(t))

	effects := map[entity.RelationshipCategory][]entity.AffectedEntity{
		entity.CategoryCustomer: {
			{Ticker: "B", ImpactDirection: entity.ImpactPositive, Confidence: 0.7, ImpactMagnitude: 0.5},
		},
		entity.CategorySupplier: {
			{Ticker: "A", ImpactDirection: entity.ImpactPositive, Confidence: 0.7, ImpactMagnitude: 0.5},
		},
	}

	signals := g.Generate(effects)
	require.Len(t, signals, 2)
	// Category iteration is alphabetical, so customer comes before supplier
	// and ties keep that order.
	assert.Equal(t, []string{"B", "A"}, tickersOf(signals))
}

func tickersOf(signals []entity.TradeSignal) []string {
	out := make([]string, 0, len(signals))
	for _, s := range signals {
		out = append(out, s.Ticker)
	}
	return out
}
