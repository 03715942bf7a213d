package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"second-order-engine/internal/engine/dto"
	"second-order-engine/internal/engine/graph"
	"second-order-engine/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mapperEvent(ret float64) *entity.PrimaryEvent {
	return &entity.PrimaryEvent{
		Ticker:      "X",
		Description: "X rallied 6.00% (intraday)",
		Category:    "price_move",
		Magnitude:   6,
		Return:      ret,
		Rule:        entity.RuleIntraday,
		DetectedAt:  time.Date(2026, 3, 2, 10, 30, 0, 0, time.UTC),
	}
}

func mapperGraph() graph.Provider {
	return graph.NewStaticProvider([]entity.RelationshipEdge{
		{Source: "X", Target: "A", Category: entity.CategorySupplier, ImpactWeight: 0.7},
		{Source: "X", Target: "B", Category: entity.CategoryCompetitor, ImpactWeight: 0.5},
	}, nil)
}

func TestEffectMapper_GraphOnlyFallback(t *testing.T) {
	ai := &stubAIRepository{mapErr: errors.New("deadline exceeded")}
	m := NewEffectMapper(testConfig(), testLogger(t), mapperGraph(), ai)

	effects := m.Map(context.Background(), mapperEvent(0.06))

	suppliers := effects[entity.CategorySupplier]
	require.Len(t, suppliers, 1)
	assert.Equal(t, "A", suppliers[0].Ticker)
	assert.Equal(t, entity.ImpactPositive, suppliers[0].ImpactDirection)
	assert.InDelta(t, 0.7, suppliers[0].ImpactMagnitude, 1e-9)
	assert.InDelta(t, 0.5, suppliers[0].Confidence, 1e-9)
	assert.Equal(t, 0, suppliers[0].TimeLagDays)

	competitors := effects[entity.CategoryCompetitor]
	require.Len(t, competitors, 1)
	assert.Equal(t, "B", competitors[0].Ticker)
	assert.Equal(t, entity.ImpactNegative, competitors[0].ImpactDirection,
		"competitor impact flips against the primary move")
	assert.InDelta(t, 0.5, competitors[0].ImpactMagnitude, 1e-9)
	assert.InDelta(t, 0.5, competitors[0].Confidence, 1e-9)
}

func TestEffectMapper_FallbackEffectsNeverClearThreshold(t *testing.T) {
	cfg := testConfig()
	ai := &stubAIRepository{mapErr: errors.New("unavailable")}
	m := NewEffectMapper(cfg, testLogger(t), mapperGraph(), ai)
	g := NewSignalGenerator(cfg, testLogger(t))

	effects := m.Map(context.Background(), mapperEvent(0.06))
	signals := g.Generate(effects)
	assert.Empty(t, signals, "fallback confidence 0.5 sits below the 0.6 gate")
}

func TestEffectMapper_DirectionFollowsPrimarySign(t *testing.T) {
	ai := &stubAIRepository{mapErr: errors.New("unavailable")}
	m := NewEffectMapper(testConfig(), testLogger(t), mapperGraph(), ai)

	effects := m.Map(context.Background(), mapperEvent(-0.06))

	require.Len(t, effects[entity.CategorySupplier], 1)
	assert.Equal(t, entity.ImpactNegative, effects[entity.CategorySupplier][0].ImpactDirection)
	require.Len(t, effects[entity.CategoryCompetitor], 1)
	assert.Equal(t, entity.ImpactPositive, effects[entity.CategoryCompetitor][0].ImpactDirection)
}

func TestEffectMapper_EnrichmentAndDedupe(t *testing.T) {
	ai := &stubAIRepository{mapResult: &dto.CausalMapResult{
		Effects: map[string][]dto.CausalEffect{
			"supplier": {
				// Same ticker as the graph edge but a higher score wins.
				{Ticker: "A", Relationship: "supplier", ImpactDirection: "positive", ImpactMagnitude: 0.9, Confidence: 0.85, TimeLagDays: 2, Rationale: "wafer orders"},
				// New ticker the graph does not know about.
				{Ticker: "C", Relationship: "supplier", ImpactDirection: "positive", ImpactMagnitude: 0.6, Confidence: 0.7, TimeLagDays: 3, Rationale: "secondary supplier"},
			},
		},
	}}
	m := NewEffectMapper(testConfig(), testLogger(t), mapperGraph(), ai)

	effects := m.Map(context.Background(), mapperEvent(0.06))

	suppliers := effects[entity.CategorySupplier]
	require.Len(t, suppliers, 2)
	assert.Equal(t, "A", suppliers[0].Ticker)
	assert.InDelta(t, 0.85, suppliers[0].Confidence, 1e-9, "enriched record replaces the graph baseline")
	assert.Equal(t, 2, suppliers[0].TimeLagDays)
	assert.Equal(t, "C", suppliers[1].Ticker)

	// The graph-only competitor record survives alongside enrichment.
	require.Len(t, effects[entity.CategoryCompetitor], 1)
}

func TestEffectMapper_DedupeKeepsHigherScore(t *testing.T) {
	ai := &stubAIRepository{mapResult: &dto.CausalMapResult{
		Effects: map[string][]dto.CausalEffect{
			"supplier": {
				// Lower score than the graph baseline (0.5 * 0.7 = 0.35).
				{Ticker: "A", Relationship: "supplier", ImpactDirection: "positive", ImpactMagnitude: 0.3, Confidence: 0.4, TimeLagDays: 1},
			},
		},
	}}
	m := NewEffectMapper(testConfig(), testLogger(t), mapperGraph(), ai)

	effects := m.Map(context.Background(), mapperEvent(0.06))

	suppliers := effects[entity.CategorySupplier]
	require.Len(t, suppliers, 1)
	assert.InDelta(t, 0.5, suppliers[0].Confidence, 1e-9)
	assert.InDelta(t, 0.7, suppliers[0].ImpactMagnitude, 1e-9)
}

func TestEffectMapper_ClampsCollaboratorOutput(t *testing.T) {
	ai := &stubAIRepository{mapResult: &dto.CausalMapResult{
		Effects: map[string][]dto.CausalEffect{
			"partner": {
				{Ticker: "D", Relationship: "partner", ImpactDirection: "positive", ImpactMagnitude: 1.8, Confidence: -0.2, TimeLagDays: 90},
			},
		},
	}}
	m := NewEffectMapper(testConfig(), testLogger(t), graph.NewStaticProvider(nil, nil), ai)

	effects := m.Map(context.Background(), mapperEvent(0.06))

	partners := effects[entity.CategoryPartner]
	require.Len(t, partners, 1)
	assert.InDelta(t, 1.0, partners[0].ImpactMagnitude, 1e-9)
	assert.InDelta(t, 0.0, partners[0].Confidence, 1e-9)
	assert.Equal(t, 30, partners[0].TimeLagDays)
}

func TestEffectMapper_UnknownTickerYieldsNothing(t *testing.T) {
	ai := &stubAIRepository{mapErr: errors.New("unavailable")}
	m := NewEffectMapper(testConfig(), testLogger(t), mapperGraph(), ai)

	effects := m.Map(context.Background(), &entity.PrimaryEvent{Ticker: "ZZZZ", Return: 0.08})
	assert.Empty(t, effects)
}
