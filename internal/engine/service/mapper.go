package service

import (
	"context"
	"fmt"
	"sort"

	"second-order-engine/internal/engine/config"
	"second-order-engine/internal/engine/graph"
	"second-order-engine/internal/engine/repository"
	"second-order-engine/internal/entity"
	"second-order-engine/pkg/logger"
)

// EffectMapper expands a primary event into predicted second-order effects.
// The relationship graph is always consulted first; the causal-mapping
// collaborator enriches and extends the neighbor set when available, and the
// mapper degrades to graph-only records when it is not.
type EffectMapper struct {
	cfg    *config.Config
	logger *logger.Logger
	graph  graph.Provider
	aiRepo repository.AIRepository
}

// NewEffectMapper creates a new EffectMapper.
func NewEffectMapper(cfg *config.Config, log *logger.Logger, graphProvider graph.Provider, aiRepo repository.AIRepository) *EffectMapper {
	return &EffectMapper{cfg: cfg, logger: log, graph: graphProvider, aiRepo: aiRepo}
}

// Map returns predicted effects grouped by category. Entities within a
// category are ordered by ticker so downstream ranking is deterministic.
func (m *EffectMapper) Map(ctx context.Context, event *entity.PrimaryEvent) map[entity.RelationshipCategory][]entity.AffectedEntity {
	edges := m.graph.Neighbors(event.Ticker)

	records := m.graphEffects(event, edges)

	aiResult, err := m.aiRepo.MapSecondOrderEffects(ctx, event)
	if err != nil {
		m.logger.WarnContext(ctx, "Causal mapping collaborator degraded, using graph-only effects",
			logger.ErrorField(fmt.Errorf("%w: %v", ErrCollaboratorUnavailable, err)),
			logger.StringField("ticker", event.Ticker))
	} else {
		for category, effects := range aiResult.Effects {
			for _, effect := range effects {
				records = append(records, entity.AffectedEntity{
					Ticker:          effect.Ticker,
					Category:        normalizeCategory(category, effect.Relationship),
					ImpactDirection: entity.ImpactDirection(effect.ImpactDirection),
					ImpactMagnitude: clamp01(effect.ImpactMagnitude),
					Confidence:      clamp01(effect.Confidence),
					TimeLagDays:     clampLag(effect.TimeLagDays),
					Rationale:       effect.Rationale,
				})
			}
		}
	}

	deduped := dedupeByTicker(records)

	grouped := make(map[entity.RelationshipCategory][]entity.AffectedEntity)
	for _, record := range deduped {
		grouped[record.Category] = append(grouped[record.Category], record)
	}
	for category := range grouped {
		entities := grouped[category]
		sort.SliceStable(entities, func(i, j int) bool {
			return entities[i].Ticker < entities[j].Ticker
		})
	}

	return grouped
}

// graphEffects derives baseline effects from graph edges alone: the edge
// weight becomes the impact magnitude, confidence is fixed at 0.5, the lag
// is zero and the direction follows the primary move sign except for
// impact-inverting categories.
func (m *EffectMapper) graphEffects(event *entity.PrimaryEvent, edges []entity.RelationshipEdge) []entity.AffectedEntity {
	primaryUp := event.Return >= 0

	effects := make([]entity.AffectedEntity, 0, len(edges))
	for _, edge := range edges {
		targetUp := primaryUp
		if edge.Category.InvertsImpact() {
			targetUp = !primaryUp
		}

		direction := entity.ImpactNegative
		if targetUp {
			direction = entity.ImpactPositive
		}

		effects = append(effects, entity.AffectedEntity{
			Ticker:          edge.Target,
			Category:        edge.Category,
			ImpactDirection: direction,
			ImpactMagnitude: edge.ImpactWeight,
			Confidence:      0.5,
			TimeLagDays:     0,
			Rationale:       fmt.Sprintf("%s of %s (%s)", edge.Category, event.Ticker, event.Description),
		})
	}
	return effects
}

// dedupeByTicker keeps, for each ticker, the record with the highest
// confidence x magnitude product.
func dedupeByTicker(records []entity.AffectedEntity) []entity.AffectedEntity {
	best := make(map[string]entity.AffectedEntity)
	order := make([]string, 0, len(records))

	for _, record := range records {
		existing, seen := best[record.Ticker]
		if !seen {
			order = append(order, record.Ticker)
			best[record.Ticker] = record
			continue
		}
		if record.Score() > existing.Score() {
			best[record.Ticker] = record
		}
	}

	result := make([]entity.AffectedEntity, 0, len(order))
	for _, ticker := range order {
		result = append(result, best[ticker])
	}
	return result
}

// normalizeCategory prefers the per-effect relationship over the grouping
// key; collaborators sometimes group loosely.
func normalizeCategory(groupKey, relationship string) entity.RelationshipCategory {
	if relationship != "" {
		return entity.RelationshipCategory(relationship)
	}
	return entity.RelationshipCategory(groupKey)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func clampLag(days int) int {
	if days < 0 {
		return 0
	}
	if days > 30 {
		return 30
	}
	return days
}
