package graph

import (
	"sort"

	"second-order-engine/internal/entity"
)

// DefaultImpactWeight is the fallback weight for unrecognized categories;
// an unknown link type still contributes, just weakly.
const DefaultImpactWeight = 0.3

// Provider is the read-only relationship graph consulted by the effect
// mapper. Implementations may be backed by config, a database or a remote
// service; the trading path never mutates it.
type Provider interface {
	// Neighbors returns the outgoing edges of ticker, optionally filtered
	// by category. An unknown ticker yields an empty slice, not an error.
	Neighbors(ticker string, categories ...entity.RelationshipCategory) []entity.RelationshipEdge
	// ImpactWeight returns the static weight of a category.
	ImpactWeight(category entity.RelationshipCategory) float64
}

var builtinWeights = map[entity.RelationshipCategory]float64{
	entity.CategorySupplier:       0.7,
	entity.CategoryCustomer:       0.6,
	entity.CategoryCompetitor:     0.5,
	entity.CategoryEcosystem:      0.4,
	entity.CategoryInfrastructure: 0.4,
	entity.CategoryPartner:        0.5,
	entity.CategoryCorrelated:     0.6,
	entity.CategoryInverse:        0.5,
}

// StaticProvider is an in-memory Provider built from a flat edge list.
type StaticProvider struct {
	edges   map[string][]entity.RelationshipEdge
	weights map[entity.RelationshipCategory]float64
}

// NewStaticProvider builds a provider from edges and optional category
// weight overrides. Edges without an explicit weight inherit their category
// weight. Per-ticker edge order is normalized to category then target so
// downstream ranking is deterministic.
func NewStaticProvider(edges []entity.RelationshipEdge, weightOverrides map[entity.RelationshipCategory]float64) *StaticProvider {
	p := &StaticProvider{
		edges:   make(map[string][]entity.RelationshipEdge),
		weights: make(map[entity.RelationshipCategory]float64),
	}
	for category, weight := range builtinWeights {
		p.weights[category] = weight
	}
	for category, weight := range weightOverrides {
		p.weights[category] = weight
	}

	for _, edge := range edges {
		if edge.ImpactWeight == 0 {
			edge.ImpactWeight = p.ImpactWeight(edge.Category)
		}
		p.edges[edge.Source] = append(p.edges[edge.Source], edge)
	}
	for ticker := range p.edges {
		outgoing := p.edges[ticker]
		sort.SliceStable(outgoing, func(i, j int) bool {
			if outgoing[i].Category != outgoing[j].Category {
				return outgoing[i].Category < outgoing[j].Category
			}
			return outgoing[i].Target < outgoing[j].Target
		})
	}

	return p
}

// Neighbors returns the outgoing edges of ticker, filtered by category when
// any are given.
func (p *StaticProvider) Neighbors(ticker string, categories ...entity.RelationshipCategory) []entity.RelationshipEdge {
	outgoing := p.edges[ticker]
	if len(outgoing) == 0 {
		return nil
	}

	if len(categories) == 0 {
		result := make([]entity.RelationshipEdge, len(outgoing))
		copy(result, outgoing)
		return result
	}

	wanted := make(map[entity.RelationshipCategory]struct{}, len(categories))
	for _, category := range categories {
		wanted[category] = struct{}{}
	}

	var result []entity.RelationshipEdge
	for _, edge := range outgoing {
		if _, ok := wanted[edge.Category]; ok {
			result = append(result, edge)
		}
	}
	return result
}

// ImpactWeight returns the weight of a category, falling back to
// DefaultImpactWeight for unrecognized categories.
func (p *StaticProvider) ImpactWeight(category entity.RelationshipCategory) float64 {
	if weight, ok := p.weights[category]; ok {
		return weight
	}
	return DefaultImpactWeight
}
