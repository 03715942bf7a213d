package repository

import (
	"context"

	"second-order-engine/internal/engine/dto"
	"second-order-engine/internal/entity"
)

// AIRepository is the contract for the external classification and
// causal-mapping collaborators. Implementations are black boxes; callers
// must be prepared for timeouts and degrade to graph-only behavior.
type AIRepository interface {
	ClassifyEvent(ctx context.Context, news []entity.NewsItem) (*dto.EventClassificationResult, error)
	MapSecondOrderEffects(ctx context.Context, event *entity.PrimaryEvent) (*dto.CausalMapResult, error)
}

// MarketDataRepository provides normalized price series per ticker.
type MarketDataRepository interface {
	Get(ctx context.Context, param dto.GetStockDataParam) (*dto.StockData, error)
}

// BrokerRepository is the order-placement surface of the execution venue.
// The engine decides intent only; fills and order state live with the venue.
type BrokerRepository interface {
	OpenPosition(ctx context.Context, ticker string, direction entity.Action, size float64) error
	ClosePosition(ctx context.Context, ticker string) error
	AttachStop(ctx context.Context, ticker string, level float64) error
	AttachTarget(ctx context.Context, ticker string, level float64) error
}

// RelationshipEdgeRepository loads relationship-graph edges from storage.
type RelationshipEdgeRepository interface {
	GetAll(ctx context.Context) ([]entity.RelationshipEdge, error)
}

// PositionAuditRepository persists the audit trail of closed positions.
type PositionAuditRepository interface {
	Create(ctx context.Context, audit *entity.PositionAudit) error
	GetRecent(ctx context.Context, limit int) ([]entity.PositionAudit, error)
}

// NewsFeedRepository fetches recent news-like items for classification.
type NewsFeedRepository interface {
	GetLatest(ctx context.Context) ([]entity.NewsItem, error)
}
