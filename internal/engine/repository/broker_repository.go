package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"second-order-engine/internal/engine/dto"
	"second-order-engine/internal/entity"
	"second-order-engine/pkg/common"
	"second-order-engine/pkg/logger"
	redisPkg "second-order-engine/pkg/redis"

	goRedis "github.com/redis/go-redis/v9"
)

// redisBrokerRepository publishes order intents to the execution venue's
// Redis stream. The venue consumes intents and owns fills, connectivity and
// authentication.
type redisBrokerRepository struct {
	logger       *logger.Logger
	redisClient  *redisPkg.Client
	streamMaxLen int64
}

// NewRedisBrokerRepository creates a stream-backed BrokerRepository.
func NewRedisBrokerRepository(log *logger.Logger, redisClient *redisPkg.Client, streamMaxLen int64) BrokerRepository {
	return &redisBrokerRepository{
		logger:       log,
		redisClient:  redisClient,
		streamMaxLen: streamMaxLen,
	}
}

func (r *redisBrokerRepository) OpenPosition(ctx context.Context, ticker string, direction entity.Action, size float64) error {
	return r.publish(ctx, dto.OrderIntent{
		Type:      dto.OrderIntentOpen,
		Ticker:    ticker,
		Direction: string(direction),
		Size:      size,
	})
}

func (r *redisBrokerRepository) ClosePosition(ctx context.Context, ticker string) error {
	return r.publish(ctx, dto.OrderIntent{
		Type:   dto.OrderIntentClose,
		Ticker: ticker,
	})
}

func (r *redisBrokerRepository) AttachStop(ctx context.Context, ticker string, level float64) error {
	return r.publish(ctx, dto.OrderIntent{
		Type:   dto.OrderIntentStop,
		Ticker: ticker,
		Level:  level,
	})
}

func (r *redisBrokerRepository) AttachTarget(ctx context.Context, ticker string, level float64) error {
	return r.publish(ctx, dto.OrderIntent{
		Type:   dto.OrderIntentTarget,
		Ticker: ticker,
		Level:  level,
	})
}

func (r *redisBrokerRepository) publish(ctx context.Context, intent dto.OrderIntent) error {
	intent.IssuedAt = time.Now()

	payload, err := json.Marshal(intent)
	if err != nil {
		return fmt.Errorf("failed to marshal order intent: %w", err)
	}

	if err := r.redisClient.XAdd(ctx, &goRedis.XAddArgs{
		Stream: common.RedisStreamOrderIntent,
		Values: map[string]interface{}{"payload": payload},
		MaxLen: r.streamMaxLen,
	}).Err(); err != nil {
		r.logger.ErrorContext(ctx, "Failed to publish order intent",
			logger.ErrorField(err),
			logger.StringField("type", intent.Type),
			logger.StringField("ticker", intent.Ticker))
		return fmt.Errorf("failed to publish order intent: %w", err)
	}

	// Opens and closes are mirrored to the position event stream for
	// downstream consumers; protective-level intents are venue-only.
	if intent.Type == dto.OrderIntentOpen || intent.Type == dto.OrderIntentClose {
		if err := r.redisClient.XAdd(ctx, &goRedis.XAddArgs{
			Stream: common.RedisStreamPositionEvent,
			Values: map[string]interface{}{"payload": payload},
			MaxLen: r.streamMaxLen,
		}).Err(); err != nil {
			r.logger.WarnContext(ctx, "Failed to mirror position event",
				logger.ErrorField(err),
				logger.StringField("ticker", intent.Ticker))
		}
	}

	r.logger.DebugContext(ctx, "Order intent published",
		logger.StringField("type", intent.Type),
		logger.StringField("ticker", intent.Ticker))
	return nil
}
