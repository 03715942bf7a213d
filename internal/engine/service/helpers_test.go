package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"second-order-engine/internal/engine/config"
	"second-order-engine/internal/engine/dto"
	"second-order-engine/internal/entity"
	"second-order-engine/pkg/logger"

	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Engine: config.Engine{
			PrimaryMovers:            []string{"NVDA"},
			ConfidenceThreshold:      0.6,
			MaxSignals:               10,
			MaxOpenPositions:         10,
			BasePositionSize:         0.10,
			SecondOrderMultiplier:    0.6,
			HoldingPeriodDays:        5,
			IntradayMoveThreshold:    0.05,
			MultiDayMoveThreshold:    0.10,
			MultiDayLookback:         5,
			DefaultEventDurationDays: 5,
			CollaboratorTimeout:      30 * time.Second,
			CacheTTL:                 5 * time.Minute,
		},
		MarketData: config.MarketData{
			QuoteRange:    "1d",
			QuoteInterval: "5m",
			DailyRange:    "5d",
			DailyInterval: "1d",
		},
	}
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("error", "console")
	require.NoError(t, err)
	return log
}

// stubAIRepository returns canned results or errors.
type stubAIRepository struct {
	classifyResult *dto.EventClassificationResult
	classifyErr    error
	mapResult      *dto.CausalMapResult
	mapErr         error
	mapCalls       int
}

func (s *stubAIRepository) ClassifyEvent(_ context.Context, _ []entity.NewsItem) (*dto.EventClassificationResult, error) {
	return s.classifyResult, s.classifyErr
}

func (s *stubAIRepository) MapSecondOrderEffects(_ context.Context, _ *entity.PrimaryEvent) (*dto.CausalMapResult, error) {
	s.mapCalls++
	return s.mapResult, s.mapErr
}

// stubBroker records intents and optionally fails the open call.
type stubBroker struct {
	opened  []string
	closed  []string
	stops   map[string]float64
	targets map[string]float64
	openErr error
}

func newStubBroker() *stubBroker {
	return &stubBroker{stops: make(map[string]float64), targets: make(map[string]float64)}
}

func (s *stubBroker) OpenPosition(_ context.Context, ticker string, _ entity.Action, _ float64) error {
	if s.openErr != nil {
		return s.openErr
	}
	s.opened = append(s.opened, ticker)
	return nil
}

func (s *stubBroker) ClosePosition(_ context.Context, ticker string) error {
	s.closed = append(s.closed, ticker)
	return nil
}

func (s *stubBroker) AttachStop(_ context.Context, ticker string, level float64) error {
	s.stops[ticker] = level
	return nil
}

func (s *stubBroker) AttachTarget(_ context.Context, ticker string, level float64) error {
	s.targets[ticker] = level
	return nil
}

// stubAuditRepo collects audit entries in memory.
type stubAuditRepo struct {
	audits []*entity.PositionAudit
}

func (s *stubAuditRepo) Create(_ context.Context, audit *entity.PositionAudit) error {
	s.audits = append(s.audits, audit)
	return nil
}

func (s *stubAuditRepo) GetRecent(_ context.Context, limit int) ([]entity.PositionAudit, error) {
	out := make([]entity.PositionAudit, 0, len(s.audits))
	for i := len(s.audits) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, *s.audits[i])
	}
	return out, nil
}

// stubMarketData serves fixed series per ticker.
type stubMarketData struct {
	data map[string]*dto.StockData
}

func (s *stubMarketData) Get(_ context.Context, param dto.GetStockDataParam) (*dto.StockData, error) {
	data, ok := s.data[param.Ticker]
	if !ok {
		return nil, errors.New("no data for " + param.Ticker)
	}
	return data, nil
}

func newLifecycle(t *testing.T, cfg *config.Config, broker *stubBroker, audit *stubAuditRepo) *LifecycleManager {
	t.Helper()
	return NewLifecycleManager(cfg, testLogger(t), broker, audit, nil)
}
