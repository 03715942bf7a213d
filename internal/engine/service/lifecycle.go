package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"second-order-engine/internal/engine/config"
	"second-order-engine/internal/engine/repository"
	"second-order-engine/internal/entity"
	"second-order-engine/pkg/logger"
	"second-order-engine/pkg/telegram"
)

// LifecycleManager exclusively owns the set of open second-order positions.
// All access goes through its mutex; the market-data callback and the daily
// tick both read and write position state.
type LifecycleManager struct {
	cfg       *config.Config
	logger    *logger.Logger
	broker    repository.BrokerRepository
	auditRepo repository.PositionAuditRepository
	notifier  telegram.Notifier

	mu   sync.Mutex
	open map[string]*entity.Position

	now func() time.Time
}

// NewLifecycleManager creates a new LifecycleManager. The notifier may be
// nil when alerting is not configured.
func NewLifecycleManager(cfg *config.Config, log *logger.Logger, broker repository.BrokerRepository, auditRepo repository.PositionAuditRepository, notifier telegram.Notifier) *LifecycleManager {
	return &LifecycleManager{
		cfg:       cfg,
		logger:    log,
		broker:    broker,
		auditRepo: auditRepo,
		notifier:  notifier,
		open:      make(map[string]*entity.Position),
		now:       time.Now,
	}
}

// HandleSignal opens a position for an accepted signal. A signal for a
// ticker that is already open is a no-op (ErrPositionAlreadyOpen); a signal
// arriving at the position cap is dropped (ErrCapacityExceeded). Neither is
// an error to the trading cycle.
func (m *LifecycleManager) HandleSignal(ctx context.Context, signal entity.TradeSignal, entryPrice float64) (*entity.Position, error) {
	if entryPrice <= 0 {
		return nil, fmt.Errorf("%w: %s entry price", ErrDataUnavailable, signal.Ticker)
	}

	m.mu.Lock()
	if _, exists := m.open[signal.Ticker]; exists {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrPositionAlreadyOpen, signal.Ticker)
	}
	if len(m.open) >= m.cfg.Engine.MaxOpenPositions {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: cap %d", ErrCapacityExceeded, m.cfg.Engine.MaxOpenPositions)
	}

	size := m.cfg.Engine.BasePositionSize * m.cfg.Engine.SecondOrderMultiplier * signal.Confidence

	stop := entryPrice * (1 - signal.StopLossPct)
	target := entryPrice * (1 + signal.TakeProfitPct)
	if signal.Action == entity.ActionSell {
		stop = entryPrice * (1 + signal.StopLossPct)
		target = entryPrice * (1 - signal.TakeProfitPct)
	}

	position := &entity.Position{
		Ticker:      signal.Ticker,
		Direction:   signal.Action,
		Size:        size,
		EntryPrice:  entryPrice,
		StopPrice:   stop,
		TargetPrice: target,
		EntryTime:   m.now(),
		Confidence:  signal.Confidence,
		Rationale:   signal.Rationale,
		Status:      entity.PositionOpen,
	}
	m.open[signal.Ticker] = position
	m.mu.Unlock()

	if err := m.broker.OpenPosition(ctx, signal.Ticker, signal.Action, size); err != nil {
		m.mu.Lock()
		delete(m.open, signal.Ticker)
		m.mu.Unlock()
		return nil, fmt.Errorf("failed to open position: %w", err)
	}
	if err := m.broker.AttachStop(ctx, signal.Ticker, stop); err != nil {
		m.logger.ErrorContext(ctx, "Failed to attach stop", logger.ErrorField(err), logger.StringField("ticker", signal.Ticker))
	}
	if err := m.broker.AttachTarget(ctx, signal.Ticker, target); err != nil {
		m.logger.ErrorContext(ctx, "Failed to attach target", logger.ErrorField(err), logger.StringField("ticker", signal.Ticker))
	}

	m.logger.Info("Position opened",
		logger.StringField("ticker", position.Ticker),
		logger.StringField("direction", string(position.Direction)),
		logger.Float64Field("size", position.Size),
		logger.Float64Field("entry_price", position.EntryPrice),
		logger.Float64Field("stop", position.StopPrice),
		logger.Float64Field("target", position.TargetPrice))

	if m.notifier != nil {
		message := telegram.FormatPositionOpened(position.Ticker, string(position.Direction), position.Size, position.EntryPrice, position.StopPrice, position.TargetPrice, position.Rationale)
		if err := m.notifier.SendMessage(message); err != nil {
			m.logger.ErrorContext(ctx, "Failed to send open notification", logger.ErrorField(err), logger.StringField("ticker", position.Ticker))
		}
	}

	return position, nil
}

// SweepExits evaluates exit rules for every open position against the
// latest observed prices. Any one rule triggers a close: holding period
// exceeded, stop breached, or target breached. Tickers with no price in the
// map only get the holding-period check.
func (m *LifecycleManager) SweepExits(ctx context.Context, prices map[string]float64) {
	now := m.now()
	maxHolding := time.Duration(m.cfg.Engine.HoldingPeriodDays) * 24 * time.Hour

	for _, position := range m.OpenPositions() {
		if now.Sub(position.EntryTime) > maxHolding {
			m.Close(ctx, position.Ticker, entity.ExitReasonHoldingPeriod)
			continue
		}

		price, ok := prices[position.Ticker]
		if !ok || price <= 0 {
			continue
		}

		if reason := breachReason(position, price); reason != "" {
			m.Close(ctx, position.Ticker, reason)
		}
	}
}

// breachReason returns the exit reason triggered by price, or "".
func breachReason(position entity.Position, price float64) string {
	if position.Direction == entity.ActionBuy {
		if price <= position.StopPrice {
			return entity.ExitReasonStopLoss
		}
		if price >= position.TargetPrice {
			return entity.ExitReasonTakeProfit
		}
		return ""
	}
	if price >= position.StopPrice {
		return entity.ExitReasonStopLoss
	}
	if price <= position.TargetPrice {
		return entity.ExitReasonTakeProfit
	}
	return ""
}

// Close closes a position and records the audit entry. Closing a ticker
// with no open position is a no-op, so the operation is idempotent.
func (m *LifecycleManager) Close(ctx context.Context, ticker, exitReason string) {
	m.mu.Lock()
	position, exists := m.open[ticker]
	if !exists {
		m.mu.Unlock()
		return
	}
	delete(m.open, ticker)
	position.Status = entity.PositionClosed
	m.mu.Unlock()

	if err := m.broker.ClosePosition(ctx, ticker); err != nil {
		m.logger.ErrorContext(ctx, "Failed to close position at venue", logger.ErrorField(err), logger.StringField("ticker", ticker))
	}

	exitTime := m.now()
	m.logger.Info("Position closed",
		logger.StringField("ticker", ticker),
		logger.StringField("direction", string(position.Direction)),
		logger.StringField("exit_reason", exitReason),
		logger.Field("entry_time", position.EntryTime),
		logger.Field("exit_time", exitTime))

	payload, _ := json.Marshal(position)
	audit := &entity.PositionAudit{
		Ticker:     ticker,
		Direction:  string(position.Direction),
		Rationale:  position.Rationale,
		Confidence: position.Confidence,
		EntryTime:  position.EntryTime,
		ExitTime:   exitTime,
		ExitReason: exitReason,
		Data:       payload,
	}
	if err := m.auditRepo.Create(ctx, audit); err != nil {
		m.logger.ErrorContext(ctx, "Failed to persist position audit", logger.ErrorField(err), logger.StringField("ticker", ticker))
	}

	if m.notifier != nil {
		message := telegram.FormatPositionClosed(ticker, string(position.Direction), exitReason, position.EntryTime, exitTime)
		if err := m.notifier.SendMessage(message); err != nil {
			m.logger.ErrorContext(ctx, "Failed to send close notification", logger.ErrorField(err), logger.StringField("ticker", ticker))
		}
	}
}

// HasOpen reports whether ticker has an open position.
func (m *LifecycleManager) HasOpen(ticker string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, exists := m.open[ticker]
	return exists
}

// OpenCount returns the number of open positions.
func (m *LifecycleManager) OpenCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.open)
}

// OpenPositions returns a snapshot of the open positions.
func (m *LifecycleManager) OpenPositions() []entity.Position {
	m.mu.Lock()
	defer m.mu.Unlock()

	positions := make([]entity.Position, 0, len(m.open))
	for _, position := range m.open {
		positions = append(positions, *position)
	}
	return positions
}
