package service

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"second-order-engine/internal/engine/config"
	"second-order-engine/internal/engine/dto"
	"second-order-engine/internal/engine/repository"
	"second-order-engine/internal/entity"
	"second-order-engine/pkg/logger"
)

// Engine wires the pipeline stages together and drives them from the two
// tick sources. Each tick type is single-flight: a tick that arrives while
// the previous one of the same type is still running is skipped.
type Engine struct {
	cfg        *config.Config
	logger     *logger.Logger
	detector   *Detector
	mapper     *EffectMapper
	generator  *SignalGenerator
	lifecycle  *LifecycleManager
	marketData repository.MarketDataRepository
	aiRepo     repository.AIRepository
	newsRepo   repository.NewsFeedRepository

	intradayRunning atomic.Bool
	dailyRunning    atomic.Bool
}

// NewEngine creates a new Engine. The news repository may be nil when no
// feeds are configured; the daily cycle then runs on price detection alone.
func NewEngine(
	cfg *config.Config,
	log *logger.Logger,
	detector *Detector,
	mapper *EffectMapper,
	generator *SignalGenerator,
	lifecycle *LifecycleManager,
	marketData repository.MarketDataRepository,
	aiRepo repository.AIRepository,
	newsRepo repository.NewsFeedRepository,
) *Engine {
	return &Engine{
		cfg:        cfg,
		logger:     log,
		detector:   detector,
		mapper:     mapper,
		generator:  generator,
		lifecycle:  lifecycle,
		marketData: marketData,
		aiRepo:     aiRepo,
		newsRepo:   newsRepo,
	}
}

// Lifecycle exposes the position manager for delivery handlers.
func (e *Engine) Lifecycle() *LifecycleManager {
	return e.lifecycle
}

// OnMarketData runs the intraday leg of the pipeline: fetch fresh quotes
// for the primary movers, sweep exit rules against them and evaluate the
// intraday detection rule per ticker.
func (e *Engine) OnMarketData(ctx context.Context) {
	if !e.intradayRunning.CompareAndSwap(false, true) {
		e.logger.Debug("Intraday tick skipped, previous tick still running")
		return
	}
	defer e.intradayRunning.Store(false)

	now := e.lifecycle.now()
	prices := make(map[string]float64)

	for _, ticker := range e.watchlist() {
		data, err := e.marketData.Get(ctx, dto.GetStockDataParam{
			Ticker:   ticker,
			Range:    e.cfg.MarketData.QuoteRange,
			Interval: e.cfg.MarketData.QuoteInterval,
		})
		if err != nil {
			e.logger.WarnContext(ctx, "Skipping ticker, quote fetch failed",
				logger.ErrorField(err), logger.StringField("ticker", ticker))
			continue
		}
		prices[ticker] = data.MarketPrice

		event, err := e.detector.DetectIntraday(ticker, data, now)
		if err != nil {
			if errors.Is(err, ErrDataUnavailable) {
				e.logger.Debug("Skipping ticker, intraday data unavailable", logger.StringField("ticker", ticker))
				continue
			}
			e.logger.ErrorContext(ctx, "Intraday detection failed", logger.ErrorField(err), logger.StringField("ticker", ticker))
			continue
		}
		if event != nil {
			e.handleEvent(ctx, event)
		}
	}

	e.lifecycle.SweepExits(ctx, prices)
}

// RunDailyCycle runs the daily leg: sweep exits on daily closes first so
// freed capacity is available to new signals, then evaluate the multi-day
// rule per primary mover. The intraday rule belongs to the market-data
// callback; the daily series' session open is days old and must not feed
// it. When news feeds are configured, classified headlines can surface an
// event for a ticker before any price rule fires.
func (e *Engine) RunDailyCycle(ctx context.Context) {
	if !e.dailyRunning.CompareAndSwap(false, true) {
		e.logger.Warn("Daily cycle skipped, previous cycle still running")
		return
	}
	defer e.dailyRunning.Store(false)

	e.logger.Info("Daily cycle started")

	now := e.lifecycle.now()
	prices := make(map[string]float64)
	series := make(map[string]*dto.StockData)

	for _, ticker := range e.watchlist() {
		data, err := e.marketData.Get(ctx, dto.GetStockDataParam{
			Ticker:   ticker,
			Range:    e.cfg.MarketData.DailyRange,
			Interval: e.cfg.MarketData.DailyInterval,
		})
		if err != nil {
			e.logger.WarnContext(ctx, "Skipping ticker, daily fetch failed",
				logger.ErrorField(err), logger.StringField("ticker", ticker))
			continue
		}
		series[ticker] = data
		prices[ticker] = data.MarketPrice
	}

	e.lifecycle.SweepExits(ctx, prices)

	newsEvent := e.classifyNews(ctx, now)
	if newsEvent != nil {
		e.handleEvent(ctx, newsEvent)
	}

	for _, ticker := range e.cfg.Engine.PrimaryMovers {
		if newsEvent != nil && newsEvent.Ticker == ticker {
			continue
		}
		data, ok := series[ticker]
		if !ok {
			continue
		}

		event, err := e.detector.DetectMultiDay(ticker, data.Closes(), now)
		if err != nil {
			if errors.Is(err, ErrDataUnavailable) {
				e.logger.Debug("Skipping ticker, daily data unavailable", logger.StringField("ticker", ticker))
				continue
			}
			e.logger.ErrorContext(ctx, "Daily detection failed", logger.ErrorField(err), logger.StringField("ticker", ticker))
			continue
		}
		if event != nil {
			e.handleEvent(ctx, event)
		}
	}

	e.logger.Info("Daily cycle finished", logger.IntField("open_positions", e.lifecycle.OpenCount()))
}

// handleEvent expands one primary event into effects, ranks them into
// signals and hands each signal to the position lifecycle. Already-open and
// at-capacity outcomes are expected and only logged.
func (e *Engine) handleEvent(ctx context.Context, event *entity.PrimaryEvent) {
	effects := e.mapper.Map(ctx, event)
	if len(effects) == 0 {
		e.logger.Info("No second-order effects predicted", logger.StringField("ticker", event.Ticker))
		return
	}

	signals := e.generator.Generate(effects)
	for _, signal := range signals {
		data, err := e.marketData.Get(ctx, dto.GetStockDataParam{
			Ticker:   signal.Ticker,
			Range:    e.cfg.MarketData.QuoteRange,
			Interval: e.cfg.MarketData.QuoteInterval,
		})
		if err != nil {
			e.logger.WarnContext(ctx, "Skipping signal, entry price unavailable",
				logger.ErrorField(err), logger.StringField("ticker", signal.Ticker))
			continue
		}

		if _, err := e.lifecycle.HandleSignal(ctx, signal, data.MarketPrice); err != nil {
			switch {
			case errors.Is(err, ErrPositionAlreadyOpen):
				e.logger.Debug("Signal skipped, position already open", logger.StringField("ticker", signal.Ticker))
			case errors.Is(err, ErrCapacityExceeded):
				e.logger.Debug("Signal dropped, position cap reached", logger.StringField("ticker", signal.Ticker))
			default:
				e.logger.ErrorContext(ctx, "Failed to handle signal", logger.ErrorField(err), logger.StringField("ticker", signal.Ticker))
			}
		}
	}
}

// classifyNews fetches recent headlines and asks the classification
// collaborator for a significant event. Any failure along the path just
// means no news event this cycle.
func (e *Engine) classifyNews(ctx context.Context, now time.Time) *entity.PrimaryEvent {
	if e.newsRepo == nil {
		return nil
	}

	items, err := e.newsRepo.GetLatest(ctx)
	if err != nil {
		e.logger.WarnContext(ctx, "News fetch failed, skipping classification", logger.ErrorField(err))
		return nil
	}
	if len(items) == 0 {
		return nil
	}

	result, err := e.aiRepo.ClassifyEvent(ctx, items)
	if err != nil {
		e.logger.WarnContext(ctx, "Event classification degraded", logger.ErrorField(err))
		return nil
	}
	if result == nil || result.PrimaryTicker == "" || result.Magnitude < 1 {
		return nil
	}

	duration := result.DurationDays
	if duration <= 0 {
		duration = e.cfg.Engine.DefaultEventDurationDays
	}

	magnitude := result.Magnitude
	if magnitude > 10 {
		magnitude = 10
	}

	e.logger.Info("News event classified",
		logger.StringField("ticker", result.PrimaryTicker),
		logger.StringField("category", result.Category),
		logger.Float64Field("magnitude", magnitude))

	return &entity.PrimaryEvent{
		Ticker:               result.PrimaryTicker,
		Description:          result.EventDescription,
		Category:             result.Category,
		Magnitude:            magnitude,
		Return:               0.01,
		ExpectedDurationDays: duration,
		Rule:                 entity.RuleNews,
		DetectedAt:           now,
	}
}

// watchlist is the union of configured primary movers and currently held
// tickers, so exit rules keep seeing prices for positions whose primary
// mover was removed from config.
func (e *Engine) watchlist() []string {
	seen := make(map[string]bool, len(e.cfg.Engine.PrimaryMovers))
	list := make([]string, 0, len(e.cfg.Engine.PrimaryMovers))
	for _, ticker := range e.cfg.Engine.PrimaryMovers {
		if !seen[ticker] {
			seen[ticker] = true
			list = append(list, ticker)
		}
	}
	for _, position := range e.lifecycle.OpenPositions() {
		if !seen[position.Ticker] {
			seen[position.Ticker] = true
			list = append(list, position.Ticker)
		}
	}
	return list
}
