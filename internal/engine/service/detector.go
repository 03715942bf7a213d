package service

import (
	"fmt"
	"math"
	"time"

	"second-order-engine/internal/engine/config"
	"second-order-engine/internal/engine/dto"
	"second-order-engine/internal/entity"
	"second-order-engine/pkg/logger"
)

// Detector scans price series for primary-mover events. It is stateless: a
// pure function of the supplied history, emitting at most one event per
// ticker per evaluation.
//
// Both rules use price-relative returns (session open for the intraday rule,
// first close of the lookback window for the multi-day rule). Unrealized
// P&L is never used, so detection does not depend on whether the primary
// mover happens to be held.
type Detector struct {
	cfg    *config.Config
	logger *logger.Logger
}

// NewDetector creates a new Detector.
func NewDetector(cfg *config.Config, log *logger.Logger) *Detector {
	return &Detector{cfg: cfg, logger: log}
}

// DetectIntraday flags a significant move since session open.
func (d *Detector) DetectIntraday(ticker string, data *dto.StockData, now time.Time) (*entity.PrimaryEvent, error) {
	if data == nil || data.MarketPrice == 0 || data.SessionOpen == 0 {
		return nil, fmt.Errorf("%w: %s intraday", ErrDataUnavailable, ticker)
	}

	ret := data.MarketPrice/data.SessionOpen - 1
	if math.Abs(ret) <= d.cfg.Engine.IntradayMoveThreshold {
		return nil, nil
	}

	event := d.newEvent(ticker, ret, entity.RuleIntraday, now)
	d.logger.Info("Primary event detected",
		logger.StringField("ticker", ticker),
		logger.StringField("rule", string(entity.RuleIntraday)),
		logger.Float64Field("return", ret),
		logger.Float64Field("magnitude", event.Magnitude))
	return event, nil
}

// DetectMultiDay flags a significant simple return over the last N daily
// closes.
func (d *Detector) DetectMultiDay(ticker string, closes []float64, now time.Time) (*entity.PrimaryEvent, error) {
	if len(closes) < 2 {
		return nil, fmt.Errorf("%w: %s multi-day", ErrDataUnavailable, ticker)
	}

	window := closes
	if lookback := d.cfg.Engine.MultiDayLookback; len(window) > lookback {
		window = window[len(window)-lookback:]
	}

	first, last := window[0], window[len(window)-1]
	if first == 0 {
		return nil, fmt.Errorf("%w: %s multi-day", ErrDataUnavailable, ticker)
	}

	ret := last/first - 1
	if math.Abs(ret) <= d.cfg.Engine.MultiDayMoveThreshold {
		return nil, nil
	}

	event := d.newEvent(ticker, ret, entity.RuleMultiDay, now)
	d.logger.Info("Primary event detected",
		logger.StringField("ticker", ticker),
		logger.StringField("rule", string(entity.RuleMultiDay)),
		logger.Float64Field("return", ret),
		logger.Float64Field("magnitude", event.Magnitude))
	return event, nil
}

// Evaluate runs both rules for one ticker. When both fire in the same
// evaluation, the intraday event wins: it is the time-sensitive one, and
// emitting both would double-count the same move.
func (d *Detector) Evaluate(ticker string, data *dto.StockData, now time.Time) (*entity.PrimaryEvent, error) {
	if data == nil {
		return nil, fmt.Errorf("%w: %s", ErrDataUnavailable, ticker)
	}

	intraday, err := d.DetectIntraday(ticker, data, now)
	if err == nil && intraday != nil {
		return intraday, nil
	}

	return d.DetectMultiDay(ticker, data.Closes(), now)
}

func (d *Detector) newEvent(ticker string, ret float64, rule entity.DetectionRule, now time.Time) *entity.PrimaryEvent {
	direction := "rallied"
	if ret < 0 {
		direction = "declined"
	}

	return &entity.PrimaryEvent{
		Ticker:               ticker,
		Description:          fmt.Sprintf("%s %s %.2f%% (%s)", ticker, direction, math.Abs(ret)*100, rule),
		Category:             "price_move",
		Magnitude:            magnitudeFromReturn(ret),
		Return:               ret,
		ExpectedDurationDays: d.cfg.Engine.DefaultEventDurationDays,
		Rule:                 rule,
		DetectedAt:           now,
	}
}

// magnitudeFromReturn maps an absolute return onto the 1..10 event scale:
// one point per percent, capped at 10.
func magnitudeFromReturn(ret float64) float64 {
	magnitude := math.Abs(ret) * 100
	if magnitude > 10 {
		return 10
	}
	if magnitude < 1 {
		return 1
	}
	return magnitude
}
