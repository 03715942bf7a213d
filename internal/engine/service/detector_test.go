package service

import (
	"testing"
	"time"

	"second-order-engine/internal/engine/dto"
	"second-order-engine/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetector_DetectIntraday(t *testing.T) {
	d := NewDetector(testConfig(), testLogger(t))
	now := time.Date(2026, 3, 2, 10, 30, 0, 0, time.UTC)

	t.Run("flags a move above the threshold", func(t *testing.T) {
		data := &dto.StockData{Ticker: "NVDA", SessionOpen: 100, MarketPrice: 106}
		event, err := d.DetectIntraday("NVDA", data, now)
		require.NoError(t, err)
		require.NotNil(t, event)
		assert.Equal(t, entity.RuleIntraday, event.Rule)
		assert.InDelta(t, 0.06, event.Return, 1e-9)
		assert.InDelta(t, 6.0, event.Magnitude, 1e-9)
		assert.Contains(t, event.Description, "rallied")
	})

	t.Run("flags a decline with a signed return", func(t *testing.T) {
		data := &dto.StockData{Ticker: "NVDA", SessionOpen: 100, MarketPrice: 92}
		event, err := d.DetectIntraday("NVDA", data, now)
		require.NoError(t, err)
		require.NotNil(t, event)
		assert.True(t, event.Return < 0)
		assert.Contains(t, event.Description, "declined")
	})

	t.Run("a move exactly at the threshold does not fire", func(t *testing.T) {
		data := &dto.StockData{Ticker: "NVDA", SessionOpen: 100, MarketPrice: 105}
		event, err := d.DetectIntraday("NVDA", data, now)
		require.NoError(t, err)
		assert.Nil(t, event)
	})

	t.Run("missing data is reported, not swallowed", func(t *testing.T) {
		_, err := d.DetectIntraday("NVDA", nil, now)
		assert.ErrorIs(t, err, ErrDataUnavailable)

		_, err = d.DetectIntraday("NVDA", &dto.StockData{SessionOpen: 0, MarketPrice: 100}, now)
		assert.ErrorIs(t, err, ErrDataUnavailable)
	})
}

func TestDetector_DetectMultiDay(t *testing.T) {
	d := NewDetector(testConfig(), testLogger(t))
	now := time.Date(2026, 3, 2, 16, 0, 0, 0, time.UTC)

	t.Run("flags a cumulative move over the lookback window", func(t *testing.T) {
		closes := []float64{100, 103, 105, 108, 112}
		event, err := d.DetectMultiDay("NVDA", closes, now)
		require.NoError(t, err)
		require.NotNil(t, event)
		assert.Equal(t, entity.RuleMultiDay, event.Rule)
		assert.InDelta(t, 0.12, event.Return, 1e-9)
	})

	t.Run("only the last lookback closes count", func(t *testing.T) {
		// Big old move outside the window, flat inside it.
		closes := []float64{50, 100, 101, 100, 102, 101}
		event, err := d.DetectMultiDay("NVDA", closes, now)
		require.NoError(t, err)
		assert.Nil(t, event)
	})

	t.Run("below-threshold move does not fire", func(t *testing.T) {
		closes := []float64{100, 101, 102, 103, 105}
		event, err := d.DetectMultiDay("NVDA", closes, now)
		require.NoError(t, err)
		assert.Nil(t, event)
	})

	t.Run("too-short history is unavailable data", func(t *testing.T) {
		_, err := d.DetectMultiDay("NVDA", []float64{100}, now)
		assert.ErrorIs(t, err, ErrDataUnavailable)
	})
}

func TestDetector_Evaluate(t *testing.T) {
	d := NewDetector(testConfig(), testLogger(t))
	now := time.Date(2026, 3, 2, 16, 0, 0, 0, time.UTC)

	t.Run("intraday wins when both rules fire", func(t *testing.T) {
		data := &dto.StockData{
			Ticker:      "NVDA",
			SessionOpen: 100,
			MarketPrice: 107,
			OHLCV: []dto.OHLCV{
				{Close: 90}, {Close: 95}, {Close: 100}, {Close: 104}, {Close: 107},
			},
		}
		event, err := d.Evaluate("NVDA", data, now)
		require.NoError(t, err)
		require.NotNil(t, event)
		assert.Equal(t, entity.RuleIntraday, event.Rule)
	})

	t.Run("falls through to the multi-day rule", func(t *testing.T) {
		data := &dto.StockData{
			Ticker:      "NVDA",
			SessionOpen: 106,
			MarketPrice: 107,
			OHLCV: []dto.OHLCV{
				{Close: 90}, {Close: 95}, {Close: 100}, {Close: 104}, {Close: 107},
			},
		}
		event, err := d.Evaluate("NVDA", data, now)
		require.NoError(t, err)
		require.NotNil(t, event)
		assert.Equal(t, entity.RuleMultiDay, event.Rule)
	})

	t.Run("quiet tape yields no event", func(t *testing.T) {
		data := &dto.StockData{
			Ticker:      "NVDA",
			SessionOpen: 100,
			MarketPrice: 101,
			OHLCV:       []dto.OHLCV{{Close: 100}, {Close: 101}},
		}
		event, err := d.Evaluate("NVDA", data, now)
		require.NoError(t, err)
		assert.Nil(t, event)
	})
}

func TestMagnitudeFromReturn(t *testing.T) {
	assert.InDelta(t, 6.0, magnitudeFromReturn(0.06), 1e-9)
	assert.InDelta(t, 6.0, magnitudeFromReturn(-0.06), 1e-9)
	assert.InDelta(t, 10.0, magnitudeFromReturn(0.25), 1e-9, "capped at 10")
	assert.InDelta(t, 1.0, magnitudeFromReturn(0.001), 1e-9, "floored at 1")
}
