package repository

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"context"

	"second-order-engine/internal/engine/config"
	"second-order-engine/internal/engine/dto"
	"second-order-engine/pkg/logger"

	"golang.org/x/time/rate"
)

// chartAPIResponse mirrors the chart endpoint of the market data service.
type chartAPIResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				RegularMarketPrice float64 `json:"regularMarketPrice"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []float64 `json:"open"`
					High   []float64 `json:"high"`
					Low    []float64 `json:"low"`
					Close  []float64 `json:"close"`
					Volume []int64   `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error interface{} `json:"error"`
	} `json:"chart"`
}

type marketDataRepository struct {
	cfg            *config.Config
	logger         *logger.Logger
	httpClient     *http.Client
	requestLimiter *rate.Limiter
}

// NewMarketDataRepository creates a chart-API backed MarketDataRepository.
func NewMarketDataRepository(cfg *config.Config, log *logger.Logger) MarketDataRepository {
	secondsPerRequest := time.Minute / time.Duration(cfg.MarketData.MaxRequestPerMinute)
	requestLimiter := rate.NewLimiter(rate.Every(secondsPerRequest), 1)

	return &marketDataRepository{
		cfg:    cfg,
		logger: log,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		requestLimiter: requestLimiter,
	}
}

// Get fetches a normalized price series for one instrument.
func (r *marketDataRepository) Get(ctx context.Context, param dto.GetStockDataParam) (*dto.StockData, error) {
	if err := r.requestLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("failed to wait for request limit: %w", err)
	}

	url := fmt.Sprintf("%s/v8/finance/chart/%s?range=%s&interval=%s",
		r.cfg.MarketData.BaseURL, param.Ticker, param.Range, param.Interval)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to fetch market data", logger.ErrorField(err), logger.StringField("ticker", param.Ticker))
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("market data API returned %d: %s", resp.StatusCode, string(body))
	}

	var chartResp chartAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&chartResp); err != nil {
		return nil, fmt.Errorf("failed to decode market data response: %w", err)
	}

	if len(chartResp.Chart.Result) == 0 || len(chartResp.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("empty chart result for %s", param.Ticker)
	}

	result := chartResp.Chart.Result[0]
	quote := result.Indicators.Quote[0]

	data := &dto.StockData{
		Ticker:      param.Ticker,
		MarketPrice: result.Meta.RegularMarketPrice,
	}
	for i, ts := range result.Timestamp {
		bar := dto.OHLCV{Timestamp: ts}
		if i < len(quote.Open) {
			bar.Open = quote.Open[i]
		}
		if i < len(quote.High) {
			bar.High = quote.High[i]
		}
		if i < len(quote.Low) {
			bar.Low = quote.Low[i]
		}
		if i < len(quote.Close) {
			bar.Close = quote.Close[i]
		}
		if i < len(quote.Volume) {
			bar.Volume = quote.Volume[i]
		}
		data.OHLCV = append(data.OHLCV, bar)
	}
	if len(data.OHLCV) > 0 {
		data.SessionOpen = data.OHLCV[0].Open
	}

	return data, nil
}
