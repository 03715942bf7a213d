package dto

// GetStockDataParam parameterizes a market data lookup.
type GetStockDataParam struct {
	Ticker   string
	Range    string
	Interval string
}

// OHLCV is a single price bar.
type OHLCV struct {
	Timestamp int64   `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    int64   `json:"volume"`
}

// StockData is a normalized price series slice for one instrument.
type StockData struct {
	Ticker      string  `json:"ticker"`
	MarketPrice float64 `json:"market_price"`
	SessionOpen float64 `json:"session_open"`
	OHLCV       []OHLCV `json:"ohlcv"`
}

// Closes returns the close column of the series.
func (s *StockData) Closes() []float64 {
	closes := make([]float64, 0, len(s.OHLCV))
	for _, bar := range s.OHLCV {
		if bar.Close > 0 {
			closes = append(closes, bar.Close)
		}
	}
	return closes
}
