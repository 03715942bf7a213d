package config

import (
	"time"

	"second-order-engine/pkg/config"
)

// EdgeConfig declares one relationship-graph edge in the config file.
// Weight 0 means "use the category weight".
type EdgeConfig struct {
	Source   string  `mapstructure:"source"`
	Target   string  `mapstructure:"target"`
	Category string  `mapstructure:"category"`
	Weight   float64 `mapstructure:"weight"`
}

// Engine holds the detection, scoring and lifecycle policy surface.
type Engine struct {
	PrimaryMovers            []string           `mapstructure:"primary_movers"`
	Graph                    []EdgeConfig       `mapstructure:"graph"`
	CategoryWeights          map[string]float64 `mapstructure:"category_weights"`
	ConfidenceThreshold      float64            `mapstructure:"confidence_threshold"`
	MaxSignals               int                `mapstructure:"max_signals"`
	MaxOpenPositions         int                `mapstructure:"max_open_positions"`
	BasePositionSize         float64            `mapstructure:"base_position_size"`
	SecondOrderMultiplier    float64            `mapstructure:"second_order_multiplier"`
	HoldingPeriodDays        int                `mapstructure:"holding_period_days"`
	IntradayMoveThreshold    float64            `mapstructure:"intraday_move_threshold"`
	MultiDayMoveThreshold    float64            `mapstructure:"multi_day_move_threshold"`
	MultiDayLookback         int                `mapstructure:"multi_day_lookback"`
	DefaultEventDurationDays int                `mapstructure:"default_event_duration_days"`
	CollaboratorTimeout      time.Duration      `mapstructure:"collaborator_timeout"`
	CacheTTL                 time.Duration      `mapstructure:"cache_ttl"`
	DailyTickSpec            string             `mapstructure:"daily_tick_spec"`
	DataPollInterval         time.Duration      `mapstructure:"data_poll_interval"`
}

// Gemini holds the configuration for the Gemini API.
type Gemini struct {
	APIKey              string `mapstructure:"api_key"`
	Model               string `mapstructure:"model"`
	MaxRequestPerMinute int    `mapstructure:"max_request_per_minute"`
}

// MarketData holds the configuration for the market data API.
type MarketData struct {
	BaseURL             string `mapstructure:"base_url"`
	MaxRequestPerMinute int    `mapstructure:"max_request_per_minute"`
	QuoteRange          string `mapstructure:"quote_range"`
	QuoteInterval       string `mapstructure:"quote_interval"`
	DailyRange          string `mapstructure:"daily_range"`
	DailyInterval       string `mapstructure:"daily_interval"`
}

// NewsFeed holds the configuration for RSS headline ingestion.
type NewsFeed struct {
	FeedURLs    []string `mapstructure:"feed_urls"`
	MaxItems    int      `mapstructure:"max_items"`
	MaxAgeHours int      `mapstructure:"max_age_hours"`
}

// Telegram holds configuration for the Telegram notifier.
type Telegram struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   int64  `mapstructure:"chat_id"`
}

// Config holds the full configuration for the engine service.
type Config struct {
	App        config.App      `mapstructure:"app"`
	Logger     config.Logger   `mapstructure:"logger"`
	Database   config.Database `mapstructure:"database"`
	Redis      config.Redis    `mapstructure:"redis"`
	API        config.API      `mapstructure:"api"`
	Engine     Engine          `mapstructure:"engine"`
	Gemini     Gemini          `mapstructure:"gemini"`
	MarketData MarketData      `mapstructure:"market_data"`
	NewsFeed   NewsFeed        `mapstructure:"news_feed"`
	Telegram   Telegram        `mapstructure:"telegram"`
}

// Load loads the engine configuration from the given path and applies
// policy defaults for anything left unset.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := config.Load(path, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	e := &cfg.Engine
	if e.ConfidenceThreshold == 0 {
		e.ConfidenceThreshold = 0.6
	}
	if e.MaxSignals == 0 {
		e.MaxSignals = 10
	}
	if e.MaxOpenPositions == 0 {
		e.MaxOpenPositions = 10
	}
	if e.BasePositionSize == 0 {
		e.BasePositionSize = 0.10
	}
	if e.SecondOrderMultiplier == 0 {
		e.SecondOrderMultiplier = 0.6
	}
	if e.HoldingPeriodDays == 0 {
		e.HoldingPeriodDays = 5
	}
	if e.IntradayMoveThreshold == 0 {
		e.IntradayMoveThreshold = 0.05
	}
	if e.MultiDayMoveThreshold == 0 {
		e.MultiDayMoveThreshold = 0.10
	}
	if e.MultiDayLookback == 0 {
		e.MultiDayLookback = 5
	}
	if e.DefaultEventDurationDays == 0 {
		e.DefaultEventDurationDays = 5
	}
	if e.CollaboratorTimeout == 0 {
		e.CollaboratorTimeout = 30 * time.Second
	}
	if e.CacheTTL == 0 {
		e.CacheTTL = 5 * time.Minute
	}
	if e.DailyTickSpec == "" {
		e.DailyTickSpec = "45 9 * * 1-5"
	}
	if e.DataPollInterval == 0 {
		e.DataPollInterval = time.Minute
	}

	m := &cfg.MarketData
	if m.QuoteRange == "" {
		m.QuoteRange = "1d"
	}
	if m.QuoteInterval == "" {
		m.QuoteInterval = "5m"
	}
	if m.DailyRange == "" {
		m.DailyRange = "5d"
	}
	if m.DailyInterval == "" {
		m.DailyInterval = "1d"
	}
	if m.MaxRequestPerMinute == 0 {
		m.MaxRequestPerMinute = 60
	}

	if cfg.NewsFeed.MaxItems == 0 {
		cfg.NewsFeed.MaxItems = 20
	}
	if cfg.NewsFeed.MaxAgeHours == 0 {
		cfg.NewsFeed.MaxAgeHours = 24
	}
	if cfg.Gemini.MaxRequestPerMinute == 0 {
		cfg.Gemini.MaxRequestPerMinute = 10
	}
}
