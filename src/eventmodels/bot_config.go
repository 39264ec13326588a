package eventmodels

import (
	"fmt"
	"strings"
	"time"
)

const (
	DefaultMaxPositionSize    int64 = 1_000_000
	DefaultMaxTotalExposure   int64 = 5_000_000
	DefaultTickInterval             = 60 * time.Second
	DefaultPositionSync             = 5 * time.Minute
	DefaultRateLimitCalls           = 5
	DefaultRateLimitPeriod          = time.Second
	DefaultRequestTimeout           = 30 * time.Second
	DefaultBaseURL                  = "https://mockapi.kiwoom.com"
	DefaultTimezone                 = "Asia/Seoul"
	DefaultMarketOpen               = "09:00"
	DefaultMarketClose              = "15:30"
	DefaultDailySummaryAt           = "16:00"
	DefaultStrategy                 = "rsi"
)

// ClockTime is a wall-clock time of day in the bot's configured location.
type ClockTime struct {
	Hour   int
	Minute int
}

func ParseClockTime(value string) (ClockTime, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(value))
	if err != nil {
		return ClockTime{}, fmt.Errorf("ParseClockTime: invalid time of day %q: %w", value, err)
	}

	return ClockTime{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func (c ClockTime) Minutes() int {
	return c.Hour*60 + c.Minute
}

func (c ClockTime) On(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), c.Hour, c.Minute, 0, 0, day.Location())
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

type TradingConfig struct {
	DryRun           bool
	MaxPositionSize  int64
	MaxTotalExposure int64
}

type BrokerConfig struct {
	BaseURL         string
	AppKey          string
	AppSecret       string
	AccountNumber   string
	RateLimitCalls  int
	RateLimitPeriod time.Duration
	RequestTimeout  time.Duration
}

type ScheduleConfig struct {
	TickInterval         time.Duration
	PositionSyncInterval time.Duration
	DailySummaryAt       ClockTime
	MarketOpen           ClockTime
	MarketClose          ClockTime
	Location             *time.Location
}

// BotConfig is built once at startup and handed to constructors. Nothing mutates it
// afterwards.
type BotConfig struct {
	Trading  TradingConfig
	Broker   BrokerConfig
	Schedule ScheduleConfig
	Strategy string
	symbols  []string
}

func (c BotConfig) Symbols() []string {
	out := make([]string, len(c.symbols))
	copy(out, c.symbols)
	return out
}

// BotConfigYAML is the non-secret part of the configuration, read from BOT_CONFIG_FILE.
type BotConfigYAML struct {
	Symbols                []string `yaml:"symbols"`
	Strategy               string   `yaml:"strategy"`
	DryRun                 *bool    `yaml:"dry_run"`
	MaxPositionSize        int64    `yaml:"max_position_size"`
	MaxTotalExposure       int64    `yaml:"max_total_exposure"`
	TickIntervalSeconds    int      `yaml:"tick_interval_seconds"`
	PositionSyncMinutes    int      `yaml:"position_sync_minutes"`
	DailySummaryAt         string   `yaml:"daily_summary_at"`
	Timezone               string   `yaml:"timezone"`
	MarketOpen             string   `yaml:"market_open"`
	MarketClose            string   `yaml:"market_close"`
	RateLimitCalls         int      `yaml:"rate_limit_calls"`
	RateLimitPeriodSeconds float64  `yaml:"rate_limit_period_seconds"`
	RequestTimeoutSeconds  int      `yaml:"request_timeout_seconds"`
	BaseURL                string   `yaml:"base_url"`
}

type BrokerCredentials struct {
	AppKey        string
	AppSecret     string
	AccountNumber string
}

func (y BotConfigYAML) ToModel(creds BrokerCredentials) (BotConfig, error) {
	cfg := BotConfig{
		Trading: TradingConfig{
			DryRun:           true,
			MaxPositionSize:  DefaultMaxPositionSize,
			MaxTotalExposure: DefaultMaxTotalExposure,
		},
		Broker: BrokerConfig{
			BaseURL:         DefaultBaseURL,
			AppKey:          creds.AppKey,
			AppSecret:       creds.AppSecret,
			AccountNumber:   creds.AccountNumber,
			RateLimitCalls:  DefaultRateLimitCalls,
			RateLimitPeriod: DefaultRateLimitPeriod,
			RequestTimeout:  DefaultRequestTimeout,
		},
		Schedule: ScheduleConfig{
			TickInterval:         DefaultTickInterval,
			PositionSyncInterval: DefaultPositionSync,
		},
		Strategy: valueOr(strings.TrimSpace(y.Strategy), DefaultStrategy),
	}

	if y.DryRun != nil {
		cfg.Trading.DryRun = *y.DryRun
	}

	if y.MaxPositionSize > 0 {
		cfg.Trading.MaxPositionSize = y.MaxPositionSize
	}

	if y.MaxTotalExposure > 0 {
		cfg.Trading.MaxTotalExposure = y.MaxTotalExposure
	}

	if y.BaseURL != "" {
		cfg.Broker.BaseURL = strings.TrimRight(y.BaseURL, "/")
	}

	if y.RateLimitCalls > 0 {
		cfg.Broker.RateLimitCalls = y.RateLimitCalls
	}

	if y.RateLimitPeriodSeconds > 0 {
		cfg.Broker.RateLimitPeriod = time.Duration(y.RateLimitPeriodSeconds * float64(time.Second))
	}

	if y.RequestTimeoutSeconds > 0 {
		cfg.Broker.RequestTimeout = time.Duration(y.RequestTimeoutSeconds) * time.Second
	}

	if y.TickIntervalSeconds > 0 {
		cfg.Schedule.TickInterval = time.Duration(y.TickIntervalSeconds) * time.Second
	}

	if y.PositionSyncMinutes > 0 {
		cfg.Schedule.PositionSyncInterval = time.Duration(y.PositionSyncMinutes) * time.Minute
	}

	var err error
	if cfg.Schedule.DailySummaryAt, err = ParseClockTime(valueOr(y.DailySummaryAt, DefaultDailySummaryAt)); err != nil {
		return BotConfig{}, fmt.Errorf("BotConfigYAML.ToModel: daily_summary_at: %w", err)
	}

	if cfg.Schedule.MarketOpen, err = ParseClockTime(valueOr(y.MarketOpen, DefaultMarketOpen)); err != nil {
		return BotConfig{}, fmt.Errorf("BotConfigYAML.ToModel: market_open: %w", err)
	}

	if cfg.Schedule.MarketClose, err = ParseClockTime(valueOr(y.MarketClose, DefaultMarketClose)); err != nil {
		return BotConfig{}, fmt.Errorf("BotConfigYAML.ToModel: market_close: %w", err)
	}

	if cfg.Schedule.MarketClose.Minutes() <= cfg.Schedule.MarketOpen.Minutes() {
		return BotConfig{}, fmt.Errorf("BotConfigYAML.ToModel: market_close %s must be after market_open %s", cfg.Schedule.MarketClose, cfg.Schedule.MarketOpen)
	}

	if cfg.Schedule.Location, err = LoadLocation(valueOr(y.Timezone, DefaultTimezone)); err != nil {
		return BotConfig{}, fmt.Errorf("BotConfigYAML.ToModel: timezone: %w", err)
	}

	seen := make(map[string]struct{})
	for _, s := range y.Symbols {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}

		if _, found := seen[s]; found {
			continue
		}

		seen[s] = struct{}{}
		cfg.symbols = append(cfg.symbols, s)
	}

	if len(cfg.symbols) == 0 {
		return BotConfig{}, fmt.Errorf("BotConfigYAML.ToModel: at least one symbol is required")
	}

	if creds.AppKey == "" || creds.AppSecret == "" || creds.AccountNumber == "" {
		return BotConfig{}, fmt.Errorf("BotConfigYAML.ToModel: broker credentials are required")
	}

	return cfg, nil
}

// LoadLocation resolves an IANA zone name. Only DefaultTimezone falls back to a
// fixed KST offset when the zone database is unavailable.
func LoadLocation(name string) (*time.Location, error) {
	loc, err := time.LoadLocation(name)
	if err != nil {
		if name == DefaultTimezone {
			return time.FixedZone("KST", 9*60*60), nil
		}

		return nil, fmt.Errorf("LoadLocation: unknown zone %q: %w", name, err)
	}

	return loc, nil
}

// DefaultLocation is the location of DefaultTimezone.
func DefaultLocation() *time.Location {
	loc, _ := LoadLocation(DefaultTimezone)
	return loc
}

func valueOr(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func NewBotConfig(symbols []string, trading TradingConfig, broker BrokerConfig, schedule ScheduleConfig) BotConfig {
	cfg := BotConfig{
		Trading:  trading,
		Broker:   broker,
		Schedule: schedule,
	}

	cfg.symbols = append(cfg.symbols, symbols...)
	return cfg
}
