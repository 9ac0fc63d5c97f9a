package store

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"capital-trading-bot/internal/types"
)

type Config struct {
	Mode        string   `yaml:"mode"` // DRY_RUN or LIVE
	PollSeconds int      `yaml:"poll_seconds"`
	Symbols     []string `yaml:"symbols"`
	Interval    string   `yaml:"interval"`
	HistoryBars int      `yaml:"history_bars"`

	Risk types.RiskConfig `yaml:"risk"`

	Stops struct {
		ATRPeriod          int     `yaml:"atr_period"`
		RewardMultiple     float64 `yaml:"reward_multiple"`
		TrailingATRMult    float64 `yaml:"trailing_atr_mult"`
		BreakevenThreshold float64 `yaml:"breakeven_threshold"`
		TrailingActivation float64 `yaml:"trailing_activation"`
		UseVolatilityStop  bool    `yaml:"use_volatility_stop"`
		VolatilityPeriod   int     `yaml:"volatility_period"`
	} `yaml:"stops"`

	Signal struct {
		Provider string `yaml:"provider"` // RULE or NONE
		ShortSMA int    `yaml:"short_sma"`
		LongSMA  int    `yaml:"long_sma"`
		News     struct {
			Enabled      bool    `yaml:"enabled"`
			MaxHeadlines int     `yaml:"max_headlines"`
			CacheMinutes int     `yaml:"cache_minutes"`
			VetoScore    float64 `yaml:"veto_score"`
		} `yaml:"news"`
	} `yaml:"signal"`

	Broker struct {
		Provider string `yaml:"provider"` // CAPITAL
		Demo     bool   `yaml:"demo"`
	} `yaml:"broker"`

	Server struct {
		Enabled bool   `yaml:"enabled"`
		Addr    string `yaml:"addr"`
	} `yaml:"server"`
}

func (c *Config) Validate() error {
	if c.Mode != "DRY_RUN" && c.Mode != "LIVE" {
		return fmt.Errorf("invalid mode '%s': must be 'DRY_RUN' or 'LIVE'", c.Mode)
	}
	if len(c.Symbols) == 0 {
		return errors.New("symbols cannot be empty")
	}
	if c.Risk.AccountBalance <= 0 {
		return fmt.Errorf("risk.account_balance must be positive, got %.2f", c.Risk.AccountBalance)
	}
	if c.Risk.MaxRiskPerTrade <= 0 || c.Risk.MaxRiskPerTrade >= 1 {
		return fmt.Errorf("risk.max_risk_per_trade must be a fraction in (0,1), got %.4f", c.Risk.MaxRiskPerTrade)
	}
	if c.Risk.MinRiskRewardRatio <= 0 {
		return fmt.Errorf("risk.min_risk_reward_ratio must be positive, got %.2f", c.Risk.MinRiskRewardRatio)
	}
	if c.Risk.MaxPositionsOpen <= 0 {
		return fmt.Errorf("risk.max_positions_open must be positive, got %d", c.Risk.MaxPositionsOpen)
	}
	if c.Stops.BreakevenThreshold <= 0 || c.Stops.BreakevenThreshold >= c.Stops.TrailingActivation {
		return fmt.Errorf("stops thresholds must satisfy 0 < breakeven (%v) < trailing activation (%v)",
			c.Stops.BreakevenThreshold, c.Stops.TrailingActivation)
	}
	if c.Signal.Provider != "RULE" && c.Signal.Provider != "NONE" {
		return fmt.Errorf("signal.provider must be 'RULE' or 'NONE', got '%s'", c.Signal.Provider)
	}
	return nil
}

func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}

	applyDefaults(&c)

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &c, nil
}

// applyDefaults fills unset fields with the stock policy values.
func applyDefaults(c *Config) {
	if c.PollSeconds == 0 {
		c.PollSeconds = 60
	}
	if c.Interval == "" {
		c.Interval = "HOUR"
	}
	if c.HistoryBars == 0 {
		c.HistoryBars = 100
	}
	if c.Risk.MaxRiskPerTrade == 0 {
		c.Risk.MaxRiskPerTrade = 0.02
	}
	if c.Risk.MinRiskRewardRatio == 0 {
		c.Risk.MinRiskRewardRatio = 2.0
	}
	if c.Risk.MaxPositionsOpen == 0 {
		c.Risk.MaxPositionsOpen = 3
	}
	if c.Stops.ATRPeriod == 0 {
		c.Stops.ATRPeriod = 14
	}
	if c.Stops.RewardMultiple == 0 {
		c.Stops.RewardMultiple = 2.5
	}
	if c.Stops.TrailingATRMult == 0 {
		c.Stops.TrailingATRMult = 1.5
	}
	if c.Stops.BreakevenThreshold == 0 {
		c.Stops.BreakevenThreshold = 0.3
	}
	if c.Stops.TrailingActivation == 0 {
		c.Stops.TrailingActivation = 0.5
	}
	if c.Stops.VolatilityPeriod == 0 {
		c.Stops.VolatilityPeriod = 20
	}
	if c.Signal.Provider == "" {
		c.Signal.Provider = "RULE"
	}
	if c.Signal.ShortSMA == 0 {
		c.Signal.ShortSMA = 20
	}
	if c.Signal.LongSMA == 0 {
		c.Signal.LongSMA = 50
	}
	if c.Signal.News.MaxHeadlines == 0 {
		c.Signal.News.MaxHeadlines = 15
	}
	if c.Signal.News.CacheMinutes == 0 {
		c.Signal.News.CacheMinutes = 60
	}
	if c.Signal.News.VetoScore == 0 {
		c.Signal.News.VetoScore = 0.6
	}
	if c.Broker.Provider == "" {
		c.Broker.Provider = "CAPITAL"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
}
