// Package config loads and validates the engine configuration from
// YAML or JSON files. Validation is fail-fast: a bad value aborts
// startup rather than being silently corrected.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete engine configuration.
type Config struct {
	Account    AccountConfig    `json:"account" yaml:"account"`
	Risk       RiskConfig       `json:"risk" yaml:"risk"`
	Strategy   StrategyConfig   `json:"strategy" yaml:"strategy"`
	Protection ProtectionConfig `json:"protection" yaml:"protection"`
	MonteCarlo MonteCarloConfig `json:"montecarlo" yaml:"montecarlo"`
	Journal    JournalConfig    `json:"journal" yaml:"journal"`
}

// AccountConfig contains account initialization parameters.
type AccountConfig struct {
	Currency string  `json:"currency" yaml:"currency"`
	Balance  float64 `json:"balance" yaml:"balance"`
}

// RiskConfig parameterizes position sizing. RiskUnitUSD is the fixed
// account-currency amount put at risk on every trade (1R).
type RiskConfig struct {
	RiskUnitUSD      float64 `json:"risk_unit_usd" yaml:"risk_unit_usd"`
	ATRMult          float64 `json:"atr_mult" yaml:"atr_mult"`
	MaxStakeFraction float64 `json:"max_stake_fraction" yaml:"max_stake_fraction"`
}

// StrategyConfig contains the breakout strategy parameters.
type StrategyConfig struct {
	Pair      string `json:"pair" yaml:"pair"`
	Timeframe string `json:"timeframe" yaml:"timeframe"` // e.g. "1h", "15m"

	DonchianEntry int `json:"donchian_entry" yaml:"donchian_entry"`
	DonchianExit  int `json:"donchian_exit" yaml:"donchian_exit"`
	EMATrend      int `json:"ema_trend" yaml:"ema_trend"`
	ATRPeriod     int `json:"atr_period" yaml:"atr_period"`
	RSIPeriod     int `json:"rsi_period" yaml:"rsi_period"`
	MACDFast      int `json:"macd_fast" yaml:"macd_fast"`
	MACDSlow      int `json:"macd_slow" yaml:"macd_slow"`
	MACDSignal    int `json:"macd_signal" yaml:"macd_signal"`
	VolumeSMALen  int `json:"volume_sma_len" yaml:"volume_sma_len"`

	MinATRFraction float64 `json:"min_atr_fraction" yaml:"min_atr_fraction"`
	VolumeFactor   float64 `json:"volume_factor" yaml:"volume_factor"`
	RSIOverbought  float64 `json:"rsi_overbought" yaml:"rsi_overbought"`
	ROITarget      float64 `json:"roi_target" yaml:"roi_target"`
}

// TimeframeDuration parses the candle timeframe string.
func (s StrategyConfig) TimeframeDuration() (time.Duration, error) {
	d, err := time.ParseDuration(s.Timeframe)
	if err != nil {
		return 0, fmt.Errorf("strategy.timeframe: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("strategy.timeframe must be positive, got %s", s.Timeframe)
	}
	return d, nil
}

// ProtectionConfig parameterizes the entry guards. A zero primary
// threshold disables the corresponding guard.
type ProtectionConfig struct {
	StopCount          int     `json:"stop_count" yaml:"stop_count"`
	StopWindowBars     int     `json:"stop_window_bars" yaml:"stop_window_bars"`
	DrawdownFraction   float64 `json:"drawdown_fraction" yaml:"drawdown_fraction"`
	DrawdownWindowBars int     `json:"drawdown_window_bars" yaml:"drawdown_window_bars"`
	CooldownBars       int     `json:"cooldown_bars" yaml:"cooldown_bars"`
	MaxDailyLossR      float64 `json:"max_daily_loss_r" yaml:"max_daily_loss_r"`
	DayOffsetHours     int     `json:"day_offset_hours" yaml:"day_offset_hours"`
}

// DayOffset converts the venue day boundary to a duration past UTC
// midnight.
func (p ProtectionConfig) DayOffset() time.Duration {
	return time.Duration(p.DayOffsetHours) * time.Hour
}

// MonteCarloConfig parameterizes the bootstrap analyzer.
type MonteCarloConfig struct {
	Simulations        int       `json:"simulations" yaml:"simulations"`
	TradesPerSim       int       `json:"trades_per_sim,omitempty" yaml:"trades_per_sim,omitempty"`
	DrawdownThresholds []float64 `json:"drawdown_thresholds" yaml:"drawdown_thresholds"`
	Confidence         float64   `json:"confidence" yaml:"confidence"`
	Seed               int64     `json:"seed,omitempty" yaml:"seed,omitempty"`
	Workers            int       `json:"workers,omitempty" yaml:"workers,omitempty"`
}

// JournalConfig contains journaling parameters.
type JournalConfig struct {
	Type       string `json:"type" yaml:"type"` // "csv" or "sqlite"
	TradesFile string `json:"trades_file,omitempty" yaml:"trades_file,omitempty"`
	DBPath     string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

// Default returns the reference configuration. Every Load starts from
// these values so a partial file only overrides what it names.
func Default() *Config {
	return &Config{
		Account: AccountConfig{
			Currency: "USDT",
			Balance:  10000,
		},
		Risk: RiskConfig{
			RiskUnitUSD:      5.0,
			ATRMult:          1.5,
			MaxStakeFraction: 0.25,
		},
		Strategy: StrategyConfig{
			Pair:           "BTC/USDT",
			Timeframe:      "1h",
			DonchianEntry:  20,
			DonchianExit:   10,
			EMATrend:       200,
			ATRPeriod:      14,
			RSIPeriod:      14,
			MACDFast:       12,
			MACDSlow:       26,
			MACDSignal:     9,
			VolumeSMALen:   20,
			MinATRFraction: 0.005,
			VolumeFactor:   0.8,
			RSIOverbought:  70,
			ROITarget:      0.03,
		},
		Protection: ProtectionConfig{
			StopCount:          4,
			StopWindowBars:     48,
			DrawdownFraction:   0.20,
			DrawdownWindowBars: 200,
			CooldownBars:       5,
			MaxDailyLossR:      2.0,
		},
		MonteCarlo: MonteCarloConfig{
			Simulations:        5000,
			DrawdownThresholds: []float64{3, 5, 10},
			Confidence:         0.95,
		},
		Journal: JournalConfig{
			Type:       "csv",
			TradesFile: "trades.csv",
		},
	}
}

// LoadFromFile loads configuration on top of the defaults. The file is
// parsed as YAML first, then JSON.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jerr := json.Unmarshal(data, cfg); jerr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SaveToFile writes the configuration, YAML for .yaml/.yml paths and
// indented JSON otherwise.
func (c *Config) SaveToFile(path string) error {
	var (
		data []byte
		err  error
	)
	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks the full configuration and returns the first problem
// found.
func (c *Config) Validate() error {
	if c.Account.Balance <= 0 {
		return fmt.Errorf("account.balance must be positive, got %f", c.Account.Balance)
	}

	if c.Risk.RiskUnitUSD <= 0 {
		return fmt.Errorf("risk.risk_unit_usd must be positive, got %f", c.Risk.RiskUnitUSD)
	}
	if c.Risk.ATRMult <= 0 {
		return fmt.Errorf("risk.atr_mult must be positive, got %f", c.Risk.ATRMult)
	}
	if c.Risk.MaxStakeFraction < 0 || c.Risk.MaxStakeFraction > 1 {
		return fmt.Errorf("risk.max_stake_fraction must be in [0,1], got %f", c.Risk.MaxStakeFraction)
	}

	s := c.Strategy
	if s.Pair == "" {
		return fmt.Errorf("strategy.pair is required")
	}
	if _, err := s.TimeframeDuration(); err != nil {
		return err
	}
	for name, v := range map[string]int{
		"donchian_entry": s.DonchianEntry,
		"donchian_exit":  s.DonchianExit,
		"ema_trend":      s.EMATrend,
		"atr_period":     s.ATRPeriod,
		"rsi_period":     s.RSIPeriod,
		"macd_fast":      s.MACDFast,
		"macd_slow":      s.MACDSlow,
		"macd_signal":    s.MACDSignal,
		"volume_sma_len": s.VolumeSMALen,
	} {
		if v <= 0 {
			return fmt.Errorf("strategy.%s must be positive, got %d", name, v)
		}
	}
	if s.MACDFast >= s.MACDSlow {
		return fmt.Errorf("strategy.macd_fast (%d) must be below macd_slow (%d)", s.MACDFast, s.MACDSlow)
	}
	if s.MinATRFraction < 0 {
		return fmt.Errorf("strategy.min_atr_fraction must not be negative, got %f", s.MinATRFraction)
	}
	if s.VolumeFactor < 0 {
		return fmt.Errorf("strategy.volume_factor must not be negative, got %f", s.VolumeFactor)
	}
	if s.RSIOverbought <= 0 || s.RSIOverbought > 100 {
		return fmt.Errorf("strategy.rsi_overbought must be in (0,100], got %f", s.RSIOverbought)
	}
	if s.ROITarget < 0 {
		return fmt.Errorf("strategy.roi_target must not be negative, got %f", s.ROITarget)
	}

	p := c.Protection
	if p.StopCount < 0 || p.StopWindowBars < 0 || p.DrawdownWindowBars < 0 || p.CooldownBars < 0 || p.DayOffsetHours < 0 {
		return fmt.Errorf("protection values must not be negative")
	}
	if p.StopCount > 0 && p.StopWindowBars == 0 {
		return fmt.Errorf("protection.stop_window_bars is required when stop_count is set")
	}
	if p.DrawdownFraction < 0 || p.DrawdownFraction >= 1 {
		return fmt.Errorf("protection.drawdown_fraction must be in [0,1), got %f", p.DrawdownFraction)
	}
	if p.DrawdownFraction > 0 && p.DrawdownWindowBars == 0 {
		return fmt.Errorf("protection.drawdown_window_bars is required when drawdown_fraction is set")
	}
	if p.MaxDailyLossR < 0 {
		return fmt.Errorf("protection.max_daily_loss_r must not be negative, got %f", p.MaxDailyLossR)
	}
	if p.DayOffsetHours > 23 {
		return fmt.Errorf("protection.day_offset_hours must be below 24, got %d", p.DayOffsetHours)
	}

	mc := c.MonteCarlo
	if mc.Simulations <= 0 {
		return fmt.Errorf("montecarlo.simulations must be positive, got %d", mc.Simulations)
	}
	if mc.TradesPerSim < 0 {
		return fmt.Errorf("montecarlo.trades_per_sim must not be negative, got %d", mc.TradesPerSim)
	}
	if mc.Confidence <= 0 || mc.Confidence >= 1 {
		return fmt.Errorf("montecarlo.confidence must be in (0,1), got %f", mc.Confidence)
	}
	for _, th := range mc.DrawdownThresholds {
		if th <= 0 {
			return fmt.Errorf("montecarlo.drawdown_thresholds must be positive, got %f", th)
		}
	}
	if mc.Workers < 0 {
		return fmt.Errorf("montecarlo.workers must not be negative, got %d", mc.Workers)
	}

	switch c.Journal.Type {
	case "csv":
		if c.Journal.TradesFile == "" {
			return fmt.Errorf("journal.trades_file is required for type csv")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal.db_path is required for type sqlite")
		}
	case "", "none":
		// journaling disabled
	default:
		return fmt.Errorf("journal.type must be csv, sqlite or none, got %q", c.Journal.Type)
	}

	return nil
}
