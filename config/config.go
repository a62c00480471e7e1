package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Policy and interval names recognised in strategy config.
const (
	PolicyPeriodic    = "periodic"
	PolicyBuyAndHold  = "buy-and-hold"
	IntervalMonthly   = "monthly"
	IntervalQuarterly = "quarterly"
	IntervalYearly    = "yearly"
	IntervalWeekly    = "weekly"
)

// Config represents the complete backtest configuration
type Config struct {
	Panel    PanelConfig    `json:"panel" yaml:"panel"`
	Account  AccountConfig  `json:"account" yaml:"account"`
	Costs    CostsConfig    `json:"costs" yaml:"costs"`
	Strategy StrategyConfig `json:"strategy" yaml:"strategy"`
	Journal  JournalConfig  `json:"journal" yaml:"journal"`
	Report   ReportConfig   `json:"report" yaml:"report"`
}

// PanelConfig points at the close panel CSV
type PanelConfig struct {
	Path string `json:"path" yaml:"path"`
}

// AccountConfig contains account initialization parameters
type AccountConfig struct {
	InitialCash float64 `json:"initial_cash" yaml:"initial_cash"`
}

// CostsConfig is the transaction cost model, rates in basis points
type CostsConfig struct {
	FeeBps        float64 `json:"fee_bps" yaml:"fee_bps"`
	SlippageBps   float64 `json:"slippage_bps" yaml:"slippage_bps"`
	FixedPerTrade float64 `json:"fixed_per_trade" yaml:"fixed_per_trade"`
}

// StrategyConfig selects the rebalance policy
type StrategyConfig struct {
	Policy   string `json:"policy" yaml:"policy"`                         // "periodic" or "buy-and-hold"
	Interval string `json:"interval,omitempty" yaml:"interval,omitempty"` // periodic only
}

// JournalConfig contains output parameters
type JournalConfig struct {
	TradesFile  string `json:"trades_file" yaml:"trades_file"`
	EquityFile  string `json:"equity_file" yaml:"equity_file"`
	SummaryFile string `json:"summary_file,omitempty" yaml:"summary_file,omitempty"`
	DBPath      string `json:"db_path,omitempty" yaml:"db_path,omitempty"` // empty disables SQLite
}

// ReportConfig enables the markdown/PNG report when Dir is set
type ReportConfig struct {
	Dir string `json:"dir,omitempty" yaml:"dir,omitempty"`
}

// Error is a configuration error. It is raised before any trade executes.
type Error struct {
	Field  string
	Reason string
}

func (e *Error) Error() string {
	return e.Field + " " + e.Reason
}

// LoadFromFile reads a configuration file and validates it.
func LoadFromFile(path string) (*Config, error) {
	cfg, err := ReadFromFile(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// ReadFromFile parses a YAML or JSON file over the defaults without
// validating, so callers can apply overrides first.
func ReadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		cfg = Default()
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

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

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Panel.Path == "" {
		return &Error{"panel.path", "is required"}
	}
	if c.Account.InitialCash <= 0 {
		return &Error{"account.initial_cash", "must be positive"}
	}
	if err := c.Costs.Validate(); err != nil {
		return err
	}
	if err := c.Strategy.Validate(); err != nil {
		return err
	}
	if c.Journal.TradesFile == "" || c.Journal.EquityFile == "" {
		return &Error{"journal", "trades_file and equity_file are required"}
	}
	return nil
}

// Validate rejects negative cost parameters.
func (c CostsConfig) Validate() error {
	if c.FeeBps < 0 {
		return &Error{"costs.fee_bps", "must be non-negative"}
	}
	if c.SlippageBps < 0 {
		return &Error{"costs.slippage_bps", "must be non-negative"}
	}
	if c.FixedPerTrade < 0 {
		return &Error{"costs.fixed_per_trade", "must be non-negative"}
	}
	return nil
}

func (s StrategyConfig) Validate() error {
	switch s.Policy {
	case PolicyPeriodic:
		switch s.Interval {
		case "", IntervalMonthly, IntervalQuarterly, IntervalYearly, IntervalWeekly:
		default:
			return &Error{"strategy.interval", fmt.Sprintf("unknown interval %q", s.Interval)}
		}
	case PolicyBuyAndHold:
	default:
		return &Error{"strategy.policy", fmt.Sprintf("must be %q or %q (got %q)", PolicyPeriodic, PolicyBuyAndHold, s.Policy)}
	}
	return nil
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Panel: PanelConfig{
			Path: "data/panel_close.csv",
		},
		Account: AccountConfig{
			InitialCash: 1000.0,
		},
		Costs: CostsConfig{
			FeeBps:        5.0,
			SlippageBps:   2.0,
			FixedPerTrade: 0.0,
		},
		Strategy: StrategyConfig{
			Policy:   PolicyPeriodic,
			Interval: IntervalMonthly,
		},
		Journal: JournalConfig{
			TradesFile: "./trades.csv",
			EquityFile: "./equity.csv",
		},
	}
}
