package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the complete harness configuration. There is no ambient
// state: the loaded value is passed explicitly into the engine and
// runner at construction.
type Config struct {
	Account   AccountConfig   `json:"account" yaml:"account"`
	Rules     RulesConfig     `json:"rules" yaml:"rules"`
	Strategy  StrategyConfig  `json:"strategy" yaml:"strategy"`
	Analytics AnalyticsConfig `json:"analytics" yaml:"analytics"`
	Data      DataConfig      `json:"data" yaml:"data"`
	Journal   JournalConfig   `json:"journal" yaml:"journal"`
	LogLevel  string          `json:"log_level" yaml:"log_level"`
}

// AccountConfig seeds the simulated account.
type AccountConfig struct {
	StartingCash float64 `json:"starting_cash" yaml:"starting_cash"`
}

// RulesConfig parameterizes the rule-enforcement layer.
type RulesConfig struct {
	Commission      float64 `json:"commission" yaml:"commission"`
	SlippageMult    float64 `json:"slippage_mult" yaml:"slippage_mult"`
	GapThreshold    float64 `json:"gap_threshold" yaml:"gap_threshold"`
	BankruptcyFloor float64 `json:"bankruptcy_floor" yaml:"bankruptcy_floor"`
	EndPolicy       string  `json:"end_policy" yaml:"end_policy"` // "liquidate" or "hold"
}

// StrategyConfig selects and parameterizes the strategy.
type StrategyConfig struct {
	Name           string  `json:"name" yaml:"name"`
	Instrument     string  `json:"instrument,omitempty" yaml:"instrument,omitempty"`
	Size           float64 `json:"size" yaml:"size"`
	Fast           int     `json:"fast,omitempty" yaml:"fast,omitempty"`
	Slow           int     `json:"slow,omitempty" yaml:"slow,omitempty"`
	SpreadPct      float64 `json:"spread_pct,omitempty" yaml:"spread_pct,omitempty"`
	InventoryLimit float64 `json:"inventory_limit,omitempty" yaml:"inventory_limit,omitempty"`
}

// AnalyticsConfig parameterizes post-run statistics.
type AnalyticsConfig struct {
	AnnualizationFactor float64 `json:"annualization_factor" yaml:"annualization_factor"`
}

// DataConfig locates the dataset: a directory of per-instrument CSVs, or
// a zip archive of the same extracted before loading.
type DataConfig struct {
	Dir     string `json:"dir,omitempty" yaml:"dir,omitempty"`
	Archive string `json:"archive,omitempty" yaml:"archive,omitempty"`
}

// JournalConfig selects fill/equity persistence.
type JournalConfig struct {
	Type       string `json:"type" yaml:"type"` // "sqlite", "csv" or "none"
	DBPath     string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
	FillsFile  string `json:"fills_file,omitempty" yaml:"fills_file,omitempty"`
	EquityFile string `json:"equity_file,omitempty" yaml:"equity_file,omitempty"`
}

// LoadFromFile loads configuration from a file, trying YAML first and
// falling back to JSON, then validates it.
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

// SaveToFile writes the configuration, as YAML for .yaml/.yml paths and
// JSON otherwise.
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

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	if c.Account.StartingCash <= 0 {
		return fmt.Errorf("account.starting_cash must be positive")
	}
	if c.Rules.Commission < 0 {
		return fmt.Errorf("rules.commission must be non-negative")
	}
	if c.Rules.SlippageMult < 0 {
		return fmt.Errorf("rules.slippage_mult must be non-negative")
	}
	if c.Rules.GapThreshold < 0 {
		return fmt.Errorf("rules.gap_threshold must be non-negative")
	}
	if c.Rules.EndPolicy != "liquidate" && c.Rules.EndPolicy != "hold" {
		return fmt.Errorf("rules.end_policy must be 'liquidate' or 'hold'")
	}
	if c.Strategy.Name == "" {
		return fmt.Errorf("strategy.name is required")
	}
	if c.Analytics.AnnualizationFactor <= 0 {
		return fmt.Errorf("analytics.annualization_factor must be positive")
	}
	if c.Data.Dir == "" && c.Data.Archive == "" {
		return fmt.Errorf("data.dir or data.archive is required")
	}
	switch c.Journal.Type {
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal.db_path required for sqlite journal")
		}
	case "csv":
		if c.Journal.FillsFile == "" || c.Journal.EquityFile == "" {
			return fmt.Errorf("journal fills_file and equity_file required for csv journal")
		}
	case "none":
	default:
		return fmt.Errorf("journal.type must be 'sqlite', 'csv' or 'none'")
	}
	return nil
}

// Default returns a configuration with the harness's baseline settings.
func Default() *Config {
	return &Config{
		Account: AccountConfig{
			StartingCash: 1_000_000,
		},
		Rules: RulesConfig{
			Commission:      0,
			SlippageMult:    0.2,
			GapThreshold:    0,
			BankruptcyFloor: 0,
			EndPolicy:       "liquidate",
		},
		Strategy: StrategyConfig{
			Name: "buy-and-hold",
			Size: 1,
		},
		Analytics: AnalyticsConfig{
			AnnualizationFactor: 252,
		},
		Data: DataConfig{
			Dir: "./data",
		},
		Journal: JournalConfig{
			Type:   "sqlite",
			DBPath: "./harness.sqlite",
		},
		LogLevel: "info",
	}
}
