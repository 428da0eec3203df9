package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete tracker configuration
type Config struct {
	Account   AccountConfig   `json:"account" yaml:"account"`
	Whale     WhaleConfig     `json:"whale" yaml:"whale"`
	Copy      CopyConfig      `json:"copy" yaml:"copy"`
	Consensus ConsensusConfig `json:"consensus" yaml:"consensus"`
	Stream    StreamConfig    `json:"stream" yaml:"stream"`
	Pipeline  PipelineConfig  `json:"pipeline" yaml:"pipeline"`
	Journal   JournalConfig   `json:"journal" yaml:"journal"`
}

// AccountConfig contains simulated account initialization parameters
type AccountConfig struct {
	Balance float64 `json:"balance" yaml:"balance"`
}

// WhaleConfig contains classification and wallet-quality parameters
type WhaleConfig struct {
	MinTradeUSD       float64 `json:"min_trade_usd" yaml:"min_trade_usd"`
	MinWinRate        float64 `json:"min_win_rate" yaml:"min_win_rate"`
	MinResolvedTrades int     `json:"min_resolved_trades" yaml:"min_resolved_trades"`
}

// CopyConfig contains copy-sizing parameters
type CopyConfig struct {
	Enabled         bool    `json:"enabled" yaml:"enabled"`
	CopyPercent     float64 `json:"copy_percent" yaml:"copy_percent"`
	MaxCopyNotional float64 `json:"max_copy_notional" yaml:"max_copy_notional"`
}

// EstimatorConfig describes one consensus backend
type EstimatorConfig struct {
	Label  string `json:"label" yaml:"label"`
	URL    string `json:"url" yaml:"url"`
	Model  string `json:"model" yaml:"model"`
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	// APIKeyEnv names an environment variable to read the key from,
	// preferred over embedding it in the file.
	APIKeyEnv string `json:"api_key_env,omitempty" yaml:"api_key_env,omitempty"`
}

// ConsensusConfig contains the multi-model gate parameters
type ConsensusConfig struct {
	Estimators         []EstimatorConfig `json:"estimators" yaml:"estimators"`
	Quorum             int               `json:"quorum,omitempty" yaml:"quorum,omitempty"`
	Tolerance          float64           `json:"tolerance,omitempty" yaml:"tolerance,omitempty"`
	AgreementThreshold float64           `json:"agreement_threshold" yaml:"agreement_threshold"`
	EdgeMargin         float64           `json:"edge_margin" yaml:"edge_margin"`
	BackendTimeout     string            `json:"backend_timeout,omitempty" yaml:"backend_timeout,omitempty"`
	OverallTimeout     string            `json:"overall_timeout,omitempty" yaml:"overall_timeout,omitempty"`
}

// ParseBackendTimeout converts the backend timeout string to time.Duration
func (c ConsensusConfig) ParseBackendTimeout() (time.Duration, error) {
	if c.BackendTimeout == "" {
		return 0, nil
	}
	return time.ParseDuration(c.BackendTimeout)
}

// ParseOverallTimeout converts the overall timeout string to time.Duration
func (c ConsensusConfig) ParseOverallTimeout() (time.Duration, error) {
	if c.OverallTimeout == "" {
		return 0, nil
	}
	return time.ParseDuration(c.OverallTimeout)
}

// StreamConfig selects the event source
type StreamConfig struct {
	Type string `json:"type" yaml:"type"` // "websocket" or "csv"
	URL  string `json:"url,omitempty" yaml:"url,omitempty"`
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
}

// PipelineConfig contains scheduling parameters
type PipelineConfig struct {
	QueueSize      int    `json:"queue_size,omitempty" yaml:"queue_size,omitempty"`
	Workers        int    `json:"workers,omitempty" yaml:"workers,omitempty"`
	StatusInterval string `json:"status_interval,omitempty" yaml:"status_interval,omitempty"`
}

// ParseStatusInterval converts the status interval string to time.Duration
func (p PipelineConfig) ParseStatusInterval() (time.Duration, error) {
	if p.StatusInterval == "" {
		return 0, nil
	}
	return time.ParseDuration(p.StatusInterval)
}

// JournalConfig contains persistence parameters
type JournalConfig struct {
	Type   string `json:"type" yaml:"type"` // "csv", "sqlite", or "none"
	Dir    string `json:"dir,omitempty" yaml:"dir,omitempty"`
	DBPath string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

// LoadFromFile loads configuration from a file (JSON or YAML based on content)
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if (len(path) > 5 && path[len(path)-5:] == ".yaml") || (len(path) > 4 && path[len(path)-4:] == ".yml") {
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
	if c.Account.Balance <= 0 {
		return fmt.Errorf("account.balance must be positive")
	}
	if c.Whale.MinTradeUSD <= 0 {
		return fmt.Errorf("whale.min_trade_usd must be positive")
	}
	if c.Whale.MinWinRate < 0 || c.Whale.MinWinRate > 1 {
		return fmt.Errorf("whale.min_win_rate must be between 0 and 1")
	}
	if c.Whale.MinResolvedTrades < 0 {
		return fmt.Errorf("whale.min_resolved_trades must not be negative")
	}
	if c.Copy.CopyPercent <= 0 || c.Copy.CopyPercent > 1 {
		return fmt.Errorf("copy.copy_percent must be between 0 and 1")
	}
	if c.Copy.MaxCopyNotional <= 0 {
		return fmt.Errorf("copy.max_copy_notional must be positive")
	}
	if c.Consensus.AgreementThreshold <= 0 || c.Consensus.AgreementThreshold > 1 {
		return fmt.Errorf("consensus.agreement_threshold must be between 0 and 1")
	}
	if c.Consensus.EdgeMargin <= 0 || c.Consensus.EdgeMargin >= 1 {
		return fmt.Errorf("consensus.edge_margin must be between 0 and 1")
	}
	if c.Consensus.Quorum < 0 {
		return fmt.Errorf("consensus.quorum must not be negative")
	}
	if c.Consensus.Quorum > len(c.Consensus.Estimators) {
		return fmt.Errorf("consensus.quorum %d exceeds %d configured estimators",
			c.Consensus.Quorum, len(c.Consensus.Estimators))
	}
	if _, err := c.Consensus.ParseBackendTimeout(); err != nil {
		return fmt.Errorf("consensus.backend_timeout: %w", err)
	}
	if _, err := c.Consensus.ParseOverallTimeout(); err != nil {
		return fmt.Errorf("consensus.overall_timeout: %w", err)
	}
	for i, est := range c.Consensus.Estimators {
		if est.Label == "" {
			return fmt.Errorf("consensus.estimators[%d].label is required", i)
		}
		if est.URL == "" {
			return fmt.Errorf("consensus.estimators[%d].url is required", i)
		}
	}
	switch c.Stream.Type {
	case "websocket":
		if c.Stream.URL == "" {
			return fmt.Errorf("stream.url required for websocket type")
		}
	case "csv":
		if c.Stream.Path == "" {
			return fmt.Errorf("stream.path required for csv type")
		}
	default:
		return fmt.Errorf("stream.type must be 'websocket' or 'csv'")
	}
	if _, err := c.Pipeline.ParseStatusInterval(); err != nil {
		return fmt.Errorf("pipeline.status_interval: %w", err)
	}
	switch c.Journal.Type {
	case "csv":
		if c.Journal.Dir == "" {
			return fmt.Errorf("journal.dir required for csv type")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal.db_path required for sqlite type")
		}
	case "none":
	default:
		return fmt.Errorf("journal.type must be 'csv', 'sqlite', or 'none'")
	}
	return nil
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Account: AccountConfig{
			Balance: 10000,
		},
		Whale: WhaleConfig{
			MinTradeUSD:       10000,
			MinWinRate:        0.60,
			MinResolvedTrades: 5,
		},
		Copy: CopyConfig{
			Enabled:         false,
			CopyPercent:     0.10,
			MaxCopyNotional: 100,
		},
		Consensus: ConsensusConfig{
			AgreementThreshold: 0.70,
			EdgeMargin:         0.05,
			Tolerance:          0.10,
			BackendTimeout:     "10s",
			OverallTimeout:     "30s",
		},
		Stream: StreamConfig{
			Type: "websocket",
			URL:  "wss://ws-live-data.polymarket.com",
		},
		Pipeline: PipelineConfig{
			QueueSize:      256,
			Workers:        1,
			StatusInterval: "30s",
		},
		Journal: JournalConfig{
			Type: "csv",
			Dir:  "./data",
		},
	}
}
