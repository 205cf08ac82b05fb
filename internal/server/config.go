package server

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// Config is the complete server configuration, loadable from an HCL file.
// A missing file yields the defaults: the builtin table directory and the
// standard timer durations.
type Config struct {
	Server ServerSettings  `hcl:"server,block"`
	Tables []TableSettings `hcl:"table,block"`
}

// ServerSettings contains server-level configuration.
type ServerSettings struct {
	Port                  int    `hcl:"port,optional"`
	ActionTimeoutSeconds  int    `hcl:"action_timeout_seconds,optional"`
	ReconnectGraceSeconds int    `hcl:"reconnect_grace_seconds,optional"`
	NewHandDelaySeconds   int    `hcl:"new_hand_delay_seconds,optional"`
	StreetDelayMs         int    `hcl:"street_delay_ms,optional"`
	StoreURL              string `hcl:"store_url,optional"`
	LogLevel              string `hcl:"log_level,optional"`
}

// TableSettings defines one table in the directory.
type TableSettings struct {
	ID           string `hcl:"id,label"`
	Name         string `hcl:"name,optional"`
	SmallBlind   int    `hcl:"small_blind"`
	BigBlind     int    `hcl:"big_blind"`
	BuyInMin     int    `hcl:"buy_in_min,optional"`
	BuyInMax     int    `hcl:"buy_in_max,optional"`
	BuyInDefault int    `hcl:"buy_in_default,optional"`
	StakeLevel   string `hcl:"stake_level,optional"`
	RakeBps      int    `hcl:"rake_bps,optional"`
	RakeCap      int    `hcl:"rake_cap,optional"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerSettings{
			Port:                  8080,
			ActionTimeoutSeconds:  15,
			ReconnectGraceSeconds: 30,
			NewHandDelaySeconds:   5,
			StreetDelayMs:         1200,
			LogLevel:              "info",
		},
	}
}

// LoadConfig loads configuration from an HCL file, falling back to defaults
// when the file does not exist.
func LoadConfig(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config Config
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	defaults := DefaultConfig().Server
	if config.Server.Port == 0 {
		config.Server.Port = defaults.Port
	}
	if config.Server.ActionTimeoutSeconds == 0 {
		config.Server.ActionTimeoutSeconds = defaults.ActionTimeoutSeconds
	}
	if config.Server.ReconnectGraceSeconds == 0 {
		config.Server.ReconnectGraceSeconds = defaults.ReconnectGraceSeconds
	}
	if config.Server.NewHandDelaySeconds == 0 {
		config.Server.NewHandDelaySeconds = defaults.NewHandDelaySeconds
	}
	if config.Server.StreetDelayMs == 0 {
		config.Server.StreetDelayMs = defaults.StreetDelayMs
	}
	if config.Server.LogLevel == "" {
		config.Server.LogLevel = defaults.LogLevel
	}
	return &config, nil
}

// Validate checks the configuration for contradictions.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	seen := make(map[string]bool)
	for _, table := range c.Tables {
		if seen[table.ID] {
			return fmt.Errorf("table %s: duplicate id", table.ID)
		}
		seen[table.ID] = true
		if table.SmallBlind <= 0 {
			return fmt.Errorf("table %s: small blind must be positive", table.ID)
		}
		if table.BigBlind <= table.SmallBlind {
			return fmt.Errorf("table %s: big blind must be greater than small blind", table.ID)
		}
		if table.BuyInMin != 0 && table.BuyInMax != 0 && table.BuyInMin >= table.BuyInMax {
			return fmt.Errorf("table %s: buy-in minimum must be less than maximum", table.ID)
		}
		if table.RakeBps < 0 || table.RakeBps > 1000 {
			return fmt.Errorf("table %s: rake_bps out of range", table.ID)
		}
	}
	return nil
}

// Directory builds the table directory: configured table blocks, or the
// builtin catalog when none are present.
func (c *Config) Directory() []TableSpec {
	if len(c.Tables) == 0 {
		return BuiltinDirectory()
	}
	specs := make([]TableSpec, 0, len(c.Tables))
	for _, t := range c.Tables {
		specs = append(specs, TableSpec{
			ID:           t.ID,
			Name:         t.Name,
			SmallBlind:   t.SmallBlind,
			BigBlind:     t.BigBlind,
			MinBuyIn:     t.BuyInMin,
			MaxBuyIn:     t.BuyInMax,
			DefaultBuyIn: t.BuyInDefault,
			StakeLevel:   t.StakeLevel,
			RakeBps:      t.RakeBps,
			RakeCap:      t.RakeCap,
		}.withDefaults())
	}
	return specs
}

// ActionTimeout returns the configured action clock duration.
func (c *Config) ActionTimeout() time.Duration {
	return time.Duration(c.Server.ActionTimeoutSeconds) * time.Second
}

// ReconnectGrace returns the disconnect grace period.
func (c *Config) ReconnectGrace() time.Duration {
	return time.Duration(c.Server.ReconnectGraceSeconds) * time.Second
}

// NewHandDelay returns the pause between hands.
func (c *Config) NewHandDelay() time.Duration {
	return time.Duration(c.Server.NewHandDelaySeconds) * time.Second
}

// StreetDelay returns the animation pause between streets.
func (c *Config) StreetDelay() time.Duration {
	return time.Duration(c.Server.StreetDelayMs) * time.Millisecond
}
