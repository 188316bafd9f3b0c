package client

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// EnvServer overrides the configured service URL when set.
const EnvServer = "HOLDEM_SERVER"

// Config is the complete client configuration, loaded from an HCL file
// with defaults applied for anything omitted.
type Config struct {
	Server ServerSettings `hcl:"server,block"`
	Table  TableSettings  `hcl:"table,block"`
	UI     UISettings     `hcl:"ui,block"`
}

// ServerSettings contains dealing-service connection settings.
type ServerSettings struct {
	URL            string `hcl:"url"`
	RequestTimeout int    `hcl:"request_timeout,optional"`
}

// TableSettings pre-fills the setup form.
type TableSettings struct {
	Players    []string `hcl:"players,optional"`
	SmallBlind float64  `hcl:"small_blind,optional"`
	BigBlind   float64  `hcl:"big_blind,optional"`
}

// UISettings contains presentation settings.
type UISettings struct {
	LogLevel     string `hcl:"log_level,optional"`
	LogFile      string `hcl:"log_file,optional"`
	PollInterval int    `hcl:"poll_interval,optional"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerSettings{
			URL:            "http://localhost:8000",
			RequestTimeout: 10,
		},
		Table: TableSettings{
			SmallBlind: 0.5,
			BigBlind:   1.0,
		},
		UI: UISettings{
			LogLevel:     "info",
			LogFile:      "holdem-console.log",
			PollInterval: 2,
		},
	}
}

// LoadConfig loads configuration from an HCL file, falling back to
// defaults when the file does not exist.
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

	defaults := DefaultConfig()

	if config.Server.URL == "" {
		config.Server.URL = defaults.Server.URL
	}
	if config.Server.RequestTimeout == 0 {
		config.Server.RequestTimeout = defaults.Server.RequestTimeout
	}
	if config.Table.SmallBlind == 0 {
		config.Table.SmallBlind = defaults.Table.SmallBlind
	}
	if config.Table.BigBlind == 0 {
		config.Table.BigBlind = defaults.Table.BigBlind
	}
	if config.UI.LogLevel == "" {
		config.UI.LogLevel = defaults.UI.LogLevel
	}
	if config.UI.LogFile == "" {
		config.UI.LogFile = defaults.UI.LogFile
	}
	if config.UI.PollInterval == 0 {
		config.UI.PollInterval = defaults.UI.PollInterval
	}

	return &config, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.URL == "" {
		return fmt.Errorf("server URL is required")
	}

	if c.Server.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive")
	}

	if c.UI.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.UI.LogLevel] {
		return fmt.Errorf("invalid log level: %s", c.UI.LogLevel)
	}

	return nil
}
