// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Host        string        `yaml:"host"`
	Port        int           `yaml:"port"`
	DBPath      string        `yaml:"db_path"`
	CatalogPath string        `yaml:"catalog_path"`
	LogLevel    string        `yaml:"log_level"`
	Gateway     GatewayConfig `yaml:"gateway"`
}

// GatewayConfig points at the MCP proxy that fronts the completion model.
type GatewayConfig struct {
	URL         string `yaml:"url"`
	APIKey      string `yaml:"api_key"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// Load reads path (optional), then applies defaults, environment overrides
// and validation.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config yaml: %w", err)
		}
	}

	applyDefaults(cfg)
	applyEnvironmentOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Path returns DRINK_REC_CONFIG or the empty string.
func Path() string {
	return os.Getenv("DRINK_REC_CONFIG")
}

func applyDefaults(cfg *Config) {
	if cfg.Host == "" {
		cfg.Host = "0.0.0.0"
	}
	if cfg.Port == 0 {
		cfg.Port = 8012
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "/data/drink-rec.db"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.Gateway.URL == "" {
		cfg.Gateway.URL = "http://mcp-compose-http-proxy:9876"
	}
	if cfg.Gateway.APIKey == "" {
		cfg.Gateway.APIKey = "myapikey"
	}
	if cfg.Gateway.Model == "" {
		cfg.Gateway.Model = "anthropic/claude-3.5-sonnet"
	}
	if cfg.Gateway.TimeoutSecs == 0 {
		cfg.Gateway.TimeoutSecs = 60
	}
}

func applyEnvironmentOverrides(cfg *Config) {
	if v := os.Getenv("DRINK_REC_DB"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("DRINK_REC_CATALOG"); v != "" {
		cfg.CatalogPath = v
	}
	if v := os.Getenv("MCP_PROXY_URL"); v != "" {
		cfg.Gateway.URL = v
	}
	if v := os.Getenv("MCP_PROXY_API_KEY"); v != "" {
		cfg.Gateway.APIKey = v
	}
	if v := os.Getenv("OPENROUTER_MODEL"); v != "" {
		cfg.Gateway.Model = v
	}
}

func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be debug, info, warn or error, got %q", c.LogLevel)
	}
	if c.Gateway.TimeoutSecs < 0 {
		return fmt.Errorf("gateway.timeout_secs must not be negative")
	}
	return nil
}
