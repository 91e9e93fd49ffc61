package config

import (
	"fmt"
	"os"

	"stock-watch/src/models"

	"gopkg.in/yaml.v3"
)

// -----------------------------------------------------------------------------

// Config wraps models.MConfig and provides business logic methods
type Config struct {
	*models.MConfig
}

// -----------------------------------------------------------------------------

// NewConfig creates a new MConfig instance from YAML file
func NewConfig(configPath string) (*Config, error) {
	// 1. Read the YAML file content
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", configPath, err)
	}

	// 2. Unmarshal data into the models struct
	var modelConfig models.MConfig
	if err := yaml.Unmarshal(data, &modelConfig); err != nil {
		return nil, fmt.Errorf("failed to parse config from YAML: %w", err)
	}

	config := &Config{MConfig: &modelConfig}
	config.applyDefaults()
	config.applyEnv()

	// 3. Validate the loaded configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// -----------------------------------------------------------------------------

// applyDefaults fills in the freshness/budget policy when the YAML omits it.
// The numbers are the provider free-tier budget and the per-type TTL table.
func (c *Config) applyDefaults() {
	if c.RateLimit.MaxCalls == 0 {
		c.RateLimit.MaxCalls = 5
	}
	if c.RateLimit.WindowSeconds == 0 {
		c.RateLimit.WindowSeconds = 60
	}
	if c.TTL.QuoteSeconds == 0 {
		c.TTL.QuoteSeconds = 60
	}
	if c.TTL.SearchSeconds == 0 {
		c.TTL.SearchSeconds = 3600
	}
	if c.TTL.ChartSeconds == 0 {
		c.TTL.ChartSeconds = 1800
	}
	if c.TTL.OverviewSeconds == 0 {
		c.TTL.OverviewSeconds = 300
	}
	if c.TTL.DurableSeconds == 0 {
		c.TTL.DurableSeconds = 300
	}
	if c.Watchlist.MaxSize == 0 {
		c.Watchlist.MaxSize = 50
	}
	if c.Upstream.RequestTimeout == 0 {
		c.Upstream.RequestTimeout = 10
	}
	if c.Upstream.BaseURL == "" {
		c.Upstream.BaseURL = "https://www.alphavantage.co/query"
	}
	if c.FastStore.Type == "" {
		c.FastStore.Type = "memory"
	}
	if c.Market.RefreshIntervalSeconds == 0 {
		c.Market.RefreshIntervalSeconds = 300
	}
}

// -----------------------------------------------------------------------------

// applyEnv lets the environment override secrets and connection targets.
func (c *Config) applyEnv() {
	if v := os.Getenv("ALPHA_VANTAGE_API_KEY"); v != "" {
		c.Upstream.APIKey = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Storage.DBType = "postgres"
		c.Storage.DBConnectionString = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.FastStore.Type = "redis"
		c.FastStore.RedisAddr = v
	}
}

// -----------------------------------------------------------------------------

// Validate performs basic configuration validation
func (c *Config) Validate() error {
	// Validate App configuration (Flattened)
	if c.Name == "" {
		return fmt.Errorf("application name cannot be empty")
	}

	// Validate Server configuration (Flattened)
	if c.Host == "" {
		return fmt.Errorf("server host cannot be empty")
	}
	if c.Port <= 1024 || c.Port > 65535 {
		return fmt.Errorf("invalid server port number: %d (must be between 1025 and 65535)", c.Port)
	}

	// Validate Storage configuration
	if c.Storage.DBType == "" {
		return fmt.Errorf("database type cannot be empty")
	}
	if c.Storage.DBType == "sqlite" && c.Storage.DBPath == "" {
		return fmt.Errorf("database path cannot be empty for sqlite")
	}
	if c.Storage.DBType == "postgres" && c.Storage.DBConnectionString == "" {
		return fmt.Errorf("connection string cannot be empty for postgres")
	}

	// Validate FastStore configuration
	if c.FastStore.Type != "memory" && c.FastStore.Type != "redis" {
		return fmt.Errorf("unknown fast store type: %s", c.FastStore.Type)
	}
	if c.FastStore.Type == "redis" && c.FastStore.RedisAddr == "" {
		return fmt.Errorf("redis address cannot be empty for redis fast store")
	}

	// Validate Upstream configuration
	if c.Upstream.APIKey == "" {
		return fmt.Errorf("upstream api key cannot be empty")
	}
	if c.Upstream.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be greater than 0")
	}

	// Validate RateLimit configuration
	if c.RateLimit.MaxCalls <= 0 {
		return fmt.Errorf("rate limit budget must be greater than 0")
	}
	if c.RateLimit.WindowSeconds <= 0 {
		return fmt.Errorf("rate limit window must be greater than 0")
	}

	// Validate Watchlist configuration
	if c.Watchlist.MaxSize <= 0 {
		return fmt.Errorf("watchlist max size must be greater than 0")
	}

	return nil
}

// -----------------------------------------------------------------------------

// Save persists the current configuration to the specified YAML file path
func (c *Config) Save(configPath string) error {
	// 1. Marshal the struct to YAML
	data, err := yaml.Marshal(c.MConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	// 2. Write to file (0644 permissions)
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config to file '%s': %w", configPath, err)
	}

	return nil
}
