package models

// MConfig Structure
type MConfig struct {
	Name      string           `yaml:"name"`
	Host      string           `yaml:"host"`
	Port      int              `yaml:"port"`
	LogLevel  string           `yaml:"log_level"`
	Storage   MStorageConfig   `yaml:"storage"`
	FastStore MFastStoreConfig `yaml:"fast_store"`
	Upstream  MUpstreamConfig  `yaml:"upstream"`
	RateLimit MRateLimitConfig `yaml:"rate_limit"`
	TTL       MTTLConfig       `yaml:"ttl"`
	Market    MMarketConfig    `yaml:"market"`
	Watchlist MWatchlistConfig `yaml:"watchlist"`
}

type MStorageConfig struct {
	DBType             string `yaml:"db_type"` // "sqlite" or "postgres"
	DBPath             string `yaml:"db_path"`
	DBConnectionString string `yaml:"db_connection_string"`
}

type MFastStoreConfig struct {
	Type      string `yaml:"type"` // "memory" or "redis"
	RedisAddr string `yaml:"redis_addr"`
	RedisDB   int    `yaml:"redis_db"`
}

type MUpstreamConfig struct {
	BaseURL        string `yaml:"base_url"`
	APIKey         string `yaml:"api_key"`
	RequestTimeout int    `yaml:"timeout"` // seconds
	UserAgent      string `yaml:"user_agent"`
}

type MRateLimitConfig struct {
	MaxCalls      int `yaml:"max_calls"`
	WindowSeconds int `yaml:"window_seconds"`
}

// MTTLConfig holds freshness bounds in seconds, per request type.
// DurableSeconds is the relaxed bound under which a durable row may be
// served without contacting the upstream at all.
type MTTLConfig struct {
	QuoteSeconds    int `yaml:"quote_seconds"`
	SearchSeconds   int `yaml:"search_seconds"`
	ChartSeconds    int `yaml:"chart_seconds"`
	OverviewSeconds int `yaml:"overview_seconds"`
	DurableSeconds  int `yaml:"durable_seconds"`
}

type MMarketConfig struct {
	PopularSymbols         []string `yaml:"popular_symbols"`
	RefreshIntervalSeconds int      `yaml:"refresh_interval_seconds"`
}

type MWatchlistConfig struct {
	MaxSize int `yaml:"max_size"`
}
