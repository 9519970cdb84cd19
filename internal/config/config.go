package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all configuration for the enrichment service
type Config struct {
	// Server configuration
	HTTPPort int    `env:"VULND_HTTP_PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Backend selects the cache/event-bus implementation
	Backend string `env:"VULND_BACKEND" envDefault:"redis"`

	// Redis configuration
	Redis RedisConfig

	// Upstream vulnerability sources
	NVD  NVDConfig
	KEV  KEVConfig
	EPSS EPSSConfig

	// Enrichment behavior
	Enrich EnrichConfig

	// Timeouts
	Timeouts TimeoutConfig
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	Password string `env:"REDIS_PASS"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`

	// Connection pool settings
	PoolSize     int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	MaxRetries   int           `env:"REDIS_MAX_RETRIES" envDefault:"3"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT" envDefault:"3s"`
}

// NVDConfig holds NVD CVE API client configuration
type NVDConfig struct {
	BaseURL        string        `env:"NVD_BASE_URL" envDefault:"https://services.nvd.nist.gov/rest/json/cves/2.0"`
	APIKey         string        `env:"NVD_API_KEY"`
	RequestTimeout time.Duration `env:"NVD_REQUEST_TIMEOUT" envDefault:"25s"`
	MaxRetries     int           `env:"NVD_MAX_RETRIES" envDefault:"3"`
	InitialBackoff time.Duration `env:"NVD_INITIAL_BACKOFF" envDefault:"2s"`

	// NVD allows 45 requests per rolling 30s window with an API key
	RateLimitRequests float64       `env:"NVD_RATE_LIMIT_REQUESTS" envDefault:"45"`
	RateLimitPeriod   time.Duration `env:"NVD_RATE_LIMIT_PERIOD" envDefault:"30s"`
}

// KEVConfig holds CISA KEV catalog configuration
type KEVConfig struct {
	CatalogURL      string        `env:"KEV_CATALOG_URL" envDefault:"https://www.cisa.gov/sites/default/files/feeds/known_exploited_vulnerabilities.json"`
	RefreshInterval time.Duration `env:"KEV_REFRESH_INTERVAL" envDefault:"12h"`
	RequestTimeout  time.Duration `env:"KEV_REQUEST_TIMEOUT" envDefault:"30s"`
}

// EPSSConfig holds FIRST EPSS API configuration
type EPSSConfig struct {
	BaseURL        string        `env:"EPSS_BASE_URL" envDefault:"https://api.first.org/data/v1/epss"`
	RequestTimeout time.Duration `env:"EPSS_REQUEST_TIMEOUT" envDefault:"15s"`
}

// EnrichConfig holds batch and cache behavior
type EnrichConfig struct {
	// BatchLimit caps how many assets a single request may enrich
	BatchLimit int `env:"ENRICH_BATCH_LIMIT" envDefault:"20"`

	// PacingDelay is the pause after each batch item, respecting the
	// aggregate upstream rate limit of roughly one asset per 6.5s
	PacingDelay time.Duration `env:"ENRICH_PACING_DELAY" envDefault:"6500ms"`

	MaxFindings int           `env:"ENRICH_MAX_FINDINGS" envDefault:"25"`
	CacheTTL    time.Duration `env:"ENRICH_CACHE_TTL" envDefault:"24h"`
}

// TimeoutConfig holds various timeout configurations
type TimeoutConfig struct {
	ShutdownTimeout time.Duration `env:"TIMEOUT_SHUTDOWN" envDefault:"30s"`
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}

	if c.Backend != "redis" && c.Backend != "memory" {
		return fmt.Errorf("invalid backend: %s (must be redis or memory)", c.Backend)
	}

	if c.Backend == "redis" && c.Redis.Addr == "" {
		return fmt.Errorf("redis address is required")
	}

	if c.NVD.BaseURL == "" {
		return fmt.Errorf("NVD base URL is required")
	}
	if c.NVD.RateLimitRequests <= 0 || c.NVD.RateLimitPeriod <= 0 {
		return fmt.Errorf("NVD rate limit must be positive")
	}

	if c.KEV.CatalogURL == "" {
		return fmt.Errorf("KEV catalog URL is required")
	}
	if c.KEV.RefreshInterval < time.Minute {
		return fmt.Errorf("KEV refresh interval too short: %s", c.KEV.RefreshInterval)
	}

	if c.Enrich.BatchLimit < 1 {
		return fmt.Errorf("batch limit must be at least 1")
	}
	if c.Enrich.PacingDelay < 0 {
		return fmt.Errorf("pacing delay must not be negative")
	}
	if c.Enrich.MaxFindings < 1 {
		return fmt.Errorf("max findings must be at least 1")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	return nil
}

// GetHTTPAddr returns the HTTP server address
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}
