package config

import (
	"fmt"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	App        AppConfig        `yaml:"app"`
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Cache      CacheConfig      `yaml:"cache"`
	Agent      AgentConfig      `yaml:"agent"`
	Analytics  AnalyticsConfig  `yaml:"analytics"`
	Coupons    CouponsConfig    `yaml:"coupons"`
	Push       PushConfig       `yaml:"push"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
	Log        LogConfig        `yaml:"log"`
}

// AppConfig holds panel-wide settings written by `environment setup`.
type AppConfig struct {
	URL           string `yaml:"url"`
	Timezone      string `yaml:"timezone"`
	ServiceAuthor string `yaml:"service_author"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RequestIPHeader string  `yaml:"request_ip_header"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	Driver                 string `yaml:"driver"` // postgres or sqlite
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
	LogQueries             bool   `yaml:"log_queries"`
}

// CacheConfig selects the response cache backend.
type CacheConfig struct {
	Driver        string `yaml:"driver"` // memory, redis or memcached
	RedisHost     string `yaml:"redis_host"`
	RedisPort     int    `yaml:"redis_port"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	MemcachedAddr string `yaml:"memcached_addr"`
}

// RedisAddr returns host:port for the configured redis server.
func (c CacheConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// AgentConfig controls how the panel talks to Node Agents.
type AgentConfig struct {
	TimeoutSeconds int           `yaml:"timeout_seconds"`
	Timeout        time.Duration `yaml:"-"`
	HTTPProxy      string        `yaml:"http_proxy"`
}

// AnalyticsConfig holds the analytics collector configuration.
type AnalyticsConfig struct {
	Enabled         *bool         `yaml:"enabled"`
	Schedule        string        `yaml:"schedule"`
	IntervalSeconds int           `yaml:"interval_seconds"`
	Interval        time.Duration `yaml:"-"`
	MaxEntries      int           `yaml:"max_entries"`
	AlertThreshold  float64       `yaml:"alert_threshold"`
}

// IsEnabled reports whether the collector should run. Unset means on.
func (c AnalyticsConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// CouponsConfig holds the coupon expiry job configuration.
type CouponsConfig struct {
	Enabled  *bool  `yaml:"enabled"`
	Schedule string `yaml:"schedule"`
}

// IsEnabled reports whether the expiry job should run. Unset means on.
func (c CouponsConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// Bool returns a pointer to v, for the optional toggles above.
func Bool(v bool) *bool {
	return &v
}

// PushConfig holds the VAPID keys for web push notifications.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// Enabled reports whether both VAPID keys are present.
func (p PushConfig) Enabled() bool {
	return p.PublicKey != "" && p.PrivateKey != ""
}

// WorkerPoolConfig holds the size of the collector and notification pools.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text or json
}

// Load reads the configuration from the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	cfg.ApplyDefaults()
	return &cfg, nil
}

// ApplyDefaults fills every unset field with its default value.
func (cfg *Config) ApplyDefaults() {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 60
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "postgres"
	}

	if cfg.Cache.Driver == "" {
		cfg.Cache.Driver = "memory"
	}
	if cfg.Cache.RedisHost == "" {
		cfg.Cache.RedisHost = "127.0.0.1"
	}
	if cfg.Cache.RedisPort <= 0 {
		cfg.Cache.RedisPort = 6379
	}

	if cfg.Agent.TimeoutSeconds <= 0 {
		cfg.Agent.TimeoutSeconds = 30
	}
	cfg.Agent.Timeout = time.Duration(cfg.Agent.TimeoutSeconds) * time.Second

	if cfg.Analytics.Enabled == nil {
		cfg.Analytics.Enabled = Bool(true)
	}
	if cfg.Analytics.Schedule == "" {
		cfg.Analytics.Schedule = "*/15 * * * *"
	}
	if cfg.Analytics.IntervalSeconds <= 0 {
		cfg.Analytics.IntervalSeconds = 900
	}
	cfg.Analytics.Interval = time.Duration(cfg.Analytics.IntervalSeconds) * time.Second
	if cfg.Analytics.MaxEntries <= 0 {
		cfg.Analytics.MaxEntries = 12
	}
	if cfg.Analytics.AlertThreshold <= 0 {
		cfg.Analytics.AlertThreshold = 95
	}

	if cfg.Coupons.Enabled == nil {
		cfg.Coupons.Enabled = Bool(true)
	}
	if cfg.Coupons.Schedule == "" {
		cfg.Coupons.Schedule = "* * * * *"
	}

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}

	if cfg.WorkerPool.Size <= 0 {
		log.Warn("worker_pool.size is not set or invalid; defaulting to 1")
		cfg.WorkerPool.Size = 1
	}

	if cfg.App.Timezone == "" {
		cfg.App.Timezone = "UTC"
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}

// Save writes the configuration back to path as YAML.
func Save(path string, cfg *Config) error {
	out, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}
	if err := os.WriteFile(path, out, 0o600); err != nil {
		return fmt.Errorf("failed to write configuration to %s: %w", path, err)
	}
	return nil
}
