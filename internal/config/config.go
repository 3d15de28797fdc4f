package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kjstillabower/evapotranspiration-service/internal/models"
	"github.com/kjstillabower/evapotranspiration-service/internal/traffic"
	"github.com/kjstillabower/evapotranspiration-service/internal/validation"
)

// Config holds service configuration loaded from YAML and env.
type Config struct {
	ServerPort string

	RequestTimeout time.Duration

	CacheBackend          string // "in_memory", "memcached" or "none"
	CacheTTL              time.Duration
	CacheMaxEntries       int // in_memory only
	MemcachedAddrs        string
	MemcachedTimeout      time.Duration
	MemcachedMaxIdleConns int

	RateLimitRPS   int
	RateLimitBurst int

	ShutdownTimeout               time.Duration
	ShutdownInFlightTimeout       time.Duration
	ShutdownInFlightCheckInterval time.Duration

	OverloadWindow       time.Duration
	OverloadThresholdPct int

	// Validation selects the range checks applied before evaluation.
	Validation validation.Rules

	// Demo is the record served by /evapotranspiration/demo: the built-in demo with any
	// fields from the demo section applied on top.
	Demo models.Record
}

type fileConfig struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`

	Request struct {
		Timeout string `yaml:"timeout"`
	} `yaml:"request"`

	Cache struct {
		Backend    string `yaml:"backend"`
		TTL        string `yaml:"ttl"`
		MaxEntries int    `yaml:"max_entries"`
		Memcached  struct {
			Addrs        string `yaml:"addrs"`
			Timeout      string `yaml:"timeout"`
			MaxIdleConns int    `yaml:"max_idle_conns"`
		} `yaml:"memcached"`
	} `yaml:"cache"`

	Reliability struct {
		RateLimitRPS   int `yaml:"rate_limit_rps"`
		RateLimitBurst int `yaml:"rate_limit_burst"`
	} `yaml:"reliability"`

	Shutdown struct {
		Timeout               string `yaml:"timeout"`
		InFlightTimeout       string `yaml:"in_flight_timeout"`
		InFlightCheckInterval string `yaml:"in_flight_check_interval"`
	} `yaml:"shutdown"`

	Lifecycle struct {
		OverloadWindow       string `yaml:"overload_window"`
		OverloadThresholdPct int    `yaml:"overload_threshold_pct"`
	} `yaml:"lifecycle"`

	Validation struct {
		PhysicalRanges *bool `yaml:"physical_ranges"`
	} `yaml:"validation"`

	Demo map[string]float64 `yaml:"demo"`
}

// Load reads configuration from config/{ENV_NAME}.yaml (default dev) relative to the working
// directory. Call from project root.
func Load() (*Config, error) {
	env := os.Getenv("ENV_NAME")
	if env == "" {
		env = "dev"
	}
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("config: get working directory: %w", err)
	}
	return LoadFile(filepath.Join(cwd, "config", env+".yaml"))
}

// LoadFile reads configuration from path, applies env overrides and defaults, and validates it.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return Parse(data)
}

// Parse builds a Config from YAML bytes, applying env overrides and defaults.
func Parse(data []byte) (*Config, error) {
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	cfg := &Config{}

	cfg.ServerPort = firstNonEmpty(os.Getenv("SERVER_PORT"), fc.Server.Port, "8080")
	cfg.RequestTimeout = parseDuration(fc.Request.Timeout, 2*time.Second)

	cfg.CacheBackend = strings.ToLower(firstNonEmpty(os.Getenv("CACHE_BACKEND"), fc.Cache.Backend, "in_memory"))
	cfg.CacheTTL = parseDuration(fc.Cache.TTL, 10*time.Minute)
	cfg.CacheMaxEntries = fc.Cache.MaxEntries
	if cfg.CacheMaxEntries <= 0 {
		cfg.CacheMaxEntries = 10000
	}
	cfg.MemcachedAddrs = firstNonEmpty(os.Getenv("MEMCACHED_ADDRS"), fc.Cache.Memcached.Addrs, "localhost:11211")
	cfg.MemcachedTimeout = parseDuration(fc.Cache.Memcached.Timeout, 500*time.Millisecond)
	cfg.MemcachedMaxIdleConns = fc.Cache.Memcached.MaxIdleConns
	if cfg.MemcachedMaxIdleConns <= 0 {
		cfg.MemcachedMaxIdleConns = 2
	}

	cfg.RateLimitRPS = fc.Reliability.RateLimitRPS
	if cfg.RateLimitRPS <= 0 {
		cfg.RateLimitRPS = 100
	}
	cfg.RateLimitBurst = fc.Reliability.RateLimitBurst
	if cfg.RateLimitBurst <= 0 {
		cfg.RateLimitBurst = 250
	}

	cfg.ShutdownTimeout = parseDuration(fc.Shutdown.Timeout, 30*time.Second)
	cfg.ShutdownInFlightTimeout = parseDuration(fc.Shutdown.InFlightTimeout, 10*time.Second)
	cfg.ShutdownInFlightCheckInterval = parseDuration(fc.Shutdown.InFlightCheckInterval, 100*time.Millisecond)

	cfg.OverloadWindow = parseDuration(fc.Lifecycle.OverloadWindow, 60*time.Second)
	cfg.OverloadThresholdPct = fc.Lifecycle.OverloadThresholdPct
	if cfg.OverloadThresholdPct <= 0 {
		cfg.OverloadThresholdPct = 80
	}

	if fc.Validation.PhysicalRanges != nil {
		cfg.Validation.PhysicalRanges = *fc.Validation.PhysicalRanges
	}
	if v := strings.TrimSpace(os.Getenv("VALIDATION_PHYSICAL_RANGES")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("VALIDATION_PHYSICAL_RANGES: %w", err)
		}
		cfg.Validation.PhysicalRanges = b
	}

	demo, err := demoRecord(fc.Demo, cfg.Validation)
	if err != nil {
		return nil, err
	}
	cfg.Demo = demo

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// demoRecord applies overrides on top of the built-in demo and validates the result under rules.
func demoRecord(overrides map[string]float64, rules validation.Rules) (models.Record, error) {
	override, err := validation.InputFromMap(overrides)
	if err != nil {
		return models.Record{}, fmt.Errorf("demo: %w", err)
	}
	merged := models.InputFromRecord(models.DemoRecord()).Merge(override)
	r, err := validation.ValidateInput(merged, rules)
	if err != nil {
		return models.Record{}, fmt.Errorf("demo: %w", err)
	}
	return r, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// parseDuration parses a duration string and returns defaultVal if parsing fails or result is <= 0.
func parseDuration(s string, defaultVal time.Duration) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}

// validate performs post-load validation of configuration values.
func validate(cfg *Config) error {
	switch cfg.CacheBackend {
	case "in_memory", "memcached", "none":
		// valid
	default:
		return fmt.Errorf("cache.backend must be in_memory, memcached or none, got %q", cfg.CacheBackend)
	}
	if _, err := strconv.Atoi(cfg.ServerPort); err != nil {
		return fmt.Errorf("server.port must be numeric, got %q", cfg.ServerPort)
	}
	if cfg.OverloadWindow > traffic.Retention {
		return fmt.Errorf("lifecycle.overload_window must be <= %v, got %v", traffic.Retention, cfg.OverloadWindow)
	}
	if cfg.OverloadThresholdPct > 100 {
		return fmt.Errorf("lifecycle.overload_threshold_pct must be <= 100, got %d", cfg.OverloadThresholdPct)
	}
	return nil
}
