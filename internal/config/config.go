package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"

	"github.com/ps-vitor/car-comparator/internal/scraping/sources"
)

const DefaultPath = "configs/app.yaml"

type Config struct {
	App       AppConfig       `yaml:"app"`
	Scraping  ScrapingConfig  `yaml:"scraping"`
	Cache     CacheConfig     `yaml:"cache"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Redis     RedisConfig     `yaml:"redis"`
	Database  DatabaseConfig  `yaml:"database"`
	Kafka     KafkaConfig     `yaml:"kafka"`
}

type AppConfig struct {
	Name            string        `yaml:"name"`
	Env             string        `yaml:"env"`
	Debug           bool          `yaml:"debug"`
	Port            int           `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type ScrapingConfig struct {
	UserAgent      string                      `yaml:"user_agent"`
	Timeout        time.Duration               `yaml:"timeout"`
	ConnectTimeout time.Duration               `yaml:"connect_timeout"`
	VerifyTLS      bool                        `yaml:"verify_tls"`
	Workers        int                         `yaml:"workers"`
	Sources        map[string]sources.Override `yaml:"sources"`
}

type CacheConfig struct {
	Enabled         bool          `yaml:"enabled"`
	Backend         string        `yaml:"backend"`
	TTL             time.Duration `yaml:"ttl"`
	CacheFailures   bool          `yaml:"cache_failures"`
	FailureTTL      time.Duration `yaml:"failure_ttl"`
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
}

type RateLimitConfig struct {
	PerMinute   int    `yaml:"per_minute"`
	Backend     string `yaml:"backend"`
	CountDenied bool   `yaml:"count_denied"`
}

type TelemetryConfig struct {
	// Sinks is any of log, postgres, kafka.
	Sinks           []string `yaml:"sinks"`
	RecordCacheHits bool     `yaml:"record_cache_hits"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type DatabaseConfig struct {
	DSN         string `yaml:"dsn"`
	MaxConns    int    `yaml:"max_conns"`
	AutoMigrate bool   `yaml:"auto_migrate"`
}

type KafkaConfig struct {
	Broker string `yaml:"broker"`
	Topic  string `yaml:"topic"`
}

// Default is a self-contained setup: memory backends, log telemetry.
func Default() *Config {
	return &Config{
		App: AppConfig{
			Name:            "car-comparator",
			Env:             "development",
			Port:            8080,
			ShutdownTimeout: 10 * time.Second,
		},
		Scraping: ScrapingConfig{
			Timeout:        30 * time.Second,
			ConnectTimeout: 10 * time.Second,
			Workers:        4,
		},
		Cache: CacheConfig{
			Enabled:         true,
			Backend:         "memory",
			TTL:             30 * time.Minute,
			FailureTTL:      2 * time.Minute,
			CleanupInterval: 5 * time.Minute,
		},
		RateLimit: RateLimitConfig{
			PerMinute: 60,
			Backend:   "memory",
		},
		Telemetry: TelemetryConfig{
			Sinks: []string{"log"},
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Database: DatabaseConfig{
			MaxConns:    4,
			AutoMigrate: true,
		},
		Kafka: KafkaConfig{
			Broker: "localhost:9092",
			Topic:  "carsearch.search.history",
		},
	}
}

// LoadConfig builds the configuration from defaults, the YAML file, .env and
// the process environment, in increasing precedence. An empty path means
// $CARSEARCH_CONFIG, then DefaultPath; only an explicitly named file must exist.
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	explicit := path != ""
	if !explicit {
		path = os.Getenv("CARSEARCH_CONFIG")
		explicit = path != ""
	}
	if path == "" {
		path = DefaultPath
	}

	yamlFile, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(yamlFile, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PORT: %w", err)
		}
		c.App.Port = port
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("PG_DSN"); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv("KAFKA_BROKER"); v != "" {
		c.Kafka.Broker = v
	}
	if v := os.Getenv("CACHE_ENABLED"); v != "" {
		on, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("CACHE_ENABLED: %w", err)
		}
		c.Cache.Enabled = on
	}
	if v := os.Getenv("CACHE_BACKEND"); v != "" {
		c.Cache.Backend = v
	}
	if v := os.Getenv("RATE_LIMIT_PER_MINUTE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("RATE_LIMIT_PER_MINUTE: %w", err)
		}
		c.RateLimit.PerMinute = n
	}
	if v := os.Getenv("RATE_LIMIT_BACKEND"); v != "" {
		c.RateLimit.Backend = v
	}
	return nil
}

// Validate rejects settings the service cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.App.Port <= 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("app.port %d out of range", c.App.Port))
	}
	if c.Cache.Backend != "memory" && c.Cache.Backend != "redis" {
		errs = append(errs, fmt.Errorf("cache.backend %q: want memory or redis", c.Cache.Backend))
	}
	if c.Cache.TTL <= 0 {
		errs = append(errs, errors.New("cache.ttl must be positive"))
	}
	if c.RateLimit.Backend != "memory" && c.RateLimit.Backend != "redis" {
		errs = append(errs, fmt.Errorf("rate_limit.backend %q: want memory or redis", c.RateLimit.Backend))
	}
	if c.RateLimit.PerMinute <= 0 {
		errs = append(errs, fmt.Errorf("rate_limit.per_minute must be positive, got %d", c.RateLimit.PerMinute))
	}
	if c.Scraping.Workers <= 0 {
		errs = append(errs, fmt.Errorf("scraping.workers must be positive, got %d", c.Scraping.Workers))
	}
	for _, s := range c.Telemetry.Sinks {
		switch s {
		case "log":
		case "postgres":
			if c.Database.DSN == "" {
				errs = append(errs, errors.New("telemetry sink postgres needs database.dsn or PG_DSN"))
			}
		case "kafka":
			if c.Kafka.Broker == "" {
				errs = append(errs, errors.New("telemetry sink kafka needs kafka.broker"))
			}
		default:
			errs = append(errs, fmt.Errorf("telemetry sink %q unknown", s))
		}
	}
	return errors.Join(errs...)
}

// UsesRedis reports whether any component needs the Redis client.
func (c *Config) UsesRedis() bool {
	return (c.Cache.Enabled && c.Cache.Backend == "redis") || c.RateLimit.Backend == "redis"
}

// HasSink reports whether the named telemetry sink is configured.
func (c *Config) HasSink(name string) bool {
	for _, s := range c.Telemetry.Sinks {
		if s == name {
			return true
		}
	}
	return false
}
