// Package config loads fred-client settings from YAML and the environment
// and turns them into a ready client.
package config

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"gopkg.in/yaml.v3"

	"github.com/Sternrassler/fred-client/pkg/cache"
	"github.com/Sternrassler/fred-client/pkg/client"
	"github.com/Sternrassler/fred-client/pkg/debugsink"
	"github.com/Sternrassler/fred-client/pkg/logging"
	"github.com/Sternrassler/fred-client/pkg/request"
)

// Environment variables read by ApplyEnv.
const (
	EnvAPIKey    = request.EnvAPIKey // FRED_API_KEY
	EnvCacheDir  = cache.EnvCacheDir // FRED_CACHE
	EnvRedisURL  = "FRED_REDIS_URL"
	EnvLookup    = "FRED_LOOKUP"
	EnvDebugPath = "FRED_DEBUG_PATH"
	EnvLogLevel  = "FRED_LOG_LEVEL"
)

// Config represents the client configuration
type Config struct {
	APIKey    string        `yaml:"api_key"`
	BaseURL   string        `yaml:"base_url"`
	UserAgent string        `yaml:"user_agent"`
	Timeout   string        `yaml:"timeout"`
	Lookup    client.Lookup `yaml:"lookup"`
	Cache     CacheConfig   `yaml:"cache"`

	// DebugPath enables the debug artifact when non-empty.
	DebugPath string    `yaml:"debug_path"`
	Log       LogConfig `yaml:"log"`
}

// CacheConfig selects and configures the response store
type CacheConfig struct {
	Backend string `yaml:"backend"` // "disk", "redis", "minio" or "memory"

	// Dir is the disk store root.
	Dir string `yaml:"dir"`

	// RedisURL takes precedence over the discrete Redis fields.
	RedisURL      string `yaml:"redis_url"`
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	RedisPrefix   string `yaml:"redis_prefix"`

	// TTL expires Redis entries; empty keeps them forever.
	TTL string `yaml:"ttl"`

	Minio cache.MinioConfig `yaml:"minio"`
}

// LogConfig contains logging configuration
type LogConfig struct {
	Level  logging.LogLevel `yaml:"level"`
	Pretty bool             `yaml:"pretty"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		BaseURL:   request.DefaultBaseURL,
		UserAgent: request.DefaultUserAgent,
		Timeout:   "30s",
		Lookup:    client.FredOnCacheMiss,
		Cache: CacheConfig{
			Backend: cache.BackendDisk,
		},
		Log: LogConfig{Level: logging.LevelInfo},
	}
}

// Load loads configuration from a YAML file on top of Default.
func Load(path string) (*Config, error) {
	config := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	return &config, nil
}

// FromEnv builds a validated configuration from defaults and the environment.
func FromEnv() (*Config, error) {
	config := Default()
	if err := config.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// ApplyEnv overrides fields from environment variables found by lookup.
// FRED_REDIS_URL also switches the cache backend to Redis.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvAPIKey); ok {
		c.APIKey = v
	}
	if v, ok := lookup(EnvCacheDir); ok {
		c.Cache.Dir = v
	}
	if v, ok := lookup(EnvRedisURL); ok && v != "" {
		c.Cache.RedisURL = v
		c.Cache.Backend = cache.BackendRedis
	}
	if v, ok := lookup(EnvLookup); ok && v != "" {
		l, err := client.ParseLookup(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvLookup, err)
		}
		c.Lookup = l
	}
	if v, ok := lookup(EnvDebugPath); ok {
		c.DebugPath = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.Log.Level = logging.LogLevel(v)
	}
	return nil
}

// GetTimeout parses and returns the HTTP timeout
func (c *Config) GetTimeout() (time.Duration, error) {
	if c.Timeout == "" {
		return client.DefaultTimeout, nil
	}
	return time.ParseDuration(c.Timeout)
}

// GetCacheTTL parses and returns the Redis entry TTL (zero for none)
func (c *Config) GetCacheTTL() (time.Duration, error) {
	if c.Cache.TTL == "" {
		return 0, nil
	}
	return time.ParseDuration(c.Cache.TTL)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.APIKey == "" && c.Lookup != client.CacheOnly {
		return fmt.Errorf("api key is required unless lookup is %s (set %s)", client.CacheOnly, EnvAPIKey)
	}

	if timeout, err := c.GetTimeout(); err != nil {
		return fmt.Errorf("invalid timeout format: %w", err)
	} else if timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}

	if ttl, err := c.GetCacheTTL(); err != nil {
		return fmt.Errorf("invalid cache TTL format: %w", err)
	} else if ttl < 0 {
		return fmt.Errorf("cache TTL must not be negative, got %s", c.Cache.TTL)
	}

	switch c.Cache.Backend {
	case cache.BackendDisk:
		if c.Cache.Dir == "" {
			return fmt.Errorf("cache dir is required for the disk backend (set %s)", EnvCacheDir)
		}
	case cache.BackendRedis:
		if c.Cache.RedisURL == "" && c.Cache.RedisAddr == "" {
			return fmt.Errorf("redis_url or redis_addr is required for the redis backend")
		}
	case cache.BackendMinio:
		if c.Cache.Minio.Endpoint == "" || c.Cache.Minio.Bucket == "" {
			return fmt.Errorf("minio endpoint and bucket are required for the minio backend")
		}
	case cache.BackendMemory:
	default:
		return fmt.Errorf("cache backend must be one of disk, redis, minio, memory, got: %q", c.Cache.Backend)
	}

	if !c.Log.Level.Valid() {
		return fmt.Errorf("invalid log level: %q", c.Log.Level)
	}

	return nil
}

// Logging returns the logger configuration.
func (c *Config) Logging() logging.Config {
	cfg := logging.DefaultConfig()
	if c.Log.Level != "" {
		cfg.Level = c.Log.Level
	}
	cfg.Pretty = c.Log.Pretty
	return cfg
}

// Builder returns a request builder for the configured endpoint and key.
func (c *Config) Builder() *request.Builder {
	b := request.NewBuilder(c.APIKey)
	if c.BaseURL != "" {
		b.BaseURL = c.BaseURL
	}
	if c.UserAgent != "" {
		b.UserAgent = c.UserAgent
	}
	return b
}

// ClientConfig assembles a client configuration around store.
func (c *Config) ClientConfig(store cache.Store) (client.Config, error) {
	timeout, err := c.GetTimeout()
	if err != nil {
		return client.Config{}, fmt.Errorf("invalid timeout format: %w", err)
	}

	cfg := client.DefaultConfig(store)
	cfg.Builder = c.Builder()
	cfg.Transport = client.NewHTTPTransport(&http.Client{Timeout: timeout})
	if c.DebugPath != "" {
		cfg.Sink = debugsink.NewFileSink(c.DebugPath)
	}
	return cfg, nil
}

// OpenStore connects the configured cache backend. The returned close
// function releases its connections and is never nil.
func OpenStore(ctx context.Context, cfg *Config) (cache.Store, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Cache.Backend {
	case cache.BackendDisk:
		store, err := cache.NewDiskStore(cfg.Cache.Dir)
		if err != nil {
			return nil, noop, err
		}
		return store, noop, nil

	case cache.BackendRedis:
		opts, err := redisOptions(cfg.Cache)
		if err != nil {
			return nil, noop, err
		}
		ttl, err := cfg.GetCacheTTL()
		if err != nil {
			return nil, noop, fmt.Errorf("invalid cache TTL format: %w", err)
		}

		redisClient := redis.NewClient(opts)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			redisClient.Close()
			return nil, noop, fmt.Errorf("connect to redis: %w", err)
		}
		store := cache.NewRedisStore(redisClient, cache.RedisOptions{
			Prefix: cfg.Cache.RedisPrefix,
			TTL:    ttl,
		})
		return store, redisClient.Close, nil

	case cache.BackendMinio:
		store, err := cache.DialMinio(cfg.Cache.Minio)
		if err != nil {
			return nil, noop, err
		}
		return store, noop, nil

	case cache.BackendMemory:
		return cache.NewMemoryStore(), noop, nil

	default:
		return nil, noop, fmt.Errorf("unknown cache backend: %q", cfg.Cache.Backend)
	}
}

// NewClient opens the configured store and builds a client on it. The returned
// close function releases the store.
func NewClient(ctx context.Context, cfg *Config) (*client.Client, func() error, error) {
	store, closeStore, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, closeStore, err
	}

	clientCfg, err := cfg.ClientConfig(store)
	if err != nil {
		closeStore()
		return nil, func() error { return nil }, err
	}

	c, err := client.New(clientCfg)
	if err != nil {
		closeStore()
		return nil, func() error { return nil }, err
	}
	return c, closeStore, nil
}

func redisOptions(c CacheConfig) (*redis.Options, error) {
	if c.RedisURL != "" {
		opts, err := redis.ParseURL(c.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", EnvRedisURL, err)
		}
		return opts, nil
	}
	return &redis.Options{
		Addr:     c.RedisAddr,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
	}, nil
}
