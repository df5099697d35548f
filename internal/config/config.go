package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/dshills/forensicq/internal/cache"
	"github.com/dshills/forensicq/internal/classifier"
	"github.com/dshills/forensicq/internal/indexer"
	"github.com/dshills/forensicq/internal/scanner"
	"github.com/dshills/forensicq/internal/searcher"
	"github.com/dshills/forensicq/internal/storage"
)

const (
	// AppName is used for the config file name and the env prefix
	AppName = "forensicq"

	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Config stores all configuration of the application.
// The values are read by viper from a config file or environment variables.
type Config struct {
	DB         DBConfig         `mapstructure:"db"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Index      IndexConfig      `mapstructure:"index"`
	Query      QueryConfig      `mapstructure:"query"`
	HTTP       HTTPConfig       `mapstructure:"http"`
	Log        LogConfig        `mapstructure:"log"`
	Classifier ClassifierConfig `mapstructure:"classifier"`
}

// DBConfig stores the durable store location and pool tuning.
type DBConfig struct {
	Path           string        `mapstructure:"path"`
	PoolSize       int           `mapstructure:"pool_size"`
	AcquireTimeout time.Duration `mapstructure:"acquire_timeout"`
	BusyTimeoutMS  int           `mapstructure:"busy_timeout_ms"`
	CacheSizeKB    int           `mapstructure:"cache_size_kb"`
	MmapSize       int64         `mapstructure:"mmap_size"`
}

// CacheConfig selects and tunes the ephemeral tier.
type CacheConfig struct {
	Backend    string        `mapstructure:"backend"`
	TTL        time.Duration `mapstructure:"ttl"`
	MaxEntries int           `mapstructure:"max_entries"`
	Redis      RedisConfig   `mapstructure:"redis"`
}

// RedisConfig stores redis connection details.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// IndexConfig stores ingestion settings.
type IndexConfig struct {
	BatchSize   int      `mapstructure:"batch_size"`
	Workers     int      `mapstructure:"workers"`
	MaxFileSize int64    `mapstructure:"max_file_size"`
	Extensions  []string `mapstructure:"extensions"`
	Exclude     []string `mapstructure:"exclude"`
}

// QueryConfig stores query limits.
type QueryConfig struct {
	SnippetLength int `mapstructure:"snippet_length"`
	MaxRows       int `mapstructure:"max_rows"`
	CacheFanout   int `mapstructure:"cache_fanout"`
}

// HTTPConfig stores the listen address of the HTTP transport.
type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

// LogConfig stores logger settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // console or json
}

// ClassifierConfig overrides the built-in category rules. An empty rule
// list keeps the defaults.
type ClassifierConfig struct {
	Rules []classifier.Rule `mapstructure:"rules"`
}

// setDefaults registers a default for every key so AutomaticEnv can see it
func setDefaults(v *viper.Viper) {
	v.SetDefault("db.path", "forensic_data.db")
	v.SetDefault("db.pool_size", storage.DefaultPoolSize)
	v.SetDefault("db.acquire_timeout", storage.DefaultAcquireTimeout)
	v.SetDefault("db.busy_timeout_ms", 30000)
	v.SetDefault("db.cache_size_kb", 64000)
	v.SetDefault("db.mmap_size", int64(256<<20))

	v.SetDefault("cache.backend", BackendMemory)
	v.SetDefault("cache.ttl", cache.DefaultTTL)
	v.SetDefault("cache.max_entries", cache.DefaultMaxEntries)
	v.SetDefault("cache.redis.addr", "localhost:6379")
	v.SetDefault("cache.redis.password", "")
	v.SetDefault("cache.redis.db", 0)

	v.SetDefault("index.batch_size", indexer.DefaultBatchSize)
	v.SetDefault("index.workers", 0)
	v.SetDefault("index.max_file_size", int64(scanner.DefaultMaxFileSize))
	v.SetDefault("index.extensions", scanner.DefaultExtensions)
	v.SetDefault("index.exclude", []string{})

	v.SetDefault("query.snippet_length", searcher.DefaultSnippetLength)
	v.SetDefault("query.max_rows", searcher.DefaultMaxRows)
	v.SetDefault("query.cache_fanout", searcher.DefaultCacheFanout)

	v.SetDefault("http.addr", ":8000")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("classifier.rules", []classifier.Rule{})
}

// Default returns the configuration used when no file or environment
// overrides are present
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("config: invalid defaults: %v", err))
	}
	return &cfg
}

// Load reads configuration from configPath, or from forensicq.yaml in the
// working directory or ~/.forensicq when configPath is empty. Environment
// variables prefixed FORENSICQ_ override file values, e.g.
// FORENSICQ_DB_POOL_SIZE for db.pool_size. A missing config file is not an
// error.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, "."+AppName))
		}
		v.SetConfigName(AppName)
		v.SetConfigType("yaml")
	}

	setDefaults(v)

	v.SetEnvPrefix(AppName)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects non-positive sizes, unknown backends and malformed rules
func (c *Config) Validate() error {
	var errs []error
	positive := func(key string, n int64) {
		if n <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %d", key, n))
		}
	}

	if c.DB.Path == "" {
		errs = append(errs, errors.New("db.path is required"))
	}
	positive("db.pool_size", int64(c.DB.PoolSize))
	if c.DB.AcquireTimeout < 0 {
		errs = append(errs, fmt.Errorf("db.acquire_timeout cannot be negative, got %s", c.DB.AcquireTimeout))
	}

	switch c.Cache.Backend {
	case BackendMemory:
		positive("cache.max_entries", int64(c.Cache.MaxEntries))
	case BackendRedis:
		if c.Cache.Redis.Addr == "" {
			errs = append(errs, errors.New("cache.redis.addr is required for the redis backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown cache.backend %q (want %s or %s)", c.Cache.Backend, BackendMemory, BackendRedis))
	}
	positive("cache.ttl", int64(c.Cache.TTL))

	positive("index.batch_size", int64(c.Index.BatchSize))
	if c.Index.Workers < 0 {
		errs = append(errs, fmt.Errorf("index.workers cannot be negative, got %d", c.Index.Workers))
	}
	positive("index.max_file_size", c.Index.MaxFileSize)

	positive("query.snippet_length", int64(c.Query.SnippetLength))
	positive("query.max_rows", int64(c.Query.MaxRows))
	positive("query.cache_fanout", int64(c.Query.CacheFanout))

	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("invalid log.level: %w", err))
	}
	if c.Log.Format != "console" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("unknown log.format %q (want console or json)", c.Log.Format))
	}

	if len(c.Classifier.Rules) > 0 {
		if _, err := classifier.NewClassifier(c.Classifier.Rules); err != nil {
			errs = append(errs, fmt.Errorf("invalid classifier.rules: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

// PoolOptions converts the db section into storage pool options
func (c *Config) PoolOptions(logger zerolog.Logger) storage.PoolOptions {
	return storage.PoolOptions{
		Size:           c.DB.PoolSize,
		AcquireTimeout: c.DB.AcquireTimeout,
		BusyTimeoutMS:  c.DB.BusyTimeoutMS,
		CacheSizeKB:    c.DB.CacheSizeKB,
		MmapSize:       c.DB.MmapSize,
		Logger:         logger,
	}
}

// ScannerOptions converts the index section into filesystem scanner options
func (c *Config) ScannerOptions(logger zerolog.Logger) scanner.Options {
	return scanner.Options{
		Extensions:  c.Index.Extensions,
		MaxFileSize: c.Index.MaxFileSize,
		Exclude:     c.Index.Exclude,
		Logger:      logger,
	}
}

// IndexerConfig converts the index and cache sections into indexer settings
func (c *Config) IndexerConfig() *indexer.Config {
	return &indexer.Config{
		BatchSize: c.Index.BatchSize,
		Workers:   c.Index.Workers,
		CacheTTL:  c.Cache.TTL,
	}
}

// SearcherConfig converts the query section into searcher settings
func (c *Config) SearcherConfig() *searcher.Config {
	return &searcher.Config{
		SnippetLength: c.Query.SnippetLength,
		MaxRows:       c.Query.MaxRows,
		CacheFanout:   c.Query.CacheFanout,
	}
}

// BuildClassifier returns the configured content classifier
func (c *Config) BuildClassifier() (*classifier.Classifier, error) {
	if len(c.Classifier.Rules) == 0 {
		return classifier.Default(), nil
	}
	return classifier.NewClassifier(c.Classifier.Rules)
}

// NewLogger builds the root logger writing to w
func (c LogConfig) NewLogger(w io.Writer) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(c.Level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", c.Level, err)
	}
	if c.Format == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger(), nil
}
