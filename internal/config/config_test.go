package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/dshills/forensicq/internal/classifier"
	"github.com/dshills/forensicq/internal/scanner"
)

// ConfigTestSuite tests the config package functionality
type ConfigTestSuite struct {
	suite.Suite
	tempDir string
	origDir string
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

func (suite *ConfigTestSuite) SetupTest() {
	var err error
	suite.origDir, err = os.Getwd()
	require.NoError(suite.T(), err)

	suite.tempDir = suite.T().TempDir()
	suite.T().Setenv("HOME", suite.tempDir)

	require.NoError(suite.T(), os.Chdir(suite.tempDir))
}

func (suite *ConfigTestSuite) TearDownTest() {
	if suite.origDir != "" {
		_ = os.Chdir(suite.origDir)
	}
}

func (suite *ConfigTestSuite) writeFile(path, content string) {
	require.NoError(suite.T(), os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(suite.T(), os.WriteFile(path, []byte(content), 0o644))
}

func (suite *ConfigTestSuite) TestLoadWithDefaults() {
	cfg, err := Load("")
	require.NoError(suite.T(), err)

	assert.Equal(suite.T(), "forensic_data.db", cfg.DB.Path)
	assert.Equal(suite.T(), 10, cfg.DB.PoolSize)
	assert.Equal(suite.T(), 30*time.Second, cfg.DB.AcquireTimeout)
	assert.Equal(suite.T(), 30000, cfg.DB.BusyTimeoutMS)
	assert.Equal(suite.T(), int64(256<<20), cfg.DB.MmapSize)
	assert.Equal(suite.T(), BackendMemory, cfg.Cache.Backend)
	assert.Equal(suite.T(), 30*time.Minute, cfg.Cache.TTL)
	assert.Equal(suite.T(), "localhost:6379", cfg.Cache.Redis.Addr)
	assert.Equal(suite.T(), 500, cfg.Index.BatchSize)
	assert.Equal(suite.T(), scanner.DefaultExtensions, cfg.Index.Extensions)
	assert.Equal(suite.T(), 500, cfg.Query.SnippetLength)
	assert.Equal(suite.T(), 100, cfg.Query.MaxRows)
	assert.Equal(suite.T(), ":8000", cfg.HTTP.Addr)
	assert.Equal(suite.T(), "info", cfg.Log.Level)
	assert.Empty(suite.T(), cfg.Classifier.Rules)

	assert.Equal(suite.T(), Default(), cfg)
}

func (suite *ConfigTestSuite) TestLoadFromWorkingDirectory() {
	suite.writeFile(filepath.Join(suite.tempDir, "forensicq.yaml"), `
db:
  path: /var/lib/forensicq/data.db
  pool_size: 4
  acquire_timeout: 2s
cache:
  backend: redis
  ttl: 5m
  redis:
    addr: redis:6379
    db: 2
index:
  extensions: [".db", ".txt"]
  exclude: ["**/proc/**"]
http:
  addr: 127.0.0.1:9000
`)

	cfg, err := Load("")
	require.NoError(suite.T(), err)

	assert.Equal(suite.T(), "/var/lib/forensicq/data.db", cfg.DB.Path)
	assert.Equal(suite.T(), 4, cfg.DB.PoolSize)
	assert.Equal(suite.T(), 2*time.Second, cfg.DB.AcquireTimeout)
	assert.Equal(suite.T(), BackendRedis, cfg.Cache.Backend)
	assert.Equal(suite.T(), 5*time.Minute, cfg.Cache.TTL)
	assert.Equal(suite.T(), "redis:6379", cfg.Cache.Redis.Addr)
	assert.Equal(suite.T(), 2, cfg.Cache.Redis.DB)
	assert.Equal(suite.T(), []string{".db", ".txt"}, cfg.Index.Extensions)
	assert.Equal(suite.T(), []string{"**/proc/**"}, cfg.Index.Exclude)
	assert.Equal(suite.T(), "127.0.0.1:9000", cfg.HTTP.Addr)

	// untouched keys keep defaults
	assert.Equal(suite.T(), 500, cfg.Index.BatchSize)
}

func (suite *ConfigTestSuite) TestLoadFromHomeDirectory() {
	suite.writeFile(filepath.Join(suite.tempDir, ".forensicq", "forensicq.yaml"), "query:\n  max_rows: 25\n")

	cfg, err := Load("")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 25, cfg.Query.MaxRows)
}

func (suite *ConfigTestSuite) TestLoadExplicitPath() {
	path := filepath.Join(suite.tempDir, "conf", "custom.yaml")
	suite.writeFile(path, `
classifier:
  rules:
    - category: secrets
      keywords: [vault, token]
    - category: chat
      keywords: [message]
`)

	cfg, err := Load(path)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), cfg.Classifier.Rules, 2)
	assert.Equal(suite.T(), classifier.Rule{Category: "secrets", Keywords: []string{"vault", "token"}}, cfg.Classifier.Rules[0])

	c, err := cfg.BuildClassifier()
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "chat", c.Classify("new message"))
	assert.Equal(suite.T(), []string{"secrets", "chat"}, c.Categories())
}

func (suite *ConfigTestSuite) TestLoadMissingExplicitPath() {
	_, err := Load(filepath.Join(suite.tempDir, "nope.yaml"))
	assert.Error(suite.T(), err)
}

func (suite *ConfigTestSuite) TestLoadMalformedFile() {
	suite.writeFile(filepath.Join(suite.tempDir, "forensicq.yaml"), "db: [unterminated\n")

	_, err := Load("")
	assert.Error(suite.T(), err)
}

func (suite *ConfigTestSuite) TestEnvironmentOverrides() {
	suite.T().Setenv("FORENSICQ_DB_POOL_SIZE", "3")
	suite.T().Setenv("FORENSICQ_CACHE_TTL", "90s")
	suite.T().Setenv("FORENSICQ_HTTP_ADDR", ":8080")
	suite.T().Setenv("FORENSICQ_LOG_LEVEL", "debug")

	cfg, err := Load("")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 3, cfg.DB.PoolSize)
	assert.Equal(suite.T(), 90*time.Second, cfg.Cache.TTL)
	assert.Equal(suite.T(), ":8080", cfg.HTTP.Addr)
	assert.Equal(suite.T(), "debug", cfg.Log.Level)
}

func (suite *ConfigTestSuite) TestEnvironmentBeatsFile() {
	suite.writeFile(filepath.Join(suite.tempDir, "forensicq.yaml"), "db:\n  pool_size: 4\n")
	suite.T().Setenv("FORENSICQ_DB_POOL_SIZE", "6")

	cfg, err := Load("")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 6, cfg.DB.PoolSize)
}

func (suite *ConfigTestSuite) TestLoadRejectsInvalid() {
	suite.writeFile(filepath.Join(suite.tempDir, "forensicq.yaml"), "cache:\n  backend: memcached\n")

	_, err := Load("")
	require.Error(suite.T(), err)
	assert.Contains(suite.T(), err.Error(), "memcached")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "redis backend", mutate: func(c *Config) { c.Cache.Backend = BackendRedis }},
		{name: "zero workers means NumCPU", mutate: func(c *Config) { c.Index.Workers = 0 }},
		{name: "zero acquire timeout fails fast", mutate: func(c *Config) { c.DB.AcquireTimeout = 0 }},
		{name: "empty db path", mutate: func(c *Config) { c.DB.Path = "" }, wantErr: "db.path"},
		{name: "zero pool", mutate: func(c *Config) { c.DB.PoolSize = 0 }, wantErr: "db.pool_size"},
		{name: "negative timeout", mutate: func(c *Config) { c.DB.AcquireTimeout = -time.Second }, wantErr: "db.acquire_timeout"},
		{name: "unknown backend", mutate: func(c *Config) { c.Cache.Backend = "disk" }, wantErr: "cache.backend"},
		{name: "redis without addr", mutate: func(c *Config) {
			c.Cache.Backend = BackendRedis
			c.Cache.Redis.Addr = ""
		}, wantErr: "cache.redis.addr"},
		{name: "zero ttl", mutate: func(c *Config) { c.Cache.TTL = 0 }, wantErr: "cache.ttl"},
		{name: "zero batch", mutate: func(c *Config) { c.Index.BatchSize = 0 }, wantErr: "index.batch_size"},
		{name: "negative workers", mutate: func(c *Config) { c.Index.Workers = -1 }, wantErr: "index.workers"},
		{name: "zero snippet", mutate: func(c *Config) { c.Query.SnippetLength = 0 }, wantErr: "query.snippet_length"},
		{name: "bad log level", mutate: func(c *Config) { c.Log.Level = "loud" }, wantErr: "log.level"},
		{name: "bad log format", mutate: func(c *Config) { c.Log.Format = "xml" }, wantErr: "log.format"},
		{name: "rule without keywords", mutate: func(c *Config) {
			c.Classifier.Rules = []classifier.Rule{{Category: "x"}}
		}, wantErr: "classifier.rules"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_ReportsAllProblems(t *testing.T) {
	cfg := Default()
	cfg.DB.PoolSize = 0
	cfg.Query.MaxRows = -1

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db.pool_size")
	assert.Contains(t, err.Error(), "query.max_rows")
}

func TestConversions(t *testing.T) {
	cfg := Default()
	cfg.DB.PoolSize = 3
	cfg.Index.Workers = 2
	cfg.Cache.TTL = time.Minute

	po := cfg.PoolOptions(zerolog.Nop())
	assert.Equal(t, 3, po.Size)
	assert.Equal(t, 30*time.Second, po.AcquireTimeout)
	assert.Equal(t, 64000, po.CacheSizeKB)

	ic := cfg.IndexerConfig()
	assert.Equal(t, 500, ic.BatchSize)
	assert.Equal(t, 2, ic.Workers)
	assert.Equal(t, time.Minute, ic.CacheTTL)

	sc := cfg.SearcherConfig()
	assert.Equal(t, 500, sc.SnippetLength)
	assert.Equal(t, 100, sc.MaxRows)

	so := cfg.ScannerOptions(zerolog.Nop())
	assert.Equal(t, scanner.DefaultMaxFileSize, so.MaxFileSize)

	c, err := cfg.BuildClassifier()
	require.NoError(t, err)
	assert.Equal(t, classifier.Default().Categories(), c.Categories())
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := LogConfig{Level: "warn", Format: "json"}.NewLogger(&buf)
	require.NoError(t, err)

	logger.Info().Msg("hidden")
	logger.Warn().Str("k", "v").Msg("shown")
	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"message":"shown"`)
	assert.Contains(t, out, `"k":"v"`)

	buf.Reset()
	logger, err = LogConfig{Level: "debug", Format: "console"}.NewLogger(&buf)
	require.NoError(t, err)
	logger.Debug().Msg("console line")
	assert.Contains(t, buf.String(), "console line")
	assert.NotContains(t, buf.String(), `"message"`)

	_, err = LogConfig{Level: "shouting"}.NewLogger(&buf)
	assert.Error(t, err)
}
