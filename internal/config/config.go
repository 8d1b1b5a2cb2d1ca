// Package config defines the tariff classifier service configuration.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jonesrussell/north-cloud/tariff-classifier/internal/classifier"
	"github.com/jonesrussell/north-cloud/tariff-classifier/internal/database"
	infraconfig "github.com/jonesrussell/north-cloud/tariff-classifier/internal/infrastructure/config"
)

// Default configuration values.
const (
	defaultServiceName      = "tariff-classifier"
	defaultServiceVersion   = "1.0.0"
	defaultServicePort      = 8077
	defaultConcurrency      = 10
	defaultMaxBatchItems    = 100
	defaultReadTimeout      = 10 * time.Second
	defaultWriteTimeout     = 30 * time.Second
	defaultIdleTimeout      = 60 * time.Second
	defaultDBDriver         = database.DriverPostgres
	defaultDBHost           = "localhost"
	defaultDBPort           = 5432
	defaultDBUser           = "postgres"
	defaultDBName           = "tariff"
	defaultDBSSLMode        = "disable"
	defaultSQLitePath       = "data/tariff.db"
	defaultRedisURL         = "localhost:6379"
	defaultRedisTimeoutSec  = 5
	defaultCacheTTLHours    = 24
	defaultLogLevel         = "info"
	defaultLogFormat        = "json"
	defaultRateLimitRPS     = 50
	defaultRateLimitBurst   = 100
	defaultBatchItemsRPS    = 500
	defaultBatchBurst       = 100
	maxResultsUpperBound    = 100
	maxBatchItemsUpperBound = 1000
)

// Config holds all configuration for the tariff classifier service.
type Config struct {
	Service        ServiceConfig        `yaml:"service"`
	Database       DatabaseConfig       `yaml:"database"`
	Redis          RedisConfig          `yaml:"redis"`
	Logging        LoggingConfig        `yaml:"logging"`
	Auth           AuthConfig           `yaml:"auth"`
	Classification ClassificationConfig `yaml:"classification"`
	RateLimit      RateLimitConfig      `yaml:"rate_limit"`
}

// ServiceConfig holds service-level configuration.
type ServiceConfig struct {
	Name          string        `yaml:"name"`
	Version       string        `yaml:"version"`
	Port          int           `env:"TARIFF_PORT"        yaml:"port"`
	Debug         bool          `env:"APP_DEBUG"          yaml:"debug"`
	Concurrency   int           `env:"TARIFF_CONCURRENCY" yaml:"concurrency"`
	MaxBatchItems int           `yaml:"max_batch_items"`
	ReadTimeout   time.Duration `yaml:"read_timeout"`
	WriteTimeout  time.Duration `yaml:"write_timeout"`
	IdleTimeout   time.Duration `yaml:"idle_timeout"`
	CORSOrigins   []string      `env:"CORS_ORIGINS"       yaml:"cors_origins"`
}

// DatabaseConfig holds selection store configuration.
type DatabaseConfig struct {
	Enabled          bool   `env:"DATABASE_ENABLED"            yaml:"enabled"`
	Required         bool   `env:"DATABASE_REQUIRED"           yaml:"required"`
	AutoCreateSchema bool   `env:"DATABASE_AUTO_CREATE_SCHEMA" yaml:"auto_create_schema"`
	Driver           string `env:"DATABASE_DRIVER"             yaml:"driver"`
	Host             string `env:"POSTGRES_HOST"               yaml:"host"`
	Port             int    `env:"POSTGRES_PORT"               yaml:"port"`
	User             string `env:"POSTGRES_USER"               yaml:"user"`
	Password         string `env:"POSTGRES_PASSWORD"           yaml:"password"`
	Database         string `env:"POSTGRES_DB"                 yaml:"database"`
	SSLMode          string `env:"POSTGRES_SSLMODE"            yaml:"sslmode"`
	SQLitePath       string `env:"SQLITE_PATH"                 yaml:"sqlite_path"`
}

// RedisConfig holds result cache configuration.
type RedisConfig struct {
	Enabled                bool          `env:"REDIS_ENABLED"  yaml:"enabled"`
	URL                    string        `env:"REDIS_URL"      yaml:"url"`
	Password               string        `env:"REDIS_PASSWORD" yaml:"password"`
	Database               int           `yaml:"database"`
	Timeout                time.Duration `yaml:"timeout"`
	ClassificationCacheTTL time.Duration `yaml:"classification_cache_ttl"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL"  yaml:"level"`
	Format string `env:"LOG_FORMAT" yaml:"format"`
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	JWTSecret string `env:"AUTH_JWT_SECRET" yaml:"jwt_secret"`
}

// ClassificationConfig holds lexicon and scoring settings.
type ClassificationConfig struct {
	// LexiconPath overrides the embedded lexicon when set.
	LexiconPath string  `env:"TARIFF_LEXICON_PATH" yaml:"lexicon_path"`
	BaseWeight  float64 `yaml:"base_weight"`

	// Boosts are pointers so an explicit 0 in YAML disables the boost.
	FunctionBoost *float64 `yaml:"function_boost"`
	TermBoost     *float64 `yaml:"term_boost"`
	MaxResults    int      `env:"TARIFF_MAX_RESULTS" yaml:"max_results"`
}

// RateLimitConfig holds API and batch rate limiting settings.
type RateLimitConfig struct {
	Enabled           bool `env:"RATE_LIMIT_ENABLED" yaml:"enabled"`
	RequestsPerSecond int  `env:"RATE_LIMIT_RPS"     yaml:"requests_per_second"`
	Burst             int  `yaml:"burst"`

	// Batch items are throttled one token per item, independent of requests.
	BatchItemsPerSecond int `env:"RATE_LIMIT_BATCH_RPS" yaml:"batch_items_per_second"`
	BatchBurst          int `yaml:"batch_burst"`
}

// Load loads configuration from the specified path.
func Load(path string) (*Config, error) {
	return infraconfig.LoadWithDefaults[Config](path, SetDefaults)
}

// Default returns a configuration with only defaults and env overrides applied,
// for running without a config file.
func Default() *Config {
	cfg := &Config{}
	infraconfig.ApplyEnvOverrides(cfg)
	SetDefaults(cfg)
	infraconfig.ApplyEnvOverrides(cfg)
	return cfg
}

// SetDefaults applies default values to the config.
func SetDefaults(cfg *Config) {
	setServiceDefaults(&cfg.Service)
	setDatabaseDefaults(&cfg.Database)
	setRedisDefaults(&cfg.Redis)
	setLoggingDefaults(&cfg.Logging)
	setClassificationDefaults(&cfg.Classification)
	setRateLimitDefaults(&cfg.RateLimit)
	// Auth defaults are handled by env tags - no explicit defaults needed
}

func setServiceDefaults(s *ServiceConfig) {
	if s.Name == "" {
		s.Name = defaultServiceName
	}
	if s.Version == "" {
		s.Version = defaultServiceVersion
	}
	if s.Port == 0 {
		s.Port = defaultServicePort
	}
	if s.Concurrency == 0 {
		s.Concurrency = defaultConcurrency
	}
	if s.MaxBatchItems == 0 {
		s.MaxBatchItems = defaultMaxBatchItems
	}
	if s.ReadTimeout == 0 {
		s.ReadTimeout = defaultReadTimeout
	}
	if s.WriteTimeout == 0 {
		s.WriteTimeout = defaultWriteTimeout
	}
	if s.IdleTimeout == 0 {
		s.IdleTimeout = defaultIdleTimeout
	}
}

func setDatabaseDefaults(d *DatabaseConfig) {
	if d.Driver == "" {
		d.Driver = defaultDBDriver
	}
	if d.Host == "" {
		d.Host = defaultDBHost
	}
	if d.Port == 0 {
		d.Port = defaultDBPort
	}
	if d.User == "" {
		d.User = defaultDBUser
	}
	if d.Database == "" {
		d.Database = defaultDBName
	}
	if d.SSLMode == "" {
		d.SSLMode = defaultDBSSLMode
	}
	if d.SQLitePath == "" {
		d.SQLitePath = defaultSQLitePath
	}
}

func setRedisDefaults(r *RedisConfig) {
	if r.URL == "" {
		r.URL = defaultRedisURL
	}
	if r.Timeout == 0 {
		r.Timeout = defaultRedisTimeoutSec * time.Second
	}
	if r.ClassificationCacheTTL == 0 {
		r.ClassificationCacheTTL = defaultCacheTTLHours * time.Hour
	}
}

func setLoggingDefaults(l *LoggingConfig) {
	if l.Level == "" {
		l.Level = defaultLogLevel
	}
	if l.Format == "" {
		l.Format = defaultLogFormat
	}
}

func setClassificationDefaults(c *ClassificationConfig) {
	if c.BaseWeight == 0 {
		c.BaseWeight = classifier.DefaultBaseWeight
	}
	if c.FunctionBoost == nil {
		c.FunctionBoost = float64Ptr(classifier.DefaultFunctionBoost)
	}
	if c.TermBoost == nil {
		c.TermBoost = float64Ptr(classifier.DefaultTermBoost)
	}
	if c.MaxResults == 0 {
		c.MaxResults = classifier.DefaultMaxResults
	}
}

func setRateLimitDefaults(r *RateLimitConfig) {
	if r.RequestsPerSecond == 0 {
		r.RequestsPerSecond = defaultRateLimitRPS
	}
	if r.Burst == 0 {
		r.Burst = defaultRateLimitBurst
	}
	if r.BatchItemsPerSecond == 0 {
		r.BatchItemsPerSecond = defaultBatchItemsRPS
	}
	if r.BatchBurst == 0 {
		r.BatchBurst = defaultBatchBurst
	}
}

// Validate checks the configuration after defaults are applied.
func (c *Config) Validate() error {
	errs := []error{
		infraconfig.ValidatePort("service.port", c.Service.Port),
		infraconfig.ValidateLogLevel(c.Logging.Level),
		infraconfig.ValidateRange("classification.base_weight", c.Classification.BaseWeight, 0, 1),
		infraconfig.ValidateRange("classification.function_boost", derefFloat64(c.Classification.FunctionBoost), 0, 1),
		infraconfig.ValidateRange("classification.term_boost", derefFloat64(c.Classification.TermBoost), 0, 1),
		infraconfig.ValidateRange("classification.max_results",
			float64(c.Classification.MaxResults), 1, maxResultsUpperBound),
		infraconfig.ValidateRange("service.max_batch_items",
			float64(c.Service.MaxBatchItems), 1, maxBatchItemsUpperBound),
	}

	if c.Service.Concurrency < 1 {
		errs = append(errs, &infraconfig.ValidationError{Field: "service.concurrency", Message: "must be positive"})
	}
	if c.Database.Enabled {
		switch c.Database.Driver {
		case database.DriverPostgres, database.DriverSQLite:
		default:
			errs = append(errs, &infraconfig.ValidationError{
				Field:   "database.driver",
				Message: fmt.Sprintf("unsupported driver %q (postgres, sqlite3)", c.Database.Driver),
			})
		}
	}
	if c.RateLimit.Enabled && c.RateLimit.RequestsPerSecond < 1 {
		errs = append(errs, &infraconfig.ValidationError{Field: "rate_limit.requests_per_second", Message: "must be positive"})
	}
	if c.RateLimit.Enabled && c.RateLimit.BatchItemsPerSecond < 1 {
		errs = append(errs, &infraconfig.ValidationError{Field: "rate_limit.batch_items_per_second", Message: "must be positive"})
	}

	return errors.Join(errs...)
}

// ScoringOptions converts the classification section into engine options.
func (c *ClassificationConfig) ScoringOptions() classifier.Options {
	return classifier.Options{
		BaseWeight:    c.BaseWeight,
		FunctionBoost: derefFloat64(c.FunctionBoost),
		TermBoost:     derefFloat64(c.TermBoost),
		MaxResults:    c.MaxResults,
	}
}

func float64Ptr(v float64) *float64 { return &v }

func derefFloat64(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

// DatabaseSettings converts the database section for database.Open.
func (d *DatabaseConfig) DatabaseSettings() database.Config {
	return database.Config{
		Driver:   d.Driver,
		Host:     d.Host,
		Port:     strconv.Itoa(d.Port),
		User:     d.User,
		Password: d.Password,
		DBName:   d.Database,
		SSLMode:  d.SSLMode,
		Path:     d.SQLitePath,
	}
}
