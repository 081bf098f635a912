package config

import (
	"fmt"
	"log"
	"math"
	"slices"
	"sort"
	"strings"
	"time"

	"atsscore/internal/errors"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	App           AppConfig           `mapstructure:"app"`
	Server        ServerConfig        `mapstructure:"server"`
	Scoring       ScoringConfig       `mapstructure:"scoring"`
	Cache         CacheConfig         `mapstructure:"cache"`
	Breaker       BreakerConfig       `mapstructure:"breaker"`
	Vault         VaultConfig         `mapstructure:"vault"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// AppConfig holds general application configuration
type AppConfig struct {
	LogLevel         string   `mapstructure:"logLevel"`
	DefaultFormat    string   `mapstructure:"defaultFormat"`
	SupportedFormats []string `mapstructure:"supportedFormats"`
	MaxFileSize      int64    `mapstructure:"maxFileSize"` // Largest résumé file the CLI reads, in bytes
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            string        `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"readTimeout"`
	WriteTimeout    time.Duration `mapstructure:"writeTimeout"`
	IdleTimeout     time.Duration `mapstructure:"idleTimeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdownTimeout"`

	MaxRequestSize int64 `mapstructure:"maxRequestSize"`
	MaxBatchSize   int   `mapstructure:"maxBatchSize"`

	// API Authentication
	APIKeys   []string `mapstructure:"apiKeys"`
	JWTSecret string   `mapstructure:"jwtSecret"` // HS256 secret; empty disables JWT bearer tokens

	TLS       TLSConfig       `mapstructure:"tls"`
	RateLimit RateLimitConfig `mapstructure:"rateLimit"`
}

// TLSConfig holds TLS/mTLS configuration
type TLSConfig struct {
	Mode     string `mapstructure:"mode"` // disabled, server, mutual
	CertFile string `mapstructure:"certFile"`
	KeyFile  string `mapstructure:"keyFile"`
	CAFile   string `mapstructure:"caFile"`

	// Certificate content, filled from Vault instead of files
	CertContent string `mapstructure:"certContent"`
	KeyContent  string `mapstructure:"keyContent"`
	CAContent   string `mapstructure:"caContent"`

	MinVersion       string `mapstructure:"minVersion"`       // "1.2" or "1.3"
	ClientAuthPolicy string `mapstructure:"clientAuthPolicy"` // require, request, verify
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled        bool `mapstructure:"enabled"`
	RequestsPerMin int  `mapstructure:"requestsPerMin"`
	BurstCapacity  int  `mapstructure:"burstCapacity"`
	ByIP           bool `mapstructure:"byIP"`
	ByAPIKey       bool `mapstructure:"byAPIKey"`
}

// ScoringConfig holds the tunables of the scoring engine that can be set
// without a rebuild. Everything else lives in ats.ScoringConfig.
type ScoringConfig struct {
	LexiconFile    string        `mapstructure:"lexiconFile"`
	WatchLexicon   bool          `mapstructure:"watchLexicon"`
	ReloadDebounce time.Duration `mapstructure:"reloadDebounce"`
	Parallelism    int           `mapstructure:"parallelism"` // 0 runs every check at once, 1 runs them in order
	ReportLanguage string        `mapstructure:"reportLanguage"`

	// Weights replaces pillar weight tables: pillar name -> section key -> weight
	Weights map[string]map[string]float64 `mapstructure:"weights"`
}

// CacheConfig holds report cache configuration
type CacheConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	Backend       string        `mapstructure:"backend"` // redis or memory
	RedisAddr     string        `mapstructure:"redisAddr"`
	RedisPassword string        `mapstructure:"redisPassword"`
	RedisDB       int           `mapstructure:"redisDB"`
	TTL           time.Duration `mapstructure:"ttl"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

// BreakerConfig represents the per-check circuit breaker configuration
type BreakerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	MaxRequests      uint32        `mapstructure:"maxRequests"`      // Max requests allowed when half-open
	Interval         time.Duration `mapstructure:"interval"`         // Interval to clear counts
	Timeout          time.Duration `mapstructure:"timeout"`          // Time spent open before half-open
	MinRequests      uint32        `mapstructure:"minRequests"`      // Minimum requests before tripping
	FailureThreshold float64       `mapstructure:"failureThreshold"` // Failure ratio threshold (0.0-1.0)
}

// ObservabilityConfig holds observability configuration
type ObservabilityConfig struct {
	Enabled         bool             `mapstructure:"enabled"`
	ServiceName     string           `mapstructure:"serviceName"`
	ServiceVersion  string           `mapstructure:"serviceVersion"`
	ServiceInstance string           `mapstructure:"serviceInstance"`
	ConsoleOutput   bool             `mapstructure:"consoleOutput"`
	SampleRate      float64          `mapstructure:"sampleRate"`
	Metrics         MetricsConfig    `mapstructure:"metrics"`
	Console         ConsoleConfig    `mapstructure:"console"`
	Prometheus      PrometheusConfig `mapstructure:"prometheus"`
	OTLP            OTLPConfig       `mapstructure:"otlp"`
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled            bool          `mapstructure:"enabled"`
	CollectionInterval time.Duration `mapstructure:"collectionInterval"`
}

// ConsoleConfig holds console output configuration
type ConsoleConfig struct {
	PrettyPrint bool `mapstructure:"prettyPrint"`
}

// PrometheusConfig holds Prometheus configuration
type PrometheusConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
	Port     string `mapstructure:"port"`
}

// OTLPConfig holds OTLP exporter configuration
type OTLPConfig struct {
	Enabled  bool              `mapstructure:"enabled"`
	Endpoint string            `mapstructure:"endpoint"`
	Insecure bool              `mapstructure:"insecure"`
	Headers  map[string]string `mapstructure:"headers"`
}

// LoadConfig loads configuration from defaults, an optional config file and
// ATSSCORE_* environment variables. An empty configFile searches the
// standard locations.
func LoadConfig(configFile string) (*Config, error) {
	return LoadConfigWith(viper.New(), configFile)
}

// LoadConfigWith is LoadConfig on a caller-owned viper instance, so CLI flags
// bound to v take precedence over file and environment values.
func LoadConfigWith(v *viper.Viper, configFile string) (*Config, error) {
	log.Println("[CONFIG] Starting configuration loading process")

	setDefaults(v)

	v.SetEnvPrefix("ATSSCORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/atsscore/")
		v.AddConfigPath("$HOME/.atsscore")
		v.AddConfigPath(".")
	}

	configFileUsed := ""
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || configFile != "" {
			return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "failed to read config file", err)
		}
		log.Println("[CONFIG] No config file found, using defaults and environment variables")
	} else {
		configFileUsed = v.ConfigFileUsed()
		log.Printf("[CONFIG] Loaded config file: %s", configFileUsed)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "failed to unmarshal config", err)
	}

	config.applyFallbacks()
	config.logConfigurationSources(configFileUsed)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	log.Println("[CONFIG] Configuration loading completed successfully")
	return &config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch c.App.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return invalid("invalid log level: %s (must be debug, info, warn or error)", c.App.LogLevel)
	}

	if !slices.Contains(c.App.SupportedFormats, c.App.DefaultFormat) {
		return invalid("invalid default format: %s", c.App.DefaultFormat)
	}

	if c.Server.Port == "" {
		return invalid("server port is required")
	}
	if c.Server.MaxBatchSize <= 0 {
		return invalid("server maxBatchSize must be positive")
	}
	if c.Server.RateLimit.Enabled && c.Server.RateLimit.RequestsPerMin <= 0 {
		return invalid("rate limit requestsPerMin must be positive when rate limiting is enabled")
	}

	if err := c.ValidateTLSConfig(); err != nil {
		return err
	}
	if err := c.validateScoring(); err != nil {
		return err
	}
	if err := c.validateCache(); err != nil {
		return err
	}
	return c.validateBreaker()
}

func (c *Config) validateScoring() error {
	if c.Scoring.Parallelism < 0 {
		return invalid("scoring parallelism cannot be negative")
	}

	pillars := make([]string, 0, len(c.Scoring.Weights))
	for name := range c.Scoring.Weights {
		pillars = append(pillars, name)
	}
	sort.Strings(pillars)

	for _, name := range pillars {
		sum := 0.0
		for section, w := range c.Scoring.Weights[name] {
			if w < 0 {
				return invalid("weight of %s in pillar %s cannot be negative", section, name)
			}
			sum += w
		}
		if math.Abs(sum-1.0) > 1e-6 {
			return invalid("weights of pillar %s sum to %.4f, expected 1.0", name, sum)
		}
	}
	return nil
}

func (c *Config) validateCache() error {
	if !c.Cache.Enabled {
		return nil
	}
	switch c.Cache.Backend {
	case "memory":
	case "redis":
		if c.Cache.RedisAddr == "" {
			return invalid("cache redisAddr is required for the redis backend")
		}
	default:
		return invalid("invalid cache backend: %s (must be 'redis' or 'memory')", c.Cache.Backend)
	}
	if c.Cache.TTL <= 0 {
		return invalid("cache ttl must be positive")
	}
	return nil
}

func (c *Config) validateBreaker() error {
	if !c.Breaker.Enabled {
		return nil
	}
	if c.Breaker.FailureThreshold <= 0 || c.Breaker.FailureThreshold > 1 {
		return invalid("breaker failureThreshold must be in (0, 1], got %v", c.Breaker.FailureThreshold)
	}
	if c.Breaker.MinRequests == 0 {
		return invalid("breaker minRequests must be at least 1")
	}
	return nil
}

func invalid(format string, args ...any) error {
	return errors.NewConfigError(errors.ErrCodeInvalidConfig, fmt.Sprintf(format, args...), nil)
}
