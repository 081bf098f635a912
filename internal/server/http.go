package server

import (
	"sync/atomic"
	"time"

	"atsscore/internal/config"
	"atsscore/internal/errors"
	"atsscore/internal/service"
	"atsscore/internal/types"
)

// BatchRequest represents the request body for the batch endpoint
type BatchRequest struct {
	Requests []*types.AnalysisRequest `json:"requests"`
}

// BatchItem is one entry of a batch response. Exactly one of Report and
// Error is set.
type BatchItem struct {
	Index  int              `json:"index"`
	Cached bool             `json:"cached,omitempty"`
	Report *types.ATSReport `json:"report,omitempty"`
	Error  *ErrorResponse   `json:"error,omitempty"`
}

// BatchResponse represents the response body of the batch endpoint
type BatchResponse struct {
	Results   []BatchItem `json:"results"`
	Succeeded int         `json:"succeeded"`
	Failed    int         `json:"failed"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string         `json:"error"`
	Message string         `json:"message,omitempty"`
	Code    string         `json:"code,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// Server holds configuration for the HTTP server
type Server struct {
	Host    string
	Port    string
	Version string

	// Full application configuration
	AppConfig *config.Config

	// TLS Configuration
	TLSConfig config.TLSConfig

	// Scoring service shared by every handler. Start builds one when unset.
	Service *service.Service

	// API Authentication. Keys are swapped whole when Vault rotates them.
	apiKeys   atomic.Pointer[keySet]
	jwtSecret []byte

	// Timeout configurations
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Request limits
	MaxRequestSize int64
	MaxBatchSize   int

	// Rate limiting
	RateLimit   *config.RateLimitConfig
	RateLimiter *RateLimiter

	// Logger
	Logger *errors.Logger
}

// ServerConfig holds configuration for creating a Server instance
type ServerConfig struct {
	Host            string
	Port            string
	Version         string
	TLSConfig       config.TLSConfig
	APIKeys         []string
	JWTSecret       string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	MaxRequestSize  int64
	MaxBatchSize    int
	RateLimit       *config.RateLimitConfig
}

// ServerConfigFrom maps the server section of the application config
func ServerConfigFrom(cfg *config.Config, version string) ServerConfig {
	return ServerConfig{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		Version:         version,
		TLSConfig:       cfg.Server.TLS,
		APIKeys:         cfg.Server.APIKeys,
		JWTSecret:       cfg.Server.JWTSecret,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     cfg.Server.IdleTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		MaxRequestSize:  cfg.Server.MaxRequestSize,
		MaxBatchSize:    cfg.Server.MaxBatchSize,
		RateLimit:       &cfg.Server.RateLimit,
	}
}

// NewServer creates a new Server instance from a ServerConfig struct
func NewServer(appCfg *config.Config, cfg ServerConfig, logger *errors.Logger) *Server {
	if logger == nil {
		logger = errors.Discard()
	}

	var rateLimiter *RateLimiter
	if cfg.RateLimit != nil && cfg.RateLimit.Enabled {
		rateLimiter = NewRateLimiter(
			cfg.RateLimit.RequestsPerMin,
			cfg.RateLimit.BurstCapacity,
			logger,
		)
	}

	s := &Server{
		Host:            cfg.Host,
		Port:            cfg.Port,
		Version:         cfg.Version,
		AppConfig:       appCfg,
		TLSConfig:       cfg.TLSConfig,
		jwtSecret:       []byte(cfg.JWTSecret),
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		IdleTimeout:     cfg.IdleTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
		MaxRequestSize:  cfg.MaxRequestSize,
		MaxBatchSize:    cfg.MaxBatchSize,
		RateLimit:       cfg.RateLimit,
		RateLimiter:     rateLimiter,
		Logger:          logger,
	}
	s.SetAPIKeys(cfg.APIKeys)
	return s
}
