// Package cache stores finished ATS reports keyed by a digest of the request
// that produced them.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"atsscore/internal/config"
	"atsscore/internal/errors"
	"atsscore/internal/types"
)

const keyPrefix = "ats:report:"

// ReportCache stores reports by key. Get reports a miss with ok=false and a
// nil error.
type ReportCache interface {
	Get(ctx context.Context, key string) (report *types.ATSReport, ok bool, err error)
	Set(ctx context.Context, key string, report *types.ATSReport) error
	Close() error
}

// New builds the cache selected by cfg. A disabled cache never stores
// anything.
func New(ctx context.Context, cfg config.CacheConfig, logger *errors.Logger) (ReportCache, error) {
	if !cfg.Enabled {
		return Nop{}, nil
	}

	switch cfg.Backend {
	case "redis":
		c, err := NewRedis(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if logger != nil {
			logger.Info("Report cache connected", "backend", "redis", "addr", cfg.RedisAddr, "ttl", cfg.TTL.String())
		}
		return c, nil
	case "memory", "":
		if logger != nil {
			logger.Info("Report cache enabled", "backend", "memory", "ttl", cfg.TTL.String())
		}
		return NewMemory(cfg.TTL), nil
	default:
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("unknown cache backend: %s", cfg.Backend), nil)
	}
}

// Key derives the cache key of req. Namespace separates reports produced
// under different scoring configurations.
func Key(namespace string, req *types.AnalysisRequest) (string, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return "", errors.NewInternalError(errors.ErrCodeInvalidRequest, "failed to encode request for cache key", err)
	}
	sum := sha256.Sum256(data)
	if namespace == "" {
		return keyPrefix + hex.EncodeToString(sum[:]), nil
	}
	return keyPrefix + namespace + ":" + hex.EncodeToString(sum[:]), nil
}

// Nop is a cache that always misses.
type Nop struct{}

func (Nop) Get(context.Context, string) (*types.ATSReport, bool, error) { return nil, false, nil }
func (Nop) Set(context.Context, string, *types.ATSReport) error         { return nil }
func (Nop) Close() error                                                { return nil }
