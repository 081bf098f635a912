package service

import (
	"context"

	"atsscore/internal/cache"
	"atsscore/internal/config"
	"atsscore/internal/errors"
	"atsscore/internal/lexicon"
	"atsscore/internal/observability"
	"atsscore/internal/resilience"

	"go.opentelemetry.io/otel/trace"
)

// NewFromConfig loads the lexicon and opens the report cache named by cfg,
// then builds the service. metrics and tracer may be nil.
func NewFromConfig(ctx context.Context, cfg *config.Config, metrics *observability.Metrics, tracer trace.Tracer, logger *errors.Logger) (*Service, error) {
	if logger == nil {
		logger = errors.Discard()
	}

	lex, err := lexicon.Load(cfg.Scoring.LexiconFile)
	if err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeLexiconLoadFailed, "failed to load lexicon", err).
			WithContext("path", cfg.Scoring.LexiconFile)
	}

	reportCache, err := cache.New(ctx, cfg.Cache, logger)
	if err != nil {
		return nil, err
	}

	svc, err := New(cfg.Scoring, lex, Options{
		Cache:    reportCache,
		Breakers: resilience.NewCheckBreakers(cfg.Breaker, logger),
		Metrics:  metrics,
		Tracer:   tracer,
	}, logger)
	if err != nil {
		_ = reportCache.Close()
		return nil, err
	}

	logger.Debug("Scoring service initialized",
		"lexicon", lex.Source,
		"cache_enabled", cfg.Cache.Enabled,
		"breaker_enabled", cfg.Breaker.Enabled,
		"parallelism", cfg.Scoring.Parallelism)
	return svc, nil
}
