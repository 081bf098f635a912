package observability

import (
	"context"
	"fmt"
	"time"

	"atsscore/internal/types"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the instruments recorded while scoring. All methods are
// no-ops on a nil *Metrics.
type Metrics struct {
	// Analysis metrics
	AnalysesTotal    metric.Int64Counter
	AnalysisDuration metric.Float64Histogram
	GlobalScore      metric.Int64Histogram
	IssuesCount      metric.Int64Histogram

	// Per-check metrics
	CheckDuration metric.Float64Histogram
	CheckFailures metric.Int64Counter

	// Infrastructure metrics
	CacheHits      metric.Int64Counter
	CacheMisses    metric.Int64Counter
	RateLimitHits  metric.Int64Counter
	LexiconReloads metric.Int64Counter
}

// newMetrics creates every instrument on meter
func newMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	if m.AnalysesTotal, err = meter.Int64Counter(
		"atsscore_analyses_total",
		metric.WithDescription("Total number of analysis requests by result"),
	); err != nil {
		return nil, fmt.Errorf("failed to create analyses metric: %w", err)
	}

	if m.AnalysisDuration, err = meter.Float64Histogram(
		"atsscore_analysis_duration_seconds",
		metric.WithDescription("Time spent scoring one résumé"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("failed to create analysis duration metric: %w", err)
	}

	if m.GlobalScore, err = meter.Int64Histogram(
		"atsscore_global_score",
		metric.WithDescription("Distribution of global scores"),
		metric.WithExplicitBucketBoundaries(10, 20, 30, 40, 50, 60, 70, 80, 90, 100),
	); err != nil {
		return nil, fmt.Errorf("failed to create global score metric: %w", err)
	}

	if m.IssuesCount, err = meter.Int64Histogram(
		"atsscore_issues_count",
		metric.WithDescription("Distribution of issue counts per report"),
		metric.WithExplicitBucketBoundaries(0, 2, 5, 10, 15, 20, 30, 50),
	); err != nil {
		return nil, fmt.Errorf("failed to create issues count metric: %w", err)
	}

	if m.CheckDuration, err = meter.Float64Histogram(
		"atsscore_check_duration_seconds",
		metric.WithDescription("Time spent in a single scoring check"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("failed to create check duration metric: %w", err)
	}

	if m.CheckFailures, err = meter.Int64Counter(
		"atsscore_check_failures_total",
		metric.WithDescription("Total number of degraded check results"),
	); err != nil {
		return nil, fmt.Errorf("failed to create check failures metric: %w", err)
	}

	if m.CacheHits, err = meter.Int64Counter(
		"atsscore_cache_hits_total",
		metric.WithDescription("Total number of reports served from cache"),
	); err != nil {
		return nil, fmt.Errorf("failed to create cache hits metric: %w", err)
	}

	if m.CacheMisses, err = meter.Int64Counter(
		"atsscore_cache_misses_total",
		metric.WithDescription("Total number of cache lookups that missed"),
	); err != nil {
		return nil, fmt.Errorf("failed to create cache misses metric: %w", err)
	}

	if m.RateLimitHits, err = meter.Int64Counter(
		"atsscore_rate_limit_hits_total",
		metric.WithDescription("Total number of rate limit hits"),
	); err != nil {
		return nil, fmt.Errorf("failed to create rate limit hits metric: %w", err)
	}

	if m.LexiconReloads, err = meter.Int64Counter(
		"atsscore_lexicon_reloads_total",
		metric.WithDescription("Total number of lexicon reloads"),
	); err != nil {
		return nil, fmt.Errorf("failed to create lexicon reloads metric: %w", err)
	}

	return m, nil
}

// RecordCheck records the duration and outcome of one check.
func (m *Metrics) RecordCheck(ctx context.Context, section types.SectionKey, elapsed time.Duration, failed bool) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("section", string(section)),
		attribute.Bool("failed", failed),
	)
	m.CheckDuration.Record(ctx, elapsed.Seconds(), attrs)
	if failed {
		m.CheckFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("section", string(section))))
	}
}

// RecordAnalysis records a completed report.
func (m *Metrics) RecordAnalysis(ctx context.Context, report *types.ATSReport, elapsed time.Duration) {
	if m == nil || report == nil {
		return
	}
	lang := metric.WithAttributes(attribute.String("language", report.LanguageUsed))
	m.AnalysesTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("result", "scored")))
	m.AnalysisDuration.Record(ctx, elapsed.Seconds(), lang)
	m.GlobalScore.Record(ctx, int64(report.GlobalScore), lang)
	m.IssuesCount.Record(ctx, int64(report.IssuesCount), lang)
}

// RecordRejected counts a request that never reached the engine.
func (m *Metrics) RecordRejected(ctx context.Context, code string) {
	if m == nil {
		return
	}
	m.AnalysesTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("result", "rejected"),
		attribute.String("code", code),
	))
}

// RecordCacheLookup counts a report cache hit or miss.
func (m *Metrics) RecordCacheLookup(ctx context.Context, hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheHits.Add(ctx, 1)
		m.AnalysesTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("result", "cached")))
		return
	}
	m.CacheMisses.Add(ctx, 1)
}

// RecordRateLimitHit counts a request refused by the rate limiter.
func (m *Metrics) RecordRateLimitHit(ctx context.Context, keyType string) {
	if m == nil {
		return
	}
	m.RateLimitHits.Add(ctx, 1, metric.WithAttributes(attribute.String("key_type", keyType)))
}

// RecordLexiconReload counts a lexicon reload attempt.
func (m *Metrics) RecordLexiconReload(ctx context.Context, success bool) {
	if m == nil {
		return
	}
	m.LexiconReloads.Add(ctx, 1, metric.WithAttributes(attribute.Bool("success", success)))
}
