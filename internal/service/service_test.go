package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"atsscore/internal/cache"
	"atsscore/internal/config"
	"atsscore/internal/errors"
	"atsscore/internal/lexicon"
	"atsscore/internal/resilience"
	"atsscore/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const resume = `Jane Doe
jane.doe@example.com | 555-123-4567 | linkedin.com/in/janedoe

Experience
Senior Engineer, Acme, 2019 - 2024
- Led a team of 6 engineers to migrate billing to Kubernetes, cutting costs 30%
- Reduced API latency by 45% with Redis caching

Education
MSc Computer Science, 2014

Skills
Go, PostgreSQL, Redis, Kubernetes`

func request() *types.AnalysisRequest {
	size := 120.0
	return &types.AnalysisRequest{ResumeText: resume, FileType: "pdf", FileSizeKB: &size}
}

func newService(t *testing.T, opts Options) *Service {
	t.Helper()
	svc, err := New(config.ScoringConfig{}, lexicon.MustDefault(), opts, errors.Discard())
	require.NoError(t, err)
	return svc
}

func TestAnalyzeUsesCache(t *testing.T) {
	mem := cache.NewMemory(time.Hour)
	svc := newService(t, Options{Cache: mem})
	ctx := context.Background()

	first, cached, err := svc.Analyze(ctx, request())
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, 1, mem.Len())

	second, cached, err := svc.Analyze(ctx, request())
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, first.GlobalScore, second.GlobalScore)
	assert.Equal(t, first.IssuesCount, second.IssuesCount)
}

func TestAnalyzeRejectsInvalidRequest(t *testing.T) {
	mem := cache.NewMemory(time.Hour)
	svc := newService(t, Options{Cache: mem})

	req := request()
	req.ResumeText = "   "
	_, _, err := svc.Analyze(context.Background(), req)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
	assert.Equal(t, 0, mem.Len())
}

func TestReloadChangesCacheNamespace(t *testing.T) {
	mem := cache.NewMemory(time.Hour)
	svc := newService(t, Options{Cache: mem})
	ctx := context.Background()

	_, _, err := svc.Analyze(ctx, request())
	require.NoError(t, err)
	before := svc.Stats()["cache_namespace"]

	lex := lexicon.MustDefault()
	lex.Buzzwords = append(lex.Buzzwords, "rockstar")
	lex.Source = "override.yaml"
	require.NoError(t, svc.Reload(lex))

	assert.NotEqual(t, before, svc.Stats()["cache_namespace"])
	assert.Equal(t, "override.yaml", svc.Lexicon().Source)
	assert.EqualValues(t, 1, svc.Stats()["reloads"])

	_, cached, err := svc.Analyze(ctx, request())
	require.NoError(t, err)
	assert.False(t, cached, "reports from the previous lexicon must not be served")
	assert.Equal(t, 2, mem.Len())
}

func TestReloadRejectsNilLexicon(t *testing.T) {
	svc := newService(t, Options{})
	require.Error(t, svc.Reload(nil))
	assert.Equal(t, "default", svc.Lexicon().Source)
	assert.EqualValues(t, 0, svc.Stats()["reloads"])
}

func TestNewRejectsBadWeights(t *testing.T) {
	cfg := config.ScoringConfig{Weights: map[string]map[string]float64{
		"unknown_pillar": {"parse_rate": 1},
	}}
	_, err := New(cfg, lexicon.MustDefault(), Options{}, nil)
	require.Error(t, err)
}

func TestReportLanguageOverride(t *testing.T) {
	svc, err := New(config.ScoringConfig{ReportLanguage: "fr"}, lexicon.MustDefault(), Options{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "fr", svc.Stats()["report_language"])
}

func TestAnalyzeBatchKeepsOrder(t *testing.T) {
	svc := newService(t, Options{})

	bad := request()
	bad.FileType = ""
	items := svc.AnalyzeBatch(context.Background(), []*types.AnalysisRequest{request(), bad, request()})

	require.Len(t, items, 3)
	assert.NotNil(t, items[0].Report)
	assert.NoError(t, items[0].Err)
	assert.Nil(t, items[1].Report)
	assert.Error(t, items[1].Err)
	assert.NotNil(t, items[2].Report)
}

func TestHealthWithBreakers(t *testing.T) {
	breakers := resilience.NewCheckBreakers(config.BreakerConfig{
		Enabled: true, MaxRequests: 1, MinRequests: 1, FailureThreshold: 0.5,
	}, nil)
	svc := newService(t, Options{Breakers: breakers})

	_, _, err := svc.Analyze(context.Background(), request())
	require.NoError(t, err)
	assert.True(t, svc.Healthy())
	assert.Same(t, breakers, svc.Breakers())
}

func TestAnalyzeSkipsCacheForDegradedReport(t *testing.T) {
	breakers := resilience.NewCheckBreakers(config.BreakerConfig{
		Enabled: true, MaxRequests: 1, MinRequests: 1, FailureThreshold: 0.5,
		Timeout: 50 * time.Millisecond,
	}, nil)
	mem := cache.NewMemory(time.Hour)
	svc := newService(t, Options{Cache: mem, Breakers: breakers})
	ctx := context.Background()

	_, err := breakers.Execute(types.SectionGrammar, func() (types.Section, error) {
		return nil, fmt.Errorf("grammar check crashed")
	})
	require.Error(t, err)
	require.Equal(t, "open", breakers.State(types.SectionGrammar))

	degraded, cached, err := svc.Analyze(ctx, request())
	require.NoError(t, err)
	assert.False(t, cached)
	assert.True(t, degraded.Sections.Grammar.Degraded)
	assert.True(t, degraded.Degraded())
	assert.Equal(t, 0, mem.Len(), "degraded reports must not be cached")

	time.Sleep(80 * time.Millisecond)

	healed, cached, err := svc.Analyze(ctx, request())
	require.NoError(t, err)
	assert.False(t, cached)
	assert.False(t, healed.Degraded())
	assert.Equal(t, "closed", breakers.State(types.SectionGrammar))
	assert.Equal(t, 1, mem.Len())

	_, cached, err = svc.Analyze(ctx, request())
	require.NoError(t, err)
	assert.True(t, cached)
}

func TestHealthWithoutBreakers(t *testing.T) {
	svc := newService(t, Options{})
	assert.True(t, svc.Healthy())
	assert.NoError(t, svc.Close())
}

func TestNewFromConfig(t *testing.T) {
	cfg := &config.Config{
		Cache:   config.CacheConfig{Enabled: true, Backend: "memory", TTL: time.Minute},
		Breaker: config.BreakerConfig{Enabled: true, MaxRequests: 1, MinRequests: 3, FailureThreshold: 0.5},
	}

	svc, err := NewFromConfig(context.Background(), cfg, nil, nil, nil)
	require.NoError(t, err)
	defer svc.Close()

	assert.Equal(t, "default", svc.Lexicon().Source)
	assert.NotNil(t, svc.Breakers())

	_, _, err = svc.Analyze(context.Background(), request())
	require.NoError(t, err)
	_, cached, err := svc.Analyze(context.Background(), request())
	require.NoError(t, err)
	assert.True(t, cached)
}

func TestNewFromConfigMissingLexicon(t *testing.T) {
	cfg := &config.Config{Scoring: config.ScoringConfig{LexiconFile: "/nonexistent/lexicon.yaml"}}
	_, err := NewFromConfig(context.Background(), cfg, nil, nil, nil)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}
