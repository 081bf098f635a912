// Package service wires the scoring engine to its lexicon, report cache,
// check breakers and metrics. Both the CLI and the HTTP server score
// résumés through it.
package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	stderrors "errors"
	"runtime"
	"sync/atomic"
	"time"

	"atsscore/internal/ats"
	"atsscore/internal/cache"
	"atsscore/internal/config"
	"atsscore/internal/errors"
	"atsscore/internal/lexicon"
	"atsscore/internal/observability"
	"atsscore/internal/resilience"
	"atsscore/internal/types"

	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// Options carries the optional collaborators of a Service. Zero values are
// valid: no cache, no breakers, no metrics and a noop tracer.
type Options struct {
	Cache    cache.ReportCache
	Breakers *resilience.CheckBreakers
	Metrics  *observability.Metrics
	Tracer   trace.Tracer
}

// Service scores résumés with an engine that can be swapped while requests
// are in flight.
type Service struct {
	scoring config.ScoringConfig
	opts    Options
	logger  *errors.Logger

	current atomic.Pointer[snapshot]
	reloads atomic.Int64
}

// snapshot is one engine together with the lexicon it was built from.
type snapshot struct {
	engine    *ats.Engine
	lexicon   *lexicon.Lexicon
	namespace string
	loadedAt  time.Time
}

// New builds the first engine from cfg and lex.
func New(cfg config.ScoringConfig, lex *lexicon.Lexicon, opts Options, logger *errors.Logger) (*Service, error) {
	if logger == nil {
		logger = errors.Discard()
	}
	if opts.Cache == nil {
		opts.Cache = cache.Nop{}
	}

	s := &Service{scoring: cfg, opts: opts, logger: logger}
	snap, err := s.build(lex)
	if err != nil {
		return nil, err
	}
	s.current.Store(snap)
	return s, nil
}

// BuildEngine turns the scoring section of the configuration into an engine
// over lex.
func BuildEngine(cfg config.ScoringConfig, lex *lexicon.Lexicon, opts ...ats.Option) (*ats.Engine, error) {
	scoring := ats.DefaultScoringConfig(lex)
	if cfg.ReportLanguage != "" {
		scoring.ReportLanguage = lexicon.NormalizeLanguage(cfg.ReportLanguage)
	}
	if len(cfg.Weights) > 0 {
		var err error
		if scoring, err = scoring.WithWeights(cfg.Weights); err != nil {
			return nil, err
		}
	}

	opts = append(opts, ats.WithParallelism(cfg.Parallelism))
	return ats.New(scoring, lex, opts...)
}

func (s *Service) build(lex *lexicon.Lexicon) (*snapshot, error) {
	if lex == nil {
		return nil, errors.NewConfigError(errors.ErrCodeLexiconLoadFailed, "lexicon is required", nil)
	}

	opts := []ats.Option{ats.WithLogger(s.logger)}
	if s.opts.Breakers != nil {
		opts = append(opts, ats.WithGuard(s.opts.Breakers))
	}
	if s.opts.Tracer != nil {
		opts = append(opts, ats.WithTracer(s.opts.Tracer))
	}
	if s.opts.Metrics != nil {
		opts = append(opts, ats.WithRecorder(s.opts.Metrics))
	}

	engine, err := BuildEngine(s.scoring, lex, opts...)
	if err != nil {
		return nil, err
	}
	namespace, err := fingerprint(lex, s.scoring)
	if err != nil {
		return nil, err
	}
	return &snapshot{engine: engine, lexicon: lex, namespace: namespace, loadedAt: time.Now()}, nil
}

// fingerprint identifies the scoring inputs that change report contents, so
// cached reports from an older lexicon are never served.
func fingerprint(lex *lexicon.Lexicon, cfg config.ScoringConfig) (string, error) {
	data, err := json.Marshal(struct {
		Lexicon  *lexicon.Lexicon
		Weights  map[string]map[string]float64
		Language string
	}{lex, cfg.Weights, cfg.ReportLanguage})
	if err != nil {
		return "", errors.NewInternalError(errors.ErrCodeLexiconLoadFailed, "failed to fingerprint lexicon", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:6]), nil
}

// Reload rebuilds the engine over lex and swaps it in. The old engine keeps
// serving when the new one cannot be built.
func (s *Service) Reload(lex *lexicon.Lexicon) error {
	snap, err := s.build(lex)
	if err != nil {
		s.opts.Metrics.RecordLexiconReload(context.Background(), false)
		s.logger.LogError(err, "Lexicon reload rejected, keeping current engine")
		return err
	}
	s.current.Store(snap)
	s.reloads.Add(1)
	s.opts.Metrics.RecordLexiconReload(context.Background(), true)
	s.logger.Info("Scoring engine reloaded", "lexicon", lex.Source, "namespace", snap.namespace)
	return nil
}

// Analyze returns the report for req, from cache when possible. cached
// reports whether the report came from the cache.
func (s *Service) Analyze(ctx context.Context, req *types.AnalysisRequest) (report *types.ATSReport, cached bool, err error) {
	snap := s.current.Load()

	if err := ats.ValidateRequest(req); err != nil {
		s.recordRejected(ctx, err)
		return nil, false, err
	}

	key, keyErr := cache.Key(snap.namespace, req)
	if keyErr == nil {
		hit, ok, err := s.opts.Cache.Get(ctx, key)
		switch {
		case err != nil:
			s.logger.LogError(err, "Report cache lookup failed, scoring live")
		case ok:
			s.opts.Metrics.RecordCacheLookup(ctx, true)
			return hit, true, nil
		default:
			s.opts.Metrics.RecordCacheLookup(ctx, false)
		}
	}

	report, err = snap.engine.Analyze(ctx, req)
	if err != nil {
		s.recordRejected(ctx, err)
		return nil, false, err
	}

	// A degraded report reflects a transient check failure, not the request.
	if keyErr == nil && !report.Degraded() {
		if err := s.opts.Cache.Set(ctx, key, report); err != nil {
			s.logger.LogError(err, "Failed to store report in cache")
		}
	}
	return report, false, nil
}

func (s *Service) recordRejected(ctx context.Context, err error) {
	code := "UNKNOWN"
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		code = appErr.Code
	}
	s.opts.Metrics.RecordRejected(ctx, code)
}

// BatchItem is the outcome of one request of a batch. Exactly one of Report
// and Err is set.
type BatchItem struct {
	Report *types.ATSReport
	Cached bool
	Err    error
}

// AnalyzeBatch scores every request independently. Results keep the order
// of reqs and one failing request does not affect the others.
func (s *Service) AnalyzeBatch(ctx context.Context, reqs []*types.AnalysisRequest) []BatchItem {
	items := make([]BatchItem, len(reqs))

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, req := range reqs {
		i, req := i, req
		g.Go(func() error {
			report, cached, err := s.Analyze(ctx, req)
			items[i] = BatchItem{Report: report, Cached: cached, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return items
}

// Lexicon returns the lexicon of the current engine.
func (s *Service) Lexicon() *lexicon.Lexicon {
	return s.current.Load().lexicon
}

// Breakers returns the check breakers, nil when disabled.
func (s *Service) Breakers() *resilience.CheckBreakers {
	return s.opts.Breakers
}

// Healthy reports whether every check breaker is closed.
func (s *Service) Healthy() bool {
	return s.opts.Breakers.Healthy()
}

// Stats describes the current engine for the stats endpoint.
func (s *Service) Stats() map[string]any {
	snap := s.current.Load()
	return map[string]any{
		"lexicon_source":    snap.lexicon.Source,
		"lexicon_loaded_at": snap.loadedAt.UTC().Format(time.RFC3339),
		"cache_namespace":   snap.namespace,
		"reloads":           s.reloads.Load(),
		"report_language":   snap.engine.Config().ReportLanguage,
		"parallelism":       s.scoring.Parallelism,
		"breakers":          s.opts.Breakers.Stats(),
	}
}

// Close releases the cache connection.
func (s *Service) Close() error {
	return s.opts.Cache.Close()
}
