// Package ats scores a résumé against ATS compatibility and content-quality
// heuristics. Twelve independent checks run concurrently over one normalized
// input; their section results are combined into four weighted pillars and
// a global score.
package ats

import (
	"context"
	"fmt"
	"time"

	"atsscore/internal/errors"
	"atsscore/internal/types"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"
)

// Guard wraps the execution of a single check. It may refuse to run fn and
// return an error instead, in which case the section is degraded.
type Guard interface {
	Execute(section types.SectionKey, fn func() (types.Section, error)) (types.Section, error)
}

// Recorder receives measurements of checks and analyses.
type Recorder interface {
	RecordCheck(ctx context.Context, section types.SectionKey, elapsed time.Duration, failed bool)
	RecordAnalysis(ctx context.Context, report *types.ATSReport, elapsed time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) RecordCheck(context.Context, types.SectionKey, time.Duration, bool) {}
func (nopRecorder) RecordAnalysis(context.Context, *types.ATSReport, time.Duration)    {}

// Engine runs the checks and aggregates their results. It is safe for
// concurrent use.
type Engine struct {
	cfg     ScoringConfig
	checker *checker
	checks  []check

	guard       Guard
	tracer      trace.Tracer
	recorder    Recorder
	logger      *errors.Logger
	parallelism int
}

// Option configures an Engine.
type Option func(*Engine)

// WithGuard wraps every check in g.
func WithGuard(g Guard) Option {
	return func(e *Engine) { e.guard = g }
}

// WithTracer sets the tracer used for analysis and check spans.
func WithTracer(t trace.Tracer) Option {
	return func(e *Engine) {
		if t != nil {
			e.tracer = t
		}
	}
}

// WithRecorder sets the metrics sink.
func WithRecorder(r Recorder) Option {
	return func(e *Engine) {
		if r != nil {
			e.recorder = r
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *errors.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithParallelism caps how many checks run at once. Zero or less means no
// cap; one runs the checks sequentially.
func WithParallelism(n int) Option {
	return func(e *Engine) { e.parallelism = n }
}

// New validates cfg and builds an engine. verbs may be nil, in which case
// only the configured strong verbs count as action verbs.
func New(cfg ScoringConfig, verbs VerbBank, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:      cfg,
		tracer:   noop.NewTracerProvider().Tracer("atsscore/ats"),
		recorder: nopRecorder{},
		logger:   errors.Discard(),
	}
	e.checker = newChecker(&e.cfg, verbs)
	e.checks = e.checker.checks()

	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Config returns the scoring configuration the engine was built with.
func (e *Engine) Config() ScoringConfig {
	return e.cfg
}

// Analyze validates req, runs every check and returns the report. Only
// validation errors and context cancellation are returned; a failing check
// degrades its own section.
func (e *Engine) Analyze(ctx context.Context, req *types.AnalysisRequest) (*types.ATSReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()

	ctx, span := e.tracer.Start(ctx, "ats.analyze")
	defer span.End()

	in, err := Normalize(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid request")
		return nil, err
	}
	span.SetAttributes(
		attribute.String("ats.file_type", in.FileType),
		attribute.String("ats.language", in.Language),
		attribute.Int("ats.word_count", in.WordCount),
	)

	results := make([]types.Section, len(e.checks))
	var g errgroup.Group
	if e.parallelism > 0 {
		g.SetLimit(e.parallelism)
	}
	for i, chk := range e.checks {
		i, chk := i, chk
		g.Go(func() error {
			results[i] = e.runCheck(ctx, chk, in)
			return nil
		})
	}
	_ = g.Wait()

	report := e.assemble(in, results)

	span.SetAttributes(
		attribute.Int("ats.global_score", report.GlobalScore),
		attribute.Int("ats.issues_count", report.IssuesCount),
	)
	e.recorder.RecordAnalysis(ctx, report, time.Since(start))
	e.logger.Debug("Analysis completed",
		"global_score", report.GlobalScore,
		"issues_count", report.IssuesCount,
		"word_count", report.WordCount,
		"duration_ms", time.Since(start).Milliseconds())

	return report, nil
}

// runCheck executes one check behind the guard and a recover boundary.
func (e *Engine) runCheck(ctx context.Context, chk check, in *Input) types.Section {
	ctx, span := e.tracer.Start(ctx, "ats.check."+string(chk.key))
	defer span.End()
	start := time.Now()

	exec := func() (sec types.Section, err error) {
		defer func() {
			if r := recover(); r != nil {
				err = errors.NewCheckError(errors.ErrCodeCheckPanicked,
					fmt.Sprintf("check %s panicked", chk.key), fmt.Errorf("%v", r)).
					WithContext("section", string(chk.key))
			}
		}()
		sec = chk.run(in)
		if sec == nil {
			return nil, errors.NewCheckError(errors.ErrCodeCheckPanicked,
				fmt.Sprintf("check %s returned no result", chk.key), nil)
		}
		return sec, nil
	}

	var (
		sec types.Section
		err error
	)
	if e.guard != nil {
		sec, err = e.guard.Execute(chk.key, exec)
	} else {
		sec, err = exec()
	}

	failed := err != nil
	if failed {
		span.RecordError(err)
		span.SetStatus(codes.Error, "check degraded")
		e.logger.LogError(err, "Scoring check failed, section degraded", "section", string(chk.key))
		sec = degradedSection(chk.key)
	} else {
		r := sec.Result()
		r.Score = clampScore(r.Score)
	}
	span.SetAttributes(attribute.Int("ats.section_score", sec.Result().Score))

	e.recorder.RecordCheck(ctx, chk.key, time.Since(start), failed)
	return sec
}

func (e *Engine) assemble(in *Input, results []types.Section) *types.ATSReport {
	report := &types.ATSReport{
		LanguageUsed:       e.cfg.ReportLanguage,
		ParseCoverageRatio: in.ParseCoverageRatio,
		WordCount:          in.WordCount,
		BulletCount:        in.BulletCount,
		UITexts:            UITexts(e.cfg.ReportLanguage),
	}
	for _, sec := range results {
		report.Sections.Set(sec)
	}

	report.Pillars = e.cfg.pillarScores(&report.Sections)
	report.GlobalScore = e.cfg.globalScore(report.Pillars)
	report.IssuesCount = e.cfg.countIssues(&report.Sections)
	report.OverallComment = e.cfg.OverallComment(report.GlobalScore)
	return report
}

const (
	degradedExplanation = "This section could not be evaluated because of an internal error. The rest of the report is unaffected."
	degradedSuggestion  = "Run the analysis again later to get feedback on this section."
)

// degradedSection is the placeholder for a check that failed.
func degradedSection(key types.SectionKey) types.Section {
	base := types.SectionResult{
		Score:       0,
		Status:      types.StatusPoor,
		Headline:    Headline(key),
		Explanation: degradedExplanation,
		Suggestions: []string{degradedSuggestion},
		Degraded:    true,
	}

	switch key {
	case types.SectionParseRate:
		return &types.ParseRateSection{SectionResult: base}
	case types.SectionDesign:
		return &types.DesignSection{SectionResult: base}
	case types.SectionKeywords:
		return &types.KeywordsSection{SectionResult: base,
			PresentKeywords: []types.KeywordItem{}, MissingKeywords: []types.KeywordItem{}}
	case types.SectionImpact:
		return &types.ImpactSection{SectionResult: base,
			Examples: []types.BulletExample{}, GeneralTips: []string{}, EducationalExamples: []types.EducationalExample{}}
	case types.SectionRepetition:
		return &types.RepetitionSection{SectionResult: base,
			TopRepeatedWords: []types.RepeatedWord{}, BuzzwordsToAvoid: []string{}}
	case types.SectionGrammar:
		return &types.GrammarSection{SectionResult: base,
			Issues: []types.GrammarIssue{}, GeneralTips: []string{}}
	case types.SectionEssentials:
		return &types.EssentialsSection{SectionResult: base, OtherSections: []string{}}
	case types.SectionContact:
		return &types.ContactSection{SectionResult: base}
	case types.SectionFileFormat:
		return &types.FileFormatSection{SectionResult: base}
	case types.SectionLength:
		return &types.LengthSection{SectionResult: base, LongBulletsExamples: []types.LongBullet{}}
	case types.SectionStyle:
		return &types.StyleSection{SectionResult: base, Examples: []types.StyleExample{}}
	default:
		return &types.TemplatesSection{SectionResult: base, RecommendedTemplates: []types.TemplateRecommendation{}}
	}
}
