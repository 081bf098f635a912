package ats

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"atsscore/internal/errors"
	"atsscore/internal/lexicon"
	"atsscore/internal/types"
)

// Pillar names as they appear on the report.
const (
	PillarTechnical = "technical_ats"
	PillarContent   = "content_quality"
	PillarImpact    = "impact_specificity"
	PillarRelevance = "relevance_keywords"
)

var pillarNames = []string{PillarTechnical, PillarContent, PillarImpact, PillarRelevance}

const weightTolerance = 1e-9

// Weight is the share of one section inside a pillar.
type Weight struct {
	Section types.SectionKey
	Weight  float64
}

// Pillar is a named convex combination of section scores.
type Pillar struct {
	Name    string
	Weights []Weight
}

// Thresholds maps a score to a status band.
type Thresholds struct {
	Excellent        int
	Good             int
	NeedsImprovement int
}

// Status returns the band score falls into.
func (t Thresholds) Status(score int) types.Status {
	switch {
	case score >= t.Excellent:
		return types.StatusExcellent
	case score >= t.Good:
		return types.StatusGood
	case score >= t.NeedsImprovement:
		return types.StatusNeedsImprovement
	default:
		return types.StatusPoor
	}
}

// CommentBand is one step of the overall comment scale.
type CommentBand struct {
	Min  int
	Text string
}

// WordLists are the vocabulary lists the checks match against.
type WordLists struct {
	StrongVerbs  []string
	GenericVerbs []string
	Buzzwords    []string
	SafeFonts    []string
	Stopwords    []string
}

// ParseRateRules tunes the ATS parse rate check.
type ParseRateRules struct {
	MinCoverage              float64
	CoveragePenalty          int
	MissingExperiencePenalty int
	MissingEducationPenalty  int
	MissingSkillsPenalty     int
	ShortLineChars           int
	ShortLineRatio           float64
	ColumnPenalty            int
	DateFormatPenalty        int
	// PositiveNoteMin is the score from which a clean résumé gets a positive note.
	PositiveNoteMin int
	PreviewChars    int
}

// DesignRules tunes the design and layout check.
type DesignRules struct {
	UnsafeFontPenalty    int
	NoBulletWordLimit    int
	NoBulletPenalty      int
	FewBulletMax         int
	FewBulletWordLimit   int
	FewBulletPenalty     int
	LongParagraphWords   int
	LongParagraphMax     int
	LongParagraphPenalty int
	ShortLineChars       int
	ShortLineRatio       float64
	ColumnPenalty        int
	BoxGlyphMax          int
	BoxGlyphPenalty      int
}

// KeywordRules tunes the keyword relevance check.
type KeywordRules struct {
	BaselineScore  int
	MaxKeywords    int
	FrequentTerms  int
	FrequencyPool  int
	MissingSurface int
}

// ImpactRules tunes the quantify impact check.
type ImpactRules struct {
	SampleSize          int
	WorstExamples       int
	NoBulletScore       int
	StrongVerbWeight    float64
	MetricWeight        float64
	ClarityWeight       float64
	NoVerbPenalty       int
	NoMetricPenalty     int
	VaguePenalty        int
	NoTechnicalPenalty  int
	TooLongPenalty      int
	TooLongWords        int
	FallbackMinChars    int
	FallbackMaxChars    int
	FallbackSampleLines int
}

// RepetitionRules tunes the repetition check.
type RepetitionRules struct {
	TopWords           int
	Surfaced           int
	OveruseCount       int
	ProblematicPenalty int
	BuzzwordPenalty    int
	GoodScore          int
}

// GrammarRules tunes the grammar check.
type GrammarRules struct {
	MaxIssues    int
	IssuePenalty int
	TenseGap     int
	TensePenalty int
	// Acronyms are flagged when written in lowercase.
	Acronyms []string
}

// EssentialRules are the points each required section is worth.
type EssentialRules struct {
	Experience int
	Education  int
	Skills     int
}

// ContactRules are the points each contact detail is worth.
type ContactRules struct {
	Email             int
	ProfessionalEmail int
	Phone             int
	Location          int
	Link              int
	MaxEmailDigits    int
}

// FileFormatRules tunes the file format check.
type FileFormatRules struct {
	Preferred     []string
	Images        []string
	MaxSizeKB     float64
	ImagePenalty  int
	FormatPenalty int
	SizePenalty   int
}

// LengthRules tunes the length and bullet density check.
type LengthRules struct {
	MinWords           int
	MaxWords           int
	DenseWords         int
	LengthPenalty      int
	DensePenalty       int
	LongBulletWords    int
	LongBulletExamples int
	LongBulletPenalty  int
	ShortenTo          int
	OnePageWords       int
	TwoPageWords       int
}

// StyleRules tunes the style check.
type StyleRules struct {
	PassivePenalty     int
	FirstPersonPenalty int
	JargonPenalty      int
	ScannedBullets     int
	MaxExamples        int
	PositiveNoteMin    int
}

// TemplateRules tunes the template suggestions.
type TemplateRules struct {
	MaxRecommendations int
	SeniorYears        float64
}

// IssueRules tunes the issue count.
type IssueRules struct {
	ParseRateLowScore int
	MissingKeywordCap int
}

// ScoringConfig holds every weight, threshold and word list the engine uses.
// Treat it as immutable once handed to New.
type ScoringConfig struct {
	Pillars     []Pillar
	PillarShare float64

	Thresholds         Thresholds
	ThresholdOverrides map[types.SectionKey]Thresholds
	Comments           []CommentBand

	// ReportLanguage selects UI texts, FAQs and educational examples.
	ReportLanguage string

	Words WordLists

	ParseRate  ParseRateRules
	Design     DesignRules
	Keywords   KeywordRules
	Impact     ImpactRules
	Repetition RepetitionRules
	Grammar    GrammarRules
	Essentials EssentialRules
	Contact    ContactRules
	FileFormat FileFormatRules
	Length     LengthRules
	Style      StyleRules
	Templates  TemplateRules
	Issues     IssueRules
}

// DefaultScoringConfig returns the production weights and rules with word
// lists taken from lex.
func DefaultScoringConfig(lex *lexicon.Lexicon) ScoringConfig {
	if lex == nil {
		lex = lexicon.MustDefault()
	}

	return ScoringConfig{
		Pillars: []Pillar{
			{Name: PillarTechnical, Weights: []Weight{
				{types.SectionParseRate, 0.35},
				{types.SectionDesign, 0.25},
				{types.SectionFileFormat, 0.20},
				{types.SectionEssentials, 0.20},
			}},
			{Name: PillarContent, Weights: []Weight{
				{types.SectionGrammar, 0.30},
				{types.SectionStyle, 0.25},
				{types.SectionLength, 0.25},
				{types.SectionRepetition, 0.20},
			}},
			{Name: PillarImpact, Weights: []Weight{
				{types.SectionImpact, 0.75},
				{types.SectionContact, 0.25},
			}},
			{Name: PillarRelevance, Weights: []Weight{
				{types.SectionKeywords, 1.0},
			}},
		},
		PillarShare: 0.25,

		Thresholds:         Thresholds{Excellent: 90, Good: 75, NeedsImprovement: 50},
		ThresholdOverrides: map[types.SectionKey]Thresholds{},
		Comments: []CommentBand{
			{Min: 90, Text: "Excellent! Your resume is ATS-ready and well-crafted."},
			{Min: 80, Text: "Very good! Your resume is strong with only minor improvements needed."},
			{Min: 60, Text: "Fair. Your resume has several issues that should be addressed."},
			{Min: 40, Text: "Weak. Your resume has significant issues that may hurt your chances."},
			{Min: 0, Text: "Poor. Your resume needs major improvements to pass ATS systems."},
		},

		ReportLanguage: lexicon.DefaultLanguage,

		Words: WordLists{
			StrongVerbs:  lex.StrongVerbs,
			GenericVerbs: lex.GenericVerbs,
			Buzzwords:    lex.Buzzwords,
			SafeFonts:    lex.SafeFonts,
			Stopwords:    lex.AllStopwords(),
		},

		ParseRate: ParseRateRules{
			MinCoverage:              0.8,
			CoveragePenalty:          20,
			MissingExperiencePenalty: 15,
			MissingEducationPenalty:  10,
			MissingSkillsPenalty:     10,
			ShortLineChars:           30,
			ShortLineRatio:           0.4,
			ColumnPenalty:            10,
			DateFormatPenalty:        5,
			PositiveNoteMin:          85,
			PreviewChars:             200,
		},
		Design: DesignRules{
			UnsafeFontPenalty:    15,
			NoBulletWordLimit:    300,
			NoBulletPenalty:      20,
			FewBulletMax:         5,
			FewBulletWordLimit:   500,
			FewBulletPenalty:     10,
			LongParagraphWords:   100,
			LongParagraphMax:     2,
			LongParagraphPenalty: 15,
			ShortLineChars:       25,
			ShortLineRatio:       0.4,
			ColumnPenalty:        10,
			BoxGlyphMax:          5,
			BoxGlyphPenalty:      10,
		},
		Keywords: KeywordRules{
			BaselineScore:  75,
			MaxKeywords:    25,
			FrequentTerms:  10,
			FrequencyPool:  30,
			MissingSurface: 5,
		},
		Impact: ImpactRules{
			SampleSize:          15,
			WorstExamples:       2,
			NoBulletScore:       50,
			StrongVerbWeight:    40,
			MetricWeight:        40,
			ClarityWeight:       20,
			NoVerbPenalty:       30,
			NoMetricPenalty:     10,
			VaguePenalty:        20,
			NoTechnicalPenalty:  20,
			TooLongPenalty:      10,
			TooLongWords:        22,
			FallbackMinChars:    20,
			FallbackMaxChars:    200,
			FallbackSampleLines: 15,
		},
		Repetition: RepetitionRules{
			TopWords:           15,
			Surfaced:           10,
			OveruseCount:       5,
			ProblematicPenalty: 3,
			BuzzwordPenalty:    5,
			GoodScore:          80,
		},
		Grammar: GrammarRules{
			MaxIssues:    15,
			IssuePenalty: 3,
			TenseGap:     2,
			TensePenalty: 10,
			Acronyms:     []string{"ceo", "cto", "cfo", "hr", "it"},
		},
		Essentials: EssentialRules{Experience: 40, Education: 30, Skills: 30},
		Contact: ContactRules{
			Email:             30,
			ProfessionalEmail: 20,
			Phone:             20,
			Location:          10,
			Link:              20,
			MaxEmailDigits:    3,
		},
		FileFormat: FileFormatRules{
			Preferred:     []string{"pdf", "docx", "doc"},
			Images:        []string{"png", "jpg", "jpeg", "gif", "bmp", "tiff"},
			MaxSizeKB:     2000,
			ImagePenalty:  40,
			FormatPenalty: 20,
			SizePenalty:   15,
		},
		Length: LengthRules{
			MinWords:           250,
			MaxWords:           1200,
			DenseWords:         800,
			LengthPenalty:      20,
			DensePenalty:       5,
			LongBulletWords:    35,
			LongBulletExamples: 5,
			LongBulletPenalty:  5,
			ShortenTo:          25,
			OnePageWords:       550,
			TwoPageWords:       1100,
		},
		Style: StyleRules{
			PassivePenalty:     3,
			FirstPersonPenalty: 2,
			JargonPenalty:      5,
			ScannedBullets:     10,
			MaxExamples:        5,
			PositiveNoteMin:    85,
		},
		Templates: TemplateRules{MaxRecommendations: 3, SeniorYears: 10},
		Issues:    IssueRules{ParseRateLowScore: 70, MissingKeywordCap: 5},
	}
}

// StatusFor returns the status of a section score, honouring per-section
// overrides.
func (c *ScoringConfig) StatusFor(key types.SectionKey, score int) types.Status {
	if t, ok := c.ThresholdOverrides[key]; ok {
		return t.Status(score)
	}
	return c.Thresholds.Status(score)
}

// OverallComment returns the comment of the first band score reaches.
func (c *ScoringConfig) OverallComment(score int) string {
	for _, band := range c.Comments {
		if score >= band.Min {
			return band.Text
		}
	}
	return c.Comments[len(c.Comments)-1].Text
}

// WithWeights returns a copy of the config with the given pillar weights
// replaced. Keys are pillar names, then section keys. Pillars not named keep
// their weights. The result is validated.
func (c ScoringConfig) WithWeights(overrides map[string]map[string]float64) (ScoringConfig, error) {
	if len(overrides) == 0 {
		return c, nil
	}

	pillars := make([]Pillar, len(c.Pillars))
	copy(pillars, c.Pillars)

	for name, weights := range overrides {
		idx := -1
		for i := range pillars {
			if pillars[i].Name == name {
				idx = i
				break
			}
		}
		if idx < 0 {
			return c, errors.NewConfigError(errors.ErrCodeInvalidConfig,
				fmt.Sprintf("unknown pillar '%s' in weight overrides", name), nil)
		}

		keys := make([]string, 0, len(weights))
		for key := range weights {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		replaced := make([]Weight, 0, len(keys))
		for _, key := range keys {
			replaced = append(replaced, Weight{Section: types.SectionKey(key), Weight: weights[key]})
		}
		pillars[idx] = Pillar{Name: name, Weights: replaced}
	}

	c.Pillars = pillars
	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}

// Validate checks the weight tables and thresholds.
func (c *ScoringConfig) Validate() error {
	if len(c.Pillars) != len(pillarNames) {
		return configError("expected %d pillars, got %d", len(pillarNames), len(c.Pillars))
	}
	if math.Abs(c.PillarShare*float64(len(c.Pillars))-1.0) > weightTolerance {
		return configError("pillar shares must sum to 1.0, got %.4f", c.PillarShare*float64(len(c.Pillars)))
	}

	seen := make(map[string]bool, len(c.Pillars))
	for _, p := range c.Pillars {
		if !isPillarName(p.Name) {
			return configError("unknown pillar '%s'", p.Name)
		}
		if seen[p.Name] {
			return configError("pillar '%s' is defined twice", p.Name)
		}
		seen[p.Name] = true

		if len(p.Weights) == 0 {
			return configError("pillar '%s' has no weights", p.Name)
		}
		var sum float64
		for _, w := range p.Weights {
			if !isScoredSection(w.Section) {
				return configError("pillar '%s' references unknown or unscored section '%s'", p.Name, w.Section)
			}
			if w.Weight < 0 {
				return configError("pillar '%s' has a negative weight for '%s'", p.Name, w.Section)
			}
			sum += w.Weight
		}
		if math.Abs(sum-1.0) > weightTolerance {
			return configError("weights of pillar '%s' must sum to 1.0, got %.4f", p.Name, sum)
		}
	}

	if err := validateThresholds("default", c.Thresholds); err != nil {
		return err
	}
	for key, t := range c.ThresholdOverrides {
		if err := validateThresholds(string(key), t); err != nil {
			return err
		}
	}

	if len(c.Comments) == 0 {
		return configError("at least one overall comment band is required")
	}
	for i := 1; i < len(c.Comments); i++ {
		if c.Comments[i].Min >= c.Comments[i-1].Min {
			return configError("overall comment bands must be in descending order")
		}
	}

	if len(c.Words.StrongVerbs) == 0 {
		return configError("strong verb list is empty")
	}
	return nil
}

func validateThresholds(name string, t Thresholds) error {
	if t.Excellent > 100 || t.NeedsImprovement < 0 ||
		t.Excellent < t.Good || t.Good < t.NeedsImprovement {
		return configError("thresholds '%s' must satisfy 100 >= excellent >= good >= needs_improvement >= 0", name)
	}
	return nil
}

func isPillarName(name string) bool {
	for _, n := range pillarNames {
		if n == name {
			return true
		}
	}
	return false
}

func isScoredSection(key types.SectionKey) bool {
	if key == types.SectionTemplates {
		return false
	}
	for _, k := range types.SectionKeys {
		if k == key {
			return true
		}
	}
	return false
}

func configError(format string, args ...any) error {
	return errors.NewConfigError(errors.ErrCodeInvalidConfig, fmt.Sprintf(format, args...), nil)
}

// normalizeList lowercases and trims a word list into a set.
func normalizeList(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[strings.ToLower(strings.TrimSpace(w))] = struct{}{}
	}
	return set
}
