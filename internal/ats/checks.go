package ats

import (
	"regexp"
	"strings"

	"atsscore/internal/lexicon"
	"atsscore/internal/types"
)

// VerbBank supplies action verbs by category and language code.
type VerbBank interface {
	Lookup(category, lang string) []string
}

var impactVerbCategories = []string{
	lexicon.CategoryLeadership,
	lexicon.CategoryWorkedOn,
	lexicon.CategoryImproved,
	lexicon.CategoryAchievement,
}

// check is one independent evaluator. run must not mutate in.
type check struct {
	key types.SectionKey
	run func(in *Input) types.Section
}

// checker carries the lookups derived from a ScoringConfig. Everything in it
// is read-only after newChecker returns.
type checker struct {
	cfg   *ScoringConfig
	verbs VerbBank

	strongVerbs  map[string]struct{}
	genericVerbs map[string]struct{}
	stopwords    map[string]struct{}
	safeFonts    map[string]struct{}
	preferred    map[string]struct{}
	images       map[string]struct{}

	knownIssues []grammarPattern
}

func newChecker(cfg *ScoringConfig, verbs VerbBank) *checker {
	c := &checker{
		cfg:          cfg,
		verbs:        verbs,
		strongVerbs:  normalizeList(cfg.Words.StrongVerbs),
		genericVerbs: normalizeList(cfg.Words.GenericVerbs),
		stopwords:    normalizeList(cfg.Words.Stopwords),
		safeFonts:    normalizeList(cfg.Words.SafeFonts),
		preferred:    normalizeList(cfg.FileFormat.Preferred),
		images:       normalizeList(cfg.FileFormat.Images),
	}

	var acronymRe *regexp.Regexp
	if len(cfg.Grammar.Acronyms) > 0 {
		quoted := make([]string, len(cfg.Grammar.Acronyms))
		for i, a := range cfg.Grammar.Acronyms {
			quoted[i] = regexp.QuoteMeta(strings.ToLower(a))
		}
		acronymRe = regexp.MustCompile(`\b(` + strings.Join(quoted, "|") + `)\b`)
	}
	c.knownIssues = buildGrammarPatterns(acronymRe)
	return c
}

// checks lists the evaluators in report order.
func (c *checker) checks() []check {
	return []check{
		{types.SectionParseRate, func(in *Input) types.Section { return c.parseRate(in) }},
		{types.SectionDesign, func(in *Input) types.Section { return c.designLayout(in) }},
		{types.SectionKeywords, func(in *Input) types.Section { return c.keywords(in) }},
		{types.SectionImpact, func(in *Input) types.Section { return c.quantifyImpact(in) }},
		{types.SectionRepetition, func(in *Input) types.Section { return c.repetition(in) }},
		{types.SectionGrammar, func(in *Input) types.Section { return c.grammar(in) }},
		{types.SectionEssentials, func(in *Input) types.Section { return c.essentialSections(in) }},
		{types.SectionContact, func(in *Input) types.Section { return c.contactInfo(in) }},
		{types.SectionFileFormat, func(in *Input) types.Section { return c.fileFormat(in) }},
		{types.SectionLength, func(in *Input) types.Section { return c.lengthAndBullets(in) }},
		{types.SectionStyle, func(in *Input) types.Section { return c.style(in) }},
		{types.SectionTemplates, func(in *Input) types.Section { return c.templates(in) }},
	}
}

func (c *checker) faqs(key types.SectionKey) []types.FAQ {
	return FAQs(key, c.cfg.ReportLanguage)
}

func has(set map[string]struct{}, word string) bool {
	_, ok := set[strings.ToLower(word)]
	return ok
}

// result fills the shared part of a section. Status comes from the raw score;
// the engine clamps the score afterwards.
func (c *checker) result(key types.SectionKey, score int, explanation string, suggestions []string) types.SectionResult {
	if suggestions == nil {
		suggestions = []string{}
	}
	return types.SectionResult{
		Score:       score,
		Status:      c.cfg.StatusFor(key, score),
		Headline:    Headline(key),
		Explanation: explanation,
		Suggestions: suggestions,
	}
}
