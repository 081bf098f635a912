package ats

import (
	"testing"

	"atsscore/internal/types"

	"github.com/stretchr/testify/assert"
)

// sectionsWithScores fills every section with the same bare result.
func sectionsWithScores(score int) *types.Sections {
	s := &types.Sections{}
	for _, key := range types.SectionKeys {
		sec := degradedSection(key)
		*sec.Result() = types.SectionResult{Score: score, Status: types.StatusExcellent, Suggestions: []string{}}
		s.Set(sec)
	}
	return s
}

func TestPillarScores(t *testing.T) {
	cfg := defaultConfig()
	s := sectionsWithScores(100)
	// Each override sits in a different pillar; templates carry no weight.
	s.ParseRate.Score = 60
	s.Grammar.Score = 50
	s.Contact.Score = 20
	s.Keywords.Score = 76
	s.Templates.Score = 0

	p := cfg.pillarScores(s)
	assert.InDelta(t, 86.0, p.TechnicalATS, 1e-9)
	assert.InDelta(t, 85.0, p.ContentQuality, 1e-9)
	assert.InDelta(t, 80.0, p.ImpactSpecificity, 1e-9)
	assert.InDelta(t, 76.0, p.RelevanceKeywords, 1e-9)

	// (86 + 85 + 80 + 76) / 4 = 81.75
	assert.Equal(t, 82, cfg.globalScore(p))
}

func TestPillarScoresMissingSection(t *testing.T) {
	cfg := defaultConfig()
	s := sectionsWithScores(100)
	s.Keywords = nil

	p := cfg.pillarScores(s)
	assert.Equal(t, 0.0, p.RelevanceKeywords)
	assert.Equal(t, 75, cfg.globalScore(p))
}

func TestGlobalScoreClamped(t *testing.T) {
	cfg := defaultConfig()
	assert.Equal(t, 100, cfg.globalScore(types.Pillars{TechnicalATS: 120, ContentQuality: 120, ImpactSpecificity: 120, RelevanceKeywords: 120}))
	assert.Equal(t, 0, cfg.globalScore(types.Pillars{TechnicalATS: -10}))
	assert.Equal(t, 100, cfg.globalScore(types.Pillars{TechnicalATS: 100, ContentQuality: 100, ImpactSpecificity: 100, RelevanceKeywords: 100}))
}

func TestCountIssues(t *testing.T) {
	cfg := defaultConfig()

	t.Run("clean report", func(t *testing.T) {
		s := sectionsWithScores(100)
		s.Essentials.HasExperience, s.Essentials.HasEducation, s.Essentials.HasSkills = true, true, true
		s.Contact.HasEmail, s.Contact.EmailProfessional, s.Contact.HasLinkedInOrWebsite = true, true, true
		s.FileFormat.FileTypeOK, s.FileFormat.FileSizeOK = true, true
		s.ParseRate.Suggestions = []string{"Excellent structure!"}
		s.Design.Suggestions = []string{"a", "b", "c"}

		assert.Equal(t, 0, cfg.countIssues(s))
	})

	t.Run("findings add up", func(t *testing.T) {
		s := sectionsWithScores(100)
		// skills missing, email not professional, no link, wrong file type
		s.Essentials.HasExperience, s.Essentials.HasEducation = true, true
		s.Contact.HasEmail = true
		s.FileFormat.FileSizeOK = true

		// below the low-score cut, so every suggestion counts
		s.ParseRate.Score, s.ParseRate.Status = 60, types.StatusNeedsImprovement
		s.ParseRate.Suggestions = []string{"a", "b", "c"}

		s.Design.Status = types.StatusGood
		s.Design.Suggestions = []string{"a", "b"}

		s.Keywords.MissingKeywords = make([]types.KeywordItem, 8)
		s.Impact.Examples = make([]types.BulletExample, 2)
		s.Repetition.TopRepeatedWords = []types.RepeatedWord{
			{Word: "managed", Count: 7, IsProblematic: true},
			{Word: "go", Count: 3},
		}
		s.Repetition.BuzzwordsToAvoid = []string{"synergy"}
		s.Grammar.Issues = make([]types.GrammarIssue, 4)
		s.Length.LongBulletsExamples = make([]types.LongBullet, 1)
		s.Style.Examples = make([]types.StyleExample, 2)

		assert.Equal(t, 1+2+1+3+2+5+2+1+1+4+1+2, cfg.countIssues(s))
	})

	t.Run("parse rate needs improvement rounds up half", func(t *testing.T) {
		s := sectionsWithScores(100)
		s.Essentials.HasExperience, s.Essentials.HasEducation, s.Essentials.HasSkills = true, true, true
		s.Contact.HasEmail, s.Contact.EmailProfessional, s.Contact.HasLinkedInOrWebsite = true, true, true
		s.FileFormat.FileTypeOK, s.FileFormat.FileSizeOK = true, true
		s.ParseRate.Score, s.ParseRate.Status = 72, types.StatusNeedsImprovement
		s.ParseRate.Suggestions = []string{"a", "b", "c"}

		assert.Equal(t, 2, cfg.countIssues(s))
	})

	t.Run("degraded sections are skipped", func(t *testing.T) {
		s := &types.Sections{}
		for _, key := range types.SectionKeys {
			s.Set(degradedSection(key))
		}
		assert.Equal(t, 0, cfg.countIssues(s))
	})
}
