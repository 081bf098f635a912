package ats

import (
	"testing"

	"atsscore/internal/errors"
	"atsscore/internal/lexicon"
	"atsscore/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultConfig() ScoringConfig {
	return DefaultScoringConfig(lexicon.MustDefault())
}

func TestDefaultScoringConfig(t *testing.T) {
	cfg := defaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Len(t, cfg.Pillars, 4)
	assert.Equal(t, 0.25, cfg.PillarShare)
	assert.Equal(t, "en", cfg.ReportLanguage)
	assert.NotEmpty(t, cfg.Words.StrongVerbs)
	assert.Contains(t, cfg.Words.Stopwords, "the")

	nilLex := DefaultScoringConfig(nil)
	assert.Equal(t, cfg.Words.StrongVerbs, nilLex.Words.StrongVerbs)
}

func TestThresholdsStatus(t *testing.T) {
	th := defaultConfig().Thresholds
	tests := []struct {
		score int
		want  types.Status
	}{
		{100, types.StatusExcellent},
		{90, types.StatusExcellent},
		{89, types.StatusGood},
		{75, types.StatusGood},
		{74, types.StatusNeedsImprovement},
		{50, types.StatusNeedsImprovement},
		{49, types.StatusPoor},
		{0, types.StatusPoor},
		{-10, types.StatusPoor},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, th.Status(tt.score), "score %d", tt.score)
	}
}

func TestStatusForOverride(t *testing.T) {
	cfg := defaultConfig()
	cfg.ThresholdOverrides = map[types.SectionKey]Thresholds{
		types.SectionGrammar: {Excellent: 95, Good: 85, NeedsImprovement: 70},
	}

	assert.Equal(t, types.StatusGood, cfg.StatusFor(types.SectionGrammar, 90))
	assert.Equal(t, types.StatusExcellent, cfg.StatusFor(types.SectionStyle, 90))
}

func TestOverallComment(t *testing.T) {
	cfg := defaultConfig()
	tests := []struct {
		score  int
		prefix string
	}{
		{100, "Excellent!"},
		{90, "Excellent!"},
		{89, "Very good!"},
		{80, "Very good!"},
		{79, "Fair."},
		{60, "Fair."},
		{59, "Weak."},
		{40, "Weak."},
		{39, "Poor."},
		{0, "Poor."},
	}

	for _, tt := range tests {
		assert.Contains(t, cfg.OverallComment(tt.score), tt.prefix, "score %d", tt.score)
	}
}

func TestWithWeights(t *testing.T) {
	cfg := defaultConfig()

	t.Run("replaces one pillar", func(t *testing.T) {
		updated, err := cfg.WithWeights(map[string]map[string]float64{
			PillarImpact: {"quantify_impact": 0.5, "contact_info": 0.5},
		})
		require.NoError(t, err)

		for _, p := range updated.Pillars {
			if p.Name == PillarImpact {
				assert.Equal(t, []Weight{
					{types.SectionContact, 0.5},
					{types.SectionImpact, 0.5},
				}, p.Weights)
			}
		}
		// The receiver keeps its own weights.
		assert.Equal(t, 0.75, cfg.Pillars[2].Weights[0].Weight)
	})

	t.Run("empty overrides", func(t *testing.T) {
		updated, err := cfg.WithWeights(nil)
		require.NoError(t, err)
		assert.Equal(t, cfg.Pillars, updated.Pillars)
	})

	errorCases := []struct {
		name      string
		overrides map[string]map[string]float64
	}{
		{"unknown pillar", map[string]map[string]float64{"vibes": {"repetition": 1}}},
		{"weights do not sum to one", map[string]map[string]float64{PillarImpact: {"quantify_impact": 0.5, "contact_info": 0.4}}},
		{"unknown section", map[string]map[string]float64{PillarRelevance: {"cover_letter": 1}}},
		{"advisory section", map[string]map[string]float64{PillarRelevance: {"template_suggestions": 1}}},
		{"negative weight", map[string]map[string]float64{PillarImpact: {"quantify_impact": 1.2, "contact_info": -0.2}}},
	}
	for _, tt := range errorCases {
		t.Run(tt.name, func(t *testing.T) {
			_, err := cfg.WithWeights(tt.overrides)
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *ScoringConfig)
	}{
		{"missing pillar", func(c *ScoringConfig) { c.Pillars = c.Pillars[:3] }},
		{"bad share", func(c *ScoringConfig) { c.PillarShare = 0.3 }},
		{"duplicate pillar", func(c *ScoringConfig) {
			c.Pillars = append([]Pillar{}, c.Pillars...)
			c.Pillars[3] = Pillar{Name: PillarTechnical, Weights: c.Pillars[0].Weights}
		}},
		{"empty pillar", func(c *ScoringConfig) {
			c.Pillars = append([]Pillar{}, c.Pillars...)
			c.Pillars[3] = Pillar{Name: PillarRelevance}
		}},
		{"unordered thresholds", func(c *ScoringConfig) { c.Thresholds = Thresholds{Excellent: 70, Good: 80, NeedsImprovement: 50} }},
		{"threshold above 100", func(c *ScoringConfig) { c.Thresholds.Excellent = 101 }},
		{"bad override", func(c *ScoringConfig) {
			c.ThresholdOverrides = map[types.SectionKey]Thresholds{types.SectionStyle: {Excellent: 10, Good: 20}}
		}},
		{"no comments", func(c *ScoringConfig) { c.Comments = nil }},
		{"ascending comments", func(c *ScoringConfig) {
			c.Comments = []CommentBand{{Min: 0, Text: "low"}, {Min: 50, Text: "high"}}
		}},
		{"no strong verbs", func(c *ScoringConfig) { c.Words.StrongVerbs = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
		})
	}
}
