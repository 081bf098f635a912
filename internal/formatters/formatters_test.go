package formatters

import (
	"encoding/json"
	"strings"
	"testing"

	"atsscore/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func sampleReport() *types.ATSReport {
	report := &types.ATSReport{
		LanguageUsed:   "en",
		GlobalScore:    72,
		IssuesCount:    3,
		OverallComment: "Good base, a few fixes needed.",
		Pillars: types.Pillars{
			TechnicalATS:      80,
			ContentQuality:    70,
			ImpactSpecificity: 55,
			RelevanceKeywords: 60,
		},
		ParseCoverageRatio: 0.9,
		WordCount:          420,
		BulletCount:        12,
	}
	report.Sections.Set(&types.KeywordsSection{
		SectionResult: types.SectionResult{
			Score:       60,
			Status:      types.StatusNeedsImprovement,
			Headline:    "Some keywords are missing",
			Suggestions: []string{"Mention Kubernetes"},
		},
		PresentKeywords: []types.KeywordItem{{Keyword: "go", Present: true}},
		MissingKeywords: []types.KeywordItem{{Keyword: "kubernetes"}},
	})
	report.Sections.Set(&types.GrammarSection{
		SectionResult: types.SectionResult{Score: 0, Status: types.StatusPoor, Degraded: true},
	})
	return report
}

func TestRegistryFormats(t *testing.T) {
	assert.Equal(t, []string{"json", "markdown", "text", "yaml"}, GlobalRegistry.GetSupportedFormats())
}

func TestJSONFormatter(t *testing.T) {
	out, err := GlobalRegistry.Format(sampleReport(), "json")
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.EqualValues(t, 72, decoded["global_score"])
	assert.True(t, strings.HasSuffix(out, "\n"))
}

func TestTextFormatter(t *testing.T) {
	out, err := GlobalRegistry.Format(sampleReport(), "text")
	require.NoError(t, err)

	assert.Contains(t, out, "=== ATS REPORT ===")
	assert.Contains(t, out, "Global score: 72/100")
	assert.Contains(t, out, "=== KEYWORDS & RELEVANCE ===")
	assert.Contains(t, out, "Missing keywords: kubernetes")
	assert.Contains(t, out, "  - Mention Kubernetes")
	assert.Contains(t, out, "could not run")
	assert.NotContains(t, out, "DESIGN & LAYOUT", "absent sections are skipped")
}

func TestMarkdownFormatter(t *testing.T) {
	report := sampleReport()
	out, err := GlobalRegistry.Format(*report, "markdown")
	require.NoError(t, err)

	assert.Contains(t, out, "# ATS Report")
	assert.Contains(t, out, "**Global Score:** 72/100")
	assert.Contains(t, out, "| Keywords & Relevance | 60 | needs improvement |")
	assert.Contains(t, out, "#### Suggestions\n- Mention Kubernetes")
}

func TestYAMLFormatter(t *testing.T) {
	data := map[string][]string{"leadership": {"led", "managed"}}
	out, err := GlobalRegistry.Format(data, "yaml")
	require.NoError(t, err)

	var decoded map[string][]string
	require.NoError(t, yaml.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, data, decoded)
}

func TestFormatErrors(t *testing.T) {
	_, err := GlobalRegistry.Format(sampleReport(), "pdf")
	require.Error(t, err)

	_, err = GlobalRegistry.Format(map[string]int{"a": 1}, "text")
	require.Error(t, err, "text has no formatter for arbitrary data")

	_, err = (&ReportTextFormatter{}).Format((*types.ATSReport)(nil))
	require.Error(t, err)
}
