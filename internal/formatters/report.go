package formatters

import (
	"fmt"
	"strings"

	"atsscore/internal/types"
)

var sectionTitles = map[types.SectionKey]string{
	types.SectionParseRate:  "ATS Parse Rate",
	types.SectionDesign:     "Design & Layout",
	types.SectionKeywords:   "Keywords & Relevance",
	types.SectionImpact:     "Quantify Impact",
	types.SectionRepetition: "Repetition",
	types.SectionGrammar:    "Grammar & Spelling",
	types.SectionEssentials: "Essential Sections",
	types.SectionContact:    "Contact Information",
	types.SectionFileFormat: "File Format & Size",
	types.SectionLength:     "Length & Bullets",
	types.SectionStyle:      "Style & Active Voice",
	types.SectionTemplates:  "Template Suggestions",
}

func sectionTitle(key types.SectionKey) string {
	if title, ok := sectionTitles[key]; ok {
		return title
	}
	return string(key)
}

func statusLabel(s types.Status) string {
	return strings.ReplaceAll(string(s), "_", " ")
}

// detailLines renders the section-specific findings as plain lines
func detailLines(sec types.Section) []string {
	var lines []string
	switch s := sec.(type) {
	case *types.ParseRateSection:
		lines = append(lines, fmt.Sprintf("Parse rate: %d%%", s.ParseRate))
	case *types.KeywordsSection:
		if missing := keywordNames(s.MissingKeywords); len(missing) > 0 {
			lines = append(lines, "Missing keywords: "+strings.Join(missing, ", "))
		}
		if present := keywordNames(s.PresentKeywords); len(present) > 0 {
			lines = append(lines, "Present keywords: "+strings.Join(present, ", "))
		}
	case *types.ImpactSection:
		for _, ex := range s.Examples {
			lines = append(lines, fmt.Sprintf("%q -> %q (%s)", ex.OriginalBullet, ex.ImprovedBullet, ex.Analysis))
		}
	case *types.RepetitionSection:
		for _, w := range s.TopRepeatedWords {
			if w.IsProblematic {
				lines = append(lines, fmt.Sprintf("Overused: %s (%dx)", w.Word, w.Count))
			}
		}
		if len(s.BuzzwordsToAvoid) > 0 {
			lines = append(lines, "Buzzwords: "+strings.Join(s.BuzzwordsToAvoid, ", "))
		}
	case *types.GrammarSection:
		for _, issue := range s.Issues {
			lines = append(lines, fmt.Sprintf("%s: %q -> %q", issue.ErrorType, issue.OriginalText, issue.CorrectedText))
		}
	case *types.ContactSection:
		lines = append(lines, fmt.Sprintf("Email: %t, phone: %t, location: %t, link: %t",
			s.HasEmail, s.HasPhone, s.HasLocation, s.HasLinkedInOrWebsite))
	case *types.FileFormatSection:
		lines = append(lines, fmt.Sprintf("File: %s, %.1f KB", s.FileType, s.FileSizeKB))
	case *types.LengthSection:
		lines = append(lines, "Estimated pages: "+s.EstimatedPages)
		for _, b := range s.LongBulletsExamples {
			lines = append(lines, fmt.Sprintf("Long bullet: %q", b.OriginalBullet))
		}
	case *types.StyleSection:
		for _, ex := range s.Examples {
			lines = append(lines, fmt.Sprintf("%q -> %q", ex.OriginalText, ex.ImprovedText))
		}
	case *types.TemplatesSection:
		for _, rec := range s.RecommendedTemplates {
			lines = append(lines, fmt.Sprintf("Template %s: %s", rec.TemplateName, rec.Reason))
		}
	}
	return lines
}

func keywordNames(items []types.KeywordItem) []string {
	names := make([]string, 0, len(items))
	for _, item := range items {
		names = append(names, item.Keyword)
	}
	return names
}

// ReportTextFormatter handles text formatting for ATS reports
type ReportTextFormatter struct{}

func (rtf *ReportTextFormatter) Format(data any) (string, error) {
	report, err := asReport(data)
	if err != nil {
		return "", err
	}

	var output strings.Builder

	output.WriteString("=== ATS REPORT ===\n")
	output.WriteString(fmt.Sprintf("Global score: %d/100\n", report.GlobalScore))
	output.WriteString(fmt.Sprintf("Issues found: %d\n", report.IssuesCount))
	output.WriteString(report.OverallComment)
	output.WriteString("\n\n")

	output.WriteString("=== PILLARS ===\n")
	output.WriteString(fmt.Sprintf("Technical ATS:       %5.1f\n", report.Pillars.TechnicalATS))
	output.WriteString(fmt.Sprintf("Content quality:     %5.1f\n", report.Pillars.ContentQuality))
	output.WriteString(fmt.Sprintf("Impact/specificity:  %5.1f\n", report.Pillars.ImpactSpecificity))
	output.WriteString(fmt.Sprintf("Relevance/keywords:  %5.1f\n", report.Pillars.RelevanceKeywords))
	output.WriteString(fmt.Sprintf("\nWords: %d, bullets: %d, parse coverage: %.0f%%\n\n",
		report.WordCount, report.BulletCount, report.ParseCoverageRatio*100))

	for _, key := range types.SectionKeys {
		sec := report.Sections.Get(key)
		if sec == nil {
			continue
		}
		r := sec.Result()

		output.WriteString(fmt.Sprintf("=== %s ===\n", strings.ToUpper(sectionTitle(key))))
		output.WriteString(fmt.Sprintf("Score: %d/100 (%s)\n", r.Score, statusLabel(r.Status)))
		if r.Degraded {
			output.WriteString("This check could not run; the score is a placeholder.\n")
		}
		if r.Headline != "" {
			output.WriteString(r.Headline)
			output.WriteString("\n")
		}
		for _, line := range detailLines(sec) {
			output.WriteString("  ")
			output.WriteString(line)
			output.WriteString("\n")
		}
		for _, suggestion := range r.Suggestions {
			output.WriteString(fmt.Sprintf("  - %s\n", suggestion))
		}
		output.WriteString("\n")
	}

	return output.String(), nil
}

func (rtf *ReportTextFormatter) SupportedType() string {
	return "ATSReport"
}

// ReportMarkdownFormatter handles markdown formatting for ATS reports
type ReportMarkdownFormatter struct{}

func (rmf *ReportMarkdownFormatter) Format(data any) (string, error) {
	report, err := asReport(data)
	if err != nil {
		return "", err
	}

	var output strings.Builder

	output.WriteString("# ATS Report\n\n")
	output.WriteString(fmt.Sprintf("**Global Score:** %d/100\n\n", report.GlobalScore))
	output.WriteString(fmt.Sprintf("**Issues Found:** %d\n\n", report.IssuesCount))
	output.WriteString(fmt.Sprintf("> %s\n\n", report.OverallComment))

	output.WriteString("## Pillars\n\n")
	output.WriteString("| Pillar | Score |\n|---|---|\n")
	output.WriteString(fmt.Sprintf("| Technical ATS | %.1f |\n", report.Pillars.TechnicalATS))
	output.WriteString(fmt.Sprintf("| Content Quality | %.1f |\n", report.Pillars.ContentQuality))
	output.WriteString(fmt.Sprintf("| Impact & Specificity | %.1f |\n", report.Pillars.ImpactSpecificity))
	output.WriteString(fmt.Sprintf("| Relevance & Keywords | %.1f |\n\n", report.Pillars.RelevanceKeywords))

	output.WriteString("## Sections\n\n")
	output.WriteString("| Section | Score | Status |\n|---|---|---|\n")
	for _, key := range types.SectionKeys {
		if sec := report.Sections.Get(key); sec != nil {
			r := sec.Result()
			output.WriteString(fmt.Sprintf("| %s | %d | %s |\n", sectionTitle(key), r.Score, statusLabel(r.Status)))
		}
	}
	output.WriteString("\n")

	for _, key := range types.SectionKeys {
		sec := report.Sections.Get(key)
		if sec == nil {
			continue
		}
		r := sec.Result()

		output.WriteString(fmt.Sprintf("### %s\n\n", sectionTitle(key)))
		if r.Headline != "" {
			output.WriteString(fmt.Sprintf("**%s**\n\n", r.Headline))
		}
		if r.Explanation != "" {
			output.WriteString(r.Explanation)
			output.WriteString("\n\n")
		}
		if details := detailLines(sec); len(details) > 0 {
			for _, line := range details {
				output.WriteString(fmt.Sprintf("- %s\n", line))
			}
			output.WriteString("\n")
		}
		if len(r.Suggestions) > 0 {
			output.WriteString("#### Suggestions\n")
			for _, suggestion := range r.Suggestions {
				output.WriteString(fmt.Sprintf("- %s\n", suggestion))
			}
			output.WriteString("\n")
		}
	}

	return output.String(), nil
}

func (rmf *ReportMarkdownFormatter) SupportedType() string {
	return "ATSReport"
}
