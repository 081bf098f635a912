package ats

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"atsscore/internal/types"
)

var (
	creativeTitleRe  = regexp.MustCompile(`(?i)designer|creative|artist|architect|writer`)
	technicalTitleRe = regexp.MustCompile(`(?i)engineer|developer|scientist|analyst|programmer`)
	corporateTitleRe = regexp.MustCompile(`(?i)manager|director|executive|consultant|analyst`)

	simpleTemplateRe       = regexp.MustCompile(`(?i)clean|minimal|simple|classic`)
	modernTemplateRe       = regexp.MustCompile(`(?i)modern|contemporary`)
	professionalTemplateRe = regexp.MustCompile(`(?i)professional|corporate|executive`)
	singleColumnTemplateRe = regexp.MustCompile(`(?i)one.column|single.column`)
)

func (c *checker) keywords(in *Input) *types.KeywordsSection {
	rules := c.cfg.Keywords
	req := in.Request

	job := strings.TrimSpace(req.JobDescription)
	if job == "" {
		job = strings.TrimSpace(req.JobTitleTarget)
	}
	if job == "" {
		return &types.KeywordsSection{
			SectionResult: c.result(types.SectionKeywords, rules.BaselineScore,
				"No job description provided. For accurate keyword analysis, add the target job description.",
				[]string{
					"Identify important technical skills and keywords in your field.",
					"Integrate these keywords naturally in your summary and experience.",
				}),
			PresentKeywords: []types.KeywordItem{},
			MissingKeywords: []types.KeywordItem{},
		}
	}

	keywords := extractJobKeywords(job, rules, c.stopwords)
	lowerResume := strings.ToLower(in.Text)
	present := []types.KeywordItem{}
	missing := []types.KeywordItem{}
	for _, k := range keywords {
		if containsKeyword(lowerResume, k) {
			present = append(present, types.KeywordItem{Keyword: k, Present: true})
		} else {
			missing = append(missing, types.KeywordItem{Keyword: k, Present: false})
		}
	}

	matchRate := float64(rules.BaselineScore) / 100
	if len(keywords) > 0 {
		matchRate = float64(len(present)) / float64(len(keywords))
	}
	score := int(math.Round(matchRate * 100))

	var suggestions []string
	if len(missing) > 0 {
		top := make([]string, 0, rules.MissingSurface)
		for i := 0; i < len(missing) && i < rules.MissingSurface; i++ {
			top = append(top, missing[i].Keyword)
		}
		suggestions = append(suggestions,
			fmt.Sprintf("Important missing keywords: %s. Add them if you have these skills.", strings.Join(top, ", ")),
			"Integrate keywords in your 'Summary' or 'Profile' section at the top of your resume.",
			"Mention specific tools and technologies in your recent experiences.",
			"⚠️ ONLY add skills that you actually possess.")
	}
	switch {
	case score >= 80:
		suggestions = append(suggestions, "Excellent alignment with the job posting! Keep using these terms.")
	case score >= 60:
		suggestions = append(suggestions, "Good alignment but there are important keywords to add.")
	default:
		suggestions = append(suggestions, "Your resume doesn't match the job enough. Adapt your content to the position requirements.")
	}

	explanation := fmt.Sprintf("ATS systems look for specific keywords from the job posting. "+
		"Your resume contains %d out of %d important keywords (%d%% match). "+
		"Integrate missing keywords if you have those skills.", len(present), len(keywords), score)

	return &types.KeywordsSection{
		SectionResult:   c.result(types.SectionKeywords, score, explanation, suggestions),
		PresentKeywords: present,
		MissingKeywords: missing,
	}
}

// templates is advisory: it always scores 100 and carries no weight.
func (c *checker) templates(in *Input) *types.TemplatesSection {
	rules := c.cfg.Templates
	req := in.Request
	explanation := "Template suggestions are advisory and do not affect your score."

	if len(req.AvailableTemplates) == 0 {
		return &types.TemplatesSection{
			SectionResult:        c.result(types.SectionTemplates, 100, explanation, nil),
			RecommendedTemplates: []types.TemplateRecommendation{},
			GenericCallToAction:  "Choose a simple one-column template with clear sections and ATS-friendly layout to maximize your chances.",
		}
	}

	title := req.JobTitleTarget
	creative := creativeTitleRe.MatchString(title)
	technical := technicalTitleRe.MatchString(title)
	corporate := corporateTitleRe.MatchString(title)
	senior := in.yearsOfExperience() > rules.SeniorYears

	recs := []types.TemplateRecommendation{}
	for _, name := range req.AvailableTemplates {
		var reason string
		switch {
		case simpleTemplateRe.MatchString(name):
			reason = "Simple and clean layout, excellent ATS compatibility. Ideal for all sectors."
		case modernTemplateRe.MatchString(name) && (creative || technical):
			reason = "Modern design suitable for creative and tech profiles. Remains ATS-compatible."
		case professionalTemplateRe.MatchString(name) && (corporate || senior):
			reason = "Professional appearance for executive and senior profiles."
		case singleColumnTemplateRe.MatchString(name):
			reason = "Single column for optimal ATS reading."
		default:
			continue
		}
		recs = append(recs, types.TemplateRecommendation{TemplateName: name, Reason: reason})
	}

	if len(recs) == 0 {
		for i := 0; i < len(req.AvailableTemplates) && i < rules.MaxRecommendations; i++ {
			recs = append(recs, types.TemplateRecommendation{
				TemplateName: req.AvailableTemplates[i],
				Reason:       "Recommended template for your profile.",
			})
		}
	}
	if len(recs) > rules.MaxRecommendations {
		recs = recs[:rules.MaxRecommendations]
	}

	return &types.TemplatesSection{
		SectionResult:        c.result(types.SectionTemplates, 100, explanation, nil),
		RecommendedTemplates: recs,
		GenericCallToAction:  "Choose one of these ATS-tested templates and start creating your optimized resume!",
	}
}
