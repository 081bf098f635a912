package ats

import (
	"math"

	"atsscore/internal/types"
)

// pillarScores computes every pillar from the section scores. Missing
// sections count as zero.
func (c *ScoringConfig) pillarScores(sections *types.Sections) types.Pillars {
	var p types.Pillars
	for _, pillar := range c.Pillars {
		var v float64
		for _, w := range pillar.Weights {
			if sec := sections.Get(w.Section); sec != nil {
				v += float64(sec.Result().Score) * w.Weight
			}
		}
		switch pillar.Name {
		case PillarTechnical:
			p.TechnicalATS = v
		case PillarContent:
			p.ContentQuality = v
		case PillarImpact:
			p.ImpactSpecificity = v
		case PillarRelevance:
			p.RelevanceKeywords = v
		}
	}
	return p
}

// globalScore is the rounded, equally shared sum of the pillars.
func (c *ScoringConfig) globalScore(p types.Pillars) int {
	total := p.TechnicalATS*c.PillarShare +
		p.ContentQuality*c.PillarShare +
		p.ImpactSpecificity*c.PillarShare +
		p.RelevanceKeywords*c.PillarShare
	return clampScore(int(math.Round(total)))
}

// countIssues weighs each section's findings into one number. Degraded
// sections carry no findings and are skipped.
func (c *ScoringConfig) countIssues(s *types.Sections) int {
	count := 0

	if sec := s.ParseRate; sec != nil && !sec.Degraded {
		n := len(sec.Suggestions)
		switch {
		case sec.Status == types.StatusPoor || sec.Score < c.Issues.ParseRateLowScore:
			count += n
		case sec.Status == types.StatusNeedsImprovement:
			count += (n + 1) / 2
		}
	}
	if sec := s.Design; sec != nil && !sec.Degraded && sec.Status != types.StatusExcellent {
		count += len(sec.Suggestions)
	}
	if sec := s.Keywords; sec != nil && !sec.Degraded {
		count += min(len(sec.MissingKeywords), c.Issues.MissingKeywordCap)
	}
	if sec := s.Impact; sec != nil && !sec.Degraded {
		count += len(sec.Examples)
	}
	if sec := s.Repetition; sec != nil && !sec.Degraded {
		for _, w := range sec.TopRepeatedWords {
			if w.IsProblematic {
				count++
			}
		}
		count += len(sec.BuzzwordsToAvoid)
	}
	if sec := s.Grammar; sec != nil && !sec.Degraded {
		count += len(sec.Issues)
	}
	if sec := s.Essentials; sec != nil && !sec.Degraded {
		count += missing(sec.HasExperience) + missing(sec.HasEducation) + missing(sec.HasSkills)
	}
	if sec := s.Contact; sec != nil && !sec.Degraded {
		count += missing(sec.HasEmail) + missing(sec.EmailProfessional) + missing(sec.HasLinkedInOrWebsite)
	}
	if sec := s.FileFormat; sec != nil && !sec.Degraded {
		count += missing(sec.FileTypeOK) + missing(sec.FileSizeOK)
	}
	if sec := s.Length; sec != nil && !sec.Degraded {
		count += len(sec.LongBulletsExamples)
	}
	if sec := s.Style; sec != nil && !sec.Degraded {
		count += len(sec.Examples)
	}
	return count
}

func missing(present bool) int {
	if present {
		return 0
	}
	return 1
}

func clampScore(score int) int {
	return max(0, min(100, score))
}
