package ats

import (
	"fmt"
	"regexp"
	"strings"

	"atsscore/internal/types"
)

type grammarPattern struct {
	re        *regexp.Regexp
	errorType string
	correct   func(match string) string
}

var (
	missingArticleRe  = regexp.MustCompile(`(?i)\b(worked on|managed|led)\s+(project|team|initiative)\b`)
	articleInsertRe   = regexp.MustCompile(`(worked on|managed|led)\s+`)
	spaceBeforeComma  = regexp.MustCompile(`[ \t]+,`)
	spaceBeforePeriod = regexp.MustCompile(`[ \t]+\.`)

	tenseBulletRe = regexp.MustCompile(`^[-•*]`)
	pastTenseRe   = regexp.MustCompile(`(?i)\b(ed|led|built|designed|implemented)\b`)
	presentRe     = regexp.MustCompile(`(?i)\b(manage|lead|build|design|implement)\b`)

	passiveRe     = regexp.MustCompile(`(?i)\b(was|were|been|is|are) (responsible|assigned|used|managed|led)`)
	firstPersonRe = regexp.MustCompile(`(?i)\b(I|my|me|we|our|us)\b`)
	jargonRe      = regexp.MustCompile(`(?i)\b(leverage|synergy|holistic|paradigm|transformation|drive growth|thought leader|best of breed)\b`)

	passiveRewrites = []rewrite{
		{regexp.MustCompile(`(?i)was responsible for`), "managed"},
		{regexp.MustCompile(`(?i)were used to`), "used"},
	}
	firstPersonDropRe = regexp.MustCompile(`(?i)\b(I|my|me)\b`)
	spacesRe          = regexp.MustCompile(`\s+`)
	jargonRewrites    = []rewrite{
		{regexp.MustCompile(`(?i)leverage`), "use"},
		{regexp.MustCompile(`(?i)synergy`), "collaboration"},
		{regexp.MustCompile(`(?i)paradigm`), "model"},
	}
)

type rewrite struct {
	re   *regexp.Regexp
	with string
}

func applyRewrites(s string, rules []rewrite) string {
	for _, r := range rules {
		s = r.re.ReplaceAllString(s, r.with)
	}
	return s
}

var misspellings = []struct {
	wrong, right string
}{
	{"recieve", "receive"},
	{"occured", "occurred"},
	{"seperate", "separate"},
	{"definately", "definitely"},
}

// buildGrammarPatterns builds the ordered known-issue list.
func buildGrammarPatterns(acronymRe *regexp.Regexp) []grammarPattern {
	patterns := []grammarPattern{{
		re:        missingArticleRe,
		errorType: "grammar",
		correct: func(m string) string {
			return articleInsertRe.ReplaceAllString(m, "$1 the ")
		},
	}}
	if acronymRe != nil {
		patterns = append(patterns, grammarPattern{re: acronymRe, errorType: "word_choice", correct: strings.ToUpper})
	}
	for _, m := range misspellings {
		right := m.right
		patterns = append(patterns, grammarPattern{
			re:        regexp.MustCompile(`(?i)\b` + m.wrong + `\b`),
			errorType: "spelling",
			correct:   func(string) string { return right },
		})
	}
	patterns = append(patterns,
		grammarPattern{re: spaceBeforeComma, errorType: "punctuation", correct: func(string) string { return "," }},
		grammarPattern{re: spaceBeforePeriod, errorType: "punctuation", correct: func(string) string { return "." }},
	)
	return patterns
}

func (c *checker) repetition(in *Input) *types.RepetitionSection {
	rules := c.cfg.Repetition

	repeated := topRepeatedWords(in.Text, rules.TopWords, c.stopwords)
	words := make([]types.RepeatedWord, 0, len(repeated))
	problematic := 0
	for _, r := range repeated {
		bad := r.count > rules.OveruseCount || has(c.genericVerbs, r.word)
		if bad {
			problematic++
		}
		words = append(words, types.RepeatedWord{Word: r.word, Count: r.count, IsProblematic: bad})
	}
	buzzwords := detectBuzzwords(in.Text, c.cfg.Words.Buzzwords)

	score := 100 - problematic*rules.ProblematicPenalty - len(buzzwords)*rules.BuzzwordPenalty

	var suggestions []string
	if problematic > 0 {
		suggestions = append(suggestions, fmt.Sprintf("%d words are repeated too often. Vary your vocabulary and use specific synonyms.", problematic))
	}
	if len(buzzwords) > 0 {
		shown := buzzwords
		if len(shown) > 3 {
			shown = shown[:3]
		}
		suggestions = append(suggestions, fmt.Sprintf("Avoid clichés (%s, etc.). Replace them with concrete facts.", strings.Join(shown, ", ")))
	}
	if score >= rules.GoodScore {
		suggestions = append(suggestions, "Good vocabulary usage. Continue using varied and precise terms.")
	} else {
		suggestions = append(suggestions, "Replace generic verbs ('managed', 'responsible for') with specific actions ('optimized', 'developed', 'led').")
	}

	explanation := fmt.Sprintf("Overly repetitive resumes filled with clichés appear artificial. "+
		"You have %d overused words and %d cliché expressions. Favor varied and authentic language.", problematic, len(buzzwords))

	if len(words) > rules.Surfaced {
		words = words[:rules.Surfaced]
	}
	sec := &types.RepetitionSection{
		SectionResult:    c.result(types.SectionRepetition, score, explanation, suggestions),
		TopRepeatedWords: words,
		BuzzwordsToAvoid: buzzwords,
	}
	sec.FAQs = c.faqs(types.SectionRepetition)
	return sec
}

func (c *checker) grammar(in *Input) *types.GrammarSection {
	rules := c.cfg.Grammar
	issues := []types.GrammarIssue{}

scan:
	for _, p := range c.knownIssues {
		for _, match := range p.re.FindAllString(in.Text, -1) {
			if len(issues) >= rules.MaxIssues {
				break scan
			}
			corrected := p.correct(match)
			if corrected == match {
				continue
			}
			issues = append(issues, types.GrammarIssue{
				OriginalText:  match,
				CorrectedText: corrected,
				ErrorType:     p.errorType,
			})
		}
	}

	past, present := 0, 0
	for _, line := range in.Lines {
		if !tenseBulletRe.MatchString(strings.TrimSpace(line)) {
			continue
		}
		if pastTenseRe.MatchString(line) {
			past++
		}
		if presentRe.MatchString(line) {
			present++
		}
	}
	mixed := past > 0 && present > 0

	score := 100 - len(issues)*rules.IssuePenalty
	if mixed && abs(past-present) > rules.TenseGap {
		score -= rules.TensePenalty
	}

	var suggestions []string
	if len(issues) > 0 {
		suggestions = append(suggestions, fmt.Sprintf("%d issues detected. Carefully proofread and correct errors.", len(issues)))
	}
	if mixed {
		suggestions = append(suggestions, "Use past tense for previous positions, present tense for current position.")
	}
	if len(suggestions) == 0 {
		suggestions = append(suggestions, "No known spelling, capitalization or punctuation issues found.")
	}

	explanation := fmt.Sprintf("Spelling and grammar errors damage your credibility. %d issues were identified. "+
		"A professional resume must be flawless in these areas.", len(issues))

	sec := &types.GrammarSection{
		SectionResult: c.result(types.SectionGrammar, score, explanation, suggestions),
		Issues:        issues,
		GeneralTips: []string{
			"Have someone else proofread your resume or use a spell checker.",
			"Check consistency: capitalization, punctuation, spacing, date formats.",
		},
	}
	sec.FAQs = c.faqs(types.SectionGrammar)
	return sec
}

func (c *checker) lengthAndBullets(in *Input) *types.LengthSection {
	rules := c.cfg.Length
	words := in.WordCount
	pages := estimatePages(words, rules)

	long := []types.LongBullet{}
	for _, b := range in.Bullets {
		fields := strings.Fields(b)
		if len(fields) <= rules.LongBulletWords {
			continue
		}
		long = append(long, types.LongBullet{
			OriginalBullet: b,
			ShorterVersion: strings.Join(fields[:min(rules.ShortenTo, len(fields))], " ") + "...",
		})
		if len(long) >= rules.LongBulletExamples {
			break
		}
	}

	score := 100
	switch {
	case words < rules.MinWords:
		score -= rules.LengthPenalty
	case words > rules.MaxWords:
		score -= rules.LengthPenalty
	// Unreachable with the default rules: a one-page estimate stays below
	// OnePageWords, which is under DenseWords.
	case words > rules.DenseWords && pages == "1":
		score -= rules.DensePenalty
	}
	score -= len(long) * rules.LongBulletPenalty

	var suggestions []string
	switch {
	case words < rules.MinWords:
		suggestions = append(suggestions, fmt.Sprintf("Resume too short (%d words, ~%s page). Add more details about your experiences and skills.", words, pages))
	case words > rules.MaxWords:
		suggestions = append(suggestions, fmt.Sprintf("Resume too long (%d words, ~%s pages). Focus on the last 10 years and most relevant experiences.", words, pages))
	}
	if len(long) > 0 {
		suggestions = append(suggestions, fmt.Sprintf("%d bullets are too long (> %d words). Split them or shorten them to 20-30 words maximum.",
			len(long), rules.LongBulletWords))
	}
	switch pages {
	case "1":
		suggestions = append(suggestions, "Ideal for junior/intermediate profiles. One page is perfect!")
	case "2":
		suggestions = append(suggestions, "Appropriate length for experienced profile. Two pages is good.")
	default:
		suggestions = append(suggestions, "3+ pages: reserved for very senior or academic profiles. Otherwise, reduce.")
	}

	explanation := fmt.Sprintf("Your resume is approximately %d words, or ~%s page(s). "+
		"General rule: 1 page for juniors, 1-2 pages for intermediate/senior profiles. "+
		"%d bullets exceed %d words and should be shortened.", words, pages, len(long), rules.LongBulletWords)

	return &types.LengthSection{
		SectionResult:       c.result(types.SectionLength, score, explanation, suggestions),
		EstimatedPages:      pages,
		LongBulletsExamples: long,
	}
}

func (c *checker) style(in *Input) *types.StyleSection {
	rules := c.cfg.Style

	passive := len(passiveRe.FindAllStringIndex(in.Text, -1))
	firstPerson := len(firstPersonRe.FindAllStringIndex(in.Text, -1))
	jargon := len(jargonRe.FindAllStringIndex(in.Text, -1))

	examples := []types.StyleExample{}
	scanned := in.Bullets
	if len(scanned) > rules.ScannedBullets {
		scanned = scanned[:rules.ScannedBullets]
	}
	for _, b := range scanned {
		if len(examples) >= rules.MaxExamples {
			break
		}
		// First matching category wins: passive, then first person, then jargon.
		var ex *types.StyleExample
		switch {
		case passiveRe.MatchString(b):
			ex = &types.StyleExample{ImprovedText: applyRewrites(b, passiveRewrites), Comment: "Passive → active voice"}
		case firstPersonRe.MatchString(b):
			improved := firstPersonDropRe.ReplaceAllString(b, "")
			improved = strings.TrimSpace(spacesRe.ReplaceAllString(improved, " "))
			ex = &types.StyleExample{ImprovedText: improved, Comment: "Avoid first person"}
		case jargonRe.MatchString(b):
			ex = &types.StyleExample{ImprovedText: applyRewrites(b, jargonRewrites), Comment: "Jargon → clear language"}
		}
		if ex != nil {
			ex.OriginalText = b
			examples = append(examples, *ex)
		}
	}

	score := 100 - passive*rules.PassivePenalty - firstPerson*rules.FirstPersonPenalty - jargon*rules.JargonPenalty

	var suggestions []string
	if passive > 0 {
		suggestions = append(suggestions, fmt.Sprintf("%d passive voice phrases detected. Use active voice: \"Developed\" instead of \"Was developed\".", passive))
	}
	if firstPerson > 0 {
		suggestions = append(suggestions, "Avoid first person (I, my, we). Start directly with the action verb.")
	}
	if jargon > 0 {
		suggestions = append(suggestions, fmt.Sprintf("%d jargon expressions detected. Prefer clear and direct language.", jargon))
	}
	if score >= rules.PositiveNoteMin {
		suggestions = append(suggestions, "Excellent style! Active voice and clear, professional language.")
	}

	explanation := fmt.Sprintf("A professional resume uses active voice, avoids first person and empty jargon. "+
		"Detected: %d passive phrases, %d first person uses, %d jargon expressions. Be direct, active, and authentic.",
		passive, firstPerson, jargon)

	return &types.StyleSection{
		SectionResult: c.result(types.SectionStyle, score, explanation, suggestions),
		Examples:      examples,
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
