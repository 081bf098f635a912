package ats

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

var (
	bulletGlyphRe   = regexp.MustCompile(`^[-•*→▪▸◦⦿⦾]\s+`)
	numberedItemRe  = regexp.MustCompile(`^\d+[.)]\s+`)
	bulletLineRe    = regexp.MustCompile(`(?m)^\s*[-•*◦▪▫]|^\s*\d+\.`)
	apostropheRe    = regexp.MustCompile("[‘’ʼʻ'`´]")
	apostropheGapRe = regexp.MustCompile(`\s*'\s*`)
	nonWordRe       = regexp.MustCompile(`[^\p{L}\p{N}\s'-]`)
)

var (
	experienceRe     = regexp.MustCompile(`(?i)\b(experience|work history|employment|professional experience)\b`)
	educationRe      = regexp.MustCompile(`(?i)\b(education|academic|degree|university|college)\b`)
	skillsRe         = regexp.MustCompile(`(?i)\b(skills|competencies|technical skills|core competencies)\b`)
	summaryRe        = regexp.MustCompile(`(?i)\b(summary|profile|objective|about|professional summary)\b`)
	projectsRe       = regexp.MustCompile(`(?i)\b(projects|portfolio|work samples)\b`)
	certificationsRe = regexp.MustCompile(`(?i)\b(certifications|certificates|licenses)\b`)
	languagesRe      = regexp.MustCompile(`(?i)\b(languages|linguistic)\b`)
)

var (
	emailRe          = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Z|a-z]{2,}\b`)
	phoneRe          = regexp.MustCompile(`\b(\+?\d{1,3}[-.\s]?)?\(?\d{2,4}\)?[-.\s]?\d{3,4}[-.\s]?\d{3,4}\b`)
	linkedInRe       = regexp.MustCompile(`(?i)linkedin\.com/in/`)
	linkedInValueRe  = regexp.MustCompile(`(?i)linkedin\.com/in/[A-Za-z0-9-]+`)
	websiteRe        = regexp.MustCompile(`(?i)\b(https?://|www\.)[^\s]+\b`)
	locationWordRe   = regexp.MustCompile(`(?i)\b(city|state|country|location)\b`)
	locationCodeRe   = regexp.MustCompile(`,\s*[A-Z]{2}\b`)
	unprofessionalRe = regexp.MustCompile(`(?i)\b(cool|party|sexy|fun|crazy|dude|bro|chick|baby)\b`)
	digitRe          = regexp.MustCompile(`\d`)
)

// techKeywordFamilies pull well-known technology terms out of a job posting.
var techKeywordFamilies = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(react|angular|vue|node\.?js|python|java|javascript|typescript|c\+\+|c#|ruby|go|rust|swift|kotlin)\b`),
	regexp.MustCompile(`(?i)\b(aws|azure|gcp|docker|kubernetes|k8s|terraform|jenkins|git|github|gitlab)\b`),
	regexp.MustCompile(`(?i)\b(sql|nosql|mongodb|postgresql|mysql|redis|elasticsearch)\b`),
	regexp.MustCompile(`(?i)\b(machine learning|ml|deep learning|ai|artificial intelligence|nlp|computer vision)\b`),
	regexp.MustCompile(`(?i)\b(agile|scrum|kanban|devops|ci/cd|tdd|bdd)\b`),
	regexp.MustCompile(`(?i)\b(rest|api|graphql|microservices|serverless)\b`),
}

var keywordSynonyms = map[string][]string{
	"javascript":              {"js", "ecmascript"},
	"typescript":              {"ts"},
	"machine learning":        {"ml", "machine-learning"},
	"artificial intelligence": {"ai", "a.i."},
	"node.js":                 {"nodejs", "node"},
	"react.js":                {"react", "reactjs"},
	"kubernetes":              {"k8s"},
	"python":                  {"py"},
}

func countWords(text string) int {
	return len(strings.Fields(text))
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

// extractBullets returns every bullet or numbered line with its marker removed.
func extractBullets(text string) []string {
	var bullets []string
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if bulletGlyphRe.MatchString(trimmed) || numberedItemRe.MatchString(trimmed) {
			stripped := bulletGlyphRe.ReplaceAllString(trimmed, "")
			stripped = numberedItemRe.ReplaceAllString(stripped, "")
			bullets = append(bullets, stripped)
		}
	}
	return bullets
}

func countBulletLines(text string) int {
	return len(bulletLineRe.FindAllStringIndex(text, -1))
}

// tooManyShortLines counts non-empty lines shorter than maxChars and reports
// whether they exceed ratio of all lines.
func tooManyShortLines(lines []string, maxChars int, ratio float64) bool {
	short := 0
	for _, l := range lines {
		n := runeLen(strings.TrimSpace(l))
		if n > 0 && n < maxChars {
			short++
		}
	}
	return float64(short) > float64(len(lines))*ratio
}

type wordFreq struct {
	word  string
	count int
}

// topRepeatedWords counts non-stopword tokens longer than two characters and
// returns the topN most frequent. Ties keep first-occurrence order.
func topRepeatedWords(text string, topN int, stopwords map[string]struct{}) []wordFreq {
	normalized := apostropheRe.ReplaceAllString(text, "'")
	normalized = apostropheGapRe.ReplaceAllString(normalized, "'")
	normalized = nonWordRe.ReplaceAllString(strings.ToLower(normalized), " ")

	index := make(map[string]int)
	var freqs []wordFreq
	for _, w := range strings.Fields(normalized) {
		if runeLen(w) <= 2 {
			continue
		}
		if _, stop := stopwords[w]; stop {
			continue
		}
		if i, ok := index[w]; ok {
			freqs[i].count++
			continue
		}
		index[w] = len(freqs)
		freqs = append(freqs, wordFreq{word: w, count: 1})
	}

	sort.SliceStable(freqs, func(i, j int) bool {
		return freqs[i].count > freqs[j].count
	})
	if len(freqs) > topN {
		freqs = freqs[:topN]
	}
	return freqs
}

// detectBuzzwords returns each listed phrase found in text once, in list order.
func detectBuzzwords(text string, buzzwords []string) []string {
	lower := strings.ToLower(text)
	found := []string{}
	seen := make(map[string]bool)
	for _, b := range buzzwords {
		b = strings.ToLower(b)
		if b == "" || seen[b] {
			continue
		}
		if strings.Contains(lower, b) {
			seen[b] = true
			found = append(found, b)
		}
	}
	return found
}

func estimatePages(wordCount int, rules LengthRules) string {
	switch {
	case wordCount < rules.OnePageWords:
		return "1"
	case wordCount < rules.TwoPageWords:
		return "2"
	default:
		return "3+"
	}
}

type detectedSections struct {
	experience     bool
	education      bool
	skills         bool
	summary        bool
	projects       bool
	certifications bool
	languages      bool
}

func detectSections(text string) detectedSections {
	return detectedSections{
		experience:     experienceRe.MatchString(text),
		education:      educationRe.MatchString(text),
		skills:         skillsRe.MatchString(text),
		summary:        summaryRe.MatchString(text),
		projects:       projectsRe.MatchString(text),
		certifications: certificationsRe.MatchString(text),
		languages:      languagesRe.MatchString(text),
	}
}

type detectedContact struct {
	email             string
	emailProfessional bool
	phone             string
	location          bool
	linkedIn          string
	hasLinkedIn       bool
	hasWebsite        bool
}

func detectContact(text string, maxDigits int) detectedContact {
	c := detectedContact{
		email:       emailRe.FindString(text),
		phone:       phoneRe.FindString(text),
		location:    locationWordRe.MatchString(text) || locationCodeRe.MatchString(text),
		linkedIn:    linkedInValueRe.FindString(text),
		hasLinkedIn: linkedInRe.MatchString(text),
		hasWebsite:  websiteRe.MatchString(text),
	}
	if c.email != "" {
		c.emailProfessional = isProfessionalEmail(c.email, maxDigits)
	}
	return c
}

// isProfessionalEmail rejects slang in the local part and more than
// maxDigits digits.
func isProfessionalEmail(email string, maxDigits int) bool {
	local := strings.ToLower(email)
	if at := strings.Index(local, "@"); at >= 0 {
		local = local[:at]
	}
	if unprofessionalRe.MatchString(local) {
		return false
	}
	return len(digitRe.FindAllStringIndex(local, -1)) <= maxDigits
}

// extractJobKeywords collects technology terms and the most frequent terms
// of a job posting, deduplicated and capped.
func extractJobKeywords(job string, rules KeywordRules, stopwords map[string]struct{}) []string {
	if strings.TrimSpace(job) == "" {
		return nil
	}

	var candidates []string
	for _, re := range techKeywordFamilies {
		for _, m := range re.FindAllString(job, -1) {
			candidates = append(candidates, strings.ToLower(m))
		}
	}
	frequent := topRepeatedWords(job, rules.FrequencyPool, stopwords)
	for i := 0; i < len(frequent) && i < rules.FrequentTerms; i++ {
		candidates = append(candidates, frequent[i].word)
	}

	seen := make(map[string]bool, len(candidates))
	keywords := make([]string, 0, len(candidates))
	for _, k := range candidates {
		if seen[k] {
			continue
		}
		seen[k] = true
		keywords = append(keywords, k)
		if len(keywords) == rules.MaxKeywords {
			break
		}
	}
	return keywords
}

// containsKeyword is a literal substring match with a small synonym table.
func containsKeyword(lowerResume, keyword string) bool {
	kw := strings.ToLower(keyword)
	if strings.Contains(lowerResume, kw) {
		return true
	}
	for _, syn := range keywordSynonyms[kw] {
		if strings.Contains(lowerResume, syn) {
			return true
		}
	}
	return false
}

// truncateRunes cuts s to at most n runes.
func truncateRunes(s string, n int) string {
	if runeLen(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}
