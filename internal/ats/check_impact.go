package ats

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"atsscore/internal/types"
)

var (
	metricRe      = regexp.MustCompile(`(?i)\d+%|\d+\+|\$\d+|\d+x|increased|reduced|improved|grew|saved`)
	vagueRe       = regexp.MustCompile(`(?i)responsible for|worked on|helped|assisted|participated|involved in`)
	nonLetterRe   = regexp.MustCompile(`(?i)[^a-zà-ÿ]`)
	capitalLineRe = regexp.MustCompile(`^[A-Z]`)
	technicalRe   = regexp.MustCompile(`(?i)\b(SQL|Python|Java|React|AWS|Azure|Docker|Kubernetes|API|REST|GraphQL|MongoDB|PostgreSQL|Git|CI/CD|Agile|Scrum|GDPR|ISO|SOX|HIPAA|PCI|DSS|SAP|Salesforce|Tableau|Power BI|Excel|VBA|TensorFlow|PyTorch|Spark|Hadoop|Kafka|Redis|Elasticsearch|Jenkins|Terraform|Ansible|Linux|Windows|macOS|Node\.js|TypeScript|C\+\+|C#|Ruby|PHP|Swift|Kotlin|Go|Rust|Scala|R|MATLAB|SAS|SPSS|Figma|Sketch|Adobe|Photoshop|Illustrator|InDesign|Premiere|After Effects|Blender|Unity|Unreal|AutoCAD|SolidWorks|CATIA|Revit|SketchUp|3ds Max|Maya|ZBrush|Substance|Houdini|Nuke|DaVinci Resolve)\b`)
)

// Issue labels attached to weak bullets.
const (
	issueNoStrongVerb = "lacks strong action verb"
	issueNoMetric     = "no quantifiable metric"
	issueVague        = "vague phrasing"
	issueNoTechnical  = "no technical keywords"
	issueTooLong      = "too long"
)

type scoredBullet struct {
	text   string
	score  int
	issues []string

	strongVerb bool
	metric     bool
	vague      bool
}

// impactBullets picks the bullets to score: extracted bullets, then bullets
// inside a declared experience text, then capitalised lines of plausible
// bullet length.
func (c *checker) impactBullets(in *Input) []string {
	if len(in.Bullets) > 0 {
		return in.Bullets
	}
	if exp := in.declared().Text("experience"); exp != "" {
		if bullets := extractBullets(exp); len(bullets) > 0 {
			return bullets
		}
	}

	rules := c.cfg.Impact
	var lines []string
	for _, line := range in.Lines {
		line = strings.TrimSpace(line)
		n := runeLen(line)
		if n <= rules.FallbackMinChars || n >= rules.FallbackMaxChars || !capitalLineRe.MatchString(line) {
			continue
		}
		lines = append(lines, line)
		if len(lines) == rules.FallbackSampleLines {
			break
		}
	}
	return lines
}

func (c *checker) actionVerbs(lang string) map[string]struct{} {
	verbs := make(map[string]struct{})
	if c.verbs == nil {
		return verbs
	}
	for _, cat := range impactVerbCategories {
		for _, v := range c.verbs.Lookup(cat, lang) {
			verbs[strings.ToLower(v)] = struct{}{}
		}
	}
	return verbs
}

func (c *checker) scoreBullet(bullet string, actionVerbs map[string]struct{}) scoredBullet {
	rules := c.cfg.Impact
	fields := strings.Fields(bullet)

	var first, firstRaw string
	if len(fields) > 0 {
		firstRaw = strings.ToLower(fields[0])
		first = nonLetterRe.ReplaceAllString(firstRaw, "")
	}
	_, inBank := actionVerbs[first]
	_, inBankRaw := actionVerbs[firstRaw]

	sb := scoredBullet{
		text:       bullet,
		score:      100,
		strongVerb: has(c.strongVerbs, first) || inBank || inBankRaw,
		metric:     metricRe.MatchString(bullet),
		vague:      vagueRe.MatchString(bullet),
	}
	if !sb.strongVerb {
		sb.score -= rules.NoVerbPenalty
		sb.issues = append(sb.issues, issueNoStrongVerb)
	}
	if !sb.metric {
		sb.score -= rules.NoMetricPenalty
		sb.issues = append(sb.issues, issueNoMetric)
	}
	if sb.vague {
		sb.score -= rules.VaguePenalty
		sb.issues = append(sb.issues, issueVague)
	}
	if !technicalRe.MatchString(bullet) {
		sb.score -= rules.NoTechnicalPenalty
		sb.issues = append(sb.issues, issueNoTechnical)
	}
	if len(fields) > rules.TooLongWords {
		sb.score -= rules.TooLongPenalty
		sb.issues = append(sb.issues, issueTooLong)
	}
	return sb
}

func (c *checker) quantifyImpact(in *Input) *types.ImpactSection {
	rules := c.cfg.Impact
	actionVerbs := c.actionVerbs(in.Language)

	sample := c.impactBullets(in)
	if len(sample) > rules.SampleSize {
		sample = sample[:rules.SampleSize]
	}

	scored := make([]scoredBullet, 0, len(sample))
	strong, metrics, vague := 0, 0, 0
	for _, b := range sample {
		sb := c.scoreBullet(b, actionVerbs)
		if sb.strongVerb {
			strong++
		}
		if sb.metric {
			metrics++
		}
		if sb.vague {
			vague++
		}
		scored = append(scored, sb)
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score < scored[j].score
	})
	examples := []types.BulletExample{}
	for i := 0; i < len(scored) && i < rules.WorstExamples; i++ {
		examples = append(examples, types.BulletExample{
			OriginalBullet: scored[i].text,
			Analysis:       strings.Join(scored[i].issues, ", "),
		})
	}

	score := rules.NoBulletScore
	if n := float64(len(sample)); n > 0 {
		score = int(math.Round(float64(strong)/n*rules.StrongVerbWeight +
			float64(metrics)/n*rules.MetricWeight +
			(1-float64(vague)/n)*rules.ClarityWeight))
	}

	var suggestions []string
	switch {
	case len(sample) == 0:
		suggestions = append(suggestions, "No bullet points found. List your achievements as bullets that start with an action verb.")
	default:
		if weak := len(sample) - strong; weak > 0 {
			suggestions = append(suggestions, fmt.Sprintf("%d of %d bullets do not start with a strong action verb.", weak, len(sample)))
		}
		if missing := len(sample) - metrics; missing > 0 {
			suggestions = append(suggestions, fmt.Sprintf("%d of %d bullets have no measurable result.", missing, len(sample)))
		}
		if vague > 0 {
			suggestions = append(suggestions, fmt.Sprintf("%d of %d bullets use vague phrasing.", vague, len(sample)))
		}
		if len(suggestions) == 0 {
			suggestions = append(suggestions, "Strong, quantified bullets. Keep leading with results.")
		}
	}

	lead := c.cfg.Words.StrongVerbs
	if len(lead) > 6 {
		lead = lead[:6]
	}
	tips := []string{
		"Use the XYZ method: Accomplished X as measured by Y, by doing Z.",
		fmt.Sprintf("Start each bullet with a strong action verb: %s, etc.", strings.Join(lead, ", ")),
		"Add specific metrics: percentages, amounts, number of users, timeframes.",
		"Avoid vague phrases like 'responsible for', 'worked on', 'helped with'.",
		"Focus details on your 2-3 most recent/relevant experiences.",
	}

	explanation := fmt.Sprintf("Recruiters look for concrete results, not generic responsibilities. "+
		"Out of %d bullets analyzed: %d use strong verbs, %d contain metrics, %d are too vague. "+
		"Quantify your accomplishments with real numbers.", len(sample), strong, metrics, vague)

	return &types.ImpactSection{
		SectionResult:       c.result(types.SectionImpact, score, explanation, suggestions),
		Examples:            examples,
		GeneralTips:         tips,
		EducationalExamples: EducationalExamples(c.cfg.ReportLanguage),
	}
}

func (c *checker) contactInfo(in *Input) *types.ContactSection {
	rules := c.cfg.Contact
	found := detectContact(in.Text, rules.MaxEmailDigits)
	header := in.Request.Header()

	var email, phone, location, linkedIn, website string
	if header != nil {
		email, phone, location = header.Email, header.Phone, header.Location
		if l := header.Links; l != nil {
			linkedIn = l.LinkedIn
			// Later links win: portfolio over github over website.
			for _, v := range []string{l.Website, l.GitHub, l.Portfolio} {
				if v != "" {
					website = v
				}
			}
		}
		if linkedIn == "" {
			linkedIn = header.LinkedIn
		}
		if website == "" {
			website = header.Website
		}
	}
	if email == "" {
		email = found.email
	}
	if phone == "" {
		phone = found.phone
	}
	if linkedIn == "" {
		linkedIn = found.linkedIn
	}

	hasEmail := email != ""
	professional := hasEmail && isProfessionalEmail(email, rules.MaxEmailDigits)
	hasPhone := phone != ""
	hasLocation := location != "" || found.location
	hasLink := linkedIn != "" || website != "" || found.hasLinkedIn || found.hasWebsite

	score := 0
	if hasEmail {
		score += rules.Email
	}
	if professional {
		score += rules.ProfessionalEmail
	}
	if hasPhone {
		score += rules.Phone
	}
	if hasLocation {
		score += rules.Location
	}
	if hasLink {
		score += rules.Link
	}

	var suggestions []string
	switch {
	case !hasEmail:
		suggestions = append(suggestions, "⚠️ No email detected. Make sure your email is visible at the top of your resume.")
	case !professional:
		suggestions = append(suggestions, "Use a professional email (firstname.lastname@domain.com), avoid nicknames.")
	}
	if !hasPhone {
		suggestions = append(suggestions, "Add a phone number to facilitate contact.")
	}
	if !hasLocation {
		suggestions = append(suggestions, "Indicate your location (City, Country) for local recruiters.")
	}
	if !hasLink {
		suggestions = append(suggestions, "Add your LinkedIn profile or website/portfolio to strengthen your professional presence.")
	}
	if score >= c.cfg.Thresholds.Excellent {
		suggestions = append(suggestions, "Complete and professional contact information!")
	}

	explanation := fmt.Sprintf("Recruiters must be able to contact you easily. Your resume contains: %s, %s, %s. "+
		"Make sure this information is at the top and clearly visible.",
		mark(hasEmail, "Email"), mark(hasPhone, "Phone"), mark(hasLink, "LinkedIn/Website"))

	linkValue := linkedIn
	if linkValue == "" {
		linkValue = website
	}
	return &types.ContactSection{
		SectionResult:          c.result(types.SectionContact, score, explanation, suggestions),
		HasEmail:               hasEmail,
		EmailProfessional:      professional,
		HasPhone:               hasPhone,
		HasLocation:            hasLocation,
		HasLinkedInOrWebsite:   hasLink,
		EmailValue:             email,
		PhoneValue:             phone,
		LocationValue:          location,
		LinkedInOrWebsiteValue: linkValue,
	}
}

func mark(ok bool, label string) string {
	if ok {
		return "✓ " + label
	}
	return "✗ " + label
}
