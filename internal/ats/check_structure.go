package ats

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"atsscore/internal/types"
)

var (
	datePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b\d{1,2}/\d{4}\b`),
		regexp.MustCompile(`\b[A-Z][a-z]{2,8}\s+\d{4}\b`),
		regexp.MustCompile(`\b\d{4}\s*[-–]\s*\d{4}\b`),
	}
	boxGlyphRe = regexp.MustCompile(`[│┤┐└┴┬├─┼╭╮╯╰]`)
)

func (c *checker) parseRate(in *Input) *types.ParseRateSection {
	rules := c.cfg.ParseRate
	score := 100
	var suggestions []string

	// Only a measured ratio counts here; the estimate is reported, not scored.
	coverage := 1.0
	if in.Request.ParseCoverageRatio != nil {
		coverage = *in.Request.ParseCoverageRatio
	}
	if coverage < rules.MinCoverage {
		score -= rules.CoveragePenalty
		suggestions = append(suggestions, "Your resume appears to contain unparsable elements (tables, images). Simplify the layout.")
	}

	detected := detectSections(in.Text)
	declared := in.declared()
	if !detected.experience && !declared.Has("experience") {
		score -= rules.MissingExperiencePenalty
		suggestions = append(suggestions, "Missing or poorly formatted 'Work Experience' section. Use a standard heading.")
	}
	if !detected.education && !declared.Has("education") {
		score -= rules.MissingEducationPenalty
		suggestions = append(suggestions, "Missing 'Education' section. Add your degrees with dates and institutions.")
	}
	if !detected.skills && !declared.Has("skills") {
		score -= rules.MissingSkillsPenalty
		suggestions = append(suggestions, "Missing 'Skills' section. List your technical skills and tools.")
	}

	if tooManyShortLines(in.Lines, rules.ShortLineChars, rules.ShortLineRatio) {
		score -= rules.ColumnPenalty
		suggestions = append(suggestions, "Avoid multi-column layouts. Stick to a single column for ATS compatibility.")
	}

	formats := 0
	for _, re := range datePatterns {
		if re.MatchString(in.Text) {
			formats++
		}
	}
	if formats > 1 {
		score -= rules.DateFormatPenalty
		suggestions = append(suggestions, "Use a consistent date format (e.g., MM/YYYY - MM/YYYY).")
	}

	if score >= rules.PositiveNoteMin && len(suggestions) == 0 {
		suggestions = append(suggestions, "Excellent structure! Your resume should parse well through ATS systems.")
	}

	percent := int(math.Round(coverage * 100))
	explanation := fmt.Sprintf("ATS (Applicant Tracking Systems) automatically analyze your resume. "+
		"A clear structure with standard sections and simple formatting increases your chances of being noticed. "+
		"Your estimated parsing rate is %d%%.", percent)

	sec := &types.ParseRateSection{
		SectionResult:     c.result(types.SectionParseRate, score, explanation, suggestions),
		ParseRate:         percent,
		OriginalPreview:   originalPreview(in.Text, rules.PreviewChars),
		ParsedPreview:     parsedPreview(in.Request.ParsedCV),
		CanBuildATSResume: canBuildATSResume(in.Request.ParsedCV),
	}
	sec.FAQs = c.faqs(types.SectionParseRate)
	return sec
}

func originalPreview(text string, n int) string {
	preview := truncateRunes(strings.TrimSpace(text), n)
	if runeLen(text) > n {
		preview += "..."
	}
	return preview
}

func parsedPreview(cv *types.ParsedCV) string {
	if cv == nil {
		return "No structured data available"
	}

	var parts []string
	if cv.Header != nil && cv.Header.FullName != "" {
		parts = append(parts, "Name: "+cv.Header.FullName)
	}
	if len(cv.Experience) > 0 {
		parts = append(parts, fmt.Sprintf("Experience: %d positions", len(cv.Experience)))
	}
	if len(cv.Education) > 0 {
		parts = append(parts, fmt.Sprintf("Education: %d entries", len(cv.Education)))
	}
	if cv.Skills != nil {
		count := 0
		for _, list := range cv.Skills {
			count += len(list)
		}
		parts = append(parts, fmt.Sprintf("Skills: %d listed", count))
	}

	if len(parts) == 0 {
		return "Minimal structured data extracted"
	}
	return strings.Join(parts, " | ")
}

// canBuildATSResume needs a name and at least one of experience or education.
func canBuildATSResume(cv *types.ParsedCV) bool {
	if cv == nil || cv.Header == nil || cv.Header.FullName == "" {
		return false
	}
	return len(cv.Experience) > 0 || len(cv.Education) > 0
}

func (c *checker) designLayout(in *Input) *types.DesignSection {
	rules := c.cfg.Design
	score := 100
	var suggestions []string

	bulletCount := in.designBulletCount()
	fontName := in.fontName()

	if fontName != "" && !has(c.safeFonts, fontName) {
		score -= rules.UnsafeFontPenalty
		suggestions = append(suggestions, fmt.Sprintf("Font %q not standard. Use Calibri, Arial, Helvetica, or Georgia for ATS.", fontName))
	}

	switch {
	case bulletCount == 0 && in.WordCount > rules.NoBulletWordLimit:
		score -= rules.NoBulletPenalty
		suggestions = append(suggestions, "No bullets detected. Use bullet points (•, -, *) to structure your experiences.")
	case bulletCount > 0 && bulletCount < rules.FewBulletMax && in.WordCount > rules.FewBulletWordLimit:
		score -= rules.FewBulletPenalty
		suggestions = append(suggestions, "Few bullets used. Transform paragraphs into bullets for better clarity.")
	}

	longParagraphs := 0
	for _, line := range in.Lines {
		if countWords(line) > rules.LongParagraphWords && !strings.Contains(line, "•") && !strings.Contains(line, "-") {
			longParagraphs++
		}
	}
	if longParagraphs > rules.LongParagraphMax {
		score -= rules.LongParagraphPenalty
		suggestions = append(suggestions, fmt.Sprintf("%d very long paragraphs detected. Break them into short, readable bullets.", longParagraphs))
	}

	if tooManyShortLines(in.Lines, rules.ShortLineChars, rules.ShortLineRatio) {
		score -= rules.ColumnPenalty
		suggestions = append(suggestions, "Multi-column layout suspected. Use a single column layout for ATS.")
	}

	if len(boxGlyphRe.FindAllStringIndex(in.Text, -1)) > rules.BoxGlyphMax {
		score -= rules.BoxGlyphPenalty
		suggestions = append(suggestions, "Special characters detected (borders, boxes). Use simple formatting.")
	}

	thresholds := c.cfg.Thresholds
	if t, ok := c.cfg.ThresholdOverrides[types.SectionDesign]; ok {
		thresholds = t
	}
	switch {
	case score >= thresholds.Excellent:
		suggestions = append(suggestions, "Excellent design! Simple and clear layout, ATS-compatible.")
	case score >= thresholds.Good:
		suggestions = append(suggestions, "Good design with some minor improvements possible.")
	}
	suggestions = append(suggestions,
		"Prefer simple layout: one column, clear sections, standard 10-12pt font.",
		"Avoid tables, text boxes, graphics, or images for critical information.")

	font := "font not specified"
	if fontName != "" {
		font = fmt.Sprintf("%q font", fontName)
	}
	explanation := fmt.Sprintf("Visual design impacts ATS parsing. Your resume uses %d bullets, %s. "+
		"Simple design with one column, clear sections, and standard font maximizes compatibility.", bulletCount, font)

	sec := &types.DesignSection{
		SectionResult: c.result(types.SectionDesign, score, explanation, suggestions),
	}
	sec.FAQs = c.faqs(types.SectionDesign)
	return sec
}

func (c *checker) essentialSections(in *Input) *types.EssentialsSection {
	rules := c.cfg.Essentials
	detected := detectSections(in.Text)
	declared := in.declared()

	hasExperience := detected.experience || declared.Has("experience")
	hasEducation := detected.education || declared.Has("education")
	hasSkills := detected.skills || declared.Has("skills")

	other := []string{}
	if detected.summary || declared.Has("summary") {
		other = append(other, "summary")
	}
	if detected.projects || declared.Has("projects") {
		other = append(other, "projects")
	}
	if detected.certifications || declared.Has("certifications") {
		other = append(other, "certifications")
	}
	if detected.languages || declared.Has("languages") {
		other = append(other, "languages")
	}

	score := 0
	var missing, suggestions []string
	if hasExperience {
		score += rules.Experience
	} else {
		missing = append(missing, "Work Experience")
		suggestions = append(suggestions, "Add a 'Work Experience' section with your positions in reverse chronological order.")
	}
	if hasEducation {
		score += rules.Education
	} else {
		missing = append(missing, "Education")
		suggestions = append(suggestions, "Add an 'Education' section with your degrees, institutions, and dates.")
	}
	if hasSkills {
		score += rules.Skills
	} else {
		missing = append(missing, "Skills")
		suggestions = append(suggestions, "Add a 'Skills' section listing your technical skills and tools.")
	}

	if !detected.summary && !declared.Has("summary") {
		suggestions = append(suggestions, "Consider adding a 'Professional Summary' at the top to present your profile in 2-3 lines.")
	}
	if score == rules.Experience+rules.Education+rules.Skills {
		suggestions = append(suggestions, "Excellent structure! All essential sections are present.")
	}

	var explanation string
	if len(missing) > 0 {
		explanation = fmt.Sprintf("Missing sections: %s. These sections are critical for a complete and structured resume.",
			strings.Join(missing, ", "))
	} else {
		explanation = fmt.Sprintf("All essential sections are present. Your resume is well-structured with %d additional sections.", len(other))
	}

	return &types.EssentialsSection{
		SectionResult: c.result(types.SectionEssentials, score, explanation, suggestions),
		HasExperience: hasExperience,
		HasEducation:  hasEducation,
		HasSkills:     hasSkills,
		OtherSections: other,
	}
}

func (c *checker) fileFormat(in *Input) *types.FileFormatSection {
	rules := c.cfg.FileFormat
	fileType := in.FileType
	sizeKB := in.FileSizeKB

	typeOK := has(c.preferred, fileType)
	sizeOK := sizeKB <= rules.MaxSizeKB
	isImage := has(c.images, fileType)
	upper := strings.ToUpper(fileType)

	score := 100
	var suggestions []string

	// An image format takes the heavier penalty instead of the generic one.
	switch {
	case isImage:
		score -= rules.ImagePenalty
		suggestions = append(suggestions, fmt.Sprintf("⚠️ Image format detected (%s). ATS systems cannot read images. Create a PDF or DOCX resume with selectable text.", upper))
	case !typeOK:
		score -= rules.FormatPenalty
		suggestions = append(suggestions, fmt.Sprintf("%s format not optimal. Prefer PDF or DOCX for maximum compatibility.", upper))
	}

	if !sizeOK {
		score -= rules.SizePenalty
		suggestions = append(suggestions, fmt.Sprintf("File size too large (%dMB). Reduce to under 2MB by compressing images or simplifying design.",
			int(math.Round(sizeKB/1024))))
	}

	roundedKB := int(math.Round(sizeKB))
	if typeOK && sizeOK {
		suggestions = append(suggestions, fmt.Sprintf("%s format and size (%dKB) are perfect for ATS!", upper, roundedKB))
	}
	if fileType == "pdf" {
		suggestions = append(suggestions, "Make sure your PDF contains selectable text, not just a scanned image.")
	}

	formatNote := "Non-optimal format ✗"
	if typeOK {
		formatNote = "Compatible format ✓"
	}
	sizeNote := "Size too large ✗"
	if sizeOK {
		sizeNote = "Acceptable size ✓"
	}
	explanation := fmt.Sprintf("ATS systems prefer PDF or DOCX formats with selectable text. Your file is %s (%dKB). %s. %s.",
		upper, roundedKB, formatNote, sizeNote)

	sec := &types.FileFormatSection{
		SectionResult: c.result(types.SectionFileFormat, score, explanation, suggestions),
		FileType:      fileType,
		FileTypeOK:    typeOK,
		FileSizeKB:    sizeKB,
		FileSizeOK:    sizeOK,
	}
	sec.FAQs = c.faqs(types.SectionFileFormat)
	return sec
}
