package types

// Status is the human-readable band a section score falls into
type Status string

const (
	StatusExcellent        Status = "excellent"
	StatusGood             Status = "good"
	StatusNeedsImprovement Status = "needs_improvement"
	StatusPoor             Status = "poor"
)

// SectionKey identifies one of the twelve report sections
type SectionKey string

const (
	SectionParseRate  SectionKey = "ats_parse_rate"
	SectionDesign     SectionKey = "design_layout"
	SectionKeywords   SectionKey = "keywords_relevance"
	SectionImpact     SectionKey = "quantify_impact"
	SectionRepetition SectionKey = "repetition"
	SectionGrammar    SectionKey = "grammar_spelling"
	SectionEssentials SectionKey = "essential_sections"
	SectionContact    SectionKey = "contact_info"
	SectionFileFormat SectionKey = "file_format_size"
	SectionLength     SectionKey = "length_and_bullets"
	SectionStyle      SectionKey = "style_active_voice"
	SectionTemplates  SectionKey = "template_suggestions"
)

// SectionKeys lists every section in report order.
var SectionKeys = []SectionKey{
	SectionParseRate,
	SectionDesign,
	SectionKeywords,
	SectionImpact,
	SectionRepetition,
	SectionGrammar,
	SectionEssentials,
	SectionContact,
	SectionFileFormat,
	SectionLength,
	SectionStyle,
	SectionTemplates,
}

// SectionResult is the part every section shares
type SectionResult struct {
	Score       int      `json:"score"`
	Status      Status   `json:"status"`
	Headline    string   `json:"headline"`
	Explanation string   `json:"explanation"`
	Suggestions []string `json:"suggestions"`
	FAQs        []FAQ    `json:"faqs,omitempty"`

	// Degraded is set when the check failed and the section was filled in
	// with a placeholder.
	Degraded bool `json:"degraded,omitempty"`
}

// Result gives typed sections a common accessor.
func (r *SectionResult) Result() *SectionResult {
	return r
}

// Section is implemented by every typed section through SectionResult.
type Section interface {
	Result() *SectionResult
}

// FAQ is a question/answer pair shown next to a section
type FAQ struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// ParseRateSection reports how well an ATS can extract the résumé
type ParseRateSection struct {
	SectionResult
	ParseRate         int    `json:"parse_rate"`
	OriginalPreview   string `json:"original_preview"`
	ParsedPreview     string `json:"parsed_preview"`
	CanBuildATSResume bool   `json:"can_build_ats_resume"`
}

// DesignSection reports on visual layout signals
type DesignSection struct {
	SectionResult
}

// KeywordItem is one job keyword and whether the résumé contains it
type KeywordItem struct {
	Keyword string `json:"keyword"`
	Present bool   `json:"present"`
}

// KeywordsSection compares the résumé with the target job
type KeywordsSection struct {
	SectionResult
	PresentKeywords []KeywordItem `json:"present_keywords"`
	MissingKeywords []KeywordItem `json:"missing_keywords"`
}

// BulletExample is a weak bullet with the reasons it scored low
type BulletExample struct {
	OriginalBullet string `json:"original_bullet"`
	Analysis       string `json:"analysis"`
	ImprovedBullet string `json:"improved_bullet"`
}

// EducationalExample contrasts a weak and a strong bullet
type EducationalExample struct {
	WeakExample   string `json:"weak_example"`
	StrongExample string `json:"strong_example"`
	Comment       string `json:"comment"`
}

// ImpactSection scores bullets against the XYZ method
type ImpactSection struct {
	SectionResult
	Examples            []BulletExample      `json:"examples"`
	GeneralTips         []string             `json:"general_tips"`
	EducationalExamples []EducationalExample `json:"educational_examples"`
}

// RepeatedWord is a frequent term and whether it counts against the résumé
type RepeatedWord struct {
	Word          string `json:"word"`
	Count         int    `json:"count"`
	IsProblematic bool   `json:"is_problematic"`
}

// RepetitionSection reports overused words and buzzwords
type RepetitionSection struct {
	SectionResult
	TopRepeatedWords []RepeatedWord `json:"top_repeated_words"`
	BuzzwordsToAvoid []string       `json:"buzzwords_to_avoid"`
}

// GrammarIssue is one matched known issue and its correction
type GrammarIssue struct {
	OriginalText  string `json:"original_text"`
	CorrectedText string `json:"corrected_text"`
	ErrorType     string `json:"error_type"`
}

// GrammarSection reports known spelling, punctuation and tense issues
type GrammarSection struct {
	SectionResult
	Issues      []GrammarIssue `json:"issues"`
	GeneralTips []string       `json:"general_tips"`
}

// EssentialsSection reports which standard sections exist
type EssentialsSection struct {
	SectionResult
	HasExperience bool     `json:"has_experience"`
	HasEducation  bool     `json:"has_education"`
	HasSkills     bool     `json:"has_skills"`
	OtherSections []string `json:"other_sections"`
}

// ContactSection reports detected contact details. Values are only ever
// strings found in the input.
type ContactSection struct {
	SectionResult
	HasEmail               bool   `json:"has_email"`
	EmailProfessional      bool   `json:"email_professional"`
	HasPhone               bool   `json:"has_phone"`
	HasLocation            bool   `json:"has_location"`
	HasLinkedInOrWebsite   bool   `json:"has_linkedin_or_website"`
	EmailValue             string `json:"email_value,omitempty"`
	PhoneValue             string `json:"phone_value,omitempty"`
	LocationValue          string `json:"location_value,omitempty"`
	LinkedInOrWebsiteValue string `json:"linkedin_or_website_value,omitempty"`
}

// FileFormatSection reports on the declared file type and size
type FileFormatSection struct {
	SectionResult
	FileType   string  `json:"file_type"`
	FileTypeOK bool    `json:"file_type_ok"`
	FileSizeKB float64 `json:"file_size_kb"`
	FileSizeOK bool    `json:"file_size_ok"`
}

// LongBullet is a bullet over the length limit with a truncated rewrite
type LongBullet struct {
	OriginalBullet string `json:"original_bullet"`
	ShorterVersion string `json:"shorter_version"`
}

// LengthSection reports overall length and bullet length
type LengthSection struct {
	SectionResult
	EstimatedPages      string       `json:"estimated_pages"`
	LongBulletsExamples []LongBullet `json:"long_bullets_examples"`
}

// StyleExample is a rewritten bullet with the rule it broke
type StyleExample struct {
	OriginalText string `json:"original_text"`
	ImprovedText string `json:"improved_text"`
	Comment      string `json:"comment"`
}

// StyleSection reports passive voice, first person and jargon
type StyleSection struct {
	SectionResult
	Examples []StyleExample `json:"examples"`
}

// TemplateRecommendation is one suggested template
type TemplateRecommendation struct {
	TemplateName string `json:"template_name"`
	Reason       string `json:"reason"`
}

// TemplatesSection is advisory and never weighs on the global score
type TemplatesSection struct {
	SectionResult
	RecommendedTemplates []TemplateRecommendation `json:"recommended_templates"`
	GenericCallToAction  string                   `json:"generic_call_to_action"`
}

// Sections holds one result per section key
type Sections struct {
	ParseRate  *ParseRateSection  `json:"ats_parse_rate"`
	Design     *DesignSection     `json:"design_layout"`
	Keywords   *KeywordsSection   `json:"keywords_relevance"`
	Impact     *ImpactSection     `json:"quantify_impact"`
	Repetition *RepetitionSection `json:"repetition"`
	Grammar    *GrammarSection    `json:"grammar_spelling"`
	Essentials *EssentialsSection `json:"essential_sections"`
	Contact    *ContactSection    `json:"contact_info"`
	FileFormat *FileFormatSection `json:"file_format_size"`
	Length     *LengthSection     `json:"length_and_bullets"`
	Style      *StyleSection      `json:"style_active_voice"`
	Templates  *TemplatesSection  `json:"template_suggestions"`
}

// Get returns the section stored under key, or nil. Typed nil pointers are
// reported as a nil interface.
func (s *Sections) Get(key SectionKey) Section {
	switch key {
	case SectionParseRate:
		if s.ParseRate != nil {
			return s.ParseRate
		}
	case SectionDesign:
		if s.Design != nil {
			return s.Design
		}
	case SectionKeywords:
		if s.Keywords != nil {
			return s.Keywords
		}
	case SectionImpact:
		if s.Impact != nil {
			return s.Impact
		}
	case SectionRepetition:
		if s.Repetition != nil {
			return s.Repetition
		}
	case SectionGrammar:
		if s.Grammar != nil {
			return s.Grammar
		}
	case SectionEssentials:
		if s.Essentials != nil {
			return s.Essentials
		}
	case SectionContact:
		if s.Contact != nil {
			return s.Contact
		}
	case SectionFileFormat:
		if s.FileFormat != nil {
			return s.FileFormat
		}
	case SectionLength:
		if s.Length != nil {
			return s.Length
		}
	case SectionStyle:
		if s.Style != nil {
			return s.Style
		}
	case SectionTemplates:
		if s.Templates != nil {
			return s.Templates
		}
	}
	return nil
}

// Set stores sec in the slot matching its concrete type.
func (s *Sections) Set(sec Section) {
	switch v := sec.(type) {
	case *ParseRateSection:
		s.ParseRate = v
	case *DesignSection:
		s.Design = v
	case *KeywordsSection:
		s.Keywords = v
	case *ImpactSection:
		s.Impact = v
	case *RepetitionSection:
		s.Repetition = v
	case *GrammarSection:
		s.Grammar = v
	case *EssentialsSection:
		s.Essentials = v
	case *ContactSection:
		s.Contact = v
	case *FileFormatSection:
		s.FileFormat = v
	case *LengthSection:
		s.Length = v
	case *StyleSection:
		s.Style = v
	case *TemplatesSection:
		s.Templates = v
	}
}

// Pillars is the weighted breakdown behind the global score
type Pillars struct {
	TechnicalATS      float64 `json:"technical_ats"`
	ContentQuality    float64 `json:"content_quality"`
	ImpactSpecificity float64 `json:"impact_specificity"`
	RelevanceKeywords float64 `json:"relevance_keywords"`
}

// ATSReport is the final result of one analysis
type ATSReport struct {
	LanguageUsed       string            `json:"language_used"`
	GlobalScore        int               `json:"global_score"`
	IssuesCount        int               `json:"issues_count"`
	OverallComment     string            `json:"overall_comment"`
	Pillars            Pillars           `json:"pillars"`
	ParseCoverageRatio float64           `json:"parse_coverage_ratio"`
	WordCount          int               `json:"word_count"`
	BulletCount        int               `json:"bullet_count"`
	UITexts            map[string]string `json:"ui_texts"`
	Sections           Sections          `json:"sections"`
}

// Degraded reports whether any section holds a placeholder from a failed
// check.
func (r *ATSReport) Degraded() bool {
	for _, key := range SectionKeys {
		if sec := r.Sections.Get(key); sec != nil && sec.Result().Degraded {
			return true
		}
	}
	return false
}
