package types

import "strings"

// AnalysisRequest is the input of a single résumé analysis
type AnalysisRequest struct {
	ResumeText         string         `json:"resume_text" validate:"notblank"`
	FileType           string         `json:"file_type" validate:"required"`
	FileSizeKB         *float64       `json:"file_size_kb" validate:"required,gte=0"`
	CandidateName      string         `json:"candidate_name,omitempty"`
	JobTitleTarget     string         `json:"job_title_target,omitempty"`
	JobDescription     string         `json:"job_description,omitempty"`
	ParseCoverageRatio *float64       `json:"parse_coverage_ratio,omitempty" validate:"omitempty,gte=0,lte=1"`
	AvailableTemplates []string       `json:"available_templates,omitempty"`
	ParsedCV           *ParsedCV      `json:"parsed_cv,omitempty"`
	ExtraMetadata      *ExtraMetadata `json:"extra_metadata,omitempty"`
}

// ParsedCV is the structured résumé produced by an upstream CV parser
type ParsedCV struct {
	Header     *CVHeader           `json:"header,omitempty"`
	Summary    string              `json:"summary,omitempty"`
	Experience []CVExperience      `json:"experience,omitempty"`
	Education  []CVEducation       `json:"education,omitempty"`
	Skills     map[string][]string `json:"skills,omitempty"`
	Metadata   *CVMetadata         `json:"metadata,omitempty"`
}

// CVHeader holds the candidate's identity and contact fields
type CVHeader struct {
	FullName string   `json:"fullName,omitempty"`
	Email    string   `json:"email,omitempty"`
	Phone    string   `json:"phone,omitempty"`
	Location string   `json:"location,omitempty"`
	Links    *CVLinks `json:"links,omitempty"`

	// Older parser versions put links directly on the header.
	LinkedIn string `json:"linkedin,omitempty"`
	Website  string `json:"website,omitempty"`
}

// CVLinks groups the candidate's online profiles
type CVLinks struct {
	LinkedIn  string `json:"linkedin,omitempty"`
	Website   string `json:"website,omitempty"`
	GitHub    string `json:"github,omitempty"`
	Portfolio string `json:"portfolio,omitempty"`
}

// CVExperience is one position
type CVExperience struct {
	Title     string   `json:"title,omitempty"`
	Company   string   `json:"company,omitempty"`
	Location  string   `json:"location,omitempty"`
	StartDate string   `json:"startDate,omitempty"`
	EndDate   string   `json:"endDate,omitempty"`
	Bullets   []string `json:"bullets,omitempty"`
}

// CVEducation is one degree or course
type CVEducation struct {
	Degree string `json:"degree,omitempty"`
	School string `json:"school,omitempty"`
	Year   string `json:"year,omitempty"`
}

// CVMetadata carries parser-side facts about the document
type CVMetadata struct {
	Language string `json:"language,omitempty"`
}

// ExtraMetadata lets callers override values the engine would otherwise derive
type ExtraMetadata struct {
	Sections          DeclaredSections `json:"sections,omitempty"`
	WordCount         *int             `json:"word_count,omitempty" validate:"omitempty,gte=0"`
	BulletCount       *int             `json:"bullet_count,omitempty" validate:"omitempty,gte=0"`
	FontName          string           `json:"font_name,omitempty"`
	YearsOfExperience float64          `json:"years_of_experience,omitempty" validate:"gte=0"`
}

// DeclaredSections records sections the caller already knows about. Values
// may be booleans, the section text itself, or null.
type DeclaredSections map[string]any

// Has reports whether a section was declared present.
func (d DeclaredSections) Has(name string) bool {
	switch v := d[name].(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return strings.TrimSpace(v) != ""
	case float64:
		return v != 0
	default:
		return true
	}
}

// Text returns the declared section body when the caller sent text.
func (d DeclaredSections) Text(name string) string {
	s, _ := d[name].(string)
	return s
}

// Sections returns the declared sections, or nil when no metadata was sent.
func (r *AnalysisRequest) Sections() DeclaredSections {
	if r.ExtraMetadata == nil {
		return nil
	}
	return r.ExtraMetadata.Sections
}

// Language returns the language the CV parser detected, if any.
func (r *AnalysisRequest) Language() string {
	if r.ParsedCV == nil || r.ParsedCV.Metadata == nil {
		return ""
	}
	return r.ParsedCV.Metadata.Language
}

// Header returns the parsed header or nil.
func (r *AnalysisRequest) Header() *CVHeader {
	if r.ParsedCV == nil {
		return nil
	}
	return r.ParsedCV.Header
}
