package ats

import (
	"math"
	"strings"

	"atsscore/internal/lexicon"
	"atsscore/internal/types"
)

// Default parse coverage when nothing was measured or parsed.
const defaultParseCoverage = 0.75

// Input is the normalized, read-only view every check receives.
type Input struct {
	Request *types.AnalysisRequest

	Text  string
	Lines []string
	// Bullets are bullet lines with their glyph or number stripped.
	Bullets []string

	WordCount          int
	BulletCount        int
	ParseCoverageRatio float64

	FileType   string
	FileSizeKB float64
	Language   string
}

// Normalize validates req and derives the metadata the caller left out.
func Normalize(req *types.AnalysisRequest) (*Input, error) {
	if err := ValidateRequest(req); err != nil {
		return nil, err
	}

	text := req.ResumeText
	in := &Input{
		Request:    req,
		Text:       text,
		Lines:      strings.Split(text, "\n"),
		Bullets:    extractBullets(text),
		FileType:   strings.ToLower(strings.TrimSpace(req.FileType)),
		FileSizeKB: *req.FileSizeKB,
		Language:   lexicon.NormalizeLanguage(req.Language()),
	}

	in.WordCount = countWords(text)
	in.BulletCount = countBulletLines(text)
	if meta := req.ExtraMetadata; meta != nil {
		if meta.WordCount != nil {
			in.WordCount = *meta.WordCount
		}
		if meta.BulletCount != nil {
			in.BulletCount = *meta.BulletCount
		}
	}
	in.ParseCoverageRatio = estimateParseCoverage(req)

	return in, nil
}

// estimateParseCoverage returns the caller's ratio, else a ladder over the
// parsed CV substructures, else the flat default.
func estimateParseCoverage(req *types.AnalysisRequest) float64 {
	if req.ParseCoverageRatio != nil {
		return *req.ParseCoverageRatio
	}

	cv := req.ParsedCV
	if cv == nil {
		return defaultParseCoverage
	}

	coverage := 60
	if cv.Header != nil {
		coverage += 10
	}
	if len(cv.Experience) > 0 {
		coverage += 10
	}
	if len(cv.Education) > 0 {
		coverage += 10
	}
	if cv.Skills != nil {
		coverage += 5
	}
	if strings.TrimSpace(cv.Summary) != "" {
		coverage += 5
	}
	return math.Min(100, float64(coverage)) / 100
}

// designBulletCount is the bullet count the layout checks use: the caller's
// override, else the bullets actually extracted.
func (in *Input) designBulletCount() int {
	if meta := in.Request.ExtraMetadata; meta != nil && meta.BulletCount != nil {
		return *meta.BulletCount
	}
	return len(in.Bullets)
}

func (in *Input) declared() types.DeclaredSections {
	return in.Request.Sections()
}

func (in *Input) fontName() string {
	if meta := in.Request.ExtraMetadata; meta != nil {
		return strings.TrimSpace(meta.FontName)
	}
	return ""
}

func (in *Input) yearsOfExperience() float64 {
	if meta := in.Request.ExtraMetadata; meta != nil {
		return meta.YearsOfExperience
	}
	return 0
}
