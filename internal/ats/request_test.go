package ats

import (
	stderrors "errors"
	"testing"

	"atsscore/internal/errors"
	"atsscore/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }

func TestDecodeRequest(t *testing.T) {
	body := []byte(`{
		"resume_text": "Jane Doe\nExperience\n- Built APIs",
		"file_type": "PDF",
		"file_size_kb": 120.5,
		"job_description": null,
		"parse_coverage_ratio": 0.9,
		"available_templates": ["Classic", "Modern"],
		"parsed_cv": {
			"header": {"fullName": "Jane Doe", "links": {"github": "github.com/jane"}},
			"skills": {"languages": ["Go", "SQL"]},
			"metadata": {"language": "fr"}
		},
		"extra_metadata": {"word_count": 320, "sections": {"skills": true}}
	}`)

	req, err := DecodeRequest(body)
	require.NoError(t, err)

	assert.Equal(t, "PDF", req.FileType)
	require.NotNil(t, req.FileSizeKB)
	assert.Equal(t, 120.5, *req.FileSizeKB)
	assert.Equal(t, 0.9, *req.ParseCoverageRatio)
	assert.Equal(t, []string{"Classic", "Modern"}, req.AvailableTemplates)
	assert.Equal(t, "Jane Doe", req.Header().FullName)
	assert.Equal(t, "github.com/jane", req.Header().Links.GitHub)
	assert.Equal(t, "fr", req.Language())
	assert.Equal(t, 320, *req.ExtraMetadata.WordCount)
	assert.True(t, req.Sections().Has("skills"))
}

func TestDecodeRequestErrors(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		code  string
		field string
	}{
		{"missing resume text", `{"file_type":"pdf","file_size_kb":10}`, errors.ErrCodeEmptyResume, "resume_text"},
		{"blank resume text", `{"resume_text":"  \n\t ","file_type":"pdf","file_size_kb":10}`, errors.ErrCodeEmptyResume, "resume_text"},
		{"missing file type", `{"resume_text":"cv","file_size_kb":10}`, errors.ErrCodeMissingFileType, "file_type"},
		{"empty file type", `{"resume_text":"cv","file_type":"","file_size_kb":10}`, errors.ErrCodeMissingFileType, "file_type"},
		{"string file size", `{"resume_text":"cv","file_type":"pdf","file_size_kb":"big"}`, errors.ErrCodeInvalidFileSize, "file_size_kb"},
		{"negative file size", `{"resume_text":"cv","file_type":"pdf","file_size_kb":-1}`, errors.ErrCodeInvalidFileSize, "file_size_kb"},
		{"coverage above one", `{"resume_text":"cv","file_type":"pdf","file_size_kb":1,"parse_coverage_ratio":1.5}`, errors.ErrCodeSchemaViolation, "parse_coverage_ratio"},
		{"fractional word count", `{"resume_text":"cv","file_type":"pdf","file_size_kb":1,"extra_metadata":{"word_count":2.5}}`, errors.ErrCodeSchemaViolation, "extra_metadata.word_count"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeRequest([]byte(tt.body))
			require.Error(t, err)

			var appErr *errors.AppError
			require.True(t, stderrors.As(err, &appErr))
			assert.Equal(t, errors.ErrorTypeValidation, appErr.Type)
			assert.Equal(t, tt.code, appErr.Code)
			assert.Equal(t, tt.field, appErr.Context["field"])
		})
	}
}

func TestDecodeRequestMalformedJSON(t *testing.T) {
	_, err := DecodeRequest([]byte(`{"resume_text":`))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}

func TestValidateRequest(t *testing.T) {
	valid := func() *types.AnalysisRequest {
		return &types.AnalysisRequest{ResumeText: "cv", FileType: "pdf", FileSizeKB: floatPtr(10)}
	}

	require.NoError(t, ValidateRequest(valid()))

	tests := []struct {
		name    string
		mutate  func(r *types.AnalysisRequest)
		code    string
		message string
	}{
		{"empty text", func(r *types.AnalysisRequest) { r.ResumeText = "" },
			errors.ErrCodeEmptyResume, "resume_text is required and cannot be empty"},
		{"whitespace text", func(r *types.AnalysisRequest) { r.ResumeText = " \n\t" },
			errors.ErrCodeEmptyResume, "resume_text is required and cannot be empty"},
		{"missing file type", func(r *types.AnalysisRequest) { r.FileType = "" },
			errors.ErrCodeMissingFileType, "file_type is required"},
		{"missing file size", func(r *types.AnalysisRequest) { r.FileSizeKB = nil },
			errors.ErrCodeInvalidFileSize, "file_size_kb must be a number"},
		{"negative file size", func(r *types.AnalysisRequest) { r.FileSizeKB = floatPtr(-1) },
			errors.ErrCodeInvalidFileSize, "file_size_kb must not be negative"},
		{"coverage out of range", func(r *types.AnalysisRequest) { r.ParseCoverageRatio = floatPtr(2) },
			errors.ErrCodeSchemaViolation, "parse_coverage_ratio failed the 'lte' rule"},
		{"negative word count", func(r *types.AnalysisRequest) {
			r.ExtraMetadata = &types.ExtraMetadata{WordCount: intPtr(-3)}
		}, errors.ErrCodeSchemaViolation, "extra_metadata.word_count failed the 'gte' rule"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid()
			tt.mutate(req)

			err := ValidateRequest(req)
			require.Error(t, err)

			var appErr *errors.AppError
			require.True(t, stderrors.As(err, &appErr))
			assert.Equal(t, tt.code, appErr.Code)
			assert.Equal(t, tt.message, appErr.Message)
		})
	}

	assert.Error(t, ValidateRequest(nil))
}

func TestNormalize(t *testing.T) {
	text := "Jane Doe\nExperience\n- Built APIs in Go\n• Led a team of 4\n1. Shipped v2\nplain line"

	in, err := Normalize(&types.AnalysisRequest{ResumeText: text, FileType: " PDF ", FileSizeKB: floatPtr(100)})
	require.NoError(t, err)

	assert.Equal(t, "pdf", in.FileType)
	assert.Equal(t, []string{"Built APIs in Go", "Led a team of 4", "Shipped v2"}, in.Bullets)
	assert.Equal(t, 3, in.BulletCount)
	assert.Equal(t, countWords(text), in.WordCount)
	assert.Equal(t, defaultParseCoverage, in.ParseCoverageRatio)
	assert.Equal(t, "en", in.Language)
	assert.Len(t, in.Lines, 6)

	t.Run("overrides", func(t *testing.T) {
		in, err := Normalize(&types.AnalysisRequest{
			ResumeText:    text,
			FileType:      "pdf",
			FileSizeKB:    floatPtr(100),
			ExtraMetadata: &types.ExtraMetadata{WordCount: intPtr(900), BulletCount: intPtr(0)},
			ParsedCV:      &types.ParsedCV{Metadata: &types.CVMetadata{Language: "French"}},
		})
		require.NoError(t, err)
		assert.Equal(t, 900, in.WordCount)
		assert.Equal(t, 0, in.BulletCount)
		assert.Equal(t, 0, in.designBulletCount())
		assert.Equal(t, "fr", in.Language)
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := Normalize(&types.AnalysisRequest{ResumeText: "  ", FileType: "pdf", FileSizeKB: floatPtr(1)})
		assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
	})
}

func TestEstimateParseCoverage(t *testing.T) {
	tests := []struct {
		name string
		req  types.AnalysisRequest
		want float64
	}{
		{"no parsed cv", types.AnalysisRequest{}, 0.75},
		{"caller ratio wins", types.AnalysisRequest{ParseCoverageRatio: floatPtr(0.42), ParsedCV: &types.ParsedCV{}}, 0.42},
		{"empty parsed cv", types.AnalysisRequest{ParsedCV: &types.ParsedCV{}}, 0.60},
		{"header and experience", types.AnalysisRequest{ParsedCV: &types.ParsedCV{
			Header:     &types.CVHeader{FullName: "Jane"},
			Experience: []types.CVExperience{{Title: "Engineer"}},
		}}, 0.80},
		{"everything", types.AnalysisRequest{ParsedCV: &types.ParsedCV{
			Header:     &types.CVHeader{},
			Summary:    "Backend engineer",
			Experience: []types.CVExperience{{}},
			Education:  []types.CVEducation{{}},
			Skills:     map[string][]string{},
		}}, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, estimateParseCoverage(&tt.req), 1e-9)
		})
	}
}
