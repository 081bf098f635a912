package cli

import (
	"context"
	"fmt"

	"atsscore/internal/ats"
	"atsscore/internal/common"
	"atsscore/internal/config"
	"atsscore/internal/errors"
	"atsscore/internal/extract"
	"atsscore/internal/service"
	"atsscore/internal/types"

	"github.com/spf13/cobra"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [resume-file]",
	Short: "Score a résumé for ATS compatibility",
	Long: `Analyze a résumé and print its ATS compatibility report.

The file can be a PDF, DOCX, HTML, Markdown or plain text résumé, or a JSON
analysis request carrying the résumé text and every optional field. Flags
fill in or override request fields in both cases.

The report includes:
- Global score with four weighted pillars
- Parse rate, design and file format checks
- Keyword match against an optional job description
- Quantified impact, repetition, grammar and style findings
- Essential sections, contact details and length checks`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		format, err := common.ResolveOutputFormat(analyzeConfig.OutputFormat, cfg.App.DefaultFormat, cfg.App.SupportedFormats)
		if err != nil {
			return err
		}
		analyzeConfig.OutputFormat = format
		return nil
	},
	RunE: runAnalyze,
}

var analyzeConfig common.CommandConfig

// analyzeOptions holds the request fields settable from flags
var analyzeOptions struct {
	FileType       string
	SizeKB         float64
	JobDescription string
	JobTitle       string
	CandidateName  string
	Templates      []string
	Font           string
	Language       string
}

func init() {
	flags := analyzeCmd.Flags()
	flags.StringVarP(&analyzeConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	flags.StringVar(&analyzeConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")

	flags.StringVar(&analyzeOptions.FileType, "file-type", "", "File type to report (default: the file extension)")
	flags.Float64Var(&analyzeOptions.SizeKB, "size-kb", 0, "File size in KB to report (default: the size on disk)")
	flags.StringVarP(&analyzeOptions.JobDescription, "job-description", "j", "", "Job description file (text or HTML)")
	flags.StringVar(&analyzeOptions.JobTitle, "job-title", "", "Target job title")
	flags.StringVar(&analyzeOptions.CandidateName, "candidate", "", "Candidate name")
	flags.StringSliceVar(&analyzeOptions.Templates, "templates", nil, "Available template names to recommend from")
	flags.StringVar(&analyzeOptions.Font, "font", "", "Font name used in the document")
	flags.StringVar(&analyzeOptions.Language, "language", "", "Résumé language (en, fr, ...)")

	_ = analyzeCmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{"json", "text", "markdown"}, cobra.ShellCompDirectiveNoFileComp
	})
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	svc, err := service.NewFromConfig(cmd.Context(), cfg, nil, nil, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.Warn("Failed to close report cache", "error", err)
		}
	}()

	createInput := func(docs []*extract.Document) (*types.AnalysisRequest, error) {
		if len(docs) != 1 {
			return nil, fmt.Errorf("expected 1 file path, got %d", len(docs))
		}
		return buildRequest(cmd, cfg, docs[0])
	}

	logDetails := func(req *types.AnalysisRequest, cfg common.CommandConfig) {
		logger.Info("Starting résumé analysis",
			"file_type", req.FileType,
			"resume_chars", len(req.ResumeText),
			"has_job_description", req.JobDescription != "",
			"output_format", cfg.OutputFormat)
	}

	var score int
	analyzeOperation := func(ctx context.Context, req *types.AnalysisRequest) (*types.ATSReport, error) {
		report, _, err := svc.Analyze(ctx, req)
		if err != nil {
			return nil, err
		}
		score = report.GlobalScore
		return report, nil
	}

	err = common.RunCommand(
		cmd.Context(),
		logger,
		analyzeConfig,
		args,
		createInput,
		analyzeOperation,
		logDetails,
	)
	if err != nil {
		return fmt.Errorf("failed to analyze résumé: %w", err)
	}

	logger.Info("Résumé analysis completed successfully", "global_score", score)
	return nil
}

// buildRequest turns an input document into an analysis request. JSON
// documents are decoded as full requests; anything else becomes the résumé
// text. Flags that were set override the result either way.
func buildRequest(cmd *cobra.Command, cfg *config.Config, doc *extract.Document) (*types.AnalysisRequest, error) {
	var req *types.AnalysisRequest
	if doc.FileType == "json" {
		decoded, err := ats.DecodeRequest([]byte(doc.Text))
		if err != nil {
			return nil, err
		}
		req = decoded
	} else {
		if limit := cfg.App.MaxFileSize; limit > 0 && doc.SizeKB*1024 > float64(limit) {
			return nil, errors.NewValidationError(errors.ErrCodeInvalidFileSize,
				fmt.Sprintf("résumé file is larger than %d bytes", limit), nil).
				WithContext("size_kb", doc.SizeKB)
		}
		size := doc.SizeKB
		req = &types.AnalysisRequest{
			ResumeText: doc.Text,
			FileType:   doc.FileType,
			FileSizeKB: &size,
		}
	}

	flags := cmd.Flags()
	if flags.Changed("file-type") {
		req.FileType = analyzeOptions.FileType
	}
	if flags.Changed("size-kb") {
		size := analyzeOptions.SizeKB
		req.FileSizeKB = &size
	}
	if analyzeOptions.JobDescription != "" {
		jd, err := extract.JobDescriptionFromFile(analyzeOptions.JobDescription)
		if err != nil {
			return nil, err
		}
		req.JobDescription = jd
	}
	if analyzeOptions.JobTitle != "" {
		req.JobTitleTarget = analyzeOptions.JobTitle
	}
	if analyzeOptions.CandidateName != "" {
		req.CandidateName = analyzeOptions.CandidateName
	}
	if len(analyzeOptions.Templates) > 0 {
		req.AvailableTemplates = analyzeOptions.Templates
	}
	if analyzeOptions.Font != "" {
		if req.ExtraMetadata == nil {
			req.ExtraMetadata = &types.ExtraMetadata{}
		}
		req.ExtraMetadata.FontName = analyzeOptions.Font
	}
	if analyzeOptions.Language != "" {
		if req.ParsedCV == nil {
			req.ParsedCV = &types.ParsedCV{}
		}
		if req.ParsedCV.Metadata == nil {
			req.ParsedCV.Metadata = &types.CVMetadata{}
		}
		req.ParsedCV.Metadata.Language = analyzeOptions.Language
	}

	return req, nil
}
