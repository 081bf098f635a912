package cli

import (
	"fmt"

	"atsscore/internal/common"
	"atsscore/internal/errors"
	"atsscore/internal/lexicon"

	"github.com/spf13/cobra"
)

var lexiconCmd = &cobra.Command{
	Use:   "lexicon",
	Short: "Print the vocabulary used for scoring",
	Long: `Print the effective lexicon for a language: action verbs by category,
strong and generic verbs, buzzwords, ATS-safe fonts and stopwords.

The lexicon comes from scoring.lexiconFile when set, otherwise from the
built-in defaults. Use it to check a custom lexicon file before serving it.`,
	Args: cobra.NoArgs,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return common.ValidateOutputFormat(lexiconConfig.OutputFormat, []string{"yaml", "json"})
	},
	RunE: runLexicon,
}

var (
	lexiconConfig   = common.CommandConfig{OutputFormat: "yaml"}
	lexiconLanguage string
	lexiconCategory string
	lexiconFile     string
)

func init() {
	lexiconCmd.Flags().StringVarP(&lexiconConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	lexiconCmd.Flags().StringVar(&lexiconConfig.OutputFormat, "format", "yaml", "Output format: yaml or json")
	lexiconCmd.Flags().StringVar(&lexiconLanguage, "language", "en", "Language to print")
	lexiconCmd.Flags().StringVar(&lexiconCategory, "category", "", "Print only this verb category")
	lexiconCmd.Flags().StringVar(&lexiconFile, "file", "", "Lexicon file (overrides scoring.lexiconFile)")
}

func runLexicon(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	path := cfg.Scoring.LexiconFile
	if lexiconFile != "" {
		path = lexiconFile
	}

	lex, err := lexicon.Load(path)
	if err != nil {
		return errors.NewConfigError(errors.ErrCodeLexiconLoadFailed, "failed to load lexicon", err).
			WithContext("path", path)
	}

	view, err := lex.View(lexiconLanguage, lexiconCategory)
	if err != nil {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest, "invalid lexicon query", err)
	}

	logger.Debug("Printing lexicon",
		"source", view.Source,
		"language", view.Language,
		"categories", len(view.Verbs))

	if err := common.NewOutputHandler(logger).HandleOutput(view, lexiconConfig); err != nil {
		return fmt.Errorf("failed to print lexicon: %w", err)
	}
	return nil
}
