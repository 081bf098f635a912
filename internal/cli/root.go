package cli

import (
	"context"
	"fmt"

	"atsscore/internal/config"
	"atsscore/internal/errors"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Define custom private types for context keys.
type configKeyType struct{}
type loggerKeyType struct{}

// Use variables of these types as the keys.
var configKey = configKeyType{}
var loggerKey = loggerKeyType{}

// skipConfigAnnotation marks commands that run without loading configuration
const skipConfigAnnotation = "atsscore/skip-config"

var (
	configFile string

	// cfgViper carries the flag bindings of every subcommand
	cfgViper = viper.New()
)

var rootCmd = &cobra.Command{
	Use:   "atsscore",
	Short: "Score résumés the way applicant tracking systems read them",
	Long: `atsscore analyzes a résumé with deterministic heuristics and produces an
ATS compatibility report: a global score, four weighted pillars and twelve
sections with findings and suggestions. It runs as a one-shot CLI or as an
HTTP service.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadRuntime,
}

// Execute runs the root command. Configuration and the logger are loaded
// before any subcommand runs and handed down through the context.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// loadRuntime loads configuration and builds the logger for cmd
func loadRuntime(cmd *cobra.Command, args []string) error {
	if cmd.Annotations[skipConfigAnnotation] == "true" {
		return nil
	}

	cfg, err := config.LoadConfigWith(cfgViper, configFile)
	if err != nil {
		return err
	}

	logger, err := errors.New(cfg.App.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Debug("Configuration loaded",
		"command", cmd.Name(),
		"version", Version,
		"log_level", cfg.App.LogLevel)

	ctx := context.WithValue(cmd.Context(), configKey, cfg)
	ctx = context.WithValue(ctx, loggerKey, logger)
	cmd.SetContext(ctx)
	return nil
}

// getConfigFromContext is a helper function to get config from context
func getConfigFromContext(ctx context.Context) *config.Config {
	if cfg, ok := ctx.Value(configKey).(*config.Config); ok {
		return cfg
	}
	panic("config not found in context") // Should not happen if properly initialized
}

// getLoggerFromContext is a helper function to get logger from context
func getLoggerFromContext(ctx context.Context) *errors.Logger {
	if logger, ok := ctx.Value(loggerKey).(*errors.Logger); ok {
		return logger
	}
	panic("logger not found in context") // Should not happen if properly initialized
}

// bindFlag ties a viper key to a flag of cmd so the flag, when set, wins over
// file and environment values
func bindFlag(cmd *cobra.Command, key, flagName string) {
	if err := cfgViper.BindPFlag(key, cmd.Flags().Lookup(flagName)); err != nil {
		panic(err)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Config file (default: ./config.yaml, $HOME/.atsscore/config.yaml, /etc/atsscore/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error (overrides config)")
	if err := cfgViper.BindPFlag("app.logLevel", rootCmd.PersistentFlags().Lookup("log-level")); err != nil {
		panic(err)
	}

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(lexiconCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}
