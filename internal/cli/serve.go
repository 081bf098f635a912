package cli

import (
	"fmt"

	"atsscore/internal/config"
	"atsscore/internal/server"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP scoring service",
	Long: `Start an HTTP server that scores résumés over a REST API.

Available endpoints:
- POST /analyze: Score one analysis request
- POST /analyze/batch: Score several requests in one call
- GET /lexicon: Effective scoring vocabulary
- GET /health: Health check, degraded while a check breaker is open
- GET /stats: Server, scoring and rate limiting statistics

Authentication uses X-API-Key or a bearer token (an API key or an HS256 JWT).

TLS Configuration:
- Use --tls-mode to set TLS mode: disabled, server, mutual
- Use --cert-file and --key-file for TLS certificates
- Use --ca-file for mutual TLS client certificate verification`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringP("port", "p", "", "Port to listen on (default from config)")
	serveCmd.Flags().String("host", "", "Host to bind to (default from config)")
	serveCmd.Flags().String("tls-mode", "", "TLS mode: disabled, server, mutual (overrides config)")
	serveCmd.Flags().String("cert-file", "", "Server certificate file (PEM, overrides config)")
	serveCmd.Flags().String("key-file", "", "Server private key file (PEM, overrides config)")
	serveCmd.Flags().String("ca-file", "", "CA certificate file for client cert verification (PEM, overrides config)")
	serveCmd.Flags().String("lexicon", "", "Lexicon file (overrides scoring.lexiconFile)")
	serveCmd.Flags().Bool("watch-lexicon", false, "Reload the lexicon file when it changes")

	bindFlag(serveCmd, "server.port", "port")
	bindFlag(serveCmd, "server.host", "host")
	bindFlag(serveCmd, "server.tls.mode", "tls-mode")
	bindFlag(serveCmd, "server.tls.certFile", "cert-file")
	bindFlag(serveCmd, "server.tls.keyFile", "key-file")
	bindFlag(serveCmd, "server.tls.caFile", "ca-file")
	bindFlag(serveCmd, "scoring.lexiconFile", "lexicon")
	bindFlag(serveCmd, "scoring.watchLexicon", "watch-lexicon")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	if err := config.ApplyVaultSecrets(cfg, logger); err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}

	// Vault may have supplied certificate content
	if err := cfg.ValidateTLSConfig(); err != nil {
		return fmt.Errorf("invalid TLS configuration: %w", err)
	}

	return server.NewServer(cfg, server.ServerConfigFrom(cfg, Version), logger).Start()
}
