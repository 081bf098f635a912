package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"atsscore/internal/config"
	"atsscore/internal/lexicon"
	"atsscore/internal/observability"
	"atsscore/internal/service"
)

const defaultShutdownTimeout = 30 * time.Second

// Start starts the HTTP server with all configured components
func (s *Server) Start() error {
	om, err := s.initializeObservability()
	if err != nil {
		return err
	}
	defer s.shutdownObservability(om)

	if s.Service == nil {
		svc, err := service.NewFromConfig(context.Background(), s.AppConfig, om.Metrics(), om.Tracer("atsscore.ats"), s.Logger)
		if err != nil {
			return fmt.Errorf("failed to initialize scoring service: %w", err)
		}
		s.Service = svc
	}
	defer s.closeService()

	lexiconWatcher, err := s.startLexiconWatcher()
	if err != nil {
		return err
	}
	if lexiconWatcher != nil {
		defer s.stopWatcher("lexicon", lexiconWatcher.Stop)
	}

	keyWatcher, err := s.startKeyWatcher()
	if err != nil {
		return err
	}
	if keyWatcher != nil {
		defer s.stopWatcher("vault", keyWatcher.Stop)
	}

	httpServer := s.setupHTTPServer(om)

	if err := s.configureTLS(httpServer); err != nil {
		return err
	}

	s.displayServerInfo()

	return s.startWithGracefulShutdown(httpServer)
}

// initializeObservability sets up observability components
func (s *Server) initializeObservability() (*observability.ObservabilityManager, error) {
	om, err := observability.NewObservabilityManager(observability.GetObservabilityConfig(s.AppConfig, s.Version), s.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize observability: %w", err)
	}
	return om, nil
}

// shutdownObservability handles observability cleanup
func (s *Server) shutdownObservability(om *observability.ObservabilityManager) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := om.Shutdown(ctx); err != nil {
		s.Logger.LogError(err, "Failed to shutdown observability")
	}
}

// startLexiconWatcher reloads the scoring engine whenever the lexicon
// override file changes
func (s *Server) startLexiconWatcher() (*lexicon.Watcher, error) {
	scoring := s.AppConfig.Scoring
	if !scoring.WatchLexicon || scoring.LexiconFile == "" {
		return nil, nil
	}

	watcher, err := lexicon.NewWatcher(scoring.LexiconFile, scoring.ReloadDebounce, func(lex *lexicon.Lexicon) {
		// Reload logs and keeps the current engine on failure
		_ = s.Service.Reload(lex)
	}, s.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create lexicon watcher: %w", err)
	}
	if err := watcher.Start(); err != nil {
		return nil, fmt.Errorf("failed to start lexicon watcher: %w", err)
	}
	return watcher, nil
}

// startKeyWatcher rotates API keys when their Vault secret changes
func (s *Server) startKeyWatcher() (*VaultWatcher, error) {
	vaultCfg := s.AppConfig.Vault
	if !vaultCfg.Enabled || !vaultCfg.Watch.Enabled || vaultCfg.Secrets.APIKeys == "" {
		return nil, nil
	}

	client, err := config.NewVaultClient(vaultCfg, s.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Vault client: %w", err)
	}

	watcher := NewVaultWatcher(client, vaultCfg.Secrets.APIKeys, vaultCfg.Watch.PollInterval, func(keys []string, err error) {
		if err != nil || len(keys) == 0 {
			s.Logger.Warn("Keeping current API keys", "reason", "new secret version has no usable keys")
			return
		}
		s.SetAPIKeys(keys)
	}, s.Logger)
	if err := watcher.Start(); err != nil {
		return nil, fmt.Errorf("failed to start vault watcher: %w", err)
	}
	return watcher, nil
}

func (s *Server) stopWatcher(name string, stop func() error) {
	if err := stop(); err != nil {
		s.Logger.LogError(err, "Failed to stop watcher", "watcher", name)
	}
}

// Handler returns the fully wrapped HTTP handler
func (s *Server) Handler(om *observability.ObservabilityManager) http.Handler {
	return om.HTTPMiddleware()(requestIDMiddleware(s.setupRoutes(om)))
}

// setupHTTPServer creates and configures the HTTP server
func (s *Server) setupHTTPServer(om *observability.ObservabilityManager) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf("%s:%s", s.Host, s.Port),
		Handler:      s.Handler(om),
		ReadTimeout:  s.ReadTimeout,
		WriteTimeout: s.WriteTimeout,
		IdleTimeout:  s.IdleTimeout,
	}
}

// startWithGracefulShutdown starts the HTTP server and handles graceful shutdown
func (s *Server) startWithGracefulShutdown(server *http.Server) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)

	go func() {
		s.Logger.Info("Starting HTTP server",
			"address", server.Addr,
			"tls_enabled", server.TLSConfig != nil)

		var err error
		if server.TLSConfig != nil {
			// Certificates are already loaded into the TLS config
			err = server.ListenAndServeTLS("", "")
		} else {
			err = server.ListenAndServe()
		}

		if err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server failed to start: %w", err)
	case sig := <-quit:
		s.Logger.Info("Received shutdown signal, starting graceful shutdown",
			"signal", sig.String())

		return s.performGracefulShutdown(server)
	}
}

// performGracefulShutdown handles the graceful shutdown process
func (s *Server) performGracefulShutdown(server *http.Server) error {
	timeout := s.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.cleanupRateLimiter()

	s.Logger.Info("Shutting down HTTP server...")
	if err := server.Shutdown(shutdownCtx); err != nil {
		s.Logger.LogError(err, "Failed to shutdown server gracefully, forcing close")
		return server.Close()
	}

	s.Logger.Info("Server shutdown completed successfully")
	return nil
}

// cleanupRateLimiter cleans up the rate limiter resources
func (s *Server) cleanupRateLimiter() {
	if s.RateLimiter != nil {
		s.RateLimiter.Close()
		s.Logger.Info("Rate limiter cleaned up")
	}
}

func (s *Server) closeService() {
	if err := s.Service.Close(); err != nil {
		s.Logger.LogError(err, "Failed to close report cache")
	}
}
