package server

import (
	"fmt"
	"sync"
	"time"

	"atsscore/internal/config"
	"atsscore/internal/errors"
)

// KeyReloadCallback receives the API keys of a new secret version, or the
// error that prevented reading them
type KeyReloadCallback func(keys []string, err error)

// VaultWatcher polls the API key secret and hands every new version to a
// callback. Keys are rotated without restarting the server.
type VaultWatcher struct {
	mu sync.RWMutex

	client         config.SecretReader
	secretPath     string
	pollInterval   time.Duration
	reloadCallback KeyReloadCallback
	logger         *errors.Logger

	stopChan    chan struct{}
	running     bool
	lastVersion int64
	lastCheck   time.Time
	rotations   int
}

// NewVaultWatcher creates a new VaultWatcher
func NewVaultWatcher(client config.SecretReader, secretPath string, pollInterval time.Duration, reloadCallback KeyReloadCallback, logger *errors.Logger) *VaultWatcher {
	if logger == nil {
		logger = errors.Discard()
	}
	return &VaultWatcher{
		client:         client,
		secretPath:     secretPath,
		pollInterval:   pollInterval,
		reloadCallback: reloadCallback,
		logger:         logger,
		stopChan:       make(chan struct{}),
	}
}

// Start begins polling Vault for secret changes
func (vw *VaultWatcher) Start() error {
	vw.mu.Lock()
	defer vw.mu.Unlock()
	if vw.running {
		return fmt.Errorf("vault watcher is already running")
	}
	if vw.pollInterval <= 0 {
		return fmt.Errorf("vault watcher poll interval must be positive")
	}
	vw.running = true
	go vw.pollLoop()
	vw.logger.Info("Vault watcher started", "secret_path", vw.secretPath, "poll_interval", vw.pollInterval)
	return nil
}

// Stop stops the Vault watcher
func (vw *VaultWatcher) Stop() error {
	vw.mu.Lock()
	defer vw.mu.Unlock()
	if !vw.running {
		return nil
	}
	close(vw.stopChan)
	vw.running = false
	vw.logger.Info("Vault watcher stopped")
	return nil
}

// pollLoop polls Vault for secret changes
func (vw *VaultWatcher) pollLoop() {
	ticker := time.NewTicker(vw.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			vw.poll()
		case <-vw.stopChan:
			return
		}
	}
}

// poll reads the secret once and fires the callback when its version moved
func (vw *VaultWatcher) poll() {
	secret, changed, err := vw.checkForUpdates()
	if err != nil {
		vw.logger.LogError(err, "Failed to check Vault for updates")
		return
	}
	if !changed {
		return
	}

	keys, err := config.APIKeysFromSecret(secret, vw.secretPath)
	if err != nil {
		vw.logger.LogError(err, "Failed to read API keys from new secret version")
		vw.reloadCallback(nil, err)
		return
	}

	vw.mu.Lock()
	vw.rotations++
	vw.mu.Unlock()

	vw.logger.Info("API key secret changed, rotating keys",
		"secret_path", vw.secretPath,
		"version", secret.Version,
		"key_count", len(keys))
	vw.reloadCallback(keys, nil)
}

// checkForUpdates checks if the Vault secret version has changed
func (vw *VaultWatcher) checkForUpdates() (*config.VaultSecret, bool, error) {
	secret, err := vw.client.GetSecretV2(vw.secretPath)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read secret: %w", err)
	}
	if secret == nil {
		return nil, false, fmt.Errorf("secret %s not found", vw.secretPath)
	}

	vw.mu.Lock()
	defer vw.mu.Unlock()
	vw.lastCheck = time.Now()
	if secret.Version > vw.lastVersion {
		vw.lastVersion = secret.Version
		return secret, true, nil
	}
	return secret, false, nil
}

// Status returns the current status of the VaultWatcher for health reporting
func (vw *VaultWatcher) Status() map[string]any {
	vw.mu.RLock()
	defer vw.mu.RUnlock()
	return map[string]any{
		"running":       vw.running,
		"poll_interval": vw.pollInterval.String(),
		"secret_path":   vw.secretPath,
		"last_version":  vw.lastVersion,
		"last_check":    vw.lastCheck,
		"rotations":     vw.rotations,
	}
}
