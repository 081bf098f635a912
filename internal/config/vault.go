package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"atsscore/internal/errors"

	"github.com/hashicorp/vault/api"
)

// VaultConfig holds Vault connection configuration
type VaultConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Address   string `mapstructure:"address"`
	Token     string `mapstructure:"token"`
	TokenFile string `mapstructure:"tokenFile"`
	Namespace string `mapstructure:"namespace"`

	Secrets VaultSecrets     `mapstructure:"secrets"`
	Watch   VaultWatchConfig `mapstructure:"watch"`
}

// VaultSecrets defines where to find secrets in Vault. Every path points at
// a KVv2 secret; an empty path skips that secret.
type VaultSecrets struct {
	// APIKeys is read from the "keys" field as a comma-separated list
	APIKeys       string `mapstructure:"apiKeys"`
	JWTSecret     string `mapstructure:"jwtSecret"`     // "secret" field
	RedisPassword string `mapstructure:"redisPassword"` // "password" field
	TLSCerts      string `mapstructure:"tlsCerts"`      // "cert", "key" and "ca" fields
}

// VaultWatchConfig controls polling of the API key secret while serving
type VaultWatchConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	PollInterval time.Duration `mapstructure:"pollInterval"`
}

// Field names read from the KVv2 secrets.
const (
	vaultFieldAPIKeys  = "keys"
	vaultFieldJWT      = "secret"
	vaultFieldPassword = "password"
)

// VaultClient wraps the Vault API client
type VaultClient struct {
	client *api.Client
	config VaultConfig
	logger *errors.Logger
}

// VaultSecret represents a secret read from Vault's KVv2 engine.
type VaultSecret struct {
	Data    map[string]any
	Version int64
}

// NewVaultClient creates a new Vault client from configuration. It returns
// nil without error when Vault is disabled.
func NewVaultClient(config VaultConfig, logger *errors.Logger) (*VaultClient, error) {
	if !config.Enabled {
		if logger != nil {
			logger.Debug("Vault integration disabled")
		}
		return nil, nil
	}

	vaultConfig := api.DefaultConfig()
	if config.Address != "" {
		vaultConfig.Address = config.Address
	}
	client, err := api.NewClient(vaultConfig)
	if err != nil {
		return nil, errors.NewNetworkError(errors.ErrCodeInvalidConfig, "failed to create vault client", err)
	}
	if config.Namespace != "" {
		client.SetNamespace(config.Namespace)
	}

	token, err := resolveVaultToken(config, logger)
	if err != nil {
		return nil, err
	}
	client.SetToken(token)

	if err := testVaultConnection(client, config.Address, logger); err != nil {
		return nil, err
	}

	return &VaultClient{
		client: client,
		config: config,
		logger: logger,
	}, nil
}

// resolveVaultToken resolves the Vault token from config or file
func resolveVaultToken(config VaultConfig, logger *errors.Logger) (string, error) {
	token := config.Token

	if token == "" && config.TokenFile != "" {
		if logger != nil {
			logger.Debug("Reading Vault token from file", "file", config.TokenFile)
		}
		tokenBytes, err := os.ReadFile(config.TokenFile)
		if err != nil {
			return "", errors.NewConfigError(errors.ErrCodeInvalidConfig,
				"failed to read vault token file", err).WithContext("file", config.TokenFile)
		}
		token = strings.TrimSpace(string(tokenBytes))
	}

	if token == "" {
		return "", errors.NewConfigError(errors.ErrCodeInvalidConfig,
			"vault token is required when vault is enabled", nil)
	}
	return token, nil
}

// testVaultConnection tests the connection to Vault
func testVaultConnection(client *api.Client, address string, logger *errors.Logger) error {
	health, err := client.Sys().Health()
	if err != nil {
		if logger != nil {
			logger.LogError(err, "Failed to connect to Vault", "address", address)
		}
		return errors.NewNetworkError(errors.ErrCodeNetworkTimeout, "failed to connect to vault", err)
	}

	if logger != nil {
		logger.Info("Successfully connected to Vault",
			"address", address,
			"version", health.Version,
			"sealed", health.Sealed)
	}
	return nil
}

// GetSecretV2 retrieves a secret from a Vault KVv2 store.
func (vc *VaultClient) GetSecretV2(path string) (*VaultSecret, error) {
	if vc == nil {
		return nil, fmt.Errorf("vault client not initialized")
	}

	secret, err := vc.client.Logical().Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read secret from %s: %w", path, err)
	}
	if secret == nil || secret.Data == nil {
		return nil, fmt.Errorf("secret not found at path: %s", path)
	}
	return decodeKVv2(secret.Data, path)
}

// decodeKVv2 splits a raw KVv2 payload into its data and version
func decodeKVv2(raw map[string]any, path string) (*VaultSecret, error) {
	data, ok := raw["data"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("secret at %s is not in KVv2 format (missing 'data' field)", path)
	}
	metadata, ok := raw["metadata"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("secret at %s is not in KVv2 format (missing 'metadata' field)", path)
	}
	versionRaw, ok := metadata["version"]
	if !ok {
		return nil, fmt.Errorf("secret metadata at %s is missing 'version' field", path)
	}
	version, err := parseVersionValue(versionRaw, path)
	if err != nil {
		return nil, err
	}
	return &VaultSecret{Data: data, Version: version}, nil
}

// parseVersionValue parses version value from the types the API returns
func parseVersionValue(versionRaw any, path string) (int64, error) {
	switch v := versionRaw.(type) {
	case int64:
		return v, nil
	case float64:
		return int64(v), nil
	case string:
		version, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("could not parse secret version at %s: %w", path, err)
		}
		return version, nil
	default:
		return 0, fmt.Errorf("unexpected type for version at %s: %T", path, versionRaw)
	}
}

// GetStringSecret retrieves a string value from a Vault secret
func (vc *VaultClient) GetStringSecret(path, key string) (string, error) {
	secret, err := vc.GetSecretV2(path)
	if err != nil {
		return "", err
	}
	return stringField(secret, path, key)
}

// GetStringSliceSecret retrieves a comma-separated string as a slice from Vault
func (vc *VaultClient) GetStringSliceSecret(path, key string) ([]string, error) {
	value, err := vc.GetStringSecret(path, key)
	if err != nil {
		return nil, err
	}
	return splitAndTrim(value), nil
}

func stringField(secret *VaultSecret, path, key string) (string, error) {
	value, ok := secret.Data[key]
	if !ok {
		return "", fmt.Errorf("key '%s' not found in secret %s", key, path)
	}
	s, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("value for key '%s' is not a string in secret %s", key, path)
	}
	return s, nil
}

// APIKeysFromSecret extracts the API key list from a secret read at path.
func APIKeysFromSecret(secret *VaultSecret, path string) ([]string, error) {
	value, err := stringField(secret, path, vaultFieldAPIKeys)
	if err != nil {
		return nil, err
	}
	return splitAndTrim(value), nil
}

// SecretReader is the part of VaultClient that secret loading needs.
type SecretReader interface {
	GetSecretV2(path string) (*VaultSecret, error)
}

// ApplyVaultSecrets loads secrets from Vault and applies them to the config
func ApplyVaultSecrets(config *Config, logger *errors.Logger) error {
	if !config.Vault.Enabled {
		if logger != nil {
			logger.Debug("Vault integration disabled, skipping secret loading")
		}
		return nil
	}

	client, err := NewVaultClient(config.Vault, logger)
	if err != nil {
		return err
	}
	if client == nil {
		return nil
	}
	return applySecrets(client, config, logger)
}

// applySecrets copies every configured secret into config
func applySecrets(reader SecretReader, config *Config, logger *errors.Logger) error {
	paths := config.Vault.Secrets

	if paths.APIKeys != "" {
		secret, err := reader.GetSecretV2(paths.APIKeys)
		if err != nil {
			return secretLoadError("API keys", paths.APIKeys, err)
		}
		keys, err := APIKeysFromSecret(secret, paths.APIKeys)
		if err != nil {
			return secretLoadError("API keys", paths.APIKeys, err)
		}
		if len(keys) > 0 {
			config.Server.APIKeys = keys
		} else if logger != nil {
			logger.Warn("No API keys found in Vault", "path", paths.APIKeys)
		}
	}

	if err := loadStringSecret(reader, paths.JWTSecret, vaultFieldJWT, &config.Server.JWTSecret); err != nil {
		return secretLoadError("JWT secret", paths.JWTSecret, err)
	}
	if err := loadStringSecret(reader, paths.RedisPassword, vaultFieldPassword, &config.Cache.RedisPassword); err != nil {
		return secretLoadError("Redis password", paths.RedisPassword, err)
	}

	if paths.TLSCerts != "" {
		secret, err := reader.GetSecretV2(paths.TLSCerts)
		if err != nil {
			return secretLoadError("TLS certificates", paths.TLSCerts, err)
		}
		loaded := loadTLSCertificateContent(config, secret)
		if logger != nil {
			logger.Info("TLS certificates loaded from Vault", "certificates_loaded", loaded)
		}
	}

	if logger != nil {
		logger.Info("Successfully completed applying secrets from Vault",
			"api_keys", len(config.Server.APIKeys),
			"jwt_secret", config.Server.JWTSecret != "",
			"redis_password", config.Cache.RedisPassword != "")
	}
	return nil
}

// loadStringSecret sets *target from one field of the secret at path. An
// empty path or an empty value leaves target unchanged.
func loadStringSecret(reader SecretReader, path, key string, target *string) error {
	if path == "" {
		return nil
	}
	secret, err := reader.GetSecretV2(path)
	if err != nil {
		return err
	}
	value, err := stringField(secret, path, key)
	if err != nil {
		return err
	}
	if value != "" {
		*target = value
	}
	return nil
}

// loadTLSCertificateContent copies PEM content from the secret into the TLS config
func loadTLSCertificateContent(config *Config, secret *VaultSecret) int {
	loaded := 0
	fields := []struct {
		key    string
		target *string
	}{
		{"cert", &config.Server.TLS.CertContent},
		{"key", &config.Server.TLS.KeyContent},
		{"ca", &config.Server.TLS.CAContent},
	}
	for _, f := range fields {
		if content, ok := secret.Data[f.key].(string); ok && content != "" {
			*f.target = content
			loaded++
		}
	}
	return loaded
}

func secretLoadError(what, path string, err error) error {
	return errors.NewConfigError(errors.ErrCodeInvalidConfig,
		fmt.Sprintf("failed to load %s from vault", what), err).WithContext("path", path)
}
