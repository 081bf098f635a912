package config

import (
	"testing"

	"atsscore/internal/errors"

	"github.com/stretchr/testify/assert"
)

func TestValidateTLSConfig(t *testing.T) {
	tests := []struct {
		name        string
		tls         TLSConfig
		expectError bool
		errorMsg    string
	}{
		{
			name: "disabled TLS",
			tls:  TLSConfig{Mode: "disabled"},
		},
		{
			name: "server mode with files",
			tls: TLSConfig{
				Mode:       "server",
				CertFile:   "/path/to/cert.pem",
				KeyFile:    "/path/to/key.pem",
				MinVersion: "1.2",
			},
		},
		{
			name: "mutual mode with content",
			tls: TLSConfig{
				Mode:             "mutual",
				CertContent:      "cert-content",
				KeyContent:       "key-content",
				CAContent:        "ca-content",
				ClientAuthPolicy: "require",
				MinVersion:       "1.3",
			},
		},
		{
			name:        "invalid mode",
			tls:         TLSConfig{Mode: "invalid"},
			expectError: true,
			errorMsg:    "invalid TLS mode: invalid",
		},
		{
			name: "invalid version",
			tls: TLSConfig{
				Mode:       "server",
				CertFile:   "/path/to/cert.pem",
				KeyFile:    "/path/to/key.pem",
				MinVersion: "1.0",
			},
			expectError: true,
			errorMsg:    "invalid TLS minVersion: 1.0",
		},
		{
			name:        "server mode missing certificates",
			tls:         TLSConfig{Mode: "server", MinVersion: "1.2"},
			expectError: true,
			errorMsg:    "TLS certificate and key are required for server mode",
		},
		{
			name: "server mode key missing",
			tls: TLSConfig{
				Mode:     "server",
				CertFile: "/path/to/cert.pem",
			},
			expectError: true,
			errorMsg:    "TLS certificate and key are required for server mode",
		},
		{
			name: "cert from file and content",
			tls: TLSConfig{
				Mode:        "server",
				CertFile:    "/path/to/cert.pem",
				CertContent: "cert-content",
				KeyFile:     "/path/to/key.pem",
			},
			expectError: true,
			errorMsg:    "cannot specify both certFile and certContent",
		},
		{
			name: "mutual mode missing CA",
			tls: TLSConfig{
				Mode:     "mutual",
				CertFile: "/path/to/cert.pem",
				KeyFile:  "/path/to/key.pem",
			},
			expectError: true,
			errorMsg:    "CA certificate is required for mutual TLS mode",
		},
		{
			name: "mutual mode CA from file and content",
			tls: TLSConfig{
				Mode:      "mutual",
				CertFile:  "/path/to/cert.pem",
				KeyFile:   "/path/to/key.pem",
				CAFile:    "/path/to/ca.pem",
				CAContent: "ca-content",
			},
			expectError: true,
			errorMsg:    "cannot specify both caFile and caContent",
		},
		{
			name: "mutual mode bad client auth policy",
			tls: TLSConfig{
				Mode:             "mutual",
				CertFile:         "/path/to/cert.pem",
				KeyFile:          "/path/to/key.pem",
				CAFile:           "/path/to/ca.pem",
				ClientAuthPolicy: "sometimes",
			},
			expectError: true,
			errorMsg:    "invalid clientAuthPolicy: sometimes",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{Server: ServerConfig{TLS: tt.tls}}
			err := cfg.ValidateTLSConfig()

			if tt.expectError {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
				assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
