package server

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net/http"
	"os"

	"atsscore/internal/config"
	"atsscore/internal/errors"
)

// configureTLS attaches a TLS configuration to httpServer unless TLS is
// disabled.
func (s *Server) configureTLS(httpServer *http.Server) error {
	switch s.TLSConfig.Mode {
	case "disabled", "":
		return nil
	case "server", "mutual":
	default:
		return errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("invalid TLS mode: %s (must be 'disabled', 'server', or 'mutual')", s.TLSConfig.Mode), nil)
	}

	tlsConfig, err := buildTLSConfig(s.TLSConfig)
	if err != nil {
		return err
	}
	httpServer.TLSConfig = tlsConfig
	return nil
}

// buildTLSConfig turns the TLS settings into a tls.Config. PEM content,
// usually supplied by Vault, wins over files.
func buildTLSConfig(cfg config.TLSConfig) (*tls.Config, error) {
	certPEM, err := readPEM(cfg.CertContent, cfg.CertFile, "server certificate")
	if err != nil {
		return nil, err
	}
	keyPEM, err := readPEM(cfg.KeyContent, cfg.KeyFile, "server key")
	if err != nil {
		return nil, err
	}
	cert, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		return nil, tlsError("server certificate and key do not form a valid pair", err)
	}

	tlsConfig := &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tlsVersion(cfg.MinVersion),
		ClientAuth:   tls.NoClientCert,
	}
	if cfg.Mode != "mutual" {
		return tlsConfig, nil
	}

	caPEM, err := readPEM(cfg.CAContent, cfg.CAFile, "CA certificate")
	if err != nil {
		return nil, err
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(caPEM) {
		return nil, tlsError("CA certificate contains no usable PEM blocks", nil)
	}
	tlsConfig.ClientCAs = pool
	tlsConfig.ClientAuth = clientAuthPolicy(cfg.ClientAuthPolicy)
	return tlsConfig, nil
}

// readPEM returns content when set, otherwise the contents of file
func readPEM(content, file, what string) ([]byte, error) {
	if content != "" {
		return []byte(content), nil
	}
	if file == "" {
		return nil, tlsError(fmt.Sprintf("%s is required (provide a file or content)", what), nil)
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, tlsError(fmt.Sprintf("failed to read %s", what), err).WithContext("file", file)
	}
	return data, nil
}

func tlsError(msg string, cause error) *errors.AppError {
	return errors.NewConfigError(errors.ErrCodeInvalidConfig, msg, cause)
}

// tlsVersion maps the configured minimum version, defaulting to TLS 1.2
func tlsVersion(v string) uint16 {
	if v == "1.3" {
		return tls.VersionTLS13
	}
	return tls.VersionTLS12
}

// clientAuthPolicy returns the client authentication policy for mutual TLS
func clientAuthPolicy(policy string) tls.ClientAuthType {
	switch policy {
	case "request":
		return tls.RequestClientCert
	case "verify":
		return tls.VerifyClientCertIfGiven
	default:
		return tls.RequireAndVerifyClientCert
	}
}
