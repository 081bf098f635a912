package server

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"atsscore/internal/config"
	"atsscore/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func selfSignedPEM(t *testing.T) (certPEM, keyPEM string) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "atsscore-test"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		IsCA:                  true,
		BasicConstraintsValid: true,
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)

	keyDER, err := x509.MarshalECPrivateKey(key)
	require.NoError(t, err)

	certPEM = string(pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}))
	keyPEM = string(pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER}))
	return certPEM, keyPEM
}

func TestBuildTLSConfig(t *testing.T) {
	certPEM, keyPEM := selfSignedPEM(t)

	t.Run("server mode from content", func(t *testing.T) {
		cfg, err := buildTLSConfig(config.TLSConfig{Mode: "server", CertContent: certPEM, KeyContent: keyPEM, MinVersion: "1.3"})
		require.NoError(t, err)
		assert.Len(t, cfg.Certificates, 1)
		assert.Equal(t, uint16(tls.VersionTLS13), cfg.MinVersion)
		assert.Equal(t, tls.NoClientCert, cfg.ClientAuth)
	})

	t.Run("mutual mode", func(t *testing.T) {
		cfg, err := buildTLSConfig(config.TLSConfig{
			Mode: "mutual", CertContent: certPEM, KeyContent: keyPEM, CAContent: certPEM, ClientAuthPolicy: "verify",
		})
		require.NoError(t, err)
		assert.NotNil(t, cfg.ClientCAs)
		assert.Equal(t, tls.VerifyClientCertIfGiven, cfg.ClientAuth)
		assert.Equal(t, uint16(tls.VersionTLS12), cfg.MinVersion)
	})

	t.Run("mutual mode without CA", func(t *testing.T) {
		_, err := buildTLSConfig(config.TLSConfig{Mode: "mutual", CertContent: certPEM, KeyContent: keyPEM})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "CA certificate is required")
	})

	t.Run("bad CA content", func(t *testing.T) {
		_, err := buildTLSConfig(config.TLSConfig{Mode: "mutual", CertContent: certPEM, KeyContent: keyPEM, CAContent: "not a pem"})
		require.Error(t, err)
	})

	t.Run("server mode from files", func(t *testing.T) {
		dir := t.TempDir()
		certFile := filepath.Join(dir, "server.crt")
		keyFile := filepath.Join(dir, "server.key")
		require.NoError(t, os.WriteFile(certFile, []byte(certPEM), 0600))
		require.NoError(t, os.WriteFile(keyFile, []byte(keyPEM), 0600))

		cfg, err := buildTLSConfig(config.TLSConfig{Mode: "server", CertFile: certFile, KeyFile: keyFile})
		require.NoError(t, err)
		assert.Len(t, cfg.Certificates, 1)
	})

	t.Run("missing certificate", func(t *testing.T) {
		_, err := buildTLSConfig(config.TLSConfig{Mode: "server"})
		require.Error(t, err)
	})
}

func TestConfigureTLS(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		s := &Server{TLSConfig: config.TLSConfig{Mode: "disabled"}}
		httpServer := &http.Server{Addr: "127.0.0.1:0"}
		require.NoError(t, s.configureTLS(httpServer))
		assert.Nil(t, httpServer.TLSConfig)
	})

	t.Run("invalid mode", func(t *testing.T) {
		s := &Server{TLSConfig: config.TLSConfig{Mode: "sometimes"}}
		err := s.configureTLS(&http.Server{})
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
	})
}

func TestClientAuthPolicy(t *testing.T) {
	assert.Equal(t, tls.RequireAndVerifyClientCert, clientAuthPolicy("require"))
	assert.Equal(t, tls.RequestClientCert, clientAuthPolicy("request"))
	assert.Equal(t, tls.VerifyClientCertIfGiven, clientAuthPolicy("verify"))
	assert.Equal(t, tls.RequireAndVerifyClientCert, clientAuthPolicy(""))
}
