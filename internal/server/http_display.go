package server

import (
	"fmt"
	"net"
)

// startupLines describes the configured server for the console banner.
func (s *Server) startupLines() []string {
	scheme := "http"
	tlsLine := "TLS: disabled"
	switch s.TLSConfig.Mode {
	case "server":
		scheme, tlsLine = "https", "TLS: server certificate only"
	case "mutual":
		scheme, tlsLine = "https", fmt.Sprintf("TLS: mutual (client certificates, policy %s)", s.TLSConfig.ClientAuthPolicy)
	}

	lines := []string{
		fmt.Sprintf("atsscore %s listening on %s://%s", s.Version, scheme, net.JoinHostPort(s.Host, s.Port)),
		tlsLine,
		"Endpoints:",
		"  GET  /health",
		"  GET  /stats",
		"  GET  /lexicon        (authenticated)",
		"  POST /analyze        (authenticated)",
		fmt.Sprintf("  POST /analyze/batch  (authenticated, up to %d requests)", s.MaxBatchSize),
	}

	if s.authEnabled() {
		lines = append(lines, fmt.Sprintf("Auth: %d API keys, JWT %s", s.APIKeyCount(), onOff(len(s.jwtSecret) > 0)))
	} else {
		lines = append(lines, "Auth: disabled, API endpoints are public")
	}

	if s.MaxRequestSize > 0 {
		lines = append(lines, fmt.Sprintf("Request size limit: %.1f MB", float64(s.MaxRequestSize)/(1024*1024)))
	} else {
		lines = append(lines, "Request size limit: none")
	}

	if s.RateLimit != nil && s.RateLimit.Enabled {
		lines = append(lines, fmt.Sprintf("Rate limit: %d/min, burst %d (by IP %s, by key %s)",
			s.RateLimit.RequestsPerMin, s.RateLimit.BurstCapacity, onOff(s.RateLimit.ByIP), onOff(s.RateLimit.ByAPIKey)))
	} else {
		lines = append(lines, "Rate limit: disabled")
	}
	return lines
}

// displayServerInfo prints the banner and logs the same facts
func (s *Server) displayServerInfo() {
	for _, line := range s.startupLines() {
		fmt.Println(line)
	}
	s.Logger.Info("Server configured",
		"address", net.JoinHostPort(s.Host, s.Port),
		"tls_mode", s.TLSConfig.Mode,
		"auth", s.authEnabled(),
		"api_keys", s.APIKeyCount(),
		"max_request_size", s.MaxRequestSize,
		"max_batch_size", s.MaxBatchSize,
		"rate_limit", s.RateLimit != nil && s.RateLimit.Enabled)
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
