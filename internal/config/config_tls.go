package config

// ValidateTLSConfig validates the TLS configuration
func (c *Config) ValidateTLSConfig() error {
	tls := c.Server.TLS

	if err := validateTLSMode(tls); err != nil {
		return err
	}
	return validateTLSVersion(tls)
}

// validateTLSMode validates the TLS mode and associated requirements
func validateTLSMode(tls TLSConfig) error {
	switch tls.Mode {
	case "disabled":
		return nil
	case "server":
		if err := validateCertAndKeyRequired(tls, "server mode"); err != nil {
			return err
		}
		return validateNoDuplicateSources(tls)
	case "mutual":
		if err := validateCertAndKeyRequired(tls, "mutual mode"); err != nil {
			return err
		}
		if tls.CAFile == "" && tls.CAContent == "" {
			return invalid("CA certificate is required for mutual TLS mode (provide either caFile or caContent)")
		}
		if err := validateNoDuplicateSources(tls); err != nil {
			return err
		}
		return validateClientAuthPolicy(tls)
	default:
		return invalid("invalid TLS mode: %s (must be 'disabled', 'server', or 'mutual')", tls.Mode)
	}
}

// validateCertAndKeyRequired checks that both certificate and key are provided
func validateCertAndKeyRequired(tls TLSConfig, mode string) error {
	if (tls.CertFile == "" && tls.CertContent == "") || (tls.KeyFile == "" && tls.KeyContent == "") {
		return invalid("TLS certificate and key are required for %s (provide either files or content)", mode)
	}
	return nil
}

// validateNoDuplicateSources ensures each PEM comes from a file or from content, not both
func validateNoDuplicateSources(tls TLSConfig) error {
	if tls.CertFile != "" && tls.CertContent != "" {
		return invalid("cannot specify both certFile and certContent - choose one")
	}
	if tls.KeyFile != "" && tls.KeyContent != "" {
		return invalid("cannot specify both keyFile and keyContent - choose one")
	}
	if tls.CAFile != "" && tls.CAContent != "" {
		return invalid("cannot specify both caFile and caContent - choose one")
	}
	return nil
}

// validateClientAuthPolicy validates the client authentication policy
func validateClientAuthPolicy(tls TLSConfig) error {
	switch tls.ClientAuthPolicy {
	case "require", "request", "verify", "":
		return nil
	default:
		return invalid("invalid clientAuthPolicy: %s (must be 'require', 'request', or 'verify')", tls.ClientAuthPolicy)
	}
}

// validateTLSVersion validates the TLS version configuration
func validateTLSVersion(tls TLSConfig) error {
	switch tls.MinVersion {
	case "", "1.2", "1.3":
		return nil
	default:
		return invalid("invalid TLS minVersion: %s (must be '1.2' or '1.3')", tls.MinVersion)
	}
}
