package observability

import (
	"atsscore/internal/config"
)

// GetObservabilityConfig creates observability config from provided config
func GetObservabilityConfig(cfg *config.Config, version string) ObservabilityConfig {
	if cfg == nil {
		return ObservabilityConfig{
			ServiceName:    "atsscore",
			ServiceVersion: version,
			Enabled:        true,
			ConsoleOutput:  true,
			PrettyPrint:    true,
			SampleRate:     1.0,
			Prometheus:     GetPrometheusConfig(nil),
		}
	}

	obsConfig := cfg.Observability

	// Use app version if service version not specified
	serviceVersion := obsConfig.ServiceVersion
	if serviceVersion == "" {
		serviceVersion = version
	}

	return ObservabilityConfig{
		ServiceName:        obsConfig.ServiceName,
		ServiceVersion:     serviceVersion,
		ServiceInstance:    obsConfig.ServiceInstance,
		Enabled:            obsConfig.Enabled,
		ConsoleOutput:      obsConfig.ConsoleOutput,
		PrettyPrint:        obsConfig.Console.PrettyPrint,
		SampleRate:         obsConfig.SampleRate,
		CollectionInterval: obsConfig.Metrics.CollectionInterval,
		Prometheus:         GetPrometheusConfig(cfg),
		OTLP:               obsConfig.OTLP,
	}
}
