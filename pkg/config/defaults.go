package config

import "time"

// Default listener settings. Port 44445 matches the historical deployment.
const (
	DefaultHost = "0.0.0.0"
	DefaultPort = 44445

	DefaultMetricsPort = 9090
	DefaultAPIPort     = 8080
)

// GetDefaultConfig returns a fully populated configuration suitable for
// writing out as a sample file (see 'searchd init').
func GetDefaultConfig() *Config {
	return &Config{
		FilePath:      "/var/lib/searchd/200k.txt",
		RereadOnQuery: false,
		SSLEnabled:    false,
		Server: ServerConfig{
			Host: DefaultHost,
			Port: DefaultPort,
		},
		Logging: LoggingConfig{
			Level:  "INFO",
			Format: "text",
			Output: "stdout",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    DefaultMetricsPort,
		},
		API: APIConfig{
			Enabled:      false,
			Port:         DefaultAPIPort,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Telemetry: TelemetryConfig{
			Enabled:    false,
			Endpoint:   "localhost:4317",
			Insecure:   true,
			SampleRate: 1.0,
			Profiling: ProfilingConfig{
				Enabled:  false,
				Endpoint: "http://localhost:4040",
			},
		},
	}
}

// ApplyDefaults fills in zero-valued optional fields after unmarshal.
// The three lookup keys are never defaulted; their presence is enforced
// during Load.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = DefaultHost
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultPort
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "INFO"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	if cfg.Metrics.Port == 0 {
		cfg.Metrics.Port = DefaultMetricsPort
	}

	if cfg.API.Port == 0 {
		cfg.API.Port = DefaultAPIPort
	}
	if cfg.API.ReadTimeout == 0 {
		cfg.API.ReadTimeout = 10 * time.Second
	}
	if cfg.API.WriteTimeout == 0 {
		cfg.API.WriteTimeout = 10 * time.Second
	}

	if cfg.Telemetry.Endpoint == "" {
		cfg.Telemetry.Endpoint = "localhost:4317"
	}
	if cfg.Telemetry.SampleRate == 0 {
		cfg.Telemetry.SampleRate = 1.0
	}
	if cfg.Telemetry.Profiling.Endpoint == "" {
		cfg.Telemetry.Profiling.Endpoint = "http://localhost:4040"
	}
}
