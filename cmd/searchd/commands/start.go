package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/avolpe/searchd/internal/logger"
	"github.com/avolpe/searchd/internal/telemetry"
	"github.com/avolpe/searchd/pkg/api"
	"github.com/avolpe/searchd/pkg/config"
	"github.com/avolpe/searchd/pkg/metrics"
	"github.com/avolpe/searchd/pkg/search"
	"github.com/avolpe/searchd/pkg/server"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the searchd server",
	Long: `Start the searchd server with the specified configuration.

Use --config to specify a custom configuration file, or it will use the
default location at $XDG_CONFIG_HOME/searchd/config.yaml.

Examples:
  # Start with default config location
  searchd start

  # Start with custom config file
  searchd start --config /etc/searchd/config.yaml

  # Start with environment variable overrides
  SEARCHD_LOGGING_LEVEL=DEBUG searchd start`,
	RunE: runStart,
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}

	// Initialize the structured logger
	loggerCfg := logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}
	if err := logger.Init(loggerCfg); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	// Create cancellable context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry (if enabled)
	telemetryCfg := telemetry.DefaultConfig()
	telemetryCfg.Enabled = cfg.Telemetry.Enabled
	telemetryCfg.ServiceVersion = Version
	telemetryCfg.Insecure = cfg.Telemetry.Insecure
	telemetryCfg.SampleRate = cfg.Telemetry.SampleRate
	if cfg.Telemetry.Endpoint != "" {
		telemetryCfg.Endpoint = cfg.Telemetry.Endpoint
	}
	telemetryShutdown, err := telemetry.Init(ctx, telemetryCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		if err := telemetryShutdown(ctx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}()

	// Initialize Pyroscope profiling (if enabled)
	profilingCfg := telemetry.ProfilingConfig{
		Enabled:        cfg.Telemetry.Profiling.Enabled,
		ServiceName:    "searchd",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Profiling.Endpoint,
		ProfileTypes:   cfg.Telemetry.Profiling.ProfileTypes,
	}
	profilingShutdown, err := telemetry.InitProfiling(profilingCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize profiling: %w", err)
	}
	defer func() {
		if err := profilingShutdown(); err != nil {
			logger.Error("profiling shutdown error", "error", err)
		}
	}()

	logger.Info("Log level", "level", cfg.Logging.Level, "format", cfg.Logging.Format)
	logger.Info("Configuration loaded", "source", getConfigSource(GetConfigFile()))
	logger.Info("Lookup configuration",
		logger.KeyFile, cfg.FilePath,
		logger.KeyMode, modeLabel(cfg.RereadOnQuery),
		"ssl_enabled", cfg.SSLEnabled)
	if telemetry.IsEnabled() {
		logger.Info("Telemetry enabled", "endpoint", cfg.Telemetry.Endpoint, "sample_rate", cfg.Telemetry.SampleRate)
	}
	if telemetry.IsProfilingEnabled() {
		logger.Info("Profiling enabled", "endpoint", cfg.Telemetry.Profiling.Endpoint)
	}

	// Initialize metrics FIRST so the lookup and connection collectors
	// register against a live registry
	var metricsServer *metrics.Server
	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		metricsServer = metrics.NewServer(cfg.Metrics.Port)
		logger.Info("Metrics enabled", "port", cfg.Metrics.Port)
	} else {
		logger.Info("Metrics collection disabled")
	}

	engine := search.NewEngine(cfg.FilePath, cfg.RereadOnQuery, metrics.NewLookupMetrics())

	// Watch the backing file so operators can see staleness in the logs
	stopWatch, err := engine.Watch(ctx)
	if err != nil {
		logger.Warn("file watcher unavailable", logger.KeyError, err)
	} else {
		defer func() {
			if err := stopWatch(); err != nil {
				logger.Error("file watcher shutdown error", "error", err)
			}
		}()
	}

	srvConfig := server.Config{
		Host: cfg.Server.Host,
		Port: cfg.Server.Port,
	}
	if cfg.SSLEnabled {
		tlsConfig, err := server.LoadTLSConfig(cfg.CertFile, cfg.KeyFile)
		if err != nil {
			return fmt.Errorf("failed to load TLS certificate: %w", err)
		}
		srvConfig.TLSConfig = tlsConfig
		logger.Info("TLS enabled", "cert_file", cfg.CertFile)
	}

	srv := server.New(srvConfig, engine, metrics.NewConnMetrics())

	if metricsServer != nil {
		go func() {
			if err := metricsServer.Start(ctx); err != nil {
				logger.Error("metrics server error", "error", err)
			}
		}()
	}

	// Start API server (if enabled)
	if cfg.API.Enabled {
		ready := func() bool {
			select {
			case <-srv.WaitReady():
				return true
			default:
				return false
			}
		}
		healthHandler := api.NewHealthHandler(engine, cfg.FilePath, ready)
		apiServer := api.NewServer(cfg.API, healthHandler)
		go func() {
			if err := apiServer.Start(ctx); err != nil {
				logger.Error("API server error", "error", err)
			}
		}()
		logger.Info("API server enabled", "port", cfg.API.Port)
	} else {
		logger.Info("API server disabled")
	}

	// Start server in background
	serverDone := make(chan error, 1)
	go func() {
		serverDone <- srv.Serve(ctx)
	}()

	// Wait for interrupt signal or server error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("Server is running. Press Ctrl+C to stop.")

	select {
	case <-sigChan:
		signal.Stop(sigChan)
		logger.Info("Shutdown signal received, initiating graceful shutdown")
		cancel()

		if err := <-serverDone; err != nil {
			logger.Error("Server shutdown error", "error", err)
			return err
		}
		logger.Info("Server stopped gracefully")

	case err := <-serverDone:
		signal.Stop(sigChan)
		if err != nil {
			logger.Error("Server error", "error", err)
			return err
		}
		logger.Info("Server stopped")
	}

	return nil
}

// getConfigSource returns a description of where the config was loaded from.
func getConfigSource(configFile string) string {
	if configFile != "" {
		return configFile
	}
	if config.DefaultConfigExists() {
		return config.GetDefaultConfigPath()
	}
	return "defaults"
}

func modeLabel(reread bool) string {
	if reread {
		return logger.ModeReread
	}
	return logger.ModeCached
}
