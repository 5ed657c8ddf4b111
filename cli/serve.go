package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	otelapi "go.opentelemetry.io/otel"

	"github.com/findata-labs/finmcp/config"
	"github.com/findata-labs/finmcp/dispatch"
	"github.com/findata-labs/finmcp/fin"
	"github.com/findata-labs/finmcp/fintools"
	"github.com/findata-labs/finmcp/mcp"
	finotel "github.com/findata-labs/finmcp/otel"
	"github.com/findata-labs/finmcp/probe"
	"github.com/findata-labs/finmcp/tool"
	"github.com/findata-labs/finmcp/transport"
)

// NewServeCmd creates the "serve" subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the tool server",
		Long:  "Start the tool server on one of the stdio, sse, or http transports.",
		RunE:  runServe,
	}

	cmd.Flags().StringP("transport", "t", "", "Transport: stdio | sse | http")
	cmd.Flags().String("host", "", "Listen host (sse and http)")
	cmd.Flags().IntP("port", "p", 0, "Listen port (sse and http)")
	cmd.Flags().String("config", "", "Path to finmcp.yaml")
	cmd.Flags().String("cors-origin", "", "Allowed CORS origin")
	cmd.Flags().Duration("timeout", 0, "Default upstream call timeout")
	cmd.Flags().String("probe-cron", "", "Cron expression for upstream health probes (UTC)")
	cmd.Flags().String("otlp-endpoint", "", "OTLP trace exporter endpoint")
	cmd.Flags().String("tls-cert", "", "TLS certificate file (http)")
	cmd.Flags().String("tls-key", "", "TLS key file (http)")
	cmd.Flags().Duration("read-timeout", 30*time.Second, "HTTP read timeout")
	cmd.Flags().Duration("write-timeout", 60*time.Second, "HTTP write timeout")
	cmd.Flags().Int64("max-body", 1<<20, "Max request body size in bytes")

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadServeConfig(cmd)
	if err != nil {
		return err
	}

	// The stdio transport owns stdout for protocol frames, so logs must go
	// to stderr on every transport.
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown, err := finotel.Init(ctx, "finmcp", cmd.Root().Version, cfg.OTLPEndpoint)
	if err != nil {
		return exitError(exitRuntime, "initializing telemetry: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = shutdown(shutdownCtx)
	}()

	observer, err := finotel.NewDispatchObserver(
		otelapi.GetMeterProvider().Meter("finmcp/dispatch"),
		otelapi.GetTracerProvider().Tracer("finmcp/dispatch"),
	)
	if err != nil {
		return exitError(exitRuntime, "initializing dispatch observability: %v", err)
	}
	tool.SetObserver(observer)
	defer tool.SetObserver(nil)

	client := fin.New(fin.Config{
		BaseURL: cfg.BaseURL,
		Token:   cfg.Token,
		Timeout: cfg.Timeout(),
	}, nil)

	registry := tool.NewRegistry()
	if err := fintools.RegisterAll(registry, client); err != nil {
		return exitError(exitRuntime, "registering tool catalog: %v", err)
	}
	registry.Freeze()

	dispatcher, err := dispatch.New(dispatch.Config{
		Registry:  registry,
		Transport: cfg.Transport,
		Timeout:   cfg.Timeout(),
		Logger:    logger,
	})
	if err != nil {
		return exitError(exitRuntime, "creating dispatcher: %v", err)
	}

	if cfg.ProbeCron != "" {
		scheduler, err := probe.NewScheduler(probe.SchedulerConfig{
			Client:   client,
			CronExpr: cfg.ProbeCron,
			Logger:   logger,
		})
		if err != nil {
			return exitError(exitConfig, "invalid probe schedule: %v", err)
		}
		if err := scheduler.Start(ctx); err != nil {
			return exitError(exitRuntime, "starting probe scheduler: %v", err)
		}
		defer func() {
			_ = scheduler.Stop(context.Background())
		}()
	}

	core := mcp.NewCore(dispatcher, mcp.ServerInfo{
		Name:    "finmcp",
		Version: cmd.Root().Version,
	}, logger)

	adapter, err := buildAdapter(cmd, cfg, core, dispatcher, registry, logger)
	if err != nil {
		return err
	}

	logger.Info("server starting",
		"transport", cfg.Transport,
		"host", cfg.Host,
		"port", cfg.Port,
		"tools", len(registry.Names()))

	if err := adapter.Serve(ctx); err != nil && ctx.Err() == nil {
		return exitError(exitRuntime, "server error: %v", err)
	}
	return nil
}

func buildAdapter(cmd *cobra.Command, cfg config.Config, core *mcp.Core, dispatcher *dispatch.Dispatcher, registry *tool.Registry, logger *slog.Logger) (transport.Adapter, error) {
	maxBody, _ := cmd.Flags().GetInt64("max-body")

	switch cfg.Transport {
	case config.TransportStdio:
		adapter, err := transport.NewStdio(transport.StdioConfig{
			Core:   core,
			Reader: cmd.InOrStdin(),
			Writer: cmd.OutOrStdout(),
			Logger: logger,
		})
		if err != nil {
			return nil, exitError(exitRuntime, "creating stdio transport: %v", err)
		}
		return adapter, nil

	case config.TransportSSE:
		adapter, err := transport.NewSSE(transport.SSEConfig{
			Core:       core,
			Registry:   registry,
			Host:       cfg.Host,
			Port:       cfg.Port,
			CORSOrigin: cfg.CORSOrigin,
			MaxBody:    maxBody,
			Logger:     logger,
		})
		if err != nil {
			return nil, exitError(exitRuntime, "creating sse transport: %v", err)
		}
		return adapter, nil

	case config.TransportHTTP:
		readTimeout, _ := cmd.Flags().GetDuration("read-timeout")
		writeTimeout, _ := cmd.Flags().GetDuration("write-timeout")
		tlsCert, _ := cmd.Flags().GetString("tls-cert")
		tlsKey, _ := cmd.Flags().GetString("tls-key")

		adapter, err := transport.NewHTTP(transport.HTTPConfig{
			Dispatcher:   dispatcher,
			Host:         cfg.Host,
			Port:         cfg.Port,
			CORSOrigin:   cfg.CORSOrigin,
			MaxBody:      maxBody,
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
			TLSCert:      tlsCert,
			TLSKey:       tlsKey,
			Logger:       logger,
		})
		if err != nil {
			return nil, exitError(exitRuntime, "creating http transport: %v", err)
		}
		return adapter, nil

	default:
		return nil, exitError(exitUsage, "unknown transport %q", cfg.Transport)
	}
}

// loadServeConfig layers file, environment, and flag values, flags winning.
func loadServeConfig(cmd *cobra.Command) (config.Config, error) {
	explicitPath, _ := cmd.Flags().GetString("config")

	path, found, err := config.DiscoverPath(explicitPath)
	if err != nil {
		return config.Config{}, exitError(exitConfig, "locating config: %v", err)
	}

	cfg := config.Default()
	if found {
		cfg, err = config.Load(path)
		if err != nil {
			return config.Config{}, exitError(exitConfig, "loading config %s: %v", path, err)
		}
	} else {
		cfg.Token = os.Getenv(config.EnvToken)
		if base := os.Getenv(config.EnvBaseURL); base != "" {
			cfg.BaseURL = base
		}
	}

	if cmd.Flags().Changed("transport") {
		cfg.Transport, _ = cmd.Flags().GetString("transport")
	}
	if cmd.Flags().Changed("host") {
		cfg.Host, _ = cmd.Flags().GetString("host")
	}
	if cmd.Flags().Changed("port") {
		cfg.Port, _ = cmd.Flags().GetInt("port")
	}
	if cmd.Flags().Changed("cors-origin") {
		cfg.CORSOrigin, _ = cmd.Flags().GetString("cors-origin")
	}
	if cmd.Flags().Changed("timeout") {
		timeout, _ := cmd.Flags().GetDuration("timeout")
		cfg.TimeoutSeconds = int(timeout / time.Second)
	}
	if cmd.Flags().Changed("probe-cron") {
		cfg.ProbeCron, _ = cmd.Flags().GetString("probe-cron")
	}
	if cmd.Flags().Changed("otlp-endpoint") {
		cfg.OTLPEndpoint, _ = cmd.Flags().GetString("otlp-endpoint")
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, exitError(exitConfig, "invalid configuration: %v", err)
	}
	if cfg.Token == "" {
		return config.Config{}, exitError(exitConfig, "missing API token: set %s", config.EnvToken)
	}
	return cfg, nil
}
