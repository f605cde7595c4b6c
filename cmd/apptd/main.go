// Apptd is the appointment request parsing daemon.
//
// It exposes an HTTP API that turns free-text or photographed appointment
// requests into structured appointment records through a staged extraction
// pipeline backed by an external AI service.
//
// Usage:
//
//	# Start the daemon with defaults
//	apptd
//
//	# Use an explicit config file
//	apptd -config /etc/apptd/config.yaml
//
//	# Configure via environment
//	APPTD_SERVER_PORT=9000 APPTD_EXTRACTOR_API_KEY=... apptd
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/apptd/internal/cache"
	"github.com/fyrsmithlabs/apptd/internal/config"
	"github.com/fyrsmithlabs/apptd/internal/extraction"
	apphttp "github.com/fyrsmithlabs/apptd/internal/http"
	"github.com/fyrsmithlabs/apptd/internal/logging"
	"github.com/fyrsmithlabs/apptd/internal/pipeline"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to config file (default ~/.config/apptd/config.yaml)")
	flag.Parse()
	args := flag.Args()

	if len(args) > 0 {
		switch args[0] {
		case "version":
			printVersion()
			os.Exit(0)
		default:
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
			fmt.Fprintf(os.Stderr, "\nUsage:\n")
			fmt.Fprintf(os.Stderr, "  apptd           Start the apptd daemon\n")
			fmt.Fprintf(os.Stderr, "  apptd version   Show version information\n")
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Printf("Received signal %v, shutting down gracefully...", sig)
		cancel()
	}()

	if err := run(ctx, *configPath); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}

	log.Println("Server shutdown complete")
}

// printVersion prints version information
func printVersion() {
	fmt.Printf("apptd by Fyrsmith Labs\n")
	fmt.Printf("Version:    %s\n", version)
	fmt.Printf("Commit:     %s\n", gitCommit)
	fmt.Printf("Build Date: %s\n", buildDate)
}

// run wires the daemon together and blocks until the context is cancelled.
func run(ctx context.Context, configPath string) error {
	if err := config.EnsureConfigDir(); err != nil {
		return err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync() // Best-effort sync on shutdown
	}()

	logger.Info("Starting apptd",
		zap.String("version", version),
		zap.Int("port", cfg.Server.Port),
		zap.String("provider", cfg.Extractor.Provider),
		zap.String("timezone", cfg.Pipeline.Timezone),
		zap.Duration("shutdown_timeout", cfg.Server.ShutdownTimeout.Duration()))

	svc, err := extraction.NewService(extraction.Config{
		Provider:   cfg.Extractor.Provider,
		Model:      cfg.Extractor.Model,
		APIKey:     cfg.Extractor.APIKey.Value(),
		BaseURL:    cfg.Extractor.BaseURL,
		Timeout:    int(cfg.Extractor.Timeout.Duration().Seconds()),
		MaxRetries: cfg.Extractor.MaxRetries,
		RateLimit:  cfg.Extractor.RateLimit,
		Burst:      cfg.Extractor.Burst,
	})
	if err != nil {
		return fmt.Errorf("failed to create extraction service: %w", err)
	}

	store := cache.NewMemory(cfg.Pipeline.CacheTTL.Duration(), cfg.Pipeline.CacheMaxEntries)

	p := pipeline.New(svc, store, logger, &pipeline.Config{
		Timezone:   cfg.Pipeline.Timezone,
		Thresholds: thresholdsFromConfig(cfg),
	})

	srv, err := apphttp.NewServer(p, svc, logger, &apphttp.Config{
		Host: cfg.Server.Host,
		Port: cfg.Server.Port,
	})
	if err != nil {
		return fmt.Errorf("failed to create http server: %w", err)
	}

	if cfg.Observability.Enabled {
		store.SetMetrics(cache.NewMetrics())
		p.SetMetrics(pipeline.NewMetrics(logger))
		srv.UseMetrics(apphttp.NewHTTPMetrics(logger))
		logger.Info("Observability enabled",
			zap.String("service", cfg.Observability.ServiceName))
	}

	logger.Info("Server configured",
		zap.String("health_endpoint", fmt.Sprintf("http://localhost:%d/health", cfg.Server.Port)),
		zap.String("api_prefix", "/api/v1/appointments"),
		zap.String("metrics_endpoint", "/metrics"))

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return <-errCh
}

// thresholdsFromConfig merges configured guardrail floors over the defaults.
func thresholdsFromConfig(cfg *config.Config) pipeline.Thresholds {
	th := pipeline.DefaultThresholds()
	if cfg.Pipeline.EntityFloor > 0 {
		th.EntityFloor = cfg.Pipeline.EntityFloor
	}
	if cfg.Pipeline.NormalizePreFloor > 0 {
		th.NormalizePreFloor = cfg.Pipeline.NormalizePreFloor
	}
	if cfg.Pipeline.NormalizePostFloor > 0 {
		th.NormalizePostFloor = cfg.Pipeline.NormalizePostFloor
	}
	return th
}
