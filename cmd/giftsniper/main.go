// Package main is the entry point for the Telegram Stars gift sniper.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/avkor/giftsniper/business/gifts"
	giftsApp "github.com/avkor/giftsniper/business/gifts/app"
	giftsDI "github.com/avkor/giftsniper/business/gifts/di"
	"github.com/avkor/giftsniper/internal/apm"
	"github.com/avkor/giftsniper/internal/config"
	"github.com/avkor/giftsniper/internal/health"
	"github.com/avkor/giftsniper/internal/logger"
	"github.com/avkor/giftsniper/internal/metrics"
	"github.com/avkor/giftsniper/internal/monolith"
	"github.com/avkor/giftsniper/pkg/ui"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	configPath := flag.String("config", "", "Path to configuration file")
	cliMode := flag.Bool("cli", false, "Run in CLI mode with logs (no TUI)")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("giftsniper %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	// TUI is the default, CLI is for debugging
	tuiMode := !*cliMode

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		if !tuiMode {
			fmt.Fprintf(os.Stderr, "received shutdown signal: %v\n", sig)
		}
		cancel()
	}()

	if err := run(ctx, *configPath, tuiMode); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string, tuiMode bool) error {
	// Missing credentials fail here, before any network activity.
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	cfg.Sniper.TUIMode = tuiMode

	logLevel := logger.ParseLevel(cfg.App.LogLevel)

	var log *logger.Logger
	switch {
	case cfg.App.LogFile != "":
		log = logger.NewRotatingFile(logger.RotatingFileConfig{
			Path:       cfg.App.LogFile,
			MaxSizeMB:  50,
			MaxBackups: 3,
			MaxAgeDays: 14,
		}, logLevel, cfg.App.Name, nil)
	case tuiMode:
		// The TUI owns the terminal; discard log output.
		log = logger.New(io.Discard, logLevel, cfg.App.Name, nil)
	default:
		log = logger.New(os.Stderr, logLevel, cfg.App.Name, nil)
	}

	if !tuiMode {
		log.Info(ctx, "starting gift sniper",
			"version", version,
			"environment", cfg.App.Environment,
		)
	}

	var traceProvider apm.TraceProvider
	if cfg.Telemetry.Enabled {
		if cfg.Telemetry.ServiceName != "" {
			os.Setenv("OTEL_SERVICE_NAME", cfg.Telemetry.ServiceName)
		}
		if cfg.Telemetry.OTLPEndpoint != "" {
			os.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.Telemetry.OTLPEndpoint)
		}

		traceProvider = apm.NewTraceProvider(log, apm.WithProvider(apm.ZipkinProvider, log))
		log.Info(ctx, "tracing initialized", "provider", "zipkin", "endpoint", cfg.Telemetry.OTLPEndpoint)

		metrics.NewMetricProvider(
			metrics.WithServiceName(cfg.Telemetry.ServiceName),
			metrics.WithProviderConfig(metrics.ProviderCfg{
				Provider: metrics.PrometheusProvider,
			}),
		)

		port := cfg.Telemetry.PrometheusPort
		if port == 0 {
			port = 9090
		}
		go metrics.ServePrometheusMetrics(metrics.WithPort(strconv.Itoa(port)))
		log.Info(ctx, "prometheus metrics server started", "port", port)
	}
	defer func() {
		if traceProvider != nil {
			traceProvider.Stop()
		}
	}()

	healthServer := health.NewServer(8081, version)
	if err := healthServer.Start(); err != nil {
		log.Warn(ctx, "failed to start health server", "error", err)
	} else {
		log.Info(ctx, "health server started", "port", 8081)
	}
	defer healthServer.Stop(ctx)

	mono, err := monolith.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to create monolith: %w", err)
	}
	defer mono.Close()

	giftsModule := &gifts.Module{}
	modules := []monolith.Module{giftsModule}

	if err := mono.RegisterModules(modules...); err != nil {
		return fmt.Errorf("failed to register modules: %w", err)
	}
	defer giftsModule.Shutdown()

	if err := mono.StartModules(ctx, modules...); err != nil {
		return fmt.Errorf("failed to start modules: %w", err)
	}

	manager := giftsDI.GetManager(mono.Services())

	if tuiMode {
		return runTUI(ctx, cfg, manager, log)
	}
	return runCLI(ctx, cfg, manager, log)
}

func runCLI(ctx context.Context, cfg *config.Config, manager *giftsApp.Manager, log *logger.Logger) error {
	run, err := manager.Start(ctx, giftsApp.RunConfig{
		Session:       cfg.Telegram.Session,
		Recipient:     cfg.Sniper.Recipient,
		MaxPriceStars: cfg.Sniper.MaxPriceStars,
		PollInterval:  cfg.Sniper.PollInterval,
	})
	if err != nil {
		return fmt.Errorf("failed to start run: %w", err)
	}

	select {
	case <-ctx.Done():
		log.Info(ctx, "shutting down")
		manager.Stop(run)
		<-run.Done()
	case <-run.Done():
	}

	result := run.Result()
	if result.Outcome == giftsApp.OutcomeError {
		return result.Err
	}
	log.Info(ctx, "run finished", "outcome", string(result.Outcome))
	return nil
}

func runTUI(ctx context.Context, cfg *config.Config, manager *giftsApp.Manager, log *logger.Logger) error {
	ui.OnStartRun = func(session, recipient string, maxPriceStars int64, pollInterval time.Duration) {
		_, err := manager.Start(ctx, giftsApp.RunConfig{
			Session:       session,
			Recipient:     recipient,
			MaxPriceStars: maxPriceStars,
			PollInterval:  pollInterval,
		})
		if err != nil {
			ui.Send(ui.LogMsg{Level: "error", Message: err.Error()})
		}
	}
	ui.OnStopRun = func() {
		manager.Stop(manager.Active())
	}
	ui.OnCheckBalance = func(session string) {
		if _, err := manager.CheckBalance(ctx, session); err != nil {
			ui.Send(ui.LogMsg{Level: "error", Message: err.Error()})
		}
	}

	err := ui.Run(ui.FormDefaults{
		Session:       cfg.Telegram.Session,
		Recipient:     cfg.Sniper.Recipient,
		MaxPriceStars: cfg.Sniper.MaxPriceStars,
		PollInterval:  cfg.Sniper.PollInterval,
	})

	// The TUI exited; stop any in-flight run before returning.
	if active := manager.Active(); active != nil {
		manager.Stop(active)
		select {
		case <-active.Done():
		case <-time.After(5 * time.Second):
			log.Warn(ctx, "run did not stop before shutdown timeout")
		}
	}
	return err
}
