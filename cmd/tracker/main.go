package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aluiziolira/watchfinder-tracker/config"
	"github.com/aluiziolira/watchfinder-tracker/dashboard"
	"github.com/aluiziolira/watchfinder-tracker/fetch"
	"github.com/aluiziolira/watchfinder-tracker/models"
	"github.com/aluiziolira/watchfinder-tracker/notify"
	"github.com/aluiziolira/watchfinder-tracker/parser"
	"github.com/aluiziolira/watchfinder-tracker/pipeline"
	"github.com/aluiziolira/watchfinder-tracker/state"
)

func main() {
	config.LoadDotEnv()

	defaultCfg := config.DefaultConfig()
	stateDefault := defaultCfg.StateFile
	if value, ok := config.EnvString("TRACKER_STATE_FILE"); ok {
		stateDefault = value
	}
	dashboardDefault := defaultCfg.DashboardFile
	if value, ok := config.EnvString("TRACKER_DASHBOARD_FILE"); ok {
		dashboardDefault = value
	}
	retentionDefault := int(defaultCfg.RetentionWindow / (24 * time.Hour))
	if value, ok, err := config.EnvInt("TRACKER_RETENTION_DAYS"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid TRACKER_RETENTION_DAYS: %v\n", err)
		os.Exit(1)
	} else if ok {
		retentionDefault = value
	}
	metricsDefault := defaultCfg.MetricsAddr
	if value, ok := config.EnvString("TRACKER_METRICS_ADDR"); ok {
		metricsDefault = value
	}
	topicDefault, _ := config.EnvString("NTFY_TOPIC")

	arrivalsURL := flag.String("url", defaultCfg.ArrivalsURL, "Arrivals page URL to track")
	stateFile := flag.String("state", stateDefault, "State file path")
	dashboardFile := flag.String("dashboard", dashboardDefault, "Dashboard output path")
	retentionDays := flag.Int("retention-days", retentionDefault, "Days to retain known listings")
	ntfyServer := flag.String("ntfy-server", defaultCfg.NtfyServer, "ntfy server URL")
	minDelayMs := flag.Int("min-delay", int(defaultCfg.MinDelay/time.Millisecond), "Minimum politeness delay before fetch (milliseconds)")
	maxDelayMs := flag.Int("max-delay", int(defaultCfg.MaxDelay/time.Millisecond), "Maximum politeness delay before fetch (milliseconds)")
	verbose := flag.Bool("v", false, "Enable verbose logging")
	metricsAddr := flag.String("metrics-addr", metricsDefault, "Prometheus metrics listen address (e.g. :9090)")

	flag.Parse()

	logger, level := newLogger(*verbose)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level.Level())

	cfg := defaultCfg
	cfg.ArrivalsURL = *arrivalsURL
	cfg.StateFile = *stateFile
	cfg.DashboardFile = *dashboardFile
	cfg.RetentionWindow = time.Duration(*retentionDays) * 24 * time.Hour
	cfg.NtfyServer = *ntfyServer
	cfg.NtfyTopic = topicDefault
	cfg.MinDelay = time.Duration(*minDelayMs) * time.Millisecond
	cfg.MaxDelay = time.Duration(*maxDelayMs) * time.Millisecond
	cfg.Verbose = *verbose
	cfg.MetricsAddr = *metricsAddr

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	slog.Info("starting tracker run",
		slog.String("url", cfg.ArrivalsURL),
		slog.String("state", cfg.StateFile),
		slog.Bool("notifications", cfg.NtfyTopic != ""),
	)

	origin, err := cfg.Origin()
	if err != nil {
		slog.Error("resolving site origin", slog.Any("error", err))
		os.Exit(1)
	}

	fetcher, err := fetch.NewFetcher(cfg)
	if err != nil {
		slog.Error("initialising fetcher", slog.Any("error", err))
		os.Exit(1)
	}

	p := pipeline.New(
		cfg,
		fetcher,
		parser.NewExtractor(origin),
		state.NewStore(cfg.StateFile),
		notify.NewNtfyPublisher(cfg.NtfyServer, cfg.NtfyTopic, cfg.NotifyTimeout),
		dashboard.NewRenderer(cfg.DashboardFile, cfg.DashboardLimit, cfg.ArrivalsURL),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var metricsServer *http.Server
	if cfg.MetricsAddr != "" {
		metricsServer = &http.Server{
			Addr:    cfg.MetricsAddr,
			Handler: promhttp.HandlerFor(p.Metrics.Registry, promhttp.HandlerOpts{}),
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server failed", slog.Any("error", err))
			}
		}()
		slog.Info("metrics server enabled", slog.String("addr", cfg.MetricsAddr))
	}

	result, err := p.Run(ctx)

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("metrics server shutdown failed", slog.Any("error", err))
		}
		cancel()
	}

	if err != nil {
		slog.Error("run failed", slog.Any("error", err))
		os.Exit(1)
	}

	printSummary(result)
}

func printSummary(result *models.RunResult) {
	separator := "--------------------------------------------------"
	fmt.Println("\n" + separator)
	fmt.Println("Check complete")
	if result.FirstRun {
		fmt.Println("  First run:     notifications suppressed")
	}
	fmt.Printf("  Known before:  %d\n", result.KnownAtStart)
	fmt.Printf("  Extracted:     %d\n", result.Extracted)
	fmt.Printf("  New listings:  %d\n", result.NewItems)
	fmt.Printf("  Notified:      %d\n", result.Notified)
	if result.NotifyFailures > 0 {
		fmt.Printf("  Notify errors: %d\n", result.NotifyFailures)
	}
	fmt.Printf("  Pruned:        %d\n", result.Pruned)
	fmt.Printf("  Tracked now:   %d\n", result.Tracked)
	fmt.Printf("  Duration:      %v\n", result.EndTime.Sub(result.StartTime))
	fmt.Println(separator)
}

func newLogger(verbose bool) (*slog.Logger, *slog.LevelVar) {
	level := &slog.LevelVar{}
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if isTerminal(os.Stdout) {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler), level
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
