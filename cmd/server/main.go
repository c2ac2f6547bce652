package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/good-yellow-bee/corewatch/internal/alerting"
	"github.com/good-yellow-bee/corewatch/internal/api"
	"github.com/good-yellow-bee/corewatch/internal/api/health"
	"github.com/good-yellow-bee/corewatch/internal/broadcast"
	"github.com/good-yellow-bee/corewatch/internal/eventlog"
	"github.com/good-yellow-bee/corewatch/internal/insight"
	"github.com/good-yellow-bee/corewatch/internal/metrics"
	"github.com/good-yellow-bee/corewatch/internal/models"
	"github.com/good-yellow-bee/corewatch/internal/scenario"
	"github.com/good-yellow-bee/corewatch/internal/sensorcfg"
	"github.com/good-yellow-bee/corewatch/internal/storage"
	"github.com/good-yellow-bee/corewatch/internal/telemetry"
	"github.com/good-yellow-bee/corewatch/pkg/config"
)

var (
	configFile string
	httpAddr   string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "corewatch-server",
	Short: "CoreWatch Server - Reactor telemetry and monitoring backend",
	Long: `CoreWatch Server simulates reactor instrumentation, evaluates readings
against safety thresholds, and streams telemetry, alerts, and analysis
to connected dashboard clients.`,
	RunE: runServer,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("corewatch-server %s\n", config.Version)
		fmt.Printf("  commit: %s\n", config.Commit)
		fmt.Printf("  built:  %s\n", config.BuildTime)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path (optional)")
	rootCmd.PersistentFlags().StringVarP(&httpAddr, "address", "a", "", "HTTP listen address")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, args []string) error {
	var cfg *Config

	// Load configuration from file if provided
	if configFile != "" {
		var err error
		cfg, err = LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
	} else {
		cfg = DefaultConfig()
	}

	// Override with CLI flags
	if httpAddr != "" {
		cfg.Server.HTTPAddress = httpAddr
	}
	cfg.Verbose = verbose

	// Get JWT secret from environment
	jwtSecret := os.Getenv("COREWATCH_JWT_SECRET")
	if jwtSecret == "" {
		return fmt.Errorf("COREWATCH_JWT_SECRET environment variable is required")
	}

	// Auto-create data directory
	dbDir := filepath.Dir(cfg.Database.Path)
	if err := os.MkdirAll(dbDir, 0750); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	// Initialize storage
	store := storage.NewSQLiteStorage(cfg.Database.Path)
	if err := store.Open(); err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer store.Close()

	if err := store.Migrate(); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	log.Printf("database initialized at %s", cfg.Database.Path)

	// Load the sensor catalog
	sensors, err := sensorcfg.LoadFile(cfg.Telemetry.SensorsFile)
	if err != nil {
		return fmt.Errorf("load sensors: %w", err)
	}
	catalog := sensorcfg.NewCatalog(sensors)
	log.Printf("loaded %d sensors from %s", len(sensors), cfg.Telemetry.SensorsFile)

	// Alert manager, primed with alerts active before restart
	alerts := alerting.NewManager(store.Alerts())
	if err := alerts.Load(context.Background()); err != nil {
		return fmt.Errorf("load active alerts: %w", err)
	}

	// Fan-out hub and system log recorder
	latest := telemetry.NewLatestStore()
	hub := broadcast.NewHub(latest, alerts, store.Recommendations(), store.SystemLog(), store.Connections())
	recorder := eventlog.NewRecorder(store.SystemLog(), hub)

	// Telemetry engine
	generator := telemetry.NewGenerator(catalog, latest, store.Readings(), alerts, hub, &telemetry.GeneratorOptions{
		Interval: cfg.Telemetry.SampleInterval.Std(),
	})
	heartbeat := telemetry.NewHeartbeat(catalog, store.Connections(), recorder, cfg.Telemetry.HeartbeatInterval.Std())

	// Scenario orchestrator
	var orch *scenario.Orchestrator
	defs := []models.ScenarioDefinition{}
	if cfg.Scenarios.File != "" {
		defs, err = scenario.LoadFile(cfg.Scenarios.File)
		if err != nil {
			return fmt.Errorf("load scenarios: %w", err)
		}
		log.Printf("loaded %d scenarios from %s", len(defs), cfg.Scenarios.File)
	}
	orch = scenario.NewOrchestrator(defs, catalog, latest, store.Readings(), alerts, store.Recommendations(), recorder, hub)
	hub.SetScenarioSource(orch)
	generator.SetModifier(orch)

	// Insight scheduler
	var analyzer insight.Analyzer
	if cfg.Insight.Ollama.Enabled {
		analyzer = insight.NewOllamaAnalyzer(cfg.Insight.Ollama.BaseURL, cfg.Insight.Ollama.Model)
		log.Printf("insight analyzer: ollama model %s", cfg.Insight.Ollama.Model)
	} else {
		log.Printf("insight analyzer: disabled, using fallback content")
	}
	scheduler := insight.NewScheduler(analyzer, latest, alerts, store.Recommendations(), hub, recorder, &insight.SchedulerOptions{
		Interval:        cfg.Insight.Interval.Std(),
		Probability:     cfg.Insight.Probability,
		Timeout:         cfg.Insight.Timeout.Std(),
		ConfidenceFloor: cfg.Insight.ConfidenceFloor,
	})

	// History pruner
	pruner := storage.NewPruner(store, &storage.RetentionOptions{
		Interval:          cfg.Retention.Interval.Std(),
		ReadingAge:        cfg.Retention.ReadingAge.Std(),
		RecommendationAge: cfg.Retention.RecommendationAge.Std(),
		SystemLogAge:      cfg.Retention.SystemLogAge.Std(),
	})

	// HTTP API server
	apiServer, err := api.New(&api.Config{
		Address:              cfg.Server.HTTPAddress,
		JWTSecret:            []byte(jwtSecret),
		OperatorUsername:     cfg.Auth.OperatorUsername,
		OperatorPasswordHash: cfg.Auth.OperatorPasswordHash,
		HTTPTLSEnabled:       cfg.Server.TLS.Enabled,
		HTTPTLSCertFile:      cfg.Server.TLS.CertFile,
		HTTPTLSKeyFile:       cfg.Server.TLS.KeyFile,
		AccessTokenTTL:       cfg.Auth.TokenTTL.Std(),
		RateLimitPerIP:       cfg.Auth.RateLimitPerIP,
		RateLimitPerToken:    cfg.Auth.RateLimitPerToken,
		LockoutThreshold:     cfg.Auth.LockoutThreshold,
		LockoutDuration:      cfg.Auth.LockoutDuration.Std(),
		Verbose:              cfg.Verbose,
	}, store, latest, alerts, hub, orch, recorder)
	if err != nil {
		return fmt.Errorf("create API server: %w", err)
	}
	apiServer.RegisterHealthChecker(health.NewSQLiteChecker(store.DB()))
	apiServer.RegisterHealthChecker(health.NewTelemetryChecker(latest.Len))

	metricsServer := metrics.NewServer(cfg.Server.MetricsAddress)

	// Setup signal handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Printf("received signal %v, shutting down...", sig)
		cancel()
	}()

	log.Printf("starting corewatch-server %s", config.Version)
	recorder.Info(ctx, "server", "corewatch-server %s starting with %d sensors", config.Version, len(sensors))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return apiServer.Run(gctx) })
	g.Go(func() error {
		go func() {
			<-gctx.Done()
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			metricsServer.Shutdown(shutdownCtx)
		}()
		return metricsServer.Start()
	})
	g.Go(func() error { generator.Run(gctx); return nil })
	g.Go(func() error { scheduler.Run(gctx); return nil })
	g.Go(func() error { heartbeat.Run(gctx); return nil })
	g.Go(func() error { pruner.Run(gctx); return nil })
	if cfg.Telemetry.WatchSensorsFile {
		watcher := sensorcfg.NewWatcher(cfg.Telemetry.SensorsFile, catalog)
		g.Go(func() error { return watcher.Run(gctx) })
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("run server: %w", err)
	}

	log.Printf("server stopped")
	return nil
}
