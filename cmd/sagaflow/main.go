package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/sagaflow/sagaflow/config"
	"github.com/sagaflow/sagaflow/pkg/api"
	"github.com/sagaflow/sagaflow/pkg/api/events"
	"github.com/sagaflow/sagaflow/pkg/api/handlers"
	"github.com/sagaflow/sagaflow/pkg/eventbus"
	"github.com/sagaflow/sagaflow/pkg/kv"
	kvbadger "github.com/sagaflow/sagaflow/pkg/kv/badger"
	kvmemory "github.com/sagaflow/sagaflow/pkg/kv/memory"
	kvredis "github.com/sagaflow/sagaflow/pkg/kv/redis"
	"github.com/sagaflow/sagaflow/pkg/logger"
	"github.com/sagaflow/sagaflow/pkg/metrics"
	"github.com/sagaflow/sagaflow/pkg/saga"
	"github.com/sagaflow/sagaflow/pkg/telemetry/tracing"
	"github.com/sagaflow/sagaflow/pkg/version"
)

var (
	configPath  = flag.String("config", "", "Path to configuration file")
	versionFlag = flag.Bool("version", false, "Print version information")
	helpFlag    = flag.Bool("help", false, "Print help information")

	// CLI overrides
	appName    = flag.String("app-name", "", "Override app name")
	serverPort = flag.Int("port", 0, "Override server port")
	logLevel   = flag.String("log-level", "", "Override log level")
	debugMode  = flag.Bool("debug", false, "Enable debug mode")
)

func main() {
	flag.Parse()

	// Print help
	if *helpFlag {
		printHelp()
		os.Exit(0)
	}

	// Print version
	if *versionFlag {
		printVersion()
		os.Exit(0)
	}

	// Build CLI overrides map
	overrides := buildOverrides()

	// Load configuration
	cfg, err := config.Load(*configPath, overrides)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration:\n%s\n", err)
		os.Exit(1)
	}

	// Initialize logger with configuration
	logCfg := &logger.Config{
		Level:  logger.ParseLevel(cfg.Log.Level),
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	}
	if cfg.App.Debug || *debugMode {
		logCfg.Level = logger.DebugLevel
	}
	log := logger.New(logCfg)
	logger.SetGlobal(log)

	log.Info("Starting SagaFlow",
		"version", version.Version,
		"buildTime", version.BuildTime,
		"gitCommit", version.GitCommit,
		"app", cfg.App.Name,
		"environment", cfg.App.Environment,
	)

	log.Debug("Configuration loaded", "config", cfg.String())

	// Create root context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Watch the config file and hot-reload what can change at runtime.
	if *configPath != "" {
		watcher, err := config.NewWatcher(*configPath, config.NewLoader())
		if err != nil {
			log.Warn("Config watcher unavailable", "error", err)
		} else {
			var hotMu sync.Mutex
			hot := config.ExtractHotReloadable(cfg)
			watcher.OnChange(func(next *config.Config) {
				reloaded := config.ExtractHotReloadable(next)
				hotMu.Lock()
				levelChanged := reloaded.LogLevel != hot.LogLevel
				if hot.Changed(reloaded) {
					hot = reloaded
				}
				hotMu.Unlock()
				if levelChanged {
					logger.SetLevel(logger.ParseLevel(reloaded.LogLevel))
					log.Info("Log level reloaded", "level", reloaded.LogLevel)
				}
			})
			go func() {
				if err := watcher.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
					log.Warn("Config watcher stopped", "error", err)
				}
			}()
			defer watcher.Stop()
		}
	}

	// Initialize tracing
	tracingShutdown, err := tracing.Init(ctx, cfg.Tracing, cfg.App.Name, version.Version)
	if err != nil {
		log.Error("Failed to initialize tracing", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := tracingShutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down tracing", "error", err)
		}
	}()

	// Initialize the durable store backend
	var store kv.Store
	switch cfg.Storage.Type {
	case "badger":
		store, err = kvbadger.OpenWithOptions(cfg.Storage.Badger.Path, cfg.Storage.Badger.SyncWrites)
		if err != nil {
			log.Error("Failed to open Badger store", "error", err, "path", cfg.Storage.Badger.Path)
			os.Exit(1)
		}
		log.Info("Initialized Badger store", "path", cfg.Storage.Badger.Path)
	case "redis":
		store, err = kvredis.Connect(ctx, cfg.Storage.Redis.Address, cfg.Storage.Redis.Password, cfg.Storage.Redis.DB)
		if err != nil {
			log.Error("Failed to connect to Redis", "error", err, "address", cfg.Storage.Redis.Address)
			os.Exit(1)
		}
		log.Info("Initialized Redis store", "address", cfg.Storage.Redis.Address)
	case "memory":
		store = kvmemory.New()
		log.Info("Initialized memory store")
	default:
		store = kvmemory.New()
		log.Warn("Unknown storage type, using memory store", "type", cfg.Storage.Type)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error("Error closing store", "error", err)
		}
	}()

	// Initialize metrics manager
	metricsCfg := metrics.Config{
		Enabled:             cfg.Metrics.Enabled,
		Port:                cfg.Metrics.Port,
		Path:                cfg.Metrics.Path,
		SagaDurationBuckets: metrics.DefaultConfig().SagaDurationBuckets,
		StepDurationBuckets: metrics.DefaultConfig().StepDurationBuckets,
		HTTPDurationBuckets: metrics.DefaultConfig().HTTPDurationBuckets,
	}
	metricsManager := metrics.NewManager(metricsCfg)

	// Start metrics server if enabled
	if metricsManager.Enabled() {
		go func() {
			log.Info("Starting metrics server", "port", cfg.Metrics.Port, "path", cfg.Metrics.Path)
			if err := metricsManager.StartServer(ctx, cfg.Metrics.Port, cfg.Metrics.Path); err != nil {
				log.Error("Metrics server error", "error", err)
			}
		}()
	}

	// Initialize the lifecycle event fan-out: an in-process broadcaster
	// feeding websocket clients, plus the durable event bus publisher.
	broadcaster := events.NewBroadcaster()
	defer broadcaster.Close()

	busPublisher, err := eventbus.NewPublisher(cfg.Events.NodeID, eventbus.NewMemoryBus(), eventbus.DefaultRetryConfig(), metricsManager)
	if err != nil {
		log.Error("Failed to create event bus publisher", "error", err)
		os.Exit(1)
	}
	busSagaPublisher := busPublisher.AsSagaPublisher(ctx)

	publisher := saga.PublisherFunc(func(event saga.Event) {
		broadcaster.BroadcastSagaEvent(event)
		busSagaPublisher.Publish(event)
		metricsManager.RecordEventPublished(string(event.Type))
	})

	// Initialize the saga orchestrator
	executor := saga.NewStepExecutor(
		saga.WithBackoffBase(cfg.Saga.BackoffBase),
		saga.WithExecutorLogger(log),
		saga.WithExecutorMetrics(metricsManager),
		saga.WithExecutorPublisher(publisher),
	)
	orchestrator := saga.NewOrchestrator(store,
		saga.WithLogger(log),
		saga.WithMetrics(metricsManager),
		saga.WithPublisher(publisher),
		saga.WithRetention(cfg.Saga.Retention),
		saga.WithMaxConcurrentSagas(cfg.Saga.MaxConcurrent),
		saga.WithStepExecutor(executor),
	)

	// Initialize HTTP server with handlers
	sagaHandler := handlers.NewSagaHandler(orchestrator, log)
	healthHandler := handlers.NewHealthHandler(orchestrator, store, version.Version)
	wsHandler := handlers.NewWebSocketHandler(log, handlers.WebSocketConfig{
		AllowedOrigins: cfg.Server.CORS.AllowedOrigins,
		Metrics:        metricsManager,
	})
	defer wsHandler.Close()

	// Pump broadcast events into connected websocket clients.
	eventCh := broadcaster.Subscribe(cfg.Events.Buffer)
	go func() {
		for event := range eventCh {
			_ = wsHandler.Broadcast(handlers.EventMessage{
				Type:      event.Type,
				Timestamp: event.Timestamp,
				Payload:   event.Payload,
			})
		}
	}()

	apiHandlers := &api.Handlers{
		Saga:    sagaHandler,
		Health:  healthHandler,
		Events:  wsHandler,
		Metrics: metricsManager,
	}

	httpServer := api.NewHTTPServer(cfg, log, apiHandlers)

	// Start HTTP server in a separate goroutine
	serverErrChan := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "address", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port))
		if err := httpServer.Start(); err != nil {
			serverErrChan <- err
		}
	}()

	log.Info("SagaFlow is running",
		"http_port", cfg.Server.Port,
		"metrics_port", cfg.Metrics.Port,
		"storage", cfg.Storage.Type,
	)
	log.Info("Press Ctrl+C to stop")

	// Wait for shutdown signal or server error
	select {
	case sig := <-sigChan:
		log.Info("Received shutdown signal", "signal", sig)
	case err := <-serverErrChan:
		log.Error("HTTP server error", "error", err)
	case <-ctx.Done():
		log.Info("Context cancelled")
	}

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Shutdown HTTP server first
	log.Info("Shutting down HTTP server")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down HTTP server", "error", err)
	}

	// Drain running sagas, then stop publishing.
	log.Info("Stopping orchestrator")
	if err := orchestrator.Shutdown(shutdownCtx); err != nil {
		log.Error("Error during orchestrator shutdown", "error", err)
	}

	log.Info("SagaFlow stopped gracefully")
}

func buildOverrides() map[string]interface{} {
	overrides := make(map[string]interface{})

	if *appName != "" {
		overrides["app.name"] = *appName
	}
	if *serverPort != 0 {
		overrides["server.port"] = *serverPort
	}
	if *logLevel != "" {
		overrides["log.level"] = *logLevel
	}
	if *debugMode {
		overrides["app.debug"] = true
	}

	return overrides
}

func printVersion() {
	fmt.Printf("SagaFlow - Saga Orchestration Engine\n")
	fmt.Printf("Version:    %s\n", version.Version)
	fmt.Printf("Build Time: %s\n", version.BuildTime)
	fmt.Printf("Git Commit: %s\n", version.GitCommit)
	fmt.Printf("Go Version: %s\n", version.GoVersion)
}

func printHelp() {
	fmt.Printf("SagaFlow - Distributed transaction orchestration with compensating rollback\n\n")
	fmt.Printf("Usage: sagaflow [options]\n\n")
	fmt.Printf("Options:\n")
	flag.PrintDefaults()
	fmt.Printf("\nExamples:\n")
	fmt.Printf("  sagaflow                                  # Run with default config\n")
	fmt.Printf("  sagaflow -config config.yaml              # Use specific config file\n")
	fmt.Printf("  sagaflow -port 9090 -log-level debug      # Override specific options\n")
	fmt.Printf("  sagaflow -version                         # Print version info\n")
}
