package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"quote-relay/src/config"
	"quote-relay/src/helpers"
	"quote-relay/src/interfaces"
	"quote-relay/src/logger"
	"quote-relay/src/models"
	"quote-relay/src/queue"
	"quote-relay/src/relay"
	"quote-relay/src/server"
	"quote-relay/src/storage"
	"quote-relay/src/subscription"
	"quote-relay/src/tws"
	"quote-relay/src/unifeeder"
	"quote-relay/src/watchdog"
)

// -----------------------------------------------------------------------------

func main() {

	// Parse command line flags
	configPath := flag.String("config", "../../config/default.yaml", "path to config file")
	flag.Parse()

	// Load config from YAML file
	cfg, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	logger.SetLevel(cfg.LogLevel)
	appLogger := logger.NewLogger(cfg.Name)

	// 2. Setup Components
	table := subscription.NewTable()
	tickQueue := queue.NewBackgroundQueue[*models.MQuote]()
	monitor := watchdog.NewMonitor(cfg.WatchDog.MaxCriticalErrors)

	feeder, err := unifeeder.NewServer(cfg.UniFeeder)
	if err != nil {
		appLogger.Critical("Failed to init feeder server: %v", err)
	}

	journal := storage.NewJournal(cfg.MConfig)
	err = helpers.RetryWithBackoff(context.Background(), "journal init", 3, time.Second, journal.Initialize)
	if err != nil {
		appLogger.Critical("Failed to init journal: %v", err)
	}
	defer journal.Close()

	// Downstream sinks: the TCP feeder always, the status hub when enabled.
	sinks := []interfaces.IBroadcaster{feeder}

	var statusServer *server.StatusServer
	if cfg.Server.Enabled {
		statusServer = server.NewStatusServer(cfg.MConfig, table, feeder, monitor)
		sinks = append(sinks, statusServer)
	}

	consumer := relay.NewConsumer(cfg.MConfig, tickQueue, journal, sinks...)

	provider := tws.NewSimulatedProvider()
	producer := tws.NewProducer(cfg.Tws, provider, table, tickQueue, monitor)

	// 3. Start everything
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	wg := &sync.WaitGroup{}

	if err := feeder.Start(ctx, wg); err != nil {
		appLogger.Critical("Failed to start feeder server: %v", err)
	}
	journal.Start(ctx, wg)
	consumer.Start(ctx, wg)
	producer.Start(ctx, wg)
	if statusServer != nil {
		statusServer.Start(ctx, wg)
	}

	appLogger.Info("%s started", cfg.Name)

	// 4. Wait for shutdown or a watchdog trip
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case <-quit:
		appLogger.Info("Shutting down...")
	case <-monitor.Restarts():
		appLogger.Error("Too many critical errors, restart required. Shutting down...")
	}

	cancel()
	wg.Wait()
	appLogger.Info("Stopped")
}
