package main

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"quote-relay/src/interfaces"
	"quote-relay/src/logger"
	"quote-relay/src/models"
	"quote-relay/src/queue"
	"quote-relay/src/relay"
	"quote-relay/src/storage"
	"quote-relay/src/subscription"
	"quote-relay/src/tws"
	"quote-relay/src/unifeeder"
	"quote-relay/src/watchdog"
)

// End-to-end harness: simulated upstream feed, full relay pipeline, real TCP
// clients exercising the handshake, ping and the quote stream. Runs for a
// few seconds and prints what the clients received.

func main() {
	logger.SetLevel("debug")
	appLogger := logger.NewLogger("harness")

	cfg := harnessConfig()

	table := subscription.NewTable()
	tickQueue := queue.NewBackgroundQueue[*models.MQuote]()
	monitor := watchdog.NewMonitor(cfg.WatchDog.MaxCriticalErrors)

	feeder, err := unifeeder.NewServer(cfg.UniFeeder)
	if err != nil {
		fmt.Printf("feeder init: %v\n", err)
		os.Exit(1)
	}

	journal := storage.NewJournal(cfg)
	if err := journal.Initialize(); err != nil {
		appLogger.Critical("journal init: %v", err)
	}
	defer journal.Close()

	consumer := relay.NewConsumer(cfg, tickQueue, journal, []interfaces.IBroadcaster{feeder}...)

	provider := tws.NewSimulatedProvider()
	producer := tws.NewProducer(cfg.Tws, provider, table, tickQueue, monitor)

	ctx, cancel := context.WithCancel(context.Background())
	wg := &sync.WaitGroup{}

	if err := feeder.Start(ctx, wg); err != nil {
		appLogger.Critical("feeder start: %v", err)
	}
	journal.Start(ctx, wg)
	consumer.Start(ctx, wg)
	producer.Start(ctx, wg)

	addr := feeder.Addr().String()
	appLogger.Info("relay up on %s", addr)

	// Scripted downstream clients
	var clientWg sync.WaitGroup
	clientWg.Add(3)
	go func() {
		defer clientWg.Done()
		runAuthenticatedClient(addr, "trader", "secret", 4*time.Second, appLogger)
	}()
	go func() {
		defer clientWg.Done()
		runRejectedClient(addr, "trader", "wrong", appLogger)
	}()
	go func() {
		defer clientWg.Done()
		runPingClient(addr, "trader", "secret", appLogger)
	}()

	clientWg.Wait()

	appLogger.Info("clients done, shutting down")
	cancel()
	wg.Wait()
	appLogger.Info("done")
}

// -----------------------------------------------------------------------------

func harnessConfig() *models.MConfig {
	return &models.MConfig{
		Name:     "quote-relay-harness",
		LogLevel: "debug",
		Tws: models.MTwsConfig{
			Host:     "127.0.0.1",
			Port:     4002,
			ClientID: 1,
			Mapping: map[string]models.MContract{
				"EURUSD": {Symbol: "EUR", SecType: "CASH", Exchange: "IDEALPRO", Currency: "USD"},
				"USDJPY": {Symbol: "USD", SecType: "CASH", Exchange: "IDEALPRO", Currency: "JPY"},
			},
		},
		UniFeeder: models.MUniFeederConfig{
			Ip:         "127.0.0.1",
			Port:       0,
			Terminator: "crlf",
			Authorization: []models.MAuthPair{
				{Login: "trader", Password: "secret"},
			},
			Translates: []models.MTranslate{
				{
					Symbol: "EURUSD", Source: "EURUSD",
					Digits: 5, Fix: -1, Min: -1, Max: -1,
					NumberLastTicks: 5, SigmaSpread: 0,
				},
			},
		},
		WatchDog: models.MWatchDogConfig{MaxCriticalErrors: 10},
	}
}
