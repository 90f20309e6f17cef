package tws

import (
	"context"
	"sync"
	"time"

	"quote-relay/src/interfaces"
	"quote-relay/src/logger"
	"quote-relay/src/models"
	"quote-relay/src/queue"
	"quote-relay/src/subscription"
	"quote-relay/src/watchdog"
)

// -----------------------------------------------------------------------------
// Producer owns the upstream session: it connects the feed provider, sweeps
// the subscription table for symbols still waiting on a subscribe call,
// keeps the table in sync with the configured mapping, and assembles the
// provider's one-sided price events into full quotes for the ingestion
// queue. On session loss it resets the table and retries after the
// configured backoff.
// -----------------------------------------------------------------------------

type Producer struct {
	cfg      models.MTwsConfig
	provider interfaces.IFeedProvider
	table    *subscription.Table
	queue    *queue.BackgroundQueue[*models.MQuote]
	monitor  *watchdog.Monitor
	hours    *MarketHours

	// Per-symbol raw quote assembly. Written from the feed callback
	// context, cleared on session teardown.
	quotesMu sync.Mutex
	quotes   map[string]models.MQuote

	log *logger.Logger
}

// -----------------------------------------------------------------------------

// NewProducer wires the session manager. monitor may not be nil; pass a
// zero-threshold monitor to disable restart requests.
func NewProducer(cfg models.MTwsConfig, provider interfaces.IFeedProvider, table *subscription.Table, q *queue.BackgroundQueue[*models.MQuote], monitor *watchdog.Monitor) *Producer {
	return &Producer{
		cfg:      cfg,
		provider: provider,
		table:    table,
		queue:    q,
		monitor:  monitor,
		hours:    NewMarketHours(cfg.MarketCalendar),
		quotes:   make(map[string]models.MQuote),
		log:      logger.NewLogger("TwsProducer"),
	}
}

// -----------------------------------------------------------------------------

// Start launches the reconnect loop.
func (p *Producer) Start(ctx context.Context, wg *sync.WaitGroup) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		p.run(ctx)
	}()
}

// -----------------------------------------------------------------------------

func (p *Producer) run(ctx context.Context) {
	p.log.Info("producer starting")

	reconnect := secondsOrDefault(p.cfg.ReconnectPeriodSeconds, 5)

	for ctx.Err() == nil {
		if p.hours != nil && !p.hours.IsOpen(time.Now()) {
			p.log.Debug("market closed, idling")
			sleepCtx(ctx, time.Minute)
			continue
		}

		p.runSession(ctx)

		sleepCtx(ctx, reconnect)
	}

	p.log.Info("producer stopped")
}

// -----------------------------------------------------------------------------

// runSession drives one connection attempt end to end.
func (p *Producer) runSession(ctx context.Context) {
	defer func() {
		// Entries are rebuilt from configuration on the next attempt.
		p.table.Clear()
		p.clearAssembly()
	}()

	p.refreshMapping()

	p.log.Debug("connecting to %s:%d ...", p.cfg.Host, p.cfg.Port)
	if err := p.provider.Connect(p.cfg.Host, p.cfg.Port, p.cfg.ClientID, p); err != nil {
		p.log.Error("connect to %s:%d failed: %v", p.cfg.Host, p.cfg.Port, err)
		p.monitor.ReportCritical("connect failed: " + err.Error())
		return
	}

	for !p.provider.IsConnected() {
		if ctx.Err() != nil {
			p.provider.Disconnect()
			return
		}
		p.log.Debug("waiting for connection to %s:%d", p.cfg.Host, p.cfg.Port)
		sleepCtx(ctx, time.Second)
	}

	p.log.Info("connected to %s:%d", p.cfg.Host, p.cfg.Port)
	p.monitor.ReportSuccess()

	sessionCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var loops sync.WaitGroup
	loops.Add(2)
	go func() {
		defer loops.Done()
		p.sweepLoop(sessionCtx)
	}()
	go func() {
		defer loops.Done()
		p.refreshLoop(sessionCtx)
	}()

	// Blocks until the session drops or shutdown cancels us.
	p.provider.ProcessMessages(sessionCtx)

	cancel()
	loops.Wait()

	p.table.ResetAll()
	p.provider.Disconnect()
	p.log.Info("disconnected from %s:%d", p.cfg.Host, p.cfg.Port)
}

// -----------------------------------------------------------------------------

// sweepLoop periodically issues subscribe calls for every entry still
// waiting on one.
func (p *Producer) sweepLoop(ctx context.Context) {
	period := secondsOrDefault(p.cfg.SweepPeriodSeconds, 2)
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		if p.provider.IsConnected() {
			p.table.ForUnrequested(func(e subscription.Entry) {
				p.log.Debug("subscribing %s (request %d)", e.Symbol, e.RequestID)
				p.provider.SubscribeMarketData(e.RequestID, e.Contract)
			})
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
	}
}

// -----------------------------------------------------------------------------

// refreshLoop re-adds the configured mapping so symbols added by a config
// reload (or dropped by Clear) come back into the table.
func (p *Producer) refreshLoop(ctx context.Context) {
	period := secondsOrDefault(p.cfg.RefreshPeriodSeconds, 10)
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.refreshMapping()
		case <-ctx.Done():
			return
		}
	}
}

// -----------------------------------------------------------------------------

func (p *Producer) refreshMapping() {
	for symbol, contract := range p.cfg.Mapping {
		p.table.AddSymbol(symbol, contract)
	}
}

// -----------------------------------------------------------------------------

func (p *Producer) clearAssembly() {
	p.quotesMu.Lock()
	p.quotes = make(map[string]models.MQuote)
	p.quotesMu.Unlock()
}

// -----------------------------------------------------------------------------
// IFeedEvents implementation (feed callback context)
// -----------------------------------------------------------------------------

// OnTickPrice merges one-sided price events into the per-symbol quote and
// enqueues it once both sides are filled. Invalid prices never reach the
// queue.
func (p *Producer) OnTickPrice(requestID int, field interfaces.TickField, price float64) {
	if field != interfaces.TickBid && field != interfaces.TickAsk {
		return
	}

	symbol := p.table.SymbolByRequestID(requestID)
	if symbol == "" {
		return
	}

	p.quotesMu.Lock()
	q := p.quotes[symbol]
	q.Symbol = symbol
	q.Time = time.Now().UTC()
	if field == interfaces.TickBid {
		q.Bid = price
	} else {
		q.Ask = price
	}
	p.quotes[symbol] = q
	p.quotesMu.Unlock()

	if q.IsFilled() {
		tick := q
		if err := p.queue.Enqueue(&tick); err != nil {
			p.log.Error("enqueue %s: %v", symbol, err)
		}
	}
}

// -----------------------------------------------------------------------------

// OnFeedError applies the error classification table to one upstream error
// event.
func (p *Producer) OnFeedError(requestID int, code int, message string) {
	symbol := p.table.SymbolByRequestID(requestID)

	switch classifyError(code) {
	case actionLogOnly:
		p.log.Debug("feed notice %d request %d %s: %s", code, requestID, symbol, message)

	case actionFailSymbol:
		p.table.ChangeStatus(requestID, subscription.StatusFailed)
		p.log.Error("feed error %d request %d %s: %s", code, requestID, symbol, message)

	case actionRegenerateID:
		p.table.RegenerateRequestID(requestID)
		p.log.Error("feed error %d request %d %s: stale request id, regenerating (%s)", code, requestID, symbol, message)

	case actionSessionFatal:
		p.log.Error("feed error %d request %d %s: session fatal, reconnecting (%s)", code, requestID, symbol, message)
		p.table.ResetAll()
		p.provider.Disconnect()
		p.monitor.ReportCritical(message)
	}
}

// -----------------------------------------------------------------------------

// OnConnectionClosed is informational; the message pump returning is what
// actually ends the session.
func (p *Producer) OnConnectionClosed() {
	p.log.Info("feed connection closed")
}

// -----------------------------------------------------------------------------
// helpers
// -----------------------------------------------------------------------------

func secondsOrDefault(seconds int, def int) time.Duration {
	if seconds <= 0 {
		seconds = def
	}
	return time.Duration(seconds) * time.Second
}

// sleepCtx waits for d or until ctx is cancelled, whichever comes first.
func sleepCtx(ctx context.Context, d time.Duration) {
	select {
	case <-time.After(d):
	case <-ctx.Done():
	}
}
