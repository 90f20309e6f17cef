package relay

import (
	"context"
	"errors"
	"sync"
	"time"

	"quote-relay/src/interfaces"
	"quote-relay/src/logger"
	"quote-relay/src/models"
	"quote-relay/src/queue"
)

// -----------------------------------------------------------------------------
// Consumer is the single processing loop between the ingestion queue and the
// broadcasters. It owns every Rule, so rule state needs no locking, and it
// preserves per-output-symbol ordering because nothing is processed
// concurrently ahead of the fan-out hand-off.
// -----------------------------------------------------------------------------

type Consumer struct {
	rules   []*Rule
	queue   *queue.BackgroundQueue[*models.MQuote]
	sinks   []interfaces.IBroadcaster
	journal interfaces.IQuoteJournal

	log *logger.Logger
}

// -----------------------------------------------------------------------------

// NewConsumer builds the rule set from configuration. Every mapped source
// symbol without an explicit translate still gets an identity rule so it is
// published under its own name.
func NewConsumer(cfg *models.MConfig, q *queue.BackgroundQueue[*models.MQuote], journal interfaces.IQuoteJournal, sinks ...interfaces.IBroadcaster) *Consumer {
	log := logger.NewLogger("Consumer")

	rules := make([]*Rule, 0, len(cfg.UniFeeder.Translates)+len(cfg.Tws.Mapping))
	seen := make(map[string]bool)
	for _, t := range cfg.UniFeeder.Translates {
		rules = append(rules, NewRule(t, log))
		seen[t.Symbol] = true
	}
	for symbol := range cfg.Tws.Mapping {
		if !seen[symbol] {
			rules = append(rules, NewRule(models.MTranslate{
				Symbol:          symbol,
				Source:          symbol,
				Digits:          5,
				Fix:             -1,
				Min:             -1,
				Max:             -1,
				NumberLastTicks: 10,
			}, log))
		}
	}

	return &Consumer{
		rules:   rules,
		queue:   q,
		sinks:   sinks,
		journal: journal,
		log:     log,
	}
}

// -----------------------------------------------------------------------------

// Rules exposes the rule set; used by the bootstrap log and tests.
func (c *Consumer) Rules() []*Rule {
	return c.rules
}

// -----------------------------------------------------------------------------

// Start launches the consumer loop.
func (c *Consumer) Start(ctx context.Context, wg *sync.WaitGroup) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.run(ctx)
	}()
}

// -----------------------------------------------------------------------------

func (c *Consumer) run(ctx context.Context) {
	c.log.Info("consumer loop starting, %d rules", len(c.rules))

	for {
		tick, err := c.queue.Dequeue(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				c.log.Info("consumer loop stopped")
				return
			}
			c.log.Error("queue dequeue: %v", err)
			continue
		}

		c.process(*tick)
	}
}

// -----------------------------------------------------------------------------

// process runs one raw tick through every rule fed by its source symbol.
func (c *Consumer) process(tick models.MQuote) {
	for _, rule := range c.rules {
		if rule.Source != tick.Symbol {
			continue
		}

		if !rule.Apply(tick) {
			continue
		}

		bid, ask := rule.Emitted()
		published := models.MPublishedQuote{
			Symbol: rule.Symbol,
			Bid:    bid,
			Ask:    ask,
			Line:   rule.Line(),
			Time:   time.Now().UTC(),
		}

		for _, sink := range c.sinks {
			sink.PublishQuote(published)
		}
		if c.journal != nil {
			c.journal.Record(published)
		}
	}
}
