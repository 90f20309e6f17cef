package relay

import (
	"context"
	"sync"
	"testing"
	"time"

	"quote-relay/src/models"
	"quote-relay/src/queue"
)

// -----------------------------------------------------------------------------
// fakes
// -----------------------------------------------------------------------------

type captureSink struct {
	mu     sync.Mutex
	quotes []models.MPublishedQuote
}

func (s *captureSink) PublishQuote(q models.MPublishedQuote) {
	s.mu.Lock()
	s.quotes = append(s.quotes, q)
	s.mu.Unlock()
}

func (s *captureSink) all() []models.MPublishedQuote {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.MPublishedQuote(nil), s.quotes...)
}

type captureJournal struct {
	captureSink
}

func (j *captureJournal) Initialize() error { return nil }

func (j *captureJournal) Start(ctx context.Context, wg *sync.WaitGroup) {}

func (j *captureJournal) Record(q models.MPublishedQuote) { j.PublishQuote(q) }

func (j *captureJournal) Close() error { return nil }

// -----------------------------------------------------------------------------

func testConfig() *models.MConfig {
	return &models.MConfig{
		Tws: models.MTwsConfig{
			Mapping: map[string]models.MContract{
				"EURUSD": {Symbol: "EUR"},
				"USDJPY": {Symbol: "USD"},
			},
		},
		UniFeeder: models.MUniFeederConfig{
			Translates: []models.MTranslate{
				{
					Symbol: "EURUSDpro", Source: "EURUSD",
					Digits: 5, BidMarkup: 2,
					Fix: -1, Min: -1, Max: -1, NumberLastTicks: 10,
				},
			},
		},
	}
}

// -----------------------------------------------------------------------------

func TestNewConsumer_IdentityRulesForUnmappedSymbols(t *testing.T) {
	c := NewConsumer(testConfig(), queue.NewBackgroundQueue[*models.MQuote](), nil)

	rules := c.Rules()
	if len(rules) != 2 {
		t.Fatalf("got %d rules, want 2 (explicit + identity)", len(rules))
	}

	var identity *Rule
	for _, r := range rules {
		if r.Symbol == "USDJPY" {
			identity = r
		}
	}
	if identity == nil {
		t.Fatal("mapped symbol without a translate must get an identity rule")
	}
	if identity.Source != "USDJPY" || identity.Digits != 5 || identity.Fix != -1 {
		t.Errorf("identity rule misconfigured: %+v", identity.MTranslate)
	}
}

func TestConsumer_ProcessRoutesBySource(t *testing.T) {
	sink := &captureSink{}
	journal := &captureJournal{}
	c := NewConsumer(testConfig(), queue.NewBackgroundQueue[*models.MQuote](), journal, sink)

	c.process(models.MQuote{Symbol: "EURUSD", Bid: 1.10000, Ask: 1.10010})

	published := sink.all()
	if len(published) != 1 {
		t.Fatalf("got %d published quotes, want 1", len(published))
	}
	got := published[0]
	if got.Symbol != "EURUSDpro" {
		t.Errorf("published under %q, want the translate's output symbol", got.Symbol)
	}
	if got.Line != "EURUSDpro 1.10002 1.1001" {
		t.Errorf("line = %q, want %q", got.Line, "EURUSDpro 1.10002 1.1001")
	}
	if len(journal.all()) != 1 {
		t.Error("journal must record every published quote")
	}

	t.Run("unknown source is dropped", func(t *testing.T) {
		c.process(models.MQuote{Symbol: "GBPUSD", Bid: 1.3, Ask: 1.31})
		if len(sink.all()) != 1 {
			t.Error("unmapped source symbol must not publish")
		}
	})

	t.Run("duplicate is dropped", func(t *testing.T) {
		c.process(models.MQuote{Symbol: "EURUSD", Bid: 1.10000, Ask: 1.10010})
		if len(sink.all()) != 1 {
			t.Error("duplicate tick must not publish")
		}
	})
}

func TestConsumer_RunDrainsQueue(t *testing.T) {
	sink := &captureSink{}
	q := queue.NewBackgroundQueue[*models.MQuote]()
	c := NewConsumer(testConfig(), q, nil, sink)

	ctx, cancel := context.WithCancel(context.Background())
	wg := &sync.WaitGroup{}
	c.Start(ctx, wg)

	q.Enqueue(&models.MQuote{Symbol: "USDJPY", Bid: 150.001, Ask: 150.011})

	deadline := time.After(time.Second)
	for len(sink.all()) == 0 {
		select {
		case <-deadline:
			t.Fatal("consumer never published the enqueued tick")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	wg.Wait()

	if got := sink.all()[0].Symbol; got != "USDJPY" {
		t.Errorf("published symbol = %q, want USDJPY", got)
	}
}
