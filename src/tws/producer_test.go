package tws

import (
	"context"
	"sync"
	"testing"
	"time"

	"quote-relay/src/interfaces"
	"quote-relay/src/models"
	"quote-relay/src/queue"
	"quote-relay/src/subscription"
	"quote-relay/src/watchdog"
)

// -----------------------------------------------------------------------------
// fakeProvider is a scripted IFeedProvider: it connects instantly and its
// message pump blocks until the test ends the session.
// -----------------------------------------------------------------------------

type fakeProvider struct {
	mu         sync.Mutex
	connected  bool
	handler    interfaces.IFeedEvents
	connects   int
	subs       []int
	sessionEnd chan struct{}
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{}
}

func (f *fakeProvider) Connect(host string, port int, clientID int, handler interfaces.IFeedEvents) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = true
	f.handler = handler
	f.connects++
	f.sessionEnd = make(chan struct{})
	return nil
}

func (f *fakeProvider) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *fakeProvider) Disconnect() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.connected {
		f.connected = false
		close(f.sessionEnd)
	}
}

func (f *fakeProvider) SubscribeMarketData(requestID int, contract models.MContract) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subs = append(f.subs, requestID)
}

func (f *fakeProvider) ProcessMessages(ctx context.Context) {
	f.mu.Lock()
	end := f.sessionEnd
	f.mu.Unlock()

	select {
	case <-ctx.Done():
	case <-end:
	}
}

func (f *fakeProvider) connectCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connects
}

func (f *fakeProvider) subCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

// endSession makes the message pump return, as a dropped connection would.
func (f *fakeProvider) endSession() {
	f.Disconnect()
}

// -----------------------------------------------------------------------------

func testProducer(provider interfaces.IFeedProvider) (*Producer, *subscription.Table, *queue.BackgroundQueue[*models.MQuote], *watchdog.Monitor) {
	cfg := models.MTwsConfig{
		Host:                   "127.0.0.1",
		Port:                   4002,
		ClientID:               1,
		ReconnectPeriodSeconds: 1,
		SweepPeriodSeconds:     1,
		RefreshPeriodSeconds:   1,
		Mapping: map[string]models.MContract{
			"EURUSD": {Symbol: "EUR", Currency: "USD"},
		},
	}
	table := subscription.NewTable()
	q := queue.NewBackgroundQueue[*models.MQuote]()
	monitor := watchdog.NewMonitor(100)
	return NewProducer(cfg, provider, table, q, monitor), table, q, monitor
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// -----------------------------------------------------------------------------

func TestProducer_SubscribesAndReconnects(t *testing.T) {
	provider := newFakeProvider()
	p, _, _, _ := testProducer(provider)

	ctx, cancel := context.WithCancel(context.Background())
	wg := &sync.WaitGroup{}
	p.Start(ctx, wg)

	waitFor(t, "first subscribe", func() bool { return provider.subCount() >= 1 })
	if provider.connectCount() != 1 {
		t.Errorf("connects = %d, want 1", provider.connectCount())
	}

	// Drop the session; the producer must come back and resubscribe.
	provider.endSession()

	waitFor(t, "reconnect", func() bool { return provider.connectCount() >= 2 })
	waitFor(t, "resubscribe", func() bool { return provider.subCount() >= 2 })

	cancel()
	wg.Wait()
}

// -----------------------------------------------------------------------------

func TestProducer_OnTickPriceAssembly(t *testing.T) {
	provider := newFakeProvider()
	p, table, q, _ := testProducer(provider)

	table.AddSymbol("EURUSD", models.MContract{Symbol: "EUR"})
	id := table.Snapshot()[0].RequestID

	p.OnTickPrice(id, interfaces.TickBid, 1.10000)
	if q.Len() != 0 {
		t.Fatal("half a quote must not be enqueued")
	}

	p.OnTickPrice(id, interfaces.TickAsk, 1.10010)
	if q.Len() != 1 {
		t.Fatal("completed quote must be enqueued")
	}

	tick, err := q.Dequeue(context.Background())
	if err != nil {
		t.Fatalf("dequeue: %v", err)
	}
	if tick.Symbol != "EURUSD" || tick.Bid != 1.10000 || tick.Ask != 1.10010 {
		t.Errorf("assembled tick = %+v", tick)
	}

	t.Run("later one-sided updates reuse the other side", func(t *testing.T) {
		p.OnTickPrice(id, interfaces.TickBid, 1.10001)
		if q.Len() != 1 {
			t.Fatal("update with a known other side must be enqueued")
		}
		tick, _ := q.Dequeue(context.Background())
		if tick.Bid != 1.10001 || tick.Ask != 1.10010 {
			t.Errorf("merged tick = %+v", tick)
		}
	})

	t.Run("unknown request id is dropped", func(t *testing.T) {
		p.OnTickPrice(id+1, interfaces.TickBid, 1.0)
		p.OnTickPrice(id+1, interfaces.TickAsk, 1.1)
		if q.Len() != 0 {
			t.Error("unknown request id must not enqueue")
		}
	})

	t.Run("other tick fields are ignored", func(t *testing.T) {
		p.OnTickPrice(id, interfaces.TickField(9), 5.0)
		if q.Len() != 0 {
			t.Error("non bid/ask fields must not enqueue")
		}
	})
}

// -----------------------------------------------------------------------------

func TestProducer_OnFeedError(t *testing.T) {
	setup := func(t *testing.T) (*Producer, *subscription.Table, *fakeProvider, *watchdog.Monitor, int) {
		t.Helper()
		provider := newFakeProvider()
		p, table, _, monitor := testProducer(provider)
		provider.Connect("127.0.0.1", 4002, 1, p)

		table.AddSymbol("EURUSD", models.MContract{Symbol: "EUR"})
		table.ForUnrequested(func(subscription.Entry) {})
		id := table.Snapshot()[0].RequestID
		return p, table, provider, monitor, id
	}

	t.Run("permanent failure marks the symbol", func(t *testing.T) {
		p, table, _, _, id := setup(t)
		p.OnFeedError(id, 200, "no security definition")
		if got := table.Snapshot()[0].Status; got != subscription.StatusFailed {
			t.Errorf("status = %v, want Failed", got)
		}
	})

	t.Run("unknown code also fails the symbol", func(t *testing.T) {
		p, table, _, _, id := setup(t)
		p.OnFeedError(id, 9999, "mystery")
		if got := table.Snapshot()[0].Status; got != subscription.StatusFailed {
			t.Errorf("status = %v, want Failed", got)
		}
	})

	t.Run("stale id is regenerated", func(t *testing.T) {
		p, table, _, _, id := setup(t)
		p.OnFeedError(id, 502, "couldn't connect")
		e := table.Snapshot()[0]
		if e.RequestID == id {
			t.Error("request id was not regenerated")
		}
		if e.Status != subscription.StatusNotRequested {
			t.Errorf("status = %v, want NotRequested", e.Status)
		}
	})

	t.Run("session fatal disconnects and resets", func(t *testing.T) {
		p, table, provider, monitor, id := setup(t)
		p.OnFeedError(id, 504, "not connected")
		if provider.IsConnected() {
			t.Error("session fatal must disconnect the provider")
		}
		if got := table.Snapshot()[0].Status; got != subscription.StatusNotRequested {
			t.Errorf("status = %v, want NotRequested after reset", got)
		}
		if monitor.Count() != 1 {
			t.Errorf("critical count = %d, want 1", monitor.Count())
		}
	})

	t.Run("connectivity notices change nothing", func(t *testing.T) {
		p, table, provider, monitor, id := setup(t)
		p.OnFeedError(id, 2104, "market data farm connection is OK")
		if got := table.Snapshot()[0].Status; got != subscription.StatusSuccess {
			t.Errorf("status = %v, want Success untouched", got)
		}
		if !provider.IsConnected() || monitor.Count() != 0 {
			t.Error("informational notice must have no side effects")
		}
	})
}
