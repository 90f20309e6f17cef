package tws

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"quote-relay/src/interfaces"
	"quote-relay/src/logger"
	"quote-relay/src/models"
)

// -----------------------------------------------------------------------------
// SimulatedProvider is an in-process stand-in for the brokerage gateway
// client, used by the test harness and for local runs without a terminal.
// It answers every subscribe with a random-walk bid/ask stream delivered
// through the same IFeedEvents surface the real client would use.
// -----------------------------------------------------------------------------

type SimulatedProvider struct {
	mu        sync.Mutex
	connected bool
	handler   interfaces.IFeedEvents
	mids      map[int]float64 // requestID -> current mid price

	// TickInterval defaults to 100ms when zero.
	TickInterval time.Duration

	log *logger.Logger
}

// -----------------------------------------------------------------------------

// NewSimulatedProvider creates a disconnected simulator.
func NewSimulatedProvider() *SimulatedProvider {
	return &SimulatedProvider{
		mids: make(map[int]float64),
		log:  logger.NewLogger("SimFeed"),
	}
}

// -----------------------------------------------------------------------------

// Connect marks the session live. host/port/clientID are accepted for
// interface parity and logged only.
func (s *SimulatedProvider) Connect(host string, port int, clientID int, handler interfaces.IFeedEvents) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.connected = true
	s.handler = handler
	s.log.Info("simulated connect to %s:%d as client %d", host, port, clientID)
	return nil
}

// -----------------------------------------------------------------------------

// IsConnected reports whether the session is live.
func (s *SimulatedProvider) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

// -----------------------------------------------------------------------------

// Disconnect ends the session; ProcessMessages returns shortly after.
func (s *SimulatedProvider) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.connected {
		s.connected = false
		s.mids = make(map[int]float64)
		s.log.Info("simulated disconnect")
	}
}

// -----------------------------------------------------------------------------

// SubscribeMarketData seeds a random-walk series for the request.
func (s *SimulatedProvider) SubscribeMarketData(requestID int, contract models.MContract) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.mids[requestID]; !ok {
		s.mids[requestID] = 1.0 + rand.Float64()/2
	}
	s.log.Debug("simulated subscribe %s (request %d)", contract.Symbol, requestID)
}

// -----------------------------------------------------------------------------

// ProcessMessages emits one bid/ask pair per subscription per tick interval
// until the session ends or ctx is cancelled.
func (s *SimulatedProvider) ProcessMessages(ctx context.Context) {
	interval := s.TickInterval
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		s.mu.Lock()
		if !s.connected {
			s.mu.Unlock()
			return
		}
		handler := s.handler
		updates := make(map[int]float64, len(s.mids))
		for id, mid := range s.mids {
			mid += (rand.Float64() - 0.5) * 0.0005
			s.mids[id] = mid
			updates[id] = mid
		}
		s.mu.Unlock()

		if handler == nil {
			continue
		}
		for id, mid := range updates {
			spread := 0.00010 + rand.Float64()*0.00010
			handler.OnTickPrice(id, interfaces.TickBid, mid-spread/2)
			handler.OnTickPrice(id, interfaces.TickAsk, mid+spread/2)
		}
	}
}
