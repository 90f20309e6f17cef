package interfaces

import (
	"context"

	"quote-relay/src/models"
)

// -----------------------------------------------------------------------------
// TickField identifies which side of the quote a price event carries.
// Values follow the upstream feed's native tick types.
// -----------------------------------------------------------------------------

type TickField int

const (
	TickBid TickField = 1
	TickAsk TickField = 2
)

// -----------------------------------------------------------------------------
// IFeedEvents is the narrow capability surface the relay consumes from the
// brokerage client. The client's many other event kinds (orders, account
// data, historical bars, news) never reach the core; the provider
// implementation discards or logs them.
// -----------------------------------------------------------------------------

type IFeedEvents interface {

	// OnTickPrice delivers one price update for one side of a quote.
	OnTickPrice(requestID int, field TickField, price float64)

	// -----------------------------------------------------------------------------

	// OnFeedError delivers an upstream error event. requestID is the id of
	// the affected subscription, or a sentinel for session-level errors.
	OnFeedError(requestID int, code int, message string)

	// -----------------------------------------------------------------------------

	// OnConnectionClosed signals that the feed connection dropped.
	OnConnectionClosed()
}

// -----------------------------------------------------------------------------
// IFeedProvider wraps the external brokerage wire client.
// -----------------------------------------------------------------------------

type IFeedProvider interface {

	// Connect establishes the feed session. Events start flowing to the
	// handler once ProcessMessages runs.
	Connect(host string, port int, clientID int, handler IFeedEvents) error

	// -----------------------------------------------------------------------------

	// IsConnected reports whether the session is live.
	IsConnected() bool

	// -----------------------------------------------------------------------------

	// Disconnect tears the session down. Idempotent.
	Disconnect()

	// -----------------------------------------------------------------------------

	// SubscribeMarketData issues one market-data request. Failures surface
	// asynchronously through OnFeedError with the same request id.
	SubscribeMarketData(requestID int, contract models.MContract)

	// -----------------------------------------------------------------------------

	// ProcessMessages blocks draining the feed's message queue and
	// dispatching events until the session ends or ctx is cancelled.
	ProcessMessages(ctx context.Context)
}
