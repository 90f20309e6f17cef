package interfaces

import (
	"context"
	"sync"

	"quote-relay/src/models"
)

// -----------------------------------------------------------------------------
// IBroadcaster receives every changed quote from the consumer loop and fans
// it out to its own clients. Implementations must never block the caller
// beyond a channel hand-off.
// -----------------------------------------------------------------------------

type IBroadcaster interface {
	PublishQuote(q models.MPublishedQuote)
}

// -----------------------------------------------------------------------------
// IQuoteJournal persists published quotes off the hot path.
// -----------------------------------------------------------------------------

type IQuoteJournal interface {

	// Initialize sets up the schema.
	Initialize() error

	// -----------------------------------------------------------------------------

	// Start launches the background writer.
	// wg is signalled once the final flush completed.
	Start(ctx context.Context, wg *sync.WaitGroup)

	// -----------------------------------------------------------------------------

	// Record hands one quote to the writer. Never blocks; quotes are dropped
	// with a log entry when the writer cannot keep up.
	Record(q models.MPublishedQuote)

	// -----------------------------------------------------------------------------

	// Close the database connection
	Close() error
}
