package subscription

import (
	"math/rand/v2"
	"sync"

	"quote-relay/src/models"
)

// -----------------------------------------------------------------------------
// Status of one upstream market-data request.
// -----------------------------------------------------------------------------

type Status int

const (
	StatusNotRequested Status = iota
	StatusRetryNeeded
	StatusSuccess
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusNotRequested:
		return "NotRequested"
	case StatusRetryNeeded:
		return "RetryNeeded"
	case StatusSuccess:
		return "Success"
	case StatusFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// -----------------------------------------------------------------------------

// Entry tracks the request lifecycle for one symbol.
type Entry struct {
	Symbol    string
	Contract  models.MContract
	RequestID int
	Status    Status
}

// -----------------------------------------------------------------------------
// Table is the per-symbol subscription state machine. It is shared between
// the subscribe sweep goroutine and the feed callback goroutine, so every
// operation takes the table lock and none of them blocks on IO.
// -----------------------------------------------------------------------------

type Table struct {
	mu       sync.RWMutex
	bySymbol map[string]*Entry
}

// NewTable creates an empty subscription table.
func NewTable() *Table {
	return &Table{
		bySymbol: make(map[string]*Entry),
	}
}

// -----------------------------------------------------------------------------

// newRequestID returns a process-unique random id. Collisions are not
// defended against beyond restart-time improbability.
func newRequestID() int {
	return int(rand.Int32())
}

// -----------------------------------------------------------------------------

// AddSymbol inserts a new NotRequested entry with a fresh request id unless
// the same (symbol, contract) pair is already present.
func (t *Table) AddSymbol(symbol string, contract models.MContract) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if existing, ok := t.bySymbol[symbol]; ok && existing.Contract == contract {
		return
	}

	t.bySymbol[symbol] = &Entry{
		Symbol:    symbol,
		Contract:  contract,
		RequestID: newRequestID(),
		Status:    StatusNotRequested,
	}
}

// -----------------------------------------------------------------------------

// ForUnrequested invokes fn for every entry that still needs a subscribe
// call and optimistically marks it Success right after: the call itself is
// the request, a later feed error moves it back out of Success.
func (t *Table) ForUnrequested(fn func(entry Entry)) {
	t.mu.RLock()
	pending := make([]string, 0)
	for symbol, e := range t.bySymbol {
		if e.Status == StatusNotRequested || e.Status == StatusRetryNeeded {
			pending = append(pending, symbol)
		}
	}
	t.mu.RUnlock()

	for _, symbol := range pending {
		t.mu.Lock()
		e, ok := t.bySymbol[symbol]
		if !ok || (e.Status != StatusNotRequested && e.Status != StatusRetryNeeded) {
			t.mu.Unlock()
			continue
		}
		snapshot := *e
		e.Status = StatusSuccess
		t.mu.Unlock()

		// The subscribe call runs outside the lock; it may take the network
		// round-trip time.
		fn(snapshot)
	}
}

// -----------------------------------------------------------------------------

// ChangeStatus sets the status of the entry owning requestID.
func (t *Table) ChangeStatus(requestID int, status Status) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, e := range t.bySymbol {
		if e.RequestID == requestID {
			e.Status = status
			return
		}
	}
}

// -----------------------------------------------------------------------------

// RegenerateRequestID replaces the request id with a fresh random value and
// resets the entry so the next sweep retries with the new id. Used when the
// upstream reports the id itself as stale.
func (t *Table) RegenerateRequestID(requestID int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, e := range t.bySymbol {
		if e.RequestID == requestID {
			e.RequestID = newRequestID()
			e.Status = StatusNotRequested
			return
		}
	}
}

// -----------------------------------------------------------------------------

// SymbolByRequestID resolves a feed request id back to its symbol name.
// Returns "" when the id is unknown.
func (t *Table) SymbolByRequestID(requestID int) string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for _, e := range t.bySymbol {
		if e.RequestID == requestID {
			return e.Symbol
		}
	}
	return ""
}

// -----------------------------------------------------------------------------

// ResetAll moves every entry back to NotRequested. Used on full session
// loss so the sweep re-subscribes everything after reconnect.
func (t *Table) ResetAll() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, e := range t.bySymbol {
		e.Status = StatusNotRequested
	}
}

// -----------------------------------------------------------------------------

// Clear empties the table. Entries are rebuilt from configuration on the
// next mapping refresh.
func (t *Table) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.bySymbol = make(map[string]*Entry)
}

// -----------------------------------------------------------------------------

// Snapshot returns a copy of every entry for the status API.
func (t *Table) Snapshot() []Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()

	result := make([]Entry, 0, len(t.bySymbol))
	for _, e := range t.bySymbol {
		result = append(result, *e)
	}
	return result
}

// -----------------------------------------------------------------------------

// Len returns the number of tracked symbols.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.bySymbol)
}
