package models

import (
	"fmt"
	"time"
)

// -----------------------------------------------------------------------------

// MQuote is one raw bid/ask pair assembled from the upstream feed.
type MQuote struct {
	Symbol string
	Bid    float64
	Ask    float64
	Time   time.Time
}

// IsFilled reports whether both sides of the quote have been received.
// The feed delivers bid and ask as separate events, so a freshly created
// quote has one side still at zero.
func (q MQuote) IsFilled() bool {
	return q.Bid != 0 && q.Ask != 0
}

// IsValid reports whether the quote is publishable at all.
func (q MQuote) IsValid() bool {
	return q.Bid > 0 && q.Ask > 0 && q.Ask >= q.Bid
}

// Equal compares bid and ask only; the timestamp does not participate in
// duplicate detection.
func (q MQuote) Equal(other MQuote) bool {
	return q.Bid == other.Bid && q.Ask == other.Ask
}

// Spread returns ask minus bid.
func (q MQuote) Spread() float64 {
	return q.Ask - q.Bid
}

func (q MQuote) String() string {
	return fmt.Sprintf("%s (%v %v)", q.Symbol, q.Bid, q.Ask)
}

// -----------------------------------------------------------------------------

// MPublishedQuote is a normalized quote after a rule emitted a change.
type MPublishedQuote struct {
	Symbol string    `json:"symbol"`
	Bid    float64   `json:"bid"`
	Ask    float64   `json:"ask"`
	Line   string    `json:"line"`
	Time   time.Time `json:"time"`
}
