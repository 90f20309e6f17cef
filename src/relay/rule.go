package relay

import (
	"math"
	"strconv"
	"strings"

	"quote-relay/src/analysis"
	"quote-relay/src/logger"
	"quote-relay/src/models"
	"quote-relay/src/utils"
)

// -----------------------------------------------------------------------------
// Rule is the runtime state of one translation rule: the static MTranslate
// parameters plus the last raw tick, the last emitted bid/ask and the
// rolling spread window. Owned and mutated only by the consumer loop.
// -----------------------------------------------------------------------------

type Rule struct {
	models.MTranslate

	lastBid  float64
	lastAsk  float64
	lastTick models.MQuote
	window   *utils.TickRing
	changed  bool

	log *logger.Logger
}

// -----------------------------------------------------------------------------

// NewRule creates the runtime state for one configured translation.
func NewRule(t models.MTranslate, log *logger.Logger) *Rule {
	size := t.NumberLastTicks
	if size <= 0 {
		size = 10
	}
	return &Rule{
		MTranslate: t,
		window:     utils.NewTickRing(size),
		log:        log,
	}
}

// -----------------------------------------------------------------------------

// Apply runs one raw tick through the normalization pipeline and reports
// whether the rounded emitted quote changed. The pipeline order is fixed:
// dedup, sigma filter, markups, percent widen, min clamp, max clamp, fixed
// spread, round half-to-even.
func (r *Rule) Apply(q models.MQuote) bool {
	r.changed = false

	if !q.IsValid() {
		return false
	}

	if !r.lastTick.Equal(q) {
		filtered := false

		// Sigma filter compares the incoming raw spread against the rolling
		// window, and only once the window holds a full baseline.
		if r.SigmaSpread != 0 {
			if r.window.Capacity() != r.NumberLastTicks {
				r.window.Resize(r.NumberLastTicks)
			}

			if r.window.Size() >= r.NumberLastTicks {
				spreads := r.window.Spreads()
				if s := analysis.SigmaNumber(spreads, q.Spread()); s > r.SigmaSpread {
					mean, std := analysis.MeanStd(spreads)
					r.log.Warning("%s: quote %v filtered out, sigma %d > %d (spread %.*f mean %.*f std %.*f)",
						r.Symbol, q, s, r.SigmaSpread, r.Digits, q.Spread(), r.Digits, mean, r.Digits, std)
					filtered = true
				}
			}
		}

		if !filtered {
			bid := q.Bid
			ask := q.Ask
			point := math.Pow(10, float64(-r.Digits))
			contract := math.Pow(10, float64(r.Digits))

			if r.BidMarkup != 0 {
				bid += point * float64(r.BidMarkup)
			}
			if r.AskMarkup != 0 {
				ask += point * float64(r.AskMarkup)
			}

			if r.Percent != 0 {
				widen := (ask - bid) * r.Percent / 100 / 2
				bid -= widen
				ask += widen
			}

			if r.Min != -1 {
				if spread := (ask - bid) * contract; spread < float64(r.Min) {
					mid := (ask + bid) / 2
					bid = mid - float64(r.Min)*point/2
					ask = mid + float64(r.Min)*point/2
				}
			}

			if r.Max != -1 {
				if spread := (ask - bid) * contract; spread > float64(r.Max) {
					r.log.Warning("%s: spread %.0f above maximum %d, clamping", r.Symbol, spread, r.Max)
					mid := (ask + bid) / 2
					bid = mid - float64(r.Max)*point/2
					ask = mid + float64(r.Max)*point/2
				}
			}

			if r.Fix != -1 {
				mid := (bid + ask) / 2
				bid = mid - float64(r.Fix)*point/2
				ask = mid + float64(r.Fix)*point/2
			}

			bid = roundToEven(bid, r.Digits)
			ask = roundToEven(ask, r.Digits)

			if bid != r.lastBid || ask != r.lastAsk {
				r.lastBid = bid
				r.lastAsk = ask
				r.changed = true
			}
		}
	}

	// The baseline keeps moving whether or not the tick survived the
	// filter, and whether or not it was a duplicate.
	r.lastTick = q
	if r.SigmaSpread != 0 {
		r.window.Append(q)
	}

	return r.changed
}

// -----------------------------------------------------------------------------

// Emitted returns the last emitted bid/ask pair.
func (r *Rule) Emitted() (bid, ask float64) {
	return r.lastBid, r.lastAsk
}

// -----------------------------------------------------------------------------

// Line formats the last emitted quote as the downstream wire line
// "<symbol> <bid> <ask>" without the terminator.
func (r *Rule) Line() string {
	return r.Symbol + " " + formatPrice(r.lastBid, r.Digits) + " " + formatPrice(r.lastAsk, r.Digits)
}

// -----------------------------------------------------------------------------

// roundToEven rounds to the given number of decimal places using banker's
// rounding.
func roundToEven(v float64, digits int) float64 {
	scale := math.Pow(10, float64(digits))
	return math.RoundToEven(v*scale) / scale
}

// -----------------------------------------------------------------------------

// formatPrice prints a price with at most `digits` decimals and no trailing
// zeros, so 1.50000 goes out as "1.5".
func formatPrice(v float64, digits int) string {
	s := strconv.FormatFloat(v, 'f', digits, 64)
	if strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimRight(s, ".")
	}
	return s
}
