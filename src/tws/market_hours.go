package tws

import (
	"time"

	"github.com/scmhub/calendar"

	"quote-relay/src/logger"
)

// -----------------------------------------------------------------------------
// MarketHours gates reconnect pacing on the trading calendar of the feed's
// exchange: while the market is closed the session manager idles quietly
// instead of hammering the gateway and counting the silence as critical.
// -----------------------------------------------------------------------------

type MarketHours struct {
	cal *calendar.Calendar
	loc *time.Location

	log *logger.Logger
}

// -----------------------------------------------------------------------------

// NewMarketHours resolves a MIC code (ISO 10383, e.g. "xnys") to its
// calendar. An empty mic disables the gate; an unknown mic falls back to a
// plain Mon-Fri week.
func NewMarketHours(mic string) *MarketHours {
	if mic == "" {
		return nil
	}

	log := logger.NewLogger("MarketHours")

	cal := calendar.GetCalendar(mic)
	if cal == nil {
		log.Warning("unknown market calendar %q, falling back to Mon-Fri", mic)
		return &MarketHours{loc: time.UTC, log: log}
	}

	return &MarketHours{cal: cal, loc: cal.Loc, log: log}
}

// -----------------------------------------------------------------------------

// IsOpen reports whether the market trades at t.
func (m *MarketHours) IsOpen(t time.Time) bool {
	t = t.In(m.loc)

	if m.cal == nil {
		wd := t.Weekday()
		return wd != time.Saturday && wd != time.Sunday
	}

	return m.cal.IsOpen(t)
}
