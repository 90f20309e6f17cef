package watchdog

import (
	"sync"

	"quote-relay/src/logger"
)

// -----------------------------------------------------------------------------
// Monitor counts critical feed errors on behalf of the external terminal
// watchdog. The relay only increments and reports; killing and restarting
// the terminal process is the watchdog collaborator's job, reached through
// the Restarts channel.
// -----------------------------------------------------------------------------

type Monitor struct {
	mu        sync.Mutex
	count     int
	threshold int
	restarts  chan struct{}

	log *logger.Logger
}

// -----------------------------------------------------------------------------

// NewMonitor creates a monitor that requests a restart every time the
// critical-error count reaches threshold. A threshold of 0 disables it.
func NewMonitor(threshold int) *Monitor {
	return &Monitor{
		threshold: threshold,
		restarts:  make(chan struct{}, 1),
		log:       logger.NewLogger("WatchDog"),
	}
}

// -----------------------------------------------------------------------------

// ReportCritical increments the counter and, once the threshold is crossed,
// emits one restart request and resets.
func (m *Monitor) ReportCritical(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.count++
	m.log.Warning("critical error %d/%d: %s", m.count, m.threshold, reason)

	if m.threshold > 0 && m.count >= m.threshold {
		m.count = 0
		select {
		case m.restarts <- struct{}{}:
		default:
			// A restart request is already pending.
		}
	}
}

// -----------------------------------------------------------------------------

// ReportSuccess resets the counter after the feed recovered.
func (m *Monitor) ReportSuccess() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.count > 0 {
		m.log.Info("feed recovered, resetting critical error count from %d", m.count)
	}
	m.count = 0
}

// -----------------------------------------------------------------------------

// Restarts delivers one signal per requested terminal restart.
func (m *Monitor) Restarts() <-chan struct{} {
	return m.restarts
}

// -----------------------------------------------------------------------------

// Count returns the current critical-error count.
func (m *Monitor) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.count
}
