package storage

import (
	"context"
	"sync"
	"time"

	"quote-relay/src/interfaces"
	"quote-relay/src/logger"
	"quote-relay/src/models"
)

// Batch constants
const (
	recordQueueSize = 4096
	flushBatchSize  = 500
	flushInterval   = 2 * time.Second
)

// -----------------------------------------------------------------------------

// backend is the blocking persistence layer behind the async journal.
type backend interface {
	initialize() error
	saveBatch(quotes []models.MPublishedQuote) error
	close() error
}

// -----------------------------------------------------------------------------

// Journal buffers published quotes and flushes them to the configured
// database in batches. Record never blocks the consumer loop: when the
// buffer is full the quote is dropped and counted.
type Journal struct {
	Config  *models.MConfig
	Logger  *logger.Logger
	backend backend

	in      chan models.MPublishedQuote
	dropped int64
	mu      sync.Mutex
}

// -----------------------------------------------------------------------------

// SupportedDBType reports whether a db_type value selects a journal
// backend. "none" and the empty string disable journaling.
func SupportedDBType(dbType string) bool {
	switch dbType {
	case "", "none", "sqlite", "postgres":
		return true
	}
	return false
}

// -----------------------------------------------------------------------------

// NewJournal selects a backend from the storage configuration. "none" or an
// empty db_type disables journaling entirely.
func NewJournal(cfg *models.MConfig) interfaces.IQuoteJournal {
	log := logger.NewLogger("Journal")

	var b backend
	switch cfg.Storage.DBType {
	case "sqlite":
		b = newSQLiteBackend(cfg, log)
	case "postgres":
		b = newPostgresBackend(cfg, log)
	default:
		return &NopJournal{}
	}

	return &Journal{
		Config:  cfg,
		Logger:  log,
		backend: b,
		in:      make(chan models.MPublishedQuote, recordQueueSize),
	}
}

// -----------------------------------------------------------------------------

func (j *Journal) Initialize() error {
	return j.backend.initialize()
}

// -----------------------------------------------------------------------------

func (j *Journal) Start(ctx context.Context, wg *sync.WaitGroup) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		j.run(ctx)
	}()
}

// -----------------------------------------------------------------------------

func (j *Journal) run(ctx context.Context) {
	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	batch := make([]models.MPublishedQuote, 0, flushBatchSize)

	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := j.backend.saveBatch(batch); err != nil {
			j.Logger.Error("flush of %d quotes failed: %v", len(batch), err)
		}
		batch = batch[:0]
	}

	for {
		select {
		case q := <-j.in:
			batch = append(batch, q)
			if len(batch) >= flushBatchSize {
				flush()
			}

		case <-ticker.C:
			flush()

		case <-ctx.Done():
			// Drain whatever is already queued, then final flush.
			for {
				select {
				case q := <-j.in:
					batch = append(batch, q)
				default:
					flush()
					j.Logger.Info("stopped (%d quotes dropped total)", j.droppedCount())
					return
				}
			}
		}
	}
}

// -----------------------------------------------------------------------------

// Record queues a quote for persistence without blocking.
func (j *Journal) Record(q models.MPublishedQuote) {
	select {
	case j.in <- q:
	default:
		j.mu.Lock()
		j.dropped++
		n := j.dropped
		j.mu.Unlock()
		if n%1000 == 1 {
			j.Logger.Warning("journal buffer full, dropping quotes (%d dropped)", n)
		}
	}
}

func (j *Journal) droppedCount() int64 {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.dropped
}

// -----------------------------------------------------------------------------

func (j *Journal) Close() error {
	return j.backend.close()
}

// -----------------------------------------------------------------------------
// NopJournal is used when no storage backend is configured.
// -----------------------------------------------------------------------------

type NopJournal struct{}

func (*NopJournal) Initialize() error { return nil }

func (*NopJournal) Start(ctx context.Context, wg *sync.WaitGroup) {}

func (*NopJournal) Record(q models.MPublishedQuote) {}

func (*NopJournal) Close() error { return nil }
