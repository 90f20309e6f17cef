package storage

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"quote-relay/src/logger"
	"quote-relay/src/models"
)

// -----------------------------------------------------------------------------

type sqliteBackend struct {
	Config *models.MConfig
	DB     *sql.DB
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func newSQLiteBackend(cfg *models.MConfig, log *logger.Logger) *sqliteBackend {
	return &sqliteBackend{
		Config: cfg,
		Logger: log,
	}
}

// -----------------------------------------------------------------------------

func (d *sqliteBackend) initialize() error {
	dsn := d.Config.Storage.DBPath

	// Open DB
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return err
	}

	if err := db.Ping(); err != nil {
		return err
	}

	d.DB = db

	// PRAGMA optimizations
	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		d.Logger.Warning("Failed to set WAL mode: %v", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL;"); err != nil {
		d.Logger.Warning("Failed to set synchronous mode: %v", err)
	}

	return d.createTables()
}

// -----------------------------------------------------------------------------

func (d *sqliteBackend) createTables() error {
	// SQLite types: INTEGER for int64, REAL for float64, TEXT for string
	query := `
		CREATE TABLE IF NOT EXISTS quotes (
			symbol TEXT,
			bid REAL,
			ask REAL,
			line TEXT,
			timestamp INTEGER
		);
	`
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create quotes: %w", err)
	}

	query = `CREATE INDEX IF NOT EXISTS idx_quotes_symbol_ts ON quotes (symbol, timestamp);`
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to index quotes: %w", err)
	}

	d.Logger.Info("sqlite journal ready at %s", d.Config.Storage.DBPath)
	return nil
}

// -----------------------------------------------------------------------------

func (d *sqliteBackend) saveBatch(quotes []models.MPublishedQuote) error {
	if len(quotes) == 0 {
		return nil
	}

	tx, err := d.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO quotes (symbol, bid, ask, line, timestamp)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, q := range quotes {
		_, err := stmt.Exec(q.Symbol, q.Bid, q.Ask, q.Line, q.Time.UnixMilli())
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// -----------------------------------------------------------------------------

func (d *sqliteBackend) close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
