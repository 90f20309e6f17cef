package storage

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"quote-relay/src/logger"
	"quote-relay/src/models"
)

// -----------------------------------------------------------------------------

type postgresBackend struct {
	Config *models.MConfig
	DB     *sql.DB
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func newPostgresBackend(cfg *models.MConfig, log *logger.Logger) *postgresBackend {
	return &postgresBackend{
		Config: cfg,
		Logger: log,
	}
}

// -----------------------------------------------------------------------------

func (d *postgresBackend) initialize() error {
	dsn := d.Config.Storage.DBConnectionString
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return err
	}

	if err := db.Ping(); err != nil {
		return err
	}

	d.DB = db

	query := `
		CREATE TABLE IF NOT EXISTS quotes (
			symbol TEXT,
			bid DOUBLE PRECISION,
			ask DOUBLE PRECISION,
			line TEXT,
			timestamp BIGINT
		);
	`
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create quotes: %w", err)
	}

	query = `CREATE INDEX IF NOT EXISTS idx_quotes_symbol_ts ON quotes (symbol, timestamp);`
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to index quotes: %w", err)
	}

	d.Logger.Info("postgres journal ready")
	return nil
}

// -----------------------------------------------------------------------------

func (d *postgresBackend) saveBatch(quotes []models.MPublishedQuote) error {
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
		VALUES ($1, $2, $3, $4, $5)
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

func (d *postgresBackend) close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
