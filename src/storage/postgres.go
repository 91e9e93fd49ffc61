package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"stock-watch/src/logger"
	"stock-watch/src/models"
)

// -----------------------------------------------------------------------------

type PostgresDB struct {
	Config *models.MConfig
	DB     *sql.DB
	Schema string
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewPostgresDB(cfg *models.MConfig, log *logger.Logger) (*PostgresDB, error) {
	// Schema named after the executable so several deployments can share
	// one database.
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable name: %w", err)
	}
	name := filepath.Base(exe)
	name = strings.TrimSuffix(name, filepath.Ext(name))

	return &PostgresDB{
		Config: cfg,
		Schema: name,
		Logger: log,
	}, nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) Initialize() error {
	dsn := d.Config.Storage.DBConnectionString
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return err
	}

	if err := db.Ping(); err != nil {
		return err
	}

	d.DB = db

	// Create Schema
	if _, err := d.DB.Exec(fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS "%s"`, d.Schema)); err != nil {
		return fmt.Errorf("failed to create schema %s: %w", d.Schema, err)
	}

	if err := d.createTables(); err != nil {
		return err
	}

	d.Logger.Info("PostgresDB initialized successfully (Schema: %s)", d.Schema)
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) createTables() error {
	// Cached payloads must survive restarts, so the tables are created
	// if absent and never dropped.
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS "%s"."stock_cache" (
			key TEXT PRIMARY KEY,
			payload BYTEA NOT NULL,
			updated_at BIGINT NOT NULL
		);
	`, d.Schema)
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create stock_cache: %w", err)
	}

	query = fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS "%s"."watchlist" (
			user_id TEXT,
			symbol TEXT,
			added_at BIGINT NOT NULL,
			PRIMARY KEY (user_id, symbol)
		);
	`, d.Schema)
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create watchlist: %w", err)
	}

	return nil
}

// -----------------------------------------------------------------------------
// Cache rows
// -----------------------------------------------------------------------------

func (d *PostgresDB) Get(key string) ([]byte, time.Time, bool, error) {
	var payload []byte
	var updatedAt int64

	query := fmt.Sprintf(`SELECT payload, updated_at FROM "%s"."stock_cache" WHERE key = $1`, d.Schema)
	if err := d.DB.QueryRow(query, key).Scan(&payload, &updatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, time.Time{}, false, nil
		}
		return nil, time.Time{}, false, err
	}

	return payload, time.Unix(updatedAt, 0), true, nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) Put(key string, payload []byte) error {
	query := fmt.Sprintf(`
		INSERT INTO "%s"."stock_cache" (key, payload, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET
			payload = EXCLUDED.payload,
			updated_at = EXCLUDED.updated_at
	`, d.Schema)
	_, err := d.DB.Exec(query, key, payload, time.Now().UTC().Unix())
	return err
}

// -----------------------------------------------------------------------------
// Watchlist rows
// -----------------------------------------------------------------------------

func (d *PostgresDB) List(userID string) ([]models.MWatchlistEntry, error) {
	query := fmt.Sprintf(
		`SELECT user_id, symbol, added_at FROM "%s"."watchlist" WHERE user_id = $1 ORDER BY added_at ASC, symbol ASC`,
		d.Schema,
	)
	rows, err := d.DB.Query(query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]models.MWatchlistEntry, 0)
	for rows.Next() {
		var e models.MWatchlistEntry
		var addedAt int64
		if err := rows.Scan(&e.UserID, &e.Symbol, &addedAt); err != nil {
			return nil, err
		}
		e.AddedAt = time.Unix(addedAt, 0)
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) Count(userID string) (int, error) {
	var n int
	query := fmt.Sprintf(`SELECT COUNT(*) FROM "%s"."watchlist" WHERE user_id = $1`, d.Schema)
	err := d.DB.QueryRow(query, userID).Scan(&n)
	return n, err
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) Exists(userID, symbol string) (bool, error) {
	var one int
	query := fmt.Sprintf(`SELECT 1 FROM "%s"."watchlist" WHERE user_id = $1 AND symbol = $2`, d.Schema)
	err := d.DB.QueryRow(query, userID, symbol).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) Insert(entry models.MWatchlistEntry) error {
	query := fmt.Sprintf(
		`INSERT INTO "%s"."watchlist" (user_id, symbol, added_at) VALUES ($1, $2, $3)`,
		d.Schema,
	)
	_, err := d.DB.Exec(query, entry.UserID, entry.Symbol, entry.AddedAt.UTC().Unix())
	return err
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) Delete(userID, symbol string) (bool, error) {
	query := fmt.Sprintf(`DELETE FROM "%s"."watchlist" WHERE user_id = $1 AND symbol = $2`, d.Schema)
	res, err := d.DB.Exec(query, userID, symbol)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) DistinctSymbols() ([]string, error) {
	query := fmt.Sprintf(`SELECT DISTINCT symbol FROM "%s"."watchlist" ORDER BY symbol ASC`, d.Schema)
	rows, err := d.DB.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	symbols := make([]string, 0)
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		symbols = append(symbols, s)
	}

	return symbols, rows.Err()
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) Ping() error {
	if d.DB == nil {
		return fmt.Errorf("postgres not initialized")
	}
	return d.DB.Ping()
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
