package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"stock-watch/src/logger"
	"stock-watch/src/models"
)

// -----------------------------------------------------------------------------

type AsyncSQLiteDB struct {
	Config *models.MConfig
	DB     *sql.DB
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewAsyncSQLiteDB(cfg *models.MConfig, log *logger.Logger) (*AsyncSQLiteDB, error) {
	return &AsyncSQLiteDB{
		Config: cfg,
		Logger: log,
	}, nil
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) Initialize() error {
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

func (d *AsyncSQLiteDB) createTables() error {
	// Cached payloads must survive restarts, so the tables are created
	// if absent and never dropped.
	// SQLite types: INTEGER for int64, BLOB for []byte, TEXT for string
	query := `
		CREATE TABLE IF NOT EXISTS stock_cache (
			key TEXT PRIMARY KEY,
			payload BLOB NOT NULL,
			updated_at INTEGER NOT NULL
		);
	`
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create stock_cache: %w", err)
	}

	query = `
		CREATE TABLE IF NOT EXISTS watchlist (
			user_id TEXT,
			symbol TEXT,
			added_at INTEGER NOT NULL,
			PRIMARY KEY (user_id, symbol)
		);
	`
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create watchlist: %w", err)
	}

	return nil
}

// -----------------------------------------------------------------------------
// Cache rows
// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) Get(key string) ([]byte, time.Time, bool, error) {
	var payload []byte
	var updatedAt int64

	row := d.DB.QueryRow("SELECT payload, updated_at FROM stock_cache WHERE key = ?", key)
	if err := row.Scan(&payload, &updatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, time.Time{}, false, nil
		}
		return nil, time.Time{}, false, err
	}

	return payload, time.Unix(updatedAt, 0), true, nil
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) Put(key string, payload []byte) error {
	query := `
		INSERT INTO stock_cache (key, payload, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET
			payload = excluded.payload,
			updated_at = excluded.updated_at
	`
	_, err := d.DB.Exec(query, key, payload, time.Now().UTC().Unix())
	return err
}

// -----------------------------------------------------------------------------
// Watchlist rows
// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) List(userID string) ([]models.MWatchlistEntry, error) {
	rows, err := d.DB.Query(
		"SELECT user_id, symbol, added_at FROM watchlist WHERE user_id = ? ORDER BY added_at ASC, symbol ASC",
		userID,
	)
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

func (d *AsyncSQLiteDB) Count(userID string) (int, error) {
	var n int
	err := d.DB.QueryRow("SELECT COUNT(*) FROM watchlist WHERE user_id = ?", userID).Scan(&n)
	return n, err
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) Exists(userID, symbol string) (bool, error) {
	var one int
	err := d.DB.QueryRow(
		"SELECT 1 FROM watchlist WHERE user_id = ? AND symbol = ?",
		userID, symbol,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) Insert(entry models.MWatchlistEntry) error {
	_, err := d.DB.Exec(
		"INSERT INTO watchlist (user_id, symbol, added_at) VALUES (?, ?, ?)",
		entry.UserID, entry.Symbol, entry.AddedAt.UTC().Unix(),
	)
	return err
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) Delete(userID, symbol string) (bool, error) {
	res, err := d.DB.Exec(
		"DELETE FROM watchlist WHERE user_id = ? AND symbol = ?",
		userID, symbol,
	)
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

func (d *AsyncSQLiteDB) DistinctSymbols() ([]string, error) {
	rows, err := d.DB.Query("SELECT DISTINCT symbol FROM watchlist ORDER BY symbol ASC")
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

func (d *AsyncSQLiteDB) Ping() error {
	if d.DB == nil {
		return fmt.Errorf("sqlite not initialized")
	}
	return d.DB.Ping()
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
