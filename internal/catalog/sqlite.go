package catalog

import (
	"database/sql"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteCatalog persists the coin registry to a SQLite database.
type SQLiteCatalog struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteCatalog opens (or creates) the SQLite database and runs migrations.
func NewSQLiteCatalog(dbPath string) (*SQLiteCatalog, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode for concurrent reads while the refresher writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	c := &SQLiteCatalog{db: db}
	if err := c.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite catalog opened: %s", dbPath)
	return c, nil
}

func (c *SQLiteCatalog) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS coins (
			id         INTEGER PRIMARY KEY,
			symbol     TEXT NOT NULL,
			name       TEXT NOT NULL,
			slug       TEXT,
			rank       INTEGER,
			updated_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_coins_symbol ON coins(symbol)`,
		`CREATE INDEX IF NOT EXISTS idx_coins_rank ON coins(rank)`,
	}
	for _, s := range stmts {
		if _, err := c.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// UpsertAll inserts or refreshes one row per coin. The registry holds the
// latest known identity and rank only, never a price history.
func (c *SQLiteCatalog) UpsertAll(coins []Coin) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO coins (id, symbol, name, slug, rank, updated_at)
		VALUES (?,?,?,?,?,?)
		ON CONFLICT(id) DO UPDATE SET
			symbol=excluded.symbol, name=excluded.name, slug=excluded.slug,
			rank=excluded.rank, updated_at=excluded.updated_at`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().Unix()
	for _, coin := range coins {
		if _, err := stmt.Exec(coin.ID, coin.Symbol, coin.Name, coin.Slug, coin.Rank, now); err != nil {
			tx.Rollback()
			return fmt.Errorf("upsert %s: %w", coin.Symbol, err)
		}
	}
	return tx.Commit()
}

// Search matches name or symbol case-insensitively, best rank first.
func (c *SQLiteCatalog) Search(query string, limit int) ([]Coin, error) {
	if limit <= 0 {
		limit = 20
	}
	pattern := "%" + strings.TrimSpace(query) + "%"
	rows, err := c.db.Query(`SELECT id, symbol, name, slug, rank FROM coins
		WHERE symbol LIKE ? OR name LIKE ?
		ORDER BY CASE WHEN rank > 0 THEN rank ELSE 1000000 END
		LIMIT ?`, pattern, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	defer rows.Close()

	var coins []Coin
	for rows.Next() {
		var coin Coin
		if err := rows.Scan(&coin.ID, &coin.Symbol, &coin.Name, &coin.Slug, &coin.Rank); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		coins = append(coins, coin)
	}
	return coins, rows.Err()
}

func (c *SQLiteCatalog) Close() error {
	log.Println("[INFO] closing sqlite catalog")
	return c.db.Close()
}
