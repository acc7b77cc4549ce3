// Package source fronts the price-data providers and caches their daily
// bars locally, so a replay over a symbol already fetched today does not
// hit the upstream API again.
package source

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"dcatool/internal/market"
)

// BarCache keeps fetched daily bars in a small standalone SQLite file,
// separate from the run database so wiping one never touches the other.
type BarCache struct {
	mu sync.Mutex
	db *sql.DB
}

func NewBarCache(path string) (*BarCache, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("bar cache path cannot be empty")
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if err := ensureCacheSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &BarCache{db: db}, nil
}

func (c *BarCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	return err
}

func ensureCacheSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS price_bars (
			provider TEXT NOT NULL,
			symbol TEXT NOT NULL,
			date TEXT NOT NULL,
			close REAL NOT NULL,
			adj_close REAL NOT NULL DEFAULT 0,
			fetched_at INTEGER NOT NULL,
			PRIMARY KEY (provider, symbol, date)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_price_bars_lookup ON price_bars(provider, symbol, date);`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("bar cache schema: %w", err)
		}
	}
	return nil
}

// Put replaces the cached series for provider/symbol with bars.
func (c *BarCache) Put(ctx context.Context, provider, symbol string, bars []market.PriceBar) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.db == nil {
		return fmt.Errorf("bar cache is closed")
	}
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM price_bars WHERE provider = ? AND symbol = ?`, provider, symbol); err != nil {
		return err
	}
	now := time.Now().Unix()
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO price_bars (provider, symbol, date, close, adj_close, fetched_at)
		 VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, b := range bars {
		if _, err := stmt.ExecContext(ctx, provider, symbol, b.Date, b.Close, b.AdjClose, now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Get returns the cached series for provider/symbol, oldest first.
func (c *BarCache) Get(ctx context.Context, provider, symbol string) ([]market.PriceBar, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.db == nil {
		return nil, fmt.Errorf("bar cache is closed")
	}
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	rows, err := c.db.QueryContext(ctx,
		`SELECT date, close, adj_close FROM price_bars
		 WHERE provider = ? AND symbol = ? ORDER BY date ASC`, provider, symbol)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bars []market.PriceBar
	for rows.Next() {
		var b market.PriceBar
		if err := rows.Scan(&b.Date, &b.Close, &b.AdjClose); err != nil {
			return nil, err
		}
		bars = append(bars, b)
	}
	return bars, rows.Err()
}
