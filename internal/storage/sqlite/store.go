// Package sqlite is the storage adapter behind the acquisition framework.
// Collectors treat it as opaque: canonical records go in through Upsert,
// cached currency rates come out through ReadCachedRate.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/luguas/priceye/internal/collectors"
	"github.com/luguas/priceye/internal/hashutil"
	"github.com/luguas/priceye/internal/records"
	"github.com/luguas/priceye/internal/schema"
)

const defaultPath = "data/priceye.db"

// Store wraps a SQLite DB connection.
type Store struct {
	path string
	db   *sql.DB
}

// Open creates (if needed) and opens the SQLite database.
func Open(path string) (*Store, error) {
	if path == "" {
		path = defaultPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure data dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := ensureWAL(db); err != nil {
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	return &Store{path: path, db: db}, nil
}

func ensureWAL(db *sql.DB) error {
	const (
		maxAttempts = 5
		delay       = 200 * time.Millisecond
	)
	for i := 0; i < maxAttempts; i++ {
		if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			if strings.Contains(err.Error(), "database is locked") {
				time.Sleep(delay)
				continue
			}
			return err
		}
		return nil
	}
	return fmt.Errorf("database is locked after retries")
}

// Path returns the path backing the store.
func (s *Store) Path() string {
	return s.path
}

// Close closes the DB.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS signals (
	source TEXT NOT NULL,
	country TEXT NOT NULL,
	city TEXT NOT NULL,
	data_date TEXT NOT NULL,
	item_id TEXT NOT NULL DEFAULT '',
	raw_json TEXT,
	raw_hash TEXT,
	normalized_json TEXT,
	collected_at TEXT,
	PRIMARY KEY (source, country, city, data_date, item_id)
);
CREATE INDEX IF NOT EXISTS signals_date_idx ON signals(source, data_date);

CREATE TABLE IF NOT EXISTS currency_rates (
	base TEXT NOT NULL,
	quote TEXT NOT NULL,
	data_date TEXT NOT NULL,
	rate REAL NOT NULL,
	fetched_at TEXT,
	PRIMARY KEY (base, quote, data_date)
);
`

// CreateTables ensures the signal and rate tables exist.
func (s *Store) CreateTables(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, schemaSQL)
	return err
}

// DropTables removes all framework tables.
func (s *Store) DropTables(ctx context.Context) error {
	for _, stmt := range []string{
		`DROP TABLE IF EXISTS signals;`,
		`DROP TABLE IF EXISTS currency_rates;`,
	} {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// ClearTables truncates all framework tables.
func (s *Store) ClearTables(ctx context.Context) error {
	for _, stmt := range []string{
		`DELETE FROM signals;`,
		`DELETE FROM currency_rates;`,
	} {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

const upsertSignalSQL = `
INSERT INTO signals (source, country, city, data_date, item_id, raw_json, raw_hash, normalized_json, collected_at)
VALUES (?,?,?,?,?,?,?,?,?)
ON CONFLICT(source, country, city, data_date, item_id) DO UPDATE SET
	raw_json=excluded.raw_json,
	raw_hash=excluded.raw_hash,
	normalized_json=excluded.normalized_json,
	collected_at=excluded.collected_at;
`

// Upsert writes a batch of canonical records and reports per-record counts.
// Records whose normalized mapping fails the registered table schema count
// as failed and are skipped; an existing row with a different raw hash
// counts as updated, a new row as stored. Re-upserting an unchanged record
// counts as neither.
func (s *Store) Upsert(ctx context.Context, table string, recs []records.Record) (collectors.UpsertResult, error) {
	var res collectors.UpsertResult
	if len(recs) == 0 {
		return res, nil
	}
	if table == "currency_rates" {
		return s.upsertRates(ctx, recs)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return res, err
	}
	stmt, err := tx.PrepareContext(ctx, upsertSignalSQL)
	if err != nil {
		tx.Rollback()
		return res, err
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for _, rec := range recs {
		if !schema.ValidateTable(table, rec.Normalized) {
			res.Failed++
			continue
		}

		itemID := ""
		if v, ok := rec.Normalized[records.FieldListingID].(string); ok {
			itemID = v
		}
		date := rec.DataDate.Format("2006-01-02")
		hash := hashutil.HashMap(rec.Raw)

		prevHash, exists, err := s.signalHash(ctx, tx, rec, date, itemID)
		if err != nil {
			tx.Rollback()
			return collectors.UpsertResult{}, err
		}

		rawJSON, _ := json.Marshal(rec.Raw)
		normJSON, _ := json.Marshal(rec.Normalized)
		if _, err := stmt.ExecContext(ctx,
			string(rec.Source), rec.Country, rec.City, date, itemID,
			string(rawJSON), hash, string(normJSON), now,
		); err != nil {
			tx.Rollback()
			return collectors.UpsertResult{}, err
		}

		switch {
		case !exists:
			res.Stored++
		case prevHash != hash:
			res.Updated++
		}
	}
	if err := tx.Commit(); err != nil {
		return collectors.UpsertResult{}, err
	}
	return res, nil
}

func (s *Store) signalHash(ctx context.Context, tx *sql.Tx, rec records.Record, date, itemID string) (string, bool, error) {
	var hash string
	err := tx.QueryRowContext(ctx,
		`SELECT raw_hash FROM signals WHERE source=? AND country=? AND city=? AND data_date=? AND item_id=?`,
		string(rec.Source), rec.Country, rec.City, date, itemID,
	).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return hash, true, nil
}

func (s *Store) upsertRates(ctx context.Context, recs []records.Record) (collectors.UpsertResult, error) {
	var res collectors.UpsertResult
	now := time.Now().UTC().Format(time.RFC3339Nano)
	for _, rec := range recs {
		rate, ok := rec.Normalized[records.FieldRate].(float64)
		if !ok || !schema.ValidateTable("currency_rates", rec.Normalized) {
			res.Failed++
			continue
		}
		base, _ := rec.Normalized[records.FieldBaseCurrency].(string)
		quote, _ := rec.Normalized[records.FieldQuoteCurrency].(string)
		date := rec.DataDate.Format("2006-01-02")

		var existing float64
		err := s.db.QueryRowContext(ctx,
			`SELECT rate FROM currency_rates WHERE base=? AND quote=? AND data_date=?`,
			base, quote, date,
		).Scan(&existing)
		exists := err == nil
		if err != nil && err != sql.ErrNoRows {
			return collectors.UpsertResult{}, err
		}

		if _, err := s.db.ExecContext(ctx, `
INSERT INTO currency_rates (base, quote, data_date, rate, fetched_at) VALUES (?,?,?,?,?)
ON CONFLICT(base, quote, data_date) DO UPDATE SET rate=excluded.rate, fetched_at=excluded.fetched_at;`,
			base, quote, date, rate, now,
		); err != nil {
			return collectors.UpsertResult{}, err
		}

		switch {
		case !exists:
			res.Stored++
		case existing != rate:
			res.Updated++
		}
	}
	return res, nil
}

// ReadCachedRate returns a previously stored rate for the pair and date.
// Satisfies the currency converter's RateReader.
func (s *Store) ReadCachedRate(ctx context.Context, base, quote string, date time.Time) (float64, bool, error) {
	var rate float64
	err := s.db.QueryRowContext(ctx,
		`SELECT rate FROM currency_rates WHERE base=? AND quote=? AND data_date=?`,
		strings.ToUpper(base), strings.ToUpper(quote), records.Midnight(date).Format("2006-01-02"),
	).Scan(&rate)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return rate, true, nil
}

// SaveRate persists one fetched rate. Satisfies the currency converter's
// RateWriter.
func (s *Store) SaveRate(ctx context.Context, base, quote string, date time.Time, rate float64) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO currency_rates (base, quote, data_date, rate, fetched_at) VALUES (?,?,?,?,?)
ON CONFLICT(base, quote, data_date) DO UPDATE SET rate=excluded.rate, fetched_at=excluded.fetched_at;`,
		strings.ToUpper(base), strings.ToUpper(quote), records.Midnight(date).Format("2006-01-02"),
		rate, time.Now().UTC().Format(time.RFC3339Nano),
	)
	return err
}

// ListRecords reads back stored canonical records for one source and date,
// mainly for inspection commands and tests.
func (s *Store) ListRecords(ctx context.Context, source records.Source, date time.Time) ([]records.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT source, country, city, data_date, raw_json, normalized_json FROM signals WHERE source=? AND data_date=? ORDER BY country, city, item_id`,
		string(source), records.Midnight(date).Format("2006-01-02"),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []records.Record
	for rows.Next() {
		var (
			rec                     records.Record
			src, dateStr, rawJSON, normJSON string
		)
		if err := rows.Scan(&src, &rec.Country, &rec.City, &dateStr, &rawJSON, &normJSON); err != nil {
			return nil, err
		}
		rec.Source = records.Source(src)
		if d, err := time.Parse("2006-01-02", dateStr); err == nil {
			rec.DataDate = d
		}
		if err := json.Unmarshal([]byte(rawJSON), &rec.Raw); err != nil {
			return nil, fmt.Errorf("decode raw payload: %w", err)
		}
		if err := json.Unmarshal([]byte(normJSON), &rec.Normalized); err != nil {
			return nil, fmt.Errorf("decode normalized payload: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
