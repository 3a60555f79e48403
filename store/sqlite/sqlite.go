/*
Package sqlite provides the SQLite-backed bank data warehouse.

PURPOSE:
  Owns the star schema (fact_trans and fact_orders around the date,
  district, client, account, loan and card dimensions) and implements
  everything the engine needs from a data store:

    olap.Executor:  GroupingSpec compilation and execution (exec.go)
    table browsing: capped raw projections of any warehouse table
    lookups:        sorted distinct filter options

KEY TABLES:
  dim_date:      one row per calendar date, quarter = ceil(month/3)
  dim_district:  region, district name, demographics
  dim_account:   links accounts to districts
  fact_trans:    one row per bank transaction (the reporting grain)
  etl_runs:      audit log of warehouse load runs

CONCURRENCY:
  The warehouse is reference data: loaded by the ETL, read-only to the
  engine. A sync.RWMutex lets concurrent reports share the store while
  an ETL run holds the write side.

WAL MODE:
  SQLite is opened with WAL so concurrent readers never block.

USAGE:
  store, err := sqlite.New("./data/bank_dwh.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()
  engine := olap.NewEngine(store)

MIGRATION:
  Schema is auto-migrated on New(). Use ":memory:" for tests.

SEE ALSO:
  - exec.go: GroupingSpec -> SQL compilation
  - seed.go: deterministic sample dataset
  - etl:     source database -> warehouse loader
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/bankdwh/olap-server/olap"
)

// DefaultBrowseRowLimit caps raw table browsing. The cap is a
// responsiveness bound, not a completeness guarantee, and is reported
// to callers via BrowseResult.Truncated.
const DefaultBrowseRowLimit = 10000

// Store is the SQLite-backed warehouse.
type Store struct {
	db *sql.DB
	mu sync.RWMutex

	// BrowseRowLimit overrides DefaultBrowseRowLimit when positive.
	// Set once at startup, before the store is shared.
	BrowseRowLimit int
}

// New opens (or creates) the warehouse at the given path and migrates
// the schema. Use ":memory:" for an in-memory warehouse.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if dbPath == ":memory:" {
		// A second pooled connection would open a separate, empty
		// in-memory database.
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db, BrowseRowLimit: DefaultBrowseRowLimit}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the underlying connection for the ETL loader, which
// writes the warehouse directly. Engine code never touches it.
func (s *Store) DB() *sql.DB {
	return s.db
}

// migrate creates the star schema.
func (s *Store) migrate() error {
	schema := `
	-- Date dimension: one row per calendar date seen in the source.
	CREATE TABLE IF NOT EXISTS dim_date (
		date_key    INTEGER PRIMARY KEY AUTOINCREMENT,
		full_date   TEXT NOT NULL UNIQUE,
		year        INTEGER NOT NULL,
		quarter     INTEGER NOT NULL,
		month       INTEGER NOT NULL,
		day         INTEGER NOT NULL,
		day_of_week TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_dim_date_year ON dim_date(year);

	CREATE TABLE IF NOT EXISTS dim_district (
		district_key           INTEGER PRIMARY KEY AUTOINCREMENT,
		district_id            INTEGER NOT NULL,
		district_name          TEXT NOT NULL,
		region                 TEXT NOT NULL,
		inhabitants            INTEGER,
		nocities               INTEGER,
		ratio_urbaninhabitants REAL,
		average_salary         REAL,
		unemployment           REAL,
		noentrepreneur         INTEGER,
		nocrimes               INTEGER
	);

	CREATE TABLE IF NOT EXISTS dim_client (
		client_key   INTEGER PRIMARY KEY AUTOINCREMENT,
		client_id    INTEGER NOT NULL,
		district_key INTEGER NOT NULL REFERENCES dim_district(district_key)
	);

	CREATE TABLE IF NOT EXISTS dim_account (
		account_key       INTEGER PRIMARY KEY AUTOINCREMENT,
		account_id        INTEGER NOT NULL,
		district_key      INTEGER NOT NULL REFERENCES dim_district(district_key),
		frequency         TEXT,
		account_open_date TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_dim_account_district ON dim_account(district_key);

	CREATE TABLE IF NOT EXISTS dim_loan (
		loan_key   INTEGER PRIMARY KEY AUTOINCREMENT,
		loan_id    INTEGER NOT NULL,
		account_id INTEGER NOT NULL,
		amount     REAL,
		duration   INTEGER,
		payments   REAL,
		status     TEXT,
		start_date TEXT
	);

	CREATE TABLE IF NOT EXISTS dim_card (
		card_key    INTEGER PRIMARY KEY AUTOINCREMENT,
		card_id     INTEGER NOT NULL,
		type        TEXT,
		issued_date TEXT
	);

	CREATE TABLE IF NOT EXISTS fact_orders (
		order_key   INTEGER PRIMARY KEY AUTOINCREMENT,
		order_id    INTEGER NOT NULL,
		account_key INTEGER NOT NULL REFERENCES dim_account(account_key),
		bank_to     TEXT,
		account_to  INTEGER,
		amount      REAL NOT NULL,
		k_symbol    TEXT
	);

	-- The reporting grain: one row per bank transaction.
	CREATE TABLE IF NOT EXISTS fact_trans (
		trans_key      INTEGER PRIMARY KEY AUTOINCREMENT,
		trans_id       INTEGER NOT NULL,
		account_key    INTEGER REFERENCES dim_account(account_key),
		trans_date_key INTEGER NOT NULL REFERENCES dim_date(date_key),
		trans_type     TEXT,
		operation      TEXT,
		amount         REAL NOT NULL,
		balance        REAL,
		k_symbol       TEXT,
		bank           TEXT,
		account_no     INTEGER
	);

	CREATE INDEX IF NOT EXISTS idx_fact_trans_date ON fact_trans(trans_date_key);
	CREATE INDEX IF NOT EXISTS idx_fact_trans_account ON fact_trans(account_key);
	CREATE INDEX IF NOT EXISTS idx_fact_trans_type ON fact_trans(trans_type);

	-- Audit log of warehouse loads.
	CREATE TABLE IF NOT EXISTS etl_runs (
		id           TEXT PRIMARY KEY,
		source       TEXT NOT NULL,
		status       TEXT NOT NULL,
		error        TEXT,
		counts_json  TEXT,
		started_at   TEXT NOT NULL,
		completed_at TEXT
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// TABLE BROWSING
// =============================================================================

// FetchTable projects a raw, unaggregated warehouse table in its
// catalog column order, truncated at the browse row limit. Unknown
// identifiers are rejected before any data access.
func (s *Store) FetchTable(ctx context.Context, table string) (*olap.BrowseResult, error) {
	cols, err := olap.BrowseColumns(table)
	if err != nil {
		return nil, err
	}

	limit := s.BrowseRowLimit
	if limit <= 0 {
		limit = DefaultBrowseRowLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	// Table and column names come from the catalog, never from the
	// request. One extra row detects truncation.
	query := fmt.Sprintf("SELECT %s FROM %s LIMIT %d", joinColumns(cols), table, limit+1)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to browse %s: %w", table, err)
	}
	defer rows.Close()

	data, err := scanValues(rows, len(cols))
	if err != nil {
		return nil, err
	}

	truncated := len(data) > limit
	if truncated {
		data = data[:limit]
	}

	return &olap.BrowseResult{
		Table:     olap.ProjectTable(cols, data),
		Truncated: truncated,
		RowLimit:  limit,
	}, nil
}

// =============================================================================
// FILTER OPTION LOOKUPS
// =============================================================================

// Years returns the distinct calendar years in the date dimension,
// ascending.
func (s *Store) Years(ctx context.Context) ([]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT DISTINCT year FROM dim_date ORDER BY year")
	if err != nil {
		return nil, fmt.Errorf("failed to list years: %w", err)
	}
	defer rows.Close()

	var years []int
	for rows.Next() {
		var y int
		if err := rows.Scan(&y); err != nil {
			return nil, err
		}
		years = append(years, y)
	}
	return years, rows.Err()
}

// TransTypes returns the distinct transaction types, sorted.
func (s *Store) TransTypes(ctx context.Context) ([]string, error) {
	return s.distinctStrings(ctx,
		"SELECT DISTINCT trans_type FROM fact_trans WHERE trans_type IS NOT NULL ORDER BY trans_type")
}

// Regions returns the distinct regions, sorted.
func (s *Store) Regions(ctx context.Context) ([]string, error) {
	return s.distinctStrings(ctx,
		"SELECT DISTINCT region FROM dim_district ORDER BY region")
}

// Districts returns the distinct district names, sorted.
func (s *Store) Districts(ctx context.Context) ([]string, error) {
	return s.distinctStrings(ctx,
		"SELECT DISTINCT district_name FROM dim_district ORDER BY district_name")
}

func (s *Store) distinctStrings(ctx context.Context, query string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("lookup failed: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// =============================================================================
// HELPERS
// =============================================================================

func joinColumns(cols []string) string {
	out := ""
	for i, c := range cols {
		if i > 0 {
			out += ", "
		}
		out += c
	}
	return out
}

// scanValues drains a result set into normalized cell rows.
func scanValues(rows *sql.Rows, width int) ([][]olap.Value, error) {
	var out [][]olap.Value
	for rows.Next() {
		raw := make([]any, width)
		ptrs := make([]any, width)
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		row := make([]olap.Value, width)
		for i, v := range raw {
			row[i] = olap.NormalizeValue(v)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
