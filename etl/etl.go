/*
Package etl loads the bank data warehouse from the source operational
database.

PURPOSE:
  One Run() populates the full star schema, dimensions before facts so
  surrogate keys can be resolved by joining back to already-loaded
  dimensions:

    dim_date -> dim_district -> dim_client -> dim_account
             -> dim_loan -> dim_card -> fact_orders -> fact_trans

  Each table loads inside its own transaction in chunked batches. A
  failure rolls back the table being loaded and marks the run failed;
  earlier tables stay loaded.

AUDIT:
  Every run gets a uuid and a row in etl_runs recording status,
  per-table row counts and the failure message, if any. Loads also log
  rows read vs rows now in the target, the way operators sanity-check
  a warehouse load.

SEE ALSO:
  - clean.go:      cleanup and null-replacement policy
  - dimensions.go: dimension loads
  - facts.go:      fact loads
  - store/sqlite:  the target schema
*/
package etl

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultChunkSize bounds how many rows one INSERT carries.
const DefaultChunkSize = 500

// Loader copies and cleans source tables into the warehouse.
type Loader struct {
	src *sql.DB
	tgt *sql.DB
	log *slog.Logger

	// ChunkSize overrides DefaultChunkSize when positive.
	ChunkSize int
}

// New creates a loader from the source database to the warehouse.
func New(src, tgt *sql.DB, log *slog.Logger) *Loader {
	return &Loader{src: src, tgt: tgt, log: log, ChunkSize: DefaultChunkSize}
}

// RunReport summarizes one completed load.
type RunReport struct {
	ID          string         `json:"id"`
	Status      string         `json:"status"`
	Counts      map[string]int `json:"counts"`
	StartedAt   time.Time      `json:"startedAt"`
	CompletedAt time.Time      `json:"completedAt"`
}

// Run performs a full warehouse load. The returned report is non-nil
// whenever the run was recorded, including failed runs.
func (l *Loader) Run(ctx context.Context) (*RunReport, error) {
	report := &RunReport{
		ID:        uuid.NewString(),
		Status:    "running",
		Counts:    make(map[string]int),
		StartedAt: time.Now().UTC(),
	}

	if err := l.recordStart(ctx, report); err != nil {
		return nil, fmt.Errorf("failed to record run: %w", err)
	}
	l.log.Info("warehouse load started", "run_id", report.ID)

	steps := []struct {
		table string
		load  func(context.Context) (int, error)
	}{
		{"dim_date", l.loadDates},
		{"dim_district", l.loadDistricts},
		{"dim_client", l.loadClients},
		{"dim_account", l.loadAccounts},
		{"dim_loan", l.loadLoans},
		{"dim_card", l.loadCards},
		{"fact_orders", l.loadOrders},
		{"fact_trans", l.loadTrans},
	}

	for _, step := range steps {
		n, err := step.load(ctx)
		if err != nil {
			report.Status = "failed"
			report.CompletedAt = time.Now().UTC()
			l.recordFinish(ctx, report, err)
			l.log.Error("warehouse load failed",
				"run_id", report.ID, "table", step.table, "error", err)
			return report, fmt.Errorf("failed to load %s: %w", step.table, err)
		}
		report.Counts[step.table] = n
		l.logCounts(ctx, step.table, n)
	}

	report.Status = "succeeded"
	report.CompletedAt = time.Now().UTC()
	if err := l.recordFinish(ctx, report, nil); err != nil {
		return report, fmt.Errorf("failed to record run completion: %w", err)
	}

	l.log.Info("warehouse load completed",
		"run_id", report.ID,
		"duration", report.CompletedAt.Sub(report.StartedAt).String())
	return report, nil
}

// =============================================================================
// RUN BOOKKEEPING
// =============================================================================

func (l *Loader) recordStart(ctx context.Context, r *RunReport) error {
	_, err := l.tgt.ExecContext(ctx,
		`INSERT INTO etl_runs (id, source, status, started_at) VALUES (?, ?, ?, ?)`,
		r.ID, "source_db", r.Status, r.StartedAt.Format(time.RFC3339))
	return err
}

func (l *Loader) recordFinish(ctx context.Context, r *RunReport, runErr error) error {
	counts, err := json.Marshal(r.Counts)
	if err != nil {
		return err
	}

	var errText sql.NullString
	if runErr != nil {
		errText = sql.NullString{String: runErr.Error(), Valid: true}
	}

	_, err = l.tgt.ExecContext(ctx,
		`UPDATE etl_runs SET status = ?, error = ?, counts_json = ?, completed_at = ? WHERE id = ?`,
		r.Status, errText, string(counts), r.CompletedAt.Format(time.RFC3339), r.ID)
	return err
}

// logCounts reports rows read from the source against rows now in the
// target table.
func (l *Loader) logCounts(ctx context.Context, table string, read int) {
	var inTarget int
	if err := l.tgt.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM "+table).Scan(&inTarget); err != nil {
		l.log.Warn("failed to count target rows", "table", table, "error", err)
		return
	}
	l.log.Info("table loaded", "table", table, "rows_read", read, "rows_in_target", inTarget)
}

// =============================================================================
// BATCH INSERTS
// =============================================================================

// insertBatches writes rows into table with multi-row INSERTs of at
// most ChunkSize rows, all inside one transaction.
func (l *Loader) insertBatches(ctx context.Context, table string, cols []string, rows [][]any) error {
	chunk := l.ChunkSize
	if chunk <= 0 {
		chunk = DefaultChunkSize
	}

	tx, err := l.tgt.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	single := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ") + ")"
	prefix := fmt.Sprintf("INSERT INTO %s (%s) VALUES ", table, strings.Join(cols, ", "))

	for start := 0; start < len(rows); start += chunk {
		end := start + chunk
		if end > len(rows) {
			end = len(rows)
		}
		batch := rows[start:end]

		placeholders := make([]string, len(batch))
		args := make([]any, 0, len(batch)*len(cols))
		for i, row := range batch {
			placeholders[i] = single
			args = append(args, row...)
		}

		if _, err := tx.ExecContext(ctx, prefix+strings.Join(placeholders, ", "), args...); err != nil {
			return fmt.Errorf("failed to insert batch into %s: %w", table, err)
		}
	}

	return tx.Commit()
}
