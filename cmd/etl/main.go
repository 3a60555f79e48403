/*
main.go - One-shot warehouse load

PURPOSE:
  Runs the full ETL from the source operational database into the
  warehouse, then exits. Non-zero exit on failure so the load can be
  scheduled and monitored externally.

EXAMPLES:
  SOURCE_DB=./data/financedata.db WAREHOUSE_DB=./data/bank_dwh.db ./etl

SEE ALSO:
  - etl: the loader
  - cmd/server: serves reports over the loaded warehouse
*/
package main

import (
	"context"
	"database/sql"
	"os"

	_ "github.com/mattn/go-sqlite3"

	"github.com/bankdwh/olap-server/config"
	"github.com/bankdwh/olap-server/etl"
	"github.com/bankdwh/olap-server/logger"
	"github.com/bankdwh/olap-server/store/sqlite"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.LogLevel)

	src, err := sql.Open("sqlite3", cfg.SourceDB)
	if err != nil {
		log.Error("failed to open source database", "path", cfg.SourceDB, "error", err)
		os.Exit(1)
	}
	defer src.Close()

	store, err := sqlite.New(cfg.WarehouseDB)
	if err != nil {
		log.Error("failed to open warehouse", "path", cfg.WarehouseDB, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	report, err := etl.New(src, store.DB(), log).Run(context.Background())
	if err != nil {
		log.Error("warehouse load failed", "error", err)
		os.Exit(1)
	}

	log.Info("warehouse load succeeded", "run_id", report.ID, "tables", len(report.Counts))
}
