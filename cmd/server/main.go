/*
main.go - Dashboard server entry point

PURPOSE:
  Initializes and starts the bank warehouse reporting server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (.env + environment)
  2. Initialize logger
  3. Open the warehouse store (optionally seed the sample dataset)
  4. Create API handler and router
  5. Serve until a shutdown signal arrives

COMMAND-LINE FLAGS:
  -seed    Load the sample dataset into an empty warehouse and exit
           startup with data ready for the dashboard demo

GRACEFUL SHUTDOWN:
  SIGINT/SIGTERM stops the listener, drains in-flight requests for up
  to 30 seconds, closes the warehouse, and exits.

EXAMPLES:
  # Run against an existing warehouse
  WAREHOUSE_DB=./data/bank_dwh.db ./server

  # Run an in-memory demo
  WAREHOUSE_DB=":memory:" ./server -seed

SEE ALSO:
  - api/server.go: Routes and middleware
  - api/handlers.go: Request handling
  - store/sqlite/sqlite.go: Warehouse implementation
  - cmd/etl: warehouse loading from the source database
*/
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bankdwh/olap-server/api"
	"github.com/bankdwh/olap-server/config"
	"github.com/bankdwh/olap-server/logger"
	"github.com/bankdwh/olap-server/store/sqlite"
)

func main() {
	seed := flag.Bool("seed", false, "load the sample dataset into an empty warehouse")
	flag.Parse()

	cfg := config.Load()
	log := logger.New(cfg.LogLevel)

	store, err := sqlite.New(cfg.WarehouseDB)
	if err != nil {
		log.Error("failed to open warehouse", "path", cfg.WarehouseDB, "error", err)
		os.Exit(1)
	}
	defer store.Close()
	if cfg.BrowseRowLimit > 0 {
		store.BrowseRowLimit = cfg.BrowseRowLimit
	}

	if *seed {
		if err := store.Seed(context.Background(), sqlite.SampleFixture()); err != nil {
			log.Error("failed to seed sample data", "error", err)
			os.Exit(1)
		}
		log.Info("sample dataset loaded")
	}

	handler := api.NewHandler(store, log)
	router := api.NewRouter(handler, cfg.AllowedOrigins, cfg.StaticDir)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("server starting", "addr", "http://localhost:"+cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("forced shutdown", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped")
}
