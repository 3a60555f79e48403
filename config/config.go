/*
Package config loads server configuration from the environment.

PURPOSE:
  One place for every tunable: a .env file is loaded when present,
  explicit environment variables win, and everything has a default
  that works for local development.

VARIABLES:
  PORT              HTTP listen port              (default 8080)
  WAREHOUSE_DB      warehouse SQLite path         (default ./data/bank_dwh.db)
  SOURCE_DB         ETL source SQLite path        (default ./data/financedata.db)
  LOG_LEVEL         debug | info | warn | error   (default info)
  STATIC_DIR        dashboard static files        (default ./static)
  BROWSE_ROW_LIMIT  table browsing row cap        (default 10000)
  ALLOWED_ORIGINS   comma-separated CORS origins  (default *)
*/
package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds the full server configuration.
type Config struct {
	Port           string
	WarehouseDB    string
	SourceDB       string
	LogLevel       string
	StaticDir      string
	BrowseRowLimit int
	AllowedOrigins []string
}

// Load reads the .env file (when present) and the environment.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment and defaults")
	}

	return Config{
		Port:           getEnv("PORT", "8080"),
		WarehouseDB:    getEnv("WAREHOUSE_DB", "./data/bank_dwh.db"),
		SourceDB:       getEnv("SOURCE_DB", "./data/financedata.db"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		StaticDir:      getEnv("STATIC_DIR", "./static"),
		BrowseRowLimit: getEnvAsInt("BROWSE_ROW_LIMIT", 10000),
		AllowedOrigins: splitOrigins(getEnv("ALLOWED_ORIGINS", "*")),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("invalid integer for %s (%q), using default %d", key, raw, fallback)
		return fallback
	}
	return value
}

func splitOrigins(raw string) []string {
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return origins
}
