/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route
  definitions. This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Per-request access log
  2. Recoverer:  Turns handler panics into 500s
  3. RequestID:  Correlates log lines for one request
  4. CORS:       Lets the dashboard frontend call from another origin

ROUTE GROUPS:
  /api/table/{name}       Raw table browsing
  /api/reports/{kind}     OLAP reports + CSV export
  /api/available-*        Filter option lookups
  /api/health             Liveness
  /*                      Static files (dashboard frontend)

STATIC FILE SERVING:
  Serves the dashboard from the configured static directory when it
  exists; otherwise a plain endpoint listing so the API is explorable
  without the frontend build.

SEE ALSO:
  - handlers.go: The handlers these routes dispatch to
  - cmd/server/main.go: Server construction and shutdown
*/
package api

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a router with all routes configured. allowedOrigins
// feeds the CORS middleware; staticDir is served at the root when it
// exists.
func NewRouter(h *Handler, allowedOrigins []string, staticDir string) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)

		r.Get("/table/{name}", h.GetTable)

		r.Route("/reports/{kind}", func(r chi.Router) {
			r.Post("/", h.RunReport)
			r.Get("/export", h.ExportReport)
		})

		r.Get("/available-years", h.AvailableYears)
		r.Get("/available-trans-types", h.AvailableTransTypes)
		r.Get("/available-regions", h.AvailableRegions)
		r.Get("/available-districts", h.AvailableDistricts)
	})

	// Serve the dashboard frontend when built.
	if _, err := os.Stat(staticDir); err == nil {
		fileServer := http.FileServer(http.Dir(staticDir))
		r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
			fullPath := filepath.Join(staticDir, filepath.Clean(r.URL.Path))
			if _, err := os.Stat(fullPath); os.IsNotExist(err) {
				// Unknown paths fall back to index.html for SPA routes.
				http.ServeFile(w, r, filepath.Join(staticDir, "index.html"))
				return
			}
			fileServer.ServeHTTP(w, r)
		})
	} else {
		r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte(`<!DOCTYPE html>
<html>
<head><title>Bank Warehouse Dashboard API</title></head>
<body style="font-family: system-ui; max-width: 800px; margin: 50px auto; padding: 20px;">
<h1>Bank Warehouse Dashboard API</h1>
<p>The frontend is not built. The API is fully usable directly:</p>
<h2>API Endpoints</h2>
<ul>
<li><a href="/api/table/fact_trans">/api/table/{name}</a> - Browse a warehouse table</li>
<li>POST /api/reports/{rollup|drilldown|slice|dice|pivot} - Run a report</li>
<li><a href="/api/reports/rollup/export">/api/reports/{kind}/export</a> - CSV download</li>
<li><a href="/api/available-years">/api/available-years</a> - Filter options</li>
<li><a href="/api/health">/api/health</a> - Health check</li>
</ul>
</body>
</html>`))
		})
	}

	return r
}
