/*
handlers.go - HTTP API handlers for the warehouse dashboard

PURPOSE:
  Exposes table browsing and the OLAP reports via REST. Handles HTTP
  request/response, JSON serialization, and delegates to the engine
  and the store.

ENDPOINTS:
  Browsing:
    GET  /api/table/{name}             Raw rows of one warehouse table

  Reports:
    POST /api/reports/{kind}           Run a report (filters in body)
    GET  /api/reports/{kind}/export    Same report as a CSV download

  Filter options:
    GET  /api/available-years
    GET  /api/available-trans-types
    GET  /api/available-regions
    GET  /api/available-districts

  Health:
    GET  /api/health

ERROR HANDLING:
  Failures come back as a JSON error body with a matching status:
  - 400: unknown table, unknown report kind, malformed JSON body
  - 500: query execution failures, internal field-mapping errors
  Bad filter VALUES are not errors: the engine answers them with an
  empty result.

SECURITY NOTE:
  No authentication. The dashboard is an internal reporting tool; the
  only untrusted inputs are filter values, and those never reach SQL
  text.

SEE ALSO:
  - dto.go: response shapes
  - server.go: router setup and middleware
*/
package api

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/bankdwh/olap-server/olap"
	"github.com/bankdwh/olap-server/store/sqlite"
)

// =============================================================================
// HANDLER
// =============================================================================

// Handler carries everything the HTTP handlers need.
type Handler struct {
	Store  *sqlite.Store
	Engine *olap.Engine
	Log    *slog.Logger
}

// NewHandler creates a handler over the given store.
func NewHandler(store *sqlite.Store, log *slog.Logger) *Handler {
	return &Handler{
		Store:  store,
		Engine: olap.NewEngine(store),
		Log:    log,
	}
}

// =============================================================================
// TABLE BROWSING
// =============================================================================

// GetTable returns the raw rows of one warehouse table.
// GET /api/table/{name}
func (h *Handler) GetTable(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	res, err := h.Store.FetchTable(r.Context(), name)
	if err != nil {
		if errors.Is(err, olap.ErrUnknownTable) {
			writeError(w, http.StatusBadRequest, "Unknown table", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to fetch table", err)
		return
	}

	writeJSON(w, http.StatusOK, toBrowseDTO(res))
}

// =============================================================================
// REPORTS
// =============================================================================

// RunReport executes one report. The body is a flat JSON object of
// filter values; a missing or empty body means no filters.
// POST /api/reports/{kind}
func (h *Handler) RunReport(w http.ResponseWriter, r *http.Request) {
	kind, err := olap.ParseReportKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Unknown report kind", err)
		return
	}

	filters, err := decodeFilters(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body", err)
		return
	}

	res, err := h.Engine.Report(r.Context(), kind, filters)
	if err != nil {
		h.Log.Error("report failed", "kind", kind, "error", err)
		writeError(w, http.StatusInternalServerError, "Report execution failed", err)
		return
	}

	writeJSON(w, http.StatusOK, toReportDTO(res))
}

// ExportReport streams one report as CSV. Filters come from the query
// string so the dashboard can offer a plain download link.
// GET /api/reports/{kind}/export
func (h *Handler) ExportReport(w http.ResponseWriter, r *http.Request) {
	kind, err := olap.ParseReportKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Unknown report kind", err)
		return
	}

	filters := make(map[string]string)
	for key, values := range r.URL.Query() {
		if len(values) > 0 {
			filters[key] = values[0]
		}
	}

	res, err := h.Engine.Report(r.Context(), kind, filters)
	if err != nil {
		h.Log.Error("report export failed", "kind", kind, "error", err)
		writeError(w, http.StatusInternalServerError, "Report execution failed", err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", string(kind)+".csv"))

	cw := csv.NewWriter(w)
	if err := cw.Write(res.Columns); err != nil {
		return
	}
	record := make([]string, len(res.Columns))
	for _, row := range res.Rows {
		for i, v := range row {
			record[i] = csvCell(v)
		}
		if err := cw.Write(record); err != nil {
			return
		}
	}
	cw.Flush()
}

// csvCell renders one result cell for CSV. NULL subtotal markers
// export as empty fields.
func csvCell(v olap.Value) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case decimal.Decimal:
		return x.String()
	default:
		return fmt.Sprintf("%v", x)
	}
}

// decodeFilters reads the flat filter object. Every value arrives as a
// string; the engine's normalizer owns interpretation.
func decodeFilters(body io.Reader) (map[string]string, error) {
	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return map[string]string{}, nil
	}

	var loose map[string]any
	if err := json.Unmarshal(raw, &loose); err != nil {
		return nil, err
	}

	filters := make(map[string]string, len(loose))
	for k, v := range loose {
		switch x := v.(type) {
		case nil:
			// absent
		case string:
			filters[k] = x
		case float64:
			// The dashboard sends years and quarters as numbers.
			filters[k] = strconv.FormatFloat(x, 'f', -1, 64)
		case bool:
			filters[k] = strconv.FormatBool(x)
		default:
			return nil, fmt.Errorf("filter %q has unsupported type", k)
		}
	}
	return filters, nil
}

// =============================================================================
// FILTER OPTION LOOKUPS
// =============================================================================

// AvailableYears returns the distinct years, ascending.
// GET /api/available-years
func (h *Handler) AvailableYears(w http.ResponseWriter, r *http.Request) {
	years, err := h.Store.Years(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list years", err)
		return
	}
	if years == nil {
		years = []int{}
	}
	writeJSON(w, http.StatusOK, years)
}

// AvailableTransTypes returns the distinct transaction types.
// GET /api/available-trans-types
func (h *Handler) AvailableTransTypes(w http.ResponseWriter, r *http.Request) {
	h.writeStringList(w, r, h.Store.TransTypes, "Failed to list transaction types")
}

// AvailableRegions returns the distinct regions.
// GET /api/available-regions
func (h *Handler) AvailableRegions(w http.ResponseWriter, r *http.Request) {
	h.writeStringList(w, r, h.Store.Regions, "Failed to list regions")
}

// AvailableDistricts returns the distinct district names.
// GET /api/available-districts
func (h *Handler) AvailableDistricts(w http.ResponseWriter, r *http.Request) {
	h.writeStringList(w, r, h.Store.Districts, "Failed to list districts")
}

func (h *Handler) writeStringList(w http.ResponseWriter, r *http.Request,
	fetch func(ctx context.Context) ([]string, error), failMsg string) {

	values, err := fetch(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, failMsg, err)
		return
	}
	if values == nil {
		values = []string{}
	}
	writeJSON(w, http.StatusOK, values)
}

// =============================================================================
// HEALTH
// =============================================================================

// Health reports liveness.
// GET /api/health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
