/*
dto.go - Data Transfer Objects for API responses

PURPOSE:
  Defines the JSON structures for API communication. These types
  decouple the engine's result tables from the wire contract, and own
  the one serialization quirk of the domain: measure cells are decimals
  internally but must reach the dashboard as plain JSON numbers, not
  strings.

TYPES:
  Tables:
    TableDTO, ReportDTO, BrowseDTO, Cell

  Lookups:
    yearsDTO and friends are plain slices, no wrapper needed.

  Errors:
    ErrorResponse

SEE ALSO:
  - handlers.go: builds these from engine and store results
*/
package api

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/bankdwh/olap-server/olap"
)

// Cell wraps one result cell so decimals serialize as JSON numbers.
// Everything else marshals as-is; NULL cells become JSON null.
type Cell struct {
	v olap.Value
}

func (c Cell) MarshalJSON() ([]byte, error) {
	if d, ok := c.v.(decimal.Decimal); ok {
		return []byte(d.String()), nil
	}
	return json.Marshal(c.v)
}

// TableDTO is the canonical column/row table shape.
type TableDTO struct {
	Columns []string `json:"columns"`
	Rows    [][]Cell `json:"rows"`
}

// ReportDTO is a report table plus its execution metadata.
type ReportDTO struct {
	TableDTO
	ExecutionSeconds float64 `json:"executionTimeSeconds"`
}

// BrowseDTO is a raw table projection plus its truncation marker.
type BrowseDTO struct {
	TableDTO
	Truncated bool `json:"truncated"`
	RowLimit  int  `json:"rowLimit"`
}

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func toTableDTO(t olap.Table) TableDTO {
	rows := make([][]Cell, len(t.Rows))
	for i, row := range t.Rows {
		cells := make([]Cell, len(row))
		for j, v := range row {
			cells[j] = Cell{v: v}
		}
		rows[i] = cells
	}
	return TableDTO{Columns: t.Columns, Rows: rows}
}

func toReportDTO(r *olap.Result) ReportDTO {
	return ReportDTO{
		TableDTO:         toTableDTO(r.Table),
		ExecutionSeconds: r.ExecutionSeconds,
	}
}

func toBrowseDTO(b *olap.BrowseResult) BrowseDTO {
	return BrowseDTO{
		TableDTO:  toTableDTO(b.Table),
		Truncated: b.Truncated,
		RowLimit:  b.RowLimit,
	}
}
