/*
table.go - Canonical result shape

PURPOSE:
  Defines the {columns, rows} table every report and raw table browse
  returns, and the cell value domain {integer, decimal, string, null}.
  Row order is significant: callers render rows top to bottom and
  charts take the first N rows in order.

NUMERIC CELLS:
  SQLite hands aggregates back as int64 or float64. Fractional values
  are normalized into shopspring decimals at the scan boundary so the
  rest of the system (JSON, CSV, tests) deals with exact values.

SEE ALSO:
  - engine.go: builds Results from executor rows
  - api/dto.go: wire encoding of cell values
*/
package olap

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// CELL VALUES
// =============================================================================

// Value is one table cell: int64, decimal.Decimal, string or nil.
type Value = any

// NormalizeValue maps a raw database value into the cell value domain.
func NormalizeValue(v any) Value {
	switch x := v.(type) {
	case nil:
		return nil
	case int64:
		return x
	case float64:
		return decimal.NewFromFloat(x)
	case []byte:
		return string(x)
	case string:
		return x
	case bool:
		if x {
			return int64(1)
		}
		return int64(0)
	case time.Time:
		return x.Format("2006-01-02")
	default:
		return x
	}
}

// =============================================================================
// TABLES AND RESULTS
// =============================================================================

// Table is the stable tabular shape shared by every report and by raw
// table browsing.
type Table struct {
	Columns []string  `json:"columns"`
	Rows    [][]Value `json:"rows"`
}

// ProjectTable pairs a fixed column list with executor rows. Rows keep
// the executor's order; a nil row set becomes an empty (not null) one
// so empty results still carry their columns.
func ProjectTable(columns []string, rows [][]Value) Table {
	if rows == nil {
		rows = [][]Value{}
	}
	return Table{Columns: columns, Rows: rows}
}

// Result is a finished report: the table plus the elapsed wall-clock
// time of the aggregation step. The duration is metadata for the
// caller, never a control input.
type Result struct {
	Table
	ExecutionSeconds float64 `json:"executionTimeSeconds"`
}

// BrowseResult is a raw table browse. Truncated reports that the row
// cap was hit: the rows shown are a responsiveness bound, not a
// completeness guarantee.
type BrowseResult struct {
	Table
	Truncated bool `json:"truncated"`
	RowLimit  int  `json:"rowLimit"`
}
