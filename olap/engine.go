/*
engine.go - Report orchestration

PURPOSE:
  Runs one report request end to end:

    NormalizeFilters -> Plan -> Executor.ExecuteSpec
      -> (rollup only) FilterSubtotals -> ProjectTable

  Execution is synchronous and stateless per request. Concurrent
  requests share only the read-only warehouse, so the engine needs no
  locking of its own. There is no caching, no retry, no partial-result
  delivery: a failed execution fails the whole request, wrapped in
  ErrQueryFailed with the store's message intact.

TIMING:
  Elapsed wall-clock time of the execution step is measured and
  returned as result metadata. It triggers no control action.
*/
package olap

import (
	"context"
	"fmt"
	"time"
)

// Executor runs a GroupingSpec against the warehouse and returns the
// resulting rows, cells ordered as GroupingSpec.Columns().
//
// Implementations must honor standard group-by semantics: one row per
// distinct group-by combination present in the filtered input, COUNT(*)
// counting rows, SUM/AVG ignoring NULLs in the aggregated field, and
// conditional sums contributing zero for non-matching rows. When
// spec.Rollup is set, every ordered prefix of the hierarchy is emitted
// as well, with NULL in the un-aggregated trailing levels.
type Executor interface {
	ExecuteSpec(ctx context.Context, spec GroupingSpec) ([][]Value, error)
}

// Engine is the multidimensional aggregation engine. Safe for
// concurrent use: it holds no per-request state.
type Engine struct {
	exec Executor
}

// NewEngine creates an engine over the given executor.
func NewEngine(exec Executor) *Engine {
	return &Engine{exec: exec}
}

// Report executes one report request. The raw map is the untrusted
// filter input from the caller; kind must already be validated via
// ParseReportKind.
func (e *Engine) Report(ctx context.Context, kind ReportKind, raw map[string]string) (*Result, error) {
	filters := NormalizeFilters(raw)

	spec, err := Plan(kind, filters)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	rows, err := e.exec.ExecuteSpec(ctx, spec)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueryFailed, err)
	}
	elapsed := time.Since(start)

	if spec.Rollup {
		rows = FilterSubtotals(rows,
			spec.GroupIndex("year"),
			spec.GroupIndex("quarter"),
			spec.GroupIndex("month"),
		)
	}

	return &Result{
		Table:            ProjectTable(spec.Columns(), rows),
		ExecutionSeconds: elapsed.Seconds(),
	}, nil
}
