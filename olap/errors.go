/*
errors.go - Centralized error types for the aggregation engine

PURPOSE:
  All engine errors in one place. Callers distinguish the two classes
  the API cares about with errors.Is:

    olap.ErrUnknownTable / olap.ErrUnknownReportKind  -> client error,
        rejected before any data access
    olap.ErrQueryFailed                               -> server error,
        underlying store message surfaced verbatim, no retry

  ErrUnknownField marks an internal configuration error: the schema
  catalog is fixed, so a spec referencing a field outside it is a bug,
  not user input.

SEE ALSO:
  - catalog.go: where ErrUnknownTable / ErrUnknownField originate
  - engine.go:  where ErrQueryFailed wraps store failures
*/
package olap

import "errors"

var (
	// ErrUnknownTable is returned for a table identifier outside the
	// fixed browsable set. Rejected before any data access.
	ErrUnknownTable = errors.New("unknown table")

	// ErrUnknownReportKind is returned for a report kind outside the
	// closed set {rollup, drilldown, slice, dice, pivot}.
	ErrUnknownReportKind = errors.New("unknown report kind")

	// ErrUnknownField marks a GroupingSpec referencing a field the
	// schema catalog does not define. With a fixed catalog this is an
	// internal configuration error, not a request error.
	ErrUnknownField = errors.New("unknown field")

	// ErrQueryFailed wraps data-access failures from the executor.
	// The underlying message is preserved and surfaced to the caller.
	ErrQueryFailed = errors.New("query failed")
)
