/*
filter.go - Filter normalization

PURPOSE:
  Converts the raw string-keyed, string-valued filter map supplied by
  the HTTP layer into a typed, immutable FilterSet. One FilterSet is
  built per request and discarded with it; it is never shared.

FAIL-SOFT CONTRACT:
  The original dashboard was deliberately permissive about malformed
  filters, and that behavior is preserved here rather than tightened:
  - absent or empty values mean "no filter on that field"
  - fromYear > toYear is NOT an error; the executor simply yields an
    empty result
  - a quarter outside 1..4 (or non-numeric) does not fail the request;
    it becomes a predicate that can never match, so the result is empty
  - an unrecognized metric falls back to the default, transaction_count

SEE ALSO:
  - plan.go: translates the FilterSet into GroupingSpec predicates
*/
package olap

import (
	"strconv"
	"strings"
)

// =============================================================================
// METRIC SELECTOR (slice report)
// =============================================================================

// Metric selects which measures the slice report computes alongside the
// transaction count it always carries (the count drives its ordering).
type Metric string

const (
	MetricTransactionCount Metric = "transaction_count"
	MetricTotalAmount      Metric = "total_amount"
	MetricAverageAmount    Metric = "average_amount"
	MetricAll              Metric = "all"
)

// =============================================================================
// FILTER SET
// =============================================================================

// FilterSet is the normalized, request-scoped view of the caller's
// filters. Nil pointers and empty strings mean "unbounded / no filter".
//
// FromYear > ToYear is legal and yields an empty result downstream.
type FilterSet struct {
	FromYear *int
	ToYear   *int

	Region    string
	District  string
	TransType string

	// Quarter is set only when the raw value parsed as an integer in
	// 1..4. QuarterInvalid records that a value was supplied but was
	// unusable; planning turns that into a never-matching predicate.
	Quarter        *int
	QuarterInvalid bool

	Metric Metric
}

// NormalizeFilters builds a FilterSet from the raw filter map.
// It never fails: malformed values degrade per the fail-soft contract.
func NormalizeFilters(raw map[string]string) FilterSet {
	f := FilterSet{Metric: MetricTransactionCount}

	f.FromYear = parseYear(raw["fromYear"])
	f.ToYear = parseYear(raw["toYear"])

	f.Region = strings.TrimSpace(raw["region"])
	f.District = strings.TrimSpace(raw["district"])
	f.TransType = strings.TrimSpace(raw["transType"])

	if q := strings.TrimSpace(raw["quarter"]); q != "" {
		n, err := strconv.Atoi(q)
		if err == nil && n >= 1 && n <= 4 {
			f.Quarter = &n
		} else {
			f.QuarterInvalid = true
		}
	}

	switch Metric(strings.TrimSpace(raw["metric"])) {
	case MetricTotalAmount:
		f.Metric = MetricTotalAmount
	case MetricAverageAmount:
		f.Metric = MetricAverageAmount
	case MetricAll:
		f.Metric = MetricAll
	}

	return f
}

// parseYear treats absent, empty and non-numeric values as unbounded.
func parseYear(s string) *int {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}
