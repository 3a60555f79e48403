/*
plan.go - Aggregation planning

PURPOSE:
  Maps a report kind plus a normalized FilterSet onto a GroupingSpec:
  the declarative description of how to group and aggregate fact_trans
  (which dimensions to group by, which measures to compute, predicates,
  ordering, row limit, and whether the grouping rolls up a hierarchy).

DESIGN:
  The five reports form a closed set. Each kind has a fixed shape; only
  the predicates vary with the FilterSet. Keeping the shapes here, as
  data, means the executor stays a dumb spec compiler and illegal
  grouping combinations cannot be expressed from the outside.

REPORT SHAPES:
  rollup:    year/quarter/month hierarchy, SUM + COUNT, hierarchical
  drilldown: region/district/account/year, SUM
  slice:     k_symbol, top 10 by transaction count
  dice:      region/year/trans_type, COUNT + SUM + AVG
  pivot:     region/year/month, conditional inflow/outflow sums

SEE ALSO:
  - catalog.go: field validation the executor applies to this spec
  - rollup.go:  post-filter for the hierarchical roll-up output
*/
package olap

import "fmt"

// Transaction type codes as loaded into the warehouse. CREDIT funds an
// account; VYBER (cash withdrawal) and DEBIT (WITHDRAWAL) drain it.
const (
	TransCredit         = "CREDIT"
	TransCashWithdrawal = "VYBER"
	TransWithdrawal     = "DEBIT (WITHDRAWAL)"
)

// =============================================================================
// REPORT KINDS
// =============================================================================

// ReportKind identifies one of the five canned OLAP reports.
type ReportKind string

const (
	ReportRollup    ReportKind = "rollup"
	ReportDrilldown ReportKind = "drilldown"
	ReportSlice     ReportKind = "slice"
	ReportDice      ReportKind = "dice"
	ReportPivot     ReportKind = "pivot"
)

// ParseReportKind validates a caller-supplied report identifier.
func ParseReportKind(s string) (ReportKind, error) {
	switch k := ReportKind(s); k {
	case ReportRollup, ReportDrilldown, ReportSlice, ReportDice, ReportPivot:
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownReportKind, s)
}

// =============================================================================
// GROUPING SPEC
// =============================================================================

// AggregateFn is a SQL aggregate the executor knows how to compile.
type AggregateFn string

const (
	AggCount AggregateFn = "count" // COUNT(*), counts rows
	AggSum   AggregateFn = "sum"   // ignores NULLs in the summed field
	AggAvg   AggregateFn = "avg"
)

// Condition restricts a conditional sum to rows whose field equals one
// of the listed values. Non-matching rows contribute zero rather than
// being excluded, so the group row survives even when no row matches.
type Condition struct {
	Field string
	In    []string
}

// Measure is one aggregate column of the result.
type Measure struct {
	Fn    AggregateFn
	Field string // aggregated field; empty for COUNT(*)
	Alias string
	Only  *Condition // non-nil turns a sum into a conditional sum
}

// Op is a predicate operator.
type Op string

const (
	OpEq       Op = "eq"
	OpGTE      Op = "gte"
	OpLTE      Op = "lte"
	OpNotNull  Op = "not_null"
	OpNotBlank Op = "not_blank" // non-empty after trimming
	OpNever    Op = "never"     // matches no row (fail-soft filters)
)

// Predicate is one row filter. Value is unused for the unary operators.
type Predicate struct {
	Field string
	Op    Op
	Value any
}

// OrderTerm orders the result by a group-by field or a measure alias.
type OrderTerm struct {
	Field     string
	Desc      bool
	NullsLast bool // roll-up subtotals sort after their detail rows
}

// GroupingSpec is the planner's full description of one aggregation.
type GroupingSpec struct {
	GroupBy    []string
	Measures   []Measure
	Predicates []Predicate
	OrderBy    []OrderTerm
	RowLimit   int // 0 = unlimited

	// Rollup requests hierarchical aggregation: in addition to the full
	// GroupBy combination, every ordered prefix of GroupBy is aggregated
	// as well, with NULL standing in for the trailing levels.
	Rollup bool
}

// Columns returns the result column order: group-by fields first, then
// measure aliases. This is also the fixed column order of the report.
func (s GroupingSpec) Columns() []string {
	cols := make([]string, 0, len(s.GroupBy)+len(s.Measures))
	cols = append(cols, s.GroupBy...)
	for _, m := range s.Measures {
		cols = append(cols, m.Alias)
	}
	return cols
}

// GroupIndex returns the position of a group-by field in the result
// columns, or -1 when the field is not grouped on.
func (s GroupingSpec) GroupIndex(field string) int {
	for i, g := range s.GroupBy {
		if g == field {
			return i
		}
	}
	return -1
}

// =============================================================================
// PLANNER
// =============================================================================

// Plan builds the GroupingSpec for a report kind under the given
// filters. Every filter present in the FilterSet becomes a predicate;
// absent filters contribute nothing.
func Plan(kind ReportKind, f FilterSet) (GroupingSpec, error) {
	preds := filterPredicates(f)

	switch kind {
	case ReportRollup:
		return GroupingSpec{
			GroupBy: []string{"year", "quarter", "month"},
			Measures: []Measure{
				{Fn: AggSum, Field: "amount", Alias: "total_amount"},
				{Fn: AggCount, Alias: "transaction_count"},
			},
			Predicates: preds,
			OrderBy: []OrderTerm{
				{Field: "year", NullsLast: true},
				{Field: "quarter", NullsLast: true},
				{Field: "month", NullsLast: true},
			},
			Rollup: true,
		}, nil

	case ReportDrilldown:
		return GroupingSpec{
			GroupBy: []string{"region", "district_name", "account_id", "year"},
			Measures: []Measure{
				{Fn: AggSum, Field: "amount", Alias: "total_amount"},
			},
			Predicates: preds,
			OrderBy: []OrderTerm{
				{Field: "region"}, {Field: "district_name"},
				{Field: "account_id"}, {Field: "year"},
			},
		}, nil

	case ReportSlice:
		// Purpose codes only make sense when present: NULL and blank
		// symbols are excluded up front, not surfaced as a group.
		preds = append(preds,
			Predicate{Field: "k_symbol", Op: OpNotNull},
			Predicate{Field: "k_symbol", Op: OpNotBlank},
		)
		return GroupingSpec{
			GroupBy:    []string{"k_symbol"},
			Measures:   sliceMeasures(f.Metric),
			Predicates: preds,
			OrderBy:    []OrderTerm{{Field: "transaction_count", Desc: true}},
			RowLimit:   10,
		}, nil

	case ReportDice:
		preds = append(preds, Predicate{Field: "trans_type", Op: OpNotNull})
		return GroupingSpec{
			GroupBy: []string{"region", "year", "trans_type"},
			Measures: []Measure{
				{Fn: AggCount, Alias: "transaction_count"},
				{Fn: AggSum, Field: "amount", Alias: "total_amount"},
				{Fn: AggAvg, Field: "amount", Alias: "average_amount"},
			},
			Predicates: preds,
			OrderBy: []OrderTerm{
				{Field: "region"}, {Field: "year"}, {Field: "trans_type"},
			},
		}, nil

	case ReportPivot:
		return GroupingSpec{
			GroupBy: []string{"region", "year", "month"},
			Measures: []Measure{
				{Fn: AggSum, Field: "amount", Alias: "inflow",
					Only: &Condition{Field: "trans_type", In: []string{TransCredit}}},
				{Fn: AggSum, Field: "amount", Alias: "outflow",
					Only: &Condition{Field: "trans_type", In: []string{TransCashWithdrawal, TransWithdrawal}}},
			},
			Predicates: preds,
			OrderBy: []OrderTerm{
				{Field: "region"}, {Field: "year"}, {Field: "month"},
			},
		}, nil
	}

	return GroupingSpec{}, fmt.Errorf("%w: %q", ErrUnknownReportKind, kind)
}

// filterPredicates translates the FilterSet into predicates. Order is
// stable so identical requests compile to identical SQL.
func filterPredicates(f FilterSet) []Predicate {
	var preds []Predicate

	if f.FromYear != nil {
		preds = append(preds, Predicate{Field: "year", Op: OpGTE, Value: *f.FromYear})
	}
	if f.ToYear != nil {
		preds = append(preds, Predicate{Field: "year", Op: OpLTE, Value: *f.ToYear})
	}
	if f.Region != "" {
		preds = append(preds, Predicate{Field: "region", Op: OpEq, Value: f.Region})
	}
	if f.District != "" {
		preds = append(preds, Predicate{Field: "district_name", Op: OpEq, Value: f.District})
	}
	if f.TransType != "" {
		preds = append(preds, Predicate{Field: "trans_type", Op: OpEq, Value: f.TransType})
	}
	if f.Quarter != nil {
		preds = append(preds, Predicate{Field: "quarter", Op: OpEq, Value: *f.Quarter})
	}
	if f.QuarterInvalid {
		// Fail-soft: an unusable quarter empties the result instead of
		// failing the request.
		preds = append(preds, Predicate{Field: "quarter", Op: OpNever})
	}

	return preds
}

// sliceMeasures always includes the transaction count (it drives the
// top-10 ordering) and adds amount measures per the metric selector.
func sliceMeasures(m Metric) []Measure {
	measures := []Measure{{Fn: AggCount, Alias: "transaction_count"}}
	if m == MetricTotalAmount || m == MetricAll {
		measures = append(measures, Measure{Fn: AggSum, Field: "amount", Alias: "total_amount"})
	}
	if m == MetricAverageAmount || m == MetricAll {
		measures = append(measures, Measure{Fn: AggAvg, Field: "amount", Alias: "average_amount"})
	}
	return measures
}
