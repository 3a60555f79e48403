package olap_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/bankdwh/olap-server/olap"
)

func planned(t *testing.T, kind olap.ReportKind, raw map[string]string) olap.GroupingSpec {
	t.Helper()
	spec, err := olap.Plan(kind, olap.NormalizeFilters(raw))
	if err != nil {
		t.Fatalf("unexpected planning error: %v", err)
	}
	return spec
}

func TestParseReportKind(t *testing.T) {
	for _, s := range []string{"rollup", "drilldown", "slice", "dice", "pivot"} {
		if _, err := olap.ParseReportKind(s); err != nil {
			t.Errorf("expected %q to parse, got %v", s, err)
		}
	}

	_, err := olap.ParseReportKind("cube")
	if !errors.Is(err, olap.ErrUnknownReportKind) {
		t.Errorf("expected ErrUnknownReportKind, got %v", err)
	}
}

func TestPlan_Rollup(t *testing.T) {
	spec := planned(t, olap.ReportRollup, nil)

	if !spec.Rollup {
		t.Error("expected hierarchical roll-up")
	}
	if !reflect.DeepEqual(spec.GroupBy, []string{"year", "quarter", "month"}) {
		t.Errorf("unexpected group-by: %v", spec.GroupBy)
	}
	want := []string{"year", "quarter", "month", "total_amount", "transaction_count"}
	if !reflect.DeepEqual(spec.Columns(), want) {
		t.Errorf("unexpected columns: %v", spec.Columns())
	}
	// Subtotal rows must sort after the detail rows they summarize.
	for _, o := range spec.OrderBy {
		if !o.NullsLast {
			t.Errorf("expected NULLS LAST ordering on %s", o.Field)
		}
	}
}

func TestPlan_Drilldown(t *testing.T) {
	spec := planned(t, olap.ReportDrilldown, nil)

	want := []string{"region", "district_name", "account_id", "year"}
	if !reflect.DeepEqual(spec.GroupBy, want) {
		t.Errorf("unexpected group-by: %v", spec.GroupBy)
	}
	if spec.Rollup {
		t.Error("drilldown is a plain group-by")
	}
	if len(spec.Measures) != 1 || spec.Measures[0].Alias != "total_amount" {
		t.Errorf("unexpected measures: %+v", spec.Measures)
	}
	if len(spec.OrderBy) != len(want) {
		t.Errorf("expected ordering by all group-by columns, got %v", spec.OrderBy)
	}
}

func TestPlan_Slice_DefaultMetric(t *testing.T) {
	spec := planned(t, olap.ReportSlice, nil)

	if !reflect.DeepEqual(spec.GroupBy, []string{"k_symbol"}) {
		t.Errorf("unexpected group-by: %v", spec.GroupBy)
	}
	if spec.RowLimit != 10 {
		t.Errorf("expected top-10 limit, got %d", spec.RowLimit)
	}
	if len(spec.OrderBy) != 1 || spec.OrderBy[0].Field != "transaction_count" || !spec.OrderBy[0].Desc {
		t.Errorf("expected transaction_count DESC ordering, got %v", spec.OrderBy)
	}
	if !reflect.DeepEqual(spec.Columns(), []string{"k_symbol", "transaction_count"}) {
		t.Errorf("unexpected columns: %v", spec.Columns())
	}

	// Purpose-code hygiene predicates are always present.
	var notNull, notBlank bool
	for _, p := range spec.Predicates {
		if p.Field == "k_symbol" && p.Op == olap.OpNotNull {
			notNull = true
		}
		if p.Field == "k_symbol" && p.Op == olap.OpNotBlank {
			notBlank = true
		}
	}
	if !notNull || !notBlank {
		t.Errorf("expected k_symbol non-null and non-blank predicates, got %+v", spec.Predicates)
	}
}

func TestPlan_Slice_MetricAll(t *testing.T) {
	spec := planned(t, olap.ReportSlice, map[string]string{"metric": "all"})

	want := []string{"k_symbol", "transaction_count", "total_amount", "average_amount"}
	if !reflect.DeepEqual(spec.Columns(), want) {
		t.Errorf("unexpected columns: %v", spec.Columns())
	}
}

func TestPlan_Dice(t *testing.T) {
	spec := planned(t, olap.ReportDice, map[string]string{"transType": "CREDIT"})

	if !reflect.DeepEqual(spec.GroupBy, []string{"region", "year", "trans_type"}) {
		t.Errorf("unexpected group-by: %v", spec.GroupBy)
	}

	var eqCredit, notNull bool
	for _, p := range spec.Predicates {
		if p.Field == "trans_type" && p.Op == olap.OpEq && p.Value == "CREDIT" {
			eqCredit = true
		}
		if p.Field == "trans_type" && p.Op == olap.OpNotNull {
			notNull = true
		}
	}
	if !eqCredit {
		t.Errorf("expected trans_type = CREDIT predicate, got %+v", spec.Predicates)
	}
	if !notNull {
		t.Errorf("expected trans_type non-null predicate, got %+v", spec.Predicates)
	}
}

func TestPlan_Pivot_ConditionalSums(t *testing.T) {
	spec := planned(t, olap.ReportPivot, nil)

	if len(spec.Measures) != 2 {
		t.Fatalf("expected inflow and outflow, got %+v", spec.Measures)
	}

	inflow, outflow := spec.Measures[0], spec.Measures[1]
	if inflow.Alias != "inflow" || inflow.Only == nil ||
		!reflect.DeepEqual(inflow.Only.In, []string{olap.TransCredit}) {
		t.Errorf("unexpected inflow measure: %+v", inflow)
	}
	if outflow.Alias != "outflow" || outflow.Only == nil ||
		!reflect.DeepEqual(outflow.Only.In, []string{olap.TransCashWithdrawal, olap.TransWithdrawal}) {
		t.Errorf("unexpected outflow measure: %+v", outflow)
	}
}

func TestPlan_FilterPredicates(t *testing.T) {
	spec := planned(t, olap.ReportRollup, map[string]string{
		"fromYear": "1995",
		"toYear":   "1996",
		"region":   "Prague",
		"district": "HL.M. PRAHA",
		"quarter":  "2",
	})

	ops := map[olap.Op]int{}
	for _, p := range spec.Predicates {
		ops[p.Op]++
	}
	if ops[olap.OpGTE] != 1 || ops[olap.OpLTE] != 1 || ops[olap.OpEq] != 3 {
		t.Errorf("unexpected predicate mix: %+v", spec.Predicates)
	}
}

func TestPlan_InvalidQuarterNeverMatches(t *testing.T) {
	// GIVEN: an out-of-range quarter
	// THEN: planning emits a never-matching predicate instead of failing

	spec := planned(t, olap.ReportDice, map[string]string{"quarter": "7"})

	var never bool
	for _, p := range spec.Predicates {
		if p.Op == olap.OpNever {
			never = true
		}
	}
	if !never {
		t.Errorf("expected never-matching predicate, got %+v", spec.Predicates)
	}
}

func TestGroupIndex(t *testing.T) {
	spec := planned(t, olap.ReportRollup, nil)

	if spec.GroupIndex("year") != 0 || spec.GroupIndex("quarter") != 1 || spec.GroupIndex("month") != 2 {
		t.Errorf("unexpected hierarchy positions")
	}
	if spec.GroupIndex("region") != -1 {
		t.Errorf("expected -1 for ungrouped field")
	}
}
