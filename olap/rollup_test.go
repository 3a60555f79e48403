package olap_test

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/bankdwh/olap-server/olap"
)

// rollupRow builds a (year, quarter, month, total, count) row; nil means
// the level is aggregated away.
func rollupRow(year, quarter, month olap.Value, total float64, count int64) []olap.Value {
	return []olap.Value{year, quarter, month, decimal.NewFromFloat(total), count}
}

func TestFilterSubtotals_KeepsTheFourPatterns(t *testing.T) {
	rows := [][]olap.Value{
		rollupRow(int64(1995), int64(1), int64(1), 100, 2), // monthly detail
		rollupRow(int64(1995), int64(1), nil, 100, 2),      // quarterly subtotal
		rollupRow(int64(1995), nil, nil, 100, 2),           // yearly subtotal
		rollupRow(nil, nil, nil, 100, 2),                   // grand total
	}

	got := olap.FilterSubtotals(rows, 0, 1, 2)
	if len(got) != 4 {
		t.Fatalf("expected all four patterns kept, got %d rows", len(got))
	}
}

func TestFilterSubtotals_DiscardsArtifacts(t *testing.T) {
	// GIVEN: partially-specified combinations a naive multi-level
	// grouping can emit
	// THEN: none of them survive

	rows := [][]olap.Value{
		rollupRow(int64(1995), nil, int64(3), 50, 1),    // quarter absent, month present
		rollupRow(nil, int64(2), nil, 50, 1),            // year absent, quarter present
		rollupRow(nil, int64(2), int64(6), 50, 1),       // year absent, both present
		rollupRow(nil, nil, int64(6), 50, 1),            // only month present
		rollupRow(int64(1995), int64(2), int64(6), 50, 1), // valid detail row
	}

	got := olap.FilterSubtotals(rows, 0, 1, 2)
	if len(got) != 1 {
		t.Fatalf("expected only the detail row, got %d rows", len(got))
	}
	if got[0][2] != int64(6) {
		t.Errorf("wrong surviving row: %v", got[0])
	}
}

func TestFilterSubtotals_SingleGrandTotal(t *testing.T) {
	rows := [][]olap.Value{
		rollupRow(nil, nil, nil, 100, 2),
		rollupRow(nil, nil, nil, 100, 2),
	}

	got := olap.FilterSubtotals(rows, 0, 1, 2)
	if len(got) != 1 {
		t.Fatalf("expected at most one grand-total row, got %d", len(got))
	}
}

func TestFilterSubtotals_PreservesOrder(t *testing.T) {
	rows := [][]olap.Value{
		rollupRow(int64(1995), int64(1), int64(1), 10, 1),
		rollupRow(int64(1995), int64(1), int64(2), 20, 1),
		rollupRow(int64(1995), int64(1), nil, 30, 2),
		rollupRow(int64(1995), nil, nil, 30, 2),
	}

	got := olap.FilterSubtotals(rows, 0, 1, 2)
	if len(got) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(got))
	}
	for i := range rows {
		if got[i][4] != rows[i][4] {
			t.Errorf("row %d out of order: %v", i, got[i])
		}
	}
}

func TestClassifyRollupRow_Levels(t *testing.T) {
	cases := []struct {
		row   []olap.Value
		level olap.SubtotalLevel
	}{
		{rollupRow(int64(1995), int64(1), int64(1), 0, 0), olap.LevelMonthly},
		{rollupRow(int64(1995), int64(1), nil, 0, 0), olap.LevelQuarterly},
		{rollupRow(int64(1995), nil, nil, 0, 0), olap.LevelYearly},
		{rollupRow(nil, nil, nil, 0, 0), olap.LevelGrandTotal},
	}

	for _, tc := range cases {
		level, ok := olap.ClassifyRollupRow(tc.row, 0, 1, 2)
		if !ok || level != tc.level {
			t.Errorf("row %v: expected level %d, got %d (ok=%v)", tc.row, tc.level, level, ok)
		}
	}
}
