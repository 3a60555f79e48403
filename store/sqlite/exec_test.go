package sqlite_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bankdwh/olap-server/olap"
	"github.com/bankdwh/olap-server/store/sqlite"
)

// seededStore opens an in-memory warehouse loaded with the sample
// dataset. The sample totals are small enough to check by hand:
// 10 transactions, 12450 in total, 6000 in 1995 and 6450 in 1996.
func seededStore(t *testing.T) *sqlite.Store {
	t.Helper()

	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	require.NoError(t, store.Seed(context.Background(), sqlite.SampleFixture()))
	return store
}

func runReport(t *testing.T, store *sqlite.Store, kind olap.ReportKind, raw map[string]string) *olap.Result {
	t.Helper()

	res, err := olap.NewEngine(store).Report(context.Background(), kind, raw)
	require.NoError(t, err)
	return res
}

func cellDec(t *testing.T, v olap.Value) decimal.Decimal {
	t.Helper()

	d, ok := v.(decimal.Decimal)
	require.True(t, ok, "expected decimal cell, got %T (%v)", v, v)
	return d
}

func cellInt(t *testing.T, v olap.Value) int64 {
	t.Helper()

	n, ok := v.(int64)
	require.True(t, ok, "expected integer cell, got %T (%v)", v, v)
	return n
}

// =============================================================================
// ROLL-UP
// =============================================================================

func TestRollup_HierarchicalConsistency(t *testing.T) {
	store := seededStore(t)

	res := runReport(t, store, olap.ReportRollup, nil)

	require.Equal(t, []string{"year", "quarter", "month", "total_amount", "transaction_count"}, res.Columns)
	// 9 monthly + 8 quarterly + 2 yearly + 1 grand total
	require.Len(t, res.Rows, 20)

	grand := decimal.NewFromInt(12450)
	var sawGrand bool
	yearSum, quarterSum, monthSum := decimal.Zero, decimal.Zero, decimal.Zero
	yearCount, quarterCount, monthCount := int64(0), int64(0), int64(0)

	for _, row := range res.Rows {
		year, quarter, month := row[0], row[1], row[2]
		total := cellDec(t, row[3])
		count := cellInt(t, row[4])

		switch {
		case year != nil && quarter != nil && month != nil:
			monthSum = monthSum.Add(total)
			monthCount += count
		case year != nil && quarter != nil:
			quarterSum = quarterSum.Add(total)
			quarterCount += count
		case year != nil:
			yearSum = yearSum.Add(total)
			yearCount += count
		case quarter == nil && month == nil:
			require.False(t, sawGrand, "more than one grand total row")
			sawGrand = true
			assert.True(t, total.Equal(grand), "grand total: got %s", total)
			assert.Equal(t, int64(10), count)
		default:
			t.Fatalf("illegal subtotal pattern: %v", row[:3])
		}
	}

	require.True(t, sawGrand, "grand total row missing")
	// Every subtotal level must account for the same population.
	assert.True(t, monthSum.Equal(grand), "monthly totals: got %s", monthSum)
	assert.True(t, quarterSum.Equal(grand), "quarterly totals: got %s", quarterSum)
	assert.True(t, yearSum.Equal(grand), "yearly totals: got %s", yearSum)
	assert.Equal(t, int64(10), monthCount)
	assert.Equal(t, int64(10), quarterCount)
	assert.Equal(t, int64(10), yearCount)
}

func TestRollup_SubtotalsFollowTheirDetailRows(t *testing.T) {
	store := seededStore(t)

	res := runReport(t, store, olap.ReportRollup, nil)
	require.Len(t, res.Rows, 20)

	// 1995 Q1 has months 1 and 2, then the quarterly subtotal.
	assert.Equal(t, []olap.Value{int64(1995), int64(1), int64(1)}, res.Rows[0][:3])
	assert.Equal(t, []olap.Value{int64(1995), int64(1), int64(2)}, res.Rows[1][:3])
	assert.Equal(t, []olap.Value{int64(1995), int64(1), nil}, res.Rows[2][:3])

	// The yearly 1995 subtotal closes the year before any 1996 row.
	assert.Equal(t, []olap.Value{int64(1995), nil, nil}, res.Rows[9][:3])
	assert.Equal(t, int64(1996), res.Rows[10][0])

	// The grand total is last.
	last := res.Rows[len(res.Rows)-1]
	assert.Equal(t, []olap.Value{nil, nil, nil}, last[:3])
}

func TestRollup_YearFilterNarrowsEveryLevel(t *testing.T) {
	store := seededStore(t)

	res := runReport(t, store, olap.ReportRollup, map[string]string{
		"fromYear": "1995", "toYear": "1995",
	})

	// 5 monthly + 4 quarterly + 1 yearly + 1 grand total
	require.Len(t, res.Rows, 11)

	last := res.Rows[len(res.Rows)-1]
	assert.Nil(t, last[0])
	assert.True(t, cellDec(t, last[3]).Equal(decimal.NewFromInt(6000)),
		"1995 grand total: got %s", last[3])
	assert.Equal(t, int64(5), cellInt(t, last[4]))
}

func TestRollup_EmptyInputYieldsNoGrandTotal(t *testing.T) {
	store := seededStore(t)

	res := runReport(t, store, olap.ReportRollup, map[string]string{"fromYear": "2005"})

	assert.Empty(t, res.Rows)
	assert.Equal(t, []string{"year", "quarter", "month", "total_amount", "transaction_count"}, res.Columns)
}

// =============================================================================
// DRILL-DOWN
// =============================================================================

func TestDrilldown_AccountYearGrain(t *testing.T) {
	store := seededStore(t)

	res := runReport(t, store, olap.ReportDrilldown, nil)

	require.Equal(t, []string{"region", "district_name", "account_id", "year", "total_amount"}, res.Columns)
	// 4 accounts, 7 distinct account/year combinations in the sample.
	require.Len(t, res.Rows, 7)

	first := res.Rows[0]
	assert.Equal(t, "Prague", first[0])
	assert.Equal(t, "HL.M. PRAHA", first[1])
	assert.Equal(t, int64(1001), cellInt(t, first[2]))
	assert.Equal(t, int64(1995), cellInt(t, first[3]))
	assert.True(t, cellDec(t, first[4]).Equal(decimal.NewFromInt(1400)),
		"account 1001 in 1995: got %s", first[4])

	// Region ordering puts every Prague row before South Moravia.
	var lastPrague, firstMoravia = -1, len(res.Rows)
	for i, row := range res.Rows {
		switch row[0] {
		case "Prague":
			lastPrague = i
		case "South Moravia":
			if i < firstMoravia {
				firstMoravia = i
			}
		default:
			t.Fatalf("unexpected region %v", row[0])
		}
	}
	assert.Less(t, lastPrague, firstMoravia)
}

func TestDrilldown_DistrictFilter(t *testing.T) {
	store := seededStore(t)

	res := runReport(t, store, olap.ReportDrilldown, map[string]string{"district": "HODONIN"})

	// Account 3001 is the only HODONIN account and only active in 1996.
	require.Len(t, res.Rows, 1)
	assert.Equal(t, int64(3001), cellInt(t, res.Rows[0][2]))
	assert.True(t, cellDec(t, res.Rows[0][4]).Equal(decimal.NewFromInt(3750)))
}

// =============================================================================
// SLICE
// =============================================================================

func TestSlice_TopSymbolsByCount(t *testing.T) {
	store := seededStore(t)

	res := runReport(t, store, olap.ReportSlice, nil)

	require.Equal(t, []string{"k_symbol", "transaction_count"}, res.Columns)
	// SIPO, DUCHOD, UVER, POJISTNE; the two NULL-symbol rows are excluded.
	require.Len(t, res.Rows, 4)

	assert.Equal(t, "SIPO", res.Rows[0][0])
	assert.Equal(t, int64(4), cellInt(t, res.Rows[0][1]))

	prev := int64(1<<62 - 1)
	for _, row := range res.Rows {
		sym, ok := row[0].(string)
		require.True(t, ok, "symbol cell must be a string, got %T", row[0])
		assert.NotEmpty(t, sym)

		n := cellInt(t, row[1])
		assert.LessOrEqual(t, n, prev, "rows must be ordered by count, descending")
		prev = n
	}
}

func TestSlice_MetricAll(t *testing.T) {
	store := seededStore(t)

	res := runReport(t, store, olap.ReportSlice, map[string]string{"metric": "all"})

	require.Equal(t, []string{"k_symbol", "transaction_count", "total_amount", "average_amount"}, res.Columns)
	require.Equal(t, "SIPO", res.Rows[0][0])
	assert.True(t, cellDec(t, res.Rows[0][2]).Equal(decimal.NewFromInt(3950)),
		"SIPO total: got %s", res.Rows[0][2])
}

func TestSlice_RowLimit(t *testing.T) {
	store := seededStore(t)

	res := runReport(t, store, olap.ReportSlice, nil)
	assert.LessOrEqual(t, len(res.Rows), 10)
}

// =============================================================================
// DICE
// =============================================================================

func TestDice_TransTypeFilter(t *testing.T) {
	store := seededStore(t)

	res := runReport(t, store, olap.ReportDice, map[string]string{"transType": "CREDIT"})

	require.Equal(t, []string{"region", "year", "trans_type", "transaction_count", "total_amount", "average_amount"}, res.Columns)
	require.Len(t, res.Rows, 4)
	for _, row := range res.Rows {
		assert.Equal(t, "CREDIT", row[2])
	}

	// Prague 1995: transactions of 1000 and 2500.
	first := res.Rows[0]
	assert.Equal(t, "Prague", first[0])
	assert.Equal(t, int64(1995), cellInt(t, first[1]))
	assert.Equal(t, int64(2), cellInt(t, first[3]))
	assert.True(t, cellDec(t, first[4]).Equal(decimal.NewFromInt(3500)))
	assert.True(t, cellDec(t, first[5]).Equal(decimal.NewFromInt(1750)))
}

func TestDice_RegionYearCube(t *testing.T) {
	store := seededStore(t)

	res := runReport(t, store, olap.ReportDice, map[string]string{
		"fromYear": "1996", "toYear": "1996", "transType": "VYBER",
	})

	// Cash withdrawals in 1996 happen only in South Moravia: 750 and 300.
	require.Len(t, res.Rows, 1)
	row := res.Rows[0]
	assert.Equal(t, "South Moravia", row[0])
	assert.Equal(t, int64(1996), cellInt(t, row[1]))
	assert.Equal(t, "VYBER", row[2])
	assert.Equal(t, int64(2), cellInt(t, row[3]))
	assert.True(t, cellDec(t, row[4]).Equal(decimal.NewFromInt(1050)))
	assert.True(t, cellDec(t, row[5]).Equal(decimal.NewFromInt(525)))
}

// =============================================================================
// PIVOT
// =============================================================================

func TestPivot_InflowOutflowSplit(t *testing.T) {
	store := seededStore(t)

	res := runReport(t, store, olap.ReportPivot, nil)

	require.Equal(t, []string{"region", "year", "month", "inflow", "outflow"}, res.Columns)

	inflow, outflow := decimal.Zero, decimal.Zero
	for _, row := range res.Rows {
		in, out := cellDec(t, row[3]), cellDec(t, row[4])
		assert.False(t, in.IsNegative())
		assert.False(t, out.IsNegative())
		inflow = inflow.Add(in)
		outflow = outflow.Add(out)
	}

	// Inflow is exactly the CREDIT volume, outflow everything else.
	assert.True(t, inflow.Equal(decimal.NewFromInt(9200)), "inflow: got %s", inflow)
	assert.True(t, outflow.Equal(decimal.NewFromInt(3250)), "outflow: got %s", outflow)
}

func TestPivot_OneSidedMonths(t *testing.T) {
	store := seededStore(t)

	res := runReport(t, store, olap.ReportPivot, map[string]string{
		"region": "Prague", "fromYear": "1995", "toYear": "1995",
	})

	// Prague 1995: CREDIT in months 1 and 5, VYBER in month 2.
	require.Len(t, res.Rows, 3)

	jan := res.Rows[0]
	assert.Equal(t, int64(1), cellInt(t, jan[2]))
	assert.True(t, cellDec(t, jan[3]).Equal(decimal.NewFromInt(1000)))
	assert.True(t, cellDec(t, jan[4]).IsZero(), "no outflow in January, got %s", jan[4])

	feb := res.Rows[1]
	assert.Equal(t, int64(2), cellInt(t, feb[2]))
	assert.True(t, cellDec(t, feb[3]).IsZero(), "no inflow in February, got %s", feb[3])
	assert.True(t, cellDec(t, feb[4]).Equal(decimal.NewFromInt(400)))
}

// =============================================================================
// FAIL-SOFT FILTERS
// =============================================================================

func TestReports_FailSoftFilters(t *testing.T) {
	store := seededStore(t)

	cases := []struct {
		name string
		raw  map[string]string
	}{
		{"year beyond data", map[string]string{"fromYear": "2005"}},
		{"inverted year range", map[string]string{"fromYear": "1996", "toYear": "1995"}},
		{"invalid quarter", map[string]string{"quarter": "7"}},
		{"unknown region", map[string]string{"region": "Atlantis"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := runReport(t, store, olap.ReportDice, tc.raw)
			assert.Empty(t, res.Rows)
			assert.NotEmpty(t, res.Columns, "empty results keep their header")
		})
	}
}

func TestReports_QuarterFilter(t *testing.T) {
	store := seededStore(t)

	// Q4 transactions: 900 (1995-11), 1800 and 300 (1996-10).
	res := runReport(t, store, olap.ReportDice, map[string]string{"quarter": "4"})

	var count int64
	for _, row := range res.Rows {
		count += cellInt(t, row[3])
	}
	assert.Equal(t, int64(3), count)
}
