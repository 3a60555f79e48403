/*
Package olap is the multidimensional aggregation engine over the bank
data warehouse.

PURPOSE:
  Turns a report request (report kind + raw filter map) into a canonical
  tabular result. The engine is stateless per request: every call builds
  its own FilterSet and GroupingSpec, executes it against the read-only
  warehouse, and returns an ordered {columns, rows} table.

KEY CONCEPTS IN THIS FILE (catalog.go):
  - The star schema is fixed and known at design time. This file is the
    single source of truth for table names, browse column order, logical
    fields and the dimension joins each field requires.
  - Field resolution doubles as validation: a GroupingSpec referencing a
    field outside the catalog is an internal configuration error, never
    a string that reaches SQL.

PIPELINE:
  NormalizeFilters -> Plan -> Executor.ExecuteSpec -> (rollup only)
  FilterSubtotals -> ProjectTable

SEE ALSO:
  - filter.go: FilterSet normalization
  - plan.go:   report kinds and GroupingSpec construction
  - engine.go: orchestration and timing
  - store/sqlite: GroupingSpec execution against SQLite
*/
package olap

import "fmt"

// =============================================================================
// DIMENSION JOINS
// =============================================================================

// Join identifies a dimension table the fact table must be joined to
// before a field becomes addressable.
type Join string

const (
	JoinDate     Join = "dim_date"
	JoinAccount  Join = "dim_account"
	JoinDistrict Join = "dim_district"
)

// =============================================================================
// LOGICAL FIELDS
// =============================================================================

// Field describes a logical field of the reporting model: where it lives
// in SQL and which dimension join makes it reachable from fact_trans.
type Field struct {
	Name string
	SQL  string // qualified column reference in the compiled query
	Join Join   // zero value: the field lives on the fact table itself
}

// fields is the closed set of logical fields reports may reference.
// Aliases used by fact_trans queries: t = fact_trans, d = dim_date,
// a = dim_account, dist = dim_district.
var fields = map[string]Field{
	"year":          {Name: "year", SQL: "d.year", Join: JoinDate},
	"quarter":       {Name: "quarter", SQL: "d.quarter", Join: JoinDate},
	"month":         {Name: "month", SQL: "d.month", Join: JoinDate},
	"region":        {Name: "region", SQL: "dist.region", Join: JoinDistrict},
	"district_name": {Name: "district_name", SQL: "dist.district_name", Join: JoinDistrict},
	"account_id":    {Name: "account_id", SQL: "a.account_id", Join: JoinAccount},
	"trans_type":    {Name: "trans_type", SQL: "t.trans_type"},
	"operation":     {Name: "operation", SQL: "t.operation"},
	"k_symbol":      {Name: "k_symbol", SQL: "t.k_symbol"},
	"amount":        {Name: "amount", SQL: "t.amount"},
	"balance":       {Name: "balance", SQL: "t.balance"},
}

// ResolveField returns the catalog entry for a logical field.
// An unknown name is an internal configuration error: the catalog is
// fixed, so this should never fire outside of programmer mistakes.
func ResolveField(name string) (Field, error) {
	f, ok := fields[name]
	if !ok {
		return Field{}, fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	return f, nil
}

// RequiredJoins returns the dimension joins needed to address every
// listed field, in a stable order. JoinDistrict is only reachable
// through dim_account, so it implies JoinAccount.
func RequiredJoins(names ...string) ([]Join, error) {
	need := map[Join]bool{}
	for _, name := range names {
		f, err := ResolveField(name)
		if err != nil {
			return nil, err
		}
		if f.Join == "" {
			continue
		}
		need[f.Join] = true
		if f.Join == JoinDistrict {
			need[JoinAccount] = true
		}
	}

	var joins []Join
	for _, j := range []Join{JoinDate, JoinAccount, JoinDistrict} {
		if need[j] {
			joins = append(joins, j)
		}
	}
	return joins, nil
}

// =============================================================================
// BROWSABLE TABLES
// =============================================================================

// browseColumns lists, per warehouse table, the columns raw table
// browsing projects and the order it projects them in.
var browseColumns = map[string][]string{
	"dim_date":     {"date_key", "full_date", "year", "quarter", "month", "day", "day_of_week"},
	"dim_district": {"district_key", "district_id", "district_name", "region", "inhabitants", "nocities", "ratio_urbaninhabitants", "average_salary", "unemployment", "noentrepreneur", "nocrimes"},
	"dim_client":   {"client_key", "client_id", "district_key"},
	"dim_account":  {"account_key", "account_id", "district_key", "frequency", "account_open_date"},
	"dim_loan":     {"loan_key", "loan_id", "account_id", "amount", "duration", "payments", "status", "start_date"},
	"dim_card":     {"card_key", "card_id", "type", "issued_date"},
	"fact_orders":  {"order_key", "order_id", "account_key", "bank_to", "account_to", "amount", "k_symbol"},
	"fact_trans":   {"trans_key", "trans_id", "account_key", "trans_date_key", "trans_type", "operation", "amount", "balance", "k_symbol", "bank", "account_no"},
}

// BrowseColumns returns the projected column list for a warehouse table.
// Unknown identifiers are rejected here, before any data access.
func BrowseColumns(table string) ([]string, error) {
	cols, ok := browseColumns[table]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTable, table)
	}
	return cols, nil
}

// BrowseTables returns the closed set of browsable table identifiers,
// in a stable display order.
func BrowseTables() []string {
	return []string{
		"dim_date", "dim_district", "dim_client", "dim_account",
		"dim_loan", "dim_card", "fact_orders", "fact_trans",
	}
}
