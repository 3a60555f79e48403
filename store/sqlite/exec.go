/*
exec.go - GroupingSpec compilation and execution

PURPOSE:
  Implements olap.Executor: compiles a GroupingSpec into one SQL
  statement over fact_trans (joined to whichever dimensions the spec's
  fields require) and scans the ordered result.

COMPILATION:
  Plain specs become a single SELECT ... GROUP BY. Hierarchical
  roll-ups become a UNION ALL of one SELECT per hierarchy prefix, NULL
  standing in for the un-aggregated trailing levels; computing each
  level explicitly means no spurious partial combinations ever exist.
  The grand-total member carries HAVING COUNT(*) > 0 so an input
  filtered to nothing yields zero rows, not a lone all-NULL row.

SAFETY:
  Every field in the spec resolves through the olap catalog before any
  SQL is assembled; only catalog-owned identifiers and '?' placeholders
  reach the statement text. Filter values always travel as arguments.
*/
package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/bankdwh/olap-server/olap"
)

// joinClauses maps a dimension join onto its SQL, keyed so the
// compiler emits them in catalog order.
var joinClauses = map[olap.Join]string{
	olap.JoinDate:     "JOIN dim_date d ON t.trans_date_key = d.date_key",
	olap.JoinAccount:  "JOIN dim_account a ON t.account_key = a.account_key",
	olap.JoinDistrict: "JOIN dim_district dist ON a.district_key = dist.district_key",
}

// ExecuteSpec compiles and runs a GroupingSpec, returning rows whose
// cells follow spec.Columns() order.
func (s *Store) ExecuteSpec(ctx context.Context, spec olap.GroupingSpec) ([][]olap.Value, error) {
	query, args, err := compileSpec(spec)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query execution failed: %w", err)
	}
	defer rows.Close()

	return scanValues(rows, len(spec.Columns()))
}

// compileSpec turns a GroupingSpec into SQL text plus bind arguments.
func compileSpec(spec olap.GroupingSpec) (string, []any, error) {
	from, err := fromClause(spec)
	if err != nil {
		return "", nil, err
	}

	where, whereArgs, err := whereClause(spec.Predicates)
	if err != nil {
		return "", nil, err
	}

	var selects []string
	var args []any

	if spec.Rollup {
		// One grouping per ordered hierarchy prefix, finest first so
		// ORDER BY alone decides the final interleaving.
		for level := len(spec.GroupBy); level >= 0; level-- {
			sel, selArgs, err := levelSelect(spec, level, from, where, whereArgs)
			if err != nil {
				return "", nil, err
			}
			selects = append(selects, sel)
			args = append(args, selArgs...)
		}
	} else {
		sel, selArgs, err := levelSelect(spec, len(spec.GroupBy), from, where, whereArgs)
		if err != nil {
			return "", nil, err
		}
		selects = append(selects, sel)
		args = append(args, selArgs...)
	}

	query := strings.Join(selects, "\nUNION ALL\n")

	if len(spec.OrderBy) > 0 {
		terms := make([]string, len(spec.OrderBy))
		for i, o := range spec.OrderBy {
			t := o.Field
			if o.Desc {
				t += " DESC"
			}
			if o.NullsLast {
				t += " NULLS LAST"
			}
			terms[i] = t
		}
		query += "\nORDER BY " + strings.Join(terms, ", ")
	}

	if spec.RowLimit > 0 {
		query += fmt.Sprintf("\nLIMIT %d", spec.RowLimit)
	}

	return query, args, nil
}

// levelSelect builds one SELECT grouping on the first `level` group-by
// fields; the remaining fields are emitted as NULL.
func levelSelect(spec olap.GroupingSpec, level int, from, where string, whereArgs []any) (string, []any, error) {
	var cols []string
	var groupExprs []string
	var args []any

	for i, name := range spec.GroupBy {
		f, err := olap.ResolveField(name)
		if err != nil {
			return "", nil, err
		}
		if i < level {
			cols = append(cols, fmt.Sprintf("%s AS %s", f.SQL, f.Name))
			groupExprs = append(groupExprs, f.SQL)
		} else {
			cols = append(cols, fmt.Sprintf("NULL AS %s", f.Name))
		}
	}

	for _, m := range spec.Measures {
		expr, measureArgs, err := measureSQL(m)
		if err != nil {
			return "", nil, err
		}
		cols = append(cols, expr)
		args = append(args, measureArgs...)
	}

	sel := "SELECT " + strings.Join(cols, ", ") + "\n" + from
	if where != "" {
		sel += "\nWHERE " + where
	}
	args = append(args, whereArgs...)

	if len(groupExprs) > 0 {
		sel += "\nGROUP BY " + strings.Join(groupExprs, ", ")
	} else if spec.Rollup {
		// Grand total: emit nothing when the filtered input is empty.
		sel += "\nHAVING COUNT(*) > 0"
	}

	return sel, args, nil
}

// fromClause builds FROM fact_trans plus the joins required by every
// field the spec touches.
func fromClause(spec olap.GroupingSpec) (string, error) {
	var names []string
	names = append(names, spec.GroupBy...)
	for _, m := range spec.Measures {
		if m.Field != "" {
			names = append(names, m.Field)
		}
		if m.Only != nil {
			names = append(names, m.Only.Field)
		}
	}
	for _, p := range spec.Predicates {
		names = append(names, p.Field)
	}

	joins, err := olap.RequiredJoins(names...)
	if err != nil {
		return "", err
	}

	clause := "FROM fact_trans t"
	for _, j := range joins {
		clause += "\n" + joinClauses[j]
	}
	return clause, nil
}

func whereClause(preds []olap.Predicate) (string, []any, error) {
	var terms []string
	var args []any

	for _, p := range preds {
		switch p.Op {
		case olap.OpNever:
			terms = append(terms, "1 = 0")
			continue
		}

		f, err := olap.ResolveField(p.Field)
		if err != nil {
			return "", nil, err
		}

		switch p.Op {
		case olap.OpEq:
			terms = append(terms, f.SQL+" = ?")
			args = append(args, p.Value)
		case olap.OpGTE:
			terms = append(terms, f.SQL+" >= ?")
			args = append(args, p.Value)
		case olap.OpLTE:
			terms = append(terms, f.SQL+" <= ?")
			args = append(args, p.Value)
		case olap.OpNotNull:
			terms = append(terms, f.SQL+" IS NOT NULL")
		case olap.OpNotBlank:
			terms = append(terms, "TRIM("+f.SQL+") <> ''")
		default:
			return "", nil, fmt.Errorf("unsupported predicate operator %q", p.Op)
		}
	}

	return strings.Join(terms, " AND "), args, nil
}

// measureSQL compiles one measure into a select-list expression.
// Conditional sums keep non-matching rows at zero so every group
// survives even when a branch never matches.
func measureSQL(m olap.Measure) (string, []any, error) {
	switch m.Fn {
	case olap.AggCount:
		return "COUNT(*) AS " + m.Alias, nil, nil

	case olap.AggSum, olap.AggAvg:
		f, err := olap.ResolveField(m.Field)
		if err != nil {
			return "", nil, err
		}
		fn := "SUM"
		if m.Fn == olap.AggAvg {
			fn = "AVG"
		}

		if m.Only == nil {
			return fmt.Sprintf("%s(%s) AS %s", fn, f.SQL, m.Alias), nil, nil
		}

		cond, err := olap.ResolveField(m.Only.Field)
		if err != nil {
			return "", nil, err
		}
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(m.Only.In)), ", ")
		// ELSE 0.0 keeps the sum REAL even when no row matches the
		// condition in a group.
		expr := fmt.Sprintf("%s(CASE WHEN %s IN (%s) THEN %s ELSE 0.0 END) AS %s",
			fn, cond.SQL, placeholders, f.SQL, m.Alias)

		args := make([]any, len(m.Only.In))
		for i, v := range m.Only.In {
			args[i] = v
		}
		return expr, args, nil
	}

	return "", nil, fmt.Errorf("unsupported aggregate %q", m.Fn)
}
