/*
rollup.go - Roll-up subtotal filter

PURPOSE:
  Post-processes hierarchical roll-up output so only well-defined
  subtotal levels survive. A roll-up over (year, quarter, month) is
  meaningful at exactly four levels:

    1. monthly detail     year, quarter, month all present
    2. quarterly subtotal year, quarter present; month NULL
    3. yearly subtotal    year present; quarter, month NULL
    4. grand total        all NULL (at most one such row)

  Any other NULL combination (quarter NULL but month present, year NULL
  but quarter present) is an artifact of the grouping mechanism, carries
  no business meaning, and is discarded.

  Our executor computes the hierarchy as explicit prefix groupings and
  so never emits artifacts, but the filter still runs on every roll-up:
  the output invariant must hold regardless of how a backend produces
  the row set (a full multi-level cross product included).
*/
package olap

// SubtotalLevel tags a roll-up row with its aggregation level.
type SubtotalLevel int

const (
	LevelMonthly SubtotalLevel = iota
	LevelQuarterly
	LevelYearly
	LevelGrandTotal
)

// ClassifyRollupRow determines the subtotal level of a roll-up row from
// the presence of its hierarchy cells. The boolean is false for the
// partial combinations that have no business meaning.
func ClassifyRollupRow(row []Value, yearIdx, quarterIdx, monthIdx int) (SubtotalLevel, bool) {
	year := row[yearIdx] != nil
	quarter := row[quarterIdx] != nil
	month := row[monthIdx] != nil

	switch {
	case year && quarter && month:
		return LevelMonthly, true
	case year && quarter:
		return LevelQuarterly, true
	case year && !quarter && !month:
		return LevelYearly, true
	case !year && !quarter && !month:
		return LevelGrandTotal, true
	}
	return 0, false
}

// FilterSubtotals retains only the four documented subtotal patterns,
// preserving row order, and keeps at most one grand-total row.
func FilterSubtotals(rows [][]Value, yearIdx, quarterIdx, monthIdx int) [][]Value {
	out := make([][]Value, 0, len(rows))
	seenGrandTotal := false

	for _, row := range rows {
		level, ok := ClassifyRollupRow(row, yearIdx, quarterIdx, monthIdx)
		if !ok {
			continue
		}
		if level == LevelGrandTotal {
			if seenGrandTotal {
				continue
			}
			seenGrandTotal = true
		}
		out = append(out, row)
	}
	return out
}
