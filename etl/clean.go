/*
clean.go - Source data cleanup

PURPOSE:
  The source operational database is messy: codes carry stray
  whitespace and inconsistent casing, and every table has gaps. The
  cleaners here apply one uniform policy:

    codes:    trim + UPPER          (type, operation, k_symbol, ...)
    regions:  trim + Title Case
    strings:  missing or blank -> "Unknown"
    numbers:  missing            -> -1
    dates:    missing or invalid -> 9999-01-01

  Replacements are counted per column so each load can report exactly
  what it patched. Surrogate keys are exempt from the -1 rule: a fact
  row that cannot be matched to a dimension keeps a NULL key rather
  than a dangling -1.
*/
package etl

import (
	"database/sql"
	"log/slog"
	"sort"
	"strings"
)

const (
	unknownString = "Unknown"
	missingNumber = -1
	missingDate   = "9999-01-01"
)

// cleanCode trims and upper-cases a raw code. Blank stays blank; the
// null replacement decides what blank becomes.
func cleanCode(v sql.NullString) sql.NullString {
	if !v.Valid {
		return v
	}
	s := strings.ToUpper(strings.TrimSpace(v.String))
	return sql.NullString{String: s, Valid: s != ""}
}

// cleanRegion trims and title-cases a region name.
func cleanRegion(v sql.NullString) sql.NullString {
	if !v.Valid {
		return v
	}
	s := strings.TrimSpace(v.String)
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: titleCase(s), Valid: true}
}

// titleCase upper-cases the first letter of every word and lower-cases
// the rest, treating anything non-alphabetic as a word break.
func titleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	startOfWord := true
	for _, r := range s {
		isLetter := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		switch {
		case !isLetter:
			b.WriteRune(r)
			startOfWord = true
		case startOfWord:
			b.WriteRune(toUpper(r))
			startOfWord = false
		default:
			b.WriteRune(toLower(r))
		}
	}
	return b.String()
}

func toUpper(r rune) rune {
	if r >= 'a' && r <= 'z' {
		return r - ('a' - 'A')
	}
	return r
}

func toLower(r rune) rune {
	if r >= 'A' && r <= 'Z' {
		return r + ('a' - 'A')
	}
	return r
}

// =============================================================================
// NULL REPLACEMENT
// =============================================================================

// nullCounter applies the replacement policy and counts what it
// patched, per column.
type nullCounter struct {
	counts map[string]int
}

func newNullCounter() *nullCounter {
	return &nullCounter{counts: make(map[string]int)}
}

// str replaces a missing or whitespace-only string with "Unknown".
func (c *nullCounter) str(col string, v sql.NullString) string {
	if !v.Valid || strings.TrimSpace(v.String) == "" {
		c.counts[col]++
		return unknownString
	}
	return v.String
}

// num replaces a missing numeric with -1.
func (c *nullCounter) num(col string, v sql.NullFloat64) float64 {
	if !v.Valid {
		c.counts[col]++
		return missingNumber
	}
	return v.Float64
}

// intNum replaces a missing integer with -1.
func (c *nullCounter) intNum(col string, v sql.NullInt64) int64 {
	if !v.Valid {
		c.counts[col]++
		return missingNumber
	}
	return v.Int64
}

// date replaces a missing or blank date string with the sentinel date.
func (c *nullCounter) date(col string, v sql.NullString) string {
	if !v.Valid || strings.TrimSpace(v.String) == "" {
		c.counts[col]++
		return missingDate
	}
	return strings.TrimSpace(v.String)
}

// log reports every column that needed patching, in a stable order.
func (c *nullCounter) log(log *slog.Logger, table string) {
	if len(c.counts) == 0 {
		return
	}
	cols := make([]string, 0, len(c.counts))
	for col := range c.counts {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	for _, col := range cols {
		log.Info("replaced nulls",
			"table", table, "column", col, "count", c.counts[col])
	}
}

// parseNumeric coerces a free-text source field into an integer,
// treating anything non-numeric as missing.
func parseNumeric(v sql.NullString) sql.NullInt64 {
	if !v.Valid {
		return sql.NullInt64{}
	}
	s := strings.TrimSpace(v.String)
	if s == "" {
		return sql.NullInt64{}
	}
	var n int64
	for _, r := range s {
		if r < '0' || r > '9' {
			return sql.NullInt64{}
		}
		n = n*10 + int64(r-'0')
	}
	return sql.NullInt64{Int64: n, Valid: true}
}
