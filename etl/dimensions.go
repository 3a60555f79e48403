/*
dimensions.go - Dimension loads

PURPOSE:
  Extracts each dimension from the source, applies the cleanup policy
  and writes it to the warehouse. The date dimension is derived from
  the distinct transaction dates rather than a calendar table, so it
  covers exactly the dates the facts reference.

KEY RESOLUTION:
  Source tables reference each other by natural ids. Dimensions that
  point at other dimensions (client and account point at district)
  resolve the surrogate key by reading the already-loaded target
  dimension; source rows without a match are skipped, the way an inner
  join would drop them.
*/
package etl

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"
)

// loadDates builds dim_date from the distinct transaction dates,
// ascending. Unparsable dates collapse into a single sentinel row.
func (l *Loader) loadDates(ctx context.Context) (int, error) {
	rows, err := l.src.QueryContext(ctx,
		"SELECT DISTINCT newdate FROM trans WHERE newdate IS NOT NULL")
	if err != nil {
		return 0, fmt.Errorf("failed to read source dates: %w", err)
	}
	defer rows.Close()

	var dates []time.Time
	hadInvalid := false
	for rows.Next() {
		var raw sql.NullString
		if err := rows.Scan(&raw); err != nil {
			return 0, err
		}
		d, err := time.Parse("2006-01-02", raw.String)
		if err != nil {
			hadInvalid = true
			continue
		}
		dates = append(dates, d)
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	cols := []string{"full_date", "year", "quarter", "month", "day", "day_of_week"}
	out := make([][]any, 0, len(dates)+1)
	for _, d := range dates {
		out = append(out, []any{
			d.Format("2006-01-02"),
			d.Year(),
			(int(d.Month())-1)/3 + 1,
			int(d.Month()),
			d.Day(),
			d.Weekday().String(),
		})
	}
	if hadInvalid {
		out = append(out, []any{missingDate, missingNumber, missingNumber,
			missingNumber, missingNumber, unknownString})
		l.log.Warn("unparsable source dates collapsed into sentinel row")
	}

	if err := l.insertBatches(ctx, "dim_date", cols, out); err != nil {
		return 0, err
	}
	return len(out), nil
}

func (l *Loader) loadDistricts(ctx context.Context) (int, error) {
	rows, err := l.src.QueryContext(ctx, `
		SELECT district_id, district_name, region, inhabitants, nocities,
		       ratio_urbaninhabitants, average_salary, unemployment,
		       noentrepreneur, nocrimes
		FROM district`)
	if err != nil {
		return 0, fmt.Errorf("failed to read source districts: %w", err)
	}
	defer rows.Close()

	counter := newNullCounter()
	cols := []string{"district_id", "district_name", "region", "inhabitants",
		"nocities", "ratio_urbaninhabitants", "average_salary", "unemployment",
		"noentrepreneur", "nocrimes"}

	var out [][]any
	for rows.Next() {
		var (
			id                                     sql.NullInt64
			name, region                           sql.NullString
			inhabitants, cities, entrep, crimes    sql.NullInt64
			urbanRatio, avgSalary, unemployment    sql.NullFloat64
		)
		if err := rows.Scan(&id, &name, &region, &inhabitants, &cities,
			&urbanRatio, &avgSalary, &unemployment, &entrep, &crimes); err != nil {
			return 0, err
		}

		out = append(out, []any{
			counter.intNum("district_id", id),
			counter.str("district_name", cleanCode(name)),
			counter.str("region", cleanRegion(region)),
			counter.intNum("inhabitants", inhabitants),
			counter.intNum("nocities", cities),
			counter.num("ratio_urbaninhabitants", urbanRatio),
			counter.num("average_salary", avgSalary),
			counter.num("unemployment", unemployment),
			counter.intNum("noentrepreneur", entrep),
			counter.intNum("nocrimes", crimes),
		})
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	if err := l.insertBatches(ctx, "dim_district", cols, out); err != nil {
		return 0, err
	}
	counter.log(l.log, "dim_district")
	return len(out), nil
}

func (l *Loader) loadClients(ctx context.Context) (int, error) {
	districts, err := l.districtKeys(ctx)
	if err != nil {
		return 0, err
	}

	rows, err := l.src.QueryContext(ctx, "SELECT client_id, district_id FROM client")
	if err != nil {
		return 0, fmt.Errorf("failed to read source clients: %w", err)
	}
	defer rows.Close()

	var out [][]any
	skipped := 0
	for rows.Next() {
		var clientID, districtID sql.NullInt64
		if err := rows.Scan(&clientID, &districtID); err != nil {
			return 0, err
		}
		key, ok := districts[districtID.Int64]
		if !districtID.Valid || !ok {
			skipped++
			continue
		}
		out = append(out, []any{clientID.Int64, key})
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	if err := l.insertBatches(ctx, "dim_client", []string{"client_id", "district_key"}, out); err != nil {
		return 0, err
	}
	if skipped > 0 {
		l.log.Warn("skipped clients without a matching district", "count", skipped)
	}
	return len(out), nil
}

func (l *Loader) loadAccounts(ctx context.Context) (int, error) {
	districts, err := l.districtKeys(ctx)
	if err != nil {
		return 0, err
	}

	rows, err := l.src.QueryContext(ctx,
		"SELECT account_id, district_id, frequency, newdate FROM account")
	if err != nil {
		return 0, fmt.Errorf("failed to read source accounts: %w", err)
	}
	defer rows.Close()

	counter := newNullCounter()
	var out [][]any
	skipped := 0
	for rows.Next() {
		var (
			accountID, districtID sql.NullInt64
			frequency, openDate   sql.NullString
		)
		if err := rows.Scan(&accountID, &districtID, &frequency, &openDate); err != nil {
			return 0, err
		}
		key, ok := districts[districtID.Int64]
		if !districtID.Valid || !ok {
			skipped++
			continue
		}
		out = append(out, []any{
			accountID.Int64,
			key,
			counter.str("frequency", cleanCode(frequency)),
			counter.date("account_open_date", openDate),
		})
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	cols := []string{"account_id", "district_key", "frequency", "account_open_date"}
	if err := l.insertBatches(ctx, "dim_account", cols, out); err != nil {
		return 0, err
	}
	counter.log(l.log, "dim_account")
	if skipped > 0 {
		l.log.Warn("skipped accounts without a matching district", "count", skipped)
	}
	return len(out), nil
}

func (l *Loader) loadLoans(ctx context.Context) (int, error) {
	rows, err := l.src.QueryContext(ctx,
		"SELECT loan_id, account_id, amount, duration, payments, status, newdate FROM loan")
	if err != nil {
		return 0, fmt.Errorf("failed to read source loans: %w", err)
	}
	defer rows.Close()

	counter := newNullCounter()
	var out [][]any
	for rows.Next() {
		var (
			loanID, accountID, duration sql.NullInt64
			amount, payments            sql.NullFloat64
			status, startDate           sql.NullString
		)
		if err := rows.Scan(&loanID, &accountID, &amount, &duration,
			&payments, &status, &startDate); err != nil {
			return 0, err
		}
		out = append(out, []any{
			counter.intNum("loan_id", loanID),
			counter.intNum("account_id", accountID),
			counter.num("amount", amount),
			counter.intNum("duration", duration),
			counter.num("payments", payments),
			counter.str("status", cleanCode(status)),
			counter.date("start_date", startDate),
		})
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	cols := []string{"loan_id", "account_id", "amount", "duration", "payments", "status", "start_date"}
	if err := l.insertBatches(ctx, "dim_loan", cols, out); err != nil {
		return 0, err
	}
	counter.log(l.log, "dim_loan")
	return len(out), nil
}

func (l *Loader) loadCards(ctx context.Context) (int, error) {
	rows, err := l.src.QueryContext(ctx, "SELECT card_id, type, newissued FROM card")
	if err != nil {
		return 0, fmt.Errorf("failed to read source cards: %w", err)
	}
	defer rows.Close()

	counter := newNullCounter()
	var out [][]any
	for rows.Next() {
		var (
			cardID       sql.NullInt64
			cardType     sql.NullString
			issued       sql.NullString
		)
		if err := rows.Scan(&cardID, &cardType, &issued); err != nil {
			return 0, err
		}
		out = append(out, []any{
			counter.intNum("card_id", cardID),
			counter.str("type", cleanCode(cardType)),
			counter.date("issued_date", issued),
		})
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	if err := l.insertBatches(ctx, "dim_card", []string{"card_id", "type", "issued_date"}, out); err != nil {
		return 0, err
	}
	counter.log(l.log, "dim_card")
	return len(out), nil
}

// =============================================================================
// SURROGATE KEY MAPS
// =============================================================================

func (l *Loader) districtKeys(ctx context.Context) (map[int64]int64, error) {
	return l.keyMap(ctx, "SELECT district_id, district_key FROM dim_district")
}

func (l *Loader) accountKeys(ctx context.Context) (map[int64]int64, error) {
	return l.keyMap(ctx, "SELECT account_id, account_key FROM dim_account")
}

func (l *Loader) keyMap(ctx context.Context, query string) (map[int64]int64, error) {
	rows, err := l.tgt.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to read surrogate keys: %w", err)
	}
	defer rows.Close()

	keys := make(map[int64]int64)
	for rows.Next() {
		var id, key int64
		if err := rows.Scan(&id, &key); err != nil {
			return nil, err
		}
		keys[id] = key
	}
	return keys, rows.Err()
}

// dateKeys maps full_date strings to their surrogate keys.
func (l *Loader) dateKeys(ctx context.Context) (map[string]int64, error) {
	rows, err := l.tgt.QueryContext(ctx, "SELECT full_date, date_key FROM dim_date")
	if err != nil {
		return nil, fmt.Errorf("failed to read date keys: %w", err)
	}
	defer rows.Close()

	keys := make(map[string]int64)
	for rows.Next() {
		var date string
		var key int64
		if err := rows.Scan(&date, &key); err != nil {
			return nil, err
		}
		keys[date] = key
	}
	return keys, rows.Err()
}
