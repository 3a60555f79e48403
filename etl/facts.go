/*
facts.go - Fact table loads

PURPOSE:
  Loads fact_orders and fact_trans, resolving dimension keys through
  the already-loaded dimensions. Monetary amounts pass through decimal
  so no precision is lost between the source and the warehouse.

KEY RESOLUTION:
  Orders must reference a known account, so unmatched orders are
  skipped. Transactions must reference a known date but may reference
  an unknown account; those keep a NULL account key so the fact itself
  survives.
*/
package etl

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"
)

func (l *Loader) loadOrders(ctx context.Context) (int, error) {
	accounts, err := l.accountKeys(ctx)
	if err != nil {
		return 0, err
	}

	rows, err := l.src.QueryContext(ctx,
		"SELECT order_id, account_id, bank_to, account_to, amount, k_symbol FROM orders")
	if err != nil {
		return 0, fmt.Errorf("failed to read source orders: %w", err)
	}
	defer rows.Close()

	counter := newNullCounter()
	var out [][]any
	skipped := 0
	for rows.Next() {
		var (
			orderID, accountID        sql.NullInt64
			bankTo, accountTo, symbol sql.NullString
			amount                    sql.NullFloat64
		)
		if err := rows.Scan(&orderID, &accountID, &bankTo, &accountTo,
			&amount, &symbol); err != nil {
			return 0, err
		}
		key, ok := accounts[accountID.Int64]
		if !accountID.Valid || !ok {
			skipped++
			continue
		}
		out = append(out, []any{
			orderID.Int64,
			key,
			counter.str("bank_to", cleanCode(bankTo)),
			counter.intNum("account_to", parseNumeric(accountTo)),
			decimal.NewFromFloat(counter.num("amount", amount)),
			counter.str("k_symbol", cleanCode(symbol)),
		})
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	cols := []string{"order_id", "account_key", "bank_to", "account_to", "amount", "k_symbol"}
	if err := l.insertBatches(ctx, "fact_orders", cols, out); err != nil {
		return 0, err
	}
	counter.log(l.log, "fact_orders")
	if skipped > 0 {
		l.log.Warn("skipped orders without a matching account", "count", skipped)
	}
	return len(out), nil
}

func (l *Loader) loadTrans(ctx context.Context) (int, error) {
	dates, err := l.dateKeys(ctx)
	if err != nil {
		return 0, err
	}
	accounts, err := l.accountKeys(ctx)
	if err != nil {
		return 0, err
	}

	rows, err := l.src.QueryContext(ctx, `
		SELECT trans_id, account_id, newdate, type, operation, amount,
		       balance, k_symbol, bank, account
		FROM trans`)
	if err != nil {
		return 0, fmt.Errorf("failed to read source transactions: %w", err)
	}
	defer rows.Close()

	counter := newNullCounter()
	var out [][]any
	skippedDates := 0
	for rows.Next() {
		var (
			transID, accountID             sql.NullInt64
			date, transType, operation     sql.NullString
			symbol, bank, accountNo        sql.NullString
			amount, balance                sql.NullFloat64
		)
		if err := rows.Scan(&transID, &accountID, &date, &transType,
			&operation, &amount, &balance, &symbol, &bank, &accountNo); err != nil {
			return 0, err
		}

		dateKey, ok := dates[date.String]
		if !date.Valid || !ok {
			skippedDates++
			continue
		}

		// An unknown account does not invalidate the transaction; the
		// key stays NULL instead of pointing nowhere.
		var accountKey sql.NullInt64
		if key, ok := accounts[accountID.Int64]; accountID.Valid && ok {
			accountKey = sql.NullInt64{Int64: key, Valid: true}
		}

		out = append(out, []any{
			transID.Int64,
			accountKey,
			dateKey,
			counter.str("trans_type", cleanCode(transType)),
			counter.str("operation", cleanCode(operation)),
			decimal.NewFromFloat(counter.num("amount", amount)),
			decimal.NewFromFloat(counter.num("balance", balance)),
			counter.str("k_symbol", cleanCode(symbol)),
			counter.str("bank", cleanCode(bank)),
			counter.intNum("account_no", parseNumeric(accountNo)),
		})
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	cols := []string{"trans_id", "account_key", "trans_date_key", "trans_type",
		"operation", "amount", "balance", "k_symbol", "bank", "account_no"}
	if err := l.insertBatches(ctx, "fact_trans", cols, out); err != nil {
		return 0, err
	}
	counter.log(l.log, "fact_trans")
	if skippedDates > 0 {
		l.log.Warn("skipped transactions without a matching date", "count", skippedDates)
	}
	return len(out), nil
}
