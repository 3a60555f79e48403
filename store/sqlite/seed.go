/*
seed.go - Deterministic warehouse fixtures

PURPOSE:
  Loads a fully-specified dataset straight into the star schema,
  bypassing the ETL. Two consumers:
  - tests, which build small fixtures with hand-checkable aggregates
  - the server's -seed flag, which loads SampleFixture() for demos

  Surrogate keys are explicit in the fixture so fact rows can reference
  dimension rows deterministically.
*/
package sqlite

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// FIXTURE ROWS
// =============================================================================

type DateRow struct {
	Key       int
	Date      string // YYYY-MM-DD
	Year      int
	Quarter   int
	Month     int
	Day       int
	DayOfWeek string
}

type DistrictRow struct {
	Key         int
	ID          int
	Name        string
	Region      string
	Inhabitants int
	AvgSalary   float64
}

type ClientRow struct {
	Key         int
	ID          int
	DistrictKey int
}

type AccountRow struct {
	Key         int
	ID          int
	DistrictKey int
	Frequency   string
	OpenDate    string
}

type LoanRow struct {
	Key       int
	ID        int
	AccountID int
	Amount    decimal.Decimal
	Duration  int
	Payments  float64
	Status    string
	StartDate string
}

type CardRow struct {
	Key    int
	ID     int
	Type   string
	Issued string
}

type OrderRow struct {
	Key        int
	ID         int
	AccountKey int
	BankTo     string
	AccountTo  int
	Amount     decimal.Decimal
	KSymbol    string
}

type TransRow struct {
	Key        int
	ID         int
	AccountKey int
	DateKey    int
	Type       string
	Operation  string
	Amount     decimal.Decimal
	Balance    decimal.Decimal
	KSymbol    string // empty string is stored as NULL
	Bank       string
	AccountNo  int
}

// Fixture is a complete, explicit warehouse state.
type Fixture struct {
	Dates     []DateRow
	Districts []DistrictRow
	Clients   []ClientRow
	Accounts  []AccountRow
	Loans     []LoanRow
	Cards     []CardRow
	Orders    []OrderRow
	Trans     []TransRow
}

// =============================================================================
// SEEDING
// =============================================================================

// Seed loads a fixture in one transaction. Intended for empty
// warehouses; keys collide otherwise.
func (s *Store) Seed(ctx context.Context, fx Fixture) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin seed transaction: %w", err)
	}
	defer tx.Rollback()

	for _, d := range fx.Dates {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO dim_date (date_key, full_date, year, quarter, month, day, day_of_week)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			d.Key, d.Date, d.Year, d.Quarter, d.Month, d.Day, d.DayOfWeek); err != nil {
			return fmt.Errorf("failed to seed dim_date: %w", err)
		}
	}

	for _, d := range fx.Districts {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO dim_district (district_key, district_id, district_name, region, inhabitants, average_salary)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			d.Key, d.ID, d.Name, d.Region, d.Inhabitants, d.AvgSalary); err != nil {
			return fmt.Errorf("failed to seed dim_district: %w", err)
		}
	}

	for _, c := range fx.Clients {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO dim_client (client_key, client_id, district_key) VALUES (?, ?, ?)`,
			c.Key, c.ID, c.DistrictKey); err != nil {
			return fmt.Errorf("failed to seed dim_client: %w", err)
		}
	}

	for _, a := range fx.Accounts {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO dim_account (account_key, account_id, district_key, frequency, account_open_date)
			 VALUES (?, ?, ?, ?, ?)`,
			a.Key, a.ID, a.DistrictKey, a.Frequency, a.OpenDate); err != nil {
			return fmt.Errorf("failed to seed dim_account: %w", err)
		}
	}

	for _, l := range fx.Loans {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO dim_loan (loan_key, loan_id, account_id, amount, duration, payments, status, start_date)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			l.Key, l.ID, l.AccountID, l.Amount, l.Duration, l.Payments, l.Status, l.StartDate); err != nil {
			return fmt.Errorf("failed to seed dim_loan: %w", err)
		}
	}

	for _, c := range fx.Cards {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO dim_card (card_key, card_id, type, issued_date) VALUES (?, ?, ?, ?)`,
			c.Key, c.ID, c.Type, c.Issued); err != nil {
			return fmt.Errorf("failed to seed dim_card: %w", err)
		}
	}

	for _, o := range fx.Orders {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO fact_orders (order_key, order_id, account_key, bank_to, account_to, amount, k_symbol)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			o.Key, o.ID, o.AccountKey, o.BankTo, o.AccountTo, o.Amount, nullString(o.KSymbol)); err != nil {
			return fmt.Errorf("failed to seed fact_orders: %w", err)
		}
	}

	for _, t := range fx.Trans {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO fact_trans (trans_key, trans_id, account_key, trans_date_key, trans_type,
			                         operation, amount, balance, k_symbol, bank, account_no)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			t.Key, t.ID, t.AccountKey, t.DateKey, t.Type, t.Operation,
			t.Amount, t.Balance, nullString(t.KSymbol), nullString(t.Bank), t.AccountNo); err != nil {
			return fmt.Errorf("failed to seed fact_trans: %w", err)
		}
	}

	return tx.Commit()
}

// =============================================================================
// SAMPLE DATASET
// =============================================================================

// SampleFixture is a small but complete demo warehouse: two regions,
// three districts, four accounts and two years of transactions that
// exercise every report kind.
func SampleFixture() Fixture {
	amt := decimal.NewFromInt

	return Fixture{
		Dates: []DateRow{
			{Key: 1, Date: "1995-01-15", Year: 1995, Quarter: 1, Month: 1, Day: 15, DayOfWeek: "Sunday"},
			{Key: 2, Date: "1995-02-20", Year: 1995, Quarter: 1, Month: 2, Day: 20, DayOfWeek: "Monday"},
			{Key: 3, Date: "1995-05-02", Year: 1995, Quarter: 2, Month: 5, Day: 2, DayOfWeek: "Tuesday"},
			{Key: 4, Date: "1995-09-18", Year: 1995, Quarter: 3, Month: 9, Day: 18, DayOfWeek: "Monday"},
			{Key: 5, Date: "1995-11-30", Year: 1995, Quarter: 4, Month: 11, Day: 30, DayOfWeek: "Thursday"},
			{Key: 6, Date: "1996-01-08", Year: 1996, Quarter: 1, Month: 1, Day: 8, DayOfWeek: "Monday"},
			{Key: 7, Date: "1996-04-22", Year: 1996, Quarter: 2, Month: 4, Day: 22, DayOfWeek: "Monday"},
			{Key: 8, Date: "1996-07-04", Year: 1996, Quarter: 3, Month: 7, Day: 4, DayOfWeek: "Thursday"},
			{Key: 9, Date: "1996-10-12", Year: 1996, Quarter: 4, Month: 10, Day: 12, DayOfWeek: "Saturday"},
		},
		Districts: []DistrictRow{
			{Key: 1, ID: 1, Name: "HL.M. PRAHA", Region: "Prague", Inhabitants: 1204953, AvgSalary: 12541},
			{Key: 2, ID: 54, Name: "BRNO - MESTO", Region: "South Moravia", Inhabitants: 387570, AvgSalary: 9897},
			{Key: 3, ID: 60, Name: "HODONIN", Region: "South Moravia", Inhabitants: 161954, AvgSalary: 8720},
		},
		Clients: []ClientRow{
			{Key: 1, ID: 101, DistrictKey: 1},
			{Key: 2, ID: 102, DistrictKey: 2},
			{Key: 3, ID: 103, DistrictKey: 3},
		},
		Accounts: []AccountRow{
			{Key: 1, ID: 1001, DistrictKey: 1, Frequency: "POPLATEK MESICNE", OpenDate: "1994-03-01"},
			{Key: 2, ID: 1002, DistrictKey: 1, Frequency: "POPLATEK TYDNE", OpenDate: "1994-06-12"},
			{Key: 3, ID: 2001, DistrictKey: 2, Frequency: "POPLATEK MESICNE", OpenDate: "1993-11-23"},
			{Key: 4, ID: 3001, DistrictKey: 3, Frequency: "POPLATEK MESICNE", OpenDate: "1995-01-02"},
		},
		Loans: []LoanRow{
			{Key: 1, ID: 501, AccountID: 1001, Amount: amt(80952), Duration: 24, Payments: 3373, Status: "A", StartDate: "1994-01-05"},
			{Key: 2, ID: 502, AccountID: 2001, Amount: amt(30276), Duration: 12, Payments: 2523, Status: "B", StartDate: "1996-04-29"},
		},
		Cards: []CardRow{
			{Key: 1, ID: 9001, Type: "GOLD", Issued: "1995-04-07"},
			{Key: 2, ID: 9002, Type: "CLASSIC", Issued: "1996-09-15"},
		},
		Orders: []OrderRow{
			{Key: 1, ID: 701, AccountKey: 1, BankTo: "YZ", AccountTo: 87144583, Amount: amt(2452), KSymbol: "SIPO"},
			{Key: 2, ID: 702, AccountKey: 3, BankTo: "ST", AccountTo: 89597016, Amount: amt(3372), KSymbol: "UVER"},
		},
		Trans: []TransRow{
			{Key: 1, ID: 1, AccountKey: 1, DateKey: 1, Type: "CREDIT", Operation: "VKLAD", Amount: amt(1000), Balance: amt(1000), KSymbol: "SIPO", AccountNo: 0},
			{Key: 2, ID: 2, AccountKey: 1, DateKey: 2, Type: "VYBER", Operation: "VYBER", Amount: amt(400), Balance: amt(600), KSymbol: "SIPO", AccountNo: 0},
			{Key: 3, ID: 3, AccountKey: 2, DateKey: 3, Type: "CREDIT", Operation: "PREVOD Z UCTU", Amount: amt(2500), Balance: amt(2500), KSymbol: "DUCHOD", Bank: "AB", AccountNo: 15776355},
			{Key: 4, ID: 4, AccountKey: 3, DateKey: 4, Type: "DEBIT (WITHDRAWAL)", Operation: "PREVOD NA UCET", Amount: amt(1200), Balance: amt(800), KSymbol: "UVER", Bank: "CD", AccountNo: 43749095},
			{Key: 5, ID: 5, AccountKey: 3, DateKey: 5, Type: "CREDIT", Operation: "VKLAD", Amount: amt(900), Balance: amt(1700), KSymbol: ""},
			{Key: 6, ID: 6, AccountKey: 4, DateKey: 6, Type: "CREDIT", Operation: "VKLAD", Amount: amt(3000), Balance: amt(3000), KSymbol: "DUCHOD"},
			{Key: 7, ID: 7, AccountKey: 4, DateKey: 7, Type: "VYBER", Operation: "VYBER", Amount: amt(750), Balance: amt(2250), KSymbol: "SIPO"},
			{Key: 8, ID: 8, AccountKey: 1, DateKey: 8, Type: "DEBIT (WITHDRAWAL)", Operation: "PREVOD NA UCET", Amount: amt(600), Balance: amt(0), KSymbol: "POJISTNE", Bank: "EF", AccountNo: 60295837},
			{Key: 9, ID: 9, AccountKey: 2, DateKey: 9, Type: "CREDIT", Operation: "VKLAD", Amount: amt(1800), Balance: amt(4300), KSymbol: "SIPO"},
			{Key: 10, ID: 10, AccountKey: 3, DateKey: 9, Type: "VYBER", Operation: "VYBER", Amount: amt(300), Balance: amt(1400), KSymbol: ""},
		},
	}
}
