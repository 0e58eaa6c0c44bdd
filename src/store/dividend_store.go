package store

import (
	"database/sql"
	"fmt"

	"github.com/jankar86/dgi-dash/src/logger"
	"github.com/jankar86/dgi-dash/src/models"
)

// DividendStore writes normalized dividend rows into the ledger and serves
// the read-only view the dashboard consumes.
type DividendStore struct {
	db *sql.DB
}

func NewDividendStore(db *sql.DB) *DividendStore {
	return &DividendStore{db: db}
}

// UpsertResult reports the per-row outcome of one batch write.
type UpsertResult struct {
	Inserted    int
	Skipped     int
	SkippedKeys []string
}

// UpsertBatch inserts each row under the ledger's natural key
// (transaction_date, account_id, symbol, amount). A duplicate is counted and
// skipped, never an error; each row commits on its own so a later failure
// leaves earlier rows durable. accountIDs must cover every account number in
// rows — the registry is resolved before the ledger is written.
func (s *DividendStore) UpsertBatch(rows []models.Transaction, accountIDs map[string]int64) (*UpsertResult, error) {
	stmt, err := s.db.Prepare(`INSERT INTO dividends
		(transaction_date, transaction_type, security_type, symbol,
		quantity, amount, price, commission, description, account_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("error preparing dividend insert: %w", err)
	}
	defer stmt.Close()

	result := &UpsertResult{}
	for _, tx := range rows {
		accountID, ok := accountIDs[tx.AccountNumber]
		if !ok {
			return nil, fmt.Errorf("no account id resolved for %q", tx.AccountNumber)
		}

		_, err := stmt.Exec(
			nullableDate(tx.TransactionDate), tx.TransactionType, tx.SecurityType, tx.Symbol,
			tx.Quantity, tx.Amount, tx.Price, tx.Commission, tx.Description, accountID,
		)
		if err != nil {
			if isUniqueViolation(err) {
				result.Skipped++
				result.SkippedKeys = append(result.SkippedKeys, tx.Key())
				logger.L.Debug("Skipping duplicate dividend row", "key", tx.Key())
				continue
			}
			return result, fmt.Errorf("error inserting dividend row (%s): %w", tx.Key(), err)
		}
		result.Inserted++
	}
	return result, nil
}

// QueryLedger returns every ledger row as (transaction_date, symbol, amount)
// for downstream aggregation. Dates are either valid ISO dates or nil.
func (s *DividendStore) QueryLedger() ([]models.DividendRow, error) {
	rows, err := s.db.Query(`
		SELECT transaction_date, symbol, amount
		FROM dividends
		ORDER BY transaction_date ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("error querying dividends: %w", err)
	}
	defer rows.Close()

	var out []models.DividendRow
	for rows.Next() {
		var date sql.NullString
		var amount sql.NullFloat64
		var row models.DividendRow
		if err := rows.Scan(&date, &row.Symbol, &amount); err != nil {
			return nil, fmt.Errorf("error scanning dividend row: %w", err)
		}
		if date.Valid {
			row.TransactionDate = &date.String
		}
		row.Amount = amount.Float64
		out = append(out, row)
	}
	return out, rows.Err()
}

// Count returns the number of ledger rows.
func (s *DividendStore) Count() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM dividends`).Scan(&n); err != nil {
		return 0, fmt.Errorf("error counting dividends: %w", err)
	}
	return n, nil
}

// nullableDate renders a NullTime as an ISO date string or SQL NULL. Storing
// text keeps the natural-key UNIQUE constraint byte-comparable.
func nullableDate(t sql.NullTime) any {
	if !t.Valid {
		return nil
	}
	return t.Time.Format(models.DateLayout)
}
