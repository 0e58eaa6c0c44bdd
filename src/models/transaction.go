package models

import (
	"database/sql"
	"strconv"
)

// RawRow holds the untyped string values of a single source row after the
// dialect's columns have been bound to canonical field names. Fields a
// dialect does not carry stay empty.
type RawRow struct {
	TransactionDate string
	TransactionType string
	SecurityType    string
	Symbol          string
	Description     string
	Quantity        string
	Price           string
	Commission      string
	Amount          string
	AccountNumber   string
}

// Transaction is the canonical, coerced representation of one source row.
// Missing numerics are explicitly absent (Valid == false), never zero, and an
// unparseable date stays addressable as an invalid NullTime rather than being
// dropped before persistence.
type Transaction struct {
	TransactionDate sql.NullTime
	TransactionType string
	SecurityType    sql.NullString
	Symbol          string
	Description     string
	Quantity        sql.NullFloat64
	Price           sql.NullFloat64
	Commission      sql.NullFloat64
	Amount          sql.NullFloat64
	AccountNumber   string
}

// DateLayout is how valid transaction dates are rendered in the ledger and
// over the query API.
const DateLayout = "2006-01-02"

// DateString renders the transaction date as YYYY-MM-DD, or "" when the
// source value never parsed.
func (t Transaction) DateString() string {
	if !t.TransactionDate.Valid {
		return ""
	}
	return t.TransactionDate.Time.Format(DateLayout)
}

// Key identifies a row by its natural key for duplicate reporting.
func (t Transaction) Key() string {
	date := t.DateString()
	if date == "" {
		date = "?"
	}
	amount := "?"
	if t.Amount.Valid {
		amount = strconv.FormatFloat(t.Amount.Float64, 'f', -1, 64)
	}
	return date + "/" + t.AccountNumber + "/" + t.Symbol + "/" + amount
}
