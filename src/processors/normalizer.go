// Package processors holds the coercion and filtering stages of the
// ingestion pipeline, between column binding and persistence.
package processors

import (
	"database/sql"
	"strconv"
	"strings"
	"time"

	"github.com/jankar86/dgi-dash/src/logger"
	"github.com/jankar86/dgi-dash/src/models"
	"github.com/jankar86/dgi-dash/src/parsers"
)

// Normalizer coerces raw string rows into canonical transactions.
type Normalizer struct {
	// DefaultAccountNumber is substituted for dialects with no account
	// concept so the non-empty account invariant always holds.
	DefaultAccountNumber string
}

// NewNormalizer creates a Normalizer with the given fallback account number.
func NewNormalizer(defaultAccountNumber string) *Normalizer {
	return &Normalizer{DefaultAccountNumber: defaultAccountNumber}
}

// Normalize coerces every row of the batch: dates parse with the dialect's
// layouts (unparseable values become an invalid NullTime, never an error),
// numerics become explicitly absent when blank or malformed, and every row
// ends up with a non-empty account number.
func (n *Normalizer) Normalize(batch *parsers.RawBatch) []models.Transaction {
	txs := make([]models.Transaction, 0, len(batch.Rows))
	for _, row := range batch.Rows {
		tx := models.Transaction{
			TransactionDate: parseDate(row.TransactionDate, batch.Dialect.DateLayouts()),
			TransactionType: row.TransactionType,
			SecurityType:    parseOptionalString(row.SecurityType),
			Symbol:          row.Symbol,
			Description:     row.Description,
			Quantity:        parseAmount(row.Quantity),
			Price:           parseAmount(row.Price),
			Commission:      parseAmount(row.Commission),
			Amount:          parseAmount(row.Amount),
			AccountNumber:   n.resolveAccount(batch, row),
		}
		if !tx.TransactionDate.Valid && row.TransactionDate != "" {
			logger.L.Debug("Unparseable transaction date kept as null",
				"source", batch.Path, "raw", row.TransactionDate, "symbol", row.Symbol)
		}
		txs = append(txs, tx)
	}
	return txs
}

// resolveAccount broadcasts the batch's out-of-band account number when one
// was extracted, falls back to the row's own column, and finally substitutes
// the configured default for dialects with no account concept.
func (n *Normalizer) resolveAccount(batch *parsers.RawBatch, row models.RawRow) string {
	if batch.AccountNumber != "" {
		return batch.AccountNumber
	}
	if row.AccountNumber != "" {
		return row.AccountNumber
	}
	return n.DefaultAccountNumber
}

// parseDate tries the dialect's layouts in order. A value nothing parses is
// an invalid NullTime; the row still flows through so it stays auditable.
func parseDate(raw string, layouts []string) sql.NullTime {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return sql.NullTime{}
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return sql.NullTime{Time: t, Valid: true}
		}
	}
	return sql.NullTime{}
}

// parseAmount coerces a broker-formatted numeric string. Blank and
// non-numeric values are explicitly absent, which is distinct from zero.
// Dollar signs, thousands commas, and parenthesized negatives are handled.
func parseAmount(raw string) sql.NullFloat64 {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.Trim(cleaned, "\"")
	if cleaned == "" {
		return sql.NullFloat64{}
	}

	negative := false
	if strings.HasPrefix(cleaned, "(") && strings.HasSuffix(cleaned, ")") {
		negative = true
		cleaned = cleaned[1 : len(cleaned)-1]
	}
	cleaned = strings.ReplaceAll(cleaned, "$", "")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.TrimSpace(cleaned)

	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return sql.NullFloat64{}
	}
	if negative {
		value = -value
	}
	return sql.NullFloat64{Float64: value, Valid: true}
}

func parseOptionalString(raw string) sql.NullString {
	if strings.TrimSpace(raw) == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: raw, Valid: true}
}
