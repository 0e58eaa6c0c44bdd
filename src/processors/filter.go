package processors

import (
	"strings"

	"github.com/jankar86/dgi-dash/src/models"
	"github.com/jankar86/dgi-dash/src/parsers"
)

// FilterDividends returns the rows whose transaction type contains the
// dialect's predicate substring, case-insensitively and order-preserving.
// Dialects with no predicate pass every row through unchanged.
func FilterDividends(dialect parsers.Dialect, txs []models.Transaction) []models.Transaction {
	needle := dialect.FilterSubstring()
	if needle == "" {
		return txs
	}

	filtered := make([]models.Transaction, 0, len(txs))
	for _, tx := range txs {
		if strings.Contains(strings.ToLower(tx.TransactionType), needle) {
			filtered = append(filtered, tx)
		}
	}
	return filtered
}
