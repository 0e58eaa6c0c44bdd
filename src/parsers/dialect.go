// Package parsers turns raw brokerage CSV exports into canonically named rows.
// Each supported export format is a Dialect: a fixed column order, a metadata
// line convention, a dividend match predicate, and a date parsing strategy.
// Adding a broker format means adding one entry to the dialect table.
package parsers

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownFormat  = errors.New("unknown CSV format")
	ErrSchemaMismatch = errors.New("schema mismatch")
)

// Dialect identifies one recognized source export format.
type Dialect int

const (
	DialectUnknown Dialect = iota
	DialectFidelity
	DialectETrade
	DialectHistorical
)

func (d Dialect) String() string {
	switch d {
	case DialectFidelity:
		return "fidelity"
	case DialectETrade:
		return "etrade"
	case DialectHistorical:
		return "historical"
	default:
		return "unknown"
	}
}

// field names a canonical column a dialect binds positionally.
type field int

const (
	fieldIgnore field = iota
	fieldDate
	fieldType
	fieldSecurityType
	fieldSymbol
	fieldDescription
	fieldQuantity
	fieldPrice
	fieldCommission
	fieldAmount
	fieldAccount
)

type dialectSpec struct {
	columns []field
	// metadataLine indicates a non-tabular line precedes the header row.
	metadataLine bool
	// accountFromMetadata pulls the account number from the last
	// comma-delimited token of the metadata line.
	accountFromMetadata bool
	// filter is the lowercase substring a row's transaction type must
	// contain to count as a dividend. Empty accepts every row.
	filter string
	// dateLayouts are tried in order when coercing dates.
	dateLayouts []string
}

// flexibleDateLayouts covers the date spellings seen across statement eras:
// padded and unpadded US dates, two-digit years, and ISO.
var flexibleDateLayouts = []string{
	"01/02/2006",
	"1/2/2006",
	"1/2/06",
	"2006-01-02",
}

var dialectSpecs = map[Dialect]dialectSpec{
	// Statement export with an Action column. The header is the first
	// line; the account number is a column of its own.
	DialectFidelity: {
		columns: []field{
			fieldDate, fieldAccount, fieldType, fieldSymbol, fieldDescription,
			fieldSecurityType, fieldQuantity, fieldPrice, fieldCommission,
			fieldIgnore, // fees
			fieldIgnore, // accrued interest
			fieldAmount,
			fieldIgnore, // settlement date
		},
		filter:      "dividend received",
		dateLayouts: flexibleDateLayouts,
	},
	// Statement export with a TransactionType column. An account line like
	// "For Account,####5678" precedes the header; dates use two-digit years.
	DialectETrade: {
		columns: []field{
			fieldDate, fieldType, fieldSecurityType, fieldSymbol,
			fieldQuantity, fieldAmount, fieldPrice, fieldCommission,
			fieldDescription,
		},
		metadataLine:        true,
		accountFromMetadata: true,
		filter:              "dividend",
		dateLayouts:         []string{"1/2/06"},
	},
	// Bulk import of pre-filtered historical data. A marker line precedes
	// the header; every row is accepted and the account number comes from
	// the configured default.
	DialectHistorical: {
		columns: []field{
			fieldDate, fieldType, fieldSymbol, fieldAmount,
			fieldDescription, fieldQuantity, fieldPrice, fieldCommission,
		},
		metadataLine: true,
		dateLayouts:  flexibleDateLayouts,
	},
}

// Detect classifies a source by its first line. The tests are ordered:
// an Action token wins over an Account token, which wins over the
// HistoricalData marker. path is used only for the error message.
func Detect(firstLine, path string) (Dialect, error) {
	switch {
	case strings.Contains(firstLine, "Action"):
		return DialectFidelity, nil
	case strings.Contains(firstLine, "Account"):
		return DialectETrade, nil
	case strings.Contains(firstLine, "HistoricalData"):
		return DialectHistorical, nil
	default:
		return DialectUnknown, fmt.Errorf("%w: unrecognized first line in %s", ErrUnknownFormat, path)
	}
}

// FilterSubstring returns the dialect's lowercase dividend predicate, or ""
// when the dialect accepts all rows.
func (d Dialect) FilterSubstring() string {
	return dialectSpecs[d].filter
}

// DateLayouts returns the date layouts the dialect's dates are parsed with,
// in priority order.
func (d Dialect) DateLayouts() []string {
	return dialectSpecs[d].dateLayouts
}

// HasAccountColumn reports whether the dialect carries the account number in
// the rows themselves or in the metadata line. When false, the Field
// Normalizer substitutes the configured default account.
func (d Dialect) HasAccountColumn() bool {
	spec := dialectSpecs[d]
	if spec.accountFromMetadata {
		return true
	}
	for _, f := range spec.columns {
		if f == fieldAccount {
			return true
		}
	}
	return false
}

func (d Dialect) arity() int {
	return len(dialectSpecs[d].columns)
}
