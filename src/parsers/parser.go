package parsers

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jankar86/dgi-dash/src/models"
)

// RawBatch is the parsed but uncoerced content of one source: its detected
// dialect, canonically named string rows, and any out-of-band account number
// from the metadata line. It exists only for the duration of one ingestion.
type RawBatch struct {
	Path    string
	Dialect Dialect
	// AccountNumber is set when the dialect carries the account in its
	// metadata line instead of a table column.
	AccountNumber string
	Rows          []models.RawRow
}

// ParseFile opens path and parses it with Parse.
func ParseFile(path string) (*RawBatch, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	return Parse(f, path)
}

// Parse detects the dialect from the first line of r and binds the remaining
// rows to the dialect's canonical column order. The metadata line, when the
// dialect has one, is consumed here and never reaches column binding.
func Parse(r io.Reader, path string) (*RawBatch, error) {
	br := bufio.NewReader(r)
	firstLine, err := readLine(br)
	if err != nil {
		return nil, fmt.Errorf("%w: empty input in %s", ErrUnknownFormat, path)
	}

	dialect, err := Detect(firstLine, path)
	if err != nil {
		return nil, err
	}
	spec := dialectSpecs[dialect]

	batch := &RawBatch{Path: path, Dialect: dialect}
	if spec.accountFromMetadata {
		tokens := strings.Split(firstLine, ",")
		batch.AccountNumber = strings.TrimSpace(tokens[len(tokens)-1])
	}

	reader := csv.NewReader(br)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	// With a metadata line the header row is still unread; without one the
	// first line was the header and has already been consumed.
	if spec.metadataLine {
		if _, err := reader.Read(); err != nil {
			return nil, fmt.Errorf("%w: missing header row in %s", ErrSchemaMismatch, path)
		}
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV records from %s: %w", path, err)
		}
		if isBlank(record) {
			continue
		}
		if len(record) != dialect.arity() {
			return nil, fmt.Errorf("%w: %s has %d columns, %s expects %d",
				ErrSchemaMismatch, path, len(record), dialect, dialect.arity())
		}
		batch.Rows = append(batch.Rows, bindRow(spec, record))
	}

	return batch, nil
}

// bindRow maps one record positionally onto the canonical field names.
func bindRow(spec dialectSpec, record []string) models.RawRow {
	var row models.RawRow
	for i, f := range spec.columns {
		value := strings.TrimSpace(record[i])
		switch f {
		case fieldDate:
			row.TransactionDate = value
		case fieldType:
			row.TransactionType = value
		case fieldSecurityType:
			row.SecurityType = value
		case fieldSymbol:
			row.Symbol = value
		case fieldDescription:
			row.Description = value
		case fieldQuantity:
			row.Quantity = value
		case fieldPrice:
			row.Price = value
		case fieldCommission:
			row.Commission = value
		case fieldAmount:
			row.Amount = value
		case fieldAccount:
			row.AccountNumber = value
		}
	}
	return row
}

func readLine(br *bufio.Reader) (string, error) {
	line, err := br.ReadString('\n')
	line = strings.TrimRight(line, "\r\n")
	if err != nil && line == "" {
		return "", err
	}
	return line, nil
}

func isBlank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
