package store

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jankar86/dgi-dash/src/database"
	"github.com/jankar86/dgi-dash/src/logger"
	"github.com/jankar86/dgi-dash/src/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.InitLogger("error")
	os.Exit(m.Run())
}

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Connect(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.RunMigrations(db))
	return db
}

func validDate(year int, month time.Month, day int) sql.NullTime {
	return sql.NullTime{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC), Valid: true}
}

func validFloat(v float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v, Valid: true}
}

func TestAccountStore_ResolveOrCreateIdempotent(t *testing.T) {
	s := NewAccountStore(openTestDB(t))

	first, err := s.ResolveOrCreate("####5678")
	require.NoError(t, err)
	second, err := s.ResolveOrCreate("####5678")
	require.NoError(t, err)
	assert.Equal(t, first, second, "same account number resolves to the same id")

	accounts, err := s.List()
	require.NoError(t, err)
	require.Len(t, accounts, 1, "exactly one account row created")
	assert.Equal(t, "####5678", accounts[0].AccountNumber)
}

func TestAccountStore_ResolveOrCreateEmpty(t *testing.T) {
	s := NewAccountStore(openTestDB(t))
	_, err := s.ResolveOrCreate("")
	require.Error(t, err)
}

func TestAccountStore_ResolveBatch(t *testing.T) {
	s := NewAccountStore(openTestDB(t))

	existing, err := s.ResolveOrCreate("X12345678")
	require.NoError(t, err)

	ids, err := s.ResolveBatch([]string{"X12345678", "####5678", "####5678"})
	require.NoError(t, err)
	require.Len(t, ids, 2)
	assert.Equal(t, existing, ids["X12345678"])
	assert.NotZero(t, ids["####5678"])
}

func TestDividendStore_UpsertBatchDeduplicates(t *testing.T) {
	db := openTestDB(t)
	accounts := NewAccountStore(db)
	dividends := NewDividendStore(db)

	ids, err := accounts.ResolveBatch([]string{"####5678"})
	require.NoError(t, err)

	rows := []models.Transaction{
		{
			TransactionDate: validDate(2023, time.March, 1),
			TransactionType: "Dividend",
			Symbol:          "AAPL",
			Amount:          validFloat(12.50),
			AccountNumber:   "####5678",
		},
		{
			TransactionDate: validDate(2023, time.March, 1),
			TransactionType: "Dividend",
			Symbol:          "KO",
			Amount:          validFloat(8.40),
			AccountNumber:   "####5678",
		},
	}

	result, err := dividends.UpsertBatch(rows, ids)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Inserted)
	assert.Equal(t, 0, result.Skipped)

	// The identical batch again: every row skips, nothing errors.
	result, err = dividends.UpsertBatch(rows, ids)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Inserted)
	assert.Equal(t, 2, result.Skipped)
	assert.Len(t, result.SkippedKeys, 2)

	count, err := dividends.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestDividendStore_NaturalKeySpansAccount(t *testing.T) {
	db := openTestDB(t)
	accounts := NewAccountStore(db)
	dividends := NewDividendStore(db)

	ids, err := accounts.ResolveBatch([]string{"A", "B"})
	require.NoError(t, err)

	row := models.Transaction{
		TransactionDate: validDate(2023, time.March, 1),
		TransactionType: "Dividend",
		Symbol:          "AAPL",
		Amount:          validFloat(12.50),
		AccountNumber:   "A",
	}
	other := row
	other.AccountNumber = "B"

	result, err := dividends.UpsertBatch([]models.Transaction{row, other}, ids)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Inserted, "same date/symbol/amount under different accounts are distinct")
}

func TestDividendStore_AbsentNumericsPersistAsNull(t *testing.T) {
	db := openTestDB(t)
	accounts := NewAccountStore(db)
	dividends := NewDividendStore(db)

	ids, err := accounts.ResolveBatch([]string{"A"})
	require.NoError(t, err)

	row := models.Transaction{
		TransactionDate: validDate(2023, time.June, 9),
		TransactionType: "Dividend",
		Symbol:          "KO",
		Amount:          validFloat(8.40),
		AccountNumber:   "A",
		// Quantity, Price, Commission absent
	}
	_, err = dividends.UpsertBatch([]models.Transaction{row}, ids)
	require.NoError(t, err)

	var quantity sql.NullFloat64
	err = db.QueryRow(`SELECT quantity FROM dividends WHERE symbol = 'KO'`).Scan(&quantity)
	require.NoError(t, err)
	assert.False(t, quantity.Valid, "absent numerics are NULL, not zero")
}

func TestDividendStore_QueryLedger(t *testing.T) {
	db := openTestDB(t)
	accounts := NewAccountStore(db)
	dividends := NewDividendStore(db)

	ids, err := accounts.ResolveBatch([]string{"A"})
	require.NoError(t, err)

	rows := []models.Transaction{
		{
			TransactionDate: validDate(2023, time.March, 1),
			TransactionType: "Dividend",
			Symbol:          "AAPL",
			Amount:          validFloat(12.50),
			AccountNumber:   "A",
		},
		{
			// Unparsed source date: stored, addressable, null in the view.
			TransactionType: "Dividend",
			Symbol:          "MYST",
			Amount:          validFloat(1.00),
			AccountNumber:   "A",
		},
	}
	_, err = dividends.UpsertBatch(rows, ids)
	require.NoError(t, err)

	view, err := dividends.QueryLedger()
	require.NoError(t, err)
	require.Len(t, view, 2)

	bySymbol := make(map[string]models.DividendRow)
	for _, r := range view {
		bySymbol[r.Symbol] = r
	}
	require.NotNil(t, bySymbol["AAPL"].TransactionDate)
	assert.Equal(t, "2023-03-01", *bySymbol["AAPL"].TransactionDate)
	assert.Equal(t, 12.50, bySymbol["AAPL"].Amount)
	assert.Nil(t, bySymbol["MYST"].TransactionDate)
}

func TestRunStore_History(t *testing.T) {
	db := openTestDB(t)
	runs := NewRunStore(db)

	require.NoError(t, runs.RecordSource("run-1", models.SourceReport{
		Path: "a.csv", Dialect: "etrade", RowsParsed: 3, Inserted: 2, Skipped: 1,
	}))
	require.NoError(t, runs.RecordSource("run-1", models.SourceReport{
		Path: "b.csv", Error: "unknown CSV format",
	}))

	history, err := runs.History(10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	// Newest first.
	assert.Equal(t, "b.csv", history[0].SourcePath)
	assert.Equal(t, "unknown CSV format", history[0].Error)
	assert.Equal(t, "a.csv", history[1].SourcePath)
	assert.Equal(t, 2, history[1].Inserted)
	assert.Equal(t, 1, history[1].Skipped)
}
