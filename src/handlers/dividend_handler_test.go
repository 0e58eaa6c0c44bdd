package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jankar86/dgi-dash/src/database"
	"github.com/jankar86/dgi-dash/src/logger"
	"github.com/jankar86/dgi-dash/src/models"
	"github.com/jankar86/dgi-dash/src/store"
	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.InitLogger("error")
	os.Exit(m.Run())
}

func newTestHandler(t *testing.T) (*DividendHandler, *sql.DB) {
	t.Helper()
	db, err := database.Connect(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.RunMigrations(db))

	h := NewDividendHandler(
		store.NewDividendStore(db),
		store.NewAccountStore(db),
		store.NewRunStore(db),
		cache.New(time.Minute, time.Minute),
	)
	return h, db
}

func seedLedger(t *testing.T, db *sql.DB) {
	t.Helper()
	accounts := store.NewAccountStore(db)
	dividends := store.NewDividendStore(db)

	ids, err := accounts.ResolveBatch([]string{"####5678"})
	require.NoError(t, err)
	_, err = dividends.UpsertBatch([]models.Transaction{
		{
			TransactionDate: sql.NullTime{Time: time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC), Valid: true},
			TransactionType: "Dividend",
			Symbol:          "AAPL",
			Amount:          sql.NullFloat64{Float64: 12.50, Valid: true},
			AccountNumber:   "####5678",
		},
	}, ids)
	require.NoError(t, err)
}

func TestHandleGetDividendData(t *testing.T) {
	h, db := newTestHandler(t)
	seedLedger(t, db)

	req := httptest.NewRequest(http.MethodGet, "/api/data", nil)
	rec := httptest.NewRecorder()
	h.HandleGetDividendData(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var rows []models.DividendRow
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	require.Len(t, rows, 1)
	require.NotNil(t, rows[0].TransactionDate)
	assert.Equal(t, "2023-03-01", *rows[0].TransactionDate)
	assert.Equal(t, "AAPL", rows[0].Symbol)
	assert.Equal(t, 12.50, rows[0].Amount)
}

func TestHandleGetDividendData_Empty(t *testing.T) {
	h, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/data", nil)
	rec := httptest.NewRecorder()
	h.HandleGetDividendData(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String(), "an empty ledger is an empty array, not null")
}

func TestHandleGetAccounts(t *testing.T) {
	h, db := newTestHandler(t)
	seedLedger(t, db)

	req := httptest.NewRequest(http.MethodGet, "/api/accounts", nil)
	rec := httptest.NewRecorder()
	h.HandleGetAccounts(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var accounts []models.Account
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &accounts))
	require.Len(t, accounts, 1)
	assert.Equal(t, "####5678", accounts[0].AccountNumber)
}

func TestHandleGetRuns_InvalidLimit(t *testing.T) {
	h, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/runs?limit=zero", nil)
	rec := httptest.NewRecorder()
	h.HandleGetRuns(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
