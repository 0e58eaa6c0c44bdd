package handlers

import (
	"net/http"
	"strconv"

	"github.com/jankar86/dgi-dash/src/logger"
	"github.com/jankar86/dgi-dash/src/models"
	"github.com/jankar86/dgi-dash/src/store"
	"github.com/jankar86/dgi-dash/src/utils"
	"github.com/patrickmn/go-cache"
)

const (
	ckLedgerRows  = "ledger_rows"
	ckAccountList = "account_list"

	defaultRunHistoryLimit = 50
)

// DividendHandler serves the read-only query surface over the persisted
// ledger. It never writes; ingestion happens out of band.
type DividendHandler struct {
	dividends  *store.DividendStore
	accounts   *store.AccountStore
	runs       *store.RunStore
	replyCache *cache.Cache
}

func NewDividendHandler(dividends *store.DividendStore, accounts *store.AccountStore, runs *store.RunStore, replyCache *cache.Cache) *DividendHandler {
	return &DividendHandler{
		dividends:  dividends,
		accounts:   accounts,
		runs:       runs,
		replyCache: replyCache,
	}
}

// HandleGetDividendData returns every ledger row as
// (transaction_date, symbol, amount) for the dashboard to aggregate.
func (h *DividendHandler) HandleGetDividendData(w http.ResponseWriter, r *http.Request) {
	if cached, found := h.replyCache.Get(ckLedgerRows); found {
		utils.SendJSON(w, cached, http.StatusOK)
		return
	}

	rows, err := h.dividends.QueryLedger()
	if err != nil {
		logger.FromContext(r.Context()).Error("Error querying ledger", "error", err)
		utils.SendJSONError(w, "Error retrieving dividend data", http.StatusInternalServerError)
		return
	}
	if rows == nil {
		rows = []models.DividendRow{}
	}

	h.replyCache.Set(ckLedgerRows, rows, cache.DefaultExpiration)
	utils.SendJSON(w, rows, http.StatusOK)
}

// HandleGetAccounts returns the consolidated account registry.
func (h *DividendHandler) HandleGetAccounts(w http.ResponseWriter, r *http.Request) {
	if cached, found := h.replyCache.Get(ckAccountList); found {
		utils.SendJSON(w, cached, http.StatusOK)
		return
	}

	accounts, err := h.accounts.List()
	if err != nil {
		logger.FromContext(r.Context()).Error("Error querying accounts", "error", err)
		utils.SendJSONError(w, "Error retrieving accounts", http.StatusInternalServerError)
		return
	}
	if accounts == nil {
		accounts = []models.Account{}
	}

	h.replyCache.Set(ckAccountList, accounts, cache.DefaultExpiration)
	utils.SendJSON(w, accounts, http.StatusOK)
}

// HandleGetRuns returns recent ingestion history, newest first.
func (h *DividendHandler) HandleGetRuns(w http.ResponseWriter, r *http.Request) {
	limit := defaultRunHistoryLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			utils.SendJSONError(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	history, err := h.runs.History(limit)
	if err != nil {
		logger.FromContext(r.Context()).Error("Error querying ingestion history", "error", err)
		utils.SendJSONError(w, "Error retrieving ingestion history", http.StatusInternalServerError)
		return
	}
	if history == nil {
		history = []store.RunHistoryEntry{}
	}
	utils.SendJSON(w, history, http.StatusOK)
}
