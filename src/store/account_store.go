// Package store is the persistence layer: the account registry, the dividend
// ledger, and the ingestion run history, all backed by the same SQLite
// database. Duplicate suppression relies on the database's own uniqueness
// constraints, so the stores are safe under concurrent writers without any
// in-process locking.
package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/jankar86/dgi-dash/src/logger"
	"github.com/jankar86/dgi-dash/src/models"
)

// AccountStore maintains the deduplicated mapping of account numbers to
// stable integer identifiers.
type AccountStore struct {
	db *sql.DB
}

func NewAccountStore(db *sql.DB) *AccountStore {
	return &AccountStore{db: db}
}

// ResolveOrCreate returns the id for accountNumber, inserting the account on
// first encounter. A concurrent insert of the same number is not an error;
// the existing id is returned.
func (s *AccountStore) ResolveOrCreate(accountNumber string) (int64, error) {
	if accountNumber == "" {
		return 0, fmt.Errorf("account number must not be empty")
	}

	result, err := s.db.Exec(`INSERT INTO accounts (account_number) VALUES (?)`, accountNumber)
	if err == nil {
		id, err := result.LastInsertId()
		if err != nil {
			return 0, fmt.Errorf("error reading new account id: %w", err)
		}
		logger.L.Debug("Registered new account", "accountNumber", accountNumber, "accountID", id)
		return id, nil
	}
	if !isUniqueViolation(err) {
		return 0, fmt.Errorf("error inserting account %s: %w", accountNumber, err)
	}

	var id int64
	err = s.db.QueryRow(`SELECT account_id FROM accounts WHERE account_number = ?`, accountNumber).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("error resolving account %s: %w", accountNumber, err)
	}
	return id, nil
}

// ResolveBatch resolves or creates every account number in the set and
// returns the number-to-id mapping, avoiding one round trip per ledger row.
func (s *AccountStore) ResolveBatch(accountNumbers []string) (map[string]int64, error) {
	ids := make(map[string]int64, len(accountNumbers))
	for _, number := range accountNumbers {
		if _, ok := ids[number]; ok {
			continue
		}
		id, err := s.ResolveOrCreate(number)
		if err != nil {
			return nil, err
		}
		ids[number] = id
	}
	return ids, nil
}

// List returns every registered account ordered by id.
func (s *AccountStore) List() ([]models.Account, error) {
	rows, err := s.db.Query(`SELECT account_id, account_number FROM accounts ORDER BY account_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("error querying accounts: %w", err)
	}
	defer rows.Close()

	var accounts []models.Account
	for rows.Next() {
		var a models.Account
		if err := rows.Scan(&a.AccountID, &a.AccountNumber); err != nil {
			return nil, fmt.Errorf("error scanning account: %w", err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// isUniqueViolation matches SQLite's UNIQUE constraint error so duplicate
// inserts can be treated as skips rather than failures.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}
