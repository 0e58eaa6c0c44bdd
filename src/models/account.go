package models

// Account ties dividend records to the brokerage account they came from.
// Accounts are created on first encounter of an account number and never
// updated or deleted.
type Account struct {
	AccountID     int64  `json:"account_id"`
	AccountNumber string `json:"account_number"`
}
