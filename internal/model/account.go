package model

import "time"

// Account balances are fixed-point integers in the currency's smallest
// unit. available must always equal the sum of the account's ledger
// entries; locked tracks the at-risk stake whose negative BET_STAKE entry
// is already in that sum.
type Account struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Currency  string    `json:"currency"`
	Network   string    `json:"network"`
	Available int64     `json:"available"`
	Locked    int64     `json:"locked"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
