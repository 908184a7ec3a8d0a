package model

import "time"

type EntryType string

const (
	EntryBetStake   EntryType = "BET_STAKE"
	EntryBetWin     EntryType = "BET_WIN"
	EntryBetRefund  EntryType = "BET_REFUND"
	EntryDeposit    EntryType = "DEPOSIT"
	EntryWithdrawal EntryType = "WITHDRAWAL"
	EntryFaucet     EntryType = "FAUCET"
	// EntryBetSettle is a zero-amount marker written when a bet's locked
	// stake is cleared at resolution. It carries no value; its unique
	// (account, type, ref) key makes the locked decrement idempotent per
	// bet.
	EntryBetSettle EntryType = "BET_SETTLE"
)

// LedgerEntry rows are append-only; balances are derived from them and
// never edited in place. A BET_STAKE entry is negative; the entry that
// settles it carries the same ref_id.
type LedgerEntry struct {
	ID        int64     `json:"id"`
	AccountID int64     `json:"account_id"`
	Amount    int64     `json:"amount"`
	Currency  string    `json:"currency"`
	Type      EntryType `json:"type"`
	RefID     string    `json:"ref_id"`
	Meta      string    `json:"meta,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
