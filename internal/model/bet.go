package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type BetStatus string

const (
	BetPending   BetStatus = "PENDING"
	BetWon       BetStatus = "WON"
	BetLost      BetStatus = "LOST"
	BetCashedOut BetStatus = "CASHED_OUT"
)

// Terminal reports whether a status ends the bet lifecycle. A bet leaves
// PENDING exactly once.
func (s BetStatus) Terminal() bool {
	return s == BetWon || s == BetLost || s == BetCashedOut
}

type Bet struct {
	ID               int64           `json:"id"`
	UUID             uuid.UUID       `json:"uuid"`
	UserID           int64           `json:"user_id"`
	Game             string          `json:"game"`
	Currency         string          `json:"currency"`
	Network          string          `json:"network"`
	Stake            int64           `json:"stake"`
	PotentialPayout  int64           `json:"potential_payout"`
	ClientSeed       string          `json:"client_seed"`
	ServerSeedHash   string          `json:"server_seed_hash"`
	Nonce            int64           `json:"nonce"`
	Params           json.RawMessage `json:"params,omitempty"`
	Outcome          string          `json:"outcome,omitempty"`
	ResultMultiplier string          `json:"result_multiplier,omitempty"`
	Status           BetStatus       `json:"status"`
	RngTrace         *RngTrace       `json:"rng_trace,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	ResolvedAt       *time.Time      `json:"resolved_at,omitempty"`
	// SettledAt is stamped only after the wallet movement for the terminal
	// status has completed. A terminal bet with a nil SettledAt has an
	// interrupted settlement that the next resolve call finishes.
	SettledAt *time.Time `json:"settled_at,omitempty"`
}

// RngTrace is persisted on every resolved bet so the draw can be replayed
// offline without calling back into the service.
type RngTrace struct {
	ServerSeed string  `json:"server_seed"`
	ClientSeed string  `json:"client_seed"`
	Nonce      int64   `json:"nonce"`
	Draw       float64 `json:"draw"`
	Outcome    string  `json:"outcome"`
}

const (
	OutcomeWin  = "win"
	OutcomeLoss = "loss"
)
