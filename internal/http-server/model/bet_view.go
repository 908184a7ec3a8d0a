package model

import (
	"encoding/json"
	"time"

	core "github.com/cryptomagiciian/casino-backend-sub001/internal/model"
	"github.com/cryptomagiciian/casino-backend-sub001/internal/money"
)

// BetView is the wire shape of a bet: amounts rendered as canonical decimal
// strings, the rng trace only present once the bet is resolved.
type BetView struct {
	UUID             string          `json:"uuid"`
	Game             string          `json:"game"`
	Currency         string          `json:"currency"`
	Network          string          `json:"network"`
	Stake            string          `json:"stake"`
	PotentialPayout  string          `json:"potential_payout"`
	ClientSeed       string          `json:"client_seed"`
	ServerSeedHash   string          `json:"server_seed_hash"`
	Nonce            int64           `json:"nonce"`
	Params           json.RawMessage `json:"params,omitempty"`
	Outcome          string          `json:"outcome,omitempty"`
	ResultMultiplier string          `json:"result_multiplier,omitempty"`
	Status           string          `json:"status"`
	RngTrace         *core.RngTrace  `json:"rng_trace,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	ResolvedAt       *time.Time      `json:"resolved_at,omitempty"`
	SettledAt        *time.Time      `json:"settled_at,omitempty"`
}

func NewBetView(b *core.Bet) (BetView, error) {
	stake, err := money.FromSmallestUnits(b.Stake, b.Currency)
	if err != nil {
		return BetView{}, err
	}

	payout, err := money.FromSmallestUnits(b.PotentialPayout, b.Currency)
	if err != nil {
		return BetView{}, err
	}

	return BetView{
		UUID:             b.UUID.String(),
		Game:             b.Game,
		Currency:         b.Currency,
		Network:          b.Network,
		Stake:            stake,
		PotentialPayout:  payout,
		ClientSeed:       b.ClientSeed,
		ServerSeedHash:   b.ServerSeedHash,
		Nonce:            b.Nonce,
		Params:           b.Params,
		Outcome:          b.Outcome,
		ResultMultiplier: b.ResultMultiplier,
		Status:           string(b.Status),
		RngTrace:         b.RngTrace,
		CreatedAt:        b.CreatedAt,
		ResolvedAt:       b.ResolvedAt,
		SettledAt:        b.SettledAt,
	}, nil
}

func NewBetViews(bets []core.Bet) ([]BetView, error) {
	views := make([]BetView, 0, len(bets))
	for i := range bets {
		v, err := NewBetView(&bets[i])
		if err != nil {
			return nil, err
		}

		views = append(views, v)
	}

	return views, nil
}
