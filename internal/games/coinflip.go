package games

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// The four binary games share one mechanic: win iff draw < winChance, at a
// fixed payout multiplier with the house edge baked in (multiplier is
// always below 1/winChance). A loss pays zero.
type coinFlip struct {
	id         string
	winChance  float64
	multiplier decimal.Decimal
}

func init() {
	register(coinFlip{id: "candle_flip", winChance: 0.495, multiplier: decimal.RequireFromString("1.98")})
	register(coinFlip{id: "pump_or_dump", winChance: 0.495, multiplier: decimal.RequireFromString("1.98")})
	register(coinFlip{id: "bull_vs_bear", winChance: 0.48, multiplier: decimal.RequireFromString("2")})
	register(coinFlip{id: "support_or_resistance", winChance: 0.30, multiplier: decimal.RequireFromString("3.2")})
}

func (g coinFlip) ID() string { return g.id }

func (g coinFlip) CanCashout() bool { return false }

func (g coinFlip) MaxMultiplier() decimal.Decimal { return g.multiplier }

func (g coinFlip) PreviewOdds(_ json.RawMessage) (Odds, error) {
	return Odds{WinChance: g.winChance, Multiplier: g.multiplier}, nil
}

func (g coinFlip) Resolve(draw float64, _ json.RawMessage) (Outcome, error) {
	if draw < g.winChance {
		return Outcome{Win: true, Multiplier: g.multiplier}, nil
	}

	return lossOutcome(), nil
}
