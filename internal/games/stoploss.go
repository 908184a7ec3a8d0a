package games

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// stop_loss trades distance for payout: the tighter the stop, the higher
// the multiplier and the lower the chance of surviving. multiplier =
// min(cap, 1 + k/distance) and winChance = 1/multiplier, so the trade-off
// is enforced by construction and preview can never drift from resolve.
type stopLoss struct{}

var (
	stopLossK   = decimal.NewFromInt(1)
	stopLossCap = decimal.NewFromInt(50)
)

// divPrecision bounds the decimal division so the multiplier is a stable,
// replayable value.
const divPrecision = 8

type StopLossParams struct {
	Distance decimal.Decimal `json:"distance"`
}

func init() {
	register(stopLoss{})
}

func (stopLoss) ID() string { return "stop_loss" }

func (stopLoss) CanCashout() bool { return false }

func (stopLoss) MaxMultiplier() decimal.Decimal { return stopLossCap }

func parseStopLossParams(raw json.RawMessage) (StopLossParams, error) {
	const op = "games.parseStopLossParams"

	p := StopLossParams{Distance: decimal.RequireFromString("1")}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &p); err != nil {
			return p, fmt.Errorf("%s: %w", op, err)
		}
	}

	if p.Distance.Sign() <= 0 {
		p.Distance = decimal.RequireFromString("1")
	}

	return p, nil
}

func stopLossOdds(p StopLossParams) Odds {
	multiplier := decimal.NewFromInt(1).Add(stopLossK.DivRound(p.Distance, divPrecision))
	if multiplier.GreaterThan(stopLossCap) {
		multiplier = stopLossCap
	}

	winChance, _ := decimal.NewFromInt(1).DivRound(multiplier, divPrecision).Float64()

	return Odds{WinChance: winChance, Multiplier: multiplier}
}

func (g stopLoss) PreviewOdds(raw json.RawMessage) (Odds, error) {
	p, err := parseStopLossParams(raw)
	if err != nil {
		return Odds{}, err
	}

	return stopLossOdds(p), nil
}

func (g stopLoss) Resolve(draw float64, raw json.RawMessage) (Outcome, error) {
	p, err := parseStopLossParams(raw)
	if err != nil {
		return Outcome{}, err
	}

	odds := stopLossOdds(p)
	if draw < odds.WinChance {
		return Outcome{Win: true, Multiplier: odds.Multiplier}, nil
	}

	return lossOutcome(), nil
}
