package games

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// leverage_ladder climbs one level per resolve. Win chance is a decreasing
// step function over level bands; the payout on a win is base^level. A loss
// at any level forfeits the whole stake, regardless of levels already
// cleared — the caller carries the current level in the params.
type ladder struct{}

const (
	ladderMaxLevel = 20
)

var ladderBase = decimal.RequireFromString("1.2")

type LadderParams struct {
	CurrentLevel int    `json:"current_level"`
	Action       string `json:"action"`
}

func init() {
	register(ladder{})
}

func (ladder) ID() string { return "leverage_ladder" }

func (ladder) CanCashout() bool { return true }

func (ladder) MaxMultiplier() decimal.Decimal {
	return ladderBase.Pow(decimal.NewFromInt(ladderMaxLevel))
}

func parseLadderParams(raw json.RawMessage) (LadderParams, error) {
	const op = "games.parseLadderParams"

	p := LadderParams{CurrentLevel: 1, Action: "climb"}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &p); err != nil {
			return p, fmt.Errorf("%s: %w", op, err)
		}
	}

	if p.CurrentLevel < 1 {
		p.CurrentLevel = 1
	}
	if p.CurrentLevel > ladderMaxLevel {
		p.CurrentLevel = ladderMaxLevel
	}
	if p.Action == "" {
		p.Action = "climb"
	}

	return p, nil
}

// ladderWinChance bands widen as they descend; the climb gets harder in
// steps rather than per level.
func ladderWinChance(level int) float64 {
	switch {
	case level <= 3:
		return 0.50
	case level <= 6:
		return 0.40
	case level <= 9:
		return 0.32
	default:
		return 0.25
	}
}

func ladderMultiplier(level int) decimal.Decimal {
	return ladderBase.Pow(decimal.NewFromInt(int64(level)))
}

func (g ladder) PreviewOdds(raw json.RawMessage) (Odds, error) {
	p, err := parseLadderParams(raw)
	if err != nil {
		return Odds{}, err
	}

	return Odds{
		WinChance:  ladderWinChance(p.CurrentLevel),
		Multiplier: ladderMultiplier(p.CurrentLevel),
	}, nil
}

func (g ladder) Resolve(draw float64, raw json.RawMessage) (Outcome, error) {
	p, err := parseLadderParams(raw)
	if err != nil {
		return Outcome{}, err
	}

	if draw < ladderWinChance(p.CurrentLevel) {
		return Outcome{Win: true, Multiplier: ladderMultiplier(p.CurrentLevel)}, nil
	}

	return lossOutcome(), nil
}
