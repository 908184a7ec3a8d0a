package games

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// crash_curve escalates the multiplier in fixed 0.01 steps from 1.00. At
// each step the curve crashes iff ((draw*multiplier) mod 1) is below the
// crash probability, re-seeding the check from the same draw so replaying
// the draw reproduces the identical crash point. The curve is capped at
// 100x.
type crash struct{}

const (
	crashProbability = 0.01
	crashStepCount   = 9900 // steps of 0.01 between 1.00 and the 100x cap
)

var (
	crashCap           = decimal.NewFromInt(100)
	crashDefaultTarget = decimal.NewFromInt(2)
)

type CrashParams struct {
	// TargetMultiplier is the auto-cashout point frozen at placement; the
	// bet wins iff the curve reaches it before crashing.
	TargetMultiplier decimal.Decimal `json:"target_multiplier"`
}

func init() {
	register(crash{})
}

func (crash) ID() string { return "crash_curve" }

func (crash) CanCashout() bool { return true }

func (crash) MaxMultiplier() decimal.Decimal { return crashCap }

func parseCrashParams(raw json.RawMessage) (CrashParams, error) {
	const op = "games.parseCrashParams"

	p := CrashParams{TargetMultiplier: crashDefaultTarget}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &p); err != nil {
			return p, fmt.Errorf("%s: %w", op, err)
		}
	}

	if p.TargetMultiplier.LessThan(decimal.NewFromInt(1)) {
		p.TargetMultiplier = crashDefaultTarget
	}
	if p.TargetMultiplier.GreaterThan(crashCap) {
		p.TargetMultiplier = crashCap
	}

	return p, nil
}

// CrashPoint walks the curve for a draw and returns the multiplier it
// reached before crashing. Deterministic: same draw, same crash point.
func CrashPoint(draw float64) decimal.Decimal {
	for i := 0; i < crashStepCount; i++ {
		multiplier := float64(100+i) / 100

		if math.Mod(draw*multiplier, 1) < crashProbability {
			if i == 0 {
				return decimal.NewFromInt(1)
			}

			return decimal.New(int64(100+i-1), -2)
		}
	}

	return crashCap
}

func (g crash) PreviewOdds(raw json.RawMessage) (Odds, error) {
	p, err := parseCrashParams(raw)
	if err != nil {
		return Odds{}, err
	}

	// Chance the curve survives every step up to the target.
	steps := p.TargetMultiplier.Sub(decimal.NewFromInt(1)).Mul(decimal.NewFromInt(100)).IntPart()
	winChance := math.Pow(1-crashProbability, float64(steps))

	return Odds{WinChance: winChance, Multiplier: p.TargetMultiplier}, nil
}

func (g crash) Resolve(draw float64, raw json.RawMessage) (Outcome, error) {
	p, err := parseCrashParams(raw)
	if err != nil {
		return Outcome{}, err
	}

	if CrashPoint(draw).GreaterThanOrEqual(p.TargetMultiplier) {
		return Outcome{Win: true, Multiplier: p.TargetMultiplier}, nil
	}

	return lossOutcome(), nil
}
