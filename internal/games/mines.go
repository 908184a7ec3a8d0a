package games

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// mines reveals a grid with mineCount mines hidden in gridSize tiles. The
// bet wins iff the draw clears the loss threshold (mineCount/gridSize);
// the win multiplier scales linearly with the number of safe tiles.
type mines struct{}

const (
	minesDefaultGrid  = 25
	minesDefaultCount = 5
)

var minesStep = decimal.RequireFromString("0.05")

type MinesParams struct {
	GridSize  int `json:"grid_size"`
	MineCount int `json:"mine_count"`
}

func init() {
	register(mines{})
}

func (mines) ID() string { return "mines" }

func (mines) CanCashout() bool { return false }

func (mines) MaxMultiplier() decimal.Decimal {
	// Largest grid with a single mine.
	return minesMultiplier(minesDefaultGrid - 1)
}

func parseMinesParams(raw json.RawMessage) (MinesParams, error) {
	const op = "games.parseMinesParams"

	p := MinesParams{GridSize: minesDefaultGrid, MineCount: minesDefaultCount}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &p); err != nil {
			return p, fmt.Errorf("%s: %w", op, err)
		}
	}

	if p.GridSize <= 1 {
		p.GridSize = minesDefaultGrid
	}
	if p.MineCount < 1 {
		p.MineCount = minesDefaultCount
	}
	if p.MineCount >= p.GridSize {
		p.MineCount = p.GridSize - 1
	}

	return p, nil
}

func minesMultiplier(safeTiles int) decimal.Decimal {
	return decimal.NewFromInt(1).Add(minesStep.Mul(decimal.NewFromInt(int64(safeTiles))))
}

func minesOdds(p MinesParams) Odds {
	safeTiles := p.GridSize - p.MineCount
	winChance := float64(safeTiles) / float64(p.GridSize)

	return Odds{WinChance: winChance, Multiplier: minesMultiplier(safeTiles)}
}

func (g mines) PreviewOdds(raw json.RawMessage) (Odds, error) {
	p, err := parseMinesParams(raw)
	if err != nil {
		return Odds{}, err
	}

	return minesOdds(p), nil
}

func (g mines) Resolve(draw float64, raw json.RawMessage) (Outcome, error) {
	p, err := parseMinesParams(raw)
	if err != nil {
		return Outcome{}, err
	}

	lossThreshold := float64(p.MineCount) / float64(p.GridSize)
	if draw > lossThreshold {
		safeTiles := p.GridSize - p.MineCount

		return Outcome{Win: true, Multiplier: minesMultiplier(safeTiles)}, nil
	}

	return lossOutcome(), nil
}
