package games

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var ErrUnknownGame = errors.New("unknown game")

// Odds is what a preview shows: the chance of winning and the multiplier
// applied to the stake on a win. Preview and resolve read the same per-game
// configuration, so the two can never disagree.
type Odds struct {
	WinChance  float64         `json:"win_chance"`
	Multiplier decimal.Decimal `json:"multiplier"`
}

type Outcome struct {
	Win        bool            `json:"win"`
	Multiplier decimal.Decimal `json:"multiplier"`
}

// Rules is the closed per-game variant set. Every implementation is a pure
// function of the draw and its typed params; registration happens once at
// package init and unknown ids fail fast with ErrUnknownGame.
type Rules interface {
	ID() string
	PreviewOdds(params json.RawMessage) (Odds, error)
	Resolve(draw float64, params json.RawMessage) (Outcome, error)
	// CanCashout reports whether the game supports a player-initiated
	// cashout before resolution (crash_curve, leverage_ladder).
	CanCashout() bool
	// MaxMultiplier caps any multiplier the game can settle at, including
	// a claimed cashout multiplier.
	MaxMultiplier() decimal.Decimal
}

var registry = map[string]Rules{}

func register(r Rules) {
	if _, dup := registry[r.ID()]; dup {
		panic(fmt.Sprintf("games: duplicate registration for %q", r.ID()))
	}

	registry[r.ID()] = r
}

// Lookup returns the rules for a game id.
func Lookup(game string) (Rules, error) {
	const op = "games.Lookup"

	r, ok := registry[game]
	if !ok {
		return nil, fmt.Errorf("%s: %q: %w", op, game, ErrUnknownGame)
	}

	return r, nil
}

// IDs lists every registered game id, for diagnostics and the games index
// endpoint.
func IDs() []string {
	ids := make([]string, 0, len(registry))
	for id := range registry {
		ids = append(ids, id)
	}

	return ids
}

func lossOutcome() Outcome {
	return Outcome{Win: false, Multiplier: decimal.Zero}
}
