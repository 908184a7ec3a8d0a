package fair

import (
	"encoding/json"

	"github.com/cryptomagiciian/casino-backend-sub001/internal/games"
	"github.com/cryptomagiciian/casino-backend-sub001/internal/model"
)

// VerifyInput carries everything a third party needs to replay a bet
// offline: the revealed seed, the bet-time client seed and nonce, the
// game, its params, and the hash the bet committed to.
type VerifyInput struct {
	ServerSeed     string
	ServerSeedHash string
	ClientSeed     string
	Nonce          int64
	Game           string
	Params         json.RawMessage
}

type VerifyResult struct {
	Valid      bool    `json:"valid"`
	Error      string  `json:"error,omitempty"`
	Draw       float64 `json:"draw,omitempty"`
	Outcome    string  `json:"outcome,omitempty"`
	Multiplier string  `json:"multiplier,omitempty"`
}

// Verify recomputes the commitment and, if it matches, replays the draw
// and outcome with the exact logic resolution uses. On a hash mismatch no
// outcome is computed at all.
func Verify(in VerifyInput) (*VerifyResult, error) {
	if HashSeed(in.ServerSeed) != in.ServerSeedHash {
		return &VerifyResult{Valid: false, Error: "hash mismatch"}, nil
	}

	rules, err := games.Lookup(in.Game)
	if err != nil {
		return nil, err
	}

	draw := Draw(in.ServerSeed, in.ClientSeed, in.Nonce)

	out, err := rules.Resolve(draw, in.Params)
	if err != nil {
		return nil, err
	}

	outcome := model.OutcomeLoss
	if out.Win {
		outcome = model.OutcomeWin
	}

	return &VerifyResult{
		Valid:      true,
		Draw:       draw,
		Outcome:    outcome,
		Multiplier: out.Multiplier.String(),
	}, nil
}
