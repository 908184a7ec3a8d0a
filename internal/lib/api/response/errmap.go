package response

import (
	"errors"
	"net/http"

	"github.com/cryptomagiciian/casino-backend-sub001/internal/bet"
	"github.com/cryptomagiciian/casino-backend-sub001/internal/fair"
	"github.com/cryptomagiciian/casino-backend-sub001/internal/games"
	"github.com/cryptomagiciian/casino-backend-sub001/internal/ledger"
	"github.com/cryptomagiciian/casino-backend-sub001/internal/money"
	"github.com/cryptomagiciian/casino-backend-sub001/internal/wallet"
)

// FromError maps a domain error to its stable code and HTTP status.
// Unrecognized errors come back as INTERNAL with a generic message so
// wrapped op chains never leak to clients.
func FromError(err error) Response {
	switch {
	case errors.Is(err, money.ErrInvalidAmount):
		return ErrorCode(CodeInvalidAmount, "invalid amount", http.StatusBadRequest)
	case errors.Is(err, wallet.ErrInsufficientBalance):
		return ErrorCode(CodeInsufficientBalance, "insufficient balance", http.StatusConflict)
	case errors.Is(err, games.ErrUnknownGame):
		return ErrorCode(CodeUnknownGame, "unknown game", http.StatusNotFound)
	case errors.Is(err, bet.ErrBetNotFound):
		return ErrorCode(CodeBetNotFound, "bet not found", http.StatusNotFound)
	case errors.Is(err, bet.ErrBetAlreadyResolved):
		return ErrorCode(CodeBetAlreadyResolved, "bet already resolved", http.StatusConflict)
	case errors.Is(err, bet.ErrUnsupportedForGame):
		return ErrorCode(CodeUnsupportedForGame, "operation not supported for game", http.StatusUnprocessableEntity)
	case errors.Is(err, bet.ErrInvalidMultiplier):
		return ErrorCode(CodeBadRequest, "invalid cashout multiplier", http.StatusBadRequest)
	case errors.Is(err, fair.ErrSeedMissing):
		return ErrorCode(CodeFairnessSeedMissing, "fairness seed missing", http.StatusInternalServerError)
	case errors.Is(err, fair.ErrSeedNotFound):
		return ErrorCode(CodeSeedNotFound, "seed not found", http.StatusNotFound)
	case errors.Is(err, ledger.ErrUnbalancedTransaction):
		return ErrorCode(CodeUnbalancedTransaction, "unbalanced transaction", http.StatusInternalServerError)
	default:
		return ErrorCode(CodeInternal, "internal error", http.StatusInternalServerError)
	}
}
