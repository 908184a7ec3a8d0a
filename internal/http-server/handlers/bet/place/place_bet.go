package place

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/cryptomagiciian/casino-backend-sub001/internal/bet"
	view "github.com/cryptomagiciian/casino-backend-sub001/internal/http-server/model"
	infra "github.com/cryptomagiciian/casino-backend-sub001/internal/infra/redis"
	"github.com/cryptomagiciian/casino-backend-sub001/internal/lib/api/auth"
	resp "github.com/cryptomagiciian/casino-backend-sub001/internal/lib/api/response"
	"github.com/cryptomagiciian/casino-backend-sub001/internal/lib/logger/sl"
	"golang.org/x/exp/slog"
)

const (
	idempotencyHeader = "Idempotency-Key"
	lockTTL           = 30 * time.Second
	resultTTL         = 10 * time.Minute
)

type Request struct {
	Game       string          `json:"game" validate:"required"`
	Currency   string          `json:"currency" validate:"required"`
	Network    string          `json:"network"`
	Amount     string          `json:"amount" validate:"required"`
	ClientSeed string          `json:"client_seed"`
	Params     json.RawMessage `json:"params"`
}

type Response struct {
	resp.Response
	Bet view.BetView `json:"bet"`
}

// Idempotency guards duplicate place requests. Nil-safe: without Redis the
// handler simply places every request it receives.
type Idempotency interface {
	AcquireLock(ctx context.Context, key, owner string, ttl time.Duration) error
	ReleaseLock(ctx context.Context, key, owner string) error
	CacheResult(ctx context.Context, key string, payload []byte, ttl time.Duration) error
	CachedResult(ctx context.Context, key string) ([]byte, error)
}

type Bet struct {
	log         *slog.Logger
	validator   *validator.Validate
	service     *bet.Service
	idempotency Idempotency
}

func NewBet(log *slog.Logger, service *bet.Service, idempotency Idempotency) *Bet {
	return &Bet{
		log:         log,
		validator:   validator.New(),
		service:     service,
		idempotency: idempotency,
	}
}

func (b *Bet) New() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.bet.place.New"

		log := b.log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		userID, err := auth.UserID(r)
		if err != nil {
			render.JSON(w, r, resp.Error("unauthorized", http.StatusUnauthorized))

			return
		}

		var req Request
		if err = render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("failed to decode request body", sl.Err(err))

			render.JSON(w, r, resp.Error("failed to decode request body", http.StatusBadRequest))

			return
		}

		if err = b.validator.Struct(req); err != nil {
			var validateErr validator.ValidationErrors
			if errors.As(err, &validateErr) {
				render.JSON(w, r, resp.ValidationError(validateErr))

				return
			}

			render.JSON(w, r, resp.Error("invalid request", http.StatusBadRequest))

			return
		}

		idemKey := r.Header.Get(idempotencyHeader)

		if replay, done := b.tryReplay(r, userID, idemKey, log); done {
			render.JSON(w, r, replay)

			return
		}

		owner := uuid.NewString()
		if locked, done := b.tryLock(r, userID, idemKey, owner, log); done {
			render.JSON(w, r, locked)

			return
		}
		defer b.unlock(r, userID, idemKey, owner, log)

		placed, err := b.service.Place(r.Context(), bet.PlaceInput{
			UserID:     userID,
			Game:       req.Game,
			Currency:   req.Currency,
			Network:    req.Network,
			Amount:     req.Amount,
			ClientSeed: req.ClientSeed,
			Params:     req.Params,
		})
		if err != nil {
			log.Error("failed to place bet", sl.Err(err))

			render.JSON(w, r, resp.FromError(err))

			return
		}

		betView, err := view.NewBetView(placed)
		if err != nil {
			log.Error("failed to render bet", sl.Err(err))

			render.JSON(w, r, resp.Error("internal error", http.StatusInternalServerError))

			return
		}

		response := Response{Response: resp.OK(), Bet: betView}

		b.cacheResult(r, userID, idemKey, response, log)

		log.Info("bet placed",
			sl.String("bet_uuid", placed.UUID.String()),
			sl.String("game", placed.Game))

		render.JSON(w, r, response)
	}
}

// tryReplay serves the cached response for a repeated idempotency key.
func (b *Bet) tryReplay(r *http.Request, userID int64, idemKey string, log *slog.Logger) (any, bool) {
	if b.idempotency == nil || idemKey == "" {
		return nil, false
	}

	payload, err := b.idempotency.CachedResult(r.Context(), infra.PlaceResultKey(userID, idemKey))
	if err != nil {
		log.Warn("idempotency cache unavailable", sl.Err(err))

		return nil, false
	}
	if payload == nil {
		return nil, false
	}

	var cached Response
	if err = json.Unmarshal(payload, &cached); err != nil {
		log.Warn("failed to decode cached response", sl.Err(err))

		return nil, false
	}

	log.Info("replaying cached placement", sl.String("idempotency_key", idemKey))

	return cached, true
}

func (b *Bet) tryLock(r *http.Request, userID int64, idemKey, owner string, log *slog.Logger) (any, bool) {
	if b.idempotency == nil || idemKey == "" {
		return nil, false
	}

	err := b.idempotency.AcquireLock(r.Context(), infra.PlaceLockKey(userID, idemKey), owner, lockTTL)
	if err == nil {
		return nil, false
	}

	if errors.Is(err, infra.ErrLockNotAcquired) {
		return resp.ErrorCode(resp.CodeDuplicateRequest, "request already in flight", http.StatusConflict), true
	}

	// Redis down degrades to no idempotency rather than refusing bets.
	log.Warn("idempotency lock unavailable", sl.Err(err))

	return nil, false
}

func (b *Bet) unlock(r *http.Request, userID int64, idemKey, owner string, log *slog.Logger) {
	if b.idempotency == nil || idemKey == "" {
		return
	}

	if err := b.idempotency.ReleaseLock(r.Context(), infra.PlaceLockKey(userID, idemKey), owner); err != nil {
		log.Warn("failed to release idempotency lock", sl.Err(err))
	}
}

func (b *Bet) cacheResult(r *http.Request, userID int64, idemKey string, response Response, log *slog.Logger) {
	if b.idempotency == nil || idemKey == "" {
		return
	}

	payload, err := json.Marshal(response)
	if err != nil {
		log.Warn("failed to encode response for cache", sl.Err(err))

		return
	}

	if err = b.idempotency.CacheResult(r.Context(), infra.PlaceResultKey(userID, idemKey), payload, resultTTL); err != nil {
		log.Warn("failed to cache placement result", sl.Err(err))
	}
}
