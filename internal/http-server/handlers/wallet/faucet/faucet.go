package faucet

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/cryptomagiciian/casino-backend-sub001/internal/lib/api/auth"
	resp "github.com/cryptomagiciian/casino-backend-sub001/internal/lib/api/response"
	"github.com/cryptomagiciian/casino-backend-sub001/internal/lib/logger/sl"
	"github.com/cryptomagiciian/casino-backend-sub001/internal/money"
	"github.com/cryptomagiciian/casino-backend-sub001/internal/wallet"
	"golang.org/x/exp/slog"
)

const defaultNetwork = "mainnet"

type Request struct {
	Currency string `json:"currency" validate:"required"`
	Network  string `json:"network"`
	Amount   string `json:"amount" validate:"required"`
}

type Response struct {
	resp.Response
	Available string `json:"available"`
	Locked    string `json:"locked"`
}

type Faucet struct {
	log       *slog.Logger
	validator *validator.Validate
	wallet    *wallet.Coordinator
}

func New(log *slog.Logger, walletCoord *wallet.Coordinator) *Faucet {
	return &Faucet{log: log, validator: validator.New(), wallet: walletCoord}
}

// New credits test funds against the house account.
func (f *Faucet) New() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.wallet.faucet.New"

		log := f.log.With(
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

		if err = f.validator.Struct(req); err != nil {
			var validateErr validator.ValidationErrors
			if errors.As(err, &validateErr) {
				render.JSON(w, r, resp.ValidationError(validateErr))

				return
			}

			render.JSON(w, r, resp.Error("invalid request", http.StatusBadRequest))

			return
		}

		amount, err := money.ToPositiveSmallestUnits(req.Amount, req.Currency)
		if err != nil {
			render.JSON(w, r, resp.FromError(err))

			return
		}

		network := req.Network
		if network == "" {
			network = defaultNetwork
		}

		acc, err := f.wallet.Faucet(r.Context(), userID, req.Currency, amount, uuid.NewString(), network)
		if err != nil {
			log.Error("failed to credit faucet", sl.Err(err))

			render.JSON(w, r, resp.FromError(err))

			return
		}

		available, err := money.FromSmallestUnits(acc.Available, acc.Currency)
		if err != nil {
			render.JSON(w, r, resp.FromError(err))

			return
		}

		locked, err := money.FromSmallestUnits(acc.Locked, acc.Currency)
		if err != nil {
			render.JSON(w, r, resp.FromError(err))

			return
		}

		log.Info("faucet credited",
			sl.Int64("user_id", userID),
			sl.String("currency", req.Currency),
			sl.String("amount", req.Amount))

		render.JSON(w, r, Response{Response: resp.OK(), Available: available, Locked: locked})
	}
}
