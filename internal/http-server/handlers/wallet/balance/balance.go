package balance

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/cryptomagiciian/casino-backend-sub001/internal/lib/api/auth"
	resp "github.com/cryptomagiciian/casino-backend-sub001/internal/lib/api/response"
	"github.com/cryptomagiciian/casino-backend-sub001/internal/lib/logger/sl"
	"github.com/cryptomagiciian/casino-backend-sub001/internal/money"
	"github.com/cryptomagiciian/casino-backend-sub001/internal/wallet"
	"golang.org/x/exp/slog"
)

const defaultNetwork = "mainnet"

type Response struct {
	resp.Response
	Currency  string `json:"currency"`
	Network   string `json:"network"`
	Available string `json:"available"`
	Locked    string `json:"locked"`
}

type Balance struct {
	log    *slog.Logger
	wallet *wallet.Coordinator
}

func New(log *slog.Logger, walletCoord *wallet.Coordinator) *Balance {
	return &Balance{log: log, wallet: walletCoord}
}

func (b *Balance) New() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.wallet.balance.New"

		log := b.log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		userID, err := auth.UserID(r)
		if err != nil {
			render.JSON(w, r, resp.Error("unauthorized", http.StatusUnauthorized))

			return
		}

		currency := r.URL.Query().Get("currency")
		if currency == "" {
			render.JSON(w, r, resp.Error("currency is required", http.StatusBadRequest))

			return
		}

		network := r.URL.Query().Get("network")
		if network == "" {
			network = defaultNetwork
		}

		acc, err := b.wallet.GetOrCreateAccount(r.Context(), userID, currency, network)
		if err != nil {
			log.Error("failed to load account", sl.Err(err))

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

		render.JSON(w, r, Response{
			Response:  resp.OK(),
			Currency:  acc.Currency,
			Network:   acc.Network,
			Available: available,
			Locked:    locked,
		})
	}
}
