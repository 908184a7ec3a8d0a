package entries

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/cryptomagiciian/casino-backend-sub001/internal/ledger"
	"github.com/cryptomagiciian/casino-backend-sub001/internal/lib/api/auth"
	resp "github.com/cryptomagiciian/casino-backend-sub001/internal/lib/api/response"
	"github.com/cryptomagiciian/casino-backend-sub001/internal/lib/logger/sl"
	core "github.com/cryptomagiciian/casino-backend-sub001/internal/model"
	"github.com/cryptomagiciian/casino-backend-sub001/internal/wallet"
	"golang.org/x/exp/slog"
)

const defaultNetwork = "mainnet"

type Response struct {
	resp.Response
	Entries []core.LedgerEntry `json:"entries"`
}

type Entries struct {
	log    *slog.Logger
	wallet *wallet.Coordinator
	ledger *ledger.Service
}

func New(log *slog.Logger, walletCoord *wallet.Coordinator, ledgerSvc *ledger.Service) *Entries {
	return &Entries{log: log, wallet: walletCoord, ledger: ledgerSvc}
}

// New pages through the account's ledger history, newest first.
func (e *Entries) New() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.wallet.entries.New"

		log := e.log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		userID, err := auth.UserID(r)
		if err != nil {
			render.JSON(w, r, resp.Error("unauthorized", http.StatusUnauthorized))

			return
		}

		query := r.URL.Query()

		currency := query.Get("currency")
		if currency == "" {
			render.JSON(w, r, resp.Error("currency is required", http.StatusBadRequest))

			return
		}

		network := query.Get("network")
		if network == "" {
			network = defaultNetwork
		}

		acc, err := e.wallet.GetOrCreateAccount(r.Context(), userID, currency, network)
		if err != nil {
			log.Error("failed to load account", sl.Err(err))

			render.JSON(w, r, resp.FromError(err))

			return
		}

		limit, _ := strconv.Atoi(query.Get("limit"))
		offset, _ := strconv.Atoi(query.Get("offset"))

		entries, err := e.ledger.Entries(r.Context(), acc.ID, limit, offset)
		if err != nil {
			log.Error("failed to load entries", sl.Err(err))

			render.JSON(w, r, resp.FromError(err))

			return
		}

		render.JSON(w, r, Response{Response: resp.OK(), Entries: entries})
	}
}
