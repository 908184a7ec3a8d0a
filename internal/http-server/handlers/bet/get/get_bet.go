package get

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/cryptomagiciian/casino-backend-sub001/internal/bet"
	view "github.com/cryptomagiciian/casino-backend-sub001/internal/http-server/model"
	"github.com/cryptomagiciian/casino-backend-sub001/internal/lib/api/auth"
	resp "github.com/cryptomagiciian/casino-backend-sub001/internal/lib/api/response"
	"github.com/cryptomagiciian/casino-backend-sub001/internal/lib/logger/sl"
	"golang.org/x/exp/slog"
)

type Response struct {
	resp.Response
	Bet view.BetView `json:"bet"`
}

type Bet struct {
	log     *slog.Logger
	service *bet.Service
}

func NewBet(log *slog.Logger, service *bet.Service) *Bet {
	return &Bet{log: log, service: service}
}

func (b *Bet) New() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.bet.get.New"

		log := b.log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		userID, err := auth.UserID(r)
		if err != nil {
			render.JSON(w, r, resp.Error("unauthorized", http.StatusUnauthorized))

			return
		}

		betUUID, err := uuid.Parse(chi.URLParam(r, "uuid"))
		if err != nil {
			render.JSON(w, r, resp.Error("invalid bet uuid", http.StatusBadRequest))

			return
		}

		found, err := b.service.GetBet(r.Context(), userID, betUUID)
		if err != nil {
			log.Error("failed to get bet", sl.Err(err))

			render.JSON(w, r, resp.FromError(err))

			return
		}

		betView, err := view.NewBetView(found)
		if err != nil {
			log.Error("failed to render bet", sl.Err(err))

			render.JSON(w, r, resp.Error("internal error", http.StatusInternalServerError))

			return
		}

		render.JSON(w, r, Response{Response: resp.OK(), Bet: betView})
	}
}
