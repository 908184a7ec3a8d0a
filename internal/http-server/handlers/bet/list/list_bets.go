package list

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/cryptomagiciian/casino-backend-sub001/internal/bet"
	view "github.com/cryptomagiciian/casino-backend-sub001/internal/http-server/model"
	"github.com/cryptomagiciian/casino-backend-sub001/internal/lib/api/auth"
	resp "github.com/cryptomagiciian/casino-backend-sub001/internal/lib/api/response"
	"github.com/cryptomagiciian/casino-backend-sub001/internal/lib/logger/sl"
	core "github.com/cryptomagiciian/casino-backend-sub001/internal/model"
	"golang.org/x/exp/slog"
)

type Response struct {
	resp.Response
	Bets []view.BetView `json:"bets"`
}

type Bets struct {
	log     *slog.Logger
	service *bet.Service
}

func NewBets(log *slog.Logger, service *bet.Service) *Bets {
	return &Bets{log: log, service: service}
}

func (b *Bets) New() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.bet.list.New"

		log := b.log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		userID, err := auth.UserID(r)
		if err != nil {
			render.JSON(w, r, resp.Error("unauthorized", http.StatusUnauthorized))

			return
		}

		query := r.URL.Query()

		limit, _ := strconv.Atoi(query.Get("limit"))
		offset, _ := strconv.Atoi(query.Get("offset"))

		bets, err := b.service.ListUserBets(r.Context(), userID, bet.ListFilter{
			Game:   query.Get("game"),
			Status: core.BetStatus(query.Get("status")),
			Limit:  limit,
			Offset: offset,
		})
		if err != nil {
			log.Error("failed to list bets", sl.Err(err))

			render.JSON(w, r, resp.FromError(err))

			return
		}

		views, err := view.NewBetViews(bets)
		if err != nil {
			log.Error("failed to render bets", sl.Err(err))

			render.JSON(w, r, resp.Error("internal error", http.StatusInternalServerError))

			return
		}

		render.JSON(w, r, Response{Response: resp.OK(), Bets: views})
	}
}
