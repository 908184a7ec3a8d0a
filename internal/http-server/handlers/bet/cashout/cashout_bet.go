package cashout

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/cryptomagiciian/casino-backend-sub001/internal/bet"
	view "github.com/cryptomagiciian/casino-backend-sub001/internal/http-server/model"
	"github.com/cryptomagiciian/casino-backend-sub001/internal/lib/api/auth"
	resp "github.com/cryptomagiciian/casino-backend-sub001/internal/lib/api/response"
	"github.com/cryptomagiciian/casino-backend-sub001/internal/lib/logger/sl"
	"golang.org/x/exp/slog"
)

type Request struct {
	Multiplier string `json:"multiplier" validate:"required"`
}

type Response struct {
	resp.Response
	Bet view.BetView `json:"bet"`
}

type Bet struct {
	log       *slog.Logger
	validator *validator.Validate
	service   *bet.Service
}

func NewBet(log *slog.Logger, service *bet.Service) *Bet {
	return &Bet{log: log, validator: validator.New(), service: service}
}

func (b *Bet) New() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.bet.cashout.New"

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

		cashed, err := b.service.Cashout(r.Context(), userID, betUUID, req.Multiplier)
		if err != nil {
			log.Error("failed to cash out bet", sl.Err(err))

			render.JSON(w, r, resp.FromError(err))

			return
		}

		betView, err := view.NewBetView(cashed)
		if err != nil {
			log.Error("failed to render bet", sl.Err(err))

			render.JSON(w, r, resp.Error("internal error", http.StatusInternalServerError))

			return
		}

		log.Info("bet cashed out",
			sl.String("bet_uuid", betUUID.String()),
			sl.String("multiplier", betView.ResultMultiplier))

		render.JSON(w, r, Response{Response: resp.OK(), Bet: betView})
	}
}
