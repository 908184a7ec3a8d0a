package preview

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/cryptomagiciian/casino-backend-sub001/internal/bet"
	"github.com/cryptomagiciian/casino-backend-sub001/internal/games"
	resp "github.com/cryptomagiciian/casino-backend-sub001/internal/lib/api/response"
	"github.com/cryptomagiciian/casino-backend-sub001/internal/lib/logger/sl"
	"golang.org/x/exp/slog"
)

type Request struct {
	Game   string          `json:"game" validate:"required"`
	Params json.RawMessage `json:"params"`
}

type Response struct {
	resp.Response
	Odds games.Odds `json:"odds"`
}

type Preview struct {
	log       *slog.Logger
	validator *validator.Validate
	service   *bet.Service
}

func New(log *slog.Logger, service *bet.Service) *Preview {
	return &Preview{log: log, validator: validator.New(), service: service}
}

func (p *Preview) New() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.bet.preview.New"

		log := p.log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req Request
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("failed to decode request body", sl.Err(err))

			render.JSON(w, r, resp.Error("failed to decode request body", http.StatusBadRequest))

			return
		}

		if err := p.validator.Struct(req); err != nil {
			var validateErr validator.ValidationErrors
			if errors.As(err, &validateErr) {
				render.JSON(w, r, resp.ValidationError(validateErr))

				return
			}

			render.JSON(w, r, resp.Error("invalid request", http.StatusBadRequest))

			return
		}

		odds, err := p.service.Preview(req.Game, req.Params)
		if err != nil {
			log.Error("failed to preview odds", sl.Err(err))

			render.JSON(w, r, resp.FromError(err))

			return
		}

		render.JSON(w, r, Response{Response: resp.OK(), Odds: odds})
	}
}
