package verify

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/cryptomagiciian/casino-backend-sub001/internal/fair"
	resp "github.com/cryptomagiciian/casino-backend-sub001/internal/lib/api/response"
	"github.com/cryptomagiciian/casino-backend-sub001/internal/lib/logger/sl"
	"golang.org/x/exp/slog"
)

// Verification is stateless: everything it needs arrives in the request,
// and anyone can run the same check offline.
type Request struct {
	ServerSeed     string          `json:"server_seed" validate:"required"`
	ServerSeedHash string          `json:"server_seed_hash" validate:"required"`
	ClientSeed     string          `json:"client_seed" validate:"required"`
	Nonce          int64           `json:"nonce" validate:"min=0"`
	Game           string          `json:"game" validate:"required"`
	Params         json.RawMessage `json:"params"`
}

type Response struct {
	resp.Response
	Result *fair.VerifyResult `json:"result"`
}

type Verify struct {
	log       *slog.Logger
	validator *validator.Validate
}

func New(log *slog.Logger) *Verify {
	return &Verify{log: log, validator: validator.New()}
}

func (v *Verify) New() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.fairness.verify.New"

		log := v.log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req Request
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("failed to decode request body", sl.Err(err))

			render.JSON(w, r, resp.Error("failed to decode request body", http.StatusBadRequest))

			return
		}

		if err := v.validator.Struct(req); err != nil {
			var validateErr validator.ValidationErrors
			if errors.As(err, &validateErr) {
				render.JSON(w, r, resp.ValidationError(validateErr))

				return
			}

			render.JSON(w, r, resp.Error("invalid request", http.StatusBadRequest))

			return
		}

		result, err := fair.Verify(fair.VerifyInput{
			ServerSeed:     req.ServerSeed,
			ServerSeedHash: req.ServerSeedHash,
			ClientSeed:     req.ClientSeed,
			Nonce:          req.Nonce,
			Game:           req.Game,
			Params:         req.Params,
		})
		if err != nil {
			log.Error("failed to verify draw", sl.Err(err))

			render.JSON(w, r, resp.FromError(err))

			return
		}

		render.JSON(w, r, Response{Response: resp.OK(), Result: result})
	}
}
