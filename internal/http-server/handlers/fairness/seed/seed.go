package seed

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/cryptomagiciian/casino-backend-sub001/internal/fair"
	"github.com/cryptomagiciian/casino-backend-sub001/internal/lib/api/auth"
	resp "github.com/cryptomagiciian/casino-backend-sub001/internal/lib/api/response"
	"github.com/cryptomagiciian/casino-backend-sub001/internal/lib/logger/sl"
	"golang.org/x/exp/slog"
)

type CommitmentResponse struct {
	resp.Response
	Commitment *fair.Commitment `json:"commitment"`
}

type RevealResponse struct {
	resp.Response
	SeedID         int64      `json:"seed_id"`
	ServerSeed     string     `json:"server_seed"`
	ServerSeedHash string     `json:"server_seed_hash"`
	Nonce          int64      `json:"nonce"`
	RevealedAt     *time.Time `json:"revealed_at,omitempty"`
}

type Seed struct {
	log     *slog.Logger
	service *fair.SeedService
}

func New(log *slog.Logger, service *fair.SeedService) *Seed {
	return &Seed{log: log, service: service}
}

// Current returns the active commitment, creating the seed on first call.
func (s *Seed) Current() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.fairness.seed.Current"

		log := s.log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		userID, err := auth.UserID(r)
		if err != nil {
			render.JSON(w, r, resp.Error("unauthorized", http.StatusUnauthorized))

			return
		}

		commitment, err := s.service.GetOrCreateActiveSeed(r.Context(), userID)
		if err != nil {
			log.Error("failed to load active seed", sl.Err(err))

			render.JSON(w, r, resp.FromError(err))

			return
		}

		render.JSON(w, r, CommitmentResponse{Response: resp.OK(), Commitment: commitment})
	}
}

// Rotate retires the active seed and answers with the next commitment. The
// retired seed becomes revealable.
func (s *Seed) Rotate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.fairness.seed.Rotate"

		log := s.log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		userID, err := auth.UserID(r)
		if err != nil {
			render.JSON(w, r, resp.Error("unauthorized", http.StatusUnauthorized))

			return
		}

		commitment, err := s.service.RotateSeed(r.Context(), userID)
		if err != nil {
			log.Error("failed to rotate seed", sl.Err(err))

			render.JSON(w, r, resp.FromError(err))

			return
		}

		render.JSON(w, r, CommitmentResponse{Response: resp.OK(), Commitment: commitment})
	}
}

// Reveal hands out the plaintext of a rotated-out seed.
func (s *Seed) Reveal() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.fairness.seed.Reveal"

		log := s.log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		userID, err := auth.UserID(r)
		if err != nil {
			render.JSON(w, r, resp.Error("unauthorized", http.StatusUnauthorized))

			return
		}

		seedID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			render.JSON(w, r, resp.Error("invalid seed id", http.StatusBadRequest))

			return
		}

		revealed, err := s.service.RevealSeed(r.Context(), userID, seedID)
		if err != nil {
			log.Error("failed to reveal seed", sl.Err(err))

			render.JSON(w, r, resp.FromError(err))

			return
		}

		render.JSON(w, r, RevealResponse{
			Response:       resp.OK(),
			SeedID:         revealed.ID,
			ServerSeed:     revealed.ServerSeed,
			ServerSeedHash: revealed.ServerSeedHash,
			Nonce:          revealed.Nonce,
			RevealedAt:     revealed.RevealedAt,
		})
	}
}
