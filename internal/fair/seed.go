package fair

import (
	"context"
	"errors"
	"fmt"

	"github.com/cryptomagiciian/casino-backend-sub001/internal/lib/logger/sl"
	"github.com/cryptomagiciian/casino-backend-sub001/internal/lib/random"
	"github.com/cryptomagiciian/casino-backend-sub001/internal/model"
	"golang.org/x/exp/slog"
)

var (
	// ErrSeedNotFound: reveal requested for an unknown seed, or one that is
	// still active and therefore secret.
	ErrSeedNotFound = errors.New("seed not found")
	// ErrSeedMissing: a resolve needed the plaintext for a committed hash
	// and no seed row matched. This is a data-integrity fault and is
	// surfaced, never papered over with a fresh seed.
	ErrSeedMissing = errors.New("fairness seed missing")
)

const serverSeedBytes = 32

// SeedRepository is the persistence the seed service needs. Nonce
// increments and active-seed creation must be atomic at the row level; the
// service runs in many request handlers at once.
//
//go:generate go run github.com/vektra/mockery/v2@v2.28.2 --name=SeedRepository
type SeedRepository interface {
	ActiveSeed(ctx context.Context, userID int64) (*model.FairnessSeed, error)
	CreateActiveSeed(ctx context.Context, seed model.FairnessSeed) (*model.FairnessSeed, error)
	DeactivateSeeds(ctx context.Context, userID int64) error
	// ConsumeNonce atomically increments the active seed's counter and
	// returns the pre-increment value, so a fresh seed hands out 0,1,2,...
	ConsumeNonce(ctx context.Context, userID int64) (int64, error)
	SeedByID(ctx context.Context, userID, seedID int64) (*model.FairnessSeed, error)
	SeedByHash(ctx context.Context, userID int64, hash string) (*model.FairnessSeed, error)
	MarkRevealed(ctx context.Context, seedID int64) error
}

type SeedService struct {
	repo SeedRepository
	log  *slog.Logger
}

func NewSeedService(repo SeedRepository, log *slog.Logger) *SeedService {
	return &SeedService{repo: repo, log: log}
}

// Commitment is what a player sees before betting: the hash of the server
// seed and the next nonce that a bet would consume. The plaintext never
// leaves this package while the seed is active.
type Commitment struct {
	SeedID         int64  `json:"seed_id"`
	ServerSeedHash string `json:"server_seed_hash"`
	NextNonce      int64  `json:"next_nonce"`
}

func (s *SeedService) GetOrCreateActiveSeed(ctx context.Context, userID int64) (*Commitment, error) {
	const op = "fair.SeedService.GetOrCreateActiveSeed"

	seed, err := s.repo.ActiveSeed(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if seed == nil {
		seed, err = s.createSeed(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	return &Commitment{
		SeedID:         seed.ID,
		ServerSeedHash: seed.ServerSeedHash,
		NextNonce:      seed.Nonce,
	}, nil
}

// NextNonce consumes one nonce from the user's active seed, creating the
// seed on first use. Two concurrent calls always observe distinct nonces.
func (s *SeedService) NextNonce(ctx context.Context, userID int64) (int64, error) {
	const op = "fair.SeedService.NextNonce"

	nonce, err := s.repo.ConsumeNonce(ctx, userID)
	if err == nil {
		return nonce, nil
	}

	if !errors.Is(err, ErrSeedMissing) {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	if _, err = s.createSeed(ctx, userID); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	nonce, err = s.repo.ConsumeNonce(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return nonce, nil
}

// RotateSeed retires the current seed and commits to a new one with the
// nonce reset to zero. Rotation does not reveal the old plaintext; it only
// makes the old seed eligible for reveal.
func (s *SeedService) RotateSeed(ctx context.Context, userID int64) (*Commitment, error) {
	const op = "fair.SeedService.RotateSeed"

	if err := s.repo.DeactivateSeeds(ctx, userID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	seed, err := s.createSeed(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("seed rotated",
		sl.Int64("user_id", userID),
		sl.String("server_seed_hash", seed.ServerSeedHash))

	return &Commitment{
		SeedID:         seed.ID,
		ServerSeedHash: seed.ServerSeedHash,
		NextNonce:      seed.Nonce,
	}, nil
}

// RevealSeed returns the plaintext of a specific rotated-out seed so its
// draws can be audited. Active seeds are never revealable.
func (s *SeedService) RevealSeed(ctx context.Context, userID, seedID int64) (*model.FairnessSeed, error) {
	const op = "fair.SeedService.RevealSeed"

	seed, err := s.repo.SeedByID(ctx, userID, seedID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if seed == nil || seed.Active {
		return nil, fmt.Errorf("%s: seed %d: %w", op, seedID, ErrSeedNotFound)
	}

	if seed.RevealedAt == nil {
		if err = s.repo.MarkRevealed(ctx, seed.ID); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	return seed, nil
}

// SeedByHash loads the plaintext seed matching a bet's recorded commit
// hash. A missing row means the audit chain is broken.
func (s *SeedService) SeedByHash(ctx context.Context, userID int64, hash string) (*model.FairnessSeed, error) {
	const op = "fair.SeedService.SeedByHash"

	seed, err := s.repo.SeedByHash(ctx, userID, hash)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if seed == nil {
		s.log.Error("no seed row for committed hash",
			sl.Int64("user_id", userID),
			sl.String("server_seed_hash", hash))

		return nil, fmt.Errorf("%s: %w", op, ErrSeedMissing)
	}

	return seed, nil
}

func (s *SeedService) createSeed(ctx context.Context, userID int64) (*model.FairnessSeed, error) {
	serverSeed := random.NewServerSeed(serverSeedBytes)

	return s.repo.CreateActiveSeed(ctx, model.FairnessSeed{
		UserID:         userID,
		ServerSeed:     serverSeed,
		ServerSeedHash: HashSeed(serverSeed),
		Nonce:          0,
		Active:         true,
	})
}
