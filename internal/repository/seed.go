package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/cryptomagiciian/casino-backend-sub001/internal/fair"
	"github.com/cryptomagiciian/casino-backend-sub001/internal/http-server/handlers/mysql"
	"github.com/cryptomagiciian/casino-backend-sub001/internal/model"
)

type SeedRepository struct {
	dbhandler *mysql.Handler
}

func NewSeedRepository(dbhandler *mysql.Handler) *SeedRepository {
	return &SeedRepository{dbhandler: dbhandler}
}

// active is NULL rather than 0 for retired seeds so the unique
// (user_id, active) index only guards the single live row.
const seedColumns = "id, user_id, server_seed, server_seed_hash, nonce, COALESCE(active, 0), created_at, revealed_at"

func scanSeed(row interface{ Scan(...interface{}) error }) (*model.FairnessSeed, error) {
	var (
		s          model.FairnessSeed
		revealedAt sql.NullTime
	)

	err := row.Scan(&s.ID, &s.UserID, &s.ServerSeed, &s.ServerSeedHash,
		&s.Nonce, &s.Active, &s.CreatedAt, &revealedAt)
	if err != nil {
		return nil, err
	}

	if revealedAt.Valid {
		s.RevealedAt = &revealedAt.Time
	}

	return &s, nil
}

func (repo *SeedRepository) ActiveSeed(ctx context.Context, userID int64) (*model.FairnessSeed, error) {
	const op = "repository.seed.ActiveSeed"

	row, err := repo.dbhandler.PrepareAndQueryRow(ctx,
		"SELECT "+seedColumns+" FROM fairness_seeds WHERE user_id = ? AND active = 1", userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	seed, err := scanSeed(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return seed, nil
}

func (repo *SeedRepository) CreateActiveSeed(ctx context.Context, seed model.FairnessSeed) (*model.FairnessSeed, error) {
	const op = "repository.seed.CreateActiveSeed"

	seed.CreatedAt = time.Now()

	res, err := repo.dbhandler.PrepareAndExecute(ctx,
		"INSERT INTO fairness_seeds(user_id, server_seed, server_seed_hash, nonce, active, created_at) "+
			"VALUES(?, ?, ?, ?, ?, ?)",
		seed.UserID, seed.ServerSeed, seed.ServerSeedHash, seed.Nonce, seed.Active, seed.CreatedAt)
	if err != nil {
		// Unique index on (user_id, active): a concurrent request already
		// created the active seed, hand that one back.
		if isDuplicateEntry(err) {
			existing, activeErr := repo.ActiveSeed(ctx, seed.UserID)
			if activeErr != nil {
				return nil, fmt.Errorf("%s: %w", op, activeErr)
			}
			if existing != nil {
				return existing, nil
			}
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if seed.ID, err = res.LastInsertId(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &seed, nil
}

func (repo *SeedRepository) DeactivateSeeds(ctx context.Context, userID int64) error {
	const op = "repository.seed.DeactivateSeeds"

	_, err := repo.dbhandler.PrepareAndExecute(ctx,
		"UPDATE fairness_seeds SET active = NULL WHERE user_id = ? AND active = 1", userID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// ConsumeNonce post-increments the active seed's nonce and returns the
// pre-increment value. The UPDATE and the read happen on one pinned
// connection inside a transaction, so concurrent consumers each get a
// distinct nonce.
func (repo *SeedRepository) ConsumeNonce(ctx context.Context, userID int64) (int64, error) {
	const op = "repository.seed.ConsumeNonce"

	var nonce int64

	err := withTx(ctx, repo.dbhandler.Conn, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			"UPDATE fairness_seeds SET nonce = (@seed_nonce := nonce) + 1 WHERE user_id = ? AND active = 1",
			userID)
		if err != nil {
			return err
		}

		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return fair.ErrSeedMissing
		}

		return tx.QueryRowContext(ctx, "SELECT @seed_nonce").Scan(&nonce)
	})
	if err != nil {
		if errors.Is(err, fair.ErrSeedMissing) {
			return 0, err
		}

		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return nonce, nil
}

func (repo *SeedRepository) SeedByID(ctx context.Context, userID, seedID int64) (*model.FairnessSeed, error) {
	const op = "repository.seed.SeedByID"

	row, err := repo.dbhandler.PrepareAndQueryRow(ctx,
		"SELECT "+seedColumns+" FROM fairness_seeds WHERE user_id = ? AND id = ?", userID, seedID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	seed, err := scanSeed(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return seed, nil
}

func (repo *SeedRepository) SeedByHash(ctx context.Context, userID int64, hash string) (*model.FairnessSeed, error) {
	const op = "repository.seed.SeedByHash"

	row, err := repo.dbhandler.PrepareAndQueryRow(ctx,
		"SELECT "+seedColumns+" FROM fairness_seeds WHERE user_id = ? AND server_seed_hash = ?", userID, hash)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	seed, err := scanSeed(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return seed, nil
}

func (repo *SeedRepository) MarkRevealed(ctx context.Context, seedID int64) error {
	const op = "repository.seed.MarkRevealed"

	_, err := repo.dbhandler.PrepareAndExecute(ctx,
		"UPDATE fairness_seeds SET revealed_at = ? WHERE id = ? AND revealed_at IS NULL",
		time.Now(), seedID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
