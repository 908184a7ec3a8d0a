package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/cryptomagiciian/casino-backend-sub001/internal/http-server/handlers/mysql"
	"github.com/cryptomagiciian/casino-backend-sub001/internal/model"
	"github.com/cryptomagiciian/casino-backend-sub001/internal/wallet"
)

type WalletRepository struct {
	dbhandler *mysql.Handler
}

func NewWalletRepository(dbhandler *mysql.Handler) *WalletRepository {
	return &WalletRepository{dbhandler: dbhandler}
}

const accountColumns = "id, user_id, currency, network, available, locked, created_at, updated_at"

func scanAccount(row interface{ Scan(...interface{}) error }) (*model.Account, error) {
	var acc model.Account

	err := row.Scan(&acc.ID, &acc.UserID, &acc.Currency, &acc.Network,
		&acc.Available, &acc.Locked, &acc.CreatedAt, &acc.UpdatedAt)
	if err != nil {
		return nil, err
	}

	return &acc, nil
}

func (repo *WalletRepository) GetOrCreateAccount(ctx context.Context, userID int64, currency, network string) (*model.Account, error) {
	const op = "repository.wallet.GetOrCreateAccount"

	acc, err := repo.accountByKey(ctx, userID, currency, network)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if acc != nil {
		return acc, nil
	}

	now := time.Now()

	_, err = repo.dbhandler.PrepareAndExecute(ctx,
		"INSERT INTO accounts(user_id, currency, network, available, locked, created_at, updated_at) "+
			"VALUES(?, ?, ?, 0, 0, ?, ?)",
		userID, currency, network, now, now)
	if err != nil && !isDuplicateEntry(err) {
		// Duplicate means a concurrent request created the row first.
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	acc, err = repo.accountByKey(ctx, userID, currency, network)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if acc == nil {
		return nil, fmt.Errorf("%s: account vanished after insert", op)
	}

	return acc, nil
}

// Adjust applies both balance deltas, the funds guard and the optional
// ledger entry in one transaction. The guard rides in the UPDATE's WHERE
// clause, so two adjustments racing on the same row serialize on the row
// lock and the loser sees the post-update balance.
func (repo *WalletRepository) Adjust(ctx context.Context, adj wallet.Adjustment) (*model.Account, error) {
	const op = "repository.wallet.Adjust"

	acc, err := repo.GetOrCreateAccount(ctx, adj.UserID, adj.Currency, adj.Network)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	err = withTx(ctx, repo.dbhandler.Conn, func(tx *sql.Tx) error {
		if adj.Entry != nil {
			_, err := tx.ExecContext(ctx,
				"INSERT INTO ledger_entries(account_id, amount, currency, type, ref_id, meta, created_at) "+
					"VALUES(?, ?, ?, ?, ?, ?, ?)",
				acc.ID, adj.Entry.Amount, adj.Entry.Currency, adj.Entry.Type,
				adj.Entry.RefID, nullableString(adj.Entry.Meta), time.Now())
			if err != nil {
				if isDuplicateEntry(err) {
					return wallet.ErrAlreadyApplied
				}

				return err
			}
		}

		res, err := tx.ExecContext(ctx,
			"UPDATE accounts SET available = available + ?, locked = locked + ?, updated_at = ? "+
				"WHERE id = ? AND available >= ? AND available + ? >= 0 AND locked + ? >= 0",
			adj.AvailableDelta, adj.LockedDelta, time.Now(),
			acc.ID, adj.RequireAvailable, adj.AvailableDelta, adj.LockedDelta)
		if err != nil {
			return err
		}

		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return wallet.ErrInsufficientBalance
		}

		return nil
	})
	if err != nil {
		if errors.Is(err, wallet.ErrAlreadyApplied) || errors.Is(err, wallet.ErrInsufficientBalance) {
			return nil, err
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	acc, err = repo.accountByKey(ctx, adj.UserID, adj.Currency, adj.Network)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return acc, nil
}

func (repo *WalletRepository) accountByKey(ctx context.Context, userID int64, currency, network string) (*model.Account, error) {
	row, err := repo.dbhandler.PrepareAndQueryRow(ctx,
		"SELECT "+accountColumns+" FROM accounts WHERE user_id = ? AND currency = ? AND network = ?",
		userID, currency, network)
	if err != nil {
		return nil, err
	}

	acc, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return acc, nil
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}

	return s
}
