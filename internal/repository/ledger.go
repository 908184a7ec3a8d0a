package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/cryptomagiciian/casino-backend-sub001/internal/http-server/handlers/mysql"
	"github.com/cryptomagiciian/casino-backend-sub001/internal/ledger"
	"github.com/cryptomagiciian/casino-backend-sub001/internal/model"
)

type LedgerRepository struct {
	dbhandler *mysql.Handler
}

func NewLedgerRepository(dbhandler *mysql.Handler) *LedgerRepository {
	return &LedgerRepository{dbhandler: dbhandler}
}

const entryColumns = "id, account_id, amount, currency, type, ref_id, COALESCE(meta, ''), created_at"

func scanEntry(row interface{ Scan(...interface{}) error }) (*model.LedgerEntry, error) {
	var e model.LedgerEntry

	err := row.Scan(&e.ID, &e.AccountID, &e.Amount, &e.Currency, &e.Type, &e.RefID, &e.Meta, &e.CreatedAt)
	if err != nil {
		return nil, err
	}

	return &e, nil
}

func insertEntry(ctx context.Context, tx *sql.Tx, entry *model.LedgerEntry) error {
	entry.CreatedAt = time.Now()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO ledger_entries(account_id, amount, currency, type, ref_id, meta, created_at) "+
			"VALUES(?, ?, ?, ?, ?, ?, ?)",
		entry.AccountID, entry.Amount, entry.Currency, entry.Type,
		entry.RefID, nullableString(entry.Meta), entry.CreatedAt)
	if err != nil {
		if isDuplicateEntry(err) {
			return ledger.ErrEntryExists
		}

		return err
	}

	entry.ID, err = res.LastInsertId()

	return err
}

func adjustAvailable(ctx context.Context, tx *sql.Tx, accountID, delta int64) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE accounts SET available = available + ?, updated_at = ? WHERE id = ?",
		delta, time.Now(), accountID)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("account %d not found", accountID)
	}

	return nil
}

// Append writes one entry and moves the account's available balance by its
// amount, in one transaction, keeping the account row in sync with the sum
// of its entries.
func (repo *LedgerRepository) Append(ctx context.Context, entry model.LedgerEntry) (*model.LedgerEntry, error) {
	const op = "repository.ledger.Append"

	err := withTx(ctx, repo.dbhandler.Conn, func(tx *sql.Tx) error {
		if err := insertEntry(ctx, tx, &entry); err != nil {
			return err
		}

		return adjustAvailable(ctx, tx, entry.AccountID, entry.Amount)
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &entry, nil
}

// AppendPair writes both legs and both balance moves in one transaction;
// either everything lands or nothing does.
func (repo *LedgerRepository) AppendPair(ctx context.Context, debit, credit model.LedgerEntry) (*model.LedgerEntry, *model.LedgerEntry, error) {
	const op = "repository.ledger.AppendPair"

	err := withTx(ctx, repo.dbhandler.Conn, func(tx *sql.Tx) error {
		if err := insertEntry(ctx, tx, &debit); err != nil {
			return err
		}
		if err := adjustAvailable(ctx, tx, debit.AccountID, debit.Amount); err != nil {
			return err
		}

		if err := insertEntry(ctx, tx, &credit); err != nil {
			return err
		}

		return adjustAvailable(ctx, tx, credit.AccountID, credit.Amount)
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	return &debit, &credit, nil
}

func (repo *LedgerRepository) SumByAccount(ctx context.Context, accountID int64) (int64, error) {
	const op = "repository.ledger.SumByAccount"

	row, err := repo.dbhandler.PrepareAndQueryRow(ctx,
		"SELECT COALESCE(SUM(amount), 0) FROM ledger_entries WHERE account_id = ?", accountID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	var sum int64
	if err = row.Scan(&sum); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return sum, nil
}

func (repo *LedgerRepository) EntriesByAccount(ctx context.Context, accountID int64, limit, offset int) ([]model.LedgerEntry, error) {
	const op = "repository.ledger.EntriesByAccount"

	rows, err := repo.dbhandler.PrepareAndQuery(ctx,
		"SELECT "+entryColumns+" FROM ledger_entries WHERE account_id = ? ORDER BY id DESC LIMIT ? OFFSET ?",
		accountID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var entries []model.LedgerEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		entries = append(entries, *e)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return entries, nil
}
