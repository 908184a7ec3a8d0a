package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cryptomagiciian/casino-backend-sub001/internal/bet"
	"github.com/cryptomagiciian/casino-backend-sub001/internal/http-server/handlers/mysql"
	"github.com/cryptomagiciian/casino-backend-sub001/internal/model"
	"github.com/google/uuid"
)

type BetRepository struct {
	dbhandler *mysql.Handler
}

func NewBetRepository(dbhandler *mysql.Handler) *BetRepository {
	return &BetRepository{dbhandler: dbhandler}
}

const betColumns = "id, uuid, user_id, game, currency, network, stake, potential_payout, " +
	"client_seed, server_seed_hash, nonce, params, COALESCE(outcome, ''), " +
	"COALESCE(result_multiplier, ''), status, rng_trace, created_at, resolved_at, settled_at"

func scanBet(row interface{ Scan(...interface{}) error }) (*model.Bet, error) {
	var (
		b          model.Bet
		rawUUID    string
		params     sql.NullString
		rngTrace   sql.NullString
		resolvedAt sql.NullTime
		settledAt  sql.NullTime
	)

	err := row.Scan(&b.ID, &rawUUID, &b.UserID, &b.Game, &b.Currency, &b.Network,
		&b.Stake, &b.PotentialPayout, &b.ClientSeed, &b.ServerSeedHash, &b.Nonce,
		&params, &b.Outcome, &b.ResultMultiplier, &b.Status, &rngTrace,
		&b.CreatedAt, &resolvedAt, &settledAt)
	if err != nil {
		return nil, err
	}

	if b.UUID, err = uuid.Parse(rawUUID); err != nil {
		return nil, err
	}

	if params.Valid && params.String != "" {
		b.Params = json.RawMessage(params.String)
	}
	if rngTrace.Valid && rngTrace.String != "" {
		var trace model.RngTrace
		if err = json.Unmarshal([]byte(rngTrace.String), &trace); err != nil {
			return nil, err
		}

		b.RngTrace = &trace
	}
	if resolvedAt.Valid {
		b.ResolvedAt = &resolvedAt.Time
	}
	if settledAt.Valid {
		b.SettledAt = &settledAt.Time
	}

	return &b, nil
}

func (repo *BetRepository) Insert(ctx context.Context, b model.Bet) (*model.Bet, error) {
	const op = "repository.bet.Insert"

	b.CreatedAt = time.Now()

	res, err := repo.dbhandler.PrepareAndExecute(ctx,
		"INSERT INTO bets(uuid, user_id, game, currency, network, stake, potential_payout, "+
			"client_seed, server_seed_hash, nonce, params, status, created_at) "+
			"VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		b.UUID.String(), b.UserID, b.Game, b.Currency, b.Network, b.Stake, b.PotentialPayout,
		b.ClientSeed, b.ServerSeedHash, b.Nonce, nullableString(string(b.Params)),
		b.Status, b.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if b.ID, err = res.LastInsertId(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &b, nil
}

func (repo *BetRepository) ByUUID(ctx context.Context, betUUID uuid.UUID) (*model.Bet, error) {
	const op = "repository.bet.ByUUID"

	row, err := repo.dbhandler.PrepareAndQueryRow(ctx,
		"SELECT "+betColumns+" FROM bets WHERE uuid = ?", betUUID.String())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	b, err := scanBet(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return b, nil
}

// MarkResolved flips the bet out of PENDING with a compare-and-swap on the
// status column. Concurrent resolutions race on the UPDATE; only the one
// that matched PENDING writes, the rest see zero affected rows.
func (repo *BetRepository) MarkResolved(ctx context.Context, betUUID uuid.UUID, res bet.Resolution) (*model.Bet, error) {
	const op = "repository.bet.MarkResolved"

	var trace interface{}
	if res.RngTrace != nil {
		raw, err := json.Marshal(res.RngTrace)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		trace = string(raw)
	}

	result, err := repo.dbhandler.PrepareAndExecute(ctx,
		"UPDATE bets SET status = ?, outcome = ?, result_multiplier = ?, rng_trace = ?, resolved_at = ? "+
			"WHERE uuid = ? AND status = ?",
		res.Status, res.Outcome, res.ResultMultiplier, trace, res.ResolvedAt,
		betUUID.String(), model.BetPending)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if affected == 0 {
		existing, err := repo.ByUUID(ctx, betUUID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if existing == nil {
			return nil, fmt.Errorf("%s: %w", op, bet.ErrBetNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, bet.ErrBetAlreadyResolved)
	}

	updated, err := repo.ByUUID(ctx, betUUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return updated, nil
}

// MarkSettled stamps settled_at after the wallet movement for the bet's
// terminal status completed. The WHERE clause keeps the first stamp; a
// repeated call just re-reads the row.
func (repo *BetRepository) MarkSettled(ctx context.Context, betUUID uuid.UUID) (*model.Bet, error) {
	const op = "repository.bet.MarkSettled"

	_, err := repo.dbhandler.PrepareAndExecute(ctx,
		"UPDATE bets SET settled_at = ? WHERE uuid = ? AND settled_at IS NULL",
		time.Now(), betUUID.String())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	updated, err := repo.ByUUID(ctx, betUUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if updated == nil {
		return nil, fmt.Errorf("%s: %w", op, bet.ErrBetNotFound)
	}

	return updated, nil
}

func (repo *BetRepository) ListByUser(ctx context.Context, userID int64, filter bet.ListFilter) ([]model.Bet, error) {
	const op = "repository.bet.ListByUser"

	query := "SELECT " + betColumns + " FROM bets WHERE user_id = ?"
	args := []interface{}{userID}

	if filter.Game != "" {
		query += " AND game = ?"
		args = append(args, filter.Game)
	}
	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, filter.Status)
	}

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query += " ORDER BY id DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := repo.dbhandler.PrepareAndQuery(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var bets []model.Bet
	for rows.Next() {
		b, err := scanBet(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		bets = append(bets, *b)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return bets, nil
}
