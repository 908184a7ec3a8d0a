package wallet

import (
	"context"
	"errors"
	"fmt"

	"github.com/cryptomagiciian/casino-backend-sub001/internal/ledger"
	"github.com/cryptomagiciian/casino-backend-sub001/internal/lib/logger/sl"
	"github.com/cryptomagiciian/casino-backend-sub001/internal/model"
	"golang.org/x/exp/slog"
)

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrAlreadyApplied is returned by repositories when an adjustment's
	// (account, type, ref) entry already exists. The coordinator treats it
	// as success so retries after a reported failure never double-adjust.
	ErrAlreadyApplied = errors.New("adjustment already applied")
)

// HouseUserID owns the house side of faucet/deposit pairs. The house
// account may run negative; user accounts never do.
const HouseUserID = 0

// Adjustment is one atomic balance move: both deltas, the optional ledger
// entry, and the available-funds precondition are applied in a single
// transaction or not at all.
type Adjustment struct {
	UserID           int64
	Currency         string
	Network          string
	AvailableDelta   int64
	LockedDelta      int64
	RequireAvailable int64
	Entry            *model.LedgerEntry
}

//go:generate go run github.com/vektra/mockery/v2@v2.28.2 --name=Repository
type Repository interface {
	GetOrCreateAccount(ctx context.Context, userID int64, currency, network string) (*model.Account, error)
	// Adjust must serialize per account: two concurrent adjustments can
	// never both pass the RequireAvailable check on the same funds.
	Adjust(ctx context.Context, adj Adjustment) (*model.Account, error)
}

// Coordinator owns every balance move for (user, currency, network)
// accounts. Stakes are locked before a bet row exists and settled exactly
// once; the ledger entry travels in the same transaction as the balances.
type Coordinator struct {
	repo   Repository
	ledger *ledger.Service
	log    *slog.Logger
}

func NewCoordinator(repo Repository, ledgerSvc *ledger.Service, log *slog.Logger) *Coordinator {
	return &Coordinator{repo: repo, ledger: ledgerSvc, log: log}
}

func (c *Coordinator) GetOrCreateAccount(ctx context.Context, userID int64, currency, network string) (*model.Account, error) {
	const op = "wallet.Coordinator.GetOrCreateAccount"

	acc, err := c.repo.GetOrCreateAccount(ctx, userID, currency, network)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return acc, nil
}

// LockFunds moves amount from available to locked and records the stake as
// a negative BET_STAKE entry. The funds check and the move are one atomic
// step; seeing the check pass means the lock happened.
func (c *Coordinator) LockFunds(ctx context.Context, userID int64, currency string, amount int64, refID string, network string) (*model.Account, error) {
	const op = "wallet.Coordinator.LockFunds"

	acc, err := c.apply(ctx, Adjustment{
		UserID:           userID,
		Currency:         currency,
		Network:          network,
		AvailableDelta:   -amount,
		LockedDelta:      amount,
		RequireAvailable: amount,
		Entry: &model.LedgerEntry{
			Amount:   -amount,
			Currency: currency,
			Type:     model.EntryBetStake,
			RefID:    refID,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return acc, nil
}

// CreditWinnings pays a winning bet into available. The payout already
// contains the returned stake (multiplier applies to the full stake), so
// no separate refund accompanies it.
func (c *Coordinator) CreditWinnings(ctx context.Context, userID int64, currency string, amount int64, refID string, network string) (*model.Account, error) {
	const op = "wallet.Coordinator.CreditWinnings"

	acc, err := c.apply(ctx, Adjustment{
		UserID:         userID,
		Currency:       currency,
		Network:        network,
		AvailableDelta: amount,
		Entry: &model.LedgerEntry{
			Amount:   amount,
			Currency: currency,
			Type:     model.EntryBetWin,
			RefID:    refID,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return acc, nil
}

// SettleStake clears the locked stake at resolution. Wins and losses share
// this path: both decrement locked by the staked amount exactly once, and
// the lock-time BET_STAKE entry remains the ledger record of the spend.
// Only a win also credits winnings, separately. The zero-amount BET_SETTLE
// marker pins the decrement to the bet's ref, so a retried settlement hits
// the entry's unique key instead of eating into another bet's lock.
func (c *Coordinator) SettleStake(ctx context.Context, userID int64, currency string, amount int64, refID string, network string) (*model.Account, error) {
	const op = "wallet.Coordinator.SettleStake"

	acc, err := c.apply(ctx, Adjustment{
		UserID:      userID,
		Currency:    currency,
		Network:     network,
		LockedDelta: -amount,
		Entry: &model.LedgerEntry{
			Amount:   0,
			Currency: currency,
			Type:     model.EntryBetSettle,
			RefID:    refID,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%s: ref %s: %w", op, refID, err)
	}

	return acc, nil
}

// RefundStake voids a lock entirely: locked funds return to available and
// a positive BET_REFUND entry with the stake's ref compensates the
// original BET_STAKE.
func (c *Coordinator) RefundStake(ctx context.Context, userID int64, currency string, amount int64, refID string, network string) (*model.Account, error) {
	const op = "wallet.Coordinator.RefundStake"

	acc, err := c.apply(ctx, Adjustment{
		UserID:         userID,
		Currency:       currency,
		Network:        network,
		AvailableDelta: amount,
		LockedDelta:    -amount,
		Entry: &model.LedgerEntry{
			Amount:   amount,
			Currency: currency,
			Type:     model.EntryBetRefund,
			RefID:    refID,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return acc, nil
}

// Faucet tops up a user account with test funds as a balanced pair against
// the house account.
func (c *Coordinator) Faucet(ctx context.Context, userID int64, currency string, amount int64, refID string, network string) (*model.Account, error) {
	const op = "wallet.Coordinator.Faucet"

	house, err := c.repo.GetOrCreateAccount(ctx, HouseUserID, currency, network)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	acc, err := c.repo.GetOrCreateAccount(ctx, userID, currency, network)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	debit := model.LedgerEntry{
		AccountID: house.ID,
		Amount:    -amount,
		Currency:  currency,
		Type:      model.EntryFaucet,
		RefID:     refID,
	}
	credit := model.LedgerEntry{
		AccountID: acc.ID,
		Amount:    amount,
		Currency:  currency,
		Type:      model.EntryFaucet,
		RefID:     refID,
	}

	if _, _, err = c.ledger.AppendPair(ctx, debit, credit); err != nil {
		if !errors.Is(err, ledger.ErrEntryExists) {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		c.log.Warn("faucet retried after success, returning current account",
			sl.Int64("user_id", userID),
			sl.String("ref_id", refID))
	}

	acc, err = c.repo.GetOrCreateAccount(ctx, userID, currency, network)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return acc, nil
}

func (c *Coordinator) apply(ctx context.Context, adj Adjustment) (*model.Account, error) {
	acc, err := c.repo.Adjust(ctx, adj)
	if err == nil {
		return acc, nil
	}

	if errors.Is(err, ErrAlreadyApplied) {
		c.log.Warn("adjustment retried after success, returning current account",
			sl.Int64("user_id", adj.UserID),
			sl.String("currency", adj.Currency))

		return c.repo.GetOrCreateAccount(ctx, adj.UserID, adj.Currency, adj.Network)
	}

	return nil, err
}
