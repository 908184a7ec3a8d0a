package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/cryptomagiciian/casino-backend-sub001/internal/lib/logger/sl"
	"github.com/cryptomagiciian/casino-backend-sub001/internal/model"
	"golang.org/x/exp/slog"
)

var (
	ErrUnbalancedTransaction = errors.New("unbalanced transaction")
	ErrInvalidEntry          = errors.New("invalid ledger entry")
	// ErrEntryExists means an entry with the same (account, type, ref) key
	// was appended before; the write it belongs to already happened once.
	ErrEntryExists = errors.New("ledger entry already exists")
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// Repository is the append-only persistence under the ledger. Appends are
// never rolled back once committed; corrections are compensating entries,
// not deletes.
//
//go:generate go run github.com/vektra/mockery/v2@v2.28.2 --name=Repository
type Repository interface {
	Append(ctx context.Context, entry model.LedgerEntry) (*model.LedgerEntry, error)
	// AppendPair writes both entries atomically, adjusting both accounts'
	// available balances in the same transaction.
	AppendPair(ctx context.Context, debit, credit model.LedgerEntry) (*model.LedgerEntry, *model.LedgerEntry, error)
	SumByAccount(ctx context.Context, accountID int64) (int64, error)
	EntriesByAccount(ctx context.Context, accountID int64, limit, offset int) ([]model.LedgerEntry, error)
}

type Service struct {
	repo Repository
	log  *slog.Logger
}

func NewService(repo Repository, log *slog.Logger) *Service {
	return &Service{repo: repo, log: log}
}

func (s *Service) Append(ctx context.Context, entry model.LedgerEntry) (*model.LedgerEntry, error) {
	const op = "ledger.Service.Append"

	if entry.AccountID == 0 || entry.Type == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidEntry)
	}

	saved, err := s.repo.Append(ctx, entry)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return saved, nil
}

// AppendPair appends a balanced debit/credit pair atomically. The debit
// must be negative, the credit positive, and the absolute amounts equal.
func (s *Service) AppendPair(ctx context.Context, debit, credit model.LedgerEntry) (*model.LedgerEntry, *model.LedgerEntry, error) {
	const op = "ledger.Service.AppendPair"

	if debit.Amount >= 0 || credit.Amount <= 0 {
		return nil, nil, fmt.Errorf("%s: debit must be negative and credit positive: %w", op, ErrUnbalancedTransaction)
	}
	if -debit.Amount != credit.Amount {
		s.log.Error("rejecting unbalanced pair",
			sl.Int64("debit", debit.Amount),
			sl.Int64("credit", credit.Amount))

		return nil, nil, fmt.Errorf("%s: %w", op, ErrUnbalancedTransaction)
	}

	d, c, err := s.repo.AppendPair(ctx, debit, credit)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	return d, c, nil
}

// Balance is the sum of every entry for the account, the sole source of
// truth the account row must agree with.
func (s *Service) Balance(ctx context.Context, accountID int64) (int64, error) {
	const op = "ledger.Service.Balance"

	sum, err := s.repo.SumByAccount(ctx, accountID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return sum, nil
}

// Entries pages through an account's history, newest first.
func (s *Service) Entries(ctx context.Context, accountID int64, limit, offset int) ([]model.LedgerEntry, error) {
	const op = "ledger.Service.Entries"

	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}

	entries, err := s.repo.EntriesByAccount(ctx, accountID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return entries, nil
}
