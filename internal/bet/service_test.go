package bet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/cryptomagiciian/casino-backend-sub001/internal/fair"
	"github.com/cryptomagiciian/casino-backend-sub001/internal/games"
	"github.com/cryptomagiciian/casino-backend-sub001/internal/ledger"
	"github.com/cryptomagiciian/casino-backend-sub001/internal/model"
	"github.com/cryptomagiciian/casino-backend-sub001/internal/money"
	"github.com/cryptomagiciian/casino-backend-sub001/internal/wallet"
	"github.com/google/uuid"
	"golang.org/x/exp/slog"
)

// fakeSeedRepo keeps fairness seeds in memory with the same atomicity the
// MySQL repository provides: nonce consumption is a post-increment under
// one lock.
type fakeSeedRepo struct {
	mu     sync.Mutex
	nextID int64
	seeds  []*model.FairnessSeed
}

func (r *fakeSeedRepo) active(userID int64) *model.FairnessSeed {
	for _, s := range r.seeds {
		if s.UserID == userID && s.Active {
			return s
		}
	}

	return nil
}

func (r *fakeSeedRepo) ActiveSeed(_ context.Context, userID int64) (*model.FairnessSeed, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s := r.active(userID); s != nil {
		cp := *s

		return &cp, nil
	}

	return nil, nil
}

func (r *fakeSeedRepo) CreateActiveSeed(_ context.Context, seed model.FairnessSeed) (*model.FairnessSeed, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	seed.ID = r.nextID
	seed.CreatedAt = time.Now()
	r.seeds = append(r.seeds, &seed)

	cp := seed

	return &cp, nil
}

func (r *fakeSeedRepo) DeactivateSeeds(_ context.Context, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range r.seeds {
		if s.UserID == userID {
			s.Active = false
		}
	}

	return nil
}

func (r *fakeSeedRepo) ConsumeNonce(_ context.Context, userID int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.active(userID)
	if s == nil {
		return 0, fair.ErrSeedMissing
	}

	nonce := s.Nonce
	s.Nonce++

	return nonce, nil
}

func (r *fakeSeedRepo) SeedByID(_ context.Context, userID, seedID int64) (*model.FairnessSeed, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range r.seeds {
		if s.UserID == userID && s.ID == seedID {
			cp := *s

			return &cp, nil
		}
	}

	return nil, nil
}

func (r *fakeSeedRepo) SeedByHash(_ context.Context, userID int64, hash string) (*model.FairnessSeed, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range r.seeds {
		if s.UserID == userID && s.ServerSeedHash == hash {
			cp := *s

			return &cp, nil
		}
	}

	return nil, nil
}

func (r *fakeSeedRepo) MarkRevealed(_ context.Context, seedID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	for _, s := range r.seeds {
		if s.ID == seedID {
			s.RevealedAt = &now
		}
	}

	return nil
}

// fakeStore backs both the wallet and ledger repositories so balance and
// entry effects can be asserted together. failSettleOnce drops the next
// stake-settling adjustment, simulating a wallet outage between the status
// flip and the money movement.
type fakeStore struct {
	mu             sync.Mutex
	nextID         int64
	accounts       map[string]*model.Account
	entries        []model.LedgerEntry
	applied        map[string]bool
	failSettleOnce bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		accounts: make(map[string]*model.Account),
		applied:  make(map[string]bool),
	}
}

func (s *fakeStore) getOrCreate(userID int64, currency, network string) *model.Account {
	key := fmt.Sprintf("%d|%s|%s", userID, currency, network)
	if acc, ok := s.accounts[key]; ok {
		return acc
	}

	s.nextID++
	acc := &model.Account{ID: s.nextID, UserID: userID, Currency: currency, Network: network}
	s.accounts[key] = acc

	return acc
}

func (s *fakeStore) GetOrCreateAccount(_ context.Context, userID int64, currency, network string) (*model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *s.getOrCreate(userID, currency, network)

	return &cp, nil
}

func (s *fakeStore) Adjust(_ context.Context, adj wallet.Adjustment) (*model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc := s.getOrCreate(adj.UserID, adj.Currency, adj.Network)

	if adj.Entry != nil && adj.Entry.Type == model.EntryBetSettle && s.failSettleOnce {
		s.failSettleOnce = false

		return nil, errors.New("wallet temporarily unavailable")
	}

	if adj.Entry != nil {
		key := fmt.Sprintf("%d|%s|%s", acc.ID, adj.Entry.Type, adj.Entry.RefID)
		if s.applied[key] {
			return nil, wallet.ErrAlreadyApplied
		}
	}

	if acc.Available < adj.RequireAvailable {
		return nil, wallet.ErrInsufficientBalance
	}
	if acc.Available+adj.AvailableDelta < 0 || acc.Locked+adj.LockedDelta < 0 {
		return nil, wallet.ErrInsufficientBalance
	}

	acc.Available += adj.AvailableDelta
	acc.Locked += adj.LockedDelta

	if adj.Entry != nil {
		s.applied[fmt.Sprintf("%d|%s|%s", acc.ID, adj.Entry.Type, adj.Entry.RefID)] = true

		entry := *adj.Entry
		entry.AccountID = acc.ID
		s.nextID++
		entry.ID = s.nextID
		s.entries = append(s.entries, entry)
	}

	cp := *acc

	return &cp, nil
}

func (s *fakeStore) Append(_ context.Context, entry model.LedgerEntry) (*model.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	entry.ID = s.nextID
	s.entries = append(s.entries, entry)

	return &entry, nil
}

func (s *fakeStore) AppendPair(_ context.Context, debit, credit model.LedgerEntry) (*model.LedgerEntry, *model.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := fmt.Sprintf("%d|%s|%s", debit.AccountID, debit.Type, debit.RefID)
	if s.applied[key] {
		return nil, nil, ledger.ErrEntryExists
	}
	s.applied[key] = true

	for _, acc := range s.accounts {
		if acc.ID == debit.AccountID {
			acc.Available += debit.Amount
		}
		if acc.ID == credit.AccountID {
			acc.Available += credit.Amount
		}
	}

	s.nextID++
	debit.ID = s.nextID
	s.entries = append(s.entries, debit)

	s.nextID++
	credit.ID = s.nextID
	s.entries = append(s.entries, credit)

	return &debit, &credit, nil
}

func (s *fakeStore) SumByAccount(_ context.Context, accountID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var sum int64
	for _, e := range s.entries {
		if e.AccountID == accountID {
			sum += e.Amount
		}
	}

	return sum, nil
}

func (s *fakeStore) EntriesByAccount(_ context.Context, accountID int64, limit, offset int) ([]model.LedgerEntry, error) {
	return nil, nil
}

func (s *fakeStore) countEntries(entryType model.EntryType, refID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int
	for _, e := range s.entries {
		if e.Type == entryType && e.RefID == refID {
			n++
		}
	}

	return n
}

// fakeBetRepo implements the status compare-and-swap the MySQL repository
// does with UPDATE ... WHERE status='PENDING'.
type fakeBetRepo struct {
	mu         sync.Mutex
	nextID     int64
	bets       map[uuid.UUID]*model.Bet
	failInsert bool
}

func newFakeBetRepo() *fakeBetRepo {
	return &fakeBetRepo{bets: make(map[uuid.UUID]*model.Bet)}
}

func (r *fakeBetRepo) Insert(_ context.Context, b model.Bet) (*model.Bet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failInsert {
		return nil, errors.New("insert failed")
	}

	r.nextID++
	b.ID = r.nextID
	b.CreatedAt = time.Now()
	r.bets[b.UUID] = &b

	cp := b

	return &cp, nil
}

func (r *fakeBetRepo) ByUUID(_ context.Context, betUUID uuid.UUID) (*model.Bet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bets[betUUID]
	if !ok {
		return nil, nil
	}

	cp := *b

	return &cp, nil
}

func (r *fakeBetRepo) MarkResolved(_ context.Context, betUUID uuid.UUID, res Resolution) (*model.Bet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bets[betUUID]
	if !ok {
		return nil, ErrBetNotFound
	}

	if b.Status != model.BetPending {
		return nil, ErrBetAlreadyResolved
	}

	b.Status = res.Status
	b.Outcome = res.Outcome
	b.ResultMultiplier = res.ResultMultiplier
	b.RngTrace = res.RngTrace
	resolvedAt := res.ResolvedAt
	b.ResolvedAt = &resolvedAt

	cp := *b

	return &cp, nil
}

func (r *fakeBetRepo) MarkSettled(_ context.Context, betUUID uuid.UUID) (*model.Bet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bets[betUUID]
	if !ok {
		return nil, ErrBetNotFound
	}

	if b.SettledAt == nil {
		now := time.Now()
		b.SettledAt = &now
	}

	cp := *b

	return &cp, nil
}

func (r *fakeBetRepo) ListByUser(_ context.Context, userID int64, filter ListFilter) ([]model.Bet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []model.Bet
	for _, b := range r.bets {
		if b.UserID != userID {
			continue
		}
		if filter.Game != "" && b.Game != filter.Game {
			continue
		}
		if filter.Status != "" && b.Status != filter.Status {
			continue
		}

		out = append(out, *b)
	}

	return out, nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *fakePublisher) Publish(_, event string, _ any) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.events = append(p.events, event)

	return nil
}

type testEnv struct {
	svc    *Service
	bets   *fakeBetRepo
	store  *fakeStore
	seeds  *fakeSeedRepo
	wallet *wallet.Coordinator
	pub    *fakePublisher
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	store := newFakeStore()
	seedRepo := &fakeSeedRepo{}
	betRepo := newFakeBetRepo()
	pub := &fakePublisher{}

	walletCoord := wallet.NewCoordinator(store, ledger.NewService(store, log), log)
	seedSvc := fair.NewSeedService(seedRepo, log)

	return &testEnv{
		svc:    NewService(betRepo, seedSvc, walletCoord, pub, log),
		bets:   betRepo,
		store:  store,
		seeds:  seedRepo,
		wallet: walletCoord,
		pub:    pub,
	}
}

func (e *testEnv) fund(t *testing.T, userID, amount int64) {
	t.Helper()

	if _, err := e.wallet.Faucet(context.Background(), userID, "USDC", amount, fmt.Sprintf("faucet-%d", userID), "mainnet"); err != nil {
		t.Fatalf("unexpected error funding account: %v", err)
	}
}

func (e *testEnv) account(t *testing.T, userID int64) *model.Account {
	t.Helper()

	acc, err := e.wallet.GetOrCreateAccount(context.Background(), userID, "USDC", "mainnet")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	return acc
}

func (e *testEnv) place(t *testing.T, userID int64, game, amount string, params json.RawMessage) *model.Bet {
	t.Helper()

	b, err := e.svc.Place(context.Background(), PlaceInput{
		UserID:   userID,
		Game:     game,
		Currency: "USDC",
		Network:  "mainnet",
		Amount:   amount,
		Params:   params,
	})
	if err != nil {
		t.Fatalf("unexpected error placing bet: %v", err)
	}

	return b
}

// expectedOutcome replays the committed draw the way an auditor would and
// returns what the resolution must produce.
func (e *testEnv) expectedOutcome(t *testing.T, b *model.Bet) games.Outcome {
	t.Helper()

	seed, err := e.seeds.SeedByHash(context.Background(), b.UserID, b.ServerSeedHash)
	if err != nil || seed == nil {
		t.Fatalf("no seed for committed hash: %v", err)
	}

	rules, err := games.Lookup(b.Game)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	outcome, err := rules.Resolve(fair.Draw(seed.ServerSeed, b.ClientSeed, b.Nonce), b.Params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	return outcome
}

func TestPlaceBetLocksStakeAndRecordsCommitment(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.fund(t, 7, 1000_000000)

	b := env.place(t, 7, "candle_flip", "100", nil)

	if b.Status != model.BetPending {
		t.Errorf("new bet must be PENDING, got: %s", b.Status)
	}
	if b.Stake != 100_000000 {
		t.Errorf("unexpected stake, want: 100000000, got: %d", b.Stake)
	}
	if b.PotentialPayout != 198_000000 {
		t.Errorf("unexpected potential payout, want: 198000000, got: %d", b.PotentialPayout)
	}
	if b.Nonce != 0 {
		t.Errorf("first bet on a fresh seed must consume nonce 0, got: %d", b.Nonce)
	}
	if b.ServerSeedHash == "" || b.ClientSeed == "" {
		t.Errorf("bet must carry the commitment and a client seed: %+v", b)
	}

	acc := env.account(t, 7)
	if acc.Available != 900_000000 || acc.Locked != 100_000000 {
		t.Errorf("stake not locked: %+v", acc)
	}

	if n := env.store.countEntries(model.EntryBetStake, b.UUID.String()); n != 1 {
		t.Errorf("expected exactly one BET_STAKE entry, got %d", n)
	}
}

func TestPlaceBetNoncesIncrement(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.fund(t, 7, 1000_000000)

	for want := int64(0); want < 3; want++ {
		b := env.place(t, 7, "candle_flip", "10", nil)
		if b.Nonce != want {
			t.Fatalf("unexpected nonce, want: %d, got: %d", want, b.Nonce)
		}
	}
}

func TestPlaceBetErrors(t *testing.T) {
	cases := []struct {
		name    string
		game    string
		amount  string
		wantErr error
	}{
		{
			name:    "UnknownGame",
			game:    "roulette",
			amount:  "100",
			wantErr: games.ErrUnknownGame,
		},
		{
			name:    "NegativeAmount",
			game:    "candle_flip",
			amount:  "-5",
			wantErr: money.ErrInvalidAmount,
		},
		{
			name:    "TooPreciseAmount",
			game:    "candle_flip",
			amount:  "1.0000001",
			wantErr: money.ErrInvalidAmount,
		},
		{
			name:    "InsufficientBalance",
			game:    "candle_flip",
			amount:  "5000",
			wantErr: wallet.ErrInsufficientBalance,
		},
	}

	for _, tc := range cases {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			env := newTestEnv(t)
			env.fund(t, 7, 1000_000000)

			_, err := env.svc.Place(context.Background(), PlaceInput{
				UserID:   7,
				Game:     tc.game,
				Currency: "USDC",
				Network:  "mainnet",
				Amount:   tc.amount,
			})
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got: %v", tc.wantErr, err)
			}

			acc := env.account(t, 7)
			if acc.Available != 1000_000000 || acc.Locked != 0 {
				t.Errorf("failed placement must not move funds: %+v", acc)
			}
		})
	}
}

func TestPlaceRefundsStakeOnInsertFailure(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.fund(t, 7, 1000_000000)
	env.bets.failInsert = true

	if _, err := env.svc.Place(context.Background(), PlaceInput{
		UserID:   7,
		Game:     "candle_flip",
		Currency: "USDC",
		Network:  "mainnet",
		Amount:   "100",
	}); err == nil {
		t.Fatal("expected insert failure to surface")
	}

	acc := env.account(t, 7)
	if acc.Available != 1000_000000 || acc.Locked != 0 {
		t.Errorf("stake must be refunded after insert failure: %+v", acc)
	}
}

func TestResolveSettlesByDrawnOutcome(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.fund(t, 7, 1000_000000)

	b := env.place(t, 7, "candle_flip", "100", nil)
	want := env.expectedOutcome(t, b)

	resolved, err := env.svc.Resolve(context.Background(), 7, b.UUID, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	acc := env.account(t, 7)

	if want.Win {
		if resolved.Status != model.BetWon || resolved.Outcome != model.OutcomeWin {
			t.Errorf("expected a won bet, got: %s/%s", resolved.Status, resolved.Outcome)
		}
		if resolved.ResultMultiplier != "1.98" {
			t.Errorf("unexpected multiplier: %s", resolved.ResultMultiplier)
		}
		if acc.Available != 1098_000000 {
			t.Errorf("win must credit 198 payout, got available %d", acc.Available)
		}
	} else {
		if resolved.Status != model.BetLost || resolved.Outcome != model.OutcomeLoss {
			t.Errorf("expected a lost bet, got: %s/%s", resolved.Status, resolved.Outcome)
		}
		if acc.Available != 900_000000 {
			t.Errorf("loss must forfeit the stake, got available %d", acc.Available)
		}
	}

	if acc.Locked != 0 {
		t.Errorf("resolution must clear locked funds, got: %d", acc.Locked)
	}

	if resolved.RngTrace == nil {
		t.Fatal("resolved bet must carry its rng trace")
	}
	if got := fair.HashSeed(resolved.RngTrace.ServerSeed); got != b.ServerSeedHash {
		t.Errorf("rng trace seed does not hash to the commitment: %s", got)
	}
	if resolved.ResolvedAt == nil {
		t.Error("resolved bet must be timestamped")
	}
	if resolved.SettledAt == nil {
		t.Error("completed settlement must be stamped")
	}
}

func TestResolveTwiceReturnsAlreadyResolved(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.fund(t, 7, 1000_000000)

	b := env.place(t, 7, "candle_flip", "100", nil)

	if _, err := env.svc.Resolve(context.Background(), 7, b.UUID, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := env.svc.Resolve(context.Background(), 7, b.UUID, nil); !errors.Is(err, ErrBetAlreadyResolved) {
		t.Fatalf("expected ErrBetAlreadyResolved, got: %v", err)
	}
}

func TestResolveRetryCompletesInterruptedSettlement(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.fund(t, 7, 1000_000000)

	b := env.place(t, 7, "candle_flip", "100", nil)
	want := env.expectedOutcome(t, b)

	env.store.failSettleOnce = true

	if _, err := env.svc.Resolve(context.Background(), 7, b.UUID, nil); err == nil {
		t.Fatal("expected the settlement failure to surface")
	}

	// The status flipped but the stake is still locked; a second call must
	// finish the movement rather than report a duplicate.
	acc := env.account(t, 7)
	if acc.Locked != 100_000000 {
		t.Fatalf("stake must stay locked until settlement completes, got locked %d", acc.Locked)
	}

	settled, err := env.svc.Resolve(context.Background(), 7, b.UUID, nil)
	if err != nil {
		t.Fatalf("retry must complete the settlement: %v", err)
	}
	if settled.SettledAt == nil {
		t.Error("completed settlement must be stamped")
	}

	acc = env.account(t, 7)
	if acc.Locked != 0 {
		t.Errorf("retry must clear the locked stake, got: %d", acc.Locked)
	}

	if want.Win {
		if acc.Available != 1098_000000 {
			t.Errorf("win must credit the payout exactly once, got available %d", acc.Available)
		}
		if n := env.store.countEntries(model.EntryBetWin, b.UUID.String()); n != 1 {
			t.Errorf("expected one BET_WIN entry, got %d", n)
		}
	} else if acc.Available != 900_000000 {
		t.Errorf("loss must forfeit the stake exactly once, got available %d", acc.Available)
	}

	if n := env.store.countEntries(model.EntryBetSettle, b.UUID.String()); n != 1 {
		t.Errorf("expected one BET_SETTLE entry, got %d", n)
	}

	// With the settlement done, further calls are plain duplicates.
	if _, err = env.svc.Resolve(context.Background(), 7, b.UUID, nil); !errors.Is(err, ErrBetAlreadyResolved) {
		t.Fatalf("expected ErrBetAlreadyResolved, got: %v", err)
	}
}

func TestResolveUnknownBet(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	if _, err := env.svc.Resolve(context.Background(), 7, uuid.New(), nil); !errors.Is(err, ErrBetNotFound) {
		t.Fatalf("expected ErrBetNotFound, got: %v", err)
	}
}

func TestResolveOtherUsersBet(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.fund(t, 7, 1000_000000)

	b := env.place(t, 7, "candle_flip", "100", nil)

	if _, err := env.svc.Resolve(context.Background(), 8, b.UUID, nil); !errors.Is(err, ErrBetNotFound) {
		t.Fatalf("expected ErrBetNotFound for another user's bet, got: %v", err)
	}
}

func TestConcurrentResolveSettlesAtMostOnce(t *testing.T) {
	t.Parallel()

	const workers = 16

	env := newTestEnv(t)
	env.fund(t, 7, 1000_000000)

	b := env.place(t, 7, "candle_flip", "100", nil)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		resolved int
		rejected int
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			_, err := env.svc.Resolve(context.Background(), 7, b.UUID, nil)

			mu.Lock()
			defer mu.Unlock()

			switch {
			case err == nil:
				resolved++
			case errors.Is(err, ErrBetAlreadyResolved):
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}

	wg.Wait()

	// The CAS picks one winner; a caller that catches the bet terminal but
	// not yet stamped completes the settlement and also reports success.
	// Every call must land in one of the two buckets.
	if resolved < 1 || resolved+rejected != workers {
		t.Fatalf("unexpected outcome split, got %d resolved / %d rejected of %d", resolved, rejected, workers)
	}

	// The wallet must have moved once: one stake entry, one settle marker,
	// at most one win entry, locked fully cleared.
	if n := env.store.countEntries(model.EntryBetStake, b.UUID.String()); n != 1 {
		t.Errorf("expected one BET_STAKE entry, got %d", n)
	}
	if n := env.store.countEntries(model.EntryBetSettle, b.UUID.String()); n != 1 {
		t.Errorf("expected one BET_SETTLE entry, got %d", n)
	}
	if n := env.store.countEntries(model.EntryBetWin, b.UUID.String()); n > 1 {
		t.Errorf("win credited %d times", n)
	}

	acc := env.account(t, 7)
	if acc.Locked != 0 {
		t.Errorf("locked funds not cleared: %+v", acc)
	}
	if acc.Available != 900_000000 && acc.Available != 1098_000000 {
		t.Errorf("available must reflect exactly one settlement, got: %d", acc.Available)
	}
}

func TestResolveMergesExtras(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.fund(t, 7, 1000_000000)

	b := env.place(t, 7, "leverage_ladder", "100", json.RawMessage(`{"current_level":1}`))

	// The player climbed to level 3 before asking for resolution.
	resolved, err := env.svc.Resolve(context.Background(), 7, b.UUID, json.RawMessage(`{"current_level":3}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resolved.Status == model.BetWon && resolved.ResultMultiplier != "1.728" {
		t.Errorf("win at level 3 must pay 1.2^3, got: %s", resolved.ResultMultiplier)
	}
}

func TestCashoutUnsupportedGame(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.fund(t, 7, 1000_000000)

	b := env.place(t, 7, "candle_flip", "100", nil)

	if _, err := env.svc.Cashout(context.Background(), 7, b.UUID, "1.5"); !errors.Is(err, ErrUnsupportedForGame) {
		t.Fatalf("expected ErrUnsupportedForGame, got: %v", err)
	}

	acc := env.account(t, 7)
	if acc.Locked != 100_000000 {
		t.Errorf("rejected cashout must leave the bet pending: %+v", acc)
	}
}

func TestCashoutSettlesAtClaimedMultiplier(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.fund(t, 7, 1000_000000)

	b := env.place(t, 7, "crash_curve", "100", json.RawMessage(`{"target_multiplier":"5"}`))

	resolved, err := env.svc.Cashout(context.Background(), 7, b.UUID, "1.5")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resolved.Status != model.BetCashedOut {
		t.Errorf("expected CASHED_OUT, got: %s", resolved.Status)
	}
	if resolved.ResultMultiplier != "1.5" {
		t.Errorf("unexpected multiplier: %s", resolved.ResultMultiplier)
	}

	acc := env.account(t, 7)
	if acc.Available != 1050_000000 || acc.Locked != 0 {
		t.Errorf("cashout at 1.5x on 100 must leave 1050 available: %+v", acc)
	}

	// The cashed-out bet must stay auditable offline: the trace carries the
	// committed draw even though the claim set the payout.
	if resolved.RngTrace == nil {
		t.Fatal("cashed-out bet must carry its rng trace")
	}
	if got := fair.HashSeed(resolved.RngTrace.ServerSeed); got != b.ServerSeedHash {
		t.Errorf("rng trace seed does not hash to the commitment: %s", got)
	}
	if want := fair.Draw(resolved.RngTrace.ServerSeed, b.ClientSeed, b.Nonce); resolved.RngTrace.Draw != want {
		t.Errorf("rng trace draw does not replay, want: %v, got: %v", want, resolved.RngTrace.Draw)
	}
}

func TestCashoutClampsMultiplier(t *testing.T) {
	cases := []struct {
		name       string
		multiplier string
		wantErr    error
		wantResult string
	}{
		{
			name:       "AboveGameCap",
			multiplier: "9999",
			wantResult: "100",
		},
		{
			name:       "BelowOne",
			multiplier: "0.5",
			wantErr:    ErrInvalidMultiplier,
		},
		{
			name:       "Garbage",
			multiplier: "banana",
			wantErr:    ErrInvalidMultiplier,
		},
	}

	for _, tc := range cases {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			env := newTestEnv(t)
			env.fund(t, 7, 1000_000000)

			b := env.place(t, 7, "crash_curve", "100", nil)

			resolved, err := env.svc.Cashout(context.Background(), 7, b.UUID, tc.multiplier)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got: %v", tc.wantErr, err)
				}

				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if resolved.ResultMultiplier != tc.wantResult {
				t.Errorf("unexpected multiplier, want: %s, got: %s", tc.wantResult, resolved.ResultMultiplier)
			}
		})
	}
}

func TestCashoutAfterResolveRejected(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.fund(t, 7, 1000_000000)

	b := env.place(t, 7, "crash_curve", "100", nil)

	if _, err := env.svc.Resolve(context.Background(), 7, b.UUID, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := env.svc.Cashout(context.Background(), 7, b.UUID, "1.5"); !errors.Is(err, ErrBetAlreadyResolved) {
		t.Fatalf("expected ErrBetAlreadyResolved, got: %v", err)
	}
}

func TestGetBetOwnership(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.fund(t, 7, 1000_000000)

	b := env.place(t, 7, "candle_flip", "100", nil)

	got, err := env.svc.GetBet(context.Background(), 7, b.UUID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.UUID != b.UUID {
		t.Errorf("unexpected bet: %+v", got)
	}

	if _, err = env.svc.GetBet(context.Background(), 8, b.UUID); !errors.Is(err, ErrBetNotFound) {
		t.Fatalf("expected ErrBetNotFound for another user, got: %v", err)
	}
}

func TestListUserBetsFilters(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.fund(t, 7, 1000_000000)

	env.place(t, 7, "candle_flip", "10", nil)
	b2 := env.place(t, 7, "crash_curve", "10", nil)

	if _, err := env.svc.Resolve(context.Background(), 7, b2.UUID, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	pending, err := env.svc.ListUserBets(context.Background(), 7, ListFilter{Status: model.BetPending})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pending) != 1 || pending[0].Game != "candle_flip" {
		t.Errorf("unexpected pending bets: %+v", pending)
	}

	crashes, err := env.svc.ListUserBets(context.Background(), 7, ListFilter{Game: "crash_curve"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(crashes) != 1 {
		t.Errorf("unexpected crash bets: %+v", crashes)
	}
}

func TestPreviewOdds(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	odds, err := env.svc.Preview("candle_flip", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if odds.WinChance != 0.495 || odds.Multiplier.String() != "1.98" {
		t.Errorf("unexpected odds: %+v", odds)
	}

	if _, err = env.svc.Preview("roulette", nil); !errors.Is(err, games.ErrUnknownGame) {
		t.Fatalf("expected ErrUnknownGame, got: %v", err)
	}
}

func TestPlaceAndResolvePublishEvents(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.fund(t, 7, 1000_000000)

	b := env.place(t, 7, "candle_flip", "100", nil)

	if _, err := env.svc.Resolve(context.Background(), 7, b.UUID, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	env.pub.mu.Lock()
	defer env.pub.mu.Unlock()

	if len(env.pub.events) != 2 || env.pub.events[0] != eventBetPlaced || env.pub.events[1] != eventBetResolved {
		t.Errorf("unexpected event stream: %v", env.pub.events)
	}
}
