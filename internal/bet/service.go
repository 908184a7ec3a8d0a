package bet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cryptomagiciian/casino-backend-sub001/internal/fair"
	"github.com/cryptomagiciian/casino-backend-sub001/internal/games"
	"github.com/cryptomagiciian/casino-backend-sub001/internal/lib/logger/sl"
	"github.com/cryptomagiciian/casino-backend-sub001/internal/metrics"
	"github.com/cryptomagiciian/casino-backend-sub001/internal/model"
	"github.com/cryptomagiciian/casino-backend-sub001/internal/money"
	"github.com/cryptomagiciian/casino-backend-sub001/internal/wallet"
	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
	"golang.org/x/exp/slog"
)

var (
	ErrBetNotFound        = errors.New("bet not found")
	ErrBetAlreadyResolved = errors.New("bet already resolved")
	// ErrUnsupportedForGame: cashout requested for a game whose rules do not
	// allow leaving early.
	ErrUnsupportedForGame = errors.New("operation not supported for game")
	ErrInvalidMultiplier  = errors.New("invalid cashout multiplier")
)

const (
	resolvedCacheTTL     = 5 * time.Minute
	resolvedCacheCleanup = 10 * time.Minute

	eventBetPlaced   = "bet_placed"
	eventBetResolved = "bet_resolved"
)

// Resolution is the terminal state written by the status CAS: outcome,
// multiplier and the replayable rng trace land atomically with the status
// flip.
type Resolution struct {
	Status           model.BetStatus
	Outcome          string
	ResultMultiplier string
	RngTrace         *model.RngTrace
	ResolvedAt       time.Time
}

type ListFilter struct {
	Game   string
	Status model.BetStatus
	Limit  int
	Offset int
}

// Repository persists bets. MarkResolved is a compare-and-swap on
// status=PENDING: of N concurrent resolutions exactly one succeeds, the
// rest get ErrBetAlreadyResolved. MarkSettled stamps settled_at once the
// wallet movement completed and is a no-op on an already stamped bet.
//
//go:generate go run github.com/vektra/mockery/v2@v2.28.2 --name=Repository
type Repository interface {
	Insert(ctx context.Context, bet model.Bet) (*model.Bet, error)
	ByUUID(ctx context.Context, betUUID uuid.UUID) (*model.Bet, error)
	MarkResolved(ctx context.Context, betUUID uuid.UUID, res Resolution) (*model.Bet, error)
	MarkSettled(ctx context.Context, betUUID uuid.UUID) (*model.Bet, error)
	ListByUser(ctx context.Context, userID int64, filter ListFilter) ([]model.Bet, error)
}

// Publisher fans settlement events out to connected clients. Delivery is
// best effort; a publish failure never fails the bet.
//
//go:generate go run github.com/vektra/mockery/v2@v2.28.2 --name=Publisher
type Publisher interface {
	Publish(channel, event string, data any) error
}

// Service drives the bet lifecycle: lock funds, record the commitment,
// resolve through the committed seed, settle the wallet exactly once.
type Service struct {
	repo      Repository
	seeds     *fair.SeedService
	wallet    *wallet.Coordinator
	publisher Publisher
	cache     *gocache.Cache
	log       *slog.Logger
}

func NewService(
	repo Repository,
	seeds *fair.SeedService,
	walletCoord *wallet.Coordinator,
	publisher Publisher,
	log *slog.Logger,
) *Service {
	return &Service{
		repo:      repo,
		seeds:     seeds,
		wallet:    walletCoord,
		publisher: publisher,
		cache:     gocache.New(resolvedCacheTTL, resolvedCacheCleanup),
		log:       log,
	}
}

type PlaceInput struct {
	UserID     int64
	Game       string
	Currency   string
	Network    string
	Amount     string
	ClientSeed string
	Params     json.RawMessage
}

// Preview returns the odds a bet with these params would be placed at,
// without touching balances or nonces.
func (s *Service) Preview(game string, params json.RawMessage) (games.Odds, error) {
	const op = "bet.Service.Preview"

	rules, err := games.Lookup(game)
	if err != nil {
		return games.Odds{}, fmt.Errorf("%s: %w", op, err)
	}

	odds, err := rules.PreviewOdds(params)
	if err != nil {
		return games.Odds{}, fmt.Errorf("%s: %w", op, err)
	}

	return odds, nil
}

// Place locks the stake and records a PENDING bet carrying the seed
// commitment. The funds lock happens before the row insert; if the insert
// fails the stake is refunded under the same ref.
func (s *Service) Place(ctx context.Context, in PlaceInput) (*model.Bet, error) {
	const op = "bet.Service.Place"

	started := time.Now()

	rules, err := games.Lookup(in.Game)
	if err != nil {
		metrics.RecordBet("fail", in.Game, started)

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	stake, err := money.ToPositiveSmallestUnits(in.Amount, in.Currency)
	if err != nil {
		metrics.RecordBet("fail", in.Game, started)

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	// Validates params and fixes the payout the player is buying into.
	odds, err := rules.PreviewOdds(in.Params)
	if err != nil {
		metrics.RecordBet("fail", in.Game, started)

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	commitment, err := s.seeds.GetOrCreateActiveSeed(ctx, in.UserID)
	if err != nil {
		metrics.RecordBet("fail", in.Game, started)

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	nonce, err := s.seeds.NextNonce(ctx, in.UserID)
	if err != nil {
		metrics.RecordBet("fail", in.Game, started)

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	clientSeed := in.ClientSeed
	if clientSeed == "" {
		clientSeed = uuid.NewString()
	}

	betUUID := uuid.New()

	if _, err = s.wallet.LockFunds(ctx, in.UserID, in.Currency, stake, betUUID.String(), in.Network); err != nil {
		metrics.RecordBet("fail", in.Game, started)

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	saved, err := s.repo.Insert(ctx, model.Bet{
		UUID:            betUUID,
		UserID:          in.UserID,
		Game:            in.Game,
		Currency:        in.Currency,
		Network:         in.Network,
		Stake:           stake,
		PotentialPayout: money.Payout(stake, odds.Multiplier),
		ClientSeed:      clientSeed,
		ServerSeedHash:  commitment.ServerSeedHash,
		Nonce:           nonce,
		Params:          in.Params,
		Status:          model.BetPending,
	})
	if err != nil {
		if _, refundErr := s.wallet.RefundStake(ctx, in.UserID, in.Currency, stake, betUUID.String(), in.Network); refundErr != nil {
			s.log.Error("failed to refund stake after insert failure",
				sl.String("bet_uuid", betUUID.String()),
				sl.Err(refundErr))
		}

		metrics.RecordBet("fail", in.Game, started)

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	metrics.RecordBet("success", in.Game, started)
	s.publish(in.UserID, eventBetPlaced, saved)

	return saved, nil
}

// Resolve replays the committed draw and settles the bet. The status CAS
// decides the single winner among concurrent resolutions. Every wallet leg
// is keyed by the bet uuid, so a settlement interrupted between the CAS and
// the wallet can be re-run by calling Resolve again: it picks up the
// terminal bet and finishes the movement without moving anything twice.
func (s *Service) Resolve(ctx context.Context, userID int64, betUUID uuid.UUID, extras json.RawMessage) (*model.Bet, error) {
	const op = "bet.Service.Resolve"

	started := time.Now()

	b, err := s.loadOwnBet(ctx, userID, betUUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if b.Status.Terminal() {
		recovered, err := s.recoverSettlement(ctx, b)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		return recovered, nil
	}

	rules, err := games.Lookup(b.Game)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	seed, err := s.seeds.SeedByHash(ctx, b.UserID, b.ServerSeedHash)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	params, err := mergeParams(b.Params, extras)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	draw := fair.Draw(seed.ServerSeed, b.ClientSeed, b.Nonce)

	outcome, err := rules.Resolve(draw, params)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	status := model.BetLost
	outcomeLabel := model.OutcomeLoss
	if outcome.Win {
		status = model.BetWon
		outcomeLabel = model.OutcomeWin
	}

	resolved, err := s.repo.MarkResolved(ctx, betUUID, Resolution{
		Status:           status,
		Outcome:          outcomeLabel,
		ResultMultiplier: outcome.Multiplier.String(),
		RngTrace: &model.RngTrace{
			ServerSeed: seed.ServerSeed,
			ClientSeed: b.ClientSeed,
			Nonce:      b.Nonce,
			Draw:       draw,
			Outcome:    outcomeLabel,
		},
		ResolvedAt: time.Now(),
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	settled, err := s.settle(ctx, resolved)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.cache.Set(betUUID.String(), settled, gocache.DefaultExpiration)
	metrics.RecordResolve(string(status), b.Game, started)
	s.publish(b.UserID, eventBetResolved, settled)

	return settled, nil
}

// Cashout settles a pending bet early at a claimed multiplier. The claim is
// trusted but clamped to [1, game max]; games without early exit reject the
// call outright.
func (s *Service) Cashout(ctx context.Context, userID int64, betUUID uuid.UUID, multiplier string) (*model.Bet, error) {
	const op = "bet.Service.Cashout"

	started := time.Now()

	b, err := s.loadOwnBet(ctx, userID, betUUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if b.Status.Terminal() {
		recovered, err := s.recoverSettlement(ctx, b)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		return recovered, nil
	}

	rules, err := games.Lookup(b.Game)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !rules.CanCashout() {
		return nil, fmt.Errorf("%s: %q: %w", op, b.Game, ErrUnsupportedForGame)
	}

	mult, err := decimal.NewFromString(multiplier)
	if err != nil || mult.LessThan(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("%s: %q: %w", op, multiplier, ErrInvalidMultiplier)
	}

	if max := rules.MaxMultiplier(); mult.GreaterThan(max) {
		mult = max
	}

	// The draw is recorded even though the claim decides the payout: an
	// auditor replaying the trace can recompute the game's curve from the
	// draw and check the claimed multiplier against it.
	seed, err := s.seeds.SeedByHash(ctx, b.UserID, b.ServerSeedHash)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	draw := fair.Draw(seed.ServerSeed, b.ClientSeed, b.Nonce)

	resolved, err := s.repo.MarkResolved(ctx, betUUID, Resolution{
		Status:           model.BetCashedOut,
		Outcome:          model.OutcomeWin,
		ResultMultiplier: mult.String(),
		RngTrace: &model.RngTrace{
			ServerSeed: seed.ServerSeed,
			ClientSeed: b.ClientSeed,
			Nonce:      b.Nonce,
			Draw:       draw,
			Outcome:    model.OutcomeWin,
		},
		ResolvedAt: time.Now(),
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	settled, err := s.settle(ctx, resolved)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.cache.Set(betUUID.String(), settled, gocache.DefaultExpiration)
	metrics.RecordResolve(string(model.BetCashedOut), b.Game, started)
	s.publish(b.UserID, eventBetResolved, settled)

	return settled, nil
}

func (s *Service) GetBet(ctx context.Context, userID int64, betUUID uuid.UUID) (*model.Bet, error) {
	const op = "bet.Service.GetBet"

	if cached, ok := s.cache.Get(betUUID.String()); ok {
		if b, ok := cached.(*model.Bet); ok && b.UserID == userID {
			return b, nil
		}
	}

	b, err := s.loadOwnBet(ctx, userID, betUUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return b, nil
}

func (s *Service) ListUserBets(ctx context.Context, userID int64, filter ListFilter) ([]model.Bet, error) {
	const op = "bet.Service.ListUserBets"

	bets, err := s.repo.ListByUser(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return bets, nil
}

// settle moves the money for a bet that left PENDING and stamps settled_at
// once the wallet agrees. Both branches clear the locked stake; only a win
// credits a payout first. The payout includes the returned stake, since the
// multiplier applies to all of it. Every leg is idempotent per bet uuid
// (the win credit through its BET_WIN entry, the lock release through the
// BET_SETTLE marker), so an interrupted settlement re-runs cleanly.
func (s *Service) settle(ctx context.Context, b *model.Bet) (*model.Bet, error) {
	ref := b.UUID.String()

	if b.Status == model.BetWon || b.Status == model.BetCashedOut {
		mult, err := decimal.NewFromString(b.ResultMultiplier)
		if err != nil {
			return nil, err
		}

		payout := money.Payout(b.Stake, mult)
		if _, err = s.wallet.CreditWinnings(ctx, b.UserID, b.Currency, payout, ref, b.Network); err != nil {
			return nil, err
		}
	}

	if _, err := s.wallet.SettleStake(ctx, b.UserID, b.Currency, b.Stake, ref, b.Network); err != nil {
		return nil, err
	}

	return s.repo.MarkSettled(ctx, b.UUID)
}

// recoverSettlement handles a resolve call that found the bet already
// terminal. A stamped bet is a plain duplicate call; an unstamped one had
// its settlement interrupted, so finish the wallet movement here.
func (s *Service) recoverSettlement(ctx context.Context, b *model.Bet) (*model.Bet, error) {
	if b.SettledAt != nil {
		return nil, ErrBetAlreadyResolved
	}

	s.log.Warn("completing interrupted settlement",
		sl.String("bet_uuid", b.UUID.String()),
		sl.String("status", string(b.Status)))

	settled, err := s.settle(ctx, b)
	if err != nil {
		return nil, err
	}

	s.cache.Set(b.UUID.String(), settled, gocache.DefaultExpiration)

	return settled, nil
}

func (s *Service) loadOwnBet(ctx context.Context, userID int64, betUUID uuid.UUID) (*model.Bet, error) {
	b, err := s.repo.ByUUID(ctx, betUUID)
	if err != nil {
		return nil, err
	}

	if b == nil || b.UserID != userID {
		return nil, ErrBetNotFound
	}

	return b, nil
}

func (s *Service) publish(userID int64, event string, data any) {
	if s.publisher == nil {
		return
	}

	channel := fmt.Sprintf("user-%d", userID)
	if err := s.publisher.Publish(channel, event, data); err != nil {
		s.log.Warn("failed to publish bet event",
			sl.String("event", event),
			sl.Err(err))
	}
}

// mergeParams overlays resolve-time extras (e.g. the level a ladder climb
// reached) on the params recorded at placement. Extras override on
// conflict: they describe what happened after placement.
func mergeParams(base, extras json.RawMessage) (json.RawMessage, error) {
	if len(extras) == 0 {
		return base, nil
	}
	if len(base) == 0 {
		return extras, nil
	}

	merged := map[string]any{}
	if err := json.Unmarshal(base, &merged); err != nil {
		return nil, err
	}

	overlay := map[string]any{}
	if err := json.Unmarshal(extras, &overlay); err != nil {
		return nil, err
	}

	for k, v := range overlay {
		merged[k] = v
	}

	return json.Marshal(merged)
}
