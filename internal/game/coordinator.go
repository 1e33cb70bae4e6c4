package game

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"fairplay/internal/fairness"
)

// MAX_STAKE is the default hard cap on a single stake.
var MAX_STAKE = decimal.NewFromInt(10000)

// Coordinator runs one bet through Requested -> SeedAssigned -> Resolved ->
// Settled, or stops at Rejected. It never touches balances: the caller
// reports what is available and applies the returned outcome itself.
type Coordinator struct {
	gen      *fairness.Generator
	registry *Registry
	rounds   RoundStore
	maxStake decimal.Decimal
	logger   *slog.Logger

	locksMu sync.Mutex
	locks   map[string]*roundLock
}

type Option func(*Coordinator)

func WithMaxStake(max decimal.Decimal) Option {
	return func(c *Coordinator) { c.maxStake = max }
}

func WithRoundStore(store RoundStore) Option {
	return func(c *Coordinator) { c.rounds = store }
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) { c.logger = logger }
}

func NewCoordinator(gen *fairness.Generator, registry *Registry, opts ...Option) *Coordinator {
	c := &Coordinator{
		gen:      gen,
		registry: registry,
		maxStake: MAX_STAKE,
		locks:    make(map[string]*roundLock),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.rounds == nil {
		c.rounds = NewMemoryRoundStore()
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	c.logger = c.logger.With("component", "coordinator")
	return c
}

func (c *Coordinator) Registry() *Registry {
	return c.registry
}

func (c *Coordinator) MaxStake() decimal.Decimal {
	return c.maxStake
}

// validate runs every rejection check. Nothing here consumes a seed.
func (c *Coordinator) validate(req BetRequest, balance decimal.Decimal) (Game, error) {
	if !req.Stake.IsPositive() {
		return nil, fmt.Errorf("%w: stake must be positive, got %s", ErrInvalidStake, req.Stake)
	}
	if req.Stake.GreaterThan(c.maxStake) {
		return nil, fmt.Errorf("%w: stake %s exceeds maximum %s", ErrInvalidStake, req.Stake, c.maxStake)
	}
	g, err := c.registry.lookup(req.GameType)
	if err != nil {
		return nil, err
	}
	if err := g.Validate(req.Params); err != nil {
		return nil, err
	}
	if req.Stake.GreaterThan(balance) {
		return nil, fmt.Errorf("%w: stake %s exceeds available %s", ErrInsufficientFunds, req.Stake, balance)
	}
	return g, nil
}

// PlaceBet validates, assigns a seed, resolves and returns the settlement.
func (c *Coordinator) PlaceBet(req BetRequest, balance decimal.Decimal) (Settlement, error) {
	st := Settlement{State: StateRequested, Stake: req.Stake}

	g, err := c.validate(req, balance)
	if err != nil {
		st.State = StateRejected
		return st, err
	}

	seed, err := c.gen.Assign(req.ClientSeed)
	if err != nil {
		st.State = StateRejected
		return st, fmt.Errorf("assign seed: %w", err)
	}
	st.State = StateSeedAssigned
	st.Seed = seed

	out, uniform, err := resolve(g, seed, req.Stake, req.Params)
	if err != nil {
		c.logger.Error("resolver failed", "game", req.GameType, "nonce", seed.Nonce, "err", err)
		st.State = StateRejected
		return st, err
	}
	st.State = StateResolved
	st.Outcome = out
	st.Uniform = uniform

	st.State = StateSettled
	c.logger.Debug("bet resolved",
		"game", req.GameType,
		"stake", req.Stake.String(),
		"won", out.Won,
		"multiplier", out.Multiplier.String(),
		"nonce", seed.Nonce,
	)
	return st, nil
}

// VerifyOutcome recomputes a bet from its revealed seed and reports whether
// it matches the claimed outcome.
func (c *Coordinator) VerifyOutcome(seed fairness.Seed, gameType GameType, p Params, stake decimal.Decimal, claimed Outcome) (bool, error) {
	return VerifyOutcome(c.registry, seed, gameType, p, stake, claimed)
}

// VerifyOutcome needs nothing but the registry, so auditors can call it
// without a coordinator.
func VerifyOutcome(registry *Registry, seed fairness.Seed, gameType GameType, p Params, stake decimal.Decimal, claimed Outcome) (bool, error) {
	out, _, err := Replay(registry, seed, gameType, p, stake)
	if err != nil {
		return false, err
	}
	return out.Equal(claimed), nil
}

// Replay resolves a bet from a known seed without touching any nonce
// counter or balance.
func Replay(registry *Registry, seed fairness.Seed, gameType GameType, p Params, stake decimal.Decimal) (Outcome, float64, error) {
	g, err := registry.lookup(gameType)
	if err != nil {
		return Outcome{}, 0, err
	}
	if err := g.Validate(p); err != nil {
		return Outcome{}, 0, err
	}
	return resolve(g, seed, stake, p)
}

// StartSnakes opens a multi-roll round for owner. The round's server seed
// stays hidden until the round ends; callers show only its commitment
// meanwhile.
func (c *Coordinator) StartSnakes(ctx context.Context, owner string, req BetRequest, balance decimal.Decimal) (*SnakesRound, error) {
	req.GameType = GameTypeSnakes
	if _, err := c.validate(req, balance); err != nil {
		return nil, err
	}
	seed, err := c.gen.Assign(req.ClientSeed)
	if err != nil {
		return nil, fmt.Errorf("assign seed: %w", err)
	}
	round, err := NewSnakesRound(uuid.NewString(), req.Stake, req.Params.Risk, seed)
	if err != nil {
		return nil, err
	}
	round.Owner = owner
	if err := c.rounds.Save(ctx, round); err != nil {
		return nil, fmt.Errorf("save round: %w", err)
	}
	c.logger.Info("snakes round started", "round", round.ID, "risk", round.Risk, "traps", len(round.Traps))
	return round, nil
}

// RollSnakes advances a round by one roll. A round that ends here stays
// stored until SettleSnakes.
func (c *Coordinator) RollSnakes(ctx context.Context, owner, roundID string) (*SnakesRound, SnakesStep, error) {
	unlock := c.lockRound(roundID)
	defer unlock()

	round, err := c.loadRound(ctx, owner, roundID)
	if err != nil {
		return nil, SnakesStep{}, err
	}
	step, err := round.Roll()
	if err != nil {
		return nil, SnakesStep{}, err
	}
	if err := c.persistRound(ctx, round); err != nil {
		return nil, SnakesStep{}, err
	}
	return round, step, nil
}

// CashOutSnakes ends a round and pays its current multiplier.
func (c *Coordinator) CashOutSnakes(ctx context.Context, owner, roundID string) (*SnakesRound, error) {
	unlock := c.lockRound(roundID)
	defer unlock()

	round, err := c.loadRound(ctx, owner, roundID)
	if err != nil {
		return nil, err
	}
	if err := round.CashOut(); err != nil {
		return nil, err
	}
	if err := c.persistRound(ctx, round); err != nil {
		return nil, err
	}
	return round, nil
}

// SettleSnakes hands a finished round to settle and forgets it once settle
// succeeds. On error the round stays stored, so a later call settles it
// again; settle must therefore be idempotent per round.
func (c *Coordinator) SettleSnakes(ctx context.Context, owner, roundID string, settle func(*SnakesRound) error) (*SnakesRound, error) {
	unlock := c.lockRound(roundID)
	defer unlock()

	round, err := c.loadRound(ctx, owner, roundID)
	if err != nil {
		return nil, err
	}
	if round.Active() {
		return nil, fmt.Errorf("%w: round %s is still active", ErrInvalidParameters, roundID)
	}
	if err := settle(round); err != nil {
		c.logger.Warn("snakes settlement failed", "round", roundID, "err", err)
		return nil, err
	}
	if err := c.rounds.Delete(ctx, roundID); err != nil {
		return nil, fmt.Errorf("delete round: %w", err)
	}
	c.logger.Info("snakes round ended",
		"round", round.ID,
		"status", round.Status,
		"rolls", round.Rolls,
		"multiplier", round.Multiplier.String(),
	)
	return round, nil
}

// DiscardSnakes drops an active round without settling it, for when the
// caller could not take the stake after StartSnakes.
func (c *Coordinator) DiscardSnakes(ctx context.Context, roundID string) error {
	unlock := c.lockRound(roundID)
	defer unlock()

	if err := c.rounds.Delete(ctx, roundID); err != nil {
		return fmt.Errorf("delete round: %w", err)
	}
	c.logger.Warn("snakes round discarded", "round", roundID)
	return nil
}

// loadRound hides rounds owned by someone else behind ErrRoundNotFound.
func (c *Coordinator) loadRound(ctx context.Context, owner, roundID string) (*SnakesRound, error) {
	round, err := c.rounds.Load(ctx, roundID)
	if err != nil {
		return nil, err
	}
	if round.Owner != owner {
		return nil, fmt.Errorf("%w: %s", ErrRoundNotFound, roundID)
	}
	return round, nil
}

// persistRound keeps finished rounds too; SettleSnakes removes them.
func (c *Coordinator) persistRound(ctx context.Context, round *SnakesRound) error {
	if err := c.rounds.Save(ctx, round); err != nil {
		return fmt.Errorf("save round: %w", err)
	}
	return nil
}

type roundLock struct {
	mu   sync.Mutex
	refs int
}

// lockRound serializes work on one round. The entry lives only while some
// caller holds or waits for it.
func (c *Coordinator) lockRound(id string) func() {
	c.locksMu.Lock()
	l, ok := c.locks[id]
	if !ok {
		l = &roundLock{}
		c.locks[id] = l
	}
	l.refs++
	c.locksMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		c.locksMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(c.locks, id)
		}
		c.locksMu.Unlock()
	}
}
