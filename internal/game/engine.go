package game

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"fairplay/internal/fairness"
)

// Game is what every registered game declares.
type Game interface {
	GetType() GameType
	// Validate rejects out-of-range parameters before any draw is made.
	Validate(p Params) error
}

// Resolver maps a single uniform value plus the caller's choices to an
// Outcome. Implementations are pure: the same inputs always give the same
// Outcome.
type Resolver interface {
	Game
	Resolve(uniform float64, stake decimal.Decimal, p Params) (Outcome, error)
}

// StreamResolver needs more than one draw per bet and reads them from the
// seed's DeriveAt stream.
type StreamResolver interface {
	Game
	ResolveStream(seed fairness.Seed, stake decimal.Decimal, p Params) (Outcome, error)
}

// Registry dispatches on GameType to the registered game.
type Registry struct {
	resolvers map[GameType]Game
}

func NewRegistry() *Registry {
	return &Registry{resolvers: make(map[GameType]Game)}
}

// NewDefaultRegistry registers every game, tier-gated ones against policy.
func NewDefaultRegistry(policy *TierPolicy) *Registry {
	r := NewRegistry()
	r.Register(DiceResolver{})
	r.Register(CoinFlipResolver{Policy: policy})
	r.Register(RPSResolver{Policy: policy})
	r.Register(LimboResolver{})
	r.Register(NewMultiplierTableResolver(GameTypeBalloon, BalloonMultipliers))
	r.Register(NewMultiplierTableResolver(GameTypeCardPop, CardPopMultipliers))
	r.Register(PredictionResolver{})
	r.Register(SnakesResolver{})
	return r
}

func (r *Registry) Register(g Game) {
	r.resolvers[g.GetType()] = g
}

func (r *Registry) Get(gameType GameType) (Game, bool) {
	res, ok := r.resolvers[gameType]
	return res, ok
}

// Types lists registered game types in a stable order.
func (r *Registry) Types() []GameType {
	out := make([]GameType, 0, len(r.resolvers))
	for t := range r.resolvers {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (r *Registry) lookup(gameType GameType) (Game, error) {
	res, ok := r.resolvers[gameType]
	if !ok {
		return nil, fmt.Errorf("%w: unknown game type %q", ErrInvalidParameters, gameType)
	}
	return res, nil
}

func newOutcome(gameType GameType, won bool, multiplier, stake decimal.Decimal, detail Detail) Outcome {
	return Outcome{
		GameType:   gameType,
		Won:        won,
		Multiplier: multiplier,
		Payout:     stake.Mul(multiplier),
		Detail:     detail,
	}
}

// resolve draws what g needs from seed and resolves it.
func resolve(g Game, seed fairness.Seed, stake decimal.Decimal, p Params) (Outcome, float64, error) {
	uniform := seed.Uniform()
	switch res := g.(type) {
	case Resolver:
		out, err := res.Resolve(uniform, stake, p)
		return out, uniform, err
	case StreamResolver:
		out, err := res.ResolveStream(seed, stake, p)
		return out, uniform, err
	default:
		return Outcome{}, uniform, fmt.Errorf("%w: %s has no resolver", ErrResolverFault, g.GetType())
	}
}

func checkUniform(u float64) error {
	if u < 0 || u >= 1 {
		return fmt.Errorf("%w: uniform %v outside [0, 1)", ErrResolverFault, u)
	}
	return nil
}
