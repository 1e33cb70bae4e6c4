package game

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"fairplay/internal/fairness"
)

const (
	SNAKES_PATH_LENGTH = 25 // cells 0..24
	SNAKES_FINISH      = SNAKES_PATH_LENGTH - 1
	SNAKES_MAX_STEP    = 3

	// Draw cursors: trap placement uses 0..SNAKES_TRAP_ATTEMPTS-1, rolls
	// start at SNAKES_ROLL_CURSOR.
	SNAKES_TRAP_ATTEMPTS = 100
	SNAKES_ROLL_CURSOR   = 100

	SNAKES_STATUS_ACTIVE     = "ACTIVE"
	SNAKES_STATUS_BUSTED     = "BUSTED"
	SNAKES_STATUS_CASHED_OUT = "CASHED_OUT"
	SNAKES_STATUS_COMPLETED  = "COMPLETED"
)

// SnakesFixedTraps are always placed first. Only the remainder of a risk
// tier's snake count is drawn from the seed, so part of the board is known
// in advance.
var SnakesFixedTraps = []int{7, 13, 19}

type snakesRisk struct {
	snakes     int
	stepFactor decimal.Decimal
	trapBonus  decimal.Decimal
}

var snakesRisks = map[Risk]snakesRisk{
	RiskLow:    {snakes: 3, stepFactor: decimal.RequireFromString("0.04"), trapBonus: decimal.RequireFromString("0.10")},
	RiskMedium: {snakes: 5, stepFactor: decimal.RequireFromString("0.07"), trapBonus: decimal.RequireFromString("0.20")},
	RiskHigh:   {snakes: 7, stepFactor: decimal.RequireFromString("0.10"), trapBonus: decimal.RequireFromString("0.35")},
}

// SnakesRound is one player's multi-roll round. It lives from StartSnakes
// until a bust, a cash-out or reaching the last cell.
type SnakesRound struct {
	ID          string          `json:"id"`
	Owner       string          `json:"owner,omitempty"`
	Stake       decimal.Decimal `json:"stake"`
	Risk        Risk            `json:"risk"`
	Seed        fairness.Seed   `json:"seed"`
	Traps       []int           `json:"traps"`
	Path        []int           `json:"path"`
	Position    int             `json:"position"`
	TrapsPassed int             `json:"traps_passed"`
	Rolls       int             `json:"rolls"`
	Multiplier  decimal.Decimal `json:"multiplier"`
	Status      string          `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
	EndedAt     time.Time       `json:"ended_at,omitempty"`
}

// SnakesStep reports a single roll.
type SnakesStep struct {
	Roll        int             `json:"roll"`
	From        int             `json:"from"`
	To          int             `json:"to"`
	HitTrap     bool            `json:"hit_trap"`
	TrapsPassed int             `json:"traps_passed"`
	Multiplier  decimal.Decimal `json:"multiplier"`
	Status      string          `json:"status"`
}

func validateSnakesRisk(risk Risk) (snakesRisk, error) {
	cfg, ok := snakesRisks[risk]
	if !ok {
		return snakesRisk{}, fmt.Errorf("%w: risk must be low, medium or high, got %q", ErrInvalidParameters, risk)
	}
	return cfg, nil
}

// NewSnakesRound places the traps for seed and returns an active round.
func NewSnakesRound(id string, stake decimal.Decimal, risk Risk, seed fairness.Seed) (*SnakesRound, error) {
	cfg, err := validateSnakesRisk(risk)
	if err != nil {
		return nil, err
	}
	traps, err := PlaceTraps(seed, cfg.snakes)
	if err != nil {
		return nil, err
	}
	return &SnakesRound{
		ID:         id,
		Stake:      stake,
		Risk:       risk,
		Seed:       seed,
		Traps:      traps,
		Path:       []int{0},
		Multiplier: decimal.NewFromInt(1),
		Status:     SNAKES_STATUS_ACTIVE,
		CreatedAt:  time.Now(),
	}, nil
}

// PlaceTraps takes the fixed prefix, then fills the rest with seed draws over
// cells 1..23, skipping cells already used.
func PlaceTraps(seed fairness.Seed, count int) ([]int, error) {
	traps := make([]int, 0, count)
	used := make(map[int]bool, count)
	for _, pos := range SnakesFixedTraps {
		if len(traps) == count {
			break
		}
		traps = append(traps, pos)
		used[pos] = true
	}

	inner := SNAKES_FINISH - 1
	for i := 0; len(traps) < count && i < SNAKES_TRAP_ATTEMPTS; i++ {
		u := fairness.DeriveAt(seed.ServerSeed, seed.ClientSeed, seed.Nonce, i)
		pos := 1 + int(math.Floor(u*float64(inner)))
		if !used[pos] {
			traps = append(traps, pos)
			used[pos] = true
		}
	}
	if len(traps) < count {
		return nil, fmt.Errorf("%w: placed %d of %d traps", ErrResolverFault, len(traps), count)
	}
	return traps, nil
}

func (r *SnakesRound) Active() bool {
	return r.Status == SNAKES_STATUS_ACTIVE
}

func (r *SnakesRound) isTrap(pos int) bool {
	for _, t := range r.Traps {
		if t == pos {
			return true
		}
	}
	return false
}

// Roll draws the next value of the round's stream and advances.
func (r *SnakesRound) Roll() (SnakesStep, error) {
	if !r.Active() {
		return SnakesStep{}, fmt.Errorf("%w: round %s is %s", ErrRoundFinished, r.ID, r.Status)
	}
	u := fairness.DeriveAt(r.Seed.ServerSeed, r.Seed.ClientSeed, r.Seed.Nonce, SNAKES_ROLL_CURSOR+r.Rolls)
	return r.Step(u)
}

// Step advances the round by one roll drawn from uniform.
func (r *SnakesRound) Step(uniform float64) (SnakesStep, error) {
	if !r.Active() {
		return SnakesStep{}, fmt.Errorf("%w: round %s is %s", ErrRoundFinished, r.ID, r.Status)
	}
	if err := checkUniform(uniform); err != nil {
		return SnakesStep{}, err
	}
	cfg, err := validateSnakesRisk(r.Risk)
	if err != nil {
		return SnakesStep{}, fmt.Errorf("%w: stored round has %v", ErrResolverFault, err)
	}

	roll := int(math.Floor(uniform*SNAKES_MAX_STEP)) + 1
	from := r.Position
	to := from + roll
	if to > SNAKES_FINISH {
		to = SNAKES_FINISH
	}
	for pos := from + 1; pos < to; pos++ {
		if r.isTrap(pos) {
			r.TrapsPassed++
		}
	}

	r.Rolls++
	r.Position = to
	r.Path = append(r.Path, to)

	step := SnakesStep{Roll: roll, From: from, To: to}
	switch {
	case r.isTrap(to):
		step.HitTrap = true
		r.Multiplier = decimal.Zero
		r.finish(SNAKES_STATUS_BUSTED)
	default:
		r.Multiplier = snakesMultiplier(cfg, r.Position, r.TrapsPassed)
		if to == SNAKES_FINISH {
			r.finish(SNAKES_STATUS_COMPLETED)
		}
	}
	step.TrapsPassed = r.TrapsPassed
	step.Multiplier = r.Multiplier
	step.Status = r.Status
	return step, nil
}

// CashOut ends an active round that has rolled at least once.
func (r *SnakesRound) CashOut() error {
	if !r.Active() {
		return fmt.Errorf("%w: round %s is %s", ErrRoundFinished, r.ID, r.Status)
	}
	if r.Rolls == 0 {
		return fmt.Errorf("%w: roll at least once before cashing out", ErrInvalidParameters)
	}
	r.finish(SNAKES_STATUS_CASHED_OUT)
	return nil
}

func (r *SnakesRound) finish(status string) {
	r.Status = status
	r.EndedAt = time.Now()
}

// Outcome describes the round as it stands; it is final once !Active().
func (r *SnakesRound) Outcome() Outcome {
	won := r.Status == SNAKES_STATUS_COMPLETED || r.Status == SNAKES_STATUS_CASHED_OUT
	multiplier := r.Multiplier
	if r.Status == SNAKES_STATUS_BUSTED {
		multiplier = decimal.Zero
	}
	path := make([]int, len(r.Path))
	copy(path, r.Path)
	traps := make([]int, len(r.Traps))
	copy(traps, r.Traps)
	return newOutcome(GameTypeSnakes, won, multiplier, r.Stake, Detail{
		Path:     path,
		Traps:    traps,
		Position: r.Position,
		Status:   r.Status,
	})
}

// Params records what replaying the round needs.
func (r *SnakesRound) Params() Params {
	p := Params{Risk: r.Risk}
	if r.Status == SNAKES_STATUS_CASHED_OUT {
		p.Steps = r.Rolls
	}
	return p
}

func snakesMultiplier(cfg snakesRisk, position, trapsPassed int) decimal.Decimal {
	return decimal.NewFromInt(1).
		Add(cfg.stepFactor.Mul(decimal.NewFromInt(int64(position)))).
		Add(cfg.trapBonus.Mul(decimal.NewFromInt(int64(trapsPassed))))
}

// SnakesResolver replays a whole round from its seed: Params.Steps rolls then
// a cash-out, or with Steps == 0 until the round busts or completes.
type SnakesResolver struct{}

func (SnakesResolver) GetType() GameType {
	return GameTypeSnakes
}

func (SnakesResolver) Validate(p Params) error {
	if _, err := validateSnakesRisk(p.Risk); err != nil {
		return err
	}
	if p.Steps < 0 || p.Steps > SNAKES_FINISH {
		return fmt.Errorf("%w: steps must be between 0 and %d, got %d", ErrInvalidParameters, SNAKES_FINISH, p.Steps)
	}
	return nil
}

func (s SnakesResolver) ResolveStream(seed fairness.Seed, stake decimal.Decimal, p Params) (Outcome, error) {
	if err := s.Validate(p); err != nil {
		return Outcome{}, err
	}
	round, err := NewSnakesRound("", stake, p.Risk, seed)
	if err != nil {
		return Outcome{}, err
	}
	for round.Active() && (p.Steps == 0 || round.Rolls < p.Steps) {
		if _, err := round.Roll(); err != nil {
			return Outcome{}, err
		}
	}
	if round.Active() {
		if err := round.CashOut(); err != nil {
			return Outcome{}, err
		}
	}
	return round.Outcome(), nil
}
