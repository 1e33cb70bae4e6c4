package game

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

const (
	LIMBO_MAX_MULTIPLIER = 100.0
	LIMBO_RTP            = 0.95
	LIMBO_MIN_CHANCE     = 0.01
	LIMBO_MAX_CHANCE     = 0.95
	LIMBO_BUST_POINT     = 1.00
)

// LimboResolver derives a crash point of 1/(1-u) and pays stake x target when
// the crash point reaches the target. The winning window [1-1/T, 1) is cut to
// winChance = clamp(0.95/T, 1%, 95%); its top band is a house bust at 1.00x.
type LimboResolver struct{}

func (LimboResolver) GetType() GameType {
	return GameTypeLimbo
}

func (LimboResolver) Validate(p Params) error {
	if !(p.Target > 1) || p.Target > LIMBO_MAX_MULTIPLIER {
		return fmt.Errorf("%w: target multiplier must be in (1, %.0f], got %v",
			ErrInvalidParameters, LIMBO_MAX_MULTIPLIER, p.Target)
	}
	return nil
}

func (l LimboResolver) Resolve(uniform float64, stake decimal.Decimal, p Params) (Outcome, error) {
	if err := l.Validate(p); err != nil {
		return Outcome{}, err
	}
	if err := checkUniform(uniform); err != nil {
		return Outcome{}, err
	}

	target := p.Target
	chance := LimboWinChance(target)
	lo := 1 - 1/target
	won := uniform >= lo && uniform < lo+chance
	crash := CrashPoint(uniform)

	switch {
	case won:
		crash = math.Max(crash, target)
	case uniform >= lo:
		crash = LIMBO_BUST_POINT
	case crash >= target:
		crash = math.Max(LIMBO_BUST_POINT, math.Floor((target-0.01)*100)/100)
	}

	multiplier := decimal.Zero
	if won {
		multiplier = decimal.NewFromFloat(target)
	}
	return newOutcome(GameTypeLimbo, won, multiplier, stake, Detail{CrashPoint: crash, WinChance: chance}), nil
}

// CrashPoint is 1/(1-u) capped at LIMBO_MAX_MULTIPLIER, floored to 2 decimals.
func CrashPoint(uniform float64) float64 {
	raw := 1 / (1 - uniform)
	if raw > LIMBO_MAX_MULTIPLIER {
		raw = LIMBO_MAX_MULTIPLIER
	}
	return math.Floor(raw*100) / 100
}

// LimboWinChance approximates (1/T) x 95%, clamped to [1%, 95%].
func LimboWinChance(target float64) float64 {
	c := LIMBO_RTP / target
	return math.Min(LIMBO_MAX_CHANCE, math.Max(LIMBO_MIN_CHANCE, c))
}
