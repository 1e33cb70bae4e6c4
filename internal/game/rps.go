package game

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// RPS_DRAW_BAND is the width of the draw band after the win band.
const RPS_DRAW_BAND = 0.20

var (
	rpsWinMultiplier  = decimal.NewFromInt(2)
	rpsDrawMultiplier = decimal.NewFromInt(1)
)

// RPSResolver splits [0, 1) into win, draw and loss bands and picks the
// opponent's throw from the band the uniform falls into.
type RPSResolver struct {
	Policy *TierPolicy
}

func (RPSResolver) GetType() GameType {
	return GameTypeRPS
}

func (RPSResolver) Validate(p Params) error {
	if !p.Throw.valid() {
		return fmt.Errorf("%w: throw must be rock, paper or scissors, got %q", ErrInvalidParameters, p.Throw)
	}
	return nil
}

func (r RPSResolver) Resolve(uniform float64, stake decimal.Decimal, p Params) (Outcome, error) {
	if err := r.Validate(p); err != nil {
		return Outcome{}, err
	}
	if err := checkUniform(uniform); err != nil {
		return Outcome{}, err
	}
	if r.Policy == nil {
		return Outcome{}, fmt.Errorf("%w: rps has no tier policy", ErrResolverFault)
	}

	winChance := r.Policy.WinCeiling(stake)
	drawBand := math.Min(RPS_DRAW_BAND, 1-winChance)

	detail := Detail{WinChance: winChance}
	switch {
	case uniform < winChance:
		detail.OpponentThrow = p.Throw.Beats()
		return newOutcome(GameTypeRPS, true, rpsWinMultiplier, stake, detail), nil
	case uniform < winChance+drawBand:
		detail.OpponentThrow = p.Throw
		detail.Draw = true
		return newOutcome(GameTypeRPS, false, rpsDrawMultiplier, stake, detail), nil
	default:
		detail.OpponentThrow = p.Throw.BeatenBy()
		return newOutcome(GameTypeRPS, false, decimal.Zero, stake, detail), nil
	}
}
