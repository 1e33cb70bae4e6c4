package game

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var coinFlipWinMultiplier = decimal.NewFromInt(2)

// CoinFlipResolver first decides win/lose against the stake tier's ceiling,
// then shows the chosen side on a win and the other side on a loss.
type CoinFlipResolver struct {
	Policy *TierPolicy
}

func (CoinFlipResolver) GetType() GameType {
	return GameTypeCoinFlip
}

func (CoinFlipResolver) Validate(p Params) error {
	if p.Side != SideHeads && p.Side != SideTails {
		return fmt.Errorf("%w: side must be heads or tails, got %q", ErrInvalidParameters, p.Side)
	}
	return nil
}

func (c CoinFlipResolver) Resolve(uniform float64, stake decimal.Decimal, p Params) (Outcome, error) {
	if err := c.Validate(p); err != nil {
		return Outcome{}, err
	}
	if err := checkUniform(uniform); err != nil {
		return Outcome{}, err
	}
	if c.Policy == nil {
		return Outcome{}, fmt.Errorf("%w: coinflip has no tier policy", ErrResolverFault)
	}

	chance := c.Policy.WinCeiling(stake)
	won := uniform < chance
	shown := p.Side.Opposite()
	multiplier := decimal.Zero
	if won {
		shown = p.Side
		multiplier = coinFlipWinMultiplier
	}
	return newOutcome(GameTypeCoinFlip, won, multiplier, stake, Detail{Side: shown, WinChance: chance}), nil
}
