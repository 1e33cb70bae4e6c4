package game

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

const (
	DICE_MIN_FACE = 1
	DICE_MAX_FACE = 6
)

var diceWinMultiplier = decimal.NewFromInt(5)

// DiceResolver wins when the rolled face equals the chosen face. The stake
// tier does not gate dice: face equality alone decides.
type DiceResolver struct{}

func (DiceResolver) GetType() GameType {
	return GameTypeDice
}

func (DiceResolver) Validate(p Params) error {
	if p.Face < DICE_MIN_FACE || p.Face > DICE_MAX_FACE {
		return fmt.Errorf("%w: face must be between %d and %d, got %d",
			ErrInvalidParameters, DICE_MIN_FACE, DICE_MAX_FACE, p.Face)
	}
	return nil
}

func (d DiceResolver) Resolve(uniform float64, stake decimal.Decimal, p Params) (Outcome, error) {
	if err := d.Validate(p); err != nil {
		return Outcome{}, err
	}
	if err := checkUniform(uniform); err != nil {
		return Outcome{}, err
	}

	face := RollFace(uniform)
	won := face == p.Face
	multiplier := decimal.Zero
	if won {
		multiplier = diceWinMultiplier
	}
	return newOutcome(GameTypeDice, won, multiplier, stake, Detail{Face: face}), nil
}

// RollFace maps a uniform onto 1..6.
func RollFace(uniform float64) int {
	return int(math.Floor(uniform*DICE_MAX_FACE)) + 1
}
