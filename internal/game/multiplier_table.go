package game

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// Multiplier tables for the pop games. Every draw pays something.
var (
	BalloonMultipliers = []float64{0.2, 0.5, 1, 1.5, 2, 2.5, 3, 4, 5}
	CardPopMultipliers = []float64{0.2, 0.5, 1, 1.2, 1.5, 2, 3, 5, 10}
)

// MultiplierTableResolver indexes a fixed table with floor(u * len).
type MultiplierTableResolver struct {
	gameType GameType
	table    []decimal.Decimal
}

func NewMultiplierTableResolver(gameType GameType, table []float64) MultiplierTableResolver {
	dt := make([]decimal.Decimal, len(table))
	for i, m := range table {
		dt[i] = decimal.NewFromFloat(m)
	}
	return MultiplierTableResolver{gameType: gameType, table: dt}
}

func (m MultiplierTableResolver) GetType() GameType {
	return m.gameType
}

// Validate accepts any params; the pop games take no choices.
func (MultiplierTableResolver) Validate(Params) error {
	return nil
}

func (m MultiplierTableResolver) Resolve(uniform float64, stake decimal.Decimal, p Params) (Outcome, error) {
	if err := checkUniform(uniform); err != nil {
		return Outcome{}, err
	}
	if len(m.table) == 0 {
		return Outcome{}, fmt.Errorf("%w: %s multiplier table is empty", ErrResolverFault, m.gameType)
	}

	idx := int(math.Floor(uniform * float64(len(m.table))))
	multiplier := m.table[idx]
	won := multiplier.GreaterThan(decimal.NewFromInt(1))
	return newOutcome(m.gameType, won, multiplier, stake, Detail{Index: idx}), nil
}
