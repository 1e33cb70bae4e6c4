package game

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// BettingTier caps the win probability for stakes at or above Threshold.
type BettingTier struct {
	Threshold  decimal.Decimal `json:"threshold" yaml:"threshold"`
	WinCeiling float64         `json:"win_ceiling" yaml:"win_ceiling"`
}

// DefaultTiers is ordered by increasing stake and decreasing win chance.
var DefaultTiers = []BettingTier{
	{Threshold: decimal.NewFromInt(0), WinCeiling: 0.50},
	{Threshold: decimal.NewFromInt(10), WinCeiling: 0.45},
	{Threshold: decimal.NewFromInt(50), WinCeiling: 0.40},
	{Threshold: decimal.NewFromInt(100), WinCeiling: 0.35},
	{Threshold: decimal.NewFromInt(500), WinCeiling: 0.30},
	{Threshold: decimal.NewFromInt(1000), WinCeiling: 0.25},
	{Threshold: decimal.NewFromInt(5000), WinCeiling: 0.20},
}

// TierPolicy is a read-only stake-to-win-ceiling table.
type TierPolicy struct {
	tiers []BettingTier
}

// NewTierPolicy copies and validates tiers: non-empty, strictly ascending
// thresholds, ceilings in (0, 1] that never increase.
func NewTierPolicy(tiers []BettingTier) (*TierPolicy, error) {
	if len(tiers) == 0 {
		return nil, fmt.Errorf("%w: empty tier table", ErrResolverFault)
	}
	for i, t := range tiers {
		if t.WinCeiling <= 0 || t.WinCeiling > 1 {
			return nil, fmt.Errorf("%w: tier %d ceiling %v outside (0, 1]", ErrResolverFault, i, t.WinCeiling)
		}
		if i == 0 {
			continue
		}
		prev := tiers[i-1]
		if !t.Threshold.GreaterThan(prev.Threshold) {
			return nil, fmt.Errorf("%w: tier %d threshold %s not above %s", ErrResolverFault, i, t.Threshold, prev.Threshold)
		}
		if t.WinCeiling > prev.WinCeiling {
			return nil, fmt.Errorf("%w: tier %d ceiling %v above previous %v", ErrResolverFault, i, t.WinCeiling, prev.WinCeiling)
		}
	}
	cp := make([]BettingTier, len(tiers))
	copy(cp, tiers)
	return &TierPolicy{tiers: cp}, nil
}

// DefaultTierPolicy panics only if DefaultTiers is malformed.
func DefaultTierPolicy() *TierPolicy {
	p, err := NewTierPolicy(DefaultTiers)
	if err != nil {
		panic(err)
	}
	return p
}

// WinCeiling returns the ceiling of the highest tier whose threshold does not
// exceed stake, or the first tier's ceiling when stake is below every tier.
func (p *TierPolicy) WinCeiling(stake decimal.Decimal) float64 {
	for i := len(p.tiers) - 1; i >= 0; i-- {
		if p.tiers[i].Threshold.LessThanOrEqual(stake) {
			return p.tiers[i].WinCeiling
		}
	}
	return p.tiers[0].WinCeiling
}

func (p *TierPolicy) Tiers() []BettingTier {
	cp := make([]BettingTier, len(p.tiers))
	copy(cp, p.tiers)
	return cp
}
