package game

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestTierPolicy_WinCeiling(t *testing.T) {
	policy := DefaultTierPolicy()

	tests := []struct {
		stake string
		want  float64
	}{
		{"0.01", 0.50},
		{"1", 0.50},
		{"9.99", 0.50},
		{"10", 0.45},
		{"49", 0.45},
		{"50", 0.40},
		{"100", 0.35},
		{"750", 0.30},
		{"1000", 0.25},
		{"5000", 0.20},
		{"1000000", 0.20},
	}

	for _, tt := range tests {
		t.Run(tt.stake, func(t *testing.T) {
			got := policy.WinCeiling(decimal.RequireFromString(tt.stake))
			if got != tt.want {
				t.Errorf("WinCeiling(%s) = %v, want %v", tt.stake, got, tt.want)
			}
		})
	}
}

func TestTierPolicy_BelowEveryThreshold(t *testing.T) {
	policy, err := NewTierPolicy([]BettingTier{
		{Threshold: decimal.NewFromInt(5), WinCeiling: 0.6},
		{Threshold: decimal.NewFromInt(20), WinCeiling: 0.3},
	})
	if err != nil {
		t.Fatalf("NewTierPolicy() error = %v", err)
	}
	if got := policy.WinCeiling(decimal.NewFromInt(1)); got != 0.6 {
		t.Errorf("WinCeiling(1) = %v, want first tier's 0.6", got)
	}
}

func TestTierPolicy_Monotonic(t *testing.T) {
	policy := DefaultTierPolicy()

	prev := policy.WinCeiling(decimal.Zero)
	for cents := int64(1); cents <= 1_000_000; cents += 137 {
		stake := decimal.New(cents, -2)
		got := policy.WinCeiling(stake)
		if got > prev {
			t.Fatalf("WinCeiling(%s) = %v rose above %v", stake, got, prev)
		}
		if got <= 0 || got > 1 {
			t.Fatalf("WinCeiling(%s) = %v outside (0, 1]", stake, got)
		}
		prev = got
	}
}

func TestNewTierPolicy_Validation(t *testing.T) {
	tests := []struct {
		name  string
		tiers []BettingTier
	}{
		{"empty", nil},
		{"zero ceiling", []BettingTier{{Threshold: decimal.Zero, WinCeiling: 0}}},
		{"ceiling above one", []BettingTier{{Threshold: decimal.Zero, WinCeiling: 1.2}}},
		{"thresholds not ascending", []BettingTier{
			{Threshold: decimal.NewFromInt(10), WinCeiling: 0.5},
			{Threshold: decimal.NewFromInt(10), WinCeiling: 0.4},
		}},
		{"ceiling increases", []BettingTier{
			{Threshold: decimal.NewFromInt(0), WinCeiling: 0.4},
			{Threshold: decimal.NewFromInt(10), WinCeiling: 0.5},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTierPolicy(tt.tiers)
			if !errors.Is(err, ErrResolverFault) {
				t.Errorf("NewTierPolicy() error = %v, want ErrResolverFault", err)
			}
		})
	}
}

func TestTierPolicy_TiersIsACopy(t *testing.T) {
	policy := DefaultTierPolicy()
	tiers := policy.Tiers()
	tiers[0].WinCeiling = 0.99

	if policy.WinCeiling(decimal.NewFromInt(1)) != 0.50 {
		t.Error("mutating Tiers() result changed the policy")
	}
}
