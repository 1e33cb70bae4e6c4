package game

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

const (
	PREDICTION_TRACK_MIN = 0.0
	PREDICTION_TRACK_MAX = 100.0
)

type predictionZone struct {
	halfWidth  float64
	multiplier decimal.Decimal
}

var predictionZones = map[Difficulty]predictionZone{
	DifficultyEasy:   {halfWidth: 15, multiplier: decimal.RequireFromString("1.5")},
	DifficultyMedium: {halfWidth: 10, multiplier: decimal.RequireFromString("2.5")},
	DifficultyHard:   {halfWidth: 5, multiplier: decimal.NewFromInt(5)},
}

// PredictionResolver scores a tap on a 0..100 track. The pointer position is
// reported by the caller; the target zone's centre comes from the uniform so
// the zone is verifiable from the revealed seeds.
type PredictionResolver struct{}

func (PredictionResolver) GetType() GameType {
	return GameTypePrediction
}

func (PredictionResolver) Validate(p Params) error {
	if _, ok := predictionZones[p.Difficulty]; !ok {
		return fmt.Errorf("%w: difficulty must be easy, medium or hard, got %q", ErrInvalidParameters, p.Difficulty)
	}
	if !(p.Position >= PREDICTION_TRACK_MIN && p.Position <= PREDICTION_TRACK_MAX) {
		return fmt.Errorf("%w: position must be between %.0f and %.0f, got %v",
			ErrInvalidParameters, PREDICTION_TRACK_MIN, PREDICTION_TRACK_MAX, p.Position)
	}
	return nil
}

func (r PredictionResolver) Resolve(uniform float64, stake decimal.Decimal, p Params) (Outcome, error) {
	if err := r.Validate(p); err != nil {
		return Outcome{}, err
	}
	if err := checkUniform(uniform); err != nil {
		return Outcome{}, err
	}

	zone := predictionZones[p.Difficulty]
	center := ZoneCenter(uniform, zone.halfWidth)
	won := math.Abs(p.Position-center) <= zone.halfWidth
	multiplier := decimal.Zero
	if won {
		multiplier = zone.multiplier
	}
	return newOutcome(GameTypePrediction, won, multiplier, stake, Detail{
		ZoneCenter:    center,
		ZoneHalfWidth: zone.halfWidth,
	}), nil
}

// ZoneCenter keeps the whole zone on the track.
func ZoneCenter(uniform, halfWidth float64) float64 {
	span := PREDICTION_TRACK_MAX - PREDICTION_TRACK_MIN - 2*halfWidth
	return PREDICTION_TRACK_MIN + halfWidth + uniform*span
}
