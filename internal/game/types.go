package game

import (
	"github.com/shopspring/decimal"

	"fairplay/internal/fairness"
)

type GameType string

const (
	GameTypeDice       GameType = "dice"
	GameTypeCoinFlip   GameType = "coinflip"
	GameTypeRPS        GameType = "rps"
	GameTypeLimbo      GameType = "limbo"
	GameTypeBalloon    GameType = "balloon"
	GameTypeCardPop    GameType = "cardpop"
	GameTypeSnakes     GameType = "snakes"
	GameTypePrediction GameType = "prediction"
)

type Side string

const (
	SideHeads Side = "heads"
	SideTails Side = "tails"
)

func (s Side) Opposite() Side {
	if s == SideHeads {
		return SideTails
	}
	return SideHeads
}

type Throw string

const (
	ThrowRock     Throw = "rock"
	ThrowPaper    Throw = "paper"
	ThrowScissors Throw = "scissors"
)

// Beats returns the throw that t beats.
func (t Throw) Beats() Throw {
	switch t {
	case ThrowRock:
		return ThrowScissors
	case ThrowPaper:
		return ThrowRock
	default:
		return ThrowPaper
	}
}

// BeatenBy returns the throw that beats t.
func (t Throw) BeatenBy() Throw {
	switch t {
	case ThrowRock:
		return ThrowPaper
	case ThrowPaper:
		return ThrowScissors
	default:
		return ThrowRock
	}
}

func (t Throw) valid() bool {
	return t == ThrowRock || t == ThrowPaper || t == ThrowScissors
}

type Risk string

const (
	RiskLow    Risk = "low"
	RiskMedium Risk = "medium"
	RiskHigh   Risk = "high"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Params carries the game-specific choices of a bet. Each resolver reads
// only the fields it declares and validates them before any draw.
type Params struct {
	Face       int        `json:"face,omitempty"`
	Side       Side       `json:"side,omitempty"`
	Throw      Throw      `json:"throw,omitempty"`
	Target     float64    `json:"target,omitempty"`
	Risk       Risk       `json:"risk,omitempty"`
	Difficulty Difficulty `json:"difficulty,omitempty"`
	Position   float64    `json:"position,omitempty"`
	Steps      int        `json:"steps,omitempty"`
}

type BetRequest struct {
	GameType   GameType        `json:"game_type"`
	Stake      decimal.Decimal `json:"stake"`
	Params     Params          `json:"params"`
	ClientSeed *string         `json:"client_seed,omitempty"`
}

// Detail is the game-specific reveal attached to an Outcome.
type Detail struct {
	Face          int     `json:"face,omitempty"`
	Side          Side    `json:"side,omitempty"`
	OpponentThrow Throw   `json:"opponent_throw,omitempty"`
	Draw          bool    `json:"draw,omitempty"`
	CrashPoint    float64 `json:"crash_point,omitempty"`
	WinChance     float64 `json:"win_chance,omitempty"`
	Index         int     `json:"index"`
	ZoneCenter    float64 `json:"zone_center,omitempty"`
	ZoneHalfWidth float64 `json:"zone_half_width,omitempty"`
	Path          []int   `json:"path,omitempty"`
	Traps         []int   `json:"traps,omitempty"`
	Position      int     `json:"position,omitempty"`
	Status        string  `json:"status,omitempty"`
}

// Outcome is the immutable result of resolving one bet.
type Outcome struct {
	GameType   GameType        `json:"game_type"`
	Won        bool            `json:"won"`
	Multiplier decimal.Decimal `json:"multiplier"`
	Payout     decimal.Decimal `json:"payout"`
	Detail     Detail          `json:"detail"`
}

// Net is the balance delta the wallet applies for this outcome.
func (o Outcome) Net(stake decimal.Decimal) decimal.Decimal {
	return o.Payout.Sub(stake)
}

// Equal compares two outcomes field by field, decimals by value.
func (o Outcome) Equal(other Outcome) bool {
	if o.GameType != other.GameType || o.Won != other.Won {
		return false
	}
	if !o.Multiplier.Equal(other.Multiplier) || !o.Payout.Equal(other.Payout) {
		return false
	}
	a, b := o.Detail, other.Detail
	if a.Face != b.Face || a.Side != b.Side || a.OpponentThrow != b.OpponentThrow ||
		a.Draw != b.Draw || a.CrashPoint != b.CrashPoint || a.WinChance != b.WinChance ||
		a.Index != b.Index || a.ZoneCenter != b.ZoneCenter || a.ZoneHalfWidth != b.ZoneHalfWidth ||
		a.Position != b.Position || a.Status != b.Status {
		return false
	}
	return equalInts(a.Path, b.Path) && equalInts(a.Traps, b.Traps)
}

type BetState string

const (
	StateRequested    BetState = "REQUESTED"
	StateSeedAssigned BetState = "SEED_ASSIGNED"
	StateResolved     BetState = "RESOLVED"
	StateSettled      BetState = "SETTLED"
	StateRejected     BetState = "REJECTED"
)

// Settlement is what PlaceBet hands back: the outcome plus the seeds that
// let anyone re-derive it.
type Settlement struct {
	State   BetState        `json:"state"`
	Stake   decimal.Decimal `json:"stake"`
	Outcome Outcome         `json:"outcome"`
	Seed    fairness.Seed   `json:"seed"`
	Uniform float64         `json:"uniform"`
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
