package server

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"fairplay/internal/cache"
	"fairplay/internal/database"
	"fairplay/internal/fairness"
	"fairplay/internal/game"
)

type placeBetRequest struct {
	UserID     string          `json:"user_id"`
	GameType   game.GameType   `json:"game_type"`
	Stake      decimal.Decimal `json:"stake"`
	ClientSeed *string         `json:"client_seed,omitempty"`
	Params     game.Params     `json:"params"`
}

type verifyRequest struct {
	ServerSeed string          `json:"server_seed"`
	ClientSeed string          `json:"client_seed"`
	Nonce      uint64          `json:"nonce"`
	GameType   game.GameType   `json:"game_type"`
	Stake      decimal.Decimal `json:"stake"`
	Params     game.Params     `json:"params"`
	Outcome    game.Outcome    `json:"outcome"`
}

type snakesStartRequest struct {
	UserID     string          `json:"user_id"`
	Stake      decimal.Decimal `json:"stake"`
	Risk       game.Risk       `json:"risk"`
	ClientSeed *string         `json:"client_seed,omitempty"`
}

type snakesActionRequest struct {
	UserID  string `json:"user_id"`
	RoundID string `json:"round_id"`
}

// seedView omits the server seed until it may be revealed.
type seedView struct {
	ServerSeed     string `json:"server_seed,omitempty"`
	ServerSeedHash string `json:"server_seed_hash"`
	ClientSeed     string `json:"client_seed"`
	Nonce          uint64 `json:"nonce"`
}

func revealSeed(seed fairness.Seed) seedView {
	v := commitSeed(seed)
	v.ServerSeed = seed.ServerSeed
	return v
}

func commitSeed(seed fairness.Seed) seedView {
	return seedView{
		ServerSeedHash: seed.Commitment(),
		ClientSeed:     seed.ClientSeed,
		Nonce:          seed.Nonce,
	}
}

type betResponse struct {
	BetID   string          `json:"bet_id"`
	State   game.BetState   `json:"state"`
	Stake   decimal.Decimal `json:"stake"`
	Outcome game.Outcome    `json:"outcome"`
	Net     decimal.Decimal `json:"net"`
	Seed    seedView        `json:"seed"`
	Uniform float64         `json:"uniform"`
	Balance decimal.Decimal `json:"balance"`
}

type snakesRoundView struct {
	RoundID     string          `json:"round_id"`
	Status      string          `json:"status"`
	Risk        game.Risk       `json:"risk"`
	Stake       decimal.Decimal `json:"stake"`
	Position    int             `json:"position"`
	Path        []int           `json:"path"`
	Rolls       int             `json:"rolls"`
	TrapsPassed int             `json:"traps_passed"`
	Multiplier  decimal.Decimal `json:"multiplier"`
	Payout      decimal.Decimal `json:"payout"`
	Seed        seedView        `json:"seed"`
	FixedTraps  []int           `json:"fixed_traps"`
	Traps       []int           `json:"traps,omitempty"`
	Params      *game.Params    `json:"params,omitempty"`
}

// roundView shows the board only once the round is over.
func roundView(r *game.SnakesRound) snakesRoundView {
	v := snakesRoundView{
		RoundID:     r.ID,
		Status:      r.Status,
		Risk:        r.Risk,
		Stake:       r.Stake,
		Position:    r.Position,
		Path:        r.Path,
		Rolls:       r.Rolls,
		TrapsPassed: r.TrapsPassed,
		Multiplier:  r.Multiplier,
		Payout:      r.Stake.Mul(r.Multiplier),
		Seed:        commitSeed(r.Seed),
		FixedTraps:  game.SnakesFixedTraps,
	}
	if !r.Active() {
		p := r.Params()
		v.Seed = revealSeed(r.Seed)
		v.Traps = r.Traps
		v.Params = &p
		v.Payout = r.Outcome().Payout
	}
	return v
}

type settledEvent struct {
	BetID      string          `json:"bet_id"`
	UserID     string          `json:"user_id"`
	GameType   game.GameType   `json:"game_type"`
	Stake      decimal.Decimal `json:"stake"`
	Won        bool            `json:"won"`
	Multiplier decimal.Decimal `json:"multiplier"`
	Payout     decimal.Decimal `json:"payout"`
}

func newSettledEvent(rec *database.BetRecord) Message {
	return Message{
		Type: "bet_settled",
		Data: settledEvent{
			BetID:      rec.ID,
			UserID:     rec.UserID,
			GameType:   rec.GameType,
			Stake:      rec.Stake,
			Won:        rec.Outcome.Won,
			Multiplier: rec.Outcome.Multiplier,
			Payout:     rec.Outcome.Payout,
		},
	}
}

// fail maps core and adapter errors onto HTTP statuses.
func (s *FiberServer) fail(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, game.ErrRoundNotFound), errors.Is(err, database.ErrBetNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case game.IsUserError(err):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, cache.ErrWalletBusy):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Wallet busy, retry"})
	default:
		s.logger.Error("request failed", "method", c.Method(), "path", c.Path(), "err", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
	}
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}
