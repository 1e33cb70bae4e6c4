package server

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"fairplay/internal/database"
	"fairplay/internal/fairness"
	"fairplay/internal/game"
)

func (s *FiberServer) RegisterGameRoutes() {
	api := s.App.Group("/api/v1")

	api.Get("/games", s.listGamesHandler)
	api.Post("/bets", s.placeBetHandler)
	api.Get("/bets/:betId", s.getBetHandler)
	api.Post("/verify", s.verifyHandler)

	snakes := api.Group("/snakes")
	snakes.Post("/start", s.startSnakesHandler)
	snakes.Post("/roll", s.rollSnakesHandler)
	snakes.Post("/cashout", s.cashOutSnakesHandler)
}

func (s *FiberServer) listGamesHandler(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"games":     s.coordinator.Registry().Types(),
		"tiers":     s.policy.Tiers(),
		"max_stake": s.coordinator.MaxStake(),
	})
}

// placeBetHandler resolves a single-shot bet and settles its net result
// against the wallet in one idempotent step.
func (s *FiberServer) placeBetHandler(c *fiber.Ctx) error {
	var req placeBetRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.UserID == "" {
		return badRequest(c, "User ID is required")
	}
	ctx := c.UserContext()

	balance, err := s.wallet.Balance(ctx, req.UserID)
	if err != nil {
		return s.fail(c, err)
	}

	st, err := s.coordinator.PlaceBet(game.BetRequest{
		GameType:   req.GameType,
		Stake:      req.Stake,
		Params:     req.Params,
		ClientSeed: req.ClientSeed,
	}, balance)
	if err != nil {
		return s.fail(c, err)
	}

	betID := uuid.NewString()
	newBalance, _, err := s.wallet.Apply(ctx, req.UserID, betID, st.Outcome.Net(st.Stake))
	if err != nil {
		return s.fail(c, err)
	}

	rec := &database.BetRecord{
		ID:           betID,
		UserID:       req.UserID,
		GameType:     req.GameType,
		Stake:        st.Stake,
		Params:       req.Params,
		Outcome:      st.Outcome,
		Seed:         st.Seed,
		Uniform:      st.Uniform,
		BalanceAfter: newBalance,
		CreatedAt:    time.Now().UTC(),
	}
	s.record(ctx, rec, nil)

	return c.JSON(betResponse{
		BetID:   betID,
		State:   st.State,
		Stake:   st.Stake,
		Outcome: st.Outcome,
		Net:     st.Outcome.Net(st.Stake),
		Seed:    revealSeed(st.Seed),
		Uniform: st.Uniform,
		Balance: newBalance,
	})
}

func (s *FiberServer) getBetHandler(c *fiber.Ctx) error {
	if s.bets == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Bet history unavailable"})
	}
	rec, err := s.bets.Get(c.UserContext(), c.Params("betId"))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(fiber.Map{
		"bet":              rec,
		"server_seed_hash": rec.Seed.Commitment(),
	})
}

func (s *FiberServer) verifyHandler(c *fiber.Ctx) error {
	var req verifyRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.ServerSeed == "" {
		return badRequest(c, "Server seed is required")
	}

	seed := fairness.Seed{ServerSeed: req.ServerSeed, ClientSeed: req.ClientSeed, Nonce: req.Nonce}
	valid, err := s.coordinator.VerifyOutcome(seed, req.GameType, req.Params, req.Stake, req.Outcome)
	if err != nil {
		return s.fail(c, err)
	}

	return c.JSON(fiber.Map{
		"valid":            valid,
		"uniform":          seed.Uniform(),
		"server_seed_hash": seed.Commitment(),
	})
}

// startSnakesHandler opens a round and takes the stake. If the debit fails
// the round is discarded so it can never be played unpaid.
func (s *FiberServer) startSnakesHandler(c *fiber.Ctx) error {
	var req snakesStartRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.UserID == "" {
		return badRequest(c, "User ID is required")
	}
	ctx := c.UserContext()

	balance, err := s.wallet.Balance(ctx, req.UserID)
	if err != nil {
		return s.fail(c, err)
	}

	round, err := s.coordinator.StartSnakes(ctx, req.UserID, game.BetRequest{
		Stake:      req.Stake,
		Params:     game.Params{Risk: req.Risk},
		ClientSeed: req.ClientSeed,
	}, balance)
	if err != nil {
		return s.fail(c, err)
	}

	newBalance, _, err := s.wallet.Apply(ctx, req.UserID, round.ID+":stake", round.Stake.Neg())
	if err != nil {
		if derr := s.coordinator.DiscardSnakes(ctx, round.ID); derr != nil {
			s.logger.Error("discard unpaid round", "round", round.ID, "err", derr)
		}
		return s.fail(c, err)
	}

	return c.JSON(fiber.Map{
		"round":   roundView(round),
		"balance": newBalance,
	})
}

func (s *FiberServer) rollSnakesHandler(c *fiber.Ctx) error {
	var req snakesActionRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	ctx := c.UserContext()

	round, step, err := s.coordinator.RollSnakes(ctx, req.UserID, req.RoundID)
	if errors.Is(err, game.ErrRoundFinished) {
		return s.finishSnakesHandler(c, req)
	}
	if err != nil {
		return s.fail(c, err)
	}

	resp := fiber.Map{"step": step, "round": roundView(round)}
	if !round.Active() {
		round, balance, err := s.finishSnakes(ctx, req)
		if err != nil {
			return s.fail(c, err)
		}
		resp["round"] = roundView(round)
		resp["balance"] = balance
	}
	return c.JSON(resp)
}

func (s *FiberServer) cashOutSnakesHandler(c *fiber.Ctx) error {
	var req snakesActionRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	ctx := c.UserContext()

	_, err := s.coordinator.CashOutSnakes(ctx, req.UserID, req.RoundID)
	if err != nil && !errors.Is(err, game.ErrRoundFinished) {
		return s.fail(c, err)
	}
	return s.finishSnakesHandler(c, req)
}

// finishSnakesHandler settles a round that has already ended. Roll and
// cash-out land here again when an earlier settlement failed.
func (s *FiberServer) finishSnakesHandler(c *fiber.Ctx, req snakesActionRequest) error {
	round, balance, err := s.finishSnakes(c.UserContext(), req)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(fiber.Map{
		"round":   roundView(round),
		"balance": balance,
	})
}

func (s *FiberServer) finishSnakes(ctx context.Context, req snakesActionRequest) (*game.SnakesRound, decimal.Decimal, error) {
	var balance decimal.Decimal
	round, err := s.coordinator.SettleSnakes(ctx, req.UserID, req.RoundID, func(round *game.SnakesRound) error {
		var err error
		balance, err = s.settleSnakes(ctx, round)
		return err
	})
	if err != nil {
		return nil, decimal.Zero, err
	}
	return round, balance, nil
}

// settleSnakes credits the payout of a finished round. The stake was taken
// at start, so a bust still writes a zero credit to mark the round settled.
func (s *FiberServer) settleSnakes(ctx context.Context, round *game.SnakesRound) (decimal.Decimal, error) {
	out := round.Outcome()
	balance, _, err := s.wallet.Apply(ctx, round.Owner, round.ID+":payout", out.Payout)
	if err != nil {
		return decimal.Zero, err
	}

	rec := &database.BetRecord{
		ID:           round.ID,
		UserID:       round.Owner,
		GameType:     game.GameTypeSnakes,
		Stake:        round.Stake,
		Params:       round.Params(),
		Outcome:      out,
		Seed:         round.Seed,
		Uniform:      round.Seed.Uniform(),
		BalanceAfter: balance,
		CreatedAt:    round.CreatedAt,
	}
	s.record(ctx, rec, &database.SnakesRoundRecord{
		Risk:      round.Risk,
		Traps:     round.Traps,
		Path:      round.Path,
		Rolls:     round.Rolls,
		Status:    round.Status,
		StartedAt: round.CreatedAt,
		EndedAt:   round.EndedAt,
	})
	return balance, nil
}

// record stores the settled bet and announces it on the feed. The wallet is
// already settled by then, so a storage failure is logged, not returned.
func (s *FiberServer) record(ctx context.Context, rec *database.BetRecord, round *database.SnakesRoundRecord) {
	if s.bets != nil {
		var err error
		if round != nil {
			err = s.bets.SaveSnakes(ctx, rec, round)
		} else {
			err = s.bets.Save(ctx, rec)
		}
		if err != nil {
			s.logger.Error("save bet", "bet", rec.ID, "game", rec.GameType, "err", err)
		}
	}
	s.hub.Broadcast(newSettledEvent(rec))
}
