package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/shopspring/decimal"

	"fairplay/internal/database"
	"fairplay/internal/game"
)

// Wallet is the balance collaborator the handlers settle against.
type Wallet interface {
	Balance(ctx context.Context, userID string) (decimal.Decimal, error)
	SetBalance(ctx context.Context, userID string, amount decimal.Decimal) error
	Apply(ctx context.Context, userID, txID string, delta decimal.Decimal) (decimal.Decimal, bool, error)
}

// BetStore persists settled bets for later lookup and audit.
type BetStore interface {
	Save(ctx context.Context, rec *database.BetRecord) error
	SaveSnakes(ctx context.Context, rec *database.BetRecord, round *database.SnakesRoundRecord) error
	Get(ctx context.Context, id string) (*database.BetRecord, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]*database.BetRecord, error)
}

type HealthChecker interface {
	Health() map[string]string
}

type Deps struct {
	Coordinator *game.Coordinator
	Policy      *game.TierPolicy
	Wallet      Wallet
	Bets        BetStore
	DB          HealthChecker
	Cache       HealthChecker
	Logger      *slog.Logger

	// RateLimit is requests per minute per client; 0 disables the limiter.
	RateLimit int
}

type FiberServer struct {
	*fiber.App

	coordinator *game.Coordinator
	policy      *game.TierPolicy
	wallet      Wallet
	bets        BetStore
	db          HealthChecker
	cache       HealthChecker
	hub         *Hub
	logger      *slog.Logger
}

func New(deps Deps) *FiberServer {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "server")

	hub := NewHub(logger)

	server := &FiberServer{
		App: fiber.New(fiber.Config{
			ServerHeader:  "fairplay",
			AppName:       "fairplay",
			ReadTimeout:   10 * time.Second,
			WriteTimeout:  10 * time.Second,
			IdleTimeout:   120 * time.Second,
			StrictRouting: false,
		}),

		coordinator: deps.Coordinator,
		policy:      deps.Policy,
		wallet:      deps.Wallet,
		bets:        deps.Bets,
		db:          deps.DB,
		cache:       deps.Cache,
		hub:         hub,
		logger:      logger,
	}

	server.App.Use(recover.New())
	if deps.RateLimit > 0 {
		server.App.Use(limiter.New(limiter.Config{
			Max:        deps.RateLimit,
			Expiration: 1 * time.Minute,
		}))
	}

	go hub.Run()

	return server
}

func (s *FiberServer) Hub() *Hub {
	return s.hub
}

// Shutdown stops the feed hub and the HTTP listener. Closing Redis and
// Postgres is left to whoever opened them.
func (s *FiberServer) Shutdown() error {
	s.logger.Info("shutting down")
	s.hub.Stop()
	return s.App.ShutdownWithTimeout(10 * time.Second)
}
