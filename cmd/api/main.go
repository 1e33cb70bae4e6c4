package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"fairplay/internal/cache"
	"fairplay/internal/config"
	"fairplay/internal/database"
	"fairplay/internal/fairness"
	"fairplay/internal/game"
	"fairplay/internal/logger"
	"fairplay/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Load config failed", "err", err)
		os.Exit(1)
	}

	logger.Init(&logger.Options{
		Level: logger.ParseLevel(cfg.LogLevel),
		JSON:  cfg.IsProduction(),
	})
	log := logger.L()

	if err := run(cfg, log); err != nil {
		logger.Fatal("server exited", "err", err)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx := context.Background()

	redisSvc, err := cache.New(cache.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		Logger:   log,
	})
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer redisSvc.Close()

	dbSvc, err := database.New(ctx, cfg.DB.DSN(), log)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer dbSvc.Close()

	if err := migrate(cfg.DB.DSN()); err != nil {
		return err
	}

	policy, err := cfg.TierPolicy()
	if err != nil {
		return err
	}

	coordinator := game.NewCoordinator(
		fairness.NewGenerator(),
		game.NewDefaultRegistry(policy),
		game.WithMaxStake(cfg.MaxStake),
		game.WithRoundStore(cache.NewRoundStore(redisSvc.GetClient(), cfg.SnakesRoundTTL)),
		game.WithLogger(log),
	)

	srv := server.New(server.Deps{
		Coordinator: coordinator,
		Policy:      policy,
		Wallet:      cache.NewWallet(redisSvc.GetClient()),
		Bets:        database.NewBetRepository(dbSvc.Pool()),
		DB:          dbSvc,
		Cache:       redisSvc,
		Logger:      log,
		RateLimit:   cfg.RateLimit,
	})
	srv.RegisterFiberRoutes()

	listenErr := make(chan error, 1)
	go func() {
		log.Info("server starting", "port", cfg.Port, "env", cfg.Env, "games", len(coordinator.Registry().Types()))
		listenErr <- srv.Listen(fmt.Sprintf(":%d", cfg.Port))
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-listenErr:
		return fmt.Errorf("listen: %w", err)
	case sig := <-stop:
		log.Info("shutdown signal received", "signal", sig.String())
	}

	done := make(chan error, 1)
	go func() { done <- srv.Shutdown() }()
	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
	case <-time.After(15 * time.Second):
		return fmt.Errorf("shutdown timed out")
	}
	log.Info("server stopped")
	return nil
}

// migrate brings the schema up to date through database/sql, which is what
// golang-migrate's pgx driver expects.
func migrate(dsn string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("open migration connection: %w", err)
	}
	defer db.Close()

	if err := database.RunMigrations(db); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}
