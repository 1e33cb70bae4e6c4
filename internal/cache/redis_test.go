package cache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"fairplay/internal/fairness"
	"fairplay/internal/game"
)

var redisAddr string

func mustStartRedisContainer() (func(context.Context, ...testcontainers.TerminateOption) error, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		return nil, err
	}

	host, err := container.Host(context.Background())
	if err != nil {
		return container.Terminate, err
	}
	port, err := container.MappedPort(context.Background(), "6379/tcp")
	if err != nil {
		return container.Terminate, err
	}

	redisAddr = fmt.Sprintf("%s:%s", host, port.Port())
	return container.Terminate, nil
}

func TestMain(m *testing.M) {
	if os.Getenv("SKIP_INTEGRATION") != "" {
		os.Exit(0)
	}

	if os.Getenv("CI") == "" && !isDockerAvailable() {
		os.Exit(0)
	}

	teardown, err := mustStartRedisContainer()
	if err != nil {
		os.Exit(0)
	}

	code := m.Run()

	if teardown != nil {
		teardown(context.Background())
	}

	os.Exit(code)
}

func isDockerAvailable() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	provider, err := testcontainers.NewDockerProvider()
	if err != nil {
		return false
	}
	defer provider.Close()

	_, err = provider.DaemonHost(ctx)
	return err == nil
}

func newTestService(t *testing.T) Service {
	t.Helper()
	srv, err := New(Options{Addr: redisAddr})
	require.NoError(t, err)
	t.Cleanup(func() { srv.Close() })
	require.NoError(t, srv.GetClient().FlushDB(context.Background()).Err())
	return srv
}

func TestNew_Unreachable(t *testing.T) {
	_, err := New(Options{Addr: "127.0.0.1:1"})
	assert.Error(t, err)
}

func TestHealth(t *testing.T) {
	srv := newTestService(t)

	stats := srv.Health()
	assert.Equal(t, "up", stats["status"])
	assert.Equal(t, "Redis is healthy", stats["message"])
	assert.NotContains(t, stats, "error")
}

func TestWallet_Balance(t *testing.T) {
	ctx := context.Background()
	wallet := NewWallet(newTestService(t).GetClient())

	balance, err := wallet.Balance(ctx, "nobody")
	require.NoError(t, err)
	assert.True(t, balance.IsZero())

	require.NoError(t, wallet.SetBalance(ctx, "alice", decimal.RequireFromString("100.25")))
	balance, err = wallet.Balance(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "100.25", balance.String())

	assert.Error(t, wallet.SetBalance(ctx, "alice", decimal.NewFromInt(-1)))
}

func TestWallet_ApplyIsIdempotent(t *testing.T) {
	ctx := context.Background()
	wallet := NewWallet(newTestService(t).GetClient())
	require.NoError(t, wallet.SetBalance(ctx, "bob", decimal.NewFromInt(10)))

	balance, applied, err := wallet.Apply(ctx, "bob", "bet-1", decimal.RequireFromString("-2.5"))
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, "7.5", balance.String())

	balance, applied, err = wallet.Apply(ctx, "bob", "bet-1", decimal.RequireFromString("-2.5"))
	require.NoError(t, err)
	assert.False(t, applied, "replayed transaction must not apply twice")
	assert.Equal(t, "7.5", balance.String())

	current, err := wallet.Balance(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, "7.5", current.String())
}

func TestWallet_ApplyRejectsOverdraft(t *testing.T) {
	ctx := context.Background()
	wallet := NewWallet(newTestService(t).GetClient())
	require.NoError(t, wallet.SetBalance(ctx, "carol", decimal.NewFromInt(1)))

	_, _, err := wallet.Apply(ctx, "carol", "bet-x", decimal.NewFromInt(-2))
	assert.True(t, errors.Is(err, game.ErrInsufficientFunds), "got %v", err)

	current, err := wallet.Balance(ctx, "carol")
	require.NoError(t, err)
	assert.Equal(t, "1", current.String())
}

func TestWallet_ConcurrentApply(t *testing.T) {
	ctx := context.Background()
	wallet := NewWallet(newTestService(t).GetClient())
	require.NoError(t, wallet.SetBalance(ctx, "dave", decimal.Zero))

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, err := wallet.Apply(ctx, "dave", fmt.Sprintf("credit-%d", i), decimal.NewFromInt(1))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	current, err := wallet.Balance(ctx, "dave")
	require.NoError(t, err)
	assert.Equal(t, "20", current.String())
}

func TestRoundStore(t *testing.T) {
	ctx := context.Background()
	store := NewRoundStore(newTestService(t).GetClient(), time.Minute)

	seed := fairness.Seed{ServerSeed: "s", ClientSeed: "c", Nonce: 1}
	round, err := game.NewSnakesRound("round-1", decimal.NewFromInt(5), game.RiskMedium, seed)
	require.NoError(t, err)
	_, err = round.Roll()
	require.NoError(t, err)

	require.NoError(t, store.Save(ctx, round))

	loaded, err := store.Load(ctx, "round-1")
	require.NoError(t, err)
	assert.Equal(t, round.Traps, loaded.Traps)
	assert.Equal(t, round.Path, loaded.Path)
	assert.Equal(t, round.Status, loaded.Status)
	assert.True(t, round.Multiplier.Equal(loaded.Multiplier))
	assert.Equal(t, round.Seed, loaded.Seed)

	ttl, err := store.client.TTL(ctx, REDIS_KEY_SNAKES_ROUND+"round-1").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, store.Delete(ctx, "round-1"))
	_, err = store.Load(ctx, "round-1")
	assert.True(t, errors.Is(err, game.ErrRoundNotFound), "got %v", err)
}

func TestRoundStore_WithCoordinator(t *testing.T) {
	ctx := context.Background()
	store := NewRoundStore(newTestService(t).GetClient(), time.Minute)
	c := game.NewCoordinator(fairness.NewGenerator(), game.NewDefaultRegistry(game.DefaultTierPolicy()),
		game.WithRoundStore(store))

	stake := decimal.NewFromInt(2)
	round, err := c.StartSnakes(ctx, "player-1", game.BetRequest{Stake: stake, Params: game.Params{Risk: game.RiskLow}}, stake)
	require.NoError(t, err)

	round, _, err = c.RollSnakes(ctx, "player-1", round.ID)
	require.NoError(t, err)
	require.True(t, round.Active())

	round, err = c.CashOutSnakes(ctx, "player-1", round.ID)
	require.NoError(t, err)
	assert.Equal(t, game.SNAKES_STATUS_CASHED_OUT, round.Status)

	pending, err := store.Load(ctx, round.ID)
	require.NoError(t, err)
	assert.Equal(t, game.SNAKES_STATUS_CASHED_OUT, pending.Status)

	_, err = c.SettleSnakes(ctx, "player-1", round.ID, func(*game.SnakesRound) error { return nil })
	require.NoError(t, err)
	_, err = store.Load(ctx, round.ID)
	assert.True(t, errors.Is(err, game.ErrRoundNotFound))
}
