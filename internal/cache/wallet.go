package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"fairplay/internal/game"
)

const (
	REDIS_KEY_USER_BALANCE = "fairplay:balance:"
	REDIS_KEY_SETTLED      = "fairplay:settled:"

	// Settlement markers outlive any client retry window.
	SETTLED_MARKER_TTL = 7 * 24 * time.Hour

	walletMaxRetries = 10
)

var ErrWalletBusy = errors.New("wallet busy")

// Wallet keeps user balances in Redis as decimal strings. Every change is
// keyed by a transaction id and applied at most once.
type Wallet struct {
	client *redis.Client
}

func NewWallet(client *redis.Client) *Wallet {
	return &Wallet{client: client}
}

// Balance returns the user's balance; an unknown user has zero.
func (w *Wallet) Balance(ctx context.Context, userID string) (decimal.Decimal, error) {
	return readDecimal(ctx, w.client, REDIS_KEY_USER_BALANCE+userID)
}

// SetBalance overwrites a balance. Admin and test use only.
func (w *Wallet) SetBalance(ctx context.Context, userID string, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return fmt.Errorf("%w: balance cannot be negative", game.ErrInvalidStake)
	}
	return w.client.Set(ctx, REDIS_KEY_USER_BALANCE+userID, amount.String(), 0).Err()
}

// Apply adds delta to the balance unless txID was already applied, in which
// case it returns the balance recorded by the earlier call and applied=false.
// A change that would take the balance below zero fails with
// game.ErrInsufficientFunds.
func (w *Wallet) Apply(ctx context.Context, userID, txID string, delta decimal.Decimal) (balance decimal.Decimal, applied bool, err error) {
	balanceKey := REDIS_KEY_USER_BALANCE + userID
	txKey := REDIS_KEY_SETTLED + txID

	txf := func(tx *redis.Tx) error {
		recorded, err := tx.Get(ctx, txKey).Result()
		switch {
		case err == nil:
			balance, err = decimal.NewFromString(recorded)
			applied = false
			return err
		case !errors.Is(err, redis.Nil):
			return err
		}

		current, err := readDecimal(ctx, tx, balanceKey)
		if err != nil {
			return err
		}
		next := current.Add(delta)
		if next.IsNegative() {
			return fmt.Errorf("%w: balance %s, change %s", game.ErrInsufficientFunds, current, delta)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, balanceKey, next.String(), 0)
			pipe.Set(ctx, txKey, next.String(), SETTLED_MARKER_TTL)
			return nil
		})
		if err != nil {
			return err
		}
		balance, applied = next, true
		return nil
	}

	for i := 0; i < walletMaxRetries; i++ {
		err = w.client.Watch(ctx, txf, balanceKey, txKey)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return balance, applied, err
	}
	return decimal.Zero, false, fmt.Errorf("%w: %s after %d attempts", ErrWalletBusy, userID, walletMaxRetries)
}

type stringGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func readDecimal(ctx context.Context, c stringGetter, key string) (decimal.Decimal, error) {
	raw, err := c.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("get %s: %w", key, err)
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse %s: %w", key, err)
	}
	return v, nil
}
