package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"fairplay/internal/fairness"
	"fairplay/internal/game"
)

var ErrBetNotFound = errors.New("bet not found")

// BetRecord is the persisted audit row for one settled bet. It carries the
// revealed seeds so the outcome can be re-derived later.
type BetRecord struct {
	ID           string          `json:"id"`
	UserID       string          `json:"user_id"`
	GameType     game.GameType   `json:"game_type"`
	Stake        decimal.Decimal `json:"stake"`
	Params       game.Params     `json:"params"`
	Outcome      game.Outcome    `json:"outcome"`
	Seed         fairness.Seed   `json:"seed"`
	Uniform      float64         `json:"uniform"`
	BalanceAfter decimal.Decimal `json:"balance_after"`
	CreatedAt    time.Time       `json:"created_at"`
}

// SnakesRoundRecord is the board and path of a finished snakes round.
type SnakesRoundRecord struct {
	Risk      game.Risk
	Traps     []int
	Path      []int
	Rolls     int
	Status    string
	StartedAt time.Time
	EndedAt   time.Time
}

type BetRepository struct {
	pool *pgxpool.Pool
}

func NewBetRepository(pool *pgxpool.Pool) *BetRepository {
	return &BetRepository{pool: pool}
}

const insertBetSQL = `
INSERT INTO bets (
    id, user_id, game_type, stake, multiplier, payout, won, params, detail,
    server_seed, server_seed_hash, client_seed, nonce, uniform, balance_after, created_at
) VALUES ($1, $2, $3, $4::numeric, $5::numeric, $6::numeric, $7, $8, $9, $10, $11, $12, $13, $14, $15::numeric, $16)`

const insertSnakesRoundSQL = `
INSERT INTO snakes_rounds (bet_id, risk, traps, path, rolls, status, started_at, ended_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

const selectBetSQL = `
SELECT id::text, user_id, game_type, stake::text, multiplier::text, payout::text, won,
       params, detail, server_seed, client_seed, nonce, uniform, balance_after::text, created_at
FROM bets`

func (r *BetRepository) Save(ctx context.Context, rec *BetRecord) error {
	return r.save(ctx, r.pool, rec)
}

// SaveSnakes stores the bet and its round in one transaction.
func (r *BetRepository) SaveSnakes(ctx context.Context, rec *BetRecord, round *SnakesRoundRecord) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := r.save(ctx, tx, rec); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, insertSnakesRoundSQL,
			rec.ID, string(round.Risk), round.Traps, round.Path, round.Rolls,
			round.Status, round.StartedAt, round.EndedAt)
		if err != nil {
			return fmt.Errorf("insert snakes round %s: %w", rec.ID, err)
		}
		return nil
	})
}

type dbExecer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

func (r *BetRepository) save(ctx context.Context, db dbExecer, rec *BetRecord) error {
	params, err := json.Marshal(rec.Params)
	if err != nil {
		return fmt.Errorf("marshal params: %w", err)
	}
	detail, err := json.Marshal(rec.Outcome.Detail)
	if err != nil {
		return fmt.Errorf("marshal detail: %w", err)
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	_, err = db.Exec(ctx, insertBetSQL,
		rec.ID, rec.UserID, string(rec.GameType),
		rec.Stake.String(), rec.Outcome.Multiplier.String(), rec.Outcome.Payout.String(), rec.Outcome.Won,
		params, detail,
		rec.Seed.ServerSeed, rec.Seed.Commitment(), rec.Seed.ClientSeed, int64(rec.Seed.Nonce),
		rec.Uniform, rec.BalanceAfter.String(), rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert bet %s: %w", rec.ID, err)
	}
	return nil
}

func (r *BetRepository) Get(ctx context.Context, id string) (*BetRecord, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrBetNotFound, id)
	}
	row := r.pool.QueryRow(ctx, selectBetSQL+" WHERE id = $1", id)
	rec, err := scanBet(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrBetNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get bet %s: %w", id, err)
	}
	return rec, nil
}

// ListByUser returns the user's most recent bets, newest first.
func (r *BetRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*BetRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := r.pool.Query(ctx, selectBetSQL+" WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2", userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list bets for %s: %w", userID, err)
	}
	defer rows.Close()

	var out []*BetRecord
	for rows.Next() {
		rec, err := scanBet(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bet: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func scanBet(row pgx.Row) (*BetRecord, error) {
	var (
		rec                                     BetRecord
		gameType                                string
		stake, multiplier, payout, balanceAfter string
		params, detail                          []byte
		nonce                                   int64
	)
	err := row.Scan(&rec.ID, &rec.UserID, &gameType, &stake, &multiplier, &payout, &rec.Outcome.Won,
		&params, &detail, &rec.Seed.ServerSeed, &rec.Seed.ClientSeed, &nonce, &rec.Uniform,
		&balanceAfter, &rec.CreatedAt)
	if err != nil {
		return nil, err
	}

	rec.GameType = game.GameType(gameType)
	rec.Outcome.GameType = rec.GameType
	rec.Seed.Nonce = uint64(nonce)

	for _, f := range []struct {
		raw string
		dst *decimal.Decimal
	}{
		{stake, &rec.Stake},
		{multiplier, &rec.Outcome.Multiplier},
		{payout, &rec.Outcome.Payout},
		{balanceAfter, &rec.BalanceAfter},
	} {
		v, err := decimal.NewFromString(f.raw)
		if err != nil {
			return nil, fmt.Errorf("parse numeric %q: %w", f.raw, err)
		}
		*f.dst = v
	}

	if err := json.Unmarshal(params, &rec.Params); err != nil {
		return nil, fmt.Errorf("unmarshal params: %w", err)
	}
	if err := json.Unmarshal(detail, &rec.Outcome.Detail); err != nil {
		return nil, fmt.Errorf("unmarshal detail: %w", err)
	}
	return &rec, nil
}
