package main

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"fairplay/internal/fairness"
	"fairplay/internal/game"
	"fairplay/internal/logger"
)

// CONFIDENCE is the two-sided level of the reported win-rate interval.
const CONFIDENCE = 0.95

type simReport struct {
	Game          game.GameType
	Rounds        int
	Wins          int
	RTP           float64 // mean payout per unit staked
	StdDev        float64 // of the per-bet multiplier
	WinRate       float64
	WinLow        float64
	WinHigh       float64
	MaxMultiplier float64
	Elapsed       time.Duration
}

type simConfig struct {
	gameType   game.GameType
	stake      decimal.Decimal
	params     game.Params
	serverSeed string
	clientSeed string
	rounds     int
	progress   io.Writer // nil hides the bar
}

// simulate replays nonces 1..rounds of one seed pair and summarizes the
// multipliers. Every bet is reproducible with `fairctl verify`.
func simulate(registry *game.Registry, cfg simConfig, log *slog.Logger) (simReport, error) {
	if cfg.rounds < 1 {
		return simReport{}, fmt.Errorf("rounds must be > 0, got %d", cfg.rounds)
	}

	bar := pb.StartNew(cfg.rounds)
	if cfg.progress == nil {
		bar.SetWriter(io.Discard)
	} else {
		bar.SetWriter(cfg.progress)
	}

	multipliers := make([]float64, 0, cfg.rounds)
	report := simReport{Game: cfg.gameType, Rounds: cfg.rounds}
	for nonce := 1; nonce <= cfg.rounds; nonce++ {
		seed := fairness.Seed{ServerSeed: cfg.serverSeed, ClientSeed: cfg.clientSeed, Nonce: uint64(nonce)}
		out, _, err := game.Replay(registry, seed, cfg.gameType, cfg.params, cfg.stake)
		if err != nil {
			bar.Finish()
			return simReport{}, fmt.Errorf("nonce %d: %w", nonce, err)
		}
		m := out.Multiplier.InexactFloat64()
		multipliers = append(multipliers, m)
		if out.Won {
			report.Wins++
		}
		if m > report.MaxMultiplier {
			report.MaxMultiplier = m
		}
		bar.Increment()
	}
	report.Elapsed = time.Since(bar.StartTime())
	bar.Finish()

	report.RTP, report.StdDev = stat.MeanStdDev(multipliers, nil)
	report.WinRate = float64(report.Wins) / float64(report.Rounds)
	report.WinLow, report.WinHigh = clopperPearson(report.Wins, report.Rounds, 1-CONFIDENCE)

	log.Debug("simulation finished", "game", cfg.gameType, "rounds", cfg.rounds, "elapsed", report.Elapsed)
	return report, nil
}

// clopperPearson is the exact binomial interval for k successes in n trials.
func clopperPearson(k, n int, alpha float64) (float64, float64) {
	lo, hi := 0.0, 1.0
	if k > 0 {
		b := distuv.Beta{Alpha: float64(k), Beta: float64(n - k + 1)}
		lo = b.Quantile(alpha / 2)
	}
	if k < n {
		b := distuv.Beta{Alpha: float64(k + 1), Beta: float64(n - k)}
		hi = b.Quantile(1 - alpha/2)
	}
	return lo, hi
}

func newSimulateCmd(root *rootFlags) *cobra.Command {
	var (
		gameType   string
		stake      string
		paramsJSON string
		serverSeed string
		clientSeed string
		rounds     int
		quiet      bool
	)
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Estimate a game's return to player over many nonces",
		RunE: func(cmd *cobra.Command, _ []string) error {
			registry, err := root.registry()
			if err != nil {
				return err
			}
			amount, p, err := parseBet(stake, paramsJSON)
			if err != nil {
				return err
			}
			if serverSeed == "" {
				if serverSeed, err = fairness.GenerateSeed(); err != nil {
					return err
				}
			}

			cfg := simConfig{
				gameType:   game.GameType(gameType),
				stake:      amount,
				params:     p,
				serverSeed: serverSeed,
				clientSeed: clientSeed,
				rounds:     rounds,
			}
			if !quiet {
				cfg.progress = cmd.ErrOrStderr()
			}
			report, err := simulate(registry, cfg, logger.L())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "game            %s\n", report.Game)
			fmt.Fprintf(out, "server_seed     %s\n", serverSeed)
			fmt.Fprintf(out, "rounds          %d\n", report.Rounds)
			fmt.Fprintf(out, "rtp             %.4f\n", report.RTP)
			fmt.Fprintf(out, "stddev          %.4f\n", report.StdDev)
			fmt.Fprintf(out, "win_rate        %.4f [%.4f, %.4f]\n", report.WinRate, report.WinLow, report.WinHigh)
			fmt.Fprintf(out, "max_multiplier  %.2f\n", report.MaxMultiplier)
			fmt.Fprintf(out, "elapsed         %s\n", report.Elapsed.Round(time.Millisecond))
			return nil
		},
	}
	cmd.Flags().StringVar(&gameType, "game", "", "Game to simulate")
	cmd.Flags().StringVar(&stake, "stake", "1", "Stake per bet")
	cmd.Flags().StringVar(&paramsJSON, "params", "{}", "Bet parameters as JSON")
	cmd.Flags().StringVar(&serverSeed, "server-seed", "", "Server seed (default: random)")
	cmd.Flags().StringVar(&clientSeed, "client-seed", "simulation", "Client seed")
	cmd.Flags().IntVar(&rounds, "rounds", 100000, "Number of bets")
	cmd.Flags().BoolVar(&quiet, "quiet", false, "Hide the progress bar")
	_ = cmd.MarkFlagRequired("game")
	return cmd
}
