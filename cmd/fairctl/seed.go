package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"fairplay/internal/fairness"
	"fairplay/internal/game"
)

type seedFlags struct {
	serverSeed string
	clientSeed string
	nonce      uint64
}

func (f *seedFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.serverSeed, "server-seed", "", "Revealed server seed")
	cmd.Flags().StringVar(&f.clientSeed, "client-seed", "", "Client seed")
	cmd.Flags().Uint64Var(&f.nonce, "nonce", 0, "Bet nonce")
	_ = cmd.MarkFlagRequired("server-seed")
}

func (f *seedFlags) seed() fairness.Seed {
	return fairness.Seed{ServerSeed: f.serverSeed, ClientSeed: f.clientSeed, Nonce: f.nonce}
}

func newDeriveCmd() *cobra.Command {
	var (
		seed   seedFlags
		cursor int
		count  int
	)
	cmd := &cobra.Command{
		Use:   "derive",
		Short: "Print the uniform value of a seed triple",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			s := seed.seed()
			fmt.Fprintf(out, "digest   %s\n", fairness.DigestHex(s.ServerSeed, s.ClientSeed, s.Nonce))
			fmt.Fprintf(out, "uniform  %.10f\n", s.Uniform())
			for i := 0; i < count; i++ {
				u := fairness.DeriveAt(s.ServerSeed, s.ClientSeed, s.Nonce, cursor+i)
				fmt.Fprintf(out, "draw[%d]  %.10f\n", cursor+i, u)
			}
			return nil
		},
	}
	seed.bind(cmd)
	cmd.Flags().IntVar(&cursor, "cursor", 0, "First stream cursor to print")
	cmd.Flags().IntVar(&count, "count", 0, "Number of stream draws to print")
	return cmd
}

func newCommitCmd() *cobra.Command {
	var serverSeed string
	cmd := &cobra.Command{
		Use:   "commit",
		Short: "Generate a server seed, or hash a given one, and print its commitment",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if serverSeed == "" {
				s, err := fairness.GenerateSeed()
				if err != nil {
					return err
				}
				serverSeed = s
			}
			fmt.Fprintf(cmd.OutOrStdout(), "server_seed       %s\nserver_seed_hash  %s\n",
				serverSeed, fairness.HashCommitment(serverSeed))
			return nil
		},
	}
	cmd.Flags().StringVar(&serverSeed, "server-seed", "", "Seed to hash instead of generating one")
	return cmd
}

var errVerifyFailed = errors.New("verification failed")

func newVerifyCmd(root *rootFlags) *cobra.Command {
	var (
		seed       seedFlags
		commitment string
		uniform    float64
		gameType   string
		stake      string
		paramsJSON string
		outcome    string
	)
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check a revealed seed against its commitment, uniform and outcome",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			s := seed.seed()
			ok := true

			if commitment != "" {
				match := fairness.VerifyCommitment(s.ServerSeed, commitment)
				fmt.Fprintf(out, "commitment  %s\n", verdict(match))
				ok = ok && match
			}
			if cmd.Flags().Changed("uniform") {
				match := fairness.Verify(s.ServerSeed, s.ClientSeed, s.Nonce, uniform)
				fmt.Fprintf(out, "uniform     %s (derived %.10f)\n", verdict(match), s.Uniform())
				ok = ok && match
			}
			if gameType != "" {
				registry, err := root.registry()
				if err != nil {
					return err
				}
				amount, p, err := parseBet(stake, paramsJSON)
				if err != nil {
					return err
				}
				replayed, _, err := game.Replay(registry, s, game.GameType(gameType), p, amount)
				if err != nil {
					return err
				}
				enc, _ := json.Marshal(replayed)
				fmt.Fprintf(out, "outcome     %s\n", enc)
				if outcome != "" {
					var claimed game.Outcome
					if err := json.Unmarshal([]byte(outcome), &claimed); err != nil {
						return fmt.Errorf("parse --outcome: %w", err)
					}
					match := replayed.Equal(claimed)
					fmt.Fprintf(out, "claim       %s\n", verdict(match))
					ok = ok && match
				}
			}
			if !ok {
				return errVerifyFailed
			}
			return nil
		},
	}
	seed.bind(cmd)
	cmd.Flags().StringVar(&commitment, "commitment", "", "Server seed hash published before the bet")
	cmd.Flags().Float64Var(&uniform, "uniform", 0, "Claimed uniform value")
	cmd.Flags().StringVar(&gameType, "game", "", "Game to replay")
	cmd.Flags().StringVar(&stake, "stake", "1", "Stake of the replayed bet")
	cmd.Flags().StringVar(&paramsJSON, "params", "{}", "Bet parameters as JSON")
	cmd.Flags().StringVar(&outcome, "outcome", "", "Claimed outcome as JSON")
	return cmd
}

func parseBet(stake, paramsJSON string) (decimal.Decimal, game.Params, error) {
	amount, err := decimal.NewFromString(stake)
	if err != nil {
		return decimal.Zero, game.Params{}, fmt.Errorf("parse --stake: %w", err)
	}
	var p game.Params
	if err := json.Unmarshal([]byte(paramsJSON), &p); err != nil {
		return decimal.Zero, game.Params{}, fmt.Errorf("parse --params: %w", err)
	}
	return amount, p, nil
}

func verdict(ok bool) string {
	if ok {
		return "OK"
	}
	return "MISMATCH"
}
