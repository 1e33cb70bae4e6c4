// Command fairctl derives, verifies and simulates provably fair bets offline.
package main

import (
	"github.com/spf13/cobra"

	"fairplay/internal/config"
	"fairplay/internal/game"
	"fairplay/internal/logger"
)

type rootFlags struct {
	tiersFile string
	debug     bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	cmd := &cobra.Command{
		Use:           "fairctl",
		Short:         "Provably fair bet tooling",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			level := "info"
			if flags.debug {
				level = "debug"
			}
			logger.Init(&logger.Options{Level: logger.ParseLevel(level), Writer: cmd.ErrOrStderr()})
		},
	}
	cmd.PersistentFlags().StringVar(&flags.tiersFile, "tiers", "", "YAML tier table (default: built-in tiers)")
	cmd.PersistentFlags().BoolVar(&flags.debug, "debug", false, "Enable debug logs")

	cmd.AddCommand(
		newDeriveCmd(),
		newCommitCmd(),
		newVerifyCmd(flags),
		newSimulateCmd(flags),
	)
	return cmd
}

// registry builds the game registry under the configured tier table.
func (f *rootFlags) registry() (*game.Registry, error) {
	if f.tiersFile == "" {
		return game.NewDefaultRegistry(game.DefaultTierPolicy()), nil
	}
	policy, err := config.LoadTiers(f.tiersFile)
	if err != nil {
		return nil, err
	}
	return game.NewDefaultRegistry(policy), nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logger.Fatal("fairctl failed", "err", err)
	}
}
