package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bitfsorg/stakevault-go/journal"
)

var (
	simulateNoJournal bool
	simulateStart     string
)

// simulateCmd replays scenario files.
var simulateCmd = &cobra.Command{
	Use:   "simulate [scenario.yaml...]",
	Short: "Replay YAML scenarios against a fresh vault",
	Long: `Replays each scenario file against fresh ledgers and a fresh vault on a
simulated clock. Every step's expectations are checked, and both ledgers
must conserve supply after every step.

Events are appended to the journal in the data directory unless
--no-journal is given.

Example:
  stakevault simulate cmd/stakevault/testdata/four_depositors.yaml`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSimulate,
}

func init() {
	simulateCmd.Flags().BoolVar(&simulateNoJournal, "no-journal", false, "do not record events")
	simulateCmd.Flags().StringVar(&simulateStart, "start", "2024-01-01T00:00:00Z", "simulated start time (RFC 3339)")
}

func runSimulate(cmd *cobra.Command, args []string) error {
	start, err := time.Parse(time.RFC3339, simulateStart)
	if err != nil {
		return fmt.Errorf("invalid --start: %w", err)
	}

	runner := &Runner{
		Log:         logger,
		Mnemonic:    cfg.Mnemonic,
		BaseSymbol:  cfg.BaseSymbol,
		ShareSymbol: cfg.ShareSymbol,
		Start:       start,
	}
	if !simulateNoJournal {
		store, err := journal.OpenBoltStore(journalPath())
		if err != nil {
			return err
		}
		defer store.Close()
		runner.Recorder = store
	}

	out := cmd.OutOrStdout()
	for i, path := range args {
		sc, err := LoadScenario(path)
		if err != nil {
			return err
		}
		logger.Debug("replaying scenario", zap.String("path", path), zap.Int("steps", len(sc.Steps)))

		rep, err := runner.Run(sc)
		if rep != nil {
			if i > 0 {
				fmt.Fprintln(out)
			}
			if perr := rep.Print(out); perr != nil {
				return perr
			}
		}
		if err != nil {
			logger.Error("scenario failed", zap.String("path", path), zap.Error(err))
			return fmt.Errorf("%s: %w", path, err)
		}
		logger.Info("scenario passed",
			zap.String("name", sc.Name),
			zap.Uint64("reserve", rep.Final.Reserve),
			zap.Uint64("total_shares", rep.Final.TotalShares))
	}
	return nil
}
