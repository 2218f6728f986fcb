package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var ledgerOlderThan time.Duration

// ledgerCmd is the parent command for ledger maintenance.
var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Idempotency ledger maintenance",
}

// ledgerPruneCmd deletes ledger records past the retention window.
var ledgerPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete ledger records applied before --older-than",
	Long: `Deletes idempotency records older than the retention window. Replays of events
older than the window are no longer suppressed by the ledger; the game rows' applied
markers still keep them from regressing state.

Example:
  ledger prune --older-than 720h --yes`,
	RunE: runLedgerPrune,
}

// ledgerCountCmd prints the number of ledger records.
var ledgerCountCmd = &cobra.Command{
	Use:   "count",
	Short: "Print the number of ledger records",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := loadServices()
		if err != nil {
			return err
		}
		n, err := svc.ledger.Count(context.Background())
		if err != nil {
			return err
		}
		svc.logger.Info("Ledger records", zap.Int64("count", n))
		return nil
	},
}

func init() {
	ledgerPruneCmd.Flags().DurationVar(&ledgerOlderThan, "older-than", 720*time.Hour, "Retention window")
	ledgerPruneCmd.Flags().BoolVar(&yesConfirm, "yes", false, "Auto-confirm deletion (non-interactive)")

	ledgerCmd.AddCommand(ledgerPruneCmd, ledgerCountCmd)
	RootCmd.AddCommand(ledgerCmd)
}

func runLedgerPrune(cmd *cobra.Command, args []string) error {
	if ledgerOlderThan <= 0 {
		return errors.New("--older-than must be positive")
	}
	svc, err := loadServices()
	if err != nil {
		return err
	}

	cutoff := time.Now().Add(-ledgerOlderThan)
	svc.logger.Info("Pruning ledger records", zap.Time("cutoff", cutoff))
	if !confirmDestructiveAction() {
		svc.logger.Warn("Operation cancelled by user. No changes were made.")
		return nil
	}

	n, err := svc.ledger.Prune(context.Background(), cutoff)
	if err != nil {
		return fmt.Errorf("failed to prune ledger: %w", err)
	}
	svc.logger.Info("Ledger records pruned", zap.Int64("count", n))
	return nil
}
