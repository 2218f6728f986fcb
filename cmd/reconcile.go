package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"sports-pipeline/core/reconcile"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	dryRunLedger    bool
	yesConfirm      bool
	reconcileWindow time.Duration
)

// reconcileCmd is the parent command for all reconcile operations.
var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Reconcile persisted game writes with the idempotency ledger",
}

// ledgerReconcileCmd records ledger entries for writes that committed without one.
var ledgerReconcileCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Record missing ledger entries (report + optionally apply)",
	Long: `Finds game rows updated inside the look-back window whose applied key has no
ledger record ("write present, ledger missing") and records them as reconciled.

Examples:
  # Report only
  reconcile ledger --dry-run

  # Apply with interactive confirmation
  reconcile ledger

  # Apply non-interactively over the last 7 days
  reconcile ledger --yes --window 168h`,
	RunE: runLedgerReconcile,
}

func init() {
	reconcileCmd.AddCommand(ledgerReconcileCmd)

	ledgerReconcileCmd.Flags().BoolVar(&dryRunLedger, "dry-run", false, "Report only (no ledger writes even with --yes)")
	ledgerReconcileCmd.Flags().BoolVar(&yesConfirm, "yes", false, "Auto-confirm (non-interactive)")
	ledgerReconcileCmd.Flags().DurationVar(&reconcileWindow, "window", 0, "Look-back window (default sync.reconcile_window_hours)")

	RootCmd.AddCommand(reconcileCmd)
}

func runLedgerReconcile(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	svc, err := loadServices()
	if err != nil {
		return err
	}
	l := svc.logger

	window := reconcileWindow
	if window <= 0 {
		window = svc.cfg.Sync.ReconcileWindow()
	}
	since := time.Now().Add(-window)

	// Step 1: Plan (always runs)
	l.Info("Planning reconciliation...", zap.Time("since", since))
	planner := reconcile.NewPlanner(svc.repo, svc.ledger)
	plan, err := planner.Plan(ctx, since)
	if err != nil {
		return fmt.Errorf("failed to plan reconciliation: %w", err)
	}

	// Step 2: Print report
	printReconcileReport(l, plan)

	if len(plan.Actions) == 0 {
		l.Info("Ledger is consistent with the persisted store.")
		return nil
	}
	if dryRunLedger {
		l.Info("Dry-run mode: No changes were made.")
		return nil
	}

	// Step 3: Apply (if confirmed)
	if !confirmDestructiveAction() {
		l.Warn("Operation cancelled by user. No changes were made.")
		return nil
	}
	res, err := reconcile.ApplyPlan(ctx, svc.ledger, plan, reconcile.Options{Confirmed: true})
	if err != nil {
		return fmt.Errorf("failed to apply plan: %w", err)
	}
	l.Info("Successfully recorded ledger entries",
		zap.Int("recorded", res.Recorded),
		zap.Int("already_present", res.AlreadyPresent),
	)
	return nil
}

// printReconcileReport prints a formatted reconciliation report using logger.
func printReconcileReport(l *zap.Logger, plan *reconcile.Plan) {
	s := plan.Summary

	l.Info("Reconciliation report",
		zap.Int("scanned", s.Scanned),
		zap.Int("ledger_missing", s.LedgerMissing),
		zap.Int("record_actions", s.RecordActions),
	)

	maxShow := min(len(plan.Actions), 5)
	for _, action := range plan.Actions[:maxShow] {
		l.Info("Sample action",
			zap.String("type", string(action.Type)),
			zap.String("game_id", action.GameID),
			zap.String("key", action.Key.String()),
			zap.String("reason", action.Reason),
		)
	}
	if len(plan.Actions) > maxShow {
		l.Info("Additional actions not shown", zap.Int("count", len(plan.Actions)-maxShow))
	}
}

// confirmDestructiveAction prompts the user for confirmation or uses --yes flag.
func confirmDestructiveAction() bool {
	if yesConfirm {
		fmt.Println("\n✓ Auto-confirmed via --yes flag")
		return true
	}

	fmt.Print("\n⚠️  Type 'yes' to confirm: ")
	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	return strings.TrimSpace(response) == "yes"
}
