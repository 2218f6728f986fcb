package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"sports-pipeline/core/config"
	"sports-pipeline/core/normalize"
	"sports-pipeline/core/provider"
	"sports-pipeline/core/storage"
	"sports-pipeline/feature/livesync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	syncDate         string
	archiveOlderThan time.Duration
)

// syncCmd is the parent command for sync operations.
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run or replay the sync job outside the server",
}

// syncOnceCmd runs one sync and exits.
var syncOnceCmd = &cobra.Command{
	Use:   "once",
	Short: "Run one sync now",
	Long: `Runs a single sync against the configured providers and prints the run report.

Examples:
  # Today's games in the reference time zone
  sync once

  # A specific day
  sync once --date 2024-11-02`,
	RunE: runSyncOnce,
}

// syncReplayCmd re-applies an archived snapshot.
var syncReplayCmd = &cobra.Command{
	Use:   "replay <object-key>",
	Short: "Normalize and write an archived snapshot",
	Long: `Downloads an archived snapshot (snapshots/<provider>/<date>/<run id>.json) and runs it
through the normalize and write phases. Events already in the ledger are suppressed.`,
	Args: cobra.ExactArgs(1),
	RunE: runSyncReplay,
}

// syncArchiveCmd lists archived snapshots.
var syncArchiveCmd = &cobra.Command{
	Use:   "archive [prefix]",
	Short: "List archived snapshots (prefix: <provider>/<date>/)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSyncArchive,
}

// syncArchivePruneCmd removes old archived snapshots.
var syncArchivePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete archived snapshots older than --older-than",
	RunE:  runSyncArchivePrune,
}

func init() {
	syncOnceCmd.Flags().StringVar(&syncDate, "date", "", "Day to sync (YYYY-MM-DD, reference time zone); default today")
	syncArchivePruneCmd.Flags().DurationVar(&archiveOlderThan, "older-than", 30*24*time.Hour, "Age above which snapshots are deleted")
	syncArchivePruneCmd.Flags().BoolVar(&yesConfirm, "yes", false, "Auto-confirm deletion (non-interactive)")

	syncArchiveCmd.AddCommand(syncArchivePruneCmd)
	syncCmd.AddCommand(syncOnceCmd, syncReplayCmd, syncArchiveCmd)
	RootCmd.AddCommand(syncCmd)
}

func runSyncOnce(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	svc, err := loadServices()
	if err != nil {
		return err
	}

	coord, _, err := svc.coordinator(ctx, nil, nil)
	if err != nil {
		return err
	}

	var report *livesync.RunReport
	if syncDate == "" {
		report, err = coord.Trigger(ctx, "cli")
	} else {
		if _, perr := time.Parse(time.DateOnly, syncDate); perr != nil {
			return fmt.Errorf("invalid --date %q: %w", syncDate, perr)
		}
		report, err = coord.TriggerWindow(ctx, "cli", provider.DayWindow(syncDate, coord.Location()))
	}
	if err != nil {
		return err
	}

	printRunReport(svc.logger, report)
	if report.Outcome == livesync.OutcomeFailed {
		return fmt.Errorf("sync run %s failed: %s", report.RunID, report.Error)
	}
	return nil
}

func runSyncReplay(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	svc, err := loadServices()
	if err != nil {
		return err
	}

	key := args[0]
	parts := strings.Split(strings.TrimPrefix(key, storage.SnapshotPrefix), "/")
	if len(parts) != 3 {
		return fmt.Errorf("object key %q is not snapshots/<provider>/<date>/<run id>.json", key)
	}
	providerID := parts[0]

	pf, err := config.LoadProviderFile(svc.cfg.Sync.ProvidersFile)
	if err != nil {
		return err
	}
	def, err := providerDef(pf, providerID)
	if err != nil {
		return err
	}

	client, err := storage.NewClient(svc.cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to connect to storage: %w", err)
	}
	data, err := storage.NewArchive(client, svc.cfg.Storage.Bucket).Get(ctx, key)
	if err != nil {
		return err
	}

	snap, err := provider.DecodeSnapshot(def.Config, data, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("decode snapshot %s: %w", key, err)
	}

	coord, _, err := svc.coordinator(ctx, nil, nil)
	if err != nil {
		return err
	}
	loc := coord.Location()
	report, err := coord.Replay(ctx, snap, normalize.New(def.Fields, loc))
	if err != nil {
		return err
	}
	printRunReport(svc.logger, report)
	return nil
}

func providerDef(pf *config.ProviderFile, id string) (config.ProviderDef, error) {
	if pf.Primary.ID == id {
		return pf.Primary, nil
	}
	if pf.Secondary != nil && pf.Secondary.ID == id {
		return *pf.Secondary, nil
	}
	return config.ProviderDef{}, fmt.Errorf("provider %q is not in the providers file", id)
}

func runSyncArchive(cmd *cobra.Command, args []string) error {
	svc, err := loadServices()
	if err != nil {
		return err
	}
	client, err := storage.NewClient(svc.cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to connect to storage: %w", err)
	}

	prefix := ""
	if len(args) == 1 {
		prefix = args[0]
	}
	refs, err := storage.NewArchive(client, svc.cfg.Storage.Bucket).List(context.Background(), prefix)
	if err != nil {
		return err
	}
	for _, ref := range refs {
		svc.logger.Info("Archived snapshot",
			zap.String("key", ref.Key),
			zap.Int64("size", ref.Size),
			zap.Time("last_modified", ref.LastModified),
		)
	}
	svc.logger.Info("Archive listing complete", zap.Int("count", len(refs)))
	return nil
}

func runSyncArchivePrune(cmd *cobra.Command, args []string) error {
	if archiveOlderThan <= 0 {
		return errors.New("--older-than must be positive")
	}
	svc, err := loadServices()
	if err != nil {
		return err
	}
	client, err := storage.NewClient(svc.cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to connect to storage: %w", err)
	}

	cutoff := time.Now().Add(-archiveOlderThan)
	svc.logger.Info("Pruning archived snapshots", zap.Time("cutoff", cutoff))
	if !confirmDestructiveAction() {
		svc.logger.Warn("Operation cancelled by user. No changes were made.")
		return nil
	}
	removed, err := storage.NewArchive(client, svc.cfg.Storage.Bucket).Prune(context.Background(), cutoff)
	svc.logger.Info("Archived snapshots removed", zap.Int("count", removed))
	return err
}

// printRunReport logs a run report.
func printRunReport(l *zap.Logger, r *livesync.RunReport) {
	l.Info("Run report", append(r.Fields(),
		zap.String("choice", r.Choice),
		zap.Int("fetched", r.Fetched),
		zap.Int("ledger_pending", r.LedgerPending),
		zap.Int("skipped", r.Skipped),
		zap.String("archive_key", r.ArchiveKey),
	)...)
	for _, a := range r.Attempts {
		l.Info("Provider attempt",
			zap.String("choice", a.Choice),
			zap.String("provider", a.ProviderID),
			zap.Float64("duration_ms", a.DurationMS),
			zap.String("error", a.Error),
		)
	}
	maxShow := min(len(r.Errors), 5)
	for _, e := range r.Errors[:maxShow] {
		l.Warn("Record error", zap.String("error", e))
	}
	if len(r.Errors) > maxShow {
		l.Info("Additional errors not shown", zap.Int("count", len(r.Errors)-maxShow))
	}
}
