package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"netbox-sync/core/config"
	"netbox-sync/core/database"
	"netbox-sync/core/logger"
	"netbox-sync/core/reconcile"
	"netbox-sync/core/storage"
	"netbox-sync/feature/netbox"
	"netbox-sync/feature/netbox/models"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Flags for the reconcile command
	observationFile string
	fromStorage     bool
	dryRun          bool
	workers         int
	publishReport   bool
	yesConfirm      bool
)

// reconcileCmd reconciles a batch of observations, one unit of work per record.
var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Reconcile netbox records against collected observations",
	Long: `Reconcile netbox records against a set of observations.

Every observation is reconciled on its own and committed or rolled back on its own.
Observations come from a JSON file or from the configured storage prefix.

Examples:
  # Preview changes from a file
  reconcile --file observations.json --dry-run

  # Apply stored observation batches and upload the run report
  reconcile --storage --report --yes`,
	RunE: runReconcile,
}

func init() {
	reconcileCmd.Flags().StringVar(&observationFile, "file", "", "Read observations from a JSON file")
	reconcileCmd.Flags().BoolVar(&fromStorage, "storage", false, "Read observations from the storage observation prefix")
	reconcileCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Roll every unit back instead of committing")
	reconcileCmd.Flags().IntVar(&workers, "workers", 0, "Concurrent reconciles (defaults to reconcile.workers)")
	reconcileCmd.Flags().BoolVar(&publishReport, "report", false, "Upload the run report to storage")
	reconcileCmd.Flags().BoolVar(&yesConfirm, "yes", false, "Auto-confirm writes (non-interactive)")
	reconcileCmd.MarkFlagsMutuallyExclusive("file", "storage")
	reconcileCmd.MarkFlagsOneRequired("file", "storage")

	RootCmd.AddCommand(reconcileCmd)
}

func runReconcile(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.LoadConfig(".")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if dryRun {
		cfg.Reconcile.DryRun = true
	}
	if workers > 0 {
		cfg.Reconcile.Workers = workers
	}

	l, err := logger.New(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer l.Sync()

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := netbox.VerifySchema(db); err != nil {
		return fmt.Errorf("inventory schema check failed: %w", err)
	}

	var client storage.Client
	if fromStorage || publishReport {
		client, err = storage.NewClient(cfg.Storage)
		if err != nil {
			return fmt.Errorf("failed to connect to storage: %w", err)
		}
		exists, err := client.BucketExists(ctx, cfg.Storage.Bucket)
		if err != nil {
			return fmt.Errorf("failed to check bucket: %w", err)
		}
		if !exists {
			return fmt.Errorf("bucket %s does not exist", cfg.Storage.Bucket)
		}
	}

	svc := netbox.NewService(client, cfg.Storage.Bucket, l, db, cfg.Reconcile)

	observations, err := readObservations(ctx, svc)
	if err != nil {
		return err
	}
	l.Info("Loaded observations", zap.Int("count", len(observations)))

	if len(observations) == 0 {
		l.Info("Nothing to reconcile.")
		return nil
	}

	if !cfg.Reconcile.DryRun && !confirmWrites(len(observations)) {
		l.Warn("Operation cancelled by user. No changes were made.")
		return nil
	}

	if err := svc.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to load snapshot: %w", err)
	}

	report := svc.Run(ctx, observations)
	printRunReport(l, report)

	if publishReport {
		name, err := svc.PublishReport(ctx, report)
		if err != nil {
			return err
		}
		l.Info("Uploaded run report", zap.String("object", name))
	}

	if n := report.Summary.Errors(); n > 0 {
		return fmt.Errorf("%d of %d observations failed to reconcile", n, report.Summary.Total)
	}
	return nil
}

func readObservations(ctx context.Context, svc *netbox.Service) ([]models.Observation, error) {
	if fromStorage {
		return svc.LoadObservations(ctx)
	}
	if observationFile == "" {
		return nil, errors.New("no observation source given")
	}

	f, err := os.Open(observationFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open observations: %w", err)
	}
	defer f.Close()

	return netbox.ReadObservations(f)
}

// printRunReport logs the run summary and a sample of failed records.
func printRunReport(l *zap.Logger, report *reconcile.Report) {
	s := report.Summary

	l.Info("Reconciliation report",
		zap.Int("total", s.Total),
		zap.Int("updated", s.Updated),
		zap.Int("unchanged", s.Unchanged),
		zap.Int("skipped", s.Skipped),
		zap.Int("rolled_back", s.RolledBack),
		zap.Int("failed", s.Failed),
		zap.Bool("dry_run", report.DryRun),
		zap.Duration("elapsed", report.Duration),
	)

	const maxShow = 5
	shown := 0
	for _, r := range report.Results {
		if r.Error == "" {
			continue
		}
		if shown == maxShow {
			l.Info("Additional failures not shown", zap.Int("count", s.Errors()-maxShow))
			break
		}
		l.Warn("Failed record",
			zap.Int("netboxid", r.NetboxID),
			zap.String("outcome", string(r.Outcome)),
			zap.String("error", r.Error),
		)
		shown++
	}
}

// confirmWrites prompts the user for confirmation or uses --yes flag.
func confirmWrites(count int) bool {
	if yesConfirm {
		fmt.Println("\n✓ Auto-confirmed via --yes flag")
		return true
	}

	fmt.Printf("\n⚠️  %d observations will be written. Type 'yes' to confirm: ", count)
	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	return strings.TrimSpace(response) == "yes"
}
