package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"netbox-sync/core/config"
	"netbox-sync/core/database"
	"netbox-sync/core/logger"
	"netbox-sync/feature/netbox"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// snapshotCmd loads the snapshot and prints its stats or one cached record.
var snapshotCmd = &cobra.Command{
	Use:   "snapshot [netboxid]",
	Short: "Load the snapshot and print its contents",
	Long:  `Loads the device and netbox tables the way the reconciler sees them. With a netbox id, prints that cached record as JSON.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(".")
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		l, err := logger.New(&cfg.Log)
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
		defer l.Sync()

		db, err := database.Connect(cfg.Database)
		if err != nil {
			return fmt.Errorf("database connection required: %w", err)
		}
		if err := netbox.VerifySchema(db); err != nil {
			return fmt.Errorf("inventory schema check failed: %w", err)
		}

		snap := netbox.NewSnapshot(db, l)
		if err := snap.Initialize(context.Background()); err != nil {
			return fmt.Errorf("failed to load snapshot: %w", err)
		}

		stats := snap.Stats()
		l.Info("Snapshot loaded",
			zap.String("state", string(stats.State)),
			zap.Int("devices", stats.Devices),
			zap.Int("netboxes", stats.Netboxes),
		)

		if len(args) == 0 {
			return nil
		}

		netboxID, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid netbox id %q", args[0])
		}
		rec, ok := snap.Netbox(netboxID)
		if !ok {
			return fmt.Errorf("netbox %d: %w", netboxID, netbox.ErrUnknownNetbox)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rec)
	},
}

func init() {
	RootCmd.AddCommand(snapshotCmd)
}
