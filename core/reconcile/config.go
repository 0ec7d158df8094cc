package reconcile

// Config holds configuration for reconciliation runs.
type Config struct {
	// Workers bounds how many records are reconciled concurrently by a run.
	Workers int `mapstructure:"workers" default:"4"`
	// DryRun rolls every unit of work back instead of committing it.
	DryRun bool `mapstructure:"dry_run" default:"false"`
	// RefreshSnapshot replaces the cached netbox entry after a successful commit.
	RefreshSnapshot bool `mapstructure:"refresh_snapshot" default:"true"`
	// ObservationPrefix is the storage prefix holding observation batches.
	ObservationPrefix string `mapstructure:"observation_prefix" default:"observations/"`
	// ReportPrefix is the storage prefix run reports are written under.
	ReportPrefix string `mapstructure:"report_prefix" default:"reports/"`
}

// Options returns the per-record options derived from the configuration.
func (c Config) Options() Options {
	return Options{
		DryRun:          c.DryRun,
		RefreshSnapshot: c.RefreshSnapshot,
	}
}

// WorkerCount returns the configured worker count, at least one.
func (c Config) WorkerCount() int {
	if c.Workers < 1 {
		return 1
	}
	return c.Workers
}
