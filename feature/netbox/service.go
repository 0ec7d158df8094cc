package netbox

import (
	"context"
	"errors"
	"time"

	"netbox-sync/core/reconcile"
	"netbox-sync/core/storage"
	"netbox-sync/feature/device"
	"netbox-sync/feature/netbox/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service wires the snapshot, the reconciler and the observation sources.
type Service struct {
	client     storage.Client
	bucket     string
	logger     *zap.Logger
	db         *gorm.DB
	cfg        reconcile.Config
	snapshot   *Snapshot
	reconciler *Reconciler
}

// NewService creates a new netbox service.
func NewService(client storage.Client, bucket string, logger *zap.Logger, db *gorm.DB, cfg reconcile.Config) *Service {
	snap := NewSnapshot(db, logger)
	gw := NewGormGateway(db, device.NewUpdater(snap, logger))

	return &Service{
		client:     client,
		bucket:     bucket,
		logger:     logger,
		db:         db,
		cfg:        cfg,
		snapshot:   snap,
		reconciler: NewReconciler(snap, gw, logger, cfg.Options()),
	}
}

// Snapshot returns the snapshot owned by the service.
func (s *Service) Snapshot() *Snapshot {
	return s.snapshot
}

// Initialize loads the snapshot ahead of the first observation.
func (s *Service) Initialize(ctx context.Context) error {
	return s.snapshot.Initialize(ctx)
}

// Intake reconciles a single observation.
func (s *Service) Intake(ctx context.Context, obs models.Observation) (reconcile.Result, error) {
	return s.reconciler.Reconcile(ctx, obs.NetboxID, obs.Container())
}

// Run reconciles observations independently, each in its own unit of work.
func (s *Service) Run(ctx context.Context, observations []models.Observation) *reconcile.Report {
	report := reconcile.Run(ctx, observations, s.cfg.WorkerCount(), s.cfg.Options(),
		func(ctx context.Context, obs models.Observation) reconcile.Result {
			res, err := s.Intake(ctx, obs)
			if errors.Is(err, ErrUnknownNetbox) {
				s.logger.Warn("Observation for unknown netbox", zap.Int("netboxid", obs.NetboxID))
			}
			return res
		})

	s.logger.Info("Reconcile run finished",
		zap.Int("total", report.Summary.Total),
		zap.Int("updated", report.Summary.Updated),
		zap.Int("unchanged", report.Summary.Unchanged),
		zap.Int("skipped", report.Summary.Skipped),
		zap.Int("errors", report.Summary.Errors()),
		zap.Bool("dry_run", report.DryRun),
		zap.Duration("elapsed", report.Duration),
	)
	return report
}

// LoadObservations reads every observation batch under the configured storage prefix.
func (s *Service) LoadObservations(ctx context.Context) ([]models.Observation, error) {
	return LoadObservations(ctx, s.client, s.bucket, s.cfg.ObservationPrefix)
}

// PublishReport uploads a run report and returns its object name.
func (s *Service) PublishReport(ctx context.Context, report *reconcile.Report) (string, error) {
	return PublishReport(ctx, s.client, s.bucket, s.cfg.ReportPrefix, report)
}

// RunFromStorage loads observations from storage, reconciles them and optionally
// uploads the report.
func (s *Service) RunFromStorage(ctx context.Context, publish bool) (*reconcile.Report, string, error) {
	begin := time.Now()
	observations, err := s.LoadObservations(ctx)
	if err != nil {
		return nil, "", err
	}
	s.logger.Debug("Loaded observations", zap.Int("count", len(observations)), zap.Duration("elapsed", time.Since(begin)))

	report := s.Run(ctx, observations)
	if !publish {
		return report, "", nil
	}

	name, err := s.PublishReport(ctx, report)
	if err != nil {
		return report, "", err
	}
	return report, name, nil
}
