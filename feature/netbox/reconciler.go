package netbox

import (
	"context"
	"errors"
	"fmt"

	"netbox-sync/core/reconcile"
	"netbox-sync/feature/netbox/models"

	"go.uber.org/zap"
)

var (
	// ErrUnknownNetbox is returned when no prior record exists for the netbox id.
	ErrUnknownNetbox = errors.New("netbox not found in snapshot")
	// ErrUnresolvedDevice is returned when no device id could be determined for the observation.
	ErrUnresolvedDevice = errors.New("device id unresolved")
)

// Persistence operations reported in PersistenceError.
const (
	OpBegin        = "begin"
	OpUpdateDevice = "update_device"
	OpUpdateNetbox = "update_netbox"
	OpCommit       = "commit"
)

// PersistenceError reports a failed step of the unit of work. The unit was rolled back.
type PersistenceError struct {
	NetboxID int
	Op       string
	Err      error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("netbox %d: %s: %v", e.NetboxID, e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Reconciler brings the netbox table in line with observed device data.
type Reconciler struct {
	snapshot *Snapshot
	gateway  Gateway
	logger   *zap.Logger
	opts     reconcile.Options
}

// NewReconciler creates a reconciler over an explicitly owned snapshot.
func NewReconciler(snapshot *Snapshot, gateway Gateway, logger *zap.Logger, opts reconcile.Options) *Reconciler {
	return &Reconciler{
		snapshot: snapshot,
		gateway:  gateway,
		logger:   logger.Named("netbox"),
		opts:     opts,
	}
}

// Reconcile applies one observation to the netbox identified by netboxID.
// Uncommitted containers are skipped without touching the database.
func (r *Reconciler) Reconcile(ctx context.Context, netboxID int, c *models.Container) (reconcile.Result, error) {
	result := reconcile.Result{NetboxID: netboxID}

	if c == nil || !c.IsCommitted() {
		result.Outcome = reconcile.OutcomeSkipped
		return result, nil
	}

	// Load failures are logged by the snapshot; lookups below report absence.
	_ = r.snapshot.Initialize(ctx)

	prior, ok := r.snapshot.Netbox(netboxID)
	if !ok {
		result.Outcome = reconcile.OutcomeFailed
		result.Error = ErrUnknownNetbox.Error()
		return result, fmt.Errorf("netbox %d: %w", netboxID, ErrUnknownNetbox)
	}

	observed := c.Record().Clone()
	if observed.HasEmptySerial() {
		observed.SetDeviceID(prior.DeviceID)
	}

	unit, err := r.gateway.Begin(ctx)
	if err != nil {
		return r.fail(result, nil, OpBegin, err)
	}

	if err := unit.UpdateDevice(ctx, observed); err != nil {
		return r.fail(result, unit, OpUpdateDevice, err)
	}
	if !observed.HasDeviceID() {
		return r.fail(result, unit, OpUpdateDevice, ErrUnresolvedDevice)
	}
	result.DeviceID = observed.DeviceID

	changed := !models.MaterialEqual(prior, observed)
	if changed {
		r.logger.Info("Updating netbox",
			zap.Int("netboxid", netboxID),
			zap.String("deviceid", observed.DeviceIDString()),
			zap.String("typeid", observed.TypeID),
			zap.String("sysname", observed.Sysname),
		)
		if err := unit.UpdateNetbox(ctx, netboxID, observed); err != nil {
			return r.fail(result, unit, OpUpdateNetbox, err)
		}
	}

	if r.opts.DryRun {
		if err := unit.Rollback(); err != nil {
			r.logger.Warn("Dry-run rollback failed", zap.Int("netboxid", netboxID), zap.Error(err))
		}
		result.DryRun = true
	} else {
		if err := unit.Commit(); err != nil {
			return r.fail(result, unit, OpCommit, err)
		}
		if r.opts.RefreshSnapshot {
			r.snapshot.Remember(netboxID, observed)
		}
	}

	if changed {
		result.Outcome = reconcile.OutcomeUpdated
	} else {
		result.Outcome = reconcile.OutcomeUnchanged
	}
	return result, nil
}

func (r *Reconciler) fail(result reconcile.Result, unit Unit, op string, cause error) (reconcile.Result, error) {
	err := &PersistenceError{NetboxID: result.NetboxID, Op: op, Err: cause}

	if unit != nil {
		if rbErr := unit.Rollback(); rbErr != nil {
			r.logger.Warn("Rollback failed", zap.Int("netboxid", result.NetboxID), zap.Error(rbErr))
		}
		result.Outcome = reconcile.OutcomeRolledBack
	} else {
		result.Outcome = reconcile.OutcomeFailed
	}
	result.Error = err.Error()

	r.logger.Error("Failed to reconcile netbox",
		zap.Int("netboxid", result.NetboxID),
		zap.String("op", op),
		zap.Error(cause),
		zap.Stack("stack"),
	)
	return result, err
}
