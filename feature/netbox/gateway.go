package netbox

import (
	"context"
	"errors"
	"fmt"

	"netbox-sync/feature/netbox/models"

	"gorm.io/gorm"
)

var (
	// ErrDeviceUpdatePending is returned when the netbox row is written before the device row.
	ErrDeviceUpdatePending = errors.New("device update must precede netbox update")
	// ErrUnitClosed is returned when a unit is used after commit or rollback.
	ErrUnitClosed = errors.New("unit of work already finalized")
)

// DeviceUpdater persists the device side of an observation inside an open transaction.
// It may fill in the record's device id.
type DeviceUpdater interface {
	UpdateDevice(ctx context.Context, tx *gorm.DB, rec *models.Record) error
}

// Unit is one transaction spanning the device and netbox writes of a reconcile.
type Unit interface {
	UpdateDevice(ctx context.Context, rec *models.Record) error
	UpdateNetbox(ctx context.Context, netboxID int, rec *models.Record) error
	Commit() error
	Rollback() error
}

// Gateway opens units of work.
type Gateway interface {
	Begin(ctx context.Context) (Unit, error)
}

// GormGateway runs units of work as gorm transactions.
type GormGateway struct {
	db      *gorm.DB
	devices DeviceUpdater
}

// NewGormGateway creates a gateway delegating device writes to devices.
func NewGormGateway(db *gorm.DB, devices DeviceUpdater) *GormGateway {
	return &GormGateway{db: db, devices: devices}
}

// Begin starts a transaction.
func (g *GormGateway) Begin(ctx context.Context) (Unit, error) {
	tx := g.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}
	return &gormUnit{tx: tx, devices: g.devices}, nil
}

type gormUnit struct {
	tx            *gorm.DB
	devices       DeviceUpdater
	deviceUpdated bool
	done          bool
}

func (u *gormUnit) UpdateDevice(ctx context.Context, rec *models.Record) error {
	if u.done {
		return ErrUnitClosed
	}
	if u.devices != nil {
		if err := u.devices.UpdateDevice(ctx, u.tx, rec); err != nil {
			return err
		}
	}
	u.deviceUpdated = true
	return nil
}

func (u *gormUnit) UpdateNetbox(ctx context.Context, netboxID int, rec *models.Record) error {
	if u.done {
		return ErrUnitClosed
	}
	if !u.deviceUpdated {
		return ErrDeviceUpdatePending
	}
	if !rec.HasDeviceID() {
		return ErrUnresolvedDevice
	}

	res := u.tx.WithContext(ctx).
		Table(models.TableNetbox).
		Where(models.ColNetboxID+" = ?", netboxID).
		Updates(map[string]any{
			models.ColDeviceID: rec.DeviceID,
			models.ColTypeID:   rec.TypeID,
			models.ColSysname:  rec.Sysname,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update netbox %d: %w", netboxID, res.Error)
	}
	return nil
}

func (u *gormUnit) Commit() error {
	if u.done {
		return ErrUnitClosed
	}
	u.done = true
	return u.tx.Commit().Error
}

func (u *gormUnit) Rollback() error {
	if u.done {
		return nil
	}
	u.done = true
	return u.tx.Rollback().Error
}
