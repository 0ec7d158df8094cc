package device

import (
	"context"
	"errors"
	"fmt"

	"netbox-sync/feature/netbox/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SerialIndex resolves device identifiers from previously loaded state.
type SerialIndex interface {
	DeviceBySerial(serial string) (int, bool)
}

// Updater maintains device rows for observed netboxes.
type Updater struct {
	index  SerialIndex
	logger *zap.Logger
}

// NewUpdater creates an updater. index may be nil.
func NewUpdater(index SerialIndex, logger *zap.Logger) *Updater {
	return &Updater{index: index, logger: logger.Named("device")}
}

// UpdateDevice resolves the device id for rec when unset and stores its versions.
// Resolution tries the index, then the device table, then inserts a new row.
// Records without a serial and without a device id are left untouched.
func (u *Updater) UpdateDevice(ctx context.Context, tx *gorm.DB, rec *models.Record) error {
	db := tx.WithContext(ctx)

	if !rec.HasDeviceID() {
		if rec.HasEmptySerial() {
			return nil
		}
		id, err := u.resolve(db, rec)
		if err != nil {
			return err
		}
		rec.SetDeviceID(id)
	}

	updates := make(map[string]any, 2)
	if rec.HwVer != "" {
		updates[models.ColHwVer] = rec.HwVer
	}
	if rec.SwVer != "" {
		updates[models.ColSwVer] = rec.SwVer
	}
	if len(updates) == 0 {
		return nil
	}

	res := db.Table(models.TableDevice).Where(models.ColDeviceID+" = ?", rec.DeviceID).Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("failed to update device %d: %w", rec.DeviceID, res.Error)
	}
	return nil
}

func (u *Updater) resolve(db *gorm.DB, rec *models.Record) (int, error) {
	if u.index != nil {
		if id, ok := u.index.DeviceBySerial(rec.Serial); ok {
			return id, nil
		}
	}

	var existing models.Device
	err := db.Where(models.ColSerial+" = ?", rec.Serial).Take(&existing).Error
	if err == nil {
		return existing.DeviceID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, fmt.Errorf("failed to look up device %q: %w", rec.Serial, err)
	}

	created := models.Device{Serial: rec.Serial, HwVer: rec.HwVer, SwVer: rec.SwVer}
	if err := db.Create(&created).Error; err != nil {
		return 0, fmt.Errorf("failed to insert device %q: %w", rec.Serial, err)
	}
	u.logger.Info("Created device", zap.String("serial", rec.Serial), zap.Int("deviceid", created.DeviceID))
	return created.DeviceID, nil
}
