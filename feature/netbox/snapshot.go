package netbox

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"netbox-sync/core/database"
	"netbox-sync/core/reconcile"
	"netbox-sync/core/utils"
	"netbox-sync/feature/netbox/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	queryDevices = "SELECT deviceid, serial FROM device"
	queryNetbox  = "SELECT deviceid, serial, hw_ver, sw_ver, netboxid, typeid, sysname FROM device JOIN netbox USING (deviceid)"
)

// LoadState describes how far the snapshot load got.
type LoadState string

const (
	StateEmpty      LoadState = "empty"
	StateLoaded     LoadState = "loaded"
	StateIncomplete LoadState = "incomplete"
)

// SnapshotStats summarizes the snapshot contents.
type SnapshotStats struct {
	State    LoadState `json:"state"`
	Devices  int       `json:"devices"`
	Netboxes int       `json:"netboxes"`
	LoadedAt time.Time `json:"loaded_at,omitempty"`
}

// Snapshot holds the prior known state of the device and netbox tables.
// It is loaded once; a failed load is not retried.
type Snapshot struct {
	db     *gorm.DB
	logger *zap.Logger

	once     sync.Once
	mu       sync.RWMutex
	state    LoadState
	loadedAt time.Time
	loadErr  error

	devices  *reconcile.Index[string, int]
	netboxes *reconcile.Index[int, *models.Record]
}

// NewSnapshot creates an empty snapshot reading from db.
func NewSnapshot(db *gorm.DB, logger *zap.Logger) *Snapshot {
	return &Snapshot{
		db:       db,
		logger:   logger.Named("snapshot"),
		state:    StateEmpty,
		devices:  reconcile.NewIndex[string, int](),
		netboxes: reconcile.NewIndex[int, *models.Record](),
	}
}

// Initialize loads both lookup tables on the first call. Later and concurrent calls
// block until that load finishes and return its error without querying again.
func (s *Snapshot) Initialize(ctx context.Context) error {
	s.once.Do(func() {
		err := s.load(ctx)

		s.mu.Lock()
		s.loadErr = err
		s.loadedAt = time.Now()
		if err != nil {
			s.state = StateIncomplete
		} else {
			s.state = StateLoaded
		}
		s.mu.Unlock()
	})

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadErr
}

func (s *Snapshot) load(ctx context.Context) error {
	if s.db == nil {
		err := fmt.Errorf("snapshot: no database connection")
		s.logger.Error("Snapshot load failed", zap.Error(err))
		return err
	}

	begin := time.Now()
	devices, err := s.loadDevices(ctx)
	if err != nil {
		s.logger.Error("Failed to dump device", zap.Error(err))
		return err
	}
	s.devices.Replace(devices)
	s.logger.Debug("Dumped device", zap.Duration("elapsed", time.Since(begin)), zap.Int("rows", len(devices)))

	begin = time.Now()
	netboxes, err := s.loadNetboxes(ctx)
	if err != nil {
		s.logger.Error("Failed to dump netbox", zap.Error(err))
		return err
	}
	s.netboxes.Replace(netboxes)
	s.logger.Debug("Dumped netbox", zap.Duration("elapsed", time.Since(begin)), zap.Int("rows", len(netboxes)))

	return nil
}

// loadDevices builds the serial -> deviceid table. Rows without a serial cannot be
// looked up by serial and are left out.
func (s *Snapshot) loadDevices(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.WithContext(ctx).Raw(queryDevices).Rows()
	if err != nil {
		return nil, fmt.Errorf("failed to query device: %w", err)
	}
	defer rows.Close()

	devices := make(map[string]int)
	err = scanRows(rows, func(row map[string]any) {
		serial := utils.ToString(row[models.ColSerial])
		if serial == "" {
			return
		}
		devices[serial] = utils.ToInt(row[models.ColDeviceID])
	})
	if err != nil {
		return nil, err
	}
	return devices, nil
}

func (s *Snapshot) loadNetboxes(ctx context.Context) (map[int]*models.Record, error) {
	rows, err := s.db.WithContext(ctx).Raw(queryNetbox).Rows()
	if err != nil {
		return nil, fmt.Errorf("failed to query netbox: %w", err)
	}
	defer rows.Close()

	netboxes := make(map[int]*models.Record)
	err = scanRows(rows, func(row map[string]any) {
		rec := models.NewRecord(
			utils.ToString(row[models.ColSerial]),
			utils.ToString(row[models.ColHwVer]),
			utils.ToString(row[models.ColSwVer]),
			utils.ToString(row[models.ColTypeID]),
			utils.ToString(row[models.ColSysname]),
		)
		rec.SetDeviceID(utils.ToInt(row[models.ColDeviceID]))
		netboxes[utils.ToInt(row[models.ColNetboxID])] = rec
	})
	if err != nil {
		return nil, err
	}
	return netboxes, nil
}

// scanRows feeds every row to fn as a column -> value map.
func scanRows(rows *sql.Rows, fn func(map[string]any)) error {
	columns, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("failed to get columns: %w", err)
	}

	for rows.Next() {
		values := make([]any, len(columns))
		valuePtrs := make([]any, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return fmt.Errorf("failed to scan row: %w", err)
		}

		row := make(map[string]any, len(columns))
		for i, col := range columns {
			row[col] = values[i]
		}
		fn(row)
	}
	return rows.Err()
}

// Netbox returns a copy of the last known record for netboxID.
func (s *Snapshot) Netbox(netboxID int) (*models.Record, bool) {
	rec, ok := s.netboxes.Get(netboxID)
	if !ok {
		return nil, false
	}
	return rec.Clone(), true
}

// DeviceBySerial returns the device identifier last known for serial.
func (s *Snapshot) DeviceBySerial(serial string) (int, bool) {
	if serial == "" {
		return 0, false
	}
	return s.devices.Get(serial)
}

// Remember replaces the cached state for netboxID with a committed record.
func (s *Snapshot) Remember(netboxID int, rec *models.Record) {
	s.netboxes.Put(netboxID, rec.Clone())
	if !rec.HasEmptySerial() && rec.HasDeviceID() {
		s.devices.Put(rec.Serial, rec.DeviceID)
	}
}

// Stats reports the load state and table sizes.
func (s *Snapshot) Stats() SnapshotStats {
	s.mu.RLock()
	state, loadedAt := s.state, s.loadedAt
	s.mu.RUnlock()

	return SnapshotStats{
		State:    state,
		Devices:  s.devices.Len(),
		Netboxes: s.netboxes.Len(),
		LoadedAt: loadedAt,
	}
}

// VerifySchema checks that the tables read by the snapshot and written by the
// reconciler carry the expected columns.
func VerifySchema(db *gorm.DB) error {
	if err := database.RequireColumns(db, models.TableDevice,
		models.ColDeviceID, models.ColSerial, models.ColHwVer, models.ColSwVer); err != nil {
		return err
	}
	return database.RequireColumns(db, models.TableNetbox,
		models.ColNetboxID, models.ColDeviceID, models.ColTypeID, models.ColSysname)
}
