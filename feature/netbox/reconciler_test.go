package netbox

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"testing"

	"netbox-sync/core/reconcile"
	"netbox-sync/feature/device"
	"netbox-sync/feature/netbox/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
)

const (
	updateDeviceSQL = "UPDATE `device` SET `hw_ver`=?,`sw_ver`=? WHERE deviceid = ?"
	updateNetboxSQL = "UPDATE `netbox` SET `deviceid`=?,`sysname`=?,`typeid`=? WHERE netboxid = ?"
)

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) Begin(ctx context.Context) (Unit, error) {
	args := m.Called(ctx)
	if u, ok := args.Get(0).(Unit); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockUnit struct {
	mock.Mock
}

func (m *mockUnit) UpdateDevice(ctx context.Context, rec *models.Record) error {
	return m.Called(ctx, rec).Error(0)
}

func (m *mockUnit) UpdateNetbox(ctx context.Context, netboxID int, rec *models.Record) error {
	return m.Called(ctx, netboxID, rec).Error(0)
}

func (m *mockUnit) Commit() error {
	return m.Called().Error(0)
}

func (m *mockUnit) Rollback() error {
	return m.Called().Error(0)
}

func newGormReconciler(db *gorm.DB, logger *zap.Logger, opts reconcile.Options) (*Reconciler, *Snapshot) {
	snap := NewSnapshot(db, logger)
	gw := NewGormGateway(db, device.NewUpdater(snap, logger))
	return NewReconciler(snap, gw, logger, opts), snap
}

func committed(rec *models.Record) *models.Container {
	c := models.NewContainer(rec)
	c.Commit()
	return c
}

func withDevice(rec *models.Record, id int) *models.Record {
	rec.SetDeviceID(id)
	return rec
}

func TestReconcile_EmptySerialUsesPriorDevice(t *testing.T) {
	db := setupSQLiteDB(t)
	r, _ := newGormReconciler(db, zap.NewNop(), reconcile.Options{RefreshSnapshot: true})

	res, err := r.Reconcile(context.Background(), 1, committed(models.NewRecord("", "", "", "T1", "sw1")))
	require.NoError(t, err)
	assert.Equal(t, reconcile.OutcomeUnchanged, res.Outcome)
	assert.Equal(t, 10, res.DeviceID)

	assert.Equal(t, netboxRow{DeviceID: 10, TypeID: "T1", Sysname: "sw1"}, readNetbox(t, db, 1))
}

func TestReconcile_TypeChangeIssuesUpdate(t *testing.T) {
	db := setupSQLiteDB(t)
	r, _ := newGormReconciler(db, zap.NewNop(), reconcile.Options{RefreshSnapshot: true})

	obs := withDevice(models.NewRecord("SN1", "", "", "T2", "sw1"), 10)
	res, err := r.Reconcile(context.Background(), 1, committed(obs))
	require.NoError(t, err)
	assert.Equal(t, reconcile.OutcomeUpdated, res.Outcome)
	assert.Equal(t, 10, res.DeviceID)

	assert.Equal(t, netboxRow{DeviceID: 10, TypeID: "T2", Sysname: "sw1"}, readNetbox(t, db, 1))
	assert.Equal(t, netboxRow{DeviceID: 20, TypeID: "T2", Sysname: "sw2"}, readNetbox(t, db, 2))
}

func TestReconcile_VersionOnlyChangeSkipsNetboxWrite(t *testing.T) {
	db, mock := setupMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta(queryDevices)).
		WillReturnRows(sqlmock.NewRows([]string{"deviceid", "serial"}).AddRow(10, "SN1"))
	mock.ExpectQuery(regexp.QuoteMeta(queryNetbox)).
		WillReturnRows(sqlmock.NewRows([]string{"deviceid", "serial", "hw_ver", "sw_ver", "netboxid", "typeid", "sysname"}).
			AddRow(10, "SN1", "hw1", "sw1", 1, "T1", "sw1"))
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(updateDeviceSQL)).
		WithArgs("hw2", "sw2", 10).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	r, _ := newGormReconciler(db, zap.NewNop(), reconcile.Options{})

	res, err := r.Reconcile(context.Background(), 1, committed(models.NewRecord("SN1", "hw2", "sw2", "T1", "sw1")))
	require.NoError(t, err)
	assert.Equal(t, reconcile.OutcomeUnchanged, res.Outcome)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReconcile_MaterialChangeWritesOnce(t *testing.T) {
	db, mock := setupMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta(queryDevices)).
		WillReturnRows(sqlmock.NewRows([]string{"deviceid", "serial"}).AddRow(10, "SN1"))
	mock.ExpectQuery(regexp.QuoteMeta(queryNetbox)).
		WillReturnRows(sqlmock.NewRows([]string{"deviceid", "serial", "hw_ver", "sw_ver", "netboxid", "typeid", "sysname"}).
			AddRow(10, "SN1", "hw1", "sw1", 1, "T1", "sw1"))
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(updateNetboxSQL)).
		WithArgs(10, "core-1", "T1", 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	r, _ := newGormReconciler(db, zap.NewNop(), reconcile.Options{})

	res, err := r.Reconcile(context.Background(), 1, committed(models.NewRecord("SN1", "", "", "T1", "core-1")))
	require.NoError(t, err)
	assert.Equal(t, reconcile.OutcomeUpdated, res.Outcome)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReconcile_WriteFailureRollsBack(t *testing.T) {
	db, mock := setupMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta(queryDevices)).
		WillReturnRows(sqlmock.NewRows([]string{"deviceid", "serial"}).AddRow(10, "SN1"))
	mock.ExpectQuery(regexp.QuoteMeta(queryNetbox)).
		WillReturnRows(sqlmock.NewRows([]string{"deviceid", "serial", "hw_ver", "sw_ver", "netboxid", "typeid", "sysname"}).
			AddRow(10, "SN1", "hw1", "sw1", 1, "T1", "sw1"))
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(updateDeviceSQL)).
		WithArgs("hw2", "sw2", 10).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(updateNetboxSQL)).
		WithArgs(10, "sw1", "T2", 1).
		WillReturnError(errors.New("lock wait timeout"))
	mock.ExpectRollback()

	core, logs := observer.New(zapcore.DebugLevel)
	r, snap := newGormReconciler(db, zap.New(core), reconcile.Options{RefreshSnapshot: true})

	obs := withDevice(models.NewRecord("SN1", "hw2", "sw2", "T2", "sw1"), 10)
	res, err := r.Reconcile(context.Background(), 1, committed(obs))
	require.Error(t, err)
	assert.Equal(t, reconcile.OutcomeRolledBack, res.Outcome)
	assert.NotEmpty(t, res.Error)

	var perr *PersistenceError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, 1, perr.NetboxID)
	assert.Equal(t, OpUpdateNetbox, perr.Op)
	assert.Contains(t, err.Error(), "lock wait timeout")

	assert.NoError(t, mock.ExpectationsWereMet())

	prior, _ := snap.Netbox(1)
	assert.Equal(t, "T1", prior.TypeID, "failed write must not refresh the snapshot")

	entries := logs.FilterMessage("Failed to reconcile netbox").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
	assert.Contains(t, entries[0].ContextMap(), "stack")
}

func TestReconcile_WriteFailureLeavesDatabaseUntouched(t *testing.T) {
	db := setupSQLiteDB(t)
	r, _ := newGormReconciler(db, zap.NewNop(), reconcile.Options{})

	// A sysname longer than the CHECK allows makes the netbox write fail after the device write.
	require.NoError(t, db.Exec("DROP TABLE netbox").Error)
	require.NoError(t, db.Exec("CREATE TABLE netbox (netboxid INTEGER PRIMARY KEY, deviceid INTEGER, typeid TEXT, sysname TEXT CHECK (length(sysname) < 8))").Error)
	require.NoError(t, db.Exec("INSERT INTO netbox VALUES (1, 10, 'T1', 'sw1')").Error)

	obs := withDevice(models.NewRecord("SN1", "hw9", "sw9", "T1", "much-too-long"), 10)
	res, err := r.Reconcile(context.Background(), 1, committed(obs))
	require.Error(t, err)
	assert.Equal(t, reconcile.OutcomeRolledBack, res.Outcome)

	var hw string
	require.NoError(t, db.Raw("SELECT hw_ver FROM device WHERE deviceid = 10").Scan(&hw).Error)
	assert.Equal(t, "hw1", hw, "device write must be rolled back with the netbox write")
	assert.Equal(t, netboxRow{DeviceID: 10, TypeID: "T1", Sysname: "sw1"}, readNetbox(t, db, 1))
}

func TestReconcile_UnknownNetbox(t *testing.T) {
	db := setupSQLiteDB(t)
	gw := new(mockGateway)
	r := NewReconciler(NewSnapshot(db, zap.NewNop()), gw, zap.NewNop(), reconcile.Options{})

	res, err := r.Reconcile(context.Background(), 99, committed(models.NewRecord("SN1", "", "", "T1", "sw1")))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownNetbox)
	assert.Equal(t, reconcile.OutcomeFailed, res.Outcome)

	gw.AssertNotCalled(t, "Begin", mock.Anything)
}

func TestReconcile_UncommittedContainerIsSkipped(t *testing.T) {
	gw := new(mockGateway)
	snap := NewSnapshot(nil, zap.NewNop())
	r := NewReconciler(snap, gw, zap.NewNop(), reconcile.Options{})

	res, err := r.Reconcile(context.Background(), 1, models.NewContainer(models.NewRecord("SN1", "", "", "T1", "sw1")))
	require.NoError(t, err)
	assert.Equal(t, reconcile.OutcomeSkipped, res.Outcome)

	res, err = r.Reconcile(context.Background(), 1, nil)
	require.NoError(t, err)
	assert.Equal(t, reconcile.OutcomeSkipped, res.Outcome)

	gw.AssertNotCalled(t, "Begin", mock.Anything)
	assert.Equal(t, StateEmpty, snap.Stats().State, "skipped records do not load the snapshot")
}

func TestReconcile_UnresolvedDevice(t *testing.T) {
	db := setupSQLiteDB(t)
	unit := new(mockUnit)
	gw := new(mockGateway)
	gw.On("Begin", mock.Anything).Return(unit, nil)
	unit.On("UpdateDevice", mock.Anything, mock.Anything).Return(nil)
	unit.On("Rollback").Return(nil)

	r := NewReconciler(NewSnapshot(db, zap.NewNop()), gw, zap.NewNop(), reconcile.Options{})

	res, err := r.Reconcile(context.Background(), 2, committed(models.NewRecord("SN-NEW", "", "", "T2", "sw2")))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnresolvedDevice)
	assert.Equal(t, reconcile.OutcomeRolledBack, res.Outcome)

	unit.AssertNotCalled(t, "UpdateNetbox", mock.Anything, mock.Anything, mock.Anything)
	unit.AssertNotCalled(t, "Commit")
	unit.AssertExpectations(t)
}

func TestReconcile_DeviceFailureRollsBack(t *testing.T) {
	db := setupSQLiteDB(t)
	unit := new(mockUnit)
	gw := new(mockGateway)
	gw.On("Begin", mock.Anything).Return(unit, nil)
	unit.On("UpdateDevice", mock.Anything, mock.Anything).Return(errors.New("duplicate serial"))
	unit.On("Rollback").Return(nil)

	r := NewReconciler(NewSnapshot(db, zap.NewNop()), gw, zap.NewNop(), reconcile.Options{})

	res, err := r.Reconcile(context.Background(), 1, committed(models.NewRecord("SN1", "", "", "T9", "sw1")))
	require.Error(t, err)
	assert.Equal(t, reconcile.OutcomeRolledBack, res.Outcome)

	var perr *PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, OpUpdateDevice, perr.Op)

	unit.AssertNotCalled(t, "UpdateNetbox", mock.Anything, mock.Anything, mock.Anything)
	unit.AssertExpectations(t)
}

func TestReconcile_BeginFailure(t *testing.T) {
	db := setupSQLiteDB(t)
	gw := new(mockGateway)
	gw.On("Begin", mock.Anything).Return(nil, errors.New("too many connections"))

	r := NewReconciler(NewSnapshot(db, zap.NewNop()), gw, zap.NewNop(), reconcile.Options{})

	res, err := r.Reconcile(context.Background(), 1, committed(models.NewRecord("SN1", "", "", "T1", "sw1")))
	require.Error(t, err)
	assert.Equal(t, reconcile.OutcomeFailed, res.Outcome)

	var perr *PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, OpBegin, perr.Op)
}

func TestReconcile_CommitFailure(t *testing.T) {
	db := setupSQLiteDB(t)
	unit := new(mockUnit)
	gw := new(mockGateway)
	gw.On("Begin", mock.Anything).Return(unit, nil)
	unit.On("UpdateDevice", mock.Anything, mock.Anything).Return(nil)
	unit.On("Commit").Return(errors.New("deadlock"))
	unit.On("Rollback").Return(nil)

	r := NewReconciler(NewSnapshot(db, zap.NewNop()), gw, zap.NewNop(), reconcile.Options{RefreshSnapshot: true})

	res, err := r.Reconcile(context.Background(), 1, committed(withDevice(models.NewRecord("SN1", "", "", "T1", "sw1"), 10)))
	require.Error(t, err)
	assert.Equal(t, reconcile.OutcomeRolledBack, res.Outcome)

	var perr *PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, OpCommit, perr.Op)
	unit.AssertExpectations(t)
}

func TestReconcile_NonEmptySerialKeepsOwnDevice(t *testing.T) {
	db := setupSQLiteDB(t)
	r, _ := newGormReconciler(db, zap.NewNop(), reconcile.Options{RefreshSnapshot: true})

	// Netbox 3 is attached to device 30; the observed serial belongs to device 20.
	res, err := r.Reconcile(context.Background(), 3, committed(models.NewRecord("SN2", "", "", "T3", "sw3")))
	require.NoError(t, err)
	assert.Equal(t, reconcile.OutcomeUpdated, res.Outcome)
	assert.Equal(t, 20, res.DeviceID)
	assert.Equal(t, 20, readNetbox(t, db, 3).DeviceID)
}

func TestReconcile_NewSerialCreatesDevice(t *testing.T) {
	db := setupSQLiteDB(t)
	r, snap := newGormReconciler(db, zap.NewNop(), reconcile.Options{RefreshSnapshot: true})

	res, err := r.Reconcile(context.Background(), 2, committed(models.NewRecord("SN-NEW", "hw", "sw", "T2", "sw2")))
	require.NoError(t, err)
	assert.Equal(t, reconcile.OutcomeUpdated, res.Outcome)
	require.NotZero(t, res.DeviceID)

	var dev models.Device
	require.NoError(t, db.Where("serial = ?", "SN-NEW").Take(&dev).Error)
	assert.Equal(t, res.DeviceID, dev.DeviceID)
	assert.Equal(t, "hw", dev.HwVer)
	assert.Equal(t, dev.DeviceID, readNetbox(t, db, 2).DeviceID)

	id, ok := snap.DeviceBySerial("SN-NEW")
	assert.True(t, ok)
	assert.Equal(t, dev.DeviceID, id)
}

func TestReconcile_Idempotent(t *testing.T) {
	db := setupSQLiteDB(t)
	core, logs := observer.New(zapcore.InfoLevel)
	r, _ := newGormReconciler(db, zap.New(core), reconcile.Options{RefreshSnapshot: true})

	obs := models.NewRecord("SN1", "", "", "T1", "renamed")

	first, err := r.Reconcile(context.Background(), 1, committed(obs.Clone()))
	require.NoError(t, err)
	assert.Equal(t, reconcile.OutcomeUpdated, first.Outcome)

	second, err := r.Reconcile(context.Background(), 1, committed(obs.Clone()))
	require.NoError(t, err)
	assert.Equal(t, reconcile.OutcomeUnchanged, second.Outcome)

	entries := logs.FilterMessage("Updating netbox").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, int64(1), fields["netboxid"])
	assert.Equal(t, "10", fields["deviceid"])
	assert.Equal(t, "T1", fields["typeid"])
	assert.Equal(t, "renamed", fields["sysname"])
}

func TestReconcile_StaleSnapshotWithoutRefresh(t *testing.T) {
	db := setupSQLiteDB(t)
	r, _ := newGormReconciler(db, zap.NewNop(), reconcile.Options{RefreshSnapshot: false})

	obs := models.NewRecord("SN1", "", "", "T1", "renamed")

	first, err := r.Reconcile(context.Background(), 1, committed(obs.Clone()))
	require.NoError(t, err)
	assert.Equal(t, reconcile.OutcomeUpdated, first.Outcome)

	second, err := r.Reconcile(context.Background(), 1, committed(obs.Clone()))
	require.NoError(t, err)
	assert.Equal(t, reconcile.OutcomeUpdated, second.Outcome, "prior record is still the loaded one")
}

func TestReconcile_DryRun(t *testing.T) {
	db := setupSQLiteDB(t)
	r, snap := newGormReconciler(db, zap.NewNop(), reconcile.Options{DryRun: true, RefreshSnapshot: true})

	res, err := r.Reconcile(context.Background(), 1, committed(models.NewRecord("SN1", "hw9", "", "T7", "sw1")))
	require.NoError(t, err)
	assert.Equal(t, reconcile.OutcomeUpdated, res.Outcome)
	assert.True(t, res.DryRun)

	assert.Equal(t, netboxRow{DeviceID: 10, TypeID: "T1", Sysname: "sw1"}, readNetbox(t, db, 1))

	var hw string
	require.NoError(t, db.Raw("SELECT hw_ver FROM device WHERE deviceid = 10").Scan(&hw).Error)
	assert.Equal(t, "hw1", hw)

	prior, _ := snap.Netbox(1)
	assert.Equal(t, "T1", prior.TypeID)
}

func TestReconcile_Concurrent(t *testing.T) {
	db := setupSQLiteDB(t)
	r, _ := newGormReconciler(db, zap.NewNop(), reconcile.Options{RefreshSnapshot: true})

	var wg sync.WaitGroup
	results := make([]reconcile.Result, 3)
	errs := make([]error, 3)
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			netboxID := i + 1
			obs := models.NewRecord("", "", "", fmt.Sprintf("T%d", netboxID), fmt.Sprintf("host-%d", netboxID))
			results[i], errs[i] = r.Reconcile(context.Background(), netboxID, committed(obs))
		}(i)
	}
	wg.Wait()

	for i := 0; i < 3; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, reconcile.OutcomeUpdated, results[i].Outcome)
		assert.Equal(t, fmt.Sprintf("host-%d", i+1), readNetbox(t, db, i+1).Sysname)
	}
}
