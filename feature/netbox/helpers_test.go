package netbox

import (
	"testing"

	"netbox-sync/core/database"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to open mock sql db: %v", err)
	}

	dialector := mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open gorm db: %v", err)
	}

	return gormDB, mock
}

// setupSQLiteDB returns an in-memory inventory with three devices and three netboxes.
// Device 3 has no serial.
func setupSQLiteDB(t *testing.T) *gorm.DB {
	db, err := database.Connect(database.Config{Driver: database.DriverSQLite, Name: ":memory:"})
	require.NoError(t, err)

	stmts := []string{
		"CREATE TABLE device (deviceid INTEGER PRIMARY KEY AUTOINCREMENT, serial TEXT UNIQUE, hw_ver TEXT, sw_ver TEXT)",
		"CREATE TABLE netbox (netboxid INTEGER PRIMARY KEY, deviceid INTEGER REFERENCES device(deviceid), typeid TEXT, sysname TEXT)",
		"INSERT INTO device (deviceid, serial, hw_ver, sw_ver) VALUES (10, 'SN1', 'hw1', 'sw1'), (20, 'SN2', '', ''), (30, NULL, '', '')",
		"INSERT INTO netbox (netboxid, deviceid, typeid, sysname) VALUES (1, 10, 'T1', 'sw1'), (2, 20, 'T2', 'sw2'), (3, 30, 'T3', 'sw3')",
	}
	for _, stmt := range stmts {
		require.NoError(t, db.Exec(stmt).Error)
	}

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return db
}

type netboxRow struct {
	DeviceID int
	TypeID   string
	Sysname  string
}

func readNetbox(t *testing.T, db *gorm.DB, netboxID int) netboxRow {
	var row netboxRow
	err := db.Raw("SELECT deviceid AS device_id, typeid AS type_id, sysname FROM netbox WHERE netboxid = ?", netboxID).Scan(&row).Error
	require.NoError(t, err)
	return row
}
