package models

// Table and column names of the inventory schema.
const (
	TableDevice = "device"
	TableNetbox = "netbox"

	ColDeviceID = "deviceid"
	ColSerial   = "serial"
	ColHwVer    = "hw_ver"
	ColSwVer    = "sw_ver"
	ColNetboxID = "netboxid"
	ColTypeID   = "typeid"
	ColSysname  = "sysname"
)

// Device represents the 'device' table.
type Device struct {
	DeviceID int    `gorm:"column:deviceid;primaryKey;autoIncrement"`
	Serial   string `gorm:"column:serial;uniqueIndex"`
	HwVer    string `gorm:"column:hw_ver"`
	SwVer    string `gorm:"column:sw_ver"`
}

// TableName overrides the table name for Device.
func (Device) TableName() string {
	return TableDevice
}

// Netbox represents the 'netbox' table, restricted to the columns reconciled here.
type Netbox struct {
	NetboxID int    `gorm:"column:netboxid;primaryKey"`
	DeviceID int    `gorm:"column:deviceid"`
	TypeID   string `gorm:"column:typeid"`
	Sysname  string `gorm:"column:sysname"`
}

// TableName overrides the table name for Netbox.
func (Netbox) TableName() string {
	return TableNetbox
}
