package models

import (
	"strconv"
	"strings"
)

// Record is the in-memory form of a netbox entry joined with its device row.
// DeviceID 0 means the device identifier has not been resolved yet.
type Record struct {
	Serial   string `json:"serial"`
	HwVer    string `json:"hw_ver"`
	SwVer    string `json:"sw_ver"`
	TypeID   string `json:"type_id"`
	Sysname  string `json:"sysname"`
	DeviceID int    `json:"device_id,omitempty"`
}

// NewRecord builds a record for a fresh observation. The device identifier is left unresolved.
func NewRecord(serial, hwVer, swVer, typeID, sysname string) *Record {
	return &Record{
		Serial:  serial,
		HwVer:   hwVer,
		SwVer:   swVer,
		TypeID:  typeID,
		Sysname: sysname,
	}
}

// HasEmptySerial reports whether the device reported no usable serial number.
func (r *Record) HasEmptySerial() bool {
	return strings.TrimSpace(r.Serial) == ""
}

// HasDeviceID reports whether the device identifier is resolved.
func (r *Record) HasDeviceID() bool {
	return r.DeviceID > 0
}

// SetDeviceID sets the device identifier.
func (r *Record) SetDeviceID(id int) {
	r.DeviceID = id
}

// DeviceIDString formats the device identifier for statements and log lines.
func (r *Record) DeviceIDString() string {
	return strconv.Itoa(r.DeviceID)
}

// Clone returns a copy that shares nothing with r.
func (r *Record) Clone() *Record {
	c := *r
	return &c
}

// MaterialEqual reports whether the netbox row needs no update: device id, type id
// and sysname match. Serial and hw/sw versions are excluded; the device update
// persists those.
func MaterialEqual(a, b *Record) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.DeviceID == b.DeviceID &&
		a.TypeID == b.TypeID &&
		a.Sysname == b.Sysname
}

// MaterialEqual is the method form of MaterialEqual.
func (r *Record) MaterialEqual(other *Record) bool {
	return MaterialEqual(r, other)
}
