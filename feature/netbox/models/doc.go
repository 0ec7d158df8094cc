// Package models defines the netbox record, the observation container handed to the
// reconciler, and the GORM models of the device and netbox tables.
package models
