// Package database handles database connections and schema inspection.
//
// It provides a wrapper around GORM to configure MySQL or SQLite connections based on
// the application's configuration. The inventory schema (device and netbox tables) is
// owned elsewhere; this package only connects and inspects it.
//
// # Connect
//
// Connect picks the dialector from Config.Driver, tunes the connection pool and pings
// the server before returning.
//
// # Schema Inspection
//
// GetTableColumns lists a table's columns for both dialects. RequireColumns builds on it
// to fail fast when a table the reconciler reads from lacks a column.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Fatal("Database connection failed", err)
//	}
//
//	err = database.RequireColumns(db, "netbox", "netboxid", "deviceid", "typeid", "sysname")
package database
