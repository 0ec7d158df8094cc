// Package utils provides common helpers for netbox-sync.
// It holds the conversions used when scanning loosely typed rows, where MySQL
// returns byte slices and SQLite returns native integers for the same column.
package utils
