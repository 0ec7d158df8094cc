// Package netbox keeps netbox rows in line with freshly collected device data.
//
// A Snapshot holds the device and netbox tables as they were when the process
// started. The Reconciler compares each committed observation against the
// snapshot and writes the netbox row only when the device id, type id or sysname
// changed. Hardware and software versions are persisted by the device updater and
// never trigger a netbox write on their own.
//
// Each observation runs in its own unit of work: the device update comes first,
// then the netbox decision, then commit. Any failure rolls the whole unit back.
//
// # HTTP Endpoints
//
//   - GET /netbox/snapshot : Snapshot state and sizes.
//   - GET /netbox/{netboxid} : Cached record of one netbox.
//   - POST /netbox/{netboxid} : Reconcile one observation.
//   - POST /netbox/run : Reconcile the observation batches in storage (supports ?report=true).
package netbox
