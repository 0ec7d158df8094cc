// Package device owns the device table side of a netbox reconcile: it resolves
// device identifiers by serial and records hardware and software versions.
package device
