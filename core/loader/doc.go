// Package loader registers HTTP features and mounts the enabled ones.
//
// A feature bundles a service with its routes. The start command registers every
// feature with a Manager and calls LoadAll once the shared middleware is in place.
// Features report IsEnabled false when a dependency they need is missing (the netbox
// feature without a database), in which case their routes are not mounted.
package loader
