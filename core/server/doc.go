// Package server holds the HTTP intake server configuration.
//
// While the start command handles the server startup, this package defines the
// configuration structure and the small helpers derived from it (listen address,
// body limit, whether the API key middleware is active).
package server
