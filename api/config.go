// Package api provides the HTTP API for reading and editing a bibweb graph,
// moving assets in and out of the blob store and scraping metrics.
package api

import "time"

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8090")
	ListenAddr string

	// BodyLimit caps request bodies in bytes. Imports and asset uploads
	// are the large ones. Zero uses 64 MiB.
	BodyLimit int

	// StreamBuffer is how many graph changes GET /v1/events queues per
	// client before dropping. Zero uses 64.
	StreamBuffer int

	// KeepAlive is the interval between keep-alive comments on
	// GET /v1/events. Zero uses 15s.
	KeepAlive time.Duration
}
