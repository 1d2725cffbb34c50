// Package timeouts defines shared timeout constants used across services.
package timeouts

import "time"

// ReadHeader limits how long an HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long servers wait for in-flight requests during
// graceful shutdown.
const Shutdown = 5 * time.Second

// HealthProbe caps a single gRPC health check round trip.
const HealthProbe = 2 * time.Second

// ReloadDebounce is how long the watcher waits for a burst of file events
// to settle before reloading translations.
const ReloadDebounce = 250 * time.Millisecond
