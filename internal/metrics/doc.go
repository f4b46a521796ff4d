// Package metrics exposes Prometheus collectors for lifecycle signals,
// trigger decisions and backend deliveries. Helpers are no-ops until
// Register succeeds.
package metrics
