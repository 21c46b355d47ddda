// Package workers implements the bounded pool that executes queued runs.
//
// The pool manages a fixed number of goroutines that:
//   - Take jobs from a bounded queue, rejecting submissions when it is full
//   - Track per-worker idle/busy/stopped status
//   - Report queue depth to the metrics collector
//
// The health monitor periodically logs worker status and records it as metrics.
package workers
