// Package orchestrator implements the service layer around the engine.
//
// The manager coordinates workflow runs by:
//   - Validating descriptions against service limits and loading them
//   - Running workflows synchronously or queueing them on the worker pool
//   - Tracking in-flight runs so they can be inspected and cancelled
//   - Persisting finished run reports to the report store
//
// Run and node events are published by the engine's executor.
package orchestrator
