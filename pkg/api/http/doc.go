// Package http provides the HTTP REST API implementation.
//
// The HTTP server exposes endpoints for:
//   - Workflow validation and node kind discovery
//   - Synchronous and queued runs, status queries and cancellation
//   - Health checks
//   - Prometheus metrics
//
// Errors use a single shape: {"error": {"code", "message", "details"}}.
package http
