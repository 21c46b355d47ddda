// Package websocket provides real-time event streaming via WebSocket.
//
// Clients connect to /api/v1/runs/:id/ws to receive the node and run
// lifecycle events of one run. The connection closes after the run's
// completed or cancelled event.
package websocket
